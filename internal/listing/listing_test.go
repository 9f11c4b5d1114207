package listing

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobscout/internal/fetch"
)

func TestPageURL(t *testing.T) {
	tests := []struct {
		name    string
		context string
		page    int
		want    string
		wantErr bool
	}{
		{
			name:    "template placeholder",
			context: "https://acme.io/jobs?p={page}",
			page:    3,
			want:    "https://acme.io/jobs?p=3",
		},
		{
			name:    "plain url first page",
			context: "https://acme.io/jobs",
			page:    1,
			want:    "https://acme.io/jobs",
		},
		{
			name:    "plain url later page",
			context: "https://acme.io/jobs",
			page:    2,
			want:    "https://acme.io/jobs?page=2",
		},
		{
			name:    "existing query preserved",
			context: "https://acme.io/jobs?dept=eng",
			page:    2,
			want:    "https://acme.io/jobs?dept=eng&page=2",
		},
		{
			name:    "empty context",
			context: "  ",
			page:    1,
			wantErr: true,
		},
		{
			name:    "page out of range",
			context: "https://acme.io/jobs",
			page:    0,
			wantErr: true,
		},
		{
			name:    "relative context",
			context: "/jobs",
			page:    1,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PageURL(tt.context, tt.page)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractItems_Greenhouse(t *testing.T) {
	html := `<html><body>
<div class="opening">
  <a href="/acme/jobs/100">Backend Engineer</a>
  <span class="location">Remote</span>
</div>
<div class="opening">
  <a href="/acme/jobs/200">Data Engineer</a>
</div>
</body></html>`

	items, err := ExtractItems(html, fetch.PlatformGreenhouse)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "/acme/jobs/100", items[0].Ref)
	assert.Equal(t, "Backend Engineer", items[0].Title)
	assert.Equal(t, "Remote", items[0].Attrs["location"])

	assert.Equal(t, "/acme/jobs/200", items[1].Ref)
	assert.Nil(t, items[1].Attrs)
}

func TestExtractItems_GenericFallback(t *testing.T) {
	html := `<html><body>
<ul class="jobs-list">
  <li><a href="https://acme.io/jobs/1">One</a></li>
  <li><a href="https://acme.io/jobs/2">Two</a></li>
</ul>
</body></html>`

	items, err := ExtractItems(html, fetch.PlatformUnknown)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "https://acme.io/jobs/1", items[0].Ref)
}

func TestExtractItems_DuplicateHrefsCollapsed(t *testing.T) {
	html := `<html><body>
<div class="opening"><a href="/acme/jobs/1">Title link</a></div>
<div class="opening"><a href="/acme/jobs/1">Same posting again</a></div>
</body></html>`

	items, err := ExtractItems(html, fetch.PlatformGreenhouse)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestExtractItems_IgnoresNonNavigatingAnchors(t *testing.T) {
	html := `<html><body>
<div class="opening"><a href="#top">Back to top</a></div>
<div class="opening"><a href="javascript:void(0)">Apply</a></div>
<div class="opening"><a href="/acme/jobs/1">Real posting</a></div>
</body></html>`

	items, err := ExtractItems(html, fetch.PlatformGreenhouse)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "/acme/jobs/1", items[0].Ref)
}

func TestExtractItems_NoMatches(t *testing.T) {
	items, err := ExtractItems("<html><body><p>Nothing here</p></body></html>", fetch.PlatformUnknown)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFetchPage(t *testing.T) {
	var pagesServed []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pagesServed = append(pagesServed, r.URL.Query().Get("page"))
		_, _ = fmt.Fprint(w, `<html><body>
<ul class="jobs-list">
  <li><a href="/jobs/1">One</a></li>
</ul>
</body></html>`)
	}))
	defer server.Close()

	c := NewClient()

	items, err := c.FetchPage(context.Background(), server.URL+"/jobs", 2)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "/jobs/1", items[0].Ref)
	assert.Equal(t, []string{"2"}, pagesServed)
}

func TestFetchPage_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewClient()

	_, err := c.FetchPage(context.Background(), server.URL, 1)
	require.Error(t, err)

	var fetchErr *fetch.Error
	assert.ErrorAs(t, err, &fetchErr)
}

func TestFetchDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `<html>
<head><title>Backend Engineer | Acme | Careers</title></head>
<body>
<h1>Backend Engineer</h1>
<div class="job-description">
<p>Build the ingestion pipeline.</p>
<p>Questions? <a href="mailto:jobs@acme.io?subject=hi">Email us</a></p>
</div>
</body></html>`)
	}))
	defer server.Close()

	c := NewClient()

	detail, err := c.FetchDetail(context.Background(), server.URL+"/jobs/1")
	require.NoError(t, err)

	assert.Equal(t, "Backend Engineer", detail["title"])
	assert.Contains(t, detail["text"], "Build the ingestion pipeline.")
	assert.Equal(t, "jobs@acme.io", detail["contact_email"])
	assert.Equal(t, "jobs@acme.io", detail.ContactRef())
}
