// Package listing turns a search context into pages of raw posting items. It
// sits between the acquisition engine and the fetch layer: the engine asks
// for page N, this package builds the page URL, retrieves the HTML, and
// extracts the posting anchors for the detected job board platform.
package listing

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/jobscout/internal/fetch"
	"github.com/jonathan/jobscout/internal/types"
)

// PagePlaceholder in a search context is replaced with the page number. A
// search context without it gets a `page` query parameter for pages past the
// first.
const PagePlaceholder = "{page}"

// Client fetches and parses listing pages.
type Client struct {
	opts       *fetch.Options
	useBrowser bool
	verbose    bool
}

// Option configures a Client.
type Option func(*Client)

// WithFetchOptions sets the HTTP fetch options.
func WithFetchOptions(opts *fetch.Options) Option {
	return func(c *Client) { c.opts = opts }
}

// WithBrowserFallback enables headless browser rendering when static HTML
// yields no items.
func WithBrowserFallback(enabled bool) Option {
	return func(c *Client) { c.useBrowser = enabled }
}

// WithVerbose enables verbose logging.
func WithVerbose(verbose bool) Option {
	return func(c *Client) { c.verbose = verbose }
}

// NewClient creates a listing client.
func NewClient(options ...Option) *Client {
	c := &Client{opts: fetch.DefaultOptions()}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// FetchPage retrieves one listing page for the search context and extracts
// its posting items. An empty result with a nil error means the page exists
// but lists nothing, which the acquisition engine treats as end of listings.
func (c *Client) FetchPage(ctx context.Context, searchContext string, page int) ([]types.RawItem, error) {
	pageURL, err := PageURL(searchContext, page)
	if err != nil {
		return nil, err
	}

	result, err := fetch.URL(ctx, pageURL, c.opts)
	if err != nil {
		return nil, err
	}

	platform := fetch.DetectPlatform(searchContext)
	items, err := ExtractItems(result.HTML, platform)
	if err != nil {
		return nil, err
	}

	if len(items) == 0 && c.useBrowser {
		if c.verbose {
			log.Printf("[VERBOSE] no items in static HTML for %s, trying browser", pageURL)
		}
		html, browserErr := fetch.BrowserSimple(ctx, pageURL, c.verbose)
		if browserErr != nil {
			return nil, fmt.Errorf("browser fallback for %s: %w", pageURL, browserErr)
		}
		items, err = ExtractItems(html, platform)
		if err != nil {
			return nil, err
		}
	}

	return items, nil
}

// PageURL builds the URL for one listing page from a search context. The
// context is either a URL template containing PagePlaceholder or a plain
// listing URL, in which case pages past the first get a `page` parameter.
func PageURL(searchContext string, page int) (string, error) {
	if strings.TrimSpace(searchContext) == "" {
		return "", fmt.Errorf("listing: empty search context")
	}
	if page < 1 {
		return "", fmt.Errorf("listing: page number %d out of range", page)
	}

	if strings.Contains(searchContext, PagePlaceholder) {
		return strings.ReplaceAll(searchContext, PagePlaceholder, fmt.Sprintf("%d", page)), nil
	}

	parsed, err := url.Parse(searchContext)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("listing: invalid search context %q", searchContext)
	}

	if page == 1 {
		return searchContext, nil
	}

	query := parsed.Query()
	query.Set("page", fmt.Sprintf("%d", page))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// ExtractItems parses listing HTML and returns the posting items found. The
// platform's item selectors are tried in order; the first selector that
// matches anything wins. Duplicate hrefs within one page are collapsed.
func ExtractItems(html string, platform fetch.Platform) ([]types.RawItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("listing: failed to parse HTML: %w", err)
	}

	var selection *goquery.Selection
	for _, selector := range fetch.PlatformItemSelectors(platform) {
		if s := doc.Find(selector); s.Length() > 0 {
			selection = s
			break
		}
	}
	if selection == nil {
		return nil, nil
	}

	var items []types.RawItem
	seen := make(map[string]struct{})

	selection.Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "javascript:") {
			return
		}
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}

		item := types.RawItem{
			Ref:   href,
			Title: cleanTitle(s.Text()),
		}
		if location := itemLocation(s); location != "" {
			item.Attrs = map[string]any{"location": location}
		}
		items = append(items, item)
	})

	return items, nil
}

// itemLocation looks for a location annotation near the item anchor, a shape
// common to greenhouse and lever listing markup.
func itemLocation(s *goquery.Selection) string {
	for _, selector := range []string{".location", ".posting-categories .sort-by-location", "[data-automation-id='locations']"} {
		if loc := s.Parent().Find(selector); loc.Length() > 0 {
			return cleanTitle(loc.First().Text())
		}
	}
	return ""
}

func cleanTitle(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
