package listing

import (
	"context"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/jobscout/internal/fetch"
	"github.com/jonathan/jobscout/internal/types"
)

// FetchDetail retrieves one posting page and scrapes it into a SourceDetail
// record: the main body text, the page title, and a contact reference when
// the page exposes a mailto link.
func (c *Client) FetchDetail(ctx context.Context, postingURL string) (types.SourceDetail, error) {
	result, err := fetch.URL(ctx, postingURL, c.opts)
	if err != nil {
		return nil, err
	}
	html := result.HTML

	platform := fetch.DetectPlatform(postingURL)
	text, err := fetch.ExtractMainText(html,
		fetch.PlatformDetailSelectors(platform),
		fetch.PlatformNoiseSelectors(platform)...)
	if err != nil {
		return nil, err
	}

	if c.useBrowser && fetch.ShouldUseBrowser(text) {
		if c.verbose {
			log.Printf("[VERBOSE] posting detail too short for %s, trying browser", postingURL)
		}
		rendered, browserErr := fetch.BrowserSimple(ctx, postingURL, c.verbose)
		if browserErr == nil {
			if renderedText, extractErr := fetch.ExtractMainText(rendered,
				fetch.PlatformDetailSelectors(platform),
				fetch.PlatformNoiseSelectors(platform)...); extractErr == nil && len(renderedText) > len(text) {
				html = rendered
				text = renderedText
			}
		} else if c.verbose {
			log.Printf("[VERBOSE] browser fallback failed: %v", browserErr)
		}
	}

	detail := types.SourceDetail{
		"url":  postingURL,
		"text": text,
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return detail, nil
	}

	if title := pageTitle(doc); title != "" {
		detail["title"] = title
	}
	if contact := mailtoContact(doc); contact != "" {
		detail["contact_email"] = contact
	}

	return detail, nil
}

// pageTitle prefers the first h1 over the document title, which job boards
// pad with company and site names.
func pageTitle(doc *goquery.Document) string {
	if h1 := doc.Find("h1"); h1.Length() > 0 {
		if title := cleanTitle(h1.First().Text()); title != "" {
			return title
		}
	}
	return cleanTitle(doc.Find("title").First().Text())
}

func mailtoContact(doc *goquery.Document) string {
	var contact string
	doc.Find("a[href^='mailto:']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		addr := strings.TrimPrefix(href, "mailto:")
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		addr = strings.TrimSpace(addr)
		if addr != "" {
			contact = addr
			return false
		}
		return true
	})
	return contact
}
