// Package identity canonicalizes job posting references into stable comparison keys.
// Two references that differ only in scheme, host case, a leading "www.", or a
// trailing slash must map to the same canonical key, otherwise the dedup ledger
// would record the same posting twice.
package identity

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// CanonicalScheme is the scheme every full reference is normalized to.
const CanonicalScheme = "https"

// PostingIdentity is the normalized identity of one job posting reference.
// CanonicalKey is a pure function of FullReference and is the only value the
// dedup ledger compares on.
type PostingIdentity struct {
	CanonicalKey  string `json:"canonical_key"`
	FullReference string `json:"full_reference"`
	SiteLocalID   string `json:"site_local_id,omitempty"`
}

// NormalizationError reports a reference that could not be canonicalized.
// Callers must skip such items entirely; inserting an empty or garbage key into
// the ledger would spuriously match every later lookup.
type NormalizationError struct {
	Reference string
	Message   string
	Cause     error
}

func (e *NormalizationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cannot normalize %q: %s: %v", e.Reference, e.Message, e.Cause)
	}
	return fmt.Sprintf("cannot normalize %q: %s", e.Reference, e.Message)
}

func (e *NormalizationError) Unwrap() error {
	return e.Cause
}

// Options configures normalization behavior.
type Options struct {
	// KeepQuery marks the query string as identity-bearing. Off by default:
	// most job boards put tracking parameters in the query, not the posting ID.
	KeepQuery bool
}

// Normalize canonicalizes a posting reference into a PostingIdentity.
// A site-relative reference (leading "/") is resolved against base first.
func Normalize(reference, base string, opts *Options) (PostingIdentity, error) {
	if opts == nil {
		opts = &Options{}
	}

	trimmed := strings.TrimSpace(reference)
	if trimmed == "" {
		return PostingIdentity{}, &NormalizationError{Reference: reference, Message: "empty reference"}
	}

	// Resolve site-relative references against the base listing URL.
	if strings.HasPrefix(trimmed, "/") {
		if strings.TrimSpace(base) == "" {
			return PostingIdentity{}, &NormalizationError{Reference: reference, Message: "relative reference without base"}
		}
		baseURL, err := url.Parse(base)
		if err != nil || baseURL.Host == "" {
			return PostingIdentity{}, &NormalizationError{Reference: reference, Message: "invalid base reference", Cause: err}
		}
		ref, err := url.Parse(trimmed)
		if err != nil {
			return PostingIdentity{}, &NormalizationError{Reference: reference, Message: "invalid relative reference", Cause: err}
		}
		trimmed = baseURL.ResolveReference(ref).String()
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return PostingIdentity{}, &NormalizationError{Reference: reference, Message: "unparseable reference", Cause: err}
	}
	if parsed.Host == "" {
		return PostingIdentity{}, &NormalizationError{Reference: reference, Message: "reference has no host"}
	}

	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return PostingIdentity{}, &NormalizationError{Reference: reference, Message: "reference has no host"}
	}

	path := strings.TrimRight(parsed.EscapedPath(), "/")

	full := CanonicalScheme + "://" + host + path
	key := host + strings.ToLower(path)

	if opts.KeepQuery && parsed.RawQuery != "" {
		full += "?" + parsed.RawQuery
		key += "?" + parsed.RawQuery
	}

	return PostingIdentity{
		CanonicalKey:  key,
		FullReference: full,
		SiteLocalID:   siteLocalID(path),
	}, nil
}

// siteLocalID extracts the trailing path segment when it looks like a posting
// ID (contains at least one digit). Best effort; empty when nothing matches.
func siteLocalID(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 0 {
		return ""
	}
	last := segments[len(segments)-1]
	for _, r := range last {
		if unicode.IsDigit(r) {
			return last
		}
	}
	return ""
}
