// Package types holds the data structures shared between the acquisition
// engine, the checkpoint assembler, and the CLI.
package types

import "strings"

// RawItem is one posting entry as returned by a listing page fetch. Ref is
// the posting reference (absolute URL or site-relative path); everything else
// is carried opaquely into the ledger's raw attributes.
type RawItem struct {
	Ref   string         `json:"ref"`
	Title string         `json:"title,omitempty"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// MatchSummary is the structured match decision produced by the generation
// collaborator for one posting. The core treats it as opaque beyond checking
// that it is non-empty.
type MatchSummary struct {
	Score     float64        `json:"score"`
	Rationale string         `json:"rationale"`
	Model     string         `json:"model,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// IsEmpty reports whether the summary carries no usable decision.
func (m MatchSummary) IsEmpty() bool {
	return m.Score == 0 && strings.TrimSpace(m.Rationale) == ""
}

// LetterArtifact is one named content blob generated for a posting, e.g. the
// formatted cover letter or the plain-text email body.
type LetterArtifact struct {
	Name    string `json:"name" validate:"required,excludesall=/\\"`
	Content string `json:"content"`
}

// LetterArtifacts is the set of generated letter blobs for one posting.
type LetterArtifacts []LetterArtifact

// PrimaryLetterName is the artifact name the completeness gate requires.
const PrimaryLetterName = "letter"

// Primary returns the primary letter artifact, or a zero value if absent.
func (l LetterArtifacts) Primary() LetterArtifact {
	for _, a := range l {
		if a.Name == PrimaryLetterName {
			return a
		}
	}
	return LetterArtifact{}
}

// Get returns the artifact with the given name and whether it exists.
func (l LetterArtifacts) Get(name string) (LetterArtifact, bool) {
	for _, a := range l {
		if a.Name == name {
			return a, true
		}
	}
	return LetterArtifact{}, false
}

// SourceDetail is the scraped posting detail, opaque to the core.
type SourceDetail map[string]any

// ContactRef extracts the destination contact reference from the scraped
// detail, trying the keys the scraper is known to emit.
func (d SourceDetail) ContactRef() string {
	for _, key := range []string{"contact", "contact_email", "email", "apply_email"} {
		if v, ok := d[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
