// Package checkpoint assembles match results, generated letters, and scraped
// posting detail into durable, uniquely identified package directories inside
// a destination collection. Packages are materialized atomically: a reader
// either sees a complete package or no package at all.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/jobscout/internal/identity"
	"github.com/jonathan/jobscout/internal/schemas"
)

// MetadataFile is the metadata record present in every package directory.
const MetadataFile = "package.json"

// Artifact file names inside a package directory.
const (
	MatchFile  = "match.json"
	DetailFile = "detail.json"
)

// LifecycleState tracks what has happened to a package after assembly.
// Only draft packages may transition, and only to a terminal state.
type LifecycleState string

const (
	StateDraft     LifecycleState = "draft"
	StateSent      LifecycleState = "sent"
	StateFailed    LifecycleState = "failed"
	StateWithdrawn LifecycleState = "withdrawn"
)

// ParseState converts a string into a known LifecycleState.
func ParseState(s string) (LifecycleState, error) {
	switch LifecycleState(s) {
	case StateDraft, StateSent, StateFailed, StateWithdrawn:
		return LifecycleState(s), nil
	}
	return "", fmt.Errorf("unknown lifecycle state %q", s)
}

// Terminal reports whether the state admits no further transitions.
func (s LifecycleState) Terminal() bool {
	return s == StateSent || s == StateFailed || s == StateWithdrawn
}

// Completeness is the result of the assembly completeness gate. Incomplete
// packages are still materialized so a reviewer can fill the gaps; nothing is
// ever dropped for being incomplete.
type Completeness struct {
	IsComplete bool     `json:"is_complete"`
	Missing    []string `json:"missing,omitempty"`
}

// CheckpointPackage is the metadata record of one assembled package,
// persisted as package.json next to the artifact files.
type CheckpointPackage struct {
	PackageID       uuid.UUID                `json:"package_id"`
	SequenceLabel   string                   `json:"sequence_label"`
	PostingIdentity identity.PostingIdentity `json:"posting_identity"`
	ContactRef      string                   `json:"contact_ref,omitempty"`
	LetterFiles     []string                 `json:"letter_files"`
	Completeness    Completeness             `json:"completeness"`
	LifecycleState  LifecycleState           `json:"lifecycle_state"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`

	// Dir is the package directory, set when loaded; not persisted.
	Dir string `json:"-"`
}

// Load reads and decodes the metadata record of the package directory at dir.
func Load(dir string) (*CheckpointPackage, error) {
	data, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		return nil, fmt.Errorf("load package %s: %w", dir, err)
	}

	// Hand-edited or truncated metadata is caught here, not at use sites.
	if err := schemas.ValidatePackageMetadata(data); err != nil {
		return nil, fmt.Errorf("load package %s: %w", dir, err)
	}

	var pkg CheckpointPackage
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("load package %s: decode metadata: %w", dir, err)
	}
	pkg.Dir = dir
	return &pkg, nil
}
