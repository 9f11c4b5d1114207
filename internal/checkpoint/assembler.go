package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/jobscout/internal/atomicfile"
	"github.com/jonathan/jobscout/internal/identity"
	"github.com/jonathan/jobscout/internal/schemas"
	"github.com/jonathan/jobscout/internal/types"
)

var (
	// ErrAlreadyQueued is returned when a draft package for the same posting
	// already exists in the collection.
	ErrAlreadyQueued = errors.New("draft package for this posting already queued")
	// ErrPackageNotFound is returned when no package has the requested ID.
	ErrPackageNotFound = errors.New("package not found")
)

// AlreadyQueuedError carries the location of the conflicting draft package.
type AlreadyQueuedError struct {
	CanonicalKey string
	ExistingDir  string
}

func (e *AlreadyQueuedError) Error() string {
	return fmt.Sprintf("draft package for %q already queued at %s", e.CanonicalKey, e.ExistingDir)
}

func (e *AlreadyQueuedError) Is(target error) bool {
	return target == ErrAlreadyQueued
}

// TransitionError reports a lifecycle transition that violates the
// draft-to-terminal invariant.
type TransitionError struct {
	PackageID uuid.UUID
	From      LifecycleState
	To        LifecycleState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("package %s: invalid transition %s -> %s", e.PackageID, e.From, e.To)
}

// Input is everything the caller supplies for one assembly. Fields the
// completeness gate requires may still be empty; the package is then created
// incomplete and flagged, never dropped.
type Input struct {
	Identity identity.PostingIdentity
	// Title feeds the human-readable directory slug.
	Title      string
	Match      types.MatchSummary
	Letters    types.LetterArtifacts `validate:"dive"`
	Detail     types.SourceDetail
	ContactRef string
}

// Assembler materializes checkpoint packages into one destination collection
// directory. Assembly and lifecycle transitions are serialized; the
// collection is single-writer.
type Assembler struct {
	mu       sync.Mutex
	root     string
	validate *validator.Validate
}

// NewAssembler opens (creating if needed) the destination collection at root.
func NewAssembler(root string) (*Assembler, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("checkpoint: create collection %s: %w", root, err)
	}
	return &Assembler{root: root, validate: validator.New()}, nil
}

// Root returns the destination collection directory.
func (a *Assembler) Root() string {
	return a.root
}

// Assemble creates one checkpoint package from the supplied artifacts.
//
// The package ID is a random UUID, never derived from wall-clock time, so
// rapid successive calls cannot collide. All files are staged in a temporary
// sibling directory and committed with a single atomic rename; a crash
// mid-assembly leaves no observable package. A second assembly for the same
// posting while a draft exists is rejected with ErrAlreadyQueued.
func (a *Assembler) Assemble(ctx context.Context, in Input) (*CheckpointPackage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("checkpoint: invalid input: %w", err)
	}

	// Two artifacts with the same name would race to the same staged file.
	names := make(map[string]struct{}, len(in.Letters))
	for _, letter := range in.Letters {
		if _, dup := names[letter.Name]; dup {
			return nil, fmt.Errorf("checkpoint: invalid input: duplicate letter artifact %q", letter.Name)
		}
		names[letter.Name] = struct{}{}
	}

	// Duplicate-submission guard: one draft per posting per collection.
	if in.Identity.CanonicalKey != "" {
		existing, err := a.findDraft(in.Identity.CanonicalKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, &AlreadyQueuedError{
				CanonicalKey: in.Identity.CanonicalKey,
				ExistingDir:  existing.Dir,
			}
		}
	}

	label, err := nextSequenceLabel(a.root)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: %w", err)
	}

	now := time.Now().UTC()
	pkg := &CheckpointPackage{
		PackageID:       uuid.New(),
		SequenceLabel:   label,
		PostingIdentity: in.Identity,
		ContactRef:      in.ContactRef,
		Completeness:    gateCompleteness(in),
		LifecycleState:  StateDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	pkg.LetterFiles = make([]string, 0, len(in.Letters))
	for _, letter := range in.Letters {
		pkg.LetterFiles = append(pkg.LetterFiles, letterFileName(letter.Name))
	}

	finalDir := filepath.Join(a.root, label+"-"+a.dirSlug(in))
	stagingDir := filepath.Join(a.root, ".staging-"+pkg.PackageID.String())

	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("checkpoint: create staging dir: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(stagingDir)
		}
	}()

	if err := a.stageArtifacts(ctx, stagingDir, in, pkg); err != nil {
		return nil, err
	}

	if err := atomicfile.CommitDir(stagingDir, finalDir); err != nil {
		return nil, fmt.Errorf("checkpoint: %w", err)
	}
	committed = true
	pkg.Dir = finalDir

	return pkg, nil
}

// stageArtifacts writes every artifact file plus the validated metadata
// record into the staging directory.
func (a *Assembler) stageArtifacts(ctx context.Context, dir string, in Input, pkg *CheckpointPackage) error {
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		return atomicfile.WriteJSON(filepath.Join(dir, MatchFile), in.Match, 0o644)
	})
	g.Go(func() error {
		detail := in.Detail
		if detail == nil {
			detail = types.SourceDetail{}
		}
		return atomicfile.WriteJSON(filepath.Join(dir, DetailFile), detail, 0o644)
	})
	for _, letter := range in.Letters {
		g.Go(func() error {
			return atomicfile.WriteFile(filepath.Join(dir, letterFileName(letter.Name)), []byte(letter.Content), 0o644)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("checkpoint: stage artifacts: %w", err)
	}

	metadata, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return fmt.Errorf("checkpoint: marshal metadata: %w", err)
	}
	if err := schemas.ValidatePackageMetadata(metadata); err != nil {
		return fmt.Errorf("checkpoint: metadata does not match schema: %w", err)
	}
	if err := atomicfile.WriteFile(filepath.Join(dir, MetadataFile), append(metadata, '\n'), 0o644); err != nil {
		return fmt.Errorf("checkpoint: write metadata: %w", err)
	}
	return nil
}

// gateCompleteness checks the fixed set of fields a sendable package needs.
func gateCompleteness(in Input) Completeness {
	var missing []string
	if in.Identity.CanonicalKey == "" {
		missing = append(missing, "posting_identity")
	}
	if in.Match.IsEmpty() {
		missing = append(missing, "match_summary")
	}
	if strings.TrimSpace(in.Letters.Primary().Content) == "" {
		missing = append(missing, "letter")
	}
	if strings.TrimSpace(in.ContactRef) == "" {
		missing = append(missing, "contact_ref")
	}
	return Completeness{IsComplete: len(missing) == 0, Missing: missing}
}

func (a *Assembler) dirSlug(in Input) string {
	switch {
	case in.Title != "":
		return slugify(in.Title)
	case in.Identity.SiteLocalID != "":
		return slugify(in.Identity.SiteLocalID)
	default:
		return slugify(in.Identity.CanonicalKey)
	}
}

// letterFileName maps a letter artifact name to its file inside the package.
func letterFileName(name string) string {
	return name + ".txt"
}

// findDraft returns the draft package with the given canonical key, or nil.
func (a *Assembler) findDraft(canonicalKey string) (*CheckpointPackage, error) {
	pkgs, err := a.list()
	if err != nil {
		return nil, err
	}
	for _, pkg := range pkgs {
		if pkg.PostingIdentity.CanonicalKey == canonicalKey && pkg.LifecycleState == StateDraft {
			return pkg, nil
		}
	}
	return nil, nil
}

// List returns every package in the collection, ordered by sequence label.
func (a *Assembler) List() ([]*CheckpointPackage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.list()
}

func (a *Assembler) list() ([]*CheckpointPackage, error) {
	entries, err := os.ReadDir(a.root)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: scan collection: %w", err)
	}

	var pkgs []*CheckpointPackage
	for _, entry := range entries {
		// Staging directories and stray files are not packages.
		if !entry.IsDir() || !dirPattern.MatchString(entry.Name()) {
			continue
		}
		pkg, err := Load(filepath.Join(a.root, entry.Name()))
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs, nil
}

// Transition moves a draft package to a terminal lifecycle state and rewrites
// its metadata atomically. Any other transition is rejected.
func (a *Assembler) Transition(packageID uuid.UUID, newState LifecycleState) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	pkgs, err := a.list()
	if err != nil {
		return err
	}

	var pkg *CheckpointPackage
	for _, p := range pkgs {
		if p.PackageID == packageID {
			pkg = p
			break
		}
	}
	if pkg == nil {
		return fmt.Errorf("%w: %s", ErrPackageNotFound, packageID)
	}

	if pkg.LifecycleState != StateDraft || !newState.Terminal() {
		return &TransitionError{PackageID: packageID, From: pkg.LifecycleState, To: newState}
	}

	pkg.LifecycleState = newState
	pkg.UpdatedAt = time.Now().UTC()

	metadata, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return fmt.Errorf("checkpoint: marshal metadata: %w", err)
	}
	if err := schemas.ValidatePackageMetadata(metadata); err != nil {
		return fmt.Errorf("checkpoint: metadata does not match schema: %w", err)
	}
	if err := atomicfile.WriteFile(filepath.Join(pkg.Dir, MetadataFile), append(metadata, '\n'), 0o644); err != nil {
		return fmt.Errorf("checkpoint: rewrite metadata: %w", err)
	}
	return nil
}
