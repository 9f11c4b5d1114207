package checkpoint

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobscout/internal/identity"
	"github.com/jonathan/jobscout/internal/types"
)

func testInput(t *testing.T, ref string) Input {
	t.Helper()
	id, err := identity.Normalize(ref, "", nil)
	require.NoError(t, err)

	return Input{
		Identity: id,
		Title:    "Backend Engineer at Acme",
		Match:    types.MatchSummary{Score: 0.82, Rationale: "strong overlap with backend stack"},
		Letters: types.LetterArtifacts{
			{Name: "letter", Content: "Dear hiring team,\n..."},
			{Name: "email_body", Content: "Hi, please find my application attached."},
		},
		Detail:     types.SourceDetail{"title": "Backend Engineer", "contact": "jobs@acme.io"},
		ContactRef: "jobs@acme.io",
	}
}

func TestAssemble_CompletePackage(t *testing.T) {
	a, err := NewAssembler(t.TempDir())
	require.NoError(t, err)

	pkg, err := a.Assemble(context.Background(), testInput(t, "https://acme.io/jobs/42"))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, pkg.PackageID)
	assert.Equal(t, "0001", pkg.SequenceLabel)
	assert.Equal(t, StateDraft, pkg.LifecycleState)
	assert.True(t, pkg.Completeness.IsComplete)
	assert.Empty(t, pkg.Completeness.Missing)
	assert.Equal(t, "acme.io/jobs/42", pkg.PostingIdentity.CanonicalKey)

	// Every artifact landed in the committed directory.
	for _, name := range []string{MetadataFile, MatchFile, DetailFile, "letter.txt", "email_body.txt"} {
		_, statErr := os.Stat(filepath.Join(pkg.Dir, name))
		assert.NoError(t, statErr, name)
	}

	// Directory name is sequence label plus slug.
	assert.Equal(t, "0001-backend-engineer-at-acme", filepath.Base(pkg.Dir))

	// Round-trips through Load.
	loaded, err := Load(pkg.Dir)
	require.NoError(t, err)
	assert.Equal(t, pkg.PackageID, loaded.PackageID)
	assert.Equal(t, pkg.LetterFiles, loaded.LetterFiles)
}

func TestAssemble_IncompleteIsCreatedAndFlagged(t *testing.T) {
	a, err := NewAssembler(t.TempDir())
	require.NoError(t, err)

	in := testInput(t, "https://acme.io/jobs/42")
	in.Match = types.MatchSummary{}
	in.Letters = types.LetterArtifacts{{Name: "email_body", Content: "Hi"}}
	in.ContactRef = ""

	pkg, err := a.Assemble(context.Background(), in)
	require.NoError(t, err, "incomplete input must not be dropped")

	assert.False(t, pkg.Completeness.IsComplete)
	assert.ElementsMatch(t, []string{"match_summary", "letter", "contact_ref"}, pkg.Completeness.Missing)

	// The incomplete package is visible like any other.
	pkgs, err := a.List()
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.False(t, pkgs[0].Completeness.IsComplete)
}

func TestAssemble_SequenceLabelsIncrement(t *testing.T) {
	a, err := NewAssembler(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	first, err := a.Assemble(ctx, testInput(t, "https://acme.io/jobs/1"))
	require.NoError(t, err)
	second, err := a.Assemble(ctx, testInput(t, "https://acme.io/jobs/2"))
	require.NoError(t, err)

	assert.Equal(t, "0001", first.SequenceLabel)
	assert.Equal(t, "0002", second.SequenceLabel)
}

func TestAssemble_DuplicateGuard(t *testing.T) {
	a, err := NewAssembler(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	first, err := a.Assemble(ctx, testInput(t, "https://acme.io/jobs/42"))
	require.NoError(t, err)

	// Second assembly for the same posting while the first is a draft.
	_, err = a.Assemble(ctx, testInput(t, "https://acme.io/jobs/42"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyQueued)

	var queued *AlreadyQueuedError
	require.ErrorAs(t, err, &queued)
	assert.Equal(t, first.Dir, queued.ExistingDir)

	// No second package was created.
	pkgs, err := a.List()
	require.NoError(t, err)
	assert.Len(t, pkgs, 1)

	// After the draft reaches a terminal state, re-assembly is permitted.
	require.NoError(t, a.Transition(first.PackageID, StateSent))

	again, err := a.Assemble(ctx, testInput(t, "https://acme.io/jobs/42"))
	require.NoError(t, err)
	assert.Equal(t, "0002", again.SequenceLabel)
}

func TestAssemble_EquivalentReferencesShareGuard(t *testing.T) {
	a, err := NewAssembler(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = a.Assemble(ctx, testInput(t, "https://acme.io/jobs/42"))
	require.NoError(t, err)

	// Same posting, differently spelled reference.
	_, err = a.Assemble(ctx, testInput(t, "http://www.Acme.io/jobs/42/"))
	assert.ErrorIs(t, err, ErrAlreadyQueued)
}

func TestAssemble_CorruptCollectionSurfacesError(t *testing.T) {
	root := t.TempDir()
	a, err := NewAssembler(root)
	require.NoError(t, err)

	// A directory that looks like a package but lacks its metadata record,
	// e.g. hand-tampered. Assembly must fail loudly, not paper over it.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "0001-backend-engineer-at-acme"), 0o755))

	_, err = a.Assemble(context.Background(), testInput(t, "https://acme.io/jobs/42"))
	require.Error(t, err)

	// The failure left no staging residue behind.
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".staging-")
	}
}

func TestAssemble_StagingInvisibleToList(t *testing.T) {
	root := t.TempDir()
	a, err := NewAssembler(root)
	require.NoError(t, err)

	// A leftover staging directory from a process that died between artifact
	// writes must never surface as a package.
	staging := filepath.Join(root, ".staging-"+uuid.NewString())
	require.NoError(t, os.MkdirAll(staging, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(staging, MatchFile), []byte("{}"), 0o644))

	pkgs, err := a.List()
	require.NoError(t, err)
	assert.Empty(t, pkgs)
}

func TestAssemble_RejectsBadLetterNames(t *testing.T) {
	a, err := NewAssembler(t.TempDir())
	require.NoError(t, err)

	in := testInput(t, "https://acme.io/jobs/42")
	in.Letters = types.LetterArtifacts{{Name: "../escape", Content: "x"}}

	_, err = a.Assemble(context.Background(), in)
	assert.Error(t, err)
}

func TestAssemble_RejectsDuplicateLetterNames(t *testing.T) {
	a, err := NewAssembler(t.TempDir())
	require.NoError(t, err)

	in := testInput(t, "https://acme.io/jobs/42")
	in.Letters = types.LetterArtifacts{
		{Name: "letter", Content: "first"},
		{Name: "letter", Content: "second"},
	}

	_, err = a.Assemble(context.Background(), in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate letter artifact")

	// Nothing was created.
	pkgs, err := a.List()
	require.NoError(t, err)
	assert.Empty(t, pkgs)
}

func TestTransition(t *testing.T) {
	a, err := NewAssembler(t.TempDir())
	require.NoError(t, err)

	pkg, err := a.Assemble(context.Background(), testInput(t, "https://acme.io/jobs/42"))
	require.NoError(t, err)

	require.NoError(t, a.Transition(pkg.PackageID, StateSent))

	loaded, err := Load(pkg.Dir)
	require.NoError(t, err)
	assert.Equal(t, StateSent, loaded.LifecycleState)
	assert.True(t, loaded.UpdatedAt.After(loaded.CreatedAt) || loaded.UpdatedAt.Equal(loaded.CreatedAt))

	// Terminal states admit no further transitions.
	err = a.Transition(pkg.PackageID, StateWithdrawn)
	var transErr *TransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Equal(t, StateSent, transErr.From)
}

func TestTransition_RejectsDraftTarget(t *testing.T) {
	a, err := NewAssembler(t.TempDir())
	require.NoError(t, err)

	pkg, err := a.Assemble(context.Background(), testInput(t, "https://acme.io/jobs/42"))
	require.NoError(t, err)

	err = a.Transition(pkg.PackageID, StateDraft)
	var transErr *TransitionError
	assert.ErrorAs(t, err, &transErr)
}

func TestTransition_UnknownPackage(t *testing.T) {
	a, err := NewAssembler(t.TempDir())
	require.NoError(t, err)

	err = a.Transition(uuid.New(), StateSent)
	assert.ErrorIs(t, err, ErrPackageNotFound)
}

func TestPackageIDs_NoCollisions(t *testing.T) {
	// Simulates rapid successive assemblies: IDs must never depend on the
	// wall clock.
	seen := make(map[uuid.UUID]struct{}, 100_000)
	for i := 0; i < 100_000; i++ {
		id := uuid.New()
		_, dup := seen[id]
		require.False(t, dup, "collision after %d ids", i)
		seen[id] = struct{}{}
	}
}

func TestParseState(t *testing.T) {
	for _, valid := range []string{"draft", "sent", "failed", "withdrawn"} {
		state, err := ParseState(valid)
		require.NoError(t, err)
		assert.Equal(t, LifecycleState(valid), state)
	}

	_, err := ParseState("queued")
	assert.Error(t, err)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Backend Engineer at Acme", "backend-engineer-at-acme"},
		{"  C++ / Rust (Senior)  ", "c-rust-senior"},
		{"", "posting"},
		{"!!!", "posting"},
		{"a-very-long-title-that-keeps-going-and-going-and-going", "a-very-long-title-that-keeps-going-and-g"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.in), tt.in)
	}
}
