package gitcli

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLog(t *testing.T) {
	t.Parallel()

	out := "aaa111|2023-05-01T10:00:00+02:00|initial commit\n" +
		"bbb222|2023-05-02T11:30:00Z|add feature\n"

	commits, err := parseLog(out)
	require.NoError(t, err)
	require.Len(t, commits, 2)

	assert.Equal(t, "aaa111", commits[0].Hash)
	assert.Equal(t, "initial commit", commits[0].Message)
	assert.Equal(t, 2023, commits[0].Date.Year())
	assert.Equal(t, "bbb222", commits[1].Hash)
}

func TestParseLog_DelimiterInSubject(t *testing.T) {
	t.Parallel()

	out := "ccc333|2023-05-03T09:00:00Z|fix: a|b|c pipeline"

	commits, err := parseLog(out)
	require.NoError(t, err)
	require.Len(t, commits, 1)

	// Everything after the second delimiter belongs to the subject.
	assert.Equal(t, "fix: a|b|c pipeline", commits[0].Message)
}

func TestParseLog_Empty(t *testing.T) {
	t.Parallel()

	commits, err := parseLog("")
	require.NoError(t, err)
	assert.Empty(t, commits)
}

func TestParseLog_Malformed(t *testing.T) {
	t.Parallel()

	_, err := parseLog("only-a-hash")
	require.ErrorIs(t, err, ErrMalformedLogLine)
}

func TestParseLog_BadDate(t *testing.T) {
	t.Parallel()

	_, err := parseLog("ddd444|yesterday|message")
	require.Error(t, err)
}

// initTestRepo creates a local repository with the given number of commits on
// branch main. Tests needing real git skip when the binary is unavailable.
func initTestRepo(t *testing.T, commitCount int) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	mustGit(t, dir, "init", "--quiet", "-b", "main")
	mustGit(t, dir, "config", "user.email", "test@example.com")
	mustGit(t, dir, "config", "user.name", "Test")

	for i := range commitCount {
		name := filepath.Join(dir, "file.go")
		content := "package main\n"

		for range i + 1 {
			content += "// line\n"
		}

		require.NoError(t, os.WriteFile(name, []byte(content), 0o600))
		mustGit(t, dir, "add", ".")
		mustGit(t, dir, "commit", "--quiet", "-m", "commit "+string(rune('a'+i)))
	}

	return dir
}

func mustGit(t *testing.T, dir string, args ...string) {
	t.Helper()

	_, err := runGit(context.Background(), dir, args...)
	require.NoError(t, err)
}

func TestRepository_Log(t *testing.T) {
	t.Parallel()

	dir := initTestRepo(t, 3)
	repo := Open(dir)

	commits, err := repo.Log(context.Background(), "main", "")
	require.NoError(t, err)
	require.Len(t, commits, 3)

	// Oldest first.
	assert.Equal(t, "commit a", commits[0].Message)
	assert.Equal(t, "commit c", commits[2].Message)

	for _, c := range commits {
		assert.Len(t, c.Hash, 40)
		assert.WithinDuration(t, time.Now(), c.Date, time.Minute)
	}
}

func TestRepository_Log_AfterHash(t *testing.T) {
	t.Parallel()

	dir := initTestRepo(t, 3)
	repo := Open(dir)
	ctx := context.Background()

	all, err := repo.Log(ctx, "main", "")
	require.NoError(t, err)
	require.Len(t, all, 3)

	// Exclusive range: only commits strictly after the resume hash.
	tail, err := repo.Log(ctx, "main", all[0].Hash)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, all[1].Hash, tail[0].Hash)
}

func TestRepository_ResolveBranch(t *testing.T) {
	t.Parallel()

	dir := initTestRepo(t, 1)
	repo := Open(dir)
	ctx := context.Background()

	name, err := repo.ResolveBranch(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, "main", name)

	// Unknown branch, no master, no origin/HEAD.
	_, err = repo.ResolveBranch(ctx, "does-not-exist")
	require.ErrorIs(t, err, ErrBranchUnresolved)
}

func TestRepository_ValidateAndHasCommits(t *testing.T) {
	t.Parallel()

	dir := initTestRepo(t, 1)
	ctx := context.Background()

	repo := Open(dir)
	require.NoError(t, repo.Validate(ctx))
	assert.True(t, repo.HasCommits(ctx))

	empty := t.TempDir()
	mustGit(t, empty, "init", "--quiet", "-b", "main")
	assert.False(t, Open(empty).HasCommits(ctx))

	bogus := Open(filepath.Join(t.TempDir(), "nope"))
	require.ErrorIs(t, bogus.Validate(ctx), ErrNotRepository)
}

func TestRepository_CommitExists(t *testing.T) {
	t.Parallel()

	dir := initTestRepo(t, 1)
	repo := Open(dir)
	ctx := context.Background()

	commits, err := repo.Log(ctx, "main", "")
	require.NoError(t, err)

	assert.True(t, repo.CommitExists(ctx, commits[0].Hash))
	assert.False(t, repo.CommitExists(ctx, "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef"))
	assert.False(t, repo.CommitExists(ctx, ""))
}

func TestRepository_CheckoutAndWorktree(t *testing.T) {
	t.Parallel()

	dir := initTestRepo(t, 2)
	repo := Open(dir)
	ctx := context.Background()

	commits, err := repo.Log(ctx, "main", "")
	require.NoError(t, err)

	wtDir := filepath.Join(t.TempDir(), "wt")
	wt, err := repo.AddWorktree(ctx, wtDir)
	require.NoError(t, err)

	// Checkout in the worktree must not disturb the parent checkout.
	require.NoError(t, wt.Repo().Checkout(ctx, commits[0].Hash))

	parentContent, err := os.ReadFile(filepath.Join(dir, "file.go"))
	require.NoError(t, err)
	wtContent, err := os.ReadFile(filepath.Join(wtDir, "file.go"))
	require.NoError(t, err)
	assert.NotEqual(t, string(parentContent), string(wtContent))

	require.NoError(t, wt.Remove(ctx))
	assert.NoDirExists(t, wtDir)
}

func TestClone_Local(t *testing.T) {
	t.Parallel()

	src := initTestRepo(t, 2)
	dst := filepath.Join(t.TempDir(), "clone")

	repo, err := Clone(context.Background(), src, dst)
	require.NoError(t, err)

	commits, err := repo.Log(context.Background(), "main", "")
	require.NoError(t, err)
	assert.Len(t, commits, 2)
}
