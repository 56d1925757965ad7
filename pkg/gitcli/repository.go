// Package gitcli drives a repository through the git command line: branch
// resolution, chronological log enumeration, forced checkouts and worktree
// management, all as synchronous subprocess calls with captured stdout.
package gitcli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// logDelimiter separates the hash, date and subject fields in log output.
const logDelimiter = "|"

// logFieldCount is the number of fields in one log line. The subject is the
// final field and may itself contain the delimiter.
const logFieldCount = 3

// Sentinel errors for git operations.
var (
	ErrBranchUnresolved = errors.New("cannot resolve branch")
	ErrMalformedLogLine = errors.New("malformed log line")
	ErrNotRepository    = errors.New("not a git repository")
)

// Commit is one entry of the chronological log.
type Commit struct {
	Hash    string
	Date    time.Time
	Message string
}

// Repository is a git checkout rooted at a filesystem path.
type Repository struct {
	dir string
}

// Open wraps an existing checkout directory. No validation is performed;
// the first git invocation surfaces a bad path.
func Open(dir string) *Repository {
	return &Repository{dir: dir}
}

// Clone clones url into dir and returns the resulting repository.
func Clone(ctx context.Context, url, dir string) (*Repository, error) {
	_, err := runGit(ctx, ".", "clone", "--quiet", url, dir)
	if err != nil {
		return nil, fmt.Errorf("clone %s: %w", url, err)
	}

	return &Repository{dir: dir}, nil
}

// Dir returns the checkout root.
func (r *Repository) Dir() string { return r.dir }

// Validate confirms the directory actually is a git repository.
func (r *Repository) Validate(ctx context.Context) error {
	_, err := runGit(ctx, r.dir, "rev-parse", "--git-dir")
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotRepository, r.dir)
	}

	return nil
}

// ResolveBranch picks the branch to walk. The requested name wins if a remote
// (or, for remote-less local repositories, a local) branch of that name
// exists; otherwise master is tried the same way; otherwise the remote's
// symbolic default-branch reference decides. Exactly one name is returned.
func (r *Repository) ResolveBranch(ctx context.Context, requested string) (string, error) {
	for _, candidate := range []string{requested, "master"} {
		if candidate == "" {
			continue
		}

		if r.branchExists(ctx, candidate) {
			return candidate, nil
		}
	}

	out, err := runGit(ctx, r.dir, "symbolic-ref", "--short", "refs/remotes/origin/HEAD")
	if err != nil {
		return "", fmt.Errorf("%w: no %q, no master, no origin/HEAD", ErrBranchUnresolved, requested)
	}

	// symbolic-ref --short yields "origin/<branch>".
	name := strings.TrimPrefix(strings.TrimSpace(out), "origin/")
	if name == "" {
		return "", fmt.Errorf("%w: empty origin/HEAD target", ErrBranchUnresolved)
	}

	return name, nil
}

// branchExists reports whether name exists as a remote or local branch.
func (r *Repository) branchExists(ctx context.Context, name string) bool {
	for _, ref := range []string{"refs/remotes/origin/" + name, "refs/heads/" + name} {
		_, err := runGit(ctx, r.dir, "show-ref", "--verify", "--quiet", ref)
		if err == nil {
			return true
		}
	}

	return false
}

// Log lists commits on branch in chronological order, oldest first.
// A non-empty afterHash bounds the range exclusively: only commits strictly
// after it are returned.
func (r *Repository) Log(ctx context.Context, branch, afterHash string) ([]Commit, error) {
	rev := r.revForBranch(ctx, branch)
	if afterHash != "" {
		rev = afterHash + ".." + rev
	}

	out, err := runGit(ctx, r.dir, "log", "--reverse", "--pretty=format:%H"+logDelimiter+"%cI"+logDelimiter+"%s", rev)
	if err != nil {
		return nil, fmt.Errorf("log %s: %w", rev, err)
	}

	return parseLog(out)
}

// revForBranch prefers the remote-tracking ref when it exists, so freshly
// cloned repositories walk origin's branch even before a local head is made.
func (r *Repository) revForBranch(ctx context.Context, branch string) string {
	_, err := runGit(ctx, r.dir, "rev-parse", "--verify", "--quiet", "origin/"+branch)
	if err == nil {
		return "origin/" + branch
	}

	return branch
}

// parseLog parses delimited log output. Subjects containing the delimiter do
// not corrupt parsing: only the first two fields are positional.
func parseLog(out string) ([]Commit, error) {
	var commits []Commit

	for line := range strings.SplitSeq(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.SplitN(line, logDelimiter, logFieldCount)
		if len(fields) < logFieldCount {
			return nil, fmt.Errorf("%w: %q", ErrMalformedLogLine, line)
		}

		date, err := time.Parse(time.RFC3339, fields[1])
		if err != nil {
			return nil, fmt.Errorf("parse commit date %q: %w", fields[1], err)
		}

		commits = append(commits, Commit{
			Hash:    fields[0],
			Date:    date,
			Message: fields[2],
		})
	}

	return commits, nil
}

// HasCommits reports whether the repository contains at least one commit.
// A freshly initialized repository has a symbolic HEAD but no commit behind it.
func (r *Repository) HasCommits(ctx context.Context) bool {
	_, err := runGit(ctx, r.dir, "rev-parse", "--verify", "--quiet", "HEAD^{commit}")

	return err == nil
}

// CommitExists reports whether hash names a commit object in this repository.
func (r *Repository) CommitExists(ctx context.Context, hash string) bool {
	if hash == "" {
		return false
	}

	_, err := runGit(ctx, r.dir, "cat-file", "-e", hash+"^{commit}")

	return err == nil
}

// Checkout forcibly and quietly checks out the given commit into the working
// directory. The previous contents of the tree are overwritten.
func (r *Repository) Checkout(ctx context.Context, hash string) error {
	_, err := runGit(ctx, r.dir, "checkout", "--force", "--quiet", hash)
	if err != nil {
		return fmt.Errorf("checkout %s: %w", hash, err)
	}

	return nil
}

// runGit executes git with the given arguments in dir, returning captured
// stdout. Stderr is folded into the error for diagnosis.
func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("git %s: %w: %s", args[0], err, msg)
		}

		return "", fmt.Errorf("git %s: %w", args[0], err)
	}

	return stdout.String(), nil
}
