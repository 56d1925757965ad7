package gitcli

import (
	"context"
	"fmt"
)

// Worktree is an isolated secondary checkout sharing history with its parent
// repository but owning an independent working directory and index. It exists
// so walking a caller-owned local repository never mutates their checkout.
type Worktree struct {
	parent *Repository
	dir    string
}

// AddWorktree creates a detached worktree of this repository at dir.
func (r *Repository) AddWorktree(ctx context.Context, dir string) (*Worktree, error) {
	_, err := runGit(ctx, r.dir, "worktree", "add", "--detach", dir)
	if err != nil {
		return nil, fmt.Errorf("add worktree: %w", err)
	}

	return &Worktree{parent: r, dir: dir}, nil
}

// Dir returns the worktree's working directory.
func (w *Worktree) Dir() string { return w.dir }

// Repo returns a Repository rooted at the worktree, usable for checkouts
// without touching the parent's working directory.
func (w *Worktree) Repo() *Repository {
	return &Repository{dir: w.dir}
}

// Remove deletes the worktree and its administrative state. Creation and
// removal must be paired even on the error path.
func (w *Worktree) Remove(ctx context.Context) error {
	_, err := runGit(ctx, w.parent.dir, "worktree", "remove", "--force", w.dir)
	if err != nil {
		return fmt.Errorf("remove worktree: %w", err)
	}

	return nil
}
