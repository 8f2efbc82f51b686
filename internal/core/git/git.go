// Package git provides an abstraction for the git operations crit needs.
package git

import "context"

// Git defines the version-control operations used to build a review.
type Git interface {
	// RepoRoot returns the absolute path of the repository containing dir.
	RepoRoot(ctx context.Context, dir string) (string, error)
	// Branch returns the current branch name, or short commit SHA if in detached HEAD state.
	Branch(ctx context.Context, dir string) (string, error)
	// Diff returns the unified diff for the requested mode.
	Diff(ctx context.Context, dir string, opts DiffOptions) (string, error)
}
