package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// DiffMode specifies the type of diff to retrieve.
type DiffMode int

const (
	// DiffUncommitted gets diffs for all uncommitted changes (working directory + staged).
	DiffUncommitted DiffMode = iota
	// DiffStaged gets diffs for only staged changes.
	DiffStaged
	// DiffBranch gets diffs between a base branch and HEAD.
	DiffBranch
)

// DiffOptions specifies options for retrieving a git diff.
type DiffOptions struct {
	Mode       DiffMode
	BaseBranch string // Required for DiffBranch mode
}

// Describe returns a human-readable description of the diff options.
func (o DiffOptions) Describe() string {
	switch o.Mode {
	case DiffUncommitted:
		return "uncommitted changes"
	case DiffStaged:
		return "staged changes"
	case DiffBranch:
		return fmt.Sprintf("changes vs %s", o.BaseBranch)
	default:
		return "unknown"
	}
}

// Diff retrieves a unified diff based on the specified mode.
func (e *Executor) Diff(ctx context.Context, dir string, opts DiffOptions) (string, error) {
	var args []string

	switch opts.Mode {
	case DiffUncommitted:
		args = []string{"diff", "HEAD"}

	case DiffStaged:
		args = []string{"diff", "--staged"}

	case DiffBranch:
		if opts.BaseBranch == "" {
			return "", fmt.Errorf("base branch required for DiffBranch mode")
		}
		// Three-dot notation compares against the merge base.
		args = []string{"diff", opts.BaseBranch + "...HEAD"}

	default:
		return "", fmt.Errorf("unknown diff mode: %d", opts.Mode)
	}

	out, err := e.exec.RunDir(ctx, dir, e.gitPath, args...)
	if err != nil {
		return "", fmt.Errorf("git diff: %w", err)
	}

	return string(out), nil
}

// ParseDiff parses a unified diff into per-file structures.
func ParseDiff(diff string) ([]*gitdiff.File, error) {
	if strings.TrimSpace(diff) == "" {
		return nil, nil
	}

	files, _, err := gitdiff.Parse(strings.NewReader(diff))
	if err != nil {
		return nil, fmt.Errorf("parse diff: %w", err)
	}

	return files, nil
}

// FilePath returns the display path for a diff file: the new path when
// present, otherwise the old path (deletions).
func FilePath(f *gitdiff.File) string {
	if f.NewName != "" {
		return f.NewName
	}
	return f.OldName
}

// FileStatus returns a short status tag for a diff file.
func FileStatus(f *gitdiff.File) string {
	switch {
	case f.IsNew:
		return "added"
	case f.IsDelete:
		return "deleted"
	case f.IsRename:
		return "renamed"
	case f.IsCopy:
		return "copied"
	default:
		return "modified"
	}
}
