// Package review holds the code review domain model: typed comments
// attached to diff lines or files, and the session that groups them.
package review

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a review comment.
type Kind string

const (
	KindIssue      Kind = "issue"
	KindSuggestion Kind = "suggestion"
	KindNote       Kind = "note"
	KindPraise     Kind = "praise"
)

// ParseKind converts a string to a Kind, case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(s)) {
	case KindIssue:
		return KindIssue, nil
	case KindSuggestion:
		return KindSuggestion, nil
	case KindNote:
		return KindNote, nil
	case KindPraise:
		return KindPraise, nil
	default:
		return "", fmt.Errorf("unknown comment kind: %q", s)
	}
}

// Label returns the uppercase display label for the kind.
func (k Kind) Label() string {
	return strings.ToUpper(string(k))
}

// Severity maps the kind to an IDE diagnostic severity.
func (k Kind) Severity() string {
	switch k {
	case KindIssue:
		return "error"
	case KindSuggestion:
		return "warning"
	case KindPraise:
		return "hint"
	default:
		return "information"
	}
}

// Side identifies which side of the diff a line comment refers to.
type Side string

const (
	SideOld Side = "old"
	SideNew Side = "new"
)

// Comment is one review comment. FileLevel comments have StartLine and
// EndLine set to 0.
type Comment struct {
	ID          string    `json:"id"`
	FilePath    string    `json:"filePath"`
	StartLine   int       `json:"startLine"`
	EndLine     int       `json:"endLine"`
	Side        Side      `json:"side,omitempty"`
	Kind        Kind      `json:"kind"`
	Text        string    `json:"text"`
	ContextText string    `json:"contextText,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FileLevel reports whether the comment applies to the whole file rather
// than a line range.
func (c Comment) FileLevel() bool {
	return c.StartLine == 0 && c.EndLine == 0
}

// LineLabel returns a display label for the comment's line range.
func (c Comment) LineLabel() string {
	if c.FileLevel() {
		return "File"
	}
	if c.StartLine == c.EndLine {
		return fmt.Sprintf("Line %d", c.StartLine)
	}
	return fmt.Sprintf("Lines %d-%d", c.StartLine, c.EndLine)
}

// Session groups the comments and per-file review progress for one
// workspace and diff context.
type Session struct {
	ID            string          `json:"id"`
	WorkspacePath string          `json:"workspacePath"`
	DiffContext   string          `json:"diffContext"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	Comments      []Comment       `json:"comments"`
	Reviewed      map[string]bool `json:"reviewed"`
}

// NewSession creates an empty session for the given workspace and diff
// context description (e.g. "staged changes").
func NewSession(workspacePath, diffContext string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:            uuid.NewString(),
		WorkspacePath: workspacePath,
		DiffContext:   diffContext,
		CreatedAt:     now,
		UpdatedAt:     now,
		Comments:      []Comment{},
		Reviewed:      map[string]bool{},
	}
}

// AddComment assigns an ID and timestamp and appends the comment,
// returning the stored copy.
func (s *Session) AddComment(c Comment) Comment {
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	s.Comments = append(s.Comments, c)
	s.touch()
	return c
}

// UpdateComment replaces the text and kind of an existing comment.
// Returns false when no comment has the given id.
func (s *Session) UpdateComment(id string, text string, kind Kind) bool {
	for i := range s.Comments {
		if s.Comments[i].ID == id {
			s.Comments[i].Text = text
			s.Comments[i].Kind = kind
			s.touch()
			return true
		}
	}
	return false
}

// DeleteComment removes a comment by id. Returns false when not found.
func (s *Session) DeleteComment(id string) bool {
	for i := range s.Comments {
		if s.Comments[i].ID == id {
			s.Comments = append(s.Comments[:i], s.Comments[i+1:]...)
			s.touch()
			return true
		}
	}
	return false
}

// CommentsFor returns the comments on one file, sorted by start line with
// file-level comments first.
func (s *Session) CommentsFor(path string) []Comment {
	var out []Comment
	for _, c := range s.Comments {
		if c.FilePath == path {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartLine < out[j].StartLine
	})
	return out
}

// CommentedFiles returns the distinct file paths that carry comments, in
// lexical order.
func (s *Session) CommentedFiles() []string {
	seen := map[string]bool{}
	var files []string
	for _, c := range s.Comments {
		if !seen[c.FilePath] {
			seen[c.FilePath] = true
			files = append(files, c.FilePath)
		}
	}
	sort.Strings(files)
	return files
}

// ToggleReviewed flips the reviewed flag for a file and returns the new
// value.
func (s *Session) ToggleReviewed(path string) bool {
	if s.Reviewed == nil {
		s.Reviewed = map[string]bool{}
	}
	s.Reviewed[path] = !s.Reviewed[path]
	s.touch()
	return s.Reviewed[path]
}

// IsReviewed reports whether a file has been marked reviewed.
func (s *Session) IsReviewed(path string) bool {
	return s.Reviewed[path]
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now().UTC()
}
