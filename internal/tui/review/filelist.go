package review

import (
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/crit/internal/core/git"
)

// fileAnnotation carries the per-file review markers shown in the list.
type fileAnnotation struct {
	Reviewed bool
	Comments int
}

// FileList is the left panel: the flat list of files in the diff.
type FileList struct {
	files       []*gitdiff.File
	annotations map[string]fileAnnotation
	cursor      int
	offset      int
	width       int
	height      int
}

// NewFileList creates a file list over the parsed diff files.
func NewFileList(files []*gitdiff.File) FileList {
	return FileList{files: files, annotations: map[string]fileAnnotation{}}
}

// SetSize updates the panel dimensions.
func (l *FileList) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.scrollToCursor()
}

// SetAnnotations replaces the review markers.
func (l *FileList) SetAnnotations(annotations map[string]fileAnnotation) {
	l.annotations = annotations
}

// Selected returns the file under the cursor, or nil for an empty diff.
func (l *FileList) Selected() *gitdiff.File {
	if l.cursor < 0 || l.cursor >= len(l.files) {
		return nil
	}
	return l.files[l.cursor]
}

// SelectedIndex returns the cursor position.
func (l *FileList) SelectedIndex() int {
	return l.cursor
}

// Select moves the cursor to the given index, clamped to the list.
func (l *FileList) Select(idx int) {
	if len(l.files) == 0 {
		return
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= len(l.files) {
		idx = len(l.files) - 1
	}
	l.cursor = idx
	l.scrollToCursor()
}

// SelectPath moves the cursor to the first file whose path contains the
// given fragment. Returns false when nothing matches.
func (l *FileList) SelectPath(path string) bool {
	for i, f := range l.files {
		if strings.Contains(git.FilePath(f), path) {
			l.Select(i)
			return true
		}
	}
	return false
}

// MoveUp and MoveDown step the cursor.
func (l *FileList) MoveUp()   { l.Select(l.cursor - 1) }
func (l *FileList) MoveDown() { l.Select(l.cursor + 1) }

func (l *FileList) scrollToCursor() {
	if l.height <= 0 {
		return
	}
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+l.height {
		l.offset = l.cursor - l.height + 1
	}
}

// statusGlyph returns the one-letter styled status marker for a file.
func statusGlyph(f *gitdiff.File) string {
	switch git.FileStatus(f) {
	case "added":
		return statusAdded.Render("A")
	case "deleted":
		return statusDeleted.Render("D")
	case "renamed":
		return statusModified.Render("R")
	case "copied":
		return statusModified.Render("C")
	default:
		return statusModified.Render("M")
	}
}

// View renders the visible slice of the list.
func (l FileList) View() string {
	if len(l.files) == 0 {
		return lineNumStyle.Render("no changes")
	}

	end := l.offset + l.height
	if end > len(l.files) {
		end = len(l.files)
	}

	var b strings.Builder
	for i := l.offset; i < end; i++ {
		f := l.files[i]
		path := git.FilePath(f)
		anno := l.annotations[path]

		marker := " "
		if anno.Reviewed {
			marker = reviewedStyle.Render("✓")
		}

		suffix := ""
		if anno.Comments > 0 {
			suffix = commentMarkerStyle.Render(fmt.Sprintf(" [%d]", anno.Comments))
		}

		line := fmt.Sprintf("%s %s %s%s", statusGlyph(f), marker, path, suffix)
		if i == l.cursor {
			line = cursorLineStyle.Render("> " + line)
		} else {
			line = "  " + line
		}

		b.WriteString(lipgloss.NewStyle().MaxWidth(l.width).Render(line))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}
