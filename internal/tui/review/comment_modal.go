package review

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/crit/internal/core/review"
)

// kindOrder is the cycle order for the kind selector.
var kindOrder = []review.Kind{
	review.KindNote,
	review.KindSuggestion,
	review.KindIssue,
	review.KindPraise,
}

// CommentModal captures a review comment for a line range or a whole file.
type CommentModal struct {
	input          textarea.Model
	kindIdx        int
	lineLabel      string
	contextPreview string
	fileLevel      bool
	editingID      string // non-empty when editing an existing comment
	width          int
	submitted      bool
	cancelled      bool
}

// NewCommentModal creates a modal for the given target. startLine and
// endLine of 0 mean a file-level comment.
func NewCommentModal(filePath string, startLine, endLine int, contextText string, width int) CommentModal {
	input := textarea.New()
	input.Placeholder = "Enter your review comment..."
	input.SetWidth(width - 10)
	input.SetHeight(4)
	input.Focus()

	label := fmt.Sprintf("%s — Lines %d-%d", filePath, startLine, endLine)
	switch {
	case startLine == 0 && endLine == 0:
		label = fmt.Sprintf("%s — whole file", filePath)
	case startLine == endLine:
		label = fmt.Sprintf("%s — Line %d", filePath, startLine)
	}

	return CommentModal{
		input:          input,
		lineLabel:      label,
		contextPreview: formatContextPreview(contextText),
		fileLevel:      startLine == 0 && endLine == 0,
		width:          width,
	}
}

// formatContextPreview trims long context: first 20 lines + ... + last 3.
func formatContextPreview(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) <= 23 {
		return text
	}
	first := strings.Join(lines[:20], "\n")
	last := strings.Join(lines[len(lines)-3:], "\n")
	return first + "\n...\n" + last
}

// SetExisting pre-fills the modal for editing an existing comment.
func (m *CommentModal) SetExisting(c review.Comment) {
	m.editingID = c.ID
	m.input.SetValue(c.Text)
	m.input.CursorEnd()
	for i, k := range kindOrder {
		if k == c.Kind {
			m.kindIdx = i
		}
	}
}

// Update handles modal input. tab cycles the comment kind, enter submits,
// esc cancels; everything else feeds the textarea.
func (m CommentModal) Update(msg tea.Msg) (CommentModal, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "tab":
			m.kindIdx = (m.kindIdx + 1) % len(kindOrder)
			return m, nil
		case "enter":
			if strings.TrimSpace(m.input.Value()) != "" {
				m.submitted = true
			}
			return m, nil
		case "esc":
			m.cancelled = true
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the modal box.
func (m CommentModal) View() string {
	kinds := make([]string, len(kindOrder))
	for i, k := range kindOrder {
		label := k.Label()
		if i == m.kindIdx {
			label = modalTitleStyle.Render("[" + label + "]")
		} else {
			label = modalHelpStyle.Render(label)
		}
		kinds[i] = label
	}

	sections := []string{
		modalTitleStyle.Render("Add Review Comment"),
		modalHelpStyle.Render(m.lineLabel),
	}
	if m.editingID != "" {
		sections[0] = modalTitleStyle.Render("Edit Review Comment")
	}
	if m.contextPreview != "" {
		sections = append(sections, lipgloss.NewStyle().Foreground(colorGray).Italic(true).Render(m.contextPreview))
	}
	sections = append(sections,
		strings.Join(kinds, " "),
		m.input.View(),
		modalHelpStyle.Render("enter: submit • tab: kind • esc: cancel"),
	)

	return modalStyle.Width(m.width - 4).Render(strings.Join(sections, "\n\n"))
}

// Submitted reports whether the comment was submitted.
func (m CommentModal) Submitted() bool { return m.submitted }

// Cancelled reports whether the modal was dismissed.
func (m CommentModal) Cancelled() bool { return m.cancelled }

// Value returns the entered comment text.
func (m CommentModal) Value() string { return strings.TrimSpace(m.input.Value()) }

// Kind returns the selected comment kind.
func (m CommentModal) Kind() review.Kind { return kindOrder[m.kindIdx] }

// EditingID returns the id of the comment being edited, or empty for a new
// comment.
func (m CommentModal) EditingID() string { return m.editingID }

// FileLevel reports whether the modal targets the whole file.
func (m CommentModal) FileLevel() bool { return m.fileLevel }
