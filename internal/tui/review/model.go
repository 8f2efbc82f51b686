// Package review implements the two-panel code review TUI: a file list on
// the left and a diff viewer on the right, with typed comments and live
// IDE-server state publishing.
package review

import (
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/colonyops/crit/internal/core/git"
	"github.com/colonyops/crit/internal/core/review"
	"github.com/colonyops/crit/internal/ide"
	"github.com/colonyops/crit/internal/stores"
)

// FocusedPanel represents which panel has keyboard focus.
type FocusedPanel int

const (
	FocusFileList FocusedPanel = iota
	FocusDiffView
)

// Options configures the review model.
type Options struct {
	Files         []*gitdiff.File
	Session       *review.Session
	Store         *stores.ReviewStore
	WorkspacePath string

	// IDEState and Bridge are nil when the IDE server is disabled.
	IDEState *ide.StateStore
	Bridge   *ide.Bridge

	Log zerolog.Logger
}

// Model is the top-level review TUI model.
type Model struct {
	files         []*gitdiff.File
	session       *review.Session
	store         *stores.ReviewStore
	workspacePath string

	list    FileList
	diff    DiffView
	modal   *CommentModal
	focused FocusedPanel

	ideState *ide.StateStore
	bridge   *ide.Bridge
	log      zerolog.Logger

	status   string
	width    int
	height   int
	quitting bool
}

// New creates the review model and selects the first file.
func New(opts Options) Model {
	m := Model{
		files:         opts.Files,
		session:       opts.Session,
		store:         opts.Store,
		workspacePath: opts.WorkspacePath,
		list:          NewFileList(opts.Files),
		diff:          NewDiffView(),
		ideState:      opts.IDEState,
		bridge:        opts.Bridge,
		log:           opts.Log,
	}
	m.showSelected()
	m.refreshAnnotations()
	m.syncIDEState()
	return m
}

// Init starts the bridge wakeup listener when the IDE server is running.
func (m Model) Init() tea.Cmd {
	if m.bridge == nil {
		return nil
	}
	return waitForIDECommand(m.bridge)
}

// Update handles one message in the host loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case ideCommandMsg:
		// The wakeup consumed one command; apply it plus a bounded batch of
		// whatever queued behind it, then listen again.
		m.applyIDECommand(msg.first)
		for _, cmd := range m.bridge.Drain(ide.DrainBudget - 1) {
			m.applyIDECommand(cmd)
		}
		m.syncIDEState()
		return m, waitForIDECommand(m.bridge)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.modal != nil {
		return m.updateModal(msg)
	}

	// Search input captures everything except its own exit keys.
	if m.focused == FocusDiffView && m.diff.Searching() {
		var cmd tea.Cmd
		m.diff, cmd = m.diff.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.persist()
		m.quitting = true
		return m, tea.Quit

	case "tab":
		if m.focused == FocusFileList {
			m.focused = FocusDiffView
		} else {
			m.focused = FocusFileList
		}
		return m, nil

	case "c":
		return m.openCommentModal(false)

	case "C":
		return m.openCommentModal(true)

	case "x":
		m.deleteCursorComment()
		return m, nil

	case "r":
		path := m.diff.Path()
		if path != "" {
			m.session.ToggleReviewed(path)
			m.persist()
			m.refreshAnnotations()
			m.syncIDEState()
		}
		return m, nil
	}

	switch m.focused {
	case FocusFileList:
		switch msg.String() {
		case "j", "down":
			m.list.MoveDown()
			m.showSelected()
			m.syncIDEState()
		case "k", "up":
			m.list.MoveUp()
			m.showSelected()
			m.syncIDEState()
		case "g":
			m.list.Select(0)
			m.showSelected()
			m.syncIDEState()
		case "G":
			m.list.Select(len(m.files) - 1)
			m.showSelected()
			m.syncIDEState()
		case "enter":
			m.focused = FocusDiffView
		}
		return m, nil

	case FocusDiffView:
		var cmd tea.Cmd
		wasVisual := m.diff.InVisualMode()
		m.diff, cmd = m.diff.Update(msg)
		if wasVisual != m.diff.InVisualMode() || m.diff.InVisualMode() {
			m.syncIDEState()
		}
		return m, cmd
	}

	return m, nil
}

// openCommentModal starts comment entry for the current selection, or for
// the whole file when fileLevel is set.
func (m Model) openCommentModal(fileLevel bool) (tea.Model, tea.Cmd) {
	path := m.diff.Path()
	if path == "" {
		return m, nil
	}

	if fileLevel {
		modal := NewCommentModal(path, 0, 0, "", m.width)
		m.modal = &modal
		return m, nil
	}

	start, end, text, ok := m.diff.Selection()
	if !ok {
		m.status = "nothing to comment on"
		return m, nil
	}

	modal := NewCommentModal(path, start, end, text, m.width)

	// Editing: a single-line target that already carries a comment.
	if start == end {
		for _, c := range m.session.CommentsFor(path) {
			if c.StartLine == start && c.EndLine == end {
				modal.SetExisting(c)
				break
			}
		}
	}

	m.modal = &modal
	return m, nil
}

func (m Model) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	modal, cmd := m.modal.Update(msg)
	m.modal = &modal

	switch {
	case modal.Cancelled():
		m.modal = nil

	case modal.Submitted():
		path := m.diff.Path()
		start, end, text, _ := m.diff.Selection()
		if modal.FileLevel() {
			start, end, text = 0, 0, ""
		}

		if id := modal.EditingID(); id != "" {
			m.session.UpdateComment(id, modal.Value(), modal.Kind())
			m.status = "comment updated"
		} else {
			m.session.AddComment(review.Comment{
				FilePath:    path,
				StartLine:   start,
				EndLine:     end,
				Side:        review.SideNew,
				Kind:        modal.Kind(),
				Text:        modal.Value(),
				ContextText: text,
			})
			m.status = "comment added"
		}

		m.modal = nil
		m.diff.ClearSelection()
		m.persist()
		m.refreshAnnotations()
		m.diff.SetCommentedLines(commentedLines(m.session, path))
		m.syncIDEState()
	}

	return m, cmd
}

// deleteCursorComment removes the first comment covering the cursor line.
func (m *Model) deleteCursorComment() {
	path := m.diff.Path()
	line, ok := m.diff.CursorLine()
	if !ok || path == "" {
		return
	}

	src := line.sourceLine()
	for _, c := range m.session.CommentsFor(path) {
		if !c.FileLevel() && c.StartLine <= src && src <= c.EndLine {
			m.session.DeleteComment(c.ID)
			m.status = "comment deleted"
			m.persist()
			m.refreshAnnotations()
			m.diff.SetCommentedLines(commentedLines(m.session, path))
			m.syncIDEState()
			return
		}
	}
}

// showSelected points the diff view at the file under the list cursor.
func (m *Model) showSelected() {
	f := m.list.Selected()
	if f == nil {
		return
	}
	m.diff.SetFile(f)
	m.diff.SetCommentedLines(commentedLines(m.session, git.FilePath(f)))
}

func (m *Model) refreshAnnotations() {
	annotations := make(map[string]fileAnnotation, len(m.files))
	for _, f := range m.files {
		path := git.FilePath(f)
		annotations[path] = fileAnnotation{
			Reviewed: m.session.IsReviewed(path),
			Comments: len(m.session.CommentsFor(path)),
		}
	}
	m.list.SetAnnotations(annotations)
}

func (m *Model) persist() {
	if m.store == nil {
		return
	}
	if err := m.store.Save(m.session); err != nil {
		m.log.Error().Err(err).Msg("save review session")
		m.status = "failed to save session"
	}
}

// SetSize updates the dimensions and propagates to child panels.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	// File list takes 30% of width, diff viewer the rest.
	listWidth := width * 30 / 100
	diffWidth := width - listWidth - 4 // borders
	panelHeight := height - 3          // borders + status bar

	m.list.SetSize(listWidth, panelHeight)
	m.diff.SetSize(diffWidth, panelHeight)
}

// View renders the two-panel layout with a status bar, or the comment modal
// when one is open.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return ""
	}

	if m.modal != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.modal.View())
	}

	listStyle, diffStyle := blurredBorderStyle, focusedBorderStyle
	if m.focused == FocusFileList {
		listStyle, diffStyle = focusedBorderStyle, blurredBorderStyle
	}

	listWidth := m.width * 30 / 100
	diffWidth := m.width - listWidth - 4
	panelHeight := m.height - 3

	left := listStyle.Width(listWidth).Height(panelHeight).Render(m.list.View())
	right := diffStyle.Width(diffWidth).Height(panelHeight).Render(m.diff.View())

	content := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return lipgloss.JoinVertical(lipgloss.Left, content, m.statusBar())
}

func (m Model) statusBar() string {
	help := "tab: panel • c: comment • C: file comment • r: reviewed • v: select • /: search • q: quit"
	if m.diff.InVisualMode() {
		help = "v/esc: end selection • c: comment selection"
	}

	left := statusKeyStyle.Render(m.diff.Path())
	if m.status != "" {
		left += statusBarStyle.Render("  " + m.status)
	}
	right := statusBarStyle.Render(help)

	spacing := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if spacing < 1 {
		return left
	}
	return left + strings.Repeat(" ", spacing) + right
}
