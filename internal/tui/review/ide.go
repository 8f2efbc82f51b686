package review

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/colonyops/crit/internal/core/git"
	"github.com/colonyops/crit/internal/core/review"
	"github.com/colonyops/crit/internal/ide"
)

// ideCommandMsg wakes the host loop when a remote tool call queued a
// command on the bridge.
type ideCommandMsg struct {
	first ide.Command
}

// waitForIDECommand blocks on the bridge until a command arrives. The model
// re-issues it after every wakeup.
func waitForIDECommand(bridge *ide.Bridge) tea.Cmd {
	return func() tea.Msg {
		cmd, ok := <-bridge.Commands()
		if !ok {
			return nil
		}
		return ideCommandMsg{first: cmd}
	}
}

// buildSnapshot assembles the queryable session view handed to the IDE
// state store.
func buildSnapshot(m *Model) ide.Snapshot {
	snap := ide.Snapshot{
		WorkspacePath:   m.workspacePath,
		ActiveFileIndex: m.list.SelectedIndex(),
	}

	snap.OpenFiles = make([]ide.OpenFile, 0, len(m.files))
	for i, f := range m.files {
		path := git.FilePath(f)
		reviewed := m.session.IsReviewed(path)
		snap.OpenFiles = append(snap.OpenFiles, ide.OpenFile{
			FilePath:   path,
			LanguageID: LanguageID(path),
			IsDirty:    !reviewed,
			IsActive:   i == m.list.SelectedIndex(),
			Status:     git.FileStatus(f),
			Reviewed:   reviewed,
		})
	}

	snap.Diagnostics = make([]ide.Diagnostic, 0, len(m.session.Comments))
	for _, c := range m.session.Comments {
		start, end := c.StartLine, c.EndLine
		if c.FileLevel() {
			start, end = 1, 1
		}
		snap.Diagnostics = append(snap.Diagnostics, ide.Diagnostic{
			FilePath:    c.FilePath,
			StartLine:   start,
			EndLine:     end,
			Message:     c.Text,
			Severity:    c.Kind.Severity(),
			CommentKind: string(c.Kind),
		})
	}

	if m.diff.InVisualMode() {
		if start, end, text, ok := m.diff.Selection(); ok {
			snap.Selection = &ide.Selection{
				FilePath:  m.diff.Path(),
				Text:      text,
				StartLine: start,
				EndLine:   end,
			}
		}
	}

	return snap
}

// syncIDEState publishes a fresh snapshot. TryPublish keeps a tool read in
// progress from ever stalling a render frame; a skipped publish is retried
// on the next state change.
func (m *Model) syncIDEState() {
	if m.ideState == nil {
		return
	}
	m.ideState.TryPublish(buildSnapshot(m))
}

// applyIDECommand executes one bridge command inside the host loop.
func (m *Model) applyIDECommand(cmd ide.Command) {
	open, ok := cmd.(ide.OpenFileCommand)
	if !ok {
		return
	}

	if !m.list.SelectPath(open.Path) {
		m.log.Debug().Str("path", open.Path).Msg("openFile: no matching file in diff")
		return
	}
	m.showSelected()
	if open.Line != nil {
		m.diff.JumpTo(*open.Line)
	}
	m.status = "opened " + m.diff.Path()
}

// commentedLines returns the source lines of the given file that carry
// comments, for the gutter markers.
func commentedLines(session *review.Session, path string) map[int]bool {
	lines := map[int]bool{}
	for _, c := range session.CommentsFor(path) {
		if c.FileLevel() {
			continue
		}
		for n := c.StartLine; n <= c.EndLine; n++ {
			lines[n] = true
		}
	}
	return lines
}
