package review

import (
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/colonyops/crit/internal/core/git"
)

// lineKind classifies a rendered diff line.
type lineKind int

const (
	lineHunk lineKind = iota
	lineAdd
	lineDelete
	lineContext
)

// diffLine is one renderable line of the current file's diff with its
// source line numbers. Hunk headers carry no numbers.
type diffLine struct {
	kind   lineKind
	text   string
	oldNum int
	newNum int
}

// sourceLine returns the 1-based source line the diff line refers to,
// preferring the new file side.
func (l diffLine) sourceLine() int {
	if l.newNum > 0 {
		return l.newNum
	}
	return l.oldNum
}

// flattenFile turns a parsed diff file into renderable lines.
func flattenFile(f *gitdiff.File) []diffLine {
	if f == nil {
		return nil
	}

	var lines []diffLine
	for _, frag := range f.TextFragments {
		header := fmt.Sprintf("@@ -%d,%d +%d,%d @@", frag.OldPosition, frag.OldLines, frag.NewPosition, frag.NewLines)
		if frag.Comment != "" {
			header += " " + frag.Comment
		}
		lines = append(lines, diffLine{kind: lineHunk, text: header})

		oldNum := int(frag.OldPosition)
		newNum := int(frag.NewPosition)
		for _, line := range frag.Lines {
			text := strings.TrimSuffix(line.Line, "\n")
			switch line.Op {
			case gitdiff.OpAdd:
				lines = append(lines, diffLine{kind: lineAdd, text: text, newNum: newNum})
				newNum++
			case gitdiff.OpDelete:
				lines = append(lines, diffLine{kind: lineDelete, text: text, oldNum: oldNum})
				oldNum++
			default:
				lines = append(lines, diffLine{kind: lineContext, text: text, oldNum: oldNum, newNum: newNum})
				oldNum++
				newNum++
			}
		}
	}

	return lines
}

// DiffView is the right panel: the diff of the selected file with a cursor,
// visual line selection, and search.
type DiffView struct {
	file  *gitdiff.File
	path  string
	lines []diffLine

	cursor int
	anchor *int // visual selection anchor, nil when not selecting

	commented map[int]bool // source lines carrying comments

	searching   bool
	searchInput textinput.Model
	lastQuery   string

	vp     viewport.Model
	width  int
	height int
}

// NewDiffView creates an empty diff view.
func NewDiffView() DiffView {
	input := textinput.New()
	input.Placeholder = "search"
	input.Prompt = "/"
	return DiffView{vp: viewport.New(0, 0), searchInput: input}
}

// SetFile switches the view to a new file and resets cursor and selection.
func (d *DiffView) SetFile(f *gitdiff.File) {
	d.file = f
	d.path = git.FilePath(f)
	d.lines = flattenFile(f)
	d.cursor = 0
	d.anchor = nil
	d.refresh()
}

// Path returns the displayed file's path.
func (d *DiffView) Path() string {
	return d.path
}

// SetSize updates the panel dimensions.
func (d *DiffView) SetSize(width, height int) {
	d.width = width
	d.height = height
	d.vp.Width = width
	d.vp.Height = height
	d.refresh()
}

// SetCommentedLines marks the source lines that carry comments.
func (d *DiffView) SetCommentedLines(lines map[int]bool) {
	d.commented = lines
	d.refresh()
}

// InVisualMode reports whether a visual selection is active.
func (d *DiffView) InVisualMode() bool {
	return d.anchor != nil
}

// Searching reports whether the search input is capturing keys.
func (d *DiffView) Searching() bool {
	return d.searching
}

// CursorLine returns the line under the cursor.
func (d *DiffView) CursorLine() (diffLine, bool) {
	if d.cursor < 0 || d.cursor >= len(d.lines) {
		return diffLine{}, false
	}
	return d.lines[d.cursor], true
}

// Selection returns the selected source line range and its text. Without an
// active visual selection it returns the cursor line alone. ok is false when
// the view is empty or the cursor sits on a hunk header.
func (d *DiffView) Selection() (startLine, endLine int, text string, ok bool) {
	if len(d.lines) == 0 {
		return 0, 0, "", false
	}

	lo, hi := d.cursor, d.cursor
	if d.anchor != nil {
		if *d.anchor < lo {
			lo = *d.anchor
		}
		if *d.anchor > hi {
			hi = *d.anchor
		}
	}

	var texts []string
	startLine, endLine = 0, 0
	for i := lo; i <= hi && i < len(d.lines); i++ {
		line := d.lines[i]
		if line.kind == lineHunk {
			continue
		}
		src := line.sourceLine()
		if startLine == 0 || src < startLine {
			startLine = src
		}
		if src > endLine {
			endLine = src
		}
		texts = append(texts, line.text)
	}

	if startLine == 0 {
		return 0, 0, "", false
	}
	return startLine, endLine, strings.Join(texts, "\n"), true
}

// ClearSelection drops any active visual selection.
func (d *DiffView) ClearSelection() {
	d.anchor = nil
	d.refresh()
}

// JumpTo moves the cursor to the diff line showing the given source line.
// Returns false when the line is not part of the diff.
func (d *DiffView) JumpTo(line int) bool {
	for i, l := range d.lines {
		if l.newNum == line || (l.newNum == 0 && l.oldNum == line) {
			d.cursor = i
			d.anchor = nil
			d.refresh()
			return true
		}
	}
	return false
}

// Update handles keyboard input for the diff panel.
func (d DiffView) Update(msg tea.Msg) (DiffView, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return d, nil
	}

	if d.searching {
		switch keyMsg.String() {
		case "enter":
			d.searching = false
			d.lastQuery = d.searchInput.Value()
			d.searchInput.Blur()
			d.findNext(d.lastQuery)
		case "esc":
			d.searching = false
			d.searchInput.Blur()
		default:
			var cmd tea.Cmd
			d.searchInput, cmd = d.searchInput.Update(msg)
			return d, cmd
		}
		return d, nil
	}

	switch keyMsg.String() {
	case "j", "down":
		d.moveCursor(1)
	case "k", "up":
		d.moveCursor(-1)
	case "ctrl+d":
		d.moveCursor(d.height / 2)
	case "ctrl+u":
		d.moveCursor(-d.height / 2)
	case "g":
		d.moveCursor(-len(d.lines))
	case "G":
		d.moveCursor(len(d.lines))
	case "v":
		if d.anchor == nil {
			anchor := d.cursor
			d.anchor = &anchor
		} else {
			d.anchor = nil
		}
		d.refresh()
	case "esc":
		d.anchor = nil
		d.refresh()
	case "/":
		d.searching = true
		d.searchInput.SetValue("")
		return d, d.searchInput.Focus()
	case "n":
		d.findNext(d.lastQuery)
	}

	return d, nil
}

func (d *DiffView) moveCursor(delta int) {
	if len(d.lines) == 0 {
		return
	}
	d.cursor += delta
	if d.cursor < 0 {
		d.cursor = 0
	}
	if d.cursor >= len(d.lines) {
		d.cursor = len(d.lines) - 1
	}
	d.refresh()
}

// findNext advances the cursor to the next line containing query, wrapping
// around the end of the diff.
func (d *DiffView) findNext(query string) {
	if query == "" || len(d.lines) == 0 {
		return
	}
	for step := 1; step <= len(d.lines); step++ {
		i := (d.cursor + step) % len(d.lines)
		if strings.Contains(d.lines[i].text, query) {
			d.cursor = i
			d.refresh()
			return
		}
	}
}

// refresh rebuilds the viewport content and keeps the cursor visible.
func (d *DiffView) refresh() {
	var b strings.Builder
	for i, line := range d.lines {
		b.WriteString(d.renderLine(i, line))
		if i < len(d.lines)-1 {
			b.WriteString("\n")
		}
	}
	d.vp.SetContent(b.String())

	if d.vp.Height > 0 {
		if d.cursor < d.vp.YOffset {
			d.vp.SetYOffset(d.cursor)
		}
		if d.cursor >= d.vp.YOffset+d.vp.Height {
			d.vp.SetYOffset(d.cursor - d.vp.Height + 1)
		}
	}
}

func (d *DiffView) renderLine(idx int, line diffLine) string {
	if line.kind == lineHunk {
		return hunkHeaderStyle.Render(line.text)
	}

	oldCol, newCol := "    ", "    "
	if line.oldNum > 0 {
		oldCol = fmt.Sprintf("%4d", line.oldNum)
	}
	if line.newNum > 0 {
		newCol = fmt.Sprintf("%4d", line.newNum)
	}

	marker := " "
	if d.commented[line.sourceLine()] {
		marker = commentMarkerStyle.Render("●")
	}

	var prefix string
	var style = contextLineStyle
	switch line.kind {
	case lineAdd:
		prefix, style = "+", addedLineStyle
	case lineDelete:
		prefix, style = "-", deletedLineStyle
	default:
		prefix = " "
	}

	text := style.Render(prefix + line.text)
	rendered := fmt.Sprintf("%s %s %s│%s", lineNumStyle.Render(oldCol), lineNumStyle.Render(newCol), marker, text)

	if d.inSelection(idx) {
		return selectionStyle.Render(rendered)
	}
	if idx == d.cursor {
		return cursorLineStyle.Render(rendered)
	}
	return rendered
}

func (d *DiffView) inSelection(idx int) bool {
	if d.anchor == nil {
		return false
	}
	lo, hi := *d.anchor, d.cursor
	if lo > hi {
		lo, hi = hi, lo
	}
	return idx >= lo && idx <= hi
}

// View renders the diff panel, with the search input replacing the last row
// while searching.
func (d DiffView) View() string {
	if d.file == nil || len(d.lines) == 0 {
		return lineNumStyle.Render("no diff to show")
	}
	if d.searching {
		return d.vp.View() + "\n" + d.searchInput.View()
	}
	return d.vp.View()
}
