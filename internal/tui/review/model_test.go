package review

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/crit/internal/core/git"
	"github.com/colonyops/crit/internal/core/review"
	"github.com/colonyops/crit/internal/ide"
	"github.com/colonyops/crit/internal/stores"
)

type modelFixture struct {
	model   Model
	session *review.Session
	store   *stores.ReviewStore
	state   *ide.StateStore
	bridge  *ide.Bridge
}

func newTestModel(t *testing.T) *modelFixture {
	t.Helper()
	files, err := git.ParseDiff(multiFileDiff)
	require.NoError(t, err)

	session := review.NewSession("/work/repo", "uncommitted changes")
	store := stores.NewReviewStore(t.TempDir())
	state := ide.NewStateStore()
	bridge := ide.NewBridge()

	m := New(Options{
		Files:         files,
		Session:       session,
		Store:         store,
		WorkspacePath: "/work/repo",
		IDEState:      state,
		Bridge:        bridge,
		Log:           zerolog.Nop(),
	})
	m.SetSize(100, 30)

	return &modelFixture{model: m, session: session, store: store, state: state, bridge: bridge}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		updated, _ := m.Update(keyMsg(k))
		var ok bool
		m, ok = updated.(Model)
		require.True(t, ok)
	}
	return m
}

func TestModel_InitialSnapshot(t *testing.T) {
	fx := newTestModel(t)

	snap := fx.state.Read()
	require.Len(t, snap.OpenFiles, 3)
	assert.Equal(t, "cmd/root.go", snap.OpenFiles[0].FilePath)
	assert.True(t, snap.OpenFiles[0].IsActive)
	assert.True(t, snap.OpenFiles[0].IsDirty)
	assert.Equal(t, "go", snap.OpenFiles[0].LanguageID)
	assert.Equal(t, "/work/repo", snap.WorkspacePath)
	assert.Empty(t, snap.Diagnostics)
	assert.Nil(t, snap.Selection)
}

func TestModel_FileNavigationUpdatesSnapshot(t *testing.T) {
	fx := newTestModel(t)

	m := press(t, fx.model, "j")
	assert.Equal(t, "internal/app/app.go", m.diff.Path())

	snap := fx.state.Read()
	assert.Equal(t, 1, snap.ActiveFileIndex)
	assert.True(t, snap.OpenFiles[1].IsActive)
	assert.False(t, snap.OpenFiles[0].IsActive)
}

func TestModel_CommentFlow(t *testing.T) {
	fx := newTestModel(t)

	// Focus the diff, move onto the first context line, select it, comment.
	m := press(t, fx.model, "tab", "j", "v", "c")
	require.NotNil(t, m.modal)

	for _, r := range "rename this" {
		m = press(t, m, string(r))
	}
	m = press(t, m, "enter")
	require.Nil(t, m.modal)

	comments := fx.session.CommentsFor("cmd/root.go")
	require.Len(t, comments, 1)
	assert.Equal(t, "rename this", comments[0].Text)
	assert.Equal(t, 1, comments[0].StartLine)
	assert.Equal(t, 1, comments[0].EndLine)
	assert.Equal(t, review.KindNote, comments[0].Kind)
	assert.Contains(t, comments[0].ContextText, "package cmd")

	// Submitting leaves visual mode and publishes the diagnostic.
	assert.False(t, m.diff.InVisualMode())
	snap := fx.state.Read()
	require.Len(t, snap.Diagnostics, 1)
	assert.Equal(t, "rename this", snap.Diagnostics[0].Message)
	assert.Equal(t, "information", snap.Diagnostics[0].Severity)

	// The session was persisted.
	saved, err := fx.store.Get(fx.session.ID)
	require.NoError(t, err)
	assert.Len(t, saved.Comments, 1)
}

func TestModel_EditExistingComment(t *testing.T) {
	fx := newTestModel(t)

	m := press(t, fx.model, "tab", "j", "v", "c")
	for _, r := range "first draft" {
		m = press(t, m, string(r))
	}
	m = press(t, m, "enter")

	// Re-opening a comment on the same single line edits it in place.
	m = press(t, m, "v", "c")
	require.NotNil(t, m.modal)
	assert.NotEmpty(t, m.modal.EditingID())
	assert.Equal(t, "first draft", m.modal.Value())

	for _, r := range " revised" {
		m = press(t, m, string(r))
	}
	m = press(t, m, "enter")

	comments := fx.session.CommentsFor("cmd/root.go")
	require.Len(t, comments, 1)
	assert.Equal(t, "first draft revised", comments[0].Text)
}

func TestModel_FileLevelComment(t *testing.T) {
	fx := newTestModel(t)

	m := press(t, fx.model, "C")
	require.NotNil(t, m.modal)
	assert.True(t, m.modal.FileLevel())

	for _, r := range "split this file" {
		m = press(t, m, string(r))
	}
	m = press(t, m, "enter")

	comments := fx.session.CommentsFor("cmd/root.go")
	require.Len(t, comments, 1)
	assert.True(t, comments[0].FileLevel())

	// File-level comments surface as diagnostics on line 1.
	snap := fx.state.Read()
	require.Len(t, snap.Diagnostics, 1)
	assert.Equal(t, 1, snap.Diagnostics[0].StartLine)
}

func TestModel_DeleteComment(t *testing.T) {
	fx := newTestModel(t)

	m := press(t, fx.model, "tab", "j", "v", "c")
	for _, r := range "drop me" {
		m = press(t, m, string(r))
	}
	m = press(t, m, "enter")
	require.Len(t, fx.session.CommentsFor("cmd/root.go"), 1)

	m = press(t, m, "x")
	assert.Empty(t, fx.session.CommentsFor("cmd/root.go"))
	assert.Empty(t, fx.state.Read().Diagnostics)
}

func TestModel_ToggleReviewed(t *testing.T) {
	fx := newTestModel(t)

	m := press(t, fx.model, "r")
	assert.True(t, fx.session.IsReviewed("cmd/root.go"))

	snap := fx.state.Read()
	assert.True(t, snap.OpenFiles[0].Reviewed)
	assert.False(t, snap.OpenFiles[0].IsDirty)

	saved, err := fx.store.Get(fx.session.ID)
	require.NoError(t, err)
	assert.True(t, saved.Reviewed["cmd/root.go"])

	m = press(t, m, "r")
	assert.False(t, fx.session.IsReviewed("cmd/root.go"))
}

func TestModel_VisualSelectionPublished(t *testing.T) {
	fx := newTestModel(t)

	m := press(t, fx.model, "tab", "j", "v")
	require.True(t, m.diff.InVisualMode())

	snap := fx.state.Read()
	require.NotNil(t, snap.Selection)
	assert.Equal(t, "cmd/root.go", snap.Selection.FilePath)
	assert.Equal(t, 1, snap.Selection.StartLine)

	m = press(t, m, "esc")
	assert.Nil(t, fx.state.Read().Selection)
}

func TestModel_IDECommandNavigates(t *testing.T) {
	fx := newTestModel(t)

	line := 1
	updated, cmd := fx.model.Update(ideCommandMsg{first: ide.OpenFileCommand{Path: "app.go", Line: &line}})
	m := updated.(Model)

	assert.Equal(t, "internal/app/app.go", m.diff.Path())
	assert.Equal(t, 1, fx.state.Read().ActiveFileIndex)
	// The listener is re-armed after every wakeup.
	assert.NotNil(t, cmd)
}

func TestModel_IDECommandDrainsQueue(t *testing.T) {
	fx := newTestModel(t)

	// Commands queued behind the wakeup are applied in the same frame.
	require.True(t, fx.bridge.TrySend(ide.OpenFileCommand{Path: "old.txt"}))
	require.True(t, fx.bridge.TrySend(ide.OpenFileCommand{Path: "app.go"}))

	updated, _ := fx.model.Update(ideCommandMsg{first: ide.OpenFileCommand{Path: "root.go"}})
	m := updated.(Model)

	// The last queued command wins, and the queue is empty afterwards.
	assert.Equal(t, "internal/app/app.go", m.diff.Path())
	assert.Empty(t, fx.bridge.Drain(ide.DrainBudget))
}

func TestModel_IDECommandUnknownPath(t *testing.T) {
	fx := newTestModel(t)

	updated, _ := fx.model.Update(ideCommandMsg{first: ide.OpenFileCommand{Path: "nope.zig"}})
	m := updated.(Model)

	// Cursor stays put when nothing in the diff matches.
	assert.Equal(t, "cmd/root.go", m.diff.Path())
}

func TestModel_QuitPersists(t *testing.T) {
	fx := newTestModel(t)

	m := press(t, fx.model, "r")
	updated, cmd := m.Update(keyMsg("q"))
	m = updated.(Model)

	assert.NotNil(t, cmd)
	assert.Empty(t, m.View())

	saved, err := fx.store.Get(fx.session.ID)
	require.NoError(t, err)
	assert.True(t, saved.Reviewed["cmd/root.go"])
}

func TestModel_TabTogglesFocus(t *testing.T) {
	fx := newTestModel(t)
	require.Equal(t, FocusFileList, fx.model.focused)

	m := press(t, fx.model, "tab")
	assert.Equal(t, FocusDiffView, m.focused)

	m = press(t, m, "tab")
	assert.Equal(t, FocusFileList, m.focused)
}
