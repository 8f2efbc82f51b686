package ide

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStore_EmptyByDefault(t *testing.T) {
	store := NewStateStore()
	snap := store.Read()

	assert.Nil(t, snap.Selection)
	assert.Empty(t, snap.OpenFiles)
	assert.Empty(t, snap.WorkspacePath)
	assert.Empty(t, snap.Diagnostics)
}

func TestStateStore_PublishAndRead(t *testing.T) {
	store := NewStateStore()
	store.Publish(Snapshot{
		WorkspacePath: "/repo",
		WorkspaceName: "repo",
		OpenFiles: []OpenFile{
			{FilePath: "a.go", LanguageID: "go", IsActive: true},
			{FilePath: "b.go", LanguageID: "go"},
		},
		ActiveFileIndex: 0,
	})

	snap := store.Read()
	require.Len(t, snap.OpenFiles, 2)
	assert.Equal(t, "/repo", snap.WorkspacePath)
	assert.True(t, snap.OpenFiles[0].IsActive)
	assert.False(t, snap.OpenFiles[1].IsActive)
}

func TestStateStore_TryPublishSkipsWhenLocked(t *testing.T) {
	store := NewStateStore()

	// Hold the write lock from another goroutine to simulate a reader in
	// progress on the network side.
	var acquired, release, released sync.WaitGroup
	acquired.Add(1)
	release.Add(1)
	released.Add(1)
	go func() {
		store.mu.RLock()
		acquired.Done()
		release.Wait()
		store.mu.RUnlock()
		released.Done()
	}()
	acquired.Wait()

	assert.False(t, store.TryPublish(Snapshot{WorkspacePath: "/skipped"}))

	release.Done()
	released.Wait()

	assert.True(t, store.TryPublish(Snapshot{WorkspacePath: "/applied"}))
	assert.Equal(t, "/applied", store.Read().WorkspacePath)
}

func TestStateStore_ConcurrentReaders(t *testing.T) {
	store := NewStateStore()
	store.Publish(Snapshot{WorkspacePath: "/repo"})

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				_ = store.Read()
			}
		}()
	}
	for range 100 {
		store.Publish(Snapshot{WorkspacePath: "/repo"})
	}
	wg.Wait()

	assert.Equal(t, "/repo", store.Read().WorkspacePath)
}

func TestSnapshot_WorkspaceFolders(t *testing.T) {
	t.Run("empty workspace yields no folders", func(t *testing.T) {
		assert.Empty(t, Snapshot{}.WorkspaceFolders())
	})

	t.Run("explicit name", func(t *testing.T) {
		snap := Snapshot{WorkspacePath: "/path/to/repo", WorkspaceName: "repo"}
		folders := snap.WorkspaceFolders()

		require.Len(t, folders, 1)
		assert.Equal(t, "file:///path/to/repo", folders[0].URI)
		assert.Equal(t, "repo", folders[0].Name)
	})

	t.Run("name derived from final path segment", func(t *testing.T) {
		snap := Snapshot{WorkspacePath: "/path/to/myproject"}
		folders := snap.WorkspaceFolders()

		require.Len(t, folders, 1)
		assert.Equal(t, "myproject", folders[0].Name)
	})
}

func TestSnapshot_DiagnosticsFor(t *testing.T) {
	snap := Snapshot{
		Diagnostics: []Diagnostic{
			{FilePath: "a.go", Message: "issue a", Severity: "error"},
			{FilePath: "b.go", Message: "issue b", Severity: "warning"},
			{FilePath: "a.go", Message: "second a", Severity: "hint"},
		},
	}

	assert.Len(t, snap.DiagnosticsFor(""), 3)
	assert.Len(t, snap.DiagnosticsFor("a.go"), 2)
	assert.Len(t, snap.DiagnosticsFor("b.go"), 1)
	assert.Empty(t, snap.DiagnosticsFor("missing.go"))
}
