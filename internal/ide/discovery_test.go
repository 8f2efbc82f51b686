package ide

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoveryDir(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	dir, err := DiscoveryDir()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(dir))
	assert.Equal(t, filepath.Join(".crit", "ide"), filepath.Join(filepath.Base(filepath.Dir(dir)), filepath.Base(dir)))
}

func TestCreateDiscoveryFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	f, err := CreateDiscoveryFile(8123, "/test/workspace", "0.1.0")
	require.NoError(t, err)

	expected := filepath.Join(home, ".crit", "ide", "8123.lock")
	assert.Equal(t, expected, f.Path())

	data, err := os.ReadFile(f.Path())
	require.NoError(t, err)

	var record DiscoveryRecord
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Equal(t, os.Getpid(), record.PID)
	assert.Equal(t, "/test/workspace", record.WorkspacePath)
	assert.Equal(t, "ws://127.0.0.1:8123", record.Transport)
	assert.Equal(t, "crit", record.IDEName)
	assert.Equal(t, "0.1.0", record.IDEVersion)
}

func TestDiscoveryFile_RemoveIsIdempotent(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	f, err := CreateDiscoveryFile(8124, "/workspace", "0.1.0")
	require.NoError(t, err)

	require.NoError(t, f.Remove())
	assert.NoFileExists(t, f.Path())

	// A second removal of a missing file is not an error.
	require.NoError(t, f.Remove())
}

func TestReadDiscoveryFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	f, err := CreateDiscoveryFile(8125, "/workspace", "0.1.0")
	require.NoError(t, err)

	record, err := ReadDiscoveryFile(f.Path())
	require.NoError(t, err)
	assert.Equal(t, f.Record(), record)
}

func TestCleanStaleDiscoveryFiles(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	// A live record: our own pid.
	live, err := CreateDiscoveryFile(9001, "/workspace", "0.1.0")
	require.NoError(t, err)

	// A stale record with an impossible pid.
	dir, err := DiscoveryDir()
	require.NoError(t, err)
	stale := filepath.Join(dir, "9002.lock")
	staleRecord, err := json.Marshal(DiscoveryRecord{PID: 1 << 30, WorkspacePath: "/gone", Transport: "ws://127.0.0.1:9002", IDEName: "crit"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(stale, staleRecord, 0o644))

	// A corrupt record is treated as stale.
	corrupt := filepath.Join(dir, "9003.lock")
	require.NoError(t, os.WriteFile(corrupt, []byte("not json"), 0o644))

	removed, err := CleanStaleDiscoveryFiles()
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{stale, corrupt}, removed)
	assert.FileExists(t, live.Path())
}

func TestCleanStaleDiscoveryFiles_MissingDirIsFine(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	removed, err := CleanStaleDiscoveryFiles()
	require.NoError(t, err)
	assert.Empty(t, removed)
}
