package ide

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
)

// ErrNoHomeDir is returned when the user's home directory cannot be resolved.
var ErrNoHomeDir = errors.New("could not determine home directory")

// IDEName is the tool name written to discovery files.
const IDEName = "crit"

// DiscoveryRecord is the on-disk descriptor that lets an external client
// locate a running crit instance without a registry service.
type DiscoveryRecord struct {
	PID           int    `json:"pid"`
	WorkspacePath string `json:"workspacePath"`
	Transport     string `json:"transport"`
	IDEName       string `json:"ideName"`
	IDEVersion    string `json:"ideVersion,omitempty"`
}

// DiscoveryFile owns the lifecycle of one discovery record on disk.
type DiscoveryFile struct {
	path   string
	record DiscoveryRecord
}

// DiscoveryDir returns the directory discovery files are written to,
// ~/.crit/ide.
func DiscoveryDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", ErrNoHomeDir
	}
	return filepath.Join(home, "."+IDEName, "ide"), nil
}

// CreateDiscoveryFile writes a discovery record for the given port, creating
// parent directories as needed. The caller must Remove the file on shutdown;
// removal is best effort only if the process dies without teardown.
func CreateDiscoveryFile(port int, workspacePath, version string) (*DiscoveryFile, error) {
	dir, err := DiscoveryDir()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create discovery dir: %w", err)
	}

	record := DiscoveryRecord{
		PID:           os.Getpid(),
		WorkspacePath: workspacePath,
		Transport:     fmt.Sprintf("ws://127.0.0.1:%d", port),
		IDEName:       IDEName,
		IDEVersion:    version,
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal discovery record: %w", err)
	}

	path := filepath.Join(dir, strconv.Itoa(port)+".lock")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write discovery file: %w", err)
	}

	return &DiscoveryFile{path: path, record: record}, nil
}

// Path returns the on-disk location of the discovery file.
func (f *DiscoveryFile) Path() string {
	return f.path
}

// Record returns the descriptor that was written.
func (f *DiscoveryFile) Record() DiscoveryRecord {
	return f.record
}

// Remove deletes the discovery file. Idempotent: a missing file is not an
// error.
func (f *DiscoveryFile) Remove() error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove discovery file: %w", err)
	}
	return nil
}

// ReadDiscoveryFile parses a discovery record from disk. Used by the clean
// command and by tests.
func ReadDiscoveryFile(path string) (DiscoveryRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DiscoveryRecord{}, fmt.Errorf("read discovery file: %w", err)
	}
	var record DiscoveryRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return DiscoveryRecord{}, fmt.Errorf("parse discovery file: %w", err)
	}
	return record, nil
}

// CleanStaleDiscoveryFiles removes discovery files whose recorded pid is no
// longer alive, and returns the paths it deleted. Files that cannot be
// parsed are removed as well.
func CleanStaleDiscoveryFiles() ([]string, error) {
	dir, err := DiscoveryDir()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read discovery dir: %w", err)
	}

	var removed []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lock" {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		record, err := ReadDiscoveryFile(path)
		if err == nil && processAlive(record.PID) {
			continue
		}

		if err := os.Remove(path); err == nil {
			removed = append(removed, path)
		}
	}

	return removed, nil
}

// processAlive reports whether a process with the given pid exists. Signal 0
// performs the existence check without delivering anything.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
