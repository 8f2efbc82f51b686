package review

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IgnoreFileName is the per-repository ignore file read from the workspace
// root.
const IgnoreFileName = ".critignore"

// IgnoreList filters files out of a review by glob pattern.
type IgnoreList struct {
	patterns []string
}

// LoadIgnoreList reads the ignore file from the workspace root. A missing
// file yields an empty list.
func LoadIgnoreList(workspacePath string) (*IgnoreList, error) {
	f, err := os.Open(filepath.Join(workspacePath, IgnoreFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return &IgnoreList{}, nil
		}
		return nil, fmt.Errorf("open %s: %w", IgnoreFileName, err)
	}
	defer func() { _ = f.Close() }()

	list := &IgnoreList{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !doublestar.ValidatePattern(line) {
			return nil, fmt.Errorf("invalid pattern in %s: %q", IgnoreFileName, line)
		}
		list.patterns = append(list.patterns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", IgnoreFileName, err)
	}

	return list, nil
}

// Patterns returns the loaded patterns.
func (l *IgnoreList) Patterns() []string {
	return l.patterns
}

// Match reports whether the given workspace-relative path is ignored. A
// pattern without a slash matches against the base name as well, mirroring
// gitignore behavior.
func (l *IgnoreList) Match(path string) bool {
	path = filepath.ToSlash(path)
	for _, pattern := range l.patterns {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if ok, _ := doublestar.Match(pattern, filepath.Base(path)); ok {
				return true
			}
		}
	}
	return false
}
