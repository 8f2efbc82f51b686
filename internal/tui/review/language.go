package review

import (
	"path/filepath"
	"strings"
)

// languageIDs maps file extensions to IDE language identifiers.
var languageIDs = map[string]string{
	"rs":    "rust",
	"py":    "python",
	"js":    "javascript",
	"ts":    "typescript",
	"tsx":   "typescriptreact",
	"jsx":   "javascriptreact",
	"go":    "go",
	"java":  "java",
	"c":     "c",
	"h":     "c",
	"cpp":   "cpp",
	"hpp":   "cpp",
	"cc":    "cpp",
	"cxx":   "cpp",
	"rb":    "ruby",
	"php":   "php",
	"swift": "swift",
	"kt":    "kotlin",
	"kts":   "kotlin",
	"scala": "scala",
	"lua":   "lua",
	"sh":    "shellscript",
	"bash":  "shellscript",
	"json":  "json",
	"yaml":  "yaml",
	"yml":   "yaml",
	"toml":  "toml",
	"xml":   "xml",
	"html":  "html",
	"css":   "css",
	"scss":  "scss",
	"md":    "markdown",
}

// LanguageID returns the IDE language identifier for a file path, falling
// back to plaintext.
func LanguageID(path string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if id, ok := languageIDs[strings.ToLower(ext)]; ok {
		return id
	}
	return "plaintext"
}
