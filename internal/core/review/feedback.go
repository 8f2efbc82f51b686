package review

import (
	"fmt"
	"regexp"
	"strings"
)

// ansiStripPattern matches ANSI escape sequences for stripping.
var ansiStripPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// Feedback renders the session as a Markdown review document grouped by
// file. Returns the empty string when the session carries no comments.
func Feedback(session *Session) string {
	if session == nil || len(session.Comments) == 0 {
		return ""
	}

	var b strings.Builder

	b.WriteString("# Code Review\n\n")
	fmt.Fprintf(&b, "Workspace: %s\n", session.WorkspacePath)
	if session.DiffContext != "" {
		fmt.Fprintf(&b, "Diff: %s\n", session.DiffContext)
	}
	fmt.Fprintf(&b, "Comments: %d\n", len(session.Comments))

	for _, path := range session.CommentedFiles() {
		fmt.Fprintf(&b, "\n## %s\n", path)

		for _, comment := range session.CommentsFor(path) {
			fmt.Fprintf(&b, "\n### %s — %s\n\n", comment.LineLabel(), comment.Kind.Label())

			// Quote the context the comment was written against, with any
			// terminal styling stripped.
			if comment.ContextText != "" {
				clean := ansiStripPattern.ReplaceAllString(comment.ContextText, "")
				for _, line := range strings.Split(clean, "\n") {
					fmt.Fprintf(&b, "> %s\n", line)
				}
				b.WriteString("\n")
			}

			b.WriteString(comment.Text)
			b.WriteString("\n")
		}
	}

	return b.String()
}
