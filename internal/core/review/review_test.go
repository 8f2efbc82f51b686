package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	cases := []struct {
		input   string
		want    Kind
		wantErr bool
	}{
		{input: "issue", want: KindIssue},
		{input: "Suggestion", want: KindSuggestion},
		{input: "NOTE", want: KindNote},
		{input: "praise", want: KindPraise},
		{input: "critical", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseKind(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestKindSeverity(t *testing.T) {
	assert.Equal(t, "error", KindIssue.Severity())
	assert.Equal(t, "warning", KindSuggestion.Severity())
	assert.Equal(t, "information", KindNote.Severity())
	assert.Equal(t, "hint", KindPraise.Severity())
}

func TestKindLabel(t *testing.T) {
	assert.Equal(t, "ISSUE", KindIssue.Label())
	assert.Equal(t, "PRAISE", KindPraise.Label())
}

func TestCommentLineLabel(t *testing.T) {
	assert.Equal(t, "File", Comment{}.LineLabel())
	assert.Equal(t, "Line 7", Comment{StartLine: 7, EndLine: 7}.LineLabel())
	assert.Equal(t, "Lines 7-9", Comment{StartLine: 7, EndLine: 9}.LineLabel())
}

func TestSession_AddComment(t *testing.T) {
	session := NewSession("/repo", "staged changes")

	added := session.AddComment(Comment{
		FilePath:  "main.go",
		StartLine: 3,
		EndLine:   5,
		Kind:      KindIssue,
		Text:      "unchecked error",
	})

	assert.NotEmpty(t, added.ID)
	assert.False(t, added.CreatedAt.IsZero())
	require.Len(t, session.Comments, 1)
	assert.Equal(t, added, session.Comments[0])
}

func TestSession_UpdateComment(t *testing.T) {
	session := NewSession("/repo", "")
	added := session.AddComment(Comment{FilePath: "main.go", Kind: KindNote, Text: "hm"})

	require.True(t, session.UpdateComment(added.ID, "actually a bug", KindIssue))
	assert.Equal(t, "actually a bug", session.Comments[0].Text)
	assert.Equal(t, KindIssue, session.Comments[0].Kind)

	assert.False(t, session.UpdateComment("missing-id", "x", KindNote))
}

func TestSession_DeleteComment(t *testing.T) {
	session := NewSession("/repo", "")
	first := session.AddComment(Comment{FilePath: "a.go", Kind: KindNote, Text: "one"})
	session.AddComment(Comment{FilePath: "b.go", Kind: KindNote, Text: "two"})

	require.True(t, session.DeleteComment(first.ID))
	require.Len(t, session.Comments, 1)
	assert.Equal(t, "b.go", session.Comments[0].FilePath)

	assert.False(t, session.DeleteComment(first.ID))
}

func TestSession_CommentsForSortsByLine(t *testing.T) {
	session := NewSession("/repo", "")
	session.AddComment(Comment{FilePath: "a.go", StartLine: 30, EndLine: 30, Kind: KindNote, Text: "late"})
	session.AddComment(Comment{FilePath: "a.go", Kind: KindNote, Text: "file level"})
	session.AddComment(Comment{FilePath: "a.go", StartLine: 5, EndLine: 5, Kind: KindNote, Text: "early"})
	session.AddComment(Comment{FilePath: "b.go", StartLine: 1, EndLine: 1, Kind: KindNote, Text: "other file"})

	comments := session.CommentsFor("a.go")
	require.Len(t, comments, 3)
	assert.Equal(t, "file level", comments[0].Text)
	assert.Equal(t, "early", comments[1].Text)
	assert.Equal(t, "late", comments[2].Text)
}

func TestSession_CommentedFiles(t *testing.T) {
	session := NewSession("/repo", "")
	session.AddComment(Comment{FilePath: "z.go", Kind: KindNote, Text: "x"})
	session.AddComment(Comment{FilePath: "a.go", Kind: KindNote, Text: "y"})
	session.AddComment(Comment{FilePath: "z.go", Kind: KindNote, Text: "z"})

	assert.Equal(t, []string{"a.go", "z.go"}, session.CommentedFiles())
}

func TestSession_ToggleReviewed(t *testing.T) {
	session := NewSession("/repo", "")

	assert.False(t, session.IsReviewed("main.go"))
	assert.True(t, session.ToggleReviewed("main.go"))
	assert.True(t, session.IsReviewed("main.go"))
	assert.False(t, session.ToggleReviewed("main.go"))
	assert.False(t, session.IsReviewed("main.go"))
}
