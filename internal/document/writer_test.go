package document

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMessageShape(t *testing.T) {
	msg := Message{
		Speaker:  "user",
		Content:  "hello\nworld",
		Metadata: map[string]any{"source": "user", "type": "UserMessage"},
	}

	text, err := FormatMessage(msg)
	require.NoError(t, err)

	assert.Contains(t, text, "## user\n")
	assert.Contains(t, text, "```json msg-metadata\n")
	assert.Contains(t, text, `"source": "user"`)
	assert.Contains(t, text, "> hello\n> world")
}

func TestFormatMessageKeepsExistingQuoteMarkers(t *testing.T) {
	text, err := FormatMessage(Message{Speaker: "a", Content: "> already quoted\n> twice"})
	require.NoError(t, err)

	assert.Contains(t, text, "> already quoted\n> twice")
	assert.NotContains(t, text, "> > already")
}

func TestAppendRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chat.md")
	initial := "## user\n\n```json msg-metadata\n{\"source\": \"user\", \"n\": 3}\n```\n\n> Hello there.\n> Bye.\n"
	require.NoError(t, os.WriteFile(path, []byte(initial), 0644))

	doc, err := ParseFile(path, Options{})
	require.NoError(t, err)
	require.Len(t, doc.Messages, 1)
	src := doc.Messages[0]

	// Append a message built from the parsed one, then re-parse.
	require.NoError(t, AppendMessageToFile(path, Message{
		Speaker:  src.Speaker,
		Content:  src.Content,
		Metadata: src.Metadata,
	}))

	again, err := ParseFile(path, Options{})
	require.NoError(t, err)
	require.Empty(t, again.Errors)
	require.Len(t, again.Messages, 2)

	last := again.Messages[1]
	assert.Equal(t, src.Speaker, last.Speaker)
	assert.Equal(t, src.Content, last.Content)
	if diff := cmp.Diff(src.Metadata, last.Metadata); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}
}

func TestAppendPlainContentGetsQuoted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chat.md")
	require.NoError(t, os.WriteFile(path, []byte("## seed\n\n> s\n"), 0644))

	require.NoError(t, AppendMessageToFile(path, Message{
		Speaker: "assistant",
		Content: "line a\nline b",
	}))

	doc, err := ParseFile(path, Options{})
	require.NoError(t, err)
	require.Len(t, doc.Messages, 2)
	assert.Equal(t, "> line a\n> line b", doc.Messages[1].Content)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(raw), "> line a\n> line b\n"))
}
