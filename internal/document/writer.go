package document

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"domark/internal/logging"
)

// FormatMessage serializes msg in the same structural shape the parser
// consumes: a level-2 speaker heading, a deterministic metadata fence, then
// the content with a block-quote marker on every line. Appending the result
// to a document and re-parsing yields the same (speaker, content, metadata).
func FormatMessage(msg Message) (string, error) {
	meta := msg.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal message metadata: %w", err)
	}

	var b strings.Builder
	b.WriteString("\n\n## ")
	b.WriteString(msg.Speaker)
	b.WriteString("\n\n```json msg-metadata\n")
	b.Write(metaJSON)
	b.WriteString("\n```\n\n")
	b.WriteString(quoteContent(msg.Content))
	b.WriteString("\n")
	return b.String(), nil
}

// AppendMessage writes msg onto w in document form.
func AppendMessage(w io.Writer, msg Message) error {
	text, err := FormatMessage(msg)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text)
	return err
}

// AppendMessageToFile appends msg to the document at path.
func AppendMessageToFile(path string, msg Message) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open document for append: %w", err)
	}
	defer f.Close()

	if err := AppendMessage(f, msg); err != nil {
		return err
	}
	logging.Document("appended message from %q to %s", msg.Speaker, path)
	return nil
}

// quoteContent puts a block-quote marker on every line. Lines that already
// carry one pass through unchanged, so parsed message content (which keeps
// its markers) round-trips without double quoting.
func quoteContent(content string) string {
	if content == "" {
		return ""
	}
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	for i, line := range lines {
		if !quoteRe.MatchString(line) {
			lines[i] = "> " + line
		}
	}
	return strings.Join(lines, "\n")
}
