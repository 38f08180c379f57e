package document

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// Not-found sentinels for the message/code-block accessor.
var (
	ErrMessageNotFound   = errors.New("message index out of range")
	ErrCodeBlockNotFound = errors.New("code block index out of range")
)

// messageCodeBlockRe matches one fenced code block inside message content.
// One bounded pattern, applied to the unquoted body.
var messageCodeBlockRe = regexp.MustCompile("(?m)^```(\\S*)[ \t]*\\n([\\s\\S]*?)\\n```$")

// MessageCodeBlock re-scans the content of the messageIndex-th message for
// fenced code blocks and returns the blockIndex-th one. Out-of-range indices
// return a not-found sentinel rather than failing; a valid message with an
// out-of-range block index still returns the message.
func (d *ParsedDocument) MessageCodeBlock(messageIndex, blockIndex int) (*Message, *CodeBlock, error) {
	if messageIndex < 0 || messageIndex >= len(d.Messages) {
		return nil, nil, ErrMessageNotFound
	}
	msg := &d.Messages[messageIndex]

	// Content carries its block-quote markers; strip one level so the fence
	// pattern sees the lines the way the author wrote them.
	body := Unquote(msg.Content)

	var found []CodeBlock
	for _, m := range messageCodeBlockRe.FindAllStringSubmatch(body, -1) {
		found = append(found, CodeBlock{
			Language: m[1],
			Code:     strings.Trim(m[2], "\n"),
		})
	}

	if blockIndex < 0 || blockIndex >= len(found) {
		return msg, nil, ErrCodeBlockNotFound
	}
	return msg, &found[blockIndex], nil
}

// unmarshalJSON parses a structured fence payload. An empty fence counts as
// an empty object, matching how absent payloads are treated elsewhere.
func unmarshalJSON(code string, v any) error {
	code = strings.TrimSpace(code)
	if code == "" {
		code = "{}"
	}
	return json.Unmarshal([]byte(code), v)
}
