// Package session implements the document-level operations: executing the
// tool calls of a message and appending the results, extracting code blocks
// to files, and running shell code blocks. A session is just a markdown
// document on disk; every operation here reads it, acts, and writes back.
package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"domark/internal/document"
	"domark/internal/logging"
	"domark/internal/pathmap"
	"domark/internal/toolcall"
	"domark/internal/tools"
)

// Completer generates the next assistant message for a conversation. The
// actual LLM client lives outside this module; anything that can turn a
// parsed document into a reply satisfies the seam.
type Completer interface {
	Complete(ctx context.Context, doc *document.ParsedDocument) (string, error)
}

// Executor runs the tool calls embedded in a document message and appends
// the combined tool output back to the document.
type Executor struct {
	Registry *tools.Registry
	Paths    *pathmap.Resolver
	Options  document.Options
}

// ExecResult is what one exec pass produced.
type ExecResult struct {
	Message  *document.Message
	Commands []toolcall.Command
	Results  []tools.CommandResult
	Response string // combined tool_output envelopes appended to the document
}

// ExecMessage parses the document, extracts the tool calls of the selected
// message, dispatches them all, and appends the combined output as a new
// user message. A negative index counts from the end. Inclusions are left
// unresolved so the file on disk is what gets extended.
func (e *Executor) ExecMessage(ctx context.Context, docPath string, messageIndex int) (*ExecResult, error) {
	timer := logging.StartTimer(logging.CategorySession, "exec_message")
	defer timer.Stop()

	opts := e.Options
	opts.SourcePath = docPath
	opts.ResolveInclusions = false

	doc, err := document.ParseFile(docPath, opts)
	if err != nil {
		return nil, err
	}

	msg, err := selectMessage(doc, messageIndex)
	if err != nil {
		return nil, err
	}

	commands, err := toolcall.Parse(document.Unquote(msg.Content))
	if err != nil {
		return nil, fmt.Errorf("parsing tool calls of message %d: %w", messageIndex, err)
	}

	res := &ExecResult{Message: msg, Commands: commands}
	if len(commands) == 0 {
		logging.Session("exec: message %d of %s has no tool calls", messageIndex, docPath)
		return res, nil
	}

	res.Results = tools.DispatchAll(ctx, e.Registry, commands)

	var envelopes []string
	for _, r := range res.Results {
		envelopes = append(envelopes, tools.FormatResponse(r, e.Paths))
	}
	res.Response = strings.Join(envelopes, "\n\n")

	err = document.AppendMessageToFile(docPath, document.Message{
		Speaker: "user",
		Content: res.Response,
		Metadata: map[string]any{
			"source":     "user",
			"type":       "UserMessage",
			"message_id": uuid.NewString(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("appending tool output to %s: %w", docPath, err)
	}

	logging.Session("exec: %d tool call(s) executed against %s", len(commands), docPath)
	return res, nil
}

// selectMessage picks a message by index; negative indices count from the
// end, python style.
func selectMessage(doc *document.ParsedDocument, index int) (*document.Message, error) {
	n := len(doc.Messages)
	i := index
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return nil, fmt.Errorf("message index %d out of range: document has %d messages", index, n)
	}
	return &doc.Messages[i], nil
}
