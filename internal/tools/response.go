package tools

import (
	"fmt"

	"domark/internal/pathmap"
)

// FormatResponse wraps a command result in the fixed envelope the document
// loop appends as new content. Before wrapping, any real filesystem path the
// resolver knows about is rewritten to its virtual form; the transcript never
// shows machine-local paths.
func FormatResponse(res CommandResult, paths *pathmap.Resolver) string {
	body := res.Result
	if paths != nil {
		body = paths.RewriteDisplay(body)
	}
	return fmt.Sprintf("<tool_output tool_name=%q>\n%s\n</tool_output>", res.Tool, body)
}
