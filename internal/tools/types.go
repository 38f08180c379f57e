// Package tools defines the tool registry and the dispatcher that routes
// parsed tool calls to handlers.
//
// Tools are collected by a Builder at startup and frozen into an immutable
// Registry; nothing registers after construction and the Registry is safe to
// share for the lifetime of the process. Dispatch never propagates a handler
// failure to its caller: every outcome, success or not, comes back as a
// CommandResult so a batch of calls in one message can continue past one
// failing command.
package tools

import (
	"context"
)

// Property describes a single parameter for argument coercion and
// documentation. Type is one of "string", "boolean", "integer".
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
}

// ToolSchema declares a tool's parameters.
type ToolSchema struct {
	// Required lists parameters that must be provided.
	Required []string `json:"required"`

	// Properties describes each parameter.
	Properties map[string]Property `json:"properties"`
}

// ExecuteFunc is the signature every handler satisfies: named arguments in,
// result string or domain error out.
type ExecuteFunc func(ctx context.Context, args map[string]any) (string, error)

// Tool is one named handler pluggable into the dispatcher.
type Tool struct {
	// Name is the tag name agents use to invoke the tool.
	Name string

	// Description explains what the tool does.
	Description string

	// Execute runs the tool with the given arguments.
	Execute ExecuteFunc

	// Schema declares the expected arguments.
	Schema ToolSchema
}

// Validate checks if the tool definition is usable.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return ErrToolNameEmpty
	}
	if t.Execute == nil {
		return ErrToolExecuteNil
	}
	return nil
}

// CommandResult is the outcome of dispatching one tool call. Result is
// always a string, even on failure; failed results embed the diagnostic (and
// sometimes a compact trace) in the text itself so they can be written back
// into the document verbatim.
type CommandResult struct {
	// Tool is the command name as the agent wrote it.
	Tool string

	// Result is the stringified outcome.
	Result string

	// Failed marks results whose text is a diagnostic rather than output.
	Failed bool
}
