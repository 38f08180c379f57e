package tools

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"domark/internal/logging"
	"domark/internal/toolcall"
)

// Dispatch executes one parsed tool call against the registry. It always
// returns a CommandResult and never propagates a failure:
//
//   - a missing handler or an argument-shape problem (missing required
//     parameter, uncoercible value) yields a diagnostic plus a compact trace;
//   - a domain error returned by the handler yields the diagnostic alone;
//   - a panic inside the handler is recovered and treated like an
//     argument-shape problem.
func Dispatch(ctx context.Context, reg *Registry, call toolcall.Command) (res CommandResult) {
	start := time.Now()
	res.Tool = call.Name

	defer func() {
		if r := recover(); r != nil {
			logging.ToolsError("tool %s panicked: %v", call.Name, r)
			res.Result = fmt.Sprintf("Error: tool %q panicked: %v\nTraceback:\n%s",
				call.Name, r, compactTrace())
			res.Failed = true
		}
		logging.ToolsDebug("tool %s completed in %v (failed=%v)", call.Name, time.Since(start), res.Failed)
	}()

	tool := reg.Get(call.Name)
	if tool == nil {
		logging.ToolsError("tool not found: %s", call.Name)
		res.Result = fmt.Sprintf("Error: %v: %q.", ErrToolNotFound, call.Name)
		res.Failed = true
		return res
	}

	args, err := coerceArgs(tool, call.Params)
	if err != nil {
		logging.ToolsError("tool %s rejected arguments: %v", call.Name, err)
		res.Result = fmt.Sprintf("Error: tool %q arguments invalid or missing: %v\nTraceback:\n%s",
			call.Name, err, compactTrace())
		res.Failed = true
		return res
	}

	logging.Tools("executing tool %s with %d args", call.Name, len(args))
	out, err := tool.Execute(ctx, args)
	if err != nil {
		res.Result = fmt.Sprintf("Error: executing tool %q: %v", call.Name, err)
		res.Failed = true
		return res
	}

	res.Result = out
	return res
}

// DispatchAll runs a batch of calls in order, continuing past failures.
func DispatchAll(ctx context.Context, reg *Registry, calls []toolcall.Command) []CommandResult {
	results := make([]CommandResult, 0, len(calls))
	for _, call := range calls {
		results = append(results, Dispatch(ctx, reg, call))
	}
	return results
}

// coerceArgs turns the raw string parameters into handler arguments: literal
// "true"/"false" become booleans regardless of schema, schema-declared
// integers are parsed, everything else stays a string. Missing required
// parameters and unparsable declared types are argument-shape errors.
func coerceArgs(tool *Tool, params map[string]string) (map[string]any, error) {
	for _, required := range tool.Schema.Required {
		if _, ok := params[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingRequiredArg, required)
		}
	}

	args := make(map[string]any, len(params))
	for name, raw := range params {
		switch strings.ToLower(raw) {
		case "true":
			args[name] = true
			continue
		case "false":
			args[name] = false
			continue
		}

		if prop, ok := tool.Schema.Properties[name]; ok && prop.Type == "integer" {
			n, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				return nil, fmt.Errorf("%w: parameter %q must be an integer, got %q",
					ErrInvalidArgType, name, raw)
			}
			args[name] = n
			continue
		}

		args[name] = raw
	}
	return args, nil
}

// compactTrace returns a short stack trace for argument and panic
// diagnostics. Full stacks drown the document; a handful of frames is enough
// to locate the failure.
func compactTrace() string {
	lines := strings.Split(strings.TrimSpace(string(debug.Stack())), "\n")
	const maxLines = 13
	if len(lines) > maxLines {
		lines = append(lines[:maxLines], "...")
	}
	return strings.Join(lines, "\n")
}
