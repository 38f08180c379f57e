// Package toolcall extracts structured tool calls from agent reply text.
//
// The grammar is recovery-oriented rather than strict XML: agent output is
// frequently truncated mid-command by token limits or slightly malformed, so
// the parser extracts as much usable structure as it can instead of
// discarding the whole message. A command begins at <name>; its body runs to
// the matching </name>, or, when that never arrives, to the next top-level
// open tag or the end of the text. Parameters inside the body follow the same
// rule one level down. The single unrecoverable case is non-whitespace text
// sitting in front of a parameter tag.
package toolcall

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"domark/internal/logging"
)

// ErrMalformedCall is returned when a command body contains non-tag content
// before a parameter tag. This is the one grammar violation the parser does
// not repair.
var ErrMalformedCall = errors.New("malformed tool call")

// Command is one parsed tool call: a name and its named string parameters.
// Parameters that never received a value are absent from the map; an
// explicitly closed empty tag yields an empty string.
type Command struct {
	Name   string
	Params map[string]string
}

// Tag names: letters, digits, underscore, not starting with a digit.
// Whitespace inside the brackets is tolerated.
var (
	openTagAtRe = regexp.MustCompile(`^<\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*>`)
	openTagRe   = regexp.MustCompile(`<\s*[a-zA-Z_][a-zA-Z0-9_]*\s*>`)
)

func closeTagRe(name string) *regexp.Regexp {
	return regexp.MustCompile(`</\s*` + regexp.QuoteMeta(name) + `\s*>`)
}

// Parse extracts the ordered list of commands embedded in message. Text
// between commands is skipped one character at a time until the next open
// tag. A nil error with an empty slice means the text held no commands.
func Parse(message string) ([]Command, error) {
	var commands []Command

	idx := 0
	for idx < len(message) {
		open := openTagAtRe.FindStringSubmatch(message[idx:])
		if open == nil {
			idx++
			continue
		}

		name := open[1]
		bodyStart := idx + len(open[0])

		body, end := commandBody(message, name, bodyStart)

		params, err := parseParams(name, body)
		if err != nil {
			return nil, err
		}

		logging.ToolCallDebug("parsed tool call %q with %d params", name, len(params))
		commands = append(commands, Command{Name: name, Params: params})
		idx = end
	}

	return commands, nil
}

// commandBody finds the span of the command named name whose body starts at
// bodyStart. It returns the body text and the offset where scanning resumes.
func commandBody(message, name string, bodyStart int) (string, int) {
	if loc := closeTagRe(name).FindStringIndex(message[bodyStart:]); loc != nil {
		return message[bodyStart : bodyStart+loc[0]], bodyStart + loc[1]
	}

	// No matching close tag: the command was cut off. Its body runs to the
	// next top-level open tag, or to the end of the text. A truncated
	// parameter tag is indistinguishable from a new command by syntax alone,
	// so "top-level" here means the next open tag that still has a matching
	// close tag ahead of it; tags with no close belong to this command's
	// truncated tail.
	if at := nextCompleteTag(message, bodyStart); at >= 0 {
		return message[bodyStart:at], at
	}
	return message[bodyStart:], len(message)
}

// nextCompleteTag returns the offset of the first open tag at or after start
// whose matching close tag also exists, or -1.
func nextCompleteTag(message string, start int) int {
	for start < len(message) {
		loc := openTagRe.FindStringIndex(message[start:])
		if loc == nil {
			return -1
		}
		at := start + loc[0]
		name := openTagAtRe.FindStringSubmatch(message[at:])[1]
		tagEnd := at + len(openTagRe.FindString(message[at:]))
		if closeTagRe(name).MatchString(message[tagEnd:]) {
			return at
		}
		start = tagEnd
	}
	return -1
}

// parseParams walks a command body extracting <param>value</param> pairs with
// the same truncation recovery as the top level.
func parseParams(tool, body string) (map[string]string, error) {
	params := make(map[string]string)

	idx := 0
	for idx < len(body) {
		loc := openTagRe.FindStringIndex(body[idx:])
		if loc == nil {
			break
		}

		// Anything but whitespace between parameters is unrepairable:
		// there is no way to tell which parameter the stray text belongs to.
		if stray := strings.TrimSpace(body[idx : idx+loc[0]]); stray != "" {
			return nil, fmt.Errorf("%w: tool %q has non-tag content before a parameter tag: %q",
				ErrMalformedCall, tool, stray)
		}

		open := openTagAtRe.FindStringSubmatch(body[idx+loc[0]:])
		name := open[1]
		valueStart := idx + loc[0] + len(open[0])

		value, end := paramValue(body, name, valueStart)
		params[name] = strings.TrimSpace(value)
		idx = end
	}

	return params, nil
}

// paramValue finds the value span of the parameter named name starting at
// valueStart within body.
func paramValue(body, name string, valueStart int) (string, int) {
	if loc := closeTagRe(name).FindStringIndex(body[valueStart:]); loc != nil {
		return body[valueStart : valueStart+loc[0]], valueStart + loc[1]
	}

	// Truncated parameter: value runs to the next sibling open tag, or to
	// the end of the command body.
	if loc := openTagRe.FindStringIndex(body[valueStart:]); loc != nil {
		return body[valueStart : valueStart+loc[0]], valueStart + loc[0]
	}
	return body[valueStart:], len(body)
}
