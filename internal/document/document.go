// Package document parses and writes domark conversation documents.
//
// A document is a single markdown file carrying three things at once: the
// session configuration (a fenced session-config block before the first
// level-2 heading), the conversation transcript (one "## speaker" section per
// message, body stored as a block quote), and inclusion directives that splice
// other documents in at parse time.
//
// Parsing is best-effort by design: malformed config JSON, missing message
// bodies and broken inclusions are recorded in ParsedDocument.Errors and the
// partial document is still returned. Agent-facing callers must be able to
// keep a session alive even when one message is damaged.
package document

import "fmt"

// CodeBlock is a fenced code block. Immutable once parsed.
type CodeBlock struct {
	Language string
	Code     string
}

// SessionMeta is the session-level configuration parsed from the document
// head: the session-config block's JSON payload plus an optional setup code
// block immediately following it.
type SessionMeta struct {
	Config    map[string]any
	SetupCode *CodeBlock
}

// Message is one conversation entry. Content keeps the original block-quote
// markers verbatim so the document round-trips byte-faithfully. Messages are
// never mutated after parsing; edits happen by appending new messages.
type Message struct {
	Speaker  string
	Content  string
	Metadata map[string]any
}

// ParsedDocument is the result of one parse call.
type ParsedDocument struct {
	// FrontMatter holds the leading YAML front-matter block, if any.
	FrontMatter map[string]any

	// Config is the session configuration section.
	Config SessionMeta

	// Messages in document order.
	Messages []Message

	// Errors collects recoverable parse problems. Callers must inspect this
	// even when Parse returns normally.
	Errors []string

	// RawLines is the fully inclusion-resolved text, split with line endings
	// kept. Used for downstream slicing.
	RawLines []string
}

func (d *ParsedDocument) addErrorf(format string, args ...any) {
	d.Errors = append(d.Errors, fmt.Sprintf(format, args...))
}
