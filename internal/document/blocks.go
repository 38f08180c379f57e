package document

import (
	"regexp"
	"strings"
)

// blockKind classifies one block-level node.
type blockKind int

const (
	blockBlank blockKind = iota
	blockHeading
	blockFence
	blockQuote
	blockOther
)

// block is one block-level node from the scanner.
type block struct {
	kind blockKind

	// heading
	level int
	text  string

	// fence
	info string
	code string

	// quote: the raw text with '>' markers preserved verbatim
	raw string

	// 1-based line number of the block's first line
	line int
}

var (
	headingRe = regexp.MustCompile(`^(#{1,6})[ \t]+(.*?)[ \t#]*$`)
	fenceRe   = regexp.MustCompile("^```(.*)$")
	quoteRe   = regexp.MustCompile(`^[ \t]{0,3}>`)
)

// scanBlocks turns document lines (no line endings) into block-level nodes.
//
// This is deliberately a small hand-written scanner rather than a markdown
// library: the message body contract requires the block quote's '>' markers
// to survive into Message.Content verbatim, which AST renderers normalize
// away. Only the four node kinds the document format uses are recognized.
func scanBlocks(lines []string) []block {
	var blocks []block

	i := 0
	for i < len(lines) {
		line := lines[i]

		if strings.TrimSpace(line) == "" {
			start := i
			for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
				i++
			}
			blocks = append(blocks, block{kind: blockBlank, line: start + 1})
			continue
		}

		if m := headingRe.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, block{
				kind:  blockHeading,
				level: len(m[1]),
				text:  strings.TrimSpace(m[2]),
				line:  i + 1,
			})
			i++
			continue
		}

		if m := fenceRe.FindStringSubmatch(line); m != nil {
			info := strings.TrimSpace(m[1])
			start := i
			i++
			var body []string
			closed := false
			for i < len(lines) {
				if strings.TrimSpace(lines[i]) == "```" {
					closed = true
					i++
					break
				}
				body = append(body, lines[i])
				i++
			}
			// An unclosed fence still yields a block; the collected body
			// runs to end of input.
			_ = closed
			blocks = append(blocks, block{
				kind: blockFence,
				info: info,
				code: strings.Join(body, "\n"),
				line: start + 1,
			})
			continue
		}

		if quoteRe.MatchString(line) {
			start := i
			var raw []string
			for i < len(lines) && quoteRe.MatchString(lines[i]) {
				raw = append(raw, lines[i])
				i++
			}
			blocks = append(blocks, block{
				kind: blockQuote,
				raw:  strings.Join(raw, "\n"),
				line: start + 1,
			})
			continue
		}

		// Anything else is paragraph-ish text the document format ignores.
		start := i
		for i < len(lines) {
			l := lines[i]
			if strings.TrimSpace(l) == "" || headingRe.MatchString(l) ||
				fenceRe.MatchString(l) || quoteRe.MatchString(l) {
				break
			}
			i++
		}
		blocks = append(blocks, block{
			kind: blockOther,
			raw:  strings.Join(lines[start:i], "\n"),
			line: start + 1,
		})
	}

	return blocks
}

func (k blockKind) String() string {
	switch k {
	case blockBlank:
		return "blank_line"
	case blockHeading:
		return "heading"
	case blockFence:
		return "code_block"
	case blockQuote:
		return "block_quote"
	default:
		return "text"
	}
}

// Unquote strips one level of block-quote markers from text. Lines without a
// marker pass through unchanged. Used when a message body needs to be read as
// plain text (tool-call extraction, code block slicing).
func Unquote(text string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = unquoteLine(line)
	}
	return strings.Join(out, "\n")
}

var quoteMarkerRe = regexp.MustCompile(`^[ \t]{0,3}> ?`)

func unquoteLine(line string) string {
	if loc := quoteMarkerRe.FindStringIndex(line); loc != nil {
		return line[loc[1]:]
	}
	return line
}
