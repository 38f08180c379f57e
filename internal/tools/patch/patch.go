// Package patch implements line-exact search/replace editing of files. Each
// edit block declares the line it expects its search content at; the match is
// located within a small window around that line and every block must locate
// before anything is written.
package patch

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrMalformedDiff reports a diff body that does not follow the block grammar.
var ErrMalformedDiff = errors.New("malformed diff")

// DefaultSearchWindow is how many lines either side of the declared start a
// block's search content may actually sit at.
const DefaultSearchWindow = 5

// EditBlock is one search/replace unit of a diff.
type EditBlock struct {
	StartLine int // 1-based declared position of the first search line
	Search    []string
	Replace   []string
}

// Markers are matched against the trimmed line, with an optional space
// before the keyword tolerated, so surrounding whitespace never breaks a
// block.
var (
	openRe  = regexp.MustCompile(`^<{7} ?SEARCH$`)
	closeRe = regexp.MustCompile(`^>{5,9} ?REPLACE$`)
)

func isOpen(line string) bool    { return openRe.MatchString(strings.TrimSpace(line)) }
func isSep(line string) bool     { return strings.TrimSpace(line) == "-------" }
func isDivider(line string) bool { return strings.TrimSpace(line) == "=======" }
func isClose(line string) bool   { return closeRe.MatchString(strings.TrimSpace(line)) }

// ParseDiff parses a diff body into edit blocks. Text outside blocks is
// skipped, so a diff wrapped in prose still parses; inside a block the
// grammar is strict: a missing start line, separator, divider or terminator
// is an error, not a best-effort match.
func ParseDiff(text string) ([]EditBlock, error) {
	lines := strings.Split(text, "\n")
	var blocks []EditBlock

	i := 0
	for i < len(lines) {
		if !isOpen(lines[i]) {
			i++
			continue
		}
		i++

		if i >= len(lines) {
			return nil, fmt.Errorf("%w: block is missing its :start_line: marker", ErrMalformedDiff)
		}
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, ":start_line:") {
			return nil, fmt.Errorf("%w: expected :start_line:N after SEARCH marker, got %q", ErrMalformedDiff, lines[i])
		}
		value := strings.TrimSpace(strings.TrimPrefix(trimmed, ":start_line:"))
		startLine, err := strconv.Atoi(value)
		if err != nil || startLine < 1 {
			return nil, fmt.Errorf("%w: invalid start line %q", ErrMalformedDiff, value)
		}
		i++

		if i >= len(lines) || !isSep(lines[i]) {
			return nil, fmt.Errorf("%w: expected ------- separator after :start_line:", ErrMalformedDiff)
		}
		i++

		var search []string
		for i < len(lines) && !isDivider(lines[i]) {
			if isClose(lines[i]) || isOpen(lines[i]) {
				return nil, fmt.Errorf("%w: block is missing its ======= divider", ErrMalformedDiff)
			}
			search = append(search, lines[i])
			i++
		}
		if i >= len(lines) {
			return nil, fmt.Errorf("%w: block is missing its ======= divider", ErrMalformedDiff)
		}
		i++

		var replace []string
		closed := false
		for i < len(lines) {
			if isClose(lines[i]) {
				closed = true
				i++
				break
			}
			if isOpen(lines[i]) {
				return nil, fmt.Errorf("%w: block is missing its REPLACE terminator", ErrMalformedDiff)
			}
			replace = append(replace, lines[i])
			i++
		}
		if !closed {
			return nil, fmt.Errorf("%w: block is missing its REPLACE terminator", ErrMalformedDiff)
		}

		if len(search) == 0 {
			return nil, fmt.Errorf("%w: block at start line %d has empty search content", ErrMalformedDiff, startLine)
		}
		blocks = append(blocks, EditBlock{StartLine: startLine, Search: search, Replace: replace})
	}

	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: no edit blocks found", ErrMalformedDiff)
	}
	return blocks, nil
}

// located is an edit block pinned to the offset its search content was
// actually found at.
type located struct {
	block EditBlock
	index int // 0-based offset into the file lines
}

// Apply applies every block to the file lines and returns the new lines. All
// blocks are located before any is applied; one mismatch fails the whole set
// and the input is returned unchanged alongside the error.
func Apply(lines []string, blocks []EditBlock, window int) ([]string, error) {
	if window < 0 {
		window = DefaultSearchWindow
	}

	found := make([]located, 0, len(blocks))
	for _, b := range blocks {
		idx, err := locate(lines, b, window)
		if err != nil {
			return lines, err
		}
		found = append(found, located{block: b, index: idx})
	}

	// Highest offset first so earlier offsets stay valid as lengths change.
	for i := 1; i < len(found); i++ {
		for j := i; j > 0 && found[j].index > found[j-1].index; j-- {
			found[j], found[j-1] = found[j-1], found[j]
		}
	}

	out := make([]string, len(lines))
	copy(out, lines)
	for _, f := range found {
		tail := make([]string, len(out)-(f.index+len(f.block.Search)))
		copy(tail, out[f.index+len(f.block.Search):])
		out = append(out[:f.index], append(append([]string{}, f.block.Replace...), tail...)...)
	}
	return out, nil
}

// locate finds the 0-based offset of the block's search content. The declared
// start is bounds-checked first; then offsets are scanned from the low edge of
// the window upward and the first match wins.
func locate(lines []string, b EditBlock, window int) (int, error) {
	declared := b.StartLine - 1
	if declared < 0 || declared+len(b.Search) > len(lines) {
		return 0, fmt.Errorf("declared start line %d is out of range: file has %d lines and the search content spans %d",
			b.StartLine, len(lines), len(b.Search))
	}

	lo := declared - window
	if lo < 0 {
		lo = 0
	}
	hi := declared + window
	if max := len(lines) - len(b.Search); hi > max {
		hi = max
	}

	for idx := lo; idx <= hi; idx++ {
		if matchAt(lines, b.Search, idx) {
			return idx, nil
		}
	}
	return 0, mismatchError(lines, b, declared, window)
}

// matchAt compares line by line with leading and trailing whitespace
// stripped, so indentation drift never defeats a match.
func matchAt(lines, search []string, idx int) bool {
	for i, s := range search {
		if strings.TrimSpace(lines[idx+i]) != strings.TrimSpace(s) {
			return false
		}
	}
	return true
}

// mismatchError describes what the file actually holds at the declared
// position, listing only the line pairs that differ.
func mismatchError(lines []string, b EditBlock, declared, window int) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "search content not found near line %d (checked %d..%d):\n", b.StartLine, b.StartLine-window, b.StartLine+window)
	for i, s := range b.Search {
		actual := "<past end of file>"
		if declared+i < len(lines) {
			actual = lines[declared+i]
			if strings.TrimSpace(actual) == strings.TrimSpace(s) {
				continue
			}
		}
		fmt.Fprintf(&sb, "  line %d: expected %q, found %q\n", declared+i+1, s, actual)
	}
	fmt.Fprintf(&sb, "  (%d search lines, file has %d lines)", len(b.Search), len(lines))
	return errors.New(sb.String())
}
