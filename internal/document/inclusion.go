package document

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"domark/internal/logging"
)

// inclusionRe matches one [include](path) or [include](path#N) directive on
// its own line, with optional indentation and an optional block-quote marker.
var inclusionRe = regexp.MustCompile(`(?im)^([ \t]*)(>[ \t]*)?\[include\]\(([^)]+)\)[ \t]*$`)

// resolveInclusions expands every inclusion directive in content. Text is
// re-scanned after each substitution because replacements can introduce new
// directives. visiting is the set of absolute paths currently being expanded;
// it is shared by reference across recursive calls so cross-file cycles are
// caught no matter where the loop closes.
func (d *ParsedDocument) resolveInclusions(content, absPath, baseDir string, visiting map[string]bool) string {
	if visiting[absPath] {
		msg := fmt.Sprintf("Circular inclusion detected: %s is already being processed.", absPath)
		d.Errors = append(d.Errors, msg)
		return "> **ERROR**: " + msg
	}
	visiting[absPath] = true
	defer delete(visiting, absPath)

	output := content

	for {
		loc := inclusionRe.FindStringSubmatchIndex(output)
		if loc == nil {
			break
		}

		match := output[loc[0]:loc[1]]
		indent := submatch(output, loc, 1)
		quoted := submatch(output, loc, 2) != ""
		pathSpec := submatch(output, loc, 3)

		logging.DocumentDebug("resolving inclusion %q in %s", pathSpec, absPath)

		targetPath := pathSpec
		msgIndex := 0
		hasIndex := false
		if at := strings.Index(pathSpec, "#"); at >= 0 {
			targetPath = pathSpec[:at]
			idxStr := pathSpec[at+1:]
			n, err := strconv.Atoi(idxStr)
			if err != nil {
				msg := fmt.Sprintf("Invalid message index %q in include directive for %q. Must be an integer.", idxStr, targetPath)
				d.Errors = append(d.Errors, msg)
				output = output[:loc[0]] + indent + "> **ERROR**: " + msg + output[loc[1]:]
				continue
			}
			msgIndex = n
			hasIndex = true
		}

		includedAbs := filepath.Clean(filepath.Join(baseDir, targetPath))
		includedDir := filepath.Dir(includedAbs)

		var replacement string
		raw, err := os.ReadFile(includedAbs)
		if err != nil {
			msg := fmt.Sprintf("Included file not found: %s", includedAbs)
			d.Errors = append(d.Errors, msg)
			replacement = fmt.Sprintf("> **ERROR**: Included file not found: %s", targetPath)
		} else if hasIndex {
			replacement = d.includeMessage(string(raw), includedAbs, targetPath, msgIndex, visiting)
		} else {
			replacement = d.resolveInclusions(string(raw), includedAbs, includedDir, visiting)
		}

		if quoted {
			replacement = Quote(replacement)
		}

		// Reapply the directive's indentation to every substituted line.
		var final string
		if replacement == "" {
			final = ""
		} else {
			lines := strings.Split(strings.TrimSuffix(replacement, "\n"), "\n")
			for i, line := range lines {
				lines[i] = indent + line
			}
			final = strings.Join(lines, "\n")
		}

		_ = match
		output = output[:loc[0]] + final + output[loc[1]:]
	}

	return output
}

// includeMessage parses the target document and substitutes the n-th
// message's raw content. Negative indices count from the end.
func (d *ParsedDocument) includeMessage(raw, includedAbs, targetPath string, msgIndex int, visiting map[string]bool) string {
	sub := parse(raw, Options{
		SourcePath:        includedAbs,
		ResolveInclusions: true,
	}, visiting)
	d.Errors = append(d.Errors, sub.Errors...)

	if len(sub.Messages) == 0 {
		msg := fmt.Sprintf("No messages found in %q to select index %d.", targetPath, msgIndex)
		d.Errors = append(d.Errors, msg)
		return "> **ERROR**: " + msg
	}

	effective := msgIndex
	if msgIndex < 0 {
		effective = len(sub.Messages) + msgIndex
	}
	if effective < 0 || effective >= len(sub.Messages) {
		msg := fmt.Sprintf("Message index %d (resolved to %d) out of bounds for %s (%d messages).",
			msgIndex, effective, targetPath, len(sub.Messages))
		d.Errors = append(d.Errors, msg)
		return "> **ERROR**: " + msg
	}

	// Message content is already block-quote marked, so it drops in as-is.
	return sub.Messages[effective].Content
}

// Quote prefixes every line of text with a "> " marker.
func Quote(text string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}

// submatch extracts one capture group from FindStringSubmatchIndex output.
func submatch(s string, loc []int, n int) string {
	if loc[2*n] < 0 {
		return ""
	}
	return s[loc[2*n]:loc[2*n+1]]
}
