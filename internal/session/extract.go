package session

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"domark/internal/document"
	"domark/internal/logging"
)

// Filename sniffing patterns, tried against the first line of a code block.
// Order matters: shebangs before plain comments.
var filenamePatterns = []*regexp.Regexp{
	// #!/usr/bin/env python3 path/to/script.py
	regexp.MustCompile(`^\s*#!\s*(?:[\w/.-]+/env\s+\w+\s+)?([\w/.-]+\.[a-zA-Z0-9]+)\s*`),
	// # path/to/file.ext
	regexp.MustCompile(`^\s*#\s*([\w/.-]+\.[a-zA-Z0-9]+)\s*`),
	// /* path/to/file.css */
	regexp.MustCompile(`^\s*/\*\s*([\w/.-]+\.[a-zA-Z0-9]+)\s*\*/`),
	// ; alembic.ini
	regexp.MustCompile(`^\s*;+\s*([\w/.-]+\.ini)\s*`),
}

// SniffFilename inspects the first line of a code block for a file path.
// firstLineIsCode reports whether that line belongs in the written file: a
// shebang does, a filename comment does not.
func SniffFilename(code string) (path string, firstLineIsCode bool) {
	lines := strings.Split(strings.TrimSpace(code), "\n")
	if len(lines) == 0 {
		return "", false
	}
	first := strings.TrimSpace(lines[0])
	for _, pattern := range filenamePatterns {
		if m := pattern.FindStringSubmatch(first); m != nil {
			return strings.TrimSpace(m[1]), strings.HasPrefix(first, "#!")
		}
	}
	return "", false
}

// ExtractCode writes the blockIndex-th code block of a message to a file
// under baseDir. The target path comes from overridePath when given,
// otherwise from the block's first line. The returned path is the file
// actually written.
func ExtractCode(docPath string, messageIndex, blockIndex int, baseDir, overridePath string, opts document.Options) (string, error) {
	opts.SourcePath = docPath
	opts.ResolveInclusions = false

	doc, err := document.ParseFile(docPath, opts)
	if err != nil {
		return "", err
	}
	if messageIndex < 0 {
		messageIndex += len(doc.Messages)
	}
	_, block, err := doc.MessageCodeBlock(messageIndex, blockIndex)
	if err != nil {
		return "", err
	}

	code := strings.TrimSpace(block.Code)
	if code == "" {
		return "", fmt.Errorf("code block %d of message %d is empty", blockIndex, messageIndex)
	}

	sniffed, firstLineIsCode := SniffFilename(code)
	target := overridePath
	if target == "" {
		target = sniffed
	}
	if target == "" {
		first := strings.SplitN(code, "\n", 2)[0]
		return "", fmt.Errorf("no filename pattern matched first line %q and no target path given", first)
	}

	lines := strings.Split(code, "\n")
	content := code
	if sniffed != "" && !firstLineIsCode {
		content = strings.Join(lines[1:], "\n")
	}
	if strings.TrimSpace(content) == "" && !firstLineIsCode {
		return "", fmt.Errorf("file %q would be empty after stripping the filename comment", target)
	}

	full := filepath.Join(baseDir, target)
	if dir := filepath.Dir(full); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directories for %q: %w", target, err)
		}
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write %q: %w", full, err)
	}

	logging.Session("extract: wrote %s (%d bytes) from message %d block %d", full, len(content), messageIndex, blockIndex)
	return full, nil
}
