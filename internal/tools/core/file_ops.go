package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"domark/internal/logging"
	"domark/internal/pathmap"
	"domark/internal/tools"
)

// ReadFileTool reads a file, optionally a line range of it, with every line
// prefixed by its 1-based number. A path containing glob metacharacters fans
// out to all matching files; line ranges are ignored in that mode.
func ReadFileTool(pm *pathmap.Resolver) *tools.Tool {
	return &tools.Tool{
		Name:        "read_file",
		Description: "Read the contents of a file, optionally a line range; supports glob patterns",
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return executeReadFile(pm, args)
		},
		Schema: tools.ToolSchema{
			Required: []string{"path"},
			Properties: map[string]tools.Property{
				"path":       {Type: "string", Description: "The file path to read, may contain glob wildcards"},
				"start_line": {Type: "integer", Description: "Starting line number (1-based, optional)"},
				"end_line":   {Type: "integer", Description: "Ending line number (inclusive, optional)"},
			},
		},
	}
}

func executeReadFile(pm *pathmap.Resolver, args map[string]any) (string, error) {
	path, err := stringArg(args, "path")
	if err != nil {
		return "", err
	}
	startLine, hasStart, err := optionalIntArg(args, "start_line")
	if err != nil {
		return "", err
	}
	endLine, hasEnd, err := optionalIntArg(args, "end_line")
	if err != nil {
		return "", err
	}

	logging.ToolsDebug("read_file: path=%s start=%d end=%d", path, startLine, endLine)

	if hasGlobMeta(path) {
		return readGlob(pm, path)
	}

	real, err := pm.Resolve(path)
	if err != nil {
		return "", err
	}
	return readSingleFile(path, real, startLine, hasStart, endLine, hasEnd)
}

func readSingleFile(virtual, real string, startLine int, hasStart bool, endLine int, hasEnd bool) (string, error) {
	info, err := os.Stat(real)
	if err != nil {
		return "", fmt.Errorf("file %q does not exist", virtual)
	}
	if info.IsDir() {
		return "", fmt.Errorf("path %q is a directory, not a file", virtual)
	}

	raw, err := os.ReadFile(real)
	if err != nil {
		return "", fmt.Errorf("failed to read file %q: %w", virtual, err)
	}

	lines := strings.Split(strings.TrimSuffix(string(raw), "\n"), "\n")

	startIdx := 0
	if hasStart && startLine > 0 {
		startIdx = startLine - 1
	}
	endIdx := len(lines)
	if hasEnd && endLine > 0 {
		endIdx = endLine
	}
	startIdx = clamp(startIdx, 0, len(lines))
	endIdx = clamp(endIdx, 0, len(lines))

	if startIdx >= endIdx && hasStart && hasEnd {
		return "", fmt.Errorf("line range %d..%d is empty or invalid: file has %d lines", startLine, endLine, len(lines))
	}

	var out []string
	for i := startIdx; i < endIdx; i++ {
		out = append(out, fmt.Sprintf("%d | %s", i+1, lines[i]))
	}
	return strings.Join(out, "\n"), nil
}

// readGlob reads every file matching the pattern, whole-file, separated by a
// per-file header. A file that fails to read is reported inline so the rest
// still comes back.
func readGlob(pm *pathmap.Resolver, pattern string) (string, error) {
	dir, base := filepath.Split(pattern)
	if dir == "" {
		dir = "."
	}
	realDir, err := pm.Resolve(dir)
	if err != nil {
		return "", fmt.Errorf("cannot resolve directory part of glob %q: %w", pattern, err)
	}

	matches, err := filepath.Glob(filepath.Join(realDir, base))
	if err != nil {
		return "", fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return fmt.Sprintf("Warning: no files match pattern %q.", pattern), nil
	}
	sort.Strings(matches)

	var sections []string
	failures := 0
	for _, match := range matches {
		display := match
		if v, ok := pm.Virtualize(match); ok {
			display = v
		}
		content, err := readSingleFile(display, match, 0, false, 0, false)
		if err != nil {
			failures++
			sections = append(sections, fmt.Sprintf("--- File: %s ---\nError: %v\n", display, err))
			continue
		}
		sections = append(sections, fmt.Sprintf("--- File: %s ---\n%s\n", display, content))
	}
	if failures == len(matches) {
		return "", fmt.Errorf("all files matching %q failed to read", pattern)
	}
	return strings.Join(sections, "\n"), nil
}

// WriteToFileTool writes complete content to a file, creating or overwriting
// it. line_count must match the content, which catches agent truncation.
func WriteToFileTool(pm *pathmap.Resolver) *tools.Tool {
	return &tools.Tool{
		Name:        "write_to_file",
		Description: "Write complete content to a file, creating it if needed",
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return executeWriteToFile(pm, args)
		},
		Schema: tools.ToolSchema{
			Required: []string{"path", "content", "line_count"},
			Properties: map[string]tools.Property{
				"path":       {Type: "string", Description: "The file path to write"},
				"content":    {Type: "string", Description: "The complete content to write"},
				"line_count": {Type: "integer", Description: "Total number of lines in the content, for validation"},
			},
		},
	}
}

func executeWriteToFile(pm *pathmap.Resolver, args map[string]any) (string, error) {
	path, err := stringArg(args, "path")
	if err != nil {
		return "", err
	}
	content, err := stringArg(args, "content")
	if err != nil {
		return "", err
	}
	lineCount, hasCount, err := optionalIntArg(args, "line_count")
	if err != nil {
		return "", err
	}
	if !hasCount {
		return "", fmt.Errorf("parameter %q is required", "line_count")
	}

	actual := countLines(content)
	if actual != lineCount {
		return "", fmt.Errorf("provided line_count (%d) does not match the actual content line count (%d)", lineCount, actual)
	}

	real, err := pm.Resolve(path)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(real); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directories for %q: %w", path, err)
		}
	}
	if err := os.WriteFile(real, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write file %q: %w", path, err)
	}

	logging.Tools("write_to_file: %s (%d lines)", path, actual)
	return fmt.Sprintf("File %q written successfully, %d lines.", path, actual), nil
}

func hasGlobMeta(path string) bool {
	return strings.ContainsAny(path, "*?[")
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func countLines(content string) int {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}

// InsertContentTool inserts content at a 1-based line number; line 0 appends
// to the end of the file.
func InsertContentTool(pm *pathmap.Resolver) *tools.Tool {
	return &tools.Tool{
		Name:        "insert_content",
		Description: "Insert content at a given line of a file; line 0 appends",
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return executeInsertContent(pm, args)
		},
		Schema: tools.ToolSchema{
			Required: []string{"path", "line", "content"},
			Properties: map[string]tools.Property{
				"path":    {Type: "string", Description: "The file path to modify"},
				"line":    {Type: "integer", Description: "1-based line number to insert at; 0 appends to the end"},
				"content": {Type: "string", Description: "The content to insert"},
			},
		},
	}
}

func executeInsertContent(pm *pathmap.Resolver, args map[string]any) (string, error) {
	path, err := stringArg(args, "path")
	if err != nil {
		return "", err
	}
	line, hasLine, err := optionalIntArg(args, "line")
	if err != nil {
		return "", err
	}
	if !hasLine {
		return "", fmt.Errorf("parameter %q is required", "line")
	}
	content, err := stringArg(args, "content")
	if err != nil {
		return "", err
	}

	real, err := pm.Resolve(path)
	if err != nil {
		return "", err
	}
	raw, err := os.ReadFile(real)
	if err != nil {
		return "", fmt.Errorf("file %q does not exist", path)
	}

	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	insert := strings.SplitAfter(content, "\n")
	if insert[len(insert)-1] == "" {
		insert = insert[:len(insert)-1]
	}

	lines := strings.SplitAfter(string(raw), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	var message string
	switch {
	case line == 0:
		lines = append(lines, insert...)
		message = fmt.Sprintf("Content appended to the end of %q.", path)
	case line >= 1 && line <= len(lines)+1:
		idx := line - 1
		lines = append(lines[:idx], append(insert, lines[idx:]...)...)
		message = fmt.Sprintf("Content inserted at line %d of %q.", line, path)
	default:
		return "", fmt.Errorf("line %d is outside the valid range for %q (1 to %d, or 0 for append)", line, path, len(lines)+1)
	}

	if err := os.WriteFile(real, []byte(strings.Join(lines, "")), 0644); err != nil {
		return "", fmt.Errorf("failed to write file %q: %w", path, err)
	}
	logging.Tools("insert_content: %s line=%d", path, line)
	return message, nil
}
