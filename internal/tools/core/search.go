package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"domark/internal/logging"
	"domark/internal/pathmap"
	"domark/internal/tools"
)

// SearchAndReplaceTool finds and replaces text in a file, literally or by
// regular expression, optionally restricted to a line range. The result
// carries a small diff preview of every changed line.
func SearchAndReplaceTool(pm *pathmap.Resolver) *tools.Tool {
	return &tools.Tool{
		Name:        "search_and_replace",
		Description: "Find and replace text or a regex pattern in a file",
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return executeSearchAndReplace(pm, args)
		},
		Schema: tools.ToolSchema{
			Required: []string{"path", "search", "replace"},
			Properties: map[string]tools.Property{
				"path":        {Type: "string", Description: "The file path to modify"},
				"search":      {Type: "string", Description: "Text or pattern to search for"},
				"replace":     {Type: "string", Description: "Replacement text"},
				"start_line":  {Type: "integer", Description: "First line of the search range (1-based, optional)"},
				"end_line":    {Type: "integer", Description: "Last line of the search range (inclusive, optional)"},
				"use_regex":   {Type: "boolean", Description: "Treat search as a regular expression", Default: false},
				"ignore_case": {Type: "boolean", Description: "Case-insensitive matching", Default: false},
			},
		},
	}
}

func executeSearchAndReplace(pm *pathmap.Resolver, args map[string]any) (string, error) {
	path, err := stringArg(args, "path")
	if err != nil {
		return "", err
	}
	search, err := stringArg(args, "search")
	if err != nil {
		return "", err
	}
	replace, err := stringArg(args, "replace")
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
	useRegex, err := boolArg(args, "use_regex", false)
	if err != nil {
		return "", err
	}
	ignoreCase, err := boolArg(args, "ignore_case", false)
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

	expr := search
	if !useRegex {
		expr = regexp.QuoteMeta(search)
	}
	if ignoreCase {
		expr = "(?i)" + expr
	}
	pattern, err := regexp.Compile(expr)
	if err != nil {
		return "", fmt.Errorf("invalid regular expression %q: %w", search, err)
	}

	lines := strings.SplitAfter(string(raw), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

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

	if startIdx >= endIdx && (hasStart || hasEnd) {
		if len(lines) == 0 {
			return fmt.Sprintf("File %q is empty, nothing to replace.", path), nil
		}
		return "", fmt.Errorf("line range %d..%d is empty or invalid: file has %d lines", startLine, endLine, len(lines))
	}

	changes := 0
	var preview []string
	for i := startIdx; i < endIdx; i++ {
		replaced := pattern.ReplaceAllString(lines[i], replace)
		if replaced != lines[i] {
			changes += len(pattern.FindAllString(lines[i], -1))
			preview = append(preview, fmt.Sprintf("-%d | %s", i+1, strings.TrimRight(lines[i], "\n")))
			preview = append(preview, fmt.Sprintf("+%d | %s", i+1, strings.TrimRight(replaced, "\n")))
			lines[i] = replaced
		}
	}

	if changes == 0 {
		return fmt.Sprintf("No matches for %q in %q, nothing replaced.", search, path), nil
	}

	if err := os.WriteFile(real, []byte(strings.Join(lines, "")), 0644); err != nil {
		return "", fmt.Errorf("failed to write file %q: %w", path, err)
	}

	logging.Tools("search_and_replace: %s (%d replacements)", path, changes)
	sep := strings.Repeat("=", 20)
	return fmt.Sprintf("Completed %d replacement(s) in %q.\nPreview:\n%s\n%s\n%s",
		changes, path, sep, strings.Join(preview, "\n"), sep), nil
}

// ListFilesTool lists a directory as an indented tree.
func ListFilesTool(pm *pathmap.Resolver) *tools.Tool {
	return &tools.Tool{
		Name:        "list_files",
		Description: "List files and directories under a path",
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return executeListFiles(pm, args)
		},
		Schema: tools.ToolSchema{
			Required: []string{"path"},
			Properties: map[string]tools.Property{
				"path":      {Type: "string", Description: "The directory to list"},
				"recursive": {Type: "boolean", Description: "Descend into subdirectories", Default: false},
			},
		},
	}
}

func executeListFiles(pm *pathmap.Resolver, args map[string]any) (string, error) {
	path, err := stringArg(args, "path")
	if err != nil {
		return "", err
	}
	recursive, err := boolArg(args, "recursive", false)
	if err != nil {
		return "", err
	}

	real, err := pm.Resolve(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(real)
	if err != nil {
		return "", fmt.Errorf("path %q does not exist", path)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path %q is not a directory", path)
	}

	out := []string{fmt.Sprintf("Contents of %q:", path)}

	if !recursive {
		entries, err := os.ReadDir(real)
		if err != nil {
			return "", fmt.Errorf("failed to read directory %q: %w", path, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				out = append(out, e.Name()+"/")
			} else {
				out = append(out, e.Name())
			}
		}
		return strings.Join(out, "\n"), nil
	}

	err = filepath.WalkDir(real, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(real, p)
		if relErr != nil || rel == "." {
			return nil
		}
		depth := strings.Count(rel, string(filepath.Separator))
		indent := strings.Repeat("    ", depth)
		if d.IsDir() {
			out = append(out, fmt.Sprintf("%s├── %s/", indent, d.Name()))
		} else {
			out = append(out, fmt.Sprintf("%s├── %s", indent, d.Name()))
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to walk directory %q: %w", path, err)
	}
	return strings.Join(out, "\n"), nil
}

// SearchFilesTool runs a regex over every file under a directory and returns
// matches with two lines of context either side.
func SearchFilesTool(pm *pathmap.Resolver) *tools.Tool {
	return &tools.Tool{
		Name:        "search_files",
		Description: "Regex search across files in a directory, with context lines",
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return executeSearchFiles(pm, args)
		},
		Schema: tools.ToolSchema{
			Required: []string{"path", "regex"},
			Properties: map[string]tools.Property{
				"path":         {Type: "string", Description: "The directory to search"},
				"regex":        {Type: "string", Description: "Regular expression to match against each line"},
				"file_pattern": {Type: "string", Description: "Filename glob filter, e.g. *.go (optional)"},
			},
		},
	}
}

func executeSearchFiles(pm *pathmap.Resolver, args map[string]any) (string, error) {
	path, err := stringArg(args, "path")
	if err != nil {
		return "", err
	}
	expr, err := stringArg(args, "regex")
	if err != nil {
		return "", err
	}
	filePattern, _ := args["file_pattern"].(string)

	real, err := pm.Resolve(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(real)
	if err != nil {
		return "", fmt.Errorf("path %q does not exist", path)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path %q is not a directory", path)
	}

	pattern, err := regexp.Compile(expr)
	if err != nil {
		return "", fmt.Errorf("invalid regular expression %q: %w", expr, err)
	}

	var files []string
	_ = filepath.WalkDir(real, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if filePattern != "" {
			if ok, _ := filepath.Match(filePattern, d.Name()); !ok {
				return nil
			}
		}
		files = append(files, p)
		return nil
	})
	sort.Strings(files)

	var results []string
	for _, file := range files {
		raw, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		lines := strings.Split(strings.TrimSuffix(string(raw), "\n"), "\n")

		display := file
		if v, ok := pm.Virtualize(file); ok {
			display = v
		}

		fileHasMatch := false
		for i, line := range lines {
			if !pattern.MatchString(line) {
				continue
			}
			if !fileHasMatch {
				results = append(results, fmt.Sprintf("File: %s", display))
				fileHasMatch = true
			}
			for j := max(0, i-2); j < min(len(lines), i+3); j++ {
				prefix := "    "
				if j == i {
					prefix = "--> "
				}
				results = append(results, fmt.Sprintf("%s%d | %s", prefix, j+1, lines[j]))
			}
			results = append(results, "")
		}
	}

	if len(results) == 0 {
		return fmt.Sprintf("No matches for %q under %q.", expr, path), nil
	}
	logging.Tools("search_files: %s pattern=%s (%d result lines)", path, expr, len(results))
	return strings.Join(results, "\n"), nil
}
