package codedef

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"domark/internal/pathmap"
	"domark/internal/tools"
)

// ListCodeDefinitionNamesTool lists the named definitions of a source file,
// or of every supported source file directly under a directory.
func ListCodeDefinitionNamesTool(pm *pathmap.Resolver) *tools.Tool {
	return &tools.Tool{
		Name:        "list_code_definition_names",
		Description: "List function, method, type and class definitions in source files",
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return executeListDefinitions(ctx, pm, args)
		},
		Schema: tools.ToolSchema{
			Required: []string{"path"},
			Properties: map[string]tools.Property{
				"path": {Type: "string", Description: "A source file or a directory of source files"},
			},
		},
	}
}

func executeListDefinitions(ctx context.Context, pm *pathmap.Resolver, args map[string]any) (string, error) {
	path, ok := args["path"].(string)
	if !ok {
		return "", fmt.Errorf("parameter %q must be a string", "path")
	}
	real, err := pm.Resolve(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(real)
	if err != nil {
		return "", fmt.Errorf("path %q does not exist", path)
	}

	var files []string
	if info.IsDir() {
		entries, err := os.ReadDir(real)
		if err != nil {
			return "", fmt.Errorf("failed to read directory %q: %w", path, err)
		}
		for _, e := range entries {
			if !e.IsDir() && SupportedFile(e.Name()) {
				files = append(files, filepath.Join(real, e.Name()))
			}
		}
		sort.Strings(files)
		if len(files) == 0 {
			return fmt.Sprintf("No supported source files found under %q.", path), nil
		}
	} else {
		if !SupportedFile(real) {
			return "", fmt.Errorf("unsupported file type %q", filepath.Ext(real))
		}
		files = []string{real}
	}

	var sections []string
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		defs, err := Extract(ctx, file, content)
		if err != nil || len(defs) == 0 {
			continue
		}
		display := file
		if v, ok := pm.Virtualize(file); ok {
			display = v
		}
		sections = append(sections, fmt.Sprintf("%s:\n%s", display, FormatDefinitions(defs)))
	}
	if len(sections) == 0 {
		return fmt.Sprintf("No definitions found under %q.", path), nil
	}
	return strings.Join(sections, "\n\n"), nil
}

// ViewCodeDefinitionTool shows the full source of one named definition.
func ViewCodeDefinitionTool(pm *pathmap.Resolver) *tools.Tool {
	return &tools.Tool{
		Name:        "view_code_definition",
		Description: "Show the source of a named definition in a file",
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return executeViewDefinition(ctx, pm, args)
		},
		Schema: tools.ToolSchema{
			Required: []string{"path", "name"},
			Properties: map[string]tools.Property{
				"path": {Type: "string", Description: "The source file"},
				"name": {Type: "string", Description: "The definition name to show"},
			},
		},
	}
}

func executeViewDefinition(ctx context.Context, pm *pathmap.Resolver, args map[string]any) (string, error) {
	path, ok := args["path"].(string)
	if !ok {
		return "", fmt.Errorf("parameter %q must be a string", "path")
	}
	name, ok := args["name"].(string)
	if !ok {
		return "", fmt.Errorf("parameter %q must be a string", "name")
	}

	real, err := pm.Resolve(path)
	if err != nil {
		return "", err
	}
	content, err := os.ReadFile(real)
	if err != nil {
		return "", fmt.Errorf("file %q does not exist", path)
	}

	defs, err := Extract(ctx, real, content)
	if err != nil {
		return "", err
	}

	lines := strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
	var matches []string
	for _, d := range defs {
		if d.Name != name {
			continue
		}
		var b strings.Builder
		for i := d.StartLine; i <= d.EndLine && i <= len(lines); i++ {
			fmt.Fprintf(&b, "%d | %s\n", i, lines[i-1])
		}
		matches = append(matches, strings.TrimRight(b.String(), "\n"))
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no definition named %q in %q", name, path)
	}
	return strings.Join(matches, "\n\n"), nil
}
