package patch

import (
	"context"
	"fmt"
	"os"
	"strings"

	"domark/internal/logging"
	"domark/internal/pathmap"
	"domark/internal/tools"
)

// ApplyDiffTool edits a file with one or more search/replace blocks. The file
// is rewritten only if every block applies; a single mismatch leaves it
// untouched.
func ApplyDiffTool(pm *pathmap.Resolver, window int) *tools.Tool {
	return &tools.Tool{
		Name:        "apply_diff",
		Description: "Apply search/replace edit blocks to a file",
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return executeApplyDiff(pm, window, args)
		},
		Schema: tools.ToolSchema{
			Required: []string{"path", "diff"},
			Properties: map[string]tools.Property{
				"path": {Type: "string", Description: "The file path to edit"},
				"diff": {Type: "string", Description: "One or more SEARCH/REPLACE blocks"},
			},
		},
	}
}

func executeApplyDiff(pm *pathmap.Resolver, window int, args map[string]any) (string, error) {
	path, ok := args["path"].(string)
	if !ok {
		return "", fmt.Errorf("parameter %q must be a string", "path")
	}
	diff, ok := args["diff"].(string)
	if !ok {
		return "", fmt.Errorf("parameter %q must be a string", "diff")
	}

	blocks, err := ParseDiff(diff)
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

	content := string(raw)
	hadTrailingNewline := strings.HasSuffix(content, "\n")
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")

	patched, err := Apply(lines, blocks, window)
	if err != nil {
		return "", fmt.Errorf("applying diff to %q: %w", path, err)
	}

	out := strings.Join(patched, "\n")
	if hadTrailingNewline && out != "" {
		out += "\n"
	}
	if err := os.WriteFile(real, []byte(out), 0644); err != nil {
		return "", fmt.Errorf("failed to write file %q: %w", path, err)
	}

	logging.Patch("apply_diff: %s (%d blocks)", path, len(blocks))
	return fmt.Sprintf("Applied %d edit block(s) to %q.", len(blocks), path), nil
}
