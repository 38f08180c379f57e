package session

import (
	"context"
	"fmt"

	"domark/internal/config"
	"domark/internal/document"
	"domark/internal/logging"
	"domark/internal/pathmap"
	"domark/internal/tools/shell"
)

// shellLanguages are the code fence tags ExecCodeBlock will run.
var shellLanguages = map[string]bool{
	"sh":    true,
	"bash":  true,
	"shell": true,
	"zsh":   true,
}

// ExecCodeBlock runs a shell-language code block of a message through the
// configured shell and returns the command output.
func ExecCodeBlock(ctx context.Context, docPath string, messageIndex, blockIndex int, pm *pathmap.Resolver, execCfg config.ExecutionConfig, opts document.Options) (string, error) {
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

	if !shellLanguages[block.Language] {
		return "", fmt.Errorf("code block %d of message %d is %q, not a shell language", blockIndex, messageIndex, block.Language)
	}

	logging.Session("exec-block: running %s block %d of message %d from %s", block.Language, blockIndex, messageIndex, docPath)

	tool := shell.ExecuteCommandTool(pm, execCfg)
	return tool.Execute(ctx, map[string]any{"command": block.Code})
}
