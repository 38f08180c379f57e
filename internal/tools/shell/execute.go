// Package shell provides the execute_command tool. Commands run through the
// configured shell with a timeout; the working directory is given as a
// virtual path and resolved before the process starts.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"domark/internal/config"
	"domark/internal/logging"
	"domark/internal/pathmap"
	"domark/internal/tools"
)

// ExecuteCommandTool runs a shell command and returns its combined output.
func ExecuteCommandTool(pm *pathmap.Resolver, cfg config.ExecutionConfig) *tools.Tool {
	return &tools.Tool{
		Name:        "execute_command",
		Description: "Execute a shell command and return its output",
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return executeCommand(ctx, pm, cfg, args)
		},
		Schema: tools.ToolSchema{
			Required: []string{"command"},
			Properties: map[string]tools.Property{
				"command":         {Type: "string", Description: "The command to execute"},
				"cwd":             {Type: "string", Description: "Working directory for the command (optional)"},
				"timeout_seconds": {Type: "integer", Description: "Timeout in seconds (optional)"},
			},
		},
	}
}

func executeCommand(ctx context.Context, pm *pathmap.Resolver, cfg config.ExecutionConfig, args map[string]any) (string, error) {
	command, ok := args["command"].(string)
	if !ok || strings.TrimSpace(command) == "" {
		return "", fmt.Errorf("parameter %q is required", "command")
	}

	workDir := ""
	if cwd, ok := args["cwd"].(string); ok && cwd != "" {
		real, err := pm.Resolve(cwd)
		if err != nil {
			return "", err
		}
		workDir = real
	}

	timeout := defaultTimeout(cfg)
	if secs, ok := args["timeout_seconds"].(int); ok && secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}

	shellName := cfg.Shell
	if shellName == "" {
		shellName = "sh"
	}

	logging.ToolsDebug("execute_command: shell=%s timeout=%s cwd=%s", shellName, timeout, workDir)

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, shellName, "-c", command)
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	output := formatOutput(stdout.String(), stderr.String(), cfg.MaxOutputBytes)

	if execCtx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("command timed out after %s\n%s", timeout, output)
	}
	if runErr != nil {
		logging.ToolsError("execute_command failed: %s (%v)", command, runErr)
		return "", fmt.Errorf("command failed: %v\n%s", runErr, output)
	}

	logging.Tools("execute_command completed: %s (%d bytes output)", command, len(output))
	return output, nil
}

func defaultTimeout(cfg config.ExecutionConfig) time.Duration {
	d, err := time.ParseDuration(cfg.Timeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// formatOutput labels the two streams and truncates the whole thing at the
// configured byte limit.
func formatOutput(stdout, stderr string, maxBytes int) string {
	var b strings.Builder
	if stdout != "" {
		b.WriteString("--- stdout ---\n")
		b.WriteString(stdout)
	}
	if stderr != "" {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteString("\n")
		}
		b.WriteString("--- stderr ---\n")
		b.WriteString(stderr)
	}
	out := b.String()
	if out == "" {
		return "(no output)"
	}
	if maxBytes > 0 && len(out) > maxBytes {
		out = out[:maxBytes] + "\n...[truncated]"
	}
	return out
}
