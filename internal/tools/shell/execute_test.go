package shell

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domark/internal/config"
	"domark/internal/pathmap"
)

func testConfig() config.ExecutionConfig {
	return config.ExecutionConfig{Shell: "sh", Timeout: "10s", MaxOutputBytes: 50000}
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestExecuteCommandStdout(t *testing.T) {
	skipOnWindows(t)
	pm := pathmap.New(nil)
	tool := ExecuteCommandTool(pm, testConfig())

	out, err := tool.Execute(context.Background(), map[string]any{
		"command": "echo hello",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "--- stdout ---")
	assert.Contains(t, out, "hello")
}

func TestExecuteCommandStderrSection(t *testing.T) {
	skipOnWindows(t)
	pm := pathmap.New(nil)
	tool := ExecuteCommandTool(pm, testConfig())

	out, err := tool.Execute(context.Background(), map[string]any{
		"command": "echo out; echo err 1>&2",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "--- stdout ---")
	assert.Contains(t, out, "--- stderr ---")
	assert.Contains(t, out, "err")
}

func TestExecuteCommandNonZeroExit(t *testing.T) {
	skipOnWindows(t)
	pm := pathmap.New(nil)
	tool := ExecuteCommandTool(pm, testConfig())

	_, err := tool.Execute(context.Background(), map[string]any{
		"command": "echo doomed; exit 3",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command failed")
	assert.Contains(t, err.Error(), "doomed")
}

func TestExecuteCommandTimeout(t *testing.T) {
	skipOnWindows(t)
	pm := pathmap.New(nil)
	tool := ExecuteCommandTool(pm, testConfig())

	_, err := tool.Execute(context.Background(), map[string]any{
		"command":         "sleep 5",
		"timeout_seconds": 1,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestExecuteCommandCwdResolvedThroughPathMap(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	pm := pathmap.New([]pathmap.Mapping{{Virtual: "/ws", Real: dir}})
	tool := ExecuteCommandTool(pm, testConfig())

	out, err := tool.Execute(context.Background(), map[string]any{
		"command": "pwd",
		"cwd":     "/ws",
	})
	require.NoError(t, err)
	assert.Contains(t, out, dir)
}

func TestExecuteCommandRequiresCommand(t *testing.T) {
	pm := pathmap.New(nil)
	tool := ExecuteCommandTool(pm, testConfig())

	_, err := tool.Execute(context.Background(), map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"command" is required`)
}

func TestFormatOutputTruncation(t *testing.T) {
	long := make([]byte, 100)
	for i := range long {
		long[i] = 'x'
	}
	out := formatOutput(string(long), "", 20)
	assert.Contains(t, out, "...[truncated]")
	assert.Less(t, len(out), 60)
}

func TestFormatOutputEmpty(t *testing.T) {
	assert.Equal(t, "(no output)", formatOutput("", "", 1000))
}
