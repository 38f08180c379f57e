package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domark/internal/pathmap"
	"domark/internal/toolcall"
)

func echoTool() *Tool {
	return &Tool{
		Name:        "echo",
		Description: "returns its text argument",
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			text, _ := args["text"].(string)
			return text, nil
		},
		Schema: ToolSchema{
			Required: []string{"text"},
			Properties: map[string]Property{
				"text": {Type: "string", Description: "text to echo"},
			},
		},
	}
}

func TestBuilderBuildsImmutableRegistry(t *testing.T) {
	reg, err := NewBuilder().Add(echoTool()).Build()
	require.NoError(t, err)

	assert.Equal(t, 1, reg.Count())
	assert.True(t, reg.Has("echo"))
	assert.Nil(t, reg.Get("missing"))
	assert.Equal(t, []string{"echo"}, reg.Names())
}

func TestBuilderRejectsDuplicates(t *testing.T) {
	_, err := NewBuilder().Add(echoTool()).Add(echoTool()).Build()
	assert.ErrorIs(t, err, ErrToolAlreadyRegistered)
}

func TestBuilderRejectsInvalidTools(t *testing.T) {
	_, err := NewBuilder().Add(&Tool{Name: ""}).Build()
	assert.ErrorIs(t, err, ErrToolNameEmpty)

	_, err = NewBuilder().Add(&Tool{Name: "noexec"}).Build()
	assert.ErrorIs(t, err, ErrToolExecuteNil)
}

func TestDispatchSuccess(t *testing.T) {
	reg := NewBuilder().Add(echoTool()).MustBuild()

	res := Dispatch(context.Background(), reg, toolcall.Command{
		Name:   "echo",
		Params: map[string]string{"text": "hello"},
	})
	assert.False(t, res.Failed)
	assert.Equal(t, "echo", res.Tool)
	assert.Equal(t, "hello", res.Result)
}

func TestDispatchUnknownToolNeverRaises(t *testing.T) {
	reg := NewBuilder().MustBuild()

	res := Dispatch(context.Background(), reg, toolcall.Command{Name: "nope"})
	assert.True(t, res.Failed)
	assert.Contains(t, res.Result, "tool not found")
	assert.Contains(t, res.Result, `"nope"`)
}

func TestDispatchMissingRequiredArg(t *testing.T) {
	reg := NewBuilder().Add(echoTool()).MustBuild()

	res := Dispatch(context.Background(), reg, toolcall.Command{
		Name:   "echo",
		Params: map[string]string{},
	})
	assert.True(t, res.Failed)
	assert.Contains(t, res.Result, "missing required argument")
	assert.Contains(t, res.Result, "Traceback:")
}

func TestDispatchBoolCoercion(t *testing.T) {
	var got map[string]any
	tool := &Tool{
		Name: "probe",
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			got = args
			return "ok", nil
		},
	}
	reg := NewBuilder().Add(tool).MustBuild()

	res := Dispatch(context.Background(), reg, toolcall.Command{
		Name: "probe",
		Params: map[string]string{
			"yes":   "true",
			"no":    "FALSE",
			"plain": "truthy",
		},
	})
	require.False(t, res.Failed)
	assert.Equal(t, true, got["yes"])
	assert.Equal(t, false, got["no"])
	assert.Equal(t, "truthy", got["plain"])
}

func TestDispatchIntegerCoercion(t *testing.T) {
	var got map[string]any
	tool := &Tool{
		Name: "ranged",
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			got = args
			return "ok", nil
		},
		Schema: ToolSchema{
			Properties: map[string]Property{
				"line": {Type: "integer"},
			},
		},
	}
	reg := NewBuilder().Add(tool).MustBuild()

	res := Dispatch(context.Background(), reg, toolcall.Command{
		Name:   "ranged",
		Params: map[string]string{"line": "42"},
	})
	require.False(t, res.Failed)
	assert.Equal(t, 42, got["line"])

	res = Dispatch(context.Background(), reg, toolcall.Command{
		Name:   "ranged",
		Params: map[string]string{"line": "not-a-number"},
	})
	assert.True(t, res.Failed)
	assert.Contains(t, res.Result, "invalid argument type")
	assert.Contains(t, res.Result, "Traceback:")
}

func TestDispatchDomainErrorHasNoTrace(t *testing.T) {
	tool := &Tool{
		Name: "failing",
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return "", errors.New("file does not exist")
		},
	}
	reg := NewBuilder().Add(tool).MustBuild()

	res := Dispatch(context.Background(), reg, toolcall.Command{Name: "failing"})
	assert.True(t, res.Failed)
	assert.Contains(t, res.Result, "file does not exist")
	assert.NotContains(t, res.Result, "Traceback:")
}

func TestDispatchRecoversPanics(t *testing.T) {
	tool := &Tool{
		Name: "bomb",
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			panic("boom")
		},
	}
	reg := NewBuilder().Add(tool).MustBuild()

	res := Dispatch(context.Background(), reg, toolcall.Command{Name: "bomb"})
	assert.True(t, res.Failed)
	assert.Contains(t, res.Result, "boom")
	assert.Contains(t, res.Result, "Traceback:")
}

func TestDispatchAllContinuesPastFailures(t *testing.T) {
	reg := NewBuilder().Add(echoTool()).MustBuild()

	results := DispatchAll(context.Background(), reg, []toolcall.Command{
		{Name: "missing"},
		{Name: "echo", Params: map[string]string{"text": "still ran"}},
	})
	require.Len(t, results, 2)
	assert.True(t, results[0].Failed)
	assert.False(t, results[1].Failed)
	assert.Equal(t, "still ran", results[1].Result)
}

func TestFormatResponseEnvelopeAndPathRewrite(t *testing.T) {
	pm := pathmap.New([]pathmap.Mapping{{Virtual: "/project", Real: "/home/me/work/project"}})

	res := CommandResult{Tool: "read_file", Result: "contents of /home/me/work/project/main.go"}
	out := FormatResponse(res, pm)

	assert.Contains(t, out, `<tool_output tool_name="read_file">`)
	assert.Contains(t, out, "contents of /project/main.go")
	assert.NotContains(t, out, "/home/me/work/project")
	assert.True(t, len(out) > 0 && out[len(out)-len("</tool_output>"):] == "</tool_output>")
}
