package toolcall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWellFormed(t *testing.T) {
	cmds, err := Parse("<t><a>1</a><b>2</b></t>")
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, "t", cmds[0].Name)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, cmds[0].Params)
}

func TestParseTruncatedCommand(t *testing.T) {
	cmds, err := Parse("<t><a>1")
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, "t", cmds[0].Name)
	assert.Equal(t, map[string]string{"a": "1"}, cmds[0].Params)
}

func TestParseStrayTextBeforeParamIsFatal(t *testing.T) {
	_, err := Parse("<t><a>x</a> garbage <b>y</b></t>")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedCall)
	assert.Contains(t, err.Error(), "garbage")
}

func TestParseTruncatedParamRunsToNextSibling(t *testing.T) {
	cmds, err := Parse("<tool2><paramA>incomplete<paramB>complete</paramB></tool2>")
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, map[string]string{
		"paramA": "incomplete",
		"paramB": "complete",
	}, cmds[0].Params)
}

func TestParseMultipleCommands(t *testing.T) {
	cmds, err := Parse("prefix <one><x>1</x></one> between <two><y>2</y></two> suffix")
	require.NoError(t, err)
	require.Len(t, cmds, 2)
	assert.Equal(t, "one", cmds[0].Name)
	assert.Equal(t, "two", cmds[1].Name)
	assert.Equal(t, "2", cmds[1].Params["y"])
}

func TestParseUnclosedCommandEndsAtNextTopLevelTag(t *testing.T) {
	cmds, err := Parse("<first><p>v<second><q>w</q></second>")
	require.NoError(t, err)
	require.Len(t, cmds, 2)
	assert.Equal(t, "first", cmds[0].Name)
	assert.Equal(t, map[string]string{"p": "v"}, cmds[0].Params)
	assert.Equal(t, "second", cmds[1].Name)
	assert.Equal(t, map[string]string{"q": "w"}, cmds[1].Params)
}

func TestParseExplicitlyClosedEmptyParam(t *testing.T) {
	cmds, err := Parse("<t><empty></empty></t>")
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	val, ok := cmds[0].Params["empty"]
	assert.True(t, ok)
	assert.Equal(t, "", val)
}

func TestParseNoParams(t *testing.T) {
	cmds, err := Parse("<ping></ping>")
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Empty(t, cmds[0].Params)
}

func TestParseWhitespaceInsideTags(t *testing.T) {
	cmds, err := Parse("< t ><a>1</ a ></ t >")
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, "t", cmds[0].Name)
	assert.Equal(t, "1", cmds[0].Params["a"])
}

func TestParseValuesAreTrimmed(t *testing.T) {
	cmds, err := Parse("<t><a>\n  padded value  \n</a></t>")
	require.NoError(t, err)
	assert.Equal(t, "padded value", cmds[0].Params["a"])
}

func TestParseNoCommands(t *testing.T) {
	cmds, err := Parse("just ordinary prose, 1 < 2 and 3 > 2")
	require.NoError(t, err)
	assert.Empty(t, cmds)
}
