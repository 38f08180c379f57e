package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `---
title: session one
tags: [a, b]
---

` + "```json session-config" + `
{"model": "test-model", "temperature": 0.2}
` + "```" + `

` + "```python" + `
client = make_client()
` + "```" + `

## system

> You are a helpful assistant.

## user

` + "```json msg-metadata" + `
{"source": "user", "type": "UserMessage"}
` + "```" + `

> Hello there.
> Second line.

## assistant

> Hi!
`

func TestParseFullDocument(t *testing.T) {
	doc := Parse(sampleDoc, Options{})

	require.Empty(t, doc.Errors)

	assert.Equal(t, "session one", doc.FrontMatter["title"])

	require.NotNil(t, doc.Config.Config)
	assert.Equal(t, "test-model", doc.Config.Config["model"])
	require.NotNil(t, doc.Config.SetupCode)
	assert.Equal(t, "python", doc.Config.SetupCode.Language)
	assert.Equal(t, "client = make_client()", doc.Config.SetupCode.Code)

	require.Len(t, doc.Messages, 3)
	assert.Equal(t, "system", doc.Messages[0].Speaker)
	assert.Equal(t, "> You are a helpful assistant.", doc.Messages[0].Content)

	assert.Equal(t, "user", doc.Messages[1].Speaker)
	assert.Equal(t, "UserMessage", doc.Messages[1].Metadata["type"])
	assert.Equal(t, "> Hello there.\n> Second line.", doc.Messages[1].Content)

	assert.Equal(t, "assistant", doc.Messages[2].Speaker)
	assert.Nil(t, doc.Messages[2].Metadata)
}

func TestParseMessageOrderMatchesHeadings(t *testing.T) {
	var b strings.Builder
	speakers := []string{"one", "two", "three", "four"}
	for _, s := range speakers {
		b.WriteString("## " + s + "\n\n> hi from " + s + "\n\n")
	}

	doc := Parse(b.String(), Options{})
	require.Len(t, doc.Messages, len(speakers))
	for i, s := range speakers {
		assert.Equal(t, s, doc.Messages[i].Speaker)
	}
}

func TestParseBadConfigJSONIsRecoverable(t *testing.T) {
	text := "```json session-config\n{not json}\n```\n\n## user\n\n> hi\n"
	doc := Parse(text, Options{})

	require.Len(t, doc.Errors, 1)
	assert.Contains(t, doc.Errors[0], "session-config")
	require.Len(t, doc.Messages, 1)
	assert.Equal(t, "> hi", doc.Messages[0].Content)
}

func TestParseBadMetadataJSONIsRecoverable(t *testing.T) {
	text := "## user\n\n```json msg-metadata\n{broken\n```\n\n> hi\n"
	doc := Parse(text, Options{})

	require.Len(t, doc.Errors, 1)
	assert.Contains(t, doc.Errors[0], "msg-metadata")
	require.Len(t, doc.Messages, 1)
	assert.Nil(t, doc.Messages[0].Metadata)
	assert.Equal(t, "> hi", doc.Messages[0].Content)
}

func TestParseMissingMessageBody(t *testing.T) {
	text := "## user\n\nplain text, not a quote\n"
	doc := Parse(text, Options{})

	require.Len(t, doc.Messages, 1)
	assert.Equal(t, "", doc.Messages[0].Content)
	require.Len(t, doc.Errors, 1)
	assert.Contains(t, doc.Errors[0], "block_quote")
}

func TestParseConfigScanningStopsAtFirstHeading(t *testing.T) {
	// A session-config fence after the first H2 is just message territory.
	text := "## user\n\n> hi\n\n```json session-config\n{\"model\": \"x\"}\n```\n"
	doc := Parse(text, Options{})

	assert.Nil(t, doc.Config.Config)
	require.Len(t, doc.Messages, 1)
}

func TestParseFrontMatterErrors(t *testing.T) {
	t.Run("unterminated", func(t *testing.T) {
		doc := Parse("---\ntitle: x\n", Options{})
		require.Len(t, doc.Errors, 1)
		assert.Contains(t, doc.Errors[0], "front matter")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		doc := Parse("---\n\t: bad\n---\n\n## u\n\n> hi\n", Options{})
		require.NotEmpty(t, doc.Errors)
		assert.Contains(t, doc.Errors[0], "front matter")
		// Body parsing still ran.
		require.Len(t, doc.Messages, 1)
	})
}

func TestParseRawLinesKeepEndings(t *testing.T) {
	text := "## user\n\n> hi\n"
	doc := Parse(text, Options{})

	require.Len(t, doc.RawLines, 3)
	assert.Equal(t, "## user\n", doc.RawLines[0])
	assert.Equal(t, "> hi\n", doc.RawLines[2])
}

func TestParseCustomFenceTags(t *testing.T) {
	text := "```json cfg\n{\"a\": 1}\n```\n\n## u\n\n```json meta\n{\"b\": 2}\n```\n\n> hi\n"
	doc := Parse(text, Options{ConfigLang: "cfg", MetadataLang: "meta"})

	require.Empty(t, doc.Errors)
	assert.Equal(t, float64(1), doc.Config.Config["a"])
	require.Len(t, doc.Messages, 1)
	assert.Equal(t, float64(2), doc.Messages[0].Metadata["b"])
}

func TestMessageCodeBlock(t *testing.T) {
	text := "## assistant\n\n" +
		"> Some prose.\n" +
		"> ```go\n" +
		"> package main\n" +
		"> ```\n" +
		"> More prose.\n" +
		"> ```sh\n" +
		"> echo hi\n" +
		"> ```\n"
	doc := Parse(text, Options{})
	require.Len(t, doc.Messages, 1)

	msg, cb, err := doc.MessageCodeBlock(0, 0)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "go", cb.Language)
	assert.Equal(t, "package main", cb.Code)

	_, cb, err = doc.MessageCodeBlock(0, 1)
	require.NoError(t, err)
	assert.Equal(t, "sh", cb.Language)
	assert.Equal(t, "echo hi", cb.Code)

	msg, cb, err = doc.MessageCodeBlock(0, 5)
	assert.ErrorIs(t, err, ErrCodeBlockNotFound)
	assert.NotNil(t, msg)
	assert.Nil(t, cb)

	_, _, err = doc.MessageCodeBlock(7, 0)
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "> hi", "hi"},
		{"multi", "> a\n> b", "a\nb"},
		{"bare marker", ">", ""},
		{"no marker passes through", "plain", "plain"},
		{"one level only", "> > nested", "> nested"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Unquote(tt.in))
		})
	}
}
