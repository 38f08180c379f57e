package core

import (
	"domark/internal/pathmap"
	"domark/internal/tools"
)

// RegisterAll adds every core tool to the builder.
func RegisterAll(b *tools.Builder, pm *pathmap.Resolver) *tools.Builder {
	return b.
		Add(ReadFileTool(pm)).
		Add(WriteToFileTool(pm)).
		Add(InsertContentTool(pm)).
		Add(SearchAndReplaceTool(pm)).
		Add(ListFilesTool(pm)).
		Add(SearchFilesTool(pm)).
		Add(AskFollowupQuestionTool()).
		Add(AttemptCompletionTool())
}
