package core

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"domark/internal/tools"
)

// AskFollowupQuestionTool formats a clarifying question with suggested
// answers. It never touches disk; the rendered block goes back into the
// conversation for the user to answer.
func AskFollowupQuestionTool() *tools.Tool {
	return &tools.Tool{
		Name:        "ask_followup_question",
		Description: "Ask the user a clarifying question with suggested answers",
		Execute:     executeAskFollowup,
		Schema: tools.ToolSchema{
			Required: []string{"question", "follow_up"},
			Properties: map[string]tools.Property{
				"question":  {Type: "string", Description: "The question to ask"},
				"follow_up": {Type: "string", Description: "Suggested answers, one <suggest> tag per suggestion"},
			},
		},
	}
}

var suggestRe = regexp.MustCompile(`(?s)<\s*suggest\s*>(.*?)</\s*suggest\s*>`)

func executeAskFollowup(ctx context.Context, args map[string]any) (string, error) {
	question, err := stringArg(args, "question")
	if err != nil {
		return "", err
	}
	followUp, err := stringArg(args, "follow_up")
	if err != nil {
		return "", err
	}

	var suggestions []string
	for _, m := range suggestRe.FindAllStringSubmatch(followUp, -1) {
		s := strings.TrimSpace(m[1])
		if s != "" {
			suggestions = append(suggestions, s)
		}
	}
	if len(suggestions) < 2 || len(suggestions) > 4 {
		return "", fmt.Errorf("follow_up must provide 2 to 4 <suggest> answers, got %d", len(suggestions))
	}

	var b strings.Builder
	b.WriteString("<ask_followup_question>\n")
	b.WriteString(question)
	b.WriteString("\n\nSuggested answers:\n")
	for i, s := range suggestions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	b.WriteString("</ask_followup_question>")
	return b.String(), nil
}

// AttemptCompletionTool presents a final result for the task, optionally with
// a command the user can run to inspect it.
func AttemptCompletionTool() *tools.Tool {
	return &tools.Tool{
		Name:        "attempt_completion",
		Description: "Present the final result of the task",
		Execute:     executeAttemptCompletion,
		Schema: tools.ToolSchema{
			Required: []string{"result"},
			Properties: map[string]tools.Property{
				"result":  {Type: "string", Description: "The final result description"},
				"command": {Type: "string", Description: "A command to demonstrate the result (optional)"},
			},
		},
	}
}

func executeAttemptCompletion(ctx context.Context, args map[string]any) (string, error) {
	result, err := stringArg(args, "result")
	if err != nil {
		return "", err
	}
	result = strings.TrimSpace(result)
	if result == "" {
		return "", fmt.Errorf("parameter %q must not be empty", "result")
	}

	var b strings.Builder
	b.WriteString("<attempt_completion>\n")
	b.WriteString(result)
	if command, ok := args["command"].(string); ok && strings.TrimSpace(command) != "" {
		fmt.Fprintf(&b, "\n\n<command>%s</command>", strings.TrimSpace(command))
	}
	b.WriteString("\n</attempt_completion>")
	return b.String(), nil
}
