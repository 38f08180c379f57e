package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"domark/internal/document"
	"domark/internal/session"
)

var (
	ruleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	speakerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

func rule(label string) string {
	line := strings.Repeat("─", 8)
	return ruleStyle.Render(line + " " + label + " " + line)
}

// parseCmd parses a document and prints its structure.
var parseCmd = &cobra.Command{
	Use:   "parse [document]",
	Short: "Parse a session document and show its structure",
	Long: `Parses the document, resolving inclusions per configuration, and prints
the front matter, session config, message list, and any structural errors
the parser recovered from.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	doc, err := document.ParseFile(args[0], docOptions())
	if err != nil {
		return err
	}

	if len(doc.FrontMatter) > 0 {
		fmt.Println(rule("front matter"))
		out, _ := json.MarshalIndent(doc.FrontMatter, "", "  ")
		fmt.Println(string(out))
	}
	if len(doc.Config.Config) > 0 || doc.Config.SetupCode != nil {
		fmt.Println(rule("session config"))
		out, _ := json.MarshalIndent(doc.Config.Config, "", "  ")
		fmt.Println(string(out))
		if doc.Config.SetupCode != nil {
			fmt.Printf("setup code: %s (%d bytes)\n", doc.Config.SetupCode.Language, len(doc.Config.SetupCode.Code))
		}
	}

	fmt.Println(rule(fmt.Sprintf("%d messages", len(doc.Messages))))
	for i, msg := range doc.Messages {
		content := document.Unquote(msg.Content)
		preview := content
		if idx := strings.IndexByte(preview, '\n'); idx >= 0 {
			preview = preview[:idx]
		}
		if len(preview) > 70 {
			preview = preview[:70] + "..."
		}
		fmt.Printf("%3d  %s  %s\n", i, speakerStyle.Render(msg.Speaker), preview)
	}

	if len(doc.Errors) > 0 {
		fmt.Println(rule("parse errors"))
		for _, e := range doc.Errors {
			fmt.Println(errorStyle.Render("  " + e))
		}
	}
	return nil
}

// appendCmd appends a message to a document.
var appendCmd = &cobra.Command{
	Use:   "append [document] [speaker] [content]",
	Short: "Append a message to a session document",
	Args:  cobra.ExactArgs(3),
	RunE:  runAppend,
}

var appendMetadata string

func runAppend(cmd *cobra.Command, args []string) error {
	metadata := map[string]any{}
	if appendMetadata != "" {
		if err := json.Unmarshal([]byte(appendMetadata), &metadata); err != nil {
			return fmt.Errorf("invalid --metadata JSON: %w", err)
		}
	}
	msg := document.Message{Speaker: args[1], Content: args[2], Metadata: metadata}
	if err := document.AppendMessageToFile(args[0], msg); err != nil {
		return err
	}
	fmt.Printf("Appended %s message to %s\n", args[1], args[0])
	return nil
}

// extractCmd writes a message code block to a file.
var extractCmd = &cobra.Command{
	Use:   "extract [document] [message-index] [block-index]",
	Short: "Extract a code block of a message to a file",
	Long: `Writes the selected code block to a file. The target path is sniffed
from the block's first line (shebang or filename comment) unless --path
overrides it. Negative message indices count from the end.`,
	Args: cobra.ExactArgs(3),
	RunE: runExtract,
}

var (
	extractOutDir string
	extractPath   string
)

func runExtract(cmd *cobra.Command, args []string) error {
	msgIndex, blockIndex, err := parseIndexes(args[1], args[2])
	if err != nil {
		return err
	}
	full, err := session.ExtractCode(args[0], msgIndex, blockIndex, extractOutDir, extractPath, docOptions())
	if err != nil {
		return err
	}
	fmt.Printf("Extracted to %s\n", full)
	return nil
}

// execBlockCmd runs a shell code block of a message.
var execBlockCmd = &cobra.Command{
	Use:   "exec-block [document] [message-index] [block-index]",
	Short: "Run a shell code block of a message",
	Args:  cobra.ExactArgs(3),
	RunE:  runExecBlock,
}

func runExecBlock(cmd *cobra.Command, args []string) error {
	msgIndex, blockIndex, err := parseIndexes(args[1], args[2])
	if err != nil {
		return err
	}
	out, err := session.ExecCodeBlock(cmd.Context(), args[0], msgIndex, blockIndex, paths, cfg.Execution, docOptions())
	if err != nil {
		return err
	}
	fmt.Println(rule("output"))
	fmt.Println(out)
	return nil
}

func parseIndexes(msgArg, blockArg string) (int, int, error) {
	msgIndex, err := strconv.Atoi(msgArg)
	if err != nil {
		return 0, 0, fmt.Errorf("message index must be an integer, got %q", msgArg)
	}
	blockIndex, err := strconv.Atoi(blockArg)
	if err != nil {
		return 0, 0, fmt.Errorf("block index must be an integer, got %q", blockArg)
	}
	return msgIndex, blockIndex, nil
}

func init() {
	appendCmd.Flags().StringVar(&appendMetadata, "metadata", "", "Message metadata as a JSON object")
	extractCmd.Flags().StringVar(&extractOutDir, "out", ".", "Base directory for extracted files")
	extractCmd.Flags().StringVar(&extractPath, "path", "", "Target path, overriding filename sniffing")
}
