package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"domark/internal/session"
)

// execCmd executes the tool calls of a message.
var execCmd = &cobra.Command{
	Use:   "exec [document] [message-index]",
	Short: "Execute the tool calls of a message and append the results",
	Long: `Parses the selected message for tool call tags, executes every call,
and appends the combined tool output to the document as a new user message.
The message index defaults to -1, the last message. Inclusions are not
resolved, so the file on disk is extended in place.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runExec,
}

func runExec(cmd *cobra.Command, args []string) error {
	messageIndex := -1
	if len(args) == 2 {
		var err error
		messageIndex, err = strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("message index must be an integer, got %q", args[1])
		}
	}

	registry, err := buildRegistry()
	if err != nil {
		return err
	}
	exec := &session.Executor{Registry: registry, Paths: paths, Options: docOptions()}

	res, err := exec.ExecMessage(cmd.Context(), args[0], messageIndex)
	if err != nil {
		return err
	}
	if len(res.Commands) == 0 {
		fmt.Println("No tool calls in the selected message.")
		return nil
	}

	logger.Info("executed tool calls",
		zap.String("document", args[0]),
		zap.Int("commands", len(res.Commands)))

	fmt.Println(rule("tool calls"))
	for i, c := range res.Commands {
		status := "ok"
		if res.Results[i].Failed {
			status = errorStyle.Render("failed")
		}
		fmt.Printf("%3d  %s  %s\n", i, speakerStyle.Render(c.Name), status)
	}
	fmt.Println(rule("appended"))
	fmt.Println(res.Response)
	return nil
}

// toolsCmd lists the registered tools.
var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the registered tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := buildRegistry()
		if err != nil {
			return err
		}
		for _, name := range registry.Names() {
			tool := registry.Get(name)
			fmt.Printf("%s  %s\n", speakerStyle.Render(name), tool.Description)
		}
		return nil
	},
}

// pathsCmd shows the active virtual path map.
var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show the active virtual path mappings",
	RunE: func(cmd *cobra.Command, args []string) error {
		mappings := paths.Mappings()
		if len(mappings) == 0 {
			fmt.Println("No path mappings configured; no paths will resolve until one is added.")
			return nil
		}
		for _, m := range mappings {
			fmt.Printf("%s -> %s\n", speakerStyle.Render(m.Virtual), m.Real)
		}
		return nil
	},
}
