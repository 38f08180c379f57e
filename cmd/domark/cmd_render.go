package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"domark/internal/document"
)

// renderCmd renders a document to the terminal.
var renderCmd = &cobra.Command{
	Use:   "render [document]",
	Short: "Render a session document as styled markdown",
	Long: `Resolves inclusions per configuration and renders the resulting
markdown to the terminal.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func runRender(cmd *cobra.Command, args []string) error {
	return renderDocument(args[0])
}

func renderDocument(path string) error {
	doc, err := document.ParseFile(path, docOptions())
	if err != nil {
		return err
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	resolved := ""
	for _, line := range doc.RawLines {
		resolved += line
	}
	out, err := renderer.Render(resolved)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	fmt.Print(out)

	if len(doc.Errors) > 0 {
		fmt.Println(rule("parse errors"))
		for _, e := range doc.Errors {
			fmt.Println(errorStyle.Render("  " + e))
		}
	}
	return nil
}

// watchCmd re-renders a document whenever it changes on disk.
var watchCmd = &cobra.Command{
	Use:   "watch [document]",
	Short: "Watch a document and re-render on every change",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("document %q does not exist", args[0])
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file on save, which
	// drops a watch registered on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	if err := renderDocument(path); err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
	}

	// Debounce bursts of write events from a single save.
	var pending <-chan time.Time
	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(150 * time.Millisecond)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		case <-pending:
			pending = nil
			fmt.Print("\033[H\033[2J")
			if err := renderDocument(path); err != nil {
				fmt.Println(errorStyle.Render(err.Error()))
			}
		}
	}
}
