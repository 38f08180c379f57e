package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"domark/internal/config"
	"domark/internal/document"
	"domark/internal/logging"
	"domark/internal/pathmap"
	"domark/internal/tools"
	"domark/internal/tools/codedef"
	"domark/internal/tools/core"
	"domark/internal/tools/patch"
	"domark/internal/tools/shell"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string

	// Shared process state, built in PersistentPreRunE
	cfg    *config.Config
	paths  *pathmap.Resolver
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "domark",
	Short: "domark - document-driven LLM session tooling",
	Long: `domark treats a markdown document as a complete working session: the
conversation transcript, the session configuration, and the command channel
all live in one file.

Messages carry tool calls as XML-like tags; domark parses them, executes the
tools, and appends the results back to the document so the next turn sees
them.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		ws := workspace
		if ws == "" {
			ws, _ = os.Getwd()
		}
		if err := logging.Initialize(ws); err != nil {
			logger.Warn("category logging unavailable", zap.Error(err))
		}

		paths = pathmap.FromSpec(cfg.Paths.FSMap, cfg.Paths.TmpDir)
		logger.Debug("configuration loaded",
			zap.String("config", configPath),
			zap.Int("path_mappings", len(paths.Mappings())))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// buildRegistry wires every tool against the active path map and config.
func buildRegistry() (*tools.Registry, error) {
	b := tools.NewBuilder()
	core.RegisterAll(b, paths)
	b.Add(patch.ApplyDiffTool(paths, cfg.Patch.SearchWindow))
	b.Add(shell.ExecuteCommandTool(paths, cfg.Execution))
	b.Add(codedef.ListCodeDefinitionNamesTool(paths))
	b.Add(codedef.ViewCodeDefinitionTool(paths))
	return b.Build()
}

// docOptions maps the loaded configuration onto parser options.
func docOptions() document.Options {
	return document.Options{
		ConfigLang:        cfg.Document.ConfigBlockLang,
		MetadataLang:      cfg.Document.MetadataBlockLang,
		ResolveInclusions: cfg.Document.ResolveInclusions,
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "domark.yaml", "Configuration file")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(appendCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(execBlockCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(pathsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
