// Package cli implements the command-line interface.
package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/divehq/dive/internal/config"
	"github.com/divehq/dive/internal/logging"
	"github.com/divehq/dive/internal/ui"
	"github.com/divehq/dive/internal/workspace"
)

var (
	// Global flags
	configPath   string
	logLevelFlag string

	// Resolved values
	resolvedConfigPath string
	cfg                *config.Config
	logLevel           = new(slog.LevelVar)
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dive",
	Short: "dive - one workspace over your files and notes",
	Long: `dive federates the files in a storage directory and the notes in its
metadata database behind one set of object IDs ("provider:id").

Search across both, tag and relate anything, and serve the workspace over
HTTP for the web UI.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(logLevelFlag); err != nil {
			return err
		}

		// Skip config loading for commands that don't need it
		switch cmd.Name() {
		case "completion", "help", "version":
			return nil
		}
		if cmd.Parent() != nil && (cmd.Parent().Name() == "completion" || cmd.Parent().Name() == "config") {
			return nil
		}

		var err error
		cfg, resolvedConfigPath, err = loadGlobalConfigWithPath()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if logLevelFlag == "" {
			if err := setupLogging(cfg.LogLevel); err != nil {
				return err
			}
		}
		ui.ConfigureTheme(cfg.UI.Accent)
		ui.ConfigureMarkdownCodeTheme(cfg.UI.CodeTheme)
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error (overrides log_level in config)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
}

func setupLogging(level string) error {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return err
	}
	logLevel.Set(lvl)
	logging.Setup(logLevel)
	return nil
}

// getConfig returns the loaded config.
func getConfig() *config.Config {
	if cfg == nil {
		return config.Default()
	}
	return cfg
}

// getConfigPath returns the resolved global config path.
func getConfigPath() string {
	if resolvedConfigPath == "" {
		return resolveConfigPath()
	}
	return resolvedConfigPath
}

func resolveConfigPath() string {
	if p := strings.TrimSpace(configPath); p != "" {
		return p
	}
	return config.DefaultPath()
}

func loadGlobalConfigWithPath() (*config.Config, string, error) {
	path := resolveConfigPath()

	var loadedCfg *config.Config
	var err error
	if strings.TrimSpace(configPath) != "" {
		loadedCfg, err = config.LoadFrom(path)
	} else {
		loadedCfg, err = config.Load(path)
	}
	if err != nil {
		return nil, "", err
	}
	return loadedCfg, path, nil
}

// openWorkspace opens the workspace described by the loaded config. Callers
// close it.
func openWorkspace() (*workspace.Workspace, error) {
	ws, err := workspace.Open(workspace.OptionsFromConfig(getConfig()))
	if err != nil {
		return nil, err
	}
	return ws, nil
}
