package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/divehq/dive/internal/config"
	"github.com/divehq/dive/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the configuration file",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := getConfigPath()
		_, err := os.Stat(path)
		exists := err == nil

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"config_path": path,
				"exists":      exists,
			}, nil)
			return nil
		}
		fmt.Println(path)
		if !exists {
			fmt.Println(ui.Hint("(not created yet; run 'dive config init')"))
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := getConfigPath()
		created, err := config.CreateDefault(path)
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"config_path": path,
				"created":     created,
			}, nil)
			return nil
		}
		if created {
			fmt.Println(ui.Success("Created " + path))
		} else {
			fmt.Println(ui.Info(path + " already exists"))
		}
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		loaded, path, err := loadGlobalConfigWithPath()
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"config_path": path,
				"config":      loaded,
			}, nil)
			return nil
		}
		fmt.Println(ui.Hint("# " + path))
		return toml.NewEncoder(os.Stdout).Encode(loaded)
	},
}

func init() {
	configCmd.AddCommand(configPathCmd, configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
