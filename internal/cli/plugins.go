package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/divehq/dive/internal/plugin"
	"github.com/divehq/dive/internal/ui"
)

var pluginsForType string

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List built-in plugins and the views they provide",
	Long: `Lists the plugin manifest served at /api/plugins.

Examples:
  dive plugins
  dive plugins --type canvas   # views that can open canvas objects`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := plugin.NewDefaultRegistry()

		if pluginsForType != "" {
			views := reg.ViewsForType(pluginsForType)
			if isJSONOutput() {
				outputSuccess(map[string]interface{}{"type": pluginsForType, "views": views}, &Meta{Count: len(views)})
				return nil
			}
			if len(views) == 0 {
				fmt.Println(ui.Hint(fmt.Sprintf("No views support %q.", pluginsForType)))
				return nil
			}
			for _, v := range views {
				fmt.Println(v.Name)
			}
			return nil
		}

		plugins := reg.Plugins()
		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"plugins": plugins}, &Meta{Count: len(plugins)})
			return nil
		}

		tbl := ui.NewTable(3)
		for _, p := range plugins {
			types := make([]string, len(p.Types))
			for i, t := range p.Types {
				types[i] = t.Name
			}
			views := make([]string, len(p.Views))
			for i, v := range p.Views {
				views[i] = v.Name
			}
			tbl.AddRow(ui.AccentBold.Render(p.Name)+" "+ui.Hint(p.Version),
				strings.Join(types, ", "), ui.Hint(strings.Join(views, ", ")))
		}
		fmt.Print(tbl.String())
		return nil
	},
}

func init() {
	pluginsCmd.Flags().StringVar(&pluginsForType, "type", "", "Only list views supporting this object type")
	rootCmd.AddCommand(pluginsCmd)
}
