package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/divehq/dive/internal/ui"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show workspace statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer ws.Close()

		summary, err := ws.Summarize(cmd.Context())
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(summary, nil)
			return nil
		}

		tbl := ui.NewTable(2)
		tbl.AddRow(ui.Hint("storage"), summary.StorageDir)
		tbl.AddRow(ui.Hint("providers"), strings.Join(summary.Providers, ", "))
		tbl.AddRow(ui.Hint("objects"), fmt.Sprint(summary.Objects))
		tbl.AddRow(ui.Hint("file metadata"), fmt.Sprint(summary.Shadows))
		tbl.AddRow(ui.Hint("tags"), fmt.Sprintf("%d %s", summary.Tags, ui.Count(summary.Links, "link", "links")))
		tbl.AddRow(ui.Hint("relations"), fmt.Sprint(summary.Relations))
		fmt.Print(tbl.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
