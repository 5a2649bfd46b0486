package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/divehq/dive/internal/audit"
	"github.com/divehq/dive/internal/ui"
)

var historySince time.Duration

var historyCmd = &cobra.Command{
	Use:   "history [id|number]",
	Short: "Show recorded mutations",
	Long: `Lists entries of the audit log, oldest first. Requires audit = true in
the config. With an ID, only entries touching that record are shown.

Examples:
  dive history
  dive history 2 --since 24h`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := getConfig()
		if !c.Audit {
			return handleErrorMsg(ErrConfigInvalid, "audit log is disabled", "Set audit = true in the config file")
		}

		var id string
		if len(args) == 1 {
			resolved, err := resolveRef(args[0])
			if err != nil {
				return handleOpError(err)
			}
			id = resolved
		}
		var since time.Time
		if historySince > 0 {
			since = time.Now().Add(-historySince)
		}

		auditLog := audit.New(stateDir(), true)
		entries, err := auditLog.Filter(id, since)
		if err != nil {
			return handleError(ErrFileReadError, err, "")
		}

		if isJSONOutput() {
			if entries == nil {
				entries = []audit.Entry{}
			}
			outputSuccess(entries, &Meta{Count: len(entries)})
			return nil
		}

		if len(entries) == 0 {
			fmt.Println(ui.Hint("no entries"))
			return nil
		}
		tbl := ui.NewTable(4)
		for _, e := range entries {
			subject := ui.ID(e.ID)
			if e.Target != "" {
				subject += ui.Hint(" → ") + ui.ID(e.Target)
			}
			tbl.AddRow(ui.Hint(e.Timestamp.Local().Format(time.DateTime)), ui.Bold.Render(e.Operation), subject, ui.Muted.Render(e.Type))
		}
		fmt.Print(tbl.String())
		return nil
	},
}

func init() {
	historyCmd.Flags().DurationVar(&historySince, "since", 0, "Only show entries newer than this (e.g. 24h)")
	rootCmd.AddCommand(historyCmd)
}
