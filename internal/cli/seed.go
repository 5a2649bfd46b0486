package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/divehq/dive/internal/seed"
	"github.com/divehq/dive/internal/ui"
)

var seedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Load fixture objects, tags and relations",
	Long: `Loads a YAML fixture into the metadata database. Objects are keyed by
their id, tags by name and relations by (source, target, type), so running
the same file twice changes nothing but updated_at.

Example fixture:
  tags:
    - name: draft
  objects:
    - id: notes
      type: markdown
      name: notes.md
      content: "# My Notes"
      tags: [draft]
  relations:
    - {source: notes, target: board, type: related}`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fx, err := seed.ReadFile(args[0])
		if err != nil {
			return handleError(ErrInvalidInput, err, "")
		}

		ws, err := openWorkspace()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer ws.Close()

		report, err := seed.Load(cmd.Context(), ws.Store, fx)
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(report, nil)
			return nil
		}
		fmt.Println(ui.Success(fmt.Sprintf("Seeded %s: %d created, %d updated, %d tags created, %d relations created",
			args[0], report.ObjectsCreated, report.ObjectsUpdated, report.TagsCreated, report.RelationsCreated)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
