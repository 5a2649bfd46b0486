package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/divehq/dive/internal/model"
	"github.com/divehq/dive/internal/ui"
)

var (
	relateType string
	relateData string
)

var relateCmd = &cobra.Command{
	Use:   "relate <source-id> <target-id>",
	Short: "Record a typed relation between two records",
	Long: `Records a directed, typed edge. Either end may be a file; its metadata
row is created on demand.

Examples:
  dive relate database:01J5Z8... filesystem:/home/me/dive/spec.pdf --type references
  dive relate database:A database:B --type parent --data '{"order": 1}'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if relateType == "" {
			return handleErrorMsg(ErrMissingArgument, "--type is required", "")
		}
		var data any
		if relateData != "" {
			if err := json.Unmarshal([]byte(relateData), &data); err != nil {
				return handleErrorMsg(ErrInvalidInput, fmt.Sprintf("--data is not valid JSON: %v", err), "")
			}
		}

		ws, err := openWorkspace()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer ws.Close()

		src, err := resolveRef(args[0])
		if err != nil {
			return handleOpError(err)
		}
		dst, err := resolveRef(args[1])
		if err != nil {
			return handleOpError(err)
		}
		rel, err := ws.Relate(cmd.Context(), src, dst, relateType, data)
		if err != nil {
			return handleOpError(err)
		}

		if isJSONOutput() {
			outputSuccess(rel, nil)
			return nil
		}
		fmt.Println(ui.Success(fmt.Sprintf("%s -[%s]-> %s", ui.ID(rel.SourceID), rel.Type, ui.ID(rel.TargetID))))
		return nil
	},
}

var relationsCmd = &cobra.Command{
	Use:   "relations <id>",
	Short: "List relations touching a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer ws.Close()

		id, err := resolveRef(args[0])
		if err != nil {
			return handleOpError(err)
		}
		views, err := ws.Relations(cmd.Context(), id)
		if err != nil {
			return handleOpError(err)
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"relations": views}, &Meta{Count: len(views)})
			return nil
		}
		if len(views) == 0 {
			fmt.Println(ui.Hint("No relations."))
			return nil
		}

		tbl := ui.NewResultsTable(ui.NewDisplayContext(), ui.RelationLayout)
		for _, v := range views {
			arrow := "->"
			if v.Direction == model.DirectionIncoming {
				arrow = "<-"
			}
			tbl.AddRow(ui.ResultRow{Cells: []string{arrow, v.Type, v.OtherObject.Name, v.OtherObject.ID}})
		}
		fmt.Println(tbl.Render())
		return nil
	},
}

var unrelateCmd = &cobra.Command{
	Use:   "unrelate <relation-id>",
	Short: "Delete a relation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer ws.Close()

		if err := ws.Unrelate(cmd.Context(), args[0]); err != nil {
			return handleOpError(err)
		}
		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"deleted": args[0]}, nil)
			return nil
		}
		fmt.Println(ui.Success("Deleted relation " + args[0]))
		return nil
	},
}

func init() {
	relateCmd.Flags().StringVar(&relateType, "type", "", "Relation type, e.g. parent, references (required)")
	relateCmd.Flags().StringVar(&relateData, "data", "", "JSON payload stored with the relation")
	rootCmd.AddCommand(relateCmd, relationsCmd, unrelateCmd)
}
