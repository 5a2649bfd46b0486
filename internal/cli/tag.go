package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/divehq/dive/internal/ui"
)

var tagCreateColor string

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Manage tags",
	Long: `Tags label any record, files included. Tagging a file records a metadata
row for it so tag searches can find it.

Examples:
  dive tag list
  dive tag create todo --color "#f59e0b"
  dive tag attach filesystem:/home/me/dive/plan.md todo
  dive tag detach database:01J5Z8... todo`,
}

var tagListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tags",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer ws.Close()

		tags, err := ws.Store.ListTags(cmd.Context())
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"tags": tags}, &Meta{Count: len(tags)})
			return nil
		}
		if len(tags) == 0 {
			fmt.Println(ui.Hint("No tags yet. Create one with 'dive tag create <name>'."))
			return nil
		}
		tbl := ui.NewTable(3)
		for _, t := range tags {
			tbl.AddRow("#"+t.Name, ui.Hint(t.Color), ui.Hint(t.ID))
		}
		fmt.Print(tbl.String())
		return nil
	},
}

var tagCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer ws.Close()

		tag, err := ws.Store.CreateTag(cmd.Context(), args[0], tagCreateColor)
		if err != nil {
			return handleError(errorCodeOr(err, ErrInvalidInput), err, "")
		}

		if isJSONOutput() {
			outputSuccess(tag, nil)
			return nil
		}
		fmt.Println(ui.Success(fmt.Sprintf("Created tag #%s (%s)", tag.Name, ui.ID(tag.ID))))
		return nil
	},
}

var tagDeleteCmd = &cobra.Command{
	Use:   "delete <tag>",
	Short: "Delete a tag and all of its links",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ws, err := openWorkspace()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer ws.Close()

		tagID, err := resolveTag(ctx, ws, args[0])
		if err != nil {
			return handleError(ErrTagNotFound, err, "Run 'dive tag list' to see all tags")
		}
		if err := ws.Store.DeleteTag(ctx, tagID); err != nil {
			return handleOpError(err)
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"deleted": tagID}, nil)
			return nil
		}
		fmt.Println(ui.Success(fmt.Sprintf("Deleted tag %s", args[0])))
		return nil
	},
}

var tagAttachCmd = &cobra.Command{
	Use:   "attach <id> <tag>",
	Short: "Attach a tag to a record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTagLink(cmd, args[0], args[1], true)
	},
}

var tagDetachCmd = &cobra.Command{
	Use:   "detach <id> <tag>",
	Short: "Detach a tag from a record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTagLink(cmd, args[0], args[1], false)
	},
}

func runTagLink(cmd *cobra.Command, id, tagRef string, attach bool) error {
	ctx := cmd.Context()
	ws, err := openWorkspace()
	if err != nil {
		return handleError(ErrDatabaseError, err, "")
	}
	defer ws.Close()

	id, err = resolveRef(id)
	if err != nil {
		return handleOpError(err)
	}
	tagID, err := resolveTag(ctx, ws, tagRef)
	if err != nil {
		return handleError(ErrTagNotFound, err, fmt.Sprintf("Run 'dive tag create %s' first", tagRef))
	}

	verb := "Attached"
	if attach {
		err = ws.AttachTag(ctx, id, tagID)
	} else {
		verb = "Detached"
		err = ws.DetachTag(ctx, id, tagID)
	}
	if err != nil {
		return handleOpError(err)
	}

	tags, err := ws.ObjectTags(ctx, id)
	if err != nil {
		return handleOpError(err)
	}

	if isJSONOutput() {
		outputSuccess(map[string]interface{}{"id": id, "tags": tags}, &Meta{Count: len(tags)})
		return nil
	}
	fmt.Println(ui.Success(fmt.Sprintf("%s #%s on %s", verb, tagRef, ui.ID(id))))
	return nil
}

func init() {
	tagCreateCmd.Flags().StringVar(&tagCreateColor, "color", "", "Tag color (default #3b82f6)")
	tagCmd.AddCommand(tagListCmd, tagCreateCmd, tagDeleteCmd, tagAttachCmd, tagDetachCmd)
	rootCmd.AddCommand(tagCmd)
}
