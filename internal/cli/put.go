package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/divehq/dive/internal/object"
	"github.com/divehq/dive/internal/ui"
)

var (
	putContent string
	putFile    string
	putProps   []string
	putName    string
	putType    string
)

var putCmd = &cobra.Command{
	Use:   "put <id>",
	Short: "Write content or properties to a record",
	Long: `Writes a record through the provider named by its ID prefix, creating it
if it does not exist.

Content comes from --content or --file ("-" reads stdin). Without either,
the current content is kept. --prop merges into the stored properties;
values that parse as JSON keep their type.

Examples:
  dive put filesystem:/home/me/dive/todo.md --content "- [ ] ship it"
  dive put database:01J5Z8... --prop status=done --prop priority=2
  cat board.json | dive put database:01J5Z8... --file -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := resolveRef(args[0])
		if err != nil {
			return handleOpError(err)
		}

		content, hasContent, err := readContentFlags(putContent, putFile, cmd.Flags().Changed("content"))
		if err != nil {
			return handleError(errorCodeOr(err, ErrFileReadError), err, "")
		}
		props, err := parseProps(putProps)
		if err != nil {
			return handleOpError(err)
		}

		ws, err := openWorkspace()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer ws.Close()

		req := object.PutRequest{Name: putName, Type: putType, Properties: props}
		typ := putType
		if typ == "" && hasContent {
			existing, err := ws.Get(ctx, id)
			switch {
			case err == nil:
				typ = existing.Type
			case errors.Is(err, object.ErrNotFound):
			default:
				return handleOpError(err)
			}
		}
		if hasContent {
			req.Content = structuredContent(typ, content)
		}

		res, err := ws.Put(ctx, id, req)
		if err != nil {
			return handleOpError(err)
		}

		if isJSONOutput() {
			outputSuccess(res, nil)
			return nil
		}
		fmt.Println(ui.Success(fmt.Sprintf("Saved %s", ui.ID(res.ID))))
		return nil
	},
}

// errorCodeOr classifies err, falling back to code for unclassified errors.
func errorCodeOr(err error, code string) string {
	if c := errorCode(err); c != ErrInternal {
		return c
	}
	return code
}

func init() {
	putCmd.Flags().StringVar(&putContent, "content", "", "Content to write")
	putCmd.Flags().StringVarP(&putFile, "file", "f", "", "Read content from a file (- for stdin)")
	putCmd.Flags().StringArrayVarP(&putProps, "prop", "p", nil, "Set a property (key=value, repeatable)")
	putCmd.Flags().StringVar(&putName, "name", "", "Name used when the record is created")
	putCmd.Flags().StringVar(&putType, "type", "", "Type used when the record is created")
	rootCmd.AddCommand(putCmd)
}
