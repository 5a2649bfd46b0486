package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/divehq/dive/internal/object"
	"github.com/divehq/dive/internal/ui"
)

var (
	newType    string
	newContent string
	newFile    string
	newProps   []string
)

var newCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Create a note in the metadata database",
	Long: `Creates a database object with a generated ID. The type defaults to
markdown; canvas content is validated before it is stored.

Examples:
  dive new "Meeting notes" --content "# Agenda"
  dive new Board --type canvas --file board.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, hasContent, err := readContentFlags(newContent, newFile, cmd.Flags().Changed("content"))
		if err != nil {
			return handleError(errorCodeOr(err, ErrFileReadError), err, "")
		}
		props, err := parseProps(newProps)
		if err != nil {
			return handleOpError(err)
		}

		ws, err := openWorkspace()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer ws.Close()

		req := object.PutRequest{Type: newType, Properties: props}
		if len(args) > 0 {
			req.Name = args[0]
		}
		if hasContent {
			req.Content = structuredContent(newType, content)
		}

		res, err := ws.Create(cmd.Context(), req)
		if err != nil {
			return handleOpError(err)
		}

		if isJSONOutput() {
			outputSuccess(res, nil)
			return nil
		}
		fmt.Println(ui.Success(fmt.Sprintf("Created %s", ui.ID(res.ID))))
		return nil
	},
}

var uploadName string

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Copy a file into the storage directory",
	Long: `Copies a file into the storage root under a slugified name. Existing
files are never replaced.

Examples:
  dive upload ~/Downloads/Team\ Photo.JPG       # stored as team-photo.jpg
  dive upload scan.pdf --name "Tax Return 2025.pdf"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return handleError(ErrFileReadError, err, "")
		}
		defer f.Close()

		name := uploadName
		if name == "" {
			name = filepath.Base(args[0])
		}

		ws, err := openWorkspace()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer ws.Close()

		id, n, err := ws.Upload(cmd.Context(), name, f)
		if err != nil {
			return handleOpError(err)
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"id":   id,
				"size": n,
			}, nil)
			return nil
		}
		fmt.Println(ui.Success(fmt.Sprintf("Uploaded %s (%d bytes)", ui.ID(id), n)))
		return nil
	},
}

func init() {
	newCmd.Flags().StringVar(&newType, "type", "", "Object type (default markdown)")
	newCmd.Flags().StringVar(&newContent, "content", "", "Initial content")
	newCmd.Flags().StringVarP(&newFile, "file", "f", "", "Read content from a file (- for stdin)")
	newCmd.Flags().StringArrayVarP(&newProps, "prop", "p", nil, "Set a property (key=value, repeatable)")
	uploadCmd.Flags().StringVar(&uploadName, "name", "", "Name to store the file under (slugified)")
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(uploadCmd)
}
