package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/divehq/dive/internal/model"
	"github.com/divehq/dive/internal/object"
	"github.com/divehq/dive/internal/ui"
)

var showRaw bool

var showCmd = &cobra.Command{
	Use:   "show <id|number>",
	Short: "Show a record by composite ID",
	Long: `Shows one record with its properties, tags and content.

Markdown is rendered for the terminal when stdout is a TTY; use --raw to
print the stored text.

Examples:
  dive show filesystem:/home/me/dive/notes.md
  dive show database:01J5Z8... --raw
  dive show database:01J5Z8... --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ws, err := openWorkspace()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer ws.Close()

		id, err := resolveRef(args[0])
		if err != nil {
			return handleOpError(err)
		}
		res, err := ws.Get(ctx, id)
		if err != nil {
			return handleOpError(err)
		}
		tags, err := ws.ObjectTags(ctx, id)
		if err != nil {
			// Records without a metadata row have no tags.
			tags = []model.Tag{}
		}

		if isJSONOutput() {
			var warnings []Warning
			if res.Properties["error"] == "file missing" {
				warnings = append(warnings, Warning{
					Code:    WarnFileMissing,
					Message: "backing file is missing; showing metadata only",
					ID:      res.ID,
				})
			}
			outputSuccessWithWarnings(map[string]interface{}{
				"object": res,
				"tags":   tags,
			}, warnings, nil)
			return nil
		}

		return printObject(res, tags)
	},
}

func printObject(res *object.Result, tags []model.Tag) error {
	fmt.Println(ui.Header(res.Name))
	fmt.Printf("%s  %s\n", ui.ID(res.ID), ui.Hint(res.Type))

	if len(tags) > 0 {
		names := make([]string, len(tags))
		for i, t := range tags {
			names[i] = "#" + t.Name
		}
		fmt.Printf("tags: %s\n", strings.Join(names, " "))
	}
	if len(res.Properties) > 0 {
		keys := make([]string, 0, len(res.Properties))
		for k := range res.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		tbl := ui.NewTable(2)
		for _, k := range keys {
			tbl.AddRow(ui.Hint(k), fmt.Sprint(res.Properties[k]))
		}
		fmt.Print(tbl.String())
	}
	fmt.Println()

	if res.Properties["error"] == "file missing" {
		fmt.Println(ui.Warning("backing file is missing; showing metadata only"))
		return nil
	}

	switch content := res.Content.(type) {
	case nil:
		return nil
	case string:
		return printText(res, content)
	case []object.DirEntry:
		tbl := ui.NewTable(2)
		for _, e := range content {
			kind := "file"
			if e.IsDir {
				kind = "dir"
			}
			tbl.AddRow(ui.Hint(kind), e.Name)
		}
		fmt.Print(tbl.String())
		return nil
	default:
		data, err := json.MarshalIndent(content, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
}

func printText(res *object.Result, text string) error {
	display := ui.NewDisplayContext()
	if showRaw || !display.IsTTY || !isMarkdownRecord(res) {
		fmt.Println(text)
		return nil
	}
	rendered, err := ui.RenderMarkdown(text, display.AvailableWidth(ui.MarkdownRenderMargin))
	if err != nil {
		return err
	}
	fmt.Print(rendered)
	return nil
}

func isMarkdownRecord(res *object.Result) bool {
	if res.Type == "markdown" {
		return true
	}
	lower := strings.ToLower(res.Name)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown")
}

func init() {
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "Print stored content without rendering")
	rootCmd.AddCommand(showCmd)
}
