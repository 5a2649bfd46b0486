package cli

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/divehq/dive/internal/lastresults"
	"github.com/divehq/dive/internal/object"
	"github.com/divehq/dive/internal/ui"
)

var (
	searchTags     []string
	searchUntagged bool
	searchType     string
	searchLimit    int
	searchRecent   bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search files and notes across all providers",
	Long: `Searches every provider concurrently and merges the results.

Filesystem matches need a query of at least two characters. Tag filters
only match records with metadata (notes, and files that were tagged).
Results are numbered; other commands accept the number in place of an ID.

Examples:
  dive search report
  dive search --tag todo --tag work
  dive search --untagged --type canvas
  dive search --recent --limit 10
  dive search notes --json
  dive show 2                       # second result of the last search`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		start := time.Now()

		ws, err := openWorkspace()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer ws.Close()

		var query string
		if len(args) > 0 {
			query = args[0]
		}
		if searchLimit < 0 {
			return handleErrorMsg(ErrInvalidInput, "--limit must not be negative", "")
		}

		tagIDs, missing, err := resolveTags(ctx, ws, searchTags)
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		if len(missing) > 0 {
			return handleErrorMsg(ErrTagNotFound,
				fmt.Sprintf("unknown tag: %s", strings.Join(missing, ", ")),
				"Run 'dive tag list' to see all tags")
		}

		results := ws.Search(ctx, query,
			object.Filters{Tags: tagIDs, Untagged: searchUntagged, Type: searchType},
			object.SearchOptions{Limit: searchLimit, Recent: searchRecent})
		elapsed := time.Since(start).Milliseconds()

		if err := lastresults.Write(stateDir(), lastresults.New(query, results)); err != nil {
			slog.WarnContext(ctx, "Failed to save search results", "err", err)
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"query": query,
				"items": results,
			}, &Meta{Count: len(results), QueryTimeMs: elapsed})
			return nil
		}

		if len(results) == 0 {
			fmt.Println(ui.Hint("No results."))
			return nil
		}
		printResults(results)
		return nil
	},
}

func printResults(results []object.Result) {
	tbl := ui.NewResultsTable(ui.NewDisplayContext(), ui.ObjectLayout)
	nameWidth := tbl.ContentWidth("name")
	idWidth := tbl.ContentWidth("id")
	for i, res := range results {
		tbl.AddRow(ui.ResultRow{Cells: []string{
			ui.FormatRowNum(i+1, len(results)),
			ui.TruncateWithEllipsis(res.Name, nameWidth),
			res.Type,
			ui.TruncateWithEllipsis(res.ID, idWidth),
		}})
	}
	fmt.Println(ui.Header(fmt.Sprintf("%d %s", len(results), plural(len(results), "result", "results"))))
	fmt.Println(tbl.Render())
}

func plural(n int, singular, many string) string {
	if n == 1 {
		return singular
	}
	return many
}

func init() {
	searchCmd.Flags().StringSliceVarP(&searchTags, "tag", "t", nil, "Require a tag (name or ID, repeatable)")
	searchCmd.Flags().BoolVar(&searchUntagged, "untagged", false, "Only records without tags")
	searchCmd.Flags().StringVar(&searchType, "type", "", "Only records of this type")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "Maximum number of results (0 = no limit)")
	searchCmd.Flags().BoolVar(&searchRecent, "recent", false, "Order by last update, newest first")
	rootCmd.AddCommand(searchCmd)
}
