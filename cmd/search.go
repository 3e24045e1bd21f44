package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lukman83/components-radar/internal/app"
	"github.com/lukman83/components-radar/internal/search"
	"github.com/lukman83/components-radar/internal/source"
	"github.com/lukman83/components-radar/internal/ui"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search components across retailers",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().Int("page", 1, "Page number")
	searchCmd.Flags().StringSlice("source", nil, "Only these retailers (comma separated ids)")
	searchCmd.Flags().Bool("all", false, "Fetch every matching result instead of one page")
	searchCmd.Flags().String("format", "table", "Output format: json, table")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	page, _ := cmd.Flags().GetInt("page")
	sources, _ := cmd.Flags().GetStringSlice("source")
	all, _ := cmd.Flags().GetBool("all")
	format, _ := cmd.Flags().GetString("format")
	if page < 1 {
		return fmt.Errorf("page must be 1 or more")
	}

	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	ids := parseSources(sources)
	effective, err := a.Filter.Restrict(ids)
	if err != nil {
		return err
	}

	spin := ui.NewSpinner(cmd.ErrOrStderr())
	spin.Start(fmt.Sprintf("Searching '%s' on %d retailers...", query, len(effective)))
	ctx := search.WithProgress(cmd.Context(), spin.Update)
	res, err := runQuery(ctx, a, query, page-1, all, ids)
	spin.Stop()
	if err != nil {
		return searchError(err)
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		return printJSON(out, res)
	}
	if len(res.Items) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}
	fmt.Fprintf(out, "%d results for \"%s\"\n\n", res.Total, query)
	offset := 0
	if !all {
		offset = res.Page * cfg.HitsPerPage
	}
	printProductsTable(out, res.Items, offset)
	printPager(out, res.Page, res.Pages)
	return nil
}

func runQuery(ctx context.Context, a *app.App, query string, page int, all bool, ids []source.ID) (*search.Page, error) {
	if all {
		return a.FetchAll(ctx, query, ids)
	}
	return a.SearchPage(ctx, query, page, ids)
}

func parseSources(raw []string) []source.ID {
	ids := make([]source.ID, 0, len(raw))
	for _, id := range raw {
		ids = append(ids, source.ID(strings.ToLower(strings.TrimSpace(id))))
	}
	return ids
}

// searchError turns a search failure into the message a user can act on.
func searchError(err error) error {
	switch search.Classify(err) {
	case search.OutcomeGated:
		return errors.New("search limit reached: log in with 'radar auth login' to keep searching")
	case search.OutcomeTimeout:
		return errors.New("search timed out, please try again")
	case search.OutcomeCancelled:
		return errors.New("search cancelled")
	}
	return fmt.Errorf("search failed: %w", err)
}
