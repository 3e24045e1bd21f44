package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lukman83/components-radar/internal/search"
	"github.com/lukman83/components-radar/internal/ui"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories [query]",
	Short: "Show which categories a query's results fall into",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCategories,
}

func init() {
	categoriesCmd.Flags().Int("limit", 20, "Number of categories to show")
	rootCmd.AddCommand(categoriesCmd)
}

func runCategories(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	limit, _ := cmd.Flags().GetInt("limit")

	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	spin := ui.NewSpinner(cmd.ErrOrStderr())
	spin.Start(fmt.Sprintf("Collecting categories for '%s'...", query))
	ctx := search.WithProgress(cmd.Context(), spin.Update)
	res, err := a.FetchAll(ctx, query, nil)
	spin.Stop()
	if err != nil {
		return searchError(err)
	}

	counts := make(map[string]int)
	for _, p := range res.Items {
		if p.Category != "" {
			counts[formatBreadcrumb(p.Category)]++
		}
	}

	out := cmd.OutOrStdout()
	if len(counts) == 0 {
		fmt.Fprintln(out, "No categories found.")
		return nil
	}

	type entry struct {
		category string
		count    int
	}
	entries := make([]entry, 0, len(counts))
	for cat, n := range counts {
		entries = append(entries, entry{cat, n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].category < entries[j].category
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	fmt.Fprintf(out, "Categories for \"%s\" (%d products):\n\n", query, len(res.Items))
	for i, e := range entries {
		fmt.Fprintf(out, " %2d. %-50s  (%d products)\n", i+1, e.category, e.count)
	}
	return nil
}
