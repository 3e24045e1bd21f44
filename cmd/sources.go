package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lukman83/components-radar/internal/source"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List retailers with shipping and COD terms",
	Long: `List retailers with shipping and COD terms.

A retailer is searched only while it is allowed. Every retailer is allowed
unless RADAR_<ID>_ALLOWED is set, and any value other than "true" disables
it, e.g. RADAR_QUARTZ_ALLOWED=false.`,
	RunE:  runSources,
}

func init() {
	sourcesCmd.Flags().String("format", "table", "Output format: json, table")
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	filter := source.NewFilter(source.AllowedFromConfig(cfg.AllowedSources()))
	if format == "json" {
		type row struct {
			source.Info
			Allowed bool `json:"allowed"`
		}
		rows := make([]row, 0)
		for _, info := range source.All() {
			rows = append(rows, row{Info: info, Allowed: filter.IsAllowed(info.ID)})
		}
		return printJSON(cmd.OutOrStdout(), rows)
	}
	printSources(cmd.OutOrStdout(), filter)
	return nil
}

func printSources(w io.Writer, f *source.Filter) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRETAILER\tSTATE\tSHIPPING\tFREE ABOVE\tCOD")
	for _, info := range source.All() {
		state := "on"
		switch {
		case !f.IsAllowed(info.ID):
			state = "disabled"
		case !f.IsSelected(info.ID):
			state = "off"
		}
		free := "-"
		if info.FreeShippingAbove > 0 {
			free = formatPrice(info.FreeShippingAbove)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", info.ID, info.Label, state, formatPrice(info.ShippingFee), free, info.COD)
	}
	tw.Flush()
}
