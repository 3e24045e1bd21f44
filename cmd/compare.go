package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lukman83/components-radar/internal/models"
	"github.com/lukman83/components-radar/internal/search"
	"github.com/lukman83/components-radar/internal/source"
	"github.com/lukman83/components-radar/internal/ui"
)

var compareCmd = &cobra.Command{
	Use:   "compare [query]",
	Short: "Cheapest in-stock listing per retailer, shipping included",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCompare,
}

func init() {
	compareCmd.Flags().Bool("include-out-of-stock", false, "Consider listings that are out of stock")
	compareCmd.Flags().String("format", "table", "Output format: json, table")
	rootCmd.AddCommand(compareCmd)
}

type offer struct {
	Source   source.ID      `json:"source"`
	Product  models.Product `json:"product"`
	Price    float64        `json:"price"`
	Shipping float64        `json:"shipping"`
	Total    float64        `json:"total"`
}

func runCompare(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	withOOS, _ := cmd.Flags().GetBool("include-out-of-stock")
	format, _ := cmd.Flags().GetString("format")

	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	spin := ui.NewSpinner(cmd.ErrOrStderr())
	spin.Start(fmt.Sprintf("Comparing '%s'...", query))
	ctx := search.WithProgress(cmd.Context(), spin.Update)
	res, err := a.FetchAll(ctx, query, nil)
	spin.Stop()
	if err != nil {
		return searchError(err)
	}

	offers := cheapestPerSource(res.Items, withOOS)
	out := cmd.OutOrStdout()
	if format == "json" {
		return printJSON(out, offers)
	}
	if len(offers) == 0 {
		fmt.Fprintln(out, "No listings to compare.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RETAILER\tPRICE\tSHIPPING\tTOTAL\tSTOCK\tPRODUCT")
	for _, o := range offers {
		label := string(o.Source)
		if info, err := source.Lookup(o.Source); err == nil {
			label = info.Label
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", label, formatPrice(o.Price), formatPrice(o.Shipping),
			formatPrice(o.Total), o.Product.Stock.Label(), truncate(o.Product.ProductName, 50))
	}
	return tw.Flush()
}

// cheapestPerSource keeps the lowest landed-cost listing of each retailer,
// in catalog order.
func cheapestPerSource(items []models.Product, withOOS bool) []offer {
	best := make(map[source.ID]offer)
	for _, p := range items {
		if !withOOS && p.Stock.Status() == models.StockOut {
			continue
		}
		price := source.DisplayPrice(p)
		if price <= 0 {
			continue
		}
		id := source.ID(p.Source)
		o := offer{Source: id, Product: p, Price: price}
		if info, err := source.Lookup(id); err == nil && !source.FreeShipping(p) {
			o.Shipping = info.ShippingFee
		}
		o.Total = o.Price + o.Shipping
		if cur, ok := best[id]; !ok || o.Total < cur.Total {
			best[id] = o
		}
	}
	out := make([]offer, 0, len(best))
	for _, id := range source.IDs() {
		if o, ok := best[id]; ok {
			out = append(out, o)
		}
	}
	return out
}
