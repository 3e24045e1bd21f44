package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lukman83/components-radar/internal/models"
)

var wishlistCmd = &cobra.Command{
	Use:   "wishlist",
	Short: "Manage liked components",
}

func init() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show the wishlist",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			authed := a.Session.IsAuthenticated(cmd.Context())
			if err := a.Wishlist.Reload(cmd.Context(), authed); err != nil {
				return err
			}
			items := a.Wishlist.Items()
			if format, _ := cmd.Flags().GetString("format"); format == "json" {
				return printJSON(cmd.OutOrStdout(), items)
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Your wishlist is empty.")
				return nil
			}
			products := make([]models.Product, len(items))
			for i, it := range items {
				products[i] = it.Product
			}
			printProductsTable(cmd.OutOrStdout(), products, 0)
			return nil
		},
	}
	listCmd.Flags().String("format", "table", "Output format: json, table")

	addCmd := &cobra.Command{
		Use:   "add [objectID]",
		Short: "Add a product to the wishlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			p := models.Product{ObjectID: args[0]}
			p.ProductName, _ = cmd.Flags().GetString("name")
			price, _ := cmd.Flags().GetString("price")
			p.Price = models.Price(price)
			stock, _ := cmd.Flags().GetString("stock")
			p.Stock = models.Stock(stock)
			p.Source, _ = cmd.Flags().GetString("source")
			p.ProductURL, _ = cmd.Flags().GetString("url")
			p.ImageURL, _ = cmd.Flags().GetString("image")

			if err := a.Wishlist.Add(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s to wishlist\n", args[0])
			return nil
		},
	}
	addCmd.Flags().String("name", "", "Product name")
	addCmd.Flags().String("price", "", "Listed price")
	addCmd.Flags().String("stock", "", "Stock as listed")
	addCmd.Flags().String("source", "", "Retailer id")
	addCmd.Flags().String("url", "", "Product page URL")
	addCmd.Flags().String("image", "", "Image URL")

	removeCmd := &cobra.Command{
		Use:   "remove [objectID]",
		Short: "Remove a product from the wishlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.Wishlist.IsWishlisted(args[0]) {
				return fmt.Errorf("%s is not in the wishlist", args[0])
			}
			if err := a.Wishlist.Remove(cmd.Context(), models.Product{ObjectID: args[0]}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from wishlist\n", args[0])
			return nil
		},
	}

	wishlistCmd.AddCommand(listCmd, addCmd, removeCmd)
	rootCmd.AddCommand(wishlistCmd)
}
