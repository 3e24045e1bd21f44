package cmd

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/lukman83/components-radar/internal/models"
	"github.com/lukman83/components-radar/internal/search"
	"github.com/lukman83/components-radar/internal/source"
)

// printProductsTable prints products in a human-friendly card layout.
// offset is the rank of the first product minus one.
func printProductsTable(w io.Writer, products []models.Product, offset int) {
	for i, p := range products {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, " %d. %s\n", offset+i+1, truncate(p.ProductName, 90))

		priceLine := "    Price: " + formatPrice(source.DisplayPrice(p))
		if info, err := source.Lookup(source.ID(p.Source)); err == nil {
			if info.PricesExcludeGST {
				priceLine += " (incl. GST)"
			}
			priceLine += "  |  " + info.Label
		} else if p.Source != "" {
			priceLine += "  |  " + p.Source
		}
		priceLine += "  |  " + p.Stock.Label()
		fmt.Fprintln(w, priceLine)

		if note := source.ShippingNote(p); note != "" {
			fmt.Fprintf(w, "    %s  |  %s\n", note, source.CODNote(p))
		}
		if p.Category != "" {
			fmt.Fprintf(w, "    Category: %s\n", formatBreadcrumb(p.Category))
		}
		if p.ProductURL != "" {
			fmt.Fprintf(w, "    %s\n", cleanURL(p.ProductURL))
		}
	}
}

// printPager prints "Page 2 of 9: [1] 2 [3] ..." with the current page
// unbracketed. Pages are shown one-based.
func printPager(w io.Writer, page, pages int) {
	if pages <= 1 {
		return
	}
	var parts []string
	for _, p := range search.PageWindow(page, pages) {
		label := strconv.Itoa(p + 1)
		if p != page {
			label = "[" + label + "]"
		}
		parts = append(parts, label)
	}
	fmt.Fprintf(w, "\nPage %d of %d: %s\n", page+1, pages, strings.Join(parts, " "))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatPrice formats a rupee amount with Indian digit grouping, e.g.
// "₹1,23,456.50". Whole amounts drop the paise.
func formatPrice(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	whole, frac, _ := strings.Cut(s, ".")
	neg := strings.HasPrefix(whole, "-")
	whole = strings.TrimPrefix(whole, "-")

	if len(whole) > 3 {
		head, tail := whole[:len(whole)-3], whole[len(whole)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		whole = strings.Join(groups, ",") + "," + tail
	}

	out := "₹" + whole
	if frac != "00" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

// formatBreadcrumb turns "sensors/temperature-sensors" into
// "Sensors > Temperature Sensors".
func formatBreadcrumb(s string) string {
	sep := "/"
	if !strings.Contains(s, sep) && strings.Contains(s, ">") {
		sep = ">"
	}
	parts := strings.Split(s, sep)
	for i, p := range parts {
		words := strings.FieldsFunc(p, func(r rune) bool { return r == '-' || r == ' ' })
		for j, w := range words {
			words[j] = strings.ToUpper(w[:1]) + w[1:]
		}
		parts[i] = strings.Join(words, " ")
	}
	return strings.Join(parts, " > ")
}

// cleanURL strips tracking query params and returns just the product page URL.
func cleanURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
