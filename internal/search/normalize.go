package search

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/lukman83/components-radar/internal/models"
)

const untitled = "Untitled Product"

// Normalize cleans a page of hits for display. Items are never dropped for
// bad fields; only repeated objectIDs are removed.
func Normalize(hits []models.Product) []models.Product {
	out := make([]models.Product, 0, len(hits))
	seen := make(map[string]bool, len(hits))
	for _, p := range hits {
		if p.ObjectID != "" {
			if seen[p.ObjectID] {
				continue
			}
			seen[p.ObjectID] = true
		}
		p.ProductName = cleanText(p.ProductName)
		if p.ProductName == "" {
			p.ProductName = untitled
		}
		p.Category = cleanText(p.Category)
		if p.ImageURL == "" {
			p.ImageURL = p.ProductImage
		}
		p.Stock = models.Stock(strings.TrimSpace(string(p.Stock)))
		out = append(out, p)
	}
	return out
}

// cleanText strips markup (highlight tags, stray HTML) and decodes entities.
func cleanText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			b.WriteByte(' ')
		}
	}
}
