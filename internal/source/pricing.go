package source

import (
	"fmt"

	"github.com/lukman83/components-radar/internal/models"
)

const gstRate = 0.18

// DisplayPrice returns the GST-inclusive price of p.
func DisplayPrice(p models.Product) float64 {
	price := p.Price.Float()
	if info, err := Lookup(ID(p.Source)); err == nil && info.PricesExcludeGST {
		price *= 1 + gstRate
	}
	return price
}

// FreeShipping reports whether p crosses its retailer's free-shipping threshold.
// The threshold is compared against the listed price.
func FreeShipping(p models.Product) bool {
	info, err := Lookup(ID(p.Source))
	if err != nil || info.FreeShippingAbove == 0 {
		return false
	}
	return p.Price.Float() >= info.FreeShippingAbove
}

// ShippingNote renders the shipping line shown under a listing.
func ShippingNote(p models.Product) string {
	info, err := Lookup(ID(p.Source))
	if err != nil {
		return ""
	}
	if FreeShipping(p) {
		return "Free shipping"
	}
	note := fmt.Sprintf("Shipping fee ₹%.0f", info.ShippingFee)
	if info.FreeShippingAbove > 0 {
		note += fmt.Sprintf(" | Free above ₹%.0f", info.FreeShippingAbove)
	}
	return note
}

// CODNote returns the cash-on-delivery terms of p's retailer.
func CODNote(p models.Product) string {
	info, err := Lookup(ID(p.Source))
	if err != nil {
		return ""
	}
	return info.COD
}
