package models

import (
	"bytes"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/goccy/go-json"
)

// Product is one listing returned by the search index.
type Product struct {
	ObjectID     string   `json:"objectID"`
	ProductName  string   `json:"productName"`
	Price        Price    `json:"price"`
	Stock        Stock    `json:"stock"`
	ProductImage string   `json:"productImage,omitempty"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	ProductURL   string   `json:"productUrl"`
	Category     string   `json:"category,omitempty"`
	Source       string   `json:"source"`
	SourceImage  string   `json:"sourceImage,omitempty"`
	Weight       *float64 `json:"weight,omitempty"`
}

// Image returns the preferred image, falling back to productImage.
func (p Product) Image() string {
	if p.ImageURL != "" {
		return p.ImageURL
	}
	return p.ProductImage
}

// WishlistItem is a liked product plus the id assigned by the backend.
type WishlistItem struct {
	Product
	RemoteID string `json:"mongodbID,omitempty"`
}

// User is the account record returned by login and reset.
type User struct {
	ID        string `json:"_id,omitempty"`
	FirstName string `json:"firstname,omitempty"`
	LastName  string `json:"lastname,omitempty"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Verified  bool   `json:"isVerified,omitempty"`
}

// Price is a decimal kept as the index sent it. It accepts both JSON
// strings and numbers.
type Price string

func (p *Price) UnmarshalJSON(data []byte) error {
	s, err := scalarString(data)
	if err != nil {
		return err
	}
	*p = Price(s)
	return nil
}

// Float parses the price, returning 0 for anything non-numeric.
func (p Price) Float() float64 {
	s := strings.TrimSpace(string(p))
	s = strings.TrimPrefix(s, "₹")
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// Stock is either a numeric count or a literal status such as "in stock".
type Stock string

func (s *Stock) UnmarshalJSON(data []byte) error {
	v, err := scalarString(data)
	if err != nil {
		return err
	}
	*s = Stock(v)
	return nil
}

// StockStatus classifies a Stock value for display.
type StockStatus int

const (
	StockUnknown StockStatus = iota
	StockAvailable
	StockOut
)

// Count returns the numeric stock and whether the value was numeric.
func (s Stock) Count() (float64, bool) {
	v := strings.TrimSpace(string(s))
	if v == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Status reports availability. Non-numeric values other than "in stock"
// count as out of stock.
func (s Stock) Status() StockStatus {
	lower := strings.ToLower(string(s))
	n, numeric := s.Count()
	switch {
	case strings.Contains(lower, "in stock") || n > 0:
		return StockAvailable
	case !numeric || n == 0:
		return StockOut
	default:
		return StockUnknown
	}
}

// Label renders the stock the way listings show it.
func (s Stock) Label() string {
	v := string(s)
	if strings.ToLower(v) == "out" {
		return "Out of stock"
	}
	if _, numeric := s.Count(); !numeric {
		r, size := utf8.DecodeRuneInString(v)
		return string(unicode.ToUpper(r)) + v[size:]
	}
	if v == "" {
		v = "0"
	}
	return v + " left"
}

// scalarString decodes a JSON string, number, bool or null into its text form.
func scalarString(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	return string(data), nil
}
