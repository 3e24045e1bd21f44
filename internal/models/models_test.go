package models

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductDecodeMixedScalars(t *testing.T) {
	raw := `[
		{"objectID":"a","productName":"LED","price":"12.50","stock":"in stock","productImage":"p.png","source":"robu"},
		{"objectID":"b","productName":"Resistor","price":3,"stock":7,"imageUrl":"i.png","productImage":"p.png","source":"quartz","weight":2},
		{"objectID":"c","price":null,"stock":"backorder"}
	]`
	var ps []Product
	require.NoError(t, json.Unmarshal([]byte(raw), &ps))
	require.Len(t, ps, 3)

	assert.Equal(t, 12.5, ps[0].Price.Float())
	assert.Equal(t, "p.png", ps[0].Image())
	assert.Nil(t, ps[0].Weight)

	assert.Equal(t, 3.0, ps[1].Price.Float())
	assert.Equal(t, "i.png", ps[1].Image())
	require.NotNil(t, ps[1].Weight)
	assert.Equal(t, 2.0, *ps[1].Weight)

	assert.Equal(t, 0.0, ps[2].Price.Float())
	assert.Equal(t, Stock("backorder"), ps[2].Stock)
}

func TestStockLabelAndStatus(t *testing.T) {
	cases := []struct {
		in     Stock
		label  string
		status StockStatus
	}{
		{"in stock", "In stock", StockAvailable},
		{"out", "Out of stock", StockOut},
		{"12", "12 left", StockAvailable},
		{"0", "0 left", StockOut},
		{"backorder", "Backorder", StockOut},
		{"", "0 left", StockOut},
		{"स्टॉक में", "स्टॉक में", StockOut},
		{"éPuisé", "ÉPuisé", StockOut},
	}
	for _, c := range cases {
		t.Run(string(c.in), func(t *testing.T) {
			assert.Equal(t, c.label, c.in.Label())
			assert.Equal(t, c.status, c.in.Status())
		})
	}
}

func TestPriceFloatTolerant(t *testing.T) {
	assert.Equal(t, 1299.0, Price("₹ 1,299").Float())
	assert.Equal(t, 0.0, Price("call us").Float())
}
