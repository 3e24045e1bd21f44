package source

// ID identifies an upstream retailer as it appears in the index "source" attribute.
type ID string

const (
	Robu      ID = "robu"
	Robokit   ID = "robokit"
	Sunrom    ID = "sunrom"
	Zbotic    ID = "zbotic"
	Evelta    ID = "evelta"
	Robocraze ID = "robocraze"
	Quartz    ID = "quartz"
)

// Info is the static description of a retailer.
type Info struct {
	ID    ID     `json:"id"`
	Label string `json:"label"`
	Logo  string `json:"logo"`

	ShippingFee       float64 `json:"shipping_fee"`
	FreeShippingAbove float64 `json:"free_shipping_above,omitempty"` // 0: never free
	COD               string  `json:"cod"`
	// PricesExcludeGST marks retailers whose index prices are pre-tax.
	PricesExcludeGST bool `json:"prices_exclude_gst,omitempty"`
}

func init() {
	for _, info := range []Info{
		{ID: Robu, Label: "Robu", Logo: "components-radar/robu.png", ShippingFee: 49, FreeShippingAbove: 500, COD: "CoD Available Above ₹300"},
		{ID: Robokit, Label: "Robokit", Logo: "components-radar/robokit.png", ShippingFee: 80, COD: "CoD Not Available"},
		{ID: Sunrom, Label: "Sunrom", Logo: "components-radar/sunrom.png", ShippingFee: 85, COD: "CoD Not Available"},
		{ID: Zbotic, Label: "ZBotic", Logo: "components-radar/zbotic.png", ShippingFee: 59, FreeShippingAbove: 499, COD: "CoD Not Available"},
		{ID: Evelta, Label: "Evelta", Logo: "components-radar/evelta.png", ShippingFee: 55, FreeShippingAbove: 999, COD: "CoD Available Above ₹500", PricesExcludeGST: true},
		{ID: Robocraze, Label: "Robocraze", Logo: "components-radar/robocraze.png", ShippingFee: 59, FreeShippingAbove: 500, COD: "CoD Available at ₹65 Extra"},
		{ID: Quartz, Label: "Quartz", Logo: "components-radar/quartz.png", ShippingFee: 59, FreeShippingAbove: 500, COD: "CoD Available at ₹30 Extra", PricesExcludeGST: true},
	} {
		Register(info)
	}
}
