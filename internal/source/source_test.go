package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukman83/components-radar/internal/models"
)

func TestCatalogOrder(t *testing.T) {
	assert.Equal(t, []ID{Robu, Robokit, Sunrom, Zbotic, Evelta, Robocraze, Quartz}, IDs())
	_, err := Lookup("mouser")
	assert.Error(t, err)
}

func TestFilterEffectiveIsIntersection(t *testing.T) {
	f := NewFilter([]ID{Robu, Sunrom, Quartz})
	assert.Len(t, f.Selected(), 7, "everything selected by default")
	assert.Equal(t, []ID{Robu, Sunrom, Quartz}, f.Effective())

	on, err := f.Toggle(Sunrom)
	require.NoError(t, err)
	assert.False(t, on)
	assert.Equal(t, []ID{Robu, Quartz}, f.Effective())

	on, err = f.Toggle(Sunrom)
	require.NoError(t, err)
	assert.True(t, on)

	_, err = f.Toggle("mouser")
	assert.Error(t, err)
}

func TestFilterEmptyEffective(t *testing.T) {
	f := NewFilter([]ID{Robu})
	require.NoError(t, f.SetSelected([]ID{Quartz}))
	assert.Empty(t, f.Effective())
	assert.NotNil(t, f.Effective())

	assert.Error(t, f.SetSelected([]ID{"nope"}))
	assert.Equal(t, []ID{Quartz}, f.Selected())

	f.SelectAll()
	assert.Equal(t, []ID{Robu}, f.Effective())
}

func TestFilterRestrictLeavesSelection(t *testing.T) {
	f := NewFilter([]ID{Robu, Sunrom, Quartz})
	require.NoError(t, f.SetSelected([]ID{Robu}))

	ids, err := f.Restrict([]ID{Quartz, Evelta, Sunrom})
	require.NoError(t, err)
	assert.Equal(t, []ID{Sunrom, Quartz}, ids, "allowed only, display order")
	assert.Equal(t, []ID{Robu}, f.Selected())

	ids, err = f.Restrict(nil)
	require.NoError(t, err)
	assert.Equal(t, []ID{Robu}, ids)

	_, err = f.Restrict([]ID{"mouser"})
	assert.Error(t, err)
}

func TestPricing(t *testing.T) {
	quartz := models.Product{Source: "quartz", Price: "100"}
	assert.InDelta(t, 118.0, DisplayPrice(quartz), 1e-9)
	assert.Equal(t, "Shipping fee ₹59 | Free above ₹500", ShippingNote(quartz))

	robu := models.Product{Source: "robu", Price: "650"}
	assert.Equal(t, 650.0, DisplayPrice(robu))
	assert.Equal(t, "Free shipping", ShippingNote(robu))
	assert.Equal(t, "CoD Available Above ₹300", CODNote(robu))

	robokit := models.Product{Source: "robokit", Price: "5000"}
	assert.False(t, FreeShipping(robokit))
	assert.Equal(t, "Shipping fee ₹80", ShippingNote(robokit))

	assert.Empty(t, ShippingNote(models.Product{Source: "unknown"}))
}
