package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSizeSpec(t *testing.T) {
	flat, err := ParseSizeSpec(json.RawMessage(`["S","M","L"]`))
	require.NoError(t, err)
	assert.Equal(t, FlatSizes{"S", "M", "L"}, flat)

	gendered, err := ParseSizeSpec(json.RawMessage(`{"women":["6","7"],"men":["9","10"]}`))
	require.NoError(t, err)
	require.IsType(t, GenderedSizes{}, gendered)
	assert.Equal(t, []string{"women", "men"}, gendered.(GenderedSizes).Genders(), "catalog order is kept")

	for _, none := range []string{"", "null", "  "} {
		spec, err := ParseSizeSpec(json.RawMessage(none))
		require.NoError(t, err)
		assert.Nil(t, spec)
	}

	_, err = ParseSizeSpec(json.RawMessage(`"XL"`))
	assert.Error(t, err)

	_, err = ParseSizeSpec(json.RawMessage(`{"men":["9"],"men":["10"]}`))
	assert.ErrorContains(t, err, "duplicate gender")
}

func TestSizeSpec_Offers(t *testing.T) {
	flat := FlatSizes{"XS", "S", "M"}
	assert.True(t, flat.Offers("", "S"))
	assert.True(t, flat.Offers("women", "S"), "gender is ignored for flat sizes")
	assert.False(t, flat.Offers("", "XL"))

	gendered := GenderedSizes{
		{Gender: "men", Sizes: []string{"9", "10"}},
		{Gender: "women", Sizes: []string{"6", "7"}},
	}
	assert.True(t, gendered.Offers("men", "10"))
	assert.False(t, gendered.Offers("women", "10"))
	assert.False(t, gendered.Offers("kids", "6"))

	sizes, ok := gendered.Lookup("women")
	assert.True(t, ok)
	assert.Equal(t, []string{"6", "7"}, sizes)
}

func TestGenderedSizes_MarshalKeepsOrder(t *testing.T) {
	g := GenderedSizes{
		{Gender: "women", Sizes: []string{"6"}},
		{Gender: "men", Sizes: nil},
	}
	raw, err := json.Marshal(g)
	require.NoError(t, err)
	assert.Equal(t, `{"women":["6"],"men":[]}`, string(raw))
}

func TestProduct_JSONShapes(t *testing.T) {
	in := `{
		"id": 7,
		"title": "Sovereign Loafers",
		"price": 549.99,
		"description": "Hand-stitched.",
		"category": "luxury-footwear",
		"sizes": {"men": ["9", "10"], "women": ["7"]},
		"customizable": true,
		"image": "https://example.test/loafers.jpg"
	}`

	var p Product
	require.NoError(t, json.Unmarshal([]byte(in), &p))
	assert.Equal(t, 7, p.ID)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("549.99")))
	assert.True(t, p.HasSizes())
	g, ok := p.Sizes.(GenderedSizes)
	require.True(t, ok)
	assert.Equal(t, []string{"men", "women"}, g.Genders())

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"price":"549.99"`)
	assert.Contains(t, string(out), `"sizes":{"men":["9","10"],"women":["7"]}`)

	var plain Product
	require.NoError(t, json.Unmarshal([]byte(`{"id":2,"title":"Timepiece","price":"1299.99"}`), &plain))
	assert.Nil(t, plain.Sizes)
	assert.False(t, plain.HasSizes())
	out, err = json.Marshal(plain)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "sizes")
}

func TestProduct_UnmarshalRejectsBadSizes(t *testing.T) {
	var p Product
	err := json.Unmarshal([]byte(`{"id":3,"title":"x","price":1,"sizes":42}`), &p)
	assert.ErrorContains(t, err, "product 3")
}

func TestHasSizes_EmptyLists(t *testing.T) {
	assert.False(t, Product{Sizes: FlatSizes{}}.HasSizes())
	assert.False(t, Product{Sizes: GenderedSizes{}}.HasSizes())
}

func TestLineKey(t *testing.T) {
	hoodie := Product{ID: 1, Price: decimal.RequireFromString("299.99")}

	a := CartLine{Product: hoodie, Size: "M", CustomText: "ABC", Quantity: 1}
	b := CartLine{Product: hoodie, Size: "M", CustomText: "ABC", Quantity: 4}
	c := CartLine{Product: hoodie, Size: "M", CustomText: "XYZ", Quantity: 1}
	d := CartLine{Product: hoodie, Size: "M", Quantity: 1}

	assert.True(t, a.Key().Equal(b.Key()), "quantity is not part of the key")
	assert.False(t, a.Key().Equal(c.Key()))
	assert.False(t, a.Key().Equal(d.Key()), "absent text differs from present text")
	assert.True(t, d.Key().Equal(LineKey{ProductID: 1, Size: "M"}))
}

func TestSubtotalAndFormatPrice(t *testing.T) {
	line := CartLine{Product: Product{Price: decimal.RequireFromString("299.99")}, Quantity: 2}
	assert.Equal(t, "599.98", line.Subtotal().String())

	assert.Equal(t, "$599.98", FormatPrice(line.Subtotal()))
	assert.Equal(t, "$0.00", FormatPrice(decimal.Zero))
	assert.Equal(t, "$1299.99", FormatPrice(decimal.RequireFromString("1299.99")))
	assert.Equal(t, "$10.50", FormatPrice(decimal.RequireFromString("10.5")))
}
