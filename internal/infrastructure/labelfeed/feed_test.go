package labelfeed

import (
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Precios-api/internal/application/labels"
	"github.com/jhoicas/Precios-api/internal/domain/entity"
)

func sampleEntries() []labels.FeedEntry {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	bound := &entity.PriceLabel{ID: "l1", BranchID: "b1", LabelCode: "LBL-000001", Location: "Lácteos / A1"}
	bound.Bind("p1", decimal.RequireFromString("25.00"), now)
	bound.SetDiscount(decimal.RequireFromString("25.00"), 10, now)

	blank := &entity.PriceLabel{ID: "l2", BranchID: "b1", LabelCode: "LBL-000002"}
	return []labels.FeedEntry{
		{Label: bound, ProductName: "Café molido ñandú", SKU: "SKU-000001"},
		{Label: blank},
	}
}

func TestRender_SkipsBlankLabels(t *testing.T) {
	r := NewRenderer()
	body, err := r.Render("b1", sampleEntries())
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(body))
	root := doc.SelectElement("shelfLabels")
	require.NotNil(t, root)
	assert.Equal(t, "1", root.SelectAttrValue("count", ""))
	assert.Equal(t, "b1", root.SelectAttrValue("branch", ""))

	items := root.SelectElements("label")
	require.Len(t, items, 1)
	price := items[0].SelectElement("price")
	require.NotNil(t, price)
	assert.Equal(t, "25.00", price.SelectAttrValue("base", ""))
	assert.Equal(t, "22.50", price.SelectAttrValue("final", ""))
	assert.Equal(t, "10", price.SelectAttrValue("discount", ""))
	assert.Equal(t, "Café molido ñandú", items[0].SelectElement("product").Text())
}

func TestDigest_StableAndContentSensitive(t *testing.T) {
	r := NewRenderer()
	entries := sampleEntries()
	body, err := r.Render("b1", entries)
	require.NoError(t, err)

	d1, err := r.Digest(body)
	require.NoError(t, err)
	d2, err := r.Digest(body)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 64)

	entries[0].Label.SetDiscount(decimal.RequireFromString("25.00"), 20, *entries[0].Label.SyncedAt)
	changed, err := r.Render("b1", entries)
	require.NoError(t, err)
	d3, err := r.Digest(changed)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3)
}

func TestEncodeLatin1(t *testing.T) {
	r := NewRenderer()
	body, err := r.Render("b1", sampleEntries())
	require.NoError(t, err)

	out, err := r.EncodeLatin1(body)
	require.NoError(t, err)
	s := string(out)
	assert.True(t, strings.Contains(s, `encoding="ISO-8859-1"`))
	// "é" (U+00E9) es un solo byte 0xE9 en latin1
	assert.Contains(t, s, "Caf\xe9")
	assert.NotContains(t, s, "Café")
}

func TestEncodeLatin1_EscapesUnsupported(t *testing.T) {
	out, err := NewRenderer().EncodeLatin1([]byte(`<?xml version="1.0" encoding="UTF-8"?><a>€</a>`))
	require.NoError(t, err)
	assert.Contains(t, string(out), "&#8364;")
}
