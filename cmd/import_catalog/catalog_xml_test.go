package main

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCatalog_Latin1(t *testing.T) {
	raw := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		"<catalogo>" +
		"<producto nombre=\"Pi\xf1a golden\" sku=\"PIN-1\" categoria=\"Frutas\" precio=\"4,50\" sucursal=\"b1\">" +
		"<existencia cantidad=\"12\" minimo=\"3\"/></producto>" +
		"<producto nombre=\"Caf\xe9 molido\" precio=\"10\"/>" +
		"<producto nombre=\"  \" precio=\"1\"/>" +
		"</catalogo>"

	items, err := parseCatalog(strings.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Piña golden", items[0].Name)
	assert.Equal(t, "PIN-1", items[0].SKU)
	assert.True(t, decimal.RequireFromString("4.50").Equal(items[0].BasePrice))
	require.NotNil(t, items[0].Stock)
	assert.Equal(t, "b1", items[0].Stock.BranchID)
	assert.Equal(t, 12, items[0].Stock.Stock)
	assert.Equal(t, 3, items[0].Stock.MinStock)

	assert.Equal(t, "Café molido", items[1].Name)
	assert.Empty(t, items[1].SKU)
	assert.Nil(t, items[1].Stock)
}

func TestParseCatalog_InvalidPrice(t *testing.T) {
	raw := `<catalogo><producto nombre="Leche" precio="abc"/></catalogo>`
	_, err := parseCatalog(strings.NewReader(raw))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Leche")
}

func TestParseCatalog_Malformed(t *testing.T) {
	_, err := parseCatalog(strings.NewReader("<catalogo><producto"))
	require.Error(t, err)
}
