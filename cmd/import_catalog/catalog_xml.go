package main

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/Precios-api/internal/application/dto"
)

// catalogo exportación del POS anterior. Los archivos suelen venir en ISO-8859-1.
type catalogo struct {
	Productos []producto `xml:"producto"`
}

type producto struct {
	Nombre     string `xml:"nombre,attr"`
	SKU        string `xml:"sku,attr"`
	Codigo     string `xml:"codigo,attr"`
	Categoria  string `xml:"categoria,attr"`
	Precio     string `xml:"precio,attr"`
	Sucursal   string `xml:"sucursal,attr"`
	Existencia struct {
		Cantidad int `xml:"cantidad,attr"`
		Minimo   int `xml:"minimo,attr"`
	} `xml:"existencia"`
}

// parseCatalog decodifica el XML y lo convierte en solicitudes de alta.
// Filas sin nombre se descartan; un precio ilegible es error para no importar datos corruptos.
func parseCatalog(r io.Reader) ([]dto.CreateProductRequest, error) {
	var c catalogo
	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		if strings.EqualFold(charset, "ISO-8859-1") || strings.EqualFold(charset, "ISO8859-1") {
			return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
		}
		if strings.EqualFold(charset, "windows-1252") {
			return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
		}
		return input, nil
	}
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decodificar XML: %w", err)
	}

	out := make([]dto.CreateProductRequest, 0, len(c.Productos))
	for i, p := range c.Productos {
		name := strings.TrimSpace(p.Nombre)
		if name == "" {
			continue
		}
		price := decimal.Zero
		if raw := strings.TrimSpace(p.Precio); raw != "" {
			d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
			if err != nil {
				return nil, fmt.Errorf("producto %d (%s): precio %q inválido", i+1, name, raw)
			}
			price = d
		}
		req := dto.CreateProductRequest{
			Name:        name,
			SKU:         strings.TrimSpace(p.SKU),
			ProductCode: strings.TrimSpace(p.Codigo),
			Category:    strings.TrimSpace(p.Categoria),
			BasePrice:   price,
		}
		if branch := strings.TrimSpace(p.Sucursal); branch != "" {
			req.Stock = &dto.IntroduceRequest{
				BranchID:     branch,
				Stock:        p.Existencia.Cantidad,
				MinStock:     p.Existencia.Minimo,
				CurrentPrice: price,
			}
		}
		out = append(out, req)
	}
	return out, nil
}
