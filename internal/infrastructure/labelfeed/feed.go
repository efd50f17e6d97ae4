// Package labelfeed genera el feed XML que consumen las etiquetas electrónicas de góndola.
package labelfeed

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/Precios-api/internal/application/labels"
)

// Namespace del feed.
const Namespace = "urn:pricesync:shelf-labels:1"

var _ labels.FeedRenderer = (*Renderer)(nil)

// Renderer implementa labels.FeedRenderer.
type Renderer struct {
	Indent int
}

// NewRenderer crea el renderer con indentación de 2 espacios.
func NewRenderer() *Renderer {
	return &Renderer{Indent: 2}
}

// Build arma el documento. Solo incluye etiquetas con producto.
func (r *Renderer) Build(branchID string, entries []labels.FeedEntry) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("shelfLabels")
	root.CreateAttr("xmlns", Namespace)
	root.CreateAttr("branch", branchID)

	count := 0
	for _, e := range entries {
		l := e.Label
		if l == nil || !l.IsAssigned() {
			continue
		}
		count++
		el := root.CreateElement("label")
		el.CreateAttr("id", l.ID)
		el.CreateAttr("code", l.LabelCode)
		el.CreateAttr("status", l.Status)

		el.CreateElement("location").SetText(l.Location)

		p := el.CreateElement("product")
		p.CreateAttr("id", *l.ProductID)
		if e.SKU != "" {
			p.CreateAttr("sku", e.SKU)
		}
		p.SetText(e.ProductName)

		price := el.CreateElement("price")
		if l.BasePrice.Valid {
			price.CreateAttr("base", l.BasePrice.Decimal.StringFixed(2))
		}
		if l.FinalPrice.Valid {
			price.CreateAttr("final", l.FinalPrice.Decimal.StringFixed(2))
		}
		if l.DiscountPercent != nil {
			price.CreateAttr("discount", strconv.Itoa(*l.DiscountPercent))
		}
		if l.SyncedAt != nil {
			el.CreateElement("syncedAt").SetText(l.SyncedAt.UTC().Format(time.RFC3339))
		}
	}
	root.CreateAttr("count", strconv.Itoa(count))
	return doc
}

// Render serializa el documento en UTF-8.
func (r *Renderer) Render(branchID string, entries []labels.FeedEntry) ([]byte, error) {
	doc := r.Build(branchID, entries)
	if r.Indent > 0 {
		doc.Indent(r.Indent)
	}
	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("labelfeed: escribir XML: %w", err)
	}
	return out.Bytes(), nil
}

// Digest SHA-256 (hex) de la forma canónica C14N del documento; se usa como ETag.
func (r *Renderer) Digest(doc []byte) (string, error) {
	canonical, err := canonicalize(doc)
	if err != nil {
		return "", fmt.Errorf("labelfeed: canonicalizar: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// EncodeLatin1 convierte el feed a ISO-8859-1. Los caracteres fuera del juego se escriben
// como referencias numéricas (&#NNN;), que siguen siendo XML válido.
func (r *Renderer) EncodeLatin1(doc []byte) ([]byte, error) {
	decl := []byte(`encoding="UTF-8"`)
	doc = bytes.Replace(doc, decl, []byte(`encoding="ISO-8859-1"`), 1)
	enc := encoding.HTMLEscapeUnsupported(charmap.ISO8859_1.NewEncoder())
	out, _, err := transform.Bytes(enc, doc)
	if err != nil {
		return nil, fmt.Errorf("labelfeed: codificar latin1: %w", err)
	}
	return out, nil
}

func canonicalize(data []byte) ([]byte, error) {
	// la declaración XML no forma parte de la forma canónica
	data = bytes.TrimSpace(data)
	if bytes.HasPrefix(data, []byte("<?xml")) {
		if end := bytes.Index(data, []byte("?>")); end >= 0 {
			data = data[end+2:]
		}
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}
