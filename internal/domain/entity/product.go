package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa la definición canónica de un producto del catálogo.
// BasePrice es el precio de respaldo cuando la sucursal no tiene precio propio.
// BranchID vacío = producto multi-sucursal (unicidad de códigos a nivel de empresa);
// con BranchID el producto se creó directamente en esa sucursal (unicidad por sucursal).
type Product struct {
	ID          string
	TenantID    string
	BranchID    string
	Name        string
	SKU         string // código único dentro del ámbito
	ProductCode string // <prefijo>-<empresa>-<consecutivo>
	Category    string
	BasePrice   decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate revisa las reglas mínimas de un producto antes de persistirlo.
func (p *Product) Validate() bool {
	if p.TenantID == "" || p.Name == "" {
		return false
	}
	return !p.BasePrice.IsNegative()
}
