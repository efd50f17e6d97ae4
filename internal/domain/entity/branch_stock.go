package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de stock de una sucursal. Son función pura de Stock y MinStock.
const (
	StockStatusInStock    = "in-stock"
	StockStatusLowStock   = "low-stock"
	StockStatusOutOfStock = "out-of-stock"
)

// BranchStock es el registro por (producto, sucursal): precio propio de la sucursal y
// stock autoritativo. Es el único lugar donde se muta el stock.
type BranchStock struct {
	ID           string
	ProductID    string
	BranchID     string
	TenantID     string
	CurrentPrice decimal.Decimal // 0 = sin precio propio, aplica el BasePrice del catálogo
	Stock        int
	MinStock     int
	Status       string
	CreatedAt    time.Time
	LastUpdated  time.Time
}

// StockStatus deriva el estado: out-of-stock si stock <= 0, low-stock si 0 < stock <= minStock.
func StockStatus(stock, minStock int) string {
	switch {
	case stock <= 0:
		return StockStatusOutOfStock
	case stock <= minStock:
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}

// Touch recalcula el estado y sella LastUpdated. Debe llamarse tras toda mutación.
func (s *BranchStock) Touch(now time.Time) {
	s.Status = StockStatus(s.Stock, s.MinStock)
	s.LastUpdated = now
}

// HasPriceOverride indica si la sucursal define precio propio.
func (s *BranchStock) HasPriceOverride() bool {
	return s != nil && s.CurrentPrice.IsPositive()
}

// EffectivePrice resuelve el precio vigente: el de la sucursal si existe, si no el del catálogo.
// stock puede ser nil (producto sin registro en la sucursal).
func EffectivePrice(product *Product, stock *BranchStock) decimal.Decimal {
	if stock.HasPriceOverride() {
		return stock.CurrentPrice
	}
	if product == nil {
		return decimal.Zero
	}
	return product.BasePrice
}
