package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Precios-api/internal/domain/pricing"
)

// Estados de una etiqueta.
const (
	LabelStatusActive   = "active"
	LabelStatusInactive = "inactive"
)

// PriceLabel es la proyección desnormalizada (producto, sucursal) que muestra el precio en
// góndola o pantalla. Sin producto asignado todos los campos de precio son nulos.
// Invariante: con DiscountPercent, FinalPrice = round2(BasePrice * (1 - p/100)); sin él, FinalPrice = BasePrice.
type PriceLabel struct {
	ID              string
	TenantID        string
	BranchID        string
	LabelCode       string
	ProductID       *string
	BasePrice       decimal.NullDecimal
	FinalPrice      decimal.NullDecimal
	DiscountPercent *int
	Location        string
	Status          string
	CreatedAt       time.Time
	SyncedAt        *time.Time
	// Version crece en cada escritura; Update solo guarda si coincide con la leída.
	Version int64
}

// IsAssigned indica si la etiqueta tiene producto.
func (l *PriceLabel) IsAssigned() bool {
	return l.ProductID != nil && *l.ProductID != ""
}

// Bind asigna el producto con su precio vigente y sin descuento.
func (l *PriceLabel) Bind(productID string, price decimal.Decimal, now time.Time) {
	pid := productID
	l.ProductID = &pid
	l.DiscountPercent = nil
	l.Reprice(price, now)
	l.Status = LabelStatusActive
}

// Unbind deja la etiqueta en blanco.
func (l *PriceLabel) Unbind(now time.Time) {
	l.ProductID = nil
	l.BasePrice = decimal.NullDecimal{}
	l.FinalPrice = decimal.NullDecimal{}
	l.DiscountPercent = nil
	l.Status = LabelStatusInactive
	l.SyncedAt = &now
}

// SetDiscount fija el porcentaje y recalcula el precio final sobre base.
func (l *PriceLabel) SetDiscount(base decimal.Decimal, percent int, now time.Time) {
	p := percent
	l.DiscountPercent = &p
	l.Reprice(base, now)
}

// ClearDiscount quita el porcentaje y deja FinalPrice = base.
func (l *PriceLabel) ClearDiscount(base decimal.Decimal, now time.Time) {
	l.DiscountPercent = nil
	l.Reprice(base, now)
}

// Reprice actualiza la base conservando el descuento actual (resincronización).
func (l *PriceLabel) Reprice(base decimal.Decimal, now time.Time) {
	l.BasePrice = decimal.NewNullDecimal(base)
	final := base
	if l.DiscountPercent != nil {
		final = pricing.ApplyPercent(base, *l.DiscountPercent)
	}
	l.FinalPrice = decimal.NewNullDecimal(final)
	l.SyncedAt = &now
}
