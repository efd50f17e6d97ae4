package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de promoción. Solo percentage se propaga a etiquetas.
const (
	PromotionTypePercentage = "percentage"
	PromotionTypeFixed      = "fixed"
	PromotionTypeBOGO       = "bogo"
)

// Alcance de una promoción.
const (
	PromotionApplyAll      = "all"
	PromotionApplySelected = "selected"
)

// Estados derivados de la ventana [StartAt, EndAt).
const (
	PromotionStatusUpcoming = "upcoming"
	PromotionStatusActive   = "active"
	PromotionStatusExpired  = "expired"
)

// Promotion definición de descuento con ventana de vigencia y alcance.
// Status es una foto del último cálculo; la verdad se obtiene con DeriveStatus(now).
type Promotion struct {
	ID            string
	TenantID      string
	Name          string
	Type          string
	Value         decimal.Decimal
	ApplyTo       string
	ProductIDs    []string
	BranchIDs     []string
	StartAt       time.Time
	EndAt         time.Time
	Status        string
	LastAppliedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DeriveStatus upcoming (now < start) → active (start <= now < end) → expired (now >= end).
func (p *Promotion) DeriveStatus(now time.Time) string {
	switch {
	case now.Before(p.StartAt):
		return PromotionStatusUpcoming
	case now.Before(p.EndAt):
		return PromotionStatusActive
	default:
		return PromotionStatusExpired
	}
}

// PercentValue devuelve el valor como porcentaje entero y si es válido para etiquetas.
func (p *Promotion) PercentValue() (int, bool) {
	if !p.Value.IsInteger() {
		return 0, false
	}
	v := p.Value.IntPart()
	if v < 1 || v > 100 {
		return 0, false
	}
	return int(v), true
}

// Matches indica si la etiqueta (producto, sucursal) está en el alcance.
// Con "selected", listas vacías significan ningún candidato.
func (p *Promotion) Matches(productID, branchID string) bool {
	if productID == "" {
		return false
	}
	if p.ApplyTo == PromotionApplyAll {
		return true
	}
	return contains(p.ProductIDs, productID) && contains(p.BranchIDs, branchID)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
