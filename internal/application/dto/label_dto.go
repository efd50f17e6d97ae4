package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssignLabelRequest body para PUT /labels/:id/product.
type AssignLabelRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

// UpdateLocationRequest body para PUT /labels/:id/location.
type UpdateLocationRequest struct {
	Location string `json:"location" validate:"max=200"`
}

// ApplyDiscountRequest body para PUT /labels/:id/discount. El rango [1,100] se valida en el caso de uso.
type ApplyDiscountRequest struct {
	Percent int `json:"percent"`
}

// LayoutZone zona de la sucursal con sus posiciones de góndola.
type LayoutZone struct {
	Zone      string   `json:"zone" validate:"required,max=100"`
	Positions []string `json:"positions" validate:"required,min=1,dive,required,max=100"`
}

// ProvisionRequest alta masiva de etiquetas en blanco.
type ProvisionRequest struct {
	Layout []LayoutZone `json:"layout" validate:"required,min=1,dive"`
}

// ProvisionResponse Skipped=true si la sucursal ya tenía etiquetas.
type ProvisionResponse struct {
	Skipped bool            `json:"skipped"`
	Created int             `json:"created"`
	Labels  []LabelResponse `json:"labels,omitempty"`
}

// LabelResponse salida de una etiqueta. Sin producto los precios son null.
type LabelResponse struct {
	ID              string           `json:"id"`
	BranchID        string           `json:"branch_id"`
	LabelCode       string           `json:"label_code"`
	ProductID       *string          `json:"product_id"`
	BasePrice       *decimal.Decimal `json:"base_price"`
	FinalPrice      *decimal.Decimal `json:"final_price"`
	DiscountPercent *int             `json:"discount_percent"`
	Location        string           `json:"location"`
	Status          string           `json:"status"`
	CreatedAt       time.Time        `json:"created_at"`
	SyncedAt        *time.Time       `json:"synced_at"`
}

// LabelListResponse lista paginada de etiquetas.
type LabelListResponse struct {
	Items []LabelResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// LabelFailure fallo de una etiqueta dentro de una operación masiva.
type LabelFailure struct {
	LabelID   string `json:"label_id"`
	ProductID string `json:"product_id,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// ResyncReport resultado por etiqueta de una resincronización.
type ResyncReport struct {
	Attempted int            `json:"attempted"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Failures  []LabelFailure `json:"failures,omitempty"`
}

// AutoAssignPair resultado de un emparejamiento etiqueta-producto.
type AutoAssignPair struct {
	LabelID   string `json:"label_id"`
	ProductID string `json:"product_id"`
	OK        bool   `json:"ok"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
}

// AutoAssignResponse resumen del emparejamiento automático.
type AutoAssignResponse struct {
	Paired int              `json:"paired"`
	Failed int              `json:"failed"`
	Pairs  []AutoAssignPair `json:"pairs"`
}
