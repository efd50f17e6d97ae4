package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreatePromotionRequest entrada para crear una promoción.
type CreatePromotionRequest struct {
	Name       string          `json:"name" validate:"required,min=1,max=200"`
	Type       string          `json:"type" validate:"required,oneof=percentage fixed bogo"`
	Value      decimal.Decimal `json:"value"`
	ApplyTo    string          `json:"apply_to" validate:"required,oneof=all selected"`
	ProductIDs []string        `json:"product_ids"`
	BranchIDs  []string        `json:"branch_ids"`
	StartAt    time.Time       `json:"start_at" validate:"required"`
	EndAt      time.Time       `json:"end_at" validate:"required"`
}

// UpdatePromotionRequest parche de una promoción.
type UpdatePromotionRequest struct {
	Name       *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Value      *decimal.Decimal `json:"value"`
	ApplyTo    *string          `json:"apply_to" validate:"omitempty,oneof=all selected"`
	ProductIDs []string         `json:"product_ids"`
	BranchIDs  []string         `json:"branch_ids"`
	StartAt    *time.Time       `json:"start_at"`
	EndAt      *time.Time       `json:"end_at"`
}

// PromotionResponse salida de una promoción. Status se calcula al momento de la lectura.
type PromotionResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Type          string          `json:"type"`
	Value         decimal.Decimal `json:"value"`
	ApplyTo       string          `json:"apply_to"`
	ProductIDs    []string        `json:"product_ids"`
	BranchIDs     []string        `json:"branch_ids"`
	StartAt       time.Time       `json:"start_at"`
	EndAt         time.Time       `json:"end_at"`
	Status        string          `json:"status"`
	LastAppliedAt *time.Time      `json:"last_applied_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// PromotionListResponse lista paginada de promociones.
type PromotionListResponse struct {
	Items []PromotionResponse `json:"items"`
	Page  PageResponse        `json:"page"`
}

// FanoutReport resultado de aplicar o revertir una promoción sobre etiquetas.
// Skipped solo se usa al revertir (etiquetas con otro descuento).
type FanoutReport struct {
	PromotionID string         `json:"promotion_id"`
	Attempted   int            `json:"attempted"`
	Succeeded   int            `json:"succeeded"`
	Failed      int            `json:"failed"`
	Skipped     int            `json:"skipped"`
	Failures    []LabelFailure `json:"failures,omitempty"`
}
