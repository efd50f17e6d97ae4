package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto.
// SKU y ProductCode son opcionales: si faltan se generan con el asignador de consecutivos.
// BranchID vacío = producto de empresa; con BranchID los códigos son únicos por sucursal.
type CreateProductRequest struct {
	Name        string            `json:"name" validate:"required,min=1,max=200"`
	SKU         string            `json:"sku" validate:"omitempty,max=100"`
	ProductCode string            `json:"product_code" validate:"omitempty,max=100"`
	Category    string            `json:"category" validate:"omitempty,max=100"`
	BasePrice   decimal.Decimal   `json:"base_price"`
	BranchID    string            `json:"branch_id,omitempty"`
	Stock       *IntroduceRequest `json:"stock,omitempty"`
}

// UpdateProductRequest parche de un producto. Stock y precio por sucursal no se tocan aquí.
type UpdateProductRequest struct {
	Name      *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Category  *string          `json:"category" validate:"omitempty,max=100"`
	BasePrice *decimal.Decimal `json:"base_price"`
}

// IntroduceRequest alta de un producto en una sucursal (registro de stock y precio propio).
type IntroduceRequest struct {
	BranchID     string          `json:"branch_id" validate:"required"`
	Stock        int             `json:"stock" validate:"min=0"`
	MinStock     int             `json:"min_stock" validate:"min=0"`
	CurrentPrice decimal.Decimal `json:"current_price"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"tenant_id"`
	BranchID    string          `json:"branch_id,omitempty"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku"`
	ProductCode string          `json:"product_code"`
	Category    string          `json:"category"`
	BasePrice   decimal.Decimal `json:"base_price"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Stock       *StockResponse  `json:"stock,omitempty"`
	// LabelResync resultado de resincronizar etiquetas tras cambiar el precio base.
	LabelResync *ResyncReport `json:"label_resync,omitempty"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
