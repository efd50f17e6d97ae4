package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutItem línea del carrito.
type CheckoutItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Qty       int    `json:"qty" validate:"min=1,max=100000"`
}

// CheckoutRequest body para POST /branches/:branchId/checkout.
// IdempotencyKey evita cobrar dos veces el mismo carrito ante reintentos del cliente.
type CheckoutRequest struct {
	Items          []CheckoutItem  `json:"items" validate:"required,min=1,dive"`
	CashReceived   decimal.Decimal `json:"cash_received"`
	IdempotencyKey string          `json:"idempotency_key" validate:"omitempty,max=100"`
}

// SaleItemResponse línea de una venta.
type SaleItemResponse struct {
	ProductID       string          `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Qty             int             `json:"qty"`
	BaseUnitPrice   decimal.Decimal `json:"base_unit_price"`
	FinalUnitPrice  decimal.Decimal `json:"final_unit_price"`
	DiscountPercent *int            `json:"discount_percent,omitempty"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

// SaleResponse recibo de una venta.
type SaleResponse struct {
	ReceiptNo      string             `json:"receipt_no"`
	BranchID       string             `json:"branch_id"`
	StaffID        string             `json:"staff_id"`
	IdempotencyKey string             `json:"idempotency_key,omitempty"`
	Items          []SaleItemResponse `json:"items"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	DiscountTotal  decimal.Decimal    `json:"discount_total"`
	Total          decimal.Decimal    `json:"total"`
	CashReceived   decimal.Decimal    `json:"cash_received"`
	Change         decimal.Decimal    `json:"change"`
	CreatedAt      time.Time          `json:"created_at"`
}

// SaleListResponse lista paginada de ventas.
type SaleListResponse struct {
	Items []SaleResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// DeleteSalesResponse resultado del borrado administrativo.
type DeleteSalesResponse struct {
	Deleted int64 `json:"deleted"`
}
