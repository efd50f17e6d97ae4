package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale registro inmutable de una venta (SaleLedger). ReceiptNo es su identificador dentro de la sucursal.
// Nunca se actualiza; solo se elimina administrativamente en bloque.
type Sale struct {
	ReceiptNo      string
	TenantID       string
	BranchID       string
	StaffID        string
	IdempotencyKey string
	Items          []SaleItem
	Subtotal       decimal.Decimal
	DiscountTotal  decimal.Decimal
	Total          decimal.Decimal
	CashReceived   decimal.Decimal
	Change         decimal.Decimal
	CreatedAt      time.Time
}

// SaleItem línea de la venta con precio base y final resueltos al momento del cobro.
type SaleItem struct {
	ProductID       string          `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Qty             int             `json:"qty"`
	BaseUnitPrice   decimal.Decimal `json:"base_unit_price"`
	FinalUnitPrice  decimal.Decimal `json:"final_unit_price"`
	DiscountPercent *int            `json:"discount_percent,omitempty"`
	LineTotal       decimal.Decimal `json:"line_total"`
}
