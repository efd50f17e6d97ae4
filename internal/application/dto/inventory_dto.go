package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdjustStockRequest body para POST .../adjust. Delta negativo = salida.
type AdjustStockRequest struct {
	Delta     int    `json:"delta" validate:"required"`
	Reference string `json:"reference" validate:"omitempty,max=200"`
}

// SetStockRequest body para PUT .../quantity (conteo físico).
type SetStockRequest struct {
	Stock     int    `json:"stock"`
	Reference string `json:"reference" validate:"omitempty,max=200"`
}

// SetPriceRequest body para PUT .../price. 0 elimina el precio propio de la sucursal.
type SetPriceRequest struct {
	Price decimal.Decimal `json:"price"`
}

// SetMinStockRequest body para PUT .../min-stock.
type SetMinStockRequest struct {
	MinStock int `json:"min_stock" validate:"min=0"`
}

// StockResponse precio vigente y stock de un producto en una sucursal.
type StockResponse struct {
	ProductID      string          `json:"product_id"`
	BranchID       string          `json:"branch_id"`
	ProductName    string          `json:"product_name,omitempty"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	EffectivePrice decimal.Decimal `json:"effective_price"`
	Stock          int             `json:"stock"`
	MinStock       int             `json:"min_stock"`
	Status         string          `json:"status"`
	LastUpdated    time.Time       `json:"last_updated"`
}

// SetPriceResponse el precio queda escrito aunque la resincronización de etiquetas falle.
type SetPriceResponse struct {
	Stock       StockResponse `json:"stock"`
	LabelResync *ResyncReport `json:"label_resync"`
}

// MovementResponse movimiento de stock (auditoría).
type MovementResponse struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transaction_id"`
	Type          string    `json:"type"`
	Quantity      int       `json:"quantity"`
	StockBefore   int       `json:"stock_before"`
	StockAfter    int       `json:"stock_after"`
	Reference     string    `json:"reference,omitempty"`
	CreatedBy     string    `json:"created_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ReplenishmentSuggestion sugerencia de reposición para un producto bajo su mínimo.
type ReplenishmentSuggestion struct {
	ProductID    string `json:"product_id"`
	SKU          string `json:"sku"`
	ProductName  string `json:"product_name"`
	CurrentStock int    `json:"current_stock"`
	MinStock     int    `json:"min_stock"`
	IdealStock   int    `json:"ideal_stock"`   // MinStock * 1.5, redondeado hacia arriba
	SuggestedQty int    `json:"suggested_qty"` // IdealStock - CurrentStock
	Status       string `json:"status"`
	Priority     int    `json:"priority"` // 1 = más urgente
}
