package entity

import "time"

// Tipos de movimiento de stock.
const (
	MovementTypeAdjustment = "ADJUSTMENT" // ajuste por delta
	MovementTypeSet        = "SET"        // conteo físico / fijar valor
	MovementTypeSale       = "SALE"       // salida por venta
	MovementTypeInitial    = "INITIAL"    // alta del producto en la sucursal
)

// StockMovement registro inmutable de cada cambio de stock (auditoría).
// TransactionID agrupa los movimientos de una misma operación (ej. el recibo de la venta).
type StockMovement struct {
	ID            string
	TransactionID string
	TenantID      string
	ProductID     string
	BranchID      string
	Type          string
	Quantity      int // positivo entrada, negativo salida
	StockBefore   int
	StockAfter    int
	Reference     string
	CreatedAt     time.Time
	CreatedBy     string
}
