package entity

import "time"

// Nombres de contador usados por el asignador de consecutivos.
const (
	CounterReceipt     = "receipt"
	CounterProductCode = "product_code"
	CounterSKU         = "sku"
	CounterLabel       = "label"
)

// SequenceCounter fila durable por (ámbito, contador). NextValue es el próximo entero a entregar.
type SequenceCounter struct {
	ScopeKey    string
	CounterName string
	NextValue   int64
	UpdatedAt   time.Time
}
