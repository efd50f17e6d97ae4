package repository

import (
	"context"

	"github.com/jhoicas/Precios-api/internal/domain/entity"
)

// SequenceRepository fila durable por (ámbito, contador) con escritura condicional.
type SequenceRepository interface {
	// Get devuelve nil, nil si el contador aún no existe.
	Get(ctx context.Context, scopeKey, counterName string) (*entity.SequenceCounter, error)
	// Insert crea el contador; false si otro proceso lo creó primero.
	Insert(ctx context.Context, counter *entity.SequenceCounter) (bool, error)
	// CompareAndSwap escribe next solo si el valor actual sigue siendo expected.
	CompareAndSwap(ctx context.Context, scopeKey, counterName string, expected, next int64) (bool, error)
}
