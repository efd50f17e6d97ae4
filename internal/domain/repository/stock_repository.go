package repository

import (
	"context"

	"github.com/jhoicas/Precios-api/internal/domain/entity"
)

// BranchStockRepository define el puerto para el registro de stock/precio por (producto, sucursal).
// Usado dentro de transacciones para garantizar consistencia.
type BranchStockRepository interface {
	// Get devuelve nil, nil si el producto no fue dado de alta en la sucursal.
	Get(ctx context.Context, productID, branchID string) (*entity.BranchStock, error)
	// GetForUpdate bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, productID, branchID string) (*entity.BranchStock, error)
	Create(ctx context.Context, stock *entity.BranchStock) error
	Update(ctx context.Context, stock *entity.BranchStock) error
	// ListByBranch en orden de alta (created_at, id).
	ListByBranch(ctx context.Context, branchID string) ([]*entity.BranchStock, error)
}

// MovementRepository registro inmutable de movimientos de stock.
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	ListByProduct(ctx context.Context, productID, branchID string, limit int) ([]*entity.StockMovement, error)
}
