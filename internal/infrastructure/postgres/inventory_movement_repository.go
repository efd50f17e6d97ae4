package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/Precios-api/internal/domain/entity"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo bitácora de movimientos de stock sobre PostgreSQL (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create persiste un movimiento.
func (r *MovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (id, transaction_id, tenant_id, product_id, branch_id, type, quantity, stock_before, stock_after, reference, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.TransactionID, m.TenantID, m.ProductID, m.BranchID, m.Type,
		m.Quantity, m.StockBefore, m.StockAfter, m.Reference, m.CreatedAt, nullable(m.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// ListByProduct últimos movimientos del producto en la sucursal, más recientes primero.
func (r *MovementRepo) ListByProduct(ctx context.Context, productID, branchID string, limit int) ([]*entity.StockMovement, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, transaction_id, tenant_id, product_id, branch_id, type, quantity, stock_before, stock_after, reference, created_at, created_by
		FROM stock_movements
		WHERE product_id = $1 AND branch_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3`
	rows, err := r.q.Query(ctx, query, productID, branchID, limit)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()

	var list []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		var createdBy *string
		if err := rows.Scan(
			&m.ID, &m.TransactionID, &m.TenantID, &m.ProductID, &m.BranchID, &m.Type,
			&m.Quantity, &m.StockBefore, &m.StockAfter, &m.Reference, &m.CreatedAt, &createdBy,
		); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		m.CreatedBy = deref(createdBy)
		list = append(list, &m)
	}
	return list, rows.Err()
}
