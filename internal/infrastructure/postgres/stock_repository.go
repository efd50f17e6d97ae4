package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Precios-api/internal/domain"
	"github.com/jhoicas/Precios-api/internal/domain/entity"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
)

var _ repository.BranchStockRepository = (*BranchStockRepo)(nil)

// BranchStockRepo implementación de BranchStockRepository sobre PostgreSQL (usable con pool o tx).
type BranchStockRepo struct {
	q Querier
}

// NewBranchStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewBranchStockRepository(q Querier) *BranchStockRepo {
	return &BranchStockRepo{q: q}
}

const stockColumns = `id, product_id, branch_id, tenant_id, current_price, stock, min_stock, status, created_at, last_updated`

// Get obtiene el registro del producto en la sucursal; nil si no existe.
func (r *BranchStockRepo) Get(ctx context.Context, productID, branchID string) (*entity.BranchStock, error) {
	return r.get(ctx, `SELECT `+stockColumns+` FROM branch_stock WHERE product_id = $1 AND branch_id = $2`, productID, branchID)
}

// GetForUpdate obtiene el registro y bloquea la fila para update (SELECT FOR UPDATE).
func (r *BranchStockRepo) GetForUpdate(ctx context.Context, productID, branchID string) (*entity.BranchStock, error) {
	return r.get(ctx, `SELECT `+stockColumns+` FROM branch_stock WHERE product_id = $1 AND branch_id = $2 FOR UPDATE`, productID, branchID)
}

func (r *BranchStockRepo) get(ctx context.Context, query, productID, branchID string) (*entity.BranchStock, error) {
	s, err := scanStock(r.q.QueryRow(ctx, query, productID, branchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get branch stock: %w", err)
	}
	return s, nil
}

// Create da de alta el producto en la sucursal.
func (r *BranchStockRepo) Create(ctx context.Context, s *entity.BranchStock) error {
	query := `
		INSERT INTO branch_stock (id, product_id, branch_id, tenant_id, current_price, stock, min_stock, status, created_at, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.ProductID, s.BranchID, s.TenantID, s.CurrentPrice, s.Stock, s.MinStock, s.Status, s.CreatedAt, s.LastUpdated,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert branch stock: %w", err)
	}
	return nil
}

// Update persiste precio, stock, mínimo y estado. El CHECK (stock >= 0) de la tabla es la última barrera.
func (r *BranchStockRepo) Update(ctx context.Context, s *entity.BranchStock) error {
	query := `
		UPDATE branch_stock
		SET current_price = $3, stock = $4, min_stock = $5, status = $6, last_updated = $7
		WHERE product_id = $1 AND branch_id = $2`
	cmd, err := r.q.Exec(ctx, query, s.ProductID, s.BranchID, s.CurrentPrice, s.Stock, s.MinStock, s.Status, s.LastUpdated)
	if err != nil {
		return fmt.Errorf("update branch stock: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByBranch registros de la sucursal en orden de alta.
func (r *BranchStockRepo) ListByBranch(ctx context.Context, branchID string) ([]*entity.BranchStock, error) {
	rows, err := r.q.Query(ctx, `SELECT `+stockColumns+` FROM branch_stock WHERE branch_id = $1 ORDER BY created_at, id`, branchID)
	if err != nil {
		return nil, fmt.Errorf("list branch stock: %w", err)
	}
	defer rows.Close()

	var list []*entity.BranchStock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan branch stock: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func scanStock(row pgxScanner) (*entity.BranchStock, error) {
	var s entity.BranchStock
	err := row.Scan(
		&s.ID, &s.ProductID, &s.BranchID, &s.TenantID, &s.CurrentPrice,
		&s.Stock, &s.MinStock, &s.Status, &s.CreatedAt, &s.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
