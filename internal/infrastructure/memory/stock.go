package memory

import (
	"context"

	"github.com/jhoicas/Precios-api/internal/domain"
	"github.com/jhoicas/Precios-api/internal/domain/entity"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
)

var (
	_ repository.BranchStockRepository = (*StockRepo)(nil)
	_ repository.MovementRepository    = (*MovementRepo)(nil)
)

// StockRepo registros (producto, sucursal) en memoria.
type StockRepo struct{ db accessor }

func copyStock(s *entity.BranchStock) *entity.BranchStock {
	cp := *s
	return &cp
}

func (r *StockRepo) Get(ctx context.Context, productID, branchID string) (*entity.BranchStock, error) {
	var out *entity.BranchStock
	err := r.db.with(func(st *state) error {
		if s, ok := st.stock[stockKey{productID, branchID}]; ok {
			out = copyStock(s)
		}
		return nil
	})
	return out, err
}

// GetForUpdate equivale a Get: las transacciones en memoria ya son serializadas.
func (r *StockRepo) GetForUpdate(ctx context.Context, productID, branchID string) (*entity.BranchStock, error) {
	return r.Get(ctx, productID, branchID)
}

func (r *StockRepo) Create(ctx context.Context, stock *entity.BranchStock) error {
	return r.db.with(func(st *state) error {
		k := stockKey{stock.ProductID, stock.BranchID}
		if _, ok := st.stock[k]; ok {
			return domain.ErrDuplicate
		}
		st.stock[k] = copyStock(stock)
		st.stockOrder = append(st.stockOrder, k)
		return nil
	})
}

func (r *StockRepo) Update(ctx context.Context, stock *entity.BranchStock) error {
	return r.db.with(func(st *state) error {
		k := stockKey{stock.ProductID, stock.BranchID}
		if _, ok := st.stock[k]; !ok {
			return domain.ErrNotFound
		}
		st.stock[k] = copyStock(stock)
		return nil
	})
}

func (r *StockRepo) ListByBranch(ctx context.Context, branchID string) ([]*entity.BranchStock, error) {
	var out []*entity.BranchStock
	err := r.db.with(func(st *state) error {
		for _, k := range st.stockOrder {
			if k.branchID == branchID {
				out = append(out, copyStock(st.stock[k]))
			}
		}
		return nil
	})
	return out, err
}

// MovementRepo bitácora de movimientos en memoria.
type MovementRepo struct{ db accessor }

func (r *MovementRepo) Create(ctx context.Context, movement *entity.StockMovement) error {
	return r.db.with(func(st *state) error {
		cp := *movement
		st.movements = append(st.movements, &cp)
		return nil
	})
}

// ListByProduct más recientes primero.
func (r *MovementRepo) ListByProduct(ctx context.Context, productID, branchID string, limit int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	err := r.db.with(func(st *state) error {
		for i := len(st.movements) - 1; i >= 0; i-- {
			m := st.movements[i]
			if m.ProductID == productID && m.BranchID == branchID {
				cp := *m
				out = append(out, &cp)
			}
		}
		return nil
	})
	return paginate(out, limit, 0), err
}
