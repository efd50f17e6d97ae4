package memory

import (
	"context"
	"time"

	"github.com/jhoicas/Precios-api/internal/domain"
	"github.com/jhoicas/Precios-api/internal/domain/entity"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo libro de ventas en memoria (solo inserción).
type SaleRepo struct{ db accessor }

func copySale(s *entity.Sale) *entity.Sale {
	cp := *s
	cp.Items = append([]entity.SaleItem(nil), s.Items...)
	return &cp
}

func (r *SaleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	return r.db.with(func(st *state) error {
		k := saleKey{sale.TenantID, sale.BranchID, sale.ReceiptNo}
		if _, ok := st.sales[k]; ok {
			return domain.ErrDuplicateSale
		}
		if sale.IdempotencyKey != "" {
			for _, s := range st.sales {
				if s.TenantID == sale.TenantID && s.BranchID == sale.BranchID && s.IdempotencyKey == sale.IdempotencyKey {
					return domain.ErrDuplicateSale
				}
			}
		}
		st.sales[k] = copySale(sale)
		st.saleOrder = append(st.saleOrder, k)
		return nil
	})
}

func (r *SaleRepo) Get(ctx context.Context, tenantID, branchID, receiptNo string) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.db.with(func(st *state) error {
		if s, ok := st.sales[saleKey{tenantID, branchID, receiptNo}]; ok {
			out = copySale(s)
		}
		return nil
	})
	return out, err
}

func (r *SaleRepo) GetByIdempotencyKey(ctx context.Context, tenantID, branchID, key string) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.db.with(func(st *state) error {
		for _, s := range st.sales {
			if s.TenantID == tenantID && s.BranchID == branchID && s.IdempotencyKey == key {
				out = copySale(s)
				return nil
			}
		}
		return nil
	})
	return out, err
}

// ListByBranch más recientes primero; from/to en cero no filtran.
func (r *SaleRepo) ListByBranch(ctx context.Context, tenantID, branchID string, from, to time.Time, limit, offset int) ([]*entity.Sale, error) {
	var out []*entity.Sale
	err := r.db.with(func(st *state) error {
		for i := len(st.saleOrder) - 1; i >= 0; i-- {
			s := st.sales[st.saleOrder[i]]
			if s.TenantID != tenantID || s.BranchID != branchID {
				continue
			}
			if !from.IsZero() && s.CreatedAt.Before(from) {
				continue
			}
			if !to.IsZero() && !s.CreatedAt.Before(to) {
				continue
			}
			out = append(out, copySale(s))
		}
		return nil
	})
	return paginate(out, limit, offset), err
}

func (r *SaleRepo) DeleteBefore(ctx context.Context, tenantID string, before time.Time) (int64, error) {
	var n int64
	err := r.db.with(func(st *state) error {
		kept := st.saleOrder[:0:0]
		for _, k := range st.saleOrder {
			s := st.sales[k]
			if s.TenantID == tenantID && s.CreatedAt.Before(before) {
				delete(st.sales, k)
				n++
				continue
			}
			kept = append(kept, k)
		}
		st.saleOrder = kept
		return nil
	})
	return n, err
}
