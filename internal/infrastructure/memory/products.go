package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/Precios-api/internal/domain"
	"github.com/jhoicas/Precios-api/internal/domain/entity"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo productos en memoria.
type ProductRepo struct{ db accessor }

func copyProduct(p *entity.Product) *entity.Product {
	cp := *p
	return &cp
}

// codeTaken replica los índices únicos de la tabla products más la colisión entre ámbitos.
func codeTaken(st *state, tenantID, branchID, sku, code, exceptID string) bool {
	for id, p := range st.products {
		if id == exceptID || p.TenantID != tenantID {
			continue
		}
		if branchID != "" && p.BranchID != "" && p.BranchID != branchID {
			continue
		}
		if (sku != "" && p.SKU == sku) || (code != "" && p.ProductCode == code) {
			return true
		}
	}
	return false
}

func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	return r.db.with(func(st *state) error {
		if _, ok := st.products[product.ID]; ok {
			return domain.ErrDuplicate
		}
		if codeTaken(st, product.TenantID, product.BranchID, product.SKU, product.ProductCode, "") {
			return domain.ErrDuplicateCode
		}
		st.products[product.ID] = copyProduct(product)
		st.productOrder = append(st.productOrder, product.ID)
		return nil
	})
}

func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.db.with(func(st *state) error {
		if p, ok := st.products[id]; ok {
			out = copyProduct(p)
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) CodeExists(ctx context.Context, tenantID, branchID, sku, productCode string) (bool, error) {
	var taken bool
	err := r.db.with(func(st *state) error {
		taken = codeTaken(st, tenantID, branchID, sku, productCode, "")
		return nil
	})
	return taken, err
}

func (r *ProductRepo) Update(ctx context.Context, product *entity.Product) error {
	return r.db.with(func(st *state) error {
		if _, ok := st.products[product.ID]; !ok {
			return domain.ErrNotFound
		}
		st.products[product.ID] = copyProduct(product)
		return nil
	})
}

// ListByTenant más recientes primero, igual que el adaptador SQL.
func (r *ProductRepo) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.db.with(func(st *state) error {
		for i := len(st.productOrder) - 1; i >= 0; i-- {
			p := st.products[st.productOrder[i]]
			if p.TenantID == tenantID {
				out = append(out, copyProduct(p))
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset), err
}
