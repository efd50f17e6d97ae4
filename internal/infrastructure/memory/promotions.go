package memory

import (
	"context"

	"github.com/jhoicas/Precios-api/internal/domain"
	"github.com/jhoicas/Precios-api/internal/domain/entity"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
)

var _ repository.PromotionRepository = (*PromotionRepo)(nil)

// PromotionRepo promociones en memoria.
type PromotionRepo struct{ db accessor }

func copyPromotion(p *entity.Promotion) *entity.Promotion {
	cp := *p
	cp.ProductIDs = append([]string(nil), p.ProductIDs...)
	cp.BranchIDs = append([]string(nil), p.BranchIDs...)
	return &cp
}

func (r *PromotionRepo) Create(ctx context.Context, promotion *entity.Promotion) error {
	return r.db.with(func(st *state) error {
		if _, ok := st.promotions[promotion.ID]; ok {
			return domain.ErrDuplicate
		}
		st.promotions[promotion.ID] = copyPromotion(promotion)
		st.promoOrder = append(st.promoOrder, promotion.ID)
		return nil
	})
}

func (r *PromotionRepo) GetByID(ctx context.Context, id string) (*entity.Promotion, error) {
	var out *entity.Promotion
	err := r.db.with(func(st *state) error {
		if p, ok := st.promotions[id]; ok {
			out = copyPromotion(p)
		}
		return nil
	})
	return out, err
}

func (r *PromotionRepo) Update(ctx context.Context, promotion *entity.Promotion) error {
	return r.db.with(func(st *state) error {
		if _, ok := st.promotions[promotion.ID]; !ok {
			return domain.ErrNotFound
		}
		st.promotions[promotion.ID] = copyPromotion(promotion)
		return nil
	})
}

func (r *PromotionRepo) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Promotion, error) {
	var out []*entity.Promotion
	err := r.db.with(func(st *state) error {
		for i := len(st.promoOrder) - 1; i >= 0; i-- {
			p := st.promotions[st.promoOrder[i]]
			if p.TenantID == tenantID {
				out = append(out, copyPromotion(p))
			}
		}
		return nil
	})
	return paginate(out, limit, offset), err
}
