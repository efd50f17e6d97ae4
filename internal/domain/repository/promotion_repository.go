package repository

import (
	"context"

	"github.com/jhoicas/Precios-api/internal/domain/entity"
)

// PromotionRepository puerto de persistencia para Promotion.
type PromotionRepository interface {
	Create(ctx context.Context, promotion *entity.Promotion) error
	GetByID(ctx context.Context, id string) (*entity.Promotion, error)
	Update(ctx context.Context, promotion *entity.Promotion) error
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Promotion, error)
}
