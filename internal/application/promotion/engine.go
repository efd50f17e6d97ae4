// Package promotion define promociones y las propaga a las etiquetas de góndola.
package promotion

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Precios-api/internal/application/dto"
	"github.com/jhoicas/Precios-api/internal/application/labels"
	"github.com/jhoicas/Precios-api/internal/domain"
	"github.com/jhoicas/Precios-api/internal/domain/entity"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
	"github.com/jhoicas/Precios-api/pkg/logger"
)

// LabelService operaciones de etiqueta que usa el motor (labels.UseCase).
type LabelService interface {
	ApplyDiscount(ctx context.Context, tenantID, labelID string, percent int) (*dto.LabelResponse, error)
	ClearDiscount(ctx context.Context, tenantID, labelID string) (*dto.LabelResponse, error)
	RunBatch(ctx context.Context, op string, list []*entity.PriceLabel, task labels.LabelTask) labels.BatchResult
}

// Engine CRUD de promociones y fan-out sobre etiquetas.
type Engine struct {
	repos  repository.Repos
	labels LabelService
	log    *logger.Logger
	now    func() time.Time
}

// NewEngine construye el motor.
func NewEngine(repos repository.Repos, labels LabelService, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{repos: repos, labels: labels, log: log.Named("promotion"), now: time.Now}
}

// Create valida y guarda una promoción nueva.
func (e *Engine) Create(ctx context.Context, tenantID string, in dto.CreatePromotionRequest) (*dto.PromotionResponse, error) {
	now := e.now()
	p := &entity.Promotion{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		Name:       strings.TrimSpace(in.Name),
		Type:       in.Type,
		Value:      in.Value,
		ApplyTo:    in.ApplyTo,
		ProductIDs: nonNil(in.ProductIDs),
		BranchIDs:  nonNil(in.BranchIDs),
		StartAt:    in.StartAt,
		EndAt:      in.EndAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := validate(p); err != nil {
		return nil, err
	}
	p.Status = p.DeriveStatus(now)
	if err := e.repos.Promotions.Create(ctx, p); err != nil {
		return nil, err
	}
	e.log.Info().Str("tenant_id", tenantID).Str("promotion_id", p.ID).Str("type", p.Type).Msg("promoción creada")
	return e.toResponse(p, now), nil
}

// Update parche; el tipo no se puede cambiar. Aplicarla de nuevo es responsabilidad del caller.
func (e *Engine) Update(ctx context.Context, tenantID, id string, in dto.UpdatePromotionRequest) (*dto.PromotionResponse, error) {
	p, err := e.load(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Value != nil {
		p.Value = *in.Value
	}
	if in.ApplyTo != nil {
		p.ApplyTo = *in.ApplyTo
	}
	if in.ProductIDs != nil {
		p.ProductIDs = in.ProductIDs
	}
	if in.BranchIDs != nil {
		p.BranchIDs = in.BranchIDs
	}
	if in.StartAt != nil {
		p.StartAt = *in.StartAt
	}
	if in.EndAt != nil {
		p.EndAt = *in.EndAt
	}
	if err := validate(p); err != nil {
		return nil, err
	}
	now := e.now()
	p.Status = p.DeriveStatus(now)
	p.UpdatedAt = now
	if err := e.repos.Promotions.Update(ctx, p); err != nil {
		return nil, err
	}
	return e.toResponse(p, now), nil
}

// Get obtiene una promoción con el estado calculado ahora.
func (e *Engine) Get(ctx context.Context, tenantID, id string) (*dto.PromotionResponse, error) {
	p, err := e.load(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return e.toResponse(p, e.now()), nil
}

// List promociones de la empresa.
func (e *Engine) List(ctx context.Context, tenantID string, limit, offset int) (*dto.PromotionListResponse, error) {
	list, err := e.repos.Promotions.ListByTenant(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	now := e.now()
	items := make([]dto.PromotionResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *e.toResponse(p, now))
	}
	return &dto.PromotionListResponse{Items: items, Page: dto.PageResponse{Limit: limit, Offset: offset}}, nil
}

func validate(p *entity.Promotion) error {
	if p.Name == "" || p.TenantID == "" {
		return domain.ErrInvalidInput
	}
	switch p.Type {
	case entity.PromotionTypePercentage:
		if _, ok := p.PercentValue(); !ok {
			return domain.ErrInvalidPercent
		}
	case entity.PromotionTypeFixed:
		if !p.Value.IsPositive() {
			return domain.ErrInvalidInput
		}
	case entity.PromotionTypeBOGO:
		if p.Value.IsNegative() {
			return domain.ErrInvalidInput
		}
	default:
		return domain.ErrInvalidInput
	}
	if p.ApplyTo != entity.PromotionApplyAll && p.ApplyTo != entity.PromotionApplySelected {
		return domain.ErrInvalidInput
	}
	if p.StartAt.IsZero() || !p.EndAt.After(p.StartAt) {
		return domain.ErrInvalidInput
	}
	return nil
}

func (e *Engine) load(ctx context.Context, tenantID, id string) (*entity.Promotion, error) {
	p, err := e.repos.Promotions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || p.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (e *Engine) toResponse(p *entity.Promotion, now time.Time) *dto.PromotionResponse {
	return &dto.PromotionResponse{
		ID:            p.ID,
		Name:          p.Name,
		Type:          p.Type,
		Value:         p.Value,
		ApplyTo:       p.ApplyTo,
		ProductIDs:    nonNil(p.ProductIDs),
		BranchIDs:     nonNil(p.BranchIDs),
		StartAt:       p.StartAt,
		EndAt:         p.EndAt,
		Status:        p.DeriveStatus(now),
		LastAppliedAt: p.LastAppliedAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
