package promotion

import (
	"context"
	"time"

	"github.com/jhoicas/Precios-api/internal/application/dto"
	"github.com/jhoicas/Precios-api/internal/domain"
	"github.com/jhoicas/Precios-api/internal/domain/entity"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
)

// ApplyToLabels aplica el porcentaje a cada etiqueta candidata de forma independiente.
// Sobrescribe cualquier descuento previo. Solo promociones percentage y vigentes.
func (e *Engine) ApplyToLabels(ctx context.Context, tenantID, promotionID string) (*dto.FanoutReport, error) {
	p, err := e.load(ctx, tenantID, promotionID)
	if err != nil {
		return nil, err
	}
	now := e.now()
	if p.DeriveStatus(now) != entity.PromotionStatusActive {
		return nil, domain.ErrPromotionWindowClosed
	}
	if p.Type != entity.PromotionTypePercentage {
		return nil, domain.ErrUnsupportedPromotion
	}
	percent, ok := p.PercentValue()
	if !ok {
		return nil, domain.ErrInvalidPercent
	}

	candidates, err := e.candidates(ctx, p)
	if err != nil {
		return nil, err
	}
	res := e.labels.RunBatch(ctx, "promotion_apply", candidates, func(ctx context.Context, l *entity.PriceLabel) (bool, error) {
		if _, err := e.labels.ApplyDiscount(ctx, tenantID, l.ID, percent); err != nil {
			return false, err
		}
		return true, nil
	})
	report := &dto.FanoutReport{
		PromotionID: p.ID,
		Attempted:   res.Attempted,
		Succeeded:   res.Succeeded,
		Failed:      res.Failed,
		Skipped:     res.Skipped,
		Failures:    res.Failures,
	}
	e.stamp(ctx, p, now)
	e.log.Info().
		Str("tenant_id", tenantID).
		Str("promotion_id", p.ID).
		Int("attempted", report.Attempted).
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Msg("promoción aplicada a etiquetas")
	return report, nil
}

// Revert quita el descuento de las etiquetas candidatas que todavía muestran el porcentaje de
// la promoción. Las que tienen otro porcentaje o ninguno se cuentan como omitidas.
// Se permite fuera de la ventana de vigencia.
func (e *Engine) Revert(ctx context.Context, tenantID, promotionID string) (*dto.FanoutReport, error) {
	p, err := e.load(ctx, tenantID, promotionID)
	if err != nil {
		return nil, err
	}
	if p.Type != entity.PromotionTypePercentage {
		return nil, domain.ErrUnsupportedPromotion
	}
	percent, ok := p.PercentValue()
	if !ok {
		return nil, domain.ErrInvalidPercent
	}

	candidates, err := e.candidates(ctx, p)
	if err != nil {
		return nil, err
	}
	res := e.labels.RunBatch(ctx, "promotion_revert", candidates, func(ctx context.Context, l *entity.PriceLabel) (bool, error) {
		if l.DiscountPercent == nil || *l.DiscountPercent != percent {
			return false, nil
		}
		if _, err := e.labels.ClearDiscount(ctx, tenantID, l.ID); err != nil {
			return false, err
		}
		return true, nil
	})
	e.stamp(ctx, p, e.now())
	return &dto.FanoutReport{
		PromotionID: p.ID,
		Attempted:   res.Attempted,
		Succeeded:   res.Succeeded,
		Failed:      res.Failed,
		Skipped:     res.Skipped,
		Failures:    res.Failures,
	}, nil
}

// candidates etiquetas asignadas dentro del alcance. Con "selected" se listan solo las sucursales
// nombradas; listas vacías dejan el conjunto vacío.
func (e *Engine) candidates(ctx context.Context, p *entity.Promotion) ([]*entity.PriceLabel, error) {
	var branches []string
	if p.ApplyTo == entity.PromotionApplyAll {
		branches = []string{""}
	} else {
		if len(p.ProductIDs) == 0 || len(p.BranchIDs) == 0 {
			return nil, nil
		}
		branches = p.BranchIDs
	}

	var out []*entity.PriceLabel
	seen := map[string]bool{}
	for _, b := range branches {
		list, err := e.repos.Labels.List(ctx, repository.LabelFilter{TenantID: p.TenantID, BranchID: b, OnlyAssigned: true})
		if err != nil {
			return nil, err
		}
		for _, l := range list {
			if seen[l.ID] || !p.Matches(*l.ProductID, l.BranchID) {
				continue
			}
			seen[l.ID] = true
			out = append(out, l)
		}
	}
	return out, nil
}

// stamp guarda last_applied_at y la foto del estado. Un fallo aquí no invalida el reporte.
func (e *Engine) stamp(ctx context.Context, p *entity.Promotion, now time.Time) {
	p.LastAppliedAt = &now
	p.Status = p.DeriveStatus(now)
	p.UpdatedAt = now
	if err := e.repos.Promotions.Update(ctx, p); err != nil {
		e.log.Warn().Err(err).Str("promotion_id", p.ID).Msg("no se pudo registrar la aplicación de la promoción")
	}
}
