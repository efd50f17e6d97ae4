// Package labels mantiene la proyección de precios en etiquetas de góndola.
// Cada etiqueta se actualiza por separado; no hay coordinación entre etiquetas.
package labels

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Precios-api/internal/application/dto"
	"github.com/jhoicas/Precios-api/internal/domain"
	"github.com/jhoicas/Precios-api/internal/domain/entity"
	"github.com/jhoicas/Precios-api/internal/domain/pricing"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
	"github.com/jhoicas/Precios-api/pkg/codes"
	"github.com/jhoicas/Precios-api/pkg/logger"
	"github.com/jhoicas/Precios-api/pkg/metrics"
)

// maxWriteAttempts lecturas-escrituras por etiqueta antes de devolver ErrConflict.
const maxWriteAttempts = 3

// Options parámetros del caso de uso.
type Options struct {
	LabelPrefix string
	Workers     int
}

// UseCase operaciones sobre PriceLabel.
type UseCase struct {
	repos   repository.Repos
	tx      repository.TxRunner
	alloc   CodeAllocator
	feed    FeedRenderer
	opts    Options
	metrics *metrics.SyncMetrics
	log     *logger.Logger
	now     func() time.Time
}

// NewUseCase construye el caso de uso. repos debe ser el conjunto a nivel de pool.
func NewUseCase(
	repos repository.Repos,
	tx repository.TxRunner,
	alloc CodeAllocator,
	feed FeedRenderer,
	opts Options,
	m *metrics.SyncMetrics,
	log *logger.Logger,
) *UseCase {
	if opts.LabelPrefix == "" {
		opts.LabelPrefix = "LBL"
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{
		repos:   repos,
		tx:      tx,
		alloc:   alloc,
		feed:    feed,
		opts:    opts,
		metrics: m,
		log:     log.Named("labels"),
		now:     time.Now,
	}
}

// Get obtiene una etiqueta de la empresa.
func (uc *UseCase) Get(ctx context.Context, tenantID, labelID string) (*dto.LabelResponse, error) {
	label, err := uc.load(ctx, tenantID, labelID)
	if err != nil {
		return nil, err
	}
	return ToLabelResponse(label), nil
}

// ListByBranch etiquetas de la sucursal en orden de creación.
func (uc *UseCase) ListByBranch(ctx context.Context, tenantID, branchID string, limit, offset int) (*dto.LabelListResponse, error) {
	list, err := uc.repos.Labels.List(ctx, repository.LabelFilter{
		TenantID: tenantID,
		BranchID: branchID,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.LabelResponse, 0, len(list))
	for _, l := range list {
		items = append(items, *ToLabelResponse(l))
	}
	return &dto.LabelListResponse{Items: items, Page: dto.PageResponse{Limit: limit, Offset: offset}}, nil
}

// AssignProduct vincula el producto con su precio vigente en la sucursal de la etiqueta.
// Nunca deja una etiqueta mostrando precio cero: sin precio devuelve ErrMissingBasePrice.
func (uc *UseCase) AssignProduct(ctx context.Context, tenantID, labelID, productID string) (*dto.LabelResponse, error) {
	label, err := uc.update(ctx, tenantID, labelID, func(l *entity.PriceLabel) error {
		return uc.bind(ctx, tenantID, l, productID)
	})
	uc.metrics.LabelUpdate("assign", err)
	if err != nil {
		return nil, err
	}
	return ToLabelResponse(label), nil
}

func (uc *UseCase) bind(ctx context.Context, tenantID string, label *entity.PriceLabel, productID string) error {
	price, err := uc.resolvePrice(ctx, tenantID, productID, label.BranchID)
	if err != nil {
		return err
	}
	label.Bind(productID, price, uc.now())
	return nil
}

// ClearAssignment deja la etiqueta en blanco e inactiva.
func (uc *UseCase) ClearAssignment(ctx context.Context, tenantID, labelID string) (*dto.LabelResponse, error) {
	label, err := uc.update(ctx, tenantID, labelID, func(l *entity.PriceLabel) error {
		l.Unbind(uc.now())
		return nil
	})
	uc.metrics.LabelUpdate("clear", err)
	if err != nil {
		return nil, err
	}
	return ToLabelResponse(label), nil
}

// UpdateLocation cambia el texto de ubicación.
func (uc *UseCase) UpdateLocation(ctx context.Context, tenantID, labelID, location string) (*dto.LabelResponse, error) {
	label, err := uc.update(ctx, tenantID, labelID, func(l *entity.PriceLabel) error {
		l.Location = location
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToLabelResponse(label), nil
}

// ApplyDiscount fija el porcentaje sobre el precio vigente leído en este momento.
// Orden de validación: ErrInvalidPercent, ErrNoProductAssigned, ErrMissingBasePrice.
func (uc *UseCase) ApplyDiscount(ctx context.Context, tenantID, labelID string, percent int) (*dto.LabelResponse, error) {
	if !pricing.ValidPercent(percent) {
		uc.metrics.LabelUpdate("discount", domain.ErrInvalidPercent)
		return nil, domain.ErrInvalidPercent
	}
	label, err := uc.update(ctx, tenantID, labelID, func(l *entity.PriceLabel) error {
		return uc.discount(ctx, tenantID, l, &percent)
	})
	uc.metrics.LabelUpdate("discount", err)
	if err != nil {
		return nil, err
	}
	return ToLabelResponse(label), nil
}

// ClearDiscount restaura FinalPrice = BasePrice con el precio vigente actual, no el guardado.
func (uc *UseCase) ClearDiscount(ctx context.Context, tenantID, labelID string) (*dto.LabelResponse, error) {
	label, err := uc.update(ctx, tenantID, labelID, func(l *entity.PriceLabel) error {
		return uc.discount(ctx, tenantID, l, nil)
	})
	uc.metrics.LabelUpdate("clear_discount", err)
	if err != nil {
		return nil, err
	}
	return ToLabelResponse(label), nil
}

// discount aplica percent (nil = quitar descuento) sobre el precio autoritativo.
func (uc *UseCase) discount(ctx context.Context, tenantID string, label *entity.PriceLabel, percent *int) error {
	if !label.IsAssigned() {
		return domain.ErrNoProductAssigned
	}
	price, err := uc.resolvePrice(ctx, tenantID, *label.ProductID, label.BranchID)
	if err != nil {
		return err
	}
	now := uc.now()
	if percent == nil {
		label.ClearDiscount(price, now)
	} else {
		label.SetDiscount(price, *percent, now)
	}
	return nil
}

// update lee la etiqueta, aplica change y la guarda condicionada a la versión leída.
// Si otra escritura ganó en el medio se repite sobre el estado nuevo, hasta maxWriteAttempts.
func (uc *UseCase) update(ctx context.Context, tenantID, labelID string, change func(*entity.PriceLabel) error) (*entity.PriceLabel, error) {
	var err error
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		var label *entity.PriceLabel
		label, err = uc.load(ctx, tenantID, labelID)
		if err != nil {
			return nil, err
		}
		if err = change(label); err != nil {
			return nil, err
		}
		err = uc.repos.Labels.Update(ctx, label)
		if err == nil {
			return label, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		uc.log.Debug().
			Str("label_id", labelID).
			Int("attempt", attempt).
			Msg("etiqueta modificada en paralelo, reintentando")
	}
	return nil, err
}

// AutoAssign empareja etiquetas libres con productos de la sucursal que aún no tienen etiqueta,
// ambos en orden de creación, hasta min(N, M). Un par fallido se reporta y se sigue con el resto.
func (uc *UseCase) AutoAssign(ctx context.Context, tenantID, branchID string) (*dto.AutoAssignResponse, error) {
	all, err := uc.repos.Labels.List(ctx, repository.LabelFilter{TenantID: tenantID, BranchID: branchID})
	if err != nil {
		return nil, err
	}
	var free []*entity.PriceLabel
	labeled := map[string]bool{}
	for _, l := range all {
		if l.IsAssigned() {
			labeled[*l.ProductID] = true
			continue
		}
		free = append(free, l)
	}

	records, err := uc.repos.Stock.ListByBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	var products []string
	for _, rec := range records {
		if rec.TenantID == tenantID && !labeled[rec.ProductID] {
			products = append(products, rec.ProductID)
		}
	}

	n := min(len(free), len(products))
	out := &dto.AutoAssignResponse{Pairs: make([]dto.AutoAssignPair, 0, n)}
	for i := 0; i < n; i++ {
		pair := dto.AutoAssignPair{LabelID: free[i].ID, ProductID: products[i]}
		productID := products[i]
		_, err := uc.update(ctx, tenantID, free[i].ID, func(l *entity.PriceLabel) error {
			if l.IsAssigned() {
				return fmt.Errorf("etiqueta asignada en paralelo: %w", domain.ErrConflict)
			}
			return uc.bind(ctx, tenantID, l, productID)
		})
		uc.metrics.LabelUpdate("auto_assign", err)
		if err != nil {
			pair.Code, pair.Message = ErrorCode(err), err.Error()
			out.Failed++
			uc.log.Warn().Err(err).
				Str("tenant_id", tenantID).
				Str("branch_id", branchID).
				Str("label_id", free[i].ID).
				Str("product_id", products[i]).
				Msg("no se pudo asignar etiqueta")
		} else {
			pair.OK = true
			out.Paired++
		}
		out.Pairs = append(out.Pairs, pair)
	}
	uc.log.Info().
		Str("tenant_id", tenantID).
		Str("branch_id", branchID).
		Int("free_labels", len(free)).
		Int("unlabeled_products", len(products)).
		Int("paired", out.Paired).
		Int("failed", out.Failed).
		Msg("auto-asignación completada")
	return out, nil
}

// Provision crea una etiqueta en blanco por posición del layout. Si la sucursal ya tiene
// etiquetas no hace nada y devuelve Skipped=true.
func (uc *UseCase) Provision(ctx context.Context, tenantID, branchID string, in dto.ProvisionRequest) (*dto.ProvisionResponse, error) {
	total := 0
	for _, z := range in.Layout {
		if z.Zone == "" || len(z.Positions) == 0 {
			return nil, domain.ErrInvalidInput
		}
		total += len(z.Positions)
	}
	if total == 0 {
		return nil, domain.ErrInvalidInput
	}

	existing, err := uc.repos.Labels.CountByBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return &dto.ProvisionResponse{Skipped: true}, nil
	}

	now := uc.now()
	batch := make([]*entity.PriceLabel, 0, total)
	for _, z := range in.Layout {
		for _, pos := range z.Positions {
			n, err := uc.alloc.Next(ctx, branchID, entity.CounterLabel)
			if err != nil {
				return nil, fmt.Errorf("label code: %w", err)
			}
			batch = append(batch, &entity.PriceLabel{
				ID:        uuid.New().String(),
				TenantID:  tenantID,
				BranchID:  branchID,
				LabelCode: codes.Label(uc.opts.LabelPrefix, n),
				Location:  z.Zone + " / " + pos,
				Status:    entity.LabelStatusInactive,
				CreatedAt: now,
			})
		}
	}

	skipped := false
	err = uc.tx.Run(ctx, func(r repository.Repos) error {
		// otra solicitud pudo aprovisionar entre el conteo y la tx
		n, err := r.Labels.CountByBranch(ctx, branchID)
		if err != nil {
			return err
		}
		if n > 0 {
			skipped = true
			return nil
		}
		return r.Labels.CreateBatch(ctx, batch)
	})
	if err != nil {
		return nil, err
	}
	if skipped {
		return &dto.ProvisionResponse{Skipped: true}, nil
	}

	out := &dto.ProvisionResponse{Created: len(batch), Labels: make([]dto.LabelResponse, 0, len(batch))}
	for _, l := range batch {
		out.Labels = append(out.Labels, *ToLabelResponse(l))
	}
	uc.log.Info().Str("tenant_id", tenantID).Str("branch_id", branchID).Int("created", len(batch)).Msg("etiquetas aprovisionadas")
	return out, nil
}

// load lee la etiqueta y verifica que pertenezca a la empresa.
func (uc *UseCase) load(ctx context.Context, tenantID, labelID string) (*entity.PriceLabel, error) {
	label, err := uc.repos.Labels.GetByID(ctx, labelID)
	if err != nil {
		return nil, err
	}
	if label == nil || label.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return label, nil
}

// resolvePrice precio autoritativo: el de la sucursal si existe, si no el del catálogo.
func (uc *UseCase) resolvePrice(ctx context.Context, tenantID, productID, branchID string) (decimal.Decimal, error) {
	product, err := uc.repos.Products.GetByID(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	if product == nil || product.TenantID != tenantID {
		return decimal.Zero, domain.ErrNotFound
	}
	stock, err := uc.repos.Stock.Get(ctx, productID, branchID)
	if err != nil {
		return decimal.Zero, err
	}
	price := entity.EffectivePrice(product, stock)
	if !price.IsPositive() {
		return decimal.Zero, domain.ErrMissingBasePrice
	}
	return price, nil
}

// ErrorCode código estable para reportes por etiqueta (mismo que usa la API HTTP).
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoProductAssigned):
		return "NO_PRODUCT_ASSIGNED"
	case errors.Is(err, domain.ErrMissingBasePrice):
		return "MISSING_BASE_PRICE"
	case errors.Is(err, domain.ErrInvalidPercent):
		return "INVALID_PERCENT"
	case errors.Is(err, domain.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, domain.ErrConflict):
		return "CONFLICT"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "CANCELED"
	default:
		return "INTERNAL_ERROR"
	}
}

// ToLabelResponse convierte la entidad a DTO.
func ToLabelResponse(l *entity.PriceLabel) *dto.LabelResponse {
	if l == nil {
		return nil
	}
	out := &dto.LabelResponse{
		ID:              l.ID,
		BranchID:        l.BranchID,
		LabelCode:       l.LabelCode,
		ProductID:       l.ProductID,
		DiscountPercent: l.DiscountPercent,
		Location:        l.Location,
		Status:          l.Status,
		CreatedAt:       l.CreatedAt,
		SyncedAt:        l.SyncedAt,
	}
	if l.BasePrice.Valid {
		v := l.BasePrice.Decimal
		out.BasePrice = &v
	}
	if l.FinalPrice.Valid {
		v := l.FinalPrice.Decimal
		out.FinalPrice = &v
	}
	return out
}
