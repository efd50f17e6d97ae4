package labels

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Precios-api/internal/application/dto"
	"github.com/jhoicas/Precios-api/internal/domain/entity"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
)

// LabelTask operación independiente sobre una etiqueta dentro de un lote.
// ok=false sin error significa que la etiqueta se omitió a propósito.
type LabelTask func(ctx context.Context, label *entity.PriceLabel) (ok bool, err error)

// BatchResult resultado agregado de RunBatch.
type BatchResult struct {
	dto.ResyncReport
	Skipped int
}

// RunBatch ejecuta task sobre cada etiqueta con un pool acotado de workers.
// Un fallo no detiene ni deshace las demás; se reporta por etiqueta.
func (uc *UseCase) RunBatch(ctx context.Context, op string, list []*entity.PriceLabel, task LabelTask) BatchResult {
	var (
		mu   sync.Mutex
		res  BatchResult
		errs error
	)
	res.Attempted = len(list)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.opts.Workers)
	for _, label := range list {
		g.Go(func() error {
			ok, err := task(gctx, label)
			uc.metrics.LabelUpdate(op, err)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				res.Failed++
				pid := ""
				if label.ProductID != nil {
					pid = *label.ProductID
				}
				res.Failures = append(res.Failures, dto.LabelFailure{
					LabelID:   label.ID,
					ProductID: pid,
					Code:      ErrorCode(err),
					Message:   err.Error(),
				})
				errs = multierr.Append(errs, fmt.Errorf("label %s: %w", label.ID, err))
			case ok:
				res.Succeeded++
			default:
				res.Skipped++
			}
			// nunca se devuelve error: el grupo no debe cancelar a los demás
			return nil
		})
	}
	_ = g.Wait()

	if errs != nil {
		uc.log.Warn().
			Str("op", op).
			Int("failed", res.Failed).
			Int("attempted", res.Attempted).
			Err(errs).
			Msg("lote de etiquetas con fallos")
	}
	return res
}

// Resync recalcula base y final de las etiquetas asignadas que cumplen el filtro, a partir del
// precio autoritativo y del porcentaje guardado. Es idempotente y se usa tanto después de un
// cambio de precio como desde el job de reconciliación.
func (uc *UseCase) Resync(ctx context.Context, filter repository.LabelFilter) (*dto.ResyncReport, error) {
	report, _, err := uc.ResyncPage(ctx, filter)
	return report, err
}

// ResyncPage como Resync, y además devuelve el cursor de la última etiqueta listada para pedir
// la página siguiente. next es nil cuando la página vino incompleta o sin límite.
func (uc *UseCase) ResyncPage(ctx context.Context, filter repository.LabelFilter) (*dto.ResyncReport, *repository.LabelCursor, error) {
	filter.OnlyAssigned = true
	list, err := uc.repos.Labels.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	res := uc.RunBatch(ctx, "resync", list, uc.resyncOne)
	var next *repository.LabelCursor
	if filter.Limit > 0 && len(list) == filter.Limit {
		next = repository.CursorOf(list[len(list)-1])
	}
	return &res.ResyncReport, next, nil
}

// ResyncProduct resincroniza las etiquetas de un producto; branchID vacío = todas las sucursales.
// Best effort: los fallos quedan en el reporte y se registran en el log.
func (uc *UseCase) ResyncProduct(ctx context.Context, tenantID, productID, branchID string) *dto.ResyncReport {
	report, err := uc.Resync(ctx, repository.LabelFilter{TenantID: tenantID, BranchID: branchID, ProductID: productID})
	if err != nil {
		uc.log.Warn().Err(err).
			Str("tenant_id", tenantID).
			Str("product_id", productID).
			Str("branch_id", branchID).
			Msg("no se pudo listar etiquetas para resincronizar")
		return &dto.ResyncReport{Failures: []dto.LabelFailure{{ProductID: productID, Code: ErrorCode(err), Message: err.Error()}}, Failed: 1}
	}
	return report
}

// errUnassigned la etiqueta perdió el producto entre el listado y la escritura.
var errUnassigned = errors.New("etiqueta sin producto")

// resyncOne relee y escribe condicionado a la versión: un descuento o un desvinculado
// posterior al listado nunca se pisa con la copia vieja.
func (uc *UseCase) resyncOne(ctx context.Context, listed *entity.PriceLabel) (bool, error) {
	_, err := uc.update(ctx, listed.TenantID, listed.ID, func(label *entity.PriceLabel) error {
		if !label.IsAssigned() {
			return errUnassigned
		}
		price, err := uc.resolvePrice(ctx, label.TenantID, *label.ProductID, label.BranchID)
		if err != nil {
			return err
		}
		label.Reprice(price, uc.now())
		return nil
	})
	if errors.Is(err, errUnassigned) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
