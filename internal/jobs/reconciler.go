package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/Precios-api/internal/application/dto"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
	"github.com/jhoicas/Precios-api/pkg/logger"
	"github.com/jhoicas/Precios-api/pkg/metrics"
)

const (
	// ReconcileJobName nombre del job; también arma la clave del lock.
	ReconcileJobName = "label-reconcile"
	defaultPageSize  = 500
)

// LabelResyncer recalcula una página de etiquetas a partir del precio autoritativo y
// devuelve el cursor de la siguiente (nil = no hay más).
type LabelResyncer interface {
	ResyncPage(ctx context.Context, filter repository.LabelFilter) (*dto.ResyncReport, *repository.LabelCursor, error)
}

// ReconcilerParams dependencias del job.
type ReconcilerParams struct {
	Labels   LabelResyncer
	Lock     Lock
	Metrics  *metrics.SyncMetrics
	Logger   *logger.Logger
	Interval time.Duration
	PageSize int
}

// Reconciler repara periódicamente etiquetas desfasadas respecto del precio vigente.
type Reconciler struct {
	labels   LabelResyncer
	lock     Lock
	metrics  *metrics.SyncMetrics
	log      *logger.Logger
	interval time.Duration
	pageSize int
}

// NewReconciler valida dependencias. Lock nil = NoopLock.
func NewReconciler(p ReconcilerParams) (*Reconciler, error) {
	if p.Labels == nil {
		return nil, errors.New("jobs: se requiere el servicio de etiquetas")
	}
	if p.Interval <= 0 {
		return nil, errors.New("jobs: el intervalo debe ser positivo")
	}
	lock := p.Lock
	if lock == nil {
		lock = NoopLock{}
	}
	log := p.Logger
	if log == nil {
		log = logger.Nop()
	}
	size := p.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	return &Reconciler{
		labels:   p.Labels,
		lock:     lock,
		metrics:  p.Metrics,
		log:      log.Named("reconciler"),
		interval: p.Interval,
		pageSize: size,
	}, nil
}

// Run ejecuta un ciclo inmediato y luego uno por tick hasta que ctx se cancele.
func (r *Reconciler) Run(ctx context.Context) error {
	r.runCycle(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("reconciliación detenida")
			return ctx.Err()
		case <-ticker.C:
			r.runCycle(ctx)
		}
	}
}

func (r *Reconciler) runCycle(ctx context.Context) {
	locked, err := r.lock.Acquire(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("no se pudo tomar el lock de reconciliación")
		return
	}
	if !locked {
		r.log.Debug().Msg("otra instancia está reconciliando; se omite el ciclo")
		return
	}
	defer func() {
		if err := r.lock.Release(ctx); err != nil {
			r.log.Warn().Err(err).Msg("no se pudo liberar el lock de reconciliación")
		}
	}()

	start := time.Now()
	total, err := r.ReconcileOnce(ctx)
	elapsed := time.Since(start)
	r.metrics.ObserveReconcile(elapsed)

	ev := r.log.Info()
	if err != nil || total.Failed > 0 {
		ev = r.log.Warn().Err(err)
	}
	ev.Int("attempted", total.Attempted).
		Int("succeeded", total.Succeeded).
		Int("failed", total.Failed).
		Dur("duration", elapsed).
		Msg("reconciliación de etiquetas terminada")
}

// ReconcileOnce recorre todas las etiquetas asignadas por páginas con cursor (created_at, id).
// Una etiqueta desvinculada durante el ciclo no corre a las demás de página.
// Se detiene en la primera página que falle y devuelve lo acumulado hasta ahí.
func (r *Reconciler) ReconcileOnce(ctx context.Context) (dto.ResyncReport, error) {
	var (
		total dto.ResyncReport
		after *repository.LabelCursor
	)
	for page := 0; ; page++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		report, next, err := r.labels.ResyncPage(ctx, repository.LabelFilter{Limit: r.pageSize, After: after})
		if err != nil {
			// sin reporte no sabemos si hay más páginas
			return total, fmt.Errorf("page %d: %w", page, err)
		}
		total.Attempted += report.Attempted
		total.Succeeded += report.Succeeded
		total.Failed += report.Failed
		total.Failures = append(total.Failures, report.Failures...)
		if next == nil {
			return total, nil
		}
		after = next
	}
}
