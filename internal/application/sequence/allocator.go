// Package sequence entrega consecutivos durables por (ámbito, contador).
package sequence

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/jhoicas/Precios-api/internal/domain"
	"github.com/jhoicas/Precios-api/internal/domain/entity"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
	"github.com/jhoicas/Precios-api/pkg/logger"
	"github.com/jhoicas/Precios-api/pkg/metrics"
)

const maxBackoffFactor = 32

// Options límites de reintento.
type Options struct {
	MaxAttempts int
	BaseBackoff time.Duration
}

// Allocator lee el valor actual, calcula el siguiente y escribe solo si nadie lo cambió.
// Trabaja siempre fuera de la transacción del caller: un número entregado nunca se reutiliza,
// aunque el caller descarte su operación.
type Allocator struct {
	repo    repository.SequenceRepository
	opts    Options
	metrics *metrics.SyncMetrics
	log     *logger.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewAllocator construye el asignador sobre el repo a nivel de pool (no de tx).
func NewAllocator(repo repository.SequenceRepository, opts Options, m *metrics.SyncMetrics, log *logger.Logger) *Allocator {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Allocator{repo: repo, opts: opts, metrics: m, log: log, sleep: sleepCtx}
}

// Next devuelve el siguiente entero del contador. Tras agotar los intentos devuelve
// domain.ErrAllocationConflict; el caller no debe inventar un número alternativo.
func (a *Allocator) Next(ctx context.Context, scopeKey, counterName string) (int64, error) {
	if scopeKey == "" || counterName == "" {
		return 0, domain.ErrInvalidInput
	}
	backoff := a.opts.BaseBackoff
	for attempt := 1; attempt <= a.opts.MaxAttempts; attempt++ {
		n, ok, err := a.try(ctx, scopeKey, counterName)
		if err != nil && !errors.Is(err, domain.ErrConflict) {
			return 0, fmt.Errorf("sequence %s/%s: %w", scopeKey, counterName, err)
		}
		if ok {
			return n, nil
		}

		a.metrics.SequenceConflict(counterName)
		a.log.Debug().
			Str("scope", scopeKey).
			Str("counter", counterName).
			Int("attempt", attempt).
			Msg("conflicto al asignar consecutivo")

		if attempt == a.opts.MaxAttempts {
			break
		}
		if err := a.sleep(ctx, withJitter(backoff)); err != nil {
			return 0, err
		}
		backoff = nextBackoff(backoff, a.opts.BaseBackoff)
	}

	a.log.Warn().
		Str("scope", scopeKey).
		Str("counter", counterName).
		Int("attempts", a.opts.MaxAttempts).
		Msg("consecutivo no asignado tras reintentos")
	return 0, fmt.Errorf("%w: %s/%s", domain.ErrAllocationConflict, scopeKey, counterName)
}

// try hace un intento. ok=false indica que otro caller ganó la escritura.
func (a *Allocator) try(ctx context.Context, scopeKey, counterName string) (int64, bool, error) {
	current, err := a.repo.Get(ctx, scopeKey, counterName)
	if err != nil {
		return 0, false, err
	}
	if current == nil {
		inserted, err := a.repo.Insert(ctx, &entity.SequenceCounter{
			ScopeKey:    scopeKey,
			CounterName: counterName,
			NextValue:   2,
			UpdatedAt:   time.Now(),
		})
		if err != nil || !inserted {
			return 0, false, err
		}
		return 1, true, nil
	}

	n := current.NextValue
	swapped, err := a.repo.CompareAndSwap(ctx, scopeKey, counterName, n, n+1)
	if err != nil || !swapped {
		return 0, false, err
	}
	return n, true, nil
}

func nextBackoff(current, base time.Duration) time.Duration {
	next := current * 2
	if limit := base * maxBackoffFactor; next > limit {
		return limit
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d/2 + rand.N(d/2+1)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
