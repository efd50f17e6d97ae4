package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Precios-api/internal/domain/entity"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo contadores durables en sequence_counters. La escritura es condicional
// (compare-and-swap) para que dos procesos nunca entreguen el mismo valor.
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

func (r *SequenceRepo) Get(ctx context.Context, scopeKey, counterName string) (*entity.SequenceCounter, error) {
	query := `
		SELECT scope_key, counter_name, next_value, updated_at
		FROM sequence_counters
		WHERE scope_key = $1 AND counter_name = $2`
	var c entity.SequenceCounter
	err := r.q.QueryRow(ctx, query, scopeKey, counterName).Scan(&c.ScopeKey, &c.CounterName, &c.NextValue, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sequence counter: %w", err)
	}
	return &c, nil
}

func (r *SequenceRepo) Insert(ctx context.Context, c *entity.SequenceCounter) (bool, error) {
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO sequence_counters (scope_key, counter_name, next_value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (scope_key, counter_name) DO NOTHING`
	cmd, err := r.q.Exec(ctx, query, c.ScopeKey, c.CounterName, c.NextValue, c.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("insert sequence counter: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *SequenceRepo) CompareAndSwap(ctx context.Context, scopeKey, counterName string, expected, next int64) (bool, error) {
	query := `
		UPDATE sequence_counters
		SET next_value = $4, updated_at = now()
		WHERE scope_key = $1 AND counter_name = $2 AND next_value = $3`
	cmd, err := r.q.Exec(ctx, query, scopeKey, counterName, expected, next)
	if err != nil {
		return false, fmt.Errorf("cas sequence counter: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}
