package memory

import (
	"context"

	"github.com/jhoicas/Precios-api/internal/domain/entity"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo contadores en memoria con escritura condicional.
type SequenceRepo struct{ db accessor }

func (r *SequenceRepo) Get(ctx context.Context, scopeKey, counterName string) (*entity.SequenceCounter, error) {
	var out *entity.SequenceCounter
	err := r.db.with(func(st *state) error {
		if c, ok := st.sequences[seqKey{scopeKey, counterName}]; ok {
			cp := *c
			out = &cp
		}
		return nil
	})
	return out, err
}

func (r *SequenceRepo) Insert(ctx context.Context, counter *entity.SequenceCounter) (bool, error) {
	inserted := false
	err := r.db.with(func(st *state) error {
		k := seqKey{counter.ScopeKey, counter.CounterName}
		if _, ok := st.sequences[k]; ok {
			return nil
		}
		cp := *counter
		st.sequences[k] = &cp
		inserted = true
		return nil
	})
	return inserted, err
}

func (r *SequenceRepo) CompareAndSwap(ctx context.Context, scopeKey, counterName string, expected, next int64) (bool, error) {
	swapped := false
	err := r.db.with(func(st *state) error {
		k := seqKey{scopeKey, counterName}
		c, ok := st.sequences[k]
		if !ok || c.NextValue != expected {
			return nil
		}
		cp := *c
		cp.NextValue = next
		st.sequences[k] = &cp
		swapped = true
		return nil
	})
	return swapped, err
}
