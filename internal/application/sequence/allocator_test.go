package sequence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Precios-api/internal/domain"
	"github.com/jhoicas/Precios-api/internal/domain/entity"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
	"github.com/jhoicas/Precios-api/internal/infrastructure/memory"
	"github.com/jhoicas/Precios-api/pkg/logger"
)

func newAllocator(repo repository.SequenceRepository, attempts int) *Allocator {
	a := NewAllocator(repo, Options{MaxAttempts: attempts, BaseBackoff: time.Millisecond}, nil, logger.Nop())
	a.sleep = func(context.Context, time.Duration) error { return nil }
	return a
}

func TestNext_StartsAtOneAndIncrements(t *testing.T) {
	ctx := context.Background()
	a := newAllocator(memory.New().Repos().Sequences, 3)

	for want := int64(1); want <= 3; want++ {
		got, err := a.Next(ctx, "b1", entity.CounterReceipt)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// otro ámbito tiene su propio contador
	got, err := a.Next(ctx, "b2", entity.CounterReceipt)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got)
}

func TestNext_ConcurrentCallersGetDistinctValues(t *testing.T) {
	ctx := context.Background()
	a := newAllocator(memory.New().Repos().Sequences, 50)

	const n = 20
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[int64]bool{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := a.Next(ctx, "t1", entity.CounterSKU)
			assert.NoError(t, err)
			mu.Lock()
			seen[v] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, seen, n)
	for v := int64(1); v <= n; v++ {
		assert.True(t, seen[v], "falta %d", v)
	}
}

func TestNext_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	first := newAllocator(store.Repos().Sequences, 3)
	_, _ = first.Next(ctx, "b1", entity.CounterLabel)
	_, _ = first.Next(ctx, "b1", entity.CounterLabel)

	// un proceso nuevo sobre el mismo almacenamiento continúa la serie
	second := newAllocator(store.Repos().Sequences, 3)
	got, err := second.Next(ctx, "b1", entity.CounterLabel)
	require.NoError(t, err)
	assert.EqualValues(t, 3, got)
}

// losingRepo pierde siempre la escritura condicional.
type losingRepo struct{ calls int }

func (r *losingRepo) Get(context.Context, string, string) (*entity.SequenceCounter, error) {
	return &entity.SequenceCounter{NextValue: 7}, nil
}
func (r *losingRepo) Insert(context.Context, *entity.SequenceCounter) (bool, error) { return false, nil }
func (r *losingRepo) CompareAndSwap(context.Context, string, string, int64, int64) (bool, error) {
	r.calls++
	return false, nil
}

func TestNext_ExhaustionReturnsAllocationConflict(t *testing.T) {
	repo := &losingRepo{}
	a := newAllocator(repo, 4)

	_, err := a.Next(context.Background(), "b1", entity.CounterReceipt)
	assert.ErrorIs(t, err, domain.ErrAllocationConflict)
	assert.True(t, domain.IsRetryable(err))
	assert.Equal(t, 4, repo.calls)
}

// flakyRepo pierde la primera escritura y luego gana.
type flakyRepo struct {
	losingRepo
	won bool
}

func (r *flakyRepo) CompareAndSwap(context.Context, string, string, int64, int64) (bool, error) {
	if !r.won {
		r.won = true
		return false, nil
	}
	return true, nil
}

func TestNext_RetriesAfterConflict(t *testing.T) {
	a := newAllocator(&flakyRepo{}, 3)
	got, err := a.Next(context.Background(), "b1", entity.CounterReceipt)
	require.NoError(t, err)
	assert.EqualValues(t, 7, got)
}

type brokenRepo struct{ losingRepo }

func (*brokenRepo) Get(context.Context, string, string) (*entity.SequenceCounter, error) {
	return nil, errors.New("db down")
}

func TestNext_StoreErrorIsNotRetried(t *testing.T) {
	a := newAllocator(&brokenRepo{}, 5)
	_, err := a.Next(context.Background(), "b1", entity.CounterReceipt)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrAllocationConflict)
}

func TestNext_InvalidInput(t *testing.T) {
	a := newAllocator(&losingRepo{}, 1)
	_, err := a.Next(context.Background(), "", entity.CounterReceipt)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBackoffIsBounded(t *testing.T) {
	base := 5 * time.Millisecond
	d := base
	for i := 0; i < 20; i++ {
		d = nextBackoff(d, base)
	}
	assert.Equal(t, base*maxBackoffFactor, d)

	j := withJitter(10 * time.Millisecond)
	assert.GreaterOrEqual(t, j, 5*time.Millisecond)
	assert.LessOrEqual(t, j, 10*time.Millisecond)
}
