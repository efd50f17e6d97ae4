package jobs

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Precios-api/internal/application/dto"
	"github.com/jhoicas/Precios-api/internal/application/labels"
	"github.com/jhoicas/Precios-api/internal/domain/entity"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
	"github.com/jhoicas/Precios-api/internal/infrastructure/memory"
	"github.com/jhoicas/Precios-api/pkg/logger"
	"github.com/jhoicas/Precios-api/pkg/metrics"
)

// pagedResyncer simula total etiquetas asignadas; failAt hace fallar esa página (0-based).
type pagedResyncer struct {
	mu      sync.Mutex
	total   int
	failAt  int
	filters []repository.LabelFilter
}

func (p *pagedResyncer) ResyncPage(_ context.Context, f repository.LabelFilter) (*dto.ResyncReport, *repository.LabelCursor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	page := len(p.filters)
	p.filters = append(p.filters, f)
	if p.failAt >= 0 && page == p.failAt {
		return nil, nil, errors.New("db down")
	}
	from := 0
	if f.After != nil {
		from, _ = strconv.Atoi(f.After.ID)
	}
	n := min(p.total-from, f.Limit)
	if n < 0 {
		n = 0
	}
	var next *repository.LabelCursor
	if n == f.Limit {
		next = &repository.LabelCursor{ID: strconv.Itoa(from + n)}
	}
	return &dto.ResyncReport{Attempted: n, Succeeded: n}, next, nil
}

func (p *pagedResyncer) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.filters)
}

type fakeLock struct {
	held     bool
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}

func newReconciler(t *testing.T, resyncer LabelResyncer, lock Lock, pageSize int) *Reconciler {
	t.Helper()
	r, err := NewReconciler(ReconcilerParams{
		Labels:   resyncer,
		Lock:     lock,
		Metrics:  metrics.NewSyncMetrics(prometheus.NewRegistry()),
		Logger:   logger.Nop(),
		Interval: time.Hour,
		PageSize: pageSize,
	})
	require.NoError(t, err)
	return r
}

func TestReconcileOnce_Pages(t *testing.T) {
	fake := &pagedResyncer{total: 5, failAt: -1}
	r := newReconciler(t, fake, nil, 2)

	report, err := r.ReconcileOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, report.Attempted)
	assert.Equal(t, 5, report.Succeeded)
	require.Len(t, fake.filters, 3)
	assert.Nil(t, fake.filters[0].After)
	assert.Equal(t, "2", fake.filters[1].After.ID)
	assert.Equal(t, "4", fake.filters[2].After.ID)
	assert.Equal(t, 2, fake.filters[2].Limit)
}

func TestReconcileOnce_ExactMultipleReadsEmptyPage(t *testing.T) {
	fake := &pagedResyncer{total: 4, failAt: -1}
	r := newReconciler(t, fake, nil, 2)

	report, err := r.ReconcileOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, report.Attempted)
	assert.Equal(t, 3, fake.calls())
}

func TestReconcileOnce_PageError(t *testing.T) {
	fake := &pagedResyncer{total: 10, failAt: 1}
	r := newReconciler(t, fake, nil, 2)

	report, err := r.ReconcileOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Equal(t, 2, report.Attempted)
}

// clearingResyncer desvincula las etiquetas de la primera página después de procesarla,
// como haría un usuario mientras corre el ciclo.
type clearingResyncer struct {
	*labels.UseCase
	pages int
	clear []string
}

func (c *clearingResyncer) ResyncPage(ctx context.Context, f repository.LabelFilter) (*dto.ResyncReport, *repository.LabelCursor, error) {
	report, next, err := c.UseCase.ResyncPage(ctx, f)
	c.pages++
	if c.pages == 1 {
		for _, id := range c.clear {
			if _, err := c.ClearAssignment(ctx, "t1", id); err != nil {
				return nil, nil, err
			}
		}
	}
	return report, next, err
}

func TestReconcileOnce_LabelsClearedMidCycleAreNotSkipped(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	repos := store.Repos()
	require.NoError(t, repos.Products.Create(ctx, &entity.Product{
		ID: "p1", TenantID: "t1", Name: "Café", SKU: "CAF", BasePrice: decimal.RequireFromString("10"),
	}))
	ids := []string{"l1", "l2", "l3", "l4", "l5"}
	batch := make([]*entity.PriceLabel, 0, len(ids))
	for _, id := range ids {
		batch = append(batch, &entity.PriceLabel{ID: id, TenantID: "t1", BranchID: "b1", LabelCode: "LBL-" + id})
	}
	require.NoError(t, repos.Labels.CreateBatch(ctx, batch))

	uc := labels.NewUseCase(repos, store, nil, nil, labels.Options{Workers: 2}, nil, nil)
	for _, id := range ids {
		_, err := uc.AssignProduct(ctx, "t1", id, "p1")
		require.NoError(t, err)
	}
	p, err := repos.Products.GetByID(ctx, "p1")
	require.NoError(t, err)
	p.BasePrice = decimal.RequireFromString("12")
	require.NoError(t, repos.Products.Update(ctx, p))

	resyncer := &clearingResyncer{UseCase: uc, clear: []string{"l1", "l2"}}
	r := newReconciler(t, resyncer, nil, 2)

	report, err := r.ReconcileOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Attempted)
	assert.Equal(t, 5, report.Succeeded)
	for _, id := range ids[2:] {
		got, err := uc.Get(ctx, "t1", id)
		require.NoError(t, err)
		assert.True(t, got.FinalPrice.Equal(decimal.RequireFromString("12")), id)
	}
}

func TestRunCycle_SkipsWhenLockHeld(t *testing.T) {
	fake := &pagedResyncer{total: 3, failAt: -1}
	lock := &fakeLock{held: true}
	r := newReconciler(t, fake, lock, 10)

	r.runCycle(context.Background())
	assert.Equal(t, 0, fake.calls())

	lock.held = false
	r.runCycle(context.Background())
	assert.Equal(t, 1, fake.calls())
	assert.Equal(t, 1, lock.releases)
	assert.False(t, lock.held)
}

func TestRun_StopsOnCancel(t *testing.T) {
	fake := &pagedResyncer{total: 1, failAt: -1}
	r := newReconciler(t, fake, nil, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return fake.calls() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run no terminó al cancelar el contexto")
	}
}

func TestNewReconciler_Validation(t *testing.T) {
	_, err := NewReconciler(ReconcilerParams{Interval: time.Minute})
	assert.Error(t, err)
	_, err = NewReconciler(ReconcilerParams{Labels: &pagedResyncer{}, Interval: 0})
	assert.Error(t, err)
}
