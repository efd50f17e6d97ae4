package labels

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Precios-api/internal/application/dto"
	"github.com/jhoicas/Precios-api/internal/domain"
	"github.com/jhoicas/Precios-api/internal/domain/entity"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
	"github.com/jhoicas/Precios-api/internal/infrastructure/memory"
)

const (
	tenant = "t1"
	branch = "b1"
)

type counterAlloc struct {
	mu sync.Mutex
	n  map[string]int64
}

func (a *counterAlloc) Next(_ context.Context, scope, counter string) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.n == nil {
		a.n = map[string]int64{}
	}
	a.n[scope+"/"+counter]++
	return a.n[scope+"/"+counter], nil
}

type fixture struct {
	store *memory.Store
	repos repository.Repos
	uc    *UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	repos := store.Repos()
	uc := NewUseCase(repos, store, &counterAlloc{}, nil, Options{Workers: 4}, nil, nil)
	uc.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	return &fixture{store: store, repos: repos, uc: uc}
}

func (f *fixture) product(t *testing.T, id, price string) {
	t.Helper()
	require.NoError(t, f.repos.Products.Create(context.Background(), &entity.Product{
		ID:        id,
		TenantID:  tenant,
		Name:      "Producto " + id,
		SKU:       "SKU-" + id,
		BasePrice: decimal.RequireFromString(price),
	}))
}

func (f *fixture) stock(t *testing.T, productID, price string) {
	t.Helper()
	require.NoError(t, f.repos.Stock.Create(context.Background(), &entity.BranchStock{
		ID:           "st-" + productID,
		ProductID:    productID,
		BranchID:     branch,
		TenantID:     tenant,
		CurrentPrice: decimal.RequireFromString(price),
		Stock:        10,
	}))
}

func (f *fixture) labels(t *testing.T, ids ...string) {
	t.Helper()
	batch := make([]*entity.PriceLabel, 0, len(ids))
	for _, id := range ids {
		batch = append(batch, &entity.PriceLabel{
			ID:        id,
			TenantID:  tenant,
			BranchID:  branch,
			LabelCode: "LBL-" + id,
			Status:    entity.LabelStatusInactive,
		})
	}
	require.NoError(t, f.repos.Labels.CreateBatch(context.Background(), batch))
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAssignProduct_UsesBranchPrice(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", "12.00")
	f.stock(t, "p1", "10.00")
	f.labels(t, "l1")

	got, err := f.uc.AssignProduct(context.Background(), tenant, "l1", "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", *got.ProductID)
	assert.True(t, got.BasePrice.Equal(dec("10.00")))
	assert.True(t, got.FinalPrice.Equal(dec("10.00")))
	assert.Nil(t, got.DiscountPercent)
	assert.Equal(t, entity.LabelStatusActive, got.Status)
}

func TestAssignProduct_FallsBackToCatalogPrice(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", "7.50")
	f.labels(t, "l1")

	got, err := f.uc.AssignProduct(context.Background(), tenant, "l1", "p1")
	require.NoError(t, err)
	assert.True(t, got.BasePrice.Equal(dec("7.50")))
}

func TestAssignProduct_MissingPrice(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", "0")
	f.labels(t, "l1")

	_, err := f.uc.AssignProduct(context.Background(), tenant, "l1", "p1")
	assert.ErrorIs(t, err, domain.ErrMissingBasePrice)

	stored, err := f.repos.Labels.GetByID(context.Background(), "l1")
	require.NoError(t, err)
	assert.False(t, stored.IsAssigned())
	assert.False(t, stored.BasePrice.Valid)
}

func TestAssignProduct_OtherTenant(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", "5")
	f.labels(t, "l1")

	_, err := f.uc.AssignProduct(context.Background(), "t2", "l1", "p1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApplyDiscount(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", "10.00")
	f.labels(t, "l1")
	_, err := f.uc.AssignProduct(context.Background(), tenant, "l1", "p1")
	require.NoError(t, err)

	got, err := f.uc.ApplyDiscount(context.Background(), tenant, "l1", 20)
	require.NoError(t, err)
	assert.True(t, got.FinalPrice.Equal(dec("8.00")))
	assert.True(t, got.BasePrice.Equal(dec("10.00")))
	require.NotNil(t, got.DiscountPercent)
	assert.Equal(t, 20, *got.DiscountPercent)
}

func TestApplyDiscount_ErrorPrecedence(t *testing.T) {
	f := newFixture(t)
	f.labels(t, "blank")

	// porcentaje inválido gana aunque la etiqueta no tenga producto
	_, err := f.uc.ApplyDiscount(context.Background(), tenant, "blank", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidPercent)
	_, err = f.uc.ApplyDiscount(context.Background(), tenant, "blank", 101)
	assert.ErrorIs(t, err, domain.ErrInvalidPercent)

	_, err = f.uc.ApplyDiscount(context.Background(), tenant, "blank", 10)
	assert.ErrorIs(t, err, domain.ErrNoProductAssigned)
}

func TestApplyDiscount_PriceRemovedAfterAssign(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", "10.00")
	f.labels(t, "l1")
	_, err := f.uc.AssignProduct(context.Background(), tenant, "l1", "p1")
	require.NoError(t, err)

	p, err := f.repos.Products.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	p.BasePrice = decimal.Zero
	require.NoError(t, f.repos.Products.Update(context.Background(), p))

	_, err = f.uc.ApplyDiscount(context.Background(), tenant, "l1", 10)
	assert.ErrorIs(t, err, domain.ErrMissingBasePrice)
}

func TestClearDiscount_ReadsCurrentPrice(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", "10.00")
	f.stock(t, "p1", "10.00")
	f.labels(t, "l1")
	_, err := f.uc.AssignProduct(context.Background(), tenant, "l1", "p1")
	require.NoError(t, err)
	_, err = f.uc.ApplyDiscount(context.Background(), tenant, "l1", 50)
	require.NoError(t, err)

	rec, err := f.repos.Stock.Get(context.Background(), "p1", branch)
	require.NoError(t, err)
	rec.CurrentPrice = dec("14.00")
	require.NoError(t, f.repos.Stock.Update(context.Background(), rec))

	got, err := f.uc.ClearDiscount(context.Background(), tenant, "l1")
	require.NoError(t, err)
	assert.Nil(t, got.DiscountPercent)
	assert.True(t, got.BasePrice.Equal(dec("14.00")))
	assert.True(t, got.FinalPrice.Equal(dec("14.00")))
}

func TestClearAssignment(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", "3")
	f.labels(t, "l1")
	_, err := f.uc.AssignProduct(context.Background(), tenant, "l1", "p1")
	require.NoError(t, err)

	got, err := f.uc.ClearAssignment(context.Background(), tenant, "l1")
	require.NoError(t, err)
	assert.Nil(t, got.ProductID)
	assert.Nil(t, got.BasePrice)
	assert.Nil(t, got.FinalPrice)
	assert.Equal(t, entity.LabelStatusInactive, got.Status)
}

func TestUpdateLocation(t *testing.T) {
	f := newFixture(t)
	f.labels(t, "l1")

	got, err := f.uc.UpdateLocation(context.Background(), tenant, "l1", "Pasillo 3 / A2")
	require.NoError(t, err)
	assert.Equal(t, "Pasillo 3 / A2", got.Location)

	_, err = f.uc.UpdateLocation(context.Background(), tenant, "nope", "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAutoAssign(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", "1")
	f.product(t, "p2", "2")
	f.product(t, "p3", "0")
	f.stock(t, "p1", "0")
	f.stock(t, "p2", "0")
	f.stock(t, "p3", "0")
	f.labels(t, "l1", "l2", "l3", "l4")
	_, err := f.uc.AssignProduct(context.Background(), tenant, "l1", "p1")
	require.NoError(t, err)

	got, err := f.uc.AutoAssign(context.Background(), tenant, branch)
	require.NoError(t, err)
	// libres: l2 l3 l4; sin etiqueta: p2 p3 → dos pares, p3 sin precio
	require.Len(t, got.Pairs, 2)
	assert.Equal(t, 1, got.Paired)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, dto.AutoAssignPair{LabelID: "l2", ProductID: "p2", OK: true}, got.Pairs[0])
	assert.Equal(t, "l3", got.Pairs[1].LabelID)
	assert.Equal(t, "MISSING_BASE_PRICE", got.Pairs[1].Code)

	l4, err := f.repos.Labels.GetByID(context.Background(), "l4")
	require.NoError(t, err)
	assert.False(t, l4.IsAssigned())
}

func TestProvision(t *testing.T) {
	f := newFixture(t)
	req := dto.ProvisionRequest{Layout: []dto.LayoutZone{
		{Zone: "Lácteos", Positions: []string{"A1", "A2"}},
		{Zone: "Panadería", Positions: []string{"B1"}},
	}}

	got, err := f.uc.Provision(context.Background(), tenant, branch, req)
	require.NoError(t, err)
	assert.False(t, got.Skipped)
	require.Equal(t, 3, got.Created)
	assert.Equal(t, "LBL-000001", got.Labels[0].LabelCode)
	assert.Equal(t, "LBL-000003", got.Labels[2].LabelCode)
	assert.Equal(t, "Panadería / B1", got.Labels[2].Location)
	for _, l := range got.Labels {
		assert.Nil(t, l.ProductID)
		assert.Equal(t, entity.LabelStatusInactive, l.Status)
	}

	again, err := f.uc.Provision(context.Background(), tenant, branch, req)
	require.NoError(t, err)
	assert.True(t, again.Skipped)
	n, err := f.repos.Labels.CountByBranch(context.Background(), branch)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestProvision_InvalidLayout(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Provision(context.Background(), tenant, branch, dto.ProvisionRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.uc.Provision(context.Background(), tenant, branch, dto.ProvisionRequest{Layout: []dto.LayoutZone{{Zone: "A"}}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestResyncProduct_KeepsDiscount(t *testing.T) {
	f := newFixture(t)
	f.product(t, "p1", "10.00")
	f.stock(t, "p1", "0")
	f.labels(t, "l1", "l2")
	_, err := f.uc.AssignProduct(context.Background(), tenant, "l1", "p1")
	require.NoError(t, err)
	_, err = f.uc.AssignProduct(context.Background(), tenant, "l2", "p1")
	require.NoError(t, err)
	_, err = f.uc.ApplyDiscount(context.Background(), tenant, "l2", 20)
	require.NoError(t, err)

	rec, err := f.repos.Stock.Get(context.Background(), "p1", branch)
	require.NoError(t, err)
	rec.CurrentPrice = dec("20.00")
	require.NoError(t, f.repos.Stock.Update(context.Background(), rec))

	report := f.uc.ResyncProduct(context.Background(), tenant, "p1", branch)
	assert.Equal(t, 2, report.Attempted)
	assert.Equal(t, 2, report.Succeeded)
	assert.Zero(t, report.Failed)

	l1, err := f.uc.Get(context.Background(), tenant, "l1")
	require.NoError(t, err)
	assert.True(t, l1.FinalPrice.Equal(dec("20.00")))
	l2, err := f.uc.Get(context.Background(), tenant, "l2")
	require.NoError(t, err)
	assert.True(t, l2.BasePrice.Equal(dec("20.00")))
	assert.True(t, l2.FinalPrice.Equal(dec("16.00")))
}

func TestRunBatch_FailureDoesNotStopOthers(t *testing.T) {
	f := newFixture(t)
	pid := "p1"
	list := []*entity.PriceLabel{
		{ID: "a", ProductID: &pid},
		{ID: "b", ProductID: &pid},
		{ID: "c"},
		{ID: "d", ProductID: &pid},
	}

	res := f.uc.RunBatch(context.Background(), "test", list, func(_ context.Context, l *entity.PriceLabel) (bool, error) {
		switch l.ID {
		case "b":
			return false, domain.ErrMissingBasePrice
		case "c":
			return false, nil
		}
		return true, nil
	})

	assert.Equal(t, 4, res.Attempted)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, dto.LabelFailure{
		LabelID:   "b",
		ProductID: "p1",
		Code:      "MISSING_BASE_PRICE",
		Message:   domain.ErrMissingBasePrice.Error(),
	}, res.Failures[0])
}

func TestListByBranch(t *testing.T) {
	f := newFixture(t)
	f.labels(t, "l1", "l2", "l3")

	got, err := f.uc.ListByBranch(context.Background(), tenant, branch, 2, 1)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "l2", got.Items[0].ID)
	assert.Equal(t, "l3", got.Items[1].ID)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "NO_PRODUCT_ASSIGNED", ErrorCode(domain.ErrNoProductAssigned))
	assert.Equal(t, "INVALID_PERCENT", ErrorCode(domain.ErrInvalidPercent))
	assert.Equal(t, "CANCELED", ErrorCode(context.Canceled))
	assert.Equal(t, "INTERNAL_ERROR", ErrorCode(assert.AnError))
}

// interleavedLabels ejecuta before justo antes de la primera escritura, entre la lectura
// y el guardado del caso de uso que la envuelve.
type interleavedLabels struct {
	repository.LabelRepository
	once   sync.Once
	before func()
	writes int
}

func (r *interleavedLabels) Update(ctx context.Context, l *entity.PriceLabel) error {
	r.once.Do(r.before)
	r.writes++
	return r.LabelRepository.Update(ctx, l)
}

func (f *fixture) interleaved(before func()) (*UseCase, *interleavedLabels) {
	wrapped := &interleavedLabels{LabelRepository: f.repos.Labels, before: before}
	repos := f.repos
	repos.Labels = wrapped
	uc := NewUseCase(repos, f.store, &counterAlloc{}, nil, Options{Workers: 1}, nil, nil)
	uc.now = f.uc.now
	return uc, wrapped
}

func TestResync_DoesNotUndoConcurrentClear(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.product(t, "p1", "10.00")
	f.labels(t, "l1")
	_, err := f.uc.AssignProduct(ctx, tenant, "l1", "p1")
	require.NoError(t, err)

	uc, wrapped := f.interleaved(func() {
		_, err := f.uc.ClearAssignment(ctx, tenant, "l1")
		require.NoError(t, err)
	})
	report := uc.ResyncProduct(ctx, tenant, "p1", branch)
	assert.Equal(t, 1, report.Attempted)
	assert.Zero(t, report.Succeeded)
	assert.Zero(t, report.Failed)
	assert.Equal(t, 1, wrapped.writes)

	got, err := f.uc.Get(ctx, tenant, "l1")
	require.NoError(t, err)
	assert.Nil(t, got.ProductID)
	assert.Nil(t, got.FinalPrice)
	assert.Equal(t, entity.LabelStatusInactive, got.Status)
}

func TestResync_KeepsConcurrentDiscount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.product(t, "p1", "10.00")
	f.labels(t, "l1")
	_, err := f.uc.AssignProduct(ctx, tenant, "l1", "p1")
	require.NoError(t, err)

	uc, wrapped := f.interleaved(func() {
		_, err := f.uc.ApplyDiscount(ctx, tenant, "l1", 50)
		require.NoError(t, err)
	})
	report := uc.ResyncProduct(ctx, tenant, "p1", branch)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 2, wrapped.writes)

	got, err := f.uc.Get(ctx, tenant, "l1")
	require.NoError(t, err)
	require.NotNil(t, got.DiscountPercent)
	assert.Equal(t, 50, *got.DiscountPercent)
	assert.True(t, got.FinalPrice.Equal(dec("5.00")))
}

type alwaysStaleLabels struct {
	repository.LabelRepository
	writes int
}

func (r *alwaysStaleLabels) Update(context.Context, *entity.PriceLabel) error {
	r.writes++
	return domain.ErrConflict
}

func TestUpdateLocation_GivesUpAfterRepeatedConflicts(t *testing.T) {
	f := newFixture(t)
	f.labels(t, "l1")
	stale := &alwaysStaleLabels{LabelRepository: f.repos.Labels}
	repos := f.repos
	repos.Labels = stale
	uc := NewUseCase(repos, f.store, &counterAlloc{}, nil, Options{}, nil, nil)

	_, err := uc.UpdateLocation(context.Background(), tenant, "l1", "Pasillo 9")
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, maxWriteAttempts, stale.writes)
}
