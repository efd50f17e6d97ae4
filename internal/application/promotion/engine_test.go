package promotion

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Precios-api/internal/application/dto"
	"github.com/jhoicas/Precios-api/internal/application/labels"
	"github.com/jhoicas/Precios-api/internal/domain"
	"github.com/jhoicas/Precios-api/internal/domain/entity"
	"github.com/jhoicas/Precios-api/internal/infrastructure/memory"
)

const tenant = "t1"

var now = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

type env struct {
	store  *memory.Store
	labels *labels.UseCase
	engine *Engine
}

// newEnv dos sucursales; p1 con etiqueta en b1 y b2, p2 con etiqueta en b1, más una etiqueta libre.
func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	repos := store.Repos()
	for id, price := range map[string]string{"p1": "10.00", "p2": "25.00"} {
		require.NoError(t, repos.Products.Create(ctx, &entity.Product{ID: id, TenantID: tenant, Name: id, SKU: id, BasePrice: decimal.RequireFromString(price)}))
	}
	require.NoError(t, repos.Labels.CreateBatch(ctx, []*entity.PriceLabel{
		{ID: "l1", TenantID: tenant, BranchID: "b1", LabelCode: "L1"},
		{ID: "l2", TenantID: tenant, BranchID: "b2", LabelCode: "L2"},
		{ID: "l3", TenantID: tenant, BranchID: "b1", LabelCode: "L3"},
		{ID: "l4", TenantID: tenant, BranchID: "b1", LabelCode: "L4"},
	}))
	lu := labels.NewUseCase(repos, store, nil, nil, labels.Options{Workers: 3}, nil, nil)
	for label, product := range map[string]string{"l1": "p1", "l2": "p1", "l3": "p2"} {
		_, err := lu.AssignProduct(ctx, tenant, label, product)
		require.NoError(t, err)
	}
	e := NewEngine(repos, lu, nil)
	e.now = func() time.Time { return now }
	return &env{store: store, labels: lu, engine: e}
}

func (v *env) create(t *testing.T, req dto.CreatePromotionRequest) *dto.PromotionResponse {
	t.Helper()
	p, err := v.engine.Create(context.Background(), tenant, req)
	require.NoError(t, err)
	return p
}

func active(value int64, applyTo string, products, branches []string) dto.CreatePromotionRequest {
	return dto.CreatePromotionRequest{
		Name:       "Semana",
		Type:       entity.PromotionTypePercentage,
		Value:      decimal.NewFromInt(value),
		ApplyTo:    applyTo,
		ProductIDs: products,
		BranchIDs:  branches,
		StartAt:    now.Add(-time.Hour),
		EndAt:      now.Add(24 * time.Hour),
	}
}

func (v *env) label(t *testing.T, id string) *dto.LabelResponse {
	t.Helper()
	l, err := v.labels.Get(context.Background(), tenant, id)
	require.NoError(t, err)
	return l
}

func TestCreate_Validation(t *testing.T) {
	v := newEnv(t)
	ctx := context.Background()

	bad := active(0, entity.PromotionApplyAll, nil, nil)
	_, err := v.engine.Create(ctx, tenant, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidPercent)

	bad = active(10, entity.PromotionApplyAll, nil, nil)
	bad.Value = decimal.RequireFromString("12.5")
	_, err = v.engine.Create(ctx, tenant, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidPercent)

	bad = active(10, entity.PromotionApplyAll, nil, nil)
	bad.EndAt = bad.StartAt
	_, err = v.engine.Create(ctx, tenant, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	bad = active(10, "some", nil, nil)
	_, err = v.engine.Create(ctx, tenant, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	upcoming := active(10, entity.PromotionApplyAll, nil, nil)
	upcoming.StartAt = now.Add(time.Hour)
	p := v.create(t, upcoming)
	assert.Equal(t, entity.PromotionStatusUpcoming, p.Status)
	assert.Equal(t, []string{}, p.ProductIDs)
}

func TestStatusDerivedAtRead(t *testing.T) {
	v := newEnv(t)
	p := v.create(t, active(10, entity.PromotionApplyAll, nil, nil))
	assert.Equal(t, entity.PromotionStatusActive, p.Status)

	v.engine.now = func() time.Time { return now.Add(48 * time.Hour) }
	got, err := v.engine.Get(context.Background(), tenant, p.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PromotionStatusExpired, got.Status)

	_, err = v.engine.Get(context.Background(), "t2", p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApplyToLabels_All(t *testing.T) {
	v := newEnv(t)
	p := v.create(t, active(20, entity.PromotionApplyAll, nil, nil))

	report, err := v.engine.ApplyToLabels(context.Background(), tenant, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 3, report.Succeeded)
	assert.Zero(t, report.Failed)

	assert.True(t, v.label(t, "l1").FinalPrice.Equal(decimal.RequireFromString("8.00")))
	assert.True(t, v.label(t, "l3").FinalPrice.Equal(decimal.RequireFromString("20.00")))
	assert.Nil(t, v.label(t, "l4").ProductID)

	got, err := v.engine.Get(context.Background(), tenant, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastAppliedAt)
	assert.Equal(t, now, *got.LastAppliedAt)
}

func TestApplyToLabels_Selected(t *testing.T) {
	v := newEnv(t)
	p := v.create(t, active(10, entity.PromotionApplySelected, []string{"p1"}, []string{"b2"}))

	report, err := v.engine.ApplyToLabels(context.Background(), tenant, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Attempted)
	assert.Nil(t, v.label(t, "l1").DiscountPercent)
	require.NotNil(t, v.label(t, "l2").DiscountPercent)
	assert.Equal(t, 10, *v.label(t, "l2").DiscountPercent)
}

func TestApplyToLabels_SelectedEmptyListsMatchNothing(t *testing.T) {
	v := newEnv(t)
	p := v.create(t, active(10, entity.PromotionApplySelected, []string{"p1"}, nil))

	report, err := v.engine.ApplyToLabels(context.Background(), tenant, p.ID)
	require.NoError(t, err)
	assert.Zero(t, report.Attempted)
}

func TestApplyToLabels_Rejections(t *testing.T) {
	v := newEnv(t)
	ctx := context.Background()

	upcoming := active(10, entity.PromotionApplyAll, nil, nil)
	upcoming.StartAt = now.Add(time.Hour)
	p := v.create(t, upcoming)
	_, err := v.engine.ApplyToLabels(ctx, tenant, p.ID)
	assert.ErrorIs(t, err, domain.ErrPromotionWindowClosed)

	fixed := active(1, entity.PromotionApplyAll, nil, nil)
	fixed.Type = entity.PromotionTypeFixed
	fixed.Value = decimal.RequireFromString("2.00")
	p = v.create(t, fixed)
	_, err = v.engine.ApplyToLabels(ctx, tenant, p.ID)
	assert.ErrorIs(t, err, domain.ErrUnsupportedPromotion)
}

func TestApplyToLabels_PartialFailure(t *testing.T) {
	v := newEnv(t)
	ctx := context.Background()
	repos := v.store.Repos()
	p2, err := repos.Products.GetByID(ctx, "p2")
	require.NoError(t, err)
	p2.BasePrice = decimal.Zero
	require.NoError(t, repos.Products.Update(ctx, p2))

	p := v.create(t, active(50, entity.PromotionApplyAll, nil, nil))
	report, err := v.engine.ApplyToLabels(ctx, tenant, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "l3", report.Failures[0].LabelID)
	assert.Equal(t, "MISSING_BASE_PRICE", report.Failures[0].Code)
	assert.True(t, v.label(t, "l1").FinalPrice.Equal(decimal.RequireFromString("5.00")))
}

func TestRevert_OnlyMatchingPercent(t *testing.T) {
	v := newEnv(t)
	ctx := context.Background()
	p := v.create(t, active(20, entity.PromotionApplyAll, nil, nil))
	_, err := v.engine.ApplyToLabels(ctx, tenant, p.ID)
	require.NoError(t, err)
	_, err = v.labels.ApplyDiscount(ctx, tenant, "l3", 35)
	require.NoError(t, err)

	// revertir fuera de la ventana está permitido
	v.engine.now = func() time.Time { return now.Add(72 * time.Hour) }
	report, err := v.engine.Revert(ctx, tenant, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Skipped)

	assert.Nil(t, v.label(t, "l1").DiscountPercent)
	assert.True(t, v.label(t, "l1").FinalPrice.Equal(decimal.RequireFromString("10.00")))
	require.NotNil(t, v.label(t, "l3").DiscountPercent)
	assert.Equal(t, 35, *v.label(t, "l3").DiscountPercent)
}

func TestUpdateAndList(t *testing.T) {
	v := newEnv(t)
	ctx := context.Background()
	p := v.create(t, active(10, entity.PromotionApplyAll, nil, nil))

	bad := decimal.NewFromInt(150)
	_, err := v.engine.Update(ctx, tenant, p.ID, dto.UpdatePromotionRequest{Value: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidPercent)

	val := decimal.NewFromInt(15)
	name := "Fin de semana"
	got, err := v.engine.Update(ctx, tenant, p.ID, dto.UpdatePromotionRequest{Value: &val, Name: &name})
	require.NoError(t, err)
	assert.True(t, got.Value.Equal(val))
	assert.Equal(t, name, got.Name)

	list, err := v.engine.List(ctx, tenant, 10, 0)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, name, list.Items[0].Name)
}
