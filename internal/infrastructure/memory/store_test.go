package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Precios-api/internal/domain"
	"github.com/jhoicas/Precios-api/internal/domain/entity"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
)

func TestRun_RollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	repos := s.Repos()
	require.NoError(t, repos.Stock.Create(ctx, &entity.BranchStock{ProductID: "p1", BranchID: "b1", Stock: 5}))

	boom := errors.New("boom")
	err := s.Run(ctx, func(tx repository.Repos) error {
		rec, err := tx.Stock.GetForUpdate(ctx, "p1", "b1")
		require.NoError(t, err)
		rec.Stock = 0
		require.NoError(t, tx.Stock.Update(ctx, rec))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	rec, err := repos.Stock.Get(ctx, "p1", "b1")
	require.NoError(t, err)
	assert.Equal(t, 5, rec.Stock)
}

func TestRun_CommitAppliesWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Run(ctx, func(tx repository.Repos) error {
		return tx.Products.Create(ctx, &entity.Product{ID: "p1", TenantID: "t1", Name: "Café", SKU: "SKU-1", BasePrice: decimal.NewFromInt(3)})
	}))

	p, err := s.Repos().Products.GetByID(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Café", p.Name)
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	repos := New().Repos()
	require.NoError(t, repos.Stock.Create(ctx, &entity.BranchStock{ProductID: "p1", BranchID: "b1", Stock: 5}))

	rec, _ := repos.Stock.Get(ctx, "p1", "b1")
	rec.Stock = 99

	again, _ := repos.Stock.Get(ctx, "p1", "b1")
	assert.Equal(t, 5, again.Stock)
}

func TestLabelUpdate_ChecksVersion(t *testing.T) {
	ctx := context.Background()
	repos := New().Repos()
	require.NoError(t, repos.Labels.CreateBatch(ctx, []*entity.PriceLabel{{ID: "l1", BranchID: "b1", LabelCode: "LBL-1"}}))

	first, err := repos.Labels.GetByID(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Version)
	second, err := repos.Labels.GetByID(ctx, "l1")
	require.NoError(t, err)

	first.Location = "A / 1"
	require.NoError(t, repos.Labels.Update(ctx, first))
	assert.Equal(t, int64(2), first.Version)

	second.Location = "B / 2"
	assert.ErrorIs(t, repos.Labels.Update(ctx, second), domain.ErrConflict)

	got, err := repos.Labels.GetByID(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, "A / 1", got.Location)
	assert.Equal(t, int64(2), got.Version)

	assert.ErrorIs(t, repos.Labels.Update(ctx, &entity.PriceLabel{ID: "nope", Version: 1}), domain.ErrNotFound)
}

func TestLabelList_AfterCursor(t *testing.T) {
	ctx := context.Background()
	repos := New().Repos()
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repos.Labels.CreateBatch(ctx, []*entity.PriceLabel{
		{ID: "c", BranchID: "b1", LabelCode: "LBL-1", CreatedAt: t0},
		{ID: "a", BranchID: "b1", LabelCode: "LBL-2", CreatedAt: t0},
		{ID: "b", BranchID: "b1", LabelCode: "LBL-3", CreatedAt: t0.Add(time.Second)},
	}))

	page, err := repos.Labels.List(ctx, repository.LabelFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)

	rest, err := repos.Labels.List(ctx, repository.LabelFilter{Limit: 2, After: repository.CursorOf(page[1])})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "b", rest[0].ID)

	// cursor de una etiqueta que no está: se compara por (created_at, id)
	rest, err = repos.Labels.List(ctx, repository.LabelFilter{After: &repository.LabelCursor{CreatedAt: t0, ID: "bb"}})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, "c", rest[0].ID)
	assert.Equal(t, "b", rest[1].ID)
}

func TestProductCodeScopes(t *testing.T) {
	ctx := context.Background()
	repos := New().Repos()
	require.NoError(t, repos.Products.Create(ctx, &entity.Product{ID: "a", TenantID: "t1", BranchID: "b1", SKU: "X"}))

	// otra sucursal puede repetir el código
	taken, err := repos.Products.CodeExists(ctx, "t1", "b2", "X", "")
	require.NoError(t, err)
	assert.False(t, taken)

	// a nivel empresa choca con cualquier producto
	taken, _ = repos.Products.CodeExists(ctx, "t1", "", "X", "")
	assert.True(t, taken)

	require.NoError(t, repos.Products.Create(ctx, &entity.Product{ID: "g", TenantID: "t1", SKU: "Y"}))
	taken, _ = repos.Products.CodeExists(ctx, "t1", "b2", "Y", "")
	assert.True(t, taken)

	err = repos.Products.Create(ctx, &entity.Product{ID: "dup", TenantID: "t1", BranchID: "b1", SKU: "X"})
	assert.ErrorIs(t, err, domain.ErrDuplicateCode)
}

func TestSequenceCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	seq := New().Repos().Sequences

	ok, err := seq.Insert(ctx, &entity.SequenceCounter{ScopeKey: "b1", CounterName: "receipt", NextValue: 2})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = seq.Insert(ctx, &entity.SequenceCounter{ScopeKey: "b1", CounterName: "receipt", NextValue: 2})
	assert.False(t, ok)

	ok, _ = seq.CompareAndSwap(ctx, "b1", "receipt", 3, 4)
	assert.False(t, ok)
	ok, _ = seq.CompareAndSwap(ctx, "b1", "receipt", 2, 3)
	assert.True(t, ok)

	c, _ := seq.Get(ctx, "b1", "receipt")
	assert.EqualValues(t, 3, c.NextValue)
}

func TestSalesUniqueAndDelete(t *testing.T) {
	ctx := context.Background()
	sales := New().Repos().Sales
	old := time.Now().Add(-48 * time.Hour)

	require.NoError(t, sales.Create(ctx, &entity.Sale{ReceiptNo: "R1", TenantID: "t1", BranchID: "b1", IdempotencyKey: "k1", CreatedAt: old}))
	assert.ErrorIs(t, sales.Create(ctx, &entity.Sale{ReceiptNo: "R1", TenantID: "t1", BranchID: "b1"}), domain.ErrDuplicateSale)
	assert.ErrorIs(t, sales.Create(ctx, &entity.Sale{ReceiptNo: "R2", TenantID: "t1", BranchID: "b1", IdempotencyKey: "k1"}), domain.ErrDuplicateSale)
	require.NoError(t, sales.Create(ctx, &entity.Sale{ReceiptNo: "R3", TenantID: "t1", BranchID: "b1", CreatedAt: time.Now()}))

	n, err := sales.DeleteBefore(ctx, "t1", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	list, _ := sales.ListByBranch(ctx, "t1", "b1", time.Time{}, time.Time{}, 10, 0)
	require.Len(t, list, 1)
	assert.Equal(t, "R3", list[0].ReceiptNo)
}
