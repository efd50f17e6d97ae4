package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Precios-api/internal/domain"
	"github.com/jhoicas/Precios-api/internal/domain/entity"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
)

// DebitForSaleInTx descuenta qty del registro usando los repos de la transacción del caller
// (la venta). Bloquea la fila, revalida el stock y deja un movimiento SALE con el número de recibo.
// Si no alcanza devuelve *domain.InsufficientStockError y el caller debe abortar la tx.
func DebitForSaleInTx(
	ctx context.Context,
	r repository.Repos,
	tenantID, productID, branchID, userID string,
	qty int,
	receiptNo string,
	now time.Time,
) (*entity.BranchStock, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidInput
	}
	rec, err := r.Stock.GetForUpdate(ctx, productID, branchID)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.TenantID != tenantID {
		return nil, &domain.InsufficientStockError{ProductID: productID, Available: 0, Requested: qty}
	}
	if rec.Stock < qty {
		return nil, &domain.InsufficientStockError{ProductID: productID, Available: rec.Stock, Requested: qty}
	}
	before := rec.Stock
	rec.Stock -= qty
	rec.Touch(now)
	if err := r.Stock.Update(ctx, rec); err != nil {
		return nil, err
	}
	mov := &entity.StockMovement{
		ID:            uuid.New().String(),
		TransactionID: receiptNo,
		TenantID:      tenantID,
		ProductID:     productID,
		BranchID:      branchID,
		Type:          entity.MovementTypeSale,
		Quantity:      -qty,
		StockBefore:   before,
		StockAfter:    rec.Stock,
		Reference:     receiptNo,
		CreatedAt:     now,
		CreatedBy:     userID,
	}
	if err := r.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}
	return rec, nil
}

// InitialStockInTx crea el registro de la sucursal con su movimiento INITIAL (alta del producto).
func InitialStockInTx(ctx context.Context, r repository.Repos, rec *entity.BranchStock, userID string, now time.Time) error {
	rec.CreatedAt = now
	rec.Touch(now)
	if err := r.Stock.Create(ctx, rec); err != nil {
		return err
	}
	if rec.Stock == 0 {
		return nil
	}
	return r.Movements.Create(ctx, &entity.StockMovement{
		ID:            uuid.New().String(),
		TransactionID: rec.ID,
		TenantID:      rec.TenantID,
		ProductID:     rec.ProductID,
		BranchID:      rec.BranchID,
		Type:          entity.MovementTypeInitial,
		Quantity:      rec.Stock,
		StockBefore:   0,
		StockAfter:    rec.Stock,
		CreatedAt:     now,
		CreatedBy:     userID,
	})
}
