// Package inventory administra el registro (producto, sucursal): stock autoritativo y precio propio.
package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Precios-api/internal/application/dto"
	"github.com/jhoicas/Precios-api/internal/domain"
	"github.com/jhoicas/Precios-api/internal/domain/entity"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
	"github.com/jhoicas/Precios-api/pkg/logger"
)

// LabelResyncer refresco best-effort de etiquetas tras un cambio de precio (labels.UseCase).
type LabelResyncer interface {
	ResyncProduct(ctx context.Context, tenantID, productID, branchID string) *dto.ResyncReport
}

// StockUseCase mutaciones de stock y precio por sucursal. Cada una corre en su propia
// transacción con la fila bloqueada (SELECT FOR UPDATE) y deja un movimiento de auditoría.
type StockUseCase struct {
	repos  repository.Repos
	tx     repository.TxRunner
	labels LabelResyncer
	log    *logger.Logger
	now    func() time.Time
}

// NewStockUseCase construye el caso de uso. repos es el conjunto a nivel de pool.
func NewStockUseCase(repos repository.Repos, tx repository.TxRunner, labels LabelResyncer, log *logger.Logger) *StockUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &StockUseCase{repos: repos, tx: tx, labels: labels, log: log.Named("inventory"), now: time.Now}
}

// Get precio vigente y stock del producto en la sucursal.
func (uc *StockUseCase) Get(ctx context.Context, tenantID, productID, branchID string) (*dto.StockResponse, error) {
	product, err := uc.product(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	rec, err := uc.repos.Stock.Get(ctx, productID, branchID)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return ToStockResponse(product, rec), nil
}

// AdjustStock suma delta (negativo = salida). Si el resultado es negativo devuelve
// ErrNegativeStock y el registro queda intacto.
func (uc *StockUseCase) AdjustStock(ctx context.Context, tenantID, userID, productID, branchID string, delta int, reference string) (*dto.StockResponse, error) {
	if delta == 0 {
		return nil, domain.ErrInvalidInput
	}
	return uc.mutate(ctx, tenantID, productID, branchID, func(r repository.Repos, rec *entity.BranchStock, now time.Time) error {
		before := rec.Stock
		if before+delta < 0 {
			return domain.ErrNegativeStock
		}
		rec.Stock = before + delta
		return r.Movements.Create(ctx, newMovement(rec, entity.MovementTypeAdjustment, delta, before, reference, userID, now))
	})
}

// SetStock fija el stock (conteo físico).
func (uc *StockUseCase) SetStock(ctx context.Context, tenantID, userID, productID, branchID string, value int, reference string) (*dto.StockResponse, error) {
	if value < 0 {
		return nil, domain.ErrNegativeStock
	}
	return uc.mutate(ctx, tenantID, productID, branchID, func(r repository.Repos, rec *entity.BranchStock, now time.Time) error {
		before := rec.Stock
		rec.Stock = value
		return r.Movements.Create(ctx, newMovement(rec, entity.MovementTypeSet, value-before, before, reference, userID, now))
	})
}

// SetMinStock cambia el umbral de stock bajo; el estado se recalcula.
func (uc *StockUseCase) SetMinStock(ctx context.Context, tenantID, productID, branchID string, minStock int) (*dto.StockResponse, error) {
	if minStock < 0 {
		return nil, domain.ErrInvalidInput
	}
	return uc.mutate(ctx, tenantID, productID, branchID, func(_ repository.Repos, rec *entity.BranchStock, _ time.Time) error {
		rec.MinStock = minStock
		return nil
	})
}

// SetPrice fija el precio propio de la sucursal (0 = usar el precio del catálogo) y luego
// resincroniza las etiquetas del producto en esa sucursal. Un fallo de la resincronización
// no revierte el precio: queda en el reporte y el job de reconciliación lo corrige.
func (uc *StockUseCase) SetPrice(ctx context.Context, tenantID, productID, branchID string, price decimal.Decimal) (*dto.SetPriceResponse, error) {
	if price.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	stock, err := uc.mutate(ctx, tenantID, productID, branchID, func(_ repository.Repos, rec *entity.BranchStock, _ time.Time) error {
		rec.CurrentPrice = price
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := &dto.SetPriceResponse{Stock: *stock}
	if uc.labels != nil {
		out.LabelResync = uc.labels.ResyncProduct(ctx, tenantID, productID, branchID)
		if out.LabelResync.Failed > 0 {
			uc.log.Warn().
				Str("tenant_id", tenantID).
				Str("product_id", productID).
				Str("branch_id", branchID).
				Int("failed", out.LabelResync.Failed).
				Msg("precio actualizado con etiquetas pendientes de sincronizar")
		}
	}
	return out, nil
}

// Movements últimos movimientos del producto en la sucursal.
func (uc *StockUseCase) Movements(ctx context.Context, tenantID, productID, branchID string, limit int) ([]dto.MovementResponse, error) {
	if _, err := uc.product(ctx, tenantID, productID); err != nil {
		return nil, err
	}
	list, err := uc.repos.Movements.ListByProduct(ctx, productID, branchID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, dto.MovementResponse{
			ID:            m.ID,
			TransactionID: m.TransactionID,
			Type:          m.Type,
			Quantity:      m.Quantity,
			StockBefore:   m.StockBefore,
			StockAfter:    m.StockAfter,
			Reference:     m.Reference,
			CreatedBy:     m.CreatedBy,
			CreatedAt:     m.CreatedAt,
		})
	}
	return out, nil
}

// mutate bloquea la fila, aplica fn, recalcula estado y persiste; todo en una transacción.
func (uc *StockUseCase) mutate(
	ctx context.Context,
	tenantID, productID, branchID string,
	fn func(r repository.Repos, rec *entity.BranchStock, now time.Time) error,
) (*dto.StockResponse, error) {
	product, err := uc.product(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	var result *entity.BranchStock
	err = uc.tx.Run(ctx, func(r repository.Repos) error {
		rec, err := r.Stock.GetForUpdate(ctx, productID, branchID)
		if err != nil {
			return err
		}
		if rec == nil || rec.TenantID != tenantID {
			return domain.ErrNotFound
		}
		now := uc.now()
		if err := fn(r, rec, now); err != nil {
			return err
		}
		rec.Touch(now)
		if err := r.Stock.Update(ctx, rec); err != nil {
			return err
		}
		result = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToStockResponse(product, result), nil
}

func (uc *StockUseCase) product(ctx context.Context, tenantID, productID string) (*entity.Product, error) {
	product, err := uc.repos.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil || product.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return product, nil
}

func newMovement(rec *entity.BranchStock, typ string, qty, before int, reference, userID string, now time.Time) *entity.StockMovement {
	return &entity.StockMovement{
		ID:            uuid.New().String(),
		TransactionID: uuid.New().String(),
		TenantID:      rec.TenantID,
		ProductID:     rec.ProductID,
		BranchID:      rec.BranchID,
		Type:          typ,
		Quantity:      qty,
		StockBefore:   before,
		StockAfter:    rec.Stock,
		Reference:     reference,
		CreatedAt:     now,
		CreatedBy:     userID,
	}
}

// ToStockResponse combina producto y registro; product puede ser nil.
func ToStockResponse(product *entity.Product, rec *entity.BranchStock) *dto.StockResponse {
	out := &dto.StockResponse{
		ProductID:      rec.ProductID,
		BranchID:       rec.BranchID,
		CurrentPrice:   rec.CurrentPrice,
		EffectivePrice: entity.EffectivePrice(product, rec),
		Stock:          rec.Stock,
		MinStock:       rec.MinStock,
		Status:         rec.Status,
		LastUpdated:    rec.LastUpdated,
	}
	if product != nil {
		out.ProductName = product.Name
	}
	return out
}
