package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Precios-api/internal/domain/entity"
)

// SaleRepository puerto del libro de ventas: solo inserción, lectura y borrado administrativo en bloque.
type SaleRepository interface {
	// Create devuelve domain.ErrDuplicateSale si el recibo o la clave de idempotencia ya existen.
	Create(ctx context.Context, sale *entity.Sale) error
	Get(ctx context.Context, tenantID, branchID, receiptNo string) (*entity.Sale, error)
	GetByIdempotencyKey(ctx context.Context, tenantID, branchID, key string) (*entity.Sale, error)
	ListByBranch(ctx context.Context, tenantID, branchID string, from, to time.Time, limit, offset int) ([]*entity.Sale, error)
	DeleteBefore(ctx context.Context, tenantID string, before time.Time) (int64, error)
}
