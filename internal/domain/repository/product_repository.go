package repository

import (
	"context"

	"github.com/jhoicas/Precios-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// CodeExists verifica colisión de SKU o código dentro del ámbito:
	// branchID vacío = toda la empresa; con branchID = esa sucursal más los productos de empresa.
	CodeExists(ctx context.Context, tenantID, branchID, sku, productCode string) (bool, error)
	Update(ctx context.Context, product *entity.Product) error
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Product, error)
}
