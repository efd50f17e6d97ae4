// Package catalog definiciones canónicas de producto y su alta en sucursales.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Precios-api/internal/application/dto"
	"github.com/jhoicas/Precios-api/internal/application/inventory"
	"github.com/jhoicas/Precios-api/internal/domain"
	"github.com/jhoicas/Precios-api/internal/domain/entity"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
	"github.com/jhoicas/Precios-api/pkg/codes"
	"github.com/jhoicas/Precios-api/pkg/logger"
)

// maxCodeAttempts consecutivos que se prueban cuando el generado ya fue usado a mano.
const maxCodeAttempts = 3

// CodeAllocator entrega consecutivos (sequence.Allocator).
type CodeAllocator interface {
	Next(ctx context.Context, scopeKey, counterName string) (int64, error)
}

// Options prefijos de los códigos generados.
type Options struct {
	SKUPrefix     string
	ProductPrefix string
}

// UseCase operaciones del catálogo.
type UseCase struct {
	repos  repository.Repos
	tx     repository.TxRunner
	alloc  CodeAllocator
	labels inventory.LabelResyncer
	opts   Options
	log    *logger.Logger
	now    func() time.Time
}

// NewUseCase construye el caso de uso. repos es el conjunto a nivel de pool.
func NewUseCase(
	repos repository.Repos,
	tx repository.TxRunner,
	alloc CodeAllocator,
	labels inventory.LabelResyncer,
	opts Options,
	log *logger.Logger,
) *UseCase {
	if opts.SKUPrefix == "" {
		opts.SKUPrefix = "SKU"
	}
	if opts.ProductPrefix == "" {
		opts.ProductPrefix = "PRD"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{repos: repos, tx: tx, alloc: alloc, labels: labels, opts: opts, log: log.Named("catalog"), now: time.Now}
}

// CreateProduct valida, verifica colisión de los códigos provistos antes de gastar consecutivos,
// genera los faltantes y persiste. Con in.Stock el registro de la sucursal se crea en la misma tx.
func (uc *UseCase) CreateProduct(ctx context.Context, tenantID, userID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.SKU = strings.TrimSpace(in.SKU)
	in.ProductCode = strings.TrimSpace(in.ProductCode)
	if tenantID == "" || in.Name == "" || in.BasePrice.IsNegative() {
		return nil, domain.ErrInvalidProduct
	}
	if s := in.Stock; s != nil {
		if s.Stock < 0 || s.MinStock < 0 || s.CurrentPrice.IsNegative() {
			return nil, domain.ErrInvalidProduct
		}
		if s.BranchID == "" || (in.BranchID != "" && s.BranchID != in.BranchID) {
			return nil, domain.ErrInvalidInput
		}
	}

	if in.SKU != "" || in.ProductCode != "" {
		taken, err := uc.repos.Products.CodeExists(ctx, tenantID, in.BranchID, in.SKU, in.ProductCode)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domain.ErrDuplicateCode
		}
	}

	scope := tenantID
	if in.BranchID != "" {
		scope = in.BranchID
	}
	sku := in.SKU
	if sku == "" {
		var err error
		sku, err = uc.generate(ctx, tenantID, in.BranchID, scope, entity.CounterSKU, func(n int64) (string, string) {
			return codes.SKU(uc.opts.SKUPrefix, n), ""
		})
		if err != nil {
			return nil, err
		}
	}
	productCode := in.ProductCode
	if productCode == "" {
		var err error
		productCode, err = uc.generate(ctx, tenantID, in.BranchID, scope, entity.CounterProductCode, func(n int64) (string, string) {
			return "", codes.Product(uc.opts.ProductPrefix, tenantID, n)
		})
		if err != nil {
			return nil, err
		}
	}

	now := uc.now()
	product := &entity.Product{
		ID:          uuid.New().String(),
		TenantID:    tenantID,
		BranchID:    in.BranchID,
		Name:        in.Name,
		SKU:         sku,
		ProductCode: productCode,
		Category:    strings.TrimSpace(in.Category),
		BasePrice:   in.BasePrice,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if !product.Validate() {
		return nil, domain.ErrInvalidProduct
	}

	var stock *entity.BranchStock
	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		if err := r.Products.Create(ctx, product); err != nil {
			return mapDuplicate(err)
		}
		if in.Stock == nil {
			return nil
		}
		stock = newStockRecord(product, *in.Stock)
		return inventory.InitialStockInTx(ctx, r, stock, userID, now)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("tenant_id", tenantID).
		Str("product_id", product.ID).
		Str("sku", product.SKU).
		Msg("producto creado")
	out := toProductResponse(product)
	if stock != nil {
		out.Stock = inventory.ToStockResponse(product, stock)
	}
	return out, nil
}

// generate pide consecutivos hasta obtener un código libre en el ámbito. format devuelve
// el candidato en la posición (sku o código de producto) que se verifica; la otra va vacía.
func (uc *UseCase) generate(
	ctx context.Context,
	tenantID, branchID, scope, counter string,
	format func(n int64) (sku, productCode string),
) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		n, err := uc.alloc.Next(ctx, scope, counter)
		if err != nil {
			return "", fmt.Errorf("generar %s: %w", counter, err)
		}
		sku, code := format(n)
		taken, err := uc.repos.Products.CodeExists(ctx, tenantID, branchID, sku, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return sku + code, nil
		}
		uc.log.Warn().Str("scope", scope).Str("counter", counter).Int64("value", n).Msg("código generado ya en uso")
	}
	return "", domain.ErrDuplicateCode
}

// UpdateProduct parche de nombre, categoría y precio base. Si cambia el precio base se
// resincronizan las etiquetas del producto (las sucursales con precio propio no cambian).
func (uc *UseCase) UpdateProduct(ctx context.Context, tenantID, productID string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.load(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.ErrInvalidProduct
		}
		product.Name = name
	}
	if in.Category != nil {
		product.Category = strings.TrimSpace(*in.Category)
	}
	priceChanged := false
	if in.BasePrice != nil {
		if in.BasePrice.IsNegative() {
			return nil, domain.ErrInvalidProduct
		}
		priceChanged = !in.BasePrice.Equal(product.BasePrice)
		product.BasePrice = *in.BasePrice
	}
	product.UpdatedAt = uc.now()
	if err := uc.repos.Products.Update(ctx, product); err != nil {
		return nil, err
	}

	out := toProductResponse(product)
	if priceChanged && uc.labels != nil {
		out.LabelResync = uc.labels.ResyncProduct(ctx, tenantID, productID, "")
	}
	return out, nil
}

// GetProduct obtiene un producto de la empresa.
func (uc *UseCase) GetProduct(ctx context.Context, tenantID, productID string) (*dto.ProductResponse, error) {
	product, err := uc.load(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// ListProducts lista productos por empresa con paginación.
func (uc *UseCase) ListProducts(ctx context.Context, tenantID string, limit, offset int) (*dto.ProductListResponse, error) {
	list, err := uc.repos.Products.ListByTenant(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{Items: items, Page: dto.PageResponse{Limit: limit, Offset: offset}}, nil
}

// IntroduceToBranch da de alta el producto en una sucursal. Si ya existe devuelve ErrDuplicate.
// Un producto creado para una sucursal solo puede darse de alta en esa sucursal.
func (uc *UseCase) IntroduceToBranch(ctx context.Context, tenantID, userID, productID string, in dto.IntroduceRequest) (*dto.StockResponse, error) {
	if in.BranchID == "" || in.Stock < 0 || in.MinStock < 0 || in.CurrentPrice.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.load(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if product.BranchID != "" && product.BranchID != in.BranchID {
		return nil, domain.ErrInvalidInput
	}
	stock := newStockRecord(product, in)
	err = uc.tx.Run(ctx, func(r repository.Repos) error {
		return inventory.InitialStockInTx(ctx, r, stock, userID, uc.now())
	})
	if err != nil {
		return nil, err
	}
	return inventory.ToStockResponse(product, stock), nil
}

func (uc *UseCase) load(ctx context.Context, tenantID, productID string) (*entity.Product, error) {
	product, err := uc.repos.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil || product.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return product, nil
}

func newStockRecord(product *entity.Product, in dto.IntroduceRequest) *entity.BranchStock {
	return &entity.BranchStock{
		ID:           uuid.New().String(),
		ProductID:    product.ID,
		BranchID:     in.BranchID,
		TenantID:     product.TenantID,
		CurrentPrice: in.CurrentPrice,
		Stock:        in.Stock,
		MinStock:     in.MinStock,
	}
}

// mapDuplicate una carrera en el insert de producto se reporta como código duplicado.
func mapDuplicate(err error) error {
	if errors.Is(err, domain.ErrDuplicate) {
		return domain.ErrDuplicateCode
	}
	return err
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:          p.ID,
		TenantID:    p.TenantID,
		BranchID:    p.BranchID,
		Name:        p.Name,
		SKU:         p.SKU,
		ProductCode: p.ProductCode,
		Category:    p.Category,
		BasePrice:   p.BasePrice,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
