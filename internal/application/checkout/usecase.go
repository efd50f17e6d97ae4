// Package checkout cobra un carrito: descuenta stock y registra la venta en una sola transacción.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Precios-api/internal/application/dto"
	"github.com/jhoicas/Precios-api/internal/application/inventory"
	"github.com/jhoicas/Precios-api/internal/domain"
	"github.com/jhoicas/Precios-api/internal/domain/entity"
	"github.com/jhoicas/Precios-api/internal/domain/pricing"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
	"github.com/jhoicas/Precios-api/pkg/codes"
	"github.com/jhoicas/Precios-api/pkg/logger"
	"github.com/jhoicas/Precios-api/pkg/metrics"
)

// MaxLineQty tope de unidades por producto en un carrito, ya sumadas las líneas repetidas.
const MaxLineQty = 100000

// Resultados de checkout para métricas.
const (
	OutcomeOK                = "ok"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeInsufficientCash  = "insufficient_cash"
	OutcomeDuplicate         = "duplicate"
	OutcomeConflict          = "conflict"
	OutcomeError             = "error"
)

// ReceiptAllocator entrega el consecutivo del recibo (sequence.Allocator).
type ReceiptAllocator interface {
	Next(ctx context.Context, scopeKey, counterName string) (int64, error)
}

// ReceiptRenderer genera el PDF del recibo.
type ReceiptRenderer interface {
	RenderReceipt(ctx context.Context, sale *entity.Sale) ([]byte, error)
}

// Options parámetros del cobro.
type Options struct {
	ReceiptPrefix string
	MaxAttempts   int // intentos de la tx ante conflicto de escritura
}

// UseCase cobro y consulta de ventas.
type UseCase struct {
	repos   repository.Repos
	tx      repository.TxRunner
	alloc   ReceiptAllocator
	pdf     ReceiptRenderer
	opts    Options
	metrics *metrics.SyncMetrics
	log     *logger.Logger
	now     func() time.Time
}

// NewUseCase construye el caso de uso. repos es el conjunto a nivel de pool.
func NewUseCase(
	repos repository.Repos,
	tx repository.TxRunner,
	alloc ReceiptAllocator,
	pdf ReceiptRenderer,
	opts Options,
	m *metrics.SyncMetrics,
	log *logger.Logger,
) *UseCase {
	if opts.ReceiptPrefix == "" {
		opts.ReceiptPrefix = "RCPT"
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{
		repos:   repos,
		tx:      tx,
		alloc:   alloc,
		pdf:     pdf,
		opts:    opts,
		metrics: m,
		log:     log.Named("checkout"),
		now:     time.Now,
	}
}

type line struct {
	productID string
	qty       int
}

// Checkout valida, cotiza y cobra. Ante cualquier error no queda stock descontado ni venta escrita.
// Un consecutivo de recibo ya entregado no se reutiliza aunque la venta falle.
func (uc *UseCase) Checkout(ctx context.Context, tenantID, branchID, staffID string, in dto.CheckoutRequest) (*dto.SaleResponse, error) {
	sale, err := uc.checkout(ctx, tenantID, branchID, staffID, in)
	uc.metrics.Checkout(outcome(err))
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("tenant_id", tenantID).
		Str("branch_id", branchID).
		Str("receipt_no", sale.ReceiptNo).
		Str("total", sale.Total.StringFixed(2)).
		Int("lines", len(sale.Items)).
		Msg("venta registrada")
	return ToSaleResponse(sale), nil
}

func (uc *UseCase) checkout(ctx context.Context, tenantID, branchID, staffID string, in dto.CheckoutRequest) (*entity.Sale, error) {
	if tenantID == "" || branchID == "" || in.CashReceived.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	lines, err := mergeLines(in.Items)
	if err != nil {
		return nil, err
	}

	if in.IdempotencyKey != "" {
		prev, err := uc.repos.Sales.GetByIdempotencyKey(ctx, tenantID, branchID, in.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if prev != nil {
			return nil, domain.ErrDuplicateSale
		}
	}

	// cotización sin escrituras: stock, precio, totales y efectivo
	sale := &entity.Sale{
		TenantID:       tenantID,
		BranchID:       branchID,
		StaffID:        staffID,
		IdempotencyKey: in.IdempotencyKey,
		Items:          make([]entity.SaleItem, 0, len(lines)),
		CashReceived:   in.CashReceived,
	}
	subtotal, total := decimal.Zero, decimal.Zero
	for _, l := range lines {
		item, err := uc.quote(ctx, tenantID, branchID, l)
		if err != nil {
			return nil, err
		}
		subtotal = subtotal.Add(pricing.Round2(item.BaseUnitPrice.Mul(decimal.NewFromInt(int64(item.Qty)))))
		total = total.Add(item.LineTotal)
		sale.Items = append(sale.Items, item)
	}
	if in.CashReceived.LessThan(total) {
		return nil, &domain.InsufficientCashError{Total: total, Received: in.CashReceived}
	}
	sale.Subtotal = subtotal
	sale.Total = total
	sale.DiscountTotal = subtotal.Sub(total)
	sale.Change = in.CashReceived.Sub(total)

	now := uc.now()
	n, err := uc.alloc.Next(ctx, branchID, entity.CounterReceipt)
	if err != nil {
		return nil, fmt.Errorf("receipt number: %w", err)
	}
	sale.ReceiptNo = codes.Receipt(uc.opts.ReceiptPrefix, now, n)
	sale.CreatedAt = now

	// orden estable de bloqueo para que dos cobros concurrentes no se crucen
	locked := append([]line(nil), lines...)
	sort.Slice(locked, func(i, j int) bool { return locked[i].productID < locked[j].productID })

	for attempt := 1; ; attempt++ {
		err = uc.tx.Run(ctx, func(r repository.Repos) error {
			for _, l := range locked {
				if _, err := inventory.DebitForSaleInTx(ctx, r, tenantID, l.productID, branchID, staffID, l.qty, sale.ReceiptNo, now); err != nil {
					return err
				}
			}
			return r.Sales.Create(ctx, sale)
		})
		if err == nil || !errors.Is(err, domain.ErrConflict) || attempt >= uc.opts.MaxAttempts {
			break
		}
		uc.log.Warn().
			Str("branch_id", branchID).
			Str("receipt_no", sale.ReceiptNo).
			Int("attempt", attempt).
			Msg("conflicto de escritura en el cobro, reintentando")
	}
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// quote resuelve el precio de la línea: precio vigente de la sucursal y, si alguna etiqueta del
// producto en la sucursal tiene descuento, ese porcentaje aplicado sobre el precio vigente.
func (uc *UseCase) quote(ctx context.Context, tenantID, branchID string, l line) (entity.SaleItem, error) {
	product, err := uc.repos.Products.GetByID(ctx, l.productID)
	if err != nil {
		return entity.SaleItem{}, err
	}
	if product == nil || product.TenantID != tenantID {
		return entity.SaleItem{}, domain.ErrNotFound
	}
	rec, err := uc.repos.Stock.Get(ctx, l.productID, branchID)
	if err != nil {
		return entity.SaleItem{}, err
	}
	if rec == nil || rec.TenantID != tenantID {
		return entity.SaleItem{}, &domain.InsufficientStockError{ProductID: l.productID, Available: 0, Requested: l.qty}
	}
	if rec.Stock < l.qty {
		return entity.SaleItem{}, &domain.InsufficientStockError{ProductID: l.productID, Available: rec.Stock, Requested: l.qty}
	}

	base := entity.EffectivePrice(product, rec)
	if !base.IsPositive() {
		return entity.SaleItem{}, domain.ErrMissingBasePrice
	}
	percent, err := uc.labelDiscount(ctx, tenantID, branchID, l.productID)
	if err != nil {
		return entity.SaleItem{}, err
	}
	final := base
	if percent != nil {
		final = pricing.ApplyPercent(base, *percent)
	}
	return entity.SaleItem{
		ProductID:       l.productID,
		ProductName:     product.Name,
		Qty:             l.qty,
		BaseUnitPrice:   base,
		FinalUnitPrice:  final,
		DiscountPercent: percent,
		LineTotal:       pricing.Round2(final.Mul(decimal.NewFromInt(int64(l.qty)))),
	}, nil
}

// labelDiscount primer porcentaje (orden de creación) entre las etiquetas del producto en la sucursal.
func (uc *UseCase) labelDiscount(ctx context.Context, tenantID, branchID, productID string) (*int, error) {
	list, err := uc.repos.Labels.List(ctx, repository.LabelFilter{
		TenantID:     tenantID,
		BranchID:     branchID,
		ProductID:    productID,
		OnlyAssigned: true,
	})
	if err != nil {
		return nil, err
	}
	for _, l := range list {
		if l.DiscountPercent != nil && pricing.ValidPercent(*l.DiscountPercent) {
			p := *l.DiscountPercent
			return &p, nil
		}
	}
	return nil, nil
}

// mergeLines une líneas repetidas del mismo producto conservando el orden de aparición.
func mergeLines(items []dto.CheckoutItem) ([]line, error) {
	if len(items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	idx := map[string]int{}
	var out []line
	for _, it := range items {
		if it.ProductID == "" || it.Qty <= 0 || it.Qty > MaxLineQty {
			return nil, domain.ErrInvalidInput
		}
		if i, ok := idx[it.ProductID]; ok {
			// ambos sumandos <= MaxLineQty: la suma no desborda
			if out[i].qty+it.Qty > MaxLineQty {
				return nil, domain.ErrInvalidInput
			}
			out[i].qty += it.Qty
			continue
		}
		idx[it.ProductID] = len(out)
		out = append(out, line{productID: it.ProductID, qty: it.Qty})
	}
	return out, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, domain.ErrInsufficientStock):
		return OutcomeInsufficientStock
	case errors.Is(err, domain.ErrInsufficientCash):
		return OutcomeInsufficientCash
	case errors.Is(err, domain.ErrDuplicateSale):
		return OutcomeDuplicate
	case domain.IsRetryable(err):
		return OutcomeConflict
	default:
		return OutcomeError
	}
}
