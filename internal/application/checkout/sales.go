package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/Precios-api/internal/application/dto"
	"github.com/jhoicas/Precios-api/internal/domain"
	"github.com/jhoicas/Precios-api/internal/domain/entity"
)

// GetSale obtiene una venta por número de recibo.
func (uc *UseCase) GetSale(ctx context.Context, tenantID, branchID, receiptNo string) (*dto.SaleResponse, error) {
	sale, err := uc.load(ctx, tenantID, branchID, receiptNo)
	if err != nil {
		return nil, err
	}
	return ToSaleResponse(sale), nil
}

// ListSales ventas de la sucursal en [from, to), más recientes primero. Cero = sin límite.
func (uc *UseCase) ListSales(ctx context.Context, tenantID, branchID string, from, to time.Time, limit, offset int) (*dto.SaleListResponse, error) {
	if !from.IsZero() && !to.IsZero() && !to.After(from) {
		return nil, domain.ErrInvalidInput
	}
	list, err := uc.repos.Sales.ListByBranch(ctx, tenantID, branchID, from, to, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SaleResponse, 0, len(list))
	for _, s := range list {
		items = append(items, *ToSaleResponse(s))
	}
	return &dto.SaleListResponse{Items: items, Page: dto.PageResponse{Limit: limit, Offset: offset}}, nil
}

// DeleteSalesBefore borrado administrativo en bloque de ventas anteriores a before.
// No devuelve stock: las ventas son historia, no se anulan.
func (uc *UseCase) DeleteSalesBefore(ctx context.Context, tenantID string, before time.Time) (*dto.DeleteSalesResponse, error) {
	if tenantID == "" || before.IsZero() {
		return nil, domain.ErrInvalidInput
	}
	n, err := uc.repos.Sales.DeleteBefore(ctx, tenantID, before)
	if err != nil {
		return nil, err
	}
	uc.log.Warn().
		Str("tenant_id", tenantID).
		Time("before", before).
		Int64("deleted", n).
		Msg("ventas eliminadas")
	return &dto.DeleteSalesResponse{Deleted: n}, nil
}

// ReceiptPDF representación imprimible del recibo.
func (uc *UseCase) ReceiptPDF(ctx context.Context, tenantID, branchID, receiptNo string) ([]byte, error) {
	if uc.pdf == nil {
		return nil, errors.New("checkout: generador de PDF no configurado")
	}
	sale, err := uc.load(ctx, tenantID, branchID, receiptNo)
	if err != nil {
		return nil, err
	}
	return uc.pdf.RenderReceipt(ctx, sale)
}

func (uc *UseCase) load(ctx context.Context, tenantID, branchID, receiptNo string) (*entity.Sale, error) {
	sale, err := uc.repos.Sales.Get(ctx, tenantID, branchID, receiptNo)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	return sale, nil
}

// ToSaleResponse convierte la venta a DTO.
func ToSaleResponse(s *entity.Sale) *dto.SaleResponse {
	items := make([]dto.SaleItemResponse, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, dto.SaleItemResponse{
			ProductID:       it.ProductID,
			ProductName:     it.ProductName,
			Qty:             it.Qty,
			BaseUnitPrice:   it.BaseUnitPrice,
			FinalUnitPrice:  it.FinalUnitPrice,
			DiscountPercent: it.DiscountPercent,
			LineTotal:       it.LineTotal,
		})
	}
	return &dto.SaleResponse{
		ReceiptNo:      s.ReceiptNo,
		BranchID:       s.BranchID,
		StaffID:        s.StaffID,
		IdempotencyKey: s.IdempotencyKey,
		Items:          items,
		Subtotal:       s.Subtotal,
		DiscountTotal:  s.DiscountTotal,
		Total:          s.Total,
		CashReceived:   s.CashReceived,
		Change:         s.Change,
		CreatedAt:      s.CreatedAt,
	}
}
