package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/Precios-api/internal/application/dto"
	"github.com/jhoicas/Precios-api/internal/domain/entity"
)

// ListByBranch registros de la sucursal; status vacío = todos.
func (uc *StockUseCase) ListByBranch(ctx context.Context, tenantID, branchID, status string) ([]dto.StockResponse, error) {
	records, err := uc.repos.Stock.ListByBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockResponse, 0, len(records))
	for _, rec := range records {
		if rec.TenantID != tenantID || (status != "" && rec.Status != status) {
			continue
		}
		product, err := uc.repos.Products.GetByID(ctx, rec.ProductID)
		if err != nil {
			return nil, err
		}
		out = append(out, *ToStockResponse(product, rec))
	}
	return out, nil
}

// Replenishment productos en low-stock u out-of-stock de la sucursal con la cantidad sugerida
// para volver a 1.5 veces el mínimo. Prioridad 1 = más urgente (agotados primero, luego
// menor cobertura del mínimo).
func (uc *StockUseCase) Replenishment(ctx context.Context, tenantID, branchID string) ([]dto.ReplenishmentSuggestion, error) {
	records, err := uc.repos.Stock.ListByBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	var candidates []*entity.BranchStock
	for _, rec := range records {
		if rec.TenantID == tenantID && rec.Status != entity.StockStatusInStock {
			candidates = append(candidates, rec)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return coverage(candidates[i]) < coverage(candidates[j])
	})

	out := make([]dto.ReplenishmentSuggestion, 0, len(candidates))
	for i, rec := range candidates {
		product, err := uc.repos.Products.GetByID(ctx, rec.ProductID)
		if err != nil {
			return nil, err
		}
		ideal := (rec.MinStock*3 + 1) / 2
		suggested := ideal - rec.Stock
		if suggested < 1 {
			suggested = 1
		}
		s := dto.ReplenishmentSuggestion{
			ProductID:    rec.ProductID,
			CurrentStock: rec.Stock,
			MinStock:     rec.MinStock,
			IdealStock:   ideal,
			SuggestedQty: suggested,
			Status:       rec.Status,
			Priority:     i + 1,
		}
		if product != nil {
			s.SKU, s.ProductName = product.SKU, product.Name
		}
		out = append(out, s)
	}
	return out, nil
}

// coverage fracción del mínimo cubierta por el stock actual.
func coverage(rec *entity.BranchStock) float64 {
	if rec.Stock <= 0 {
		return 0
	}
	if rec.MinStock <= 0 {
		return 1
	}
	return float64(rec.Stock) / float64(rec.MinStock)
}
