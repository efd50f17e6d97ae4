package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Precios-api/internal/application/dto"
	"github.com/jhoicas/Precios-api/internal/application/inventory"
)

// StockHandler stock y precio por sucursal (protegido).
type StockHandler struct {
	uc *inventory.StockUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *inventory.StockUseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// Get godoc
// @Summary      Stock y precio vigente de un producto en la sucursal
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        branchId   path  string  true  "Sucursal"
// @Param        productId  path  string  true  "Producto"
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/branches/{branchId}/stock/{productId} [get]
func (h *StockHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetTenantID(c), c.Params("productId"), c.Params("branchId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Stock de la sucursal
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        branchId  path   string  true   "Sucursal"
// @Param        status    query  string  false  "in-stock | low-stock | out-of-stock"
// @Success      200  {array}  dto.StockResponse
// @Router       /api/branches/{branchId}/stock [get]
func (h *StockHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.ListByBranch(c.UserContext(), GetTenantID(c), c.Params("branchId"), c.Query("status"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Replenishment godoc
// @Summary      Lista de reposición
// @Description  Productos en o bajo su mínimo con la cantidad sugerida, los más urgentes primero.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        branchId  path  string  true  "Sucursal"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/branches/{branchId}/replenishment [get]
func (h *StockHandler) Replenishment(c *fiber.Ctx) error {
	list, err := h.uc.Replenishment(c.UserContext(), GetTenantID(c), c.Params("branchId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"total":          len(list),
		"replenishments": list,
	})
}

// Adjust godoc
// @Summary      Ajustar stock por delta
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        branchId   path  string  true  "Sucursal"
// @Param        productId  path  string  true  "Producto"
// @Param        body  body  dto.AdjustStockRequest  true  "Delta (negativo = salida)"
// @Success      200  {object}  dto.StockResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/branches/{branchId}/stock/{productId}/adjust [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.uc.AdjustStock(c.UserContext(), GetTenantID(c), GetUserID(c), c.Params("productId"), c.Params("branchId"), in.Delta, in.Reference)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SetQuantity godoc
// @Summary      Fijar stock (conteo físico)
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        branchId   path  string  true  "Sucursal"
// @Param        productId  path  string  true  "Producto"
// @Param        body  body  dto.SetStockRequest  true  "Stock contado"
// @Success      200  {object}  dto.StockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/branches/{branchId}/stock/{productId}/quantity [put]
func (h *StockHandler) SetQuantity(c *fiber.Ctx) error {
	var in dto.SetStockRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.uc.SetStock(c.UserContext(), GetTenantID(c), GetUserID(c), c.Params("productId"), c.Params("branchId"), in.Stock, in.Reference)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SetPrice godoc
// @Summary      Fijar precio propio de la sucursal
// @Description  0 elimina el precio propio. Las etiquetas del producto se resincronizan (best effort).
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        branchId   path  string  true  "Sucursal"
// @Param        productId  path  string  true  "Producto"
// @Param        body  body  dto.SetPriceRequest  true  "Precio"
// @Success      200  {object}  dto.SetPriceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/branches/{branchId}/stock/{productId}/price [put]
func (h *StockHandler) SetPrice(c *fiber.Ctx) error {
	var in dto.SetPriceRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.uc.SetPrice(c.UserContext(), GetTenantID(c), c.Params("productId"), c.Params("branchId"), in.Price)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SetMinStock godoc
// @Summary      Fijar stock mínimo
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        branchId   path  string  true  "Sucursal"
// @Param        productId  path  string  true  "Producto"
// @Param        body  body  dto.SetMinStockRequest  true  "Mínimo"
// @Success      200  {object}  dto.StockResponse
// @Router       /api/branches/{branchId}/stock/{productId}/min-stock [put]
func (h *StockHandler) SetMinStock(c *fiber.Ctx) error {
	var in dto.SetMinStockRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.uc.SetMinStock(c.UserContext(), GetTenantID(c), c.Params("productId"), c.Params("branchId"), in.MinStock)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Movements godoc
// @Summary      Movimientos de stock
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        branchId   path   string  true   "Sucursal"
// @Param        productId  path   string  true   "Producto"
// @Param        limit      query  int     false  "Límite"  default(50)
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/branches/{branchId}/stock/{productId}/movements [get]
func (h *StockHandler) Movements(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	out, err := h.uc.Movements(c.UserContext(), GetTenantID(c), c.Params("productId"), c.Params("branchId"), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
