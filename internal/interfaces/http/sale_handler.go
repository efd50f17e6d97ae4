package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Precios-api/internal/application/checkout"
	"github.com/jhoicas/Precios-api/internal/application/dto"
)

// SaleHandler cobro y libro de ventas (protegido).
type SaleHandler struct {
	uc *checkout.UseCase
}

// NewSaleHandler construye el handler.
func NewSaleHandler(uc *checkout.UseCase) *SaleHandler {
	return &SaleHandler{uc: uc}
}

// Checkout godoc
// @Summary      Cobrar carrito en efectivo
// @Description  Todo o nada: si una línea falla no se descuenta stock ni se escribe la venta.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        branchId  path  string  true  "Sucursal"
// @Param        body  body  dto.CheckoutRequest  true  "Carrito y efectivo recibido"
// @Success      201  {object}  dto.SaleResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/branches/{branchId}/checkout [post]
func (h *SaleHandler) Checkout(c *fiber.Ctx) error {
	var in dto.CheckoutRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	if in.IdempotencyKey == "" {
		in.IdempotencyKey = c.Get("Idempotency-Key")
	}
	out, err := h.uc.Checkout(c.UserContext(), GetTenantID(c), c.Params("branchId"), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Ventas de la sucursal
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        branchId  path   string  true   "Sucursal"
// @Param        from      query  string  false  "Desde (RFC3339, inclusive)"
// @Param        to        query  string  false  "Hasta (RFC3339, exclusivo)"
// @Param        limit     query  int     false  "Límite"  default(20)
// @Param        offset    query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.SaleListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/branches/{branchId}/sales [get]
func (h *SaleHandler) List(c *fiber.Ctx) error {
	from, err := queryTime(c, "from")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from debe ser RFC3339"})
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to debe ser RFC3339"})
	}
	limit, offset := pageParams(c)
	out, err := h.uc.ListSales(c.UserContext(), GetTenantID(c), c.Params("branchId"), from, to, limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByReceipt godoc
// @Summary      Obtener venta por número de recibo
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        branchId   path  string  true  "Sucursal"
// @Param        receiptNo  path  string  true  "Recibo"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/branches/{branchId}/sales/{receiptNo} [get]
func (h *SaleHandler) GetByReceipt(c *fiber.Ctx) error {
	out, err := h.uc.GetSale(c.UserContext(), GetTenantID(c), c.Params("branchId"), c.Params("receiptNo"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ReceiptPDF godoc
// @Summary      Recibo en PDF
// @Tags         sales
// @Security     Bearer
// @Produce      application/pdf
// @Param        branchId   path  string  true  "Sucursal"
// @Param        receiptNo  path  string  true  "Recibo"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/branches/{branchId}/sales/{receiptNo}/pdf [get]
func (h *SaleHandler) ReceiptPDF(c *fiber.Ctx) error {
	receiptNo := c.Params("receiptNo")
	pdf, err := h.uc.ReceiptPDF(c.UserContext(), GetTenantID(c), c.Params("branchId"), receiptNo)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+receiptNo+`.pdf"`)
	return c.Send(pdf)
}

// DeleteBefore godoc
// @Summary      Borrado administrativo de ventas
// @Description  Elimina las ventas de la empresa anteriores a la fecha. No repone stock.
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        before  query  string  true  "Fecha de corte (RFC3339)"
// @Success      200  {object}  dto.DeleteSalesResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/sales [delete]
func (h *SaleHandler) DeleteBefore(c *fiber.Ctx) error {
	before, err := queryTime(c, "before")
	if err != nil || before.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "before es requerido (RFC3339)"})
	}
	out, err := h.uc.DeleteSalesBefore(c.UserContext(), GetTenantID(c), before)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// queryTime vacío = tiempo cero (sin filtro).
func queryTime(c *fiber.Ctx, key string) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}
