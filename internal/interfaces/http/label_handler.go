package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Precios-api/internal/application/dto"
	"github.com/jhoicas/Precios-api/internal/application/labels"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
)

// LabelHandler etiquetas de góndola (protegido).
type LabelHandler struct {
	uc *labels.UseCase
}

// NewLabelHandler construye el handler.
func NewLabelHandler(uc *labels.UseCase) *LabelHandler {
	return &LabelHandler{uc: uc}
}

// List godoc
// @Summary      Etiquetas de la sucursal
// @Tags         labels
// @Security     Bearer
// @Produce      json
// @Param        branchId  path   string  true   "Sucursal"
// @Param        limit     query  int     false  "Límite"  default(20)
// @Param        offset    query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.LabelListResponse
// @Router       /api/branches/{branchId}/labels [get]
func (h *LabelHandler) List(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	out, err := h.uc.ListByBranch(c.UserContext(), GetTenantID(c), c.Params("branchId"), limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Provision godoc
// @Summary      Alta masiva de etiquetas en blanco
// @Description  Una etiqueta por posición del layout. Si la sucursal ya tiene etiquetas no hace nada.
// @Tags         labels
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        branchId  path  string  true  "Sucursal"
// @Param        body  body  dto.ProvisionRequest  true  "Layout de zonas y posiciones"
// @Success      200  {object}  dto.ProvisionResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/branches/{branchId}/labels/provision [post]
func (h *LabelHandler) Provision(c *fiber.Ctx) error {
	var in dto.ProvisionRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.uc.Provision(c.UserContext(), GetTenantID(c), c.Params("branchId"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AutoAssign godoc
// @Summary      Emparejar etiquetas libres con productos sin etiqueta
// @Tags         labels
// @Security     Bearer
// @Produce      json
// @Param        branchId  path  string  true  "Sucursal"
// @Success      200  {object}  dto.AutoAssignResponse
// @Router       /api/branches/{branchId}/labels/auto-assign [post]
func (h *LabelHandler) AutoAssign(c *fiber.Ctx) error {
	out, err := h.uc.AutoAssign(c.UserContext(), GetTenantID(c), c.Params("branchId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Resync godoc
// @Summary      Resincronizar etiquetas de la sucursal
// @Tags         labels
// @Security     Bearer
// @Produce      json
// @Param        branchId  path  string  true  "Sucursal"
// @Success      200  {object}  dto.ResyncReport
// @Router       /api/branches/{branchId}/labels/resync [post]
func (h *LabelHandler) Resync(c *fiber.Ctx) error {
	out, err := h.uc.Resync(c.UserContext(), repository.LabelFilter{TenantID: GetTenantID(c), BranchID: c.Params("branchId")})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Feed godoc
// @Summary      Feed XML de etiquetas electrónicas
// @Description  ETag = SHA-256 del XML canónico. Responde 304 si coincide con If-None-Match.
// @Tags         labels
// @Security     Bearer
// @Produce      xml
// @Param        branchId  path   string  true   "Sucursal"
// @Param        charset   query  string  false  "latin1 para ISO-8859-1"
// @Success      200
// @Success      304
// @Router       /api/branches/{branchId}/labels/feed [get]
func (h *LabelHandler) Feed(c *fiber.Ctx) error {
	feed, err := h.uc.Feed(c.UserContext(), GetTenantID(c), c.Params("branchId"), c.Query("charset") == "latin1")
	if err != nil {
		return writeError(c, err)
	}
	etag := `"` + feed.ETag + `"`
	c.Set(fiber.HeaderETag, etag)
	if c.Get(fiber.HeaderIfNoneMatch) == etag {
		return c.SendStatus(fiber.StatusNotModified)
	}
	c.Set(fiber.HeaderContentType, feed.ContentType)
	return c.Send(feed.Body)
}

// AssignProduct godoc
// @Summary      Asignar producto a la etiqueta
// @Tags         labels
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "Etiqueta"
// @Param        body  body  dto.AssignLabelRequest  true  "Producto"
// @Success      200  {object}  dto.LabelResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/labels/{id}/product [put]
func (h *LabelHandler) AssignProduct(c *fiber.Ctx) error {
	var in dto.AssignLabelRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.uc.AssignProduct(c.UserContext(), GetTenantID(c), c.Params("id"), in.ProductID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ClearAssignment godoc
// @Summary      Liberar la etiqueta
// @Tags         labels
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Etiqueta"
// @Success      200  {object}  dto.LabelResponse
// @Router       /api/labels/{id}/product [delete]
func (h *LabelHandler) ClearAssignment(c *fiber.Ctx) error {
	out, err := h.uc.ClearAssignment(c.UserContext(), GetTenantID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UpdateLocation godoc
// @Summary      Cambiar ubicación de la etiqueta
// @Tags         labels
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "Etiqueta"
// @Param        body  body  dto.UpdateLocationRequest  true  "Ubicación"
// @Success      200  {object}  dto.LabelResponse
// @Router       /api/labels/{id}/location [put]
func (h *LabelHandler) UpdateLocation(c *fiber.Ctx) error {
	var in dto.UpdateLocationRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.uc.UpdateLocation(c.UserContext(), GetTenantID(c), c.Params("id"), in.Location)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ApplyDiscount godoc
// @Summary      Aplicar descuento porcentual
// @Tags         labels
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "Etiqueta"
// @Param        body  body  dto.ApplyDiscountRequest  true  "Porcentaje 1..100"
// @Success      200  {object}  dto.LabelResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/labels/{id}/discount [put]
func (h *LabelHandler) ApplyDiscount(c *fiber.Ctx) error {
	var in dto.ApplyDiscountRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.uc.ApplyDiscount(c.UserContext(), GetTenantID(c), c.Params("id"), in.Percent)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ClearDiscount godoc
// @Summary      Quitar descuento
// @Tags         labels
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Etiqueta"
// @Success      200  {object}  dto.LabelResponse
// @Router       /api/labels/{id}/discount [delete]
func (h *LabelHandler) ClearDiscount(c *fiber.Ctx) error {
	out, err := h.uc.ClearDiscount(c.UserContext(), GetTenantID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
