package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Precios-api/internal/application/dto"
	"github.com/jhoicas/Precios-api/internal/application/promotion"
)

// PromotionHandler promociones y su propagación a etiquetas (protegido).
type PromotionHandler struct {
	engine *promotion.Engine
}

// NewPromotionHandler construye el handler.
func NewPromotionHandler(engine *promotion.Engine) *PromotionHandler {
	return &PromotionHandler{engine: engine}
}

// Create godoc
// @Summary      Crear promoción
// @Tags         promotions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePromotionRequest  true  "Promoción"
// @Success      201  {object}  dto.PromotionResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/promotions [post]
func (h *PromotionHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePromotionRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.engine.Create(c.UserContext(), GetTenantID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar promociones
// @Tags         promotions
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200  {object}  dto.PromotionListResponse
// @Router       /api/promotions [get]
func (h *PromotionHandler) List(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	out, err := h.engine.List(c.UserContext(), GetTenantID(c), limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener promoción
// @Tags         promotions
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Promoción"
// @Success      200  {object}  dto.PromotionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/promotions/{id} [get]
func (h *PromotionHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.engine.Get(c.UserContext(), GetTenantID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar promoción
// @Tags         promotions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "Promoción"
// @Param        body  body  dto.UpdatePromotionRequest  true  "Campos a actualizar"
// @Success      200  {object}  dto.PromotionResponse
// @Router       /api/promotions/{id} [patch]
func (h *PromotionHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdatePromotionRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.engine.Update(c.UserContext(), GetTenantID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Apply godoc
// @Summary      Aplicar la promoción a las etiquetas
// @Description  Solo promociones porcentuales vigentes. Los fallos por etiqueta no detienen a las demás.
// @Tags         promotions
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Promoción"
// @Success      200  {object}  dto.FanoutReport
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/promotions/{id}/apply [post]
func (h *PromotionHandler) Apply(c *fiber.Ctx) error {
	out, err := h.engine.ApplyToLabels(c.UserContext(), GetTenantID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Revert godoc
// @Summary      Revertir la promoción en las etiquetas
// @Tags         promotions
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Promoción"
// @Success      200  {object}  dto.FanoutReport
// @Router       /api/promotions/{id}/revert [post]
func (h *PromotionHandler) Revert(c *fiber.Ctx) error {
	out, err := h.engine.Revert(c.UserContext(), GetTenantID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
