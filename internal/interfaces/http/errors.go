package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Precios-api/internal/application/dto"
	"github.com/jhoicas/Precios-api/internal/domain"
)

const (
	localsErrorDetail    = "error_detail"
	internalErrorMessage = "error interno, intente de nuevo más tarde"
)

// errorMapping orden importa: el primer errors.Is que coincida gana.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrDuplicateCode, fiber.StatusConflict, "DUPLICATE_CODE"},
	{domain.ErrDuplicateSale, fiber.StatusConflict, "DUPLICATE_SALE"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrInsufficientCash, fiber.StatusUnprocessableEntity, "INSUFFICIENT_CASH"},
	{domain.ErrNegativeStock, fiber.StatusConflict, "NEGATIVE_STOCK"},
	{domain.ErrMissingBasePrice, fiber.StatusUnprocessableEntity, "MISSING_BASE_PRICE"},
	{domain.ErrNoProductAssigned, fiber.StatusUnprocessableEntity, "NO_PRODUCT_ASSIGNED"},
	{domain.ErrInvalidPercent, fiber.StatusBadRequest, "INVALID_PERCENT"},
	{domain.ErrInvalidProduct, fiber.StatusBadRequest, "INVALID_PRODUCT"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrPromotionWindowClosed, fiber.StatusConflict, "PROMOTION_NOT_ACTIVE"},
	{domain.ErrUnsupportedPromotion, fiber.StatusUnprocessableEntity, "UNSUPPORTED_PROMOTION"},
	{domain.ErrAllocationConflict, fiber.StatusServiceUnavailable, "ALLOCATION_CONFLICT"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
}

// writeError traduce errores de dominio a status HTTP y dto.ErrorResponse.
func writeError(c *fiber.Ctx, err error) error {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			if m.status == fiber.StatusServiceUnavailable {
				c.Set(fiber.HeaderRetryAfter, "1")
			}
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	// el detalle (driver, red) queda solo en el log de la petición
	c.Locals(localsErrorDetail, err.Error())
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: internalErrorMessage})
}
