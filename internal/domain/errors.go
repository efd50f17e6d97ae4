package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas de infraestructura).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	// ErrConflict conflicto de escritura detectado por el store (serialización / deadlock). Reintentable.
	ErrConflict = errors.New("conflicto con el estado actual")

	ErrInvalidProduct        = errors.New("producto inválido")
	ErrDuplicateCode         = errors.New("código o SKU ya existe en el ámbito")
	ErrNegativeStock         = errors.New("el stock resultante sería negativo")
	ErrMissingBasePrice      = errors.New("el producto no tiene precio base")
	ErrNoProductAssigned     = errors.New("la etiqueta no tiene producto asignado")
	ErrInvalidPercent        = errors.New("el porcentaje debe ser un entero entre 1 y 100")
	ErrInsufficientStock     = errors.New("stock insuficiente")
	ErrInsufficientCash      = errors.New("efectivo insuficiente")
	ErrAllocationConflict    = errors.New("no se pudo asignar el consecutivo, reintente")
	ErrDuplicateSale         = errors.New("la venta ya fue registrada")
	ErrPromotionWindowClosed = errors.New("la promoción no está vigente")
	ErrUnsupportedPromotion  = errors.New("el tipo de promoción no se sincroniza con etiquetas")
)

// InsufficientStockError detalla qué producto no alcanzó el stock pedido.
// errors.Is(err, ErrInsufficientStock) es verdadero.
type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para el producto %s: disponible %d, solicitado %d",
		e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// InsufficientCashError el efectivo recibido no cubre el total.
type InsufficientCashError struct {
	Total    decimal.Decimal
	Received decimal.Decimal
}

func (e *InsufficientCashError) Error() string {
	return fmt.Sprintf("efectivo insuficiente: total %s, recibido %s",
		e.Total.StringFixed(2), e.Received.StringFixed(2))
}

func (e *InsufficientCashError) Is(target error) bool { return target == ErrInsufficientCash }

// IsRetryable indica si el caller puede reintentar la operación completa.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrAllocationConflict)
}
