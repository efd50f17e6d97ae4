package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Precios-api/internal/domain/entity"
)

// LabelFilter criterio para seleccionar etiquetas. Campos vacíos no filtran.
type LabelFilter struct {
	TenantID     string
	BranchID     string
	ProductID    string
	OnlyAssigned bool
	Limit        int
	Offset       int
	// After pagina por clave: solo etiquetas posteriores al cursor en orden (created_at, id).
	After *LabelCursor
}

// LabelCursor posición de una etiqueta en el orden de listado.
type LabelCursor struct {
	CreatedAt time.Time
	ID        string
}

// CursorOf cursor que apunta justo después de l.
func CursorOf(l *entity.PriceLabel) *LabelCursor {
	return &LabelCursor{CreatedAt: l.CreatedAt, ID: l.ID}
}

// LabelRepository puerto de persistencia para PriceLabel.
// Las etiquetas se actualizan una a una; no hay coordinación entre etiquetas.
type LabelRepository interface {
	GetByID(ctx context.Context, id string) (*entity.PriceLabel, error)
	CreateBatch(ctx context.Context, labels []*entity.PriceLabel) error
	// Update guarda la etiqueta solo si label.Version sigue vigente y la incrementa.
	// Otra escritura en el medio devuelve domain.ErrConflict; fila inexistente, domain.ErrNotFound.
	Update(ctx context.Context, label *entity.PriceLabel) error
	CountByBranch(ctx context.Context, branchID string) (int, error)
	// List en orden de creación (created_at, id).
	List(ctx context.Context, filter LabelFilter) ([]*entity.PriceLabel, error)
}
