package labels

import (
	"context"

	"github.com/jhoicas/Precios-api/internal/domain/entity"
)

// CodeAllocator entrega consecutivos (sequence.Allocator).
type CodeAllocator interface {
	Next(ctx context.Context, scopeKey, counterName string) (int64, error)
}

// FeedEntry etiqueta con los datos del producto que se publican al feed.
type FeedEntry struct {
	Label       *entity.PriceLabel
	ProductName string
	SKU         string
}

// FeedRenderer serializa el feed de etiquetas electrónicas (labelfeed).
type FeedRenderer interface {
	Render(branchID string, entries []FeedEntry) ([]byte, error)
	Digest(doc []byte) (string, error)
	EncodeLatin1(doc []byte) ([]byte, error)
}
