package labels

import (
	"context"
	"errors"

	"github.com/jhoicas/Precios-api/internal/domain/repository"
)

// Feed documento XML del feed de etiquetas electrónicas de una sucursal.
type Feed struct {
	Body        []byte
	ETag        string
	ContentType string
}

// Feed arma el feed de la sucursal con las etiquetas asignadas. latin1=true lo codifica en
// ISO-8859-1 para impresoras que no aceptan UTF-8; el ETag se calcula siempre sobre el UTF-8.
func (uc *UseCase) Feed(ctx context.Context, tenantID, branchID string, latin1 bool) (*Feed, error) {
	if uc.feed == nil {
		return nil, errors.New("labels: feed no configurado")
	}
	list, err := uc.repos.Labels.List(ctx, repository.LabelFilter{TenantID: tenantID, BranchID: branchID, OnlyAssigned: true})
	if err != nil {
		return nil, err
	}

	names := map[string]FeedEntry{}
	entries := make([]FeedEntry, 0, len(list))
	for _, l := range list {
		pid := *l.ProductID
		info, ok := names[pid]
		if !ok {
			p, err := uc.repos.Products.GetByID(ctx, pid)
			if err != nil {
				return nil, err
			}
			if p != nil {
				info = FeedEntry{ProductName: p.Name, SKU: p.SKU}
			}
			names[pid] = info
		}
		entries = append(entries, FeedEntry{Label: l, ProductName: info.ProductName, SKU: info.SKU})
	}

	body, err := uc.feed.Render(branchID, entries)
	if err != nil {
		return nil, err
	}
	etag, err := uc.feed.Digest(body)
	if err != nil {
		return nil, err
	}
	out := &Feed{Body: body, ETag: etag, ContentType: "application/xml; charset=utf-8"}
	if latin1 {
		enc, err := uc.feed.EncodeLatin1(body)
		if err != nil {
			return nil, err
		}
		out.Body = enc
		out.ContentType = "application/xml; charset=iso-8859-1"
	}
	return out, nil
}
