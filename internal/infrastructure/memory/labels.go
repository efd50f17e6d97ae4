package memory

import (
	"context"

	"github.com/jhoicas/Precios-api/internal/domain"
	"github.com/jhoicas/Precios-api/internal/domain/entity"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
)

var _ repository.LabelRepository = (*LabelRepo)(nil)

// LabelRepo etiquetas en memoria, en orden de creación.
type LabelRepo struct{ db accessor }

func copyLabel(l *entity.PriceLabel) *entity.PriceLabel {
	cp := *l
	return &cp
}

func (r *LabelRepo) GetByID(ctx context.Context, id string) (*entity.PriceLabel, error) {
	var out *entity.PriceLabel
	err := r.db.with(func(st *state) error {
		if l, ok := st.labels[id]; ok {
			out = copyLabel(l)
		}
		return nil
	})
	return out, err
}

func (r *LabelRepo) CreateBatch(ctx context.Context, labels []*entity.PriceLabel) error {
	return r.db.with(func(st *state) error {
		codes := make(map[string]bool, len(labels))
		for _, l := range labels {
			if _, ok := st.labels[l.ID]; ok {
				return domain.ErrDuplicate
			}
			k := l.BranchID + "/" + l.LabelCode
			if codes[k] {
				return domain.ErrDuplicateCode
			}
			codes[k] = true
		}
		for _, existing := range st.labels {
			if codes[existing.BranchID+"/"+existing.LabelCode] {
				return domain.ErrDuplicateCode
			}
		}
		for _, l := range labels {
			if l.Version == 0 {
				l.Version = 1
			}
			st.labels[l.ID] = copyLabel(l)
			st.labelOrder = append(st.labelOrder, l.ID)
		}
		return nil
	})
}

func (r *LabelRepo) Update(ctx context.Context, label *entity.PriceLabel) error {
	return r.db.with(func(st *state) error {
		cur, ok := st.labels[label.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if cur.Version != label.Version {
			return domain.ErrConflict
		}
		cp := copyLabel(label)
		cp.Version++
		st.labels[label.ID] = cp
		label.Version = cp.Version
		return nil
	})
}

func (r *LabelRepo) CountByBranch(ctx context.Context, branchID string) (int, error) {
	n := 0
	err := r.db.with(func(st *state) error {
		for _, l := range st.labels {
			if l.BranchID == branchID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *LabelRepo) List(ctx context.Context, f repository.LabelFilter) ([]*entity.PriceLabel, error) {
	var out []*entity.PriceLabel
	err := r.db.with(func(st *state) error {
		order := st.labelOrder
		if f.After != nil {
			order = afterCursor(st, f.After)
		}
		for _, id := range order {
			l := st.labels[id]
			if f.TenantID != "" && l.TenantID != f.TenantID {
				continue
			}
			if f.BranchID != "" && l.BranchID != f.BranchID {
				continue
			}
			if f.OnlyAssigned && !l.IsAssigned() {
				continue
			}
			if f.ProductID != "" && (!l.IsAssigned() || *l.ProductID != f.ProductID) {
				continue
			}
			out = append(out, copyLabel(l))
		}
		return nil
	})
	return paginate(out, f.Limit, f.Offset), err
}

// afterCursor ids posteriores al cursor. El orden de inserción es el de creación y en
// memoria nunca se borran etiquetas, así que basta ubicar el id del cursor.
func afterCursor(st *state, c *repository.LabelCursor) []string {
	for i, id := range st.labelOrder {
		if id == c.ID {
			return st.labelOrder[i+1:]
		}
	}
	out := make([]string, 0, len(st.labelOrder))
	for _, id := range st.labelOrder {
		l := st.labels[id]
		if l.CreatedAt.After(c.CreatedAt) || (l.CreatedAt.Equal(c.CreatedAt) && l.ID > c.ID) {
			out = append(out, id)
		}
	}
	return out
}
