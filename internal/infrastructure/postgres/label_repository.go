package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Precios-api/internal/domain"
	"github.com/jhoicas/Precios-api/internal/domain/entity"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
)

var _ repository.LabelRepository = (*LabelRepo)(nil)

// LabelRepo etiquetas de precio sobre PostgreSQL (usable con pool o tx).
type LabelRepo struct {
	q Querier
}

// NewLabelRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLabelRepository(q Querier) *LabelRepo {
	return &LabelRepo{q: q}
}

const labelColumns = `id, tenant_id, branch_id, label_code, product_id, base_price, final_price, discount_percent, location, status, created_at, synced_at, version`

func (r *LabelRepo) GetByID(ctx context.Context, id string) (*entity.PriceLabel, error) {
	l, err := scanLabel(r.q.QueryRow(ctx, `SELECT `+labelColumns+` FROM price_labels WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get label: %w", err)
	}
	return l, nil
}

// CreateBatch inserta todas las etiquetas con un solo batch; el caller lo envuelve en su tx.
func (r *LabelRepo) CreateBatch(ctx context.Context, labels []*entity.PriceLabel) error {
	if len(labels) == 0 {
		return nil
	}
	query := `
		INSERT INTO price_labels (` + labelColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	batch := &pgx.Batch{}
	for _, l := range labels {
		if l.Version == 0 {
			l.Version = 1
		}
		batch.Queue(query,
			l.ID, l.TenantID, l.BranchID, l.LabelCode, l.ProductID, l.BasePrice, l.FinalPrice,
			l.DiscountPercent, l.Location, l.Status, l.CreatedAt, l.SyncedAt, l.Version,
		)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for range labels {
		if _, err := br.Exec(); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicateCode
			}
			return fmt.Errorf("insert label: %w", err)
		}
	}
	return nil
}

// Update escritura condicionada a la versión leída (bloqueo optimista).
func (r *LabelRepo) Update(ctx context.Context, l *entity.PriceLabel) error {
	query := `
		UPDATE price_labels
		SET product_id = $2, base_price = $3, final_price = $4, discount_percent = $5,
		    location = $6, status = $7, synced_at = $8, version = version + 1
		WHERE id = $1 AND version = $9`
	cmd, err := r.q.Exec(ctx, query,
		l.ID, l.ProductID, l.BasePrice, l.FinalPrice, l.DiscountPercent, l.Location, l.Status, l.SyncedAt, l.Version,
	)
	if err != nil {
		return fmt.Errorf("update label: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM price_labels WHERE id = $1)`, l.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check label: %w", err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return fmt.Errorf("label %s: %w", l.ID, domain.ErrConflict)
	}
	l.Version++
	return nil
}

func (r *LabelRepo) CountByBranch(ctx context.Context, branchID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM price_labels WHERE branch_id = $1`, branchID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count labels: %w", err)
	}
	return n, nil
}

// List arma el WHERE solo con los campos presentes del filtro.
func (r *LabelRepo) List(ctx context.Context, f repository.LabelFilter) ([]*entity.PriceLabel, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.TenantID != "" {
		add("tenant_id = $%d", f.TenantID)
	}
	if f.BranchID != "" {
		add("branch_id = $%d", f.BranchID)
	}
	if f.ProductID != "" {
		add("product_id = $%d", f.ProductID)
	}
	if f.OnlyAssigned {
		where = append(where, "product_id IS NOT NULL")
	}
	if f.After != nil {
		args = append(args, f.After.CreatedAt, f.After.ID)
		where = append(where, fmt.Sprintf("(created_at, id) > ($%d, $%d)", len(args)-1, len(args)))
	}

	query := `SELECT ` + labelColumns + ` FROM price_labels`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, id`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	defer rows.Close()

	var list []*entity.PriceLabel
	for rows.Next() {
		l, err := scanLabel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

func scanLabel(row pgxScanner) (*entity.PriceLabel, error) {
	var l entity.PriceLabel
	err := row.Scan(
		&l.ID, &l.TenantID, &l.BranchID, &l.LabelCode, &l.ProductID, &l.BasePrice, &l.FinalPrice,
		&l.DiscountPercent, &l.Location, &l.Status, &l.CreatedAt, &l.SyncedAt, &l.Version,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
