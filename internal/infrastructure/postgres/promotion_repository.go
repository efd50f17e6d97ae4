package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Precios-api/internal/domain"
	"github.com/jhoicas/Precios-api/internal/domain/entity"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
)

var _ repository.PromotionRepository = (*PromotionRepo)(nil)

// PromotionRepo promociones sobre PostgreSQL. product_ids y branch_ids son text[].
type PromotionRepo struct {
	q Querier
}

// NewPromotionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPromotionRepository(q Querier) *PromotionRepo {
	return &PromotionRepo{q: q}
}

const promotionColumns = `id, tenant_id, name, type, value, apply_to, product_ids, branch_ids, start_at, end_at, status, last_applied_at, created_at, updated_at`

func (r *PromotionRepo) Create(ctx context.Context, p *entity.Promotion) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	query := `INSERT INTO promotions (` + promotionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.TenantID, p.Name, p.Type, p.Value, p.ApplyTo, textArray(p.ProductIDs), textArray(p.BranchIDs),
		p.StartAt, p.EndAt, p.Status, p.LastAppliedAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create promotion: %w", err)
	}
	return nil
}

func (r *PromotionRepo) GetByID(ctx context.Context, id string) (*entity.Promotion, error) {
	p, err := scanPromotion(r.q.QueryRow(ctx, `SELECT `+promotionColumns+` FROM promotions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get promotion: %w", err)
	}
	return p, nil
}

func (r *PromotionRepo) Update(ctx context.Context, p *entity.Promotion) error {
	query := `
		UPDATE promotions
		SET name = $2, value = $3, apply_to = $4, product_ids = $5, branch_ids = $6,
		    start_at = $7, end_at = $8, status = $9, last_applied_at = $10, updated_at = $11
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		p.ID, p.Name, p.Value, p.ApplyTo, textArray(p.ProductIDs), textArray(p.BranchIDs),
		p.StartAt, p.EndAt, p.Status, p.LastAppliedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update promotion: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PromotionRepo) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Promotion, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + promotionColumns + ` FROM promotions
		WHERE tenant_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	defer rows.Close()

	var list []*entity.Promotion
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan promotion: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func scanPromotion(row pgxScanner) (*entity.Promotion, error) {
	var p entity.Promotion
	err := row.Scan(
		&p.ID, &p.TenantID, &p.Name, &p.Type, &p.Value, &p.ApplyTo, &p.ProductIDs, &p.BranchIDs,
		&p.StartAt, &p.EndAt, &p.Status, &p.LastAppliedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// textArray evita NULL en columnas text[] NOT NULL.
func textArray(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
