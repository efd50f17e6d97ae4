package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Precios-api/internal/domain"
	"github.com/jhoicas/Precios-api/internal/domain/entity"
	"github.com/jhoicas/Precios-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo libro de ventas sobre PostgreSQL. Las líneas se guardan como jsonb.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

const saleColumns = `receipt_no, tenant_id, branch_id, staff_id, idempotency_key, items, subtotal, discount_total, total, cash_received, change_given, created_at`

func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	items, err := json.Marshal(s.Items)
	if err != nil {
		return fmt.Errorf("marshal sale items: %w", err)
	}
	query := `INSERT INTO sales (` + saleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err = r.q.Exec(ctx, query,
		s.ReceiptNo, s.TenantID, s.BranchID, nullable(s.StaffID), nullable(s.IdempotencyKey), items,
		s.Subtotal, s.DiscountTotal, s.Total, s.CashReceived, s.Change, s.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateSale
		}
		return fmt.Errorf("create sale: %w", err)
	}
	return nil
}

func (r *SaleRepo) Get(ctx context.Context, tenantID, branchID, receiptNo string) (*entity.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE tenant_id = $1 AND branch_id = $2 AND receipt_no = $3`
	return r.getOne(ctx, query, tenantID, branchID, receiptNo)
}

func (r *SaleRepo) GetByIdempotencyKey(ctx context.Context, tenantID, branchID, key string) (*entity.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE tenant_id = $1 AND branch_id = $2 AND idempotency_key = $3`
	return r.getOne(ctx, query, tenantID, branchID, key)
}

func (r *SaleRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	return s, nil
}

// ListByBranch from/to en cero no filtran. Ventana semiabierta [from, to).
func (r *SaleRepo) ListByBranch(ctx context.Context, tenantID, branchID string, from, to time.Time, limit, offset int) ([]*entity.Sale, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + saleColumns + ` FROM sales
		WHERE tenant_id = $1 AND branch_id = $2
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		  AND ($4::timestamptz IS NULL OR created_at < $4)
		ORDER BY created_at DESC, receipt_no DESC
		LIMIT $5 OFFSET $6`
	rows, err := r.q.Query(ctx, query, tenantID, branchID, nullableTime(from), nullableTime(to), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var list []*entity.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (r *SaleRepo) DeleteBefore(ctx context.Context, tenantID string, before time.Time) (int64, error) {
	cmd, err := r.q.Exec(ctx, `DELETE FROM sales WHERE tenant_id = $1 AND created_at < $2`, tenantID, before)
	if err != nil {
		return 0, fmt.Errorf("delete sales: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func scanSale(row pgxScanner) (*entity.Sale, error) {
	var (
		s                entity.Sale
		staffID, idemKey *string
		items            []byte
	)
	err := row.Scan(
		&s.ReceiptNo, &s.TenantID, &s.BranchID, &staffID, &idemKey, &items,
		&s.Subtotal, &s.DiscountTotal, &s.Total, &s.CashReceived, &s.Change, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.StaffID = deref(staffID)
	s.IdempotencyKey = deref(idemKey)
	if len(items) > 0 {
		if err := json.Unmarshal(items, &s.Items); err != nil {
			return nil, fmt.Errorf("unmarshal sale items: %w", err)
		}
	}
	return &s, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
