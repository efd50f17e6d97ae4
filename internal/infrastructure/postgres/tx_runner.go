package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Precios-api/internal/domain/repository"
)

var _ repository.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Repos repositorios sobre el pool: cada llamada es su propia transacción implícita.
func (r *TxRunner) Repos() repository.Repos {
	return reposOver(r.pool)
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Serialización fallida y deadlock se devuelven como domain.ErrConflict.
func (r *TxRunner) Run(ctx context.Context, fn func(repository.Repos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(reposOver(tx)); err != nil {
		return mapTxError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapTxError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

func reposOver(q Querier) repository.Repos {
	return repository.Repos{
		Products:   NewProductRepository(q),
		Stock:      NewBranchStockRepository(q),
		Movements:  NewMovementRepository(q),
		Labels:     NewLabelRepository(q),
		Promotions: NewPromotionRepository(q),
		Sales:      NewSaleRepository(q),
		Sequences:  NewSequenceRepository(q),
	}
}
