package postgres

import (
	"context"
	"fmt"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Precios-api/pkg/config"
)

const (
	defaultMaxConns = 25
	// reserveConns conexiones que quedan libres para cobros y lecturas mientras
	// una promoción ocupa un worker por etiqueta.
	reserveConns = 4
)

// NewPool crea el pool de conexiones PostgreSQL. fanoutWorkers es Sync.FanoutWorkers:
// cada worker de la sincronización de etiquetas abre su propia transacción.
func NewPool(ctx context.Context, cfg config.DBConfig, fanoutWorkers int) (*pgxpool.Pool, error) {
	poolConfig, err := buildPoolConfig(cfg, fanoutWorkers)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("crear pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	return pool, nil
}

// buildPoolConfig DATABASE_URL si está definido, si no el DSN armado desde DB_HOST, DB_PORT, etc.
func buildPoolConfig(cfg config.DBConfig, fanoutWorkers int) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	maxConns := defaultMaxConns
	if cfg.MaxConns > 0 {
		maxConns = cfg.MaxConns
	}
	if need := fanoutWorkers + reserveConns; fanoutWorkers > 0 && maxConns < need {
		maxConns = need
	}
	poolConfig.MaxConns = int32(maxConns)
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	// NUMERIC/DECIMAL -> shopspring/decimal en todas las conexiones del pool
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}
	return poolConfig, nil
}
