package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"net"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/stock-ledger-api/pkg/config"
)

//go:embed schema.sql
var schemaSQL string

// NewPool abre el pool del ledger. DATABASE_URL tiene prioridad sobre los campos DB_*.
func NewPool(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	dsn := cfg.DatabaseURL
	if dsn == "" {
		dsn = cfg.DSN()
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	poolConfig.ConnConfig.DialFunc = dialPreferIPv4

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	// NUMERIC -> shopspring/decimal (precios y valor del stock).
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
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

// Migrate crea las tablas del ledger si no existen. Es idempotente.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("aplicar esquema: %w", err)
	}
	return nil
}

// dialPreferIPv4 intenta primero por IPv4 y, si el host no tiene dirección v4, usa la red pedida.
func dialPreferIPv4(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	if network == "tcp" {
		if conn, err := dialer.DialContext(ctx, "tcp4", addr); err == nil {
			return conn, nil
		}
	}
	return dialer.DialContext(ctx, network, addr)
}
