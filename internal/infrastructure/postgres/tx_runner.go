package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

var tracer = otel.Tracer("github.com/jhoicas/stock-ledger-api/internal/infrastructure/postgres")

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
//
// Cada transacción queda acotada por timeout: como deadline del contexto y como
// statement_timeout local. Un timeout o una falla de conexión llegan al llamador como
// *domain.StorageError (reintentable).
type TxRunner struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewTxRunner construye el runner con el pool. timeout <= 0 desactiva el límite.
func NewTxRunner(pool *pgxpool.Pool, timeout time.Duration) *TxRunner {
	return &TxRunner{pool: pool, timeout: timeout}
}

// Run transacción READ COMMITTED de escritura. Las operaciones del ledger serializan por
// producto con SELECT ... FOR UPDATE (ProductRepository.GetForUpdate).
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, tx inventory.Tx) error) error {
	return r.run(ctx, "tx.write", pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite}, fn)
}

// ReadOnly transacción REPEATABLE READ de solo lectura: todas las consultas ven la misma
// instantánea, así que un reporte nunca mezcla una operación confirmada a medias.
func (r *TxRunner) ReadOnly(ctx context.Context, fn func(ctx context.Context, tx inventory.Tx) error) error {
	return r.run(ctx, "tx.read", pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn)
}

func (r *TxRunner) run(ctx context.Context, name string, opts pgx.TxOptions, fn func(ctx context.Context, tx inventory.Tx) error) (err error) {
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("tx.isolation", string(opts.IsoLevel)),
	))
	defer func() {
		if err != nil && !domain.IsDomainError(err) {
			err = domain.NewStorageError(name, err)
		}
		if errors.Is(err, domain.ErrStorage) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	tx, err := r.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if r.timeout > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", r.timeout.Milliseconds())); err != nil {
			return fmt.Errorf("set statement_timeout: %w", err)
		}
	}

	if err := fn(ctx, bind(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func bind(q Querier) inventory.Tx {
	return inventory.Tx{
		Events:   NewEventRepository(q),
		Products: NewProductRepository(q),
		Staff:    NewStaffRepository(q),
		Stats:    NewStatsRepository(q),
	}
}
