package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
)

// Ledger is the durable store for catalog, carts, favorites, orders and
// payment verifications.
type Ledger struct {
	db     *sqlx.DB
	logger *logging.Logger
}

// NewLedger wraps an open connection pool.
func NewLedger(db *sqlx.DB, logger *logging.Logger) *Ledger {
	return &Ledger{db: db, logger: logger}
}

// OpenPostgres connects to PostgreSQL and verifies the connection.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.ConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)
	return db, nil
}

// DB exposes the pool for migrations and health checks.
func (l *Ledger) DB() *sqlx.DB {
	return l.db
}

// Queries returns a query set running outside any transaction.
func (l *Ledger) Queries() *Queries {
	return &Queries{ext: l.db, logger: l.logger}
}

// InTx runs fn in a single transaction. Any error from fn rolls back.
// fn must only use the Queries it is given.
func (l *Ledger) InTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		l.logger.Error("Failed to begin transaction", logging.Fields{"error": err.Error()})
		return errors.Unavailable("begin transaction", err)
	}
	defer tx.Rollback()

	if err := fn(&Queries{ext: tx, logger: l.logger}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		l.logger.Error("Failed to commit transaction", logging.Fields{"error": err.Error()})
		return errors.Unavailable("commit transaction", err)
	}
	return nil
}

func (l *Ledger) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// Queries holds every statement the services issue. It runs either on the
// pool or inside a transaction opened by Ledger.InTx.
type Queries struct {
	ext    sqlx.ExtContext
	logger *logging.Logger
}

func (q *Queries) get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return sqlx.GetContext(ctx, q.ext, dest, q.ext.Rebind(query), args...)
}

func (q *Queries) selectAll(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return sqlx.SelectContext(ctx, q.ext, dest, q.ext.Rebind(query), args...)
}

func (q *Queries) exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := q.ext.ExecContext(ctx, q.ext.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// fail logs a storage error and converts it to the error taxonomy.
func (q *Queries) fail(op string, err error, fields logging.Fields) error {
	if err == sql.ErrNoRows {
		return errors.ErrNotFound
	}
	if fields == nil {
		fields = logging.Fields{}
	}
	fields["op"] = op
	fields["error"] = err.Error()
	q.logger.Error("Ledger query failed", fields)
	return errors.Unavailable(op, err)
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
