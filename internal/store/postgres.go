package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	zapadapter "github.com/jackc/pgx-zap"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/serroba/items-api/internal/item"
	"go.uber.org/zap"
)

const itemColumns = `id, name, description, created_at, updated_at`

// NewPostgresPool opens a connection pool and checks that the database is reachable.
// Queries slower than the driver's warn threshold or failing are logged through zap.
func NewPostgresPool(ctx context.Context, dsn string, logger *zap.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	cfg.ConnConfig.Tracer = &tracelog.TraceLog{
		Logger:   zapadapter.NewLogger(logger),
		LogLevel: tracelog.LogLevelWarn,
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

// pgQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore is a PostgreSQL implementation of item.Repository.
type PostgresStore struct {
	postgresQueries

	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed item store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		postgresQueries: postgresQueries{db: pool},
		pool:            pool,
	}
}

// InTransaction implements item.Transactor.
func (p *PostgresStore) InTransaction(ctx context.Context, f func(tx item.Queries) error) error {
	// BeginFunc rolls back when f fails and returns f's error as is.
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		return f(postgresQueries{db: tx})
	})
}

// Ping checks database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Shutdown closes the connection pool.
func (p *PostgresStore) Shutdown() error {
	p.pool.Close()

	return nil
}

type postgresQueries struct {
	db pgQuerier
}

func (q postgresQueries) List(ctx context.Context) ([]*item.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items ORDER BY created_at DESC, id DESC`

	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := make([]*item.Item, 0)

	for rows.Next() {
		it, err := scanPostgresItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}

		items = append(items, it)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	return items, nil
}

func (q postgresQueries) Get(ctx context.Context, id item.ID) (*item.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	it, err := scanPostgresItem(q.db.QueryRow(ctx, query, int64(id)))
	if err != nil {
		return nil, postgresError("get item", err)
	}

	return it, nil
}

func (q postgresQueries) Create(ctx context.Context, in item.NewItem) (*item.Item, error) {
	query := `
		INSERT INTO items (name, description)
		VALUES ($1, $2)
		RETURNING ` + itemColumns

	it, err := scanPostgresItem(q.db.QueryRow(ctx, query, in.Name, in.Description))
	if err != nil {
		return nil, postgresError("insert item", err)
	}

	return it, nil
}

func (q postgresQueries) Update(ctx context.Context, id item.ID, patch item.Patch) (*item.Item, error) {
	query := `
		UPDATE items
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + itemColumns

	it, err := scanPostgresItem(q.db.QueryRow(ctx, query, int64(id), patch.Name, patch.Description))
	if err != nil {
		return nil, postgresError("update item", err)
	}

	return it, nil
}

func (q postgresQueries) Delete(ctx context.Context, id item.ID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM items WHERE id = $1`, int64(id))
	if err != nil {
		return postgresError("delete item", err)
	}

	if tag.RowsAffected() == 0 {
		return item.ErrNotFound
	}

	return nil
}

func scanPostgresItem(row pgx.Row) (*item.Item, error) {
	var (
		it item.Item
		id int64
	)

	if err := row.Scan(&id, &it.Name, &it.Description, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}

	it.ID = item.ID(id)

	return &it, nil
}

// postgresError maps driver errors to item errors. Other errors are wrapped with op.
func postgresError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return item.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return item.ErrConflict
	}

	return fmt.Errorf("%s: %w", op, err)
}

// Compile-time check.
var _ item.Repository = (*PostgresStore)(nil)
