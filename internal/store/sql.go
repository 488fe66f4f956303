package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/serroba/items-api/internal/item"
	"go.uber.org/zap"
)

const (
	defaultConnTimeout     = 5 * time.Second
	defaultConnMaxLifetime = 30 * time.Minute
)

// sqlDialect holds what differs between database/sql backends.
type sqlDialect struct {
	name              string
	schema            []string
	isUniqueViolation func(err error) bool
}

// sqlQuerier is satisfied by both *sql.DB and *sql.Tx.
type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore is a database/sql implementation of item.Repository used for SQLite and MySQL.
//
// Timestamps are stored as Unix microseconds so both dialects share the same queries.
type SQLStore struct {
	sqlQueries

	db *sql.DB
}

func newSQLStore(ctx context.Context, db *sql.DB, dialect *sqlDialect) (*SQLStore, error) {
	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping %s: %w", dialect.name, err)
	}

	return &SQLStore{
		sqlQueries: sqlQueries{db: db, dialect: dialect, now: time.Now},
		db:         db,
	}, nil
}

// Migrate creates the items schema if it does not exist yet.
func (s *SQLStore) Migrate(ctx context.Context, logger *zap.Logger) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply %s schema: %w", s.dialect.name, err)
		}
	}

	logger.Info("schema ready", zap.String("dialect", s.dialect.name))

	return nil
}

// InTransaction implements item.Transactor.
//
// If f returns an error or does not return normally, the transaction is rolled back.
func (s *SQLStore) InTransaction(ctx context.Context, f func(tx item.Queries) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	var done bool

	defer func() {
		if done {
			return
		}

		if err == nil {
			err = errors.New("transaction was not committed")
		}

		_ = tx.Rollback()
	}()

	if err = f(sqlQueries{db: tx, dialect: s.dialect, now: s.now}); err != nil {
		// not wrapped: callers match on item errors
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	done = true

	return nil
}

// Ping checks database connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Shutdown closes the database handle.
func (s *SQLStore) Shutdown() error {
	return s.db.Close()
}

type sqlQueries struct {
	db      sqlQuerier
	dialect *sqlDialect
	now     func() time.Time
}

func (q sqlQueries) List(ctx context.Context) ([]*item.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items ORDER BY created_at DESC, id DESC`

	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := make([]*item.Item, 0)

	for rows.Next() {
		it, err := scanSQLItem(rows)
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

func (q sqlQueries) Get(ctx context.Context, id item.ID) (*item.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = ?`

	it, err := scanSQLItem(q.db.QueryRowContext(ctx, query, int64(id)))
	if err != nil {
		return nil, q.translate("get item", err)
	}

	return it, nil
}

func (q sqlQueries) Create(ctx context.Context, in item.NewItem) (*item.Item, error) {
	now := q.now().UTC().Truncate(time.Microsecond)

	res, err := q.db.ExecContext(ctx,
		`INSERT INTO items (name, description, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		in.Name, in.Description, now.UnixMicro(), now.UnixMicro(),
	)
	if err != nil {
		return nil, q.translate("insert item", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	return &item.Item{
		ID:          item.ID(id),
		Name:        in.Name,
		Description: cloneString(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (q sqlQueries) Update(ctx context.Context, id item.ID, patch item.Patch) (*item.Item, error) {
	now := q.now().UTC().Truncate(time.Microsecond)

	_, err := q.db.ExecContext(ctx, `
		UPDATE items
		SET name = COALESCE(?, name),
		    description = COALESCE(?, description),
		    updated_at = ?
		WHERE id = ?`,
		patch.Name, patch.Description, now.UnixMicro(), int64(id),
	)
	if err != nil {
		return nil, q.translate("update item", err)
	}

	// MySQL reports zero affected rows for no-op updates, so existence is read back.
	return q.Get(ctx, id)
}

func (q sqlQueries) Delete(ctx context.Context, id item.ID) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, int64(id))
	if err != nil {
		return q.translate("delete item", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	if n == 0 {
		return item.ErrNotFound
	}

	return nil
}

// translate maps driver errors to item errors. Other errors are wrapped with op.
func (q sqlQueries) translate(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return item.ErrNotFound
	}

	if q.dialect.isUniqueViolation(err) {
		return item.ErrConflict
	}

	return fmt.Errorf("%s: %w", op, err)
}

type sqlRow interface {
	Scan(dest ...any) error
}

func scanSQLItem(row sqlRow) (*item.Item, error) {
	var (
		it                   item.Item
		id                   int64
		description          sql.NullString
		createdAt, updatedAt int64
	)

	if err := row.Scan(&id, &it.Name, &description, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	it.ID = item.ID(id)
	it.CreatedAt = time.UnixMicro(createdAt).UTC()
	it.UpdatedAt = time.UnixMicro(updatedAt).UTC()

	if description.Valid {
		it.Description = &description.String
	}

	return &it, nil
}

// Compile-time check.
var _ item.Repository = (*SQLStore)(nil)
