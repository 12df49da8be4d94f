package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	logx "kratzbaum/pkg/logx"
)

// SQLStore implements Store over sqlx. The embedded repo runs directly on
// the connection pool; WithTx hands fn a repo bound to a transaction.
type SQLStore struct {
	repo
	db  *sqlx.DB
	log logx.Logger
}

var _ Store = (*SQLStore)(nil)

func newSQLStore(db *sqlx.DB, ph sq.PlaceholderFormat, log logx.Logger) *SQLStore {
	return &SQLStore{
		repo: repo{q: db, sb: sq.StatementBuilder.PlaceholderFormat(ph)},
		db:   db,
		log:  log,
	}
}

// NewWithDB wraps an existing connection. Used with mocked drivers.
func NewWithDB(db *sqlx.DB, ph sq.PlaceholderFormat) *SQLStore {
	return newSQLStore(db, ph, logx.Nop())
}

func (s *SQLStore) DB() *sqlx.DB { return s.db }

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WithTx runs fn inside one transaction. fn's error rolls back; a panic
// rolls back and re-panics.
func (s *SQLStore) WithTx(ctx context.Context, fn func(Repo) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(repo{q: tx, sb: s.sb}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// DeletePlant cascades inside its own transaction when called outside one.
func (s *SQLStore) DeletePlant(ctx context.Context, id string) error {
	return s.WithTx(ctx, func(r Repo) error { return r.DeletePlant(ctx, id) })
}

func (s *SQLStore) DeletePot(ctx context.Context, id string) error {
	return s.WithTx(ctx, func(r Repo) error { return r.DeletePot(ctx, id) })
}

type repo struct {
	q  sqlx.ExtContext
	sb sq.StatementBuilderType
}

func (r repo) get(ctx context.Context, dest any, b sq.Sqlizer, op, table string) error {
	query, args, err := b.ToSql()
	if err != nil {
		return wrap(err, op, table)
	}
	return wrap(sqlx.GetContext(ctx, r.q, dest, query, args...), op, table)
}

func (r repo) selectAll(ctx context.Context, dest any, b sq.Sqlizer, op, table string) error {
	query, args, err := b.ToSql()
	if err != nil {
		return wrap(err, op, table)
	}
	return wrap(sqlx.SelectContext(ctx, r.q, dest, query, args...), op, table)
}

// exec runs b and returns the number of affected rows.
func (r repo) exec(ctx context.Context, b sq.Sqlizer, op, table string) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, wrap(err, op, table)
	}
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrap(err, op, table)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrap(err, op, table)
	}
	return n, nil
}

// execOne is exec that reports ErrNotFound when nothing matched.
func (r repo) execOne(ctx context.Context, b sq.Sqlizer, op, table string) error {
	n, err := r.exec(ctx, b, op, table)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(op, table)
	}
	return nil
}
