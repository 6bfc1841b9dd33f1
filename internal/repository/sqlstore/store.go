// Package sqlstore реализует хранилище поверх database/sql.
// Различия sqlite и postgres спрятаны в Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tasque/internal/logger"
	repo "tasque/internal/repository"

	"go.uber.org/zap"
)

const slowQuery = 100 * time.Millisecond

type Dialect struct {
	Name string
	// Placeholder возвращает n-й (с 1) плейсхолдер параметра
	Placeholder func(n int) string
	// NoLimit подставляется в LIMIT, когда нужен только OFFSET
	NoLimit string
	// IsUniqueViolation распознаёт нарушение уникальности в ошибке драйвера
	IsUniqueViolation func(err error) bool
}

type Store struct {
	db      *sql.DB
	dialect Dialect
}

func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repo.Tx) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("Repository: Не удалось открыть транзакцию", err, zap.String("dialect", s.dialect.Name))
		return fmt.Errorf("начало транзакции: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, &Tx{tx: sqlTx, dialect: s.dialect}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.Error("Repository: Ошибка отката транзакции", rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		logger.Error("Repository: Ошибка фиксации транзакции", err)
		return fmt.Errorf("фиксация транзакции: %w", err)
	}
	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

func (s *Store) Close() error {
	logger.Info("Repository: Закрытие соединений", zap.String("dialect", s.dialect.Name))
	return s.db.Close()
}

type Tx struct {
	tx      *sql.Tx
	dialect Dialect
}

var _ repo.Tx = (*Tx)(nil)

// rebind переписывает ? в плейсхолдеры диалекта
func (tx *Tx) rebind(query string) string {
	if tx.dialect.Placeholder == nil {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(tx.dialect.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (tx *Tx) observe(op string, start time.Time, err error) error {
	elapsed := time.Since(start)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		if tx.dialect.IsUniqueViolation != nil && tx.dialect.IsUniqueViolation(err) {
			logger.Warn("Repository: Нарушение уникальности", zap.String("operation", op), zap.Error(err))
			return fmt.Errorf("%s: %w", op, repo.ErrDuplicate)
		}
		logger.Error("Repository: Ошибка запроса", err, zap.String("operation", op), zap.Duration("ms", elapsed))
		return fmt.Errorf("%s: %w", op, err)
	}
	if elapsed > slowQuery {
		logger.Warn("Repository: Медленная операция", zap.String("operation", op), zap.Duration("ms", elapsed))
	}
	return err
}

func (tx *Tx) exec(ctx context.Context, op, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := tx.tx.ExecContext(ctx, tx.rebind(query), args...)
	return res, tx.observe(op, start, err)
}

// execOne - exec, который ожидает ровно одну затронутую строку
func (tx *Tx) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := tx.exec(ctx, op, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (tx *Tx) query(ctx context.Context, op, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := tx.tx.QueryContext(ctx, tx.rebind(query), args...)
	return rows, tx.observe(op, start, err)
}

func (tx *Tx) queryRow(ctx context.Context, op string, dest []any, query string, args ...any) error {
	start := time.Now()
	err := tx.tx.QueryRowContext(ctx, tx.rebind(query), args...).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return repo.ErrNotFound
	}
	return tx.observe(op, start, err)
}

// where собирает условия и аргументы запроса
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *where) in(column string, values []any) {
	w.add(column+" IN ("+placeholders(len(values))+")", values...)
}

func (w *where) notIn(column string, values []any) {
	w.add(column+" NOT IN ("+placeholders(len(values))+")", values...)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func toArgs[T any](values []T) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
