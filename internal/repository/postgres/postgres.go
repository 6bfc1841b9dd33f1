// Package postgres подключает sqlstore к PostgreSQL через пул pgx.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"tasque/internal/config"
	"tasque/internal/logger"
	"tasque/internal/migrations"
	"tasque/internal/repository/sqlstore"

	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

const uniqueViolation = "23505"

var Dialect = sqlstore.Dialect{
	Name:              "postgres",
	Placeholder:       func(n int) string { return "$" + strconv.Itoa(n) },
	NoLimit:           "ALL",
	IsUniqueViolation: isUniqueViolation,
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

type Storage struct {
	*sqlstore.Store
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg config.DatabaseConfig) (*Storage, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = cfg.MaxConnections
	}
	if cfg.MinConnections > 0 {
		poolConfig.MinConns = cfg.MinConnections
	}
	if cfg.IdleTimeout > 0 {
		poolConfig.MaxConnIdleTime = cfg.IdleTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{
		Store: sqlstore.New(stdlib.OpenDBFromPool(pool), Dialect),
		pool:  pool,
	}, nil
}

func (s *Storage) Close() error {
	err := s.Store.Close()
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
	return err
}

// Migrate применяет схему отдельным соединением, закрывая его после
func Migrate(url string) error {
	return withMigrationDriver(url, func(driver database.Driver) error {
		return migrations.Up(migrations.Postgres, driver)
	})
}

func Rollback(url string) error {
	return withMigrationDriver(url, func(driver database.Driver) error {
		return migrations.Down(migrations.Postgres, driver)
	})
}

func withMigrationDriver(url string, fn func(driver database.Driver) error) error {
	db, err := sql.Open("pgx/v5", url)
	if err != nil {
		return fmt.Errorf("подключение для миграций: %w", err)
	}

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("драйвер миграций: %w", err)
	}
	defer driver.Close()

	return fn(driver)
}
