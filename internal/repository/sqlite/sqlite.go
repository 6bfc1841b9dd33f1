// Package sqlite - файловое хранилище по умолчанию.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"tasque/internal/logger"
	"tasque/internal/migrations"
	"tasque/internal/repository/sqlstore"

	"github.com/golang-migrate/migrate/v4/database"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const MemoryPath = ":memory:"

var Dialect = sqlstore.Dialect{
	Name:              "sqlite",
	NoLimit:           "-1",
	IsUniqueViolation: isUniqueViolation,
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

type Storage struct {
	*sqlstore.Store
}

func dsn(path string) string {
	params := url.Values{}
	params.Set("_foreign_keys", "on")
	params.Set("_loc", "UTC")
	params.Set("_busy_timeout", "5000")
	return "file:" + path + "?" + params.Encode()
}

// Open открывает базу и применяет миграции
func Open(ctx context.Context, path string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		logger.Error("Repository: Ошибка открытия SQLite", err, zap.String("path", path))
		return nil, fmt.Errorf("открытие sqlite: %w", err)
	}
	// одно соединение: иначе :memory: у каждого соединения своя
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	s := &Storage{Store: sqlstore.New(db, Dialect)}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Repository: Успешное подключение к SQLite", zap.String("path", path))
	return s, nil
}

func (s *Storage) driver() (database.Driver, error) {
	driver, err := migratesqlite.WithInstance(s.DB(), &migratesqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("драйвер миграций: %w", err)
	}
	return driver, nil
}

// Migrate и Rollback не закрывают драйвер: он закрыл бы общую базу
func (s *Storage) Migrate() error {
	driver, err := s.driver()
	if err != nil {
		return err
	}
	return migrations.Up(migrations.SQLite, driver)
}

func (s *Storage) Rollback() error {
	driver, err := s.driver()
	if err != nil {
		return err
	}
	return migrations.Down(migrations.SQLite, driver)
}
