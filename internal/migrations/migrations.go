// Package migrations хранит схему для sqlite и postgres и применяет её
// через golang-migrate.
package migrations

import (
	"embed"
	"errors"
	"fmt"

	"tasque/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func newMigrate(dialect Dialect, driver database.Driver) (*migrate.Migrate, error) {
	src, err := iofs.New(files, string(dialect))
	if err != nil {
		return nil, fmt.Errorf("источник миграций %s: %w", dialect, err)
	}
	m, err := migrate.NewWithInstance("iofs", src, string(dialect), driver)
	if err != nil {
		return nil, fmt.Errorf("инициализация миграций %s: %w", dialect, err)
	}
	return m, nil
}

// Up применяет все миграции. Драйвер не закрывается, им владеет вызывающий.
func Up(dialect Dialect, driver database.Driver) error {
	logger.Info("Попытка миграций", zap.String("dialect", string(dialect)))

	m, err := newMigrate(dialect, driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: Ошибка применения миграций", err)
		return fmt.Errorf("применение миграций: %w", err)
	}

	logMigrationVersion(m)
	return nil
}

// Down откатывает все миграции
func Down(dialect Dialect, driver database.Driver) error {
	logger.Info("Откат миграций", zap.String("dialect", string(dialect)))

	m, err := newMigrate(dialect, driver)
	if err != nil {
		return err
	}
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: Ошибка отката миграций", err)
		return fmt.Errorf("откат миграций: %w", err)
	}

	logger.Info("Migrations rolled back successfully!")
	return nil
}

func logMigrationVersion(m *migrate.Migrate) {
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		logger.Warn("Repository: Не удалось получить версию схемы", zap.Error(err))
		return
	}
	logger.Info("Migrations applied successfully!", zap.Uint("version", version), zap.Bool("dirty", dirty))
}
