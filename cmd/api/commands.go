package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"tasque/internal/app"
	"tasque/internal/config"
	"tasque/internal/logger"
	"tasque/internal/repository/postgres"
	"tasque/internal/repository/sqlite"
)

func serve(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("загрузка конфигурации: %w", err)
	}

	a := app.New(cfg)
	if err := a.Init(ctx); err != nil {
		return fmt.Errorf("инициализация приложения: %w", err)
	}

	if code := a.Run(); code != 0 {
		os.Exit(code)
	}
	return nil
}

func migrate(ctx context.Context, configPath string, up bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("загрузка конфигурации: %w", err)
	}
	if err := logger.Init(cfg.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}
	defer logger.Sync()

	switch cfg.Repository.Type {
	case config.RepositoryPostgres:
		if up {
			return postgres.Migrate(cfg.Database.URL)
		}
		return postgres.Rollback(cfg.Database.URL)
	case config.RepositorySQLite:
		// Open сам применяет миграции
		store, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		if up {
			return nil
		}
		return store.Rollback()
	default:
		return errors.New("миграции доступны только для sqlite и postgres")
	}
}
