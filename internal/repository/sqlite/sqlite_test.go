package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"tasque/internal/models/task"
	repo "tasque/internal/repository"
	"tasque/internal/repository/repotest"
	"tasque/internal/repository/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func openMemory(t *testing.T) *sqlite.Storage {
	t.Helper()
	s, err := sqlite.Open(context.Background(), sqlite.MemoryPath)
	require.NoError(t, err)
	return s
}

func TestStorage(t *testing.T) {
	suite.Run(t, &repotest.StoreSuite{
		NewStore:  func(t *testing.T) repo.Store { return openMemory(t) },
		CloseEach: true,
	})
}

func TestStorage_InvalidStoredStatus(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	defer s.Close()

	_, err := s.DB().ExecContext(ctx,
		`INSERT INTO tasks (id, title, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		"broken", "broken", "paused", time.Now().UTC(), time.Now().UTC())
	require.NoError(t, err)

	err = s.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		_, err := tx.GetTask(ctx, "broken")
		return err
	})
	assert.ErrorIs(t, err, task.ErrInvalidStatus)

	err = s.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		_, err := tx.FindTasks(ctx, repo.TaskFilter{})
		return err
	})
	assert.ErrorIs(t, err, task.ErrInvalidStatus)
}

func TestStorage_PersistsBetweenOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tasque.db")
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	s, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	err = s.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		return tx.CreateTask(ctx, &task.Task{ID: "t", Title: "kept", Status: task.StatusActive, CreatedAt: now, UpdatedAt: now})
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = sqlite.Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	err = s.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		got, err := tx.GetTask(ctx, "t")
		require.NoError(t, err)
		assert.Equal(t, "kept", got.Title)
		assert.Equal(t, task.StatusActive, got.Status)
		assert.True(t, got.CreatedAt.Equal(now))
		return nil
	})
	require.NoError(t, err)
}

func TestStorage_RollbackAndMigrate(t *testing.T) {
	s := openMemory(t)
	defer s.Close()

	require.NoError(t, s.Rollback())

	var count int
	err := s.DB().QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'tasks'`).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, s.Migrate())
	require.NoError(t, s.Migrate(), "повторное применение ничего не меняет")

	err = s.DB().QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'tasks'`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
