package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"tasque/internal/models/task"
	repo "tasque/internal/repository"
	"tasque/internal/repository/inmemory"
	"tasque/internal/service"

	"github.com/stretchr/testify/require"
)

// env собирает сервисы над общим in-memory хранилищем с детерминированными
// часами и id
type env struct {
	ctx    context.Context
	store  *inmemory.Storage
	tasks  *service.TaskService
	tags   *service.TagService
	queue  *service.QueueService
	clock  *testClock
	nextID int
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{
		ctx:   context.Background(),
		store: inmemory.New(),
		clock: &testClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	opts := []service.Option{
		service.WithClock(e.clock.Now),
		service.WithIDGenerator(func() string {
			e.nextID++
			return fmt.Sprintf("id-%03d", e.nextID)
		}),
	}
	e.tasks = service.NewTaskService(e.store, opts...)
	e.tags = service.NewTagService(e.store, opts...)
	e.queue = service.NewQueueService(e.store, opts...)
	return e
}

func (e *env) create(t *testing.T, title string, parentID *string, tags ...string) *task.Task {
	t.Helper()
	created, err := e.tasks.Create(e.ctx, service.CreateTaskInput{Title: title, ParentID: parentID, Tags: tags})
	require.NoError(t, err)
	return created
}

func (e *env) status(t *testing.T, id string) task.Status {
	t.Helper()
	got, err := e.tasks.Get(e.ctx, id)
	require.NoError(t, err)
	return got.Status
}

func (e *env) positions(t *testing.T) map[string]int {
	t.Helper()
	entries, err := e.queue.GetAll(e.ctx)
	require.NoError(t, err)
	result := make(map[string]int, len(entries))
	for _, entry := range entries {
		result[entry.TaskID] = entry.Position
	}
	return result
}

func (e *env) queueOrder(t *testing.T) []string {
	t.Helper()
	entries, err := e.queue.GetAll(e.ctx)
	require.NoError(t, err)
	ids := make([]string, len(entries))
	for i, entry := range entries {
		require.Equal(t, i, entry.Position)
		ids[i] = entry.TaskID
	}
	return ids
}

func ptr[T any](v T) *T {
	return &v
}

// archive переводит задачу в archived напрямую через хранилище
func archive(id string) func(ctx context.Context, tx repo.Tx) error {
	return func(ctx context.Context, tx repo.Tx) error {
		return tx.SetTaskStatus(ctx, id, task.StatusArchived, time.Now().UTC())
	}
}

func setStatus(id string, status task.Status) func(ctx context.Context, tx repo.Tx) error {
	return func(ctx context.Context, tx repo.Tx) error {
		return tx.SetTaskStatus(ctx, id, status, time.Now().UTC())
	}
}
