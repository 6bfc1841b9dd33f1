package repository

import (
	"context"
	"errors"
	"time"

	"tasque/internal/models/queue"
	"tasque/internal/models/tag"
	"tasque/internal/models/task"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Store выдаёт транзакцию на всю операцию. Если fn вернула ошибку,
// все изменения откатываются.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	HealthCheck(ctx context.Context) error
	Close() error
}

type Tx interface {
	TaskRepository
	TagRepository
	QueueRepository
}

type TaskRepository interface {
	CreateTask(ctx context.Context, t *task.Task) error
	// GetTask возвращает только хранимые поля, без тегов и детей
	GetTask(ctx context.Context, id string) (*task.Task, error)
	UpdateTask(ctx context.Context, t *task.Task) error
	SetTaskStatus(ctx context.Context, id string, status task.Status, updatedAt time.Time) error
	// DeleteTask удаляет задачу каскадно: дети, связи с тегами, запись в очереди
	DeleteTask(ctx context.Context, id string) error
	FindTasks(ctx context.Context, filter TaskFilter) ([]*task.Task, error)
	CountTasks(ctx context.Context, filter TaskFilter) (int, error)
}

type TagRepository interface {
	CreateTag(ctx context.Context, t *tag.Tag) error
	GetTag(ctx context.Context, id string) (*tag.Tag, error)
	UpdateTag(ctx context.Context, t *tag.Tag) error
	DeleteTag(ctx context.Context, id string) error
	ListTags(ctx context.Context) ([]*tag.Tag, error)
	FindTagsByName(ctx context.Context, names []string) ([]*tag.Tag, error)
	// TaskTagNames - имена тегов по id задачи, отсортированы по имени
	TaskTagNames(ctx context.Context, taskIDs []string) (map[string][]string, error)
	SetTaskTags(ctx context.Context, taskID string, tagIDs []string) error
}

type QueueRepository interface {
	ListQueue(ctx context.Context) ([]queue.Entry, error)
	ListQueueWithTasks(ctx context.Context) ([]queue.EntryWithTask, error)
	GetQueueEntry(ctx context.Context, taskID string) (*queue.Entry, error)
	InsertQueueEntry(ctx context.Context, entry queue.Entry) error
	DeleteQueueEntry(ctx context.Context, taskID string) error
	// ShiftQueuePositions сдвигает на delta все позиции в диапазоне [from, to]
	ShiftQueuePositions(ctx context.Context, from, to, delta int) error
	SetQueuePosition(ctx context.Context, taskID string, position int) error
	ClearQueue(ctx context.Context) error
	CountQueue(ctx context.Context) (int, error)
	// MaxQueuePosition возвращает -1 для пустой очереди
	MaxQueuePosition(ctx context.Context) (int, error)
}
