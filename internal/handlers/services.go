package handlers

import (
	"context"

	"tasque/internal/models/queue"
	"tasque/internal/models/tag"
	"tasque/internal/models/task"
	"tasque/internal/service"
)

type TaskService interface {
	HealthCheck(ctx context.Context) error
	Create(ctx context.Context, in service.CreateTaskInput) (*task.Task, error)
	Get(ctx context.Context, id string) (*task.Task, error)
	Update(ctx context.Context, id string, options ...task.TaskOption) (*task.Task, error)
	LogicalDelete(ctx context.Context, id string) error
	PermanentDelete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) (*task.Task, error)
	List(ctx context.Context, statuses []task.Status) ([]*task.Task, error)
	ListPaginated(ctx context.Context, statuses []task.Status, limit, offset int) (*task.Page, error)
	Hierarchy(ctx context.Context) ([]*task.Node, error)
	Search(ctx context.Context, q service.SearchQuery) ([]*task.Task, error)
	SearchIDs(ctx context.Context, tags []string, status *task.Status) ([]string, error)
	Duplicate(ctx context.Context, id string, newTitle *string) (*task.Task, error)
}

type TagService interface {
	Create(ctx context.Context, name string, color *string) (*tag.Tag, error)
	Get(ctx context.Context, id string) (*tag.Tag, error)
	Update(ctx context.Context, id string, name, color *string) (*tag.Tag, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*tag.Tag, error)
}

type QueueService interface {
	GetAll(ctx context.Context) ([]queue.EntryWithTask, error)
	Enqueue(ctx context.Context, taskID string) (*queue.Entry, error)
	Dequeue(ctx context.Context, taskID, targetStatus string) error
	CompleteAll(ctx context.Context) (int, error)
	ClearAll(ctx context.Context) error
	Move(ctx context.Context, taskID string, newPosition int) error
	Reorder(ctx context.Context, taskIDs []string) error
}

var (
	_ TaskService  = (*service.TaskService)(nil)
	_ TagService   = (*service.TagService)(nil)
	_ QueueService = (*service.QueueService)(nil)
)
