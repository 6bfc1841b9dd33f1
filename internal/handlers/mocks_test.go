package handlers_test

import (
	"context"

	"tasque/internal/handlers"
	"tasque/internal/models/queue"
	"tasque/internal/models/tag"
	"tasque/internal/models/task"
	"tasque/internal/service"

	"github.com/stretchr/testify/mock"
)

// MockTaskService - мок сервиса задач
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) HealthCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func taskResult(args mock.Arguments) (*task.Task, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func tasksResult(args mock.Arguments) ([]*task.Task, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskService) Create(ctx context.Context, in service.CreateTaskInput) (*task.Task, error) {
	return taskResult(m.Called(ctx, in))
}

func (m *MockTaskService) Get(ctx context.Context, id string) (*task.Task, error) {
	return taskResult(m.Called(ctx, id))
}

func (m *MockTaskService) Update(ctx context.Context, id string, options ...task.TaskOption) (*task.Task, error) {
	// функции не сравниваются, поэтому в мок уходит собранный Patch
	return taskResult(m.Called(ctx, id, task.NewPatch(options...)))
}

func (m *MockTaskService) LogicalDelete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTaskService) PermanentDelete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTaskService) Restore(ctx context.Context, id string) (*task.Task, error) {
	return taskResult(m.Called(ctx, id))
}

func (m *MockTaskService) List(ctx context.Context, statuses []task.Status) ([]*task.Task, error) {
	return tasksResult(m.Called(ctx, statuses))
}

func (m *MockTaskService) ListPaginated(ctx context.Context, statuses []task.Status, limit, offset int) (*task.Page, error) {
	args := m.Called(ctx, statuses, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Page), args.Error(1)
}

func (m *MockTaskService) Hierarchy(ctx context.Context) ([]*task.Node, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Node), args.Error(1)
}

func (m *MockTaskService) Search(ctx context.Context, q service.SearchQuery) ([]*task.Task, error) {
	return tasksResult(m.Called(ctx, q))
}

func (m *MockTaskService) SearchIDs(ctx context.Context, tags []string, status *task.Status) ([]string, error) {
	args := m.Called(ctx, tags, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTaskService) Duplicate(ctx context.Context, id string, newTitle *string) (*task.Task, error) {
	return taskResult(m.Called(ctx, id, newTitle))
}

// MockTagService - мок сервиса тегов
type MockTagService struct {
	mock.Mock
}

func tagResult(args mock.Arguments) (*tag.Tag, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tag.Tag), args.Error(1)
}

func (m *MockTagService) Create(ctx context.Context, name string, color *string) (*tag.Tag, error) {
	return tagResult(m.Called(ctx, name, color))
}

func (m *MockTagService) Get(ctx context.Context, id string) (*tag.Tag, error) {
	return tagResult(m.Called(ctx, id))
}

func (m *MockTagService) Update(ctx context.Context, id string, name, color *string) (*tag.Tag, error) {
	return tagResult(m.Called(ctx, id, name, color))
}

func (m *MockTagService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTagService) List(ctx context.Context) ([]*tag.Tag, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*tag.Tag), args.Error(1)
}

// MockQueueService - мок сервиса очереди
type MockQueueService struct {
	mock.Mock
}

func (m *MockQueueService) GetAll(ctx context.Context) ([]queue.EntryWithTask, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]queue.EntryWithTask), args.Error(1)
}

func (m *MockQueueService) Enqueue(ctx context.Context, taskID string) (*queue.Entry, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Entry), args.Error(1)
}

func (m *MockQueueService) Dequeue(ctx context.Context, taskID, targetStatus string) error {
	return m.Called(ctx, taskID, targetStatus).Error(0)
}

func (m *MockQueueService) CompleteAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockQueueService) ClearAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockQueueService) Move(ctx context.Context, taskID string, newPosition int) error {
	return m.Called(ctx, taskID, newPosition).Error(0)
}

func (m *MockQueueService) Reorder(ctx context.Context, taskIDs []string) error {
	return m.Called(ctx, taskIDs).Error(0)
}

var (
	_ handlers.TaskService  = (*MockTaskService)(nil)
	_ handlers.TagService   = (*MockTagService)(nil)
	_ handlers.QueueService = (*MockQueueService)(nil)
)
