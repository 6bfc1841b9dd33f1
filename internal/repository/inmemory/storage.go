package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"tasque/internal/logger"
	"tasque/internal/models/queue"
	"tasque/internal/models/tag"
	"tasque/internal/models/task"
	repo "tasque/internal/repository"
)

type state struct {
	tasks    map[string]*task.Task
	tags     map[string]*tag.Tag
	taskTags map[string]map[string]struct{} // task id -> tag ids
	queue    map[string]queue.Entry
}

func newState() *state {
	return &state{
		tasks:    make(map[string]*task.Task),
		tags:     make(map[string]*tag.Tag),
		taskTags: make(map[string]map[string]struct{}),
		queue:    make(map[string]queue.Entry),
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, t := range s.tasks {
		c.tasks[id] = t.Clone()
	}
	for id, t := range s.tags {
		cp := *t
		c.tags[id] = &cp
	}
	for taskID, set := range s.taskTags {
		cs := make(map[string]struct{}, len(set))
		for tagID := range set {
			cs[tagID] = struct{}{}
		}
		c.taskTags[taskID] = cs
	}
	for id, e := range s.queue {
		c.queue[id] = e
	}
	return c
}

// Storage держит всё в памяти. Транзакция работает над копией состояния
// и подменяет его только при успешном завершении.
type Storage struct {
	data *state
	mtx  sync.Mutex
}

func New() *Storage {
	return &Storage{data: newState()}
}

func (s *Storage) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repo.Tx) error) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &Tx{data: s.data.clone()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

func (s *Storage) Close() error {
	return nil
}

type Tx struct {
	data *state
}

var _ repo.Tx = (*Tx)(nil)

// задачи

func (tx *Tx) CreateTask(ctx context.Context, t *task.Task) error {
	if _, ok := tx.data.tasks[t.ID]; ok {
		return repo.ErrDuplicate
	}
	stored := t.Clone()
	stored.Tags, stored.ChildrenIDs, stored.ParentTitle = nil, nil, nil
	tx.data.tasks[t.ID] = stored
	return nil
}

func (tx *Tx) GetTask(ctx context.Context, id string) (*task.Task, error) {
	t, ok := tx.data.tasks[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return t.Clone(), nil
}

func (tx *Tx) UpdateTask(ctx context.Context, t *task.Task) error {
	stored, ok := tx.data.tasks[t.ID]
	if !ok {
		return repo.ErrNotFound
	}
	cp := t.Clone()
	stored.Title = cp.Title
	stored.Description = cp.Description
	stored.Status = cp.Status
	stored.ParentID = cp.ParentID
	stored.UpdatedAt = cp.UpdatedAt
	return nil
}

func (tx *Tx) SetTaskStatus(ctx context.Context, id string, status task.Status, updatedAt time.Time) error {
	stored, ok := tx.data.tasks[id]
	if !ok {
		return repo.ErrNotFound
	}
	stored.Status = status
	stored.UpdatedAt = updatedAt
	return nil
}

func (tx *Tx) DeleteTask(ctx context.Context, id string) error {
	if _, ok := tx.data.tasks[id]; !ok {
		return repo.ErrNotFound
	}
	tx.deleteCascade(id)
	return nil
}

func (tx *Tx) deleteCascade(id string) {
	for childID, t := range tx.data.tasks {
		if t.ParentID != nil && *t.ParentID == id {
			tx.deleteCascade(childID)
		}
	}
	delete(tx.data.tasks, id)
	delete(tx.data.taskTags, id)
	delete(tx.data.queue, id)
}

func (tx *Tx) matching(filter repo.TaskFilter) []*task.Task {
	result := make([]*task.Task, 0)
	for _, t := range tx.data.tasks {
		if !filter.Match(t) {
			continue
		}
		if len(filter.TagIDs) > 0 && !tx.hasAnyTag(t.ID, filter.TagIDs) {
			continue
		}
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

func (tx *Tx) hasAnyTag(taskID string, tagIDs []string) bool {
	set := tx.data.taskTags[taskID]
	for _, id := range tagIDs {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

func (tx *Tx) FindTasks(ctx context.Context, filter repo.TaskFilter) ([]*task.Task, error) {
	found := tx.matching(filter)

	if filter.Offset > 0 {
		if filter.Offset >= len(found) {
			found = found[:0]
		} else {
			found = found[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(found) > filter.Limit {
		found = found[:filter.Limit]
	}

	result := make([]*task.Task, len(found))
	for i, t := range found {
		result[i] = t.Clone()
	}
	return result, nil
}

func (tx *Tx) CountTasks(ctx context.Context, filter repo.TaskFilter) (int, error) {
	return len(tx.matching(filter)), nil
}
