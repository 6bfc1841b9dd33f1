package service

import (
	"context"
	"time"

	"tasque/internal/logger"
	"tasque/internal/models/task"
	repo "tasque/internal/repository"

	"go.uber.org/zap"
)

const defaultPageLimit = 20

var (
	defaultListStatuses = []task.Status{task.StatusDraft, task.StatusActive}
	hierarchyStatuses   = repo.HierarchyStatuses{
		Roots:    []task.Status{task.StatusDraft, task.StatusActive},
		Children: []task.Status{task.StatusDraft, task.StatusActive, task.StatusCompleted},
	}
)

// здесь происходит проверка ошибок бизнес-логики

type TaskService struct {
	store repo.Store
	opts  options
}

func NewTaskService(store repo.Store, opts ...Option) *TaskService {
	return &TaskService{
		store: store,
		opts:  buildOptions(opts),
	}
}

type CreateTaskInput struct {
	Title       string
	Description *string
	ParentID    *string
	Tags        []string
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	return s.store.HealthCheck(ctx)
}

func (s *TaskService) Create(ctx context.Context, in CreateTaskInput) (*task.Task, error) {
	if isBlank(in.Title) {
		return nil, NewValidationError("title", "название не может быть пустым")
	}

	var created *task.Task
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		if in.ParentID != nil {
			parent, err := getTask(ctx, tx, *in.ParentID)
			if err != nil {
				return err
			}
			if err := checkDepth(parent); err != nil {
				return err
			}
		}

		tagIDs, err := resolveTagIDs(ctx, tx, in.Tags)
		if err != nil {
			return err
		}

		now := s.opts.now()
		t := &task.Task{
			ID:          s.opts.newID(),
			Title:       in.Title,
			Description: in.Description,
			Status:      task.StatusDraft,
			ParentID:    in.ParentID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.CreateTask(ctx, t); err != nil {
			return storeError("create_task", err)
		}
		if len(tagIDs) > 0 {
			if err := tx.SetTaskTags(ctx, t.ID, tagIDs); err != nil {
				return storeError("create_task", err)
			}
		}

		if err := enrich(ctx, tx, []*task.Task{t}); err != nil {
			return err
		}
		created = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Service: Задача создана", zap.String("task_id", created.ID))
	return created, nil
}

func (s *TaskService) Get(ctx context.Context, id string) (*task.Task, error) {
	var found *task.Task
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		t, err := getTask(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := enrich(ctx, tx, []*task.Task{t}); err != nil {
			return err
		}
		found = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Update меняет поля задачи в статусе draft и пересчитывает статус родителя
func (s *TaskService) Update(ctx context.Context, id string, options ...task.TaskOption) (*task.Task, error) {
	patch := task.NewPatch(options...)
	if patch.Title != nil && isBlank(*patch.Title) {
		return nil, NewValidationError("title", "название не может быть пустым")
	}

	var updated *task.Task
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		current, err := getTask(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Status != task.StatusDraft {
			return NewTaskStateError(CodeTaskNotDraft, id, current.Status)
		}

		oldParentID := current.ParentID
		parentChanged := patch.ParentChanged(current.ParentID)
		if parentChanged && patch.ParentID != nil {
			if err := s.validateNewParent(ctx, tx, id, *patch.ParentID); err != nil {
				return err
			}
		}

		var tagIDs []string
		if patch.ReplaceTags {
			if tagIDs, err = resolveTagIDs(ctx, tx, patch.Tags); err != nil {
				return err
			}
		}

		// дальше только запись
		if patch.Title != nil {
			current.Title = *patch.Title
		}
		if patch.Description != nil {
			current.Description = patch.Description
		} else if patch.ClearDescription {
			current.Description = nil
		}
		if parentChanged {
			current.ParentID = patch.ParentID
		}
		now := s.opts.now()
		current.UpdatedAt = now

		if err := tx.UpdateTask(ctx, current); err != nil {
			return storeError("update_task", err)
		}
		if patch.ReplaceTags {
			if err := tx.SetTaskTags(ctx, id, tagIDs); err != nil {
				return storeError("update_task", err)
			}
		}

		if err := propagate(ctx, tx, id, now); err != nil {
			return err
		}
		if parentChanged && oldParentID != nil {
			if err := recompute(ctx, tx, *oldParentID, now); err != nil {
				return err
			}
		}

		if updated, err = getTask(ctx, tx, id); err != nil {
			return err
		}
		return enrich(ctx, tx, []*task.Task{updated})
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Service: Задача обновлена", zap.String("task_id", id))
	return updated, nil
}

// validateNewParent: существование, цикл, глубина.
// Цикл проверяется раньше глубины, иначе перенос под собственного ребёнка
// выглядел бы как нарушение вложенности.
func (s *TaskService) validateNewParent(ctx context.Context, tx repo.Tx, id, parentID string) error {
	parent, err := getTask(ctx, tx, parentID)
	if err != nil {
		return err
	}
	if err := checkCycle(ctx, tx, id, parentID); err != nil {
		return err
	}
	if err := checkDepth(parent); err != nil {
		return err
	}

	children, err := countChildren(ctx, tx, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return NewBusinessError(CodeGrandchildNotAllowed, "задача с подзадачами не может стать подзадачей",
			ToDetail("task_id", id))
	}
	return nil
}

// recompute обновляет статус бывшего родителя, если у него остались дети
func recompute(ctx context.Context, tx repo.Tx, parentID string, now time.Time) error {
	children, err := tx.FindTasks(ctx, repo.TaskFilter{ParentIDs: []string{parentID}})
	if err != nil {
		return storeError("recompute", err)
	}
	if len(children) == 0 {
		return nil
	}
	return propagate(ctx, tx, children[0].ID, now)
}

// LogicalDelete переводит задачу в archived
func (s *TaskService) LogicalDelete(ctx context.Context, id string) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		current, err := getTask(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Status != task.StatusDraft {
			return NewTaskStateError(CodeTaskNotDraft, id, current.Status)
		}

		children, err := countChildren(ctx, tx, id)
		if err != nil {
			return err
		}
		if children > 0 {
			return NewBusinessError(CodeTaskHasChildren, "у задачи есть подзадачи",
				ToDetail("task_id", id),
				ToDetail("children", children))
		}

		now := s.opts.now()
		if err := tx.SetTaskStatus(ctx, id, task.StatusArchived, now); err != nil {
			return storeError("archive_task", err)
		}
		return propagate(ctx, tx, id, now)
	})
	if err != nil {
		return err
	}

	logger.Info("Service: Задача архивирована", zap.String("task_id", id))
	return nil
}

// PermanentDelete удаляет архивную задачу вместе с подзадачами
func (s *TaskService) PermanentDelete(ctx context.Context, id string) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		current, err := getTask(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Status != task.StatusArchived {
			return NewTaskStateError(CodeTaskNotArchived, id, current.Status)
		}

		if err := tx.DeleteTask(ctx, id); err != nil {
			return storeError("delete_task", err)
		}
		// каскад мог вынуть из очереди подзадачу - закрываем дырки
		return compactQueue(ctx, tx)
	})
	if err != nil {
		return err
	}

	logger.Info("Service: Задача удалена окончательно", zap.String("task_id", id))
	return nil
}

func (s *TaskService) Restore(ctx context.Context, id string) (*task.Task, error) {
	var restored *task.Task
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		current, err := getTask(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Status != task.StatusArchived {
			return NewTaskStateError(CodeTaskNotArchived, id, current.Status)
		}

		if err := tx.SetTaskStatus(ctx, id, task.StatusDraft, s.opts.now()); err != nil {
			return storeError("restore_task", err)
		}
		if restored, err = getTask(ctx, tx, id); err != nil {
			return err
		}
		return enrich(ctx, tx, []*task.Task{restored})
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Service: Задача восстановлена", zap.String("task_id", id))
	return restored, nil
}

// List: nil - draft и active, пустой срез - пустой результат
func (s *TaskService) List(ctx context.Context, statuses []task.Status) ([]*task.Task, error) {
	if statuses != nil && len(statuses) == 0 {
		return []*task.Task{}, nil
	}
	if statuses == nil {
		statuses = defaultListStatuses
	}

	var tasks []*task.Task
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		found, err := tx.FindTasks(ctx, repo.TaskFilter{Statuses: statuses})
		if err != nil {
			return storeError("list_tasks", err)
		}
		tasks = found
		return enrich(ctx, tx, tasks)
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListPaginated: limit 0 означает значение по умолчанию
func (s *TaskService) ListPaginated(ctx context.Context, statuses []task.Status, limit, offset int) (*task.Page, error) {
	if limit < 0 {
		return nil, NewValidationError("limit", "не может быть отрицательным")
	}
	if offset < 0 {
		return nil, NewValidationError("offset", "не может быть отрицательным")
	}
	if limit == 0 {
		limit = defaultPageLimit
	}
	if statuses != nil && len(statuses) == 0 {
		return &task.Page{Tasks: []*task.Task{}, Total: 0}, nil
	}
	if statuses == nil {
		statuses = defaultListStatuses
	}

	page := &task.Page{}
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		filter := repo.TaskFilter{Statuses: statuses}
		total, err := tx.CountTasks(ctx, filter)
		if err != nil {
			return storeError("list_tasks_paginated", err)
		}

		filter.Limit, filter.Offset = limit, offset
		found, err := tx.FindTasks(ctx, filter)
		if err != nil {
			return storeError("list_tasks_paginated", err)
		}

		page.Total = total
		page.Tasks = found
		return enrich(ctx, tx, found)
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Hierarchy - корни draft/active с детьми draft/active/completed
func (s *TaskService) Hierarchy(ctx context.Context) ([]*task.Node, error) {
	var nodes []*task.Node
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		roots, err := tx.FindTasks(ctx, repo.TaskFilter{Scope: repo.ScopeRoots, Statuses: hierarchyStatuses.Roots})
		if err != nil {
			return storeError("hierarchy", err)
		}

		rootIDs := make([]string, len(roots))
		for i, r := range roots {
			rootIDs[i] = r.ID
		}

		var children []*task.Task
		if len(rootIDs) > 0 {
			children, err = tx.FindTasks(ctx, repo.TaskFilter{ParentIDs: rootIDs, Statuses: hierarchyStatuses.Children})
			if err != nil {
				return storeError("hierarchy", err)
			}
		}

		all := append(append([]*task.Task{}, roots...), children...)
		if err := enrich(ctx, tx, all); err != nil {
			return err
		}

		byParent := make(map[string][]*task.Task)
		for _, c := range children {
			byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
		}

		nodes = make([]*task.Node, len(roots))
		for i, r := range roots {
			kids := byParent[r.ID]
			if kids == nil {
				kids = []*task.Task{}
			}
			nodes[i] = &task.Node{Task: r, Children: kids}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

type SearchQuery struct {
	Keyword string
	// nil - все, кроме archived
	Status *task.Status
	// OR по именам тегов
	Tags []string
}

func (s *TaskService) Search(ctx context.Context, q SearchQuery) ([]*task.Task, error) {
	var result []*task.Task
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		filter := repo.TaskFilter{}
		if keyword := trimmed(q.Keyword); keyword != "" {
			filter.Keyword = keyword
		}
		if q.Status != nil {
			filter.Statuses = []task.Status{*q.Status}
		} else {
			filter.ExcludeStatuses = []task.Status{task.StatusArchived}
		}

		if len(q.Tags) > 0 {
			tagIDs, err := knownTagIDs(ctx, tx, q.Tags)
			if err != nil {
				return err
			}
			if len(tagIDs) == 0 {
				result = []*task.Task{}
				return nil
			}
			filter.TagIDs = tagIDs
		}

		found, err := tx.FindTasks(ctx, filter)
		if err != nil {
			return storeError("search_tasks", err)
		}
		result = found
		return enrich(ctx, tx, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SearchIDs - облегчённый поиск только по тегам и статусу
func (s *TaskService) SearchIDs(ctx context.Context, tags []string, status *task.Status) ([]string, error) {
	var ids []string
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		filter := repo.TaskFilter{}
		if status != nil {
			filter.Statuses = []task.Status{*status}
		} else {
			h := hierarchyStatuses
			filter.Hierarchy = &h
		}

		if len(tags) > 0 {
			tagIDs, err := knownTagIDs(ctx, tx, tags)
			if err != nil {
				return err
			}
			if len(tagIDs) == 0 {
				ids = []string{}
				return nil
			}
			filter.TagIDs = tagIDs
		}

		found, err := tx.FindTasks(ctx, filter)
		if err != nil {
			return storeError("search_task_ids", err)
		}
		ids = make([]string, len(found))
		for i, t := range found {
			ids[i] = t.ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *TaskService) HasChildren(ctx context.Context, id string) (bool, error) {
	var has bool
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		if _, err := getTask(ctx, tx, id); err != nil {
			return err
		}
		count, err := countChildren(ctx, tx, id)
		if err != nil {
			return err
		}
		has = count > 0
		return nil
	})
	return has, err
}

// Duplicate создаёт черновую копию задачи. Живые (не archived) подзадачи
// копируются под новую задачу.
func (s *TaskService) Duplicate(ctx context.Context, id string, newTitle *string) (*task.Task, error) {
	if newTitle != nil && isBlank(*newTitle) {
		return nil, NewValidationError("title", "название не может быть пустым")
	}

	var copied *task.Task
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		source, err := getTask(ctx, tx, id)
		if err != nil {
			return err
		}

		title := source.Title + " (copy)"
		if newTitle != nil {
			title = *newTitle
		}

		now := s.opts.now()
		if copied, err = s.copyTask(ctx, tx, source, title, source.ParentID, now); err != nil {
			return err
		}

		children, err := tx.FindTasks(ctx, repo.TaskFilter{
			ParentIDs:       []string{source.ID},
			ExcludeStatuses: []task.Status{task.StatusArchived},
		})
		if err != nil {
			return storeError("duplicate_task", err)
		}
		// FindTasks отдаёт новые первыми, копируем в исходном порядке создания
		for i := len(children) - 1; i >= 0; i-- {
			now = now.Add(time.Microsecond)
			if _, err := s.copyTask(ctx, tx, children[i], children[i].Title, &copied.ID, now); err != nil {
				return err
			}
		}

		if copied.ParentID != nil {
			if err := propagate(ctx, tx, copied.ID, now); err != nil {
				return err
			}
		}

		if copied, err = getTask(ctx, tx, copied.ID); err != nil {
			return err
		}
		return enrich(ctx, tx, []*task.Task{copied})
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Service: Задача скопирована",
		zap.String("source_id", id),
		zap.String("task_id", copied.ID))
	return copied, nil
}

func (s *TaskService) copyTask(ctx context.Context, tx repo.Tx, source *task.Task, title string, parentID *string, now time.Time) (*task.Task, error) {
	c := &task.Task{
		ID:          s.opts.newID(),
		Title:       title,
		Description: source.Description,
		Status:      task.StatusDraft,
		ParentID:    parentID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.CreateTask(ctx, c); err != nil {
		return nil, storeError("duplicate_task", err)
	}

	tagNames, err := tx.TaskTagNames(ctx, []string{source.ID})
	if err != nil {
		return nil, storeError("duplicate_task", err)
	}
	if names := tagNames[source.ID]; len(names) > 0 {
		tagIDs, err := resolveTagIDs(ctx, tx, names)
		if err != nil {
			return nil, err
		}
		if err := tx.SetTaskTags(ctx, c.ID, tagIDs); err != nil {
			return nil, storeError("duplicate_task", err)
		}
	}
	return c, nil
}
