package service

import (
	"context"
	"errors"
	"strings"

	"tasque/internal/logger"
	"tasque/internal/models/task"
	repo "tasque/internal/repository"

	"go.uber.org/zap"
)

func getTask(ctx context.Context, tx repo.Tx, id string) (*task.Task, error) {
	t, err := tx.GetTask(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id))
			return nil, NewNotFound("task", id)
		}
		return nil, storeError("get_task", err)
	}
	return t, nil
}

// resolveTagIDs переводит имена тегов в id. Теги не создаются автоматически.
func resolveTagIDs(ctx context.Context, tx repo.Tx, names []string) ([]string, error) {
	unique := dedupe(names)
	if len(unique) == 0 {
		return []string{}, nil
	}

	found, err := tx.FindTagsByName(ctx, unique)
	if err != nil {
		return nil, storeError("resolve_tags", err)
	}
	byName := make(map[string]string, len(found))
	for _, t := range found {
		byName[t.Name] = t.ID
	}

	ids := make([]string, 0, len(unique))
	for _, name := range unique {
		id, ok := byName[name]
		if !ok {
			return nil, NewTagNotFound(name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// knownTagIDs - как resolveTagIDs, но неизвестные имена просто пропускаются
func knownTagIDs(ctx context.Context, tx repo.Tx, names []string) ([]string, error) {
	unique := dedupe(names)
	if len(unique) == 0 {
		return nil, nil
	}
	found, err := tx.FindTagsByName(ctx, unique)
	if err != nil {
		return nil, storeError("resolve_tags", err)
	}
	ids := make([]string, 0, len(found))
	for _, t := range found {
		ids = append(ids, t.ID)
	}
	return ids, nil
}

// enrich заполняет теги, id детей и заголовок родителя пачкой запросов
func enrich(ctx context.Context, tx repo.Tx, tasks []*task.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	ids := make([]string, len(tasks))
	parentIDs := make([]string, 0)
	for i, t := range tasks {
		ids[i] = t.ID
		if t.ParentID != nil {
			parentIDs = append(parentIDs, *t.ParentID)
		}
	}

	tagNames, err := tx.TaskTagNames(ctx, ids)
	if err != nil {
		return storeError("enrich_tags", err)
	}

	children, err := tx.FindTasks(ctx, repo.TaskFilter{ParentIDs: ids})
	if err != nil {
		return storeError("enrich_children", err)
	}
	childrenByParent := make(map[string][]string)
	for _, c := range children {
		childrenByParent[*c.ParentID] = append(childrenByParent[*c.ParentID], c.ID)
	}

	titles := make(map[string]string)
	if parentIDs = dedupe(parentIDs); len(parentIDs) > 0 {
		parents, err := tx.FindTasks(ctx, repo.TaskFilter{IDs: parentIDs})
		if err != nil {
			return storeError("enrich_parents", err)
		}
		for _, p := range parents {
			titles[p.ID] = p.Title
		}
	}

	for _, t := range tasks {
		t.Tags = tagNames[t.ID]
		if t.Tags == nil {
			t.Tags = []string{}
		}
		t.ChildrenIDs = childrenByParent[t.ID]
		if t.ChildrenIDs == nil {
			t.ChildrenIDs = []string{}
		}
		t.ParentTitle = nil
		if t.ParentID != nil {
			if title, ok := titles[*t.ParentID]; ok {
				t.ParentTitle = &title
			}
		}
	}
	return nil
}

func countChildren(ctx context.Context, tx repo.Tx, id string, exclude ...task.Status) (int, error) {
	count, err := tx.CountTasks(ctx, repo.TaskFilter{ParentIDs: []string{id}, ExcludeStatuses: exclude})
	if err != nil {
		return 0, storeError("count_children", err)
	}
	return count, nil
}

// checkCycle идёт от нового родителя вверх по цепочке parent_id.
// Встретили саму задачу или уже пройденный узел - цикл.
func checkCycle(ctx context.Context, tx repo.Tx, taskID, newParentID string) error {
	if taskID == newParentID {
		return NewBusinessError(CodeCircularDependency, "задача не может быть родителем самой себя",
			ToDetail("task_id", taskID))
	}

	visited := map[string]struct{}{taskID: {}}
	currentID := newParentID
	for {
		if _, seen := visited[currentID]; seen {
			return NewBusinessError(CodeCircularDependency, "смена родителя создаёт цикл",
				ToDetail("task_id", taskID),
				ToDetail("parent_id", newParentID))
		}
		visited[currentID] = struct{}{}

		current, err := tx.GetTask(ctx, currentID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil
			}
			return storeError("check_cycle", err)
		}
		if current.ParentID == nil {
			return nil
		}
		currentID = *current.ParentID
	}
}

// checkDepth - родителем может быть только задача без собственного родителя
func checkDepth(parent *task.Task) error {
	if parent.ParentID != nil {
		return NewBusinessError(CodeGrandchildNotAllowed, "вложенность задач ограничена двумя уровнями",
			ToDetail("parent_id", parent.ID))
	}
	return nil
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
