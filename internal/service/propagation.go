package service

import (
	"context"
	"time"

	"tasque/internal/logger"
	"tasque/internal/models/task"
	repo "tasque/internal/repository"

	"go.uber.org/zap"
)

// AggregateStatus вычисляет статус родителя по статусам детей.
// Порядок правил важен: Active побеждает всё остальное.
func AggregateStatus(children []task.Status) task.Status {
	if len(children) == 0 {
		return task.StatusDraft
	}

	var active, completed, draft, archived int
	for _, s := range children {
		switch s {
		case task.StatusActive:
			active++
		case task.StatusCompleted:
			completed++
		case task.StatusDraft:
			draft++
		case task.StatusArchived:
			archived++
		}
	}

	total := len(children)
	switch {
	case active > 0:
		return task.StatusActive
	case completed == total:
		return task.StatusCompleted
	case draft == total:
		return task.StatusDraft
	case completed+archived == total:
		return task.StatusCompleted
	default:
		return task.StatusActive
	}
}

// propagate пересчитывает статус родителя changedID и поднимается выше,
// пока не дойдёт до корня.
func propagate(ctx context.Context, tx repo.Tx, changedID string, now time.Time) error {
	visited := map[string]struct{}{changedID: {}}

	currentID := changedID
	for {
		current, err := tx.GetTask(ctx, currentID)
		if err != nil {
			return storeError("propagate", err)
		}
		if current.ParentID == nil {
			return nil
		}

		parentID := *current.ParentID
		if _, seen := visited[parentID]; seen {
			logger.Error("Service: Цикл в цепочке родителей", nil, zap.String("task_id", changedID))
			return NewBusinessError(CodeCircularDependency, "цикл в цепочке родителей", ToDetail("task_id", changedID))
		}
		visited[parentID] = struct{}{}

		children, err := tx.FindTasks(ctx, repo.TaskFilter{ParentIDs: []string{parentID}})
		if err != nil {
			return storeError("propagate", err)
		}
		statuses := make([]task.Status, len(children))
		for i, child := range children {
			statuses[i] = child.Status
		}

		aggregated := AggregateStatus(statuses)
		if err := tx.SetTaskStatus(ctx, parentID, aggregated, now); err != nil {
			return storeError("propagate", err)
		}

		logger.Debug("Service: Статус родителя пересчитан",
			zap.String("parent_id", parentID),
			zap.Stringer("status", aggregated))

		currentID = parentID
	}
}
