package service

import (
	"context"
	"errors"

	"tasque/internal/logger"
	"tasque/internal/models/queue"
	"tasque/internal/models/task"
	repo "tasque/internal/repository"

	"go.uber.org/zap"
)

// допустимые значения target_status при снятии задачи с очереди
var dequeueTargets = map[string]task.Status{
	"draft":     task.StatusDraft,
	"completed": task.StatusCompleted,
}

type QueueService struct {
	store repo.Store
	opts  options
}

func NewQueueService(store repo.Store, opts ...Option) *QueueService {
	return &QueueService{
		store: store,
		opts:  buildOptions(opts),
	}
}

func (s *QueueService) GetAll(ctx context.Context) ([]queue.EntryWithTask, error) {
	var entries []queue.EntryWithTask
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		found, err := tx.ListQueueWithTasks(ctx)
		if err != nil {
			return storeError("get_queue", err)
		}
		entries = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Enqueue ставит задачу в конец очереди и переводит её в active
func (s *QueueService) Enqueue(ctx context.Context, taskID string) (*queue.Entry, error) {
	var entry queue.Entry
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		if _, err := getTask(ctx, tx, taskID); err != nil {
			return err
		}

		_, err := tx.GetQueueEntry(ctx, taskID)
		switch {
		case err == nil:
			return NewBusinessError(CodeDuplicateQueueEntry, "задача уже в очереди", ToDetail("task_id", taskID))
		case !errors.Is(err, repo.ErrNotFound):
			return storeError("enqueue", err)
		}

		// архивные подзадачи не мешают планировать родителя
		children, err := countChildren(ctx, tx, taskID, task.StatusArchived)
		if err != nil {
			return err
		}
		if children > 0 {
			return NewBusinessError(CodeTaskHasChildren, "задачу с подзадачами нельзя поставить в очередь",
				ToDetail("task_id", taskID),
				ToDetail("children", children))
		}

		now := s.opts.now()
		if err := tx.SetTaskStatus(ctx, taskID, task.StatusActive, now); err != nil {
			return storeError("enqueue", err)
		}
		if err := propagate(ctx, tx, taskID, now); err != nil {
			return err
		}

		maxPos, err := tx.MaxQueuePosition(ctx)
		if err != nil {
			return storeError("enqueue", err)
		}
		entry = queue.Entry{TaskID: taskID, Position: maxPos + 1, AddedAt: now}
		if err := tx.InsertQueueEntry(ctx, entry); err != nil {
			return storeError("enqueue", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Service: Задача добавлена в очередь",
		zap.String("task_id", taskID),
		zap.Int("position", entry.Position))
	return &entry, nil
}

// Dequeue снимает задачу с очереди и переводит её в draft или completed
func (s *QueueService) Dequeue(ctx context.Context, taskID, targetStatus string) error {
	target, ok := dequeueTargets[targetStatus]
	if !ok {
		return NewValidationError("target_status", "допустимы только draft и completed")
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		entry, err := getQueueEntry(ctx, tx, taskID)
		if err != nil {
			return err
		}

		if err := tx.DeleteQueueEntry(ctx, taskID); err != nil {
			return storeError("dequeue", err)
		}
		if err := tx.ShiftQueuePositions(ctx, entry.Position+1, maxPosition, -1); err != nil {
			return storeError("dequeue", err)
		}

		now := s.opts.now()
		if err := tx.SetTaskStatus(ctx, taskID, target, now); err != nil {
			return storeError("dequeue", err)
		}
		return propagate(ctx, tx, taskID, now)
	})
	if err != nil {
		return err
	}

	logger.Info("Service: Задача снята с очереди",
		zap.String("task_id", taskID),
		zap.String("target_status", targetStatus))
	return nil
}

// CompleteAll завершает все задачи очереди и очищает её
func (s *QueueService) CompleteAll(ctx context.Context) (int, error) {
	var completed int
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		entries, err := tx.ListQueue(ctx)
		if err != nil {
			return storeError("complete_all", err)
		}

		now := s.opts.now()
		for _, e := range entries {
			if err := tx.SetTaskStatus(ctx, e.TaskID, task.StatusCompleted, now); err != nil {
				return storeError("complete_all", err)
			}
		}
		if err := tx.ClearQueue(ctx); err != nil {
			return storeError("complete_all", err)
		}
		for _, e := range entries {
			if err := propagate(ctx, tx, e.TaskID, now); err != nil {
				return err
			}
		}

		completed = len(entries)
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info("Service: Очередь завершена", zap.Int("completed", completed))
	return completed, nil
}

// clearedStatus - статус задачи после очистки очереди
func clearedStatus(current task.Status) task.Status {
	switch current {
	case task.StatusDraft:
		return task.StatusArchived
	case task.StatusCompleted:
		return task.StatusCompleted
	default:
		return task.StatusDraft
	}
}

func (s *QueueService) ClearAll(ctx context.Context) error {
	var cleared int
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		entries, err := tx.ListQueue(ctx)
		if err != nil {
			return storeError("clear_queue", err)
		}

		now := s.opts.now()
		for _, e := range entries {
			current, err := getTask(ctx, tx, e.TaskID)
			if err != nil {
				return err
			}
			next := clearedStatus(current.Status)
			if next == current.Status {
				continue
			}
			if err := tx.SetTaskStatus(ctx, e.TaskID, next, now); err != nil {
				return storeError("clear_queue", err)
			}
		}
		if err := tx.ClearQueue(ctx); err != nil {
			return storeError("clear_queue", err)
		}
		for _, e := range entries {
			if err := propagate(ctx, tx, e.TaskID, now); err != nil {
				return err
			}
		}

		cleared = len(entries)
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Service: Очередь очищена", zap.Int("cleared", cleared))
	return nil
}

// Move переносит задачу на новую позицию, сдвигая соседей между старой и новой
func (s *QueueService) Move(ctx context.Context, taskID string, newPosition int) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		entry, err := getQueueEntry(ctx, tx, taskID)
		if err != nil {
			return err
		}

		size, err := tx.CountQueue(ctx)
		if err != nil {
			return storeError("move", err)
		}
		if newPosition < 0 || newPosition >= size {
			return NewBusinessError(CodeInvalidInput, "позиция вне диапазона очереди",
				ToDetail("position", newPosition),
				ToDetail("size", size))
		}

		old := entry.Position
		switch {
		case old == newPosition:
			return nil
		case old < newPosition:
			err = tx.ShiftQueuePositions(ctx, old+1, newPosition, -1)
		default:
			err = tx.ShiftQueuePositions(ctx, newPosition, old-1, 1)
		}
		if err != nil {
			return storeError("move", err)
		}

		if err := tx.SetQueuePosition(ctx, taskID, newPosition); err != nil {
			return storeError("move", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Debug("Service: Позиция в очереди изменена",
		zap.String("task_id", taskID),
		zap.Int("position", newPosition))
	return nil
}

// Reorder задаёт полный порядок очереди: position = индекс в taskIDs
func (s *QueueService) Reorder(ctx context.Context, taskIDs []string) error {
	return s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		entries, err := tx.ListQueue(ctx)
		if err != nil {
			return storeError("reorder", err)
		}
		if len(taskIDs) != len(entries) {
			return NewBusinessError(CodeInvalidInput, "размер списка не совпадает с размером очереди",
				ToDetail("expected", len(entries)),
				ToDetail("received", len(taskIDs)))
		}

		queued := make(map[string]struct{}, len(entries))
		for _, e := range entries {
			queued[e.TaskID] = struct{}{}
		}
		seen := make(map[string]struct{}, len(taskIDs))
		for _, id := range taskIDs {
			if _, ok := queued[id]; !ok {
				return NewQueueEntryNotFound(id)
			}
			if _, dup := seen[id]; dup {
				return NewBusinessError(CodeInvalidInput, "задача указана в списке дважды", ToDetail("task_id", id))
			}
			seen[id] = struct{}{}
		}

		for i, id := range taskIDs {
			if err := tx.SetQueuePosition(ctx, id, i); err != nil {
				return storeError("reorder", err)
			}
		}
		return nil
	})
}

func getQueueEntry(ctx context.Context, tx repo.Tx, taskID string) (*queue.Entry, error) {
	entry, err := tx.GetQueueEntry(ctx, taskID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewQueueEntryNotFound(taskID)
		}
		return nil, storeError("get_queue_entry", err)
	}
	return entry, nil
}

// compactQueue перенумеровывает позиции подряд с нуля
func compactQueue(ctx context.Context, tx repo.Tx) error {
	entries, err := tx.ListQueue(ctx)
	if err != nil {
		return storeError("compact_queue", err)
	}
	for i, e := range entries {
		if e.Position == i {
			continue
		}
		if err := tx.SetQueuePosition(ctx, e.TaskID, i); err != nil {
			return storeError("compact_queue", err)
		}
	}
	return nil
}

// верхняя граница для сдвига "до конца очереди"
const maxPosition = 1<<31 - 1
