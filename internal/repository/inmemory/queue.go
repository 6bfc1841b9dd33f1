package inmemory

import (
	"context"
	"sort"

	"tasque/internal/models/queue"
	repo "tasque/internal/repository"
)

func (tx *Tx) ListQueue(ctx context.Context) ([]queue.Entry, error) {
	result := make([]queue.Entry, 0, len(tx.data.queue))
	for _, e := range tx.data.queue {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Position < result[j].Position
	})
	return result, nil
}

func (tx *Tx) ListQueueWithTasks(ctx context.Context) ([]queue.EntryWithTask, error) {
	entries, _ := tx.ListQueue(ctx)
	result := make([]queue.EntryWithTask, 0, len(entries))
	for _, e := range entries {
		t, ok := tx.data.tasks[e.TaskID]
		if !ok {
			continue
		}
		item := queue.EntryWithTask{Entry: e, TaskTitle: t.Title, TaskStatus: t.Status}
		if t.Description != nil {
			d := *t.Description
			item.TaskDescription = &d
		}
		result = append(result, item)
	}
	return result, nil
}

func (tx *Tx) GetQueueEntry(ctx context.Context, taskID string) (*queue.Entry, error) {
	e, ok := tx.data.queue[taskID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &e, nil
}

func (tx *Tx) InsertQueueEntry(ctx context.Context, entry queue.Entry) error {
	if _, ok := tx.data.tasks[entry.TaskID]; !ok {
		return repo.ErrNotFound
	}
	if _, ok := tx.data.queue[entry.TaskID]; ok {
		return repo.ErrDuplicate
	}
	tx.data.queue[entry.TaskID] = entry
	return nil
}

func (tx *Tx) DeleteQueueEntry(ctx context.Context, taskID string) error {
	if _, ok := tx.data.queue[taskID]; !ok {
		return repo.ErrNotFound
	}
	delete(tx.data.queue, taskID)
	return nil
}

func (tx *Tx) ShiftQueuePositions(ctx context.Context, from, to, delta int) error {
	for id, e := range tx.data.queue {
		if e.Position >= from && e.Position <= to {
			e.Position += delta
			tx.data.queue[id] = e
		}
	}
	return nil
}

func (tx *Tx) SetQueuePosition(ctx context.Context, taskID string, position int) error {
	e, ok := tx.data.queue[taskID]
	if !ok {
		return repo.ErrNotFound
	}
	e.Position = position
	tx.data.queue[taskID] = e
	return nil
}

func (tx *Tx) ClearQueue(ctx context.Context) error {
	tx.data.queue = make(map[string]queue.Entry)
	return nil
}

func (tx *Tx) CountQueue(ctx context.Context) (int, error) {
	return len(tx.data.queue), nil
}

func (tx *Tx) MaxQueuePosition(ctx context.Context) (int, error) {
	maxPos := -1
	for _, e := range tx.data.queue {
		if e.Position > maxPos {
			maxPos = e.Position
		}
	}
	return maxPos, nil
}
