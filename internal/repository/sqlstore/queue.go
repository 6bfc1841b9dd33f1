package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"tasque/internal/models/queue"
	repo "tasque/internal/repository"
)

func (tx *Tx) ListQueue(ctx context.Context) ([]queue.Entry, error) {
	rows, err := tx.query(ctx, "list_queue",
		`SELECT task_id, position, added_at FROM task_queue ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]queue.Entry, 0)
	for rows.Next() {
		var e queue.Entry
		if err := rows.Scan(&e.TaskID, &e.Position, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("list_queue: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list_queue: %w", err)
	}
	return result, nil
}

func (tx *Tx) ListQueueWithTasks(ctx context.Context) ([]queue.EntryWithTask, error) {
	rows, err := tx.query(ctx, "list_queue_with_tasks",
		`SELECT q.task_id, q.position, q.added_at, t.title, t.status, t.description
			FROM task_queue q
			JOIN tasks t ON t.id = q.task_id
			ORDER BY q.position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]queue.EntryWithTask, 0)
	for rows.Next() {
		var (
			e           queue.EntryWithTask
			description sql.NullString
		)
		if err := rows.Scan(&e.TaskID, &e.Position, &e.AddedAt, &e.TaskTitle, &e.TaskStatus, &description); err != nil {
			return nil, fmt.Errorf("list_queue_with_tasks: %w", err)
		}
		e.TaskDescription = fromNullString(description)
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list_queue_with_tasks: %w", err)
	}
	return result, nil
}

func (tx *Tx) GetQueueEntry(ctx context.Context, taskID string) (*queue.Entry, error) {
	var e queue.Entry
	err := tx.queryRow(ctx, "get_queue_entry", []any{&e.TaskID, &e.Position, &e.AddedAt},
		`SELECT task_id, position, added_at FROM task_queue WHERE task_id = ?`, taskID)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (tx *Tx) InsertQueueEntry(ctx context.Context, entry queue.Entry) error {
	_, err := tx.exec(ctx, "insert_queue_entry",
		`INSERT INTO task_queue (task_id, position, added_at) VALUES (?, ?, ?)`,
		entry.TaskID, entry.Position, entry.AddedAt)
	return err
}

func (tx *Tx) DeleteQueueEntry(ctx context.Context, taskID string) error {
	return tx.execOne(ctx, "delete_queue_entry", `DELETE FROM task_queue WHERE task_id = ?`, taskID)
}

func (tx *Tx) ShiftQueuePositions(ctx context.Context, from, to, delta int) error {
	_, err := tx.exec(ctx, "shift_queue_positions",
		`UPDATE task_queue SET position = position + ? WHERE position >= ? AND position <= ?`,
		delta, from, to)
	return err
}

func (tx *Tx) SetQueuePosition(ctx context.Context, taskID string, position int) error {
	return tx.execOne(ctx, "set_queue_position",
		`UPDATE task_queue SET position = ? WHERE task_id = ?`, position, taskID)
}

func (tx *Tx) ClearQueue(ctx context.Context) error {
	_, err := tx.exec(ctx, "clear_queue", `DELETE FROM task_queue`)
	return err
}

func (tx *Tx) CountQueue(ctx context.Context) (int, error) {
	var count int
	err := tx.queryRow(ctx, "count_queue", []any{&count}, `SELECT COUNT(*) FROM task_queue`)
	return count, err
}

func (tx *Tx) MaxQueuePosition(ctx context.Context) (int, error) {
	var maxPos int
	err := tx.queryRow(ctx, "max_queue_position", []any{&maxPos},
		`SELECT COALESCE(MAX(position), -1) FROM task_queue`)
	return maxPos, err
}

var _ repo.QueueRepository = (*Tx)(nil)
