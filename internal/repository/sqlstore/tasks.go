package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"tasque/internal/models/task"
	repo "tasque/internal/repository"
)

const taskColumns = "id, title, description, status, parent_id, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*task.Task, error) {
	var (
		t           task.Task
		description sql.NullString
		parentID    sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Title, &description, &t.Status, &parentID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Description = fromNullString(description)
	t.ParentID = fromNullString(parentID)
	return &t, nil
}

func (tx *Tx) CreateTask(ctx context.Context, t *task.Task) error {
	_, err := tx.exec(ctx, "create_task",
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, nullString(t.Description), t.Status, nullString(t.ParentID), t.CreatedAt, t.UpdatedAt)
	return err
}

func (tx *Tx) GetTask(ctx context.Context, id string) (*task.Task, error) {
	rows, err := tx.query(ctx, "get_task", `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get_task: %w", err)
		}
		return nil, repo.ErrNotFound
	}
	t, err := scanTask(rows)
	if err != nil {
		return nil, fmt.Errorf("get_task: %w", err)
	}
	return t, nil
}

func (tx *Tx) UpdateTask(ctx context.Context, t *task.Task) error {
	return tx.execOne(ctx, "update_task",
		`UPDATE tasks
			SET title = ?,
				description = ?,
				status = ?,
				parent_id = ?,
				updated_at = ?
			WHERE id = ?`,
		t.Title, nullString(t.Description), t.Status, nullString(t.ParentID), t.UpdatedAt, t.ID)
}

func (tx *Tx) SetTaskStatus(ctx context.Context, id string, status task.Status, updatedAt time.Time) error {
	return tx.execOne(ctx, "set_task_status",
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
		status, updatedAt, id)
}

// DeleteTask полагается на ON DELETE CASCADE внешних ключей
func (tx *Tx) DeleteTask(ctx context.Context, id string) error {
	return tx.execOne(ctx, "delete_task", `DELETE FROM tasks WHERE id = ?`, id)
}

func (tx *Tx) taskWhere(filter repo.TaskFilter) *where {
	w := &where{}
	if len(filter.IDs) > 0 {
		w.in("id", toArgs(filter.IDs))
	}
	if len(filter.ParentIDs) > 0 {
		w.in("parent_id", toArgs(filter.ParentIDs))
	}
	if len(filter.Statuses) > 0 {
		w.in("status", toArgs(filter.Statuses))
	}
	if len(filter.ExcludeStatuses) > 0 {
		w.notIn("status", toArgs(filter.ExcludeStatuses))
	}
	if h := filter.Hierarchy; h != nil {
		w.add(fmt.Sprintf("((parent_id IS NULL AND %s) OR (parent_id IS NOT NULL AND %s))",
			statusIn(len(h.Roots)), statusIn(len(h.Children))),
			append(toArgs(h.Roots), toArgs(h.Children)...)...)
	}
	switch filter.Scope {
	case repo.ScopeRoots:
		w.add("parent_id IS NULL")
	case repo.ScopeChildren:
		w.add("parent_id IS NOT NULL")
	}
	if filter.Keyword != "" {
		pattern := "%" + escapeLike(strings.ToLower(filter.Keyword)) + "%"
		w.add(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(COALESCE(description, '')) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if len(filter.TagIDs) > 0 {
		w.add("id IN (SELECT task_id FROM task_tags WHERE tag_id IN ("+placeholders(len(filter.TagIDs))+"))",
			toArgs(filter.TagIDs)...)
	}
	return w
}

func (tx *Tx) FindTasks(ctx context.Context, filter repo.TaskFilter) ([]*task.Task, error) {
	w := tx.taskWhere(filter)
	query := `SELECT ` + taskColumns + ` FROM tasks` + w.String() + ` ORDER BY created_at DESC, id DESC`
	args := w.args

	switch {
	case filter.Limit > 0:
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	case filter.Offset > 0:
		query += ` LIMIT ` + tx.dialect.NoLimit + ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := tx.query(ctx, "find_tasks", query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*task.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("find_tasks: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find_tasks: %w", err)
	}
	return result, nil
}

func (tx *Tx) CountTasks(ctx context.Context, filter repo.TaskFilter) (int, error) {
	w := tx.taskWhere(filter)
	var count int
	err := tx.queryRow(ctx, "count_tasks", []any{&count}, `SELECT COUNT(*) FROM tasks`+w.String(), w.args...)
	return count, err
}

// statusIn для пустого набора даёт ложное условие: IN () не везде допустим
func statusIn(n int) string {
	if n == 0 {
		return "1 = 0"
	}
	return "status IN (" + placeholders(n) + ")"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
