package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"tasque/internal/models/tag"
	repo "tasque/internal/repository"
)

// usage_count не хранится, считается подзапросом при каждом чтении
const tagSelect = `SELECT t.id, t.name, t.color, t.created_at, t.updated_at,
		(SELECT COUNT(*) FROM task_tags tt WHERE tt.tag_id = t.id) AS usage_count
	FROM tags t`

func scanTag(row rowScanner) (*tag.Tag, error) {
	var (
		t     tag.Tag
		color sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Name, &color, &t.CreatedAt, &t.UpdatedAt, &t.UsageCount); err != nil {
		return nil, err
	}
	t.Color = fromNullString(color)
	return &t, nil
}

func (tx *Tx) collectTags(ctx context.Context, op, query string, args ...any) ([]*tag.Tag, error) {
	rows, err := tx.query(ctx, op, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*tag.Tag, 0)
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func (tx *Tx) CreateTag(ctx context.Context, t *tag.Tag) error {
	_, err := tx.exec(ctx, "create_tag",
		`INSERT INTO tags (id, name, color, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.Name, nullString(t.Color), t.CreatedAt, t.UpdatedAt)
	return err
}

func (tx *Tx) GetTag(ctx context.Context, id string) (*tag.Tag, error) {
	tags, err := tx.collectTags(ctx, "get_tag", tagSelect+` WHERE t.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, repo.ErrNotFound
	}
	return tags[0], nil
}

func (tx *Tx) UpdateTag(ctx context.Context, t *tag.Tag) error {
	return tx.execOne(ctx, "update_tag",
		`UPDATE tags SET name = ?, color = ?, updated_at = ? WHERE id = ?`,
		t.Name, nullString(t.Color), t.UpdatedAt, t.ID)
}

// DeleteTag: связи task_tags удаляются каскадом
func (tx *Tx) DeleteTag(ctx context.Context, id string) error {
	return tx.execOne(ctx, "delete_tag", `DELETE FROM tags WHERE id = ?`, id)
}

func (tx *Tx) ListTags(ctx context.Context) ([]*tag.Tag, error) {
	return tx.collectTags(ctx, "list_tags", tagSelect+` ORDER BY t.created_at DESC, t.id DESC`)
}

func (tx *Tx) FindTagsByName(ctx context.Context, names []string) ([]*tag.Tag, error) {
	if len(names) == 0 {
		return []*tag.Tag{}, nil
	}
	return tx.collectTags(ctx, "find_tags_by_name",
		tagSelect+` WHERE t.name IN (`+placeholders(len(names))+`)`, toArgs(names)...)
}

func (tx *Tx) TaskTagNames(ctx context.Context, taskIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(taskIDs))
	if len(taskIDs) == 0 {
		return result, nil
	}

	rows, err := tx.query(ctx, "task_tag_names",
		`SELECT tt.task_id, t.name
			FROM task_tags tt
			JOIN tags t ON t.id = tt.tag_id
			WHERE tt.task_id IN (`+placeholders(len(taskIDs))+`)
			ORDER BY t.name`,
		toArgs(taskIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var taskID, name string
		if err := rows.Scan(&taskID, &name); err != nil {
			return nil, fmt.Errorf("task_tag_names: %w", err)
		}
		result[taskID] = append(result[taskID], name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("task_tag_names: %w", err)
	}
	return result, nil
}

func (tx *Tx) SetTaskTags(ctx context.Context, taskID string, tagIDs []string) error {
	if _, err := tx.exec(ctx, "set_task_tags", `DELETE FROM task_tags WHERE task_id = ?`, taskID); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if _, err := tx.exec(ctx, "set_task_tags",
			`INSERT INTO task_tags (task_id, tag_id) VALUES (?, ?)`, taskID, tagID); err != nil {
			return err
		}
	}
	return nil
}
