package inmemory

import (
	"context"
	"sort"

	"tasque/internal/models/tag"
	repo "tasque/internal/repository"
)

func (tx *Tx) usage(tagID string) int {
	count := 0
	for _, set := range tx.data.taskTags {
		if _, ok := set[tagID]; ok {
			count++
		}
	}
	return count
}

func (tx *Tx) nameTaken(name, exceptID string) bool {
	for id, t := range tx.data.tags {
		if id != exceptID && t.Name == name {
			return true
		}
	}
	return false
}

func (tx *Tx) CreateTag(ctx context.Context, t *tag.Tag) error {
	if _, ok := tx.data.tags[t.ID]; ok || tx.nameTaken(t.Name, "") {
		return repo.ErrDuplicate
	}
	cp := *t
	cp.UsageCount = 0
	tx.data.tags[t.ID] = &cp
	return nil
}

func (tx *Tx) GetTag(ctx context.Context, id string) (*tag.Tag, error) {
	t, ok := tx.data.tags[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *t
	cp.UsageCount = tx.usage(id)
	return &cp, nil
}

func (tx *Tx) UpdateTag(ctx context.Context, t *tag.Tag) error {
	stored, ok := tx.data.tags[t.ID]
	if !ok {
		return repo.ErrNotFound
	}
	if tx.nameTaken(t.Name, t.ID) {
		return repo.ErrDuplicate
	}
	stored.Name = t.Name
	stored.Color = t.Color
	stored.UpdatedAt = t.UpdatedAt
	return nil
}

func (tx *Tx) DeleteTag(ctx context.Context, id string) error {
	if _, ok := tx.data.tags[id]; !ok {
		return repo.ErrNotFound
	}
	delete(tx.data.tags, id)
	for _, set := range tx.data.taskTags {
		delete(set, id)
	}
	return nil
}

func (tx *Tx) ListTags(ctx context.Context) ([]*tag.Tag, error) {
	result := make([]*tag.Tag, 0, len(tx.data.tags))
	for id, t := range tx.data.tags {
		cp := *t
		cp.UsageCount = tx.usage(id)
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (tx *Tx) FindTagsByName(ctx context.Context, names []string) ([]*tag.Tag, error) {
	result := make([]*tag.Tag, 0, len(names))
	for _, name := range names {
		for id, t := range tx.data.tags {
			if t.Name == name {
				cp := *t
				cp.UsageCount = tx.usage(id)
				result = append(result, &cp)
				break
			}
		}
	}
	return result, nil
}

func (tx *Tx) TaskTagNames(ctx context.Context, taskIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(taskIDs))
	for _, taskID := range taskIDs {
		names := make([]string, 0)
		for tagID := range tx.data.taskTags[taskID] {
			if t, ok := tx.data.tags[tagID]; ok {
				names = append(names, t.Name)
			}
		}
		sort.Strings(names)
		result[taskID] = names
	}
	return result, nil
}

func (tx *Tx) SetTaskTags(ctx context.Context, taskID string, tagIDs []string) error {
	if _, ok := tx.data.tasks[taskID]; !ok {
		return repo.ErrNotFound
	}
	set := make(map[string]struct{}, len(tagIDs))
	for _, id := range tagIDs {
		if _, ok := tx.data.tags[id]; !ok {
			return repo.ErrNotFound
		}
		set[id] = struct{}{}
	}
	tx.data.taskTags[taskID] = set
	return nil
}
