package service

import (
	"context"
	"errors"

	"tasque/internal/logger"
	"tasque/internal/models/tag"
	repo "tasque/internal/repository"

	"go.uber.org/zap"
)

type TagService struct {
	store repo.Store
	opts  options
}

func NewTagService(store repo.Store, opts ...Option) *TagService {
	return &TagService{
		store: store,
		opts:  buildOptions(opts),
	}
}

// Create не проверяет уникальность имени заранее: это делает хранилище,
// дубликат приходит как DUPLICATE_ENTRY.
func (s *TagService) Create(ctx context.Context, name string, color *string) (*tag.Tag, error) {
	if isBlank(name) {
		return nil, NewValidationError("name", "имя тега не может быть пустым")
	}

	now := s.opts.now()
	t := &tag.Tag{
		ID:        s.opts.newID(),
		Name:      name,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		return storeError("create_tag", tx.CreateTag(ctx, t))
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Service: Тег создан", zap.String("tag_id", t.ID), zap.String("name", name))
	return t, nil
}

func (s *TagService) Get(ctx context.Context, id string) (*tag.Tag, error) {
	var found *tag.Tag
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		t, err := getTag(ctx, tx, id)
		found = t
		return err
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Update меняет имя и/или цвет; nil - оставить как есть
func (s *TagService) Update(ctx context.Context, id string, name, color *string) (*tag.Tag, error) {
	if name != nil && isBlank(*name) {
		return nil, NewValidationError("name", "имя тега не может быть пустым")
	}

	var updated *tag.Tag
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		current, err := getTag(ctx, tx, id)
		if err != nil {
			return err
		}
		if name != nil {
			current.Name = *name
		}
		if color != nil {
			current.Color = color
		}
		current.UpdatedAt = s.opts.now()

		if err := tx.UpdateTag(ctx, current); err != nil {
			return storeError("update_tag", err)
		}
		updated, err = getTag(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete удаляет тег без условий, связи с задачами уходят каскадом
func (s *TagService) Delete(ctx context.Context, id string) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		if _, err := getTag(ctx, tx, id); err != nil {
			return err
		}
		return storeError("delete_tag", tx.DeleteTag(ctx, id))
	})
	if err != nil {
		return err
	}

	logger.Info("Service: Тег удалён", zap.String("tag_id", id))
	return nil
}

func (s *TagService) List(ctx context.Context) ([]*tag.Tag, error) {
	var tags []*tag.Tag
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		found, err := tx.ListTags(ctx)
		tags = found
		return storeError("list_tags", err)
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func getTag(ctx context.Context, tx repo.Tx, id string) (*tag.Tag, error) {
	t, err := tx.GetTag(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Info("Service: Тег не найден", zap.String("target_id", id))
			return nil, NewBusinessError(CodeTagNotFound, "тег не найден", ToDetail("id", id))
		}
		return nil, storeError("get_tag", err)
	}
	return t, nil
}
