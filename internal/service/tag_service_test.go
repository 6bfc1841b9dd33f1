package service_test

import (
	"testing"

	"tasque/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagService_Create(t *testing.T) {
	e := newEnv(t)

	created, err := e.tags.Create(e.ctx, "work", ptr("#ff0000"))
	require.NoError(t, err)
	assert.Equal(t, "work", created.Name)
	require.NotNil(t, created.Color)
	assert.Equal(t, "#ff0000", *created.Color)
	assert.Zero(t, created.UsageCount)

	_, err = e.tags.Create(e.ctx, " ", nil)
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = e.tags.Create(e.ctx, "work", nil)
	assert.ErrorIs(t, err, service.ErrDuplicateEntry)
}

func TestTagService_Update(t *testing.T) {
	e := newEnv(t)
	work, err := e.tags.Create(e.ctx, "work", nil)
	require.NoError(t, err)
	_, err = e.tags.Create(e.ctx, "home", nil)
	require.NoError(t, err)

	tests := []struct {
		name    string
		id      string
		newName *string
		color   *string
		wantErr error
	}{
		{name: "success - rename", id: work.ID, newName: ptr("office")},
		{name: "success - color only", id: work.ID, color: ptr("blue")},
		{name: "error - blank name", id: work.ID, newName: ptr(""), wantErr: service.ErrInvalidInput},
		{name: "error - name taken", id: work.ID, newName: ptr("home"), wantErr: service.ErrDuplicateEntry},
		{name: "error - unknown tag", id: "missing", newName: ptr("x"), wantErr: service.ErrTagNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated, err := e.tags.Update(e.ctx, tt.id, tt.newName, tt.color)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.newName != nil {
				assert.Equal(t, *tt.newName, updated.Name)
			}
			if tt.color != nil {
				assert.Equal(t, tt.color, updated.Color)
			}
		})
	}

	got, err := e.tags.Get(e.ctx, work.ID)
	require.NoError(t, err)
	assert.Equal(t, "office", got.Name)
}

func TestTagService_UsageCountIsDerived(t *testing.T) {
	e := newEnv(t)
	_, err := e.tags.Create(e.ctx, "a", nil)
	require.NoError(t, err)
	_, err = e.tags.Create(e.ctx, "b", nil)
	require.NoError(t, err)

	first := e.create(t, "first", nil, "a", "b")
	e.create(t, "second", nil, "a")

	tags, err := e.tags.List(e.ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	// новые первыми
	assert.Equal(t, "b", tags[0].Name)
	assert.Equal(t, 1, tags[0].UsageCount)
	assert.Equal(t, "a", tags[1].Name)
	assert.Equal(t, 2, tags[1].UsageCount)

	require.NoError(t, e.tasks.LogicalDelete(e.ctx, first.ID))
	require.NoError(t, e.tasks.PermanentDelete(e.ctx, first.ID))

	a, err := e.tags.Get(e.ctx, tags[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, a.UsageCount)
}

func TestTagService_DeleteInUse(t *testing.T) {
	e := newEnv(t)
	tagged, err := e.tags.Create(e.ctx, "x", nil)
	require.NoError(t, err)
	item := e.create(t, "item", nil, "x")

	require.NoError(t, e.tags.Delete(e.ctx, tagged.ID))

	got, err := e.tasks.Get(e.ctx, item.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)

	assert.ErrorIs(t, e.tags.Delete(e.ctx, tagged.ID), service.ErrTagNotFound)
	_, err = e.tags.Get(e.ctx, tagged.ID)
	assert.ErrorIs(t, err, service.ErrTagNotFound)
}
