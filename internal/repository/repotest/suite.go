// Package repotest - общий набор тестов для любой реализации repository.Store.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"tasque/internal/models/queue"
	"tasque/internal/models/tag"
	"tasque/internal/models/task"
	repo "tasque/internal/repository"

	"github.com/stretchr/testify/suite"
)

var base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

var errRollback = errors.New("rollback")

// StoreSuite получает свежее пустое хранилище перед каждым тестом
type StoreSuite struct {
	suite.Suite
	NewStore func(t *testing.T) repo.Store
	// Reset очищает хранилище, если NewStore переиспользует одну базу
	Reset func()
	// CloseEach закрывает хранилище после каждого теста
	CloseEach bool

	ctx   context.Context
	store repo.Store
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	if s.Reset != nil {
		s.Reset()
	}
	s.store = s.NewStore(s.T())
}

func (s *StoreSuite) TearDownTest() {
	if s.CloseEach && s.store != nil {
		s.NoError(s.store.Close())
	}
}

func (s *StoreSuite) tx(fn func(tx repo.Tx)) {
	err := s.store.WithinTx(s.ctx, func(ctx context.Context, tx repo.Tx) error {
		fn(tx)
		return nil
	})
	s.Require().NoError(err)
}

// txErr для операций, которые должны упасть: после ошибки
// postgres не даёт продолжать ту же транзакцию
func (s *StoreSuite) txErr(fn func(ctx context.Context, tx repo.Tx) error) error {
	return s.store.WithinTx(s.ctx, fn)
}

func (s *StoreSuite) newTask(id string, minute int, parent *string, status task.Status) *task.Task {
	created := base.Add(time.Duration(minute) * time.Minute)
	t := &task.Task{
		ID:        id,
		Title:     "task " + id,
		Status:    status,
		ParentID:  parent,
		CreatedAt: created,
		UpdatedAt: created,
	}
	s.tx(func(tx repo.Tx) {
		s.Require().NoError(tx.CreateTask(s.ctx, t))
	})
	return t
}

func (s *StoreSuite) newTag(id, name string, minute int) {
	created := base.Add(time.Duration(minute) * time.Minute)
	s.tx(func(tx repo.Tx) {
		s.Require().NoError(tx.CreateTag(s.ctx, &tag.Tag{ID: id, Name: name, CreatedAt: created, UpdatedAt: created}))
	})
}

func ids(tasks []*task.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func (s *StoreSuite) TestTaskRoundTrip() {
	description := "details"
	root := s.newTask("root", 0, nil, task.StatusActive)
	child := s.newTask("child", 1, &root.ID, task.StatusDraft)

	s.tx(func(tx repo.Tx) {
		got, err := tx.GetTask(s.ctx, child.ID)
		s.Require().NoError(err)
		s.Equal("task child", got.Title)
		s.Nil(got.Description)
		s.Require().NotNil(got.ParentID)
		s.Equal(root.ID, *got.ParentID)
		s.Equal(task.StatusDraft, got.Status)
		s.True(got.CreatedAt.Equal(child.CreatedAt))

		got.Title = "renamed"
		got.Description = &description
		got.ParentID = nil
		got.UpdatedAt = base.Add(time.Hour)
		s.Require().NoError(tx.UpdateTask(s.ctx, got))
	})

	s.tx(func(tx repo.Tx) {
		got, err := tx.GetTask(s.ctx, child.ID)
		s.Require().NoError(err)
		s.Equal("renamed", got.Title)
		s.Require().NotNil(got.Description)
		s.Equal(description, *got.Description)
		s.Nil(got.ParentID)
		s.True(got.UpdatedAt.Equal(base.Add(time.Hour)))

		s.Require().NoError(tx.SetTaskStatus(s.ctx, child.ID, task.StatusCompleted, base.Add(2*time.Hour)))
		got, err = tx.GetTask(s.ctx, child.ID)
		s.Require().NoError(err)
		s.Equal(task.StatusCompleted, got.Status)
	})
}

func (s *StoreSuite) TestTaskNotFound() {
	s.tx(func(tx repo.Tx) {
		_, err := tx.GetTask(s.ctx, "missing")
		s.ErrorIs(err, repo.ErrNotFound)
		s.ErrorIs(tx.UpdateTask(s.ctx, &task.Task{ID: "missing", Title: "x"}), repo.ErrNotFound)
		s.ErrorIs(tx.SetTaskStatus(s.ctx, "missing", task.StatusActive, base), repo.ErrNotFound)
		s.ErrorIs(tx.DeleteTask(s.ctx, "missing"), repo.ErrNotFound)
	})
}

func (s *StoreSuite) TestDeleteTaskCascades() {
	root := s.newTask("root", 0, nil, task.StatusArchived)
	s.newTask("child", 1, &root.ID, task.StatusArchived)
	s.newTag("tag-1", "home", 0)

	s.tx(func(tx repo.Tx) {
		s.Require().NoError(tx.SetTaskTags(s.ctx, "child", []string{"tag-1"}))
		s.Require().NoError(tx.InsertQueueEntry(s.ctx, queue.Entry{TaskID: "child", Position: 0, AddedAt: base}))
	})

	s.tx(func(tx repo.Tx) {
		s.Require().NoError(tx.DeleteTask(s.ctx, root.ID))
	})

	s.tx(func(tx repo.Tx) {
		_, err := tx.GetTask(s.ctx, "child")
		s.ErrorIs(err, repo.ErrNotFound)

		count, err := tx.CountQueue(s.ctx)
		s.Require().NoError(err)
		s.Zero(count)

		got, err := tx.GetTag(s.ctx, "tag-1")
		s.Require().NoError(err)
		s.Zero(got.UsageCount)
	})
}

func (s *StoreSuite) TestWithinTxRollsBack() {
	err := s.txErr(func(ctx context.Context, tx repo.Tx) error {
		s.Require().NoError(tx.CreateTask(ctx, &task.Task{ID: "t", Title: "t", CreatedAt: base, UpdatedAt: base}))
		return errRollback
	})
	s.ErrorIs(err, errRollback)

	s.tx(func(tx repo.Tx) {
		_, err := tx.GetTask(s.ctx, "t")
		s.ErrorIs(err, repo.ErrNotFound)
	})
}

func (s *StoreSuite) TestFindTasksFilters() {
	root := s.newTask("a-root", 0, nil, task.StatusActive)
	s.newTask("b-draft", 1, nil, task.StatusDraft)
	s.newTask("c-child", 2, &root.ID, task.StatusCompleted)
	s.newTask("d-archived", 3, nil, task.StatusArchived)
	s.newTag("tag-1", "work", 0)

	s.tx(func(tx repo.Tx) {
		s.Require().NoError(tx.SetTaskTags(s.ctx, "b-draft", []string{"tag-1"}))
	})

	tests := []struct {
		name   string
		filter repo.TaskFilter
		want   []string
	}{
		{"all newest first", repo.TaskFilter{}, []string{"d-archived", "c-child", "b-draft", "a-root"}},
		{"by ids", repo.TaskFilter{IDs: []string{"a-root", "c-child"}}, []string{"c-child", "a-root"}},
		{"by parent", repo.TaskFilter{ParentIDs: []string{"a-root"}}, []string{"c-child"}},
		{"statuses", repo.TaskFilter{Statuses: []task.Status{task.StatusDraft, task.StatusActive}}, []string{"b-draft", "a-root"}},
		{"exclude", repo.TaskFilter{ExcludeStatuses: []task.Status{task.StatusArchived}}, []string{"c-child", "b-draft", "a-root"}},
		{"roots only", repo.TaskFilter{Scope: repo.ScopeRoots}, []string{"d-archived", "b-draft", "a-root"}},
		{"children only", repo.TaskFilter{Scope: repo.ScopeChildren}, []string{"c-child"}},
		{
			"hierarchy",
			repo.TaskFilter{Hierarchy: &repo.HierarchyStatuses{
				Roots:    []task.Status{task.StatusActive},
				Children: []task.Status{task.StatusCompleted},
			}},
			[]string{"c-child", "a-root"},
		},
		{"keyword is case insensitive", repo.TaskFilter{Keyword: "TASK B"}, []string{"b-draft"}},
		{"keyword escapes wildcards", repo.TaskFilter{Keyword: "%"}, []string{}},
		{"by tag", repo.TaskFilter{TagIDs: []string{"tag-1"}}, []string{"b-draft"}},
		{"limit and offset", repo.TaskFilter{Limit: 2, Offset: 1}, []string{"c-child", "b-draft"}},
		{"offset only", repo.TaskFilter{Offset: 3}, []string{"a-root"}},
		{"offset past end", repo.TaskFilter{Offset: 10}, []string{}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.tx(func(tx repo.Tx) {
				found, err := tx.FindTasks(s.ctx, tt.filter)
				s.Require().NoError(err)
				s.Equal(tt.want, ids(found))

				if tt.filter.Limit == 0 && tt.filter.Offset == 0 {
					count, err := tx.CountTasks(s.ctx, tt.filter)
					s.Require().NoError(err)
					s.Equal(len(tt.want), count)
				}
			})
		})
	}
}

func (s *StoreSuite) TestTags() {
	s.newTag("tag-1", "work", 0)
	s.newTag("tag-2", "home", 1)
	s.newTask("t1", 0, nil, task.StatusDraft)
	s.newTask("t2", 1, nil, task.StatusDraft)

	err := s.txErr(func(ctx context.Context, tx repo.Tx) error {
		return tx.CreateTag(ctx, &tag.Tag{ID: "tag-3", Name: "work", CreatedAt: base, UpdatedAt: base})
	})
	s.ErrorIs(err, repo.ErrDuplicate)

	s.tx(func(tx repo.Tx) {
		s.Require().NoError(tx.SetTaskTags(s.ctx, "t1", []string{"tag-1", "tag-2"}))
		s.Require().NoError(tx.SetTaskTags(s.ctx, "t2", []string{"tag-1"}))
	})

	s.tx(func(tx repo.Tx) {
		list, err := tx.ListTags(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(list, 2)
		s.Equal("home", list[0].Name)
		s.Equal(1, list[0].UsageCount)
		s.Equal("work", list[1].Name)
		s.Equal(2, list[1].UsageCount)

		names, err := tx.TaskTagNames(s.ctx, []string{"t1", "t2"})
		s.Require().NoError(err)
		s.Equal([]string{"home", "work"}, names["t1"])
		s.Equal([]string{"work"}, names["t2"])

		found, err := tx.FindTagsByName(s.ctx, []string{"home", "unknown"})
		s.Require().NoError(err)
		s.Require().Len(found, 1)
		s.Equal("tag-2", found[0].ID)
	})

	s.tx(func(tx repo.Tx) {
		s.Require().NoError(tx.SetTaskTags(s.ctx, "t1", nil))
		s.Require().NoError(tx.DeleteTag(s.ctx, "tag-1"))
	})

	s.tx(func(tx repo.Tx) {
		names, err := tx.TaskTagNames(s.ctx, []string{"t1", "t2"})
		s.Require().NoError(err)
		s.Empty(names["t1"])
		s.Empty(names["t2"])

		_, err = tx.GetTag(s.ctx, "tag-1")
		s.ErrorIs(err, repo.ErrNotFound)
	})
}

func (s *StoreSuite) TestTagRenameConflict() {
	s.newTag("tag-1", "work", 0)
	s.newTag("tag-2", "home", 1)

	err := s.txErr(func(ctx context.Context, tx repo.Tx) error {
		return tx.UpdateTag(ctx, &tag.Tag{ID: "tag-2", Name: "work", UpdatedAt: base})
	})
	s.ErrorIs(err, repo.ErrDuplicate)

	s.tx(func(tx repo.Tx) {
		s.ErrorIs(tx.UpdateTag(s.ctx, &tag.Tag{ID: "missing", Name: "x", UpdatedAt: base}), repo.ErrNotFound)
		s.ErrorIs(tx.DeleteTag(s.ctx, "missing"), repo.ErrNotFound)
	})
}

func (s *StoreSuite) TestQueue() {
	for i, id := range []string{"q0", "q1", "q2", "q3"} {
		s.newTask(id, i, nil, task.StatusActive)
	}

	s.tx(func(tx repo.Tx) {
		maxPos, err := tx.MaxQueuePosition(s.ctx)
		s.Require().NoError(err)
		s.Equal(-1, maxPos)

		for i, id := range []string{"q0", "q1", "q2", "q3"} {
			s.Require().NoError(tx.InsertQueueEntry(s.ctx, queue.Entry{TaskID: id, Position: i, AddedAt: base}))
		}
	})

	err := s.txErr(func(ctx context.Context, tx repo.Tx) error {
		return tx.InsertQueueEntry(ctx, queue.Entry{TaskID: "q0", Position: 9, AddedAt: base})
	})
	s.ErrorIs(err, repo.ErrDuplicate)

	s.tx(func(tx repo.Tx) {
		// q1 уходит из очереди, хвост сдвигается
		s.Require().NoError(tx.DeleteQueueEntry(s.ctx, "q1"))
		s.Require().NoError(tx.ShiftQueuePositions(s.ctx, 2, 3, -1))

		entries, err := tx.ListQueue(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(entries, 3)
		for i, want := range []string{"q0", "q2", "q3"} {
			s.Equal(want, entries[i].TaskID)
			s.Equal(i, entries[i].Position)
		}

		s.Require().NoError(tx.SetQueuePosition(s.ctx, "q3", 5))
		entry, err := tx.GetQueueEntry(s.ctx, "q3")
		s.Require().NoError(err)
		s.Equal(5, entry.Position)

		maxPos, err := tx.MaxQueuePosition(s.ctx)
		s.Require().NoError(err)
		s.Equal(5, maxPos)

		withTasks, err := tx.ListQueueWithTasks(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(withTasks, 3)
		s.Equal("task q0", withTasks[0].TaskTitle)
		s.Equal(task.StatusActive, withTasks[0].TaskStatus)
		s.Equal("q3", withTasks[2].TaskID)
	})

	s.tx(func(tx repo.Tx) {
		_, err := tx.GetQueueEntry(s.ctx, "q1")
		s.ErrorIs(err, repo.ErrNotFound)
		s.ErrorIs(tx.DeleteQueueEntry(s.ctx, "q1"), repo.ErrNotFound)
		s.ErrorIs(tx.SetQueuePosition(s.ctx, "q1", 0), repo.ErrNotFound)

		s.Require().NoError(tx.ClearQueue(s.ctx))
		count, err := tx.CountQueue(s.ctx)
		s.Require().NoError(err)
		s.Zero(count)
	})
}

func (s *StoreSuite) TestHealthCheck() {
	s.NoError(s.store.HealthCheck(s.ctx))
}
