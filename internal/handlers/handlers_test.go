package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tasque/internal/handlers"
	"tasque/internal/handlers/dto"
	"tasque/internal/models/queue"
	"tasque/internal/models/tag"
	"tasque/internal/models/task"
	"tasque/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mocks struct {
	tasks *MockTaskService
	tags  *MockTagService
	queue *MockQueueService
}

func (m mocks) assert(t *testing.T) {
	m.tasks.AssertExpectations(t)
	m.tags.AssertExpectations(t)
	m.queue.AssertExpectations(t)
}

func newRouter(m mocks) http.Handler {
	r := chi.NewRouter()
	handlers.Routes(r,
		handlers.NewTaskHandler(m.tasks),
		handlers.NewTagHandler(m.tags),
		handlers.NewQueueHandler(m.queue))
	return r
}

func newMocks() mocks {
	return mocks{tasks: new(MockTaskService), tags: new(MockTagService), queue: new(MockQueueService)}
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func ptr[T any](v T) *T { return &v }

func sampleTask() *task.Task {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return &task.Task{ID: "task-1", Title: "Test Task", Status: task.StatusDraft, CreatedAt: now, UpdatedAt: now}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"healthy", nil, http.StatusOK},
		{"unhealthy", errors.New("db down"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMocks()
			m.tasks.On("HealthCheck", mock.Anything).Return(tt.err)

			w := do(t, newRouter(m), http.MethodGet, "/health", "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), "tasque")
			m.assert(t)
		})
	}
}

func TestPostTask(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		contentType    string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:        "success",
			body:        `{"title":"Test Task","parent_id":"p1","tags":["work"]}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("Create", mock.Anything, service.CreateTaskInput{
					Title:    "Test Task",
					ParentID: ptr("p1"),
					Tags:     []string{"work"},
				}).Return(sampleTask(), nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "invalid content type",
			body:           `{}`,
			contentType:    "text/plain",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:           "invalid json",
			body:           `{invalid json}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "blank title",
			body:        `{"title":"  "}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("Create", mock.Anything, mock.Anything).
					Return(nil, service.NewValidationError("title", "пусто"))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "grandchild",
			body:        `{"title":"x","parent_id":"child"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("Create", mock.Anything, mock.Anything).
					Return(nil, service.NewBusinessError(service.CodeGrandchildNotAllowed, "нельзя"))
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:        "unexpected error",
			body:        `{"title":"x"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMocks()
			tt.setupMock(m.tasks)

			req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			newRouter(m).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusCreated {
				var response dto.TaskResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.Equal(t, "Test Task", response.Title)
				assert.Equal(t, task.StatusDraft, response.Status)
				assert.Equal(t, []string{}, response.Tags)
			}
			m.assert(t)
		})
	}
}

func TestGetTasks_StatusParam(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		statuses []task.Status
	}{
		{"absent means default", "/tasks", nil},
		{"empty means none", "/tasks?status=", []task.Status{}},
		{"comma list", "/tasks?status=draft,completed", []task.Status{task.StatusDraft, task.StatusCompleted}},
		{"repeated", "/tasks?status=active&status=archived", []task.Status{task.StatusActive, task.StatusArchived}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMocks()
			m.tasks.On("List", mock.Anything, tt.statuses).Return([]*task.Task{sampleTask()}, nil)

			w := do(t, newRouter(m), http.MethodGet, tt.target, "")

			assert.Equal(t, http.StatusOK, w.Code)
			var response []dto.TaskResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Len(t, response, 1)
			m.assert(t)
		})
	}

	t.Run("unknown status", func(t *testing.T) {
		m := newMocks()
		w := do(t, newRouter(m), http.MethodGet, "/tasks?status=paused", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		m.assert(t)
	})
}

func TestGetTasksPage(t *testing.T) {
	m := newMocks()
	m.tasks.On("ListPaginated", mock.Anything, []task.Status{task.StatusActive}, 5, 10).
		Return(&task.Page{Tasks: []*task.Task{sampleTask()}, Total: 11}, nil)

	w := do(t, newRouter(m), http.MethodGet, "/tasks/page?status=active&limit=5&offset=10", "")

	require.Equal(t, http.StatusOK, w.Code)
	var response dto.PageResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 11, response.Total)
	assert.Len(t, response.Tasks, 1)
	m.assert(t)

	w = do(t, newRouter(newMocks()), http.MethodGet, "/tasks/page?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetHierarchy(t *testing.T) {
	m := newMocks()
	root := sampleTask()
	child := sampleTask()
	child.ID = "task-2"
	child.ParentID = &root.ID
	m.tasks.On("Hierarchy", mock.Anything).
		Return([]*task.Node{{Task: root, Children: []*task.Task{child}}}, nil)

	w := do(t, newRouter(m), http.MethodGet, "/tasks/hierarchy", "")

	require.Equal(t, http.StatusOK, w.Code)
	var response []dto.NodeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Len(t, response, 1)
	assert.Equal(t, "task-1", response[0].ID)
	require.Len(t, response[0].Children, 1)
	assert.Equal(t, "task-2", response[0].Children[0].ID)
	m.assert(t)
}

func TestSearch(t *testing.T) {
	m := newMocks()
	m.tasks.On("Search", mock.Anything, service.SearchQuery{
		Keyword: "report",
		Status:  ptr(task.StatusActive),
		Tags:    []string{"work", "home"},
	}).Return([]*task.Task{}, nil)
	m.tasks.On("SearchIDs", mock.Anything, []string{"work"}, (*task.Status)(nil)).
		Return([]string{"a", "b"}, nil)

	router := newRouter(m)

	w := do(t, router, http.MethodGet, "/tasks/search?q=report&status=active&tag=work,home", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(t, router, http.MethodGet, "/tasks/search/ids?tag=work", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ids":["a","b"]}`, w.Body.String())

	m.assert(t)
}

func TestUpdateTask(t *testing.T) {
	m := newMocks()
	want := task.NewPatch(task.WithTitle("new"), task.WithoutParent(), task.WithTags())
	m.tasks.On("Update", mock.Anything, "task-1", want).Return(sampleTask(), nil)

	w := do(t, newRouter(m), http.MethodPut, "/tasks/task-1", `{"title":"new","clear_parent":true,"tags":[]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	m.assert(t)
}

func TestTaskErrorsMapping(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{"not found", service.NewNotFound("задача", "x"), http.StatusNotFound, service.CodeNotFound},
		{"not draft", service.NewTaskStateError(service.CodeTaskNotDraft, "x", task.StatusActive), http.StatusConflict, service.CodeTaskNotDraft},
		{"has children", service.NewBusinessError(service.CodeTaskHasChildren, "есть дети"), http.StatusConflict, service.CodeTaskHasChildren},
		{"store", service.NewBusinessError(service.CodeStoreError, "сбой"), http.StatusInternalServerError, service.CodeStoreError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMocks()
			m.tasks.On("LogicalDelete", mock.Anything, "x").Return(tt.err)

			w := do(t, newRouter(m), http.MethodDelete, "/tasks/x", "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			var response map[string]any
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.expectedCode, response["error"])
			m.assert(t)
		})
	}
}

func TestTaskLifecycleRoutes(t *testing.T) {
	m := newMocks()
	m.tasks.On("Get", mock.Anything, "task-1").Return(sampleTask(), nil)
	m.tasks.On("LogicalDelete", mock.Anything, "task-1").Return(nil)
	m.tasks.On("Restore", mock.Anything, "task-1").Return(sampleTask(), nil)
	m.tasks.On("PermanentDelete", mock.Anything, "task-1").Return(nil)
	m.tasks.On("Duplicate", mock.Anything, "task-1", (*string)(nil)).Return(sampleTask(), nil)
	m.tasks.On("Duplicate", mock.Anything, "task-1", ptr("named")).Return(sampleTask(), nil)

	router := newRouter(m)

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/tasks/task-1", "").Code)
	assert.Equal(t, http.StatusNoContent, do(t, router, http.MethodDelete, "/tasks/task-1", "").Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/tasks/task-1/restore", "").Code)
	assert.Equal(t, http.StatusNoContent, do(t, router, http.MethodDelete, "/tasks/task-1/purge", "").Code)
	assert.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/tasks/task-1/duplicate", "").Code)
	assert.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/tasks/task-1/duplicate", `{"title":"named"}`).Code)

	m.assert(t)
}

func TestTagRoutes(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	work := &tag.Tag{ID: "tag-1", Name: "work", Color: ptr("#ff0000"), UsageCount: 2, CreatedAt: now, UpdatedAt: now}

	m := newMocks()
	m.tags.On("Create", mock.Anything, "work", ptr("#ff0000")).Return(work, nil)
	m.tags.On("List", mock.Anything).Return([]*tag.Tag{work}, nil)
	m.tags.On("Get", mock.Anything, "missing").Return(nil, service.NewTagNotFound("missing"))
	m.tags.On("Update", mock.Anything, "tag-1", ptr("home"), (*string)(nil)).
		Return(nil, service.NewBusinessError(service.CodeDuplicateEntry, "занято"))
	m.tags.On("Delete", mock.Anything, "tag-1").Return(nil)

	router := newRouter(m)

	w := do(t, router, http.MethodPost, "/tags", `{"name":"work","color":"#ff0000"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created dto.TagResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.Equal(t, 2, created.UsageCount)

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/tags", `{"color":"#fff"}`).Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/tags", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/tags/missing", "").Code)
	assert.Equal(t, http.StatusConflict, do(t, router, http.MethodPut, "/tags/tag-1", `{"name":"home"}`).Code)
	assert.Equal(t, http.StatusNoContent, do(t, router, http.MethodDelete, "/tags/tag-1", "").Code)

	m.assert(t)
}

func TestQueueRoutes(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	m := newMocks()
	m.queue.On("GetAll", mock.Anything).Return([]queue.EntryWithTask{{
		Entry:      queue.Entry{TaskID: "task-1", Position: 0, AddedAt: now},
		TaskTitle:  "Test Task",
		TaskStatus: task.StatusActive,
	}}, nil)
	m.queue.On("Enqueue", mock.Anything, "task-1").Return(&queue.Entry{TaskID: "task-1", Position: 3, AddedAt: now}, nil)
	m.queue.On("Enqueue", mock.Anything, "task-2").Return(nil, service.NewBusinessError(service.CodeDuplicateQueueEntry, "уже в очереди"))
	m.queue.On("Dequeue", mock.Anything, "task-1", "draft").Return(nil)
	m.queue.On("Dequeue", mock.Anything, "task-1", "completed").Return(nil)
	m.queue.On("Dequeue", mock.Anything, "task-1", "archived").Return(service.NewValidationError("target_status", "нельзя"))
	m.queue.On("CompleteAll", mock.Anything).Return(2, nil)
	m.queue.On("ClearAll", mock.Anything).Return(nil)
	m.queue.On("Move", mock.Anything, "task-1", 0).Return(nil)
	m.queue.On("Reorder", mock.Anything, []string{"b", "a"}).Return(nil)

	router := newRouter(m)

	w := do(t, router, http.MethodGet, "/queue", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"task_status":"active"`)

	w = do(t, router, http.MethodPost, "/queue", `{"task_id":"task-1"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"position":3`)

	assert.Equal(t, http.StatusConflict, do(t, router, http.MethodPost, "/queue", `{"task_id":"task-2"}`).Code)
	assert.Equal(t, http.StatusNoContent, do(t, router, http.MethodDelete, "/queue/task-1", "").Code)
	assert.Equal(t, http.StatusNoContent, do(t, router, http.MethodDelete, "/queue/task-1?target=completed", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodDelete, "/queue/task-1?target=archived", "").Code)

	w = do(t, router, http.MethodPost, "/queue/complete", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"completed":2}`, w.Body.String())

	assert.Equal(t, http.StatusNoContent, do(t, router, http.MethodDelete, "/queue", "").Code)
	assert.Equal(t, http.StatusNoContent, do(t, router, http.MethodPut, "/queue/task-1/position", `{"position":0}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPut, "/queue/task-1/position", `{}`).Code)
	assert.Equal(t, http.StatusNoContent, do(t, router, http.MethodPut, "/queue/order", `{"task_ids":["b","a"]}`).Code)

	m.assert(t)
}
