package handlers

import (
	"net/http"
	"time"

	"tasque/internal/handlers/dto"
	"tasque/internal/logger"
	"tasque/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const serviceName = "tasque"

type TaskHandler struct {
	TaskService TaskService
}

func NewTaskHandler(taskService TaskService) *TaskHandler {
	return &TaskHandler{TaskService: taskService}
}

func (h *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := h.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Хранилище недоступно", err)
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unavailable"),
			toPayload("service", serviceName))
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("status", "ok"),
		toPayload("service", serviceName))
}

func (h *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.CreateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	logger.Info("HTTP: Вызов сервиса создания задач")
	created, err := h.TaskService.Create(r.Context(), service.CreateTaskInput{
		Title:       request.Title,
		Description: request.Description,
		ParentID:    request.ParentID,
		Tags:        request.Tags,
	})
	if err != nil {
		handleServiceError(w, r, err, "create_task", start)
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", created.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	writeJSON(w, http.StatusCreated, dto.FromTask(created))
}

func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	statuses, err := parseStatuses(r)
	if err != nil {
		badQuery(w, r, "status", err)
		return
	}

	tasks, err := h.TaskService.List(r.Context(), statuses)
	if err != nil {
		handleServiceError(w, r, err, "list_tasks", start)
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)))

	writeJSON(w, http.StatusOK, dto.FromTaskList(tasks))
}

func (h *TaskHandler) GetTasksPage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	statuses, err := parseStatuses(r)
	if err != nil {
		badQuery(w, r, "status", err)
		return
	}
	limit, err := parseIntParam(r, "limit", 0)
	if err != nil {
		badQuery(w, r, "limit", err)
		return
	}
	offset, err := parseIntParam(r, "offset", 0)
	if err != nil {
		badQuery(w, r, "offset", err)
		return
	}

	page, err := h.TaskService.ListPaginated(r.Context(), statuses, limit, offset)
	if err != nil {
		handleServiceError(w, r, err, "list_tasks_paginated", start)
		return
	}

	logger.Info("HTTP_OUT: Страница задач получена",
		zap.Int("count", len(page.Tasks)),
		zap.Int("total", page.Total),
		zap.Duration("ms", time.Since(start)))

	writeJSON(w, http.StatusOK, dto.PageResponse{
		Tasks:  dto.FromTaskList(page.Tasks),
		Total:  page.Total,
		Limit:  limit,
		Offset: offset,
	})
}

func (h *TaskHandler) GetHierarchy(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	nodes, err := h.TaskService.Hierarchy(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "hierarchy", start)
		return
	}

	writeJSON(w, http.StatusOK, dto.FromHierarchy(nodes))
}

func (h *TaskHandler) SearchTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	status, err := parseOptionalStatus(r)
	if err != nil {
		badQuery(w, r, "status", err)
		return
	}

	tasks, err := h.TaskService.Search(r.Context(), service.SearchQuery{
		Keyword: r.URL.Query().Get("q"),
		Status:  status,
		Tags:    parseTags(r),
	})
	if err != nil {
		handleServiceError(w, r, err, "search_tasks", start)
		return
	}

	logger.Info("HTTP_OUT: Поиск выполнен",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)))

	writeJSON(w, http.StatusOK, dto.FromTaskList(tasks))
}

func (h *TaskHandler) SearchTaskIDs(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	status, err := parseOptionalStatus(r)
	if err != nil {
		badQuery(w, r, "status", err)
		return
	}

	ids, err := h.TaskService.SearchIDs(r.Context(), parseTags(r), status)
	if err != nil {
		handleServiceError(w, r, err, "search_task_ids", start)
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("ids", ids))
}

func (h *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	found, err := h.TaskService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err, "get_task", start)
		return
	}

	writeJSON(w, http.StatusOK, dto.FromTask(found))
}

func (h *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.UpdateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	id := chi.URLParam(r, "id")
	logger.Info("HTTP: Вызов сервиса обновления задачи", zap.String("task_id", id))

	updated, err := h.TaskService.Update(r.Context(), id, request.Options()...)
	if err != nil {
		handleServiceError(w, r, err, "update_task", start)
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.String("task_id", id),
		zap.Duration("ms", time.Since(start)))

	writeJSON(w, http.StatusOK, dto.FromTask(updated))
}

// DeleteTaskByID архивирует задачу; физическое удаление - PurgeTask
func (h *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id := chi.URLParam(r, "id")
	if err := h.TaskService.LogicalDelete(r.Context(), id); err != nil {
		handleServiceError(w, r, err, "logical_delete", start)
		return
	}

	logger.Info("HTTP_OUT: Задача архивирована",
		zap.String("task_id", id),
		zap.Duration("ms", time.Since(start)))

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) RestoreTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	restored, err := h.TaskService.Restore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err, "restore_task", start)
		return
	}

	writeJSON(w, http.StatusOK, dto.FromTask(restored))
}

func (h *TaskHandler) PurgeTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id := chi.URLParam(r, "id")
	if err := h.TaskService.PermanentDelete(r.Context(), id); err != nil {
		handleServiceError(w, r, err, "permanent_delete", start)
		return
	}

	logger.Info("HTTP_OUT: Задача удалена навсегда",
		zap.String("task_id", id),
		zap.Duration("ms", time.Since(start)))

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) DuplicateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.DuplicateTaskRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &request) {
		return
	}

	copied, err := h.TaskService.Duplicate(r.Context(), chi.URLParam(r, "id"), request.Title)
	if err != nil {
		handleServiceError(w, r, err, "duplicate_task", start)
		return
	}

	logger.Info("HTTP_OUT: Задача скопирована",
		zap.String("task_id", copied.ID),
		zap.Duration("ms", time.Since(start)))

	writeJSON(w, http.StatusCreated, dto.FromTask(copied))
}
