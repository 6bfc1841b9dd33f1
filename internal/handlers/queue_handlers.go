package handlers

import (
	"net/http"
	"time"

	"tasque/internal/handlers/dto"
	"tasque/internal/logger"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const defaultDequeueTarget = "draft"

type QueueHandler struct {
	QueueService QueueService
}

func NewQueueHandler(queueService QueueService) *QueueHandler {
	return &QueueHandler{QueueService: queueService}
}

func (h *QueueHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	entries, err := h.QueueService.GetAll(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "get_queue", start)
		return
	}

	writeJSON(w, http.StatusOK, dto.FromQueue(entries))
}

func (h *QueueHandler) PostQueueEntry(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.EnqueueRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	entry, err := h.QueueService.Enqueue(r.Context(), request.TaskID)
	if err != nil {
		handleServiceError(w, r, err, "enqueue", start)
		return
	}

	logger.Info("HTTP_OUT: Задача добавлена в очередь",
		zap.String("task_id", entry.TaskID),
		zap.Int("position", entry.Position),
		zap.Duration("ms", time.Since(start)))

	writeJSON(w, http.StatusCreated, dto.FromQueueEntry(*entry))
}

func (h *QueueHandler) DeleteQueueEntry(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	target := r.URL.Query().Get("target")
	if target == "" {
		target = defaultDequeueTarget
	}

	taskID := chi.URLParam(r, "taskID")
	if err := h.QueueService.Dequeue(r.Context(), taskID, target); err != nil {
		handleServiceError(w, r, err, "dequeue", start)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *QueueHandler) CompleteQueue(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	completed, err := h.QueueService.CompleteAll(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "complete_all", start)
		return
	}

	logger.Info("HTTP_OUT: Очередь завершена",
		zap.Int("completed", completed),
		zap.Duration("ms", time.Since(start)))

	responseWithJSON(w, http.StatusOK, toPayload("completed", completed))
}

func (h *QueueHandler) ClearQueue(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if err := h.QueueService.ClearAll(r.Context()); err != nil {
		handleServiceError(w, r, err, "clear_all", start)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *QueueHandler) MoveQueueEntry(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.MoveRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	if request.Position == nil {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", "position"),
			zap.String("error", "empty_field"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "позиция должна быть задана")
		return
	}

	if err := h.QueueService.Move(r.Context(), chi.URLParam(r, "taskID"), *request.Position); err != nil {
		handleServiceError(w, r, err, "move", start)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *QueueHandler) ReorderQueue(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.ReorderRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	if err := h.QueueService.Reorder(r.Context(), request.TaskIDs); err != nil {
		handleServiceError(w, r, err, "reorder", start)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
