package handlers

import (
	"net/http"
	"time"

	"tasque/internal/handlers/dto"
	"tasque/internal/logger"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TagHandler struct {
	TagService TagService
}

func NewTagHandler(tagService TagService) *TagHandler {
	return &TagHandler{TagService: tagService}
}

func (h *TagHandler) PostTag(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.TagRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	if request.Name == nil {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", "name"),
			zap.String("error", "empty_field"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "имя тега не может быть пустым")
		return
	}

	created, err := h.TagService.Create(r.Context(), *request.Name, request.Color)
	if err != nil {
		handleServiceError(w, r, err, "create_tag", start)
		return
	}

	logger.Info("HTTP_OUT: Тег создан",
		zap.String("tag_id", created.ID),
		zap.Duration("ms", time.Since(start)))

	writeJSON(w, http.StatusCreated, dto.FromTag(created))
}

func (h *TagHandler) GetTags(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	tags, err := h.TagService.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "list_tags", start)
		return
	}

	writeJSON(w, http.StatusOK, dto.FromTagList(tags))
}

func (h *TagHandler) GetTagByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	found, err := h.TagService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err, "get_tag", start)
		return
	}

	writeJSON(w, http.StatusOK, dto.FromTag(found))
}

func (h *TagHandler) UpdateTagByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.TagRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	updated, err := h.TagService.Update(r.Context(), chi.URLParam(r, "id"), request.Name, request.Color)
	if err != nil {
		handleServiceError(w, r, err, "update_tag", start)
		return
	}

	writeJSON(w, http.StatusOK, dto.FromTag(updated))
}

func (h *TagHandler) DeleteTagByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id := chi.URLParam(r, "id")
	if err := h.TagService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, err, "delete_tag", start)
		return
	}

	logger.Info("HTTP_OUT: Тег удалён",
		zap.String("tag_id", id),
		zap.Duration("ms", time.Since(start)))

	w.WriteHeader(http.StatusNoContent)
}
