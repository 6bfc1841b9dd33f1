package handlers

import (
	"errors"
	"net/http"
	"time"

	"tasque/internal/logger"
	"tasque/internal/service"

	"go.uber.org/zap"
)

func handleBusinessError(w http.ResponseWriter, err error) bool {
	var businessErr *service.BusinessError
	if !errors.As(err, &businessErr) {
		return false
	}

	statusCode := mapBusinessErrorToHTTP(businessErr.Code)
	if statusCode >= http.StatusInternalServerError {
		logger.Error("HTTP: Ошибка хранилища", err, zap.String("error_code", businessErr.Code))
	} else {
		logger.Warn("HTTP: Бизнес-ошибка",
			zap.String("error_code", businessErr.Code),
			zap.Int("http_status", statusCode))
	}

	responseWithJSON(w, statusCode,
		toPayload("error", businessErr.Code),
		toPayload("message", businessErr.Message),
		toPayload("details", businessErr.Details),
	)
	return true
}

// handleServiceError отвечает на любую ошибку сервиса
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string, start time.Time) {
	if handleBusinessError(w, err) {
		return
	}

	logger.Error("HTTP: Ошибка Service", err,
		zap.String("operation", operation),
		zap.String("client_ip", r.RemoteAddr),
		zap.Duration("ms", time.Since(start)))

	responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound, service.CodeTagNotFound, service.CodeQueueEntryNotFound:
		return http.StatusNotFound
	case service.CodeInvalidInput:
		return http.StatusBadRequest
	case service.CodeCircularDependency, service.CodeGrandchildNotAllowed, service.CodeTaskHasChildren,
		service.CodeTaskNotDraft, service.CodeTaskNotArchived,
		service.CodeDuplicateQueueEntry, service.CodeDuplicateEntry:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
