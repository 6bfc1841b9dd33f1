package service

import (
	"errors"
	"fmt"

	"tasque/internal/models/task"
	repo "tasque/internal/repository"
)

const (
	CodeNotFound             = "NOT_FOUND"
	CodeTagNotFound          = "TAG_NOT_FOUND"
	CodeQueueEntryNotFound   = "QUEUE_ENTRY_NOT_FOUND"
	CodeDuplicateQueueEntry  = "DUPLICATE_QUEUE_ENTRY"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeInvalidTaskStatus    = "INVALID_TASK_STATUS"
	CodeCircularDependency   = "CIRCULAR_DEPENDENCY"
	CodeGrandchildNotAllowed = "GRANDCHILD_NOT_ALLOWED"
	CodeTaskHasChildren      = "TASK_HAS_CHILDREN"
	CodeTaskNotDraft         = "TASK_NOT_DRAFT"
	CodeTaskNotArchived      = "TASK_NOT_ARCHIVED"
	CodeDuplicateEntry       = "DUPLICATE_ENTRY"
	CodeStoreError           = "STORE_ERROR"
)

// сравнение через errors.Is идёт по коду
var (
	ErrNotFound             = &BusinessError{Code: CodeNotFound}
	ErrTagNotFound          = &BusinessError{Code: CodeTagNotFound}
	ErrQueueEntryNotFound   = &BusinessError{Code: CodeQueueEntryNotFound}
	ErrDuplicateQueueEntry  = &BusinessError{Code: CodeDuplicateQueueEntry}
	ErrInvalidInput         = &BusinessError{Code: CodeInvalidInput}
	ErrInvalidTaskStatus    = &BusinessError{Code: CodeInvalidTaskStatus}
	ErrCircularDependency   = &BusinessError{Code: CodeCircularDependency}
	ErrGrandchildNotAllowed = &BusinessError{Code: CodeGrandchildNotAllowed}
	ErrTaskHasChildren      = &BusinessError{Code: CodeTaskHasChildren}
	ErrTaskNotDraft         = &BusinessError{Code: CodeTaskNotDraft}
	ErrTaskNotArchived      = &BusinessError{Code: CodeTaskNotArchived}
	ErrDuplicateEntry       = &BusinessError{Code: CodeDuplicateEntry}
	ErrStore                = &BusinessError{Code: CodeStoreError}
)

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func (b *BusinessError) Is(target error) bool {
	var other *BusinessError
	if errors.As(target, &other) {
		return other.Code == b.Code
	}
	return false
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

func NewNotFound(resource, id string) *BusinessError {
	return NewBusinessError(CodeNotFound,
		fmt.Sprintf("%s %s не найден(а)", resource, id),
		ToDetail("resource", resource),
		ToDetail("id", id))
}

func NewTagNotFound(name string) *BusinessError {
	return NewBusinessError(CodeTagNotFound,
		fmt.Sprintf("тег '%s' не найден", name),
		ToDetail("tag", name))
}

func NewQueueEntryNotFound(taskID string) *BusinessError {
	return NewBusinessError(CodeQueueEntryNotFound,
		fmt.Sprintf("задача %s отсутствует в очереди", taskID),
		ToDetail("task_id", taskID))
}

func NewValidationError(field, reason string) *BusinessError {
	return NewBusinessError(CodeInvalidInput,
		fmt.Sprintf("Неверное значение поля '%s': %s", field, reason),
		ToDetail("field", field),
		ToDetail("reason", reason))
}

func NewTaskStateError(code, taskID string, current task.Status) *BusinessError {
	var message string
	switch code {
	case CodeTaskNotDraft:
		message = "операция доступна только для задач в статусе draft"
	case CodeTaskNotArchived:
		message = "операция доступна только для задач в статусе archived"
	default:
		message = "недопустимое состояние задачи"
	}
	return NewBusinessError(code, message,
		ToDetail("task_id", taskID),
		ToDetail("status", current.String()))
}

// storeError переводит ошибку хранилища в бизнес-ошибку.
// Уже готовые BusinessError проходят как есть.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	var busErr *BusinessError
	if errors.As(err, &busErr) {
		return err
	}
	if errors.Is(err, task.ErrInvalidStatus) {
		e := NewBusinessError(CodeInvalidTaskStatus, "в хранилище некорректный статус задачи", ToDetail("operation", op))
		e.Err = err
		return e
	}
	if errors.Is(err, repo.ErrDuplicate) {
		e := NewBusinessError(CodeDuplicateEntry, "запись уже существует", ToDetail("operation", op))
		e.Err = err
		return e
	}
	e := NewBusinessError(CodeStoreError, "ошибка хранилища", ToDetail("operation", op))
	e.Err = err
	return e
}
