package service_test

import (
	"errors"
	"fmt"
	"testing"

	"tasque/internal/service"

	"github.com/stretchr/testify/assert"
)

func TestBusinessError_IsMatchesByCode(t *testing.T) {
	err := service.NewNotFound("task", "42")

	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.NotErrorIs(t, err, service.ErrTagNotFound)
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", err), service.ErrNotFound)

	assert.Equal(t, "task", err.Details["resource"])
	assert.Equal(t, "42", err.Details["id"])
	assert.Contains(t, err.Error(), service.CodeNotFound)
}

func TestBusinessError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := service.NewBusinessError(service.CodeStoreError, "ошибка хранилища")
	err.Err = cause

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, service.ErrStore)
	assert.Contains(t, err.Error(), "disk full")
}
