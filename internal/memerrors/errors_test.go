package memerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDerivesCategoryAndRetryable(t *testing.T) {
	err := EmbeddingUnavailable("provider down", nil)
	assert.Equal(t, CategoryNetwork, err.Category)
	assert.True(t, err.Retryable)

	err = StorageFailure("disk full", nil)
	assert.Equal(t, CategoryIO, err.Category)
	assert.False(t, err.Retryable)
	assert.Equal(t, SeverityFatal, err.Severity)
}

func TestErrorsIsMatchesByCode(t *testing.T) {
	sentinel := New(ErrCodeStorageFailure, "", nil)
	wrapped := Wrap(ErrCodeStorageFailure, errors.New("disk full"))
	assert.True(t, errors.Is(wrapped, sentinel))
}

func TestUnwrapReturnsCause(t *testing.T) {
	cause := errors.New("boom")
	err := New(ErrCodeInternal, "wrapped", cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(EmbeddingUnavailable("x", nil)))
	assert.False(t, IsRetryable(StorageFailure("x", nil)))
	assert.False(t, IsRetryable(errors.New("plain")))
}
