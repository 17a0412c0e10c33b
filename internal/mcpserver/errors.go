package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/vericore/memcore/internal/memerrors"
)

// JSON-RPC error codes, plus a custom range for memory-core specific
// conditions above -32000.
const (
	ErrCodeEmbeddingUnavailable = -32001
	ErrCodeChunkNotFound        = -32002
	ErrCodeTimeout              = -32003

	ErrCodeInvalidParams = -32602
	ErrCodeInternalError = -32603
)

// MCPError is the JSON-RPC error shape returned to MCP clients.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts an internal error to an MCPError, dispatching on
// memerrors.MemError's category when present.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var memErr *memerrors.MemError
	if errors.As(err, &memErr) {
		return mapMemError(memErr)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "request timed out"}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "request was canceled"}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "internal server error"}
	}
}

func mapMemError(me *memerrors.MemError) *MCPError {
	switch me.Category {
	case memerrors.CategoryNetwork:
		return &MCPError{Code: ErrCodeEmbeddingUnavailable, Message: me.Message}
	case memerrors.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: me.Message}
	case memerrors.CategoryIO:
		if me.Code == memerrors.ErrCodeChunkNotFound {
			return &MCPError{Code: ErrCodeChunkNotFound, Message: me.Message}
		}
		return &MCPError{Code: ErrCodeInternalError, Message: me.Message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: me.Message}
	}
}

func newInvalidParamsError(msg string) *memerrors.MemError {
	return memerrors.New(memerrors.ErrCodeMalformedInput, msg, nil)
}

func newInternalError(msg string) *memerrors.MemError {
	return memerrors.New(memerrors.ErrCodeStorageFailure, msg, nil)
}

func newEmbeddingUnavailableError(msg string) *memerrors.MemError {
	return memerrors.EmbeddingUnavailable(msg, nil)
}
