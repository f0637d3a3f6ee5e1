package errors

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("required features missing", "wordCount", "sentenceCount")
	require.NotNil(t, err)

	assert.Equal(t, CategoryValidation, err.Category)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)
	assert.Equal(t, errbuilder.CodeInvalidArgument, err.ErrCode())
	assert.Equal(t, []string{"wordCount", "sentenceCount"}, err.Fields)
	assert.Equal(t, "[VALIDATION_ERROR] required features missing (fields: wordCount, sentenceCount)", err.Error())
	assert.Len(t, err.Details.Errors, 2)
}

func TestNewValidationErrorWithMap(t *testing.T) {
	err := NewValidationErrorWithMap(map[string]string{
		"text":     "text is empty",
		"metadata": "timing metadata required",
	})

	assert.Equal(t, []string{"metadata", "text"}, err.Fields)
	assert.True(t, IsValidation(err))
}

func TestUpstreamModelError(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := NewUpstreamModelError("http", cause)

	assert.Equal(t, CategoryUpstreamModel, err.Category)
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsValidation(err))
	assert.Contains(t, err.Error(), "UPSTREAM_MODEL_ERROR")
}

func TestPersistenceErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		notFound  bool
		retryable bool
	}{
		{"write failure", NewPersistenceError("save", fmt.Errorf("database is locked")), false, true},
		{"missing record", NewNotFoundError("scoring_result", "abc"), true, false},
		{"validation", NewValidationError("bad"), false, false},
		{"wrapped persistence", WrapError(NewPersistenceError("load", nil), "compare"), false, true},
		{"cancelled", context.Canceled, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.notFound, IsNotFound(tt.err))
			assert.Equal(t, tt.retryable, IsRetryableError(tt.err))
		})
	}
}

func TestToAppError(t *testing.T) {
	assert.Nil(t, ToAppError(nil))

	original := NewValidationError("bad input", "text")
	assert.Same(t, original, ToAppError(fmt.Errorf("wrapped: %w", original)))

	timeout := ToAppError(context.DeadlineExceeded)
	assert.Equal(t, http.StatusGatewayTimeout, timeout.HTTPStatus)

	generic := ToAppError(fmt.Errorf("boom"))
	assert.Equal(t, CategoryInternal, generic.Category)
}

func TestErrorHandlerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/fail", func(c *gin.Context) {
		_ = c.Error(NewValidationError("text is empty", "text"))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"fields":["text"]`)
}

func TestRecoveryHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RecoveryHandler())
	router.GET("/panic", func(c *gin.Context) {
		panic("unexpected")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
