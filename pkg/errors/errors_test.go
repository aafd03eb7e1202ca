package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorString(t *testing.T) {
	e := NotFound("artwork", "a-1")
	assert.Contains(t, e.Error(), "NOT_FOUND")
	assert.Contains(t, e.Error(), "a-1")
}

func TestAppError_Unwrap(t *testing.T) {
	e := InvalidInput("bad sort mode")
	assert.True(t, errors.Is(e, ErrInvalidInput))
}

func TestUnavailable_WrapsBothSentinelAndCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	e := Unavailable("search unavailable", cause)

	assert.True(t, errors.Is(e, ErrServiceUnavail))
	assert.True(t, errors.Is(e, cause))
	assert.Equal(t, http.StatusServiceUnavailable, e.Status)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", NotFound("artwork", "x"), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("ctx: %w", ErrNotFound), http.StatusNotFound},
		{"invalid input", fmt.Errorf("ctx: %w", ErrInvalidInput), http.StatusBadRequest},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"superseded", fmt.Errorf("ctx: %w", ErrSuperseded), http.StatusConflict},
		{"unavailable", fmt.Errorf("ctx: %w", ErrServiceUnavail), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
