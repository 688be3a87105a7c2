package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorMessage(t *testing.T) {
	err := NotFound("patient profile", nil)
	assert.Equal(t, "patient profile not found", err.Error())

	wrapped := NotFound("identity", errors.New("row missing"))
	assert.Contains(t, wrapped.Error(), "identity not found")
	assert.Contains(t, wrapped.Error(), "row missing")
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Internal(cause)
	assert.ErrorIs(t, err, cause)
}

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NotFound("thing", nil), http.StatusNotFound},
		{BadRequest("bad input", nil), http.StatusBadRequest},
		{Duplicate("email", "a@example.com"), http.StatusConflict},
		{Unauthorized(nil), http.StatusUnauthorized},
		{Internal(nil), http.StatusInternalServerError},
		{StoreIO("get", nil), http.StatusInternalServerError},
		{AuthProvider("create account", nil), http.StatusBadGateway},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.StatusCode(), tt.err.Message)
	}
}

func TestIsNotFoundThroughWrapping(t *testing.T) {
	err := fmt.Errorf("loading entity: %w", NotFound("identity", nil))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsDuplicate(err))
	assert.False(t, IsNotFound(errors.New("plain")))
}

func TestIsDuplicate(t *testing.T) {
	err := Duplicate("national_id", "X-1")
	assert.True(t, IsDuplicate(err))
	assert.Contains(t, err.Error(), "already registered")
}
