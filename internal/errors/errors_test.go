package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesByCode(t *testing.T) {
	err := InsufficientStock("p1", 5, 2)

	assert.True(t, Is(err, ErrInsufficientStock))
	assert.False(t, Is(err, ErrNotFound))

	wrapped := fmt.Errorf("adding item: %w", err)
	assert.True(t, Is(wrapped, ErrInsufficientStock))
}

func TestUnavailable(t *testing.T) {
	cause := stderrors.New("dial tcp: connection refused")

	err := Unavailable("load cart", cause)
	assert.True(t, Is(err, ErrDependencyUnavailable))
	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, "load cart failed", PublicMessage(err))

	// Taxonomy errors pass through.
	assert.Same(t, ErrEmptyCart, Unavailable("load cart", ErrEmptyCart))
	assert.Nil(t, Unavailable("noop", nil))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFound("product"), http.StatusNotFound},
		{"stock", ErrInsufficientStock, http.StatusBadRequest},
		{"empty cart", ErrEmptyCart, http.StatusBadRequest},
		{"validation", NewValidationError("quantity", "must be positive"), http.StatusBadRequest},
		{"duplicate", ErrDuplicateSubmission, http.StatusConflict},
		{"transition", InvalidTransition("shipped", "cancelled"), http.StatusConflict},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"unavailable", Unavailable("x", stderrors.New("boom")), http.StatusServiceUnavailable},
		{"foreign", stderrors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestPublicMessage_HidesCause(t *testing.T) {
	err := Unavailable("save order", stderrors.New("password authentication failed for user acme"))
	assert.NotContains(t, PublicMessage(err), "password")
	assert.Equal(t, "internal server error", PublicMessage(stderrors.New("raw")))
	assert.Equal(t, "quantity: must be positive", PublicMessage(NewValidationError("quantity", "must be positive")))
}
