package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cloudlark/slackbase/internal/domain"
)

func TestDomainErrorToHTTP(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", domain.NewDomainError(domain.ErrCodeValidation, "bad input"), http.StatusBadRequest},
		{"not found", domain.ErrChannelNotFound, http.StatusNotFound},
		{"unavailable", domain.ErrNoQueryEmbedding, http.StatusServiceUnavailable},
		{"internal", domain.NewDomainError(domain.ErrCodeInternalError, "boom"), http.StatusInternalServerError},
		{"wrapped domain error", fmt.Errorf("search: %w", domain.ErrNoQueryEmbedding), http.StatusServiceUnavailable},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DomainErrorToHTTP(tt.err))
		})
	}
}

func TestSuccessAndError(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, http.StatusOK, map[string]string{"hello": "world"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"hello":"world"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	Error(rec, http.StatusBadRequest, "bad input")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"bad input"}`, rec.Body.String())
}
