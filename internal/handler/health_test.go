package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

type fakeModel struct{ ready bool }

func (m fakeModel) Ready() bool { return m.ready }

func TestHealthHandler_Healthz(t *testing.T) {
	h := NewHealthHandler(fakePinger{}, fakeModel{ready: true})

	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealthHandler_Readyz(t *testing.T) {
	tests := []struct {
		name       string
		db         HealthChecker
		model      ModelStatus
		wantCode   int
		wantStatus string
	}{
		{"all healthy", fakePinger{}, fakeModel{ready: true}, http.StatusOK, "ok"},
		{"model missing degrades", fakePinger{}, fakeModel{ready: false}, http.StatusOK, "degraded"},
		{"db down fails", fakePinger{err: errors.New("down")}, fakeModel{ready: true}, http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.db, tt.model)

			rec := httptest.NewRecorder()
			h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), `"status":"`+tt.wantStatus+`"`)
		})
	}
}
