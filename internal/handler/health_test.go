package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_Liveness(t *testing.T) {
	h := NewHealthHandler(nil)

	rec := serve(t, http.MethodGet, "/health/live", "/health/live", nil, uuid.Nil, h.Liveness)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestHealthHandler_Readiness(t *testing.T) {
	up := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name       string
		checks     map[string]Pinger
		wantStatus int
		wantChecks map[string]any
	}{
		{"all up", map[string]Pinger{"postgres": up, "redis": up}, http.StatusOK,
			map[string]any{"postgres": "ok", "redis": "ok"}},
		{"redis down", map[string]Pinger{"postgres": up, "redis": down}, http.StatusServiceUnavailable,
			map[string]any{"postgres": "ok", "redis": "down"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHealthHandler(tc.checks)

			rec := serve(t, http.MethodGet, "/health/ready", "/health/ready", nil, uuid.Nil, h.Readiness)

			require.Equal(t, tc.wantStatus, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.wantChecks, body["checks"])
		})
	}
}
