package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-k8s/agent-runner/internal/dsl"
)

func TestNewRoutes(t *testing.T) {
	mcpHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	cfg := dsl.ServerConfig{HTTP: dsl.HTTPConfig{Listen: "127.0.0.1:0", Path: "/mcp"}}

	application, err := New(context.Background(), cfg, mcpHandler, nil, nil, time.Second)
	require.NoError(t, err)

	for path, want := range map[string]int{
		"/mcp":     http.StatusTeapot,
		"/healthz": http.StatusOK,
		"/readyz":  http.StatusServiceUnavailable,
	} {
		rec := httptest.NewRecorder()
		application.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rec.Code, path)
	}
}

func TestNewRequiresHandler(t *testing.T) {
	_, err := New(context.Background(), dsl.ServerConfig{}, nil, nil, nil, 0)
	assert.EqualError(t, err, "handler is nil")
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := dsl.ServerConfig{HTTP: dsl.HTTPConfig{Listen: "127.0.0.1:0", Path: "/mcp"}}
	application, err := New(ctx, cfg, http.NotFoundHandler(), nil, nil, time.Second)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
