package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/tilsley/repomark/apps/server/internal/convert"
	githubadapter "github.com/tilsley/repomark/apps/server/internal/convert/adapters/github"
	"github.com/tilsley/repomark/apps/server/internal/convert/handler"
	"github.com/tilsley/repomark/apps/server/internal/platform/validation"
	"github.com/tilsley/repomark/schemas"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	owner = "acme"
	repo  = "widgets"
	token = "gho_test"
)

// ─── Stubs ────────────────────────────────────────────────────────────────────

type stubRecorder struct {
	overview *convert.Overview
	err      error
	events   []convert.ConversionEvent
}

func (r *stubRecorder) RecordConversion(_ context.Context, ev convert.ConversionEvent) error {
	r.events = append(r.events, ev)
	return nil
}

func (r *stubRecorder) Overview(_ context.Context) (*convert.Overview, error) {
	return r.overview, r.err
}

// ─── Test server builder ──────────────────────────────────────────────────────

type testServer struct {
	router  *gin.Engine
	fetcher *githubadapter.InMem
}

func seed() *githubadapter.InMem {
	m := githubadapter.NewInMem()
	m.SetRepo(owner, repo, repo, "Widget factory")
	m.SetFile(owner, repo, "README.md", "Hello")
	m.SetFile(owner, repo, "main.go", "package main")
	return m
}

func newTestServer(t *testing.T, rec convert.EventRecorder) *testServer {
	t.Helper()
	ts := &testServer{fetcher: seed()}
	svc := convert.NewService(ts.fetcher, rec, slog.Default(), convert.Options{})
	r := gin.New()
	handler.RegisterRoutes(r, svc, slog.Default())
	ts.router = r
	return ts
}

func newTestServerWithValidation(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{fetcher: seed()}
	mw, err := validation.New(schemas.OpenAPISpec)
	require.NoError(t, err)
	r := gin.New()
	r.Use(mw)
	handler.RegisterRoutes(r, convert.NewService(ts.fetcher, nil, slog.Default(), convert.Options{}), slog.Default())
	ts.router = r
	return ts
}

// do sends body as JSON. A string body is sent raw.
func (ts *testServer) do(method, path string, body any, auth string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}
