package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-account-auth"
	"github.com/goliatone/go-account-auth/internal/bunx"
	"github.com/goliatone/go-account-auth/internal/config"
	"github.com/goliatone/go-account-auth/internal/server"
	"github.com/goliatone/go-account-auth/migrations"
)

func newTestServer(t *testing.T) (*server.Server, *config.Config) {
	t.Helper()

	t.Setenv("AUTHD_SIGNING_KEY", "server-test-signing-key-of-32-bytes")
	t.Setenv("AUTHD_DATABASE_DSN", "file:"+uuid.NewString()+"?mode=memory&cache=shared")

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	db, err := bunx.NewDB(cfg.Database.DSN, bunx.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bunx.Close(db) })

	_, err = migrations.Up(context.Background(), db)
	require.NoError(t, err)

	srv, err := server.New(cfg, db, nil)
	require.NoError(t, err)

	return srv, cfg
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/healthz", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPageGuard(t *testing.T) {
	srv, cfg := newTestServer(t)

	ts := auth.TokenServiceFromConfig(cfg, nil)
	student, _, err := ts.Issue("john@x.com", auth.RoleStudent)
	require.NoError(t, err)
	teacher, _, err := ts.Issue("jane@x.com", auth.RoleTeacher)
	require.NoError(t, err)

	tests := []struct {
		name     string
		path     string
		token    string
		status   int
		location string
	}{
		{name: "anonymous to login", path: "/admin", status: http.StatusFound, location: "/login"},
		{name: "student on admin page", path: "/admin", token: student, status: http.StatusFound, location: "/schedule"},
		{name: "student on own page", path: "/schedule", token: student, status: http.StatusOK},
		{name: "teacher on teacher page", path: "/teacher", token: teacher, status: http.StatusOK},
		{name: "student on teacher page", path: "/teacher", token: student, status: http.StatusFound, location: "/schedule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.AddCookie(&http.Cookie{Name: cfg.GetContextKey(), Value: tt.token})
			}

			resp, err := srv.App().Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.location != "" {
				assert.Equal(t, tt.location, resp.Header.Get("Location"))
			}
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/nope", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
