package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-console/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Backend: config.BackendConfig{HTTPPort: "0", Driver: "sqlite"},
		DB: config.DatabaseConfig{
			SQLitePath:   filepath.Join(t.TempDir(), "users.db"),
			MaxIdleConns: 1,
		},
		Logger: config.LoggerConfig{Level: "error"},
	}
}

func TestNewContainer_ServesUsers(t *testing.T) {
	c, err := NewContainer(context.Background(), testConfig(t), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, c.Close()) })

	container := c.(*Container)
	assert.Nil(t, container.RedisClient)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"name":"Ann","email":"a@x.com","password":"pw1"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"a@x.com"`)
}

func TestNewContainer_UnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backend.Driver = "mysql"

	_, err := NewContainer(context.Background(), cfg, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "unsupported database driver")
}
