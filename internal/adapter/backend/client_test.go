package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "user-console/internal/domain/user"
	"user-console/internal/observability"
	pkgerrors "user-console/pkg/errors"
	"user-console/pkg/logger"
)

func setupClient(t *testing.T, h http.HandlerFunc) (*Client, *observability.Metrics) {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	m := observability.NewMetrics(prometheus.NewRegistry())
	c, err := NewClient(srv.URL+"/", srv.Client(), zaptest.NewLogger(t), m)
	require.NoError(t, err)
	return c, m
}

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	_, err := NewClient("localhost/users", nil, zaptest.NewLogger(t), nil)
	assert.Error(t, err)
}

func TestClient_List(t *testing.T) {
	c, m := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/users", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":1,"name":"Ann","email":"a@x.com","password":"pw1"}]`))
	})

	users, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.User{{ID: 1, Name: "Ann", Email: "a@x.com", Password: "pw1"}}, users)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendRequests.WithLabelValues("list", "ok")))
}

func TestClient_List_NullBodyIsEmpty(t *testing.T) {
	c, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})

	users, err := c.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestClient_Get_NotFound(t *testing.T) {
	c, m := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/42", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	})

	u, err := c.Get(context.Background(), 42)
	assert.Nil(t, u)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendRequests.WithLabelValues("get", "not_found")))
}

func TestClient_Create_SendsDraft(t *testing.T) {
	c, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "req-7", r.Header.Get(logger.RequestIDHeader))

		var d domain.Draft
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&d))
		assert.Equal(t, domain.Draft{Name: "Bo", Email: "b@x.com", Password: "pw2"}, d)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(domain.User{ID: 2, Name: d.Name, Email: d.Email, Password: d.Password})
	})

	ctx := logger.WithRequestID(context.Background(), "req-7")
	u, err := c.Create(ctx, domain.Draft{Name: "Bo", Email: "b@x.com", Password: "pw2"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), u.ID)
	assert.Equal(t, "Bo", u.Name)
}

func TestClient_Create_ValidationMessage(t *testing.T) {
	c, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"already_exists","message":"email already exists"}`))
	})

	_, err := c.Create(context.Background(), domain.Draft{Name: "Bo", Email: "b@x.com", Password: "pw2"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.Validation, pkgerrors.KindOf(err))
	assert.Equal(t, "email already exists", pkgerrors.MessageOr(err, "Failed to add user"))
}

func TestClient_Update(t *testing.T) {
	c, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/users/1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":1,"name":"Ann","email":"ann@new.com","password":"pw1"}`))
	})

	u, err := c.Update(context.Background(), 1, domain.Draft{Name: "Ann", Email: "ann@new.com", Password: "pw1"})
	require.NoError(t, err)
	assert.Equal(t, "ann@new.com", u.Email)
}

func TestClient_Delete(t *testing.T) {
	c, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/users/3", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, c.Delete(context.Background(), 3))
}

func TestClient_ServerErrorWithoutMessage(t *testing.T) {
	c, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>oops</html>"))
	})

	err := c.Delete(context.Background(), 3)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.Unknown, pkgerrors.KindOf(err))
	assert.Equal(t, "Failed to delete user", pkgerrors.MessageOr(err, "Failed to delete user"))
}

func TestClient_MalformedJSONIsTransport(t *testing.T) {
	c, _ := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":`))
	})

	_, err := c.Get(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pkgerrors.ErrTransport))
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(url, nil, zaptest.NewLogger(t), nil)
	require.NoError(t, err)

	_, err = c.List(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, pkgerrors.ErrTransport))
}
