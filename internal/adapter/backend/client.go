package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	domain "user-console/internal/domain/user"
	"user-console/internal/observability"
	pkgerrors "user-console/pkg/errors"
	"user-console/pkg/logger"
)

// maxErrorBody bounds how much of an error response is read looking for a message.
const maxErrorBody = 64 << 10

// Client issues the user resource calls against the backend REST API.
// It holds no mutable state and is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	log     *zap.Logger
	metrics *observability.Metrics
}

// NewClient creates a client for the backend at baseURL. metrics may be nil.
func NewClient(baseURL string, httpClient *http.Client, log *zap.Logger, metrics *observability.Metrics) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Client{
		baseURL: u,
		http:    httpClient,
		log:     log.Named("backend"),
		metrics: metrics,
	}, nil
}

// errorBody is the optional error payload returned by the backend.
type errorBody struct {
	Message string `json:"message"`
}

// List returns every user known to the backend.
func (c *Client) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.do(ctx, "list", http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// Get returns the user with the given id, or a NotFound failure.
func (c *Client) Get(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	if err := c.do(ctx, "get", http.MethodGet, userPath(id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create submits a draft and returns the persisted record with its new id.
func (c *Client) Create(ctx context.Context, d domain.Draft) (*domain.User, error) {
	var u domain.User
	if err := c.do(ctx, "create", http.MethodPost, "/users", d, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Update replaces the name, email and password of the user with the given id.
func (c *Client) Update(ctx context.Context, id int64, d domain.Draft) (*domain.User, error) {
	var u domain.User
	if err := c.do(ctx, "update", http.MethodPut, userPath(id), d, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Delete removes the user with the given id.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, "delete", http.MethodDelete, userPath(id), nil, nil)
}

func userPath(id int64) string {
	return "/users/" + strconv.FormatInt(id, 10)
}

// do performs exactly one request. in is encoded as JSON when non-nil; the response body is
// decoded into out when out is non-nil. Every error returned is a *pkgerrors.Failure.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) (err error) {
	start := time.Now()
	log := logger.WithContext(ctx, c.log).With(zap.String("operation", op), zap.String("path", path))
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = pkgerrors.KindOf(err).String()
			log.Warn("backend call failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		} else {
			log.Debug("backend call", zap.Duration("elapsed", time.Since(start)))
		}
		c.metrics.ObserveBackend(op, outcome, time.Since(start))
	}()

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return pkgerrors.NewFailure(pkgerrors.Unknown, 0, "", fmt.Errorf("encode %s request: %w", op, err))
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return pkgerrors.NewFailure(pkgerrors.Unknown, 0, "", fmt.Errorf("build %s request: %w", op, err))
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := logger.GetRequestID(ctx); id != "" {
		req.Header.Set(logger.RequestIDHeader, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.NewFailure(pkgerrors.Transport, 0, "", fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusFailure(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.NewFailure(pkgerrors.Transport, resp.StatusCode, "", fmt.Errorf("decode %s response: %w", op, err))
	}
	return nil
}

// statusFailure converts a non-2xx response into a failure, keeping the backend message if any.
func statusFailure(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var eb errorBody
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &eb); err != nil {
			eb.Message = ""
		}
	}

	return pkgerrors.NewFailure(
		pkgerrors.KindFromStatus(resp.StatusCode),
		resp.StatusCode,
		strings.TrimSpace(eb.Message),
		errors.New(resp.Status),
	)
}
