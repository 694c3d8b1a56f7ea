package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"user-console/internal/observability"
	"user-console/pkg/logger"
)

const (
	// CookieName is the cookie carrying the session id.
	CookieName = "console_session"

	contextKey = "console.session"
)

// Registry tracks live sessions and expires idle ones.
type Registry struct {
	ttl     time.Duration
	log     *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates a registry whose sessions expire after ttl without requests.
// metrics may be nil.
func NewRegistry(ttl time.Duration, log *zap.Logger, metrics *observability.Metrics) *Registry {
	return &Registry{
		ttl:      ttl,
		log:      log.Named("session"),
		metrics:  metrics,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Middleware attaches the caller's session to the request, creating one and setting
// the cookie when the request carries no known session id.
func (r *Registry) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(CookieName)
		s, created := r.acquire(id)
		if created {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(CookieName, s.ID, 0, "/", "", false, true)
		}

		c.Set(contextKey, s)
		c.Request = c.Request.WithContext(logger.WithSessionID(c.Request.Context(), s.ID))
		c.Next()
	}
}

// FromContext returns the session attached by Middleware.
func FromContext(c *gin.Context) *Session {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil
	}
	s, _ := v.(*Session)
	return s
}

func (r *Registry) acquire(id string) (*Session, bool) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok && id != "" {
		s.touch(now)
		return s, false
	}

	s := newSession(uuid.NewString(), r.log, now)
	r.sessions[s.ID] = s
	r.metrics.SetActiveSessions(len(r.sessions))
	r.log.Debug("session created", zap.String("session_id", s.ID))
	return s, true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the ttl and returns how many were removed.
func (r *Registry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if s.idleSince(now) > r.ttl {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.metrics.SetActiveSessions(len(r.sessions))
	r.mu.Unlock()

	for _, s := range expired {
		s.close()
	}
	if len(expired) > 0 {
		r.log.Info("expired idle sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done, then closes every session.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Close()
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close disposes every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.metrics.SetActiveSessions(0)
	r.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}
