// Package session keeps the screen each browser session currently has mounted.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"user-console/internal/route"
	"user-console/internal/usecase/loop"
)

// Screen is a mounted screen controller.
type Screen interface {
	Initialize()
	Dispose()
}

// Builder creates the controller for a route on its own loop. Navigation requests
// made by the controller must go through nav.
type Builder func(l *loop.Loop, nav route.Navigator) Screen

// Session is one browser session. At most one screen is mounted at a time.
type Session struct {
	ID string

	log *zap.Logger

	mu       sync.Mutex
	path     string
	screen   Screen
	loop     *loop.Loop
	lastSeen time.Time

	navMu  sync.Mutex
	target string
}

func newSession(id string, log *zap.Logger, now time.Time) *Session {
	return &Session{
		ID:       id,
		log:      log.With(zap.String("session_id", id)),
		lastSeen: now,
	}
}

// Mount returns the screen mounted for path, building and initializing it when the
// session is on another route. The previous screen is disposed and its loop closed, so
// none of its pending completions can run.
func (s *Session) Mount(path string, build Builder) Screen {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.screen != nil && s.path == path {
		return s.screen
	}
	s.unmountLocked()

	l := loop.New(s.log.With(zap.String("route", path)))
	screen := build(l, route.NavigatorFunc(s.navigate))
	s.path, s.screen, s.loop = path, screen, l
	screen.Initialize()

	s.log.Debug("screen mounted", zap.String("route", path))
	return screen
}

// Current returns the mounted screen and its route, or nil when nothing is mounted.
func (s *Session) Current() (Screen, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen, s.path
}

// Wait blocks until the mounted screen has no queued work and no call in flight.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	l := s.loop
	s.mu.Unlock()

	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}

// TakeNavigation returns and clears the route the mounted screen last asked to go to.
func (s *Session) TakeNavigation() string {
	s.navMu.Lock()
	defer s.navMu.Unlock()

	t := s.target
	s.target = ""
	return t
}

func (s *Session) navigate(path string) {
	s.navMu.Lock()
	s.target = path
	s.navMu.Unlock()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unmountLocked()
}

func (s *Session) unmountLocked() {
	if s.screen == nil {
		return
	}
	s.screen.Dispose()
	s.loop.Close()
	s.log.Debug("screen disposed", zap.String("route", s.path))
	s.screen, s.loop, s.path = nil, nil, ""

	s.navMu.Lock()
	s.target = ""
	s.navMu.Unlock()
}
