package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// NewHTTPServer wraps handler in an http.Server listening on :port.
func NewHTTPServer(port string, handler http.Handler, l *zap.Logger) *http.Server {
	addr := ":" + port
	l.Info("HTTP server configured", zap.String("address", addr))

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
