package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"secondbrain/agent/internal/app"
)

// shutdownGrace bounds how long in-flight requests may run after the
// serve context is canceled.
const shutdownGrace = 10 * time.Second

// Server runs the HTTP surface until its context is canceled.
type Server struct {
	httpServer *http.Server
	logger     app.Logger
}

// NewServer creates a server for the handler on addr.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      2 * time.Minute, // webhook turns wait on the model
		},
		logger: app.GetLogger(),
	}
}

// Run serves until ctx is canceled, then shuts down gracefully. It
// returns nil on a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()
	s.logger.Info("listening on %s", s.httpServer.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	// Drain the serve goroutine; after Shutdown it returns
	// http.ErrServerClosed.
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
