package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/config"
)

// ShutdownHook stops a background component after the HTTP server has drained
type ShutdownHook struct {
	Name string
	Stop func(ctx context.Context) error
}

// Server owns the HTTP listener and the components that must stop with it
type Server struct {
	cfg    *config.Config
	server *http.Server

	mu    sync.Mutex
	hooks []ShutdownHook
}

func New(cfg *config.Config, handler http.Handler) *Server {
	return &Server{
		cfg: cfg,
		server: &http.Server{
			Addr:           fmt.Sprintf(":%d", cfg.App.Port),
			Handler:        handler,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			IdleTimeout:    cfg.Server.IdleTimeout,
			MaxHeaderBytes: 1 << 20, // 1 MB
		},
	}
}

func (s *Server) Port() int {
	return s.cfg.App.Port
}

// OnShutdown registers a hook. Hooks run in reverse registration order so a
// component registered after its dependency stops first.
func (s *Server) OnShutdown(name string, stop func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, ShutdownHook{Name: name, Stop: stop})
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	slog.Info("서버 시작 중",
		"port", s.cfg.App.Port,
		"env", s.cfg.App.Env,
		"read_timeout", s.cfg.Server.ReadTimeout,
		"write_timeout", s.cfg.Server.WriteTimeout,
	)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains HTTP first so no request can enqueue work into a stopped component,
// then runs every hook even if an earlier one fails.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http: %w", err))
	}

	s.mu.Lock()
	hooks := make([]ShutdownHook, len(s.hooks))
	copy(hooks, s.hooks)
	s.hooks = nil
	s.mu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		hook := hooks[i]
		if err := hook.Stop(ctx); err != nil {
			slog.Error("컴포넌트 종료 실패", "component", hook.Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", hook.Name, err))
			continue
		}
		slog.Info("컴포넌트 종료 완료", "component", hook.Name)
	}

	return errors.Join(errs...)
}
