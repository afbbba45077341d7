// Package server serves the routes of a bindings file, answering each
// accepted request with its parsed properties.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/reoring/jtdguard"
	"github.com/reoring/jtdguard/internal/bindfile"
	"github.com/reoring/jtdguard/internal/config"
	"github.com/reoring/jtdguard/middleware"
	chimw "github.com/reoring/jtdguard/middleware/chi"
)

type Server struct {
	Router *chi.Mux
	Addr   string
	logger *slog.Logger
}

// New builds the router: one validated route per bindings-file route, plus
// GET /healthz.
func New(cfg *config.Config, routes []bindfile.RouteSpec, logger *slog.Logger) (*Server, error) {
	v, err := jtdguard.New(cfg.Validator.Options(logger)...)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	for _, route := range routes {
		bindings, err := route.Build()
		if err != nil {
			return nil, err
		}
		d, err := v.Validate(bindings...)
		if err != nil {
			return nil, fmt.Errorf("route %s %s: %w", route.Method, route.Path, err)
		}
		r.With(chimw.Validate(d,
			middleware.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
			middleware.WithHandlerLogger(logger),
		)).Method(route.Method, route.Path, http.HandlerFunc(echoParsed))
		logger.Debug("route registered",
			slog.String("method", route.Method),
			slog.String("path", route.Path),
			slog.Any("properties", d.Properties()),
		)
	}

	return &Server{Router: r, Addr: cfg.Server.Addr, logger: logger}, nil
}

func echoParsed(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.ParsedFromContext(r.Context())
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"request_id": RequestID(r.Context()),
		"parsed":     p,
	})
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", slog.String("addr", s.Addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}
