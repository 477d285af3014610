package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/akolanti/GoPDFChat/internal/adapter/utils"
	"github.com/akolanti/GoPDFChat/internal/config"
	"github.com/akolanti/GoPDFChat/internal/handlers"
	"github.com/akolanti/GoPDFChat/internal/middleware"
	"github.com/akolanti/GoPDFChat/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
}

type Server struct {
	http    *http.Server
	closers []io.Closer
	logger  *logger_i.Logger
}

// NewRouter mounts the API at the root and again under config.APIPrefix.
func NewRouter(allowedOrigins []string, chain *middleware.Chain, h *handlers.RequestHandler) *chi.Mux {
	router := utils.NewRouter(allowedOrigins)

	routes := func(r chi.Router) {
		r.Get("/", chain.Public(h.HealthHandler))
		r.Post("/upload", chain.Protected(h.UploadHandler))
		r.Post("/chat", chain.Protected(h.ChatHandler))
	}
	routes(router)
	router.Route(config.APIPrefix, routes)
	return router
}

// New takes ownership of closers; they are closed after the listener stops.
func New(listenAddr string, handler http.Handler, closers ...io.Closer) *Server {
	return &Server{
		http: &http.Server{
			Addr:         listenAddr,
			Handler:      handler,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		closers: closers,
		logger:  logger_i.NewLogger("Server"),
	}
}

func (s *Server) Run() {
	s.logger.Info("Server is listening at", "address", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Server crashed", "error", err, "addr", s.http.Addr)
	}
}

func (s *Server) ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	s.logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		s.http.SetKeepAlivesEnabled(false)

		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error("Could not shutdown gracefully", "error", err)
		}

		for _, c := range s.closers {
			if err := c.Close(); err != nil {
				s.logger.Error("Error closing dependency", "error", err)
			}
		}
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Gracefully shut down")
		close(shutdownParams.StopExecution)
	case <-ctx.Done():
		s.logger.Info("Force Shut down")
		os.Exit(1)
	}
}
