package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"audiosketch/internal/logging"
	"audiosketch/internal/workflow"
)

// maxUploadBytes bounds multipart audio uploads.
const maxUploadBytes = 64 << 20

const shutdownTimeout = 30 * time.Second

// Server serves the JSON API.
type Server struct {
	manager *workflow.Manager
	logger  *slog.Logger
	engine  *gin.Engine
	logPath string
}

// Option customizes a Server.
type Option func(*Server)

// WithLogFile exposes the JSON log at path through GET /api/logs.
func WithLogFile(path string) Option {
	return func(s *Server) {
		s.logPath = path
	}
}

// NewServer builds the router.
func NewServer(manager *workflow.Manager, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.MaxMultipartMemory = 8 << 20
	s := &Server{
		manager: manager,
		logger:  logging.NewComponentLogger(logger, "api"),
		engine:  engine,
	}
	for _, opt := range opts {
		opt(s)
	}
	engine.Use(gin.Recovery(), requestLogger(s.logger))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	{
		api.GET("/image-models", s.listImageModels)
		api.GET("/logs", s.tailLogs)
		api.GET("/projects", s.listProjects)
		api.POST("/projects", s.submitProject)
		api.GET("/projects/:id", s.getProject)
		api.POST("/projects/:id/run", s.runPipeline)
		api.GET("/projects/:id/actions", s.listActions)
		api.POST("/projects/:id/actions/:name", s.runAction)
		api.GET("/projects/:id/history", s.projectHistory)
		api.GET("/projects/:id/files/:file", s.projectFile)
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	s.logger.Info("api listening",
		logging.String("address", listener.Addr().String()),
		logging.String(logging.FieldEventType, "api_listening"),
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown api: %w", err)
	}
	s.logger.Info("api stopped", logging.String(logging.FieldEventType, "api_stopped"))
	return nil
}
