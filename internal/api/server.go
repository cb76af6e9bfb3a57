package api

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/magcho/vtrpon/internal/conversion"
	"github.com/magcho/vtrpon/internal/logging"
	"github.com/magcho/vtrpon/internal/playlist"
)

// Controller performs playlist operations on behalf of API callers.
type Controller interface {
	List(ctx context.Context) ([]playlist.Entry, error)
	Add(ctx context.Context, sourcePath, slideSeconds string) (playlist.Entry, error)
	Retry(ctx context.Context, entryID string) (playlist.Entry, error)
	Remove(ctx context.Context, entryID string) (bool, error)
	Clear(ctx context.Context) (int, error)
}

// StatusFunc reports daemon runtime information.
type StatusFunc func(ctx context.Context) Status

// ServerOptions configure a Server.
type ServerOptions struct {
	Bind       string
	Token      string
	Controller Controller
	Hub        *Hub
	Status     StatusFunc
	Logger     *slog.Logger
}

// Server serves the playlist API and the websocket feed.
type Server struct {
	bind   string
	logger *slog.Logger
	ctrl   Controller
	hub    *Hub
	status StatusFunc

	engine   *gin.Engine
	server   *http.Server
	listener net.Listener
}

// NewServer builds the route table. It does not start listening.
func NewServer(opts ServerOptions) (*Server, error) {
	if opts.Controller == nil {
		return nil, errors.New("api server requires a controller")
	}
	bind := strings.TrimSpace(opts.Bind)
	if bind == "" {
		return nil, errors.New("api server requires a bind address")
	}
	gin.SetMode(gin.ReleaseMode)

	srv := &Server{
		bind:   bind,
		logger: logging.NewComponentLogger(opts.Logger, "api"),
		ctrl:   opts.Controller,
		hub:    opts.Hub,
		status: opts.Status,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), srv.requestLogger())
	authorized := engine.Group("/", authMiddleware(opts.Token))
	authorized.GET("/api/status", srv.handleStatus)
	authorized.GET("/api/playlist", srv.handleList)
	authorized.GET("/ws", srv.handleWebsocket)
	mutating := authorized.Group("/", sameOriginMiddleware())
	mutating.POST("/api/playlist", srv.handleAdd)
	mutating.DELETE("/api/playlist", srv.handleClear)
	mutating.DELETE("/api/playlist/:id", srv.handleRemove)
	mutating.POST("/api/playlist/:id/retry", srv.handleRetry)
	srv.engine = engine

	srv.server = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens on the bind address and serves until ctx is cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the HTTP server down and disconnects websocket subscribers.
func (s *Server) Stop() {
	if s.hub != nil {
		s.hub.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *Server) handleStatus(c *gin.Context) {
	if s.status == nil {
		c.JSON(http.StatusOK, Status{Running: true, Counts: map[string]int{}})
		return
	}
	c.JSON(http.StatusOK, s.status(c.Request.Context()))
}

func (s *Server) handleList(c *gin.Context) {
	entries, err := s.ctrl.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, PlaylistResponse{Entries: FromEntries(entries)})
}

func (s *Server) handleAdd(c *gin.Context) {
	if c.ContentType() != gin.MIMEJSON {
		c.JSON(http.StatusUnsupportedMediaType, ErrorResponse{Error: "content type must be application/json"})
		return
	}
	var req AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "path is required"})
		return
	}
	entry, err := s.ctrl.Add(c.Request.Context(), req.Path, req.SlideSeconds)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, EntryResponse{Entry: FromEntry(entry)})
}

func (s *Server) handleRetry(c *gin.Context) {
	entry, err := s.ctrl.Retry(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, EntryResponse{Entry: FromEntry(entry)})
}

func (s *Server) handleRemove(c *gin.Context) {
	removed, err := s.ctrl.Remove(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: playlist.ErrNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, RemoveResponse{Removed: true})
}

func (s *Server) handleClear(c *gin.Context) {
	removed, err := s.ctrl.Clear(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ClearResponse{Removed: removed})
}

func (s *Server) handleWebsocket(c *gin.Context) {
	if s.hub == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "websocket feed disabled"})
		return
	}
	ctx := c.Request.Context()
	snapshot := func() ([]playlist.Entry, error) { return s.ctrl.List(ctx) }
	if err := s.hub.Serve(c.Writer, c.Request, snapshot); err != nil {
		s.logger.Debug("websocket session ended early", logging.Error(err))
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(s.logger, "api request failed", "api_error",
			logging.String("path", c.FullPath()),
			logging.Error(err),
		)
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, playlist.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, conversion.ErrUnsupportedSource), errors.Is(err, fs.ErrNotExist):
		return http.StatusUnprocessableEntity
	case errors.Is(err, conversion.ErrNotFailed),
		errors.Is(err, conversion.ErrConversionActive),
		errors.Is(err, conversion.ErrNoSource):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		s.logger.Debug("api request",
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("elapsed", time.Since(started)),
		)
	}
}
