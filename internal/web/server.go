// Package web serves the search form, a JSON query API and Prometheus
// metrics over HTTP.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	nserrors "github.com/notesearch/notesearch/internal/errors"
	"github.com/notesearch/notesearch/internal/metrics"
	"github.com/notesearch/notesearch/internal/output"
)

//go:embed templates/*.html
var templatesFS embed.FS

const shutdownTimeout = 5 * time.Second

// Searcher answers queries for a root.
type Searcher interface {
	Search(ctx context.Context, phrase, root string) ([]string, error)
}

// Server is the HTTP front end for a single root.
type Server struct {
	engine  Searcher
	root    string
	metrics *metrics.Metrics
	logger  *slog.Logger
	router  *gin.Engine
}

// Option configures the server.
type Option func(*Server)

// WithMetrics records request metrics and mounts /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

type searchForm struct {
	Query string `form:"search_bar"`
}

type apiRequest struct {
	Query string `form:"q"`
}

// NewServer builds the router.
func NewServer(engine Searcher, root string, opts ...Option) (*Server, error) {
	if engine == nil {
		return nil, errors.New("search engine is required")
	}

	s := &Server{engine: engine, root: root, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.observe())
	r.SetHTMLTemplate(tmpl)

	r.GET("/", s.home)
	r.POST("/search", s.searchPage)
	r.GET("/api/search", s.apiSearch)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	s.router = r
	return s, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http_server_started", slog.String("addr", addr), slog.String("root", s.root))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.logger.Info("http_server_stopped")
	return nil
}

func (s *Server) home(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{"Root": s.root})
}

// searchPage renders results for the form post. Markers are shown as the
// result text.
func (s *Server) searchPage(c *gin.Context) {
	var req searchForm
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "search_result.html", gin.H{"Query": req.Query, "Marker": err.Error()})
		return
	}

	res, err := s.query(c.Request.Context(), req.Query)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "search_result.html", gin.H{"Query": req.Query, "Marker": err.Error()})
		return
	}
	c.HTML(http.StatusOK, "search_result.html", gin.H{
		"Query":   res.Query,
		"Results": res.Results,
		"Marker":  res.Marker,
	})
}

func (s *Server) apiSearch(c *gin.Context) {
	var req apiRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := s.query(c.Request.Context(), req.Query)
	switch {
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	case res.Marker != "":
		c.JSON(http.StatusBadRequest, res)
	default:
		c.JSON(http.StatusOK, res)
	}
}

func (s *Server) query(ctx context.Context, q string) (output.SearchResult, error) {
	res := output.SearchResult{Query: q, Root: s.root, Results: []string{}}

	paths, err := s.engine.Search(ctx, q, s.root)
	if marker, ok := nserrors.Marker(err); ok {
		res.Marker = marker
		return res, nil
	}
	if err != nil {
		s.logger.Error("http_search_failed", slog.String("query", q), slog.String("error", err.Error()))
		return res, err
	}
	if paths != nil {
		res.Results = paths
	}
	return res, nil
}

// observe logs and measures every request by route template.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		d := time.Since(start)

		s.metrics.ObserveHTTP(c.Request.Method, path, status, d)
		s.logger.Debug("http_request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("duration", d))
	}
}
