package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roach88/ndcstatic/internal/engine"
	"github.com/roach88/ndcstatic/internal/queryir"
	"github.com/roach88/ndcstatic/internal/schema"
)

// Greeting is the body served on GET /.
const Greeting = "ndcstatic: static data connector. POST a query request to /query."

// maxBodyBytes bounds a /query request body.
const maxBodyBytes = 1 << 20

// Server exposes an Executor and its schema over HTTP.
type Server struct {
	exec      *engine.Executor
	doc       *schema.Document
	logger    *slog.Logger
	ids       RequestIDGenerator
	metrics   *Metrics
	validator *bodyValidator
	router    *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the access and error logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRequestIDs overrides the request ID generator (for testing).
func WithRequestIDs(ids RequestIDGenerator) Option {
	return func(s *Server) {
		s.ids = ids
	}
}

// WithMetrics serves m on /metrics and records requests into it. Without
// it the server creates its own Metrics on a private registry.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// New builds the router. The caller owns exec and doc; neither is mutated.
func New(exec *engine.Executor, doc *schema.Document, opts ...Option) (*Server, error) {
	if exec == nil {
		return nil, errors.New("server: executor is required")
	}
	if doc == nil {
		return nil, errors.New("server: schema document is required")
	}

	validator, err := newBodyValidator()
	if err != nil {
		return nil, err
	}

	s := &Server{
		exec:      exec,
		doc:       doc,
		validator: validator,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.ids == nil {
		s.ids = UUIDv7Generator{}
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}

	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID(s.ids), accessLog(s.logger), s.metrics.middleware())

	router.GET("/", s.handleRoot)
	router.GET("/capabilities", s.handleCapabilities)
	router.GET("/schema", s.handleSchema)
	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	router.POST("/query", s.handleQuery)
	router.POST("/mutation", s.handleNotImplemented("mutations are not supported"))
	router.POST("/mutations", s.handleNotImplemented("mutations are not supported"))
	router.POST("/explain", s.handleNotImplemented("explain is not supported"))

	router.NoRoute(func(c *gin.Context) {
		abortWith(c, http.StatusNotFound, ErrorBody{
			Code:    CodeNotFound,
			Message: fmt.Sprintf("no route for %s %s", c.Request.Method, c.Request.URL.Path),
		})
	})
	return router
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleRoot(c *gin.Context) {
	c.String(http.StatusOK, Greeting)
}

func (s *Server) handleCapabilities(c *gin.Context) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", s.doc.CapabilitiesJSON())
}

func (s *Server) handleSchema(c *gin.Context) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", s.doc.SchemaJSON())
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (s *Server) handleNotImplemented(message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		abortWith(c, http.StatusNotImplemented, ErrorBody{
			Code:    CodeNotImplemented,
			Message: message,
		})
	}
}

func (s *Server) handleQuery(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		s.metrics.queryFailed(string(engine.ErrCodeInvalidRequest))
		invalidRequest(c, fmt.Sprintf("read body: %v", err), nil)
		return
	}

	problems, err := s.validator.validate(body)
	if err != nil {
		s.metrics.queryFailed(string(engine.ErrCodeInvalidRequest))
		invalidRequest(c, fmt.Sprintf("request body is not valid JSON: %v", err), nil)
		return
	}
	if len(problems) > 0 {
		s.metrics.queryFailed(string(engine.ErrCodeInvalidRequest))
		invalidRequest(c, "request body does not match the query request schema",
			map[string]string{"errors": joinProblems(problems)})
		return
	}

	req, err := queryir.DecodeRequest(body)
	if err != nil {
		s.metrics.queryFailed(string(engine.ErrCodeInvalidRequest))
		invalidRequest(c, err.Error(), nil)
		return
	}

	resp, err := s.exec.Execute(c.Request.Context(), req)
	if err != nil {
		code, ok := engine.CodeOf(err)
		if !ok {
			code = CodeInternal
		}
		s.metrics.queryFailed(string(code))
		writeError(c, err)
		return
	}

	out, err := json.Marshal(resp)
	if err != nil {
		s.metrics.queryFailed(CodeInternal)
		writeError(c, fmt.Errorf("encode response: %w", err))
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", out)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully,
// waiting up to shutdownTimeout for in-flight requests.
func (s *Server) Run(ctx context.Context, addr string, readTimeout, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, readTimeout, shutdownTimeout)
}

// Serve is Run on an existing listener. It closes ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener, readTimeout, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
