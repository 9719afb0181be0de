// Package server serves the mcp tool surface over HTTP.
//
//	POST /tool    execute a tool call
//	GET  /schema  tool schema for agent registration
//	GET  /health  liveness and cache statistics
//	GET  /metrics Prometheus metrics
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/physicsuniverse/Covariant-Derivative/geometry"
	"github.com/physicsuniverse/Covariant-Derivative/internal/config"
	"github.com/physicsuniverse/Covariant-Derivative/mcp"
)

// Codes for calls refused by the server itself.
const (
	CodeRateLimited = "rate_limited"
	CodeBusy        = "busy"
	CodeTimeout     = "timeout"
)

const shutdownGrace = 10 * time.Second

// Server wires the tool handler to a gin router.
type Server struct {
	cfg     config.Server
	logger  *slog.Logger
	cache   *geometry.Cache
	handle  func(mcp.ToolRequest) mcp.ToolResponse
	limiter *rate.Limiter
	sem     *semaphore.Weighted
	metrics *Metrics
	router  *gin.Engine
}

// New builds a server from cfg. The Christoffel cache is sized by
// cfg.CacheEntries and shared by every request.
func New(cfg config.Server, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cache := geometry.NewCache(cfg.CacheEntries)
	engine := geometry.NewEngine(geometry.WithCache(cache), geometry.WithLogger(logger))
	s := &Server{
		cfg:     cfg,
		logger:  logger,
		cache:   cache,
		handle:  mcp.NewHandler(engine).Handle,
		sem:     semaphore.NewWeighted(max(cfg.MaxConcurrent, 1)),
		metrics: newMetrics(cache),
	}
	if cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.Burst, 1))
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler  { return s.router }
func (s *Server) Metrics() *Metrics      { return s.metrics }
func (s *Server) Cache() *geometry.Cache { return s.cache }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(s.recovery(), requestID(), s.accessLog())
	r.POST("/tool", s.rateLimit(), s.handleTool)
	r.GET("/schema", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(mcp.MCPToolSpec()))
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
			"cache":  s.cache.Stats(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))
	return r
}

func (s *Server) handleTool(c *gin.Context) {
	req, err := s.decodeRequest(c)
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, mcp.ToolResponse{Error: err.Error(), Code: mcp.CodeBadRequest})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
	defer cancel()
	if err := s.sem.Acquire(ctx, 1); err != nil {
		s.metrics.rejected.WithLabelValues(CodeBusy).Inc()
		c.JSON(http.StatusServiceUnavailable, mcp.ToolResponse{Error: "server busy", Code: CodeBusy})
		return
	}

	start := time.Now()
	done := make(chan mcp.ToolResponse, 1)
	s.metrics.inFlight.Inc()
	go func() {
		// the slot is held until the computation actually ends
		defer s.sem.Release(1)
		defer s.metrics.inFlight.Dec()
		done <- s.handle(req)
	}()

	select {
	case resp := <-done:
		elapsed := time.Since(start)
		s.metrics.observe(req.Tool, resp.Code, elapsed.Seconds())
		if resp.Code == mcp.CodeInternal {
			s.logger.Error("tool call failed", "tool", req.Tool, "error", resp.Error, "request_id", c.GetString(requestIDKey))
		}
		c.JSON(http.StatusOK, resp)
	case <-ctx.Done():
		s.metrics.rejected.WithLabelValues(CodeTimeout).Inc()
		s.logger.Warn("tool call timed out", "tool", req.Tool, "timeout", s.cfg.RequestTimeout, "request_id", c.GetString(requestIDKey))
		c.JSON(http.StatusGatewayTimeout, mcp.ToolResponse{
			Error: fmt.Sprintf("tool %s did not finish within %s", req.Tool, s.cfg.RequestTimeout),
			Code:  CodeTimeout,
		})
	}
}

func (s *Server) decodeRequest(c *gin.Context) (mcp.ToolRequest, error) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxBodyBytes)
	defer body.Close()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	var req mcp.ToolRequest
	if err := dec.Decode(&req); err != nil {
		return mcp.ToolRequest{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return mcp.ToolRequest{}, errors.New("invalid JSON: trailing data")
	}
	if req.Tool == "" {
		return mcp.ToolRequest{}, errors.New("missing tool name")
	}
	return req, nil
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.logger.Info("gotensor server listening",
		"addr", ln.Addr().String(),
		"rate_limit", s.cfg.RateLimit,
		"max_concurrent", s.cfg.MaxConcurrent,
		"request_timeout", s.cfg.RequestTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		s.logger.Info("gotensor server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
