// Package api serves the session's risk views over HTTP.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rustyeddy/marginpilot/portfolio"
	"github.com/rustyeddy/marginpilot/quotes"
	"github.com/rustyeddy/marginpilot/session"
)

// Extractor reads option positions out of a screenshot.
type Extractor interface {
	Extract(ctx context.Context, image string) ([]portfolio.OptionPosition, error)
}

type Server struct {
	R         *gin.Engine
	Session   *session.Session
	Quotes    quotes.Source
	Extractor Extractor
	Logger    *zap.Logger

	requests *prometheus.CounterVec
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewServer wires the router, middleware and metrics. reg receives the
// HTTP counters and is exposed at /metrics; nil uses a private registry.
func NewServer(sess *session.Session, src quotes.Source, ex Extractor, logger *zap.Logger, reg *prometheus.Registry) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Server{
		R:         gin.New(),
		Session:   sess,
		Quotes:    src,
		Extractor: ex,
		Logger:    logger,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marginpilot",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(s.requests)

	g := s.R

	// Request logging and counting
	g.Use(func(cn *gin.Context) {
		start := time.Now()
		cn.Next()

		route := cn.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.requests.WithLabelValues(cn.Request.Method, route, strconv.Itoa(cn.Writer.Status())).Inc()
		logger.Info("http_request",
			zap.String("method", cn.Request.Method),
			zap.String("path", cn.Request.URL.Path),
			zap.Int("status", cn.Writer.Status()),
			zap.String("ip", cn.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		)
	})

	g.Use(gin.Recovery())

	g.GET("/health", func(cn *gin.Context) { cn.JSON(http.StatusOK, gin.H{"ok": true}) })
	g.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := g.Group("/api")
	api.Use(s.reload)
	api.GET("/quotes", s.getQuotes)
	api.POST("/ocr", s.postOCR)
	api.GET("/margin", s.getMargin)
	api.GET("/alerts", s.getAlerts)
	api.GET("/positions/analysis", s.getAnalysis)
	api.GET("/stress", s.getStress)
	api.GET("/options/summary", s.getOptionsSummary)
	api.GET("/options/pnl", s.getOptionsPnl)
	api.GET("/trades/summary", s.getTradesSummary)
	api.GET("/history", s.getHistory)

	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.R,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// --- Helpers ---

// reload picks up changes the CLI wrote to the journal since the last
// request. A failed reload serves the last known book.
func (s *Server) reload(c *gin.Context) {
	if err := s.Session.Reload(c.Request.Context()); err != nil {
		s.Logger.Warn("reload book", zap.Error(err))
	}
	c.Next()
}

func (s *Server) fail(c *gin.Context, status int, code, msg string) {
	c.JSON(status, apiError{Code: code, Message: msg})
}

func (s *Server) badRequest(c *gin.Context, msg string) {
	s.fail(c, http.StatusBadRequest, "bad_request", msg)
}

func (s *Server) internalError(c *gin.Context, where string, err error) {
	s.Logger.Error("internal_error", zap.String("where", where), zap.Error(err))
	s.fail(c, http.StatusInternalServerError, "internal_server_error", "internal server error")
}

func parseFloat(v string, def, min, max float64) (float64, bool) {
	if v == "" {
		return def, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < min || f > max {
		return def, false
	}
	return f, true
}

func parseInt(v string, def, min, max int) (int, bool) {
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min || n > max {
		return def, false
	}
	return n, true
}
