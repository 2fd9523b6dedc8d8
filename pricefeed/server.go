package pricefeed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cosmossdk.io/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the feed over HTTP.
type Server struct {
	cfg    Config
	feed   *Feed
	logger log.Logger
	router *gin.Engine
	server *http.Server
}

// NewServer wires the feed behind the quote API.
func NewServer(cfg Config, feed *Feed, logger log.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		cfg:    cfg,
		feed:   feed,
		logger: logger.With("component", "pricefeed-api"),
		router: router,
	}

	s.router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})

	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/v1")
	{
		v1.GET("/prices/:base/:quote", s.handlePrice)
	}

	return s
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until the listener fails or Stop is called.
func (s *Server) Start() error {
	s.logger.Info("starting price feed API", "address", s.cfg.ListenAddr)

	s.server = &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("price feed API: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping price feed API")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handlePrice(c *gin.Context) {
	pair := Pair{Base: c.Param("base"), Quote: c.Param("quote")}
	if pair.Base == "" || pair.Quote == "" || pair.Base == pair.Quote {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "base and quote must be distinct denoms",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
	defer cancel()

	quote, err := s.feed.Price(ctx, pair)
	if err != nil {
		s.logger.Error("price lookup failed", "pair", pair.String(), "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "no price available",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pair":      quote.Pair.String(),
		"price":     quote.Price.String(),
		"source":    quote.Source,
		"timestamp": quote.Timestamp.Format(time.RFC3339),
	})
}
