// Package api exposes recommendations, the article archive and reader data over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ArticleRecommender/internal/domain"
	"ArticleRecommender/internal/ports"
)

// Recommendations is the recommendation use case.
type Recommendations interface {
	GetRecommendations(ctx context.Context, historyURLs []string, limit int) []domain.ScoredCandidate
	ForReader(ctx context.Context, email string, limit int) ([]domain.ScoredCandidate, error)
}

// Catalog is the article archive use case.
type Catalog interface {
	Article(ctx context.Context, url string) (domain.ArticleRecord, error)
	SearchKeywords(ctx context.Context, keywords string) ([]domain.ArticleRecord, domain.MatchKind, error)
	AdvancedSearch(ctx context.Context, filters domain.SearchFilters) ([]domain.ArticleRecord, domain.MatchKind, error)
	All(ctx context.Context) ([]domain.ArticleRecord, error)
	Delete(ctx context.Context, url string) error
}

// Ingester adds published pages to the archive.
type Ingester interface {
	Ingest(ctx context.Context, url string) (domain.ArticleRecord, error)
}

// Observer records HTTP traffic and serves the scrape endpoint.
type Observer interface {
	HTTPRequest(route, method, status string, elapsed time.Duration)
	Handler() http.Handler
}

// Config describes the listener.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Deps wires the use cases into the HTTP layer. Readers may be nil when no database is configured.
type Deps struct {
	Recommender Recommendations
	Catalog     Catalog
	Ingestor    Ingester
	Readers     ports.HistoryRepository
	Observer    Observer
	Logger      *slog.Logger
}

// Server is the gin HTTP server with lifecycle management.
type Server struct {
	router          *gin.Engine
	server          *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// NewServer builds the router and the underlying http.Server.
func NewServer(cfg Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	router := NewRouter(deps)

	return &Server{
		router: router,
		server: &http.Server{
			Addr:         cfg.Addr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger,
	}
}

// NewRouter applies middleware and registers every route.
func NewRouter(deps Deps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	router := gin.New()
	router.Use(recovery(logger))
	router.Use(requestID())
	router.Use(observe(logger, deps.Observer))

	h := &handlers{
		recommender: deps.Recommender,
		catalog:     deps.Catalog,
		ingestor:    deps.Ingestor,
		readers:     deps.Readers,
		logger:      logger,
	}

	router.GET("/health", h.health)
	if deps.Observer != nil {
		router.GET("/metrics", gin.WrapH(deps.Observer.Handler()))
	}

	v1 := router.Group("/api/v1")
	v1.POST("/recommendations", h.recommend)

	v1.GET("/articles", h.articles)
	v1.DELETE("/articles", h.deleteArticle)
	v1.GET("/search", h.search)
	v1.POST("/search/advanced", h.advancedSearch)
	v1.POST("/ingest", h.ingest)

	users := v1.Group("/users/:email")
	users.GET("/history", h.history)
	users.POST("/history", h.addHistory)
	users.GET("/favorites", h.favorites)
	users.POST("/favorites", h.addFavorite)
	users.DELETE("/favorites", h.removeFavorite)

	return router
}

// Router returns the underlying gin engine.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start serves until the server is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting http server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}
