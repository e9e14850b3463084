package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"ArticleRecommender/internal/api"
	"ArticleRecommender/internal/config"
	"ArticleRecommender/internal/infrastructure/parser"
	"ArticleRecommender/internal/infrastructure/sparql"
	"ArticleRecommender/internal/infrastructure/storage"
	"ArticleRecommender/internal/logging"
	"ArticleRecommender/internal/materializer"
	"ArticleRecommender/internal/metrics"
	"ArticleRecommender/internal/ports"
	"ArticleRecommender/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	server *api.Server
	db     *sql.DB
	logger *slog.Logger
}

// New builds the application. Reader storage is enabled only when a database DSN is configured.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	m := metrics.New()
	mat := materializer.New(baseLogger.With("component", "materializer"))

	client := sparql.NewClient(sparql.Config{
		Endpoint:        cfg.SPARQL.Endpoint,
		Dataset:         cfg.SPARQL.Dataset,
		Timeout:         cfg.SPARQL.Timeout,
		BreakerFailures: cfg.SPARQL.BreakerFailures,
		BreakerCooldown: cfg.SPARQL.BreakerCooldown,
	}, nil, m, baseLogger.With("component", "sparql"))
	store := sparql.NewStore(client, mat, baseLogger.With("component", "store"))

	var (
		db      *sql.DB
		readers ports.HistoryRepository
	)
	if cfg.Database.DSN != "" {
		var err error
		db, err = storage.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		repo := storage.NewPostgresRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		readers = repo
	} else {
		baseLogger.Info("no database configured, reader history disabled")
	}

	recommender := usecase.NewRecommender(usecase.RecommenderDeps{
		Graph:        store,
		Candidates:   store,
		History:      readers,
		Materializer: mat,
		Metrics:      m,
		Logger:       baseLogger.With("component", "recommender"),
	}, usecase.RecommenderOptions{
		DefaultTopK:        cfg.Recommender.DefaultTopK,
		KeywordLimit:       cfg.Recommender.KeywordLimit,
		CandidateLimit:     cfg.Recommender.CandidateLimit,
		CandidateTimeout:   cfg.Recommender.CandidateTimeout,
		MaterializeWorkers: cfg.Recommender.MaterializeWorkers,
		HistoryDepth:       cfg.Recommender.HistoryDepth,
	})

	catalog := usecase.NewCatalog(usecase.CatalogDeps{
		Graph:        store,
		Searcher:     store,
		Writer:       store,
		Materializer: mat,
		Logger:       baseLogger.With("component", "catalog"),
	}, cfg.Recommender.CandidateLimit)

	extractor := parser.NewPageExtractor(
		&http.Client{Timeout: cfg.Ingest.Timeout},
		cfg.Ingest.UserAgent,
		baseLogger.With("component", "extractor"),
	)
	ingestor := usecase.NewIngestor(usecase.IngestorDeps{
		Extractor: extractor,
		Writer:    store,
		Catalog:   catalog,
		Logger:    baseLogger.With("component", "ingest"),
	})

	server := api.NewServer(api.Config{
		Addr:            cfg.HTTP.Addr,
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	}, api.Deps{
		Recommender: recommender,
		Catalog:     catalog,
		Ingestor:    ingestor,
		Readers:     readers,
		Observer:    m,
		Logger:      baseLogger.With("component", "api"),
	})

	return &Application{cfg: cfg, server: server, db: db, logger: baseLogger}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start()
	}()

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
		runErr = a.server.Shutdown(context.WithoutCancel(ctx))
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close database", "error", err)
		}
	}
	return runErr
}
