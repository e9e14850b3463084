package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"ArticleRecommender/internal/domain"
	"ArticleRecommender/internal/ports"
)

// IngestorDeps wires page extraction to the graph store.
type IngestorDeps struct {
	Extractor ports.PageExtractor
	Writer    ports.GraphWriter
	Catalog   *Catalog
	Logger    *slog.Logger
}

// Ingestor adds published pages to the archive.
type Ingestor struct {
	extractor ports.PageExtractor
	writer    ports.GraphWriter
	catalog   *Catalog
	logger    *slog.Logger
}

// NewIngestor constructs the ingest use case.
func NewIngestor(deps IngestorDeps) *Ingestor {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Ingestor{
		extractor: deps.Extractor,
		writer:    deps.Writer,
		catalog:   deps.Catalog,
		logger:    logger,
	}
}

// Ingest fetches url, stores its schema.org statements and returns the stored record.
func (i *Ingestor) Ingest(ctx context.Context, url string) (domain.ArticleRecord, error) {
	payload, err := i.extractor.Extract(ctx, url)
	if err != nil {
		return domain.ArticleRecord{}, fmt.Errorf("extract %s: %w", url, err)
	}

	if err := i.writer.InsertNTriples(ctx, payload); err != nil {
		return domain.ArticleRecord{}, fmt.Errorf("store %s: %w", url, err)
	}
	i.logger.Info("article ingested", "url", url, "bytes", len(payload))

	return i.catalog.Article(ctx, url)
}
