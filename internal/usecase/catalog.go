package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ArticleRecommender/internal/domain"
	"ArticleRecommender/internal/materializer"
	"ArticleRecommender/internal/ports"
)

// CatalogDeps wires the graph adapters used for browsing and curation.
type CatalogDeps struct {
	Graph        ports.ArticleGraph
	Searcher     ports.ArticleSearcher
	Writer       ports.GraphWriter
	Materializer *materializer.Materializer
	Logger       *slog.Logger
}

// Catalog looks up, searches, lists and deletes archived articles.
type Catalog struct {
	graph        ports.ArticleGraph
	searcher     ports.ArticleSearcher
	writer       ports.GraphWriter
	materializer *materializer.Materializer
	limit        int
	logger       *slog.Logger
}

// NewCatalog constructs the catalog use case; limit bounds search and list results.
func NewCatalog(deps CatalogDeps, limit int) *Catalog {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	mat := deps.Materializer
	if mat == nil {
		mat = materializer.New(logger.With("component", "materializer"))
	}
	if limit <= 0 {
		limit = 100
	}

	return &Catalog{
		graph:        deps.Graph,
		searcher:     deps.Searcher,
		writer:       deps.Writer,
		materializer: mat,
		limit:        limit,
		logger:       logger,
	}
}

// Article returns one materialized article.
func (c *Catalog) Article(ctx context.Context, url string) (domain.ArticleRecord, error) {
	tuples, err := c.graph.DescribeArticle(ctx, url)
	if err != nil {
		return domain.ArticleRecord{}, fmt.Errorf("describe %s: %w", url, err)
	}
	if len(tuples) == 0 {
		return domain.ArticleRecord{}, fmt.Errorf("%s: %w", url, ErrNotFound)
	}
	return c.materializer.Materialize(url, tuples), nil
}

// SearchKeywords finds articles carrying all of the space-separated keywords,
// falling back to any of them.
func (c *Catalog) SearchKeywords(ctx context.Context, keywords string) ([]domain.ArticleRecord, domain.MatchKind, error) {
	keywords = strings.Join(strings.Fields(keywords), " ")
	return c.AdvancedSearch(ctx, domain.SearchFilters{Keywords: keywords})
}

// AdvancedSearch runs an exact match over every given filter and, failing that, a partial one.
func (c *Catalog) AdvancedSearch(ctx context.Context, filters domain.SearchFilters) ([]domain.ArticleRecord, domain.MatchKind, error) {
	if filters.Empty() {
		return nil, domain.MatchNone, ErrEmptyQuery
	}
	if filters.Limit <= 0 || filters.Limit > c.limit {
		filters.Limit = c.limit
	}

	found, kind, err := c.searcher.SearchMatches(ctx, filters)
	if err != nil {
		return nil, domain.MatchNone, fmt.Errorf("search articles: %w", err)
	}
	c.logger.Debug("search finished", "match", kind, "results", len(found))
	return found, kind, nil
}

// All lists archived articles up to the catalog limit.
func (c *Catalog) All(ctx context.Context) ([]domain.ArticleRecord, error) {
	found, err := c.searcher.ListArticles(ctx, c.limit)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return found, nil
}

// Delete removes an article. Agents it references stay in the graph.
func (c *Catalog) Delete(ctx context.Context, url string) error {
	if _, err := c.Article(ctx, url); err != nil {
		return err
	}
	if err := c.writer.DeleteArticle(ctx, url); err != nil {
		return fmt.Errorf("delete %s: %w", url, err)
	}
	c.logger.Info("article deleted", "url", url)
	return nil
}
