package ports

import (
	"context"
	"time"

	"ArticleRecommender/internal/domain"
)

// ArticleGraph returns the 2-hop tuple expansion of a single article subject.
type ArticleGraph interface {
	DescribeArticle(ctx context.Context, url string) ([]domain.Tuple, error)
}

// CandidateSource retrieves materialized articles matching the given filters.
type CandidateSource interface {
	Search(ctx context.Context, filters domain.SearchFilters) ([]domain.ArticleRecord, error)
}

// ArticleSearcher runs exact-then-partial searches and lists the archive.
type ArticleSearcher interface {
	SearchMatches(ctx context.Context, filters domain.SearchFilters) ([]domain.ArticleRecord, domain.MatchKind, error)
	ListArticles(ctx context.Context, limit int) ([]domain.ArticleRecord, error)
}

// GraphWriter mutates the knowledge graph.
type GraphWriter interface {
	InsertNTriples(ctx context.Context, payload []byte) error
	DeleteArticle(ctx context.Context, url string) error
}

// PageExtractor downloads an article page and returns its schema.org statements as N-Triples.
type PageExtractor interface {
	Extract(ctx context.Context, url string) ([]byte, error)
}

// HistoryRepository persists reader history and favorites.
type HistoryRepository interface {
	AddHistory(ctx context.Context, email, url string) error
	History(ctx context.Context, email string) ([]domain.HistoryEntry, error)
	TopHistory(ctx context.Context, email string, limit int) ([]string, error)
	AddFavorite(ctx context.Context, email, url string) error
	RemoveFavorite(ctx context.Context, email, url string) error
	Favorites(ctx context.Context, email string) ([]domain.Favorite, error)
	FavoritedAmong(ctx context.Context, email string, urls []string) (map[string]bool, error)
}

// Metrics records pipeline observations.
type Metrics interface {
	ObserveRecommendation(elapsed time.Duration, results int)
	CandidateSearch(stage, outcome string)
	MaterializeFailure()
}
