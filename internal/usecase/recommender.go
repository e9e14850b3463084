package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"ArticleRecommender/internal/domain"
	"ArticleRecommender/internal/materializer"
	"ArticleRecommender/internal/ports"
	"ArticleRecommender/internal/preferences"
	"ArticleRecommender/internal/ranking"
)

// RecommenderOptions tunes a single recommendation run.
type RecommenderOptions struct {
	DefaultTopK        int
	KeywordLimit       int
	CandidateLimit     int
	CandidateTimeout   time.Duration
	MaterializeWorkers int
	HistoryDepth       int
}

func (o RecommenderOptions) withDefaults() RecommenderOptions {
	if o.DefaultTopK <= 0 {
		o.DefaultTopK = ranking.DefaultTopK
	}
	if o.CandidateLimit <= 0 {
		o.CandidateLimit = 100
	}
	if o.CandidateTimeout <= 0 {
		o.CandidateTimeout = 10 * time.Second
	}
	if o.MaterializeWorkers <= 0 {
		o.MaterializeWorkers = 4
	}
	if o.HistoryDepth <= 0 {
		o.HistoryDepth = 20
	}
	return o
}

// RecommenderDeps wires the driven adapters into the recommender.
type RecommenderDeps struct {
	Graph        ports.ArticleGraph
	Candidates   ports.CandidateSource
	History      ports.HistoryRepository
	Materializer *materializer.Materializer
	Metrics      ports.Metrics
	Logger       *slog.Logger
}

// Recommender runs history → profile → candidates → ranking.
type Recommender struct {
	graph        ports.ArticleGraph
	candidates   ports.CandidateSource
	history      ports.HistoryRepository
	materializer *materializer.Materializer
	extractor    *preferences.Extractor
	ranker       *ranking.Ranker
	metrics      ports.Metrics
	opts         RecommenderOptions
	logger       *slog.Logger
}

// NewRecommender constructs the recommendation use case.
func NewRecommender(deps RecommenderDeps, opts RecommenderOptions) *Recommender {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	mat := deps.Materializer
	if mat == nil {
		mat = materializer.New(logger.With("component", "materializer"))
	}
	opts = opts.withDefaults()

	return &Recommender{
		graph:        deps.Graph,
		candidates:   deps.Candidates,
		history:      deps.History,
		materializer: mat,
		extractor:    preferences.NewExtractor(preferences.Options{KeywordLimit: opts.KeywordLimit}, logger.With("component", "preferences")),
		ranker:       ranking.NewRanker(logger.With("component", "ranking")),
		metrics:      deps.Metrics,
		opts:         opts,
		logger:       logger,
	}
}

// GetRecommendations ranks candidates for a reader who has viewed historyURLs.
// It never fails: every degraded path ends in an empty list.
func (r *Recommender) GetRecommendations(ctx context.Context, historyURLs []string, limit int) []domain.ScoredCandidate {
	started := time.Now()
	results := r.recommend(ctx, historyURLs, limit)
	if r.metrics != nil {
		r.metrics.ObserveRecommendation(time.Since(started), len(results))
	}
	return results
}

// ForReader recommends from the reader's most recent history.
func (r *Recommender) ForReader(ctx context.Context, email string, limit int) ([]domain.ScoredCandidate, error) {
	if r.history == nil {
		return nil, fmt.Errorf("reader history: %w", ErrUnavailable)
	}

	urls, err := r.history.TopHistory(ctx, email, r.opts.HistoryDepth)
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", email, err)
	}

	return r.GetRecommendations(ctx, urls, limit), nil
}

func (r *Recommender) recommend(ctx context.Context, historyURLs []string, limit int) []domain.ScoredCandidate {
	if len(historyURLs) == 0 {
		r.logger.Info("empty history, nothing to recommend")
		return []domain.ScoredCandidate{}
	}

	viewed := r.materializeHistory(ctx, historyURLs)
	if len(viewed) == 0 {
		r.logger.Info("no history article could be loaded", "requested", len(historyURLs))
		return []domain.ScoredCandidate{}
	}

	profile := r.extractor.Extract(viewed)
	r.logger.Debug("preference profile", "keywords", profile.Keywords, "author", profile.AuthorName, "publisher", profile.Publisher)

	filters := profile.Filters()
	filters.Limit = r.opts.CandidateLimit
	candidates := r.searchCandidates(ctx, filters)
	if len(candidates) == 0 {
		r.logger.Info("no candidates found", "keywords", profile.Keywords)
		return []domain.ScoredCandidate{}
	}

	exclude := make(map[string]struct{}, len(historyURLs))
	for _, url := range historyURLs {
		exclude[url] = struct{}{}
	}

	if limit <= 0 {
		limit = r.opts.DefaultTopK
	}
	return r.ranker.Rank(viewed, candidates, profile, exclude, limit)
}

// materializeHistory loads history articles in parallel, keeping history order.
// URLs that fail or describe nothing are skipped.
func (r *Recommender) materializeHistory(ctx context.Context, urls []string) []domain.ArticleRecord {
	slots := make([]*domain.ArticleRecord, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.MaterializeWorkers)
	for i, url := range urls {
		g.Go(func() error {
			tuples, err := r.graph.DescribeArticle(gctx, url)
			if err != nil {
				r.logger.Warn("describe history article failed", "url", url, "error", err)
				if r.metrics != nil {
					r.metrics.MaterializeFailure()
				}
				return nil
			}
			if len(tuples) == 0 {
				r.logger.Info("history article not found", "url", url)
				return nil
			}
			rec := r.materializer.Materialize(url, tuples)
			slots[i] = &rec
			return nil
		})
	}
	_ = g.Wait()

	viewed := make([]domain.ArticleRecord, 0, len(urls))
	for _, rec := range slots {
		if rec != nil {
			viewed = append(viewed, *rec)
		}
	}
	return viewed
}

// searchCandidates issues the strict query and, only when it yields nothing,
// exactly one relaxed query without author and publisher.
func (r *Recommender) searchCandidates(ctx context.Context, filters domain.SearchFilters) []domain.ArticleRecord {
	if found := r.searchOnce(ctx, "strict", filters); len(found) > 0 {
		return found
	}
	return r.searchOnce(ctx, "relaxed", filters.Relaxed())
}

func (r *Recommender) searchOnce(ctx context.Context, stage string, filters domain.SearchFilters) []domain.ArticleRecord {
	ctx, cancel := context.WithTimeout(ctx, r.opts.CandidateTimeout)
	defer cancel()

	found, err := r.candidates.Search(ctx, filters)
	outcome := "hit"
	switch {
	case err != nil:
		outcome = "error"
		r.logger.Warn("candidate search failed", "stage", stage, "error", err)
		found = nil
	case len(found) == 0:
		outcome = "empty"
	}
	if r.metrics != nil {
		r.metrics.CandidateSearch(stage, outcome)
	}
	return found
}
