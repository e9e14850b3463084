package ranking

import (
	"log/slog"
	"math"
	"slices"
	"sort"
	"strings"

	"ArticleRecommender/internal/domain"
)

// DefaultTopK is used when Rank receives a non-positive topK.
const DefaultTopK = 10

// Weights controls how similarity and metadata blend into the final score.
type Weights struct {
	Content   float64
	Metadata  float64
	Author    float64
	Publisher float64
	WordCount float64
}

// DefaultWeights: final = 0.7 content + 0.3 metadata; metadata = 0.3 author + 0.3 publisher + 0.4 length.
func DefaultWeights() Weights {
	return Weights{
		Content:   0.7,
		Metadata:  0.3,
		Author:    0.3,
		Publisher: 0.3,
		WordCount: 0.4,
	}
}

// Ranker scores candidates against the articles a reader has viewed.
type Ranker struct {
	vectorizer Vectorizer
	weights    Weights
	logger     *slog.Logger
}

// NewRanker builds a ranker with the default vectorizer and weights.
func NewRanker(logger *slog.Logger) *Ranker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Ranker{
		vectorizer: NewVectorizer(),
		weights:    DefaultWeights(),
		logger:     logger,
	}
}

// Rank returns at most topK candidates ordered by descending final score.
// Excluded URLs are never scored. A degenerate corpus yields an empty result.
func (r *Ranker) Rank(
	viewed []domain.ArticleRecord,
	candidates []domain.ArticleRecord,
	profile domain.PreferenceProfile,
	exclude map[string]struct{},
	topK int,
) []domain.ScoredCandidate {
	if topK <= 0 {
		topK = DefaultTopK
	}

	eligible := make([]domain.ArticleRecord, 0, len(candidates))
	for _, c := range candidates {
		if _, skip := exclude[c.URL]; skip {
			continue
		}
		eligible = append(eligible, c)
	}
	if len(eligible) == 0 || len(viewed) == 0 {
		r.logger.Info("nothing to rank", "viewed", len(viewed), "candidates", len(eligible))
		return []domain.ScoredCandidate{}
	}

	corpus := make([]string, 0, len(viewed)+len(eligible))
	for _, rec := range viewed {
		corpus = append(corpus, Surrogate(rec))
	}
	for _, rec := range eligible {
		corpus = append(corpus, Surrogate(rec))
	}

	vectors, err := r.vectorizer.FitTransform(corpus)
	if err != nil {
		r.logger.Error("ranking articles failed", "error", err)
		return []domain.ScoredCandidate{}
	}
	viewedVecs, candidateVecs := vectors[:len(viewed)], vectors[len(viewed):]

	scored := make([]domain.ScoredCandidate, 0, len(eligible))
	for i, rec := range eligible {
		var sum float64
		for _, v := range viewedVecs {
			sum += Cosine(candidateVecs[i], v)
		}
		similarity := clamp01(sum / float64(len(viewedVecs)))
		metadata := r.MetadataScore(rec, profile)

		scored = append(scored, domain.ScoredCandidate{
			ArticleRecord:   rec,
			SimilarityScore: similarity,
			MetadataScore:   metadata,
			FinalScore:      r.weights.Content*similarity + r.weights.Metadata*metadata,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].FinalScore > scored[j].FinalScore
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

// MetadataScore awards author, publisher and word-count matches against the profile.
func (r *Ranker) MetadataScore(rec domain.ArticleRecord, profile domain.PreferenceProfile) float64 {
	var score float64

	if profile.AuthorName != "" && slices.Contains(rec.AuthorNames(), profile.AuthorName) {
		score += r.weights.Author
	}
	if profile.Publisher != "" && slices.Contains(rec.PublisherNames(), profile.Publisher) {
		score += r.weights.Publisher
	}
	if words, ok := rec.WordCount.Get(); ok && profile.WordCountMin != nil && profile.WordCountMax != nil {
		if *profile.WordCountMin <= words && words <= *profile.WordCountMax {
			score += r.weights.WordCount
		}
	}

	return clamp01(score)
}

// Surrogate is the text an article is compared by: headline, abstract and keywords.
func Surrogate(rec domain.ArticleRecord) string {
	parts := make([]string, 0, 2+len(rec.Keywords))
	if h, ok := rec.Headline.Get(); ok && h != "" {
		parts = append(parts, h)
	}
	if a, ok := rec.Abstract.Get(); ok && a != "" {
		parts = append(parts, a)
	}
	for _, kw := range rec.Keywords {
		parts = append(parts, strings.Fields(kw)...)
	}
	return strings.Join(parts, " ")
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
