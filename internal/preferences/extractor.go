package preferences

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"ArticleRecommender/internal/domain"
)

// DefaultKeywordLimit is how many keywords a profile keeps.
const DefaultKeywordLimit = 10

// Options tunes the extractor.
type Options struct {
	KeywordLimit int
}

// Extractor reduces a reading history to a preference profile.
type Extractor struct {
	opts   Options
	logger *slog.Logger
}

// NewExtractor builds an extractor; a non-positive keyword limit falls back to the default.
func NewExtractor(opts Options, logger *slog.Logger) *Extractor {
	if opts.KeywordLimit <= 0 {
		opts.KeywordLimit = DefaultKeywordLimit
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{opts: opts, logger: logger}
}

// Extract computes the profile. Fields without contributing data stay absent.
func (e *Extractor) Extract(records []domain.ArticleRecord) domain.PreferenceProfile {
	var (
		profile    domain.PreferenceProfile
		wordCounts []float64
		dates      []time.Time
		keywords   = newCounter()
		authors    = newCounter()
		publishers = newCounter()
	)

	for _, rec := range records {
		if n, ok := rec.WordCount.Get(); ok {
			wordCounts = append(wordCounts, float64(n))
		}

		if raw, ok := rec.DatePublished.Get(); ok && raw != "" {
			published, err := ParseDate(raw)
			if err != nil {
				e.logger.Error("invalid date format", "url", rec.URL, "datePublished", raw, "error", err)
			} else {
				dates = append(dates, published)
			}
		}

		keywords.addAll(keywordTokens(rec.Keywords))
		authors.addAll(rec.AuthorNames())
		publishers.addAll(rec.PublisherNames())
	}

	if len(wordCounts) > 0 {
		low := int(Percentile(wordCounts, 25))
		high := int(Percentile(wordCounts, 75))
		profile.WordCountMin = &low
		profile.WordCountMax = &high
	}

	if len(dates) > 0 {
		lo, hi := slices.MinFunc(dates, time.Time.Compare), slices.MaxFunc(dates, time.Time.Compare)
		profile.DatePublishedMin = &lo
		profile.DatePublishedMax = &hi
	}

	profile.Keywords = strings.Join(keywords.top(e.opts.KeywordLimit), " ")
	if top := authors.top(1); len(top) == 1 {
		profile.AuthorName = top[0]
	}
	if top := publishers.top(1); len(top) == 1 {
		profile.Publisher = top[0]
	}

	return profile
}

// keywordTokens keeps every keyword whole, trimmed; blanks are dropped.
func keywordTokens(keywords []string) []string {
	tokens := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			tokens = append(tokens, kw)
		}
	}
	return tokens
}

// Percentile returns the p-th percentile with linear interpolation between closest ranks.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	pos := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*frac
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ParseDate reads an ISO-8601 date or timestamp; values without an offset are UTC.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date %q", raw)
}
