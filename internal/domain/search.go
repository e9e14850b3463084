package domain

import "time"

// MatchKind tells whether a search was satisfied by all filters or by any of them.
type MatchKind string

const (
	MatchExact   MatchKind = "exact"
	MatchPartial MatchKind = "partial"
	MatchNone    MatchKind = "none"
)

// SearchFilters narrows the candidate set. Zero values mean "no restriction".
type SearchFilters struct {
	Keywords          string     `json:"keywords,omitempty"`
	WordCount         *int       `json:"wordcount,omitempty"`
	WordCountMin      *int       `json:"wordcount_min,omitempty"`
	WordCountMax      *int       `json:"wordcount_max,omitempty"`
	InLanguage        string     `json:"inLanguage,omitempty"`
	AuthorName        string     `json:"author_name,omitempty"`
	AuthorNationality string     `json:"author_nationality,omitempty"`
	Publisher         string     `json:"publisher,omitempty"`
	DatePublished     *time.Time `json:"datePublished,omitempty"`
	DatePublishedMin  *time.Time `json:"datePublished_min,omitempty"`
	DatePublishedMax  *time.Time `json:"datePublished_max,omitempty"`
	Limit             int        `json:"limit,omitempty"`
}

// Relaxed drops the agent constraints, keeping everything else.
func (f SearchFilters) Relaxed() SearchFilters {
	f.AuthorName = ""
	f.Publisher = ""
	return f
}

// Empty reports whether no filter is set.
func (f SearchFilters) Empty() bool {
	return f.Keywords == "" &&
		f.WordCount == nil &&
		(f.WordCountMin == nil || f.WordCountMax == nil) &&
		f.InLanguage == "" &&
		f.AuthorName == "" &&
		f.AuthorNationality == "" &&
		f.Publisher == "" &&
		f.DatePublished == nil &&
		(f.DatePublishedMin == nil || f.DatePublishedMax == nil)
}

// HistoryEntry is one article view recorded for a reader.
type HistoryEntry struct {
	Email      string    `json:"email"`
	ArticleURL string    `json:"article_url"`
	AccessedAt time.Time `json:"date_accessed"`
}

// Favorite is an article bookmarked by a reader.
type Favorite struct {
	Email       string    `json:"email"`
	ArticleURL  string    `json:"article_url"`
	FavoritedAt time.Time `json:"date_favorited"`
}
