package domain

import (
	"encoding/json"
	"time"
)

// SchemaContext is emitted as @context on every materialized record.
const SchemaContext = "http://schema.org"

// Nullable carries an optional value that marshals to JSON null when unset.
// It stays comparable for comparable T, so records built from it support ==.
type Nullable[T comparable] struct {
	Value T
	Valid bool
}

// Some wraps a present value.
func Some[T comparable](v T) Nullable[T] {
	return Nullable[T]{Value: v, Valid: true}
}

// Get returns the value and whether it is present.
func (n Nullable[T]) Get() (T, bool) {
	return n.Value, n.Valid
}

// MarshalJSON implements json.Marshaler.
func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = Nullable[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Some(v)
	return nil
}

// ArticleRecord is the canonical unit of content reconstructed from the knowledge graph.
type ArticleRecord struct {
	Context        string           `json:"@context"`
	Type           Nullable[string] `json:"@type"`
	URL            string           `json:"url"`
	Headline       Nullable[string] `json:"headline"`
	Abstract       Nullable[string] `json:"abstract"`
	ArticleBody    Nullable[string] `json:"articleBody"`
	WordCount      Nullable[int]    `json:"wordCount"`
	InLanguage     Nullable[string] `json:"inLanguage"`
	ArticleSection Nullable[string] `json:"articleSection"`
	DateCreated    Nullable[string] `json:"dateCreated"`
	DatePublished  Nullable[string] `json:"datePublished"`
	DateModified   Nullable[string] `json:"dateModified"`
	ThumbnailURL   Nullable[string] `json:"thumbnailUrl"`
	Keywords       []string         `json:"keywords"`
	Author         []AgentRecord    `json:"author"`
	Editor         []AgentRecord    `json:"editor"`
	Publisher      []AgentRecord    `json:"publisher"`
	Image          []MediaRecord    `json:"image"`
	Audio          []MediaRecord    `json:"audio"`
	Video          []MediaRecord    `json:"video"`
	Thumbnail      MediaRecord      `json:"thumbnail"`
}

// NewArticleRecord returns an empty record with non-nil collections.
func NewArticleRecord(url string) ArticleRecord {
	return ArticleRecord{
		Context:   SchemaContext,
		URL:       url,
		Keywords:  []string{},
		Author:    []AgentRecord{},
		Editor:    []AgentRecord{},
		Publisher: []AgentRecord{},
		Image:     []MediaRecord{},
		Audio:     []MediaRecord{},
		Video:     []MediaRecord{},
	}
}

// AuthorNames lists the names of all authors that carry one.
func (a ArticleRecord) AuthorNames() []string {
	return agentNames(a.Author)
}

// PublisherNames lists the names of all publishers that carry one.
func (a ArticleRecord) PublisherNames() []string {
	return agentNames(a.Publisher)
}

func agentNames(agents []AgentRecord) []string {
	names := make([]string, 0, len(agents))
	for _, agent := range agents {
		if name, ok := agent.AgentName(); ok && name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Tuple is one 2-hop binding row: <subject> Predicate Object [. Object SubPredicate SubObject].
// Empty SubPredicate/SubObject mean the second hop was not bound.
type Tuple struct {
	Predicate    string
	Object       string
	SubPredicate string
	SubObject    string
}

// HasSub reports whether the row carries a second hop.
func (t Tuple) HasSub() bool {
	return t.SubPredicate != ""
}

// PreferenceProfile is the statistical summary of a reader's history.
type PreferenceProfile struct {
	Keywords         string     `json:"keywords,omitempty"`
	WordCountMin     *int       `json:"wordcount_min,omitempty"`
	WordCountMax     *int       `json:"wordcount_max,omitempty"`
	AuthorName       string     `json:"author_name,omitempty"`
	Publisher        string     `json:"publisher,omitempty"`
	DatePublishedMin *time.Time `json:"datePublished_min,omitempty"`
	DatePublishedMax *time.Time `json:"datePublished_max,omitempty"`
}

// Filters converts the profile into candidate search filters without a language restriction.
func (p PreferenceProfile) Filters() SearchFilters {
	return SearchFilters{
		Keywords:         p.Keywords,
		WordCountMin:     p.WordCountMin,
		WordCountMax:     p.WordCountMax,
		AuthorName:       p.AuthorName,
		Publisher:        p.Publisher,
		DatePublishedMin: p.DatePublishedMin,
		DatePublishedMax: p.DatePublishedMax,
	}
}

// ScoredCandidate is a ranked recommendation.
type ScoredCandidate struct {
	ArticleRecord
	SimilarityScore float64 `json:"similarity_score"`
	MetadataScore   float64 `json:"metadata_score"`
	FinalScore      float64 `json:"final_score"`
}
