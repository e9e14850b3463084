package ranking

import (
	"errors"
	"maps"
	"math"
	"slices"
	"strings"
)

// ErrEmptyVocabulary is returned when no text in the corpus yields a single n-gram.
var ErrEmptyVocabulary = errors.New("empty vocabulary: corpus has no character n-grams")

// Vector is a sparse, L2-normalised TF-IDF row ordered by vocabulary index.
type Vector []Weight

// Weight is one non-zero cell of a Vector.
type Weight struct {
	Index int
	Value float64
}

// Vectorizer builds character n-gram TF-IDF vectors. No tokenization and no
// stop words, so it works the same for every language and script.
type Vectorizer struct {
	MinN int
	MaxN int
}

// NewVectorizer returns the 3..5 character n-gram vectorizer.
func NewVectorizer() Vectorizer {
	return Vectorizer{MinN: 3, MaxN: 5}
}

// FitTransform learns document frequencies over texts and returns one vector per text.
// Smooth idf: ln((1+N)/(1+df)) + 1.
func (v Vectorizer) FitTransform(texts []string) ([]Vector, error) {
	counts := make([]map[string]float64, len(texts))
	df := map[string]int{}

	for i, text := range texts {
		counts[i] = v.ngramCounts(text)
		for gram := range counts[i] {
			df[gram]++
		}
	}
	if len(df) == 0 {
		return nil, ErrEmptyVocabulary
	}

	vocabulary := slices.Sorted(maps.Keys(df))
	index := make(map[string]int, len(vocabulary))
	idf := make([]float64, len(vocabulary))
	n := float64(len(texts))
	for i, gram := range vocabulary {
		index[gram] = i
		idf[i] = math.Log((1+n)/(1+float64(df[gram]))) + 1
	}

	vectors := make([]Vector, len(texts))
	for i, tf := range counts {
		vec := make(Vector, 0, len(tf))
		for gram, c := range tf {
			j := index[gram]
			vec = append(vec, Weight{Index: j, Value: c * idf[j]})
		}
		slices.SortFunc(vec, func(a, b Weight) int { return a.Index - b.Index })

		var norm float64
		for _, w := range vec {
			norm += w.Value * w.Value
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for k := range vec {
				vec[k].Value /= norm
			}
		}
		vectors[i] = vec
	}

	return vectors, nil
}

func (v Vectorizer) ngramCounts(text string) map[string]float64 {
	runes := []rune(strings.Join(strings.Fields(strings.ToLower(text)), " "))
	counts := map[string]float64{}
	for n := v.MinN; n <= v.MaxN && n <= len(runes); n++ {
		for i := 0; i+n <= len(runes); i++ {
			counts[string(runes[i:i+n])]++
		}
	}
	return counts
}

// Cosine returns the cosine similarity of two L2-normalised vectors.
func Cosine(a, b Vector) float64 {
	var dot float64
	for i, j := 0, 0; i < len(a) && j < len(b); {
		switch {
		case a[i].Index < b[j].Index:
			i++
		case a[i].Index > b[j].Index:
			j++
		default:
			dot += a[i].Value * b[j].Value
			i++
			j++
		}
	}
	return dot
}
