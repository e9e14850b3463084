package materializer

import (
	"errors"
	"log/slog"
	"slices"
	"strings"

	"ArticleRecommender/internal/domain"
)

var schemaPrefixes = []string{
	"http://schema.org/",
	"https://schema.org/",
}

const rdfType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

// term reduces a schema.org IRI to its local name; rdf:type maps to @type.
func term(iri string) string {
	if iri == rdfType {
		return "@type"
	}
	for _, prefix := range schemaPrefixes {
		if strings.HasPrefix(iri, prefix) {
			return strings.TrimPrefix(iri, prefix)
		}
	}
	return iri
}

// Materializer rebuilds nested article records from flat 2-hop tuple sets.
type Materializer struct {
	agents *registry
	logger *slog.Logger
}

// New builds a materializer that knows Person and Organization agents.
func New(logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Materializer{agents: defaultRegistry(), logger: logger}
}

// entry is a deduplicated collection member plus the node key it sorts by.
type entry[T comparable] struct {
	value T
	key   string
}

// collection keeps structurally unique members in node order.
type collection[T comparable] []entry[T]

// add inserts v unless an equal value exists; the smallest source key wins.
func (c collection[T]) add(v T, key string) collection[T] {
	for i := range c {
		if c[i].value == v {
			if key < c[i].key {
				c[i].key = key
			}
			return c
		}
	}
	return append(c, entry[T]{value: v, key: key})
}

func (c collection[T]) values() []T {
	slices.SortStableFunc(c, func(a, b entry[T]) int { return strings.Compare(a.key, b.key) })
	out := make([]T, 0, len(c))
	for _, e := range c {
		out = append(out, e.value)
	}
	return out
}

// run holds the per-call state of one Materialize invocation.
type run struct {
	url    string
	index  map[string][]statement
	agents map[string]domain.AgentRecord
	images map[string]domain.ImageObject
	clips  map[string]domain.Clip

	keywordNodes map[string]bool
	author       collection[domain.AgentRecord]
	editor       collection[domain.AgentRecord]
	publisher    collection[domain.AgentRecord]
	image        collection[domain.MediaRecord]
	audio        collection[domain.MediaRecord]
	video        collection[domain.MediaRecord]
}

// Materialize reconstructs the record for url. Malformed tuples are logged and
// skipped; unknown predicates and agent types are ignored.
func (m *Materializer) Materialize(url string, tuples []domain.Tuple) domain.ArticleRecord {
	record := domain.NewArticleRecord(url)
	r := &run{
		url:          url,
		index:        indexObjects(tuples),
		agents:       map[string]domain.AgentRecord{},
		images:       map[string]domain.ImageObject{},
		clips:        map[string]domain.Clip{},
		keywordNodes: map[string]bool{},
	}

	for _, t := range tuples {
		if err := m.apply(&record, r, t); err != nil {
			m.logger.Warn("skip malformed tuple",
				"url", url,
				"predicate", t.Predicate,
				"object", t.Object,
				"error", err,
			)
		}
	}

	record.Author = r.author.values()
	record.Editor = r.editor.values()
	record.Publisher = r.publisher.values()
	record.Image = r.image.values()
	record.Audio = r.audio.values()
	record.Video = r.video.values()

	return record
}

// indexObjects groups second-hop statements by their outer object once per call.
// Entries are deduplicated and sorted so builders see the same input for any permutation.
func indexObjects(tuples []domain.Tuple) map[string][]statement {
	index := make(map[string][]statement)
	for _, t := range tuples {
		if !t.HasSub() {
			continue
		}
		index[t.Object] = append(index[t.Object], statement{term: term(t.SubPredicate), value: t.SubObject})
	}
	for object, stmts := range index {
		slices.SortFunc(stmts, func(a, b statement) int {
			if c := strings.Compare(a.term, b.term); c != 0 {
				return c
			}
			return strings.Compare(a.value, b.value)
		})
		index[object] = slices.Compact(stmts)
	}
	return index
}

func (m *Materializer) apply(record *domain.ArticleRecord, r *run, t domain.Tuple) error {
	value := t.Object

	switch term(t.Predicate) {
	case "@type":
		record.Type = prefer(record.Type, term(value))
	case "headline":
		record.Headline = prefer(record.Headline, value)
	case "abstract":
		record.Abstract = prefer(record.Abstract, value)
	case "articleBody":
		record.ArticleBody = prefer(record.ArticleBody, value)
	case "inLanguage":
		record.InLanguage = prefer(record.InLanguage, value)
	case "articleSection":
		record.ArticleSection = prefer(record.ArticleSection, value)
	case "dateCreated":
		record.DateCreated = prefer(record.DateCreated, value)
	case "datePublished":
		record.DatePublished = prefer(record.DatePublished, value)
	case "dateModified":
		record.DateModified = prefer(record.DateModified, value)
	case "thumbnailUrl":
		record.ThumbnailURL = prefer(record.ThumbnailURL, value)
	case "wordCount":
		n, err := parseCount("wordCount", value)
		if err != nil {
			return err
		}
		record.WordCount = prefer(record.WordCount, n)
	case "keywords":
		// An IRI-valued keyword repeats once per second-hop row.
		if t.HasSub() {
			if r.keywordNodes[value] {
				return nil
			}
			r.keywordNodes[value] = true
		}
		record.Keywords = append(record.Keywords, value)
	case "author":
		r.author = m.addAgent(r.author, r, t)
	case "editor":
		r.editor = m.addAgent(r.editor, r, t)
	case "publisher":
		r.publisher = m.addAgent(r.publisher, r, t)
	case "image":
		if img, ok := m.image(r, value); ok {
			r.image = r.image.add(img, value)
		}
	case "thumbnail":
		if img, ok := m.image(r, value); ok {
			record.Thumbnail = img
		}
	case "audio":
		if clip, ok := m.clip(r, value); ok {
			r.audio = r.audio.add(domain.AudioObject{Clip: clip}, value)
		}
	case "video":
		if clip, ok := m.clip(r, value); ok {
			r.video = r.video.add(domain.VideoObject{Clip: clip}, value)
		}
	}

	return nil
}

// addAgent builds an agent only from the row carrying its @type discriminant.
func (m *Materializer) addAgent(agents collection[domain.AgentRecord], r *run, t domain.Tuple) collection[domain.AgentRecord] {
	if !t.HasSub() || term(t.SubPredicate) != "@type" {
		return agents
	}

	typeName := term(t.SubObject)
	key := t.Object + "|" + typeName
	agent, ok := r.agents[key]
	if !ok {
		builder, err := m.agents.resolve(typeName)
		if err != nil {
			if errors.Is(err, errUnknownType) {
				m.logger.Debug("skip agent of unknown type", "url", r.url, "object", t.Object, "type", typeName)
			}
			return agents
		}
		agent = builder(r.index[t.Object])
		r.agents[key] = agent
	}

	return agents.add(agent, key)
}

func (m *Materializer) image(r *run, object string) (domain.ImageObject, bool) {
	img, ok := r.images[object]
	if !ok {
		var errs []error
		img, errs = buildImage(object, r.index[object])
		m.logErrors(r, object, errs)
		r.images[object] = img
	}
	return img, !img.IsZero()
}

func (m *Materializer) clip(r *run, object string) (domain.Clip, bool) {
	clip, ok := r.clips[object]
	if !ok {
		var errs []error
		clip, errs = buildClip(object, r.index[object])
		m.logErrors(r, object, errs)
		r.clips[object] = clip
	}
	return clip, clip != domain.Clip{}
}

func (m *Materializer) logErrors(r *run, object string, errs []error) {
	for _, err := range errs {
		m.logger.Warn("skip malformed media statement", "url", r.url, "object", object, "error", err)
	}
}
