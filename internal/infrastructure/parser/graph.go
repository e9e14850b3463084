package parser

import (
	"bytes"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/knakk/rdf"
)

const (
	schemaNS   = "http://schema.org/"
	rdfType    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	xsdInteger = "http://www.w3.org/2001/XMLSchema#integer"
)

// articleProperties are the article-level keys stored in the graph.
var articleProperties = []string{
	"@type", "headline", "abstract", "articleBody", "articleSection", "wordCount", "inLanguage",
	"keywords", "dateCreated", "datePublished", "dateModified", "thumbnailUrl",
	"author", "editor", "publisher", "image", "thumbnail", "audio", "video",
}

// nodeDefaults gives the schema type of nested nodes that do not declare one.
var nodeDefaults = map[string]struct{ typeName, textKey string }{
	"author":    {"Person", "name"},
	"editor":    {"Person", "name"},
	"publisher": {"Organization", "name"},
	"image":     {"ImageObject", "url"},
	"thumbnail": {"ImageObject", "url"},
	"audio":     {"AudioObject", "contentUrl"},
	"video":     {"VideoObject", "contentUrl"},
}

// graphBuilder collects schema.org statements about one page.
// Nested nodes get IRIs under the page URL unless they carry an absolute @id.
type graphBuilder struct {
	base     string
	subject  rdf.IRI
	triples  []rdf.Triple
	counters map[string]int
	present  map[string]bool
}

func newGraphBuilder(pageURL string) (*graphBuilder, error) {
	subject, err := rdf.NewIRI(pageURL)
	if err != nil {
		return nil, fmt.Errorf("subject iri: %w", err)
	}
	base, _, _ := strings.Cut(pageURL, "#")
	return &graphBuilder{
		base:     base,
		subject:  subject,
		counters: map[string]int{},
		present:  map[string]bool{},
	}, nil
}

// addArticle copies the known article properties of a JSON-LD node.
func (g *graphBuilder) addArticle(node map[string]any) {
	for _, key := range articleProperties {
		value, ok := node[key]
		if !ok {
			continue
		}
		switch {
		case key == "@type":
			g.addTypes(g.subject, value)
		case key == "keywords":
			g.addKeywords(value)
		case nodeDefaults[key].typeName != "":
			g.addNodes(key, value)
		default:
			g.addValues(g.subject, key, value)
		}
	}
}

func (g *graphBuilder) has(key string) bool {
	return g.present[key]
}

func (g *graphBuilder) addTypes(subject rdf.Subject, value any) {
	for _, name := range typeNames(value) {
		if obj, err := rdf.NewIRI(schemaNS + name); err == nil {
			g.emit(subject, rdfType, obj)
		}
	}
}

func (g *graphBuilder) addKeywords(value any) {
	switch v := value.(type) {
	case string:
		for _, kw := range strings.Split(v, ",") {
			g.addText(g.subject, "keywords", kw)
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				g.addText(g.subject, "keywords", s)
			}
		}
	}
}

// addNodes stores author, publisher and media values as second-hop nodes.
func (g *graphBuilder) addNodes(key string, value any) {
	defaults := nodeDefaults[key]

	switch v := value.(type) {
	case []any:
		for _, item := range v {
			g.addNodes(key, item)
		}
	case string:
		if strings.TrimSpace(v) == "" {
			return
		}
		g.addNode(key, map[string]any{"@type": defaults.typeName, defaults.textKey: v})
	case map[string]any:
		node := v
		if _, typed := node["@type"]; !typed {
			node = make(map[string]any, len(v)+1)
			for k, val := range v {
				node[k] = val
			}
			node["@type"] = defaults.typeName
		}
		g.addNode(key, node)
	}
}

func (g *graphBuilder) addNode(key string, node map[string]any) {
	nodeIRI, err := g.nodeIRI(key, node)
	if err != nil {
		return
	}
	g.emit(g.subject, schemaNS+key, nodeIRI)

	for _, prop := range slices.Sorted(maps.Keys(node)) {
		value := node[prop]
		switch {
		case prop == "@type":
			g.addTypes(nodeIRI, value)
		case strings.HasPrefix(prop, "@"):
		default:
			g.addValues(nodeIRI, prop, value)
		}
	}
}

func (g *graphBuilder) nodeIRI(key string, node map[string]any) (rdf.IRI, error) {
	if id, ok := node["@id"].(string); ok && (strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://")) {
		return rdf.NewIRI(id)
	}
	g.counters[key]++
	return rdf.NewIRI(fmt.Sprintf("%s#%s-%d", g.base, key, g.counters[key]))
}

// addValues stores scalar values; nested objects collapse to their name or url.
func (g *graphBuilder) addValues(subject rdf.Subject, key string, value any) {
	switch v := value.(type) {
	case string:
		g.addText(subject, key, v)
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			g.addInteger(subject, key, int64(v))
		} else {
			g.addText(subject, key, strconv.FormatFloat(v, 'f', -1, 64))
		}
	case bool:
		g.addText(subject, key, strconv.FormatBool(v))
	case []any:
		for _, item := range v {
			g.addValues(subject, key, item)
		}
	case map[string]any:
		for _, field := range []string{"name", "url", "@id"} {
			if s, ok := v[field].(string); ok && s != "" {
				g.addText(subject, key, s)
				return
			}
		}
	}
}

func (g *graphBuilder) addText(subject rdf.Subject, key, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if key == "wordCount" {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			g.addInteger(subject, key, n)
			return
		}
	}
	obj, err := rdf.NewLiteral(text)
	if err != nil {
		return
	}
	g.emit(subject, schemaNS+key, obj)
}

func (g *graphBuilder) addInteger(subject rdf.Subject, key string, n int64) {
	dt, err := rdf.NewIRI(xsdInteger)
	if err != nil {
		return
	}
	g.emit(subject, schemaNS+key, rdf.NewTypedLiteral(strconv.FormatInt(n, 10), dt))
}

func (g *graphBuilder) emit(subject rdf.Subject, predicate string, object rdf.Object) {
	pred, err := rdf.NewIRI(predicate)
	if err != nil {
		return
	}
	if subject == g.subject {
		g.present[strings.TrimPrefix(predicate, schemaNS)] = true
	}
	g.triples = append(g.triples, rdf.Triple{Subj: subject, Pred: pred, Obj: object})
}

// encode serializes the collected statements as N-Triples.
func (g *graphBuilder) encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := rdf.NewTripleEncoder(&buf, rdf.NTriples)
	for _, t := range g.triples {
		if err := enc.Encode(t); err != nil {
			return nil, fmt.Errorf("encode triple: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("flush triples: %w", err)
	}
	return buf.Bytes(), nil
}
