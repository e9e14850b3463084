package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"
)

// findArticleNode returns the first JSON-LD node on the page typed as an article.
// Top-level arrays and @graph containers are searched too.
func findArticleNode(doc *goquery.Document) (map[string]any, bool) {
	var found map[string]any

	doc.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return true
		}

		var data any
		if err := json.Unmarshal([]byte(text), &data); err != nil {
			return true
		}

		for _, node := range flattenNodes(data) {
			if isArticleType(node["@type"]) {
				found = node
				return false
			}
		}
		return true
	})

	return found, found != nil
}

func flattenNodes(data any) []map[string]any {
	var nodes []map[string]any
	switch v := data.(type) {
	case []any:
		for _, item := range v {
			nodes = append(nodes, flattenNodes(item)...)
		}
	case map[string]any:
		nodes = append(nodes, v)
		if graph, ok := v["@graph"]; ok {
			nodes = append(nodes, flattenNodes(graph)...)
		}
	}
	return nodes
}

func isArticleType(value any) bool {
	for _, t := range typeNames(value) {
		if strings.HasSuffix(t, "Article") || t == "BlogPosting" || t == "Report" {
			return true
		}
	}
	return false
}

// typeNames reads a JSON-LD @type given as a string or a list of strings.
func typeNames(value any) []string {
	switch v := value.(type) {
	case string:
		return []string{localName(v)}
	case []any:
		var names []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				names = append(names, localName(s))
			}
		}
		return names
	}
	return nil
}

func localName(t string) string {
	t = strings.TrimSpace(t)
	if i := strings.LastIndexAny(t, "/#:"); i >= 0 {
		return t[i+1:]
	}
	return t
}
