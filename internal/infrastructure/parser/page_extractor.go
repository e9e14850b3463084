package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ArticleRecommender/internal/ports"
)

// ErrNoArticle means the page carries neither an article JSON-LD block nor a title.
var ErrNoArticle = errors.New("page does not describe an article")

const minParagraphLength = 40

var _ ports.PageExtractor = (*PageExtractor)(nil)

// PageExtractor downloads a page and turns its schema.org article markup into N-Triples.
type PageExtractor struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

// NewPageExtractor wires an HTTP client; nil gets a 20s timeout client.
func NewPageExtractor(client *http.Client, userAgent string, logger *slog.Logger) *PageExtractor {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if userAgent == "" {
		userAgent = "ArticleRecommender/1.0"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PageExtractor{client: client, userAgent: userAgent, logger: logger}
}

// Extract returns the page's article statements with pageURL as subject.
// Body, word count, language, keywords and headline are derived from the HTML when the markup lacks them.
func (p *PageExtractor) Extract(ctx context.Context, pageURL string) ([]byte, error) {
	doc, err := p.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	graph, err := newGraphBuilder(pageURL)
	if err != nil {
		return nil, err
	}

	node, ok := findArticleNode(doc)
	if ok {
		graph.addArticle(node)
	} else {
		p.logger.Info("no article json-ld, falling back to html", "url", pageURL)
	}

	if !graph.has("headline") {
		graph.addText(graph.subject, "headline", pageTitle(doc))
	}
	if !graph.has("headline") {
		return nil, fmt.Errorf("%s: %w", pageURL, ErrNoArticle)
	}
	if !graph.has(rdfType) {
		graph.addTypes(graph.subject, "Article")
	}

	body := stringValue(node, "articleBody")
	if body == "" {
		body = bodyText(doc)
		graph.addText(graph.subject, "articleBody", body)
	}
	if !graph.has("wordCount") && body != "" {
		graph.addText(graph.subject, "wordCount", strconv.Itoa(len(strings.Fields(body))))
	}
	if !graph.has("inLanguage") {
		lang, _ := doc.Find("html").Attr("lang")
		graph.addText(graph.subject, "inLanguage", lang)
	}
	if !graph.has("keywords") {
		if content, exists := doc.Find("meta[name='keywords']").Attr("content"); exists {
			graph.addKeywords(content)
		}
	}

	payload, err := graph.encode()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pageURL, err)
	}
	p.logger.Debug("page extracted", "url", pageURL, "statements", len(graph.triples))
	return payload, nil
}

func (p *PageExtractor) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %s", pageURL, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func pageTitle(doc *goquery.Document) string {
	if title, ok := doc.Find("meta[property='og:title']").Attr("content"); ok && strings.TrimSpace(title) != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// bodyText joins the substantial paragraphs of the <article> element, or of the whole body.
func bodyText(doc *goquery.Document) string {
	scope := doc.Find("article").First()
	if scope.Length() == 0 {
		scope = doc.Find("body")
		scope.Find("header, footer, nav, aside, script, style").Remove()
	}

	var parts []string
	scope.Find("p").Each(func(_ int, s *goquery.Selection) {
		text := strings.Join(strings.Fields(s.Text()), " ")
		if len(text) > minParagraphLength {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n")
}

func stringValue(node map[string]any, key string) string {
	s, _ := node[key].(string)
	return strings.TrimSpace(s)
}
