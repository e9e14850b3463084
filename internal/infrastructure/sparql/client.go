package sparql

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
)

var (
	// ErrUnexpectedStatus is returned when the triple store answers with a non-2xx status.
	ErrUnexpectedStatus = errors.New("sparql: unexpected status")
	// ErrCallerGone marks a request abandoned because the caller's context ended first.
	ErrCallerGone = errors.New("request abandoned by caller")
)

const (
	contentTypeQuery    = "application/sparql-query"
	contentTypeUpdate   = "application/sparql-update"
	contentTypeNTriples = "application/n-triples"
	acceptResultsJSON   = "application/sparql-results+json"
	maxErrorBody        = 512
)

// Observer receives request outcomes and breaker transitions.
type Observer interface {
	SPARQLRequest(operation string, err error)
	SetBreakerState(name string, state int)
}

// Config describes how to reach a Fuseki-style dataset.
type Config struct {
	Endpoint        string
	Dataset         string
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// Term is one RDF term of a SELECT result binding.
type Term struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// Binding maps variable names to the terms bound in one result row.
type Binding map[string]Term

// Value returns the bound value and whether the variable is bound.
func (b Binding) Value(name string) (string, bool) {
	t, ok := b[name]
	return t.Value, ok
}

// Node is like Value but keeps blank nodes apart from IRIs and literals by their _: prefix.
func (b Binding) Node(name string) (string, bool) {
	t, ok := b[name]
	if ok && t.Type == "bnode" {
		return "_:" + t.Value, true
	}
	return t.Value, ok
}

type selectResponse struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []Binding `json:"bindings"`
	} `json:"results"`
}

// Client talks to the query, update and data endpoints of one dataset.
type Client struct {
	httpClient *http.Client
	queryURL   string
	updateURL  string
	dataURL    string
	cb         *gobreaker.CircuitBreaker[[]byte]
	observer   Observer
	logger     *slog.Logger
}

// NewClient builds a client guarded by a circuit breaker.
func NewClient(cfg Config, httpClient *http.Client, observer Observer, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}

	base := strings.TrimRight(cfg.Endpoint, "/") + "/" + strings.Trim(cfg.Dataset, "/")
	c := &Client{
		httpClient: httpClient,
		queryURL:   base + "/query",
		updateURL:  base + "/update",
		dataURL:    base + "/data",
		observer:   observer,
		logger:     logger,
	}

	name := "sparql-" + strings.Trim(cfg.Dataset, "/")
	if observer != nil {
		observer.SetBreakerState(name, 0)
	}
	c.cb = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Caller cancellations and deadlines are not store failures.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrCallerGone)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("sparql breaker state changed", "name", name, "from", from.String(), "to", to.String())
			if observer != nil {
				observer.SetBreakerState(name, int(to))
			}
		},
	})

	return c
}

// Select runs a SELECT query and returns its bindings.
func (c *Client) Select(ctx context.Context, query string) ([]Binding, error) {
	body, err := c.do(ctx, "select", c.queryURL, contentTypeQuery, acceptResultsJSON, []byte(query))
	if err != nil {
		return nil, err
	}

	var resp selectResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode sparql results: %w", err)
	}
	return resp.Results.Bindings, nil
}

// Update runs a SPARQL 1.1 update request.
func (c *Client) Update(ctx context.Context, update string) error {
	_, err := c.do(ctx, "update", c.updateURL, contentTypeUpdate, "", []byte(update))
	return err
}

// Upload adds N-Triples to the default graph.
func (c *Client) Upload(ctx context.Context, ntriples []byte) error {
	_, err := c.do(ctx, "upload", c.dataURL, contentTypeNTriples, "", ntriples)
	return err
}

func (c *Client) do(ctx context.Context, operation, url, contentType, accept string, payload []byte) ([]byte, error) {
	body, err := c.cb.Execute(func() ([]byte, error) {
		body, err := c.roundTrip(ctx, url, contentType, accept, payload)
		if err != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrCallerGone, err)
		}
		return body, err
	})
	if c.observer != nil {
		c.observer.SPARQLRequest(operation, err)
	}
	if err != nil {
		return nil, fmt.Errorf("sparql %s: %w", operation, err)
	}
	return body, nil
}

func (c *Client) roundTrip(ctx context.Context, url, contentType, accept string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet := truncate(string(body), maxErrorBody)
		return nil, fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(snippet))
	}

	return body, nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
