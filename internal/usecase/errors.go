package usecase

import "errors"

var (
	// ErrNotFound means the graph holds no statements about the article.
	ErrNotFound = errors.New("article not found")
	// ErrEmptyQuery means a search was issued without any filter.
	ErrEmptyQuery = errors.New("no search criteria given")
	// ErrUnavailable means an optional backend is not configured.
	ErrUnavailable = errors.New("backend not configured")
)
