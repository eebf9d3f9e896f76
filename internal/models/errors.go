package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyChapterName is returned when a content retrieval is attempted
// without a chapter name.
var ErrEmptyChapterName = errors.New("chapter name must be provided")

// UnknownTitleError reports a title with no configured search index,
// carrying the full set of valid titles.
type UnknownTitleError struct {
	Title     string
	Available []string
}

func (e *UnknownTitleError) Error() string {
	return fmt.Sprintf("title %q not found. Available titles: %s", e.Title, strings.Join(e.Available, ", "))
}

// NoContentFoundError reports a chapter query that matched zero chunks.
type NoContentFoundError struct {
	Chapter string
}

func (e *NoContentFoundError) Error() string {
	return fmt.Sprintf("no content found for chapter: %s", e.Chapter)
}

// SearchError wraps a failure from the search cluster.
type SearchError struct {
	Op  string
	Err error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search error during %s: %v", e.Op, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// GenerationError wraps a streaming, network, or JSON-parse failure from the
// model endpoint.
type GenerationError struct {
	Stage string // "stream" or "parse"
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("test bank generation failed (%s): %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// PersistenceError wraps a failure writing a test bank to disk. Callers treat
// it as non-fatal to the request.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to save test bank to %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
