package services

import (
	"sort"

	"testgen-backend/internal/models"
)

// DefaultTitle is used when a request leaves the title unset.
const DefaultTitle = "An Invitation to Health"

// defaultIndexMap maps book titles to their OpenSearch index names. The map
// is fixed at process start; every title-scoped request resolves through it.
var defaultIndexMap = map[string]string{
	"An Invitation to Health": "chunk_357973585",
	"Steps to writing well":   "chunk_1337899796",
}

// TitleCatalog resolves human-readable book titles to search index names.
type TitleCatalog struct {
	indexMap map[string]string
}

func NewTitleCatalog() *TitleCatalog {
	return &TitleCatalog{indexMap: defaultIndexMap}
}

// NewTitleCatalogFromMap builds a catalog over a caller-supplied mapping.
func NewTitleCatalogFromMap(indexMap map[string]string) *TitleCatalog {
	return &TitleCatalog{indexMap: indexMap}
}

// IndexForTitle returns the index name for a title. Lookup is case-sensitive;
// an unknown title yields an UnknownTitleError carrying the valid title set.
func (c *TitleCatalog) IndexForTitle(title string) (string, error) {
	index, ok := c.indexMap[title]
	if !ok {
		return "", &models.UnknownTitleError{Title: title, Available: c.Titles()}
	}
	return index, nil
}

// Titles returns the configured titles in sorted order.
func (c *TitleCatalog) Titles() []string {
	titles := make([]string, 0, len(c.indexMap))
	for title := range c.indexMap {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}

// AvailableTitles returns the full title/index entries for the titles
// endpoint, sorted by title.
func (c *TitleCatalog) AvailableTitles() []models.TitleEntry {
	entries := make([]models.TitleEntry, 0, len(c.indexMap))
	for _, title := range c.Titles() {
		entries = append(entries, models.TitleEntry{Title: title, Index: c.indexMap[title]})
	}
	return entries
}
