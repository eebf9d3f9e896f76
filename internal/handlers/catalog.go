package handlers

import (
	"context"
	"net/http"

	"testgen-backend/internal/models"
	"testgen-backend/internal/services"
)

type chapterLister interface {
	ListChapters(ctx context.Context, index string) ([]models.ChapterInfo, string, error)
}

// CatalogHandler serves the configured titles and the chapters discovered in
// a title's index.
type CatalogHandler struct {
	catalog *services.TitleCatalog
	search  chapterLister
}

func NewCatalogHandler(catalog *services.TitleCatalog, search chapterLister) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		search:  search,
	}
}

func (h *CatalogHandler) Titles(w http.ResponseWriter, r *http.Request) {
	entries := h.catalog.AvailableTitles()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"available_titles": entries,
		"total_titles":     len(entries),
	})
}

func (h *CatalogHandler) Chapters(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		title = services.DefaultTitle
	}

	index, err := h.catalog.IndexForTitle(title)
	if err != nil {
		handleError(w, err)
		return
	}

	chapters, chapterKey, err := h.search.ListChapters(r.Context(), index)
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"title":            title,
		"index_used":       index,
		"chapters":         chapters,
		"total_chapters":   len(chapters),
		"chapter_key_used": chapterKey,
	})
}
