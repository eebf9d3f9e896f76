package handlers

import (
	"net/http"

	"testgen-backend/internal/models"
)

type fileLister interface {
	List() ([]models.SavedFileInfo, error)
	Dir() string
}

// FilesHandler lists previously saved test-bank files.
type FilesHandler struct {
	store fileLister
}

func NewFilesHandler(store fileLister) *FilesHandler {
	return &FilesHandler{store: store}
}

func (h *FilesHandler) List(w http.ResponseWriter, r *http.Request) {
	files, err := h.store.List()
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"files":            files,
		"total_files":      len(files),
		"output_directory": h.store.Dir(),
	})
}
