package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"testgen-backend/internal/models"
)

// FileStoreService writes generated test banks to the output directory and
// lists what has been written. Saving is best-effort for callers: a failed
// save is reported, never escalated.
type FileStoreService struct {
	dir string
}

func NewFileStoreService(dir string) *FileStoreService {
	return &FileStoreService{dir: dir}
}

func (s *FileStoreService) Dir() string {
	return s.dir
}

// Save writes the test bank as pretty-printed JSON and returns the file path.
func (s *FileStoreService) Save(title, chapter string, bank *models.TestBank) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", &models.PersistenceError{Path: s.dir, Err: err}
	}

	filename := fmt.Sprintf("%s_%s_test_bank_%s.json",
		sanitizeName(title),
		sanitizeName(chapter),
		time.Now().Format("20060102_150405"),
	)
	path := filepath.Join(s.dir, filename)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(bank); err != nil {
		return "", &models.PersistenceError{Path: path, Err: err}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", &models.PersistenceError{Path: path, Err: err}
	}

	return path, nil
}

// List returns filesystem metadata for every regular file in the output
// directory. A missing directory yields an empty list.
func (s *FileStoreService) List() ([]models.SavedFileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.SavedFileInfo{}, nil
		}
		return nil, &models.PersistenceError{Path: s.dir, Err: err}
	}

	files := make([]models.SavedFileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, models.SavedFileInfo{
			Filename:  entry.Name(),
			Filepath:  filepath.Join(s.dir, entry.Name()),
			SizeBytes: info.Size(),
			Created:   info.ModTime(),
			Modified:  info.ModTime(),
		})
	}

	return files, nil
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9 _-]`)

// sanitizeName reduces a title or chapter name to a filesystem-safe token:
// only alphanumerics, spaces, hyphens, and underscores survive; trailing
// whitespace is trimmed; the result is lowercased with spaces as underscores.
func sanitizeName(name string) string {
	clean := unsafeNameChars.ReplaceAllString(name, "")
	clean = strings.TrimRight(clean, " ")
	clean = strings.ToLower(clean)
	return strings.ReplaceAll(clean, " ", "_")
}
