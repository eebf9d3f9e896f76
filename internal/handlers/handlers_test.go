package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"testgen-backend/internal/handlers"
	"testgen-backend/internal/models"
	"testgen-backend/internal/router"
	"testgen-backend/internal/services"
)

// ─── Fakes ───

type fakeSearch struct {
	chapters    []models.ChapterInfo
	chapterKey  string
	content     string
	err         error
	lastIndex   string
	lastChapter string
}

func (f *fakeSearch) ListChapters(ctx context.Context, index string) ([]models.ChapterInfo, string, error) {
	f.lastIndex = index
	return f.chapters, f.chapterKey, f.err
}

func (f *fakeSearch) RetrieveChapterContent(ctx context.Context, index, chapterName string, maxChunks, maxChars int) (string, error) {
	f.lastIndex = index
	f.lastChapter = chapterName
	if chapterName == "" {
		return "", models.ErrEmptyChapterName
	}
	return f.content, f.err
}

type fakeGenerator struct {
	bank     *models.TestBank
	err      error
	gotTotal int
	gotLOs   map[string]string
}

func (f *fakeGenerator) GenerateTestBank(ctx context.Context, chapterContent string, learningObjectives map[string]string, numTotal, numMCQ, numTF, numArgs int) (*models.TestBank, error) {
	f.gotTotal = numTotal
	f.gotLOs = learningObjectives
	return f.bank, f.err
}

type fakeStore struct {
	path  string
	err   error
	saves int
	files []models.SavedFileInfo
}

func (f *fakeStore) Save(title, chapter string, bank *models.TestBank) (string, error) {
	f.saves++
	return f.path, f.err
}

func (f *fakeStore) List() ([]models.SavedFileInfo, error) { return f.files, f.err }

func (f *fakeStore) Dir() string { return "./output" }

func newTestRouter(search *fakeSearch, generator *fakeGenerator, store *fakeStore) http.Handler {
	catalog := services.NewTitleCatalog()
	return router.New(
		handlers.NewSystemHandler(),
		handlers.NewCatalogHandler(catalog, search),
		handlers.NewTestBankHandler(catalog, search, generator, store),
		handlers.NewFilesHandler(store),
		"*",
		1000,
	)
}

func doRequest(t *testing.T, h http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reader = bytes.NewReader(jsonBody)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var parsed map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("Response is not JSON: %v (%s)", err, rr.Body.String())
	}
	return rr, parsed
}

func sampleBank() *models.TestBank {
	return &models.TestBank{
		Title:   "An Invitation to Health",
		Chapter: "Chapter 1 Taking Charge of Your Health",
		Questions: []models.TestBankQuestion{
			{
				ID: "1", Type: "multiple-choice", LearningObjective: "LO1",
				QuestionText: "What is wellness?",
				Options: []models.TestBankOption{
					{Label: "A", Text: "A state of optimal well-being"},
					{Label: "B", Text: "The absence of disease"},
					{Label: "C", Text: "Physical fitness"},
					{Label: "D", Text: "A medical diagnosis"},
				},
				CorrectAnswer: "A", Rationale: "Defined in the chapter opener.",
			},
			{ID: "2", Type: "true-false", LearningObjective: "LO2", QuestionText: "Health has multiple dimensions?", CorrectAnswer: "True", Rationale: "The chapter lists six dimensions."},
			{ID: "3", Type: "argument", LearningObjective: "LO3", QuestionText: "Evaluate the health status of Americans.", CorrectAnswer: "A supported analysis", Rationale: "Drawn from the statistics section."},
		},
	}
}

// ─── System endpoints ───

func TestRootAndHealth(t *testing.T) {
	h := newTestRouter(&fakeSearch{}, &fakeGenerator{}, &fakeStore{})

	rr, body := doRequest(t, h, http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if msg, _ := body["message"].(string); msg == "" {
		t.Error("Expected welcome message")
	}

	rr, body = doRequest(t, h, http.MethodGet, "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if body["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", body["status"])
	}
	if body["timestamp"] == nil {
		t.Error("Expected timestamp in health response")
	}
}

// ─── Titles ───

func TestListTitles(t *testing.T) {
	h := newTestRouter(&fakeSearch{}, &fakeGenerator{}, &fakeStore{})

	rr, body := doRequest(t, h, http.MethodGet, "/api/v1/titles/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if body["total_titles"].(float64) != 2 {
		t.Errorf("Expected 2 titles, got %v", body["total_titles"])
	}

	titles := body["available_titles"].([]interface{})
	first := titles[0].(map[string]interface{})
	if first["title"] != "An Invitation to Health" || first["index"] != "chunk_357973585" {
		t.Errorf("Unexpected first title entry: %v", first)
	}
}

// ─── Chapters ───

func TestListChapters_DefaultTitle(t *testing.T) {
	search := &fakeSearch{
		chapters: []models.ChapterInfo{
			{Name: "Chapter 1 Taking Charge of Your Health", DocCount: 42},
			{Name: "Chapter 2 Psychological Well-Being", DocCount: 38},
		},
		chapterKey: "toc_level_2_title",
	}
	h := newTestRouter(search, &fakeGenerator{}, &fakeStore{})

	rr, body := doRequest(t, h, http.MethodGet, "/api/v1/chapters/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", rr.Code, body)
	}
	if body["title"] != "An Invitation to Health" {
		t.Errorf("Expected default title, got %v", body["title"])
	}
	if body["index_used"] != "chunk_357973585" {
		t.Errorf("Expected index chunk_357973585, got %v", body["index_used"])
	}
	if body["total_chapters"].(float64) != 2 {
		t.Errorf("Expected 2 chapters, got %v", body["total_chapters"])
	}
	if body["chapter_key_used"] != "toc_level_2_title" {
		t.Errorf("Expected chapter_key_used toc_level_2_title, got %v", body["chapter_key_used"])
	}
}

func TestListChapters_UnknownTitle(t *testing.T) {
	h := newTestRouter(&fakeSearch{}, &fakeGenerator{}, &fakeStore{})

	rr, body := doRequest(t, h, http.MethodGet, "/api/v1/chapters/?title=Nonexistent+Book", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rr.Code)
	}

	detail := body["detail"].(string)
	for _, title := range []string{"An Invitation to Health", "Steps to writing well"} {
		if !strings.Contains(detail, title) {
			t.Errorf("Expected detail to list %q, got %q", title, detail)
		}
	}
}

// ─── Test bank generation ───

func TestGenerateTestBank_Success(t *testing.T) {
	search := &fakeSearch{content: "Chapter text about health."}
	generator := &fakeGenerator{bank: sampleBank()}
	store := &fakeStore{}
	h := newTestRouter(search, generator, store)

	rr, body := doRequest(t, h, http.MethodPost, "/api/v1/test-bank/generate/", map[string]interface{}{
		"title":        "An Invitation to Health",
		"chapter_name": "Chapter 1 Taking Charge of Your Health",
		"num_total_qs": 3,
		"num_mcq_qs":   1,
		"num_tf_qs":    1,
		"num_args_qs":  1,
		"save_to_file": false,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", rr.Code, body)
	}
	questions := body["questions"].([]interface{})
	if len(questions) != 3 {
		t.Fatalf("Expected 3 questions, got %d", len(questions))
	}
	for _, q := range questions {
		qm := q.(map[string]interface{})
		text := qm["question_text"].(string)
		if text == "" {
			t.Error("Expected non-empty question_text")
		}
		qType := qm["type"].(string)
		if (qType == "multiple-choice" || qType == "true-false") && !strings.HasSuffix(text, "?") {
			t.Errorf("Expected %s question to end with '?': %q", qType, text)
		}
	}
	if body["index_used"] != "chunk_357973585" {
		t.Errorf("Expected index_used chunk_357973585, got %v", body["index_used"])
	}
	if body["file_saved"] != false {
		t.Errorf("Expected file_saved false, got %v", body["file_saved"])
	}
	if _, present := body["saved_file"]; present {
		t.Error("Expected saved_file to be absent when save_to_file=false")
	}
	if store.saves != 0 {
		t.Errorf("Expected no save attempts, got %d", store.saves)
	}
	if generator.gotTotal != 3 {
		t.Errorf("Expected generator to receive num_total_qs=3, got %d", generator.gotTotal)
	}
	if search.lastIndex != "chunk_357973585" {
		t.Errorf("Expected retrieval against chunk_357973585, got %q", search.lastIndex)
	}
}

func TestGenerateTestBank_AppliesDefaults(t *testing.T) {
	search := &fakeSearch{content: "Chapter text."}
	generator := &fakeGenerator{bank: sampleBank()}
	h := newTestRouter(search, generator, &fakeStore{})

	rr, _ := doRequest(t, h, http.MethodPost, "/api/v1/test-bank/generate/", map[string]interface{}{})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if search.lastChapter != "Chapter 1 Taking Charge of Your Health" {
		t.Errorf("Expected default chapter, got %q", search.lastChapter)
	}
	if generator.gotTotal != 80 {
		t.Errorf("Expected default num_total_qs=80, got %d", generator.gotTotal)
	}
	if len(generator.gotLOs) != 9 {
		t.Errorf("Expected 9 default learning objectives, got %d", len(generator.gotLOs))
	}
}

func TestGenerateTestBank_UnknownTitle(t *testing.T) {
	h := newTestRouter(&fakeSearch{}, &fakeGenerator{}, &fakeStore{})

	rr, body := doRequest(t, h, http.MethodPost, "/api/v1/test-bank/generate/", map[string]interface{}{
		"title": "Nonexistent Book",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rr.Code)
	}
	detail := body["detail"].(string)
	if !strings.Contains(detail, "An Invitation to Health") || !strings.Contains(detail, "Steps to writing well") {
		t.Errorf("Expected detail to list configured titles, got %q", detail)
	}
}

func TestGenerateTestBank_NoContent(t *testing.T) {
	h := newTestRouter(&fakeSearch{content: ""}, &fakeGenerator{}, &fakeStore{})

	rr, body := doRequest(t, h, http.MethodPost, "/api/v1/test-bank/generate/", map[string]interface{}{
		"chapter_name": "Chapter 99 Missing",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rr.Code)
	}
	if !strings.Contains(body["detail"].(string), "Chapter 99 Missing") {
		t.Errorf("Expected detail to name the chapter, got %v", body["detail"])
	}
}

func TestGenerateTestBank_GenerationFailure(t *testing.T) {
	generator := &fakeGenerator{err: &models.GenerationError{Stage: "parse", Err: errors.New("unexpected end of JSON input")}}
	h := newTestRouter(&fakeSearch{content: "text"}, generator, &fakeStore{})

	rr, body := doRequest(t, h, http.MethodPost, "/api/v1/test-bank/generate/", map[string]interface{}{})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rr.Code)
	}
	if body["detail"] == nil {
		t.Error("Expected detail in error response")
	}
}

func TestGenerateTestBank_SearchFailure(t *testing.T) {
	search := &fakeSearch{err: &models.SearchError{Op: "retrieve chapter content", Err: errors.New("connection refused")}}
	h := newTestRouter(search, &fakeGenerator{}, &fakeStore{})

	rr, _ := doRequest(t, h, http.MethodPost, "/api/v1/test-bank/generate/", map[string]interface{}{})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rr.Code)
	}
}

func TestGenerateTestBank_SaveSuccess(t *testing.T) {
	store := &fakeStore{path: "output/an_invitation_to_health_chapter_1_test_bank_20260826_120000.json"}
	h := newTestRouter(&fakeSearch{content: "text"}, &fakeGenerator{bank: sampleBank()}, store)

	rr, body := doRequest(t, h, http.MethodPost, "/api/v1/test-bank/generate/", map[string]interface{}{
		"save_to_file": true,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if body["file_saved"] != true {
		t.Errorf("Expected file_saved true, got %v", body["file_saved"])
	}
	if body["saved_file"] != store.path {
		t.Errorf("Expected saved_file %q, got %v", store.path, body["saved_file"])
	}
	if store.saves != 1 {
		t.Errorf("Expected 1 save attempt, got %d", store.saves)
	}
}

func TestGenerateTestBank_SaveFailureIsNonFatal(t *testing.T) {
	store := &fakeStore{err: &models.PersistenceError{Path: "output", Err: errors.New("disk full")}}
	h := newTestRouter(&fakeSearch{content: "text"}, &fakeGenerator{bank: sampleBank()}, store)

	rr, body := doRequest(t, h, http.MethodPost, "/api/v1/test-bank/generate/", map[string]interface{}{
		"save_to_file": true,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected request to succeed despite save failure, got %d", rr.Code)
	}
	if body["file_saved"] != false {
		t.Errorf("Expected file_saved false after save failure, got %v", body["file_saved"])
	}
	if _, present := body["saved_file"]; present {
		t.Error("Expected saved_file to be absent after save failure")
	}
}

func TestGenerateTestBank_InvalidBody(t *testing.T) {
	h := newTestRouter(&fakeSearch{}, &fakeGenerator{}, &fakeStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/test-bank/generate/", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for invalid body, got %d", rr.Code)
	}
}

// ─── Files ───

func TestListFiles(t *testing.T) {
	store := &fakeStore{
		files: []models.SavedFileInfo{
			{Filename: "a.json", Filepath: "output/a.json", SizeBytes: 128},
		},
	}
	h := newTestRouter(&fakeSearch{}, &fakeGenerator{}, store)

	rr, body := doRequest(t, h, http.MethodGet, "/api/v1/files/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if body["total_files"].(float64) != 1 {
		t.Errorf("Expected 1 file, got %v", body["total_files"])
	}
	if body["output_directory"] != "./output" {
		t.Errorf("Expected output_directory './output', got %v", body["output_directory"])
	}
	files := body["files"].([]interface{})
	first := files[0].(map[string]interface{})
	if first["filename"] != "a.json" || first["size_bytes"].(float64) != 128 {
		t.Errorf("Unexpected file entry: %v", first)
	}
}
