package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"testgen-backend/internal/models"
	"testgen-backend/internal/services"
)

type contentRetriever interface {
	RetrieveChapterContent(ctx context.Context, index, chapterName string, maxChunks, maxChars int) (string, error)
}

type testBankGenerator interface {
	GenerateTestBank(ctx context.Context, chapterContent string, learningObjectives map[string]string, numTotal, numMCQ, numTF, numArgs int) (*models.TestBank, error)
}

type testBankSaver interface {
	Save(title, chapter string, bank *models.TestBank) (string, error)
}

const defaultChapterName = "Chapter 1 Taking Charge of Your Health"

var defaultLearningObjectives = map[string]string{
	"LO1": "Define health and wellness.",
	"LO2": "Outline the dimensions of health.",
	"LO3": "Assess the current health status of Americans",
	"LO4": "Discuss health disparities based on sex and race.",
	"LO5": "Evaluate the health behaviors of undergraduate students.",
	"LO6": "Describe the impact of habits formed in college on future health.",
	"LO7": "Evaluate health information for accuracy and reliability.",
	"LO8": "Explain the influences on behavior that support or impede healthy change.",
	"LO9": "Identify the stages of change.",
}

// TestBankHandler runs the full generation pipeline: title lookup, content
// retrieval, model generation, and best-effort persistence.
type TestBankHandler struct {
	catalog   *services.TitleCatalog
	search    contentRetriever
	generator testBankGenerator
	store     testBankSaver
}

func NewTestBankHandler(catalog *services.TitleCatalog, search contentRetriever, generator testBankGenerator, store testBankSaver) *TestBankHandler {
	return &TestBankHandler{
		catalog:   catalog,
		search:    search,
		generator: generator,
		store:     store,
	}
}

func (h *TestBankHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateTestBankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	applyGenerateDefaults(&req)

	index, err := h.catalog.IndexForTitle(req.Title)
	if err != nil {
		handleError(w, err)
		return
	}

	log.Printf("Generating test bank for chapter: %s", req.ChapterName)

	content, err := h.search.RetrieveChapterContent(r.Context(), index, req.ChapterName, req.MaxChunks, req.MaxChars)
	if err != nil {
		handleError(w, err)
		return
	}
	if content == "" {
		handleError(w, &models.NoContentFoundError{Chapter: req.ChapterName})
		return
	}

	log.Printf("Retrieved %d characters of content", len(content))

	bank, err := h.generator.GenerateTestBank(r.Context(), content, req.LearningObjectives,
		req.NumTotalQs, req.NumMCQQs, req.NumTFQs, req.NumArgsQs)
	if err != nil {
		handleError(w, err)
		return
	}

	log.Printf("Generated test bank with %d questions", len(bank.Questions))

	if bank.Title == "" {
		bank.Title = req.Title
	}
	if bank.Chapter == "" {
		bank.Chapter = req.ChapterName
	}
	if bank.Questions == nil {
		bank.Questions = []models.TestBankQuestion{}
	}

	resp := models.GenerateTestBankResponse{
		TestBank:  *bank,
		IndexUsed: index,
	}

	// Saving is a convenience: a failure is logged and flagged, never fatal.
	if req.SaveToFile {
		path, saveErr := h.store.Save(req.Title, req.ChapterName, bank)
		if saveErr != nil {
			log.Printf("Test bank save failed: %v", saveErr)
		} else {
			resp.FileSaved = true
			resp.SavedFile = path
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func applyGenerateDefaults(req *models.GenerateTestBankRequest) {
	if req.Title == "" {
		req.Title = services.DefaultTitle
	}
	if req.ChapterName == "" {
		req.ChapterName = defaultChapterName
	}
	if len(req.LearningObjectives) == 0 {
		req.LearningObjectives = defaultLearningObjectives
	}
	if req.NumTotalQs <= 0 {
		req.NumTotalQs = 80
	}
	if req.NumMCQQs <= 0 {
		req.NumMCQQs = 60
	}
	if req.NumTFQs <= 0 {
		req.NumTFQs = 15
	}
	if req.NumArgsQs <= 0 {
		req.NumArgsQs = 5
	}
	if req.MaxChunks <= 0 {
		req.MaxChunks = services.DefaultMaxChunks
	}
	if req.MaxChars <= 0 {
		req.MaxChars = services.DefaultMaxChars
	}
}
