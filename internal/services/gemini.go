package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"testgen-backend/internal/models"
)

type GeminiService struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiService(apiKey, modelName string, maxTokens int) (*GeminiService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.3)
	model.SetTopP(0.95)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &GeminiService{
		client: client,
		model:  model,
	}, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

// GenerateTestBank streams a completion for the chapter, accumulates the
// deltas, strips any markdown code fence, and parses the result.
func (s *GeminiService) GenerateTestBank(ctx context.Context, chapterContent string, learningObjectives map[string]string, numTotal, numMCQ, numTF, numArgs int) (*models.TestBank, error) {
	prompt := buildTestBankPrompt(chapterContent, learningObjectives, numTotal, numMCQ, numTF, numArgs)

	var b strings.Builder
	iter := s.model.GenerateContentStream(ctx, genai.Text(prompt))
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, &models.GenerationError{Stage: "stream", Err: err}
		}
		b.WriteString(extractText(resp))
	}

	clean := stripJSONMarkers(b.String())

	var bank models.TestBank
	if err := json.Unmarshal([]byte(clean), &bank); err != nil {
		return nil, &models.GenerationError{Stage: "parse", Err: err}
	}

	return &bank, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

var jsonFencePattern = regexp.MustCompile("(?s)```(?:json)?(.*?)```")

// stripJSONMarkers removes triple-backtick fences (optionally tagged "json")
// from a model response, concatenating all fenced segments in order. A
// response with no fence is returned trimmed.
func stripJSONMarkers(raw string) string {
	matches := jsonFencePattern.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return strings.TrimSpace(raw)
	}

	var b strings.Builder
	for _, m := range matches {
		b.WriteString(m[1])
	}
	return strings.TrimSpace(b.String())
}

// formatLearningObjectives renders the objectives as bullet lines, sorted by
// ID so prompts are deterministic.
func formatLearningObjectives(objectives map[string]string) string {
	ids := make([]string, 0, len(objectives))
	for id := range objectives {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString("Learning Objectives:\n")
	for _, id := range ids {
		b.WriteString(fmt.Sprintf("- %s: %s\n", id, objectives[id]))
	}
	return b.String()
}

const testBankPromptTemplate = `
You are an expert Test Bank Author creating high-quality educational assessment questions following Cengage publishing standards. Use only the provided source material to create questions that challenge students while maintaining academic rigor.

TASK OVERVIEW
Your task is to generate a comprehensive test bank that strictly adheres to the provided authoring guidelines and Cengage quality standards. You will not have access to any external resources, textbooks, or prior knowledge. All questions must be derived solely from the provided source material, which is a chapter from a textbook.
Create a total of %d questions, distributed as follows:
- %d Multiple-Choice Questions (MCQ)
- %d True/False (T/F) Questions
- %d Argumentative Essay Questions

SOURCE MATERIAL
The source material for your questions is provided below. It contains the content of the chapter from which you will derive all questions. Do not reference any external materials or prior knowledge.
%s

The learning objectives for this chapter are:
%s

Return ONLY the JSON in this exact format:
{
    "title": "YOUR_TITLE_HERE",
    "chapter": "YOUR_CHAPTER_HERE",
    "questions": [
        {
            "id": "1",
            "type": "multiple-choice",
            "learning_objective": "LO1",
            "question_text": "What is...",
            "options": [
                { "label": "A", "text": "Option text" },
                { "label": "B", "text": "Option text" },
                { "label": "C", "text": "Option text" },
                { "label": "D", "text": "Option text" }
            ],
            "correct_answer": "A",
            "rationale": "Explanation of why A is correct..."
        },
        {
            "id": "2",
            "type": "true-false",
            "learning_objective": "LO2",
            "question_text": "Statement to evaluate...",
            "correct_answer": "True",
            "rationale": "Explanation of why this is true..."
        },
        {
            "id": "3",
            "type": "argument",
            "learning_objective": "LO3",
            "question_text": "Analyze and evaluate...",
            "correct_answer": "The correct analysis...",
            "rationale": "Detailed explanation..."
        }
    ]
}

CRITICAL REQUIREMENTS:
1. All questions must be clear, unambiguous, and answerable from the provided content only
2. MCQs must have exactly 4 options with 1 correct answer
3. All question stems must end with a question mark
4. Provide rationale for each question explaining why the answer is correct
5. Map each question to appropriate learning objectives
6. Use inclusive, unbiased language
7. Create plausible distractors for MCQs that represent common misconceptions
`

func buildTestBankPrompt(chapterContent string, learningObjectives map[string]string, numTotal, numMCQ, numTF, numArgs int) string {
	return fmt.Sprintf(testBankPromptTemplate,
		numTotal,
		numMCQ,
		numTF,
		numArgs,
		chapterContent,
		formatLearningObjectives(learningObjectives),
	)
}
