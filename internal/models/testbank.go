package models

import "time"

// TestBankOption is one labeled answer choice for a multiple-choice question.
type TestBankOption struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// TestBankQuestion is a single generated assessment question. Options is
// populated only for multiple-choice questions.
type TestBankQuestion struct {
	ID                string           `json:"id"`
	Type              string           `json:"type"` // "multiple-choice", "true-false", "argument"
	LearningObjective string           `json:"learning_objective,omitempty"`
	QuestionText      string           `json:"question_text"`
	Options           []TestBankOption `json:"options,omitempty"`
	CorrectAnswer     string           `json:"correct_answer"`
	Rationale         string           `json:"rationale"`
}

// TestBank is the model-generated artifact: an ordered question set for one
// chapter. The shape is whatever the model returned; beyond JSON field types
// no further validation is applied.
type TestBank struct {
	Title     string             `json:"title"`
	Chapter   string             `json:"chapter"`
	Questions []TestBankQuestion `json:"questions"`
}

type GenerateTestBankRequest struct {
	Title              string            `json:"title"`
	ChapterName        string            `json:"chapter_name"`
	LearningObjectives map[string]string `json:"learning_objectives"`
	NumTotalQs         int               `json:"num_total_qs"`
	NumMCQQs           int               `json:"num_mcq_qs"`
	NumTFQs            int               `json:"num_tf_qs"`
	NumArgsQs          int               `json:"num_args_qs"`
	MaxChunks          int               `json:"max_chunks"`
	MaxChars           int               `json:"max_chars"`
	SaveToFile         bool              `json:"save_to_file"`
}

type GenerateTestBankResponse struct {
	TestBank
	IndexUsed string `json:"index_used"`
	FileSaved bool   `json:"file_saved"`
	SavedFile string `json:"saved_file,omitempty"`
}

// TitleEntry is one configured book title and its backing search index.
type TitleEntry struct {
	Title string `json:"title"`
	Index string `json:"index"`
}

// ChapterInfo is one chapter bucket from the terms aggregation.
type ChapterInfo struct {
	Name     string `json:"name"`
	DocCount int    `json:"doc_count"`
}

// SavedFileInfo describes one previously written test-bank file, derived
// from filesystem metadata.
type SavedFileInfo struct {
	Filename  string    `json:"filename"`
	Filepath  string    `json:"filepath"`
	SizeBytes int64     `json:"size_bytes"`
	Created   time.Time `json:"created"`
	Modified  time.Time `json:"modified"`
}
