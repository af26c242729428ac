package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ContentStatus tracks the review lifecycle of a generated bundle.
type ContentStatus string

const (
	ContentStatusGenerated ContentStatus = "generated"
	ContentStatusReviewed  ContentStatus = "reviewed"
	ContentStatusApproved  ContentStatus = "approved"
)

// Difficulty tags a multiple-choice question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// QuestionType enumerates quiz question formats.
type QuestionType string

const (
	QuestionTypeShort     QuestionType = "short"
	QuestionTypeEssay     QuestionType = "essay"
	QuestionTypePractical QuestionType = "practical"
)

// VideoLevel tags a video suggestion's target audience.
type VideoLevel string

const (
	VideoLevelBeginner     VideoLevel = "beginner"
	VideoLevelIntermediate VideoLevel = "intermediate"
	VideoLevelAdvanced     VideoLevel = "advanced"
)

// SlideType enumerates presentation slide layouts.
type SlideType string

const (
	SlideTypeTitle      SlideType = "title"
	SlideTypeContent    SlideType = "content"
	SlideTypeImage      SlideType = "image"
	SlideTypeComparison SlideType = "comparison"
	SlideTypeSummary    SlideType = "summary"
)

// MCQ is a multiple-choice question with exactly four options.
type MCQ struct {
	Question    string     `json:"question"`
	Options     []string   `json:"options"`
	Correct     int        `json:"correct"`
	Explanation string     `json:"explanation"`
	Difficulty  Difficulty `json:"difficulty"`
}

// QuizQuestion is a graded open-format question.
type QuizQuestion struct {
	Question       string       `json:"question"`
	Type           QuestionType `json:"type"`
	Points         int          `json:"points"`
	Rubric         string       `json:"rubric"`
	ExpectedAnswer string       `json:"expectedAnswer"`
}

// VideoSuggestion recommends external video material for a week.
type VideoSuggestion struct {
	Title       string     `json:"title"`
	SearchQuery string     `json:"searchQuery"`
	Duration    string     `json:"duration"`
	Topics      []string   `json:"topics"`
	Level       VideoLevel `json:"level"`
}

// PresentationSlide is one slide of a generated deck.
type PresentationSlide struct {
	Title     string    `json:"title"`
	Content   []string  `json:"content"`
	SlideType SlideType `json:"slideType"`
}

// Presentation is the generated slide deck for a week.
type Presentation struct {
	Title              string              `json:"title"`
	Slides             []PresentationSlide `json:"slides"`
	TotalSlides        int                 `json:"totalSlides"`
	LearningObjectives []string            `json:"learningObjectives"`
}

// MCQList is persisted as JSONB.
type MCQList []MCQ

func (l MCQList) Value() (driver.Value, error)  { return marshalJSONB(l) }
func (l *MCQList) Scan(value interface{}) error { return scanJSONB(value, l, "MCQList") }

// QuizQuestionList is persisted as JSONB.
type QuizQuestionList []QuizQuestion

func (l QuizQuestionList) Value() (driver.Value, error) { return marshalJSONB(l) }
func (l *QuizQuestionList) Scan(value interface{}) error { return scanJSONB(value, l, "QuizQuestionList") }

// VideoSuggestionList is persisted as JSONB.
type VideoSuggestionList []VideoSuggestion

func (l VideoSuggestionList) Value() (driver.Value, error) { return marshalJSONB(l) }
func (l *VideoSuggestionList) Scan(value interface{}) error {
	return scanJSONB(value, l, "VideoSuggestionList")
}

// Value marshals the presentation to JSON for persistence.
func (p Presentation) Value() (driver.Value, error) { return marshalJSONB(p) }

// Scan unmarshals a JSONB payload into the presentation.
func (p *Presentation) Scan(value interface{}) error { return scanJSONB(value, p, "Presentation") }

// ContentBundle is the five-part payload produced by the generation service
// for one week, before it gains identity and persistence metadata.
type ContentBundle struct {
	MCQs             MCQList             `json:"mcqs"`
	QuizQuestions    QuizQuestionList    `json:"quizQuestions"`
	EasyQuestions    QuizQuestionList    `json:"easyQuestions"`
	VideoSuggestions VideoSuggestionList `json:"videoSuggestions"`
	Presentation     Presentation        `json:"presentation"`
}

// GeneratedContent is the stored content bundle for one (course, week) pair.
// Exactly one record exists per pair; regeneration replaces the whole record.
type GeneratedContent struct {
	ID               string              `db:"id" json:"id"`
	CourseID         string              `db:"course_id" json:"courseId"`
	Week             int                 `db:"week" json:"week"`
	MCQs             MCQList             `db:"mcqs" json:"mcqs"`
	QuizQuestions    QuizQuestionList    `db:"quiz_questions" json:"quizQuestions"`
	EasyQuestions    QuizQuestionList    `db:"easy_questions" json:"easyQuestions"`
	VideoSuggestions VideoSuggestionList `db:"video_suggestions" json:"videoSuggestions"`
	Presentation     Presentation        `db:"presentation" json:"presentation"`
	Status           ContentStatus       `db:"status" json:"status"`
	GeneratedAt      time.Time           `db:"generated_at" json:"generatedAt"`
	CreatedAt        time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time           `db:"updated_at" json:"updatedAt"`
}

// WeekOutcome reports the result of one week inside a batch generation run.
// A batch always yields one outcome per syllabus week, in week order.
type WeekOutcome struct {
	Week    int               `json:"week"`
	Success bool              `json:"success"`
	Code    string            `json:"code,omitempty"`
	Error   string            `json:"error,omitempty"`
	Content *GeneratedContent `json:"content,omitempty"`
}

func marshalJSONB(v interface{}) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal jsonb value: %w", err)
	}
	return data, nil
}

func scanJSONB(value interface{}, dest interface{}, typeName string) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for %s", value, typeName)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal %s: %w", typeName, err)
	}
	return nil
}
