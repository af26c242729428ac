package service

import (
	"fmt"
	"strings"

	"github.com/studybuddy/studybuddy-api/internal/models"
)

// Bundle shape contract. The model is asked for these exact counts through
// the structured-output schema, and ValidateBundle rejects anything that
// drifts from them before it can reach the store.
const (
	mcqCount          = 5
	mcqOptionCount    = 4
	quizQuestionCount = 4
	easyQuestionCount = 3
	videoCount        = 4
	minSlides         = 15
	maxSlides         = 25
	minQuizPoints     = 5
	maxQuizPoints     = 25
	minEasyPoints     = 5
	maxEasyPoints     = 10
)

// SchemaError reports every constraint a generated bundle violated, each
// prefixed with the JSON path of the offending field.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("content failed schema validation: %s", strings.Join(e.Violations, "; "))
}

// ValidateBundle checks a generated bundle against the content contract. It
// collects all violations rather than stopping at the first so a failed
// generation can be diagnosed from a single log line.
func ValidateBundle(bundle *models.ContentBundle) error {
	var v []string

	if n := len(bundle.MCQs); n != mcqCount {
		v = append(v, fmt.Sprintf("mcqs: expected %d questions, got %d", mcqCount, n))
	}
	for i, q := range bundle.MCQs {
		path := fmt.Sprintf("mcqs[%d]", i)
		if strings.TrimSpace(q.Question) == "" {
			v = append(v, path+".question: must not be empty")
		}
		if n := len(q.Options); n != mcqOptionCount {
			v = append(v, fmt.Sprintf("%s.options: expected %d options, got %d", path, mcqOptionCount, n))
		}
		if q.Correct < 0 || q.Correct >= mcqOptionCount {
			v = append(v, fmt.Sprintf("%s.correct: must be between 0 and %d, got %d", path, mcqOptionCount-1, q.Correct))
		}
		switch q.Difficulty {
		case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
		default:
			v = append(v, fmt.Sprintf("%s.difficulty: unknown value %q", path, q.Difficulty))
		}
	}

	if n := len(bundle.QuizQuestions); n != quizQuestionCount {
		v = append(v, fmt.Sprintf("quizQuestions: expected %d questions, got %d", quizQuestionCount, n))
	}
	for i, q := range bundle.QuizQuestions {
		path := fmt.Sprintf("quizQuestions[%d]", i)
		if strings.TrimSpace(q.Question) == "" {
			v = append(v, path+".question: must not be empty")
		}
		switch q.Type {
		case models.QuestionTypeShort, models.QuestionTypeEssay, models.QuestionTypePractical:
		default:
			v = append(v, fmt.Sprintf("%s.type: unknown value %q", path, q.Type))
		}
		if q.Points < minQuizPoints || q.Points > maxQuizPoints {
			v = append(v, fmt.Sprintf("%s.points: must be between %d and %d, got %d", path, minQuizPoints, maxQuizPoints, q.Points))
		}
	}

	if n := len(bundle.EasyQuestions); n != easyQuestionCount {
		v = append(v, fmt.Sprintf("easyQuestions: expected %d questions, got %d", easyQuestionCount, n))
	}
	for i, q := range bundle.EasyQuestions {
		path := fmt.Sprintf("easyQuestions[%d]", i)
		if strings.TrimSpace(q.Question) == "" {
			v = append(v, path+".question: must not be empty")
		}
		if q.Type != models.QuestionTypeShort {
			v = append(v, fmt.Sprintf("%s.type: must be %q, got %q", path, models.QuestionTypeShort, q.Type))
		}
		if q.Points < minEasyPoints || q.Points > maxEasyPoints {
			v = append(v, fmt.Sprintf("%s.points: must be between %d and %d, got %d", path, minEasyPoints, maxEasyPoints, q.Points))
		}
	}

	if n := len(bundle.VideoSuggestions); n != videoCount {
		v = append(v, fmt.Sprintf("videoSuggestions: expected %d suggestions, got %d", videoCount, n))
	}
	for i, s := range bundle.VideoSuggestions {
		path := fmt.Sprintf("videoSuggestions[%d]", i)
		if strings.TrimSpace(s.Title) == "" {
			v = append(v, path+".title: must not be empty")
		}
		if strings.TrimSpace(s.SearchQuery) == "" {
			v = append(v, path+".searchQuery: must not be empty")
		}
		switch s.Level {
		case models.VideoLevelBeginner, models.VideoLevelIntermediate, models.VideoLevelAdvanced:
		default:
			v = append(v, fmt.Sprintf("%s.level: unknown value %q", path, s.Level))
		}
	}

	if strings.TrimSpace(bundle.Presentation.Title) == "" {
		v = append(v, "presentation.title: must not be empty")
	}
	if n := bundle.Presentation.TotalSlides; n < minSlides || n > maxSlides {
		v = append(v, fmt.Sprintf("presentation.totalSlides: must be between %d and %d, got %d", minSlides, maxSlides, n))
	}
	if len(bundle.Presentation.Slides) == 0 {
		v = append(v, "presentation.slides: must not be empty")
	}
	for i, s := range bundle.Presentation.Slides {
		path := fmt.Sprintf("presentation.slides[%d]", i)
		if strings.TrimSpace(s.Title) == "" {
			v = append(v, path+".title: must not be empty")
		}
		switch s.SlideType {
		case models.SlideTypeTitle, models.SlideTypeContent, models.SlideTypeImage, models.SlideTypeComparison, models.SlideTypeSummary:
		default:
			v = append(v, fmt.Sprintf("%s.slideType: unknown value %q", path, s.SlideType))
		}
	}

	if len(v) > 0 {
		return &SchemaError{Violations: v}
	}
	return nil
}

// ContentJSONSchema is the structured-output schema sent with every
// generation request. It mirrors the constraints ValidateBundle enforces so
// the model is steered toward valid output in the first place.
func ContentJSONSchema() map[string]interface{} {
	stringArray := func() map[string]interface{} {
		return map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}}
	}
	quizQuestion := func(types []string, minPoints, maxPoints int) map[string]interface{} {
		return map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"question":       map[string]interface{}{"type": "string"},
				"type":           map[string]interface{}{"type": "string", "enum": types},
				"points":         map[string]interface{}{"type": "integer", "minimum": minPoints, "maximum": maxPoints},
				"rubric":         map[string]interface{}{"type": "string"},
				"expectedAnswer": map[string]interface{}{"type": "string"},
			},
			"required":             []string{"question", "type", "points", "rubric", "expectedAnswer"},
			"additionalProperties": false,
		}
	}

	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"mcqs": map[string]interface{}{
				"type":     "array",
				"minItems": mcqCount,
				"maxItems": mcqCount,
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"question": map[string]interface{}{"type": "string"},
						"options": map[string]interface{}{
							"type":     "array",
							"minItems": mcqOptionCount,
							"maxItems": mcqOptionCount,
							"items":    map[string]interface{}{"type": "string"},
						},
						"correct":     map[string]interface{}{"type": "integer", "minimum": 0, "maximum": mcqOptionCount - 1},
						"explanation": map[string]interface{}{"type": "string"},
						"difficulty":  map[string]interface{}{"type": "string", "enum": []string{"easy", "medium", "hard"}},
					},
					"required":             []string{"question", "options", "correct", "explanation", "difficulty"},
					"additionalProperties": false,
				},
			},
			"quizQuestions": map[string]interface{}{
				"type":     "array",
				"minItems": quizQuestionCount,
				"maxItems": quizQuestionCount,
				"items":    quizQuestion([]string{"short", "essay", "practical"}, minQuizPoints, maxQuizPoints),
			},
			"easyQuestions": map[string]interface{}{
				"type":     "array",
				"minItems": easyQuestionCount,
				"maxItems": easyQuestionCount,
				"items":    quizQuestion([]string{"short"}, minEasyPoints, maxEasyPoints),
			},
			"videoSuggestions": map[string]interface{}{
				"type":     "array",
				"minItems": videoCount,
				"maxItems": videoCount,
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"title":       map[string]interface{}{"type": "string"},
						"searchQuery": map[string]interface{}{"type": "string"},
						"duration":    map[string]interface{}{"type": "string"},
						"topics":      stringArray(),
						"level":       map[string]interface{}{"type": "string", "enum": []string{"beginner", "intermediate", "advanced"}},
					},
					"required":             []string{"title", "searchQuery", "duration", "topics", "level"},
					"additionalProperties": false,
				},
			},
			"presentation": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"title": map[string]interface{}{"type": "string"},
					"slides": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"title":     map[string]interface{}{"type": "string"},
								"content":   stringArray(),
								"slideType": map[string]interface{}{"type": "string", "enum": []string{"title", "content", "image", "comparison", "summary"}},
							},
							"required":             []string{"title", "content", "slideType"},
							"additionalProperties": false,
						},
					},
					"totalSlides":        map[string]interface{}{"type": "integer", "minimum": minSlides, "maximum": maxSlides},
					"learningObjectives": stringArray(),
				},
				"required":             []string{"title", "slides", "totalSlides", "learningObjectives"},
				"additionalProperties": false,
			},
		},
		"required":             []string{"mcqs", "quizQuestions", "easyQuestions", "videoSuggestions", "presentation"},
		"additionalProperties": false,
	}
}
