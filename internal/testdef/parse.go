package testdef

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingParameters = errors.New("missing test parameters")
	ErrInvalidParameters = errors.New("invalid test parameters")
	ErrSchema            = errors.New("invalid test definition")
)

type rawDefinition struct {
	Title       string          `json:"title"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory"`
	Metadata    *Metadata       `json:"metadata"`
	Questions   json.RawMessage `json:"questions"`
}

type rawQuestion struct {
	Text          *string         `json:"text"`
	Type          string          `json:"type"`
	Options       json.RawMessage `json:"options"`
	CorrectAnswer json.RawMessage `json:"correct_answer"`
	Points        *float64        `json:"points"`
	Explanation   string          `json:"explanation"`
}

// Parse decodes a test file and validates it. Any failure wraps ErrSchema.
func Parse(data []byte) (*Definition, error) {
	var raw rawDefinition
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrSchema, err)
	}
	if !isJSONArray(raw.Questions) {
		return nil, fmt.Errorf("%w: missing questions array", ErrSchema)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw.Questions, &items); err != nil {
		return nil, fmt.Errorf("%w: questions: %v", ErrSchema, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no questions found", ErrSchema)
	}

	def := &Definition{
		Title:       raw.Title,
		Category:    raw.Category,
		Subcategory: raw.Subcategory,
		Questions:   make([]Question, 0, len(items)),
	}
	if raw.Metadata != nil {
		def.Metadata = *raw.Metadata
	}

	for i, item := range items {
		q, err := parseQuestion(item)
		if err != nil {
			return nil, fmt.Errorf("%w: question %d %v", ErrSchema, i+1, err)
		}
		def.Questions = append(def.Questions, q)
	}

	if err := Validate(def); err != nil {
		return nil, err
	}
	return def, nil
}

func parseQuestion(item json.RawMessage) (Question, error) {
	var rq rawQuestion
	if err := json.Unmarshal(item, &rq); err != nil {
		return Question{}, fmt.Errorf("malformed: %v", err)
	}
	if rq.Text == nil {
		return Question{}, errors.New("missing text")
	}
	if !isJSONObject(rq.Options) {
		return Question{}, errors.New("missing options")
	}
	if !isJSONArray(rq.CorrectAnswer) {
		return Question{}, errors.New("missing correct_answer array")
	}

	var opts Options
	if err := json.Unmarshal(rq.Options, &opts); err != nil {
		return Question{}, fmt.Errorf("options: %v", err)
	}
	var correct []string
	if err := json.Unmarshal(rq.CorrectAnswer, &correct); err != nil {
		return Question{}, fmt.Errorf("correct_answer: %v", err)
	}

	q := Question{
		Text:          *rq.Text,
		Type:          QuestionType(strings.TrimSpace(rq.Type)),
		Options:       opts,
		CorrectAnswer: correct,
		Explanation:   rq.Explanation,
	}
	if rq.Points != nil {
		q.Points = *rq.Points
	}
	return q, nil
}

// Validate applies defaults and checks the semantic rules shared by JSON and workbook sources.
func Validate(def *Definition) error {
	if def == nil || len(def.Questions) == 0 {
		return fmt.Errorf("%w: no questions found", ErrSchema)
	}
	for i := range def.Questions {
		q := &def.Questions[i]
		n := i + 1

		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("%w: question %d missing text", ErrSchema, n)
		}
		if len(q.Options) == 0 {
			return fmt.Errorf("%w: question %d missing options", ErrSchema, n)
		}
		if q.CorrectAnswer == nil {
			q.CorrectAnswer = []string{}
		}

		if q.Type == "" {
			q.Type = MultipleChoice
		}
		switch q.Type {
		case MultipleChoice, TrueFalse, MultipleResponse:
		default:
			return fmt.Errorf("%w: question %d has unknown type %q", ErrSchema, n, q.Type)
		}

		switch {
		case q.Points < 0:
			return fmt.Errorf("%w: question %d has negative points", ErrSchema, n)
		case q.Points == 0:
			q.Points = 1
		}
	}
	return nil
}

func isJSONArray(raw json.RawMessage) bool {
	b := bytes.TrimSpace(raw)
	return len(b) > 0 && b[0] == '['
}

func isJSONObject(raw json.RawMessage) bool {
	b := bytes.TrimSpace(raw)
	return len(b) > 0 && b[0] == '{'
}
