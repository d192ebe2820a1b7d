package testdef

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultTimeLimit    = 1800
	DefaultPassingScore = 70.0
	defaultTitle        = "NCC Test"
)

type QuestionType string

const (
	MultipleChoice   QuestionType = "multiple_choice"
	MultipleResponse QuestionType = "multiple_response"
	TrueFalse        QuestionType = "true_false"
)

var typeLabels = map[QuestionType]string{
	MultipleChoice:   "Multiple Choice",
	MultipleResponse: "Multiple Response",
	TrueFalse:        "True/False",
}

// Label is the display name shown above a question.
func (t QuestionType) Label() string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	return "Question"
}

// Definition is one test file: test/<category>/<subcategory>.json.
type Definition struct {
	Title       string     `json:"title,omitempty"`
	Category    string     `json:"category,omitempty"`
	Subcategory string     `json:"subcategory,omitempty"`
	Metadata    Metadata   `json:"metadata"`
	Questions   []Question `json:"questions"`
}

type Metadata struct {
	TimeLimit    *int     `json:"time_limit,omitempty"`
	PassingScore *float64 `json:"passing_score,omitempty"`
}

type Question struct {
	Text          string       `json:"text"`
	Type          QuestionType `json:"type"`
	Options       Options      `json:"options"`
	CorrectAnswer []string     `json:"correct_answer"`
	Points        float64      `json:"points"`
	Explanation   string       `json:"explanation,omitempty"`
}

// TimeLimit returns the configured limit in seconds, or the default when absent or non-positive.
func (d *Definition) TimeLimit() int {
	if d.Metadata.TimeLimit == nil || *d.Metadata.TimeLimit <= 0 {
		return DefaultTimeLimit
	}
	return *d.Metadata.TimeLimit
}

func (d *Definition) PassingScore() float64 {
	if d.Metadata.PassingScore == nil || *d.Metadata.PassingScore <= 0 {
		return DefaultPassingScore
	}
	return *d.Metadata.PassingScore
}

func (d *Definition) DisplayTitle() string {
	if t := strings.TrimSpace(d.Title); t != "" {
		return t
	}
	if s := strings.TrimSpace(d.Subcategory); s != "" {
		return s
	}
	return defaultTitle
}

func (q Question) MultiSelect() bool {
	return q.Type == MultipleResponse
}

// Option is a single selectable answer. Options keep the order they had in the source file.
type Option struct {
	Key  string
	Text string
}

type Options []Option

func (o Options) Has(key string) bool {
	_, ok := o.Text(key)
	return ok
}

func (o Options) Text(key string) (string, bool) {
	for _, opt := range o {
		if opt.Key == key {
			return opt.Text, true
		}
	}
	return "", false
}

func (o Options) Keys() []string {
	out := make([]string, 0, len(o))
	for _, opt := range o {
		out = append(out, opt.Key)
	}
	return out
}

var errOptionsNotObject = errors.New("options must be an object")

func (o *Options) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errOptionsNotObject
	}

	out := Options{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var text string
		if err := dec.Decode(&text); err != nil {
			return fmt.Errorf("option %q: %w", key, err)
		}
		replaced := false
		for i := range out {
			if out[i].Key == key {
				out[i].Text = text
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, Option{Key: key, Text: text})
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*o = out
	return nil
}

func (o Options) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, opt := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(opt.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(opt.Text)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
