package exam

import (
	"strconv"
	"strings"

	"cadetquiz/internal/testdef"
)

const (
	IndicatorCorrect   = "correct"
	IndicatorIncorrect = "incorrect"
)

type OptionView struct {
	Key       string `json:"key"`
	Letter    string `json:"letter"`
	Text      string `json:"text"`
	Selected  bool   `json:"selected"`
	Indicator string `json:"indicator,omitempty"`
}

// Feedback is shown in practice mode once the question has a selection.
type Feedback struct {
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation,omitempty"`
}

type QuestionView struct {
	Index       int                  `json:"index"`
	Number      int                  `json:"number"`
	Total       int                  `json:"total"`
	Text        string               `json:"text"`
	Type        testdef.QuestionType `json:"type"`
	TypeLabel   string               `json:"type_label"`
	Points      float64              `json:"points"`
	PointsLabel string               `json:"points_label"`
	MultiSelect bool                 `json:"multi_select"`
	Options     []OptionView         `json:"options"`
	Answered    bool                 `json:"answered"`
	Feedback    *Feedback            `json:"feedback,omitempty"`
}

// RenderQuestion projects a question and its answer state for display. It never mutates state.
func RenderQuestion(q testdef.Question, index, total int, st AnswerState, mode Mode) QuestionView {
	points := questionPoints(q)
	v := QuestionView{
		Index:       index,
		Number:      index + 1,
		Total:       total,
		Text:        q.Text,
		Type:        q.Type,
		TypeLabel:   q.Type.Label(),
		Points:      points,
		PointsLabel: PointsLabel(points),
		MultiSelect: q.MultiSelect(),
		Options:     make([]OptionView, 0, len(q.Options)),
		Answered:    st.IsAnswered,
	}

	showFeedback := mode == ModePractice && st.IsAnswered
	correct := map[string]bool{}
	if showFeedback {
		for _, k := range q.CorrectAnswer {
			correct[k] = true
		}
		v.Feedback = &Feedback{Correct: IsCorrect(q, st), Explanation: q.Explanation}
	}

	for _, opt := range q.Options {
		ov := OptionView{
			Key:      opt.Key,
			Letter:   strings.ToUpper(opt.Key),
			Text:     opt.Text,
			Selected: st.has(opt.Key),
		}
		if showFeedback {
			switch {
			case correct[opt.Key]:
				ov.Indicator = IndicatorCorrect
			case ov.Selected:
				ov.Indicator = IndicatorIncorrect
			}
		}
		v.Options = append(v.Options, ov)
	}
	return v
}

func PointsLabel(points float64) string {
	s := strconv.FormatFloat(points, 'f', -1, 64)
	if points == 1 {
		return s + " point"
	}
	return s + " points"
}
