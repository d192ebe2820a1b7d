package report

import (
	"fmt"
	"math"
	"net/url"
	"strings"

	"cadetquiz/internal/exam"
	"cadetquiz/internal/testdef"
)

type Tier string

const (
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierAverage   Tier = "average"
	TierPoor      Tier = "poor"
)

// Option indicators in the review.
const (
	IndicatorCorrect   = "correct"
	IndicatorIncorrect = "incorrect"
	IndicatorNeutral   = "neutral"
)

const (
	defaultRetakeCategory    = "common"
	defaultRetakeSubcategory = "general"
)

type Performance struct {
	Tier    Tier   `json:"tier"`
	Message string `json:"message"`
}

type Statistics struct {
	CorrectCount       int     `json:"correct_count"`
	TotalQuestions     int     `json:"total_questions"`
	EarnedPoints       float64 `json:"earned_points"`
	TotalPoints        float64 `json:"total_points"`
	Points             string  `json:"points"`
	TimeSpent          int     `json:"time_spent"`
	TimeSpentDisplay   string  `json:"time_spent_display"`
	SecondsPerQuestion int     `json:"seconds_per_question"`
	AccuracyPercent    int     `json:"accuracy_percent"`
	CompletionPercent  int     `json:"completion_percent"`
	AnsweredCount      int     `json:"answered_count"`
}

type OptionReview struct {
	Key           string `json:"key"`
	Letter        string `json:"letter"`
	Text          string `json:"text"`
	Indicator     string `json:"indicator"`
	YourChoice    bool   `json:"your_choice"`
	CorrectAnswer bool   `json:"correct_answer"`
}

type QuestionReview struct {
	Number      int            `json:"number"`
	Text        string         `json:"text"`
	Correct     bool           `json:"correct"`
	Answered    bool           `json:"answered"`
	Points      float64        `json:"points"`
	Options     []OptionReview `json:"options"`
	Explanation string         `json:"explanation,omitempty"`
}

type Retake struct {
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory"`
	Mode        exam.Mode `json:"mode"`
	URL         string    `json:"url"`
}

type Review struct {
	Title       string           `json:"title"`
	Mode        exam.Mode        `json:"mode"`
	ModeLabel   string           `json:"mode_label"`
	Score       int              `json:"score"`
	Passed      bool             `json:"passed"`
	Statistics  Statistics       `json:"statistics"`
	Performance Performance      `json:"performance"`
	Questions   []QuestionReview `json:"questions"`
	Retake      Retake           `json:"retake"`
}

// PerformanceFor maps a percentage score to its tier and message.
func PerformanceFor(score int) Performance {
	switch {
	case score >= 90:
		return Performance{TierExcellent, "Outstanding performance! Your dedication and hard work have truly paid off. You demonstrate exceptional understanding of the subject matter."}
	case score >= 75:
		return Performance{TierGood, "Excellent work! You have a strong grasp of the material. Keep up the good work and continue to challenge yourself."}
	case score >= 60:
		return Performance{TierAverage, "Good effort! You have a solid foundation. Review the areas where you faced challenges to improve further."}
	case score >= 40:
		return Performance{TierAverage, "There's room for improvement. Focus on the topics where you struggled and practice more."}
	default:
		return Performance{TierPoor, "Don't be discouraged! Use this as a learning opportunity. Review the material thoroughly and try again."}
	}
}

// BuildReview derives the results page from a stored attempt. It reads only the
// bundle; nothing is rescored.
func BuildReview(b *exam.ResultBundle) Review {
	def := b.TestData
	res := b.Results

	questions := make([]QuestionReview, 0, len(def.Questions))
	answered := 0
	for i, q := range def.Questions {
		var st exam.AnswerState
		if i < len(b.UserAnswers) {
			st = b.UserAnswers[i]
		}
		if st.IsAnswered {
			answered++
		}
		questions = append(questions, reviewQuestion(i, q, st))
	}

	return Review{
		Title:     def.DisplayTitle(),
		Mode:      b.TestMode,
		ModeLabel: modeLabel(b.TestMode),
		Score:     res.Score,
		Passed:    res.Passed,
		Statistics: Statistics{
			CorrectCount:       res.CorrectCount,
			TotalQuestions:     res.TotalQuestions,
			EarnedPoints:       res.EarnedPoints,
			TotalPoints:        res.TotalPoints,
			Points:             fmt.Sprintf("%s/%s", formatPoints(res.EarnedPoints), formatPoints(res.TotalPoints)),
			TimeSpent:          b.TimeSpent,
			TimeSpentDisplay:   FormatDuration(b.TimeSpent),
			SecondsPerQuestion: ratio(float64(b.TimeSpent), res.TotalQuestions, 1),
			AccuracyPercent:    ratio(float64(res.CorrectCount), res.TotalQuestions, 100),
			CompletionPercent:  ratio(float64(answered), len(def.Questions), 100),
			AnsweredCount:      answered,
		},
		Performance: PerformanceFor(res.Score),
		Questions:   questions,
		Retake:      retakeFor(def, b.TestMode),
	}
}

func reviewQuestion(index int, q testdef.Question, st exam.AnswerState) QuestionReview {
	correct := make(map[string]struct{}, len(q.CorrectAnswer))
	for _, k := range q.CorrectAnswer {
		correct[k] = struct{}{}
	}
	selected := make(map[string]struct{}, len(st.Selected))
	for _, k := range st.Selected {
		selected[k] = struct{}{}
	}

	opts := make([]OptionReview, 0, len(q.Options))
	for _, o := range q.Options {
		_, isCorrect := correct[o.Key]
		_, isSelected := selected[o.Key]
		indicator := IndicatorNeutral
		switch {
		case isCorrect:
			indicator = IndicatorCorrect
		case isSelected:
			indicator = IndicatorIncorrect
		}
		opts = append(opts, OptionReview{
			Key:           o.Key,
			Letter:        strings.ToUpper(o.Key),
			Text:          o.Text,
			Indicator:     indicator,
			YourChoice:    isSelected,
			CorrectAnswer: isCorrect && !isSelected,
		})
	}

	points := q.Points
	if points <= 0 {
		points = 1
	}
	return QuestionReview{
		Number:      index + 1,
		Text:        q.Text,
		Correct:     st.IsCorrect,
		Answered:    st.IsAnswered,
		Points:      points,
		Options:     opts,
		Explanation: q.Explanation,
	}
}

func retakeFor(def *testdef.Definition, mode exam.Mode) Retake {
	category := strings.TrimSpace(def.Category)
	if category == "" {
		category = defaultRetakeCategory
	}
	subcategory := strings.TrimSpace(def.Subcategory)
	if subcategory == "" {
		subcategory = defaultRetakeSubcategory
	}
	if mode == "" {
		mode = exam.ModePractice
	}
	q := url.Values{}
	q.Set("category", category)
	q.Set("subcategory", subcategory)
	q.Set("mode", string(mode))
	return Retake{
		Category:    category,
		Subcategory: subcategory,
		Mode:        mode,
		URL:         "/api/v1/sessions?" + q.Encode(),
	}
}

func modeLabel(m exam.Mode) string {
	if m == exam.ModeExam {
		return "Exam Mode"
	}
	return "Practice Mode"
}

// FormatDuration renders seconds as M:SS.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func ratio(n float64, d int, scale float64) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(n / float64(d) * scale))
}

func formatPoints(p float64) string {
	if p == math.Trunc(p) {
		return fmt.Sprintf("%d", int64(p))
	}
	return fmt.Sprintf("%g", p)
}
