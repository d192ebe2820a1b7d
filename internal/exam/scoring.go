package exam

import (
	"math"
	"sort"
	"strings"

	"cadetquiz/internal/testdef"
)

type ScoreInput struct {
	QuestionType testdef.QuestionType
	Selected     []string
	CorrectKeys  []string
	Weight       float64
}

type ScoreResult struct {
	Answered    bool     `json:"answered"`
	IsCorrect   bool     `json:"is_correct"`
	EarnedScore float64  `json:"earned_score"`
	Reason      string   `json:"reason"`
	Selected    []string `json:"selected,omitempty"`
	Correct     []string `json:"correct,omitempty"`
}

// Results is the aggregate stored in the result bundle.
type Results struct {
	CorrectCount   int     `json:"correctCount"`
	TotalQuestions int     `json:"totalQuestions"`
	Score          int     `json:"score"`
	EarnedPoints   float64 `json:"earnedPoints"`
	TotalPoints    float64 `json:"totalPoints"`
	Passed         bool    `json:"passed"`
}

// ScoreQuestion compares the selection with the key as sets. There is no partial credit.
func ScoreQuestion(in ScoreInput) ScoreResult {
	weight := in.Weight
	if weight < 0 {
		weight = 0
	}

	correct := normalizeStringSet(in.CorrectKeys)
	selected := normalizeStringSet(in.Selected)
	if len(selected) == 0 {
		// an empty key is matched by leaving the question blank
		if len(correct) == 0 {
			return ScoreResult{IsCorrect: true, EarnedScore: weight, Reason: "correct", Selected: selected, Correct: correct}
		}
		return ScoreResult{Answered: false, Reason: "unanswered", Correct: correct}
	}

	if equalSet(selected, correct) {
		return ScoreResult{Answered: true, IsCorrect: true, EarnedScore: weight, Reason: "correct", Selected: selected, Correct: correct}
	}
	return ScoreResult{Answered: true, Reason: "wrong", Selected: selected, Correct: correct}
}

// ComputeResults grades every answer against def. It returns the aggregate and a copy of the
// answers with IsCorrect filled in; the input slice is not modified.
func ComputeResults(def *testdef.Definition, answers []AnswerState) (Results, []AnswerState) {
	graded := make([]AnswerState, len(def.Questions))
	res := Results{TotalQuestions: len(def.Questions)}

	for i, q := range def.Questions {
		var st AnswerState
		if i < len(answers) {
			st = answers[i].clone()
		} else {
			st = AnswerState{Selected: []string{}}
		}

		points := questionPoints(q)
		res.TotalPoints += points

		sr := ScoreQuestion(ScoreInput{
			QuestionType: q.Type,
			Selected:     st.Selected,
			CorrectKeys:  q.CorrectAnswer,
			Weight:       points,
		})
		st.IsCorrect = sr.IsCorrect
		st.IsAnswered = len(st.Selected) > 0
		if sr.IsCorrect {
			res.CorrectCount++
			res.EarnedPoints += sr.EarnedScore
		}
		graded[i] = st
	}

	if res.TotalPoints > 0 {
		res.Score = int(math.Round(res.EarnedPoints / res.TotalPoints * 100))
	}
	res.Passed = float64(res.Score) >= def.PassingScore()
	return res, graded
}

// IsCorrect is the practice-mode check for a single answer.
func IsCorrect(q testdef.Question, st AnswerState) bool {
	return ScoreQuestion(ScoreInput{QuestionType: q.Type, Selected: st.Selected, CorrectKeys: q.CorrectAnswer, Weight: 1}).IsCorrect
}

func questionPoints(q testdef.Question) float64 {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}

func normalizeStringSet(in []string) []string {
	set := map[string]struct{}{}
	for _, v := range in {
		s := strings.TrimSpace(v)
		if s == "" {
			continue
		}
		set[s] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func equalSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	aa := append([]string(nil), a...)
	bb := append([]string(nil), b...)
	sort.Strings(aa)
	sort.Strings(bb)
	for i := range aa {
		if aa[i] != bb[i] {
			return false
		}
	}
	return true
}
