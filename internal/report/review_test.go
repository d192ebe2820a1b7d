package report

import (
	"bytes"
	"testing"

	"cadetquiz/internal/exam"
	"cadetquiz/internal/testdef"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func bundle(t *testing.T, selections [][]string, timeSpent int) *exam.ResultBundle {
	t.Helper()
	def := &testdef.Definition{
		Title:       "Map Reading",
		Category:    "special",
		Subcategory: "map-reading",
		Questions: []testdef.Question{
			{Text: "North is?", Type: testdef.MultipleChoice, Options: testdef.Options{{Key: "a", Text: "Up"}, {Key: "b", Text: "Down"}}, CorrectAnswer: []string{"a"}, Points: 1, Explanation: "Maps face north."},
			{Text: "Grid terms", Type: testdef.MultipleResponse, Options: testdef.Options{{Key: "a", Text: "Easting"}, {Key: "b", Text: "Northing"}, {Key: "c", Text: "Sideways"}}, CorrectAnswer: []string{"a", "b"}, Points: 2},
			{Text: "Contours join?", Type: testdef.MultipleChoice, Options: testdef.Options{{Key: "a", Text: "Equal height"}, {Key: "b", Text: "Roads"}}, CorrectAnswer: []string{"a"}, Points: 1},
		},
	}
	answers := make([]exam.AnswerState, len(def.Questions))
	for i := range answers {
		answers[i].Selected = []string{}
		if i < len(selections) && len(selections[i]) > 0 {
			answers[i].Selected = selections[i]
			answers[i].IsAnswered = true
		}
	}
	results, graded := exam.ComputeResults(def, answers)
	return &exam.ResultBundle{TestData: def, UserAnswers: graded, Results: results, TimeSpent: timeSpent, TestMode: exam.ModeExam}
}

func TestBuildReviewStatistics(t *testing.T) {
	rv := BuildReview(bundle(t, [][]string{{"a"}, {"a", "c"}}, 125))

	assert.Equal(t, "Map Reading", rv.Title)
	assert.Equal(t, "Exam Mode", rv.ModeLabel)
	assert.Equal(t, 25, rv.Score)
	assert.False(t, rv.Passed)

	st := rv.Statistics
	assert.Equal(t, 1, st.CorrectCount)
	assert.Equal(t, 3, st.TotalQuestions)
	assert.Equal(t, "1/4", st.Points)
	assert.Equal(t, "2:05", st.TimeSpentDisplay)
	assert.Equal(t, 42, st.SecondsPerQuestion)
	assert.Equal(t, 33, st.AccuracyPercent)
	assert.Equal(t, 67, st.CompletionPercent)
	assert.Equal(t, TierPoor, rv.Performance.Tier)
}

func TestBuildReviewOptionIndicators(t *testing.T) {
	rv := BuildReview(bundle(t, [][]string{{"a"}, {"a", "c"}}, 10))
	require.Len(t, rv.Questions, 3)

	q1 := rv.Questions[0]
	assert.True(t, q1.Correct)
	assert.Equal(t, "Maps face north.", q1.Explanation)

	q2 := rv.Questions[1]
	assert.False(t, q2.Correct)
	want := []struct {
		indicator  string
		yourChoice bool
		correct    bool
	}{
		{IndicatorCorrect, true, false},
		{IndicatorCorrect, false, true},
		{IndicatorIncorrect, true, false},
	}
	for i, w := range want {
		o := q2.Options[i]
		assert.Equal(t, w.indicator, o.Indicator, "option %s", o.Key)
		assert.Equal(t, w.yourChoice, o.YourChoice, "option %s", o.Key)
		assert.Equal(t, w.correct, o.CorrectAnswer, "option %s", o.Key)
	}

	q3 := rv.Questions[2]
	assert.False(t, q3.Answered)
	assert.Equal(t, IndicatorNeutral, q3.Options[1].Indicator)
}

func TestPerformanceTiers(t *testing.T) {
	tests := []struct {
		score int
		tier  Tier
	}{
		{100, TierExcellent}, {90, TierExcellent}, {89, TierGood}, {75, TierGood},
		{74, TierAverage}, {60, TierAverage}, {59, TierAverage}, {40, TierAverage},
		{39, TierPoor}, {0, TierPoor},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.tier, PerformanceFor(tc.score).Tier, "score %d", tc.score)
	}
}

func TestRetakeDefaults(t *testing.T) {
	b := bundle(t, nil, 0)
	b.TestData.Category = ""
	b.TestData.Subcategory = ""
	b.TestMode = exam.ModePractice

	rv := BuildReview(b)
	assert.Equal(t, "common", rv.Retake.Category)
	assert.Equal(t, "general", rv.Retake.Subcategory)
	assert.Equal(t, "/api/v1/sessions?category=common&mode=practice&subcategory=general", rv.Retake.URL)
	assert.Equal(t, 0, rv.Statistics.CompletionPercent)
}

func TestExportWorkbook(t *testing.T) {
	rv := BuildReview(bundle(t, [][]string{{"a"}, {"a", "b"}, {"a"}}, 90))

	data, err := ExportWorkbook(rv)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	score, err := f.GetCellValue(summarySheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "100%", score)

	rows, err := f.GetRows(reviewSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"2", "Grid terms", "Correct", "2", "A, B", "A, B"}, rows[2][:6])
}
