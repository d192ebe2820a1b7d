package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	reviewSheet  = "Review"
)

// ExportWorkbook renders a review as an .xlsx file with a summary sheet and one
// row per question.
func ExportWorkbook(rv Review) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	result := "Failed"
	if rv.Passed {
		result = "Passed"
	}
	summary := [][]any{
		{"Test", rv.Title},
		{"Mode", rv.ModeLabel},
		{"Score", fmt.Sprintf("%d%%", rv.Score)},
		{"Result", result},
		{"Correct answers", fmt.Sprintf("%d/%d", rv.Statistics.CorrectCount, rv.Statistics.TotalQuestions)},
		{"Points", rv.Statistics.Points},
		{"Time spent", rv.Statistics.TimeSpentDisplay},
		{"Seconds per question", rv.Statistics.SecondsPerQuestion},
		{"Accuracy", fmt.Sprintf("%d%%", rv.Statistics.AccuracyPercent)},
		{"Completion", fmt.Sprintf("%d%%", rv.Statistics.CompletionPercent)},
		{"Performance", rv.Performance.Message},
	}
	for i, row := range summary {
		writeRow(f, summarySheet, i+1, row)
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 22)
	_ = f.SetColWidth(summarySheet, "B", "B", 60)

	if _, err := f.NewSheet(reviewSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	writeRow(f, reviewSheet, 1, []any{"#", "Question", "Result", "Points", "Your answer", "Correct answer", "Explanation"})
	for i, q := range rv.Questions {
		var yours, correct []string
		for _, o := range q.Options {
			if o.YourChoice {
				yours = append(yours, o.Letter)
			}
			if o.Indicator == IndicatorCorrect {
				correct = append(correct, o.Letter)
			}
		}
		status := "Incorrect"
		if q.Correct {
			status = "Correct"
		}
		writeRow(f, reviewSheet, i+2, []any{
			q.Number,
			q.Text,
			status,
			q.Points,
			strings.Join(yours, ", "),
			strings.Join(correct, ", "),
			q.Explanation,
		})
	}
	_ = f.SetColWidth(reviewSheet, "B", "B", 60)
	_ = f.SetColWidth(reviewSheet, "C", "F", 16)
	_ = f.SetColWidth(reviewSheet, "G", "G", 60)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}
