package testdef

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const metaSheetName = "Meta"

// ImportWorkbook builds a definition from a question sheet.
//
// The first sheet holds one question per row. Header columns are text, type, correct,
// points and explanation; every single-letter header (a, b, c, ...) is an option column,
// in header order. An optional "Meta" sheet holds key/value rows for title, time_limit
// and passing_score.
func ImportWorkbook(r io.Reader) (*Definition, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open excel: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel sheet is empty")
	}
	questionSheet := sheets[0]
	if questionSheet == metaSheetName && len(sheets) > 1 {
		questionSheet = sheets[1]
	}

	rows, err := f.GetRows(questionSheet)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, errors.New("no data rows found")
	}

	header := map[string]int{}
	optionCols := make([]string, 0, 6)
	for i, h := range rows[0] {
		name := strings.ToLower(strings.TrimSpace(h))
		if name == "" {
			continue
		}
		header[name] = i
		if len(name) == 1 && name[0] >= 'a' && name[0] <= 'z' {
			optionCols = append(optionCols, name)
		}
	}
	for _, col := range []string{"text", "correct"} {
		if _, ok := header[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}
	if len(optionCols) == 0 {
		return nil, errors.New("missing option columns (a, b, c, ...)")
	}

	def := &Definition{Questions: make([]Question, 0, len(rows)-1)}
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		get := func(key string) string {
			idx, ok := header[key]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		text := get("text")
		if text == "" && get("correct") == "" {
			continue
		}

		q := Question{
			Text:          text,
			Type:          QuestionType(strings.ToLower(get("type"))),
			CorrectAnswer: splitKeys(get("correct")),
			Explanation:   get("explanation"),
		}
		for _, col := range optionCols {
			if v := get(col); v != "" {
				q.Options = append(q.Options, Option{Key: col, Text: v})
			}
		}
		if raw := get("points"); raw != "" {
			p, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d invalid points %q", ErrSchema, i+1, raw)
			}
			q.Points = p
		}
		def.Questions = append(def.Questions, q)
	}

	if err := readMeta(f, def); err != nil {
		return nil, err
	}
	if err := Validate(def); err != nil {
		return nil, err
	}
	return def, nil
}

func readMeta(f *excelize.File, def *Definition) error {
	if idx, _ := f.GetSheetIndex(metaSheetName); idx < 0 {
		return nil
	}
	rows, err := f.GetRows(metaSheetName)
	if err != nil {
		return fmt.Errorf("read meta rows: %w", err)
	}
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(row[0]))
		val := strings.TrimSpace(row[1])
		switch key {
		case "title":
			def.Title = val
		case "time_limit":
			n, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("%w: meta time_limit %q", ErrSchema, val)
			}
			def.Metadata.TimeLimit = &n
		case "passing_score":
			p, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return fmt.Errorf("%w: meta passing_score %q", ErrSchema, val)
			}
			def.Metadata.PassingScore = &p
		}
	}
	return nil
}

func splitKeys(raw string) []string {
	fields := strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return r == ',' || r == ';' || r == ' '
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
