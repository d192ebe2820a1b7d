package report

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"cadetquiz/internal/exam"
)

type resultsLoader interface {
	LoadResults(ctx context.Context, visitorID string) (*exam.ResultBundle, error)
}

type Service struct {
	results resultsLoader
	signer  *Signer
}

type ShareLink struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Score int    `json:"score"`
}

type Export struct {
	Filename string
	Data     []byte
}

func NewService(results resultsLoader, signer *Signer) *Service {
	return &Service{results: results, signer: signer}
}

// Review returns the results page for the visitor's latest finished attempt.
func (s *Service) Review(ctx context.Context, visitorID string) (*Review, error) {
	b, err := s.results.LoadResults(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	rv := BuildReview(b)
	return &rv, nil
}

func (s *Service) Export(ctx context.Context, visitorID string) (*Export, error) {
	rv, err := s.Review(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	data, err := ExportWorkbook(*rv)
	if err != nil {
		return nil, fmt.Errorf("export results: %w", err)
	}
	return &Export{Filename: exportFilename(rv.Title), Data: data}, nil
}

func (s *Service) Share(ctx context.Context, visitorID string) (*ShareLink, error) {
	rv, err := s.Review(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	return &ShareLink{
		URL:   "/api/v1/shared?" + s.signer.Query(rv.Title, rv.Score).Encode(),
		Title: rv.Title,
		Score: rv.Score,
	}, nil
}

func (s *Service) Shared(q url.Values) (Shared, error) {
	return s.signer.Verify(q)
}

var unsafeFilename = regexp.MustCompile(`[^a-z0-9]+`)

func exportFilename(title string) string {
	slug := strings.Trim(unsafeFilename.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if slug == "" {
		slug = "test"
	}
	return slug + "-results.xlsx"
}
