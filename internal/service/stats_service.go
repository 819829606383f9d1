package service

import (
	"bytes"
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"docbrief/internal/model"
	appErr "docbrief/internal/pkg/errors"
	"docbrief/internal/repo"
)

const historyLimit = 20

type StatsService struct {
	stats   *repo.StatsRepo
	history *repo.HistoryRepo
}

func NewStatsService(stats *repo.StatsRepo, history *repo.HistoryRepo) *StatsService {
	return &StatsService{stats: stats, history: history}
}

func (s *StatsService) IncFilesUploaded(ctx context.Context, userID string) error {
	return s.stats.IncFilesUploaded(ctx, userID)
}

// RecordSummary bumps the summary counter and appends a history row. The
// history entry may carry nil artifact URLs when persistence failed.
func (s *StatsService) RecordSummary(ctx context.Context, entry *model.HistoryEntry) error {
	if err := s.stats.IncTotalSummaries(ctx, entry.UserID); err != nil {
		return err
	}
	return s.history.Add(ctx, entry)
}

type HistoryItem struct {
	Filename   string  `json:"filename"`
	PDFURL     *string `json:"pdfUrl"`
	ImageURL   *string `json:"imageUrl"`
	VideoURL   *string `json:"videoUrl"`
	UploadedAt *int64  `json:"uploadedAt"`
	Summary    string  `json:"summary"`
	// SummaryHTML is the summary's markdown rendered server-side, so the
	// dashboard can show formatted history without a client-side renderer.
	SummaryHTML string `json:"summaryHtml"`
}

var summaryMarkdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

func renderSummaryHTML(summary string) string {
	if strings.TrimSpace(summary) == "" {
		return ""
	}
	var out bytes.Buffer
	if err := summaryMarkdown.Convert([]byte(summary), &out); err != nil {
		return ""
	}
	return strings.TrimSpace(out.String())
}

type DashboardStats struct {
	FilesUploaded  int64         `json:"filesUploaded"`
	TotalSummaries int64         `json:"totalSummaries"`
	FreeTrialsLeft int64         `json:"freeTrialsLeft"`
	History        []HistoryItem `json:"history"`
}

// Details assembles the dashboard payload. A user with no stats row gets
// zero counters and the default trial allowance; an empty history gets a
// single "NA" placeholder entry, which the frontend renders as-is.
func (s *StatsService) Details(ctx context.Context, userID string) (*DashboardStats, error) {
	result := &DashboardStats{FreeTrialsLeft: 5}
	stats, err := s.stats.Get(ctx, userID)
	if err != nil && !appErr.IsNotFound(err) {
		return nil, err
	}
	if stats != nil {
		result.FilesUploaded = stats.FilesUploaded
		result.TotalSummaries = stats.TotalSummaries
		result.FreeTrialsLeft = stats.FreeTrialsLeft
	}
	entries, err := s.history.ListByUser(ctx, userID, historyLimit)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		uploadedAt := entry.UploadedAt
		result.History = append(result.History, HistoryItem{
			Filename:    entry.Filename,
			PDFURL:      entry.PDFURL,
			ImageURL:    entry.ImageURL,
			VideoURL:    entry.VideoURL,
			UploadedAt:  &uploadedAt,
			Summary:     entry.Summary,
			SummaryHTML: renderSummaryHTML(entry.Summary),
		})
	}
	if len(result.History) == 0 {
		result.History = []HistoryItem{{Filename: "NA", Summary: "NA"}}
	}
	return result, nil
}
