package client

import (
	"context"
	"net/http"
)

type HistoryItem struct {
	Filename    string  `json:"filename"`
	PDFURL      *string `json:"pdfUrl"`
	ImageURL    *string `json:"imageUrl"`
	VideoURL    *string `json:"videoUrl"`
	UploadedAt  *int64  `json:"uploadedAt"`
	Summary     string  `json:"summary"`
	SummaryHTML string  `json:"summaryHtml"`
}

type DashboardStats struct {
	FilesUploaded  int64         `json:"filesUploaded"`
	TotalSummaries int64         `json:"totalSummaries"`
	FreeTrialsLeft int64         `json:"freeTrialsLeft"`
	History        []HistoryItem `json:"history"`
}

func (c *Client) GetDashboard(ctx context.Context) (*DashboardStats, error) {
	var result struct {
		Stats DashboardStats `json:"stats"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/dash/get-details", nil, "", &result); err != nil {
		return nil, err
	}
	return &result.Stats, nil
}
