package model

// UserStats is advisory usage accounting, updated by upsert-increment.
// It is never authoritative for access control.
type UserStats struct {
	UserID         string `json:"user_id"`
	FilesUploaded  int64  `json:"files_uploaded"`
	TotalSummaries int64  `json:"total_summaries"`
	FreeTrialsLeft int64  `json:"free_trials_left"`
}

type HistoryEntry struct {
	ID         string  `json:"id"`
	UserID     string  `json:"user_id"`
	Filename   string  `json:"filename"`
	Summary    string  `json:"summary"`
	Size       int64   `json:"size"`
	MimeType   string  `json:"mime_type"`
	PDFURL     *string `json:"pdf_url"`
	ImageURL   *string `json:"image_url"`
	VideoURL   *string `json:"video_url"`
	UploadedAt int64   `json:"uploaded_at"`
}
