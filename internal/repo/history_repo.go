package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"docbrief/internal/model"
	"docbrief/internal/pkg/dbutil"
)

var historyFields = []string{"id", "user_id", "filename", "summary", "size", "mime_type", "pdf_url", "image_url", "video_url", "uploaded_at"}

type HistoryRepo struct {
	db *sql.DB
}

func NewHistoryRepo(db *sql.DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

func (r *HistoryRepo) Add(ctx context.Context, entry *model.HistoryEntry) error {
	data := map[string]interface{}{
		"id":          entry.ID,
		"user_id":     entry.UserID,
		"filename":    entry.Filename,
		"summary":     entry.Summary,
		"size":        entry.Size,
		"mime_type":   entry.MimeType,
		"pdf_url":     entry.PDFURL,
		"image_url":   entry.ImageURL,
		"video_url":   entry.VideoURL,
		"uploaded_at": entry.UploadedAt,
	}
	sqlStr, args, err := builder.BuildInsert("upload_history", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *HistoryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*model.HistoryEntry, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"_orderby": "uploaded_at desc",
		"_limit":   []uint{0, uint(limit)},
	}
	sqlStr, args, err := builder.BuildSelect("upload_history", where, historyFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	entries := make([]*model.HistoryEntry, 0, limit)
	for rows.Next() {
		var entry model.HistoryEntry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Filename, &entry.Summary, &entry.Size,
			&entry.MimeType, &entry.PDFURL, &entry.ImageURL, &entry.VideoURL, &entry.UploadedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
