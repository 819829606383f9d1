package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"docbrief/internal/model"
	"docbrief/internal/pkg/dbutil"
	appErr "docbrief/internal/pkg/errors"
)

type StatsRepo struct {
	db *sql.DB
}

func NewStatsRepo(db *sql.DB) *StatsRepo {
	return &StatsRepo{db: db}
}

// IncFilesUploaded and IncTotalSummaries rely on upsert-increment so the
// row appears on first use and concurrent increments never lose updates.
func (r *StatsRepo) IncFilesUploaded(ctx context.Context, userID string) error {
	return r.increment(ctx, userID, "files_uploaded")
}

func (r *StatsRepo) IncTotalSummaries(ctx context.Context, userID string) error {
	return r.increment(ctx, userID, "total_summaries")
}

func (r *StatsRepo) increment(ctx context.Context, userID, column string) error {
	query := `INSERT INTO user_stats (user_id, ` + column + `) VALUES ($1, 1)
		ON CONFLICT (user_id) DO UPDATE SET ` + column + ` = user_stats.` + column + ` + 1`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

func (r *StatsRepo) Get(ctx context.Context, userID string) (*model.UserStats, error) {
	where := map[string]interface{}{"user_id": userID}
	sqlStr, args, err := builder.BuildSelect("user_stats", where,
		[]string{"user_id", "files_uploaded", "total_summaries", "free_trials_left"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var stats model.UserStats
	if err := rows.Scan(&stats.UserID, &stats.FilesUploaded, &stats.TotalSummaries, &stats.FreeTrialsLeft); err != nil {
		return nil, err
	}
	return &stats, nil
}
