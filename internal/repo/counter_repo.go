package repo

import (
	"context"
	"database/sql"
)

type CounterRepo struct {
	db *sql.DB
}

func NewCounterRepo(db *sql.DB) *CounterRepo {
	return &CounterRepo{db: db}
}

// Next atomically increments the named counter and returns the new value.
// Concurrent callers never observe the same sequence number.
func (r *CounterRepo) Next(ctx context.Context, name string) (int64, error) {
	const query = `INSERT INTO counters (name, seq) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET seq = counters.seq + 1
		RETURNING seq`
	var seq int64
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}
