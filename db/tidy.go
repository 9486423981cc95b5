package db

import (
	"context"
	"time"

	sb "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"
)

// Tidy removes videos older than the retention window. With dryRun set it
// only reports how many rows would go.
func (db *DB) Tidy(ctx context.Context, retentionDays int, dryRun bool) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays).Unix()

	if dryRun {
		count := sb.SQLite.NewSelectBuilder()
		count.Select("count(*)").From("videos")
		count.Where(count.LessEqualThan("created_at", cutoff))

		query, args := count.Build()
		var n int64
		if err := db.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
			return 0, err
		}
		return n, nil
	}

	deleteVideos := sb.SQLite.NewDeleteBuilder()
	deleteVideos.DeleteFrom("videos")
	deleteVideos.Where(deleteVideos.LessEqualThan("created_at", cutoff))

	query, args := deleteVideos.Build()
	log.WithFields(log.Fields{
		"sql":  query,
		"args": args,
	}).Info("Tidying database")

	res, err := db.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
