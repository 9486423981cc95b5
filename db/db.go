package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"nearcast/models"

	"github.com/cenkalti/backoff/v4"
	sqlbuilder "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"
)

// DB handles all database operations with a shared connection pool
type DB struct {
	db *sql.DB
}

// Connect opens the database and waits for it to become reachable. SQLite
// under WAL can briefly refuse connections while another process holds the
// write lock, so the initial ping retries with exponential backoff.
func Connect(database string) (*DB, error) {
	sqldb, err := connection(database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.Multiplier = 1.5
	bo.MaxElapsedTime = 15 * time.Second

	if err := backoff.Retry(sqldb.Ping, bo); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{db: sqldb}, nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

// Read operations

var feedColumns = []string{
	"videos.id", "videos.business_id", "videos.title", "videos.media_url",
	"videos.thumbnail_url", "videos.created_at",
	"businesses.name", "businesses.category",
	"businesses.latitude", "businesses.longitude", "businesses.created_at",
}

// FeedCandidates returns one ordered batch of videos joined with their
// businesses, bounded by the keyset in the query. Ordering is
// (created_at DESC, id ASC) so the cursor condition in KeysetFilter prunes
// at the storage layer.
func (db *DB) FeedCandidates(ctx context.Context, query models.FeedCandidateQuery) ([]models.FeedItem, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(feedColumns...).From("videos")
	sb.Join("businesses", "videos.business_id = businesses.id")

	filters := []FeedFilter{
		&CategoryFilter{Category: query.Category},
		&KeysetFilter{BeforeTime: query.BeforeTime, BeforeId: query.BeforeId},
	}
	for _, filter := range filters {
		filter.ApplyFilter(sb)
	}

	sb.OrderBy("videos.created_at DESC", "videos.id ASC")
	sb.Limit(query.Limit)

	sql, args := sb.Build()
	log.WithFields(log.Fields{
		"sql":  sql,
		"args": args,
	}).Debug("Generated feed candidate query")

	rows, err := db.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	var items []models.FeedItem
	for rows.Next() {
		item, err := scanFeedItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func scanFeedItem(rows *sql.Rows) (models.FeedItem, error) {
	var item models.FeedItem
	var lat, lng sql.NullFloat64

	err := rows.Scan(
		&item.Id, &item.BusinessId, &item.Title, &item.MediaUrl,
		&item.ThumbnailUrl, &item.CreatedAt,
		&item.Business.Name, &item.Business.Category,
		&lat, &lng, &item.Business.CreatedAt,
	)
	if err != nil {
		return item, err
	}

	item.Business.Id = item.BusinessId
	if lat.Valid {
		item.Business.Latitude = &lat.Float64
	}
	if lng.Valid {
		item.Business.Longitude = &lng.Float64
	}

	return item, nil
}

// GetBusiness returns the business or nil when it does not exist.
func (db *DB) GetBusiness(ctx context.Context, id string) (*models.Business, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("id", "name", "category", "latitude", "longitude", "created_at").From("businesses")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	var business models.Business
	var lat, lng sql.NullFloat64
	err := db.db.QueryRowContext(ctx, query, args...).Scan(
		&business.Id, &business.Name, &business.Category,
		&lat, &lng, &business.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	if lat.Valid {
		business.Latitude = &lat.Float64
	}
	if lng.Valid {
		business.Longitude = &lng.Float64
	}

	return &business, nil
}

// ListBusinessVideos returns a business's videos, newest first.
func (db *DB) ListBusinessVideos(ctx context.Context, businessId string, limit int) ([]models.Video, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("id", "business_id", "title", "media_url", "thumbnail_url", "created_at").From("videos")
	sb.Where(sb.Equal("business_id", businessId))
	sb.OrderBy("created_at DESC", "id ASC")
	sb.Limit(limit)

	query, args := sb.Build()
	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		var video models.Video
		if err := rows.Scan(&video.Id, &video.BusinessId, &video.Title,
			&video.MediaUrl, &video.ThumbnailUrl, &video.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		videos = append(videos, video)
	}

	return videos, rows.Err()
}

// GetVideoCountPerTime returns the number of videos uploaded per hour, day
// or week, optionally for a single category.
func (db *DB) GetVideoCountPerTime(ctx context.Context, category models.Category, timeAgg string) ([]models.VideosAggregatedByTime, error) {
	var sqlFormat string
	var timeParse func(string) (time.Time, error)

	switch timeAgg {
	case "day":
		sqlFormat = `STRFTIME('%Y-%m-%d', videos.created_at, 'unixepoch')`
		timeParse = func(str string) (time.Time, error) {
			return time.Parse("2006-01-02", str)
		}
	case "week":
		sqlFormat = `STRFTIME('%Y-%W', videos.created_at, 'unixepoch')`
		timeParse = parseYearWeek
	default:
		sqlFormat = `STRFTIME('%Y-%m-%d-%H', videos.created_at, 'unixepoch')`
		timeParse = func(str string) (time.Time, error) {
			return time.Parse("2006-01-02-15", str)
		}
	}

	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(sqlFormat, "count(*) as count").From("videos")
	if category != "" {
		sb.Join("businesses", "videos.business_id = businesses.id")
		sb.Where(sb.Equal("businesses.category", string(category)))
	}
	sb.GroupBy(sqlFormat)
	sb.OrderBy("videos.created_at").Asc()

	query, args := sb.Build()
	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []models.VideosAggregatedByTime
	for rows.Next() {
		var sqlTime string
		var count models.VideosAggregatedByTime

		if err := rows.Scan(&sqlTime, &count.Count); err != nil {
			continue // Skip this row
		}

		parsed, err := timeParse(sqlTime)
		if err == nil {
			count.Time = parsed
		}
		counts = append(counts, count)
	}

	return counts, rows.Err()
}

// Write operations

func (db *DB) CreateBusiness(ctx context.Context, business models.Business) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	log.WithFields(log.Fields{
		"id":       business.Id,
		"name":     business.Name,
		"category": business.Category,
	}).Info("Creating business")

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("businesses")
	ib.Cols("id", "name", "category", "latitude", "longitude", "created_at")
	ib.Values(business.Id, business.Name, string(business.Category),
		nullable(business.Latitude), nullable(business.Longitude), business.CreatedAt)

	query, args := ib.Build()
	if _, err := db.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert error: %w", err)
	}
	return nil
}

func (db *DB) UpdateBusiness(ctx context.Context, business models.Business) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	ub := sqlbuilder.SQLite.NewUpdateBuilder()
	ub.Update("businesses")
	ub.Set(
		ub.Assign("name", business.Name),
		ub.Assign("category", string(business.Category)),
		ub.Assign("latitude", nullable(business.Latitude)),
		ub.Assign("longitude", nullable(business.Longitude)),
	)
	ub.Where(ub.Equal("id", business.Id))

	query, args := ub.Build()
	if _, err := db.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update error: %w", err)
	}
	return nil
}

func (db *DB) CreateVideo(ctx context.Context, video models.Video) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	log.WithFields(log.Fields{
		"id":       video.Id,
		"business": video.BusinessId,
	}).Info("Creating video")

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("videos")
	ib.Cols("id", "business_id", "title", "media_url", "thumbnail_url", "created_at")
	ib.Values(video.Id, video.BusinessId, video.Title, video.MediaUrl,
		video.ThumbnailUrl, video.CreatedAt)

	query, args := ib.Build()
	if _, err := db.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert error: %w", err)
	}
	return nil
}

// DeleteVideo removes a video and reports whether a row existed.
func (db *DB) DeleteVideo(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res, err := db.db.ExecContext(ctx, "DELETE FROM videos WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Sessions

// GetSession resolves a bearer token to a session, returning nil for
// unknown or expired tokens.
func (db *DB) GetSession(ctx context.Context, token string) (*models.Session, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("token", "user_id", "expires_at").From("sessions")
	sb.Where(sb.Equal("token", token))

	query, args := sb.Build()

	var session models.Session
	err := db.db.QueryRowContext(ctx, query, args...).Scan(
		&session.Token, &session.UserId, &session.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	if session.ExpiresAt <= time.Now().Unix() {
		return nil, nil
	}
	return &session, nil
}

func (db *DB) CreateSession(ctx context.Context, session models.Session) error {
	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("sessions")
	ib.Cols("token", "user_id", "expires_at")
	ib.Values(session.Token, session.UserId, session.ExpiresAt)

	query, args := ib.Build()
	if _, err := db.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert error: %w", err)
	}
	return nil
}

func nullable(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// parseYearWeek turns SQLite's %Y-%W output back into the first day of
// that week.
func parseYearWeek(str string) (time.Time, error) {
	year, err := time.Parse("2006", str[:4])
	if err != nil {
		return time.Time{}, err
	}
	week, err := strconv.ParseInt(str[5:], 10, 64)
	if err != nil {
		return time.Time{}, err
	}

	_, weekOffset := year.ISOWeek()
	weekOffset = weekOffset - 1
	firstDay := year.AddDate(0, 0, -int(year.Weekday())+weekOffset*7)

	return firstDay.AddDate(0, 0, int(week)*7), nil
}
