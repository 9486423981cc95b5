package feed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"nearcast/models"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// Store is the single read the engine performs per invocation: a filtered,
// keyset-bounded, ordered fetch over the video/business join.
type Store interface {
	FeedCandidates(ctx context.Context, query models.FeedCandidateQuery) ([]models.FeedItem, error)
}

// Options tune page sizing. Zero fields fall back to the defaults below.
type Options struct {
	// DefaultLimit is the page size when the caller supplies none.
	DefaultLimit int

	// MaxLimit is the hard page size ceiling.
	MaxLimit int

	// OverfetchLimit caps the candidate batch fetched when the radius
	// filter is active. Matches beyond it are reported via HasMore only
	// approximately.
	OverfetchLimit int
}

const (
	defaultLimit   = 20
	maxLimit       = 50
	overfetchLimit = 200
)

// ValidationError marks caller mistakes: contradictory location parameters,
// malformed cursors, unknown categories. Never retried, never partial.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// Request carries the raw feed query. Location pointers are nil when the
// parameter was absent; the engine enforces the all-or-none rule itself.
type Request struct {
	Latitude    *float64
	Longitude   *float64
	RadiusMiles *float64
	Category    string
	Cursor      string
	Limit       int
}

// Engine produces one feed page per call. It is stateless and safe for
// concurrent use.
type Engine struct {
	store Store
	opts  Options
}

func NewEngine(store Store, opts Options) *Engine {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = defaultLimit
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = maxLimit
	}
	if opts.OverfetchLimit <= 0 {
		opts.OverfetchLimit = overfetchLimit
	}
	return &Engine{
		store: store,
		opts:  opts,
	}
}

// FetchPage validates the request, performs a single candidate read and
// assembles a page ordered by (created_at DESC, id ASC) with a resumable
// cursor. Validation failures come back as *ValidationError; anything else
// is a store failure.
func (e *Engine) FetchPage(ctx context.Context, req Request) (*models.FeedResponse, error) {
	start := time.Now()

	resp, err := e.fetchPage(ctx, req)

	feedRequestDuration.Observe(time.Since(start).Seconds())
	switch {
	case err == nil:
		feedRequests.WithLabelValues("ok").Inc()
	case IsValidationError(err):
		feedRequests.WithLabelValues("invalid").Inc()
	default:
		feedRequests.WithLabelValues("error").Inc()
	}

	return resp, err
}

func (e *Engine) fetchPage(ctx context.Context, req Request) (*models.FeedResponse, error) {
	limit := clampLimit(req.Limit, e.opts.DefaultLimit, e.opts.MaxLimit)

	geo, err := validateLocation(req)
	if err != nil {
		return nil, err
	}

	var category models.Category
	if req.Category != "" {
		parsed, ok := models.ParseCategory(req.Category)
		if !ok {
			return nil, validationErrorf("unknown category %q", req.Category)
		}
		category = parsed
	}

	query := models.FeedCandidateQuery{
		Category: category,
		Limit:    limit + 1,
	}
	if geo {
		// An unknown fraction of the batch will be dropped by the
		// radius test, so fetch a larger bounded batch up front.
		query.Limit = e.opts.OverfetchLimit
	}

	if req.Cursor != "" {
		cursor, err := ParseCursor(req.Cursor)
		if err != nil {
			return nil, err
		}
		query.BeforeTime = cursor.CreatedAt
		query.BeforeId = cursor.Id
	}

	candidates, err := e.store.FeedCandidates(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("fetch feed candidates: %w", err)
	}
	feedCandidateBatchSize.Observe(float64(len(candidates)))

	log.WithFields(log.Fields{
		"category":   category,
		"geo":        geo,
		"limit":      limit,
		"candidates": len(candidates),
	}).Debug("Fetched feed candidates")

	if geo {
		return e.geoPage(req, candidates, limit), nil
	}
	return plainPage(candidates, limit), nil
}

// plainPage handles the no-location path: the store was asked for limit+1
// rows so one extra row cheaply signals another page.
func plainPage(candidates []models.FeedItem, limit int) *models.FeedResponse {
	hasMore := len(candidates) > limit
	if hasMore {
		candidates = candidates[:limit]
	}

	var nextCursor *string
	if hasMore {
		last := candidates[len(candidates)-1]
		encoded := EncodeCursor(last.CreatedAt, last.Id)
		nextCursor = &encoded
	}

	return &models.FeedResponse{
		Videos:     emptyIfNil(candidates),
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}
}

// geoPage filters the over-fetched batch by distance. The store order is
// preserved by construction: dropping rows from an ordered batch keeps the
// remainder ordered, so no re-sort happens here.
func (e *Engine) geoPage(req Request, candidates []models.FeedItem, limit int) *models.FeedResponse {
	lat, lng, radius := *req.Latitude, *req.Longitude, *req.RadiusMiles

	matches := lo.Filter(candidates, func(item models.FeedItem, _ int) bool {
		if !item.Business.HasLocation() {
			feedDistanceExcluded.Inc()
			return false
		}
		d := HaversineMiles(lat, lng, *item.Business.Latitude, *item.Business.Longitude)
		if d > radius {
			feedDistanceExcluded.Inc()
			return false
		}
		return true
	})

	// A batch of exactly the ceiling means the store may hold further
	// candidates we never saw; HasMore and TotalInRadius are then lower
	// bounds relative to the scanned batch, not the whole dataset.
	truncated := len(candidates) == e.opts.OverfetchLimit
	total := len(matches)

	page := matches
	hasMore := truncated
	if len(matches) > limit {
		page = matches[:limit]
		hasMore = true
	}

	var nextCursor *string
	switch {
	case len(matches) > limit:
		last := page[len(page)-1]
		encoded := EncodeCursor(last.CreatedAt, last.Id)
		nextCursor = &encoded
	case truncated:
		// Every match was returned but the scan was cut short. Resume
		// from the last scanned candidate so the next call makes
		// progress past the non-matching region instead of rescanning
		// it.
		last := candidates[len(candidates)-1]
		encoded := EncodeCursor(last.CreatedAt, last.Id)
		nextCursor = &encoded
	}

	return &models.FeedResponse{
		Videos:        emptyIfNil(page),
		NextCursor:    nextCursor,
		HasMore:       hasMore,
		TotalInRadius: &total,
	}
}

// validateLocation enforces the all-or-none rule for lat/lng/radius and
// reports whether the radius filter is active.
func validateLocation(req Request) (bool, error) {
	supplied := 0
	for _, v := range []*float64{req.Latitude, req.Longitude, req.RadiusMiles} {
		if v != nil {
			supplied++
		}
	}

	if supplied == 0 {
		return false, nil
	}
	if supplied != 3 {
		return false, validationErrorf("lat, lng and radiusMi must be supplied together")
	}

	for _, v := range []float64{*req.Latitude, *req.Longitude, *req.RadiusMiles} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false, validationErrorf("lat, lng and radiusMi must be finite numbers")
		}
	}

	if *req.RadiusMiles <= 0 {
		return false, validationErrorf("radiusMi must be greater than zero")
	}

	return true, nil
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

func emptyIfNil(items []models.FeedItem) []models.FeedItem {
	if items == nil {
		return []models.FeedItem{}
	}
	return items
}

// IsValidationError reports whether err originated from request validation.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
