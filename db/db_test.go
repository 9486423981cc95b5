package db_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"nearcast/db"
	"nearcast/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *db.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "nearcast-test.db")
	require.NoError(t, db.Migrate(path))

	store, err := db.Connect(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func seedBusiness(t *testing.T, store *db.DB, id string, category models.Category, lat, lng *float64) {
	t.Helper()
	require.NoError(t, store.CreateBusiness(context.Background(), models.Business{
		Id:        id,
		Name:      "business " + id,
		Category:  category,
		Latitude:  lat,
		Longitude: lng,
		CreatedAt: time.Now().Unix(),
	}))
}

func seedVideo(t *testing.T, store *db.DB, id, businessId string, createdAt int64) {
	t.Helper()
	require.NoError(t, store.CreateVideo(context.Background(), models.Video{
		Id:         id,
		BusinessId: businessId,
		Title:      "video " + id,
		MediaUrl:   "https://media.example/" + id + ".mp4",
		CreatedAt:  createdAt,
	}))
}

func ptr(v float64) *float64 {
	return &v
}

func TestFeedCandidatesOrderingAndKeyset(t *testing.T) {
	store := testDB(t)
	ctx := context.Background()

	seedBusiness(t, store, "biz", models.CategoryCafe, ptr(42.44), ptr(-76.50))
	seedVideo(t, store, "b", "biz", 1000)
	seedVideo(t, store, "a", "biz", 1000)
	seedVideo(t, store, "c", "biz", 900)

	items, err := store.FeedCandidates(ctx, models.FeedCandidateQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, items, 3)

	// created_at DESC, id ASC
	assert.Equal(t, "a", items[0].Id)
	assert.Equal(t, "b", items[1].Id)
	assert.Equal(t, "c", items[2].Id)

	// joined business projection comes along
	assert.Equal(t, "biz", items[0].Business.Id)
	assert.Equal(t, models.CategoryCafe, items[0].Business.Category)
	require.NotNil(t, items[0].Business.Latitude)
	assert.InDelta(t, 42.44, *items[0].Business.Latitude, 1e-9)

	// resume past (1000, "a"): same-second id tie-break first, then older
	rest, err := store.FeedCandidates(ctx, models.FeedCandidateQuery{
		BeforeTime: 1000,
		BeforeId:   "a",
		Limit:      10,
	})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, "b", rest[0].Id)
	assert.Equal(t, "c", rest[1].Id)
}

func TestFeedCandidatesCategoryFilter(t *testing.T) {
	store := testDB(t)
	ctx := context.Background()

	seedBusiness(t, store, "cafe", models.CategoryCafe, nil, nil)
	seedBusiness(t, store, "bar", models.CategoryBar, nil, nil)
	seedVideo(t, store, "v1", "cafe", 100)
	seedVideo(t, store, "v2", "bar", 200)

	items, err := store.FeedCandidates(ctx, models.FeedCandidateQuery{
		Category: models.CategoryBar,
		Limit:    10,
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "v2", items[0].Id)

	// businesses without coordinates scan as nil, not zero
	assert.Nil(t, items[0].Business.Latitude)
	assert.Nil(t, items[0].Business.Longitude)
}

func TestFeedCandidatesLimit(t *testing.T) {
	store := testDB(t)
	ctx := context.Background()

	seedBusiness(t, store, "biz", models.CategoryRetail, nil, nil)
	for i := 0; i < 5; i++ {
		seedVideo(t, store, string(rune('a'+i)), "biz", int64(100+i))
	}

	items, err := store.FeedCandidates(ctx, models.FeedCandidateQuery{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestBusinessRoundTrip(t *testing.T) {
	store := testDB(t)
	ctx := context.Background()

	seedBusiness(t, store, "biz", models.CategoryBakery, ptr(42.44), ptr(-76.50))

	business, err := store.GetBusiness(ctx, "biz")
	require.NoError(t, err)
	require.NotNil(t, business)
	assert.Equal(t, models.CategoryBakery, business.Category)

	business.Name = "renamed"
	business.Latitude = nil
	business.Longitude = nil
	require.NoError(t, store.UpdateBusiness(ctx, *business))

	updated, err := store.GetBusiness(ctx, "biz")
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "renamed", updated.Name)
	assert.Nil(t, updated.Latitude)

	missing, err := store.GetBusiness(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDeleteVideo(t *testing.T) {
	store := testDB(t)
	ctx := context.Background()

	seedBusiness(t, store, "biz", models.CategoryOther, nil, nil)
	seedVideo(t, store, "v1", "biz", 100)

	deleted, err := store.DeleteVideo(ctx, "v1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.DeleteVideo(ctx, "v1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestTidy(t *testing.T) {
	store := testDB(t)
	ctx := context.Background()

	seedBusiness(t, store, "biz", models.CategoryOther, nil, nil)
	seedVideo(t, store, "old", "biz", time.Now().AddDate(0, 0, -120).Unix())
	seedVideo(t, store, "new", "biz", time.Now().Unix())

	n, err := store.Tidy(ctx, 90, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// dry run deleted nothing
	items, err := store.FeedCandidates(ctx, models.FeedCandidateQuery{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	n, err = store.Tidy(ctx, 90, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	items, err = store.FeedCandidates(ctx, models.FeedCandidateQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "new", items[0].Id)
}

func TestSessions(t *testing.T) {
	store := testDB(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, models.Session{
		Token:     "tok",
		UserId:    "user-1",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}))
	require.NoError(t, store.CreateSession(ctx, models.Session{
		Token:     "stale",
		UserId:    "user-2",
		ExpiresAt: time.Now().Add(-time.Hour).Unix(),
	}))

	session, err := store.GetSession(ctx, "tok")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "user-1", session.UserId)

	expired, err := store.GetSession(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, expired)

	unknown, err := store.GetSession(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, unknown)
}
