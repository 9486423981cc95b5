package feed_test

import (
	"testing"
	"time"

	"nearcast/feed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCursor(t *testing.T) {
	tests := []struct {
		name       string
		cursor     string
		expectTime int64
		expectId   string
	}{
		{
			name:       "utc timestamp",
			cursor:     "2024-06-01T12:30:00Z:abc123",
			expectTime: time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC).Unix(),
			expectId:   "abc123",
		},
		{
			name:       "offset timestamp",
			cursor:     "2024-06-01T14:30:00+02:00:abc123",
			expectTime: time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC).Unix(),
			expectId:   "abc123",
		},
		{
			name:       "uuid id",
			cursor:     "2024-06-01T12:30:00Z:0d9796e0-63f7-4a7e-9db1-5ec8360976e0",
			expectTime: time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC).Unix(),
			expectId:   "0d9796e0-63f7-4a7e-9db1-5ec8360976e0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cursor, err := feed.ParseCursor(tt.cursor)
			require.NoError(t, err)
			assert.Equal(t, tt.expectTime, cursor.CreatedAt)
			assert.Equal(t, tt.expectId, cursor.Id)
		})
	}
}

func TestParseCursorRejectsMalformed(t *testing.T) {
	tests := []struct {
		name   string
		cursor string
	}{
		{name: "not a date", cursor: "not-a-date:abc"},
		{name: "no separator", cursor: "justonepiece"},
		{name: "missing id", cursor: "2024-06-01T12:30:00Z:"},
		{name: "empty", cursor: ""},
		{name: "unix timestamp instead of RFC3339", cursor: "1717244000:abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := feed.ParseCursor(tt.cursor)
			require.Error(t, err)
			assert.True(t, feed.IsValidationError(err))
		})
	}
}

func TestEncodeCursorRoundTrip(t *testing.T) {
	createdAt := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC).Unix()

	encoded := feed.EncodeCursor(createdAt, "abc123")
	assert.Equal(t, "2024-06-01T12:30:00Z:abc123", encoded)

	cursor, err := feed.ParseCursor(encoded)
	require.NoError(t, err)
	assert.Equal(t, createdAt, cursor.CreatedAt)
	assert.Equal(t, "abc123", cursor.Id)
}
