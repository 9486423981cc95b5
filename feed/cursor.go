package feed

import (
	"strings"
	"time"
)

// Cursor marks the last item of the previous page as a (created_at, id)
// boundary. The wire format is "<RFC3339 timestamp>:<id>".
type Cursor struct {
	CreatedAt int64
	Id        string
}

// ParseCursor parses the wire format. RFC3339 timestamps contain colons, so
// the id is split off at the last colon.
func ParseCursor(s string) (*Cursor, error) {
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return nil, validationErrorf("invalid cursor: expected \"<timestamp>:<id>\"")
	}

	id := s[i+1:]
	if id == "" {
		return nil, validationErrorf("invalid cursor: missing id")
	}

	t, err := time.Parse(time.RFC3339, s[:i])
	if err != nil {
		return nil, validationErrorf("invalid cursor: %q is not an RFC3339 timestamp", s[:i])
	}

	return &Cursor{
		CreatedAt: t.Unix(),
		Id:        id,
	}, nil
}

// EncodeCursor formats the boundary for the wire. Timestamps are emitted in
// UTC so a cursor round-trips to the same unix second.
func EncodeCursor(createdAt int64, id string) string {
	return time.Unix(createdAt, 0).UTC().Format(time.RFC3339) + ":" + id
}
