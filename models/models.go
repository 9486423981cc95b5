package models

import "time"

// Business model with key fields from the business profile
type Business struct {
	Id        string   `json:"id"`
	Name      string   `json:"name"`
	Category  Category `json:"category"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	CreatedAt int64    `json:"createdAt"`
}

// HasLocation reports whether both coordinates are set. A business with
// only one of the two is treated as having no location.
func (b *Business) HasLocation() bool {
	return b.Latitude != nil && b.Longitude != nil
}

// Video model with key fields from the uploaded video
type Video struct {
	Id           string `json:"id"`
	BusinessId   string `json:"businessId"`
	Title        string `json:"title"`
	MediaUrl     string `json:"mediaUrl"`
	ThumbnailUrl string `json:"thumbnailUrl"`
	CreatedAt    int64  `json:"createdAt"`
}

// FeedItem is a video joined with its owning business, as returned by the
// candidate query and the feed endpoint.
type FeedItem struct {
	Video
	Business Business `json:"business"`
}

// FeedResponse is one page of the feed. NextCursor is nil on the final page.
type FeedResponse struct {
	Videos        []FeedItem `json:"videos"`
	NextCursor    *string    `json:"nextCursor"`
	HasMore       bool       `json:"hasMore"`
	TotalInRadius *int       `json:"totalInRadius,omitempty"`
}

// FeedCandidateQuery is the store-level filter for one candidate fetch.
// BeforeTime/BeforeId encode the keyset boundary: only rows strictly after
// the boundary in (created_at DESC, id ASC) order are returned.
type FeedCandidateQuery struct {
	Category   Category
	BeforeTime int64
	BeforeId   string
	Limit      int
}

type Session struct {
	Token     string
	UserId    string
	ExpiresAt int64
}

type VideosAggregatedByTime struct {
	Time  time.Time `json:"time"`
	Count int64     `json:"count"`
}
