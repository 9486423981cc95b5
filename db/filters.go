package db

import (
	"nearcast/models"

	"github.com/huandu/go-sqlbuilder"
)

// FeedFilter adds WHERE conditions to the candidate query
type FeedFilter interface {
	// ApplyFilter adds filter conditions to the query builder
	ApplyFilter(sb *sqlbuilder.SelectBuilder)
}

// CategoryFilter restricts candidates to one business category
type CategoryFilter struct {
	Category models.Category
}

func (f *CategoryFilter) ApplyFilter(sb *sqlbuilder.SelectBuilder) {
	if f.Category != "" {
		sb.Where(sb.Equal("businesses.category", string(f.Category)))
	}
}

// KeysetFilter resumes the (created_at DESC, id ASC) order from a cursor
// boundary: strictly older rows, or same-second rows with a greater id.
type KeysetFilter struct {
	BeforeTime int64
	BeforeId   string
}

func (f *KeysetFilter) ApplyFilter(sb *sqlbuilder.SelectBuilder) {
	if f.BeforeId == "" {
		return
	}
	sb.Where(sb.Or(
		sb.LessThan("videos.created_at", f.BeforeTime),
		sb.And(
			sb.Equal("videos.created_at", f.BeforeTime),
			sb.GreaterThan("videos.id", f.BeforeId),
		),
	))
}

var _ FeedFilter = (*CategoryFilter)(nil)
var _ FeedFilter = (*KeysetFilter)(nil)
