package models_test

import (
	"testing"

	"nearcast/models"

	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected models.Category
		ok       bool
	}{
		{name: "restaurant", input: "restaurant", expected: models.CategoryRestaurant, ok: true},
		{name: "other", input: "other", expected: models.CategoryOther, ok: true},
		{name: "unknown string", input: "spaceport", ok: false},
		{name: "empty string", input: "", ok: false},
		{name: "wrong case", input: "Restaurant", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, ok := models.ParseCategory(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, category)
			}
		})
	}
}

func TestCategoriesAllParse(t *testing.T) {
	for _, category := range models.Categories {
		_, ok := models.ParseCategory(string(category))
		assert.True(t, ok, "category %q should parse", category)
	}
}

func TestHasLocation(t *testing.T) {
	lat, lng := 42.44, -76.50

	both := models.Business{Latitude: &lat, Longitude: &lng}
	assert.True(t, both.HasLocation())

	latOnly := models.Business{Latitude: &lat}
	assert.False(t, latOnly.HasLocation())

	lngOnly := models.Business{Longitude: &lng}
	assert.False(t, lngOnly.HasLocation())

	neither := models.Business{}
	assert.False(t, neither.HasLocation())
}
