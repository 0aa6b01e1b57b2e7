package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchFilterValidate(t *testing.T) {
	t.Run("Nil and zero filters are valid", func(t *testing.T) {
		var nilFilter *SearchFilter
		assert.NoError(t, nilFilter.Validate())
		assert.NoError(t, (&SearchFilter{}).Validate())
	})

	t.Run("Country code must have 3 letters", func(t *testing.T) {
		err := (&SearchFilter{Country: "FR"}).Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid country code")

		assert.NoError(t, (&SearchFilter{Country: "FRA"}).Validate())
	})

	t.Run("Year range must be ordered", func(t *testing.T) {
		err := (&SearchFilter{YearFrom: 2000, YearTo: 1990}).Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid year range")
	})

	t.Run("Open ended year range is valid", func(t *testing.T) {
		assert.NoError(t, (&SearchFilter{YearFrom: 1990}).Validate())
		assert.NoError(t, (&SearchFilter{YearTo: 2000}).Validate())
	})

	t.Run("Max distance must lie in the cosine distance range", func(t *testing.T) {
		assert.NoError(t, (&SearchFilter{MaxDistance: 0.5}).Validate())
		assert.NoError(t, (&SearchFilter{MaxDistance: 2}).Validate())

		err := (&SearchFilter{MaxDistance: -0.1}).Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid max distance")

		err = (&SearchFilter{MaxDistance: 2.5}).Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid max distance")
	})
}

func TestSearchFilterIsZero(t *testing.T) {
	var nilFilter *SearchFilter
	assert.True(t, nilFilter.IsZero())
	assert.True(t, (&SearchFilter{}).IsZero())
	assert.False(t, (&SearchFilter{Country: "USA"}).IsZero())
	assert.False(t, (&SearchFilter{YearFrom: 1987}).IsZero())
	assert.False(t, (&SearchFilter{MaxDistance: 0.4}).IsZero())
}

func TestSearchFilterNames(t *testing.T) {
	t.Run("Zero filter has no names", func(t *testing.T) {
		assert.Empty(t, (&SearchFilter{}).Names())
	})

	t.Run("All dimensions are listed", func(t *testing.T) {
		filter := &SearchFilter{Country: "usa", YearFrom: 1980, YearTo: 1990, MaxDistance: 0.4}
		assert.Equal(t, []string{"country=USA", "year_from=1980", "year_to=1990", "max_distance=0.4"}, filter.Names())
	})
}

func TestSearchFilterWithCountry(t *testing.T) {
	t.Run("Keeps year range and distance cutoff, replaces country", func(t *testing.T) {
		filter := &SearchFilter{Country: "USA", YearFrom: 1980, YearTo: 1990, MaxDistance: 0.4}
		out := filter.WithCountry("FRA")
		assert.Equal(t, "FRA", out.Country)
		assert.Equal(t, 1980, out.YearFrom)
		assert.Equal(t, 1990, out.YearTo)
		assert.Equal(t, 0.4, out.MaxDistance)
	})

	t.Run("Works on a nil filter", func(t *testing.T) {
		var nilFilter *SearchFilter
		out := nilFilter.WithCountry("RUS")
		assert.Equal(t, "RUS", out.Country)
		assert.Equal(t, 0, out.YearFrom)
	})
}
