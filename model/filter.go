package model

import (
	"fmt"
	"strings"
)

// SearchFilter restricts retrieval to speeches from one country and/or an
// inclusive year range, and optionally caps the cosine distance of returned
// hits. The zero value matches everything.
type SearchFilter struct {
	Country  string `json:"country,omitempty"`
	YearFrom int    `json:"year_from,omitempty"`
	YearTo   int    `json:"year_to,omitempty"`
	// MaxDistance drops hits farther than this cosine distance from the
	// query. Zero means no cutoff; finding nothing within the cutoff is a
	// valid empty result.
	MaxDistance float64 `json:"max_distance,omitempty"`
}

// Validate rejects malformed filter values at the boundary so they never
// reach the retrieval internals. Country codes are ISO alpha-3 as stored in
// the archive.
func (f *SearchFilter) Validate() error {
	if f == nil {
		return nil
	}
	if f.Country != "" && len(f.Country) != 3 {
		return fmt.Errorf("invalid country code %q, expected 3-letter code", f.Country)
	}
	if f.YearFrom < 0 || f.YearTo < 0 {
		return fmt.Errorf("invalid year range [%d, %d]", f.YearFrom, f.YearTo)
	}
	if f.YearFrom != 0 && f.YearTo != 0 && f.YearFrom > f.YearTo {
		return fmt.Errorf("invalid year range [%d, %d], from after to", f.YearFrom, f.YearTo)
	}
	if f.MaxDistance < 0 || f.MaxDistance > 2 {
		return fmt.Errorf("invalid max distance %v, cosine distance lies in [0, 2]", f.MaxDistance)
	}
	return nil
}

// IsZero reports whether the filter restricts anything at all.
func (f *SearchFilter) IsZero() bool {
	return f == nil || (f.Country == "" && f.YearFrom == 0 && f.YearTo == 0 && f.MaxDistance == 0)
}

// Names lists the filter dimensions in effect, for answer metadata.
func (f *SearchFilter) Names() []string {
	if f == nil {
		return nil
	}
	var names []string
	if f.Country != "" {
		names = append(names, "country="+strings.ToUpper(f.Country))
	}
	if f.YearFrom != 0 {
		names = append(names, fmt.Sprintf("year_from=%d", f.YearFrom))
	}
	if f.YearTo != 0 {
		names = append(names, fmt.Sprintf("year_to=%d", f.YearTo))
	}
	if f.MaxDistance != 0 {
		names = append(names, fmt.Sprintf("max_distance=%v", f.MaxDistance))
	}
	return names
}

// WithCountry returns a copy of the filter with the country set. Used by the
// perspective comparison, which runs the answer pipeline once per country.
func (f *SearchFilter) WithCountry(country string) SearchFilter {
	out := SearchFilter{Country: country}
	if f != nil {
		out.YearFrom = f.YearFrom
		out.YearTo = f.YearTo
		out.MaxDistance = f.MaxDistance
	}
	return out
}
