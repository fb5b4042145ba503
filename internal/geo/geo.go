// Package geo provides the geocoding gateway used to turn free-text
// locations into address candidates, plus the formatted-address splitter
// used to build confirmation prompts.
package geo

import "context"

// Candidate is one geocoding result for a query. Zero, one, or many
// candidates are returned per search; the caller branches on the count.
type Candidate struct {
	FormattedAddress string  `json:"formatted_address"`
	Name             string  `json:"name,omitempty"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
}

// Geocoder defines the gateway to an external address search service.
type Geocoder interface {
	// Search returns candidate addresses for free-form query text. The
	// query should already include any region hint (e.g. the zone's state).
	Search(ctx context.Context, query string) ([]Candidate, error)
}
