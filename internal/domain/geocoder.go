package domain

import "context"

// GeocodingResult contains place data returned by a geocoding provider.
type GeocodingResult struct {
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Geocoder resolves marker positions to place names for tooltips.
type Geocoder interface {
	// ReverseGeocode converts coordinates to place details. An empty result
	// with a nil error means nothing is nearby (open sea).
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}
