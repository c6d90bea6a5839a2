package domain

import "context"

// GeocodingResult is the location data returned by a geocoding provider.
type GeocodingResult struct {
	Location         Location
	FormattedAddress string
	Confidence       float64 // 0.0-1.0 provider confidence score
}

// Geocoder resolves place names to coordinates and back. The advisor uses
// forward geocoding for spoken or typed place names and reverse geocoding to
// label bare coordinates for narration.
type Geocoder interface {
	// ForwardGeocode converts a place name to coordinates.
	ForwardGeocode(ctx context.Context, place string) (GeocodingResult, error)

	// ReverseGeocode converts coordinates to a place name.
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}
