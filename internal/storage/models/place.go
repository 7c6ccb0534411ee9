// Package models contains the domain models for the application.
package models

// PlaceRecord is a geocoded building. One record is shared by every room in
// the building and never changes once resolved.
type PlaceRecord struct {
	CanonicalName    string  `json:"canonical_name"`
	Name             string  `json:"name"`
	Latitude         float64 `json:"lat"`
	Longitude        float64 `json:"lng"`
	FormattedAddress string  `json:"address"`
	PlaceID          string  `json:"place_id"`
	URL              string  `json:"url"`
	City             *string `json:"city"`
	District         *string `json:"district"`
}

// PlaceNotFound is the value stored for every name in the failure cache.
const PlaceNotFound = "Not Found"
