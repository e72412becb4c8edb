// internal/models/rfq.go
package models

import "time"

// RFQRequest is a buyer's request for quote. It is read-only once submitted.
type RFQRequest struct {
	ID             string       `json:"id"`
	ArchitectID    string       `json:"architectId"`
	Location       Location     `json:"location"`
	Materials      []string     `json:"materials"`
	Certifications []string     `json:"certifications,omitempty"`
	Budget         *BudgetRange `json:"budget,omitempty"`
	Deadline       *time.Time   `json:"deadline,omitempty"`
	RadiusMiles    *float64     `json:"radiusMiles,omitempty"`
}

type Location struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Address   string   `json:"address,omitempty"`
}

// Coordinates returns the point and whether both coordinates are present.
// A zero coordinate counts as missing.
func (l Location) Coordinates() (lat, lng float64, ok bool) {
	if l.Latitude == nil || l.Longitude == nil {
		return 0, 0, false
	}
	lat, lng = *l.Latitude, *l.Longitude
	if lat == 0 || lng == 0 {
		return 0, 0, false
	}
	return lat, lng, true
}

type BudgetRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// HasRadius reports whether the request restricts candidates by distance.
func (r *RFQRequest) HasRadius() bool {
	return r.RadiusMiles != nil
}

// Float64Ptr is a helper for building optional numeric fields.
func Float64Ptr(v float64) *float64 {
	return &v
}

// CandidateQuery is what the matching engine asks the candidate record store
// for. Stores may use Location and RadiusMiles to prefilter.
type CandidateQuery struct {
	Materials   []string
	Location    Location
	RadiusMiles *float64
}
