// Package types defines the shared value types exchanged between the
// tour-guide core, its providers, and its callers: location fixes, raw
// provider places, ranked places, and the public PlaceInfo shape.
package types

import "time"

// Location is a single observer fix: position plus the motion data the
// trigger engine needs to decide whether to fire a content cycle.
type Location struct {
	// Lat and Lon are WGS84 degrees.
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`

	// SpeedKmh is ground speed in km/h. Zero when unknown or stationary.
	SpeedKmh float64 `json:"speed_kmh"`

	// HeadingDeg is the direction of travel in degrees clockwise from true
	// north, in [0, 360). Zero means unknown; the engine then skips
	// look-ahead projection and direction hints.
	HeadingDeg float64 `json:"heading_deg"`

	// Time is when the fix was taken. The zero value means "now".
	Time time.Time `json:"time,omitempty"`
}

// Place is a raw candidate as returned by a geodata provider. It is
// immutable once produced; ranking stages annotate copies rather than
// mutating it in place.
type Place struct {
	// OSMType is the provider element kind ("node", "way", "relation").
	// Empty when the provider supplies no stable identifier.
	OSMType string

	// OSMID is the provider's numeric identifier. Zero when absent.
	OSMID int64

	// Lat and Lon are WGS84 degrees. For area elements this is the
	// provider-computed center.
	Lat float64
	Lon float64

	// Tags holds the provider's free-form key/value tags verbatim.
	// Keys are unique; insertion order is irrelevant.
	Tags map[string]string

	// Importance is an externally supplied relevance estimate, when the
	// provider has one. Zero otherwise.
	Importance float64

	// Rank is an externally supplied coarse rank, when the provider has
	// one. Zero otherwise.
	Rank int
}

// Name returns the canonical display name, or "" when the place is unnamed.
func (p Place) Name() string {
	return p.Tags["name"]
}

// CloneTags returns a copy of p with an independent tag map, so a pipeline
// stage can annotate tags without mutating the original candidate.
func (p Place) CloneTags() Place {
	tags := make(map[string]string, len(p.Tags))
	for k, v := range p.Tags {
		tags[k] = v
	}
	p.Tags = tags
	return p
}

// RankedPlace is a Place annotated with the query-relative metrics computed
// by the ranking pipeline.
type RankedPlace struct {
	Place

	// DistanceMeters is the great-circle distance from the query center.
	DistanceMeters float64

	// PromiseScore is the heuristic relevance estimate in [0, 1]. It is
	// monotonically non-decreasing in the number of qualifying tags and
	// clamped to 1.0.
	PromiseScore float32
}

// PlaceInfo is the public, stable shape surfaced to callers. It is the only
// entity that crosses the core/collaborator boundary outward.
type PlaceInfo struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`

	// Category and Type classify the place from its tags by precedence
	// (tourism > historic > amenity > place > building). Category is the
	// winning tag key, Type its value (e.g. "tourism"/"museum").
	Category string `json:"category,omitempty"`
	Type     string `json:"type,omitempty"`

	// PromiseScore is the ranking pipeline's relevance estimate in [0, 1].
	PromiseScore float64 `json:"promise_score"`

	// Importance is the provider-supplied importance, when present.
	Importance float64 `json:"importance,omitempty"`

	// Rank is the place's position in the ranked result, 0 being the most
	// promising.
	Rank int `json:"rank"`

	// DistanceMeters is the distance from the query center. Zero when not
	// computed.
	DistanceMeters float64 `json:"distance_meters,omitempty"`

	// Tags carries the raw provider tags for downstream prompt building.
	Tags map[string]string `json:"tags,omitempty"`

	// OSMType and OSMID identify the provider element, when known.
	OSMType string `json:"osm_type,omitempty"`
	OSMID   int64  `json:"osm_id,omitempty"`
}
