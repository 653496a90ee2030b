// Package geosource defines the Provider interface for geodata backends.
//
// A geodata provider wraps a place-search API (e.g. the OpenStreetMap
// Overpass API or a Komoot Photon instance) and exposes a uniform
// bounded-radius search so the discovery client can expand, retry, and rank
// without coupling to any specific wire format.
//
// Implementors must be safe for concurrent use and must propagate context
// cancellation promptly.
package geosource

import (
	"context"

	"github.com/danif1973/tour-guide-mobile/pkg/types"
)

// Provider is the abstraction over any geodata backend.
//
// Search returns all tagged points within radiusMeters of center. An empty
// slice with a nil error is a normal outcome meaning "nothing there" — it
// must not be reported as an error. Errors indicate transport or provider
// failures and are treated as transient by the caller.
type Provider interface {
	Search(ctx context.Context, center types.Location, radiusMeters float64) ([]types.Place, error)
}
