// Package history tracks which places have already been narrated so the
// ranking pipeline never surfaces the same place twice within a TTL window.
//
// Entries expire lazily: PurgeExpired is called by the pipeline at the
// start of every filter pass rather than by a background timer.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/danif1973/tour-guide-mobile/pkg/types"
)

// Store is a time-windowed set of previously surfaced place identifiers.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Seen reports whether id was recorded within the TTL window as of now.
	Seen(ctx context.Context, id string, now time.Time) (bool, error)

	// Record marks id as surfaced at now, refreshing any earlier entry.
	Record(ctx context.Context, id string, now time.Time) error

	// PurgeExpired removes entries older than the TTL as of now.
	PurgeExpired(ctx context.Context, now time.Time) error
}

// DeriveID derives the stable history identifier for a place. Precedence:
// provider (type, numeric id) pair; else name plus coordinates rounded to 4
// decimal places; else the rounded coordinates alone. Returns ok=false when
// none can be formed — such a place is always novel: never filtered by
// history and never recorded.
func DeriveID(p types.Place) (string, bool) {
	if p.OSMType != "" && p.OSMID != 0 {
		return fmt.Sprintf("%s/%d", p.OSMType, p.OSMID), true
	}

	hasCoords := p.Lat != 0 || p.Lon != 0
	name := strings.ToLower(strings.TrimSpace(p.Name()))

	switch {
	case name != "" && hasCoords:
		return fmt.Sprintf("%s@%.4f,%.4f", name, p.Lat, p.Lon), true
	case hasCoords:
		return fmt.Sprintf("%.4f,%.4f", p.Lat, p.Lon), true
	default:
		return "", false
	}
}
