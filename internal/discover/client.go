// Package discover executes bounded-radius place searches against a
// pluggable geodata provider and filters the results through the ranking
// pipeline.
//
// It owns two independent retry layers: a small inner transport-retry
// budget with doubling backoff for provider failures, and an outer
// progressive radius expansion for empty results. A transport failure never
// wastes a radius step, and an empty-but-successful response is never
// retried at the same radius.
package discover

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/danif1973/tour-guide-mobile/internal/observe"
	"github.com/danif1973/tour-guide-mobile/pkg/provider/geosource"
	"github.com/danif1973/tour-guide-mobile/pkg/types"
)

// radiusGrowth is the multiplier applied to the search radius after an
// attempt yields nothing usable.
const radiusGrowth = 1.5

// Ranker filters raw candidates down to the narratable subset. Satisfied by
// rank.Ranker.
type Ranker interface {
	Process(ctx context.Context, raw []types.Place, centerLat, centerLon float64) []types.PlaceInfo
}

// Config holds the search knobs.
type Config struct {
	// BaseRadiusMeters is the pre-scaling search radius.
	BaseRadiusMeters float64

	// MinRadiusMeters and MaxRadiusMeters clamp the speed-scaled radius.
	// Expansion is capped at MaxRadiusMeters.
	MinRadiusMeters float64
	MaxRadiusMeters float64

	// SpeedReferenceKmh is the baseline speed: at this speed the radius is
	// exactly BaseRadiusMeters, faster movement searches farther.
	SpeedReferenceKmh float64

	// RadiusRetries is the number of outer attempts, each at a wider radius.
	RadiusRetries int

	// RadiusRetryDelay is the pause between outer attempts.
	RadiusRetryDelay time.Duration

	// TransportRetries is the per-attempt budget for provider failures.
	TransportRetries int

	// TransportBackoff is the initial backoff for transport retries; it
	// doubles per retry and resets at every outer attempt.
	TransportBackoff time.Duration
}

// Validate checks the configuration at construction time.
func (c Config) Validate() error {
	if c.BaseRadiusMeters <= 0 {
		return fmt.Errorf("discover: base_radius_m must be positive, got %v", c.BaseRadiusMeters)
	}
	if c.MinRadiusMeters <= 0 || c.MinRadiusMeters > c.MaxRadiusMeters {
		return fmt.Errorf("discover: min_radius_m must be in (0, %v], got %v", c.MaxRadiusMeters, c.MinRadiusMeters)
	}
	if c.SpeedReferenceKmh <= 0 {
		return fmt.Errorf("discover: speed_reference_kmh must be positive, got %v", c.SpeedReferenceKmh)
	}
	if c.RadiusRetries <= 0 {
		return fmt.Errorf("discover: radius_retries must be positive, got %d", c.RadiusRetries)
	}
	if c.TransportRetries < 0 {
		return fmt.Errorf("discover: transport_retries must be non-negative, got %d", c.TransportRetries)
	}
	return nil
}

// Client runs the search loop.
type Client struct {
	cfg     Config
	src     geosource.Provider
	ranker  Ranker
	metrics *observe.Metrics
}

// New creates a [Client]. src and ranker must be non-nil; metrics may be
// nil in tests.
func New(cfg Config, src geosource.Provider, ranker Ranker, metrics *observe.Metrics) *Client {
	return &Client{cfg: cfg, src: src, ranker: ranker, metrics: metrics}
}

// initialRadius scales the base radius by the observer's speed relative to
// the reference baseline and clamps the result.
func (c *Client) initialRadius(speedKmh float64) float64 {
	r := c.cfg.BaseRadiusMeters
	if speedKmh > 0 {
		r *= speedKmh / c.cfg.SpeedReferenceKmh
	}
	if r < c.cfg.MinRadiusMeters {
		r = c.cfg.MinRadiusMeters
	}
	if r > c.cfg.MaxRadiusMeters {
		r = c.cfg.MaxRadiusMeters
	}
	return r
}

// Discover searches around the center, expanding the radius until the
// ranked result is non-empty or the attempt budget runs out.
//
// An empty result after all attempts means "nothing found nearby" and is
// returned as (nil, nil), not an error. The only error Discover returns is
// context cancellation; exhausted transport retries degrade to an empty
// attempt.
func (c *Client) Discover(ctx context.Context, center types.Location) ([]types.PlaceInfo, error) {
	radius := c.initialRadius(center.SpeedKmh)

	for attempt := 0; attempt < c.cfg.RadiusRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, c.cfg.RadiusRetryDelay); err != nil {
				return nil, err
			}
		}

		raw, err := c.queryWithRetry(ctx, center, radius)
		if err != nil {
			// Only context cancellation escapes the retry loop.
			return nil, err
		}

		if len(raw) > 0 {
			ranked := c.ranker.Process(ctx, raw, center.Lat, center.Lon)
			if len(ranked) > 0 {
				return ranked, nil
			}
		}

		slog.Debug("no usable places, expanding radius",
			"attempt", attempt+1, "radius_m", radius)
		if c.metrics != nil {
			c.metrics.RadiusExpansions.Add(ctx, 1)
		}
		radius *= radiusGrowth
		if radius > c.cfg.MaxRadiusMeters {
			radius = c.cfg.MaxRadiusMeters
		}
	}

	return nil, nil
}

// queryWithRetry runs one provider query with the inner transport-retry
// budget. Backoff starts at TransportBackoff and doubles per retry; the
// budget and backoff reset for every outer attempt. When all retries fail
// the attempt degrades to no results, not an error.
func (c *Client) queryWithRetry(ctx context.Context, center types.Location, radius float64) ([]types.Place, error) {
	backoff := c.cfg.TransportBackoff

	for try := 0; ; try++ {
		start := time.Now()
		raw, err := c.src.Search(ctx, center, radius)
		elapsed := time.Since(start).Seconds()

		if err == nil {
			c.recordQuery(ctx, raw, elapsed)
			return raw, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if c.metrics != nil {
			c.metrics.RecordGeoQuery(ctx, "error", elapsed)
			c.metrics.RecordProviderError(ctx, "geo")
		}
		if try >= c.cfg.TransportRetries {
			slog.Warn("geodata query failed, giving up this attempt",
				"radius_m", radius, "tries", try+1, "err", err)
			return nil, nil
		}

		slog.Debug("geodata query failed, backing off",
			"radius_m", radius, "try", try+1, "backoff", backoff, "err", err)
		if serr := sleepCtx(ctx, backoff); serr != nil {
			return nil, serr
		}
		backoff *= 2
	}
}

func (c *Client) recordQuery(ctx context.Context, raw []types.Place, seconds float64) {
	if c.metrics == nil {
		return
	}
	status := "ok"
	if len(raw) == 0 {
		status = "empty"
	}
	c.metrics.RecordGeoQuery(ctx, status, seconds)
}

// sleepCtx waits for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
