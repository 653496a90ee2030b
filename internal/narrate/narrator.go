// Package narrate turns ranked places into spoken-style summaries.
//
// It owns the per-place sentence budget, the relative-direction hint, and
// the quality screen that discards templated "I know nothing" answers. The
// summarizer backend is pluggable; narration semantics stay here.
package narrate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/danif1973/tour-guide-mobile/internal/geo"
	"github.com/danif1973/tour-guide-mobile/internal/observe"
	"github.com/danif1973/tour-guide-mobile/pkg/provider/summarizer"
	"github.com/danif1973/tour-guide-mobile/pkg/types"
)

// Config holds the narration knobs.
type Config struct {
	// DefaultMaxSentences is the full sentence budget given to the most
	// promising place.
	DefaultMaxSentences int

	// MinSentences is the floor below which no budget is reduced.
	MinSentences int

	// SignificanceThreshold is the promise score below which even a
	// first-ranked place gets a reduced budget.
	SignificanceThreshold float64
}

// Narrator generates and screens summaries for a ranked place set.
type Narrator struct {
	cfg     Config
	prov    summarizer.Provider
	metrics *observe.Metrics
}

// New creates a [Narrator]. prov must be non-nil; metrics may be nil in
// tests.
func New(cfg Config, prov summarizer.Provider, metrics *observe.Metrics) *Narrator {
	return &Narrator{cfg: cfg, prov: prov, metrics: metrics}
}

// SentenceBudget computes the sentence cap for the place at the given rank
// within a result set of the given total size.
//
// The first-ranked place gets the full budget when its score clears the
// significance threshold; below it (or when the whole set is two or fewer
// candidates and the score is below it) the budget drops by two. Every
// lower-ranked place loses one sentence per rank step. All results are
// floored at MinSentences and capped at DefaultMaxSentences.
func (n *Narrator) SentenceBudget(rank, total int, score float64) int {
	budget := n.cfg.DefaultMaxSentences

	switch {
	case rank == 0 && score < n.cfg.SignificanceThreshold:
		budget -= 2
	case total <= 2 && score < n.cfg.SignificanceThreshold:
		budget -= 2
	case rank > 0:
		budget -= rank
	}

	if budget < n.cfg.MinSentences {
		budget = n.cfg.MinSentences
	}
	if budget > n.cfg.DefaultMaxSentences {
		budget = n.cfg.DefaultMaxSentences
	}
	return budget
}

// Narrate summarizes each place and returns the accepted texts in rank
// order.
//
// A hard summarizer error skips that one place and never aborts its
// siblings. Quality-rejected summaries are dropped silently; rejection is
// an expected outcome, not a fault. The returned slice may be empty.
func (n *Narrator) Narrate(ctx context.Context, places []types.PlaceInfo, observer types.Location) []string {
	out := make([]string, 0, len(places))
	for _, p := range places {
		req := summarizer.Request{
			Place:        p,
			MaxSentences: n.SentenceBudget(p.Rank, len(places), p.PromiseScore),
		}
		if observer.HeadingDeg != 0 {
			bearing := geo.InitialBearing(observer.Lat, observer.Lon, p.Lat, p.Lon)
			req.RelativeDirection = geo.RelativeDirection(observer.HeadingDeg, bearing)
		}

		text, ok := n.summarize(ctx, req)
		if ok {
			out = append(out, text)
		}
	}
	return out
}

// NarrateDestination produces the one-shot destination summary with the full
// default budget and no direction hint. Returns false when the summary
// failed or was screened out.
func (n *Narrator) NarrateDestination(ctx context.Context, dest types.Location) (string, bool) {
	req := summarizer.Request{
		Place: types.PlaceInfo{
			Name: "your destination",
			Lat:  dest.Lat,
			Lon:  dest.Lon,
		},
		MaxSentences: n.cfg.DefaultMaxSentences,
	}
	return n.summarize(ctx, req)
}

// summarize runs one provider call plus the quality screen, recording the
// outcome.
func (n *Narrator) summarize(ctx context.Context, req summarizer.Request) (string, bool) {
	start := time.Now()
	text, err := n.prov.Summarize(ctx, req)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		slog.Error("summarizer failed, skipping place",
			"place", req.Place.Name, "err", err)
		n.record(ctx, "error", elapsed)
		return "", false
	}
	if reason, low := IsLowInformation(text); low {
		slog.Debug("summary rejected",
			"place", req.Place.Name, "reason", reason)
		n.record(ctx, "rejected", elapsed)
		return "", false
	}

	n.record(ctx, "accepted", elapsed)
	return text, true
}

func (n *Narrator) record(ctx context.Context, status string, seconds float64) {
	if n.metrics == nil {
		return
	}
	n.metrics.RecordSummary(ctx, status, seconds)
	if status == "error" {
		n.metrics.RecordProviderError(ctx, "summarizer")
	}
}

// Validate checks the configuration at construction time.
func (c Config) Validate() error {
	if c.DefaultMaxSentences <= 0 {
		return fmt.Errorf("narrate: default_max_sentences must be positive, got %d", c.DefaultMaxSentences)
	}
	if c.MinSentences <= 0 || c.MinSentences > c.DefaultMaxSentences {
		return fmt.Errorf("narrate: min_sentences must be in [1, %d], got %d", c.DefaultMaxSentences, c.MinSentences)
	}
	if c.SignificanceThreshold < 0 || c.SignificanceThreshold > 1 {
		return fmt.Errorf("narrate: significance_threshold must be in [0, 1], got %v", c.SignificanceThreshold)
	}
	return nil
}
