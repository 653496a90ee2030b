// Package trigger decides when enough movement has occurred to justify a
// new discovery and narration cycle.
//
// The engine is a three-state machine over a serial stream of location
// fixes: Idle (no fix yet), Tracking (waiting for sufficient movement) and
// Generating (a cycle is in flight). At most one cycle runs at a time;
// fixes arriving during a cycle update bookkeeping only and are never
// queued as additional cycles. All network work happens on a background
// goroutine so the fix-delivery path never blocks.
package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/danif1973/tour-guide-mobile/internal/geo"
	"github.com/danif1973/tour-guide-mobile/internal/observe"
	"github.com/danif1973/tour-guide-mobile/pkg/types"
)

// Discoverer finds and ranks places around a position. Satisfied by
// discover.Client.
type Discoverer interface {
	Discover(ctx context.Context, center types.Location) ([]types.PlaceInfo, error)
}

// Narrator turns ranked places into screened summaries. Satisfied by
// narrate.Narrator.
type Narrator interface {
	Narrate(ctx context.Context, places []types.PlaceInfo, observer types.Location) []string
	NarrateDestination(ctx context.Context, dest types.Location) (string, bool)
}

// Config holds the trigger knobs.
type Config struct {
	// BaseThresholdMeters is the minimum movement between content
	// generations at or below the reference speed.
	BaseThresholdMeters float64

	// SpeedReferenceKmh is the speed at which the threshold equals the
	// base. Faster movement raises the threshold proportionally; slower
	// movement never lowers it below the base.
	SpeedReferenceKmh float64

	// LookaheadSeconds is the time horizon for projecting the query point
	// ahead of a moving observer. Zero disables projection.
	LookaheadSeconds float64
}

// Validate checks the configuration at construction time.
func (c Config) Validate() error {
	if c.BaseThresholdMeters <= 0 {
		return fmt.Errorf("trigger: base_threshold_m must be positive, got %v", c.BaseThresholdMeters)
	}
	if c.SpeedReferenceKmh <= 0 {
		return fmt.Errorf("trigger: speed_reference_kmh must be positive, got %v", c.SpeedReferenceKmh)
	}
	if c.LookaheadSeconds < 0 {
		return fmt.Errorf("trigger: lookahead_seconds must be non-negative, got %v", c.LookaheadSeconds)
	}
	return nil
}

// destination is the optional narration target with its one-shot flag.
type destination struct {
	loc types.Location

	// summarized flips before the first attempt, whether or not the
	// attempt produces usable content, so it never retries automatically.
	summarized bool
}

// Engine is the movement-driven trigger state machine.
type Engine struct {
	cfg     Config
	disc    Discoverer
	narr    Narrator
	metrics *observe.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	lastFix     *types.Location
	lastContent *types.Location
	generating  bool
	dest        *destination
	content     []string
	hasContent  bool
}

// NewEngine creates an [Engine]. disc and narr must be non-nil; metrics may
// be nil in tests. Call [Engine.Close] on shutdown.
func NewEngine(cfg Config, disc Discoverer, narr Narrator, metrics *observe.Metrics) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		cfg:     cfg,
		disc:    disc,
		narr:    narr,
		metrics: metrics,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// threshold computes the adaptive movement threshold for the given speed.
// The speed multiplier only ever raises the threshold above the base.
func (e *Engine) threshold(speedKmh float64) float64 {
	t := e.cfg.BaseThresholdMeters
	if speedKmh > e.cfg.SpeedReferenceKmh {
		t = e.cfg.BaseThresholdMeters * speedKmh / e.cfg.SpeedReferenceKmh
	}
	return t
}

// OnLocation processes one fix and reports whether it started a generation
// cycle. Fixes must arrive serially from a single upstream source.
//
// The first fix only establishes the movement baseline; it never triggers.
// While a cycle is in flight, fixes update the last-known position and
// heading but cannot start another cycle.
func (e *Engine) OnLocation(fix types.Location) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastFix = &fix

	if e.lastContent == nil {
		e.lastContent = &fix
		e.decision("baseline")
		return false
	}
	if e.generating {
		e.decision("coalesced")
		return false
	}

	dist := geo.Haversine(e.lastContent.Lat, e.lastContent.Lon, fix.Lat, fix.Lon)
	if dist < e.threshold(fix.SpeedKmh) {
		e.decision("below_threshold")
		return false
	}

	e.generating = true
	if e.metrics != nil {
		e.metrics.CyclesInFlight.Add(e.ctx, 1)
	}
	e.decision("triggered")

	e.wg.Add(1)
	go e.runCycle(fix)
	return true
}

// runCycle executes one discovery+narration cycle for the triggering fix.
// Whatever the outcome, the fix becomes the new content baseline and the
// in-flight flag clears.
func (e *Engine) runCycle(fix types.Location) {
	defer func() {
		e.mu.Lock()
		e.generating = false
		e.lastContent = &fix
		e.mu.Unlock()
		if e.metrics != nil {
			e.metrics.CyclesInFlight.Add(e.ctx, -1)
		}
		e.wg.Done()
	}()

	var summaries []string

	if dest, ok := e.claimDestination(); ok {
		if text, good := e.narr.NarrateDestination(e.ctx, dest); good {
			summaries = append(summaries, text)
		}
	}

	query := e.queryPoint(fix)
	places, err := e.disc.Discover(e.ctx, query)
	if err != nil {
		slog.Debug("discovery aborted", "err", err)
		return
	}
	if len(places) > 0 {
		summaries = append(summaries, e.narr.Narrate(e.ctx, places, fix)...)
	}

	if len(summaries) == 0 {
		return
	}
	e.mu.Lock()
	e.content = summaries
	e.hasContent = true
	e.mu.Unlock()
}

// claimDestination returns the destination needing its one-shot summary and
// marks it summarized before the attempt is made.
func (e *Engine) claimDestination() (types.Location, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dest == nil || e.dest.summarized {
		return types.Location{}, false
	}
	e.dest.summarized = true
	return e.dest.loc, true
}

// queryPoint projects the search center ahead of a moving observer. With an
// unknown heading (zero) or no configured look-ahead, the literal fix
// position is used.
func (e *Engine) queryPoint(fix types.Location) types.Location {
	if fix.HeadingDeg == 0 || e.cfg.LookaheadSeconds <= 0 {
		return fix
	}
	dist := fix.SpeedKmh / 3.6 * e.cfg.LookaheadSeconds
	if dist <= 0 {
		return fix
	}
	lat, lon := geo.Project(fix.Lat, fix.Lon, fix.HeadingDeg, dist)
	projected := fix
	projected.Lat = lat
	projected.Lon = lon
	return projected
}

// Content returns the accumulated summaries of the latest completed cycle,
// at most once. The second return is false when no unconsumed content
// exists. Reading clears the new-content flag.
func (e *Engine) Content() ([]string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hasContent {
		return nil, false
	}
	out := e.content
	e.content = nil
	e.hasContent = false
	return out, true
}

// SetDestination sets or replaces the narration target and resets its
// one-shot summary flag.
func (e *Engine) SetDestination(loc types.Location) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dest = &destination{loc: loc}
}

// ClearDestination removes the narration target.
func (e *Engine) ClearDestination() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dest = nil
}

// Generating reports whether a cycle is currently in flight.
func (e *Engine) Generating() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generating
}

// Close cancels any in-flight cycle and waits for it to finish. The engine
// must not be used afterwards.
func (e *Engine) Close() {
	e.cancel()
	e.wg.Wait()
}

func (e *Engine) decision(d string) {
	if e.metrics != nil {
		e.metrics.RecordTriggerDecision(e.ctx, d)
	}
}
