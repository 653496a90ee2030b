package discover

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	geomock "github.com/danif1973/tour-guide-mobile/pkg/provider/geosource/mock"
	"github.com/danif1973/tour-guide-mobile/pkg/types"
)

// passthroughRanker converts every raw candidate into a PlaceInfo without
// filtering, so tests exercise the search loop in isolation.
type passthroughRanker struct{}

func (passthroughRanker) Process(_ context.Context, raw []types.Place, _, _ float64) []types.PlaceInfo {
	out := make([]types.PlaceInfo, 0, len(raw))
	for i, p := range raw {
		out = append(out, types.PlaceInfo{Name: p.Name(), Lat: p.Lat, Lon: p.Lon, Rank: i})
	}
	return out
}

// rejectAllRanker filters everything out, forcing radius expansion.
type rejectAllRanker struct{}

func (rejectAllRanker) Process(context.Context, []types.Place, float64, float64) []types.PlaceInfo {
	return nil
}

func testConfig() Config {
	return Config{
		BaseRadiusMeters:  1000,
		MinRadiusMeters:   200,
		MaxRadiusMeters:   10_000,
		SpeedReferenceKmh: 50,
		RadiusRetries:     3,
		RadiusRetryDelay:  time.Millisecond,
		TransportRetries:  2,
		TransportBackoff:  time.Millisecond,
	}
}

func somePlace() types.Place {
	return types.Place{
		OSMType: "node", OSMID: 1,
		Lat: 48.01, Lon: 2.0,
		Tags: map[string]string{"name": "Abbey", "historic": "monastery"},
	}
}

func TestInitialRadius(t *testing.T) {
	t.Parallel()

	c := New(testConfig(), &geomock.Provider{}, passthroughRanker{}, nil)

	tests := []struct {
		name     string
		speedKmh float64
		want     float64
	}{
		{"reference speed", 50, 1000},
		{"double speed doubles radius", 100, 2000},
		{"slow speed clamped to minimum", 5, 200},
		{"very fast clamped to maximum", 1000, 10_000},
		{"zero speed keeps base", 0, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := c.initialRadius(tt.speedKmh); got != tt.want {
				t.Errorf("initialRadius(%v) = %v, want %v", tt.speedKmh, got, tt.want)
			}
		})
	}
}

func TestDiscover_ReturnsOnFirstUsableResult(t *testing.T) {
	t.Parallel()

	src := &geomock.Provider{Results: [][]types.Place{{somePlace()}}}
	c := New(testConfig(), src, passthroughRanker{}, nil)

	got, err := c.Discover(context.Background(), types.Location{Lat: 48, Lon: 2, SpeedKmh: 50})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Abbey" {
		t.Fatalf("Discover() = %+v, want the abbey", got)
	}
	if src.CallCount() != 1 {
		t.Errorf("CallCount() = %d, want 1 (no expansion after success)", src.CallCount())
	}
}

func TestDiscover_ExpandsRadiusOnEmpty(t *testing.T) {
	t.Parallel()

	src := &geomock.Provider{Results: [][]types.Place{
		nil,
		nil,
		{somePlace()},
	}}
	c := New(testConfig(), src, passthroughRanker{}, nil)

	got, err := c.Discover(context.Background(), types.Location{Lat: 48, Lon: 2, SpeedKmh: 50})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Discover() returned %d places, want 1", len(got))
	}

	wantRadii := []float64{1000, 1500, 2250}
	if len(src.Calls) != len(wantRadii) {
		t.Fatalf("made %d calls, want %d", len(src.Calls), len(wantRadii))
	}
	for i, call := range src.Calls {
		if math.Abs(call.RadiusMeters-wantRadii[i]) > 1e-9 {
			t.Errorf("call %d radius = %v, want %v", i, call.RadiusMeters, wantRadii[i])
		}
	}
}

func TestDiscover_ExpansionCappedAtMax(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MaxRadiusMeters = 1200
	src := &geomock.Provider{}
	c := New(cfg, src, passthroughRanker{}, nil)

	got, err := c.Discover(context.Background(), types.Location{Lat: 48, Lon: 2, SpeedKmh: 50})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if got != nil {
		t.Fatalf("Discover() = %+v, want nil", got)
	}
	for i, call := range src.Calls {
		if call.RadiusMeters > 1200 {
			t.Errorf("call %d radius = %v, exceeds max 1200", i, call.RadiusMeters)
		}
	}
}

func TestDiscover_EmptyAfterAllAttemptsIsNotAnError(t *testing.T) {
	t.Parallel()

	src := &geomock.Provider{Results: [][]types.Place{{somePlace()}}}
	c := New(testConfig(), src, rejectAllRanker{}, nil)

	got, err := c.Discover(context.Background(), types.Location{Lat: 48, Lon: 2})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if got != nil {
		t.Errorf("Discover() = %+v, want nil when ranking empties every attempt", got)
	}
	if src.CallCount() != testConfig().RadiusRetries {
		t.Errorf("CallCount() = %d, want %d", src.CallCount(), testConfig().RadiusRetries)
	}
}

func TestDiscover_TransportRetryThenSuccess(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	src := &geomock.Provider{
		Errs:    []error{boom, boom, nil},
		Results: [][]types.Place{nil, nil, {somePlace()}},
	}
	c := New(testConfig(), src, passthroughRanker{}, nil)

	got, err := c.Discover(context.Background(), types.Location{Lat: 48, Lon: 2, SpeedKmh: 50})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Discover() returned %d places, want 1", len(got))
	}
	// Two failures plus the success, all within one radius attempt.
	for _, call := range src.Calls {
		if call.RadiusMeters != 1000 {
			t.Errorf("radius changed to %v during transport retries, want 1000", call.RadiusMeters)
		}
	}
}

func TestDiscover_ExhaustedTransportDegradesToEmptyAttempt(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	src := &geomock.Provider{Errs: []error{boom}}
	c := New(testConfig(), src, passthroughRanker{}, nil)

	got, err := c.Discover(context.Background(), types.Location{Lat: 48, Lon: 2, SpeedKmh: 50})
	if err != nil {
		t.Fatalf("Discover: %v (transport exhaustion must not surface)", err)
	}
	if got != nil {
		t.Errorf("Discover() = %+v, want nil", got)
	}
	// 3 outer attempts, each making 1 + TransportRetries calls.
	want := testConfig().RadiusRetries * (1 + testConfig().TransportRetries)
	if src.CallCount() != want {
		t.Errorf("CallCount() = %d, want %d", src.CallCount(), want)
	}
	// Radius still expanded across outer attempts.
	last := src.Calls[len(src.Calls)-1]
	if math.Abs(last.RadiusMeters-2250) > 1e-9 {
		t.Errorf("final radius = %v, want 2250", last.RadiusMeters)
	}
}

func TestDiscover_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &geomock.Provider{}
	c := New(testConfig(), src, passthroughRanker{}, nil)

	if _, err := c.Discover(ctx, types.Location{Lat: 48, Lon: 2}); !errors.Is(err, context.Canceled) {
		t.Errorf("Discover() err = %v, want context.Canceled", err)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	if err := testConfig().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	bad := testConfig()
	bad.MinRadiusMeters = 20_000
	if err := bad.Validate(); err == nil {
		t.Error("min > max accepted, want error")
	}

	bad = testConfig()
	bad.RadiusRetries = 0
	if err := bad.Validate(); err == nil {
		t.Error("zero radius_retries accepted, want error")
	}
}
