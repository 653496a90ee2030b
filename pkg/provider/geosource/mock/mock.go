// Package mock provides a test double for the geosource.Provider interface.
//
// Use Provider in unit tests to script per-call search results and verify
// the radius-expansion behaviour of the discovery client without a live
// geodata backend.
package mock

import (
	"context"
	"sync"

	"github.com/danif1973/tour-guide-mobile/pkg/provider/geosource"
	"github.com/danif1973/tour-guide-mobile/pkg/types"
)

// Compile-time assertion that Provider satisfies geosource.Provider.
var _ geosource.Provider = (*Provider)(nil)

// SearchCall records a single invocation of Search.
type SearchCall struct {
	Center       types.Location
	RadiusMeters float64
}

// Provider is a mock implementation of geosource.Provider.
//
// Each call to Search consumes the next entry of Results and the next entry
// of Errs (when present); when the script is exhausted the last entry is
// repeated. Zero-value Provider returns empty results and nil errors.
type Provider struct {
	mu sync.Mutex

	// Results scripts the places returned per call, in order.
	Results [][]types.Place

	// Errs scripts the error returned per call, in order. A nil entry means
	// success for that call.
	Errs []error

	// Calls records every invocation of Search in order.
	Calls []SearchCall

	call int
}

// Search implements geosource.Provider.
func (p *Provider) Search(ctx context.Context, center types.Location, radiusMeters float64) ([]types.Place, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.Calls = append(p.Calls, SearchCall{Center: center, RadiusMeters: radiusMeters})
	i := p.call
	p.call++

	var err error
	if len(p.Errs) > 0 {
		if i >= len(p.Errs) {
			err = p.Errs[len(p.Errs)-1]
		} else {
			err = p.Errs[i]
		}
	}
	if err != nil {
		return nil, err
	}

	if len(p.Results) == 0 {
		return nil, nil
	}
	if i >= len(p.Results) {
		i = len(p.Results) - 1
	}
	return p.Results[i], nil
}

// CallCount returns the number of Search invocations so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
