// Package mock provides a test double for the summarizer.Provider
// interface.
//
// Use Provider in unit tests to feed controlled summaries and verify
// sentence budgets and direction hints without a live LLM backend.
package mock

import (
	"context"
	"sync"

	"github.com/danif1973/tour-guide-mobile/pkg/provider/summarizer"
)

// Compile-time assertion that Provider satisfies summarizer.Provider.
var _ summarizer.Provider = (*Provider)(nil)

// Provider is a mock implementation of summarizer.Provider.
//
// When SummarizeFunc is set it handles every call. Otherwise each call
// consumes the next entry of Responses and Errs (repeating the last entry
// when exhausted); the zero value returns "" and nil.
type Provider struct {
	mu sync.Mutex

	// SummarizeFunc, when non-nil, fully handles Summarize calls.
	SummarizeFunc func(ctx context.Context, req summarizer.Request) (string, error)

	// Responses scripts the text returned per call, in order.
	Responses []string

	// Errs scripts the error returned per call, in order. A nil entry means
	// success for that call.
	Errs []error

	// Calls records every request passed to Summarize, in order.
	Calls []summarizer.Request

	call int
}

// Summarize implements summarizer.Provider.
func (p *Provider) Summarize(ctx context.Context, req summarizer.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.mu.Lock()
	p.Calls = append(p.Calls, req)
	fn := p.SummarizeFunc
	i := p.call
	p.call++

	if fn != nil {
		p.mu.Unlock()
		return fn(ctx, req)
	}

	var err error
	if len(p.Errs) > 0 {
		if i >= len(p.Errs) {
			err = p.Errs[len(p.Errs)-1]
		} else {
			err = p.Errs[i]
		}
	}
	var text string
	if len(p.Responses) > 0 {
		if i >= len(p.Responses) {
			text = p.Responses[len(p.Responses)-1]
		} else {
			text = p.Responses[i]
		}
	}
	p.mu.Unlock()

	if err != nil {
		return "", err
	}
	return text, nil
}

// CallCount returns the number of Summarize invocations so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
