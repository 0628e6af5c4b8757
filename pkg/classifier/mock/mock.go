// Package mock provides an in-memory mock implementation of
// [classifier.Provider] for use in unit tests.
//
// The mock is safe for concurrent use, records every Classify invocation, and
// exposes exported fields for configuring return values.
//
// Example:
//
//	c := &mock.Provider{
//	    ClassifyResult: classifier.Result{
//	        SentimentLabel:      classifier.SentimentPositive,
//	        SentimentConfidence: 0.60,
//	        Ironic:              true,
//	        IronyConfidence:     0.95,
//	    },
//	}
//	res, err := c.Classify(ctx, "Thanks for deleting my data. Really helpful.")
package mock

import (
	"context"
	"sync"

	"github.com/kvasirlabs/tonearbiter/pkg/classifier"
)

// Compile-time interface check.
var _ classifier.Provider = (*Provider)(nil)

// Provider is a mock implementation of [classifier.Provider].
type Provider struct {
	mu sync.Mutex

	// ClassifyResult is returned by Classify when ResultsByText has no entry
	// for the input.
	ClassifyResult classifier.Result

	// ResultsByText maps exact input text to a canned result, overriding
	// ClassifyResult. Useful for multi-message conversation tests.
	ResultsByText map[string]classifier.Result

	// ClassifyError is returned by Classify. When non-nil the result is the
	// zero value.
	ClassifyError error

	// ClassifyCalls records the text of every Classify invocation.
	ClassifyCalls []string
}

// Classify implements [classifier.Provider].
func (p *Provider) Classify(_ context.Context, text string) (classifier.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ClassifyCalls = append(p.ClassifyCalls, text)

	if p.ClassifyError != nil {
		return classifier.Result{}, p.ClassifyError
	}
	if res, ok := p.ResultsByText[text]; ok {
		return res, nil
	}
	return p.ClassifyResult, nil
}

// CallCount returns the number of Classify invocations so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ClassifyCalls)
}
