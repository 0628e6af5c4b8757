// Package cardiff provides a classifier provider backed by a local CardiffNLP
// RoBERTa inference sidecar.
//
// The sidecar serves the twitter-roberta-base-sentiment-latest and
// twitter-roberta-base-irony checkpoints behind a small REST API:
//
//	POST /sentiment  {"text": "..."}  →  {"label": "positive", "score": 0.93}
//	POST /irony      {"text": "..."}  →  {"label": "irony",    "score": 0.88}
//
// Both endpoints are called sequentially for every Classify invocation; the
// sentiment call runs first so that an unreachable sidecar fails fast.
//
// Usage:
//
//	p, err := cardiff.New("http://localhost:8090",
//	    cardiff.WithTimeout(10*time.Second),
//	)
//	res, err := p.Classify(ctx, "I guess that's fine, whatever.")
package cardiff

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kvasirlabs/tonearbiter/pkg/classifier"
)

const (
	defaultTimeout = 15 * time.Second

	sentimentPath = "/sentiment"
	ironyPath     = "/irony"

	// ironyLabel is the positive-class label emitted by the irony checkpoint.
	// The model's other label is "non_irony".
	ironyLabel = "irony"
)

// Compile-time assertion that Provider implements classifier.Provider.
var _ classifier.Provider = (*Provider)(nil)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithTimeout sets the per-request HTTP timeout. Defaults to 15s; model cold
// starts on CPU-only hosts can take several seconds.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.client.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. Mainly useful in tests
// together with httptest.Server.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		if c != nil {
			p.client = c
		}
	}
}

// Provider implements classifier.Provider against a RoBERTa REST sidecar.
// All methods are safe for concurrent use.
type Provider struct {
	baseURL string
	client  *http.Client
}

// New constructs a Provider talking to the sidecar at serverURL
// (e.g., "http://localhost:8090").
func New(serverURL string, opts ...Option) (*Provider, error) {
	if serverURL == "" {
		return nil, fmt.Errorf("cardiff: serverURL must not be empty")
	}
	p := &Provider{
		baseURL: strings.TrimRight(serverURL, "/"),
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// prediction is the wire shape returned by both sidecar endpoints.
type prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classify implements [classifier.Provider].
func (p *Provider) Classify(ctx context.Context, text string) (classifier.Result, error) {
	sent, err := p.predict(ctx, sentimentPath, text)
	if err != nil {
		return classifier.Result{}, fmt.Errorf("cardiff: sentiment: %w", err)
	}

	irony, err := p.predict(ctx, ironyPath, text)
	if err != nil {
		return classifier.Result{}, fmt.Errorf("cardiff: irony: %w", err)
	}

	label := classifier.SentimentLabel(strings.ToLower(sent.Label))
	if !label.IsValid() {
		return classifier.Result{}, fmt.Errorf("cardiff: unexpected sentiment label %q", sent.Label)
	}

	return classifier.Result{
		SentimentLabel:      label,
		SentimentConfidence: sent.Score,
		Ironic:              strings.EqualFold(irony.Label, ironyLabel),
		IronyConfidence:     irony.Score,
	}, nil
}

func (p *Provider) predict(ctx context.Context, path, text string) (prediction, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return prediction{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return prediction{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return prediction{}, fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return prediction{}, fmt.Errorf("sidecar returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var pred prediction
	if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
		return prediction{}, fmt.Errorf("decode response: %w", err)
	}
	return pred, nil
}
