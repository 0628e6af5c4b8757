// Package openai provides a classifier provider backed by the OpenAI API.
//
// Instead of dedicated sentiment/irony checkpoints, a single chat model is
// prompted to return both predictions as a compact JSON object. Confidences
// are therefore model self-estimates rather than softmax scores; they live in
// the same [0,1] range and the arbitration rules apply unchanged.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/kvasirlabs/tonearbiter/pkg/classifier"
)

// Compile-time assertion that Provider implements classifier.Provider.
var _ classifier.Provider = (*Provider)(nil)

// Provider implements classifier.Provider using the OpenAI API.
type Provider struct {
	client oai.Client
	model  string
}

// config holds optional configuration for the provider.
type config struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL. Useful for
// OpenAI-compatible gateways.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New constructs a new OpenAI classifier Provider.
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("openai: model must not be empty")
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	client := oai.NewClient(reqOpts...)
	return &Provider{client: client, model: model}, nil
}

// Classify implements [classifier.Provider].
func (p *Provider) Classify(ctx context.Context, text string) (classifier.Result, error) {
	params := oai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(classifier.LLMSystemPrompt),
			oai.UserMessage(text),
		},
		Temperature:         param.NewOpt(0.0),
		MaxCompletionTokens: param.NewOpt(int64(128)),
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return classifier.Result{}, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return classifier.Result{}, fmt.Errorf("openai: empty choices in response")
	}

	res, err := classifier.ParseLLMReply(resp.Choices[0].Message.Content)
	if err != nil {
		return classifier.Result{}, fmt.Errorf("openai: %w", err)
	}
	return res, nil
}
