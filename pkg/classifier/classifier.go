// Package classifier defines the Provider interface for message-level text
// classification backends.
//
// A classifier provider wraps a remote or local pair of models — one for
// general sentiment, one for irony/sarcasm — and exposes both predictions in
// a single [Result] so the arbitration engine can resolve disagreements
// between them without coupling to any specific SDK or serving stack.
//
// Implementors must be safe for concurrent use. Providers are expensive to
// initialise and are expected to be constructed once per process and shared
// across all conversations.
package classifier

import "context"

// SentimentLabel is the raw label emitted by the sentiment model.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// IsValid reports whether l is a recognised sentiment label.
func (l SentimentLabel) IsValid() bool {
	switch l {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// Result carries both model predictions for one piece of text.
//
// SentimentConfidence and IronyConfidence are model scores in [0,1]. The two
// confidences come from independent models and are not calibrated against
// each other; downstream arbitration accounts for that.
type Result struct {
	// SentimentLabel is the sentiment model's top label.
	SentimentLabel SentimentLabel

	// SentimentConfidence is the score attached to SentimentLabel.
	SentimentConfidence float64

	// Ironic reports whether the irony model's top label was "irony".
	Ironic bool

	// IronyConfidence is the score attached to the irony model's top label.
	IronyConfidence float64
}

// Provider is the classification capability consumed by the arbitration
// engine. Classify runs both the sentiment and irony models against text and
// returns their combined output.
//
// Classify is a blocking call with no retry semantics at this layer; a failed
// call is fatal to the conversation step that issued it.
type Provider interface {
	Classify(ctx context.Context, text string) (Result, error)
}
