// Package arbiter implements the sentiment arbitration engine: it consumes
// the raw sentiment and irony predictions for one message and resolves
// disagreements between the two models into a single [Verdict].
//
// The two models are independently trained and frequently disagree on
// sarcastic text — the sentiment model reads "Thanks for deleting my data.
// Really helpful." as positive while the irony model is near-certain it is
// sarcasm. The arbitration rules decide which model to trust, based on how
// far apart their confidences are.
package arbiter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/kvasirlabs/tonearbiter/internal/observe"
	"github.com/kvasirlabs/tonearbiter/pkg/classifier"
)

// ErrClassifierUnavailable is returned when the classifier capability fails
// to respond. The conversation step that triggered the call does not
// complete; no partial verdict is recorded.
var ErrClassifierUnavailable = errors.New("arbiter: classifier unavailable")

// Label is the arbitrated sentiment label of a message.
type Label string

const (
	LabelPositive Label = "Positive"
	LabelNegative Label = "Negative"
	LabelNeutral  Label = "Neutral"
)

// IsValid reports whether l is a recognised label.
func (l Label) IsValid() bool {
	switch l {
	case LabelPositive, LabelNegative, LabelNeutral:
		return true
	}
	return false
}

// Bucket returns the lower-case response-bucket key for l
// ("positive", "negative", "neutral").
func (l Label) Bucket() string {
	return strings.ToLower(string(l))
}

// Verdict is the arbitrated result for one message. Immutable after creation;
// all raw model outputs are retained for diagnostics.
type Verdict struct {
	// Label is the final sentiment label after arbitration.
	Label Label

	// Compound is the signed intensity score in [-1,1]. Positive labels map
	// to +confidence, negative to -confidence, neutral to 0, before any
	// arbitration adjustment.
	Compound float64

	// SentimentConfidence is the raw sentiment model score.
	SentimentConfidence float64

	// IronyDetected reports the raw irony model prediction.
	IronyDetected bool

	// IronyConfidence is the raw irony model score.
	IronyConfidence float64

	// Flipped reports whether an arbitration rule overrode the sentiment
	// model's label.
	Flipped bool
}

const (
	// ironyMargin is how far irony confidence must exceed sentiment
	// confidence before a positive verdict is flipped. A tie is not enough —
	// genuine enthusiastic slang often trips the irony model at similar
	// confidence.
	ironyMargin = 0.05

	// flipDamping scales the compound of a flipped positive verdict; the
	// flip is a correction, not a strong negative signal.
	flipDamping = 0.7

	// neutralIronyConfidence is the minimum irony confidence for the
	// neutral-irony trap.
	neutralIronyConfidence = 0.80

	// neutralSentimentCeiling is the maximum sentiment confidence for the
	// neutral-irony trap; above it the sentiment model is sure the text
	// really is neutral.
	neutralSentimentCeiling = 0.70

	// neutralIronyCompound is the fixed compound assigned by the
	// neutral-irony trap. There is no sentiment magnitude to damp, so a
	// moderate negative is assumed.
	neutralIronyCompound = -0.5
)

// rule is one arbitration step. Rules are evaluated in declaration order and
// the first rule whose applies predicate holds wins; apply mutates the
// verdict in place.
type rule struct {
	name    string
	applies func(res classifier.Result) bool
	apply   func(v *Verdict)
}

// arbitrationRules is the ordered rule table. Order matters: it encodes rule
// exclusivity, and adding a rule is a data change rather than new control flow.
var arbitrationRules = []rule{
	{
		// Positive surface sentiment contradicted by a meaningfully more
		// confident irony prediction is treated as sarcasm.
		name: "positive-irony-override",
		applies: func(res classifier.Result) bool {
			return res.SentimentLabel == classifier.SentimentPositive &&
				res.Ironic &&
				res.IronyConfidence-res.SentimentConfidence > ironyMargin
		},
		apply: func(v *Verdict) {
			v.Label = LabelNegative
			v.Compound = -math.Abs(v.Compound) * flipDamping
			v.Flipped = true
		},
	},
	{
		// A model unsure about sentiment but strongly confident about irony
		// usually signals passive-aggressive neutral phrasing.
		name: "neutral-irony-trap",
		applies: func(res classifier.Result) bool {
			return res.SentimentLabel == classifier.SentimentNeutral &&
				res.Ironic &&
				res.IronyConfidence > neutralIronyConfidence &&
				res.SentimentConfidence < neutralSentimentCeiling
		},
		apply: func(v *Verdict) {
			v.Label = LabelNegative
			v.Compound = neutralIronyCompound
			v.Flipped = true
		},
	},
}

// Engine arbitrates classifier output into verdicts. Safe for concurrent use
// when the underlying classifier is.
type Engine struct {
	classifier   classifier.Provider
	providerName string
	metrics      *observe.Metrics
}

// Option is a functional option for [New].
type Option func(*Engine)

// WithMetrics injects a metrics instance instead of the package default.
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithProviderName sets the provider name attached to classifier metrics.
// Defaults to "unknown".
func WithProviderName(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.providerName = name
		}
	}
}

// New creates an Engine on top of the given classifier capability.
func New(c classifier.Provider, opts ...Option) *Engine {
	e := &Engine{
		classifier:   c,
		providerName: "unknown",
	}
	for _, o := range opts {
		o(e)
	}
	if e.metrics == nil {
		e.metrics = observe.DefaultMetrics()
	}
	return e
}

// Arbitrate classifies text and resolves the two model predictions into one
// Verdict.
//
// Empty or all-whitespace text short-circuits to a Neutral verdict with
// compound 0.0 without invoking the classifier. A classifier failure is
// returned wrapped in [ErrClassifierUnavailable] and yields no verdict.
func (e *Engine) Arbitrate(ctx context.Context, text string) (Verdict, error) {
	if strings.TrimSpace(text) == "" {
		return Verdict{Label: LabelNeutral, Compound: 0.0}, nil
	}

	ctx, span := observe.StartSpan(ctx, "arbiter.Arbitrate")
	defer span.End()

	start := time.Now()
	res, err := e.classifier.Classify(ctx, text)
	e.metrics.ClassifyDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(observe.Attr("provider", e.providerName)))
	if err != nil {
		e.metrics.RecordClassifierRequest(ctx, e.providerName, "error")
		return Verdict{}, fmt.Errorf("%w: %w", ErrClassifierUnavailable, err)
	}
	e.metrics.RecordClassifierRequest(ctx, e.providerName, "ok")

	v := baseVerdict(res)
	for _, r := range arbitrationRules {
		if r.applies(res) {
			r.apply(&v)
			e.metrics.RecordFlip(ctx, r.name)
			observe.Logger(ctx).Debug("arbitration flip",
				"rule", r.name,
				"sentiment_confidence", res.SentimentConfidence,
				"irony_confidence", res.IronyConfidence,
			)
			break
		}
	}

	e.metrics.RecordVerdict(ctx, string(v.Label))
	return v, nil
}

// baseVerdict maps raw classifier output to the pre-arbitration verdict:
// positive → +confidence, negative → -confidence, neutral → 0.
func baseVerdict(res classifier.Result) Verdict {
	v := Verdict{
		SentimentConfidence: res.SentimentConfidence,
		IronyDetected:       res.Ironic,
		IronyConfidence:     res.IronyConfidence,
	}
	switch res.SentimentLabel {
	case classifier.SentimentPositive:
		v.Label = LabelPositive
		v.Compound = res.SentimentConfidence
	case classifier.SentimentNegative:
		v.Label = LabelNegative
		v.Compound = -res.SentimentConfidence
	default:
		v.Label = LabelNeutral
		v.Compound = 0.0
	}
	return v
}
