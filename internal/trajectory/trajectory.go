// Package trajectory analyses how sentiment evolves across a whole
// conversation. It re-derives a verdict per user message through the
// arbitration engine, compares the early half against the late half to
// detect a directional shift, and aggregates the per-message scores into a
// single recency-weighted compound with a final label and human-readable
// summary.
package trajectory

import (
	"context"
	"fmt"
	"math"

	"go.opentelemetry.io/otel/metric"

	"github.com/kvasirlabs/tonearbiter/internal/arbiter"
	"github.com/kvasirlabs/tonearbiter/internal/observe"
)

// Direction is the directional change of sentiment across a conversation.
type Direction string

const (
	Improving Direction = "improving"
	Declining Direction = "declining"
	Stable    Direction = "stable"
)

const (
	// shiftThreshold is the half-average delta beyond which a conversation
	// counts as shifted.
	shiftThreshold = 0.3

	// labelThreshold separates Positive/Negative from Neutral on the
	// weighted compound.
	labelThreshold = 0.05

	// boostFloor is the minimum final-message compound for the improving
	// boost to apply.
	boostFloor = 0.1

	// boostFactor scales the final message's compound when it floors the
	// weighted average of an improving conversation.
	boostFactor = 0.8
)

// Report captures the directional analysis of one conversation.
type Report struct {
	// Trajectory is the detected direction.
	Trajectory Direction

	// ShiftDetected is true when Trajectory is not Stable.
	ShiftDetected bool

	// ShiftMagnitude is second-half average minus first-half average.
	ShiftMagnitude float64

	// FirstHalfAvg and SecondHalfAvg are the arithmetic means of the two
	// halves of the per-message compound sequence.
	FirstHalfAvg  float64
	SecondHalfAvg float64

	// FinalSentiment is the compound of the last message, 0 when empty.
	FinalSentiment float64

	// Scores holds the per-message compounds in conversation order.
	Scores []float64
}

// Summary is the conversation-level roll-up, recomputed on demand and never
// stored.
type Summary struct {
	// Label is the final sentiment label, possibly carrying a status tag
	// ("Positive (Resolved)", "Negative (Escalating)").
	Label string

	// Compound is the recency-weighted conversation compound.
	Compound float64

	// MessageCount is the number of user messages analysed.
	MessageCount int

	// Trajectory is the detected direction.
	Trajectory Direction

	// Text is the human-readable one-line summary.
	Text string

	// Report is the underlying directional analysis.
	Report Report
}

// Analyzer derives conversation-level sentiment from an ordered sequence of
// user message texts. Verdicts are recomputed through the arbitration engine
// and cached by position for the lifetime of one Analyze call only; the
// Analyzer itself is stateless and safe for concurrent use.
type Analyzer struct {
	engine  Engine
	metrics *observe.Metrics
}

// Engine is the subset of the arbitration engine the analyzer needs.
// *arbiter.Engine satisfies it; tests substitute a lighter implementation.
type Engine interface {
	Arbitrate(ctx context.Context, text string) (arbiter.Verdict, error)
}

// Option is a functional option for [New].
type Option func(*Analyzer)

// WithMetrics injects a metrics instance instead of the package default.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// New creates an Analyzer on top of the given arbitration engine.
func New(engine Engine, opts ...Option) *Analyzer {
	a := &Analyzer{engine: engine}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	return a
}

// Analyze computes the directional report for the given ordered user
// messages. A classifier failure on any message aborts the whole analysis.
func (a *Analyzer) Analyze(ctx context.Context, messages []string) (Report, error) {
	scores, err := a.scores(ctx, messages)
	if err != nil {
		return Report{}, err
	}
	return buildReport(scores), nil
}

// Summarize computes the full conversation roll-up: directional report,
// recency-weighted compound, final label with status tag, and the
// human-readable summary line.
func (a *Analyzer) Summarize(ctx context.Context, messages []string) (Summary, error) {
	if len(messages) == 0 {
		return a.SummarizeScores(ctx, nil), nil
	}

	ctx, span := observe.StartSpan(ctx, "trajectory.Summarize")
	defer span.End()

	scores, err := a.scores(ctx, messages)
	if err != nil {
		return Summary{}, err
	}
	return a.SummarizeScores(ctx, scores), nil
}

// SummarizeScores computes the same roll-up from per-message compounds that
// were already arbitrated, without touching the classifier again.
func (a *Analyzer) SummarizeScores(ctx context.Context, scores []float64) Summary {
	if len(scores) == 0 {
		return Summary{
			Label:      string(arbiter.LabelNeutral),
			Compound:   0.0,
			Trajectory: Stable,
			Text:       "No messages to analyze",
		}
	}

	report := buildReport(scores)

	compound := weightedCompound(scores)

	// Improving conversations with a clearly positive closing message are
	// floored at a fraction of that closing compound.
	if report.Trajectory == Improving && report.FinalSentiment > boostFloor {
		compound = math.Max(compound, report.FinalSentiment*boostFactor)
	}

	label := labelFor(compound)
	tagged := string(label)
	if report.ShiftDetected {
		switch {
		case report.Trajectory == Improving && label == arbiter.LabelPositive:
			tagged += " (Resolved)"
		case report.Trajectory == Declining && label == arbiter.LabelNegative:
			tagged += " (Escalating)"
		}
	}

	a.metrics.TrajectoryReports.Add(ctx, 1,
		metric.WithAttributes(observe.Attr("trajectory", string(report.Trajectory))))

	return Summary{
		Label:        tagged,
		Compound:     compound,
		MessageCount: len(scores),
		Trajectory:   report.Trajectory,
		Text:         summaryText(label, compound, len(scores), report),
		Report:       report,
	}
}

// scores arbitrates every message once, in order.
func (a *Analyzer) scores(ctx context.Context, messages []string) ([]float64, error) {
	scores := make([]float64, 0, len(messages))
	for i, msg := range messages {
		v, err := a.engine.Arbitrate(ctx, msg)
		if err != nil {
			return nil, fmt.Errorf("trajectory: message %d: %w", i, err)
		}
		scores = append(scores, v.Compound)
	}
	return scores, nil
}

// directionRule is one ordered threshold step for classifying the shift.
type directionRule struct {
	applies   func(shift float64) bool
	direction Direction
}

var directionRules = []directionRule{
	{func(s float64) bool { return s > shiftThreshold }, Improving},
	{func(s float64) bool { return s < -shiftThreshold }, Declining},
	{func(float64) bool { return true }, Stable},
}

// buildReport splits the score sequence into halves and derives the
// directional report. Fewer than 2 messages is always Stable with zero
// averages.
func buildReport(scores []float64) Report {
	if len(scores) < 2 {
		return Report{Trajectory: Stable, Scores: scores}
	}

	mid := len(scores) / 2
	first, second := scores[:mid], scores[mid:]

	r := Report{
		FirstHalfAvg:   mean(first),
		SecondHalfAvg:  mean(second),
		FinalSentiment: scores[len(scores)-1],
		Scores:         scores,
	}
	r.ShiftMagnitude = r.SecondHalfAvg - r.FirstHalfAvg

	for _, rule := range directionRules {
		if rule.applies(r.ShiftMagnitude) {
			r.Trajectory = rule.direction
			break
		}
	}
	r.ShiftDetected = r.Trajectory != Stable
	return r
}

// weightedCompound aggregates per-message compounds with linearly increasing
// recency weights: message i of n carries weight 1 + i/n, growing from 1 to
// just under 2. Weights are strictly increasing in i for n > 1.
func weightedCompound(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	n := float64(len(scores))
	var sum, totalWeight float64
	for i, s := range scores {
		w := 1 + float64(i)/n
		sum += s * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return sum / totalWeight
}

// labelFor maps a weighted compound to the final conversation label.
func labelFor(compound float64) arbiter.Label {
	switch {
	case compound >= labelThreshold:
		return arbiter.LabelPositive
	case compound <= -labelThreshold:
		return arbiter.LabelNegative
	}
	return arbiter.LabelNeutral
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
