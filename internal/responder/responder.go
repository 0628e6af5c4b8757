// Package responder selects a canned reply for each user message,
// conditioned on the arbitrated sentiment, the extracted topic, and how far
// along the conversation is.
//
// Selection order: greeting match, goodbye match, occasional follow-up
// override, then a topic-aware or topic-agnostic template from the message's
// sentiment bucket. All random draws go through an injectable source so tests
// can seed or mock it.
package responder

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/kvasirlabs/tonearbiter/internal/arbiter"
	"github.com/kvasirlabs/tonearbiter/internal/observe"
	"github.com/kvasirlabs/tonearbiter/internal/topic"
)

// followUpProbability is the chance of serving a bucket-specific follow-up
// instead of a normal reply once the conversation is past its opening
// messages.
const followUpProbability = 0.3

// followUpAfter is the number of processed user messages after which
// follow-up replies become eligible.
const followUpAfter = 2

// Session carries the per-conversation state the selector needs. It is owned
// by the conversation, not by the selector, so parallel sessions never share
// counts.
type Session struct {
	// MessageCount is the number of user messages processed so far,
	// incremented by every Select call.
	MessageCount int
}

// Rand is the random source used for template selection. *math/rand.Rand
// satisfies it; tests may substitute a fixed sequence.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// Selector picks replies from the fixed template bank. Safe for concurrent
// use; the random source is guarded internally.
type Selector struct {
	topics  *topic.Extractor
	metrics *observe.Metrics

	mu  sync.Mutex
	rng Rand
}

// Option is a functional option for [New].
type Option func(*Selector)

// WithRand injects a random source. Use a seeded [rand.New] for reproducible
// selection in tests.
func WithRand(r Rand) Option {
	return func(s *Selector) { s.rng = r }
}

// WithMetrics injects a metrics instance instead of the package default.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Selector) { s.metrics = m }
}

// New creates a Selector using the given topic extractor.
func New(topics *topic.Extractor, opts ...Option) *Selector {
	s := &Selector{topics: topics}
	for _, o := range opts {
		o(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Select picks one reply for text given its arbitrated verdict, and advances
// sess.MessageCount. Greeting and goodbye messages bypass sentiment entirely.
func (s *Selector) Select(ctx context.Context, text string, verdict arbiter.Verdict, sess *Session) string {
	sess.MessageCount++

	trimmed := strings.ToLower(strings.TrimSpace(text))

	if isGreeting(trimmed) {
		s.metrics.RecordResponse(ctx, "greeting")
		return s.pick(greetingTemplates)
	}

	if containsAny(trimmed, goodbyeKeywords) {
		s.metrics.RecordResponse(ctx, "goodbye")
		return s.pick(goodbyeTemplates)
	}

	bucketKey := verdict.Label.Bucket()
	b, ok := buckets[bucketKey]
	if !ok {
		// A label outside the known set is an internal invariant violation;
		// recover on the neutral path.
		observe.Logger(ctx).Error("responder: unknown sentiment bucket",
			"label", string(verdict.Label))
		s.metrics.RecordResponse(ctx, "fallback")
		return s.pick(buckets["neutral"].withoutTopic)
	}

	// Past the opening messages, occasionally steer the conversation with a
	// follow-up instead of reacting to the latest message. Follow-ups
	// pre-empt topic-aware selection.
	if sess.MessageCount > followUpAfter && len(b.followUp) > 0 && s.chance(followUpProbability) {
		s.metrics.RecordResponse(ctx, "follow_up")
		return s.pick(b.followUp)
	}

	if t := s.topics.Extract(text); t != topic.None && len(b.withTopic) > 0 {
		s.metrics.RecordResponse(ctx, "topic")
		tpl := s.pick(b.withTopic)
		return strings.ReplaceAll(tpl, "{topic}", t.DisplayName())
	}

	s.metrics.RecordResponse(ctx, "generic")
	return s.pick(b.withoutTopic)
}

// isGreeting reports whether the trimmed lower-case message is a standalone
// greeting: an exact keyword or a keyword followed by more words.
func isGreeting(trimmed string) bool {
	for _, g := range greetingKeywords {
		if trimmed == g || strings.HasPrefix(trimmed, g+" ") {
			return true
		}
	}
	return false
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// pick returns a uniformly random element of templates.
func (s *Selector) pick(templates []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return templates[s.rng.Intn(len(templates))]
}

// chance reports true with probability p.
func (s *Selector) chance(p float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < p
}
