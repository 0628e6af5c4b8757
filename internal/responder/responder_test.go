package responder

import (
	"context"
	"math/rand"
	"slices"
	"strings"
	"testing"

	"github.com/kvasirlabs/tonearbiter/internal/arbiter"
	"github.com/kvasirlabs/tonearbiter/internal/topic"
)

// fixedRand returns scripted values so tests can force or suppress the
// follow-up draw and pin template indices.
type fixedRand struct {
	intn    int
	float64 float64
}

func (f *fixedRand) Intn(n int) int   { return f.intn % n }
func (f *fixedRand) Float64() float64 { return f.float64 }

func newSelector(r Rand) *Selector {
	return New(topic.NewExtractor(), WithRand(r))
}

func TestSelect_GreetingAlwaysWins(t *testing.T) {
	t.Parallel()

	s := newSelector(&fixedRand{})
	sess := &Session{}

	// A strongly negative verdict must not matter for a greeting.
	reply := s.Select(context.Background(), "hello", arbiter.Verdict{
		Label: arbiter.LabelNegative, Compound: -0.9,
	}, sess)

	if !slices.Contains(greetingTemplates, reply) {
		t.Errorf("reply %q is not a greeting template", reply)
	}
	if sess.MessageCount != 1 {
		t.Errorf("MessageCount = %d, want 1", sess.MessageCount)
	}
}

func TestSelect_GreetingMatchesPrefixOnly(t *testing.T) {
	t.Parallel()

	s := newSelector(&fixedRand{float64: 1})
	sess := &Session{}

	// "hi" must match as a standalone word, not inside "this".
	reply := s.Select(context.Background(), "this product is great", arbiter.Verdict{
		Label: arbiter.LabelPositive, Compound: 0.8,
	}, sess)
	if slices.Contains(greetingTemplates, reply) {
		t.Errorf("reply %q is a greeting template for a non-greeting message", reply)
	}

	reply = s.Select(context.Background(), "Hey there, quick question", arbiter.Verdict{}, sess)
	if !slices.Contains(greetingTemplates, reply) {
		t.Errorf("reply %q is not a greeting template for %q", reply, "Hey there")
	}
}

func TestSelect_Goodbye(t *testing.T) {
	t.Parallel()

	s := newSelector(&fixedRand{})
	reply := s.Select(context.Background(), "ok thanks bye", arbiter.Verdict{
		Label: arbiter.LabelPositive, Compound: 0.5,
	}, &Session{})

	if !slices.Contains(goodbyeTemplates, reply) {
		t.Errorf("reply %q is not a goodbye template", reply)
	}
}

func TestSelect_TopicAwareReply(t *testing.T) {
	t.Parallel()

	// Float64 = 1 suppresses the follow-up draw.
	s := newSelector(&fixedRand{intn: 0, float64: 1})
	reply := s.Select(context.Background(), "the delivery never showed up", arbiter.Verdict{
		Label: arbiter.LabelNegative, Compound: -0.8,
	}, &Session{})

	if !strings.Contains(reply, "delivery") {
		t.Errorf("reply %q does not mention the extracted topic", reply)
	}
	if strings.Contains(reply, "{topic}") {
		t.Errorf("reply %q has an unsubstituted placeholder", reply)
	}
}

func TestSelect_PriceTopicReadsAsPricing(t *testing.T) {
	t.Parallel()

	s := newSelector(&fixedRand{intn: 0, float64: 1})
	reply := s.Select(context.Background(), "the price is outrageous", arbiter.Verdict{
		Label: arbiter.LabelNegative, Compound: -0.7,
	}, &Session{})

	if !strings.Contains(reply, "pricing") {
		t.Errorf("reply %q should use the display name \"pricing\"", reply)
	}
}

func TestSelect_GenericReplyWithoutTopic(t *testing.T) {
	t.Parallel()

	s := newSelector(&fixedRand{intn: 2, float64: 1})
	reply := s.Select(context.Background(), "I am very happy today", arbiter.Verdict{
		Label: arbiter.LabelPositive, Compound: 0.9,
	}, &Session{})

	if !slices.Contains(buckets["positive"].withoutTopic, reply) {
		t.Errorf("reply %q is not a generic positive template", reply)
	}
}

func TestSelect_FollowUpGating(t *testing.T) {
	t.Parallel()

	// Float64 = 0 always wins the follow-up draw.
	s := newSelector(&fixedRand{float64: 0})

	sess := &Session{}
	verdict := arbiter.Verdict{Label: arbiter.LabelNeutral}

	// Messages 1 and 2 never produce follow-ups.
	for i := 0; i < 2; i++ {
		reply := s.Select(context.Background(), "just looking around", verdict, sess)
		if slices.Contains(buckets["neutral"].followUp, reply) {
			t.Errorf("message %d: got follow-up %q before the gate opens", i+1, reply)
		}
	}

	// Message 3 with a winning draw must be a follow-up.
	reply := s.Select(context.Background(), "just looking around", verdict, sess)
	if !slices.Contains(buckets["neutral"].followUp, reply) {
		t.Errorf("message 3: reply %q is not a neutral follow-up", reply)
	}
}

func TestSelect_FollowUpPreemptsTopic(t *testing.T) {
	t.Parallel()

	s := newSelector(&fixedRand{float64: 0})
	sess := &Session{MessageCount: 5}

	reply := s.Select(context.Background(), "the delivery is late again", arbiter.Verdict{
		Label: arbiter.LabelNegative, Compound: -0.6,
	}, sess)

	if !slices.Contains(buckets["negative"].followUp, reply) {
		t.Errorf("reply %q should be a follow-up, not a topic reply", reply)
	}
}

func TestSelect_UnknownLabelFallsBackToNeutral(t *testing.T) {
	t.Parallel()

	s := newSelector(&fixedRand{float64: 1})
	reply := s.Select(context.Background(), "whatever", arbiter.Verdict{
		Label: arbiter.Label("Confused"),
	}, &Session{})

	if !slices.Contains(buckets["neutral"].withoutTopic, reply) {
		t.Errorf("reply %q is not a neutral fallback template", reply)
	}
}

func TestSelect_SeededRandIsReproducible(t *testing.T) {
	t.Parallel()

	run := func() []string {
		s := New(topic.NewExtractor(), WithRand(rand.New(rand.NewSource(42))))
		sess := &Session{}
		var replies []string
		for _, msg := range []string{"hello", "my order is broken", "still broken", "now it works"} {
			replies = append(replies, s.Select(context.Background(), msg, arbiter.Verdict{
				Label: arbiter.LabelNeutral,
			}, sess))
		}
		return replies
	}

	if a, b := run(), run(); !slices.Equal(a, b) {
		t.Errorf("same seed produced different replies:\n%v\n%v", a, b)
	}
}
