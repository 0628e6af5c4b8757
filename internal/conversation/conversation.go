// Package conversation holds the append-only message log for one
// conversation, plus JSON export and the flat journal file.
//
// The log grows by append, can be reset to empty, and never shrinks
// otherwise. Messages are immutable once recorded; ordering is arrival
// order. The user-only message subsequence is tracked alongside the full log
// for conversation-level sentiment analysis.
package conversation

import (
	"time"

	"github.com/kvasirlabs/tonearbiter/internal/arbiter"
)

// Speaker identifies who produced a message.
type Speaker string

const (
	SpeakerUser Speaker = "user"
	SpeakerBot  Speaker = "bot"
)

// Message is one log entry. Bot messages carry no verdict.
type Message struct {
	// Timestamp is when the message was recorded.
	Timestamp time.Time

	// Speaker is who produced the message.
	Speaker Speaker

	// Text is the message content.
	Text string

	// Verdict is the arbitrated sentiment for user messages; nil for bot
	// messages.
	Verdict *arbiter.Verdict
}

// Store is the append-only conversation log. One Store instance is owned
// exclusively by one active conversation; no locking is needed.
type Store struct {
	messages  []Message
	userTexts []string
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{}
}

// AddUser appends a user message with its verdict.
func (s *Store) AddUser(text string, v arbiter.Verdict) {
	s.messages = append(s.messages, Message{
		Timestamp: time.Now(),
		Speaker:   SpeakerUser,
		Text:      text,
		Verdict:   &v,
	})
	s.userTexts = append(s.userTexts, text)
}

// AddBot appends a bot message.
func (s *Store) AddBot(text string) {
	s.messages = append(s.messages, Message{
		Timestamp: time.Now(),
		Speaker:   SpeakerBot,
		Text:      text,
	})
}

// Messages returns a copy of the full log in arrival order.
func (s *Store) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// UserMessages returns a copy of the user-only text subsequence, preserving
// relative order from the full log.
func (s *Store) UserMessages() []string {
	out := make([]string, len(s.userTexts))
	copy(out, s.userTexts)
	return out
}

// Len returns the total number of messages.
func (s *Store) Len() int {
	return len(s.messages)
}

// UserLen returns the number of user messages.
func (s *Store) UserLen() int {
	return len(s.userTexts)
}

// UserVerdicts returns the per-message compounds and labels of the stored
// user verdicts, in order. Used for mood-shift narration without
// re-classifying.
func (s *Store) UserVerdicts() (scores []float64, labels []arbiter.Label) {
	for _, m := range s.messages {
		if m.Speaker == SpeakerUser && m.Verdict != nil {
			scores = append(scores, m.Verdict.Compound)
			labels = append(labels, m.Verdict.Label)
		}
	}
	return scores, labels
}

// Reset clears the log back to empty.
func (s *Store) Reset() {
	s.messages = nil
	s.userTexts = nil
}
