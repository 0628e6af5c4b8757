package conversation

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/kvasirlabs/tonearbiter/internal/arbiter"
)

func TestStore_AppendOrderAndSubsequence(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.AddUser("hello", arbiter.Verdict{Label: arbiter.LabelNeutral})
	s.AddBot("Hi there!")
	s.AddUser("my order is late", arbiter.Verdict{Label: arbiter.LabelNegative, Compound: -0.6})
	s.AddBot("Sorry to hear that.")

	if s.Len() != 4 {
		t.Errorf("Len = %d, want 4", s.Len())
	}
	if s.UserLen() != 2 {
		t.Errorf("UserLen = %d, want 2", s.UserLen())
	}

	msgs := s.Messages()
	wantSpeakers := []Speaker{SpeakerUser, SpeakerBot, SpeakerUser, SpeakerBot}
	for i, m := range msgs {
		if m.Speaker != wantSpeakers[i] {
			t.Errorf("message %d speaker = %q, want %q", i, m.Speaker, wantSpeakers[i])
		}
	}

	// The user subsequence preserves relative order from the full log.
	user := s.UserMessages()
	j := 0
	for _, m := range msgs {
		if m.Speaker == SpeakerUser {
			if user[j] != m.Text {
				t.Errorf("user message %d = %q, want %q", j, user[j], m.Text)
			}
			j++
		}
	}
}

func TestStore_BotMessagesCarryNoVerdict(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.AddUser("great stuff", arbiter.Verdict{Label: arbiter.LabelPositive, Compound: 0.9})
	s.AddBot("Thanks!")

	msgs := s.Messages()
	if msgs[0].Verdict == nil {
		t.Error("user message verdict is nil")
	}
	if msgs[1].Verdict != nil {
		t.Error("bot message carries a verdict")
	}
}

func TestStore_UserVerdicts(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.AddUser("bad", arbiter.Verdict{Label: arbiter.LabelNegative, Compound: -0.7})
	s.AddBot("Oh no.")
	s.AddUser("better now", arbiter.Verdict{Label: arbiter.LabelPositive, Compound: 0.5})

	scores, labels := s.UserVerdicts()
	if len(scores) != 2 || len(labels) != 2 {
		t.Fatalf("got %d scores, %d labels, want 2 each", len(scores), len(labels))
	}
	if scores[0] != -0.7 || scores[1] != 0.5 {
		t.Errorf("scores = %v", scores)
	}
	if labels[0] != arbiter.LabelNegative || labels[1] != arbiter.LabelPositive {
		t.Errorf("labels = %v", labels)
	}
}

func TestStore_Reset(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.AddUser("hello", arbiter.Verdict{Label: arbiter.LabelNeutral})
	s.Reset()

	if s.Len() != 0 || s.UserLen() != 0 {
		t.Errorf("after Reset: Len = %d, UserLen = %d, want 0/0", s.Len(), s.UserLen())
	}
}

func TestExport_FieldPresence(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.AddUser("neutral message", arbiter.Verdict{Label: arbiter.LabelNeutral, Compound: 0.0})
	s.AddBot("Okay.")

	rec := s.Export()
	if len(rec.Conversation) != 2 {
		t.Fatalf("entries = %d, want 2", len(rec.Conversation))
	}

	user := rec.Conversation[0]
	if user.Sentiment != "Neutral" {
		t.Errorf("user sentiment = %q, want Neutral", user.Sentiment)
	}
	// A zero compound must still be present on user entries.
	if user.Compound == nil || *user.Compound != 0.0 {
		t.Errorf("user compound = %v, want present 0.0", user.Compound)
	}
	if user.IronyDetected == nil {
		t.Error("user irony_detected is absent")
	}

	bot := rec.Conversation[1]
	if bot.Sentiment != "" || bot.Compound != nil || bot.IronyDetected != nil || bot.IronyConfidence != nil {
		t.Errorf("bot entry has sentiment fields: %+v", bot)
	}
}

func TestExport_RoundsToThreeDecimals(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.AddUser("hmm", arbiter.Verdict{
		Label:           arbiter.LabelNegative,
		Compound:        -0.59499999,
		IronyConfidence: 0.87654,
	})

	rec := s.Export()
	user := rec.Conversation[0]
	if *user.Compound != -0.595 {
		t.Errorf("compound = %v, want -0.595", *user.Compound)
	}
	if *user.IronyConfidence != 0.877 {
		t.Errorf("irony_confidence = %v, want 0.877", *user.IronyConfidence)
	}
}

func TestExportJSON_RoundTrip(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.AddUser("Thanks for nothing.", arbiter.Verdict{
		Label:           arbiter.LabelNegative,
		Compound:        -0.56,
		IronyDetected:   true,
		IronyConfidence: 0.91,
	})
	s.AddBot("I'm sorry to hear that.")

	data, err := s.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	parsed, err := ParseExport(data)
	if err != nil {
		t.Fatalf("ParseExport: %v", err)
	}
	if len(parsed.Conversation) != 2 {
		t.Fatalf("entries = %d, want 2", len(parsed.Conversation))
	}

	user := parsed.Conversation[0]
	if user.Speaker != "user" || user.Message != "Thanks for nothing." {
		t.Errorf("user entry = %+v", user)
	}
	if user.Sentiment != "Negative" || *user.Compound != -0.56 {
		t.Errorf("user verdict fields = %+v", user)
	}
	if !*user.IronyDetected || *user.IronyConfidence != 0.91 {
		t.Errorf("irony fields = %+v", user)
	}
	if parsed.ExportedAt == "" {
		t.Error("exported_at is empty")
	}

	// Timestamps are wall-clock HH:MM:SS.
	if len(user.Timestamp) != 8 || strings.Count(user.Timestamp, ":") != 2 {
		t.Errorf("timestamp = %q, want HH:MM:SS", user.Timestamp)
	}
}

func TestSaveToFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewStore()
	s.AddUser("hello", arbiter.Verdict{Label: arbiter.LabelNeutral})

	path, err := s.SaveToFile(dir)
	if err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("path = %q, want inside %q", path, dir)
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "conversation_") || !strings.HasSuffix(base, ".json") {
		t.Errorf("file name = %q, want conversation_<ts>.json", base)
	}
}
