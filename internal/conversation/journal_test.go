package conversation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kvasirlabs/tonearbiter/internal/arbiter"
)

func TestJournal_AppendAndReadAll(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "journal.jsonl")
	j := NewJournal(path)

	v := &arbiter.Verdict{Label: arbiter.LabelNegative, Compound: -0.61234, IronyDetected: true, IronyConfidence: 0.9}
	msgs := []Message{
		{Timestamp: time.Now(), Speaker: SpeakerUser, Text: "this is broken", Verdict: v},
		{Timestamp: time.Now(), Speaker: SpeakerBot, Text: "Let me help."},
	}
	for _, m := range msgs {
		if err := j.Append("conv-1", m); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	records, err := j.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}

	user := records[0]
	if user.ConversationID != "conv-1" || user.Speaker != "user" || user.Message != "this is broken" {
		t.Errorf("user record = %+v", user)
	}
	if user.Sentiment != "Negative" || user.Compound == nil || *user.Compound != -0.612 {
		t.Errorf("user verdict fields = %+v", user)
	}

	bot := records[1]
	if bot.Sentiment != "" || bot.Compound != nil {
		t.Errorf("bot record has verdict fields: %+v", bot)
	}
}

func TestJournal_AppendOnly(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "journal.jsonl")
	j := NewJournal(path)

	if err := j.Append("c", Message{Timestamp: time.Now(), Speaker: SpeakerUser, Text: "one"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := j.Append("c", Message{Timestamp: time.Now(), Speaker: SpeakerUser, Text: "two"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if !strings.Contains(lines[0], `"one"`) || !strings.Contains(lines[1], `"two"`) {
		t.Errorf("journal lines out of order: %v", lines)
	}
}

func TestJournal_ReadAllMissingFile(t *testing.T) {
	t.Parallel()

	j := NewJournal(filepath.Join(t.TempDir(), "absent.jsonl"))
	records, err := j.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records = %d, want 0", len(records))
	}
}
