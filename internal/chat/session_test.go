package chat

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kvasirlabs/tonearbiter/internal/arbiter"
	"github.com/kvasirlabs/tonearbiter/internal/conversation"
	"github.com/kvasirlabs/tonearbiter/internal/responder"
	"github.com/kvasirlabs/tonearbiter/internal/topic"
	"github.com/kvasirlabs/tonearbiter/internal/trajectory"
	"github.com/kvasirlabs/tonearbiter/pkg/classifier"
	"github.com/kvasirlabs/tonearbiter/pkg/classifier/mock"
)

func newTestManager(t *testing.T, cls classifier.Provider, dataDir string) *Manager {
	t.Helper()
	engine := arbiter.New(cls)
	return NewManager(ManagerConfig{
		Engine:   engine,
		Selector: responder.New(topic.NewExtractor()),
		Analyzer: trajectory.New(engine),
		DataDir:  dataDir,
	})
}

func positiveMock() *mock.Provider {
	return &mock.Provider{
		ClassifyResult: classifier.Result{
			SentimentLabel:      classifier.SentimentPositive,
			SentimentConfidence: 0.9,
		},
	}
}

func TestManager_Lifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m := newTestManager(t, positiveMock(), "")

	if m.IsActive() {
		t.Fatal("manager active before Start")
	}

	info, err := m.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if info.ConversationID == "" {
		t.Error("empty conversation ID")
	}
	if !m.IsActive() {
		t.Error("manager inactive after Start")
	}

	if _, err := m.Start(ctx); err == nil {
		t.Error("second Start succeeded, want error")
	}

	ex, err := m.Submit(ctx, "this product is amazing")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if ex.Verdict.Label != arbiter.LabelPositive {
		t.Errorf("verdict label = %q, want Positive", ex.Verdict.Label)
	}
	if ex.Reply == "" {
		t.Error("empty reply")
	}

	res, err := m.End(ctx)
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if res.Info.ConversationID != info.ConversationID {
		t.Errorf("result conversation ID = %q, want %q", res.Info.ConversationID, info.ConversationID)
	}
	if res.Summary.MessageCount != 1 {
		t.Errorf("summary message count = %d, want 1", res.Summary.MessageCount)
	}
	if m.IsActive() {
		t.Error("manager still active after End")
	}

	if _, err := m.End(ctx); err == nil {
		t.Error("second End succeeded, want error")
	}
}

func TestManager_SubmitWithoutStart(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, positiveMock(), "")
	if _, err := m.Submit(context.Background(), "hello"); err == nil {
		t.Error("Submit without Start succeeded, want error")
	}
}

func TestManager_ClassifierFailureLeavesConversationIntact(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	failing := &mock.Provider{ClassifyError: errors.New("timeout")}
	m := newTestManager(t, failing, "")

	if _, err := m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err := m.Submit(ctx, "is anyone there")
	if !errors.Is(err, arbiter.ErrClassifierUnavailable) {
		t.Fatalf("err = %v, want ErrClassifierUnavailable", err)
	}

	// The failed turn must not be recorded.
	sum, err := m.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.MessageCount != 0 {
		t.Errorf("message count = %d, want 0 after failed submit", sum.MessageCount)
	}
}

func TestManager_EndSummarizesStoredVerdicts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cls := &mock.Provider{ResultsByText: map[string]classifier.Result{
		"everything is broken": {SentimentLabel: classifier.SentimentNegative, SentimentConfidence: 0.8},
		"nothing works":        {SentimentLabel: classifier.SentimentNegative, SentimentConfidence: 0.6},
		"oh that fixed it":     {SentimentLabel: classifier.SentimentPositive, SentimentConfidence: 0.5},
		"perfect, thank you":   {SentimentLabel: classifier.SentimentPositive, SentimentConfidence: 0.7},
	}}
	m := newTestManager(t, cls, "")

	if _, err := m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for _, msg := range []string{"everything is broken", "nothing works", "oh that fixed it", "perfect, thank you"} {
		if _, err := m.Submit(ctx, msg); err != nil {
			t.Fatalf("Submit(%q): %v", msg, err)
		}
	}

	res, err := m.End(ctx)
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if res.Summary.Trajectory != trajectory.Improving {
		t.Errorf("trajectory = %q, want Improving", res.Summary.Trajectory)
	}
	if !strings.HasPrefix(res.Summary.Label, "Positive") {
		t.Errorf("label = %q, want Positive (Resolved)", res.Summary.Label)
	}
	if !strings.Contains(res.MoodShift, "improved") {
		t.Errorf("mood shift = %q, want improvement narrative", res.MoodShift)
	}

	// End summarizes from stored verdicts; the classifier saw each message
	// exactly once.
	if got := cls.CallCount(); got != 4 {
		t.Errorf("classifier called %d times, want 4", got)
	}
}

func TestManager_EndSavesTranscript(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dir := t.TempDir()
	m := newTestManager(t, positiveMock(), dir)

	if _, err := m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := m.Submit(ctx, "works great"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	res, err := m.End(ctx)
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if res.ExportPath == "" {
		t.Fatal("export path empty with data dir configured")
	}
	if filepath.Dir(res.ExportPath) != dir {
		t.Errorf("export path = %q, want inside %q", res.ExportPath, dir)
	}
}

func TestManager_JournalRecordsExchanges(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "journal.jsonl")
	engine := arbiter.New(positiveMock())
	m := NewManager(ManagerConfig{
		Engine:   engine,
		Selector: responder.New(topic.NewExtractor()),
		Analyzer: trajectory.New(engine),
		Journal:  conversation.NewJournal(path),
	})

	info, err := m.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := m.Submit(ctx, "love it"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	records, err := conversation.NewJournal(path).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("journal records = %d, want user + bot", len(records))
	}
	if records[0].ConversationID != info.ConversationID {
		t.Errorf("journal conversation ID = %q, want %q", records[0].ConversationID, info.ConversationID)
	}
	if records[0].Speaker != "user" || records[1].Speaker != "bot" {
		t.Errorf("speakers = %q, %q", records[0].Speaker, records[1].Speaker)
	}
}

func TestManager_ExportActiveConversation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m := newTestManager(t, positiveMock(), "")
	if _, err := m.Export(); err == nil {
		t.Error("Export without active conversation succeeded, want error")
	}

	if _, err := m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := m.Submit(ctx, "nice work"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	data, err := m.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	parsed, err := conversation.ParseExport(data)
	if err != nil {
		t.Fatalf("ParseExport: %v", err)
	}
	if len(parsed.Conversation) != 2 {
		t.Errorf("entries = %d, want 2", len(parsed.Conversation))
	}
}
