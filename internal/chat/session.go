// Package chat wires the arbitration engine, response selector, trajectory
// analyzer and conversation store into one conversation lifecycle.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/kvasirlabs/tonearbiter/internal/arbiter"
	"github.com/kvasirlabs/tonearbiter/internal/conversation"
	"github.com/kvasirlabs/tonearbiter/internal/observe"
	"github.com/kvasirlabs/tonearbiter/internal/responder"
	"github.com/kvasirlabs/tonearbiter/internal/trajectory"
)

// Engine is the subset of the arbitration engine the manager needs.
type Engine interface {
	Arbitrate(ctx context.Context, text string) (arbiter.Verdict, error)
}

// Info holds metadata about an active conversation.
type Info struct {
	// ConversationID is the unique identifier for this conversation.
	ConversationID string

	// StartedAt is when the conversation was started.
	StartedAt time.Time
}

// Exchange is the result of one user turn: the arbitrated verdict for the
// user's message and the reply selected for it.
type Exchange struct {
	Verdict arbiter.Verdict
	Reply   string
}

// Result is the end-of-conversation roll-up.
type Result struct {
	Info      Info
	Summary   trajectory.Summary
	MoodShift string

	// ExportPath is the file the transcript was saved to, empty when no
	// data directory is configured.
	ExportPath string
}

// Manager runs conversation lifecycles. Only one conversation can be active
// at a time (enforced by mutex). All exported methods are safe for
// concurrent use.
type Manager struct {
	mu     sync.Mutex
	active bool
	info   Info
	store  *conversation.Store
	sess   responder.Session

	// Dependencies injected at construction.
	engine   Engine
	selector *responder.Selector
	analyzer *trajectory.Analyzer
	journal  *conversation.Journal
	metrics  *observe.Metrics
	dataDir  string
}

// ManagerConfig holds all dependencies for a [Manager].
type ManagerConfig struct {
	Engine   Engine
	Selector *responder.Selector
	Analyzer *trajectory.Analyzer

	// Journal is optional; when nil no journal lines are written.
	Journal *conversation.Journal

	// DataDir is where End saves transcripts. Empty disables saving.
	DataDir string

	// Metrics defaults to [observe.DefaultMetrics] when nil.
	Metrics *observe.Metrics
}

// NewManager creates a Manager with the given dependencies.
func NewManager(cfg ManagerConfig) *Manager {
	m := &Manager{
		engine:   cfg.Engine,
		selector: cfg.Selector,
		analyzer: cfg.Analyzer,
		journal:  cfg.Journal,
		metrics:  cfg.Metrics,
		dataDir:  cfg.DataDir,
	}
	if m.metrics == nil {
		m.metrics = observe.DefaultMetrics()
	}
	return m
}

// Start begins a new conversation.
//
// Returns an error if a conversation is already active.
func (m *Manager) Start(ctx context.Context) (Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active {
		return Info{}, fmt.Errorf("chat: a conversation is already active (id=%s)", m.info.ConversationID)
	}

	m.active = true
	m.store = conversation.NewStore()
	m.sess = responder.Session{}
	m.info = Info{
		ConversationID: uuid.NewString(),
		StartedAt:      time.Now().UTC(),
	}

	m.metrics.ActiveConversations.Add(ctx, 1)
	slog.Info("conversation started", "conversation_id", m.info.ConversationID)

	return m.info, nil
}

// Submit processes one user message: arbitrate its sentiment, record it,
// select a reply, and record the reply. The classifier error path leaves the
// conversation untouched so the user can retry the same message.
func (m *Manager) Submit(ctx context.Context, text string) (Exchange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return Exchange{}, fmt.Errorf("chat: no active conversation")
	}

	ctx, span := observe.StartSpan(ctx, "chat.Submit")
	defer span.End()

	verdict, err := m.engine.Arbitrate(ctx, text)
	if err != nil {
		return Exchange{}, fmt.Errorf("chat: arbitrate: %w", err)
	}

	m.store.AddUser(text, verdict)
	m.appendJournal(conversation.Message{
		Timestamp: time.Now().UTC(),
		Speaker:   conversation.SpeakerUser,
		Text:      text,
		Verdict:   &verdict,
	})

	reply := m.selector.Select(ctx, text, verdict, &m.sess)
	m.store.AddBot(reply)
	m.appendJournal(conversation.Message{
		Timestamp: time.Now().UTC(),
		Speaker:   conversation.SpeakerBot,
		Text:      reply,
	})

	observe.Logger(ctx).Debug("exchange",
		"conversation_id", m.info.ConversationID,
		"sentiment", string(verdict.Label),
		"compound", verdict.Compound,
		"irony", verdict.IronyDetected,
	)

	return Exchange{Verdict: verdict, Reply: reply}, nil
}

// End closes the active conversation: it computes the trajectory summary and
// mood-shift narration from the verdicts already on record, saves the
// transcript when a data directory is configured, and clears state.
//
// Returns an error if no conversation is active.
func (m *Manager) End(ctx context.Context) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return Result{}, fmt.Errorf("chat: no active conversation to end")
	}

	ctx, span := observe.StartSpan(ctx, "chat.End")
	defer span.End()

	scores, labels := m.store.UserVerdicts()
	res := Result{
		Info:      m.info,
		Summary:   m.analyzer.SummarizeScores(ctx, scores),
		MoodShift: trajectory.MoodShift(scores, labels),
	}

	if m.dataDir != "" && m.store.Len() > 0 {
		path, err := m.store.SaveToFile(m.dataDir)
		if err != nil {
			slog.Warn("chat: transcript save failed",
				"conversation_id", m.info.ConversationID, "err", err)
		} else {
			res.ExportPath = path
		}
	}

	m.metrics.ActiveConversations.Add(ctx, -1)
	m.metrics.ConversationMessages.Record(ctx, int64(m.store.UserLen()),
		metric.WithAttributes(observe.Attr("trajectory", string(res.Summary.Trajectory))))

	slog.Info("conversation ended",
		"conversation_id", m.info.ConversationID,
		"messages", m.store.UserLen(),
		"sentiment", res.Summary.Label,
		"trajectory", string(res.Summary.Trajectory),
	)

	m.active = false
	m.store = nil
	m.sess = responder.Session{}
	m.info = Info{}

	return res, nil
}

// Export returns the transcript of the active conversation as indented JSON.
func (m *Manager) Export() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return nil, fmt.Errorf("chat: no active conversation to export")
	}
	return m.store.ExportJSON()
}

// Summary computes the roll-up for the conversation so far without ending it.
func (m *Manager) Summary(ctx context.Context) (trajectory.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return trajectory.Summary{}, fmt.Errorf("chat: no active conversation")
	}
	scores, _ := m.store.UserVerdicts()
	return m.analyzer.SummarizeScores(ctx, scores), nil
}

// MoodShift narrates the mood movement of the conversation so far.
func (m *Manager) MoodShift() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return "", fmt.Errorf("chat: no active conversation")
	}
	scores, labels := m.store.UserVerdicts()
	return trajectory.MoodShift(scores, labels), nil
}

// IsActive reports whether a conversation is currently running.
func (m *Manager) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Info returns metadata about the active conversation.
// Returns zero value if none is active.
func (m *Manager) Info() Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.info
}

func (m *Manager) appendJournal(msg conversation.Message) {
	if m.journal == nil {
		return
	}
	if err := m.journal.Append(m.info.ConversationID, msg); err != nil {
		slog.Warn("chat: journal append failed",
			"conversation_id", m.info.ConversationID, "err", err)
	}
}
