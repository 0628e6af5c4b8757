package conversation

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// ExportRecord is the wire shape consumed by storage and UI layers.
type ExportRecord struct {
	Conversation []ExportEntry `json:"conversation"`
	ExportedAt   string        `json:"exported_at"`
}

// ExportEntry is one message in an export record. The sentiment, compound and
// irony fields appear only on user entries that carry a verdict.
type ExportEntry struct {
	// Timestamp is the wall-clock time of the message, formatted HH:MM:SS.
	Timestamp string `json:"timestamp"`

	Speaker string `json:"speaker"`
	Message string `json:"message"`

	Sentiment       string   `json:"sentiment,omitempty"`
	Compound        *float64 `json:"compound,omitempty"`
	IronyDetected   *bool    `json:"irony_detected,omitempty"`
	IronyConfidence *float64 `json:"irony_confidence,omitempty"`
}

// timestampLayout is the per-message clock format in export records.
const timestampLayout = "15:04:05"

// Export builds the export record for the current log. exportedAt is
// stamped in ISO-8601 / RFC 3339.
func (s *Store) Export() ExportRecord {
	rec := ExportRecord{
		Conversation: make([]ExportEntry, 0, len(s.messages)),
		ExportedAt:   time.Now().Format(time.RFC3339),
	}
	for _, m := range s.messages {
		rec.Conversation = append(rec.Conversation, exportEntry(m))
	}
	return rec
}

// exportEntry converts one message, applying the field presence rule and
// rounding scores to 3 decimals.
func exportEntry(m Message) ExportEntry {
	e := ExportEntry{
		Timestamp: m.Timestamp.Format(timestampLayout),
		Speaker:   string(m.Speaker),
		Message:   m.Text,
	}
	if m.Speaker == SpeakerUser && m.Verdict != nil {
		v := m.Verdict
		e.Sentiment = string(v.Label)
		e.Compound = ptr(round3(v.Compound))
		e.IronyDetected = ptr(v.IronyDetected)
		e.IronyConfidence = ptr(round3(v.IronyConfidence))
	}
	return e
}

// ExportJSON renders the export record as indented JSON.
func (s *Store) ExportJSON() ([]byte, error) {
	data, err := json.MarshalIndent(s.Export(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("conversation: marshal export: %w", err)
	}
	return data, nil
}

// ParseExport decodes an export record produced by [Store.ExportJSON].
// The decode is lossless for all populated fields and preserves message
// order.
func ParseExport(data []byte) (ExportRecord, error) {
	var rec ExportRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return ExportRecord{}, fmt.Errorf("conversation: parse export: %w", err)
	}
	return rec, nil
}

// SaveToFile writes the export record to
// <dir>/conversation_<YYYYMMDD_HHMMSS>.json, creating dir if needed.
// Returns the path of the written file.
func (s *Store) SaveToFile(dir string) (string, error) {
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("conversation: create export dir: %w", err)
	}

	data, err := s.ExportJSON()
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, "conversation_"+time.Now().Format("20060102_150405")+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("conversation: write export: %w", err)
	}
	return path, nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func ptr[T any](v T) *T {
	return &v
}
