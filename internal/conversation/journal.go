package conversation

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// JournalRecord is a single line in the journal file.
type JournalRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	ConversationID string    `json:"conversation_id"`
	Speaker        string    `json:"speaker"`
	Message        string    `json:"message"`

	Sentiment       string   `json:"sentiment,omitempty"`
	Compound        *float64 `json:"compound,omitempty"`
	IronyDetected   *bool    `json:"irony_detected,omitempty"`
	IronyConfidence *float64 `json:"irony_confidence,omitempty"`
}

// Journal persists messages as append-only JSON lines in a local file, so a
// crash mid-conversation loses nothing already recorded.
// Thread-safe for concurrent use.
type Journal struct {
	mu   sync.Mutex
	path string
}

// NewJournal creates a Journal that writes to the given path.
// The file is created on first append if it does not exist.
func NewJournal(path string) *Journal {
	return &Journal{path: path}
}

// Append writes one message under convID to the journal file.
func (j *Journal) Append(convID string, m Message) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	record := JournalRecord{
		Timestamp:      m.Timestamp.UTC(),
		ConversationID: convID,
		Speaker:        string(m.Speaker),
		Message:        m.Text,
	}
	if m.Speaker == SpeakerUser && m.Verdict != nil {
		record.Sentiment = string(m.Verdict.Label)
		record.Compound = ptr(round3(m.Verdict.Compound))
		record.IronyDetected = ptr(m.Verdict.IronyDetected)
		record.IronyConfidence = ptr(round3(m.Verdict.IronyConfidence))
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("journal: marshal: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("journal: open file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("journal: write: %w", err)
	}
	return nil
}

// ReadAll returns every record in the journal file in write order.
// A missing file yields an empty slice.
func (j *Journal) ReadAll() ([]JournalRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("journal: open file: %w", err)
	}
	defer f.Close()

	var records []JournalRecord
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec JournalRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("journal: parse line %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("journal: read: %w", err)
	}
	return records, nil
}
