package classifier

import (
	"encoding/json"
	"fmt"
	"strings"
)

// LLMSystemPrompt instructs a chat model to emit both predictions as a
// compact JSON object. Shared by the LLM-backed providers so that every
// backend answers in the same wire shape.
const LLMSystemPrompt = `You are a text classification service. For the user message, return ONLY a JSON object, no prose:
{"sentiment_label": "positive"|"negative"|"neutral", "sentiment_confidence": <0..1>, "is_ironic": true|false, "irony_confidence": <0..1>}
sentiment_label is the surface sentiment ignoring sarcasm. is_ironic is true when the message is ironic or sarcastic. Confidences reflect how certain you are of each prediction.`

// llmWireResult mirrors the JSON object LLMSystemPrompt asks for.
type llmWireResult struct {
	SentimentLabel      string  `json:"sentiment_label"`
	SentimentConfidence float64 `json:"sentiment_confidence"`
	IsIronic            bool    `json:"is_ironic"`
	IronyConfidence     float64 `json:"irony_confidence"`
}

// ParseLLMReply decodes a chat model's JSON reply into a Result, tolerating
// surrounding prose or markdown fences that smaller models occasionally add.
// Confidences are clamped into [0,1].
func ParseLLMReply(content string) (Result, error) {
	raw := content
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}

	var wire llmWireResult
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return Result{}, fmt.Errorf("classifier: decode model reply %q: %w", content, err)
	}

	label := SentimentLabel(strings.ToLower(wire.SentimentLabel))
	if !label.IsValid() {
		return Result{}, fmt.Errorf("classifier: unexpected sentiment label %q", wire.SentimentLabel)
	}

	return Result{
		SentimentLabel:      label,
		SentimentConfidence: clamp01(wire.SentimentConfidence),
		Ironic:              wire.IsIronic,
		IronyConfidence:     clamp01(wire.IronyConfidence),
	}, nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
