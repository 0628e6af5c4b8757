package classifier

import (
	"testing"
)

func TestParseLLMReply_ValidJSON(t *testing.T) {
	t.Parallel()

	res, err := ParseLLMReply(`{"sentiment_label": "positive", "sentiment_confidence": 0.85, "is_ironic": true, "irony_confidence": 0.95}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SentimentLabel != SentimentPositive {
		t.Errorf("SentimentLabel = %q, want positive", res.SentimentLabel)
	}
	if res.SentimentConfidence != 0.85 {
		t.Errorf("SentimentConfidence = %v, want 0.85", res.SentimentConfidence)
	}
	if !res.Ironic {
		t.Error("Ironic = false, want true")
	}
	if res.IronyConfidence != 0.95 {
		t.Errorf("IronyConfidence = %v, want 0.95", res.IronyConfidence)
	}
}

func TestParseLLMReply_SurroundingProse(t *testing.T) {
	t.Parallel()

	content := "Sure! Here is the classification:\n```json\n" +
		`{"sentiment_label": "neutral", "sentiment_confidence": 0.5, "is_ironic": false, "irony_confidence": 0.1}` +
		"\n```\nLet me know if you need anything else."
	res, err := ParseLLMReply(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SentimentLabel != SentimentNeutral {
		t.Errorf("SentimentLabel = %q, want neutral", res.SentimentLabel)
	}
	if res.Ironic {
		t.Error("Ironic = true, want false")
	}
}

func TestParseLLMReply_UppercaseLabel(t *testing.T) {
	t.Parallel()

	res, err := ParseLLMReply(`{"sentiment_label": "Negative", "sentiment_confidence": 0.7, "is_ironic": false, "irony_confidence": 0.2}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SentimentLabel != SentimentNegative {
		t.Errorf("SentimentLabel = %q, want negative", res.SentimentLabel)
	}
}

func TestParseLLMReply_InvalidLabel(t *testing.T) {
	t.Parallel()

	_, err := ParseLLMReply(`{"sentiment_label": "angry", "sentiment_confidence": 0.7, "is_ironic": false, "irony_confidence": 0.2}`)
	if err == nil {
		t.Fatal("expected error for unknown label")
	}
}

func TestParseLLMReply_NotJSON(t *testing.T) {
	t.Parallel()

	_, err := ParseLLMReply("I cannot classify that message.")
	if err == nil {
		t.Fatal("expected error for non-JSON reply")
	}
}

func TestParseLLMReply_ClampsConfidences(t *testing.T) {
	t.Parallel()

	res, err := ParseLLMReply(`{"sentiment_label": "positive", "sentiment_confidence": 1.4, "is_ironic": true, "irony_confidence": -0.3}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SentimentConfidence != 1 {
		t.Errorf("SentimentConfidence = %v, want 1", res.SentimentConfidence)
	}
	if res.IronyConfidence != 0 {
		t.Errorf("IronyConfidence = %v, want 0", res.IronyConfidence)
	}
}
