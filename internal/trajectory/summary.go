package trajectory

import (
	"fmt"
	"math"

	"github.com/kvasirlabs/tonearbiter/internal/arbiter"
)

// intensityRule buckets |compound| into a qualifier word.
type intensityRule struct {
	min       float64
	qualifier string
}

// intensityRules is evaluated in order; the first bucket whose lower bound is
// exceeded wins.
var intensityRules = []intensityRule{
	{0.5, "strongly"},
	{0.2, "moderately"},
	{0, "slightly"},
}

func intensity(compound float64) string {
	abs := math.Abs(compound)
	for _, r := range intensityRules {
		if abs > r.min {
			return r.qualifier
		}
	}
	return "slightly"
}

// summaryText renders the one-line human summary. Shift narratives take
// precedence over the intensity-qualified tone description; the label used
// here is the untagged base label.
func summaryText(label arbiter.Label, compound float64, n int, report Report) string {
	if report.ShiftDetected {
		switch report.Trajectory {
		case Improving:
			return fmt.Sprintf("Conversation shifted from negative to positive across %d message(s) - issue resolved", n)
		case Declining:
			return fmt.Sprintf("Conversation shifted from positive to negative across %d message(s) - growing dissatisfaction", n)
		}
	}

	switch label {
	case arbiter.LabelPositive:
		return fmt.Sprintf("Overall %s positive tone across %d message(s) - general satisfaction", intensity(compound), n)
	case arbiter.LabelNegative:
		return fmt.Sprintf("Overall %s negative tone across %d message(s) - general dissatisfaction", intensity(compound), n)
	}
	return fmt.Sprintf("Neutral/balanced tone across %d message(s) - no strong emotional direction", n)
}
