package trajectory

import (
	"fmt"
	"strings"

	"github.com/kvasirlabs/tonearbiter/internal/arbiter"
)

// moodThreshold separates positive from negative per-message scores when
// narrating mood shifts. Matches the conversation label threshold.
const moodThreshold = 0.05

// MoodShift narrates how the mood moved across already-scored messages.
// It only reads the per-message compounds and labels recorded at arbitration
// time — no new classification happens here.
//
// labels must be parallel to scores; both come from the stored verdicts in
// conversation order.
func MoodShift(scores []float64, labels []arbiter.Label) string {
	if len(scores) < 2 {
		return "Not enough messages to detect mood shifts."
	}

	first, last := scores[0], scores[len(scores)-1]

	switch {
	case first < -moodThreshold && last > moodThreshold:
		for i, s := range scores {
			if s > moodThreshold {
				return fmt.Sprintf("Mood shift: started %s, improved to %s by message %d",
					lower(labels[0]), lower(labels[len(labels)-1]), i+1)
			}
		}

	case first > moodThreshold && last < -moodThreshold:
		for i, s := range scores {
			if s < -moodThreshold {
				return fmt.Sprintf("Mood shift: started %s, declined to %s by message %d",
					lower(labels[0]), lower(labels[len(labels)-1]), i+1)
			}
		}

	case all(scores, func(s float64) bool { return s > moodThreshold }):
		return "Consistent mood: positive throughout the conversation"

	case all(scores, func(s float64) bool { return s < -moodThreshold }):
		return "Consistent mood: negative throughout the conversation"

	case all(scores, func(s float64) bool { return s >= -moodThreshold && s <= moodThreshold }):
		return "Consistent mood: neutral throughout the conversation"
	}

	var pos, neg int
	for _, s := range scores {
		switch {
		case s > moodThreshold:
			pos++
		case s < -moodThreshold:
			neg++
		}
	}
	neu := len(scores) - pos - neg
	return fmt.Sprintf("Fluctuating mood: mixed emotions (%d positive, %d neutral, %d negative)", pos, neu, neg)
}

func lower(l arbiter.Label) string {
	return strings.ToLower(string(l))
}

func all(xs []float64, pred func(float64) bool) bool {
	for _, x := range xs {
		if !pred(x) {
			return false
		}
	}
	return true
}
