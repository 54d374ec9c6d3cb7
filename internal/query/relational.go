package query

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// relationalWindow is how many recent emotion-bearing events the relational
// context inspects.
const relationalWindow = 8

// RelationalContext renders the prompt-injectable memory layer: a short
// textual block describing emotional continuity, recurring themes, and the
// phase of the conversation. Sits between persona context and positional
// state in the prompt pipeline.
//
// Returns an empty string when the visible window carries no emotion data;
// callers inject nothing in that case.
func (e *Engine) RelationalContext(ctx context.Context, threadID string, tier int) (string, error) {
	res, err := e.LoadContext(ctx, threadID, tier, 0)
	if err != nil {
		return "", err
	}

	var all []emotionSample
	for _, ev := range res.Events {
		if ev.Emotion != nil {
			all = append(all, emotionSample{label: ev.Emotion.Primary, intensity: ev.Emotion.Intensity})
		}
	}
	if len(all) == 0 {
		return "", nil
	}

	recent := all
	if len(recent) > relationalWindow {
		recent = recent[len(recent)-relationalWindow:]
	}

	lines := []string{"[MEMORY LAYER - Relational & Situational Context]"}

	// Continuity: stable when the last three labels agree, shift otherwise.
	if len(recent) >= 2 {
		tail := recent
		if len(tail) > 3 {
			tail = tail[len(tail)-3:]
		}
		stable := true
		for _, s := range tail[1:] {
			if s.label != tail[0].label {
				stable = false
				break
			}
		}
		if stable {
			lines = append(lines, fmt.Sprintf("Emotional continuity: stable in %s", tail[len(tail)-1].label))
		} else {
			prev := recent[len(recent)-2].label
			curr := recent[len(recent)-1].label
			lines = append(lines, fmt.Sprintf("Emotional shift: %s -> %s", prev, curr))
		}

		lines = append(lines, "Recurring emotional themes: "+recurringThemes(recent))
	}

	lines = append(lines, conversationPhase(len(all)))

	// Signal strength from the last three intensities.
	if len(recent) >= 3 {
		tail := recent[len(recent)-3:]
		var avg float64
		for _, s := range tail {
			avg += s.intensity
		}
		avg /= 3
		switch {
		case avg > 0.7:
			lines = append(lines, "Signal intensity: HIGH - clear emotional signal")
		case avg > 0.4:
			lines = append(lines, "Signal intensity: MODERATE - reading context")
		default:
			lines = append(lines, "Signal intensity: LOW - uncertain territory")
		}
	}

	lines = append(lines, fmt.Sprintf("[%d events | %d emotional states recorded]", len(res.Events), len(all)))
	return strings.Join(lines, "\n"), nil
}

// recurringThemes formats the up-to-two most frequent labels as
// "label(count)" pairs. Count desc, then label asc, for determinism.
func recurringThemes(recent []emotionSample) string {
	counts := make(map[string]int)
	for _, s := range recent {
		counts[s.label]++
	}
	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return labels[i] < labels[j]
	})
	if len(labels) > 2 {
		labels = labels[:2]
	}
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = fmt.Sprintf("%s(%d)", l, counts[l])
	}
	return strings.Join(parts, ", ")
}

// conversationPhase maps emotional depth to the phase line.
func conversationPhase(depth int) string {
	switch {
	case depth <= 2:
		return "Conversation phase: opening - establishing connection"
	case depth <= 6:
		return "Conversation phase: building - deepening exchange"
	case depth <= 12:
		return "Conversation phase: sustained - rapport established"
	default:
		return "Conversation phase: deep session - strong relational bond"
	}
}
