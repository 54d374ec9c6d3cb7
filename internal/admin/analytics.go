package admin

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/CrimsonX77/RedVerse/internal/session"
)

// EmotionBucket aggregates one emotion label across the archive.
type EmotionBucket struct {
	Count        int     `json:"count"`
	AvgIntensity float64 `json:"avg_intensity"`
}

// Heatmap is the system-wide emotion distribution over a day window.
type Heatmap struct {
	Emotions   map[string]EmotionBucket  `json:"emotion_counts"`
	TimeSeries map[string]map[string]int `json:"time_series"`
	Analyzed   int                       `json:"total_events_analyzed"`
	Days       int                       `json:"days_analyzed"`
}

// EmotionHeatmap aggregates emotion-tagged events across every member's
// ledger within the last days. Untagged events are skipped. Time series
// keys are YYYY-MM-DD.
func (s *Service) EmotionHeatmap(ctx context.Context, ac session.AdminContext, days int) (Heatmap, error) {
	if days <= 0 {
		days = 30
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	members, err := s.registry.All(ctx)
	if err != nil {
		return Heatmap{}, err
	}

	counts := make(map[string]int)
	intensity := make(map[string]float64)
	series := make(map[string]map[string]int)

	for _, m := range members {
		events, err := s.store.ReadAll(ctx, m.ThreadID)
		if err != nil {
			return Heatmap{}, fmt.Errorf("heatmap %s: %w", m.MemberID, err)
		}
		for _, ev := range events {
			if ev.Emotion == nil || ev.Timestamp.Before(cutoff) {
				continue
			}
			label := ev.Emotion.Primary
			counts[label]++
			intensity[label] += ev.Emotion.Intensity

			day := ev.Timestamp.Format("2006-01-02")
			if series[day] == nil {
				series[day] = make(map[string]int)
			}
			series[day][label]++
		}
	}

	hm := Heatmap{
		Emotions:   make(map[string]EmotionBucket, len(counts)),
		TimeSeries: series,
		Days:       days,
	}
	for label, n := range counts {
		hm.Emotions[label] = EmotionBucket{
			Count:        n,
			AvgIntensity: math.Round(intensity[label]/float64(n)*100) / 100,
		}
		hm.Analyzed += n
	}
	s.log.Info("emotion heatmap", "admin", ac.MemberID, "emotions", len(hm.Emotions), "events", hm.Analyzed)
	return hm, nil
}

// Pattern severities.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
)

// Pattern is one flagged usage pattern for staff review.
type Pattern struct {
	MemberID string `json:"member_id"`
	Pattern  string `json:"pattern"`
	Severity string `json:"severity"`
	Details  string `json:"details"`
}

// highMemoryEvents is the event count above which a ledger is flagged.
const highMemoryEvents = 1000

// SuspiciousPatterns flags members whose usage warrants a manual look.
// Detection is heuristic and read-only; flags carry no enforcement.
func (s *Service) SuspiciousPatterns(ctx context.Context, ac session.AdminContext) ([]Pattern, error) {
	members, err := s.registry.All(ctx)
	if err != nil {
		return nil, err
	}

	var patterns []Pattern
	for _, m := range members {
		st, err := s.store.Stats(ctx, m.ThreadID)
		if err != nil {
			return nil, fmt.Errorf("patterns %s: %w", m.MemberID, err)
		}
		if st.EventCount > highMemoryEvents {
			patterns = append(patterns, Pattern{
				MemberID: m.MemberID,
				Pattern:  "high_memory_usage",
				Severity: SeverityInfo,
				Details:  fmt.Sprintf("member has %d memory events", st.EventCount),
			})
		}
		observations, err := s.countObservations(ctx, m.ThreadID)
		if err != nil {
			return nil, err
		}
		if observations > 5 {
			patterns = append(patterns, Pattern{
				MemberID: m.MemberID,
				Pattern:  "multiple_flags",
				Severity: SeverityWarning,
				Details:  fmt.Sprintf("member has %d observation flags", observations),
			})
		}
	}
	s.log.Info("pattern scan", "admin", ac.MemberID, "flags", len(patterns))
	return patterns, nil
}

// countObservations counts admin_observation system events on a thread.
func (s *Service) countObservations(ctx context.Context, threadID string) (int, error) {
	events, err := s.store.ReadAll(ctx, threadID)
	if err != nil {
		return 0, fmt.Errorf("count observations: %w", err)
	}
	n := 0
	for _, ev := range events {
		if ev.Metadata["kind"] == "admin_observation" {
			n++
		}
	}
	return n, nil
}
