package query

import (
	"context"
	"math"
)

// Trend classifies how the emotional valence of a window moved.
type Trend string

const (
	TrendPositive Trend = "positive"
	TrendNegative Trend = "negative"
	TrendNeutral  Trend = "neutral"
)

// TrajectoryOptions tunes the emotion-trend heuristic. The two-window
// comparison has no inherent minimum sample size or tie precision, so both
// are configurable rather than hard-coded.
type TrajectoryOptions struct {
	// Window is the default number of recent events inspected when the
	// caller gives no limit.
	Window int `yaml:"window"`

	// MinSamples is the minimum number of emotion-bearing events required
	// before a trend other than neutral may be reported.
	MinSamples int `yaml:"min_samples"`

	// TieEpsilon is the valence delta below which the two windows are
	// considered tied (neutral).
	TieEpsilon float64 `yaml:"tie_epsilon"`

	// Valence overrides or extends the built-in label-to-valence lexicon.
	Valence map[string]float64 `yaml:"valence,omitempty"`
}

func (o TrajectoryOptions) withDefaults() TrajectoryOptions {
	if o.Window <= 0 {
		o.Window = 20
	}
	if o.MinSamples <= 0 {
		o.MinSamples = 2
	}
	if o.TieEpsilon <= 0 {
		o.TieEpsilon = 0.01
	}
	return o
}

// defaultValence maps emotion labels to a valence in [-1, 1].
// Labels outside the lexicon contribute zero valence (unknown polarity)
// but still count toward the primary-emotion tally.
var defaultValence = map[string]float64{
	"joy":          1.0,
	"love":         1.0,
	"excitement":   0.9,
	"devotion":     0.9,
	"gratitude":    0.8,
	"tenderness":   0.8,
	"playfulness":  0.7,
	"serenity":     0.7,
	"hope":         0.7,
	"curiosity":    0.6,
	"reverence":    0.6,
	"pride":        0.6,
	"mischief":     0.5,
	"longing":      0.1,
	"nostalgia":    -0.2,
	"defiance":     -0.4,
	"melancholy":   -0.7,
	"fear":         -0.7,
	"anxiety":      -0.7,
	"anger":        -0.8,
	"aggression":   -0.8,
	"sad":          -1.0,
	"sadness":      -1.0,
}

// valence resolves a label against the configured lexicon, then the
// built-in one.
func (o TrajectoryOptions) valence(label string) float64 {
	if v, ok := o.Valence[label]; ok {
		return v
	}
	return defaultValence[label]
}

// emotionSample is one emotion-bearing event's label and intensity,
// in window order.
type emotionSample struct {
	label     string
	intensity float64
}

// Trajectory is the derived sentiment-trend analysis of a thread's recent
// emotion-tagged events.
//
// HasData=false is the explicit no-data result for ledgers with zero
// qualifying events in the inspected window; it is not an error.
type Trajectory struct {
	HasData      bool    `json:"has_data"`
	Primary      string  `json:"primary_emotion,omitempty"`
	IntensityAvg float64 `json:"intensity_avg"`
	Trend        Trend   `json:"trend"`
	EventCount   int     `json:"event_count"`
}

// EmotionTrajectory scans the most recent limit events, keeping only those
// carrying an emotion state.
//
//   - Primary is the most frequent label; ties break to the label whose
//     occurrence is most recent.
//   - IntensityAvg is the mean intensity, rounded to two decimals.
//   - Trend compares the average intensity-weighted valence of the first
//     half of the window against the second half: positive if it rises
//     beyond the tie epsilon, negative if it falls, neutral otherwise or
//     on insufficient data.
func (e *Engine) EmotionTrajectory(ctx context.Context, threadID string, tier, limit int) (Trajectory, error) {
	if limit <= 0 {
		limit = e.traj.Window
	}

	res, err := e.LoadContext(ctx, threadID, tier, limit)
	if err != nil {
		return Trajectory{}, err
	}

	var samples []emotionSample
	for _, ev := range res.Events {
		if ev.Emotion != nil {
			samples = append(samples, emotionSample{label: ev.Emotion.Primary, intensity: ev.Emotion.Intensity})
		}
	}
	if len(samples) == 0 {
		return Trajectory{HasData: false, Trend: TrendNeutral}, nil
	}

	// Primary emotion: highest count, most-recent occurrence wins ties.
	counts := make(map[string]int)
	lastSeen := make(map[string]int)
	var sumIntensity float64
	for i, s := range samples {
		counts[s.label]++
		lastSeen[s.label] = i
		sumIntensity += s.intensity
	}
	primary := ""
	for label, n := range counts {
		if primary == "" {
			primary = label
			continue
		}
		switch {
		case n > counts[primary]:
			primary = label
		case n == counts[primary] && lastSeen[label] > lastSeen[primary]:
			primary = label
		}
	}

	traj := Trajectory{
		HasData:      true,
		Primary:      primary,
		IntensityAvg: math.Round(sumIntensity/float64(len(samples))*100) / 100,
		Trend:        TrendNeutral,
		EventCount:   len(samples),
	}

	if len(samples) < e.traj.MinSamples {
		return traj, nil
	}

	half := len(samples) / 2
	score := func(part []emotionSample) float64 {
		var total float64
		for _, s := range part {
			total += e.traj.valence(s.label) * s.intensity
		}
		return total / float64(len(part))
	}
	delta := score(samples[half:]) - score(samples[:half])
	switch {
	case delta > e.traj.TieEpsilon:
		traj.Trend = TrendPositive
	case delta < -e.traj.TieEpsilon:
		traj.Trend = TrendNegative
	}
	return traj, nil
}
