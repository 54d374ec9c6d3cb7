package query

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/CrimsonX77/RedVerse/internal/ledger"
)

// defaultSummaryWindow is the number of recent events a cross-source
// summary inspects when the caller gives no limit.
const defaultSummaryWindow = 10

// previewRunes bounds the last-interaction content preview.
const previewRunes = 100

// Summary aggregates recent activity across originating surfaces.
//
// Enabled=false is the explicit feature-off result for tiers below the
// cross-source threshold; it is not an error and carries no ledger data.
type Summary struct {
	Enabled       bool                  `json:"cross_source_enabled"`
	EventCount    int                   `json:"event_count"`
	Counts        map[ledger.Source]int `json:"source_counts,omitempty"`
	LastSource    ledger.Source         `json:"last_source,omitempty"`
	LastTimestamp time.Time             `json:"last_timestamp,omitzero"`
	Digest        string                `json:"digest"`
}

// CrossSourceSummary scans the most recent limit events, groups them by
// source, and renders a short textual digest. Tiers without cross-source
// access receive the disabled result regardless of ledger contents.
func (e *Engine) CrossSourceSummary(ctx context.Context, threadID string, tier, limit int) (Summary, error) {
	p := e.tiers.Resolve(tier)
	if !p.CrossSource {
		e.log.Debug("cross-source summary disabled", "thread", threadID, "tier", p.Tier)
		return Summary{Enabled: false}, nil
	}
	if limit <= 0 {
		limit = defaultSummaryWindow
	}

	res, err := e.LoadContext(ctx, threadID, tier, limit)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Enabled: true, EventCount: len(res.Events)}
	if len(res.Events) == 0 {
		sum.Digest = "No previous interactions recorded."
		return sum, nil
	}

	sum.Counts = make(map[ledger.Source]int)
	for _, ev := range res.Events {
		sum.Counts[ev.Source]++
	}
	last := res.Events[len(res.Events)-1]
	sum.LastSource = last.Source
	sum.LastTimestamp = last.Timestamp
	sum.Digest = renderDigest(sum, last.Content)
	return sum, nil
}

// renderDigest formats the prompt-injectable activity digest.
// Sources are listed in sorted order so the output is deterministic.
func renderDigest(sum Summary, lastContent string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Recent activity (%d events):\n", sum.EventCount)

	sources := make([]string, 0, len(sum.Counts))
	for src := range sum.Counts {
		sources = append(sources, string(src))
	}
	sort.Strings(sources)
	for _, src := range sources {
		fmt.Fprintf(&b, "  - %s: %d interactions\n", strings.ToUpper(src), sum.Counts[ledger.Source(src)])
	}

	fmt.Fprintf(&b, "\nLast interaction: %s at %s\n",
		strings.ToUpper(string(sum.LastSource)), sum.LastTimestamp.Format(time.RFC3339))
	fmt.Fprintf(&b, "Preview: %s", truncateRunes(lastContent, previewRunes))
	return b.String()
}

// truncateRunes shortens s to at most n runes, marking the cut.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
