package admin

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/CrimsonX77/RedVerse/internal/ledger"
	"github.com/CrimsonX77/RedVerse/internal/session"
)

// Service answers oversight queries over the registry and ledger.
type Service struct {
	registry *session.Registry
	store    *ledger.Store
	log      *slog.Logger
}

// NewService wires an admin service.
func NewService(registry *session.Registry, store *ledger.Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{registry: registry, store: store, log: log.With("component", "admin")}
}

// MemberStats is one member's registry row joined with ledger statistics.
type MemberStats struct {
	Member     session.Member `json:"member"`
	Exists     bool           `json:"memory_file_exists"`
	EventCount int            `json:"total_events"`
	SizeBytes  int64          `json:"file_size_bytes"`
	FirstEvent time.Time      `json:"first_event_time,omitzero"`
	LastEvent  time.Time      `json:"last_event_time,omitzero"`
}

// MemberStats reports ledger statistics for one member, depth-unbounded.
func (s *Service) MemberStats(ctx context.Context, ac session.AdminContext, memberID string) (MemberStats, error) {
	m, err := s.registry.Lookup(ctx, memberID)
	if err != nil {
		return MemberStats{}, err
	}
	st, err := s.store.Stats(ctx, m.ThreadID)
	if err != nil {
		return MemberStats{}, fmt.Errorf("member stats: %w", err)
	}
	return MemberStats{
		Member:     m,
		Exists:     st.Exists,
		EventCount: st.EventCount,
		SizeBytes:  st.SizeBytes,
		FirstEvent: st.FirstEvent,
		LastEvent:  st.LastEvent,
	}, nil
}

// AllMembersSummary reports ledger statistics for every registered member.
func (s *Service) AllMembersSummary(ctx context.Context, ac session.AdminContext) ([]MemberStats, error) {
	members, err := s.registry.All(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]MemberStats, 0, len(members))
	for _, m := range members {
		st, err := s.store.Stats(ctx, m.ThreadID)
		if err != nil {
			return nil, fmt.Errorf("summary for %s: %w", m.MemberID, err)
		}
		summaries = append(summaries, MemberStats{
			Member:     m,
			Exists:     st.Exists,
			EventCount: st.EventCount,
			SizeBytes:  st.SizeBytes,
			FirstEvent: st.FirstEvent,
			LastEvent:  st.LastEvent,
		})
	}
	s.log.Info("generated member summaries", "admin", ac.MemberID, "members", len(summaries))
	return summaries, nil
}

// TierCount is one bucket of the tier distribution.
type TierCount struct {
	Tier       int     `json:"tier"`
	TierName   string  `json:"tier_name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// TierDistribution counts members per tier, ascending by tier. Percentages
// are rounded to one decimal.
func (s *Service) TierDistribution(ctx context.Context, ac session.AdminContext) ([]TierCount, error) {
	members, err := s.registry.All(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[int]*TierCount)
	for _, m := range members {
		tc, ok := counts[m.Tier]
		if !ok {
			tc = &TierCount{Tier: m.Tier, TierName: m.TierName}
			counts[m.Tier] = tc
		}
		tc.Count++
	}

	out := make([]TierCount, 0, len(counts))
	for _, tc := range counts {
		if len(members) > 0 {
			tc.Percentage = math.Round(1000*float64(tc.Count)/float64(len(members))) / 10
		}
		out = append(out, *tc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tier < out[j].Tier })
	return out, nil
}

// TimelineEvent is a ledger event joined with its owner for oversight views.
type TimelineEvent struct {
	ledger.Event
	MemberID string `json:"member_id"`
}

// Timeline returns a member's full ledger regardless of tier, newest first.
// limit 0 means all.
func (s *Service) Timeline(ctx context.Context, ac session.AdminContext, memberID string, limit int) ([]TimelineEvent, error) {
	m, err := s.registry.Lookup(ctx, memberID)
	if err != nil {
		return nil, err
	}
	events, err := s.store.ReadAll(ctx, m.ThreadID)
	if err != nil {
		return nil, fmt.Errorf("timeline: %w", err)
	}

	out := make([]TimelineEvent, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		out = append(out, TimelineEvent{Event: events[i], MemberID: m.MemberID})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	s.log.Info("timeline read", "admin", ac.MemberID, "member", memberID, "events", len(out))
	return out, nil
}

// AddObservation appends an admin note to the member's ledger as a system
// event. The note rides the same append-only log as everything else, so it
// is visible in timelines and can never be silently edited.
func (s *Service) AddObservation(ctx context.Context, ac session.AdminContext, memberID, note string) (ledger.Event, error) {
	m, err := s.registry.Lookup(ctx, memberID)
	if err != nil {
		return ledger.Event{}, err
	}
	ev := ledger.Event{
		Role:    ledger.RoleSystem,
		Source:  ledger.SourceRedVerse,
		Content: note,
		Metadata: map[string]any{
			"kind":     "admin_observation",
			"admin_id": ac.MemberID,
		},
	}
	stored, err := s.store.Append(ctx, m.ThreadID, ev)
	if err != nil {
		return ledger.Event{}, fmt.Errorf("add observation: %w", err)
	}
	s.log.Info("observation recorded", "admin", ac.MemberID, "member", memberID)
	return stored, nil
}
