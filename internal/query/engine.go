package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/CrimsonX77/RedVerse/internal/ledger"
	"github.com/CrimsonX77/RedVerse/internal/policy"
)

// Options configures a query engine.
type Options struct {
	// Trajectory tunes the emotion-trend heuristic.
	Trajectory TrajectoryOptions

	// Logger receives engine diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Engine answers store and query operations scoped by thread and tier.
type Engine struct {
	store *ledger.Store
	tiers *policy.Table
	traj  TrajectoryOptions
	log   *slog.Logger
}

// NewEngine wires a query engine over a ledger store and tier table.
func NewEngine(store *ledger.Store, tiers *policy.Table, opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		store: store,
		tiers: tiers,
		traj:  opts.Trajectory.withDefaults(),
		log:   log.With("component", "query"),
	}
}

// StoreEvent appends one interaction event to a thread's ledger.
//
// The tier never bounds writes; it is stamped into the event metadata
// (tier_at_time, tier_name) for later audit, matching the persisted layout
// of existing thread files.
func (e *Engine) StoreEvent(ctx context.Context, threadID string, tier int, ev ledger.Event) (ledger.Event, error) {
	p := e.tiers.Resolve(tier)
	if ev.Metadata == nil {
		ev.Metadata = make(map[string]any, 2)
	}
	ev.Metadata["tier_at_time"] = p.Tier
	ev.Metadata["tier_name"] = p.Name

	stored, err := e.store.Append(ctx, threadID, ev)
	if err != nil {
		return ledger.Event{}, fmt.Errorf("store event: %w", err)
	}
	return stored, nil
}

// ContextResult is a tier-bounded slice of a thread's ledger.
type ContextResult struct {
	Events   []ledger.Event `json:"events"`
	Count    int            `json:"count"`
	Tier     int            `json:"tier"`
	TierName string         `json:"tier_name"`

	// TierLimit is the configured depth for the resolved tier
	// (policy.UnboundedDepth for tier 7), not the effective limit.
	TierLimit int `json:"tier_limit"`
}

// LoadContext returns the most recent events visible at the given tier,
// ascending order. The effective limit is min(limit, depth) for bounded
// tiers; an unbounded tier returns limit events, or everything when no
// limit is given. Tier-1 callers always receive an empty window.
func (e *Engine) LoadContext(ctx context.Context, threadID string, tier, limit int) (ContextResult, error) {
	p := e.tiers.Resolve(tier)
	res := ContextResult{Events: []ledger.Event{}, Tier: p.Tier, TierName: p.Name, TierLimit: p.Depth}

	eff, none := effectiveLimit(p, limit)
	if none {
		return res, nil
	}

	events, err := e.store.ReadTail(ctx, threadID, eff)
	if err != nil {
		return ContextResult{}, err
	}
	res.Events = events
	res.Count = len(events)
	return res, nil
}

// effectiveLimit resolves the read bound for a tier. The second return is
// true when the tier has no memory access at all (depth 0).
func effectiveLimit(p policy.Policy, limit int) (int, bool) {
	if p.Depth == 0 {
		return 0, true
	}
	if p.Unbounded() {
		if limit <= 0 {
			return 0, false // read everything
		}
		return limit, false
	}
	if limit <= 0 || limit > p.Depth {
		return p.Depth, false
	}
	return limit, false
}

// Turn is one conversational exchange half, shaped for prompt injection.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationHistory projects the visible window to {role, content} pairs
// in ascending order, keeping only user and assistant events so role
// alternation reads naturally in a prompt.
func (e *Engine) ConversationHistory(ctx context.Context, threadID string, tier, limit int) ([]Turn, error) {
	res, err := e.LoadContext(ctx, threadID, tier, limit)
	if err != nil {
		return nil, err
	}
	turns := make([]Turn, 0, len(res.Events))
	for _, ev := range res.Events {
		if ev.Role == ledger.RoleUser || ev.Role == ledger.RoleAssistant {
			turns = append(turns, Turn{Role: string(ev.Role), Content: ev.Content})
		}
	}
	return turns, nil
}

// StatsResult combines partition statistics with the resolved tier.
type StatsResult struct {
	Exists     bool      `json:"exists"`
	EventCount int       `json:"event_count"`
	SizeBytes  int64     `json:"file_size_bytes"`
	FirstEvent time.Time `json:"first_event,omitzero"`
	LastEvent  time.Time `json:"last_event,omitzero"`
	Tier       int       `json:"tier"`
	TierName   string    `json:"tier_name"`
	DepthLimit int       `json:"memory_depth_limit"`
}

// Stats reports ledger statistics for a thread. Repeated calls with no
// intervening writes return identical results.
func (e *Engine) Stats(ctx context.Context, threadID string, tier int) (StatsResult, error) {
	p := e.tiers.Resolve(tier)
	st, err := e.store.Stats(ctx, threadID)
	if err != nil {
		return StatsResult{}, err
	}
	return StatsResult{
		Exists:     st.Exists,
		EventCount: st.EventCount,
		SizeBytes:  st.SizeBytes,
		FirstEvent: st.FirstEvent,
		LastEvent:  st.LastEvent,
		Tier:       p.Tier,
		TierName:   p.Name,
		DepthLimit: p.Depth,
	}, nil
}
