package admin

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrimsonX77/RedVerse/internal/ledger"
	"github.com/CrimsonX77/RedVerse/internal/policy"
	"github.com/CrimsonX77/RedVerse/internal/session"
)

type fixture struct {
	registry *session.Registry
	store    *ledger.Store
	svc      *Service
	admin    session.AdminContext
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	registry, err := session.Open(filepath.Join(dir, "registry.db"), policy.DefaultTable())
	require.NoError(t, err)
	t.Cleanup(func() { registry.Close() })

	store, err := ledger.Open(filepath.Join(dir, "data"), ledger.Options{})
	require.NoError(t, err)

	ctx := context.Background()
	root, err := registry.Enroll(ctx, "root", 7, session.RoleAdmin)
	require.NoError(t, err)

	resolver := session.NewResolver(registry, nil)
	sc, err := resolver.Resolve(ctx, session.Claims{MemberID: root.MemberID})
	require.NoError(t, err)
	ac, err := resolver.ReverifyAdmin(ctx, sc)
	require.NoError(t, err)

	return &fixture{
		registry: registry,
		store:    store,
		svc:      NewService(registry, store, nil),
		admin:    ac,
	}
}

// enrollWithEvents registers a member and appends n user events to its thread.
func (f *fixture) enrollWithEvents(t *testing.T, memberID string, tier, n int) session.Member {
	t.Helper()
	ctx := context.Background()
	m, err := f.registry.Enroll(ctx, memberID, tier, session.RoleStandard)
	require.NoError(t, err)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		_, err := f.store.Append(ctx, m.ThreadID, ledger.Event{
			Role:      ledger.RoleUser,
			Source:    ledger.SourceEDrive,
			Content:   fmt.Sprintf("note %d", i),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	return m
}

func TestMemberStats(t *testing.T) {
	f := newFixture(t)
	f.enrollWithEvents(t, "m1", 2, 5)

	st, err := f.svc.MemberStats(context.Background(), f.admin, "m1")
	require.NoError(t, err)
	assert.True(t, st.Exists)
	assert.Equal(t, 5, st.EventCount)
	assert.Positive(t, st.SizeBytes)
	assert.Equal(t, "Initiate", st.Member.TierName)
}

func TestMemberStatsUnknownMember(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.MemberStats(context.Background(), f.admin, "ghost")
	assert.True(t, session.IsUnresolvedIdentity(err))
}

func TestAllMembersSummary(t *testing.T) {
	f := newFixture(t)
	f.enrollWithEvents(t, "m1", 2, 3)
	f.enrollWithEvents(t, "m2", 4, 0)

	summaries, err := f.svc.AllMembersSummary(context.Background(), f.admin)
	require.NoError(t, err)
	require.Len(t, summaries, 3, "root plus two members")

	byID := make(map[string]MemberStats)
	for _, s := range summaries {
		byID[s.Member.MemberID] = s
	}
	assert.Equal(t, 3, byID["m1"].EventCount)
	assert.False(t, byID["m2"].Exists, "enrollment does not create a ledger file")
}

func TestTierDistribution(t *testing.T) {
	f := newFixture(t)
	f.enrollWithEvents(t, "m1", 2, 0)
	f.enrollWithEvents(t, "m2", 2, 0)
	f.enrollWithEvents(t, "m3", 4, 0)

	dist, err := f.svc.TierDistribution(context.Background(), f.admin)
	require.NoError(t, err)
	// root at 7, two at 2, one at 4; four members total.
	require.Len(t, dist, 3)
	assert.Equal(t, TierCount{Tier: 2, TierName: "Initiate", Count: 2, Percentage: 50}, dist[0])
	assert.Equal(t, TierCount{Tier: 4, TierName: "Keeper", Count: 1, Percentage: 25}, dist[1])
	assert.Equal(t, TierCount{Tier: 7, TierName: "Inner Sanctum", Count: 1, Percentage: 25}, dist[2])
}

func TestTimelineBypassesTierDepth(t *testing.T) {
	// A tier-1 member has no self-visible memory, but oversight sees all.
	f := newFixture(t)
	f.enrollWithEvents(t, "m1", 1, 12)

	events, err := f.svc.Timeline(context.Background(), f.admin, "m1", 0)
	require.NoError(t, err)
	require.Len(t, events, 12)
	assert.Equal(t, "note 11", events[0].Content, "newest first")
	assert.Equal(t, "note 0", events[11].Content)
	assert.Equal(t, "m1", events[0].MemberID)
}

func TestTimelineLimit(t *testing.T) {
	f := newFixture(t)
	f.enrollWithEvents(t, "m1", 3, 10)

	events, err := f.svc.Timeline(context.Background(), f.admin, "m1", 4)
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, "note 9", events[0].Content)
	assert.Equal(t, "note 6", events[3].Content)
}

func TestAddObservation(t *testing.T) {
	f := newFixture(t)
	m := f.enrollWithEvents(t, "m1", 3, 2)
	ctx := context.Background()

	ev, err := f.svc.AddObservation(ctx, f.admin, "m1", "requested export twice")
	require.NoError(t, err)
	assert.Equal(t, ledger.RoleSystem, ev.Role)
	assert.Equal(t, "admin_observation", ev.Metadata["kind"])
	assert.Equal(t, "root", ev.Metadata["admin_id"])

	events, err := f.store.ReadAll(ctx, m.ThreadID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "requested export twice", events[2].Content)
}

func TestSuspiciousPatternsObservationFlags(t *testing.T) {
	f := newFixture(t)
	f.enrollWithEvents(t, "m1", 3, 2)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, err := f.svc.AddObservation(ctx, f.admin, "m1", fmt.Sprintf("flag %d", i))
		require.NoError(t, err)
	}

	patterns, err := f.svc.SuspiciousPatterns(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, "multiple_flags", patterns[0].Pattern)
	assert.Equal(t, SeverityWarning, patterns[0].Severity)
	assert.Equal(t, "m1", patterns[0].MemberID)
}
