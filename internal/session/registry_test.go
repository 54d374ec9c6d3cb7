package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrimsonX77/RedVerse/internal/policy"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "registry.db"), policy.DefaultTable())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")
	tiers := policy.DefaultTable()

	r1, err := Open(path, tiers)
	require.NoError(t, err)
	_, err = r1.Enroll(context.Background(), "m1", 3, RoleStandard)
	require.NoError(t, err)
	require.NoError(t, r1.Close())

	// Reopening applies schema and migrations again without damage.
	r2, err := Open(path, tiers)
	require.NoError(t, err)
	defer r2.Close()

	m, err := r2.Lookup(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "Acolyte", m.TierName)
}

func TestEnrollMintsPermanentThread(t *testing.T) {
	r := openTestRegistry(t)
	ctx := context.Background()

	m, err := r.Enroll(ctx, "", 2, RoleStandard)
	require.NoError(t, err)
	assert.NotEmpty(t, m.MemberID)
	assert.NotEmpty(t, m.ThreadID)
	assert.Equal(t, 2, m.Tier)
	assert.Equal(t, "Initiate", m.TierName)

	// A tier change must leave the thread mapping alone.
	updated, err := r.SetTier(ctx, m.MemberID, 5)
	require.NoError(t, err)
	assert.Equal(t, m.ThreadID, updated.ThreadID)
	assert.Equal(t, 5, updated.Tier)
	assert.Equal(t, "Sentinel", updated.TierName)
}

func TestEnrollUnknownTierFailsClosed(t *testing.T) {
	r := openTestRegistry(t)

	m, err := r.Enroll(context.Background(), "stray", 42, RoleStandard)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Tier)
	assert.Equal(t, "Wanderer", m.TierName)
}

func TestEnrollDuplicateMemberFails(t *testing.T) {
	r := openTestRegistry(t)
	ctx := context.Background()

	_, err := r.Enroll(ctx, "dup", 2, RoleStandard)
	require.NoError(t, err)
	_, err = r.Enroll(ctx, "dup", 3, RoleStandard)
	require.Error(t, err)
}

func TestSetTierUnknownMember(t *testing.T) {
	r := openTestRegistry(t)

	_, err := r.SetTier(context.Background(), "ghost", 3)
	assert.True(t, IsUnresolvedIdentity(err))
}

func TestLookupByThread(t *testing.T) {
	r := openTestRegistry(t)
	ctx := context.Background()

	m, err := r.Enroll(ctx, "m1", 4, RoleStandard)
	require.NoError(t, err)

	got, err := r.LookupByThread(ctx, m.ThreadID)
	require.NoError(t, err)
	assert.Equal(t, "m1", got.MemberID)

	_, err = r.LookupByThread(ctx, "no-such-thread")
	assert.True(t, IsUnresolvedIdentity(err))
}

func TestAllOrdering(t *testing.T) {
	r := openTestRegistry(t)
	ctx := context.Background()

	for _, id := range []string{"b", "a", "c"} {
		_, err := r.Enroll(ctx, id, 2, RoleStandard)
		require.NoError(t, err)
	}

	members, err := r.All(ctx)
	require.NoError(t, err)
	require.Len(t, members, 3)
	ids := []string{members[0].MemberID, members[1].MemberID, members[2].MemberID}
	assert.ElementsMatch(t, []string{"a", "b", "c"}, ids)
	for i := 1; i < len(members); i++ {
		prev, curr := members[i-1], members[i]
		ordered := prev.CreatedAt.Before(curr.CreatedAt) ||
			(prev.CreatedAt.Equal(curr.CreatedAt) && prev.MemberID < curr.MemberID)
		assert.True(t, ordered, "listing must be (created_at, member_id) ordered")
	}
}
