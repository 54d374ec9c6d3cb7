package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveByMemberID(t *testing.T) {
	r := openTestRegistry(t)
	ctx := context.Background()
	m, err := r.Enroll(ctx, "m1", 3, RoleStandard)
	require.NoError(t, err)

	res := NewResolver(r, nil)
	sc, err := res.Resolve(ctx, Claims{MemberID: "m1"})
	require.NoError(t, err)
	assert.Equal(t, m.ThreadID, sc.ThreadID)
	assert.Equal(t, 3, sc.Tier)
	assert.Equal(t, "Acolyte", sc.TierName)
	assert.Equal(t, RoleStandard, sc.Role)
}

func TestResolveByThreadID(t *testing.T) {
	r := openTestRegistry(t)
	ctx := context.Background()
	m, err := r.Enroll(ctx, "m1", 4, RoleStandard)
	require.NoError(t, err)

	res := NewResolver(r, nil)
	sc, err := res.Resolve(ctx, Claims{ThreadID: m.ThreadID})
	require.NoError(t, err)
	assert.Equal(t, "m1", sc.MemberID)
}

func TestResolveUnknownClaims(t *testing.T) {
	r := openTestRegistry(t)
	res := NewResolver(r, nil)

	for _, claims := range []Claims{
		{},
		{MemberID: "ghost"},
		{ThreadID: "no-such-thread"},
	} {
		_, err := res.Resolve(context.Background(), claims)
		assert.True(t, IsUnresolvedIdentity(err), "claims %+v", claims)
	}
}

func TestReverifyAdminChecksRegistryNotContext(t *testing.T) {
	r := openTestRegistry(t)
	ctx := context.Background()
	_, err := r.Enroll(ctx, "standard", 5, RoleStandard)
	require.NoError(t, err)

	res := NewResolver(r, nil)
	sc, err := res.Resolve(ctx, Claims{MemberID: "standard"})
	require.NoError(t, err)

	// Forging the role on the context must not grant the capability.
	sc.Role = RoleAdmin
	_, err = res.ReverifyAdmin(ctx, sc)
	assert.True(t, IsForbidden(err))
}

func TestReverifyAdminGrantsCapability(t *testing.T) {
	r := openTestRegistry(t)
	ctx := context.Background()
	_, err := r.Enroll(ctx, "root", 7, RoleAdmin)
	require.NoError(t, err)

	res := NewResolver(r, nil)
	sc, err := res.Resolve(ctx, Claims{MemberID: "root"})
	require.NoError(t, err)

	ac, err := res.ReverifyAdmin(ctx, sc)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, ac.Role)
	assert.Equal(t, "root", ac.MemberID)
}

func TestReverifyAdminRevocation(t *testing.T) {
	r := openTestRegistry(t)
	ctx := context.Background()
	_, err := r.Enroll(ctx, "root", 7, RoleAdmin)
	require.NoError(t, err)

	res := NewResolver(r, nil)
	sc, err := res.Resolve(ctx, Claims{MemberID: "root"})
	require.NoError(t, err)

	// Demote after the context was issued; the next reverify must refuse.
	_, err = r.db.ExecContext(ctx, "UPDATE members SET role = 'standard' WHERE member_id = 'root'")
	require.NoError(t, err)

	_, err = res.ReverifyAdmin(ctx, sc)
	assert.True(t, IsForbidden(err))
}
