package session

import (
	"context"
	"log/slog"
)

// Claims is the unverified identity a caller presents. Either field may be
// set; member ID wins when both are. Claims carry no role on purpose.
type Claims struct {
	MemberID string `json:"member_id,omitempty"`
	ThreadID string `json:"thread_id,omitempty"`
}

// Context is a verified member context. All tier-scoped reads and writes
// take their thread and tier from here, never from raw claims.
type Context struct {
	MemberID string `json:"member_id"`
	ThreadID string `json:"thread_id"`
	Tier     int    `json:"tier"`
	TierName string `json:"tier_name"`
	Role     Role   `json:"role"`
}

// AdminContext is the capability token for full-ledger scans. It can only
// be produced by ReverifyAdmin, which re-checks the registry row.
type AdminContext struct {
	Context
}

// Resolver turns claims into verified contexts against the registry.
type Resolver struct {
	registry *Registry
	log      *slog.Logger
}

// NewResolver wires a resolver over a registry.
func NewResolver(registry *Registry, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{registry: registry, log: log.With("component", "session")}
}

// Resolve verifies claims against the registry. Unmatched claims return an
// UNRESOLVED_IDENTITY error; no default identity exists.
func (r *Resolver) Resolve(ctx context.Context, claims Claims) (Context, error) {
	var m Member
	var err error
	switch {
	case claims.MemberID != "":
		m, err = r.registry.Lookup(ctx, claims.MemberID)
	case claims.ThreadID != "":
		m, err = r.registry.LookupByThread(ctx, claims.ThreadID)
	default:
		return Context{}, unresolvedErr("", "empty claims")
	}
	if err != nil {
		return Context{}, err
	}

	r.log.Debug("resolved member", "member", m.MemberID, "tier", m.Tier, "role", m.Role)
	return Context{
		MemberID: m.MemberID,
		ThreadID: m.ThreadID,
		Tier:     m.Tier,
		TierName: m.TierName,
		Role:     m.Role,
	}, nil
}

// ReverifyAdmin upgrades a verified context to an admin capability. The
// role is re-read from the registry at call time so a revoked admin loses
// the capability immediately, whatever the stale context says.
func (r *Resolver) ReverifyAdmin(ctx context.Context, sc Context) (AdminContext, error) {
	m, err := r.registry.Lookup(ctx, sc.MemberID)
	if err != nil {
		return AdminContext{}, err
	}
	if m.Role != RoleAdmin {
		r.log.Warn("admin capability refused", "member", m.MemberID, "role", m.Role)
		return AdminContext{}, forbiddenErr(m.MemberID, "registered role is not admin")
	}
	sc.Role = RoleAdmin
	return AdminContext{Context: sc}, nil
}
