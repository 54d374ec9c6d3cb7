package session

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/CrimsonX77/RedVerse/internal/policy"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added idx_members_tier
const currentSchemaVersion = 1

// Registry is the SQLite-backed member registry.
type Registry struct {
	db    *sql.DB
	tiers *policy.Table
}

// Open creates or opens the registry database at the given path.
// Applies required pragmas and migrations; idempotent.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func Open(path string, tiers *policy.Table) (*Registry, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect registry: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Registry{db: db, tiers: tiers}, nil
}

// Close closes the registry database.
func (r *Registry) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return runMigrations(db)
}

// runMigrations applies incremental migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		// CREATE INDEX IF NOT EXISTS is a no-op on databases created from
		// the current schema.sql; pre-v1 databases gain the index here.
		if _, err := db.Exec("CREATE INDEX IF NOT EXISTS idx_members_tier ON members(tier)"); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
		version = 1
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// Role is a member's registered capability level.
type Role string

const (
	RoleStandard Role = "standard"
	RoleAdmin    Role = "admin"
)

// Member is one registry row.
type Member struct {
	MemberID  string    `json:"member_id"`
	ThreadID  string    `json:"thread_id"`
	Tier      int       `json:"tier"`
	TierName  string    `json:"tier_name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Enroll registers a new member at the given tier and mints its permanent
// thread. An empty memberID mints one.
func (r *Registry) Enroll(ctx context.Context, memberID string, tier int, role Role) (Member, error) {
	if memberID == "" {
		memberID = uuid.NewString()
	}
	if role == "" {
		role = RoleStandard
	}
	p := r.tiers.Resolve(tier)
	m := Member{
		MemberID:  memberID,
		ThreadID:  "member-" + uuid.NewString(),
		Tier:      p.Tier,
		TierName:  p.Name,
		Role:      role,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO members (member_id, thread_id, tier, tier_name, role, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.MemberID, m.ThreadID, m.Tier, m.TierName, string(m.Role),
		m.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return Member{}, registryErr("enroll member", err)
	}
	return m, nil
}

// SetTier updates a member's tier in place. The thread mapping is never
// touched; a later tier raise reveals history already on the ledger.
func (r *Registry) SetTier(ctx context.Context, memberID string, tier int) (Member, error) {
	p := r.tiers.Resolve(tier)
	res, err := r.db.ExecContext(ctx,
		"UPDATE members SET tier = ?, tier_name = ? WHERE member_id = ?",
		p.Tier, p.Name, memberID)
	if err != nil {
		return Member{}, registryErr("set tier", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Member{}, unresolvedErr(memberID, "no such member")
	}
	return r.Lookup(ctx, memberID)
}

// Lookup fetches one member by ID.
func (r *Registry) Lookup(ctx context.Context, memberID string) (Member, error) {
	return r.scanOne(ctx,
		"SELECT member_id, thread_id, tier, tier_name, role, created_at FROM members WHERE member_id = ?",
		memberID, memberID)
}

// LookupByThread fetches the member owning a thread.
func (r *Registry) LookupByThread(ctx context.Context, threadID string) (Member, error) {
	return r.scanOne(ctx,
		"SELECT member_id, thread_id, tier, tier_name, role, created_at FROM members WHERE thread_id = ?",
		threadID, "")
}

func (r *Registry) scanOne(ctx context.Context, query, arg, memberID string) (Member, error) {
	var m Member
	var role, created string
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&m.MemberID, &m.ThreadID, &m.Tier, &m.TierName, &role, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Member{}, unresolvedErr(memberID, "no such member")
	}
	if err != nil {
		return Member{}, registryErr("lookup member", err)
	}
	m.Role = Role(role)
	m.CreatedAt, err = time.Parse(time.RFC3339, created)
	if err != nil {
		return Member{}, registryErr("parse created_at", err)
	}
	return m, nil
}

// All returns every member, ordered by created_at then member_id for
// deterministic listings.
func (r *Registry) All(ctx context.Context) ([]Member, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT member_id, thread_id, tier, tier_name, role, created_at FROM members ORDER BY created_at ASC, member_id ASC")
	if err != nil {
		return nil, registryErr("list members", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		var role, created string
		if err := rows.Scan(&m.MemberID, &m.ThreadID, &m.Tier, &m.TierName, &role, &created); err != nil {
			return nil, registryErr("scan member", err)
		}
		m.Role = Role(role)
		if m.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, registryErr("parse created_at", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, registryErr("iterate members", err)
	}
	return members, nil
}
