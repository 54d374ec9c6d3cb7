// Package policy resolves access tiers into retention and feature flags.
//
// Resolution is a pure lookup against a fixed seven-tier table. It has no
// side effects, never blocks, and is evaluated at read time: a tier change
// takes effect on the next query, never retroactively on stored events.
//
// Unknown or out-of-range tiers fail closed to the tier-1 policy (the most
// restrictive), never open to a more permissive one.
package policy

// UnboundedDepth marks a tier whose read depth is unlimited.
const UnboundedDepth = -1

// Tier bounds for the fixed table.
const (
	MinTier = 1
	MaxTier = 7
)

// CrossSourceTier is the lowest tier with cross-source aggregation enabled.
const CrossSourceTier = 4

// Policy is the resolved retention and feature set for one tier.
type Policy struct {
	Tier int    `json:"tier"`
	Name string `json:"name"`

	// Depth bounds reads, never writes. Truncated history is hidden, not
	// deleted; raising the tier later reveals it. UnboundedDepth (-1)
	// means no bound, 0 means no memory access at all.
	Depth int `json:"depth"`

	// CrossSource gates the cross-source activity summary.
	CrossSource bool `json:"cross_source"`

	// CustomConfig gates member-supplied persona configuration.
	CustomConfig bool `json:"custom_config"`
}

// Unbounded reports whether the tier's read depth is unlimited.
func (p Policy) Unbounded() bool {
	return p.Depth < 0
}

// Table maps tiers 1-7 to policies.
type Table struct {
	policies map[int]Policy
}

// DefaultTable returns the built-in tier ladder.
func DefaultTable() *Table {
	t := &Table{policies: make(map[int]Policy, 7)}
	for _, p := range []Policy{
		{Tier: 1, Name: "Wanderer", Depth: 0, CrossSource: false, CustomConfig: false},
		{Tier: 2, Name: "Initiate", Depth: 10, CrossSource: false, CustomConfig: false},
		{Tier: 3, Name: "Acolyte", Depth: 25, CrossSource: false, CustomConfig: false},
		{Tier: 4, Name: "Keeper", Depth: 50, CrossSource: true, CustomConfig: false},
		{Tier: 5, Name: "Sentinel", Depth: 100, CrossSource: true, CustomConfig: true},
		{Tier: 6, Name: "Archon", Depth: 500, CrossSource: true, CustomConfig: true},
		{Tier: 7, Name: "Inner Sanctum", Depth: UnboundedDepth, CrossSource: true, CustomConfig: true},
	} {
		t.policies[p.Tier] = p
	}
	return t
}

// Resolve maps a tier number to its policy. Out-of-range input fails closed
// to tier 1.
func (t *Table) Resolve(tier int) Policy {
	if p, ok := t.policies[tier]; ok {
		return p
	}
	return t.policies[MinTier]
}

// All returns every policy in ascending tier order.
func (t *Table) All() []Policy {
	out := make([]Policy, 0, len(t.policies))
	for tier := MinTier; tier <= MaxTier; tier++ {
		if p, ok := t.policies[tier]; ok {
			out = append(out, p)
		}
	}
	return out
}
