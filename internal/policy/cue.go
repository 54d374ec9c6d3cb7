package policy

import (
	"fmt"
	"os"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// overrideSchema constrains tier-policy override files. Overrides may
// redefine any subset of tiers 1-7; each redefined tier must be complete.
const overrideSchema = `
#TierPolicy: {
	name:          string & !=""
	depth:         int & >=-1
	cross_source:  bool
	custom_config: bool
}

tiers: {[=~"^[1-7]$"]: #TierPolicy}
`

// tierOverride mirrors #TierPolicy for decoding.
type tierOverride struct {
	Name         string `json:"name"`
	Depth        int    `json:"depth"`
	CrossSource  bool   `json:"cross_source"`
	CustomConfig bool   `json:"custom_config"`
}

// LoadOverrides reads a CUE tier-policy override file, validates it against
// the override schema, and returns the default table with the overridden
// tiers replaced. The file must define a tiers struct keyed by tier number,
// e.g.:
//
//	tiers: "3": {
//		name:          "Acolyte"
//		depth:         40
//		cross_source:  false
//		custom_config: false
//	}
func LoadOverrides(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load tier overrides: %w", err)
	}

	cctx := cuecontext.New()
	schema := cctx.CompileString(overrideSchema, cue.Filename("tierpolicy.schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("load tier overrides: schema: %w", err)
	}

	val := cctx.CompileBytes(data, cue.Filename(path))
	if err := val.Err(); err != nil {
		return nil, formatCUEError(path, err)
	}

	unified := schema.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(path, err)
	}

	tiersVal := unified.LookupPath(cue.ParsePath("tiers"))
	if !tiersVal.Exists() {
		return nil, fmt.Errorf("load tier overrides: %s: tiers is required", path)
	}

	var overrides map[string]tierOverride
	if err := tiersVal.Decode(&overrides); err != nil {
		return nil, formatCUEError(path, err)
	}

	table := DefaultTable()
	for key, ov := range overrides {
		tier, err := strconv.Atoi(key)
		if err != nil || tier < MinTier || tier > MaxTier {
			return nil, fmt.Errorf("load tier overrides: %s: invalid tier key %q", path, key)
		}
		table.policies[tier] = Policy{
			Tier:         tier,
			Name:         ov.Name,
			Depth:        ov.Depth,
			CrossSource:  ov.CrossSource,
			CustomConfig: ov.CustomConfig,
		}
	}
	return table, nil
}

// formatCUEError flattens CUE's error list into a single readable error.
func formatCUEError(path string, err error) error {
	if list := cueerrors.Errors(err); len(list) > 0 {
		return fmt.Errorf("load tier overrides: %s: %s", path, cueerrors.Details(list[0], nil))
	}
	return fmt.Errorf("load tier overrides: %s: %w", path, err)
}
