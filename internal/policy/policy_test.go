package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTableLadder(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		tier        int
		name        string
		depth       int
		crossSource bool
		custom      bool
	}{
		{1, "Wanderer", 0, false, false},
		{2, "Initiate", 10, false, false},
		{3, "Acolyte", 25, false, false},
		{4, "Keeper", 50, true, false},
		{5, "Sentinel", 100, true, true},
		{6, "Archon", 500, true, true},
		{7, "Inner Sanctum", UnboundedDepth, true, true},
	}
	for _, tt := range tests {
		p := table.Resolve(tt.tier)
		assert.Equal(t, tt.name, p.Name, "tier %d", tt.tier)
		assert.Equal(t, tt.depth, p.Depth, "tier %d", tt.tier)
		assert.Equal(t, tt.crossSource, p.CrossSource, "tier %d", tt.tier)
		assert.Equal(t, tt.custom, p.CustomConfig, "tier %d", tt.tier)
	}

	assert.True(t, table.Resolve(7).Unbounded())
	assert.False(t, table.Resolve(6).Unbounded())
}

func TestResolveFailsClosed(t *testing.T) {
	table := DefaultTable()
	wanderer := table.Resolve(1)

	for _, tier := range []int{0, -3, 8, 42, 100} {
		p := table.Resolve(tier)
		assert.Equal(t, wanderer, p, "tier %d must fail closed to tier 1", tier)
	}
}

func TestAllAscending(t *testing.T) {
	all := DefaultTable().All()
	require.Len(t, all, 7)
	for i, p := range all {
		assert.Equal(t, i+1, p.Tier)
	}
}

func writeOverride(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tiers.cue")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadOverrides(t *testing.T) {
	path := writeOverride(t, `
tiers: "3": {
	name:          "Acolyte"
	depth:         40
	cross_source:  false
	custom_config: false
}
`)
	table, err := LoadOverrides(path)
	require.NoError(t, err)

	assert.Equal(t, 40, table.Resolve(3).Depth, "overridden tier")
	assert.Equal(t, 50, table.Resolve(4).Depth, "untouched tier keeps default")
}

func TestLoadOverridesRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"tier out of range", `tiers: "9": {name: "X", depth: 1, cross_source: false, custom_config: false}`},
		{"negative depth below unbounded", `tiers: "2": {name: "X", depth: -2, cross_source: false, custom_config: false}`},
		{"missing field", `tiers: "2": {name: "X", depth: 5}`},
		{"empty name", `tiers: "2": {name: "", depth: 5, cross_source: false, custom_config: false}`},
		{"not cue", `{{{{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadOverrides(writeOverride(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadOverridesMissingFile(t *testing.T) {
	_, err := LoadOverrides(filepath.Join(t.TempDir(), "absent.cue"))
	assert.Error(t, err)
}
