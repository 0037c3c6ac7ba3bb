package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToInternal(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"UKC", "E12000001"},
		{"UKK", "E12000009"},
		{"UKL", "W92000004"},
		{"UKM", "S92000003"},
		{"UKN", "N92000002"},
		{"TLC", "E12000001"},
		{"TLM", "S92000003"},
		{"E12000007", "E12000007"},
		{"TLC3", "TLC3"},
		{"TLI32", "TLI32"},
		{"E06000001", "E06000001"},
		{"UKZ", "UKZ"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToInternal(tt.in), tt.in)
	}
}

func TestToPublic(t *testing.T) {
	assert.Equal(t, "UKC", ToPublic("E12000001"))
	assert.Equal(t, "UKN", ToPublic("N92000002"))
	assert.Equal(t, "UKJ", ToPublic("TLJ"))
	assert.Equal(t, "UKC", ToPublic("UKC"))
	assert.Equal(t, "TLC3", ToPublic("TLC3"))
	assert.Equal(t, "S12000033", ToPublic("S12000033"))
}

func TestITL1RoundTripIsStable(t *testing.T) {
	internal := make([]string, 0, 36)
	for stat := range statisticalToPublic {
		internal = append(internal, stat)
	}
	for derived := range derivedToPublic {
		internal = append(internal, derived)
	}
	internal = append(internal, ITL1Codes()...)

	for _, code := range internal {
		public := ToPublic(code)
		assert.Equal(t, public, ToPublic(ToInternal(public)), code)
	}
}

func TestTranslationIsTotalOverITL1(t *testing.T) {
	seen := map[string]bool{}
	for _, public := range ITL1Codes() {
		stat := ToInternal(public)
		require.NotEqual(t, public, stat, "public code %s must translate", public)
		assert.False(t, seen[stat], "statistical code %s used twice", stat)
		seen[stat] = true
		assert.Equal(t, public, ToPublic(stat))
		assert.Equal(t, LevelITL1, InferLevel(stat))
	}
	assert.Len(t, seen, 12)
}

func TestInferLevelPartitionsCodeShapes(t *testing.T) {
	families := map[Level][]string{
		LevelITL1: {"E12000001", "E12000009", "S92000003", "W92000004", "N92000002", "TLC", "TLN"},
		LevelITL2: {"TLC1", "TLD7", "TLI3", "TLM9"},
		LevelITL3: {"TLC31", "TLI32", "TLM50", "TLN0A"},
		LevelLAD:  {"E06000001", "E07000223", "E08000025", "E09000033", "S12000033", "W06000015", "N09000003"},
	}
	for want, codes := range families {
		for _, code := range codes {
			assert.Equal(t, want, InferLevel(code), code)
		}
	}
}

func TestLevelTables(t *testing.T) {
	tables := map[string]bool{}
	for _, l := range Levels {
		tables[l.Table()] = true
	}
	assert.Len(t, tables, 4, "each level routes to its own table")
	assert.Equal(t, "itl1_latest_all", LevelITL1.Table())
	assert.Equal(t, "lad_latest_all", LevelLAD.Table())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "UKC", Normalize("  ukc "))
	assert.Equal(t, "TLC3", Normalize("tlc3"))
}
