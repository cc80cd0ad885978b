package catalog

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypesAreLowercaseAndUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, typ := range Types {
		assert.Equal(t, typ, strings.ToLower(typ))
		assert.False(t, seen[typ], "duplicate type %q", typ)
		seen[typ] = true
	}
	assert.Len(t, Types, 18)
}

func TestDefaultFiltersInactive(t *testing.T) {
	f := DefaultFilters()
	assert.False(t, f.HasActiveFilters())
	assert.False(t, f.HasNarrowingFilters())
	assert.Equal(t, MatchAny, f.TypeMatch)
	for _, k := range StatKeys {
		assert.Equal(t, FullRange, f.Range(k))
	}
}

func TestHasActiveFilters(t *testing.T) {
	base := DefaultFilters()

	assert.True(t, base.WithType("fire").HasActiveFilters())
	assert.True(t, base.WithGeneration(1).HasActiveFilters())
	assert.True(t, base.WithAbility("overgrow").HasActiveFilters())

	withStats := base.WithStat(StatAttack, StatRange{Min: 2, Max: 255})
	assert.True(t, withStats.HasActiveFilters())
	assert.False(t, withStats.HasNarrowingFilters(), "stat ranges never narrow candidates")
}

func TestWithHelpersDoNotMutateReceiver(t *testing.T) {
	base := DefaultFilters().WithType("fire")
	next := base.WithType("water").WithStat(StatHP, StatRange{Min: 10, Max: 20})

	assert.Equal(t, []string{"fire"}, base.Types)
	assert.Equal(t, FullRange, base.Range(StatHP))
	assert.Equal(t, []string{"fire", "water"}, next.Types)

	// toggling off
	assert.Empty(t, next.WithType("fire").WithType("water").Types)
}

func TestWithGenerationIgnoresOutOfRange(t *testing.T) {
	f := DefaultFilters().WithGeneration(0).WithGeneration(10).WithGeneration(3)
	assert.Equal(t, []int{3}, f.Generations)
}

func TestValuesOmitsDefaults(t *testing.T) {
	f := DefaultFilters().
		WithType("fire").WithType("water").
		WithTypeMatch(MatchAll).
		WithGeneration(1).WithGeneration(3).WithGeneration(9).
		WithStat(StatAttack, StatRange{Min: 30, Max: 200}).
		WithAbility("overgrow").WithAbility("blaze")

	v := f.Values()
	assert.Equal(t, "fire,water", v.Get("types"))
	assert.Equal(t, "all", v.Get("typeMatchMode"))
	assert.Equal(t, "1,3,9", v.Get("generations"))
	assert.Equal(t, "30", v.Get("attack_min"))
	assert.Equal(t, "200", v.Get("attack_max"))
	assert.Equal(t, "overgrow,blaze", v.Get("abilities"))

	// hp untouched, so absent
	assert.Empty(t, v.Get("hp_min"))
	assert.Empty(t, v.Get("hp_max"))
}

func TestParseFiltersClampsAndDrops(t *testing.T) {
	v := url.Values{}
	v.Set("types", "fire,unknown,water")
	v.Set("typeMatchMode", "all")
	v.Set("generations", "0,1,10,3,9")
	v.Set("hp_min", "0")
	v.Set("hp_max", "999")
	v.Set("speed_min", "50")
	v.Set("speed_max", "200")
	v.Set("abilities", "overgrow,not-a-real-ability,Blaze,overgrow")

	f := ParseFilters(v)
	assert.Equal(t, []string{"fire", "water"}, f.Types)
	assert.Equal(t, MatchAll, f.TypeMatch)
	assert.Equal(t, []int{1, 3, 9}, f.Generations)
	assert.Equal(t, StatRange{Min: 1, Max: 255}, f.Range(StatHP))
	assert.Equal(t, StatRange{Min: 50, Max: 200}, f.Range(StatSpeed))
	assert.Equal(t, []string{"overgrow", "blaze"}, f.Abilities)
}

func TestParseFiltersDropsEveryUnknownAbility(t *testing.T) {
	f := ParseFilters(url.Values{"types": {"fire"}, "abilities": {"not-a-real-ability"}})
	assert.Empty(t, f.Abilities)
	assert.Equal(t, []string{"fire"}, f.Types)
	assert.NotContains(t, f.Values().Encode(), "abilities")
}

func TestParseFiltersRoundTrip(t *testing.T) {
	f := DefaultFilters().WithType("ghost").WithGeneration(4).WithStat(StatDefense, StatRange{Min: 40, Max: 90})
	got := ParseFilters(f.Values())
	assert.Equal(t, f.Types, got.Types)
	assert.Equal(t, f.Generations, got.Generations)
	assert.Equal(t, f.Range(StatDefense), got.Range(StatDefense))
}

func TestStatRangeClampOrdersBounds(t *testing.T) {
	assert.Equal(t, StatRange{Min: 10, Max: 200}, StatRange{Min: 200, Max: 10}.Clamp())
	assert.Equal(t, StatRange{Min: 1, Max: 255}, StatRange{Min: -5, Max: 1000}.Clamp())
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		input string
		want  StatRange
		err   bool
	}{
		{"10-100", StatRange{10, 100}, false},
		{"50-", StatRange{50, 255}, false},
		{"-80", StatRange{1, 80}, false},
		{"0-999", StatRange{1, 255}, false},
		{"abc", FullRange, true},
		{"x-10", FullRange, true},
	}
	for _, tt := range tests {
		got, err := ParseRange(tt.input)
		if tt.err {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestResolveType(t *testing.T) {
	got, err := ResolveType("Fire")
	require.NoError(t, err)
	assert.Equal(t, "fire", got)

	got, err = ResolveType("psy")
	require.NoError(t, err)
	assert.Equal(t, "psychic", got)

	_, err = ResolveType("g") // grass, ground, ghost
	assert.Error(t, err)

	_, err = ResolveType("plasma")
	assert.Error(t, err)
}

func TestParseSort(t *testing.T) {
	assert.Equal(t, SortSpec{Field: SortName, Direction: Desc}, ParseSort("name", "desc"))
	assert.Equal(t, SortSpec{Field: SortTotalPower, Direction: Asc}, ParseSort("totalpower", "sideways"))
	assert.Equal(t, DefaultSort(), ParseSort("height", "asc"))
	assert.True(t, ParseSort("", "desc").IsDefault())
}
