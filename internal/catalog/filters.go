package catalog

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// MatchMode selects how multiple selected types combine.
type MatchMode string

const (
	MatchAny MatchMode = "any"
	MatchAll MatchMode = "all"
)

// StatRange is an inclusive [Min, Max] bound on one stat.
type StatRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// FullRange is the default, non-excluding range.
var FullRange = StatRange{Min: MinStat, Max: MaxStat}

// IsDefault reports whether r leaves the stat unconstrained.
func (r StatRange) IsDefault() bool {
	return r.Min == MinStat && r.Max == MaxStat
}

// Contains reports whether v lies within the inclusive range.
func (r StatRange) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Clamp forces both bounds into [MinStat, MaxStat] and orders them.
func (r StatRange) Clamp() StatRange {
	r.Min = clamp(r.Min, MinStat, MaxStat)
	r.Max = clamp(r.Max, MinStat, MaxStat)
	if r.Min > r.Max {
		r.Min, r.Max = r.Max, r.Min
	}
	return r
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ParseRange reads "MIN-MAX", "MIN-" or "-MAX" into a clamped range.
func ParseRange(s string) (StatRange, error) {
	r := FullRange
	lo, hi, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return r, fmt.Errorf("invalid range %q (want MIN-MAX)", s)
	}
	if lo != "" {
		n, err := strconv.Atoi(lo)
		if err != nil {
			return r, fmt.Errorf("invalid range %q: %w", s, err)
		}
		r.Min = n
	}
	if hi != "" {
		n, err := strconv.Atoi(hi)
		if err != nil {
			return r, fmt.Errorf("invalid range %q: %w", s, err)
		}
		r.Max = n
	}
	return r.Clamp(), nil
}

// FilterSpec is an immutable filter value. The With* helpers return modified
// copies and never touch the receiver's slices or map.
type FilterSpec struct {
	Types       []string             `json:"types"`
	TypeMatch   MatchMode            `json:"typeMatchMode"`
	Generations []int                `json:"generations"`
	Stats       map[string]StatRange `json:"stats"`
	Abilities   []string             `json:"abilities"`
}

// DefaultFilters returns the unconstrained filter.
func DefaultFilters() FilterSpec {
	stats := make(map[string]StatRange, len(StatKeys))
	for _, k := range StatKeys {
		stats[k] = FullRange
	}
	return FilterSpec{TypeMatch: MatchAny, Stats: stats}
}

// Range returns the configured range for stat key, FullRange when unset.
func (f FilterSpec) Range(key string) StatRange {
	if r, ok := f.Stats[key]; ok {
		return r
	}
	return FullRange
}

func (f FilterSpec) clone() FilterSpec {
	out := FilterSpec{
		Types:       slices.Clone(f.Types),
		TypeMatch:   f.TypeMatch,
		Generations: slices.Clone(f.Generations),
		Abilities:   slices.Clone(f.Abilities),
		Stats:       make(map[string]StatRange, len(StatKeys)),
	}
	for _, k := range StatKeys {
		out.Stats[k] = f.Range(k)
	}
	if out.TypeMatch == "" {
		out.TypeMatch = MatchAny
	}
	return out
}

// WithType toggles type t.
func (f FilterSpec) WithType(t string) FilterSpec {
	out := f.clone()
	out.Types = toggle(out.Types, t)
	return out
}

// WithTypeMatch sets the type combination mode.
func (f FilterSpec) WithTypeMatch(m MatchMode) FilterSpec {
	out := f.clone()
	if m == MatchAll {
		out.TypeMatch = MatchAll
	} else {
		out.TypeMatch = MatchAny
	}
	return out
}

// WithGeneration toggles generation g. Out-of-range generations are ignored.
func (f FilterSpec) WithGeneration(g int) FilterSpec {
	out := f.clone()
	if g < MinGeneration || g > MaxGeneration {
		return out
	}
	out.Generations = toggle(out.Generations, g)
	return out
}

// WithAbility toggles ability a.
func (f FilterSpec) WithAbility(a string) FilterSpec {
	out := f.clone()
	out.Abilities = toggle(out.Abilities, a)
	return out
}

// WithStat sets the range for stat key; the range is clamped.
func (f FilterSpec) WithStat(key string, r StatRange) FilterSpec {
	out := f.clone()
	if slices.Contains(StatKeys, key) {
		out.Stats[key] = r.Clamp()
	}
	return out
}

func toggle[T comparable](list []T, v T) []T {
	if i := slices.Index(list, v); i >= 0 {
		return slices.Delete(list, i, i+1)
	}
	return append(list, v)
}

// HasStatFilters reports whether any tracked stat range differs from default.
func (f FilterSpec) HasStatFilters() bool {
	for _, k := range StatKeys {
		if !f.Range(k).IsDefault() {
			return true
		}
	}
	return false
}

// HasNarrowingFilters reports whether a filter reduces the candidate set
// before any detail fetch. Stat ranges do not: they only apply post-fetch.
func (f FilterSpec) HasNarrowingFilters() bool {
	return len(f.Types) > 0 || len(f.Generations) > 0 || len(f.Abilities) > 0
}

// HasActiveFilters reports whether f differs from DefaultFilters in any
// constraint, stat ranges included.
func (f FilterSpec) HasActiveFilters() bool {
	return f.HasNarrowingFilters() || f.HasStatFilters()
}

// Normalize validates and clamps a spec built from arbitrary input: unknown
// types and abilities are dropped, generations outside 1..9 are dropped,
// duplicate tokens collapse, stat bounds are clamped.
func (f FilterSpec) Normalize() FilterSpec {
	out := f.clone()

	types := out.Types[:0]
	for _, t := range out.Types {
		t = strings.ToLower(strings.TrimSpace(t))
		if IsKnownType(t) && !slices.Contains(types, t) {
			types = append(types, t)
		}
	}
	out.Types = types

	gens := out.Generations[:0]
	for _, g := range out.Generations {
		if g >= MinGeneration && g <= MaxGeneration && !slices.Contains(gens, g) {
			gens = append(gens, g)
		}
	}
	out.Generations = gens

	abilities := out.Abilities[:0]
	for _, a := range out.Abilities {
		a = strings.ToLower(strings.TrimSpace(a))
		if IsKnownAbility(a) && !slices.Contains(abilities, a) {
			abilities = append(abilities, a)
		}
	}
	out.Abilities = abilities

	for _, k := range StatKeys {
		out.Stats[k] = out.Stats[k].Clamp()
	}
	return out
}

// ParseFilters decodes a query-string style filter. Malformed values are
// dropped rather than rejected.
func ParseFilters(v url.Values) FilterSpec {
	f := DefaultFilters()

	if s := v.Get("types"); s != "" {
		f.Types = strings.Split(s, ",")
	}
	if v.Get("typeMatchMode") == string(MatchAll) {
		f.TypeMatch = MatchAll
	}
	if s := v.Get("generations"); s != "" {
		for _, part := range strings.Split(s, ",") {
			if g, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
				f.Generations = append(f.Generations, g)
			}
		}
	}
	for _, k := range StatKeys {
		r := FullRange
		if n, err := strconv.Atoi(v.Get(k + "_min")); err == nil {
			r.Min = n
		}
		if n, err := strconv.Atoi(v.Get(k + "_max")); err == nil {
			r.Max = n
		}
		f.Stats[k] = r
	}
	if s := v.Get("abilities"); s != "" {
		f.Abilities = strings.Split(s, ",")
	}
	return f.Normalize()
}

// Values encodes the non-default parts of f.
func (f FilterSpec) Values() url.Values {
	v := url.Values{}
	if len(f.Types) > 0 {
		v.Set("types", strings.Join(f.Types, ","))
	}
	if f.TypeMatch == MatchAll {
		v.Set("typeMatchMode", string(MatchAll))
	}
	if len(f.Generations) > 0 {
		gens := make([]string, len(f.Generations))
		for i, g := range f.Generations {
			gens[i] = strconv.Itoa(g)
		}
		v.Set("generations", strings.Join(gens, ","))
	}
	for _, k := range StatKeys {
		if r := f.Range(k); !r.IsDefault() {
			v.Set(k+"_min", strconv.Itoa(r.Min))
			v.Set(k+"_max", strconv.Itoa(r.Max))
		}
	}
	if len(f.Abilities) > 0 {
		v.Set("abilities", strings.Join(f.Abilities, ","))
	}
	return v
}

// ResolveType maps user input to a type token, accepting unambiguous prefixes.
func ResolveType(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if IsKnownType(s) {
		return s, nil
	}
	var match string
	for _, t := range Types {
		if strings.HasPrefix(t, s) {
			if match != "" {
				return "", fmt.Errorf("ambiguous type %q (%s, %s, ...)", s, match, t)
			}
			match = t
		}
	}
	if match == "" || s == "" {
		return "", fmt.Errorf("unknown type %q (valid: %s)", s, strings.Join(Types, ", "))
	}
	return match, nil
}
