// Package catalog holds the value types shared by the explorer pipeline:
// filter and sort specifications, enriched items, result pages and id sets.
package catalog

import (
	"slices"
	"sort"
)

const (
	MinStat = 1
	MaxStat = 255

	MinGeneration = 1
	MaxGeneration = 9

	DefaultPageSize = 30
)

// Stat names tracked by the stat-range filter.
const (
	StatHP      = "hp"
	StatAttack  = "attack"
	StatDefense = "defense"
	StatSpeed   = "speed"
)

// StatKeys lists the tracked stats in display order.
var StatKeys = []string{StatHP, StatAttack, StatDefense, StatSpeed}

// Types is the closed set of category tokens accepted by the type filter.
var Types = []string{
	"normal", "fire", "water", "grass", "electric", "ice",
	"fighting", "poison", "ground", "flying", "psychic", "bug",
	"rock", "ghost", "dragon", "dark", "steel", "fairy",
}

// CommonAbilities is the curated ability list offered by the filter UI and
// accepted from external input.
var CommonAbilities = []string{
	"overgrow", "blaze", "torrent", "static", "flash-fire", "water-absorb",
	"chlorophyll", "solar-power", "thick-fat", "guts", "early-bird", "flame-body",
	"swift-swim", "rock-head", "sturdy", "suction-cups", "intimidate", "hyper-cutter",
	"sand-veil", "effect-spore", "synchronize", "clear-body", "natural-cure",
	"lightning-rod", "serene-grace", "keen-eye",
}

// Generation maps a generation number to its contiguous id range.
type Generation struct {
	ID    int
	Name  string
	Start int
	End   int
}

var Generations = []Generation{
	{1, "Generation I", 1, 151},
	{2, "Generation II", 152, 251},
	{3, "Generation III", 252, 386},
	{4, "Generation IV", 387, 493},
	{5, "Generation V", 494, 649},
	{6, "Generation VI", 650, 721},
	{7, "Generation VII", 722, 809},
	{8, "Generation VIII", 810, 905},
	{9, "Generation IX", 906, 1025},
}

// GenerationOf returns the generation containing id, or 0 when id falls
// outside every known range (alternate forms live above 10000).
func GenerationOf(id int) int {
	for _, g := range Generations {
		if id >= g.Start && id <= g.End {
			return g.ID
		}
	}
	return 0
}

// GenerationIDs returns the id range of generation gen as a set.
// Unknown generations yield an empty set.
func GenerationIDs(gen int) IDSet {
	out := IDSet{}
	for _, g := range Generations {
		if g.ID != gen {
			continue
		}
		for id := g.Start; id <= g.End; id++ {
			out[id] = struct{}{}
		}
	}
	return out
}

// Stats is the stat bag of an enriched item.
type Stats struct {
	HP         int `json:"hp"`
	Attack     int `json:"attack"`
	Defense    int `json:"defense"`
	Speed      int `json:"speed"`
	TotalPower int `json:"totalPower"`
}

// Get returns the tracked stat named key.
func (s Stats) Get(key string) int {
	switch key {
	case StatHP:
		return s.HP
	case StatAttack:
		return s.Attack
	case StatDefense:
		return s.Defense
	case StatSpeed:
		return s.Speed
	case "totalPower":
		return s.TotalPower
	}
	return 0
}

// Item is a detail record reduced to what the explorer filters, sorts and shows.
type Item struct {
	ID         int      `json:"id"`
	Name       string   `json:"name"`
	Image      string   `json:"img"`
	SpeciesID  int      `json:"speciesId,omitempty"`
	Types      []string `json:"types,omitempty"`
	Generation int      `json:"generation"`
	Stats      Stats    `json:"stats"`
	Abilities  []string `json:"abilities,omitempty"`
	// Partial is set for listing-only items that were never enriched.
	Partial bool `json:"-"`
}

// Page is one slice of a query result.
type Page struct {
	Items       []Item `json:"pokemon"`
	Total       int    `json:"totalCount"`
	HasMore     bool   `json:"hasNextPage"`
	CurrentPage int    `json:"currentPage"`
}

// IDSet is an unordered set of item identifiers.
type IDSet map[int]struct{}

// NewIDSet builds a set from ids.
func NewIDSet(ids ...int) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in ascending order.
func (s IDSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Union merges every set into a new one.
func Union(sets ...IDSet) IDSet {
	out := IDSet{}
	for _, s := range sets {
		for id := range s {
			out[id] = struct{}{}
		}
	}
	return out
}

// Intersect returns the members shared by a and b, iterating the smaller set.
func Intersect(a, b IDSet) IDSet {
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	out := IDSet{}
	for id := range small {
		if _, ok := large[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

// IntersectAll folds Intersect over sets. Zero sets intersect to the empty
// set, and the fold stops as soon as the running result is empty.
func IntersectAll(sets ...IDSet) IDSet {
	if len(sets) == 0 {
		return IDSet{}
	}
	acc := Union(sets[0])
	for _, s := range sets[1:] {
		if len(acc) == 0 {
			break
		}
		acc = Intersect(acc, s)
	}
	return acc
}

// IsKnownType reports whether t is one of the accepted type tokens.
func IsKnownType(t string) bool {
	return slices.Contains(Types, t)
}

// IsKnownAbility reports whether a is one of CommonAbilities.
func IsKnownAbility(a string) bool {
	return slices.Contains(CommonAbilities, a)
}
