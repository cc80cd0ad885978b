package catalog

import "strings"

// SortField selects the ordering key.
type SortField string

const (
	SortNone       SortField = "none"
	SortName       SortField = "name"
	SortTotalPower SortField = "totalPower"
	SortGeneration SortField = "generation"
	SortAttack     SortField = "attack"
	SortDefense    SortField = "defense"
	SortSpeed      SortField = "speed"
)

// SortFields lists every field in menu order.
var SortFields = []SortField{SortNone, SortName, SortTotalPower, SortGeneration, SortAttack, SortDefense, SortSpeed}

// Direction is the sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortSpec is a field plus direction. Direction is ignored for SortNone.
type SortSpec struct {
	Field     SortField `json:"field"`
	Direction Direction `json:"direction"`
}

// DefaultSort is the identity ordering.
func DefaultSort() SortSpec {
	return SortSpec{Field: SortNone, Direction: Asc}
}

// IsDefault reports whether s imposes no ordering.
func (s SortSpec) IsDefault() bool {
	return s.Field == SortNone || s.Field == ""
}

// ParseSort builds a SortSpec from external input. Unknown fields fall back
// to SortNone; anything other than "desc" is ascending.
func ParseSort(field, dir string) SortSpec {
	out := DefaultSort()
	f := SortField(strings.TrimSpace(field))
	for _, known := range SortFields {
		if strings.EqualFold(string(known), string(f)) {
			out.Field = known
			break
		}
	}
	if strings.EqualFold(strings.TrimSpace(dir), string(Desc)) {
		out.Direction = Desc
	}
	return out
}

// Next returns the field after f in SortFields, wrapping around.
func (f SortField) Next() SortField {
	for i, known := range SortFields {
		if known == f {
			return SortFields[(i+1)%len(SortFields)]
		}
	}
	return SortNone
}

// Label is the human-readable name of f.
func (f SortField) Label() string {
	switch f {
	case SortName:
		return "Name"
	case SortTotalPower:
		return "Total power"
	case SortGeneration:
		return "Generation"
	case SortAttack:
		return "Attack"
	case SortDefense:
		return "Defense"
	case SortSpeed:
		return "Speed"
	}
	return "Default"
}
