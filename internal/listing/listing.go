// Package listing orders and pages enriched items.
package listing

import (
	"cmp"
	"math"
	"slices"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/MartinaKostic/pokemon-explorer-app/internal/catalog"
)

var (
	collatorMu sync.Mutex
	collator   = collate.New(language.English)
)

// compareNames orders names the way a human reader expects: case and
// accents are secondary to the base letters.
func compareNames(a, b string) int {
	collatorMu.Lock()
	defer collatorMu.Unlock()
	return collator.CompareString(a, b)
}

func key(it catalog.Item, f catalog.SortField) int {
	switch f {
	case catalog.SortTotalPower:
		return it.Stats.TotalPower
	case catalog.SortGeneration:
		return it.Generation
	case catalog.SortAttack:
		return it.Stats.Attack
	case catalog.SortDefense:
		return it.Stats.Defense
	case catalog.SortSpeed:
		return it.Stats.Speed
	}
	return 0
}

// Sort returns a new slice ordered by spec. SortNone keeps the input order.
// Equal keys fall back to ascending id in both directions. Sorting by
// generation drops items outside every generation.
func Sort(items []catalog.Item, spec catalog.SortSpec) []catalog.Item {
	if spec.IsDefault() {
		return items
	}

	out := make([]catalog.Item, 0, len(items))
	for _, it := range items {
		if spec.Field == catalog.SortGeneration && it.Generation == 0 {
			continue
		}
		out = append(out, it)
	}

	desc := spec.Direction == catalog.Desc
	slices.SortStableFunc(out, func(a, b catalog.Item) int {
		var c int
		if spec.Field == catalog.SortName {
			c = compareNames(a.Name, b.Name)
		} else {
			c = cmp.Compare(key(a, spec.Field), key(b, spec.Field))
		}
		if c == 0 {
			return cmp.Compare(a.ID, b.ID)
		}
		if desc {
			return -c
		}
		return c
	})
	return out
}

// Paginate cuts page (1-indexed) of size out of items. A page below 1 is
// treated as 1 and a size below 1 uses catalog.DefaultPageSize.
func Paginate(items []catalog.Item, page, size int) catalog.Page {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = catalog.DefaultPageSize
	}
	total := len(items)
	pages := Pages(total, size)
	out := catalog.Page{
		Items:       []catalog.Item{},
		Total:       total,
		HasMore:     page < pages,
		CurrentPage: page,
	}
	if page > pages {
		return out
	}
	start := (page - 1) * size
	end := min(start+size, total)
	out.Items = append(out.Items, items[start:end]...)
	return out
}

// Offset returns the index of the first item of page. ok is false when the
// offset does not fit in an int.
func Offset(page, size int) (offset int, ok bool) {
	if page < 1 || size < 1 {
		return 0, true
	}
	if page-1 > (math.MaxInt-size)/size {
		return 0, false
	}
	return (page - 1) * size, true
}

// Pages returns the number of pages needed for total items.
func Pages(total, size int) int {
	if size < 1 {
		size = catalog.DefaultPageSize
	}
	if total <= 0 {
		return 0
	}
	return (total-1)/size + 1
}
