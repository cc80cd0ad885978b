package listing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MartinaKostic/pokemon-explorer-app/internal/catalog"
)

func ids(items []catalog.Item) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func sample() []catalog.Item {
	return []catalog.Item{
		{ID: 6, Name: "charizard", Generation: 1, Stats: catalog.Stats{Attack: 84, Defense: 78, Speed: 100, TotalPower: 534}},
		{ID: 10034, Name: "charizard-mega-x", Generation: 0, Stats: catalog.Stats{Attack: 130, Defense: 111, Speed: 100, TotalPower: 634}},
		{ID: 25, Name: "pikachu", Generation: 1, Stats: catalog.Stats{Attack: 55, Defense: 40, Speed: 90, TotalPower: 320}},
		{ID: 152, Name: "chikorita", Generation: 2, Stats: catalog.Stats{Attack: 49, Defense: 65, Speed: 45, TotalPower: 318}},
		{ID: 4, Name: "Charmander", Generation: 1, Stats: catalog.Stats{Attack: 52, Defense: 43, Speed: 65, TotalPower: 309}},
	}
}

func TestSortNoneKeepsOrder(t *testing.T) {
	in := sample()
	assert.Equal(t, ids(in), ids(Sort(in, catalog.DefaultSort())))
	assert.Equal(t, ids(in), ids(Sort(in, catalog.SortSpec{Field: catalog.SortNone, Direction: catalog.Desc})))
}

func TestSortByNameIsCaseInsensitive(t *testing.T) {
	got := Sort(sample(), catalog.SortSpec{Field: catalog.SortName, Direction: catalog.Asc})
	assert.Equal(t, []int{6, 10034, 4, 152, 25}, ids(got))

	got = Sort(sample(), catalog.SortSpec{Field: catalog.SortName, Direction: catalog.Desc})
	assert.Equal(t, []int{25, 152, 4, 10034, 6}, ids(got))
}

func TestSortNumericFields(t *testing.T) {
	got := Sort(sample(), catalog.SortSpec{Field: catalog.SortTotalPower, Direction: catalog.Desc})
	assert.Equal(t, []int{10034, 6, 25, 152, 4}, ids(got))

	got = Sort(sample(), catalog.SortSpec{Field: catalog.SortDefense, Direction: catalog.Asc})
	assert.Equal(t, []int{25, 4, 152, 6, 10034}, ids(got))
}

func TestTieBreakByIDInBothDirections(t *testing.T) {
	items := []catalog.Item{
		{ID: 30, Stats: catalog.Stats{Speed: 50}},
		{ID: 10, Stats: catalog.Stats{Speed: 50}},
		{ID: 20, Stats: catalog.Stats{Speed: 70}},
		{ID: 5, Stats: catalog.Stats{Speed: 50}},
	}
	asc := Sort(items, catalog.SortSpec{Field: catalog.SortSpeed, Direction: catalog.Asc})
	assert.Equal(t, []int{5, 10, 30, 20}, ids(asc))

	desc := Sort(items, catalog.SortSpec{Field: catalog.SortSpeed, Direction: catalog.Desc})
	assert.Equal(t, []int{20, 5, 10, 30}, ids(desc))

	// speed ties between 6 and 10034 as well
	got := Sort(sample(), catalog.SortSpec{Field: catalog.SortSpeed, Direction: catalog.Desc})
	assert.Equal(t, []int{6, 10034, 25, 4, 152}, ids(got))
}

func TestSortByGenerationDropsUnknown(t *testing.T) {
	got := Sort(sample(), catalog.SortSpec{Field: catalog.SortGeneration, Direction: catalog.Asc})
	assert.Equal(t, []int{4, 6, 25, 152}, ids(got))

	got = Sort(sample(), catalog.SortSpec{Field: catalog.SortGeneration, Direction: catalog.Desc})
	assert.Equal(t, []int{152, 4, 6, 25}, ids(got))
}

func TestSortDoesNotMutateInput(t *testing.T) {
	in := sample()
	before := ids(in)
	Sort(in, catalog.SortSpec{Field: catalog.SortAttack, Direction: catalog.Asc})
	assert.Equal(t, before, ids(in))
}

func makeItems(n int) []catalog.Item {
	out := make([]catalog.Item, n)
	for i := range out {
		out[i] = catalog.Item{ID: i + 1}
	}
	return out
}

func TestPaginateBoundaries(t *testing.T) {
	items := makeItems(61)

	tests := []struct {
		name    string
		page    int
		size    int
		first   int
		count   int
		hasMore bool
		current int
	}{
		{"first page", 1, 30, 1, 30, true, 1},
		{"second page", 2, 30, 31, 30, true, 2},
		{"last partial page", 3, 30, 61, 1, false, 3},
		{"past the end", 4, 30, 0, 0, false, 4},
		{"page below one", 0, 30, 1, 30, true, 1},
		{"size below one uses default", 1, 0, 1, catalog.DefaultPageSize, true, 1},
		{"huge page", math.MaxInt / 30 * 2, 30, 0, 0, false, math.MaxInt / 30 * 2},
		{"max int page", math.MaxInt, 30, 0, 0, false, math.MaxInt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(items, tt.page, tt.size)
			assert.Equal(t, 61, p.Total)
			assert.Len(t, p.Items, tt.count)
			assert.Equal(t, tt.hasMore, p.HasMore)
			assert.Equal(t, tt.current, p.CurrentPage)
			if tt.count > 0 {
				assert.Equal(t, tt.first, p.Items[0].ID)
			}
		})
	}
}

func TestPaginateExactMultiple(t *testing.T) {
	p := Paginate(makeItems(60), 2, 30)
	assert.Len(t, p.Items, 30)
	assert.False(t, p.HasMore)
}

func TestPaginateHugeSize(t *testing.T) {
	p := Paginate(makeItems(5), 1, math.MaxInt)
	assert.Len(t, p.Items, 5)
	assert.False(t, p.HasMore)

	p = Paginate(makeItems(5), 2, math.MaxInt)
	assert.Empty(t, p.Items)
}

func TestPaginateEmpty(t *testing.T) {
	p := Paginate(nil, 1, 30)
	assert.NotNil(t, p.Items)
	assert.Empty(t, p.Items)
	assert.Equal(t, 0, p.Total)
	assert.False(t, p.HasMore)
}

func TestOffset(t *testing.T) {
	tests := []struct {
		name       string
		page, size int
		want       int
		ok         bool
	}{
		{"first page", 1, 30, 0, true},
		{"third page", 3, 30, 60, true},
		{"page below one", 0, 30, 0, true},
		{"largest fitting page", math.MaxInt / 30, 30, (math.MaxInt/30 - 1) * 30, true},
		{"overflow", math.MaxInt/30 + 1, 30, 0, false},
		{"max int page", math.MaxInt, 30, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Offset(tt.page, tt.size)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPages(t *testing.T) {
	assert.Equal(t, 0, Pages(0, 30))
	assert.Equal(t, 1, Pages(30, 30))
	assert.Equal(t, 3, Pages(61, 30))
	assert.Equal(t, 1, Pages(5, 0))
	assert.Equal(t, 1, Pages(61, math.MaxInt))
}
