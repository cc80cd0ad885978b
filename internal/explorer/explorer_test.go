package explorer

import (
	"context"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MartinaKostic/pokemon-explorer-app/internal/catalog"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/favorites"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/guard"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/pokeapi"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/pokeapi/pokeapitest"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/query"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type harness struct {
	srv      *pokeapitest.Server
	q        *query.Client
	pipeline *Pipeline
}

func newHarness(t *testing.T, entries ...pokeapitest.Entry) *harness {
	t.Helper()
	srv := pokeapitest.NewServer(t, entries...)
	api := pokeapi.New(srv.BaseURL(), pokeapi.WithArtworkURL(srv.ArtworkTemplate()))

	cfg := query.DefaultConfig()
	cfg.JanitorInterval = 0
	cfg.RetryInitial = time.Millisecond
	cfg.RetryMax = time.Millisecond
	q, err := query.New(cfg, query.WithLogger(discard))
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })

	return &harness{
		srv:      srv,
		q:        q,
		pipeline: NewPipeline(NewSource(api, q), WithLogger(discard), WithConcurrency(4)),
	}
}

func starters() []pokeapitest.Entry {
	return []pokeapitest.Entry{
		{ID: 1, Name: "bulbasaur", Types: []string{"grass", "poison"}, Abilities: []string{"overgrow"}, Stats: [4]int{45, 49, 49, 45}, Extra: []int{65, 65}},
		{ID: 4, Name: "charmander", Types: []string{"fire"}, Abilities: []string{"blaze"}, Stats: [4]int{39, 52, 43, 65}, Extra: []int{60, 50}},
		{ID: 5, Name: "charmeleon", Types: []string{"fire"}, Abilities: []string{"blaze"}, Stats: [4]int{58, 64, 58, 80}, Extra: []int{80, 65}},
		{ID: 7, Name: "squirtle", Types: []string{"water"}, Abilities: []string{"torrent"}, Stats: [4]int{44, 48, 65, 43}, Extra: []int{50, 64}},
		{ID: 10, Name: "caterpie", Types: []string{"bug"}, Abilities: []string{"shield-dust"}, Stats: [4]int{45, 30, 35, 45}, Extra: []int{20, 20}},
		{ID: 25, Name: "pikachu", Types: []string{"electric"}, Abilities: []string{"static"}, Stats: [4]int{35, 55, 40, 90}, Extra: []int{50, 50}},
		{ID: 200, Name: "misdreavus", Types: []string{"ghost"}, Abilities: []string{"levitate"}, Stats: [4]int{60, 60, 60, 85}, Extra: []int{85, 85}},
	}
}

func itemIDs(p catalog.Page) []int {
	out := make([]int, len(p.Items))
	for i, it := range p.Items {
		out[i] = it.ID
	}
	return out
}

func request(f catalog.FilterSpec) Request {
	return Request{Filters: f, Sort: catalog.DefaultSort(), Page: 1, PageSize: 30}
}

func TestFireFilterReturnsBothFireTypes(t *testing.T) {
	h := newHarness(t, starters()...)
	res := h.pipeline.Query(context.Background(), request(catalog.DefaultFilters().WithType("fire")))

	require.False(t, res.Failed(), res.Err)
	assert.Equal(t, []int{4, 5}, itemIDs(res.Page))
	assert.Equal(t, 2, res.Page.Total)
	assert.False(t, res.Page.HasMore)
	assert.Equal(t, 1, res.Page.CurrentPage)
	assert.NotEmpty(t, res.ID)

	charmander := res.Page.Items[0]
	assert.Equal(t, 39+52+43+65+60+50, charmander.Stats.TotalPower)
	assert.Equal(t, 1, charmander.Generation)
	assert.Equal(t, h.srv.URL+"/artwork/4.png", charmander.Image)
}

func TestUnknownAbilityFromSharedInputIsIgnored(t *testing.T) {
	h := newHarness(t, starters()...)
	spec := catalog.ParseFilters(url.Values{"types": {"fire"}, "abilities": {"not-a-real-ability"}})

	res := h.pipeline.Query(context.Background(), request(spec))
	require.False(t, res.Failed(), res.Err)
	assert.Equal(t, []int{4, 5}, itemIDs(res.Page))
	assert.Zero(t, h.srv.Requests("/api/v2/ability/not-a-real-ability"))
}

func TestSearchNarrowsBeforeEnrichment(t *testing.T) {
	h := newHarness(t,
		pokeapitest.Entry{ID: 1, Name: "bulbasaur", Types: []string{"grass"}, Stats: [4]int{45, 49, 49, 45}},
		pokeapitest.Entry{ID: 10, Name: "caterpie", Types: []string{"bug"}, Stats: [4]int{45, 30, 35, 45}},
	)
	req := request(catalog.DefaultFilters())
	req.Search = "  Bulb "
	res := h.pipeline.Query(context.Background(), req)

	require.False(t, res.Failed(), res.Err)
	assert.Equal(t, []int{1}, itemIDs(res.Page))
	assert.Equal(t, 1, h.srv.Requests("/api/v2/pokemon/1"))
	assert.Equal(t, 0, h.srv.Requests("/api/v2/pokemon/10"))
	assert.Equal(t, 1, h.srv.Requests("/api/v2/pokemon"), "name listing fetched once")
}

func TestNumericSearchMatchesID(t *testing.T) {
	h := newHarness(t, starters()...)
	req := request(catalog.DefaultFilters())
	req.Search = "25"
	res := h.pipeline.Query(context.Background(), req)
	assert.Equal(t, []int{25}, itemIDs(res.Page))
}

func TestGenerationOneExcludesLaterIDs(t *testing.T) {
	h := newHarness(t, starters()...)
	res := h.pipeline.Query(context.Background(), request(catalog.DefaultFilters().WithGeneration(1)))

	require.False(t, res.Failed(), res.Err)
	assert.NotContains(t, itemIDs(res.Page), 200)
	assert.Equal(t, 0, h.srv.Requests("/api/v2/pokemon/200"))
}

func TestHeavySortWaitsForConfirmation(t *testing.T) {
	h := newHarness(t, starters()...)
	s := NewSession(h.pipeline, nil, 30)
	s.SetSort(catalog.SortSpec{Field: catalog.SortName, Direction: catalog.Asc})

	_, err := s.Fetch(context.Background())
	require.ErrorIs(t, err, ErrAwaitingConfirmation)
	assert.Equal(t, guard.AwaitingConfirmation, s.Guard().State())
	assert.Equal(t, guard.OpSorting, s.Guard().Operation())
	assert.Equal(t, 0, h.srv.DetailRequests())

	require.True(t, s.Confirm())
	res, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.False(t, res.Failed(), res.Err)
	assert.Equal(t, []int{1, 10, 4, 5, 200, 25, 7}, itemIDs(res.Page))
	assert.Equal(t, 7, h.srv.DetailRequests())
}

func TestHeavyStatFilterReportsOperation(t *testing.T) {
	h := newHarness(t, starters()...)
	s := NewSession(h.pipeline, nil, 30)
	s.ApplyNow(catalog.DefaultFilters().WithStat(catalog.StatSpeed, catalog.StatRange{Min: 80, Max: 255}))

	_, err := s.Fetch(context.Background())
	require.ErrorIs(t, err, ErrAwaitingConfirmation)
	assert.Equal(t, guard.OpStatFiltering, s.Guard().Operation())

	s.Confirm()
	res, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{5, 25, 200}, itemIDs(res.Page))
}

func TestAbandonResetsSortAndFilters(t *testing.T) {
	h := newHarness(t, starters()...)
	s := NewSession(h.pipeline, nil, 30)
	s.SetSort(catalog.SortSpec{Field: catalog.SortAttack, Direction: catalog.Desc})
	_, err := s.Fetch(context.Background())
	require.ErrorIs(t, err, ErrAwaitingConfirmation)

	s.Abandon()
	assert.True(t, s.Sort().IsDefault())
	assert.False(t, s.Applied().HasActiveFilters())

	_, err = s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, guard.Idle, s.Guard().State())
}

func TestNarrowingFilterSkipsGuard(t *testing.T) {
	h := newHarness(t, starters()...)
	s := NewSession(h.pipeline, nil, 30)
	s.ApplyNow(catalog.DefaultFilters().WithType("fire"))
	s.SetSort(catalog.SortSpec{Field: catalog.SortAttack, Direction: catalog.Desc})

	res, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{5, 4}, itemIDs(res.Page))
}

func TestWarmCacheIsIdempotent(t *testing.T) {
	h := newHarness(t, starters()...)
	req := request(catalog.DefaultFilters().WithType("fire").WithType("water"))
	req.Sort = catalog.SortSpec{Field: catalog.SortSpeed, Direction: catalog.Desc}

	first := h.pipeline.Query(context.Background(), req)
	fetches := h.q.Stats().Fetches
	typeHits := h.srv.Requests("/api/v2/type/fire")
	details := h.srv.DetailRequests()

	second := h.pipeline.Query(context.Background(), req)
	assert.Equal(t, first.Page, second.Page)
	assert.Equal(t, fetches, h.q.Stats().Fetches)
	assert.Equal(t, typeHits, h.srv.Requests("/api/v2/type/fire"))
	assert.Equal(t, details, h.srv.DetailRequests())
	assert.Equal(t, first.Key, second.Key)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestIndexFailureYieldsErroredEmptyPage(t *testing.T) {
	h := newHarness(t, starters()...)
	h.srv.Fail("/api/v2/type/fire", http.StatusInternalServerError)

	req := request(catalog.DefaultFilters().WithType("fire"))
	req.Page = 3
	res := h.pipeline.Query(context.Background(), req)

	assert.True(t, res.Failed())
	assert.Contains(t, res.Err, "500")
	assert.Empty(t, res.Page.Items)
	assert.NotNil(t, res.Page.Items)
	assert.Equal(t, 0, res.Page.Total)
	assert.False(t, res.Page.HasMore)
	assert.Equal(t, 1, res.Page.CurrentPage)
	assert.Equal(t, 3, h.srv.Requests("/api/v2/type/fire"), "first attempt plus two retries")
}

func TestDetailFailureDropsOnlyThatItem(t *testing.T) {
	h := newHarness(t, starters()...)
	h.srv.Fail("/api/v2/pokemon/5", http.StatusServiceUnavailable)

	res := h.pipeline.Query(context.Background(), request(catalog.DefaultFilters().WithType("fire")))
	require.False(t, res.Failed(), res.Err)
	assert.Equal(t, []int{4}, itemIDs(res.Page))
	assert.Equal(t, 2, res.Candidates)
}

func TestMalformedDetailIsDropped(t *testing.T) {
	entries := starters()
	entries[1].Malformed = true // charmander
	h := newHarness(t, entries...)

	res := h.pipeline.Query(context.Background(), request(catalog.DefaultFilters().WithType("fire")))
	assert.Equal(t, []int{5}, itemIDs(res.Page))
}

func TestEmptyCandidatesSkipEnrichment(t *testing.T) {
	h := newHarness(t, starters()...)
	req := request(catalog.DefaultFilters().WithType("fire").WithType("water").WithTypeMatch(catalog.MatchAll))
	req.Page = 2
	res := h.pipeline.Query(context.Background(), req)

	require.False(t, res.Failed())
	assert.Empty(t, res.Page.Items)
	assert.Equal(t, 2, res.Page.CurrentPage)
	assert.Equal(t, 0, h.srv.DetailRequests())
}

func TestRestrictedSearchIsDeferred(t *testing.T) {
	h := newHarness(t, starters()...)
	req := request(catalog.DefaultFilters())
	req.Restrict = catalog.NewIDSet(1, 4, 5)
	req.Search = "char"

	res := h.pipeline.Query(context.Background(), req)
	require.False(t, res.Failed(), res.Err)
	assert.Equal(t, []int{4, 5}, itemIDs(res.Page))
	assert.Equal(t, 0, h.srv.Requests("/api/v2/pokemon"), "name listing not needed")
	assert.Equal(t, 3, h.srv.DetailRequests())
}

func TestPaginationAcrossPipeline(t *testing.T) {
	h := newHarness(t, starters()...)
	req := request(catalog.DefaultFilters().WithGeneration(1))
	req.PageSize = 2

	first := h.pipeline.Query(context.Background(), req)
	assert.Equal(t, []int{1, 4}, itemIDs(first.Page))
	assert.True(t, first.Page.HasMore)
	assert.Equal(t, 6, first.Page.Total)

	req.Page = 3
	last := h.pipeline.Query(context.Background(), req)
	assert.Equal(t, []int{10, 25}, itemIDs(last.Page))
	assert.False(t, last.Page.HasMore)
}

func TestHugePageIsEmptyNotPanic(t *testing.T) {
	h := newHarness(t, starters()...)
	ctx := context.Background()

	req := request(catalog.DefaultFilters().WithType("fire"))
	req.Page = math.MaxInt
	res := h.pipeline.Query(ctx, req)
	require.False(t, res.Failed(), res.Err)
	assert.Empty(t, res.Page.Items)
	assert.Equal(t, 2, res.Page.Total)
	assert.False(t, res.Page.HasMore)

	res = h.pipeline.Browse(ctx, math.MaxInt, 30)
	require.False(t, res.Failed(), res.Err)
	assert.Empty(t, res.Page.Items)
	assert.Equal(t, 7, res.Page.Total)
	assert.Equal(t, math.MaxInt, res.Page.CurrentPage)
	assert.False(t, res.Page.HasMore)
}

func TestBrowseServesRawListing(t *testing.T) {
	h := newHarness(t, starters()...)
	s := NewSession(h.pipeline, nil, 3)

	plan, err := s.Prepare()
	require.NoError(t, err)
	assert.True(t, plan.Browse)

	res := s.Execute(context.Background(), plan)
	require.False(t, res.Failed(), res.Err)
	assert.True(t, s.Accept(res))
	assert.Equal(t, []int{1, 4, 5}, itemIDs(res.Page))
	assert.Equal(t, 7, res.Page.Total)
	assert.True(t, res.Page.HasMore)
	assert.True(t, res.Page.Items[0].Partial)
	assert.Equal(t, 0, h.srv.DetailRequests())

	s.SetPage(3)
	res, err = s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{200}, itemIDs(res.Page))
	assert.False(t, res.Page.HasMore)
}

func TestTrackerDropsSupersededResults(t *testing.T) {
	h := newHarness(t, starters()...)
	s := NewSession(h.pipeline, nil, 30)

	s.ApplyNow(catalog.DefaultFilters().WithType("fire"))
	oldPlan, err := s.Prepare()
	require.NoError(t, err)

	s.ApplyNow(catalog.DefaultFilters().WithType("water"))
	newPlan, err := s.Prepare()
	require.NoError(t, err)

	oldRes := s.Execute(context.Background(), oldPlan)
	newRes := s.Execute(context.Background(), newPlan)
	assert.False(t, s.Accept(oldRes))
	assert.True(t, s.Accept(newRes))
}

func TestPendingConfirmationSupersedesEarlierResults(t *testing.T) {
	h := newHarness(t, starters()...)
	s := NewSession(h.pipeline, nil, 3)

	oldPlan, err := s.Prepare()
	require.NoError(t, err)
	require.True(t, oldPlan.Browse)
	oldRes := s.Execute(context.Background(), oldPlan)

	s.SetSort(catalog.SortSpec{Field: catalog.SortName, Direction: catalog.Asc})
	_, err = s.Prepare()
	require.ErrorIs(t, err, ErrAwaitingConfirmation)
	assert.False(t, s.Accept(oldRes), "result from before the pending query must be dropped")

	require.True(t, s.Confirm())
	plan, err := s.Prepare()
	require.NoError(t, err)
	assert.True(t, s.Accept(s.Execute(context.Background(), plan)))
}

func TestStagingDoesNotChangeQuery(t *testing.T) {
	h := newHarness(t, starters()...)
	s := NewSession(h.pipeline, nil, 30)
	s.SetPage(4)

	s.StageFilters(catalog.DefaultFilters().WithType("fire"))
	assert.True(t, s.Dirty())
	assert.False(t, s.Request().Filters.HasActiveFilters())
	assert.Equal(t, 4, s.Page())

	s.CommitFilters()
	assert.False(t, s.Dirty())
	assert.Equal(t, []string{"fire"}, s.Request().Filters.Types)
	assert.Equal(t, 1, s.Page())

	s.Reset()
	assert.False(t, s.Request().Filters.HasActiveFilters())
	assert.False(t, s.Staged().HasActiveFilters())
}

func TestFavoritesOnly(t *testing.T) {
	h := newHarness(t, starters()...)
	favs := favorites.Load(nil, discard)
	s := NewSession(h.pipeline, favs, 30)
	s.SetFavoritesOnly(true)

	plan, err := s.Prepare()
	require.NoError(t, err)
	assert.True(t, plan.Empty)
	res := s.Execute(context.Background(), plan)
	assert.Empty(t, res.Page.Items)
	assert.True(t, s.Accept(res))
	assert.Equal(t, 0, h.srv.DetailRequests())

	favs.Add(25)
	favs.Add(4)
	res, err = s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{4, 25}, itemIDs(res.Page))

	// sorting a restricted set is not heavy
	s.SetSort(catalog.SortSpec{Field: catalog.SortName, Direction: catalog.Desc})
	res, err = s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{25, 4}, itemIDs(res.Page))
}

func TestRequestKey(t *testing.T) {
	a := request(catalog.DefaultFilters().WithType("fire"))
	b := request(catalog.DefaultFilters().WithType("fire"))
	assert.Equal(t, a.Key(), b.Key())

	b.Page = 2
	assert.NotEqual(t, a.Key(), b.Key())

	// direction is irrelevant without a sort field
	c := a
	c.Sort = catalog.SortSpec{Field: catalog.SortNone, Direction: catalog.Desc}
	assert.Equal(t, a.Key(), c.Key())

	d := a
	d.Restrict = catalog.NewIDSet(3, 1)
	assert.Contains(t, d.Key(), "in=1,3")
}

func TestPipelineDetail(t *testing.T) {
	h := newHarness(t, starters()...)
	item, d, err := h.pipeline.Detail(context.Background(), 25)
	require.NoError(t, err)
	assert.Equal(t, "pikachu", item.Name)
	assert.Equal(t, 25, d.SpeciesID())

	_, _, err = h.pipeline.Detail(context.Background(), 9999)
	assert.True(t, pokeapi.IsNotFound(err))
}
