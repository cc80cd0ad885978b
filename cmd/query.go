package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/MartinaKostic/pokemon-explorer-app/internal/catalog"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/explorer"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/favorites"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/listing"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/query"
)

type queryFlags struct {
	types     []string
	match     string
	gens      []int
	abilities []string
	ranges    map[string]*string
	sort      string
	desc      bool
	sortSet   bool
	descSet   bool
	search    string
	page      int
	size      int
	favorites bool
	yes       bool
	json      bool
	stats     bool
	share     bool
	from      string
}

var qf = queryFlags{ranges: make(map[string]*string)}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a filtered query and print one page of results",
	Long: `Resolve filters, enrich the candidates and print one sorted page.

Sorting or stat-filtering without a type, generation, ability or search
narrows nothing and fetches every Pokemon; pass --yes to allow it.`,
	Example: `  pokedex query --type fire --type flying --match all
  pokedex query --gen 1 --speed 100-255 --sort speed --desc
  pokedex query --search char --json`,
	Args: cobra.NoArgs,
	RunE: runQuery,
}

func init() {
	f := queryCmd.Flags()
	f.StringSliceVarP(&qf.types, "type", "t", nil, "type filter, repeatable (prefixes accepted)")
	f.StringVar(&qf.match, "match", "", "type combination: any (default) or all")
	f.IntSliceVarP(&qf.gens, "gen", "g", nil, "generation filter 1-9, repeatable")
	f.StringSliceVarP(&qf.abilities, "ability", "a", nil, "ability filter, repeatable")
	for _, k := range catalog.StatKeys {
		qf.ranges[k] = f.String(k, "", fmt.Sprintf("%s range MIN-MAX (e.g. 80-255, 100-, -50)", k))
	}
	f.StringVar(&qf.sort, "sort", "none", "sort field: "+sortFieldNames())
	f.BoolVar(&qf.desc, "desc", false, "sort descending")
	f.StringVarP(&qf.search, "search", "q", "", "name substring or exact number")
	f.IntVarP(&qf.page, "page", "p", 1, "page number")
	f.IntVar(&qf.size, "size", 0, "page size (default from config)")
	f.BoolVar(&qf.favorites, "favorites", false, "only search favorite Pokemon")
	f.BoolVarP(&qf.yes, "yes", "y", false, "confirm queries that fetch every Pokemon")
	f.BoolVar(&qf.json, "json", false, "print the result as JSON")
	f.BoolVar(&qf.stats, "stats", false, "print cache statistics after the query")
	f.BoolVar(&qf.share, "share", false, "print the filter as a query string and exit")
	f.StringVar(&qf.from, "from", "", "start from a query string printed by --share")
}

func sortFieldNames() string {
	names := make([]string, len(catalog.SortFields))
	for i, f := range catalog.SortFields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// filters layers the flags over base. Unlike ParseFilters, bad input is an
// error rather than silently dropped.
func (f *queryFlags) filters(base catalog.FilterSpec) (catalog.FilterSpec, error) {
	spec := base.Normalize()
	for _, raw := range f.types {
		t, err := catalog.ResolveType(raw)
		if err != nil {
			return spec, err
		}
		if !containsStr(spec.Types, t) {
			spec = spec.WithType(t)
		}
	}
	switch strings.ToLower(f.match) {
	case "":
	case "any":
		spec = spec.WithTypeMatch(catalog.MatchAny)
	case "all":
		spec = spec.WithTypeMatch(catalog.MatchAll)
	default:
		return spec, fmt.Errorf("invalid --match %q (valid: any, all)", f.match)
	}
	for _, g := range f.gens {
		if g < catalog.MinGeneration || g > catalog.MaxGeneration {
			return spec, fmt.Errorf("invalid --gen %d (valid: %d-%d)", g, catalog.MinGeneration, catalog.MaxGeneration)
		}
		if !containsInt(spec.Generations, g) {
			spec = spec.WithGeneration(g)
		}
	}
	for _, a := range f.abilities {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if !catalog.IsKnownAbility(a) {
			return spec, fmt.Errorf("unknown ability %q (valid: %s)", a, strings.Join(catalog.CommonAbilities, ", "))
		}
		if !containsStr(spec.Abilities, a) {
			spec = spec.WithAbility(a)
		}
	}
	for _, k := range catalog.StatKeys {
		raw := f.ranges[k]
		if raw == nil || *raw == "" {
			continue
		}
		r, err := catalog.ParseRange(*raw)
		if err != nil {
			return spec, fmt.Errorf("invalid --%s: %w", k, err)
		}
		spec = spec.WithStat(k, r)
	}
	return spec, nil
}

func (f *queryFlags) sortSpec() (catalog.SortSpec, error) {
	dir := string(catalog.Asc)
	if f.desc {
		dir = string(catalog.Desc)
	}
	s := catalog.ParseSort(f.sort, dir)
	if s.IsDefault() && !strings.EqualFold(strings.TrimSpace(f.sort), string(catalog.SortNone)) && f.sort != "" {
		return s, fmt.Errorf("invalid --sort %q (valid: %s)", f.sort, sortFieldNames())
	}
	return s, nil
}

// sortOver layers the sort flags the user set over base. An explicit --sort
// replaces the whole spec; --desc alone flips only the direction.
func (f *queryFlags) sortOver(base catalog.SortSpec) (catalog.SortSpec, error) {
	s, err := f.sortSpec()
	if err != nil || f.sortSet {
		return s, err
	}
	if base.Field == "" {
		base = catalog.DefaultSort()
	}
	if f.descSet {
		base.Direction = s.Direction
	}
	return base, nil
}

func containsStr(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, n := range list {
		if n == v {
			return true
		}
	}
	return false
}

// shareQuery encodes the non-default query state as a query string.
func shareQuery(spec catalog.FilterSpec, s catalog.SortSpec, search string) string {
	v := spec.Values()
	if !s.IsDefault() {
		v.Set("sortBy", string(s.Field))
		v.Set("sortOrder", string(s.Direction))
	}
	if q := strings.TrimSpace(search); q != "" {
		v.Set("search", q)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// parseShared is the inverse of shareQuery.
func parseShared(raw string) (catalog.FilterSpec, catalog.SortSpec, string, error) {
	v, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return catalog.FilterSpec{}, catalog.SortSpec{}, "", fmt.Errorf("parsing query string: %w", err)
	}
	return catalog.ParseFilters(v), catalog.ParseSort(v.Get("sortBy"), v.Get("sortOrder")), v.Get("search"), nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	base, baseSort, search := catalog.DefaultFilters(), catalog.DefaultSort(), qf.search
	if qf.from != "" {
		var shared string
		var err error
		base, baseSort, shared, err = parseShared(qf.from)
		if err != nil {
			return err
		}
		if search == "" {
			search = shared
		}
	}
	spec, err := qf.filters(base)
	if err != nil {
		return err
	}
	qf.sortSet, qf.descSet = cmd.Flags().Changed("sort"), cmd.Flags().Changed("desc")
	sortSpec, err := qf.sortOver(baseSort)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if qf.share {
		fmt.Fprintln(out, shareQuery(spec, sortSpec, search))
		return nil
	}

	e, err := openEnv(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer e.Close()

	session := e.newSession(qf.size)
	session.ApplyNow(spec)
	session.SetSort(sortSpec)
	session.SetSearch(search)
	session.SetFavoritesOnly(qf.favorites)
	session.SetPage(qf.page)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := fetchConfirmed(ctx, session, qf.yes)
	if err != nil {
		return err
	}
	if res.Failed() {
		return errors.New(res.Err)
	}

	if qf.json {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		printPage(out, res, session.PageSize(), e.favs, session.Search())
	}

	if qf.stats {
		printQueryStats(out, e.queries.Stats(), e.registry)
	}
	return nil
}

// fetchConfirmed runs the session, confirming a heavy query only when yes.
func fetchConfirmed(ctx context.Context, s *explorer.Session, yes bool) (explorer.Result, error) {
	res, err := s.Fetch(ctx)
	if !errors.Is(err, explorer.ErrAwaitingConfirmation) {
		return res, err
	}
	op := s.Guard().Operation()
	if !yes {
		return res, fmt.Errorf("heavy operation: %s\n%s\nRerun with --yes to continue anyway (process all Pokemon)",
			op.Message(), op.Hint())
	}
	s.Confirm()
	return s.Fetch(ctx)
}

func printPage(w io.Writer, res explorer.Result, size int, favs *favorites.Set, search string) {
	if len(res.Page.Items) == 0 {
		if q := strings.TrimSpace(search); q != "" {
			fmt.Fprintf(w, "No Pokemon found matching %q.\n", q)
		} else {
			fmt.Fprintln(w, "No Pokemon found matching your filters.")
		}
		fmt.Fprintln(w, "Try adjusting your search criteria.")
		return
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	numStyle := cellStyle.Align(lipgloss.Right)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("", "#", "NAME", "TYPES", "GEN", "HP", "ATK", "DEF", "SPD", "TOTAL").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 1 || col >= 4:
				return numStyle
			}
			return cellStyle
		})

	for _, it := range res.Page.Items {
		star := ""
		if favs != nil && favs.Has(it.ID) {
			star = "★"
		}
		stat := func(v int) string {
			if it.Partial {
				return "-"
			}
			return strconv.Itoa(v)
		}
		t.Row(star, strconv.Itoa(it.ID), it.Name, strings.Join(it.Types, "/"), strconv.Itoa(it.Generation),
			stat(it.Stats.HP), stat(it.Stats.Attack), stat(it.Stats.Defense), stat(it.Stats.Speed), stat(it.Stats.TotalPower))
	}
	fmt.Fprintln(w, t.String())

	pages := max(listing.Pages(res.Page.Total, size), 1)
	fmt.Fprintf(w, "page %d/%d · %d results · %s\n",
		res.Page.CurrentPage, pages, res.Page.Total, res.Elapsed.Round(1e6))
}

func printQueryStats(w io.Writer, s query.Stats, reg *prometheus.Registry) {
	fmt.Fprintf(w, "\nCache: %d entries · hit rate %.0f%% · %d fetches · %d retries · %d coalesced · %d errors\n",
		s.Entries, s.HitRate()*100, s.Fetches, s.Retries, s.Coalesced, s.Errors)

	families, err := reg.Gather()
	if err != nil {
		fmt.Fprintf(w, "gathering metrics: %v\n", err)
		return
	}
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			v := m.GetCounter().GetValue() + m.GetGauge().GetValue()
			if v == 0 {
				continue
			}
			name := mf.GetName()
			for _, l := range m.GetLabel() {
				name += fmt.Sprintf("{%s=%q}", l.GetName(), l.GetValue())
			}
			lines = append(lines, fmt.Sprintf("  %-52s %g", name, v))
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}
