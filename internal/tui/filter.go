package tui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/MartinaKostic/pokemon-explorer-app/internal/catalog"
)

type section int

const (
	sectionTypes section = iota
	sectionMatch
	sectionGenerations
	sectionAbilities
	sectionStats
	sectionCount
)

var sectionLabels = [sectionCount]string{"Types", "Match", "Generation", "Abilities", "Stats"}

// statStep is how far one key press moves a stat bound.
const statStep = 10

// filterPanel edits a staged filter. Nothing it does reaches the query until
// the app commits panel.spec.
type filterPanel struct {
	spec    catalog.FilterSpec
	section section
	cursors [sectionCount]int
}

func newFilterPanel(spec catalog.FilterSpec) filterPanel {
	return filterPanel{spec: spec}
}

func (f *filterPanel) options(s section) int {
	switch s {
	case sectionTypes:
		return len(catalog.Types)
	case sectionMatch:
		return 2
	case sectionGenerations:
		return len(catalog.Generations)
	case sectionAbilities:
		return len(catalog.CommonAbilities)
	case sectionStats:
		return len(catalog.StatKeys)
	}
	return 0
}

func (f *filterPanel) up() {
	if f.section > 0 {
		f.section--
	}
}

func (f *filterPanel) down() {
	if f.section < sectionCount-1 {
		f.section++
	}
}

func (f *filterPanel) left() {
	if f.cursors[f.section] > 0 {
		f.cursors[f.section]--
	}
}

func (f *filterPanel) right() {
	if f.cursors[f.section] < f.options(f.section)-1 {
		f.cursors[f.section]++
	}
}

// toggle flips the option under the cursor.
func (f *filterPanel) toggle() {
	c := f.cursors[f.section]
	switch f.section {
	case sectionTypes:
		f.spec = f.spec.WithType(catalog.Types[c])
	case sectionMatch:
		if f.spec.TypeMatch == catalog.MatchAll {
			f.spec = f.spec.WithTypeMatch(catalog.MatchAny)
		} else {
			f.spec = f.spec.WithTypeMatch(catalog.MatchAll)
		}
	case sectionGenerations:
		f.spec = f.spec.WithGeneration(catalog.Generations[c].ID)
	case sectionAbilities:
		f.spec = f.spec.WithAbility(catalog.CommonAbilities[c])
	case sectionStats:
		// toggling a stat restores its full range
		f.spec = f.spec.WithStat(catalog.StatKeys[c], catalog.FullRange)
	}
}

// adjust moves the min (or max) bound of the stat under the cursor.
func (f *filterPanel) adjust(upper bool, delta int) {
	if f.section != sectionStats {
		return
	}
	key := catalog.StatKeys[f.cursors[sectionStats]]
	r := f.spec.Range(key)
	if upper {
		r.Max += delta
		r.Max = max(r.Max, r.Min)
	} else {
		r.Min += delta
		r.Min = min(r.Min, r.Max)
	}
	f.spec = f.spec.WithStat(key, r.Clamp())
}

func (f *filterPanel) reset() {
	f.spec = catalog.DefaultFilters()
}

func (f *filterPanel) renderSection(s section, width int) string {
	active := s == f.section
	label := sectionLabelStyle.Render(sectionLabels[s])
	if active {
		label = sectionActiveLabelStyle.Render(sectionLabels[s])
	}

	var parts []string
	for i := 0; i < f.options(s); i++ {
		text, on := f.option(s, i)
		style := tabInactiveStyle
		if on {
			style = tabActiveStyle
		}
		if active && i == f.cursors[s] {
			text = "[" + text + "]"
		}
		parts = append(parts, style.Render(text))
	}

	// Keep the cursor visible on narrow terminals
	sep := tabSeparatorStyle.Render(" ")
	avail := width - lipgloss.Width(label)
	start := 0
	if active {
		for start < f.cursors[s] && lipgloss.Width(strings.Join(parts[start:f.cursors[s]+1], sep)) > avail {
			start++
		}
	}
	var row string
	for i, part := range parts[start:] {
		candidate := row
		if i > 0 {
			candidate += sep
		}
		candidate += part
		if lipgloss.Width(candidate) > avail && row != "" {
			break
		}
		row = candidate
	}
	return label + row
}

func (f *filterPanel) option(s section, i int) (string, bool) {
	switch s {
	case sectionTypes:
		t := catalog.Types[i]
		return t, slices.Contains(f.spec.Types, t)
	case sectionMatch:
		if i == 0 {
			return "any", f.spec.TypeMatch != catalog.MatchAll
		}
		return "all", f.spec.TypeMatch == catalog.MatchAll
	case sectionGenerations:
		g := catalog.Generations[i].ID
		return strconv.Itoa(g), slices.Contains(f.spec.Generations, g)
	case sectionAbilities:
		a := catalog.CommonAbilities[i]
		return a, slices.Contains(f.spec.Abilities, a)
	case sectionStats:
		k := catalog.StatKeys[i]
		r := f.spec.Range(k)
		return fmt.Sprintf("%s %d-%d", k, r.Min, r.Max), !r.IsDefault()
	}
	return "", false
}

func (f *filterPanel) render(width int, dirty bool) string {
	lines := make([]string, 0, sectionCount+1)
	for s := section(0); s < sectionCount; s++ {
		lines = append(lines, f.renderSection(s, width-2))
	}
	hint := "↑/↓ section  ←/→ move  space toggle  +/- min  >/< max  x clear  enter apply  esc cancel"
	if dirty {
		hint = "unapplied changes · " + hint
	}
	lines = append(lines, helpDimStyle.Render(truncateStr(hint, width-2)))

	barStyle := lipgloss.NewStyle().
		Background(colorStatusBg).
		Width(width).
		PaddingLeft(1)
	return barStyle.Render(strings.Join(lines, "\n"))
}

// filterSummary is the one-line description of the applied filters.
func filterSummary(spec catalog.FilterSpec) string {
	var parts []string
	if len(spec.Types) > 0 {
		sep := " or "
		if spec.TypeMatch == catalog.MatchAll {
			sep = " and "
		}
		parts = append(parts, strings.Join(spec.Types, sep))
	}
	if len(spec.Generations) > 0 {
		gens := make([]string, len(spec.Generations))
		for i, g := range spec.Generations {
			gens[i] = strconv.Itoa(g)
		}
		parts = append(parts, "gen "+strings.Join(gens, ","))
	}
	if len(spec.Abilities) > 0 {
		parts = append(parts, strings.Join(spec.Abilities, ","))
	}
	for _, k := range catalog.StatKeys {
		if r := spec.Range(k); !r.IsDefault() {
			parts = append(parts, fmt.Sprintf("%s %d-%d", k, r.Min, r.Max))
		}
	}
	if len(parts) == 0 {
		return "All"
	}
	return strings.Join(parts, " · ")
}
