package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/MartinaKostic/pokemon-explorer-app/internal/catalog"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/listing"
)

type statusInfo struct {
	page          catalog.Page
	pageSize      int
	sort          catalog.SortSpec
	favoritesOnly bool
	favorites     int
	mode          mode
}

func sortLabel(s catalog.SortSpec) string {
	if s.IsDefault() {
		return ""
	}
	arrow := "↑"
	if s.Direction == catalog.Desc {
		arrow = "↓"
	}
	return s.Field.Label() + " " + arrow
}

func renderStatusBar(info statusInfo, width int) string {
	accent := lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	pages := max(listing.Pages(info.page.Total, info.pageSize), 1)
	left := fmt.Sprintf(" %d Pokemon · page %d/%d", info.page.Total, info.page.CurrentPage, pages)
	if l := sortLabel(info.sort); l != "" {
		left += " · " + l
	}
	if info.favoritesOnly {
		left += " · " + accent.Render(fmt.Sprintf("★ %d", info.favorites))
	}

	var right string
	switch info.mode {
	case modeSearch:
		right = " esc clear  enter search "
	case modeFilter:
		right = " enter apply  esc cancel "
	case modeDetail:
		right = " esc back  o artwork  space favorite "
	default:
		right = " / search  f filter  s sort  n/p page  ? help "
	}

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	bar := left + fmt.Sprintf("%*s", gap, "") + right

	return statusBarStyle.Width(width).Render(bar)
}
