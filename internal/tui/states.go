package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	errorHeadline = "Something went wrong. Please try again."
	detailError   = "Failed to load Pokemon details. Please try again."
)

var asciiLogo = []string{
	`█▀█ █▀█ █▄▀ █▀▀ █▀▄ █▀▀ ▀▄▀`,
	`█▀▀ █▄█ █ █ ██▄ █▄▀ ██▄ █ █`,
}

func centered(lines []string, width, height int) string {
	content := strings.Join(lines, "\n")
	contentHeight := strings.Count(content, "\n") + 1
	topPad := max((height-contentHeight)/3, 0)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top,
		strings.Repeat("\n", topPad)+content)
}

// renderSplash is shown before the first page arrives.
func renderSplash(width, height int, spin string) string {
	logoStyle := lipgloss.NewStyle().Foreground(colorAccent)
	var lines []string
	for _, l := range asciiLogo {
		lines = append(lines, logoStyle.Render(l))
	}
	lines = append(lines, "", helpDimStyle.Render(spin+" Loading Pokemon..."))
	return centered(lines, width, height)
}

// emptyMessage is the headline for an empty, error-free result.
func emptyMessage(search string) string {
	if s := strings.TrimSpace(search); s != "" {
		return `No Pokemon found matching "` + s + `".`
	}
	return "No Pokemon found matching your filters."
}

func renderEmptyState(search string, favoritesOnly bool, width, height int) string {
	headline := emptyMessage(search)
	hint := "Try adjusting your search criteria."
	if favoritesOnly && strings.TrimSpace(search) == "" {
		headline = "No favorite Pokemon yet."
		hint = "Press space on any Pokemon to add it to your favorites."
	}
	return centered([]string{
		previewTitleStyle.Render(headline),
		"",
		helpDimStyle.Render(hint),
	}, width, height)
}

func renderErrorState(detail string, width, height int) string {
	lines := []string{errorTitleStyle.Render(errorHeadline), ""}
	if detail != "" {
		lines = append(lines, helpDimStyle.Render(wrapText(detail, max(width-10, 20))), "")
	}
	lines = append(lines, dialogKeyStyle.Render("[r]")+" retry")
	return centered(lines, width, height)
}
