package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Adaptive colors for dark/light terminals
	colorPrimary   = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorSecondary = lipgloss.AdaptiveColor{Light: "#3D3D3D", Dark: "#ABABAB"}
	colorDim       = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}
	colorAccent    = lipgloss.AdaptiveColor{Light: "#F25D94", Dark: "#F25D94"}
	colorBorder    = lipgloss.AdaptiveColor{Light: "#DBDBDB", Dark: "#383838"}
	colorActiveBdr = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorTabActive = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorTabBg     = lipgloss.AdaptiveColor{Light: "#EEEEEE", Dark: "#2A2A3E"}
	colorStatusBg  = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#16213E"}
	colorStatusFg  = lipgloss.AdaptiveColor{Light: "#3D3D3D", Dark: "#ABABAB"}
	colorGreen     = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#25D366"}
	colorWarn      = lipgloss.AdaptiveColor{Light: "#C77700", Dark: "#FFB020"}

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			PaddingLeft(1)

	headerMetaStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Align(lipgloss.Right)

	listPaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	listPaneActiveStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorActiveBdr)

	previewPaneStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorBorder)

	itemTitleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	itemSelectedStyle = lipgloss.NewStyle().
				Foreground(colorAccent).
				Bold(true)

	itemMetaStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	favoriteStyle = lipgloss.NewStyle().
			Foreground(colorWarn).
			Bold(true)

	previewTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorPrimary)

	previewMetaStyle = lipgloss.NewStyle().
				Foreground(colorGreen).
				MarginBottom(1)

	previewBodyStyle = lipgloss.NewStyle().
				Foreground(colorSecondary)

	previewLabelStyle = lipgloss.NewStyle().
				Foreground(colorDim).
				Width(9)

	previewLinkStyle = lipgloss.NewStyle().
				Foreground(colorDim).
				Italic(true)

	statBarStyle = lipgloss.NewStyle().
			Foreground(colorPrimary)

	tabActiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorTabActive).
			Padding(0, 1).
			Bold(true)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(colorSecondary).
				Background(colorTabBg).
				Padding(0, 1)

	tabSeparatorStyle = lipgloss.NewStyle().
				Foreground(colorDim)

	sectionLabelStyle = lipgloss.NewStyle().
				Foreground(colorDim).
				Width(12)

	sectionActiveLabelStyle = lipgloss.NewStyle().
				Foreground(colorAccent).
				Bold(true).
				Width(12)

	statusBarStyle = lipgloss.NewStyle().
			Background(colorStatusBg).
			Foreground(colorStatusFg).
			PaddingLeft(1).
			PaddingRight(1)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	searchPromptStyle = lipgloss.NewStyle().
				Foreground(colorAccent).
				Bold(true)

	errorTitleStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorWarn).
			Padding(1, 2)

	dialogTitleStyle = lipgloss.NewStyle().
				Foreground(colorWarn).
				Bold(true)

	dialogKeyStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	helpCardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(1, 3)

	helpDimStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)

var typeColors = map[string]lipgloss.Color{
	"normal":   "#A8A77A",
	"fire":     "#EE8130",
	"water":    "#6390F0",
	"grass":    "#7AC74C",
	"electric": "#F7D02C",
	"ice":      "#96D9D6",
	"fighting": "#C22E28",
	"poison":   "#A33EA1",
	"ground":   "#E2BF65",
	"flying":   "#A98FF3",
	"psychic":  "#F95587",
	"bug":      "#A6B91A",
	"rock":     "#B6A136",
	"ghost":    "#735797",
	"dragon":   "#6F35FC",
	"dark":     "#705746",
	"steel":    "#B7B7CE",
	"fairy":    "#D685AD",
}

func typeStyle(t string) lipgloss.Style {
	c, ok := typeColors[t]
	if !ok {
		return lipgloss.NewStyle().Foreground(colorSecondary)
	}
	return lipgloss.NewStyle().Foreground(c).Bold(true)
}
