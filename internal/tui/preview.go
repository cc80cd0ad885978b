package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/MartinaKostic/pokemon-explorer-app/internal/catalog"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/pokeapi"
)

// preview is what the right-hand pane shows for the selected item.
type preview struct {
	item     *catalog.Item
	detail   *pokeapi.Detail
	artwork  string
	favorite bool
	loading  bool
	err      string
}

func statBar(value, width int) string {
	if width < 1 {
		return ""
	}
	filled := min(value*width/catalog.MaxStat, width)
	if value > 0 && filled == 0 {
		filled = 1
	}
	return statBarStyle.Render(strings.Repeat("█", filled)) +
		itemMetaStyle.Render(strings.Repeat("░", width-filled))
}

func statLine(label string, value, barWidth int) string {
	return previewLabelStyle.Render(label) + fmt.Sprintf("%4d ", value) + statBar(value, barWidth)
}

func renderPreview(p preview, width, height, scroll int) string {
	if p.item == nil {
		return lipglossCenter("Select a Pokemon", width, height)
	}
	it := p.item

	contentWidth := max(width-2, 10)
	barWidth := max(contentWidth-16, 5)

	name := displayName(it.Name)
	if p.favorite {
		name += " " + favoriteStyle.Render("★")
	}
	title := previewTitleStyle.Render(name) + " " + itemMetaStyle.Render(formatID(it.ID))

	gen := "unknown generation"
	if it.Generation > 0 {
		gen = catalog.Generations[it.Generation-1].Name
	}
	lines := []string{title, previewMetaStyle.Render(gen)}

	switch {
	case p.err != "":
		lines = append(lines, errorTitleStyle.Render(p.err))
	case p.loading:
		lines = append(lines, itemMetaStyle.Render("Loading details..."))
	case it.Partial && p.detail == nil:
		lines = append(lines, itemMetaStyle.Render("Press enter for details"))
	default:
		types := make([]string, len(it.Types))
		for i, t := range it.Types {
			types[i] = typeStyle(t).Render(t)
		}
		lines = append(lines, previewLabelStyle.Render("Types")+strings.Join(types, " "), "")

		if p.detail != nil {
			for _, s := range p.detail.Stats {
				lines = append(lines, statLine(s.Stat.Name, s.BaseStat, barWidth))
			}
		} else {
			lines = append(lines,
				statLine(catalog.StatHP, it.Stats.HP, barWidth),
				statLine(catalog.StatAttack, it.Stats.Attack, barWidth),
				statLine(catalog.StatDefense, it.Stats.Defense, barWidth),
				statLine(catalog.StatSpeed, it.Stats.Speed, barWidth),
			)
		}
		lines = append(lines, previewLabelStyle.Render("total")+fmt.Sprintf("%4d", it.Stats.TotalPower), "")

		if p.detail != nil {
			lines = append(lines, previewLabelStyle.Render("Abilities"))
			for _, a := range p.detail.Abilities {
				label := "  " + displayName(a.Ability.Name)
				if a.IsHidden {
					label += itemMetaStyle.Render(" (hidden)")
				}
				lines = append(lines, previewBodyStyle.Render(label))
			}
			if p.detail.Species.Name != "" && p.detail.Species.Name != it.Name {
				lines = append(lines, "", previewLabelStyle.Render("Species")+displayName(p.detail.Species.Name))
			}
		} else if len(it.Abilities) > 0 {
			lines = append(lines, previewLabelStyle.Render("Abilities")+
				previewBodyStyle.Render(wrapText(strings.Join(it.Abilities, ", "), contentWidth-9)))
		}
	}

	art := p.artwork
	if art == "" {
		art = it.Image
	}
	if art != "" {
		lines = append(lines, "", previewLinkStyle.Width(contentWidth).Render("Artwork: "+art))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)

	out := strings.Split(content, "\n")
	if scroll > 0 && scroll < len(out) {
		out = out[scroll:]
	}

	if len(out) < height {
		out = append(out, make([]string, height-len(out))...)
	} else if len(out) > height {
		out = out[:height]
	}

	return strings.Join(out, "\n")
}

func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
		} else {
			line += " " + w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}
