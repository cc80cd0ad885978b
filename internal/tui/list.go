package tui

import (
	"fmt"
	"strings"

	"github.com/MartinaKostic/pokemon-explorer-app/internal/catalog"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/favorites"
)

func formatID(id int) string {
	return fmt.Sprintf("#%03d", id)
}

// displayName turns an API slug such as "mr-mime" into "Mr Mime".
func displayName(slug string) string {
	parts := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	for i, p := range parts {
		runes := []rune(p)
		runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}

func renderListItem(it catalog.Item, selected, favorite bool, width int) string {
	if width < 10 {
		width = 30
	}

	star := "  "
	if favorite {
		star = favoriteStyle.Render("★ ")
	}

	label := formatID(it.ID) + " " + displayName(it.Name)
	var title string
	if selected {
		title = itemSelectedStyle.Render("> " + truncateStr(label, width-4))
	} else {
		title = itemTitleStyle.Render("  " + truncateStr(label, width-4))
	}

	var meta string
	if it.Partial {
		meta = itemMetaStyle.Render(fmt.Sprintf("gen %d", it.Generation))
	} else {
		types := make([]string, len(it.Types))
		for i, t := range it.Types {
			types[i] = typeStyle(t).Render(t)
		}
		meta = strings.Join(types, itemMetaStyle.Render("/")) +
			itemMetaStyle.Render(fmt.Sprintf(" · %d", it.Stats.TotalPower))
	}

	return title + "\n" + star + meta
}

func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func renderList(items []catalog.Item, favs *favorites.Set, cursor int, height int, width int) string {
	// Each item is 2 lines + 1 blank line = 3 lines
	itemHeight := 3
	visible := height / itemHeight
	if visible < 1 {
		visible = 1
	}

	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := start + visible
	if end > len(items) {
		end = len(items)
		start = max(end-visible, 0)
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		fav := favs != nil && favs.Has(items[i].ID)
		b.WriteString(renderListItem(items[i], i == cursor, fav, width))
		if i < end-1 {
			b.WriteString("\n\n")
		}
	}

	return b.String()
}

func lipglossCenter(s string, width, height int) string {
	pad := max((width-len([]rune(s)))/2, 0)
	return strings.Repeat("\n", height/3) + strings.Repeat(" ", pad) + s
}
