package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/MartinaKostic/pokemon-explorer-app/internal/guard"
)

// heavyDialogText returns the body, hint and decline label for op.
func heavyDialogText(op guard.Operation) (body, hint, decline string) {
	decline = "Add Filters First"
	if op == guard.OpStatFiltering {
		decline = "Add Type/Generation Filters First"
	}
	return strings.TrimSuffix(op.Message(), ".") + ". This will:", op.Hint(), decline
}

func renderHeavyDialog(op guard.Operation, width, height int) string {
	boxWidth := min(max(width-8, 30), 72)
	textWidth := boxWidth - 6

	body, hint, decline := heavyDialogText(op)

	var lines []string
	lines = append(lines, dialogTitleStyle.Render("⚠ Heavy Operation"), "")
	lines = append(lines, previewBodyStyle.Render(wrapText(body, textWidth)))
	for _, effect := range []string{
		"Take a while to complete",
		"Fetch the details of every Pokemon",
		"Process Pokemon in batches to stay stable",
	} {
		lines = append(lines, previewBodyStyle.Render("  • "+effect))
	}
	lines = append(lines, "", helpDimStyle.Render(wrapText(hint, textWidth)), "")
	lines = append(lines, dialogKeyStyle.Render("[y]")+" Continue Anyway (Process all Pokemon)")
	lines = append(lines, dialogKeyStyle.Render("[n]")+" "+decline)

	box := dialogStyle.Width(boxWidth).Render(strings.Join(lines, "\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
