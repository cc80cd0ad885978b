package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/MartinaKostic/pokemon-explorer-app/internal/browser"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/catalog"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/pokeapi"
)

var flagShowOpen bool

var showCmd = &cobra.Command{
	Use:   "show <id|name>",
	Short: "Print the details of one Pokemon",
	Example: `  pokedex show 25
  pokedex show bulbasaur --open`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := commandContext(cmd)
		id, err := resolveRef(ctx, e.source, args[0])
		if err != nil {
			return err
		}
		item, detail, err := e.pipeline.Detail(ctx, id)
		if err != nil {
			if pokeapi.IsNotFound(err) {
				return fmt.Errorf("no Pokemon %q", args[0])
			}
			return fmt.Errorf("loading pokemon %d: %w", id, err)
		}
		artwork := e.source.ResolveArtwork(ctx, item.ID, item.SpeciesID)

		printDetail(cmd.OutOrStdout(), item, detail, artwork, e.favs.Has(item.ID))

		if flagShowOpen {
			if artwork == "" {
				return fmt.Errorf("no artwork for %s", item.Name)
			}
			return browser.Open(artwork)
		}
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&flagShowOpen, "open", false, "open the artwork in the browser")
}

// refSource resolves user references. *explorer.Source implements it.
type refSource interface {
	Names(ctx context.Context) ([]pokeapi.ListEntry, error)
	Lookup(ctx context.Context, ref string) (*pokeapi.Detail, error)
}

// resolveRef turns an id or name into an id. Names are matched against the
// cached name listing first so no detail request is spent on them.
func resolveRef(ctx context.Context, src refSource, ref string) (int, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	ref = strings.TrimPrefix(ref, "#")
	if ref == "" {
		return 0, fmt.Errorf("empty Pokemon reference")
	}
	if id, err := strconv.Atoi(ref); err == nil {
		if id <= 0 {
			return 0, fmt.Errorf("invalid id %d", id)
		}
		return id, nil
	}

	if names, err := src.Names(ctx); err == nil {
		for _, n := range names {
			if n.Name == ref {
				return n.ID, nil
			}
		}
	}
	d, err := src.Lookup(ctx, ref)
	if err != nil {
		if pokeapi.IsNotFound(err) {
			return 0, fmt.Errorf("no Pokemon %q", ref)
		}
		return 0, fmt.Errorf("looking up %q: %w", ref, err)
	}
	return d.ID, nil
}

var (
	detailTitle = lipgloss.NewStyle().Bold(true)
	detailLabel = lipgloss.NewStyle().Faint(true)
)

func printDetail(w io.Writer, item catalog.Item, d *pokeapi.Detail, artwork string, favorite bool) {
	title := fmt.Sprintf("#%03d %s", item.ID, item.Name)
	if favorite {
		title += " ★"
	}
	fmt.Fprintln(w, detailTitle.Render(title))

	row := func(label, value string) {
		fmt.Fprintln(w, detailLabel.Render(fmt.Sprintf("%-16s", label))+value)
	}
	gen := strconv.Itoa(item.Generation)
	for _, g := range catalog.Generations {
		if g.ID == item.Generation {
			gen = g.Name
		}
	}
	row("Gen", gen)
	row("Types", strings.Join(item.Types, ", "))

	if d != nil {
		for _, s := range d.Stats {
			row(s.Stat.Name, strconv.Itoa(s.BaseStat))
		}
		var abilities []string
		for _, a := range d.Abilities {
			name := a.Ability.Name
			if a.IsHidden {
				name += " (hidden)"
			}
			abilities = append(abilities, name)
		}
		row("Abilities", strings.Join(abilities, ", "))
		if d.Species.Name != "" {
			row("Species", d.Species.Name)
		}
	}
	row("Total", strconv.Itoa(item.Stats.TotalPower))
	if artwork != "" {
		row("Artwork", artwork)
	}
}
