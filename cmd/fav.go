package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/MartinaKostic/pokemon-explorer-app/internal/favorites"
)

var favCmd = &cobra.Command{
	Use:     "fav",
	Aliases: []string{"favorites"},
	Short:   "Manage favorite Pokemon",
}

type favOp func(s *favorites.Set, id int) string

func addFavorite(s *favorites.Set, id int) string {
	if s.Add(id) {
		return fmt.Sprintf("Added #%d.", id)
	}
	return fmt.Sprintf("#%d is already a favorite.", id)
}

func removeFavorite(s *favorites.Set, id int) string {
	if s.Remove(id) {
		return fmt.Sprintf("Removed #%d.", id)
	}
	return fmt.Sprintf("#%d is not a favorite.", id)
}

func toggleFavorite(s *favorites.Set, id int) string {
	if s.Toggle(id) {
		return fmt.Sprintf("Added #%d.", id)
	}
	return fmt.Sprintf("Removed #%d.", id)
}

var favAddCmd = &cobra.Command{
	Use:   "add <id|name>...",
	Short: "Add Pokemon to favorites",
	Args:  cobra.MinimumNArgs(1),
	RunE:  favRunner(addFavorite),
}

var favRemoveCmd = &cobra.Command{
	Use:     "remove <id|name>...",
	Aliases: []string{"rm"},
	Short:   "Remove Pokemon from favorites",
	Args:    cobra.MinimumNArgs(1),
	RunE:    favRunner(removeFavorite),
}

var favToggleCmd = &cobra.Command{
	Use:   "toggle <id|name>...",
	Short: "Flip the favorite flag of Pokemon",
	Args:  cobra.MinimumNArgs(1),
	RunE:  favRunner(toggleFavorite),
}

var favListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List favorite Pokemon",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer e.Close()

		out := cmd.OutOrStdout()
		if e.favs.Len() == 0 {
			fmt.Fprintln(out, "No favorite Pokemon yet.")
			return nil
		}
		session := e.newSession(e.favs.Len())
		session.SetFavoritesOnly(true)
		res, err := session.Fetch(commandContext(cmd))
		if err != nil {
			return err
		}
		if res.Failed() {
			return fmt.Errorf("%s", res.Err)
		}
		printPage(out, res, session.PageSize(), e.favs, "")
		return nil
	},
}

var favClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every favorite",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer e.Close()
		warnSessionOnly(cmd.ErrOrStderr(), e)

		n := e.favs.Len()
		e.favs.Clear()
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d favorite(s).\n", n)
		return nil
	},
}

func init() {
	favCmd.AddCommand(favAddCmd, favRemoveCmd, favToggleCmd, favListCmd, favClearCmd)
}

func favRunner(op favOp) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer e.Close()
		warnSessionOnly(cmd.ErrOrStderr(), e)

		ctx := commandContext(cmd)
		ids := make([]int, 0, len(args))
		for _, ref := range args {
			id, err := resolveRef(ctx, e.source, ref)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		applyFavorites(cmd.OutOrStdout(), e.favs, ids, op)
		return nil
	}
}

// applyFavorites runs op for every id, printing one line each.
func applyFavorites(w io.Writer, s *favorites.Set, ids []int, op favOp) {
	for _, id := range ids {
		fmt.Fprintln(w, op(s, id))
	}
}

func warnSessionOnly(w io.Writer, e *env) {
	if e.db == nil {
		fmt.Fprintf(w, "warning: cache at %s is unavailable, changes will not be saved\n", e.dbPath)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
