package cmd

import (
	"fmt"

	"github.com/MartinaKostic/pokemon-explorer-app/internal/config"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/tui"
)

func runTUI(favoritesOnly bool) error {
	logFile, err := openLogFile(config.LogPath())
	if err != nil {
		return err
	}
	defer logFile.Close()

	e, err := openEnv(logFile)
	if err != nil {
		return err
	}
	defer e.Close()

	session := e.newSession(0)
	session.SetFavoritesOnly(favoritesOnly)

	e.logger.Info("starting explorer", "favorites_only", favoritesOnly, "page_size", session.PageSize())
	if err := tui.Run(tui.RunOpts{
		Session: session,
		Logger:  e.logger,
		Artwork: e.source.ResolveArtwork,
	}); err != nil {
		return fmt.Errorf("running explorer: %w", err)
	}
	return nil
}
