package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MartinaKostic/pokemon-explorer-app/internal/update"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig  string
	flagCache   string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "pokedex",
	Short: "Terminal explorer for the PokeAPI",
	Long: `pokedex browses, searches, filters and sorts Pokemon from the public PokeAPI.

Filters by type, generation, ability and base stats are resolved client-side;
responses are cached locally so repeated queries stay fast.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(false)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagCache, "cache", "", "path to the response cache database")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	versionCmd.Flags().BoolVar(&flagVersionCheck, "check", false, "check for a newer release")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(favCmd)
	rootCmd.AddCommand(cacheCmd)
}

var flagVersionCheck bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "pokedex %s (commit: %s, built: %s)\n", version, commit, date)
		if !flagVersionCheck {
			return
		}
		if res := update.Check(commandContext(cmd), "", version); res != nil {
			fmt.Fprintf(out, "A newer release is available: %s\n%s\n", res.LatestVersion, res.URL)
		} else {
			fmt.Fprintln(out, "No newer release found.")
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
