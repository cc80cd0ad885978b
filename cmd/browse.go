package cmd

import "github.com/spf13/cobra"

var flagBrowseFavorites bool

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Launch the interactive explorer",
	Long:  "Open the two-pane explorer. With --favorites it starts restricted to your favorite Pokemon.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(flagBrowseFavorites)
	},
}

func init() {
	browseCmd.Flags().BoolVar(&flagBrowseFavorites, "favorites", false, "start with only favorite Pokemon")
}
