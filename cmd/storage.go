package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/MartinaKostic/pokemon-explorer-app/internal/cache"
	"github.com/MartinaKostic/pokemon-explorer-app/internal/config"
)

var flagPruneOlderThan string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or prune the local response cache",
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old responses from the local cache",
	Long: `Delete cached API responses older than the retention period and reclaim disk space.

Uses the retention value from config (default: 30d) unless overridden with --older-than.
Favorites are never pruned.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		db, err := cache.Open(cachePath())
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer db.Close()

		retention := cfg.RetentionDuration()
		if flagPruneOlderThan != "" {
			d, err := parseAge(flagPruneOlderThan)
			if err != nil {
				return fmt.Errorf("invalid --older-than value: %w", err)
			}
			retention = d
		}

		deleted, err := db.Prune(retention)
		if err != nil {
			return fmt.Errorf("pruning: %w", err)
		}

		out := cmd.OutOrStdout()
		if deleted == 0 {
			fmt.Fprintln(out, "Nothing to prune.")
		} else {
			fmt.Fprintf(out, "Pruned %d response(s) older than %s.\n", deleted, formatDuration(retention))
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := cachePath()
		db, err := cache.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer db.Close()

		count, size, err := db.Stats(dbPath)
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}
		kinds, err := db.KindCounts()
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Cache: %s\n", dbPath)
		fmt.Fprintf(out, "Responses: %d\n", count)
		names := make([]string, 0, len(kinds))
		for k := range kinds {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			fmt.Fprintf(out, "  %-10s %d\n", k, kinds[k])
		}
		fmt.Fprintf(out, "Size: %s\n", formatBytes(size))
		if last, err := db.GetLastOpened(); err == nil && !last.IsZero() {
			fmt.Fprintf(out, "Last opened: %s\n", last.Local().Format(time.DateTime))
		}
		return nil
	},
}

func init() {
	pruneCmd.Flags().StringVar(&flagPruneOlderThan, "older-than", "", "override retention period (e.g., 7d, 72h)")
	cacheCmd.AddCommand(pruneCmd, statsCmd)
}

// parseAge reads a positive age such as "7d" or "90m".
func parseAge(s string) (time.Duration, error) {
	d, err := config.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("age must be positive, got %q", s)
	}
	return d, nil
}

func formatDuration(d time.Duration) string {
	h := d.Hours()
	days := int(h / 24)
	if days > 0 {
		return fmt.Sprintf("%dd", days)
	}
	if h >= 1 {
		return fmt.Sprintf("%dh", int(h))
	}
	return fmt.Sprintf("%dm", int(d.Minutes()))
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
