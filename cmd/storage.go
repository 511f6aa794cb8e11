package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/zonghaoyuan/hotwords-cn/internal/config"
	"github.com/zonghaoyuan/hotwords-cn/internal/history"
)

var (
	flagPruneOlderThan string
	flagHistoryCount   int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent keyword extractions",
	Long:  "List past extraction runs from the local history database, newest first. Use -c to filter by channel.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.Open(config.HistoryPath())
		if err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		defer store.Close()

		channel := ""
		if len(flagChannels) > 0 {
			channel = flagChannels[0]
		}

		entries, err := store.Recent(channel, flagHistoryCount)
		if err != nil {
			return fmt.Errorf("reading history: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No extraction history.")
			return nil
		}

		for _, e := range entries {
			fmt.Printf("%s  %s (%s)\n  %s\n",
				e.ExtractedAt.Local().Format("2006-01-02 15:04"),
				e.Title, e.Channel,
				strings.Join(e.Keywords, ", "))
		}
		return nil
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old entries from the extraction history",
	Long: `Delete history entries older than the retention period and reclaim disk space.

Uses the retention value from config (default: 90d) unless overridden with --older-than.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		store, err := history.Open(config.HistoryPath())
		if err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		defer store.Close()

		retention := cfg.RetentionDuration()
		if flagPruneOlderThan != "" {
			d, err := parseAge(flagPruneOlderThan)
			if err != nil {
				return fmt.Errorf("invalid --older-than value: %w", err)
			}
			retention = d
		}

		deleted, err := store.Prune(retention)
		if err != nil {
			return fmt.Errorf("pruning: %w", err)
		}

		if deleted == 0 {
			fmt.Println("Nothing to prune.")
		} else {
			fmt.Printf("Pruned %d entr%s older than %s.\n", deleted, plural(deleted), formatDuration(retention))
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show history database statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := config.HistoryPath()
		store, err := history.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		defer store.Close()

		count, size, err := store.Stats(dbPath)
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}

		fmt.Printf("History: %s\n", dbPath)
		fmt.Printf("Entries: %d\n", count)
		fmt.Printf("Size: %s\n", formatBytes(size))
		if last, ok := store.LastRun(); ok {
			fmt.Printf("Last run: %s\n", last.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryCount, "count", "n", 20, "number of entries to show")
	pruneCmd.Flags().StringVar(&flagPruneOlderThan, "older-than", "", "override retention period (e.g., 30d, 720h)")
}

// parseAge parses a duration with an extra "Nd" day syntax.
func parseAge(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}

func plural(n int64) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

func formatDuration(d time.Duration) string {
	if days := int(d.Hours() / 24); days > 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
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
