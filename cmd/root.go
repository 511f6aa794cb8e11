package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/zonghaoyuan/hotwords-cn/internal/update"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagChannels []string
	flagLimit    int
	flagUseCache bool
	flagConfig   string
	flagWorkers  int
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "hotwords",
	Short: "Extract SEO keywords from trending hot lists",
	Long: `hotwords fetches trending-topic lists (微博, 知乎, 百度热搜, ...) from a
DailyHot aggregator, feeds the titles to an LLM, and prints a JSON object
mapping each channel to its extracted keywords.`,
	SilenceUsage: true,
	RunE:         runExtract,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVarP(&flagChannels, "channel", "c", nil, "channel id to process (repeatable; default: all channels)")
	rootCmd.PersistentFlags().IntVarP(&flagLimit, "limit", "l", 20, "max hot items per channel")
	rootCmd.PersistentFlags().BoolVar(&flagUseCache, "cache", false, "read hot lists from the local cache when present")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().IntVar(&flagWorkers, "workers", 0, "concurrent channel workers (default from config)")

	cobra.OnInitialize(setupLogging)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(channelsCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(statsCmd)
}

// setupLogging routes structured logs to stderr so stdout stays clean JSON.
func setupLogging() {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hotwords %s (commit: %s, built: %s)\n", version, commit, date)
		if r := update.Check(context.Background(), version); r != nil {
			fmt.Printf("A newer release is available: %s\n", r.LatestVersion)
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
