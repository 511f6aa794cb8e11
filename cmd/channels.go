package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zonghaoyuan/hotwords-cn/internal/catalog"
	"github.com/zonghaoyuan/hotwords-cn/internal/config"
)

var flagLive bool

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List known channel ids",
	Long:  "Print the channel catalog: builtin aggregator channels plus RSS sources from config. With --live, only channels the aggregator currently serves are shown.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		cat := buildCatalog(cfg)
		channels := cat.All()
		if flagLive {
			ctx, cancel := context.WithTimeout(cmd.Context(), catalog.DiscoverTimeout)
			defer cancel()
			client := &http.Client{Timeout: catalog.DiscoverTimeout}
			channels = cat.Discover(ctx, client, cfg.APIBase)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, ch := range channels {
			kind := ""
			if ch.Kind == catalog.KindRSS {
				kind = "rss"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", ch.ID, ch.Title, kind)
		}
		return w.Flush()
	},
}

func init() {
	channelsCmd.Flags().BoolVar(&flagLive, "live", false, "query the aggregator for currently available channels")
}
