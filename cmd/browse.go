package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/zonghaoyuan/hotwords-cn/internal/config"
	"github.com/zonghaoyuan/hotwords-cn/internal/hotlist"
	"github.com/zonghaoyuan/hotwords-cn/internal/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse hot lists interactively",
	Long:  "Open a terminal browser over the channel hot lists, without any keyword extraction. Use -c to limit the channel tabs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		cat := buildCatalog(cfg)
		channels, err := cat.Resolve(flagChannels)
		if err != nil {
			return err
		}

		cache, err := hotlist.OpenCache(cfg.GetCacheDir())
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		client := hotlist.NewClient(cfg.APIBase, cache, log.Logger)

		return tui.Run(client, channels, flagLimit, flagUseCache)
	},
}
