package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/zonghaoyuan/hotwords-cn/internal/catalog"
	"github.com/zonghaoyuan/hotwords-cn/internal/config"
	"github.com/zonghaoyuan/hotwords-cn/internal/history"
	"github.com/zonghaoyuan/hotwords-cn/internal/hotlist"
	"github.com/zonghaoyuan/hotwords-cn/internal/keywords"
	"github.com/zonghaoyuan/hotwords-cn/internal/pipeline"
	"github.com/zonghaoyuan/hotwords-cn/internal/prompt"
)

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	tmpl, err := prompt.Load(cfg.GetPromptFile())
	if err != nil {
		return fmt.Errorf("loading prompt template: %w", err)
	}

	// Credentials are checked before any fetch happens.
	key := cfg.LLMKey()
	if key == "" {
		return fmt.Errorf("no LLM API key configured (set llm.api_key in config, or the HOTWORDS_AI_KEY / GOOGLE_API_KEY environment variable)")
	}
	llmCfg := cfg.LLM
	if llmCfg == nil {
		llmCfg = &config.LLMConfig{Provider: "gemini"}
	}
	extractor, err := keywords.New(llmCfg, key, tmpl)
	if err != nil {
		return fmt.Errorf("configuring extractor: %w", err)
	}

	cat := buildCatalog(cfg)
	channels, err := selectChannels(cmd.Context(), cat, cfg)
	if err != nil {
		return err
	}

	cache, err := hotlist.OpenCache(cfg.GetCacheDir())
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	client := hotlist.NewClient(cfg.APIBase, cache, log.Logger)

	store, err := history.Open(config.HistoryPath())
	if err != nil {
		log.Warn().Err(err).Msg("extraction history unavailable")
		store = nil
	} else {
		defer store.Close()
	}

	workers := flagWorkers
	if workers <= 0 {
		workers = cfg.GetWorkers()
	}

	p := &pipeline.Pipeline{
		Client:    client,
		Extractor: extractor,
		History:   store,
		Log:       log.Logger,
		Limit:     flagLimit,
		UseCache:  flagUseCache,
		Workers:   workers,
	}
	report := p.Run(cmd.Context(), channels)

	if store != nil {
		store.SetLastRun(time.Now())
	}

	ok := report.Succeeded()
	log.Info().Int("channels", len(ok)).Int("failed", len(report.Failed())).Msg("run complete")
	if len(ok) == 0 {
		return fmt.Errorf("no channel produced keywords")
	}

	out, err := report.JSON()
	if err != nil {
		return fmt.Errorf("rendering output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// buildCatalog merges configured RSS sources into the builtin channel table.
func buildCatalog(cfg *config.Config) *catalog.Catalog {
	var extra []catalog.Channel
	for _, s := range cfg.EnabledSources() {
		title := s.Title
		if title == "" {
			title = s.Name
		}
		extra = append(extra, catalog.Channel{ID: s.Name, Title: title, Kind: catalog.KindRSS, URL: s.URL})
	}
	return catalog.New(extra...)
}

// selectChannels resolves -c flags against the catalog, or discovers the live
// channel set when no selection was given.
func selectChannels(ctx context.Context, cat *catalog.Catalog, cfg *config.Config) ([]catalog.Channel, error) {
	if len(flagChannels) > 0 {
		return cat.Resolve(flagChannels)
	}
	dctx, cancel := context.WithTimeout(ctx, catalog.DiscoverTimeout)
	defer cancel()
	client := &http.Client{Timeout: catalog.DiscoverTimeout}
	channels := cat.Discover(dctx, client, cfg.APIBase)
	log.Info().Int("channels", len(channels)).Msg("processing all available channels")
	return channels, nil
}
