package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/zonghaoyuan/hotwords-cn/internal/catalog"
	"github.com/zonghaoyuan/hotwords-cn/internal/history"
	"github.com/zonghaoyuan/hotwords-cn/internal/hotlist"
	"github.com/zonghaoyuan/hotwords-cn/internal/keywords"
)

// ErrEmptyList marks a channel whose fetch succeeded but returned no items.
var ErrEmptyList = errors.New("empty hot list")

// Result is the outcome for one channel.
type Result struct {
	Channel  catalog.Channel
	Title    string // display name from the upstream response
	Keywords []string
	Err      error
}

// Report holds per-channel results in the original channel order, regardless
// of which worker finished first.
type Report struct {
	Results []Result
}

// Succeeded returns the results that carry keywords, in channel order.
func (r Report) Succeeded() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err == nil && len(res.Keywords) > 0 {
			out = append(out, res)
		}
	}
	return out
}

// Failed returns the per-channel errors.
func (r Report) Failed() []error {
	var out []error
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res.Err)
		}
	}
	return out
}

// JSON renders {display_name: [keywords]} with 2-space indentation, channel
// order preserved and non-ASCII text left unescaped.
func (r Report) JSON() ([]byte, error) {
	keep := r.Succeeded()
	if len(keep) == 0 {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, res := range keep {
		name, err := encodeValue(res.Title, "")
		if err != nil {
			return nil, fmt.Errorf("encoding channel name: %w", err)
		}
		kws, err := encodeValue(res.Keywords, "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding keywords for %s: %w", res.Channel.ID, err)
		}
		buf.WriteString("  ")
		buf.Write(name)
		buf.WriteString(": ")
		buf.Write(kws)
		if i < len(keep)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeValue marshals v without HTML escaping. A non-empty prefix indents
// nested lines so arrays align under their key.
func encodeValue(v any, prefix string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if prefix != "" {
		enc.SetIndent(prefix, "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Pipeline runs fetch → extract for a set of channels with a bounded worker
// pool. Channels are independent; failures are logged and skipped.
type Pipeline struct {
	Client    *hotlist.Client
	Extractor keywords.Extractor
	History   *history.Store // optional
	Log       zerolog.Logger

	Limit    int
	UseCache bool
	Workers  int
}

// Run processes every channel and returns a report in input order.
func (p *Pipeline) Run(ctx context.Context, channels []catalog.Channel) Report {
	workers := p.Workers
	if workers <= 0 {
		workers = 1
	}

	results := make([]Result, len(channels))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, ch := range channels {
		wg.Add(1)
		go func(idx int, ch catalog.Channel) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[idx] = p.process(ctx, ch)
		}(i, ch)
	}
	wg.Wait()

	return Report{Results: results}
}

func (p *Pipeline) process(ctx context.Context, ch catalog.Channel) Result {
	log := p.Log.With().Str("channel", ch.ID).Logger()
	log.Info().Msg("processing channel")

	list, err := p.Client.Hot(ctx, ch, p.Limit, p.UseCache)
	if err != nil {
		log.Error().Err(err).Msg("fetch failed, skipping channel")
		return Result{Channel: ch, Err: err}
	}
	if len(list.Items) == 0 {
		log.Warn().Msg("no items in hot list, skipping channel")
		return Result{Channel: ch, Title: list.Title, Err: fmt.Errorf("%s: %w", ch.ID, ErrEmptyList)}
	}

	kws, err := p.Extractor.Extract(ctx, list.Title, list.Texts())
	if err != nil {
		log.Error().Err(err).Msg("extraction failed, skipping channel")
		return Result{Channel: ch, Title: list.Title, Err: err}
	}
	log.Info().Int("keywords", len(kws)).Msg("extracted keywords")

	if p.History != nil {
		if err := p.History.Record(ch.ID, list.Title, kws, time.Now()); err != nil {
			log.Warn().Err(err).Msg("could not record extraction history")
		}
	}

	return Result{Channel: ch, Title: list.Title, Keywords: kws}
}
