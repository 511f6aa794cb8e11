package hotlist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"github.com/zonghaoyuan/hotwords-cn/internal/catalog"
)

const (
	// Some upstream sources reject non-browser clients, so the aggregator
	// request mimics one.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	fetchTimeout     = 15 * time.Second
	maxResponseBytes = 4 << 20
)

// Item is one entry of a channel's hot list.
type Item struct {
	Title string  `json:"title"`
	Desc  string  `json:"desc,omitempty"`
	URL   string  `json:"url,omitempty"`
	Hot   float64 `json:"hot,omitempty"`
}

// Text returns the title combined with the description, the form fed to the
// keyword extractor.
func (it Item) Text() string {
	if it.Desc == "" {
		return it.Title
	}
	return it.Title + " " + it.Desc
}

// List is a fetched hot list for one channel.
type List struct {
	Channel string
	Title   string
	Items   []Item
}

// Texts returns the extractor input for every item, in list order.
func (l List) Texts() []string {
	out := make([]string, len(l.Items))
	for i, it := range l.Items {
		out[i] = it.Text()
	}
	return out
}

// FetchError reports a failed or malformed channel fetch.
type FetchError struct {
	Channel string
	Status  int // HTTP status, 0 when the request never completed
	Err     error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetching %s: HTTP %d: %v", e.Channel, e.Status, e.Err)
	}
	return fmt.Sprintf("fetching %s: %v", e.Channel, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// listResponse is the aggregator's per-channel wire shape.
type listResponse struct {
	Code  int    `json:"code"`
	Name  string `json:"name"`
	Title string `json:"title"`
	Data  []Item `json:"data"`
}

// Client fetches channel hot lists, preferring the local cache when asked.
type Client struct {
	base  string
	http  *http.Client
	cache *Cache
	feed  *gofeed.Parser
	log   zerolog.Logger
}

func NewClient(apiBase string, cache *Cache, log zerolog.Logger) *Client {
	return &Client{
		base:  strings.TrimRight(apiBase, "/"),
		http:  &http.Client{Timeout: fetchTimeout},
		cache: cache,
		feed:  gofeed.NewParser(),
		log:   log,
	}
}

// Hot returns up to limit items for the channel. With useCache set and a
// cache file present, the cached raw response is parsed and the network is
// never touched. A network fetch always rewrites the cache file.
func (c *Client) Hot(ctx context.Context, ch catalog.Channel, limit int, useCache bool) (List, error) {
	if useCache {
		if raw, ok := c.cache.Get(ch.ID); ok {
			c.log.Debug().Str("channel", ch.ID).Msg("serving hot list from cache")
			return c.decode(ch, raw, limit)
		}
		c.log.Debug().Str("channel", ch.ID).Msg("cache miss, fetching")
	}

	raw, err := c.fetch(ctx, ch, limit)
	if err != nil {
		return List{}, err
	}

	list, err := c.decode(ch, raw, limit)
	if err != nil {
		return List{}, err
	}

	if err := c.cache.Put(ch.ID, raw); err != nil {
		c.log.Warn().Err(err).Str("channel", ch.ID).Msg("could not write cache entry")
	}
	return list, nil
}

func (c *Client) fetch(ctx context.Context, ch catalog.Channel, limit int) ([]byte, error) {
	url := ch.URL
	if ch.Kind == catalog.KindHot {
		url = fmt.Sprintf("%s/%s?limit=%d&cache=false", c.base, ch.ID, limit)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Channel: ch.ID, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	if ch.Kind == catalog.KindHot {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Channel: ch.ID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, &FetchError{
			Channel: ch.ID,
			Status:  resp.StatusCode,
			Err:     fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(b))),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &FetchError{Channel: ch.ID, Err: fmt.Errorf("reading response: %w", err)}
	}
	return raw, nil
}

func (c *Client) decode(ch catalog.Channel, raw []byte, limit int) (List, error) {
	if ch.Kind == catalog.KindRSS {
		return c.decodeFeed(ch, raw, limit)
	}
	return decodeHot(ch, raw, limit)
}

func decodeHot(ch catalog.Channel, raw []byte, limit int) (List, error) {
	var lr listResponse
	if err := json.Unmarshal(raw, &lr); err != nil {
		return List{}, &FetchError{Channel: ch.ID, Err: fmt.Errorf("malformed hot list payload: %w", err)}
	}
	if lr.Code != http.StatusOK {
		return List{}, &FetchError{Channel: ch.ID, Err: fmt.Errorf("aggregator returned code %d", lr.Code)}
	}

	title := lr.Title
	if title == "" {
		title = lr.Name
	}
	if title == "" {
		title = ch.Title
	}

	items := lr.Data
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return List{Channel: ch.ID, Title: title, Items: items}, nil
}

func (c *Client) decodeFeed(ch catalog.Channel, raw []byte, limit int) (List, error) {
	feed, err := c.feed.ParseString(string(raw))
	if err != nil {
		return List{}, &FetchError{Channel: ch.ID, Err: fmt.Errorf("malformed feed: %w", err)}
	}

	title := ch.Title
	if title == "" {
		title = feed.Title
	}

	items := make([]Item, 0, len(feed.Items))
	for _, fi := range feed.Items {
		if limit > 0 && len(items) >= limit {
			break
		}
		desc := fi.Description
		if desc == "" {
			desc = fi.Content
		}
		items = append(items, Item{
			Title: fi.Title,
			Desc:  truncate(stripHTML(desc), 300),
			URL:   fi.Link,
		})
	}
	return List{Channel: ch.ID, Title: title, Items: items}, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
