package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Kind distinguishes aggregator-backed channels from direct RSS feeds.
type Kind string

const (
	KindHot Kind = "hot" // served by the DailyHot aggregator API
	KindRSS Kind = "rss" // fetched and parsed directly from a feed URL
)

// Channel is one trending-topic source. Immutable after catalog construction.
type Channel struct {
	ID    string
	Title string
	Kind  Kind
	URL   string // only set for rss channels
}

// builtin mirrors the aggregator's route table. Used for -c validation and as
// the fallback when live discovery is unavailable.
var builtin = []Channel{
	{ID: "36kr", Title: "36氪", Kind: KindHot},
	{ID: "51cto", Title: "51CTO", Kind: KindHot},
	{ID: "acfun", Title: "AcFun", Kind: KindHot},
	{ID: "baidu", Title: "百度热搜", Kind: KindHot},
	{ID: "bilibili", Title: "哔哩哔哩", Kind: KindHot},
	{ID: "coolapk", Title: "酷安", Kind: KindHot},
	{ID: "csdn", Title: "CSDN", Kind: KindHot},
	{ID: "douban-group", Title: "豆瓣讨论小组", Kind: KindHot},
	{ID: "douban-movie", Title: "豆瓣电影", Kind: KindHot},
	{ID: "douyin", Title: "抖音", Kind: KindHot},
	{ID: "earthquake", Title: "中国地震台网", Kind: KindHot},
	{ID: "genshin", Title: "原神", Kind: KindHot},
	{ID: "hellogithub", Title: "HelloGitHub", Kind: KindHot},
	{ID: "history", Title: "历史上的今天", Kind: KindHot},
	{ID: "honkai", Title: "崩坏3", Kind: KindHot},
	{ID: "hupu", Title: "虎扑", Kind: KindHot},
	{ID: "huxiu", Title: "虎嗅", Kind: KindHot},
	{ID: "ifanr", Title: "爱范儿", Kind: KindHot},
	{ID: "ithome", Title: "IT之家", Kind: KindHot},
	{ID: "ithome-xijiayi", Title: "IT之家「喜加一」", Kind: KindHot},
	{ID: "jianshu", Title: "简书", Kind: KindHot},
	{ID: "juejin", Title: "稀土掘金", Kind: KindHot},
	{ID: "lol", Title: "英雄联盟", Kind: KindHot},
	{ID: "netease-news", Title: "网易新闻", Kind: KindHot},
	{ID: "ngabbs", Title: "NGA", Kind: KindHot},
	{ID: "nodeseek", Title: "NodeSeek", Kind: KindHot},
	{ID: "qq-news", Title: "腾讯新闻", Kind: KindHot},
	{ID: "sina", Title: "新浪网", Kind: KindHot},
	{ID: "sina-news", Title: "新浪新闻", Kind: KindHot},
	{ID: "sspai", Title: "少数派", Kind: KindHot},
	{ID: "starrail", Title: "崩坏：星穹铁道", Kind: KindHot},
	{ID: "thepaper", Title: "澎湃新闻", Kind: KindHot},
	{ID: "tieba", Title: "百度贴吧", Kind: KindHot},
	{ID: "toutiao", Title: "今日头条", Kind: KindHot},
	{ID: "v2ex", Title: "V2EX", Kind: KindHot},
	{ID: "weatheralarm", Title: "中央气象台", Kind: KindHot},
	{ID: "weibo", Title: "微博", Kind: KindHot},
	{ID: "weread", Title: "微信读书", Kind: KindHot},
	{ID: "zhihu", Title: "知乎", Kind: KindHot},
	{ID: "zhihu-daily", Title: "知乎日报", Kind: KindHot},
}

// Catalog is the resolved channel table for one run: builtin aggregator
// channels plus any RSS sources from config.
type Catalog struct {
	channels []Channel
	byID     map[string]Channel
}

// New builds a catalog from the builtin table plus extra channels.
// Extra channels with an ID already in the table override the builtin entry.
func New(extra ...Channel) *Catalog {
	c := &Catalog{byID: make(map[string]Channel, len(builtin)+len(extra))}
	for _, ch := range builtin {
		c.channels = append(c.channels, ch)
		c.byID[ch.ID] = ch
	}
	for _, ch := range extra {
		if _, ok := c.byID[ch.ID]; !ok {
			c.channels = append(c.channels, ch)
		} else {
			for i := range c.channels {
				if c.channels[i].ID == ch.ID {
					c.channels[i] = ch
					break
				}
			}
		}
		c.byID[ch.ID] = ch
	}
	return c
}

// Lookup returns the channel for id.
func (c *Catalog) Lookup(id string) (Channel, bool) {
	ch, ok := c.byID[id]
	return ch, ok
}

// All returns every channel in catalog order.
func (c *Catalog) All() []Channel {
	out := make([]Channel, len(c.channels))
	copy(out, c.channels)
	return out
}

// Resolve maps requested ids to channels, preserving request order.
// An unknown id fails immediately, before any network traffic.
func (c *Catalog) Resolve(ids []string) ([]Channel, error) {
	if len(ids) == 0 {
		return c.All(), nil
	}
	out := make([]Channel, 0, len(ids))
	for _, id := range ids {
		ch, ok := c.byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown channel %q (run \"hotwords channels\" to list valid ids)", id)
		}
		out = append(out, ch)
	}
	return out, nil
}

type routesResponse struct {
	Code   int `json:"code"`
	Routes []struct {
		Name    string `json:"name"`
		Path    string `json:"path"`
		Message string `json:"message"`
	} `json:"routes"`
}

// Discover asks the aggregator which routes are currently available and
// filters the catalog down to those. Any failure falls back to the full
// catalog, matching the aggregator's published route table.
func (c *Catalog) Discover(ctx context.Context, client *http.Client, apiBase string) []Channel {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBase+"/all", nil)
	if err != nil {
		return c.All()
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return c.All()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.All()
	}

	var rr routesResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&rr); err != nil {
		return c.All()
	}
	if rr.Code != http.StatusOK || len(rr.Routes) == 0 {
		return c.All()
	}

	live := make(map[string]bool, len(rr.Routes))
	for _, r := range rr.Routes {
		// Routes with a message are disabled upstream.
		if r.Path != "" && r.Message == "" {
			live[r.Name] = true
		}
	}

	var out []Channel
	for _, ch := range c.channels {
		if ch.Kind == KindRSS || live[ch.ID] {
			out = append(out, ch)
		}
	}
	if len(out) == 0 {
		return c.All()
	}
	return out
}

// DiscoverTimeout bounds the /all discovery call.
const DiscoverTimeout = 10 * time.Second
