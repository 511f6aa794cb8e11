package hotlist

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/zonghaoyuan/hotwords-cn/internal/catalog"
)

func testClient(t *testing.T, base string) *Client {
	t.Helper()
	cache, err := OpenCache(t.TempDir())
	if err != nil {
		t.Fatalf("opening cache: %v", err)
	}
	return NewClient(base, cache, zerolog.Nop())
}

func weiboChannel() catalog.Channel {
	return catalog.Channel{ID: "weibo", Title: "微博", Kind: catalog.KindHot}
}

const weiboPayload = `{"code":200,"name":"weibo","title":"微博","data":[
	{"title":"标题一","desc":"描述一","hot":12345},
	{"title":"标题二"},
	{"title":"标题三"},
	{"title":"标题四"},
	{"title":"标题五"},
	{"title":"标题六"}
]}`

func TestHotFetchesAndTruncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/weibo" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(weiboPayload))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	list, err := c.Hot(context.Background(), weiboChannel(), 5, false)
	if err != nil {
		t.Fatalf("Hot: %v", err)
	}
	if list.Title != "微博" {
		t.Errorf("expected title 微博, got %q", list.Title)
	}
	if len(list.Items) != 5 {
		t.Errorf("expected 5 items after limit, got %d", len(list.Items))
	}
	if got := list.Items[0].Text(); got != "标题一 描述一" {
		t.Errorf("unexpected item text: %q", got)
	}
}

func TestHotWritesCacheByteForByte(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(weiboPayload))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	if _, err := c.Hot(context.Background(), weiboChannel(), 20, false); err != nil {
		t.Fatalf("Hot: %v", err)
	}

	raw, err := os.ReadFile(c.cache.Path("weibo"))
	if err != nil {
		t.Fatalf("reading cache file: %v", err)
	}
	if !bytes.Equal(raw, []byte(weiboPayload)) {
		t.Error("cache file does not match raw response byte for byte")
	}
}

func TestHotServesFromCacheWithoutNetwork(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(weiboPayload))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	if err := c.cache.Put("weibo", []byte(weiboPayload)); err != nil {
		t.Fatalf("seeding cache: %v", err)
	}

	list, err := c.Hot(context.Background(), weiboChannel(), 3, true)
	if err != nil {
		t.Fatalf("Hot: %v", err)
	}
	if hits != 0 {
		t.Errorf("expected no network calls with warm cache, got %d", hits)
	}
	if len(list.Items) != 3 {
		t.Errorf("expected 3 items, got %d", len(list.Items))
	}
}

func TestHotCacheMissFallsThroughToNetwork(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(weiboPayload))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	if _, err := c.Hot(context.Background(), weiboChannel(), 20, true); err != nil {
		t.Fatalf("Hot: %v", err)
	}
	if hits != 1 {
		t.Errorf("expected 1 network call on cache miss, got %d", hits)
	}
	if _, ok := c.cache.Get("weibo"); !ok {
		t.Error("expected cache entry written after cache-miss fetch")
	}
}

func TestHotNon200IsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.Hot(context.Background(), weiboChannel(), 20, false)

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T: %v", err, err)
	}
	if fe.Status != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", fe.Status)
	}
	if fe.Channel != "weibo" {
		t.Errorf("expected channel weibo, got %q", fe.Channel)
	}
}

func TestHotMalformedPayloadIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.Hot(context.Background(), weiboChannel(), 20, false)

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T: %v", err, err)
	}
}

func TestHotUpstreamErrorCodeIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":500,"message":"upstream broken"}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.Hot(context.Background(), weiboChannel(), 20, false)
	if err == nil {
		t.Fatal("expected error for aggregator code 500")
	}
}

func TestHotRSSChannel(t *testing.T) {
	const feed = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Example Feed</title>
<item><title>First post</title><link>https://example.com/1</link><description>&lt;p&gt;Hello &lt;b&gt;world&lt;/b&gt;&lt;/p&gt;</description></item>
<item><title>Second post</title><link>https://example.com/2</link></item>
<item><title>Third post</title><link>https://example.com/3</link></item>
</channel></rss>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feed))
	}))
	defer srv.Close()

	ch := catalog.Channel{ID: "example", Title: "Example", Kind: catalog.KindRSS, URL: srv.URL}
	c := testClient(t, "http://unused.invalid")

	list, err := c.Hot(context.Background(), ch, 2, false)
	if err != nil {
		t.Fatalf("Hot: %v", err)
	}
	if len(list.Items) != 2 {
		t.Fatalf("expected 2 items after limit, got %d", len(list.Items))
	}
	if list.Items[0].Desc != "Hello world" {
		t.Errorf("expected HTML stripped from description, got %q", list.Items[0].Desc)
	}
}

func TestTexts(t *testing.T) {
	list := List{Items: []Item{{Title: "a", Desc: "b"}, {Title: "c"}}}
	got := list.Texts()
	if len(got) != 2 || got[0] != "a b" || got[1] != "c" {
		t.Errorf("unexpected texts: %v", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"short", 10, "short"},
		{"this is a long string", 10, "this is..."},
		{"", 5, ""},
		{"热搜关键词提取工具测试", 5, "热搜..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.input, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"<p>Hello</p>", "Hello"},
		{"<div>  Multiple   spaces  </div>", "Multiple spaces"},
		{"No tags here", "No tags here"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := stripHTML(tt.input); got != tt.want {
			t.Errorf("stripHTML(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
