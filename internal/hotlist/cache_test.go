package hotlist

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestCacheRoundTrip(t *testing.T) {
	cache, err := OpenCache(t.TempDir())
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}

	if _, ok := cache.Get("weibo"); ok {
		t.Error("expected miss on empty cache")
	}

	raw := []byte(`{"code":200,"data":[]}`)
	if err := cache.Put("weibo", raw); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := cache.Get("weibo")
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if !bytes.Equal(got, raw) {
		t.Errorf("Get returned %q, want %q", got, raw)
	}
}

func TestCachePutOverwrites(t *testing.T) {
	cache, err := OpenCache(t.TempDir())
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}

	cache.Put("zhihu", []byte("old"))
	cache.Put("zhihu", []byte("new"))

	got, _ := cache.Get("zhihu")
	if string(got) != "new" {
		t.Errorf("expected overwrite, got %q", got)
	}
}

func TestCacheOnePerChannel(t *testing.T) {
	dir := t.TempDir()
	cache, err := OpenCache(dir)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}

	cache.Put("weibo", []byte("a"))
	cache.Put("douban-group", []byte("b"))

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 cache files, got %d", len(entries))
	}
	if cache.Path("weibo") != filepath.Join(dir, "weibo") {
		t.Errorf("unexpected cache path: %s", cache.Path("weibo"))
	}
}

func TestOpenCacheCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "hotlists")
	if _, err := OpenCache(dir); err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("expected cache dir created: %v", err)
	}
}
