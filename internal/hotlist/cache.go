package hotlist

import (
	"fmt"
	"os"
	"path/filepath"
)

// Cache stores one raw upstream response per channel, byte for byte. There is
// no TTL: a cached run either trusts the file or bypasses the cache entirely.
type Cache struct {
	dir string
}

// OpenCache creates the cache directory if needed.
func OpenCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Path returns the cache file for a channel id. Channel ids are lowercase
// ASCII with hyphens, so they are used directly as file names.
func (c *Cache) Path(channel string) string {
	return filepath.Join(c.dir, channel)
}

// Get returns the cached raw response for a channel, if present.
func (c *Cache) Get(channel string) ([]byte, bool) {
	data, err := os.ReadFile(c.Path(channel))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Put writes the raw response for a channel, replacing any previous entry.
func (c *Cache) Put(channel string, raw []byte) error {
	tmp := c.Path(channel) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := os.Rename(tmp, c.Path(channel)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("committing cache entry: %w", err)
	}
	return nil
}
