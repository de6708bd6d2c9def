package config

import (
	"context"
	"fmt"
	"log"

	"github.com/sudorandom/propmap/pkg/sources"
	"github.com/sudorandom/propmap/pkg/symbols"
	"github.com/sudorandom/propmap/pkg/utils"
)

// LoadDataset fetches and parses the configured dataset. Remote sources go
// through the disk cache when a cache dir is set.
func (c *Config) LoadDataset(ctx context.Context) (*symbols.Dataset, error) {
	opts := sources.Options{CacheTTL: c.Dataset.CacheTTL, NameProperty: c.Dataset.NameProperty}
	if sources.IsRemote(c.Dataset.Source) && c.Dataset.CacheDir != "" {
		cache, err := utils.OpenDiskCache(c.Dataset.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("open cache %s: %w", c.Dataset.CacheDir, err)
		}
		defer func() {
			if err := cache.Close(); err != nil {
				log.Printf("[dataset] Error closing cache: %v", err)
			}
		}()
		opts.Cache = cache
	}
	return sources.Load(ctx, c.Dataset.Source, opts)
}
