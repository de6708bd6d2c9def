// Package sources retrieves the feature datasets the map renders.
package sources

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/sudorandom/propmap/pkg/symbols"
	"github.com/sudorandom/propmap/pkg/utils"
)

// Options controls where Load reads from.
type Options struct {
	// Cache, when set, keeps downloaded datasets keyed by URL.
	Cache *utils.DiskCache
	// CacheTTL expires cached downloads. Zero keeps them forever.
	CacheTTL time.Duration
	// NameProperty is passed through to symbols.ParseDataset.
	NameProperty string
}

// IsRemote reports whether src should be downloaded rather than read from
// disk.
func IsRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Fetch returns the raw bytes of src, a file path or an http(s) URL.
func Fetch(ctx context.Context, src string, opts Options) ([]byte, error) {
	if src == "" {
		src = DefaultDatasetPath
	}
	if IsRemote(src) {
		return utils.GetCached(ctx, src, opts.Cache, opts.CacheTTL, "[dataset]")
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return data, nil
}

// Load fetches and parses src.
func Load(ctx context.Context, src string, opts Options) (*symbols.Dataset, error) {
	start := time.Now()
	data, err := Fetch(ctx, src, opts)
	if err != nil {
		return nil, err
	}
	ds, err := symbols.ParseDataset(data, symbols.ParseOptions{NameProperty: opts.NameProperty})
	if err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", src, err)
	}
	log.Printf("[dataset] Loaded %d features from %s in %v", len(ds.Features), src, time.Since(start).Round(time.Millisecond))
	return ds, nil
}
