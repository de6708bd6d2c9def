package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDiskCache(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "diskcache-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			t.Logf("Error removing temp dir: %v", err)
		}
	}()

	dbPath := filepath.Join(tmpDir, "test.db")
	cache, err := OpenDiskCache(dbPath)
	if err != nil {
		t.Fatalf("Failed to open DiskCache: %v", err)
	}

	testDiskCacheBasic(t, cache)
	testDiskCacheMissing(t, cache)
	testDiskCacheDelete(t, cache)
	testDiskCacheForEach(t, cache)

	if err := cache.Close(); err != nil {
		t.Fatalf("Failed to close cache: %v", err)
	}

	testDiskCachePersistence(t, dbPath)
}

func testDiskCacheBasic(t *testing.T, cache *DiskCache) {
	val := []byte(`{"type":"FeatureCollection","features":[]}`)
	if err := cache.Put("https://example.com/a.geojson", val); err != nil {
		t.Errorf("Put failed: %v", err)
	}

	res, err := cache.Get("https://example.com/a.geojson")
	if err != nil {
		t.Errorf("Get failed: %v", err)
	}
	if !bytes.Equal(res, val) {
		t.Errorf("Get mismatch: got %s, want %s", res, val)
	}
}

func testDiskCacheMissing(t *testing.T, cache *DiskCache) {
	res, err := cache.Get("https://example.com/none.geojson")
	if err != nil {
		t.Errorf("Get of missing key failed: %v", err)
	}
	if res != nil {
		t.Errorf("Expected nil for missing key, got %s", res)
	}
}

func testDiskCacheDelete(t *testing.T, cache *DiskCache) {
	if err := cache.Put("gone", []byte("x")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := cache.Delete("gone"); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
	res, err := cache.Get("gone")
	if err != nil || res != nil {
		t.Errorf("Get after Delete = (%s, %v), want (nil, nil)", res, err)
	}
}

func testDiskCacheForEach(t *testing.T, cache *DiskCache) {
	seen := map[string]string{}
	err := cache.ForEach(func(k, v []byte) error {
		seen[string(k)] = string(v)
		return nil
	})
	if err != nil {
		t.Errorf("ForEach failed: %v", err)
	}
	if len(seen) != 1 {
		t.Errorf("ForEach saw %d keys, want 1: %v", len(seen), seen)
	}
}

func testDiskCachePersistence(t *testing.T, dbPath string) {
	cache, err := OpenDiskCache(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen DiskCache: %v", err)
	}
	defer func() {
		if err := cache.Close(); err != nil {
			t.Logf("Error closing cache: %v", err)
		}
	}()

	res, err := cache.Get("https://example.com/a.geojson")
	if err != nil {
		t.Errorf("Get after reopen failed: %v", err)
	}
	if res == nil {
		t.Errorf("Expected non-nil result after reopen")
	}
}

func TestDiskCacheTTL(t *testing.T) {
	cache, err := OpenDiskCache(filepath.Join(t.TempDir(), "ttl.db"))
	if err != nil {
		t.Fatalf("Failed to open cache: %v", err)
	}
	defer func() {
		if err := cache.Close(); err != nil {
			t.Logf("Error closing cache: %v", err)
		}
	}()

	if err := cache.PutWithTTL("short", []byte("v"), time.Hour); err != nil {
		t.Fatalf("PutWithTTL failed: %v", err)
	}
	if res, _ := cache.Get("short"); string(res) != "v" {
		t.Errorf("Get(short) = %q, want %q", res, "v")
	}

	// Force the in-memory entry to look stale; badger still holds it.
	cache.cache.Store("short", cacheEntry{val: []byte("old"), expiresAt: time.Now().Add(-time.Second)})
	if res, _ := cache.Get("short"); string(res) != "v" {
		t.Errorf("Get(short) after stale memory entry = %q, want %q", res, "v")
	}
}
