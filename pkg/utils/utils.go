package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

var ErrNotFound = errors.New("file not found on server")

type progressWriter struct {
	io.Writer
	total uint64
	last  uint64
	label string
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.total += uint64(n)
	if pw.total-pw.last > 5*1024*1024 { // Log every 5MB
		log.Printf("%s: Downloaded %d MB", pw.label, pw.total/1024/1024)
		pw.last = pw.total
	}
	return n, err
}

// Fetch downloads url into memory.
func Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Error closing response body: %v", err)
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var buf bytes.Buffer
	pw := &progressWriter{Writer: &buf, label: url}
	if _, err := io.Copy(pw, resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GetCached returns the body of url, using cache when it is not nil. A
// fresh download is stored with ttl (zero keeps it forever).
func GetCached(ctx context.Context, url string, cache *DiskCache, ttl time.Duration, logPrefix string) ([]byte, error) {
	if cache != nil {
		data, err := cache.Get(url)
		if err != nil {
			log.Printf("%s Cache read failed, downloading instead: %v", logPrefix, err)
		} else if data != nil {
			log.Printf("%s Using cached copy of %s", logPrefix, url)
			return data, nil
		}
	}

	log.Printf("%s Downloading %s", logPrefix, url)
	data, err := Fetch(ctx, url)
	if err != nil {
		return nil, err // Return the error directly so caller can see ErrNotFound
	}
	if cache != nil {
		if err := cache.PutWithTTL(url, data, ttl); err != nil {
			log.Printf("%s Failed to cache %s: %v", logPrefix, url, err)
		}
	}
	return data, nil
}
