package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			fmt.Fprint(w, "hello")
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	data, err := Fetch(context.Background(), srv.URL+"/ok")
	if err != nil || string(data) != "hello" {
		t.Errorf("Fetch(/ok) = (%q, %v); want (hello, nil)", data, err)
	}
	if _, err := Fetch(context.Background(), srv.URL+"/missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Fetch(/missing) error = %v; want ErrNotFound", err)
	}
	if _, err := Fetch(context.Background(), srv.URL+"/broken"); err == nil {
		t.Errorf("Fetch(/broken) succeeded; want error")
	}
}

func TestGetCached(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, "payload")
	}))
	defer srv.Close()

	cache, err := OpenDiskCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("Failed to open cache: %v", err)
	}
	defer func() {
		if err := cache.Close(); err != nil {
			t.Logf("Error closing cache: %v", err)
		}
	}()

	for i := 0; i < 3; i++ {
		data, err := GetCached(context.Background(), srv.URL, cache, 0, "[test]")
		if err != nil || string(data) != "payload" {
			t.Fatalf("GetCached #%d = (%q, %v)", i, data, err)
		}
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("server hit %d times; want 1", n)
	}

	if _, err := GetCached(context.Background(), srv.URL, nil, 0, "[test]"); err != nil {
		t.Errorf("GetCached without cache failed: %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Errorf("server hit %d times; want 2", n)
	}
}
