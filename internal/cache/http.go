// Copyright 2025 Lumina Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache provides the disk-backed document cache used to fetch the
// pricing catalog.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/go-logr/logr"
)

// HTTPCache fetches documents by URL and keeps the raw bodies on disk.
//
// A cached document is never refreshed: Invalidate it (or delete the whole
// directory) to force a new download. There is no timeout and no retry.
type HTTPCache struct {
	dir    string
	client *http.Client
	log    logr.Logger

	// mu guards the counters.
	mu     sync.Mutex
	hits   int
	misses int
}

// Stats reports how a cache was used.
type Stats struct {
	Hits   int
	Misses int
}

// NewHTTPCache creates the cache directory if needed. A nil client uses
// http.DefaultClient.
func NewHTTPCache(dir string, client *http.Client, log logr.Logger) (*HTTPCache, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", abs, err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPCache{
		dir:    abs,
		client: client,
		log:    log.WithValues("cacheDir", abs),
	}, nil
}

var nonWord = regexp.MustCompile(`\W`)

// Key returns the file name a URL is cached under: every non-word character
// replaced by an underscore.
func Key(url string) string {
	return nonWord.ReplaceAllString(url, "_")
}

// Path returns the cache file for url.
func (c *HTTPCache) Path(url string) string {
	return filepath.Join(c.dir, Key(url))
}

// Get returns the document at url, from disk when cached.
func (c *HTTPCache) Get(ctx context.Context, url string) ([]byte, error) {
	path := c.Path(url)

	info, err := os.Stat(path)
	switch {
	case err == nil:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read cached %s: %w", url, err)
		}
		c.log.Info("using cache", "url", url, "downloaded", humanize.Time(info.ModTime()))
		c.record(true)
		return data, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("failed to read cached %s: %w", url, err)
	}

	data, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := writeAtomic(c.dir, path, data); err != nil {
		return nil, fmt.Errorf("failed to cache %s: %w", url, err)
	}
	c.log.Info("caching", "url", url, "size", humanize.Bytes(uint64(len(data))))
	c.record(false)
	return data, nil
}

// Invalidate removes the cached copy of url, if any, so the next Get
// downloads it again.
func (c *HTTPCache) Invalidate(url string) error {
	if err := os.Remove(c.Path(url)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to invalidate cached %s: %w", url, err)
	}
	c.log.Info("invalidated cache", "url", url)
	return nil
}

// Stats returns the hit and miss counts so far.
func (c *HTTPCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses}
}

func (c *HTTPCache) record(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}

func (c *HTTPCache) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %s: %w", url, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: unexpected status %s", url, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", url, err)
	}
	return data, nil
}

// writeAtomic writes data to a temporary file in dir and renames it into
// place, so an interrupted run never leaves a truncated document behind.
func writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
