package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	appLog "plancal/internal/log"
)

// Feed is one ICS document to import: a local path or an http(s) URL.
type Feed struct {
	Name     string
	Location string
}

// IsRemote reports whether the feed has to be downloaded.
func (f Feed) IsRemote() bool {
	l := strings.ToLower(f.Location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// FetchResult is the body of one feed.
type FetchResult struct {
	Feed      Feed
	Body      []byte
	FromCache bool // true if a cached body was reused (304 or fetch failure)
}

// cacheEntry holds HTTP cache metadata for a single feed URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher reads feeds. Remote feeds are fetched with conditional requests
// (ETag / Last-Modified) and kept in a disk cache, which also serves as a
// fallback when the server cannot be reached.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

// NewFetcher creates a Fetcher caching under cacheDir. An empty cacheDir
// selects plancal/ics-cache in the user cache directory.
func NewFetcher(cacheDir string) *Fetcher {
	if cacheDir == "" {
		if base, err := os.UserCacheDir(); err == nil {
			cacheDir = filepath.Join(base, "plancal", "ics-cache")
		} else {
			cacheDir = filepath.Join(".", "var", "ics-cache")
		}
	}
	return &Fetcher{
		client:   &http.Client{Timeout: 15 * time.Second},
		cacheDir: cacheDir,
	}
}

// Fetch returns the body of feed.
func (f *Fetcher) Fetch(ctx context.Context, feed Feed) (FetchResult, error) {
	if feed.Location == "" {
		return FetchResult{}, errors.New("feed location is empty")
	}
	if !feed.IsRemote() {
		body, err := os.ReadFile(feed.Location)
		if err != nil {
			return FetchResult{}, fmt.Errorf("read feed %s: %w", feed.Name, err)
		}
		return FetchResult{Feed: feed, Body: body}, nil
	}
	return f.fetchRemote(ctx, feed)
}

func (f *Fetcher) fetchRemote(ctx context.Context, feed Feed) (FetchResult, error) {
	cachePath := f.cachePathForURL(feed.Location)
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return FetchResult{}, err
	}

	meta, _ := loadCacheMeta(cachePath)
	cachedBody, _ := os.ReadFile(filepath.Join(cachePath, "body.ics"))
	fallback := func(cause error) (FetchResult, error) {
		if len(cachedBody) == 0 {
			return FetchResult{}, cause
		}
		appLog.Error("ics fetch failed, using cached body", cause, "feed", feed.Name, "url", redactURL(feed.Location))
		return FetchResult{Feed: feed, Body: cachedBody, FromCache: true}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.Location, nil)
	if err != nil {
		return FetchResult{}, err
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	appLog.Debug("ics fetch start", "feed", feed.Name, "url", redactURL(feed.Location))

	resp, err := f.client.Do(req)
	if err != nil {
		return fallback(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fallback(err)
		}
		newMeta := cacheEntry{
			URL:          feed.Location,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := saveCache(cachePath, newMeta, body); err != nil {
			// Log but still return the freshly fetched body.
			appLog.Error("ics cache save failed", err, "feed", feed.Name)
		}
		appLog.Info("ics fetch success", "feed", feed.Name, "url", redactURL(feed.Location), "size", humanize.Bytes(uint64(len(body))))
		return FetchResult{Feed: feed, Body: body}, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return FetchResult{}, errors.New("received 304 Not Modified but no cached body available")
		}
		appLog.Info("ics feed not modified; using cache", "feed", feed.Name)
		return FetchResult{Feed: feed, Body: cachedBody, FromCache: true}, nil

	default:
		return fallback(fmt.Errorf("fetch %s: %s", redactURL(feed.Location), resp.Status))
	}
}

func (f *Fetcher) cachePathForURL(u string) string {
	sum := sha256.Sum256([]byte(u))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Write body first so meta never points at missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body.ics"), body, 0o600); err != nil {
		return err
	}
	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}

// redactURL keeps only scheme and host; feed URLs often embed tokens.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "ics://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
