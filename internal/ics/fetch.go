package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	appLog "cpcal/internal/log"
	"cpcal/internal/model"
)

// Feed formats.
const (
	FormatICS  = "ics"
	FormatJSON = "json"
)

// Source represents a single contest feed.
type Source struct {
	// ID is an internal identifier (the config feed ID).
	ID   string
	Name string
	// URL is the feed endpoint: http(s):// or file://.
	URL string
	// Platform tags every contest decoded from this feed.
	Platform model.Platform
	// Format is FormatICS or FormatJSON.
	Format string
}

// FetchResult contains the outcome of fetching a single source.
type FetchResult struct {
	Source    Source
	Body      []byte // payload, freshly fetched or from cache
	FromCache bool   // true if the cached body was reused
}

// maxFeedBytes caps a single feed download.
const maxFeedBytes = 16 << 20

// Fetcher fetches feeds with HTTP caching (ETag / Last-Modified) backed
// by a disk cache.
type Fetcher struct {
	client *http.Client
	cache  feedCache
}

// NewFetcher creates a Fetcher caching under cacheDir, e.g.
// "/var/lib/cpcal/feed-cache".
func NewFetcher(cacheDir string) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./var/feed-cache"
	}
	return &Fetcher{
		client: &http.Client{Timeout: 15 * time.Second},
		cache:  feedCache{dir: cacheDir},
	}
}

// FetchAll fetches every source in order. Results only hold sources that
// produced a body, from the network or the cache; the rest are returned as
// errors.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) ([]FetchResult, []error) {
	results := make([]FetchResult, 0, len(sources))
	var errs []error
	for _, src := range sources {
		res, err := f.FetchOne(ctx, src)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", src.ID, err))
			appLog.Error("feed fetch failed", err, "id", src.ID, "url", redactURL(src.URL))
			continue
		}
		results = append(results, res)
	}
	return results, errs
}

// FetchOne fetches a single source. Remote feeds are requested
// conditionally against the cached entry and fall back to it when the
// server cannot be reached or answers with an error. file:// URLs are read
// directly and never cached.
func (f *Fetcher) FetchOne(ctx context.Context, src Source) (FetchResult, error) {
	if src.URL == "" {
		return FetchResult{}, errors.New("source URL is empty")
	}
	if path, ok := localPath(src.URL); ok {
		return readLocal(ctx, src, path)
	}

	cached := f.cache.load(src)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return FetchResult{}, err
	}
	cached.setConditional(req)

	appLog.Debug("feed fetch start", "id", src.ID, "url", redactURL(src.URL), "cached", cached.ok())

	resp, err := f.client.Do(req)
	if err != nil {
		return fallback(src, cached, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes+1))
		if err != nil {
			return fallback(src, cached, err)
		}
		if len(body) > maxFeedBytes {
			return fallback(src, cached, fmt.Errorf("feed larger than %d bytes", maxFeedBytes))
		}
		if err := f.cache.store(src, resp.Header, body); err != nil {
			appLog.Error("feed cache save failed", err, "id", src.ID, "url", redactURL(src.URL))
		}
		appLog.Info("feed fetched", "id", src.ID, "url", redactURL(src.URL), "bytes", len(body))
		return FetchResult{Source: src, Body: body}, nil

	case http.StatusNotModified:
		if !cached.ok() {
			return FetchResult{}, errors.New("received 304 Not Modified without a cached body")
		}
		appLog.Info("feed not modified", "id", src.ID, "url", redactURL(src.URL))
		return FetchResult{Source: src, Body: cached.body, FromCache: true}, nil

	default:
		return fallback(src, cached, fmt.Errorf("unexpected status %s", resp.Status))
	}
}

// fallback serves the cached body when there is one, otherwise returns cause.
func fallback(src Source, cached cachedFeed, cause error) (FetchResult, error) {
	if !cached.ok() {
		return FetchResult{}, cause
	}
	appLog.Error("feed fetch failed; serving cached body", cause,
		"id", src.ID, "url", redactURL(src.URL), "cached_at", cached.meta.UpdatedAt)
	return FetchResult{Source: src, Body: cached.body, FromCache: true}, nil
}

func readLocal(ctx context.Context, src Source, path string) (FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return FetchResult{}, err
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return FetchResult{}, err
	}
	return FetchResult{Source: src, Body: body}, nil
}

func localPath(raw string) (string, bool) {
	if !strings.HasPrefix(raw, "file://") {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return "", false
	}
	return filepath.FromSlash(u.Path), true
}

// redactURL keeps only scheme and host; feed URLs often embed tokens.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "feed://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
