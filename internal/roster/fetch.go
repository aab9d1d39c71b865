package roster

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	appLog "clubcal/internal/log"
)

// cacheEntry holds HTTP cache metadata for a roster URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Loader resolves a roster source into a Snapshot. Local paths are read
// directly; http(s) URLs are fetched with ETag / Last-Modified
// conditional requests backed by a disk cache, so an unreachable roster
// service degrades to the last known snapshot instead of an empty
// calendar.
type Loader struct {
	client   *http.Client
	cacheDir string
}

// NewLoader creates a roster Loader. cacheDir is where per-URL cache
// entries are stored, e.g. "/var/lib/clubcal/roster-cache".
func NewLoader(cacheDir string) *Loader {
	if cacheDir == "" {
		cacheDir = "./var/roster-cache"
	}
	return &Loader{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		cacheDir: cacheDir,
	}
}

// Load resolves source (path or URL) and parses it into a Snapshot.
func (l *Loader) Load(ctx context.Context, source string) (Snapshot, error) {
	if source == "" {
		return Snapshot{}, errors.New("roster source is empty")
	}

	var (
		body      []byte
		fromCache bool
		err       error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		body, fromCache, err = l.fetchHTTP(ctx, source)
	} else {
		body, err = os.ReadFile(source)
	}
	if err != nil {
		return Snapshot{}, err
	}

	clubs, err := Parse(body)
	if err != nil {
		return Snapshot{}, err
	}

	appLog.Info("roster loaded", "source", source, "club_count", len(clubs), "from_cache", fromCache)
	return Snapshot{
		Clubs:     clubs,
		FetchedAt: time.Now().UTC(),
		FromCache: fromCache,
	}, nil
}

// fetchHTTP fetches the roster URL honoring ETag and Last-Modified,
// falling back to the cached body on network failure or non-OK status.
func (l *Loader) fetchHTTP(ctx context.Context, url string) (body []byte, fromCache bool, err error) {
	cachePath := l.cachePathForURL(url)
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return nil, false, err
	}

	meta, _ := l.loadCacheMeta(cachePath)
	cachedBody, _ := os.ReadFile(filepath.Join(cachePath, "body.yaml"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		if len(cachedBody) > 0 {
			appLog.Error("roster fetch network error, using cached body", err, "url", url)
			return cachedBody, true, nil
		}
		return nil, false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		fresh, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, false, readErr
		}
		newMeta := cacheEntry{
			URL:          url,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			UpdatedAt:    time.Now().UTC(),
		}
		if err := l.saveCache(cachePath, newMeta, fresh); err != nil {
			appLog.Error("roster cache save failed", err, "url", url)
		}
		return fresh, false, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return nil, false, errors.New("received 304 Not Modified but no cached roster available")
		}
		appLog.Debug("roster not modified; using cache", "url", url)
		return cachedBody, true, nil

	default:
		if len(cachedBody) > 0 {
			appLog.Error("roster fetch non-OK, using cached body", errors.New(resp.Status), "url", url, "status", resp.StatusCode)
			return cachedBody, true, nil
		}
		return nil, false, errors.New(resp.Status)
	}
}

func (l *Loader) cachePathForURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(l.cacheDir, hex.EncodeToString(sum[:8]))
}

func (l *Loader) loadCacheMeta(cachePath string) (cacheEntry, error) {
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

func (l *Loader) saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Write body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body.yaml"), body, 0o600); err != nil {
		return err
	}
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}
