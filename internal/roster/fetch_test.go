package roster

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

const fetchRoster = `
clubs:
  - id: hiking
    name: Hiking Club
    meetings:
      - day: Saturday
        time: "08:00"
`

func TestLoadLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clubs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fetchRoster), 0o600))

	loader := NewLoader(filepath.Join(dir, "cache"))
	snap, err := loader.Load(context.Background(), path)
	require.NoError(t, err)
	require.False(t, snap.FromCache)
	require.Len(t, snap.Clubs, 1)
	require.Equal(t, "hiking", snap.Clubs[0].ID)
}

func TestLoadMissingSource(t *testing.T) {
	loader := NewLoader(t.TempDir())

	_, err := loader.Load(context.Background(), "")
	require.Error(t, err)

	_, err = loader.Load(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadHTTPConditionalGet(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(fetchRoster))
	}))
	defer srv.Close()

	loader := NewLoader(t.TempDir())

	first, err := loader.Load(context.Background(), srv.URL)
	require.NoError(t, err)
	require.False(t, first.FromCache)
	require.Len(t, first.Clubs, 1)

	second, err := loader.Load(context.Background(), srv.URL)
	require.NoError(t, err)
	require.True(t, second.FromCache)
	require.Equal(t, first.Clubs, second.Clubs)

	require.Equal(t, int32(2), hits.Load())
}

func TestLoadHTTPFallsBackToCacheOnServerError(t *testing.T) {
	var failing atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(fetchRoster))
	}))
	defer srv.Close()

	loader := NewLoader(t.TempDir())

	_, err := loader.Load(context.Background(), srv.URL)
	require.NoError(t, err)

	failing.Store(true)
	snap, err := loader.Load(context.Background(), srv.URL)
	require.NoError(t, err)
	require.True(t, snap.FromCache)
	require.Len(t, snap.Clubs, 1)
}
