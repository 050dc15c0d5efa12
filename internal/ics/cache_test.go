package ics

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedCache_StoreLoad(t *testing.T) {
	fc := feedCache{dir: t.TempDir()}
	src := Source{ID: "nc", URL: "https://example.com/nc.json", Format: FormatJSON}

	assert.False(t, fc.load(src).ok())

	h := http.Header{}
	h.Set("ETag", `"abc"`)
	h.Set("Last-Modified", "Mon, 03 Mar 2025 10:00:00 GMT")
	require.NoError(t, fc.store(src, h, []byte(`[]`)))

	got := fc.load(src)
	require.True(t, got.ok())
	assert.Equal(t, `[]`, string(got.body))
	assert.Equal(t, FormatJSON, got.meta.Format)
	assert.Equal(t, `"abc"`, got.meta.ETag)

	req, err := http.NewRequest(http.MethodGet, src.URL, nil)
	require.NoError(t, err)
	got.setConditional(req)
	assert.Equal(t, `"abc"`, req.Header.Get("If-None-Match"))
	assert.Equal(t, "Mon, 03 Mar 2025 10:00:00 GMT", req.Header.Get("If-Modified-Since"))
}

func TestFeedCache_CorruptBodyIgnored(t *testing.T) {
	fc := feedCache{dir: t.TempDir()}
	src := Source{ID: "cf", URL: "https://example.com/cf.ics"}
	require.NoError(t, fc.store(src, http.Header{}, []byte(roundsICS)))

	body := filepath.Join(fc.slot(src.URL), "body")
	require.NoError(t, os.WriteFile(body, []byte("BEGIN:VCAL"), 0o600))

	assert.False(t, fc.load(src).ok())

	// A missing entry sends no conditional headers.
	req, err := http.NewRequest(http.MethodGet, src.URL, nil)
	require.NoError(t, err)
	fc.load(src).setConditional(req)
	assert.Empty(t, req.Header.Get("If-None-Match"))
}

func TestFeedCache_SlotPerURL(t *testing.T) {
	fc := feedCache{dir: t.TempDir()}
	a := Source{ID: "a", URL: "https://example.com/a.ics"}
	b := Source{ID: "b", URL: "https://example.com/b.ics"}
	require.NoError(t, fc.store(a, http.Header{}, []byte("A")))
	require.NoError(t, fc.store(b, http.Header{}, []byte("B")))

	assert.NotEqual(t, fc.slot(a.URL), fc.slot(b.URL))
	assert.Equal(t, "A", string(fc.load(a).body))
	assert.Equal(t, "B", string(fc.load(b).body))
}
