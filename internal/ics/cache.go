package ics

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// feedCache keeps the last good body of every remote feed on disk, one
// directory per URL. Bodies are stored as raw bytes whatever the feed
// format; the metadata records the format and a checksum so a torn write
// is never served.
type feedCache struct {
	dir string
}

type cacheMeta struct {
	URL          string    `json:"url"`
	Format       string    `json:"format,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	SHA256       string    `json:"sha256"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// cachedFeed is one loaded entry. The zero value means "nothing cached".
type cachedFeed struct {
	meta cacheMeta
	body []byte
}

func (c cachedFeed) ok() bool { return len(c.body) > 0 }

// setConditional adds If-None-Match / If-Modified-Since from the entry.
func (c cachedFeed) setConditional(req *http.Request) {
	if !c.ok() {
		return
	}
	if c.meta.ETag != "" {
		req.Header.Set("If-None-Match", c.meta.ETag)
	}
	if c.meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", c.meta.LastModified)
	}
}

func (fc feedCache) slot(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return filepath.Join(fc.dir, hex.EncodeToString(sum[:8]))
}

// load returns the entry for src, or the zero entry when it is missing,
// unreadable, or its body does not match the recorded checksum.
func (fc feedCache) load(src Source) cachedFeed {
	slot := fc.slot(src.URL)
	data, err := os.ReadFile(filepath.Join(slot, "meta.json"))
	if err != nil {
		return cachedFeed{}
	}
	var meta cacheMeta
	if err := json.Unmarshal(data, &meta); err != nil || meta.URL != src.URL {
		return cachedFeed{}
	}
	body, err := os.ReadFile(filepath.Join(slot, "body"))
	if err != nil || checksum(body) != meta.SHA256 {
		return cachedFeed{}
	}
	return cachedFeed{meta: meta, body: body}
}

// store writes body and its metadata for src. Body goes first so the
// metadata never describes a body that is not there.
func (fc feedCache) store(src Source, h http.Header, body []byte) error {
	slot := fc.slot(src.URL)
	if err := os.MkdirAll(slot, 0o700); err != nil {
		return err
	}
	if err := writeReplace(filepath.Join(slot, "body"), body); err != nil {
		return err
	}
	meta := cacheMeta{
		URL:          src.URL,
		Format:       src.Format,
		ETag:         h.Get("ETag"),
		LastModified: h.Get("Last-Modified"),
		SHA256:       checksum(body),
		UpdatedAt:    time.Now().UTC(),
	}
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return writeReplace(filepath.Join(slot, "meta.json"), data)
}

func checksum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// writeReplace writes data to a temp file in the same directory and renames
// it over path.
func writeReplace(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
