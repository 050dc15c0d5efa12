package contest

import (
	"fmt"
	"path/filepath"
	"strings"

	"cpcal/internal/config"
	"cpcal/internal/ics"
	"cpcal/internal/model"
)

// SourcesFromConfig maps configured feeds to fetch sources. Feeds without a
// URL are skipped; an unknown platform or format is an error.
func SourcesFromConfig(feeds []config.FeedConfig) ([]ics.Source, error) {
	out := make([]ics.Source, 0, len(feeds))
	for _, f := range feeds {
		if f.URL == "" {
			continue
		}
		p, err := model.ParsePlatform(f.Platform)
		if err != nil {
			return nil, fmt.Errorf("feed %q: %w", f.ID, err)
		}
		format := strings.ToLower(f.Format)
		switch format {
		case "":
			format = ics.FormatICS
		case ics.FormatICS, ics.FormatJSON:
		default:
			return nil, fmt.Errorf("feed %q: unknown format %q", f.ID, f.Format)
		}

		id := f.ID
		if id == "" {
			if f.Name != "" {
				id = f.Name
			} else {
				id = f.URL
			}
		}
		out = append(out, ics.Source{ID: id, Name: f.Name, URL: f.URL, Platform: p, Format: format})
	}
	return out, nil
}

// FileSource builds a source for a local feed file; the format follows the
// extension (.json or anything else as ICS).
func FileSource(path string, platform model.Platform) (ics.Source, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return ics.Source{}, err
	}
	format := ics.FormatICS
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = ics.FormatJSON
	}
	return ics.Source{
		ID:       filepath.Base(path),
		Name:     filepath.Base(path),
		URL:      "file://" + filepath.ToSlash(abs),
		Platform: platform,
		Format:   format,
	}, nil
}
