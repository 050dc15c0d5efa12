package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cpcal/internal/i18n"
	"cpcal/internal/model"
)

// calendarQuery holds the parsed query of /api/calendar and /calendar.
type calendarQuery struct {
	Year         int
	Month        time.Month
	FirstWeekday time.Weekday
	Platforms    []model.Platform
	Limit        int
	Lang         string
}

func (s *Server) parseCalendarQuery(r *http.Request) (calendarQuery, error) {
	q := r.URL.Query()
	now := s.svc.Now()

	out := calendarQuery{
		Year:         now.Year(),
		Month:        now.Month(),
		FirstWeekday: s.cfg.FirstWeekday(),
		Limit:        s.cfg.CompactLimit,
		Lang:         q.Get("lang"),
	}

	var err error
	if out.Year, err = intParam(q.Get("year"), out.Year); err != nil {
		return out, fmt.Errorf("invalid year: %w", err)
	}
	m, err := intParam(q.Get("month"), int(out.Month))
	if err != nil {
		return out, fmt.Errorf("invalid month: %w", err)
	}
	out.Month = time.Month(m)

	if v := q.Get("week_start"); v != "" {
		wd, err := parseWeekday(v)
		if err != nil {
			return out, err
		}
		out.FirstWeekday = wd
	}
	if out.Platforms, err = parsePlatforms(q.Get("platform")); err != nil {
		return out, err
	}
	if out.Limit, err = intParam(q.Get("limit"), out.Limit); err != nil {
		return out, fmt.Errorf("invalid limit: %w", err)
	}
	return out, nil
}

// localizer prefers ?lang=, then Accept-Language, then the configured language.
func (s *Server) localizer(r *http.Request, lang string) *i18n.Localizer {
	if s.bundle == nil {
		return nil
	}
	prefs := make([]string, 0, 3)
	if lang != "" {
		prefs = append(prefs, lang)
	}
	if al := r.Header.Get("Accept-Language"); al != "" {
		prefs = append(prefs, al)
	}
	prefs = append(prefs, s.cfg.Language)
	return s.bundle.Localizer(prefs...)
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(strings.TrimSpace(v))
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// parseWeekday accepts an English day name or 0..6 (Sunday = 0).
func parseWeekday(v string) (time.Weekday, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if wd, ok := weekdayNames[v]; ok {
		return wd, nil
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 6 {
		return time.Weekday(n), nil
	}
	return 0, fmt.Errorf("invalid week_start %q", v)
}

// parsePlatforms reads a comma-separated platform list; empty means all.
func parsePlatforms(v string) ([]model.Platform, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	var out []model.Platform
	for _, part := range strings.Split(v, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		p, err := model.ParsePlatform(part)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
