// Package contest keeps the in-memory contest snapshot built from feeds and
// answers list and month-grid queries against it.
package contest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"cpcal/internal/calendar"
	"cpcal/internal/ics"
	appLog "cpcal/internal/log"
	"cpcal/internal/metrics"
	"cpcal/internal/model"
)

const defaultHorizonDays = 62

// monthPadDays widens MonthWindow so contests straddling the month edges and
// zone offsets are still read in.
const monthPadDays = 7

var (
	// ErrNoSources is returned by Refresh when nothing is configured.
	ErrNoSources = errors.New("contest: no feeds configured")
	// ErrInvalidRange is returned by RefreshRange when end is not after start.
	ErrInvalidRange = errors.New("contest: invalid refresh range")
)

// Fetcher is the part of ics.Fetcher the service needs.
type Fetcher interface {
	FetchAll(ctx context.Context, sources []ics.Source) ([]ics.FetchResult, []error)
}

// Options configures a Service.
type Options struct {
	Sources  []ics.Source
	Fetcher  Fetcher
	Location *time.Location
	Clock    Clock
	Metrics  *metrics.Metrics

	// HorizonDays / BackfillDays bound the expansion window around now.
	HorizonDays  int
	BackfillDays int
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Platforms []model.Platform
	Status    model.Status
	// Year and Month select contests starting in that local month; both
	// must be set for the month filter to apply.
	Year  int
	Month time.Month
}

// Report summarizes one Refresh.
type Report struct {
	Contests int       `json:"contests"`
	Rejected int       `json:"rejected"`
	Failed   []string  `json:"failed,omitempty"`
	At       time.Time `json:"at"`

	RangeStart time.Time `json:"range_start"`
	RangeEnd   time.Time `json:"range_end"`
}

// Service owns the current contest snapshot.
type Service struct {
	sources  []ics.Source
	fetcher  Fetcher
	loc      *time.Location
	clock    Clock
	metrics  *metrics.Metrics
	horizon  int
	backfill int

	refreshMu sync.Mutex

	mu          sync.RWMutex
	bySource    map[string][]model.Contest
	contests    []model.Contest
	lastRefresh time.Time
	// rangeStart/rangeEnd is the window of the last feed refresh; zero after
	// Replace, whose contests are not windowed.
	rangeStart time.Time
	rangeEnd   time.Time
}

// NewService builds a Service with an empty snapshot.
func NewService(opts Options) *Service {
	s := &Service{
		sources:  opts.Sources,
		fetcher:  opts.Fetcher,
		loc:      opts.Location,
		clock:    opts.Clock,
		metrics:  opts.Metrics,
		horizon:  opts.HorizonDays,
		backfill: opts.BackfillDays,
		bySource: make(map[string][]model.Contest),
		contests: []model.Contest{},
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.clock == nil {
		s.clock = RealClock{}
	}
	if s.horizon <= 0 {
		s.horizon = defaultHorizonDays
	}
	if s.backfill < 0 {
		s.backfill = 0
	}
	return s
}

// Location is the timezone contests are bucketed in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Now reads the service clock in the service location.
func (s *Service) Now() time.Time {
	return s.clock.Now().In(s.loc)
}

// Today is the local date of Now.
func (s *Service) Today() calendar.Date {
	return calendar.DateOf(s.Now())
}

// Replace swaps the snapshot for contests directly, bypassing feeds.
// Malformed contests are dropped and counted.
func (s *Service) Replace(contests []model.Contest) Report {
	valid, rejected := s.validate("manual", contests)
	s.mu.Lock()
	s.bySource = map[string][]model.Contest{"manual": valid}
	s.rangeStart, s.rangeEnd = time.Time{}, time.Time{}
	s.rebuildLocked()
	s.lastRefresh = s.clock.Now()
	n := len(s.contests)
	s.mu.Unlock()

	s.publish()
	return Report{Contests: n, Rejected: rejected, At: s.lastRefresh}
}

// Window is the range Refresh reads contests in: backfill days before now
// up to horizon days after it.
func (s *Service) Window() (start, end time.Time) {
	now := s.Now()
	return now.AddDate(0, 0, -s.backfill), now.AddDate(0, 0, s.horizon)
}

// MonthWindow spans the local month in loc, padded by a week on each side.
func MonthWindow(year int, month time.Month, loc *time.Location) (start, end time.Time) {
	if loc == nil {
		loc = time.Local
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return first.AddDate(0, 0, -monthPadDays), first.AddDate(0, 1, monthPadDays)
}

// Covers reports whether the last refresh window includes the whole local
// month. It is true before the first refresh and after Replace.
func (s *Service) Covers(year int, month time.Month) bool {
	s.mu.RLock()
	start, end := s.rangeStart, s.rangeEnd
	s.mu.RUnlock()
	if start.IsZero() && end.IsZero() {
		return true
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, s.loc)
	return !first.Before(start) && !first.AddDate(0, 1, 0).After(end)
}

// Refresh runs RefreshRange over Window.
func (s *Service) Refresh(ctx context.Context) (Report, error) {
	start, end := s.Window()
	return s.RefreshRange(ctx, start, end)
}

// RefreshRange fetches every source, decodes contests overlapping
// [rangeStart, rangeEnd] and swaps the snapshot. A source that fails keeps
// its contests from the previous refresh. The returned error joins
// per-source failures.
func (s *Service) RefreshRange(ctx context.Context, rangeStart, rangeEnd time.Time) (Report, error) {
	if len(s.sources) == 0 || s.fetcher == nil {
		return Report{}, ErrNoSources
	}
	if !rangeEnd.After(rangeStart) {
		return Report{}, fmt.Errorf("%w: %s - %s", ErrInvalidRange,
			rangeStart.Format(time.RFC3339), rangeEnd.Format(time.RFC3339))
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	appLog.Info("contest refresh start",
		"sources", len(s.sources),
		"range_start", rangeStart.Format(time.RFC3339),
		"range_end", rangeEnd.Format(time.RFC3339),
	)

	results, fetchErrs := s.fetcher.FetchAll(ctx, s.sources)
	errs := slices.Clone(fetchErrs)

	fresh := make(map[string][]model.Contest, len(results))
	fetched := make(map[string]bool, len(results))
	report := Report{RangeStart: rangeStart, RangeEnd: rangeEnd}
	for _, res := range results {
		fetched[res.Source.ID] = true
		contests, err := s.decode(res.Source, res.Body, rangeStart, rangeEnd)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Source.ID, err))
			s.metrics.FeedRefreshed(res.Source.ID, metrics.ResultError)
			continue
		}
		valid, rejected := s.validate(res.Source.ID, contests)
		report.Rejected += rejected
		fresh[res.Source.ID] = valid

		result := metrics.ResultOK
		if res.FromCache {
			result = metrics.ResultCached
		}
		s.metrics.FeedRefreshed(res.Source.ID, result)
	}

	for _, src := range s.sources {
		if _, ok := fresh[src.ID]; !ok {
			report.Failed = append(report.Failed, src.ID)
		}
		if !fetched[src.ID] {
			s.metrics.FeedRefreshed(src.ID, metrics.ResultError)
		}
	}

	s.mu.Lock()
	for id, cs := range fresh {
		s.bySource[id] = cs
	}
	s.rangeStart, s.rangeEnd = rangeStart, rangeEnd
	s.rebuildLocked()
	s.lastRefresh = s.clock.Now()
	report.Contests = len(s.contests)
	report.At = s.lastRefresh
	s.mu.Unlock()

	s.publish()

	err := errors.Join(errs...)
	if err != nil {
		appLog.Error("contest refresh finished with errors", err, "failed", len(report.Failed))
	}
	appLog.Info("contest refresh done", "contests", report.Contests, "rejected", report.Rejected)
	return report, err
}

func (s *Service) decode(src ics.Source, body []byte, rangeStart, rangeEnd time.Time) ([]model.Contest, error) {
	switch src.Format {
	case ics.FormatJSON:
		contests, err := ics.ParseJSON(src, body, s.loc)
		if err != nil {
			return nil, err
		}
		// Undated entries stay so validation can count them.
		return slices.DeleteFunc(contests, func(c model.Contest) bool {
			if c.StartTime.IsZero() || c.EndTime.IsZero() {
				return false
			}
			return c.EndTime.Before(rangeStart) || c.StartTime.After(rangeEnd)
		}), nil
	case ics.FormatICS, "":
		events, err := ics.ParseICS(src, body)
		if err != nil {
			return nil, err
		}
		res, err := ics.ExpandOccurrences(events, ics.ExpandConfig{
			DisplayLocation: s.loc,
			RangeStart:      rangeStart,
			RangeEnd:        rangeEnd,
		})
		if err != nil {
			return nil, err
		}
		return res.Contests, nil
	default:
		return nil, fmt.Errorf("unknown feed format %q", src.Format)
	}
}

func (s *Service) validate(sourceID string, contests []model.Contest) ([]model.Contest, int) {
	valid := make([]model.Contest, 0, len(contests))
	rejected := 0
	for _, c := range contests {
		if err := model.ValidateContest(c); err != nil {
			rejected++
			appLog.Debug("contest rejected", "source", sourceID, "id", c.ID, "reason", err.Error())
			continue
		}
		valid = append(valid, c)
	}
	if rejected > 0 {
		appLog.Info("malformed contests dropped", "source", sourceID, "count", rejected)
		s.metrics.Rejected(rejected)
	}
	return valid, rejected
}

// rebuildLocked merges per-source contests, keeping the first contest seen
// for an ID in source order. Caller holds s.mu.
func (s *Service) rebuildLocked() {
	order := make([]string, 0, len(s.bySource))
	for _, src := range s.sources {
		order = append(order, src.ID)
	}
	for id := range s.bySource {
		if !slices.Contains(order, id) {
			order = append(order, id)
		}
	}

	seen := make(map[string]struct{})
	merged := make([]model.Contest, 0)
	for _, id := range order {
		for _, c := range s.bySource[id] {
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
			merged = append(merged, c)
		}
	}
	calendar.SortContests(merged)
	s.contests = merged
}

func (s *Service) publish() {
	if s.metrics == nil {
		return
	}
	s.mu.RLock()
	counts := make(map[string]int, len(model.Platforms))
	for _, c := range s.contests {
		counts[string(c.Platform)]++
	}
	at := s.lastRefresh
	s.mu.RUnlock()

	s.metrics.SetContests(counts)
	s.metrics.RefreshCompleted(at)
}

// LastRefresh is the time of the last completed refresh, zero before the first.
func (s *Service) LastRefresh() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefresh
}

// All returns a copy of the snapshot ordered by start time, then id.
func (s *Service) All() []model.Contest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.contests)
}

// List returns the contests matching f, ordered by start time, then id.
func (s *Service) List(f Filter) []model.Contest {
	now := s.clock.Now()
	all := s.All()
	out := all[:0]
	for _, c := range all {
		if !matchPlatform(c, f.Platforms) {
			continue
		}
		if f.Status != "" && c.StatusAt(now) != f.Status {
			continue
		}
		if f.Year != 0 && f.Month != 0 {
			local := c.StartTime.In(s.loc)
			if local.Year() != f.Year || local.Month() != f.Month {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// MonthGrid lays out the snapshot for one month. Empty platforms means all.
// A month outside the last refresh window is logged, since its grid only
// holds whatever part of the window overlaps it.
func (s *Service) MonthGrid(year int, month time.Month, platforms []model.Platform, firstWeekday time.Weekday) (calendar.Grid, error) {
	contests := s.List(Filter{Platforms: platforms})
	grid, err := calendar.BuildMonthGrid(contests, year, month, s.Today(), calendar.GridOptions{
		FirstWeekday: firstWeekday,
		Location:     s.loc,
	})
	if err != nil {
		return calendar.Grid{}, err
	}
	if !s.Covers(year, month) {
		appLog.Info("month outside refresh window; grid may be incomplete",
			"year", year, "month", int(month))
	}
	s.metrics.GridBuilt()
	return grid, nil
}

func matchPlatform(c model.Contest, platforms []model.Platform) bool {
	if len(platforms) == 0 {
		return true
	}
	return slices.Contains(platforms, c.Platform)
}
