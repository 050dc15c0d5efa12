package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"cpcal/internal/calendar"
	"cpcal/internal/contest"
	"cpcal/internal/i18n"
	appLog "cpcal/internal/log"
	"cpcal/internal/model"
	"cpcal/internal/password"
)

// contestDTO is a contest with its derived status and display labels.
type contestDTO struct {
	model.Contest
	Status        model.Status `json:"status"`
	PlatformLabel string       `json:"platform_label"`
	DurationLabel string       `json:"duration_label,omitempty"`
	TimeLabel     string       `json:"time_label"`
}

type dayDTO struct {
	Date      calendar.Date `json:"date"`
	Day       int           `json:"day"`
	IsToday   bool          `json:"is_today"`
	Total     int           `json:"total"`
	Contests  []contestDTO  `json:"shown"`
	More      int           `json:"more"`
	MoreLabel string        `json:"more_label,omitempty"`
	// Hidden holds the contests behind MoreLabel for the page's hover list.
	Hidden []contestDTO `json:"-"`
}

// calendarView is shared by /api/calendar and the HTML page.
type calendarView struct {
	Year         int           `json:"year"`
	Month        time.Month    `json:"month"`
	Title        string        `json:"title"`
	FirstWeekday string        `json:"week_start"`
	Weekdays     []string      `json:"weekdays"`
	Timezone     string        `json:"timezone"`
	Today        calendar.Date `json:"today"`
	Limit        int           `json:"limit"`
	Weeks        [][]*dayDTO   `json:"weeks"`
	Rejected     int           `json:"rejected"`
	// Complete is false when the month lies outside the last refresh window.
	Complete   bool             `json:"complete"`
	Lang       string           `json:"-"`
	ExpandURL  string           `json:"-"`
	TodayLabel string           `json:"-"`
	Platforms  []model.Platform `json:"-"`
}

func (s *Server) toDTO(c model.Contest, now time.Time, loc *i18n.Localizer) contestDTO {
	dto := contestDTO{
		Contest:       c,
		Status:        c.StatusAt(now),
		PlatformLabel: c.Platform.Label(),
		TimeLabel:     c.StartTime.In(s.svc.Location()).Format("15:04"),
	}
	if loc != nil {
		dto.DurationLabel = loc.Duration(c.Minutes())
	}
	return dto
}

// buildView runs the grouper for q and converts the grid into display rows.
func (s *Server) buildView(r *http.Request, q calendarQuery) (calendarView, error) {
	grid, err := s.svc.MonthGrid(q.Year, q.Month, q.Platforms, q.FirstWeekday)
	if err != nil {
		return calendarView{}, err
	}
	if n := len(grid.Rejected); n > 0 {
		for _, rej := range grid.Rejected {
			appLog.Debug("contest excluded from grid", "id", rej.Contest.ID, "reason", rej.Reason)
		}
		s.metrics.Rejected(n)
	}

	loc := s.localizer(r, q.Lang)
	now := s.svc.Now()

	view := calendarView{
		Year:         grid.Year,
		Month:        grid.Month,
		FirstWeekday: grid.FirstWeekday.String(),
		Timezone:     s.svc.Location().String(),
		Today:        s.svc.Today(),
		Limit:        q.Limit,
		Rejected:     len(grid.Rejected),
		Complete:     s.svc.Covers(grid.Year, grid.Month),
		Lang:         q.Lang,
		ExpandURL:    expandURL(r),
		Platforms:    model.Platforms,
		Weeks:        make([][]*dayDTO, 0, len(grid.Weeks)),
	}
	if loc != nil {
		view.Title = loc.MonthTitle(grid.Year, grid.Month)
		view.Weekdays = loc.Weekdays(grid.FirstWeekday)
		view.TodayLabel = loc.Msg(i18n.KeyToday)
	} else {
		view.Title = fmt.Sprintf("%s %d", grid.Month, grid.Year)
		view.Weekdays = make([]string, 7)
		for i := range view.Weekdays {
			view.Weekdays[i] = ((grid.FirstWeekday + time.Weekday(i)) % 7).String()[:3]
		}
		view.TodayLabel = "Today"
	}

	for _, week := range grid.Weeks {
		row := make([]*dayDTO, 7)
		for i, cell := range week {
			if cell == nil {
				continue
			}
			p := cell.Preview(q.Limit)
			day := &dayDTO{
				Date:     cell.Date,
				Day:      cell.Date.Day,
				IsToday:  cell.IsToday,
				Total:    len(cell.Events),
				Contests: make([]contestDTO, 0, len(p.Shown)),
				More:     p.More,
			}
			for _, c := range p.Shown {
				day.Contests = append(day.Contests, s.toDTO(c, now, loc))
			}
			if p.More > 0 {
				for _, c := range cell.Events[len(p.Shown):] {
					day.Hidden = append(day.Hidden, s.toDTO(c, now, loc))
				}
				if loc != nil {
					day.MoreLabel = loc.More(p.More)
				} else {
					day.MoreLabel = fmt.Sprintf("+%d", p.More)
				}
			}
			row[i] = day
		}
		view.Weeks = append(view.Weeks, row)
	}
	return view, nil
}

// expandURL is the month page for the same query with every contest listed.
func expandURL(r *http.Request) string {
	q := r.URL.Query()
	q.Set("limit", "0")
	return (&url.URL{Path: "/calendar", RawQuery: q.Encode()}).String()
}

// handleCalendar returns the month grid.
//
// GET /api/calendar?year=2025&month=3&week_start=monday&platform=ATCODER&limit=2&lang=en
//   - month is 1-based
//   - limit <= 0 returns every contest of each day
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseCalendarQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := s.buildView(r, q)
	if err != nil {
		if errors.Is(err, calendar.ErrInvalidMonth) || errors.Is(err, calendar.ErrInvalidWeekday) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		appLog.Error("api calendar: build failed", err)
		writeError(w, http.StatusInternalServerError, "failed to build calendar")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleContests lists contests.
//
// GET /api/contests?platform=CODEFORCES,ATCODER&status=upcoming&year=2025&month=3
func (s *Server) handleContests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var f contest.Filter
	var err error
	if f.Platforms, err = parsePlatforms(q.Get("platform")); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if v := q.Get("status"); v != "" {
		if f.Status, err = model.ParseStatus(v); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if q.Get("year") != "" || q.Get("month") != "" {
		year, yerr := intParam(q.Get("year"), s.svc.Now().Year())
		month, merr := intParam(q.Get("month"), 0)
		if yerr != nil || merr != nil || month < 1 || month > 12 {
			writeError(w, http.StatusBadRequest, "invalid year/month")
			return
		}
		f.Year, f.Month = year, time.Month(month)
	}

	loc := s.localizer(r, q.Get("lang"))
	now := s.svc.Now()
	contests := s.svc.List(f)
	out := make([]contestDTO, 0, len(contests))
	for _, c := range contests {
		out = append(out, s.toDTO(c, now, loc))
	}
	writeJSON(w, http.StatusOK, out)
}

type passwordRequest struct {
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

type ruleDTO struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Passed bool   `json:"passed"`
}

type passwordResponse struct {
	Strength int            `json:"strength"`
	Level    password.Level `json:"level"`
	Label    string         `json:"label"`
	Valid    bool           `json:"valid"`
	Rules    []ruleDTO      `json:"rules"`
	Match    struct {
		password.MatchResult
		Label string `json:"label,omitempty"`
	} `json:"match"`
}

// handlePasswordCheck scores a password and its confirmation.
//
// POST /api/password/check {"password": "...", "confirm": "..."}
func (s *Server) handlePasswordCheck(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	loc := s.localizer(r, r.URL.Query().Get("lang"))
	res := password.Evaluate(req.Password)
	match := password.Match(req.Password, req.Confirm)
	s.metrics.PasswordChecked(string(res.Level))

	resp := passwordResponse{
		Strength: res.Strength,
		Level:    res.Level,
		Valid:    res.Valid,
		Rules:    make([]ruleDTO, 0, len(res.Rules)),
	}
	resp.Match.MatchResult = match
	for _, rr := range res.Rules {
		d := ruleDTO{ID: rr.ID, Passed: rr.Passed}
		if loc != nil {
			d.Label = loc.Rule(rr.ID)
		}
		resp.Rules = append(resp.Rules, d)
	}
	if loc != nil {
		resp.Label = loc.Strength(string(res.Level))
		if match.ShowStatus {
			if match.Matching {
				resp.Match.Label = loc.Msg(i18n.KeyPasswordsMatch)
			} else {
				resp.Match.Label = loc.Msg(i18n.KeyPasswordsMismatch)
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type refreshResponse struct {
	contest.Report
	Error string `json:"error,omitempty"`
}

// handleRefresh re-fetches every feed. Partial failures still return 200
// with the failed feed IDs.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Refresh(r.Context())
	if errors.Is(err, contest.ErrNoSources) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	resp := refreshResponse{Report: report}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
