package calendar

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	"cpcal/internal/model"
)

var (
	// ErrInvalidMonth is returned when year/month do not name a real month.
	ErrInvalidMonth = errors.New("calendar: invalid month")
	// ErrInvalidWeekday is returned for a first weekday outside Sunday..Saturday.
	ErrInvalidWeekday = errors.New("calendar: invalid first weekday")
)

const (
	minYear = 1
	maxYear = 9999
)

// GridOptions controls grid layout and local-date resolution.
type GridOptions struct {
	// FirstWeekday starts each row. The zero value is Sunday.
	FirstWeekday time.Weekday

	// Location is the viewer's timezone used to derive each contest's local
	// start date. If nil, time.Local is used.
	Location *time.Location
}

// DayCell is one dated position of the grid.
type DayCell struct {
	Date    Date            `json:"date"`
	IsToday bool            `json:"is_today"`
	Events  []model.Contest `json:"events"`
}

// Week is one row of the grid. Nil entries are blanks before the first or
// after the last day of the month.
type Week [7]*DayCell

// Rejected records a contest excluded from the grid and why.
type Rejected struct {
	Contest model.Contest `json:"contest"`
	Reason  string        `json:"reason"`
}

// Grid is a month laid out in whole weeks.
type Grid struct {
	Year         int          `json:"year"`
	Month        time.Month   `json:"month"`
	FirstWeekday time.Weekday `json:"first_weekday"`
	Weeks        []Week       `json:"weeks"`
	Rejected     []Rejected   `json:"rejected,omitempty"`
}

// Cells flattens the grid row by row. Blanks are nil.
func (g Grid) Cells() []*DayCell {
	out := make([]*DayCell, 0, len(g.Weeks)*7)
	for _, w := range g.Weeks {
		out = append(out, w[:]...)
	}
	return out
}

// Days returns only the dated cells, in date order.
func (g Grid) Days() []*DayCell {
	out := make([]*DayCell, 0, 31)
	for _, c := range g.Cells() {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// Day returns the cell for d, or nil if d is outside the month.
func (g Grid) Day(d Date) *DayCell {
	if d.Year != g.Year || d.Month != g.Month {
		return nil
	}
	for _, c := range g.Cells() {
		if c != nil && c.Date == d {
			return c
		}
	}
	return nil
}

// BuildMonthGrid buckets events into the days of the given month.
//
// month is 1-based (time.January == 1). Each event lands on the local date
// of its StartTime in opts.Location; events whose local date falls outside
// the month are dropped. Within a day events are ordered by StartTime, then
// by ID. Malformed events are excluded and listed in Grid.Rejected.
//
// today only drives IsToday; no clock is read.
func BuildMonthGrid(events []model.Contest, year int, month time.Month, today Date, opts GridOptions) (Grid, error) {
	if month < time.January || month > time.December || year < minYear || year > maxYear {
		return Grid{}, fmt.Errorf("%w: year=%d month=%d", ErrInvalidMonth, year, int(month))
	}
	if opts.FirstWeekday < time.Sunday || opts.FirstWeekday > time.Saturday {
		return Grid{}, fmt.Errorf("%w: %d", ErrInvalidWeekday, int(opts.FirstWeekday))
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	grid := Grid{Year: year, Month: month, FirstWeekday: opts.FirstWeekday}

	buckets := make(map[Date][]model.Contest)
	for _, ev := range events {
		if err := model.ValidateContest(ev); err != nil {
			grid.Rejected = append(grid.Rejected, Rejected{Contest: ev, Reason: err.Error()})
			continue
		}
		d := DateOf(ev.StartTime.In(loc))
		if d.Year != year || d.Month != month {
			continue
		}
		buckets[d] = append(buckets[d], ev)
	}
	for _, b := range buckets {
		slices.SortFunc(b, compareContests)
	}

	first := Date{Year: year, Month: month, Day: 1}
	lead := (int(first.Weekday()) - int(opts.FirstWeekday) + 7) % 7
	days := DaysIn(year, month)

	cells := make([]*DayCell, 0, 42)
	for i := 0; i < lead; i++ {
		cells = append(cells, nil)
	}
	for day := 1; day <= days; day++ {
		d := Date{Year: year, Month: month, Day: day}
		evs := buckets[d]
		if evs == nil {
			evs = []model.Contest{}
		}
		cells = append(cells, &DayCell{Date: d, IsToday: d == today, Events: evs})
	}
	for len(cells)%7 != 0 {
		cells = append(cells, nil)
	}

	grid.Weeks = make([]Week, 0, len(cells)/7)
	for i := 0; i < len(cells); i += 7 {
		var w Week
		copy(w[:], cells[i:i+7])
		grid.Weeks = append(grid.Weeks, w)
	}
	return grid, nil
}

// SortContests orders contests in place the same way grid cells are ordered.
func SortContests(cs []model.Contest) {
	slices.SortFunc(cs, compareContests)
}

func compareContests(a, b model.Contest) int {
	if c := a.StartTime.Compare(b.StartTime); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
