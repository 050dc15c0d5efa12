package calendar

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpcal/internal/model"
)

// UTC+8: early-morning starts fall on the previous UTC date.
var shanghai = time.FixedZone("CST", 8*60*60)

func contest(id string, start time.Time, minutes int) model.Contest {
	return model.Contest{
		ID:              id,
		Name:            "contest " + id,
		Platform:        model.PlatformCodeforces,
		StartTime:       start,
		EndTime:         start.Add(time.Duration(minutes) * time.Minute),
		DurationMinutes: minutes,
	}
}

func ids(cs []model.Contest) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

func TestBuildMonthGrid_Completeness(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		first time.Weekday
		lead  int
		days  int
		weeks int
	}{
		{"leap february sunday start", 2024, time.February, time.Sunday, 4, 29, 5},
		{"leap february monday start", 2024, time.February, time.Monday, 3, 29, 5},
		{"non-leap february", 2023, time.February, time.Sunday, 3, 28, 5},
		{"century non-leap", 2100, time.February, time.Sunday, 1, 28, 5},
		{"four-hundred leap", 2000, time.February, time.Sunday, 2, 29, 5},
		{"exact four rows", 2015, time.February, time.Sunday, 0, 28, 4},
		{"six rows", 2025, time.March, time.Sunday, 6, 31, 6},
		{"thirty days", 2024, time.April, time.Sunday, 1, 30, 5},
		{"saturday start", 2024, time.December, time.Saturday, 1, 31, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := BuildMonthGrid(nil, tt.year, tt.month, Date{}, GridOptions{FirstWeekday: tt.first, Location: time.UTC})
			require.NoError(t, err)

			cells := g.Cells()
			assert.Equal(t, 0, len(cells)%7, "cell count must be whole weeks")
			assert.Len(t, g.Weeks, tt.weeks)
			assert.LessOrEqual(t, len(cells), 42)

			for i := 0; i < tt.lead; i++ {
				assert.Nil(t, cells[i], "leading blank %d", i)
			}
			require.NotNil(t, cells[tt.lead])
			assert.Equal(t, 1, cells[tt.lead].Date.Day)

			days := g.Days()
			require.Len(t, days, tt.days)
			for i, c := range days {
				assert.Equal(t, Date{Year: tt.year, Month: tt.month, Day: i + 1}, c.Date)
				assert.NotNil(t, c.Events)
				assert.Empty(t, c.Events)
			}
			for i := tt.lead + tt.days; i < len(cells); i++ {
				assert.Nil(t, cells[i], "trailing blank %d", i)
			}
		})
	}
}

func TestBuildMonthGrid_ColumnsMatchWeekdays(t *testing.T) {
	for _, first := range []time.Weekday{time.Sunday, time.Monday, time.Wednesday, time.Saturday} {
		g, err := BuildMonthGrid(nil, 2024, time.July, Date{}, GridOptions{FirstWeekday: first})
		require.NoError(t, err)
		for _, w := range g.Weeks {
			for col, c := range w {
				if c == nil {
					continue
				}
				want := time.Weekday((int(first) + col) % 7)
				assert.Equal(t, want, c.Date.Weekday(), "first=%s col=%d date=%s", first, col, c.Date)
			}
		}
	}
}

func TestBuildMonthGrid_LocalDateBucketing(t *testing.T) {
	// 23:30 local on March 4 is 15:30 UTC the same day; 07:30 local on
	// March 5 is 23:30 UTC on March 4.
	late := contest("late", time.Date(2024, 3, 4, 23, 30, 0, 0, shanghai), 120)
	early := contest("early", time.Date(2024, 3, 5, 7, 30, 0, 0, shanghai).UTC(), 90)

	g, err := BuildMonthGrid([]model.Contest{late, early}, 2024, time.March, Date{}, GridOptions{Location: shanghai})
	require.NoError(t, err)

	assert.Equal(t, []string{"late"}, ids(g.Day(Date{2024, time.March, 4}).Events))
	assert.Equal(t, []string{"early"}, ids(g.Day(Date{2024, time.March, 5}).Events))

	// The same instants read in UTC land on the UTC dates.
	g, err = BuildMonthGrid([]model.Contest{late, early}, 2024, time.March, Date{}, GridOptions{Location: time.UTC})
	require.NoError(t, err)
	assert.Equal(t, []string{"late", "early"}, ids(g.Day(Date{2024, time.March, 4}).Events))
	assert.Empty(t, g.Day(Date{2024, time.March, 5}).Events)

	// West of UTC: 23:30 local on March 4 is already March 5 in UTC.
	newYork := time.FixedZone("EST", -5*60*60)
	night := contest("night", time.Date(2024, 3, 4, 23, 30, 0, 0, newYork).UTC(), 120)
	g, err = BuildMonthGrid([]model.Contest{night}, 2024, time.March, Date{}, GridOptions{Location: newYork})
	require.NoError(t, err)
	assert.Equal(t, []string{"night"}, ids(g.Day(Date{2024, time.March, 4}).Events))
	assert.Empty(t, g.Day(Date{2024, time.March, 5}).Events)
}

func TestBuildMonthGrid_DeterministicOrdering(t *testing.T) {
	base := time.Date(2024, 5, 18, 20, 0, 0, 0, shanghai)
	events := []model.Contest{
		contest("x", base, 100),
		contest("w", base, 100),
		contest("a", base.Add(2*time.Hour), 120),
		contest("b", base.Add(-time.Hour), 90),
		contest("m", base.Add(time.Hour), 60),
		contest("n", base.Add(24*time.Hour), 60),
	}

	ref, err := BuildMonthGrid(events, 2024, time.May, Date{}, GridOptions{Location: shanghai})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "w", "x", "m", "a"}, ids(ref.Day(Date{2024, time.May, 18}).Events))
	assert.Equal(t, []string{"n"}, ids(ref.Day(Date{2024, time.May, 19}).Events))

	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]model.Contest(nil), events...)
		rnd.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		g, err := BuildMonthGrid(shuffled, 2024, time.May, Date{}, GridOptions{Location: shanghai})
		require.NoError(t, err)
		assert.Equal(t, ref, g)
	}
}

func TestBuildMonthGrid_TieBreakByID(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	x := contest("x", start, 60)
	w := contest("w", start, 60)

	for _, in := range [][]model.Contest{{x, w}, {w, x}} {
		g, err := BuildMonthGrid(in, 2024, time.June, Date{}, GridOptions{Location: time.UTC})
		require.NoError(t, err)
		assert.Equal(t, []string{"w", "x"}, ids(g.Day(Date{2024, time.June, 1}).Events))
	}
}

func TestBuildMonthGrid_IsToday(t *testing.T) {
	today := Date{2024, time.February, 14}
	g, err := BuildMonthGrid(nil, 2024, time.February, today, GridOptions{})
	require.NoError(t, err)

	var marked []Date
	for _, c := range g.Days() {
		if c.IsToday {
			marked = append(marked, c.Date)
		}
	}
	assert.Equal(t, []Date{today}, marked)

	g, err = BuildMonthGrid(nil, 2024, time.March, today, GridOptions{})
	require.NoError(t, err)
	for _, c := range g.Days() {
		assert.False(t, c.IsToday)
	}
}

func TestBuildMonthGrid_Idempotent(t *testing.T) {
	events := []model.Contest{
		contest("a", time.Date(2024, 8, 3, 20, 0, 0, 0, shanghai), 100),
		contest("b", time.Date(2024, 8, 3, 22, 35, 0, 0, shanghai), 120),
	}
	snapshot := append([]model.Contest(nil), events...)
	today := Date{2024, time.August, 3}

	g1, err := BuildMonthGrid(events, 2024, time.August, today, GridOptions{Location: shanghai, FirstWeekday: time.Monday})
	require.NoError(t, err)
	g2, err := BuildMonthGrid(events, 2024, time.August, today, GridOptions{Location: shanghai, FirstWeekday: time.Monday})
	require.NoError(t, err)

	assert.Equal(t, g1, g2)
	assert.Equal(t, snapshot, events, "input must not be mutated")
}

func TestBuildMonthGrid_LeapDayScenario(t *testing.T) {
	a := contest("a", time.Date(2024, 2, 29, 23, 0, 0, 0, shanghai), 60)
	b := contest("b", time.Date(2024, 3, 1, 0, 30, 0, 0, shanghai), 60)

	g, err := BuildMonthGrid([]model.Contest{b, a}, 2024, time.February, Date{}, GridOptions{Location: shanghai})
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, ids(g.Day(Date{2024, time.February, 29}).Events))
	for _, c := range g.Days() {
		for _, ev := range c.Events {
			assert.NotEqual(t, "b", ev.ID)
		}
	}
	assert.Empty(t, g.Rejected, "out-of-month contests are dropped, not rejected")
}

func TestBuildMonthGrid_EmptyInput(t *testing.T) {
	g, err := BuildMonthGrid([]model.Contest{}, 2024, time.February, Date{2024, time.February, 1}, GridOptions{})
	require.NoError(t, err)
	days := g.Days()
	require.Len(t, days, 29)
	for _, c := range days {
		assert.NotNil(t, c.Events)
		assert.Len(t, c.Events, 0)
	}
}

func TestBuildMonthGrid_RejectsMalformed(t *testing.T) {
	start := time.Date(2024, 2, 10, 20, 0, 0, 0, time.UTC)
	good := contest("good", start, 60)
	backwards := contest("backwards", start, 60)
	backwards.EndTime = start.Add(-time.Hour)
	backwards.DurationMinutes = 0
	noID := contest("", start, 60)

	g, err := BuildMonthGrid([]model.Contest{backwards, good, noID}, 2024, time.February, Date{}, GridOptions{Location: time.UTC})
	require.NoError(t, err)

	assert.Equal(t, []string{"good"}, ids(g.Day(Date{2024, time.February, 10}).Events))
	require.Len(t, g.Rejected, 2)
	assert.Equal(t, "backwards", g.Rejected[0].Contest.ID)
	assert.Contains(t, g.Rejected[0].Reason, "malformed contest")
}

func TestBuildMonthGrid_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		first time.Weekday
		want  error
	}{
		{"month zero", 2024, 0, time.Sunday, ErrInvalidMonth},
		{"month thirteen", 2024, 13, time.Sunday, ErrInvalidMonth},
		{"year zero", 0, time.January, time.Sunday, ErrInvalidMonth},
		{"year too large", 10000, time.January, time.Sunday, ErrInvalidMonth},
		{"weekday out of range", 2024, time.January, time.Weekday(7), ErrInvalidWeekday},
		{"negative weekday", 2024, time.January, time.Weekday(-1), ErrInvalidWeekday},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildMonthGrid(nil, tt.year, tt.month, Date{}, GridOptions{FirstWeekday: tt.first})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want))
		})
	}
}

func TestPreview(t *testing.T) {
	start := time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC)
	var events []model.Contest
	for i, id := range []string{"a", "b", "c", "d", "e"} {
		events = append(events, contest(id, start.Add(time.Duration(i)*time.Hour), 60))
	}
	g, err := BuildMonthGrid(events, 2024, time.February, Date{}, GridOptions{Location: time.UTC})
	require.NoError(t, err)
	cell := g.Day(Date{2024, time.February, 10})

	compact := cell.Preview(DefaultCompactLimit)
	assert.Equal(t, []string{"a", "b"}, ids(compact.Shown))
	assert.Equal(t, 3, compact.More)

	expanded := cell.Preview(0)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids(expanded.Shown))
	assert.Equal(t, 0, expanded.More)

	fits := cell.Preview(10)
	assert.Len(t, fits.Shown, 5)
	assert.Equal(t, 0, fits.More)

	var blank *DayCell
	assert.Equal(t, Preview{Shown: []model.Contest{}}, blank.Preview(2))

	// Appending to the head must not clobber the cell.
	_ = append(compact.Shown, contest("z", start, 60))
	assert.Equal(t, "c", cell.Events[2].ID)
}
