package calendar

import "cpcal/internal/model"

// DefaultCompactLimit is how many contests a collapsed day cell shows.
const DefaultCompactLimit = 2

// Preview is the display slice of a day cell: the first contests in grid
// order and how many were left out.
type Preview struct {
	Shown []model.Contest `json:"shown"`
	More  int             `json:"more"`
}

// Preview returns the first limit contests of the cell. A limit <= 0 is the
// expanded view and returns all of them.
func (c *DayCell) Preview(limit int) Preview {
	if c == nil {
		return Preview{Shown: []model.Contest{}}
	}
	return Truncate(c.Events, limit)
}

// Truncate splits events into a head of at most limit entries and a remainder
// count. The head shares the backing array with events.
func Truncate(events []model.Contest, limit int) Preview {
	if events == nil {
		events = []model.Contest{}
	}
	if limit <= 0 || len(events) <= limit {
		return Preview{Shown: events}
	}
	return Preview{Shown: events[:limit:limit], More: len(events) - limit}
}
