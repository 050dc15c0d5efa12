package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpcal/internal/calendar"
	"cpcal/internal/i18n"
	"cpcal/internal/model"
)

func contestAt(id, name string, start time.Time) model.Contest {
	return model.Contest{
		ID:        id,
		Name:      name,
		Platform:  model.PlatformCodeforces,
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
	}
}

func TestRenderGrid(t *testing.T) {
	day := func(d, h int) time.Time { return time.Date(2025, time.March, d, h, 0, 0, 0, time.UTC) }
	events := []model.Contest{
		contestAt("a", "Round A", day(12, 9)),
		contestAt("b", "Round B", day(12, 12)),
		contestAt("c", "Round C", day(12, 15)),
		contestAt("d", "Round D", day(5, 14)),
	}
	today := calendar.Date{Year: 2025, Month: time.March, Day: 10}
	grid, err := calendar.BuildMonthGrid(events, 2025, time.March, today, calendar.GridOptions{
		FirstWeekday: time.Sunday,
		Location:     time.UTC,
	})
	require.NoError(t, err)

	bundle, err := i18n.Load()
	require.NoError(t, err)

	var buf bytes.Buffer
	renderGrid(&buf, grid, bundle.Localizer("en"), 2, time.UTC)
	out := buf.String()
	lines := strings.Split(out, "\n")

	assert.Equal(t, "March 2025", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Sun"))
	assert.Contains(t, out, "09:00 Round A")
	assert.Contains(t, out, "12:00 Round B")
	assert.NotContains(t, out, "Round C")
	assert.Contains(t, out, "+1 contest")
	assert.Contains(t, out, "14:00 Round D")
	assert.Contains(t, out, "10*")
}

func TestRenderGridExpanded(t *testing.T) {
	start := time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC)
	events := []model.Contest{
		contestAt("a", "Round A", start),
		contestAt("b", "Round B", start.Add(time.Hour)),
		contestAt("c", "Round C", start.Add(2*time.Hour)),
	}
	grid, err := calendar.BuildMonthGrid(events, 2025, time.March, calendar.Date{}, calendar.GridOptions{
		FirstWeekday: time.Monday,
		Location:     time.UTC,
	})
	require.NoError(t, err)

	bundle, err := i18n.Load()
	require.NoError(t, err)

	var buf bytes.Buffer
	renderGrid(&buf, grid, bundle.Localizer("en"), 0, time.UTC)
	out := buf.String()

	assert.True(t, strings.HasPrefix(strings.Split(out, "\n")[1], "Mon"))
	assert.Contains(t, out, "Round C")
	assert.NotContains(t, out, "contest")
}

func TestPad(t *testing.T) {
	assert.Len(t, []rune(pad("abc")), cellWidth)
	assert.Len(t, []rune(pad("周赛周赛")), cellWidth)

	long := pad(strings.Repeat("x", 40))
	assert.Len(t, []rune(long), cellWidth)
	assert.True(t, strings.HasSuffix(long, "…"))
}
