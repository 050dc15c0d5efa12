package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysIn(t *testing.T) {
	assert.Equal(t, 31, DaysIn(2024, time.January))
	assert.Equal(t, 29, DaysIn(2024, time.February))
	assert.Equal(t, 28, DaysIn(2023, time.February))
	assert.Equal(t, 28, DaysIn(1900, time.February))
	assert.Equal(t, 29, DaysIn(2000, time.February))
	assert.Equal(t, 30, DaysIn(2024, time.November))
	assert.Equal(t, 31, DaysIn(2024, time.December))
}

func TestDateOfUsesLocation(t *testing.T) {
	instant := time.Date(2024, 2, 29, 16, 30, 0, 0, time.UTC)
	assert.Equal(t, Date{2024, time.February, 29}, DateOf(instant))
	assert.Equal(t, Date{2024, time.March, 1}, DateOf(instant.In(shanghai)))
}

func TestDateCompareAndAdd(t *testing.T) {
	d := Date{2024, time.February, 28}
	assert.Equal(t, Date{2024, time.February, 29}, d.AddDays(1))
	assert.Equal(t, Date{2024, time.March, 1}, d.AddDays(2))
	assert.Equal(t, Date{2023, time.December, 31}, Date{2024, time.January, 1}.AddDays(-1))

	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.After(Date{2023, time.December, 31}))
	assert.Equal(t, 0, d.Compare(Date{2024, time.February, 28}))
	assert.True(t, Date{}.IsZero())
	assert.Equal(t, time.Thursday, Date{2024, time.February, 1}.Weekday())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.String())

	_, err = ParseDate("2023-02-29")
	assert.Error(t, err)
	_, err = ParseDate("29/02/2024")
	assert.Error(t, err)
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(Date{2024, time.March, 5})
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-05"`, string(b))

	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-12-31"`), &d))
	assert.Equal(t, Date{2024, time.December, 31}, d)
}
