package i18n

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadBundle(t *testing.T) *Bundle {
	t.Helper()
	b, err := Load()
	require.NoError(t, err)
	return b
}

func TestLoad(t *testing.T) {
	b := loadBundle(t)
	assert.ElementsMatch(t, []string{"en", "zh"}, b.Languages())
}

// Every key of the English file must exist in every other locale.
func TestLocaleKeysMatch(t *testing.T) {
	read := func(name string) map[string]any {
		data, err := localeFS.ReadFile("locales/" + name)
		require.NoError(t, err)
		var m map[string]any
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	}
	en := read("active.en.json")
	zh := read("active.zh.json")
	for k := range en {
		assert.Contains(t, zh, k)
	}
	assert.Len(t, zh, len(en))
}

func TestLocalizer(t *testing.T) {
	b := loadBundle(t)
	en := b.Localizer("en")
	zh := b.Localizer("zh")

	assert.Equal(t, "+1 contest", en.More(1))
	assert.Equal(t, "+3 contests", en.More(3))
	assert.Equal(t, "+3 场比赛", zh.More(3))

	assert.Equal(t, "March 2025", en.MonthTitle(2025, time.March))
	assert.Equal(t, "2025年 三月", zh.MonthTitle(2025, time.March))

	assert.Equal(t, []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}, en.Weekdays(time.Monday))
	assert.Equal(t, []string{"日", "一", "二", "三", "四", "五", "六"}, zh.Weekdays(time.Sunday))

	assert.Equal(t, "2h 30m", en.Duration(150))
	assert.Equal(t, "2小时", zh.Duration(120))
	assert.Equal(t, "45分钟", zh.Duration(45))

	assert.Equal(t, "", en.Strength("none"))
	assert.Equal(t, "中等", zh.Strength("medium"))
	assert.Equal(t, "Contains a digit", en.Rule("number"))
	assert.Equal(t, "今天", zh.Msg(KeyToday))
}

func TestLocalizer_Fallbacks(t *testing.T) {
	b := loadBundle(t)

	assert.Equal(t, "今天", b.Localizer("fr").Msg(KeyToday), "unknown language uses the default")
	assert.Equal(t, "Today", b.Localizer("en-US,en;q=0.9").Msg(KeyToday))
	assert.Equal(t, "NoSuchKey", b.Localizer("en").Msg("NoSuchKey"))

	var nilLoc *Localizer
	assert.Equal(t, KeyToday, nilLoc.Msg(KeyToday))
}
