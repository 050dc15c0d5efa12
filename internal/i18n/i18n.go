// Package i18n provides the en/zh labels of the calendar page and API.
package i18n

import (
	"embed"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	appLog "cpcal/internal/log"
)

//go:embed locales/*.json
var localeFS embed.FS

// DefaultLanguage is used when a request names nothing we ship.
const DefaultLanguage = "zh"

// Message IDs.
const (
	KeyCalendarTitle        = "CalendarTitle"
	KeyMonthTitle           = "MonthTitle"
	KeyToday                = "Today"
	KeyNoContests           = "NoContests"
	KeyOpenContest          = "OpenContest"
	KeyMoreContests         = "MoreContests"
	KeyDurationHours        = "DurationHours"
	KeyDurationMinutes      = "DurationMinutes"
	KeyDurationHoursMinutes = "DurationHoursMinutes"
	KeyPasswordsMatch       = "PasswordsMatch"
	KeyPasswordsMismatch    = "PasswordsMismatch"
)

// Bundle holds every embedded locale.
type Bundle struct {
	bundle    *goi18n.Bundle
	languages []string
}

// Load reads locales/active.<lang>.json from the embedded filesystem.
func Load() (*Bundle, error) {
	bundle := goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, err
	}

	b := &Bundle{bundle: bundle}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			continue
		}
		lang := strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json")
		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			return nil, err
		}
		b.languages = append(b.languages, lang)
		appLog.Debug("locale loaded", "lang", lang)
	}
	return b, nil
}

// Languages lists the loaded language codes.
func (b *Bundle) Languages() []string {
	return append([]string(nil), b.languages...)
}

// Localizer picks the first supported language from prefs, which may be
// plain codes ("en") or Accept-Language values.
func (b *Bundle) Localizer(prefs ...string) *Localizer {
	prefs = append(prefs, DefaultLanguage)
	return &Localizer{l: goi18n.NewLocalizer(b.bundle, prefs...)}
}

// Localizer renders messages for one language preference list.
type Localizer struct {
	l *goi18n.Localizer
}

func (l *Localizer) localize(cfg *goi18n.LocalizeConfig) string {
	if l == nil || l.l == nil {
		return cfg.MessageID
	}
	msg, err := l.l.Localize(cfg)
	if err != nil {
		appLog.Debug("translation missing", "key", cfg.MessageID, "err", err.Error())
		return cfg.MessageID
	}
	return msg
}

// Msg translates key, returning key itself when it is unknown.
func (l *Localizer) Msg(key string) string {
	return l.localize(&goi18n.LocalizeConfig{MessageID: key})
}

// More is the "+K contests" line of a collapsed day cell.
func (l *Localizer) More(n int) string {
	return l.localize(&goi18n.LocalizeConfig{
		MessageID:    KeyMoreContests,
		TemplateData: map[string]any{"Count": n},
		PluralCount:  n,
	})
}

// Weekday is the short column header for d.
func (l *Localizer) Weekday(d time.Weekday) string {
	return l.Msg("Weekday" + strconv.Itoa(int(d)))
}

// Weekdays returns seven headers starting at first.
func (l *Localizer) Weekdays(first time.Weekday) []string {
	out := make([]string, 7)
	for i := range out {
		out[i] = l.Weekday((first + time.Weekday(i)) % 7)
	}
	return out
}

func (l *Localizer) MonthTitle(year int, month time.Month) string {
	return l.localize(&goi18n.LocalizeConfig{
		MessageID: KeyMonthTitle,
		TemplateData: map[string]any{
			"Year":  year,
			"Month": l.Msg("Month" + strconv.Itoa(int(month))),
		},
	})
}

// Duration renders a contest length such as "2h 30m" or "2小时30分钟".
func (l *Localizer) Duration(minutes int) string {
	h, m := minutes/60, minutes%60
	data := map[string]any{"Hours": h, "Minutes": m}
	switch {
	case h > 0 && m > 0:
		return l.localize(&goi18n.LocalizeConfig{MessageID: KeyDurationHoursMinutes, TemplateData: data})
	case h > 0:
		return l.localize(&goi18n.LocalizeConfig{MessageID: KeyDurationHours, TemplateData: data})
	default:
		return l.localize(&goi18n.LocalizeConfig{MessageID: KeyDurationMinutes, TemplateData: data})
	}
}

// Strength labels a password strength level; "none" has no label.
func (l *Localizer) Strength(level string) string {
	if level == "" || level == "none" {
		return ""
	}
	return l.Msg("Strength" + capitalize(level))
}

// Rule labels a password rule by its id ("length", "uppercase", ...).
func (l *Localizer) Rule(id string) string {
	return l.Msg("Rule" + capitalize(id))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
