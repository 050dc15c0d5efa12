package model

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Platform identifies the judge a contest is hosted on.
type Platform string

const (
	PlatformCodeforces Platform = "CODEFORCES"
	PlatformAtCoder    Platform = "ATCODER"
	PlatformNowCoder   Platform = "NOWCODER"
)

// Platforms lists every known platform in display order.
var Platforms = []Platform{PlatformCodeforces, PlatformAtCoder, PlatformNowCoder}

// ParsePlatform accepts any letter case.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Platforms {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// Label is the human name of the platform.
func (p Platform) Label() string {
	switch p {
	case PlatformCodeforces:
		return "Codeforces"
	case PlatformAtCoder:
		return "AtCoder"
	case PlatformNowCoder:
		return "NowCoder"
	default:
		return string(p)
	}
}

// Status is derived from the contest window relative to "now"; it is never stored.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusOngoing  Status = "ongoing"
	StatusFinished Status = "finished"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusUpcoming, StatusOngoing, StatusFinished:
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Contest is a single concrete contest occurrence. Values are treated as
// immutable once built.
type Contest struct {
	ID       string   `json:"id" validate:"required"`
	Name     string   `json:"name"`
	Platform Platform `json:"platform" validate:"required,oneof=CODEFORCES ATCODER NOWCODER"`
	URL      string   `json:"url,omitempty"`

	StartTime time.Time `json:"startTime" validate:"required"`
	EndTime   time.Time `json:"endTime" validate:"required,gtefield=StartTime"`

	// DurationMinutes is 0 when the source did not provide it.
	DurationMinutes int `json:"duration" validate:"gte=0"`
}

// Duration returns EndTime - StartTime.
func (c Contest) Duration() time.Duration {
	return c.EndTime.Sub(c.StartTime)
}

// Minutes returns the supplied duration, or derives it from the window.
func (c Contest) Minutes() int {
	if c.DurationMinutes > 0 {
		return c.DurationMinutes
	}
	return int(c.Duration() / time.Minute)
}

// StatusAt classifies the contest against now: before start is upcoming,
// [start, end) is ongoing, afterwards finished.
func (c Contest) StatusAt(now time.Time) Status {
	switch {
	case now.Before(c.StartTime):
		return StatusUpcoming
	case now.Before(c.EndTime):
		return StatusOngoing
	default:
		return StatusFinished
	}
}

// ErrMalformedContest is wrapped by every ValidateContest failure.
var ErrMalformedContest = errors.New("malformed contest")

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// ValidateContest reports why c cannot be placed on a calendar, or nil.
func ValidateContest(c Contest) error {
	if err := validatorInstance().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: field %s failed %q", ErrMalformedContest, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrMalformedContest, err)
	}
	if c.DurationMinutes > 0 {
		if derived := int(c.Duration() / time.Minute); derived != c.DurationMinutes {
			return fmt.Errorf("%w: duration %d min does not match window of %d min", ErrMalformedContest, c.DurationMinutes, derived)
		}
	}
	return nil
}
