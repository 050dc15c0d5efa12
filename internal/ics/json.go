package ics

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	appLog "cpcal/internal/log"
	"cpcal/internal/model"
)

// localLayout is the zone-less timestamp shape some contest APIs emit;
// it is read in the display location.
const localLayout = "2006-01-02T15:04:05"

// jsonContest is the wire shape of a REST contest feed. Status is accepted
// but ignored; it is always derived from the clock.
type jsonContest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Platform  string `json:"platform"`
	URL       string `json:"url"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Duration  int    `json:"duration"`
	Status    string `json:"status,omitempty"`
}

// ParseJSON decodes a JSON array of contests. A missing platform falls back
// to the source platform. Timestamps that cannot be read are left zero so
// validation rejects the contest instead of misplacing it.
func ParseJSON(src Source, body []byte, loc *time.Location) ([]model.Contest, error) {
	if len(body) == 0 {
		return nil, errors.New("empty JSON body")
	}
	if loc == nil {
		loc = time.Local
	}

	var raw []jsonContest
	if err := json.Unmarshal(body, &raw); err != nil {
		appLog.Error("json feed decode failed", err, "id", src.ID, "url", redactURL(src.URL))
		return nil, err
	}

	out := make([]model.Contest, 0, len(raw))
	for _, rc := range raw {
		c := model.Contest{
			ID:              rc.ID,
			Name:            rc.Name,
			Platform:        src.Platform,
			URL:             rc.URL,
			DurationMinutes: rc.Duration,
		}
		if rc.Platform != "" {
			if p, err := model.ParsePlatform(rc.Platform); err == nil {
				c.Platform = p
			} else {
				c.Platform = model.Platform(rc.Platform)
			}
		}
		c.StartTime = parseFeedTime(rc.StartTime, loc)
		c.EndTime = parseFeedTime(rc.EndTime, loc)
		if c.EndTime.IsZero() && !c.StartTime.IsZero() && rc.Duration > 0 {
			c.EndTime = c.StartTime.Add(time.Duration(rc.Duration) * time.Minute)
		}
		out = append(out, c)
	}

	appLog.Info("json feed decoded", "id", src.ID, "contest_count", len(out))
	return out, nil
}

func parseFeedTime(v string, loc *time.Location) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.In(loc)
	}
	if t, err := time.ParseInLocation(localLayout, v, loc); err == nil {
		return t
	}
	return time.Time{}
}
