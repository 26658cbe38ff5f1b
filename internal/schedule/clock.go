// Package schedule computes when the next analysis batch is due.
//
// Trigger times are plain wall-clock HH:MM values; all date math happens in
// the configured IANA timezone so DST transitions keep the wall-clock time
// stable.
package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"tickerd/pkg/logx"
)

// TriggerTime is a time-of-day with no date or zone component.
type TriggerTime struct {
	Hour   int
	Minute int
}

func (t TriggerTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Label is the time-of-day directory label used in the report tree.
func (t TriggerTime) Label() string {
	return fmt.Sprintf("%02d-%02d", t.Hour, t.Minute)
}

func (t TriggerTime) before(o TriggerTime) bool {
	if t.Hour != o.Hour {
		return t.Hour < o.Hour
	}
	return t.Minute < o.Minute
}

// Parse parses a single 24h "HH:MM" value.
func Parse(s string) (TriggerTime, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return TriggerTime{}, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return TriggerTime{}, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return TriggerTime{}, fmt.Errorf("invalid minute in %q", s)
	}
	return TriggerTime{Hour: h, Minute: m}, nil
}

// ParseTriggerTimes parses a comma-separated HH:MM list into a sorted,
// de-duplicated set. Malformed entries are logged and skipped; the result may
// be empty.
func ParseTriggerTimes(raw string, log logx.Logger) []TriggerTime {
	var out []TriggerTime
	seen := map[TriggerTime]bool{}
	for _, candidate := range strings.Split(raw, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		tt, err := Parse(candidate)
		if err != nil {
			log.Warn("skipping invalid schedule entry", logx.String("entry", candidate), logx.Err(err))
			continue
		}
		if seen[tt] {
			continue
		}
		seen[tt] = true
		out = append(out, tt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].before(out[j]) })
	return out
}

// NextRunAfter returns the next instant at which tt should fire, strictly
// after now. A candidate equal to now counts as already passed so a batch
// never double-fires at the instant of computation. With skipWeekends the
// candidate is advanced day-by-day off Saturday/Sunday, after the
// same-or-next-day correction.
func NextRunAfter(now time.Time, tt TriggerTime, loc *time.Location, skipWeekends bool) time.Time {
	local := now.In(loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), tt.Hour, tt.Minute, 0, 0, loc)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	if skipWeekends {
		for candidate.Weekday() == time.Saturday || candidate.Weekday() == time.Sunday {
			candidate = candidate.AddDate(0, 0, 1)
		}
	}
	return candidate
}

// NextTrigger returns the earliest next instant across all configured times.
// ok is false when times is empty.
func NextTrigger(now time.Time, times []TriggerTime, loc *time.Location, skipWeekends bool) (next time.Time, ok bool) {
	for _, tt := range times {
		c := NextRunAfter(now, tt, loc, skipWeekends)
		if !ok || c.Before(next) {
			next, ok = c, true
		}
	}
	return next, ok
}

// LoadLocation resolves an IANA timezone name.
func LoadLocation(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return nil, fmt.Errorf("timezone is required")
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return loc, nil
}
