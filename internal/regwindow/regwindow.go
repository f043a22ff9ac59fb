// Package regwindow decides whether the weekly availability registration
// window is open.
//
// All arithmetic happens on a fixed UTC+7 civil clock with no daylight
// saving, in minutes since Sunday 00:00.
package regwindow

import (
	"fmt"
	"time"
)

const (
	minutesPerDay  = 24 * 60
	minutesPerWeek = 7 * minutesPerDay
	utcOffset      = 7 * time.Hour
)

// Zone is the civil clock the window is expressed in
var Zone = time.FixedZone("UTC+7", int(utcOffset/time.Second))

// Schedule is a weekly window. Days are 0=Sunday..6=Saturday.
type Schedule struct {
	Enabled     bool `json:"enabled"`
	OpenDay     int  `json:"open_day"`
	OpenHour    int  `json:"open_hour"`
	OpenMinute  int  `json:"open_minute"`
	CloseDay    int  `json:"close_day"`
	CloseHour   int  `json:"close_hour"`
	CloseMinute int  `json:"close_minute"`
}

// Validate checks field ranges
func (s Schedule) Validate() error {
	switch {
	case s.OpenDay < 0 || s.OpenDay > 6, s.CloseDay < 0 || s.CloseDay > 6:
		return fmt.Errorf("day must be within 0-6")
	case s.OpenHour < 0 || s.OpenHour > 23, s.CloseHour < 0 || s.CloseHour > 23:
		return fmt.Errorf("hour must be within 0-23")
	case s.OpenMinute < 0 || s.OpenMinute > 59, s.CloseMinute < 0 || s.CloseMinute > 59:
		return fmt.Errorf("minute must be within 0-59")
	}
	return nil
}

func (s Schedule) openTotal() int {
	return s.OpenDay*minutesPerDay + s.OpenHour*60 + s.OpenMinute
}

func (s Schedule) closeTotal() int {
	return s.CloseDay*minutesPerDay + s.CloseHour*60 + s.CloseMinute
}

// MinuteOfWeek converts an instant to minutes since Sunday 00:00 on the UTC+7 clock
func MinuteOfWeek(now time.Time) int {
	local := now.In(Zone)
	return int(local.Weekday())*minutesPerDay + local.Hour()*60 + local.Minute()
}

// IsOpen reports whether now falls inside the window. Enabled is not
// consulted; callers decide whether the schedule drives the flag at all.
//
// open < close: open on [open, close).
// open > close: the window wraps the week boundary.
// open == close: zero-width, always closed.
func IsOpen(s Schedule, now time.Time) bool {
	open, closeAt, cur := s.openTotal(), s.closeTotal(), MinuteOfWeek(now)
	if open <= closeAt {
		return cur >= open && cur < closeAt
	}
	return cur >= open || cur < closeAt
}

// NextTransition returns the next instant at or after now when IsOpen flips,
// or the zero time for a zero-width window.
func NextTransition(s Schedule, now time.Time) time.Time {
	open, closeAt := s.openTotal(), s.closeTotal()
	if open == closeAt {
		return time.Time{}
	}
	target := open
	if IsOpen(s, now) {
		target = closeAt
	}
	cur := MinuteOfWeek(now)
	delta := (target - cur + minutesPerWeek) % minutesPerWeek
	local := now.In(Zone).Truncate(time.Minute)
	return local.Add(time.Duration(delta) * time.Minute)
}
