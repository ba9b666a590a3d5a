package service

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hailinhs/alumnisite/internal/domain"
)

var clockPrefix = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})`)

// DeriveStatus places an event relative to now. The event starts at date plus
// the leading HH:MM of clock ("14:00 - 17:00" starts at 14:00); without a
// readable clock it starts at midnight. A start before now is completed, a
// start later today is ongoing, anything else is upcoming. Dates that do not
// parse are treated as upcoming.
func DeriveStatus(date string, clock string, now time.Time, loc *time.Location) domain.EventStatus {
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(date), loc)
	if err != nil {
		return domain.EventUpcoming
	}
	start := day
	if offset, ok := parseClock(clock); ok {
		start = day.Add(offset)
	}
	now = now.In(loc)
	if start.Before(now) {
		return domain.EventCompleted
	}
	sy, sm, sd := start.Date()
	ny, nm, nd := now.Date()
	if sy == ny && sm == nm && sd == nd {
		return domain.EventOngoing
	}
	return domain.EventUpcoming
}

func parseClock(clock string) (time.Duration, bool) {
	m := clockPrefix.FindStringSubmatch(clock)
	if m == nil {
		return 0, false
	}
	hh, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if hh > 23 || mm > 59 {
		return 0, false
	}
	return time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute, true
}
