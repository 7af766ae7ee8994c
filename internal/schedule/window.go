// Package schedule decides whether a call may be placed right now and, when
// it may not, when the next opportunity is. A batch restricts dialing to a
// daily hour range on a set of weekdays, evaluated in the batch's timezone.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mariandamblena/speechAi-sub000/internal/domain"
	"github.com/robfig/cron/v3"
)

// Window is a compiled calling window. A nil *Window means no restriction.
type Window struct {
	startMin int // minutes since midnight
	endMin   int
	days     map[time.Weekday]bool // nil = every day
	loc      *time.Location
	next     cron.Schedule // fires at each window opening
}

// FromSettings compiles the batch's window settings. Returns nil when the
// batch has no hour restriction (days_of_week alone also restricts).
func FromSettings(s domain.CallSettings) (*Window, error) {
	if s.AllowedHours == nil && len(s.DaysOfWeek) == 0 {
		return nil, nil
	}

	startMin, endMin := 0, 24*60
	startClock := "0 0"
	if s.AllowedHours != nil {
		var err error
		if startMin, err = parseClock(s.AllowedHours.Start); err != nil {
			return nil, fmt.Errorf("allowed_hours.start: %w", err)
		}
		if endMin, err = parseClock(s.AllowedHours.End); err != nil {
			return nil, fmt.Errorf("allowed_hours.end: %w", err)
		}
		startClock = fmt.Sprintf("%d %d", startMin%60, startMin/60)
	}

	loc := time.UTC
	if s.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(s.Timezone); err != nil {
			return nil, fmt.Errorf("timezone: %w", err)
		}
	}

	var days map[time.Weekday]bool
	dowExpr := "*"
	if len(s.DaysOfWeek) > 0 {
		days = make(map[time.Weekday]bool, len(s.DaysOfWeek))
		var parts []string
		for _, d := range s.DaysOfWeek {
			days[d] = true
			parts = append(parts, strconv.Itoa(int(d)))
		}
		dowExpr = strings.Join(parts, ",")
	}

	// The cron schedule fires at every window opening, which is exactly the
	// "next allowed instant" a deferred job is rescheduled to.
	expr := fmt.Sprintf("%s * * %s", startClock, dowExpr)
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("window cron %q: %w", expr, err)
	}

	return &Window{
		startMin: startMin,
		endMin:   endMin,
		days:     days,
		loc:      loc,
		next:     sched,
	}, nil
}

// Contains reports whether t falls inside the calling window.
func (w *Window) Contains(t time.Time) bool {
	if w == nil {
		return true
	}
	local := t.In(w.loc)
	if w.days != nil && !w.days[local.Weekday()] {
		return false
	}
	tod := local.Hour()*60 + local.Minute()
	if w.startMin <= w.endMin {
		return tod >= w.startMin && tod < w.endMin
	}
	// Window spans midnight.
	return tod >= w.startMin || tod < w.endMin
}

// NextOpen returns the next window opening strictly after t: the next
// occurrence of the start time on an allowed weekday, in the window's
// timezone.
func (w *Window) NextOpen(t time.Time) time.Time {
	if w == nil {
		return t
	}
	return w.next.Next(t.In(w.loc))
}

func parseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}
