package license

import (
	"time"

	"github.com/robfig/cron/v3"
)

// fixedRateSchedule fires at first, first+period, first+2*period and so on,
// regardless of how long each run takes.
type fixedRateSchedule struct {
	first  time.Time
	period time.Duration
	// armed is only touched by the cron run loop
	armed bool
}

var _ cron.Schedule = (*fixedRateSchedule)(nil)

func newFixedRateSchedule(now time.Time, delay, period time.Duration) *fixedRateSchedule {
	return &fixedRateSchedule{first: now.Add(delay), period: period}
}

// Next implements cron.Schedule. The first call always yields the first fire
// time, even when the scheduler started after it, so a short delay never
// costs a whole period.
func (s *fixedRateSchedule) Next(t time.Time) time.Time {
	if !s.armed {
		s.armed = true
		return s.first
	}
	return s.after(t)
}

// after returns the first activation strictly after t.
func (s *fixedRateSchedule) after(t time.Time) time.Time {
	if t.Before(s.first) {
		return s.first
	}
	n := t.Sub(s.first)/s.period + 1
	return s.first.Add(n * s.period)
}
