package scheduler

import (
	"fmt"
	"time"
)

// IntervalSchedule runs a job at a fixed interval.
type IntervalSchedule struct {
	Interval time.Duration
}

// Every creates an IntervalSchedule.
func Every(interval time.Duration) *IntervalSchedule {
	return &IntervalSchedule{Interval: interval}
}

// Next returns the next scheduled time.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String returns the string representation of the schedule.
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval.String())
}

// DailyAtSchedule runs a job once a day at a fixed wall-clock time.
// The reconciliation job uses it to stay out of peak hours.
type DailyAtSchedule struct {
	Hour     int
	Minute   int
	Location *time.Location
}

// DailyAt creates a DailyAtSchedule in the given location.
func DailyAt(hour, minute int, loc *time.Location) *DailyAtSchedule {
	if loc == nil {
		loc = time.UTC
	}
	return &DailyAtSchedule{Hour: hour, Minute: minute, Location: loc}
}

// Next returns the next occurrence of the configured wall-clock time after t.
func (s *DailyAtSchedule) Next(t time.Time) time.Time {
	local := t.In(s.Location)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.Hour, s.Minute, 0, 0, s.Location)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// String returns the string representation of the schedule.
func (s *DailyAtSchedule) String() string {
	return fmt.Sprintf("@daily %02d:%02d %s", s.Hour, s.Minute, s.Location.String())
}
