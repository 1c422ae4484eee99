package quota

import "time"

// ResetPolicy computes the next reset boundary for a refreshed balance.
//
// Records always store the instant at which they next become eligible for
// reset, so staleness is a uniform comparison (see Stale) regardless of
// policy. The two policies must not be mixed within one deployment: a record
// written under one policy carries a boundary the other would not have chosen.
type ResetPolicy interface {
	// Next returns the reset boundary for a record refreshed at now.
	Next(now time.Time) time.Time
	// Name identifies the policy for logging and config.
	Name() string
}

// Stale reports whether a record whose reset boundary is resetAt is eligible
// for reset at now. Pure function; shared by all stores and policies.
func Stale(resetAt, now time.Time) bool {
	return !now.Before(resetAt)
}

// RollingWindow resets each subject's balance a fixed period after its last
// reset. Windows are independent per subject and need no timezone handling.
type RollingWindow struct {
	Period time.Duration
}

// DefaultPolicy is the policy in force: a rolling 24-hour window.
func DefaultPolicy() ResetPolicy {
	return RollingWindow{Period: 24 * time.Hour}
}

// Next returns now + Period.
func (p RollingWindow) Next(now time.Time) time.Time {
	return now.Add(p.Period)
}

// Name returns "rolling_window".
func (p RollingWindow) Name() string { return "rolling_window" }

// CalendarDay resets every balance at local midnight, so all subjects refill
// simultaneously at a fixed wall-clock boundary.
type CalendarDay struct {
	Location *time.Location
}

// Next returns the upcoming midnight in the policy's location.
func (p CalendarDay) Next(now time.Time) time.Time {
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
}

// Name returns "calendar_day".
func (p CalendarDay) Name() string { return "calendar_day" }
