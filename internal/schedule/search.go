package schedule

import "time"

// fallbackDays places the exhausted-forward-search sentinel far beyond the
// largest real search horizon so callers can always tell them apart.
const fallbackDays = 10000

// horizonDays is the bounded search span for a variant, applied to both
// the backward and the forward walk.
func (s Schedule) horizonDays() int {
	switch s.Kind {
	case NDaysKind:
		if s.NDays.Days > 1 {
			return s.NDays.Days
		}
		return 1
	case NWeeksKind:
		w := s.NWeeks.Weeks
		if w < 1 {
			w = 1
		}
		return 7 * w
	case MonthwiseKind:
		// Two months: covers any day set reachable from the current date.
		return 62
	case WeeksOfMonthKind:
		// A 5th-weekday pattern can skip several months in a row.
		return 366
	case CertainMonthsKind:
		// Sparse month/day sets, including ones a year apart.
		return 1000
	}
	return 0 // Once: single check, no walk
}

// MostRecentDue returns the instant of the most recent occurrence at or
// before now, evaluated against the calendar of loc. When the current
// date itself matches and its time-of-day has already passed, today's
// occurrence is returned rather than an earlier day's. If the backward
// horizon is exhausted (e.g. an all-inactive weekday set) the result is
// the deterministic fallback now-horizon, meaning "no known recent due
// date"; a Once schedule whose instant is still in the future yields now.
func (s Schedule) MostRecentDue(now time.Time, loc *time.Location) time.Time {
	if s.Kind == OnceKind {
		if !s.Once.At.After(now) {
			return s.Once.At
		}
		return now
	}

	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	tod := s.DueTime(loc)
	horizon := s.horizonDays()

	for back := 0; back <= horizon; back++ {
		date := midnight.AddDate(0, 0, -back)
		if !s.DueOn(date, local) {
			continue
		}
		if at := tod.On(date, loc); !at.After(now) {
			return at
		}
	}
	return now.AddDate(0, 0, -horizon)
}

// NextDue returns the instant of the first occurrence strictly after now,
// evaluated against the calendar of loc. If today matches but its
// time-of-day has already elapsed, today is skipped. A Once schedule
// short-circuits to its fixed instant even when that instant is past;
// callers detect the already-occurred case separately. When the forward
// horizon is exhausted the result is a distant-future sentinel;
// NextKnown distinguishes it from a real occurrence.
func (s Schedule) NextDue(now time.Time, loc *time.Location) time.Time {
	if s.Kind == OnceKind {
		return s.Once.At
	}

	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	tod := s.DueTime(loc)
	horizon := s.horizonDays()

	for ahead := 0; ahead <= horizon; ahead++ {
		date := midnight.AddDate(0, 0, ahead)
		if !s.DueOn(date, local) {
			continue
		}
		if at := tod.On(date, loc); at.After(now) {
			return at
		}
	}
	return now.AddDate(0, 0, fallbackDays)
}

// NextKnown reports whether NextDue(now, loc) found a real occurrence
// rather than the exhausted-horizon sentinel.
func (s Schedule) NextKnown(now time.Time, loc *time.Location) bool {
	if s.Kind == OnceKind {
		return true
	}
	return s.NextDue(now, loc).Before(now.AddDate(0, 0, fallbackDays))
}
