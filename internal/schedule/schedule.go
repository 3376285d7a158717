package schedule

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Kind selects which variant of a Schedule is active.
type Kind int

const (
	NDaysKind Kind = iota
	NWeeksKind
	MonthwiseKind
	WeeksOfMonthKind
	CertainMonthsKind
	OnceKind
)

var kindNames = map[Kind]string{
	NDaysKind:         "n_days",
	NWeeksKind:        "n_weeks",
	MonthwiseKind:     "monthwise",
	WeeksOfMonthKind:  "weeks_of_month",
	CertainMonthsKind: "certain_months",
	OnceKind:          "once",
}

var kindFromName = map[string]Kind{
	"n_days":         NDaysKind,
	"n_weeks":        NWeeksKind,
	"monthwise":      MonthwiseKind,
	"weeks_of_month": WeeksOfMonthKind,
	"certain_months": CertainMonthsKind,
	"once":           OnceKind,
}

func (k Kind) String() string {
	return kindNames[k]
}

// ParseKind resolves a kind name like "n_days" used in storage and API payloads.
func ParseKind(name string) (Kind, error) {
	k, ok := kindFromName[name]
	if !ok {
		return 0, fmt.Errorf("unknown schedule kind: %q", name)
	}
	return k, nil
}

func (k Kind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	name := strings.Trim(string(data), `"`)
	parsed, err := ParseKind(name)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// TimeOfDay is a wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" (24-hour clock).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	parsed, err := ParseTimeOfDay(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// On returns the absolute instant at this wall-clock time on date's
// calendar day in loc. During a DST gap or fold the result is whatever
// time.Date resolves to, which is deterministic for a given zone.
func (t TimeOfDay) On(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, 0, 0, loc)
}

// WeekdaySet is a mask of active weekdays plus the wall-clock time shared
// by the weekly variants. An all-inactive set is legal; it simply never
// fires and the due-date search falls back after exhausting its horizon.
type WeekdaySet struct {
	Days [7]bool   `json:"days"` // indexed by time.Weekday (Sunday = 0)
	Time TimeOfDay `json:"time"`
}

// Active reports whether the given weekday is enabled.
func (s WeekdaySet) Active(d time.Weekday) bool {
	return s.Days[d]
}

// NDays fires every n days at a fixed time. The cadence is measured from
// the caller's current date rather than an anchor, so re-evaluating on a
// different day shifts which dates count as "every n days" for n > 1.
type NDays struct {
	Days int       `json:"days"`
	Time TimeOfDay `json:"time"`
}

// NWeeks fires on the active weekdays of its set; Weeks bounds how far the
// due-date search walks (7*Weeks days), it does not thin out occurrences.
type NWeeks struct {
	Weeks      int        `json:"weeks"`
	DaysOfWeek WeekdaySet `json:"days_of_week"`
}

// Monthwise fires on fixed days of every month, e.g. the 1st and 15th.
// A day beyond a month's length never matches that month.
type Monthwise struct {
	Days []int     `json:"days"` // 1-31
	Time TimeOfDay `json:"time"`
}

// WeeksOfMonth fires on active weekdays that fall in one of the listed
// week ordinals, e.g. the 2nd and 4th Friday.
type WeeksOfMonth struct {
	Weeks      []int      `json:"weeks"` // 1-5
	DaysOfWeek WeekdaySet `json:"days_of_week"`
}

// CertainMonths fires on fixed days of fixed months, e.g. the 15th and
// 20th of February and March.
type CertainMonths struct {
	Months []int     `json:"months"` // 1-12
	Days   []int     `json:"days"`   // 1-31
	Time   TimeOfDay `json:"time"`
}

// Once is a single occurrence at a fixed instant, no recurrence.
type Once struct {
	At time.Time `json:"at"`
}

// Schedule is a tagged union with exactly one active variant. The inert
// variants keep their parameters so the editor can switch kinds without
// discarding previously entered values.
type Schedule struct {
	Kind          Kind          `json:"kind"`
	NDays         NDays         `json:"n_days"`
	NWeeks        NWeeks        `json:"n_weeks"`
	Monthwise     Monthwise     `json:"monthwise"`
	WeeksOfMonth  WeeksOfMonth  `json:"weeks_of_month"`
	CertainMonths CertainMonths `json:"certain_months"`
	Once          Once          `json:"once"`
}

// WeekOfMonth returns the 1-based ordinal of the week containing date's
// day of month: ((day-1)/7)+1. The 1st through 7th are week 1, the 29th
// through 31st are week 5.
func WeekOfMonth(date time.Time) int {
	return (date.Day()-1)/7 + 1
}

// DueOn reports whether date is an occurrence day, independent of
// time-of-day. today supplies the reference date for the NDays cadence;
// for every other variant only date matters.
func (s Schedule) DueOn(date, today time.Time) bool {
	switch s.Kind {
	case NDaysKind:
		n := s.NDays.Days
		if n < 1 {
			n = 1
		}
		d := daysBetween(date, today)
		if d < 0 {
			d = -d
		}
		return d%n == 0
	case NWeeksKind:
		return s.NWeeks.DaysOfWeek.Active(date.Weekday())
	case MonthwiseKind:
		return slices.Contains(s.Monthwise.Days, date.Day())
	case WeeksOfMonthKind:
		return s.WeeksOfMonth.DaysOfWeek.Active(date.Weekday()) &&
			slices.Contains(s.WeeksOfMonth.Weeks, WeekOfMonth(date))
	case CertainMonthsKind:
		return slices.Contains(s.CertainMonths.Months, int(date.Month())) &&
			slices.Contains(s.CertainMonths.Days, date.Day())
	case OnceKind:
		at := s.Once.At.In(date.Location())
		return at.Year() == date.Year() && at.YearDay() == date.YearDay()
	}
	return false
}

// DueTime returns the wall-clock time an occurrence is due on a matching
// date. Constant per variant except Once, whose time is the clock reading
// of its fixed instant in loc.
func (s Schedule) DueTime(loc *time.Location) TimeOfDay {
	switch s.Kind {
	case NDaysKind:
		return s.NDays.Time
	case NWeeksKind:
		return s.NWeeks.DaysOfWeek.Time
	case MonthwiseKind:
		return s.Monthwise.Time
	case WeeksOfMonthKind:
		return s.WeeksOfMonth.DaysOfWeek.Time
	case CertainMonthsKind:
		return s.CertainMonths.Time
	case OnceKind:
		at := s.Once.At.In(loc)
		return TimeOfDay{Hour: at.Hour(), Minute: at.Minute()}
	}
	return TimeOfDay{}
}

// daysBetween returns the count of calendar days from b's date to a's
// date. Both dates are re-anchored to UTC midnight first so that a 23- or
// 25-hour DST day cannot skew the count.
func daysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(au.Sub(bu) / (24 * time.Hour))
}
