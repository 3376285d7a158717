package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Describe returns a human-readable summary of the active variant,
// e.g. "Every 2 weeks on Tue, Thu at 14:00".
func (s Schedule) Describe(loc *time.Location) string {
	switch s.Kind {
	case NDaysKind:
		if s.NDays.Days > 1 {
			return fmt.Sprintf("Every %d days at %s", s.NDays.Days, s.NDays.Time)
		}
		return fmt.Sprintf("Every day at %s", s.NDays.Time)
	case NWeeksKind:
		prefix := "Every week"
		if s.NWeeks.Weeks == 2 {
			prefix = "Every 2 weeks"
		} else if s.NWeeks.Weeks > 2 {
			prefix = fmt.Sprintf("Every %d weeks", s.NWeeks.Weeks)
		}
		days := weekdayNames(s.NWeeks.DaysOfWeek)
		if days == "" {
			return prefix
		}
		return fmt.Sprintf("%s on %s at %s", prefix, days, s.NWeeks.DaysOfWeek.Time)
	case MonthwiseKind:
		return fmt.Sprintf("Monthly on day %s at %s", FormatDayRange(s.Monthwise.Days), s.Monthwise.Time)
	case WeeksOfMonthKind:
		days := weekdayNames(s.WeeksOfMonth.DaysOfWeek)
		return fmt.Sprintf("Week %s of the month on %s at %s",
			FormatDayRange(s.WeeksOfMonth.Weeks), days, s.WeeksOfMonth.DaysOfWeek.Time)
	case CertainMonthsKind:
		var months []string
		for _, m := range s.CertainMonths.Months {
			if m >= 1 && m <= 12 {
				months = append(months, time.Month(m).String()[:3])
			}
		}
		return fmt.Sprintf("On day %s of %s at %s",
			FormatDayRange(s.CertainMonths.Days), strings.Join(months, ", "), s.CertainMonths.Time)
	case OnceKind:
		return "Once on " + s.Once.At.In(loc).Format("Monday, January 2 2006 at 15:04")
	}
	return ""
}

func weekdayNames(set WeekdaySet) string {
	var names []string
	for d := time.Sunday; d <= time.Saturday; d++ {
		if set.Active(d) {
			names = append(names, d.String()[:3])
		}
	}
	return strings.Join(names, ", ")
}
