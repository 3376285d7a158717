package schedule

import (
	"encoding/json"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func weekdays(days ...time.Weekday) WeekdaySet {
	set := WeekdaySet{Time: TimeOfDay{Hour: 11}}
	for _, d := range days {
		set.Days[d] = true
	}
	return set
}

func TestParseKind(t *testing.T) {
	for k, name := range kindNames {
		got, err := ParseKind(name)
		if err != nil {
			t.Fatalf("ParseKind(%q) error: %v", name, err)
		}
		if got != k {
			t.Errorf("ParseKind(%q) = %v, want %v", name, got, k)
		}
	}
	if _, err := ParseKind("yearly"); err == nil {
		t.Error("ParseKind accepted unknown kind")
	}
}

func TestTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("09:30")
	if err != nil {
		t.Fatalf("ParseTimeOfDay: %v", err)
	}
	if tod.Hour != 9 || tod.Minute != 30 {
		t.Errorf("got %+v, want 09:30", tod)
	}
	if s := tod.String(); s != "09:30" {
		t.Errorf("String() = %q, want %q", s, "09:30")
	}
	for _, bad := range []string{"", "9:3:0", "25:00", "12:60", "noon"} {
		if _, err := ParseTimeOfDay(bad); err == nil {
			t.Errorf("ParseTimeOfDay(%q) succeeded, want error", bad)
		}
	}
}

func TestTimeOfDayOn(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	// 2026-03-08: the 02:00-03:00 hour is skipped in New York.
	at := TimeOfDay{Hour: 2, Minute: 30}.On(date(2026, time.March, 8), ny)
	if at.Day() != 8 && at.Day() != 9 {
		t.Errorf("DST-gap instant resolved to unexpected day: %v", at)
	}
	// The normal case lands exactly on the wall clock.
	at = TimeOfDay{Hour: 14, Minute: 5}.On(date(2026, time.June, 1), ny)
	if at.Hour() != 14 || at.Minute() != 5 || at.Day() != 1 {
		t.Errorf("On() = %v, want June 1 14:05", at)
	}
}

func TestWeekOfMonth(t *testing.T) {
	tests := []struct {
		day  int
		want int
	}{
		{1, 1}, {7, 1}, {8, 2}, {14, 2}, {15, 3}, {21, 3}, {22, 4}, {28, 4}, {29, 5}, {31, 5},
	}
	for _, tt := range tests {
		got := WeekOfMonth(date(2026, time.January, tt.day))
		if got != tt.want {
			t.Errorf("WeekOfMonth(Jan %d) = %d, want %d", tt.day, got, tt.want)
		}
	}
}

func TestDueOnNDays(t *testing.T) {
	s := Schedule{Kind: NDaysKind, NDays: NDays{Days: 3, Time: TimeOfDay{Hour: 12}}}
	today := date(2026, time.August, 20)

	tests := []struct {
		name string
		d    time.Time
		want bool
	}{
		{"today", today, true},
		{"3 days back", date(2026, time.August, 17), true},
		{"3 days ahead", date(2026, time.August, 23), true},
		{"off cadence back", date(2026, time.August, 19), false},
		{"off cadence ahead", date(2026, time.August, 22), false},
		{"6 days back", date(2026, time.August, 14), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.DueOn(tt.d, today); got != tt.want {
				t.Errorf("DueOn(%v) = %v, want %v", tt.d.Format("2006-01-02"), got, tt.want)
			}
		})
	}

	// n = 1 matches every date; n = 0 is clamped to 1.
	daily := Schedule{Kind: NDaysKind, NDays: NDays{Days: 1}}
	zero := Schedule{Kind: NDaysKind, NDays: NDays{Days: 0}}
	for off := -3; off <= 3; off++ {
		d := today.AddDate(0, 0, off)
		if !daily.DueOn(d, today) {
			t.Errorf("n=1 DueOn(%v) = false", d.Format("2006-01-02"))
		}
		if !zero.DueOn(d, today) {
			t.Errorf("n=0 DueOn(%v) = false", d.Format("2006-01-02"))
		}
	}
}

func TestDueOnNWeeks(t *testing.T) {
	s := Schedule{Kind: NWeeksKind, NWeeks: NWeeks{Weeks: 2, DaysOfWeek: weekdays(time.Wednesday, time.Friday)}}
	today := date(2026, time.August, 20) // Thursday

	if s.DueOn(today, today) {
		t.Error("Thursday should not match a Wed/Fri set")
	}
	if !s.DueOn(date(2026, time.August, 19), today) {
		t.Error("Wednesday should match")
	}
	if !s.DueOn(date(2026, time.August, 21), today) {
		t.Error("Friday should match")
	}

	empty := Schedule{Kind: NWeeksKind, NWeeks: NWeeks{Weeks: 1}}
	for off := 0; off < 7; off++ {
		if empty.DueOn(today.AddDate(0, 0, off), today) {
			t.Fatal("empty weekday set must never match")
		}
	}
}

func TestDueOnMonthwise(t *testing.T) {
	s := Schedule{Kind: MonthwiseKind, Monthwise: Monthwise{Days: []int{1, 15, 31}}}
	today := date(2026, time.April, 10)

	if !s.DueOn(date(2026, time.April, 15), today) {
		t.Error("the 15th should match")
	}
	if s.DueOn(date(2026, time.April, 16), today) {
		t.Error("the 16th should not match")
	}
	// April has 30 days, so day 31 never occurs in it; walking April by
	// real calendar days can never produce a 31st.
	if !s.DueOn(date(2026, time.May, 31), today) {
		t.Error("May 31 should match")
	}
}

func TestDueOnWeeksOfMonth(t *testing.T) {
	// 2nd and 4th Friday.
	s := Schedule{Kind: WeeksOfMonthKind, WeeksOfMonth: WeeksOfMonth{
		Weeks:      []int{2, 4},
		DaysOfWeek: weekdays(time.Friday),
	}}
	today := date(2026, time.August, 1)

	tests := []struct {
		name string
		d    time.Time
		want bool
	}{
		{"1st Friday", date(2026, time.August, 7), false},
		{"2nd Friday", date(2026, time.August, 14), true},
		{"3rd Friday", date(2026, time.August, 21), false},
		{"4th Friday", date(2026, time.August, 28), true},
		{"2nd-week Saturday", date(2026, time.August, 8), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.DueOn(tt.d, today); got != tt.want {
				t.Errorf("DueOn(%v) = %v, want %v", tt.d.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

func TestDueOnCertainMonths(t *testing.T) {
	s := Schedule{Kind: CertainMonthsKind, CertainMonths: CertainMonths{
		Months: []int{2, 3},
		Days:   []int{15, 20},
	}}
	today := date(2026, time.January, 1)

	if !s.DueOn(date(2026, time.February, 15), today) {
		t.Error("Feb 15 should match")
	}
	if !s.DueOn(date(2026, time.March, 20), today) {
		t.Error("Mar 20 should match")
	}
	if s.DueOn(date(2026, time.April, 15), today) {
		t.Error("Apr 15 should not match")
	}
	if s.DueOn(date(2026, time.February, 16), today) {
		t.Error("Feb 16 should not match")
	}
}

func TestDueOnOnce(t *testing.T) {
	at := time.Date(2026, time.September, 3, 18, 0, 0, 0, time.UTC)
	s := Schedule{Kind: OnceKind, Once: Once{At: at}}
	today := date(2026, time.August, 20)

	if !s.DueOn(date(2026, time.September, 3), today) {
		t.Error("the event's own date should match")
	}
	if s.DueOn(date(2026, time.September, 4), today) {
		t.Error("any other date should not match")
	}
}

func TestDueTime(t *testing.T) {
	s := Schedule{Kind: NWeeksKind, NWeeks: NWeeks{Weeks: 1, DaysOfWeek: weekdays(time.Monday)}}
	if got := s.DueTime(time.UTC); got != (TimeOfDay{Hour: 11}) {
		t.Errorf("DueTime = %v, want 11:00", got)
	}

	// Once reports the clock reading of its instant in the target zone.
	denver := time.FixedZone("MDT", -6*3600)
	once := Schedule{Kind: OnceKind, Once: Once{At: time.Date(2026, time.July, 4, 18, 30, 0, 0, time.UTC)}}
	if got := once.DueTime(denver); got != (TimeOfDay{Hour: 12, Minute: 30}) {
		t.Errorf("Once DueTime in MDT = %v, want 12:30", got)
	}
}

func TestScheduleJSONRoundTrip(t *testing.T) {
	s := Schedule{
		Kind: WeeksOfMonthKind,
		NDays: NDays{Days: 4, Time: TimeOfDay{Hour: 8}},
		WeeksOfMonth: WeeksOfMonth{
			Weeks:      []int{1, 3},
			DaysOfWeek: weekdays(time.Tuesday, time.Saturday),
		},
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Schedule
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Kind != WeeksOfMonthKind {
		t.Errorf("kind = %v, want weeks_of_month", got.Kind)
	}
	if got.NDays.Days != 4 {
		t.Error("inert variant parameters must survive the round trip")
	}
	if !got.WeeksOfMonth.DaysOfWeek.Active(time.Saturday) {
		t.Error("weekday set lost in round trip")
	}
}
