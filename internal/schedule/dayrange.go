package schedule

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ParseDayRange parses the compact day-list notation used by the
// month-based variants: comma-separated tokens, each a single day or an
// "a-b" range, e.g. "1, 4-7, 15-17". Whitespace around tokens and around
// the dash is ignored; empty tokens (trailing commas) are skipped. Every
// day must lie in [1,31]. The result is sorted ascending with duplicates
// removed, even when input ranges overlap.
func ParseDayRange(text string) ([]int, error) {
	var seen [32]bool
	matched := false
	for _, tok := range strings.Split(text, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		lo, hi, err := parseDayToken(tok)
		if err != nil {
			return nil, err
		}
		for d := lo; d <= hi; d++ {
			seen[d] = true
		}
		matched = true
	}
	if !matched {
		return nil, errors.New("enter at least one day")
	}
	var days []int
	for d := 1; d <= 31; d++ {
		if seen[d] {
			days = append(days, d)
		}
	}
	return days, nil
}

func parseDayToken(tok string) (lo, hi int, err error) {
	if i := strings.IndexByte(tok, '-'); i >= 0 {
		lo, err = parseDay(tok[:i])
		if err != nil {
			return 0, 0, err
		}
		hi, err = parseDay(tok[i+1:])
		if err != nil {
			return 0, 0, err
		}
		if lo > hi {
			return 0, 0, fmt.Errorf("range %q: start must be <= end", tok)
		}
		return lo, hi, nil
	}
	d, err := parseDay(tok)
	return d, d, err
}

func parseDay(s string) (int, error) {
	s = strings.TrimSpace(s)
	d, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid day %q", s)
	}
	if d < 1 || d > 31 {
		return 0, fmt.Errorf("day %d out of range (must be 1-31)", d)
	}
	return d, nil
}

// FormatDayRange renders a day list in minimal notation: each maximal run
// of consecutive days collapses to "start-end", runs are joined with ", ".
// The input is normalized (sorted, deduplicated) first, so
// ParseDayRange(FormatDayRange(d)) recovers the normalized set for any
// valid d. An empty list formats as "".
func FormatDayRange(days []int) string {
	if len(days) == 0 {
		return ""
	}
	norm := slices.Clone(days)
	slices.Sort(norm)
	norm = slices.Compact(norm)

	var b strings.Builder
	for i := 0; i < len(norm); {
		j := i
		for j+1 < len(norm) && norm[j+1] == norm[j]+1 {
			j++
		}
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		if j == i {
			fmt.Fprintf(&b, "%d", norm[i])
		} else {
			fmt.Fprintf(&b, "%d-%d", norm[i], norm[j])
		}
		i = j + 1
	}
	return b.String()
}
