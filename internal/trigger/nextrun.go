package trigger

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"github.com/warpdl/warpsched/pkg/taskdef"
)

// NextRun returns the first time after `after` at which a calendar trigger
// fires. Event-driven triggers (boot, logon, idle and so on) report false.
func NextRun(t taskdef.Trigger, after time.Time) (time.Time, bool) {
	start := t.StartBoundary
	if start.IsZero() {
		return time.Time{}, false
	}
	switch t.Kind {
	case taskdef.TriggerTime:
		if start.After(after) {
			return start, true
		}
		return time.Time{}, false
	case taskdef.TriggerDaily:
		if t.DaysInterval <= 1 {
			return cronNext(fmt.Sprintf("%d %d * * *", start.Minute(), start.Hour()), start, after)
		}
		return nextEveryNDays(start, after, t.DaysInterval), true
	case taskdef.TriggerWeekly:
		if t.DaysOfWeek == 0 {
			return time.Time{}, false
		}
		if t.WeeksInterval <= 1 {
			expr := fmt.Sprintf("%d %d * * %s", start.Minute(), start.Hour(), weekdayField(t.DaysOfWeek))
			return cronNext(expr, start, after)
		}
		return nextEveryNWeeks(start, after, t.WeeksInterval, t.DaysOfWeek), true
	case taskdef.TriggerMonthly:
		if len(t.DaysOfMonth) == 0 || t.MonthsOfYear == 0 {
			return time.Time{}, false
		}
		days := make([]string, 0, len(t.DaysOfMonth))
		for _, d := range t.DaysOfMonth {
			days = append(days, strconv.Itoa(d))
		}
		expr := fmt.Sprintf("%d %d %s %s *", start.Minute(), start.Hour(),
			strings.Join(days, ","), monthField(t.MonthsOfYear))
		return cronNext(expr, start, after)
	case taskdef.TriggerMonthlyDOW:
		return nextMonthlyDOW(t, after)
	default:
		return time.Time{}, false
	}
}

func cronNext(expr string, start, after time.Time) (time.Time, bool) {
	if !gronx.IsValid(expr) {
		return time.Time{}, false
	}
	ref, incl := after, false
	if ref.Before(start) {
		ref, incl = start, true
	}
	next, err := gronx.NextTickAfter(expr, ref, incl)
	if err != nil {
		return time.Time{}, false
	}
	return next, true
}

func weekdayField(days taskdef.DaysOfWeek) string {
	parts := make([]string, 0, 7)
	for _, d := range days.Weekdays() {
		parts = append(parts, strconv.Itoa(int(d)))
	}
	return strings.Join(parts, ",")
}

func monthField(months taskdef.MonthsOfYear) string {
	parts := make([]string, 0, 12)
	for _, m := range months.Months() {
		parts = append(parts, strconv.Itoa(int(m)))
	}
	return strings.Join(parts, ",")
}

// daysBetween counts calendar days from a to b, ignoring time of day.
func daysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}

func nextEveryNDays(start, after time.Time, n int) time.Time {
	if start.After(after) {
		return start
	}
	k := daysBetween(start, after) / n * n
	next := start.AddDate(0, 0, k)
	for !next.After(after) {
		next = next.AddDate(0, 0, n)
	}
	return next
}

func nextEveryNWeeks(start, after time.Time, n int, days taskdef.DaysOfWeek) time.Time {
	// Weeks are counted from the Sunday of the week containing start.
	anchor := start.AddDate(0, 0, -int(start.Weekday()))
	ref := after
	if ref.Before(start) {
		ref = start.Add(-time.Nanosecond)
	}
	block := 0
	if d := daysBetween(anchor, ref); d > 0 {
		block = d / 7 / n * n
	}
	for {
		weekStart := anchor.AddDate(0, 0, block*7)
		for _, wd := range days.Weekdays() {
			at := weekStart.AddDate(0, 0, int(wd))
			if at.Before(start) || !at.After(ref) {
				continue
			}
			return at
		}
		block += n
	}
}

func nextMonthlyDOW(t taskdef.Trigger, after time.Time) (time.Time, bool) {
	start := t.StartBoundary
	if t.DaysOfWeek == 0 || t.WeeksOfMonth == 0 || t.MonthsOfYear == 0 {
		return time.Time{}, false
	}
	ref := after
	if ref.Before(start) {
		ref = start.Add(-time.Nanosecond)
	}
	cursor := time.Date(ref.Year(), ref.Month(), 1, start.Hour(), start.Minute(), start.Second(), 0, start.Location())
	// Four years covers every month set and leap-year layout.
	for i := 0; i < 48; i++ {
		month := cursor.AddDate(0, i, 0)
		if !t.MonthsOfYear.Has(month.Month()) {
			continue
		}
		var best time.Time
		for _, wd := range t.DaysOfWeek.Weekdays() {
			for w := taskdef.FirstWeek; w <= taskdef.LastWeek; w <<= 1 {
				if t.WeeksOfMonth&w == 0 {
					continue
				}
				at := nthWeekday(month, wd, w)
				if at.Before(start) || !at.After(ref) {
					continue
				}
				if best.IsZero() || at.Before(best) {
					best = at
				}
			}
		}
		if !best.IsZero() {
			return best, true
		}
	}
	return time.Time{}, false
}

// nthWeekday returns the given weekday in the selected week of the month
// whose first day is month. The fourth week never spills into the next
// month; the last week is counted back from the month's end.
func nthWeekday(month time.Time, wd time.Weekday, w taskdef.WhichWeek) time.Time {
	if w == taskdef.LastWeek {
		last := month.AddDate(0, 1, -1)
		back := (int(last.Weekday()) - int(wd) + 7) % 7
		return last.AddDate(0, 0, -back)
	}
	offset := (int(wd) - int(month.Weekday()) + 7) % 7
	n := 0
	for b := w; b > 1; b >>= 1 {
		n++
	}
	return month.AddDate(0, 0, offset+7*n)
}
