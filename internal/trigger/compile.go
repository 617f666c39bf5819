package trigger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/warpdl/warpsched/pkg/taskdef"
)

// Compile turns s into the platform trigger. It never fails: a nil or
// unrecognised spec becomes a one-shot trigger at start, and a zero At
// falls back to start as well.
func Compile(s Spec, start time.Time) taskdef.Trigger {
	t := taskdef.Trigger{Enabled: true}
	switch v := s.(type) {
	case Once:
		t.Kind = taskdef.TriggerTime
		t.StartBoundary = pick(v.At, start)
	case Daily:
		t.Kind = taskdef.TriggerDaily
		t.StartBoundary = pick(v.At, start)
		t.DaysInterval = atLeastOne(v.IntervalDays)
	case Weekly:
		t.Kind = taskdef.TriggerWeekly
		t.StartBoundary = pick(v.At, start)
		t.WeeksInterval = atLeastOne(v.IntervalWeeks)
		for _, d := range v.Days {
			t.DaysOfWeek |= taskdef.DayOf(d)
		}
		if t.DaysOfWeek == 0 {
			t.DaysOfWeek = taskdef.Monday
		}
	case MonthlyByDay:
		t.Kind = taskdef.TriggerMonthly
		t.StartBoundary = pick(v.At, start)
		day := v.Day
		if day < 1 || day > 31 {
			day = 1
		}
		t.DaysOfMonth = []int{day}
		t.MonthsOfYear = MonthsForInterval(v.IntervalMonths)
	case MonthlyByWeekday:
		t.Kind = taskdef.TriggerMonthlyDOW
		t.StartBoundary = pick(v.At, start)
		t.WeeksOfMonth = WeekOfMonth(v.WeekOrdinal)
		t.DaysOfWeek = taskdef.DayOf(v.Weekday)
		if t.DaysOfWeek == 0 {
			t.DaysOfWeek = taskdef.Monday
		}
		t.MonthsOfYear = MonthsForInterval(v.IntervalMonths)
	case Startup:
		t.Kind = taskdef.TriggerBoot
		t.Delay = nonNegative(v.Delay)
	case Logon:
		t.Kind = taskdef.TriggerLogon
		t.Delay = nonNegative(v.Delay)
		t.UserID = v.User
	case Idle:
		t.Kind = taskdef.TriggerIdle
	case Event:
		t.Kind = taskdef.TriggerEvent
		t.Subscription = EventQuery(v.LogName, v.Source, v.EventID)
	case Registration:
		t.Kind = taskdef.TriggerRegistration
		t.Delay = nonNegative(v.Delay)
	case SessionStateChange:
		t.Kind = taskdef.TriggerSessionStateChange
		t.Delay = nonNegative(v.Delay)
		t.UserID = v.User
		t.StateChange = v.Change
		if t.StateChange == "" {
			t.StateChange = taskdef.ConsoleConnect
		}
	default:
		t.Kind = taskdef.TriggerTime
		t.StartBoundary = start
	}
	return t
}

// MonthsForInterval approximates "every n months" with a fixed month set,
// since the platform trigger only knows a bitset of calendar months.
func MonthsForInterval(n int) taskdef.MonthsOfYear {
	switch n {
	case 2:
		return taskdef.January | taskdef.March | taskdef.May |
			taskdef.July | taskdef.September | taskdef.November
	case 3:
		return taskdef.January | taskdef.April | taskdef.July | taskdef.October
	case 6:
		return taskdef.January | taskdef.July
	case 12:
		return taskdef.January
	default:
		return taskdef.AllMonths
	}
}

// WeekOfMonth maps ordinals 1..4 to First..Fourth; everything else is the
// last week.
func WeekOfMonth(ordinal int) taskdef.WhichWeek {
	switch ordinal {
	case 1:
		return taskdef.FirstWeek
	case 2:
		return taskdef.SecondWeek
	case 3:
		return taskdef.ThirdWeek
	case 4:
		return taskdef.FourthWeek
	default:
		return taskdef.LastWeek
	}
}

// EventQuery builds the event log subscription for an Event trigger.
func EventQuery(logName, source string, eventID *int) string {
	var sel strings.Builder
	sel.WriteString("*")
	if source != "" {
		fmt.Fprintf(&sel, "[System/Provider/@Name='%s']", strings.ReplaceAll(source, "'", "&apos;"))
	}
	if eventID != nil {
		fmt.Fprintf(&sel, "[System/EventID=%d]", *eventID)
	}
	return fmt.Sprintf(`<QueryList><Query Id="0" Path="%[1]s"><Select Path="%[1]s">%[2]s</Select></Query></QueryList>`,
		logName, sel.String())
}

// ErrInvalidSpec is wrapped by every error Validate and Check return.
var ErrInvalidSpec = errors.New("invalid trigger")

// Validate reports specs Compile cannot turn into a working trigger. Only
// an Event without a log name qualifies; every other value has a fallback.
func Validate(s Spec) error {
	if v, ok := s.(Event); ok && strings.TrimSpace(v.LogName) == "" {
		return fmt.Errorf("%w: %s: log name is required", ErrInvalidSpec, Kind(s))
	}
	return nil
}

// Check lists the values Compile will replace with its fallback. They are
// worth a warning but do not stop compilation.
func Check(s Spec) []error {
	var errs []error
	bad := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%w: %s: %s", ErrInvalidSpec, Kind(s), fmt.Sprintf(format, args...)))
	}
	delay := func(d time.Duration) {
		if d < 0 {
			bad("negative delay %s, using none", d)
		}
	}
	switch v := s.(type) {
	case Daily:
		if v.IntervalDays < 0 {
			bad("negative interval %d, using 1", v.IntervalDays)
		}
	case Weekly:
		if v.IntervalWeeks < 0 {
			bad("negative interval %d, using 1", v.IntervalWeeks)
		}
		for _, d := range v.Days {
			if taskdef.DayOf(d) == 0 {
				bad("unknown weekday %d ignored", d)
			}
		}
	case MonthlyByDay:
		if v.Day < 1 || v.Day > 31 {
			bad("day %d outside 1..31, using 1", v.Day)
		}
		if v.IntervalMonths < 0 {
			bad("negative interval %d, using every month", v.IntervalMonths)
		}
	case MonthlyByWeekday:
		if v.WeekOrdinal < 1 || v.WeekOrdinal > 5 {
			bad("week %d outside 1..5, using the last week", v.WeekOrdinal)
		}
		if taskdef.DayOf(v.Weekday) == 0 {
			bad("unknown weekday %d, using Monday", v.Weekday)
		}
		if v.IntervalMonths < 0 {
			bad("negative interval %d, using every month", v.IntervalMonths)
		}
	case Startup:
		delay(v.Delay)
	case Logon:
		delay(v.Delay)
	case Idle:
		if v.Minutes < 0 {
			bad("negative idle minutes %d, using the default", v.Minutes)
		}
	case Event:
		if v.EventID != nil && *v.EventID < 0 {
			bad("negative event id %d", *v.EventID)
		}
	case Registration:
		delay(v.Delay)
	case SessionStateChange:
		delay(v.Delay)
	}
	return errs
}

func pick(at, fallback time.Time) time.Time {
	if at.IsZero() {
		return fallback
	}
	return at
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
