package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/warpdl/warpsched/internal/trigger"
	"github.com/warpdl/warpsched/pkg/taskdef"
)

var startTimeLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

var ErrUnknownTrigger = errors.New("unknown trigger")

// triggerFlags are the raw trigger options of create-task and preview.
type triggerFlags struct {
	Kind           string
	Start          time.Time
	Interval       int
	Days           string
	Delay          time.Duration
	LogonUser      string
	Day            int
	Week           int
	Weekday        string
	MonthsInterval int
	IdleMinutes    int
	EventLog       string
	EventSource    string
	EventID        *int
	SessionChange  string
}

// parseStartTime accepts "YYYY-MM-DD HH:MM[:SS]", the same with a T
// separator, or RFC 3339. An empty value yields the zero time.
func parseStartTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	for _, layout := range startTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("error: invalid --starttime %q, expected YYYY-MM-DD HH:MM", value)
}

// parseDelay accepts Go durations ("90s", "1h30m") and bare integers,
// which are minutes.
func parseDelay(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Minute, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("error: invalid --delay %q, expected minutes or a duration like 90s", value)
	}
	return d, nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

func parseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if d, ok := weekdayNames[s]; ok {
		return d, nil
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n <= 6 {
		return time.Weekday(n), nil
	}
	return 0, fmt.Errorf("error: unknown weekday %q", s)
}

// parseDays reads a comma or space separated day list such as "Mon,Wed".
// "weekdays" and "all" are accepted as shorthands.
func parseDays(value string) ([]time.Weekday, error) {
	var days []time.Weekday
	seen := make(map[time.Weekday]bool)
	add := func(d time.Weekday) {
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	for _, f := range strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ' ' || r == ';' }) {
		switch strings.ToLower(f) {
		case "weekdays":
			for d := time.Monday; d <= time.Friday; d++ {
				add(d)
			}
			continue
		case "all", "everyday":
			for d := time.Sunday; d <= time.Saturday; d++ {
				add(d)
			}
			continue
		}
		d, err := parseWeekday(f)
		if err != nil {
			return nil, err
		}
		add(d)
	}
	return days, nil
}

var sessionChanges = map[string]taskdef.SessionStateChange{
	"consoleconnect":    taskdef.ConsoleConnect,
	"consoledisconnect": taskdef.ConsoleDisconnect,
	"remoteconnect":     taskdef.RemoteConnect,
	"remotedisconnect":  taskdef.RemoteDisconnect,
	"sessionlock":       taskdef.SessionLock,
	"lock":              taskdef.SessionLock,
	"sessionunlock":     taskdef.SessionUnlock,
	"unlock":            taskdef.SessionUnlock,
}

func parseSessionChange(value string) (taskdef.SessionStateChange, error) {
	key := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(value))
	if key == "" {
		return taskdef.ConsoleConnect, nil
	}
	if c, ok := sessionChanges[key]; ok {
		return c, nil
	}
	return "", fmt.Errorf("error: unknown --session-change %q", value)
}

// parseTrigger maps the --trigger name and its options onto a trigger
// spec. Names are case-insensitive; the Task Scheduler UI labels
// ("AtStartup", "OnIdle" ...) are accepted as well.
func parseTrigger(f triggerFlags) (trigger.Spec, error) {
	kind := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(f.Kind))
	switch kind {
	case "", "once", "onetime":
		return trigger.Once{At: f.Start}, nil
	case "daily":
		return trigger.Daily{At: f.Start, IntervalDays: f.Interval}, nil
	case "weekly":
		days, err := parseDays(f.Days)
		if err != nil {
			return nil, err
		}
		return trigger.Weekly{At: f.Start, IntervalWeeks: f.Interval, Days: days}, nil
	case "monthly":
		return trigger.MonthlyByDay{At: f.Start, Day: f.Day, IntervalMonths: f.MonthsInterval}, nil
	case "monthlydow", "monthlybyweekday":
		wd := time.Monday
		if f.Weekday != "" {
			d, err := parseWeekday(f.Weekday)
			if err != nil {
				return nil, err
			}
			wd = d
		}
		return trigger.MonthlyByWeekday{At: f.Start, WeekOrdinal: f.Week, Weekday: wd, IntervalMonths: f.MonthsInterval}, nil
	case "startup", "atstartup", "boot":
		return trigger.Startup{Delay: f.Delay}, nil
	case "logon", "atlogon":
		return trigger.Logon{Delay: f.Delay, User: f.LogonUser}, nil
	case "idle", "onidle":
		return trigger.Idle{Minutes: f.IdleMinutes}, nil
	case "event", "onevent":
		return trigger.Event{LogName: f.EventLog, Source: f.EventSource, EventID: f.EventID}, nil
	case "registration", "onregistration":
		return trigger.Registration{Delay: f.Delay}, nil
	case "session", "sessionstatechange":
		change, err := parseSessionChange(f.SessionChange)
		if err != nil {
			return nil, err
		}
		return trigger.SessionStateChange{Change: change, User: f.LogonUser, Delay: f.Delay}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownTrigger, f.Kind)
	}
}
