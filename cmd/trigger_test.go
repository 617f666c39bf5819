package cmd

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/warpdl/warpsched/internal/trigger"
	"github.com/warpdl/warpsched/pkg/taskdef"
)

func TestParseStartTime(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"", time.Time{}, false},
		{"2025-03-01 02:30", time.Date(2025, 3, 1, 2, 30, 0, 0, time.Local), false},
		{"2025-03-01T02:30:15", time.Date(2025, 3, 1, 2, 30, 15, 0, time.Local), false},
		{"2025-03-01T02:30:00Z", time.Date(2025, 3, 1, 2, 30, 0, 0, time.UTC), false},
		{"tomorrow", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseStartTime(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseStartTime(%q) error = %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseStartTime(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseDelay(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"5", 5 * time.Minute, false},
		{"90s", 90 * time.Second, false},
		{"1h30m", 90 * time.Minute, false},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDelay(tt.in)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("parseDelay(%q) = %v, %v", tt.in, got, err)
			}
		})
	}
}

func TestParseDays(t *testing.T) {
	tests := []struct {
		in      string
		want    []time.Weekday
		wantErr bool
	}{
		{"", nil, false},
		{"Mon,Wed,Fri", []time.Weekday{time.Monday, time.Wednesday, time.Friday}, false},
		{"tuesday thursday", []time.Weekday{time.Tuesday, time.Thursday}, false},
		{"mon;MON;1", []time.Weekday{time.Monday}, false},
		{"weekdays", []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}, false},
		{"sat,all", []time.Weekday{time.Saturday, time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}, false},
		{"Mon,Funday", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDays(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDays(%q) error = %v", tt.in, err)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseDays(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseTrigger(t *testing.T) {
	at := time.Date(2025, 6, 1, 8, 0, 0, 0, time.Local)
	id := 4624
	tests := []struct {
		name string
		f    triggerFlags
		want trigger.Spec
	}{
		{"default", triggerFlags{Start: at}, trigger.Once{At: at}},
		{"daily", triggerFlags{Kind: "Daily", Start: at, Interval: 2}, trigger.Daily{At: at, IntervalDays: 2}},
		{"weekly", triggerFlags{Kind: "weekly", Start: at, Interval: 1, Days: "Mon,Thu"},
			trigger.Weekly{At: at, IntervalWeeks: 1, Days: []time.Weekday{time.Monday, time.Thursday}}},
		{"monthly", triggerFlags{Kind: "monthly", Start: at, Day: 15, MonthsInterval: 3},
			trigger.MonthlyByDay{At: at, Day: 15, IntervalMonths: 3}},
		{"monthly-dow", triggerFlags{Kind: "monthly-dow", Start: at, Week: 5, Weekday: "fri", MonthsInterval: 1},
			trigger.MonthlyByWeekday{At: at, WeekOrdinal: 5, Weekday: time.Friday, IntervalMonths: 1}},
		{"monthly-dow default weekday", triggerFlags{Kind: "MonthlyDOW", Week: 1},
			trigger.MonthlyByWeekday{WeekOrdinal: 1, Weekday: time.Monday}},
		{"startup", triggerFlags{Kind: "AtStartup", Delay: time.Minute}, trigger.Startup{Delay: time.Minute}},
		{"logon", triggerFlags{Kind: "logon", LogonUser: `CORP\alice`}, trigger.Logon{User: `CORP\alice`}},
		{"idle", triggerFlags{Kind: "OnIdle", IdleMinutes: 20}, trigger.Idle{Minutes: 20}},
		{"event", triggerFlags{Kind: "event", EventLog: "Security", EventID: &id},
			trigger.Event{LogName: "Security", EventID: &id}},
		{"registration", triggerFlags{Kind: "registration", Delay: 30 * time.Second}, trigger.Registration{Delay: 30 * time.Second}},
		{"session", triggerFlags{Kind: "session", SessionChange: "session-lock"},
			trigger.SessionStateChange{Change: taskdef.SessionLock}},
		{"session default", triggerFlags{Kind: "SessionStateChange"},
			trigger.SessionStateChange{Change: taskdef.ConsoleConnect}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTrigger(tt.f)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseTrigger() = %#v\nwant %#v", got, tt.want)
			}
		})
	}
}

func TestParseTriggerErrors(t *testing.T) {
	tests := []struct {
		name string
		f    triggerFlags
	}{
		{"unknown kind", triggerFlags{Kind: "hourly"}},
		{"bad day", triggerFlags{Kind: "weekly", Days: "Mon,Someday"}},
		{"bad weekday", triggerFlags{Kind: "monthly-dow", Weekday: "8"}},
		{"bad session", triggerFlags{Kind: "session", SessionChange: "reboot"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseTrigger(tt.f); err == nil {
				t.Errorf("parseTrigger(%+v) succeeded", tt.f)
			}
		})
	}
	if _, err := parseTrigger(triggerFlags{Kind: "hourly"}); !errors.Is(err, ErrUnknownTrigger) {
		t.Errorf("expected ErrUnknownTrigger, got %v", err)
	}
}
