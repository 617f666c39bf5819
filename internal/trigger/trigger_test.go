package trigger

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/warpdl/warpsched/pkg/taskdef"
)

var start = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

func TestCompileFallbacks(t *testing.T) {
	got := Compile(nil, start)
	if got.Kind != taskdef.TriggerTime || !got.StartBoundary.Equal(start) {
		t.Errorf("nil spec: got %+v", got)
	}
	got = Compile(Daily{}, start)
	if !got.StartBoundary.Equal(start) || got.DaysInterval != 1 {
		t.Errorf("zero daily: got %+v", got)
	}
	if !got.Enabled {
		t.Errorf("compiled trigger should be enabled")
	}
}

func TestCompileOnce(t *testing.T) {
	at := time.Date(2025, 1, 1, 9, 0, 0, 0, time.Local)
	got := Compile(Once{At: at}, start)
	if got.Kind != taskdef.TriggerTime || !got.StartBoundary.Equal(at) {
		t.Errorf("got %+v", got)
	}
}

func TestCompileWeeklyDefaultsToMonday(t *testing.T) {
	for _, days := range [][]time.Weekday{nil, {}} {
		got := Compile(Weekly{At: start, IntervalWeeks: 2, Days: days}, start)
		if got.DaysOfWeek != taskdef.Monday {
			t.Errorf("days = %v, want Monday", got.DaysOfWeek)
		}
		if got.WeeksInterval != 2 {
			t.Errorf("weeks interval = %d", got.WeeksInterval)
		}
	}
	got := Compile(Weekly{Days: []time.Weekday{time.Tuesday, time.Saturday}}, start)
	if got.DaysOfWeek != taskdef.Tuesday|taskdef.Saturday || got.WeeksInterval != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestMonthsForInterval(t *testing.T) {
	tests := []struct {
		n    int
		want taskdef.MonthsOfYear
	}{
		{1, taskdef.AllMonths},
		{2, taskdef.January | taskdef.March | taskdef.May | taskdef.July | taskdef.September | taskdef.November},
		{3, taskdef.January | taskdef.April | taskdef.July | taskdef.October},
		{6, taskdef.January | taskdef.July},
		{12, taskdef.January},
		{0, taskdef.AllMonths},
		{4, taskdef.AllMonths},
		{5, taskdef.AllMonths},
		{-1, taskdef.AllMonths},
		{24, taskdef.AllMonths},
	}
	for _, tt := range tests {
		if got := MonthsForInterval(tt.n); got != tt.want {
			t.Errorf("MonthsForInterval(%d) = %s, want %s", tt.n, got, tt.want)
		}
	}
}

func TestCompileMonthlyByDay(t *testing.T) {
	got := Compile(MonthlyByDay{At: start, Day: 15, IntervalMonths: 3}, start)
	if got.Kind != taskdef.TriggerMonthly {
		t.Fatalf("kind = %s", got.Kind)
	}
	if got.MonthsOfYear != taskdef.January|taskdef.April|taskdef.July|taskdef.October {
		t.Errorf("months = %s", got.MonthsOfYear)
	}
	if len(got.DaysOfMonth) != 1 || got.DaysOfMonth[0] != 15 {
		t.Errorf("days = %v", got.DaysOfMonth)
	}
	got = Compile(MonthlyByDay{Day: 40}, start)
	if got.DaysOfMonth[0] != 1 {
		t.Errorf("out of range day should clamp to 1, got %v", got.DaysOfMonth)
	}
}

func TestCompileMonthlyByWeekday(t *testing.T) {
	for _, ord := range []int{5, 6, 99, 0, -3} {
		got := Compile(MonthlyByWeekday{WeekOrdinal: ord, Weekday: time.Friday, IntervalMonths: 1}, start)
		if got.WeeksOfMonth != taskdef.LastWeek {
			t.Errorf("ordinal %d -> %s, want Last", ord, got.WeeksOfMonth)
		}
	}
	got := Compile(MonthlyByWeekday{WeekOrdinal: 2, Weekday: time.Wednesday, IntervalMonths: 6}, start)
	if got.Kind != taskdef.TriggerMonthlyDOW || got.WeeksOfMonth != taskdef.SecondWeek ||
		got.DaysOfWeek != taskdef.Wednesday || got.MonthsOfYear != taskdef.January|taskdef.July {
		t.Errorf("got %+v", got)
	}
}

func TestCompileEventDriven(t *testing.T) {
	got := Compile(Startup{Delay: 5 * time.Minute}, start)
	if got.Kind != taskdef.TriggerBoot || got.Delay != 5*time.Minute {
		t.Errorf("startup: %+v", got)
	}
	got = Compile(Logon{User: `CORP\alice`, Delay: -time.Minute}, start)
	if got.Kind != taskdef.TriggerLogon || got.UserID != `CORP\alice` || got.Delay != 0 {
		t.Errorf("logon: %+v", got)
	}
	got = Compile(Idle{Minutes: 20}, start)
	if got.Kind != taskdef.TriggerIdle {
		t.Errorf("idle: %+v", got)
	}
	got = Compile(Registration{Delay: time.Minute}, start)
	if got.Kind != taskdef.TriggerRegistration || got.Delay != time.Minute {
		t.Errorf("registration: %+v", got)
	}
	got = Compile(SessionStateChange{}, start)
	if got.Kind != taskdef.TriggerSessionStateChange || got.StateChange != taskdef.ConsoleConnect || got.UserID != "" {
		t.Errorf("session: %+v", got)
	}
	got = Compile(SessionStateChange{Change: taskdef.SessionLock, User: "bob"}, start)
	if got.StateChange != taskdef.SessionLock || got.UserID != "bob" {
		t.Errorf("session: %+v", got)
	}
}

func TestEventQuery(t *testing.T) {
	id := 4625
	got := Compile(Event{LogName: "Security", Source: "Microsoft-Windows-Security-Auditing", EventID: &id}, start)
	want := `<QueryList><Query Id="0" Path="Security"><Select Path="Security">*[System/Provider/@Name='Microsoft-Windows-Security-Auditing'][System/EventID=4625]</Select></Query></QueryList>`
	if got.Subscription != want {
		t.Errorf("subscription = %s", got.Subscription)
	}
	q := EventQuery("Application", "", nil)
	if !strings.Contains(q, `<Select Path="Application">*</Select>`) {
		t.Errorf("bare query = %s", q)
	}
	q = EventQuery("System", "", &id)
	if strings.Contains(q, "Provider") || !strings.Contains(q, "EventID=4625") {
		t.Errorf("id only query = %s", q)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		ok   bool
	}{
		{"nil", nil, true},
		{"once", Once{}, true},
		{"dow ordinal 6", MonthlyByWeekday{WeekOrdinal: 6}, true},
		{"monthly day 40", MonthlyByDay{Day: 40}, true},
		{"event missing log", Event{Source: "x"}, false},
		{"event blank log", Event{LogName: "  "}, false},
		{"event ok", Event{LogName: "System"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.spec)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidSpec) {
				t.Errorf("error %v does not wrap ErrInvalidSpec", err)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	neg := -1
	tests := []struct {
		name string
		spec Spec
		want int
	}{
		{"nil", nil, 0},
		{"daily negative", Daily{IntervalDays: -2}, 1},
		{"weekly bad day", Weekly{Days: []time.Weekday{time.Monday, 9}}, 1},
		{"monthly day 0", MonthlyByDay{Day: 0}, 1},
		{"monthly day 31", MonthlyByDay{Day: 31}, 0},
		{"dow ordinal 6", MonthlyByWeekday{WeekOrdinal: 6}, 1},
		{"dow ordinal 5", MonthlyByWeekday{WeekOrdinal: 5}, 0},
		{"dow ordinal 0 bad weekday", MonthlyByWeekday{Weekday: 7}, 2},
		{"startup negative", Startup{Delay: -time.Second}, 1},
		{"event negative id", Event{LogName: "System", EventID: &neg}, 1},
		{"idle negative", Idle{Minutes: -5}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Check(tt.spec)
			if len(errs) != tt.want {
				t.Fatalf("Check() = %v, want %d errors", errs, tt.want)
			}
			for _, err := range errs {
				if !errors.Is(err, ErrInvalidSpec) {
					t.Errorf("error %v does not wrap ErrInvalidSpec", err)
				}
			}
		})
	}
}

func TestOutOfRangeOrdinalCompilesToLastWeek(t *testing.T) {
	for _, ord := range []int{5, 6, 42} {
		got := Compile(MonthlyByWeekday{WeekOrdinal: ord, Weekday: time.Friday}, start)
		if got.WeeksOfMonth != taskdef.LastWeek {
			t.Errorf("ordinal %d compiled to %v", ord, got.WeeksOfMonth)
		}
	}
}

func TestNextRun(t *testing.T) {
	tests := []struct {
		name  string
		trig  taskdef.Trigger
		after time.Time
		want  time.Time
	}{
		{
			"once in future",
			Compile(Once{At: start}, start),
			start.Add(-time.Hour),
			start,
		},
		{
			"daily",
			Compile(Daily{At: start}, start),
			time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
			time.Date(2026, 1, 6, 9, 0, 0, 0, time.UTC),
		},
		{
			"daily before start",
			Compile(Daily{At: start}, start),
			start.Add(-48 * time.Hour),
			start,
		},
		{
			"every three days",
			Compile(Daily{At: start, IntervalDays: 3}, start),
			time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
			time.Date(2026, 1, 7, 9, 0, 0, 0, time.UTC),
		},
		{
			// 2026-01-01 is a Thursday.
			"weekly",
			Compile(Weekly{At: start, Days: []time.Weekday{time.Monday}}, start),
			start,
			time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
		},
		{
			"every other week",
			Compile(Weekly{At: start, IntervalWeeks: 2, Days: []time.Weekday{time.Monday, time.Thursday}}, start),
			start,
			time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC),
		},
		{
			"monthly by day",
			Compile(MonthlyByDay{At: start, Day: 15, IntervalMonths: 6}, start),
			time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 7, 15, 9, 0, 0, 0, time.UTC),
		},
		{
			"last friday",
			Compile(MonthlyByWeekday{At: start, WeekOrdinal: 5, Weekday: time.Friday, IntervalMonths: 1}, start),
			start,
			time.Date(2026, 1, 30, 9, 0, 0, 0, time.UTC),
		},
		{
			"second tuesday",
			Compile(MonthlyByWeekday{At: start, WeekOrdinal: 2, Weekday: time.Tuesday, IntervalMonths: 1}, start),
			time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextRun(tt.trig, tt.after)
			if !ok {
				t.Fatalf("NextRun reported no next run")
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextRun = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextRunNonCalendar(t *testing.T) {
	for _, s := range []Spec{Startup{}, Logon{}, Idle{}, Event{LogName: "System"}, Registration{}} {
		if _, ok := NextRun(Compile(s, start), start); ok {
			t.Errorf("%s should have no calendar next run", Kind(s))
		}
	}
	if _, ok := NextRun(Compile(Once{At: start}, start), start.Add(time.Hour)); ok {
		t.Errorf("past one-shot trigger should have no next run")
	}
}
