// Package trigger compiles declarative trigger specs into the single platform
// trigger a task carries.
package trigger

import (
	"time"

	"github.com/warpdl/warpsched/pkg/taskdef"
)

// Spec is one of the trigger variants below. The set is closed.
type Spec interface {
	isSpec()
}

// Once fires a single time at At.
type Once struct {
	At time.Time
}

// Daily fires every IntervalDays days at the time of day of At.
type Daily struct {
	At           time.Time
	IntervalDays int
}

// Weekly fires on Days every IntervalWeeks weeks. An empty Days means Monday.
type Weekly struct {
	At            time.Time
	IntervalWeeks int
	Days          []time.Weekday
}

// MonthlyByDay fires on calendar day Day of the months selected by
// IntervalMonths.
type MonthlyByDay struct {
	At             time.Time
	Day            int
	IntervalMonths int
}

// MonthlyByWeekday fires on the WeekOrdinal-th Weekday of the selected
// months. Ordinal 5 means the last one.
type MonthlyByWeekday struct {
	At             time.Time
	WeekOrdinal    int
	Weekday        time.Weekday
	IntervalMonths int
}

// Startup fires Delay after the machine boots.
type Startup struct {
	Delay time.Duration
}

// Logon fires Delay after User logs on, or after any interactive logon when
// User is empty.
type Logon struct {
	Delay time.Duration
	User  string
}

// Idle fires when the machine has been idle. Minutes seeds the idle
// duration in the task settings.
type Idle struct {
	Minutes int
}

// Event fires when a matching record is written to an event log.
type Event struct {
	LogName string
	Source  string
	EventID *int
}

// Registration fires Delay after the task is created or updated.
type Registration struct {
	Delay time.Duration
}

// SessionStateChange fires on a terminal-server session transition. An
// empty User matches any user.
type SessionStateChange struct {
	Change taskdef.SessionStateChange
	User   string
	Delay  time.Duration
}

func (Once) isSpec()               {}
func (Daily) isSpec()              {}
func (Weekly) isSpec()             {}
func (MonthlyByDay) isSpec()       {}
func (MonthlyByWeekday) isSpec()   {}
func (Startup) isSpec()            {}
func (Logon) isSpec()              {}
func (Idle) isSpec()               {}
func (Event) isSpec()              {}
func (Registration) isSpec()       {}
func (SessionStateChange) isSpec() {}

// Kind names the variant of s for diagnostics.
func Kind(s Spec) string {
	switch s.(type) {
	case Once:
		return "Once"
	case Daily:
		return "Daily"
	case Weekly:
		return "Weekly"
	case MonthlyByDay:
		return "MonthlyByDay"
	case MonthlyByWeekday:
		return "MonthlyByWeekday"
	case Startup:
		return "Startup"
	case Logon:
		return "Logon"
	case Idle:
		return "Idle"
	case Event:
		return "Event"
	case Registration:
		return "Registration"
	case SessionStateChange:
		return "SessionStateChange"
	default:
		return "Once"
	}
}
