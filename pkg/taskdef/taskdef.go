// Package taskdef models a compiled Windows Task Scheduler task: exactly one
// trigger, an ordered list of actions, the task settings and the principal the
// task runs as. Values of this package are produced by the compiler and
// consumed by a registrar; they carry no behaviour beyond rendering themselves
// as Task Scheduler XML.
package taskdef

import (
	"fmt"
	"strings"
	"time"
)

// TriggerKind identifies the platform trigger primitive.
type TriggerKind string

const (
	TriggerTime               TriggerKind = "Time"
	TriggerDaily              TriggerKind = "Daily"
	TriggerWeekly             TriggerKind = "Weekly"
	TriggerMonthly            TriggerKind = "Monthly"
	TriggerMonthlyDOW         TriggerKind = "MonthlyDOW"
	TriggerBoot               TriggerKind = "Boot"
	TriggerLogon              TriggerKind = "Logon"
	TriggerIdle               TriggerKind = "Idle"
	TriggerEvent              TriggerKind = "Event"
	TriggerRegistration       TriggerKind = "Registration"
	TriggerSessionStateChange TriggerKind = "SessionStateChange"
)

// DaysOfWeek is the scheduler's day bitset. Sunday is bit 0.
type DaysOfWeek uint8

const (
	Sunday DaysOfWeek = 1 << iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday

	AllDays DaysOfWeek = 0x7f
)

// DayOf maps a time.Weekday onto its bit.
func DayOf(d time.Weekday) DaysOfWeek {
	if d < time.Sunday || d > time.Saturday {
		return 0
	}
	return 1 << uint(d)
}

// Has reports whether d is in the set.
func (s DaysOfWeek) Has(d time.Weekday) bool {
	return s&DayOf(d) != 0
}

// Weekdays returns the set members ordered Sunday first.
func (s DaysOfWeek) Weekdays() []time.Weekday {
	var out []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

func (s DaysOfWeek) String() string {
	names := make([]string, 0, 7)
	for _, d := range s.Weekdays() {
		names = append(names, d.String())
	}
	return strings.Join(names, ",")
}

// MonthsOfYear is the scheduler's month bitset. January is bit 0.
type MonthsOfYear uint16

const (
	January MonthsOfYear = 1 << iota
	February
	March
	April
	May
	June
	July
	August
	September
	October
	November
	December

	AllMonths MonthsOfYear = 0xfff
)

// MonthOf maps a time.Month onto its bit.
func MonthOf(m time.Month) MonthsOfYear {
	if m < time.January || m > time.December {
		return 0
	}
	return 1 << uint(m-1)
}

// Has reports whether m is in the set.
func (s MonthsOfYear) Has(m time.Month) bool {
	return s&MonthOf(m) != 0
}

// Months returns the set members in calendar order.
func (s MonthsOfYear) Months() []time.Month {
	var out []time.Month
	for m := time.January; m <= time.December; m++ {
		if s.Has(m) {
			out = append(out, m)
		}
	}
	return out
}

func (s MonthsOfYear) String() string {
	names := make([]string, 0, 12)
	for _, m := range s.Months() {
		names = append(names, m.String()[:3])
	}
	return strings.Join(names, ",")
}

// WhichWeek selects a week of the month for MonthlyDOW triggers.
type WhichWeek uint8

const (
	FirstWeek WhichWeek = 1 << iota
	SecondWeek
	ThirdWeek
	FourthWeek
	LastWeek
)

func (w WhichWeek) String() string {
	switch w {
	case FirstWeek:
		return "First"
	case SecondWeek:
		return "Second"
	case ThirdWeek:
		return "Third"
	case FourthWeek:
		return "Fourth"
	case LastWeek:
		return "Last"
	default:
		return fmt.Sprintf("WhichWeek(%d)", uint8(w))
	}
}

// SessionStateChange is the session event a SessionStateChange trigger reacts to.
type SessionStateChange string

const (
	ConsoleConnect    SessionStateChange = "ConsoleConnect"
	ConsoleDisconnect SessionStateChange = "ConsoleDisconnect"
	RemoteConnect     SessionStateChange = "RemoteConnect"
	RemoteDisconnect  SessionStateChange = "RemoteDisconnect"
	SessionLock       SessionStateChange = "SessionLock"
	SessionUnlock     SessionStateChange = "SessionUnlock"
)

// Trigger is the flat platform trigger. Only the fields relevant to Kind are
// meaningful; the rest stay zero.
type Trigger struct {
	Kind          TriggerKind
	StartBoundary time.Time
	Enabled       bool

	// Delay applies to Boot, Logon, Registration and SessionStateChange.
	Delay time.Duration
	// UserID pins Logon and SessionStateChange triggers to one account.
	UserID string

	DaysInterval  int
	WeeksInterval int
	DaysOfWeek    DaysOfWeek
	DaysOfMonth   []int
	MonthsOfYear  MonthsOfYear
	WeeksOfMonth  WhichWeek

	// Subscription is the event log query of an Event trigger.
	Subscription string
	StateChange  SessionStateChange
}

// ActionKind identifies the platform action primitive.
type ActionKind string

const (
	ActionExec      ActionKind = "Exec"
	ActionSendEmail ActionKind = "SendEmail"
)

// HeaderField is one auxiliary mail header of a SendEmail action.
type HeaderField struct {
	Name  string
	Value string
}

// Action is the flat platform action.
type Action struct {
	Kind ActionKind

	// Exec
	Path             string
	Arguments        string
	WorkingDirectory string

	// SendEmail
	Server       string
	Subject      string
	To           string
	From         string
	Body         string
	HeaderFields []HeaderField
}

// CommandLine renders an Exec action the way CreateProcess would receive it.
func (a Action) CommandLine() string {
	if a.Arguments == "" {
		return Quote(a.Path)
	}
	return Quote(a.Path) + " " + a.Arguments
}

// Quote wraps s in double quotes unless it already is.
func Quote(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s
	}
	return `"` + s + `"`
}

// InstancesPolicy controls what happens when a trigger fires while the task runs.
type InstancesPolicy string

const (
	IgnoreNew    InstancesPolicy = "IgnoreNew"
	Parallel     InstancesPolicy = "Parallel"
	Queue        InstancesPolicy = "Queue"
	StopExisting InstancesPolicy = "StopExisting"
)

// RunLevel is the privilege level the task runs with.
type RunLevel string

const (
	LeastPrivilege   RunLevel = "LeastPrivilege"
	HighestAvailable RunLevel = "HighestAvailable"
)

// IdleSettings configures idle-gated execution.
type IdleSettings struct {
	Duration      time.Duration
	WaitTimeout   time.Duration
	StopOnIdleEnd bool
	RestartOnIdle bool
}

// Settings is the platform task-settings object.
type Settings struct {
	AllowDemandStart   bool
	StartWhenAvailable bool
	RestartCount       int
	RestartInterval    time.Duration
	// ExecutionTimeLimit of zero means unlimited.
	ExecutionTimeLimit         time.Duration
	MultipleInstances          InstancesPolicy
	RunOnlyIfNetworkAvailable  bool
	StopIfGoingOnBatteries     bool
	DisallowStartIfOnBatteries bool
	WakeToRun                  bool
	RunOnlyIfIdle              bool
	Idle                       IdleSettings
	DeleteExpiredTaskAfter     time.Duration
	AllowHardTerminate         bool
	Enabled                    bool
	Hidden                     bool
	Priority                   int
	RunLevel                   RunLevel
}

// LogonType tells the scheduler how to log the principal on.
type LogonType string

const (
	LogonInteractiveToken LogonType = "InteractiveToken"
	LogonPassword         LogonType = "Password"
	LogonServiceAccount   LogonType = "ServiceAccount"
	LogonS4U              LogonType = "S4U"
)

// Secret holds a password and refuses to print it.
type Secret string

func (Secret) String() string   { return "[redacted]" }
func (Secret) GoString() string { return `"[redacted]"` }

// Reveal returns the raw secret for the registration call.
func (s Secret) Reveal() string { return string(s) }

// Principal is the identity the task runs as.
type Principal struct {
	UserID    string
	LogonType LogonType
	RunLevel  RunLevel
	Secret    Secret
}

// Task is a compiled task ready for registration.
type Task struct {
	Name        string
	Description string
	Author      string
	Date        time.Time
	Trigger     Trigger
	Actions     []Action
	Settings    Settings
	Principal   Principal
}
