// Package settings compiles the task option table into platform task
// settings. Every option is optional; a nil field takes its default.
package settings

import (
	"time"

	"github.com/warpdl/warpsched/pkg/taskdef"
)

const (
	DefaultRestartCount    = 3
	DefaultRestartInterval = 15 * time.Minute
	DefaultExecutionHours  = 3
	DefaultIdleMinutes     = 10
	DefaultIdleWaitMinutes = 60
	DefaultPriority        = 7
	DeleteExpiredTaskAfter = 30 * 24 * time.Hour
	DefaultInstancesPolicy = taskdef.Queue
	maxPriority            = 10
)

// RunLevel is the privilege choice exposed to operators.
type RunLevel int

const (
	Standard RunLevel = iota
	Highest
)

// Options is the typed option set. Durations are expressed in the units
// operators use: minutes for restart and idle values, hours for the
// execution limit.
type Options struct {
	AllowDemandStart           *bool
	RunIfMissed                *bool
	RestartCount               *int
	RestartIntervalMinutes     *int
	ExecutionTimeLimitHours    *int
	MultipleInstances          *taskdef.InstancesPolicy
	RunOnlyIfNetworkAvailable  *bool
	StopIfGoingOnBatteries     *bool
	DisallowStartIfOnBatteries *bool
	WakeToRun                  *bool
	RunOnlyIfIdle              *bool
	IdleMinutes                *int
	IdleWaitTimeoutMinutes     *int
	IdleStopOnEnd              *bool
	IdleRestartOnIdle          *bool
	DeleteWhenExpired          *bool
	AllowHardTerminate         *bool
	RunLevel                   *RunLevel
	Enabled                    *bool
	Hidden                     *bool
	Priority                   *int
}

// Compile fills every absent option with its default. It never fails.
func Compile(o Options) taskdef.Settings {
	s := taskdef.Settings{
		AllowDemandStart:           boolOr(o.AllowDemandStart, true),
		StartWhenAvailable:         boolOr(o.RunIfMissed, false),
		RestartCount:               intOr(o.RestartCount, DefaultRestartCount),
		RestartInterval:            DefaultRestartInterval,
		MultipleInstances:          DefaultInstancesPolicy,
		StopIfGoingOnBatteries:     boolOr(o.StopIfGoingOnBatteries, true),
		DisallowStartIfOnBatteries: boolOr(o.DisallowStartIfOnBatteries, false),
		RunOnlyIfNetworkAvailable:  boolOr(o.RunOnlyIfNetworkAvailable, false),
		WakeToRun:                  boolOr(o.WakeToRun, false),
		RunOnlyIfIdle:              boolOr(o.RunOnlyIfIdle, false),
		Idle: taskdef.IdleSettings{
			Duration:      minutes(intOr(o.IdleMinutes, DefaultIdleMinutes)),
			WaitTimeout:   minutes(intOr(o.IdleWaitTimeoutMinutes, DefaultIdleWaitMinutes)),
			StopOnIdleEnd: boolOr(o.IdleStopOnEnd, true),
			RestartOnIdle: boolOr(o.IdleRestartOnIdle, false),
		},
		AllowHardTerminate: boolOr(o.AllowHardTerminate, true),
		Enabled:            boolOr(o.Enabled, true),
		Hidden:             boolOr(o.Hidden, false),
		Priority:           DefaultPriority,
		RunLevel:           taskdef.LeastPrivilege,
	}
	if s.RestartCount < 0 {
		s.RestartCount = 0
	}
	if o.RestartIntervalMinutes != nil && *o.RestartIntervalMinutes > 0 {
		s.RestartInterval = minutes(*o.RestartIntervalMinutes)
	}
	hours := intOr(o.ExecutionTimeLimitHours, DefaultExecutionHours)
	if hours > 0 {
		s.ExecutionTimeLimit = time.Duration(hours) * time.Hour
	}
	if o.MultipleInstances != nil && validPolicy(*o.MultipleInstances) {
		s.MultipleInstances = *o.MultipleInstances
	}
	if boolOr(o.DeleteWhenExpired, false) {
		s.DeleteExpiredTaskAfter = DeleteExpiredTaskAfter
	}
	if o.RunLevel != nil && *o.RunLevel == Highest {
		s.RunLevel = taskdef.HighestAvailable
	}
	if o.Priority != nil && *o.Priority >= 0 && *o.Priority <= maxPriority {
		s.Priority = *o.Priority
	}
	return s
}

func validPolicy(p taskdef.InstancesPolicy) bool {
	switch p {
	case taskdef.IgnoreNew, taskdef.Parallel, taskdef.Queue, taskdef.StopExisting:
		return true
	}
	return false
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func minutes(n int) time.Duration {
	if n < 0 {
		return 0
	}
	return time.Duration(n) * time.Minute
}

// Bool returns a pointer to b, for building Options literals.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to n, for building Options literals.
func Int(n int) *int { return &n }

// Policy returns a pointer to p, for building Options literals.
func Policy(p taskdef.InstancesPolicy) *taskdef.InstancesPolicy { return &p }

// Level returns a pointer to l, for building Options literals.
func Level(l RunLevel) *RunLevel { return &l }
