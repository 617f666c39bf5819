package settings

import (
	"strconv"
	"strings"

	"github.com/warpdl/warpsched/pkg/taskdef"
)

// FromMap builds Options from the flat key/value table used on the command
// line and in the config file. Keys are matched case-insensitively; unknown
// keys and values that do not parse are skipped.
func FromMap(m map[string]string) Options {
	var o Options
	for k, v := range m {
		v = strings.TrimSpace(v)
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "allowdemandstart", "allowdemand":
			setBool(&o.AllowDemandStart, v)
		case "runifmissed", "startwhenavailable":
			setBool(&o.RunIfMissed, v)
		case "restartcount":
			setInt(&o.RestartCount, v)
		case "restartinterval":
			setInt(&o.RestartIntervalMinutes, v)
		case "executiontimelimit", "executionhours":
			setInt(&o.ExecutionTimeLimitHours, v)
		case "multipleinstances", "instancepolicy":
			if p, ok := ParsePolicy(v); ok {
				o.MultipleInstances = &p
			}
		case "runonlyifnetworkavailable":
			setBool(&o.RunOnlyIfNetworkAvailable, v)
		case "stopifgoingonbatteries":
			setBool(&o.StopIfGoingOnBatteries, v)
		case "disallowstartifonbatteries":
			setBool(&o.DisallowStartIfOnBatteries, v)
		case "waketorun":
			setBool(&o.WakeToRun, v)
		case "runonlyifidle":
			setBool(&o.RunOnlyIfIdle, v)
		case "idleminutes":
			setInt(&o.IdleMinutes, v)
		case "idlewaittimeout":
			setInt(&o.IdleWaitTimeoutMinutes, v)
		case "idlestoponend":
			setBool(&o.IdleStopOnEnd, v)
		case "idlerestartonidle":
			setBool(&o.IdleRestartOnIdle, v)
		case "deletewhenexpired":
			setBool(&o.DeleteWhenExpired, v)
		case "forcestop", "allowhardterminate":
			setBool(&o.AllowHardTerminate, v)
		case "runlevel":
			if l, ok := ParseRunLevel(v); ok {
				o.RunLevel = &l
			}
		case "enabled":
			setBool(&o.Enabled, v)
		case "hidden":
			setBool(&o.Hidden, v)
		case "priority":
			setInt(&o.Priority, v)
		}
	}
	// NoTimeLimit wins over an explicit hour count, whichever order the
	// keys were iterated in.
	for k, v := range m {
		if strings.EqualFold(strings.TrimSpace(k), "NoTimeLimit") {
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil && b {
				o.ExecutionTimeLimitHours = Int(0)
			}
		}
	}
	return o
}

// ParsePolicy accepts the policy names, the short CLI spellings
// (QUEUE, PARALLEL, IGNORE, STOP) and the platform's integer values 0..3.
func ParsePolicy(s string) (taskdef.InstancesPolicy, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "IGNORENEW", "IGNORE", "0":
		return taskdef.IgnoreNew, true
	case "PARALLEL", "1":
		return taskdef.Parallel, true
	case "QUEUE", "2":
		return taskdef.Queue, true
	case "STOPEXISTING", "STOP", "3":
		return taskdef.StopExisting, true
	}
	return "", false
}

// ParseRunLevel accepts Standard/Highest (also LUA/HighestAvailable) and
// the integer values 0/1.
func ParseRunLevel(s string) (RunLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "STANDARD", "LUA", "LIMITED", "LEASTPRIVILEGE", "0":
		return Standard, true
	case "HIGHEST", "HIGHESTAVAILABLE", "1":
		return Highest, true
	}
	return 0, false
}

func setBool(dst **bool, v string) {
	if b, err := strconv.ParseBool(v); err == nil {
		*dst = &b
	}
}

func setInt(dst **int, v string) {
	if n, err := strconv.Atoi(v); err == nil {
		*dst = &n
	}
}
