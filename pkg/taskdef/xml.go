package taskdef

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
)

const (
	taskNamespace = "http://schemas.microsoft.com/windows/2004/02/mit/task"
	taskVersion   = "1.2"
	// boundaryLayout is the local-time form the scheduler expects.
	boundaryLayout = "2006-01-02T15:04:05"
)

// XML renders the task as a Task Scheduler 1.2 document encoded as UTF-8.
// The secret is never part of the document.
func (t *Task) XML() ([]byte, error) {
	doc := xmlTask{
		Version: taskVersion,
		Xmlns:   taskNamespace,
		RegistrationInfo: xmlRegistrationInfo{
			Description: t.Description,
			Author:      t.Author,
			URI:         taskURI(t.Name),
		},
		Triggers: xmlTriggers{},
		Principals: xmlPrincipals{Principal: xmlPrincipal{
			ID:       "Author",
			UserID:   t.Principal.UserID,
			RunLevel: string(t.Principal.RunLevel),
		}},
		Settings: encodeSettings(t.Settings),
		Actions:  xmlActions{Context: "Author"},
	}
	if !t.Date.IsZero() {
		doc.RegistrationInfo.Date = t.Date.Format(boundaryLayout)
	}
	if t.Principal.LogonType != "" && t.Principal.LogonType != LogonServiceAccount {
		doc.Principals.Principal.LogonType = string(t.Principal.LogonType)
	}
	if err := encodeTrigger(&doc.Triggers, t.Trigger); err != nil {
		return nil, err
	}
	for i, a := range t.Actions {
		switch a.Kind {
		case ActionExec:
			doc.Actions.Items = append(doc.Actions.Items, xmlExec{
				Command:          a.Path,
				Arguments:        a.Arguments,
				WorkingDirectory: a.WorkingDirectory,
			})
		case ActionSendEmail:
			m := xmlSendEmail{
				Server:  a.Server,
				Subject: a.Subject,
				To:      a.To,
				From:    a.From,
				Body:    a.Body,
			}
			if len(a.HeaderFields) > 0 {
				m.HeaderFields = &xmlHeaderFields{}
				for _, h := range a.HeaderFields {
					m.HeaderFields.Fields = append(m.HeaderFields.Fields, xmlHeaderField(h))
				}
			}
			doc.Actions.Items = append(doc.Actions.Items, m)
		default:
			return nil, fmt.Errorf("action %d: unsupported kind %q", i, a.Kind)
		}
	}

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-16"?>` + "\n")
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode task xml: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// UTF16XML renders the task as schtasks.exe expects it on disk: UTF-16LE
// with a byte order mark.
func (t *Task) UTF16XML() ([]byte, error) {
	doc, err := t.XML()
	if err != nil {
		return nil, err
	}
	return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes(doc)
}

func taskURI(name string) string {
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, `\`) {
		return name
	}
	return `\` + name
}

// FormatDuration renders d as an ISO 8601 duration (PT15M, P30D, PT0S).
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "PT0S"
	}
	var b strings.Builder
	b.WriteByte('P')
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	if days > 0 {
		b.WriteString(strconv.FormatInt(int64(days), 10) + "D")
	}
	if d > 0 {
		b.WriteByte('T')
		h := d / time.Hour
		d -= h * time.Hour
		m := d / time.Minute
		d -= m * time.Minute
		s := d / time.Second
		if h > 0 {
			b.WriteString(strconv.FormatInt(int64(h), 10) + "H")
		}
		if m > 0 {
			b.WriteString(strconv.FormatInt(int64(m), 10) + "M")
		}
		if s > 0 {
			b.WriteString(strconv.FormatInt(int64(s), 10) + "S")
		}
	}
	return b.String()
}

func optDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return FormatDuration(d)
}

func encodeTrigger(ts *xmlTriggers, t Trigger) error {
	base := xmlTriggerBase{Enabled: t.Enabled}
	if !t.StartBoundary.IsZero() {
		base.StartBoundary = t.StartBoundary.Format(boundaryLayout)
	}
	switch t.Kind {
	case TriggerTime:
		ts.Time = &xmlTimeTrigger{xmlTriggerBase: base}
	case TriggerDaily:
		ts.Calendar = &xmlCalendarTrigger{
			xmlTriggerBase: base,
			ByDay:          &xmlScheduleByDay{DaysInterval: t.DaysInterval},
		}
	case TriggerWeekly:
		ts.Calendar = &xmlCalendarTrigger{
			xmlTriggerBase: base,
			ByWeek: &xmlScheduleByWeek{
				DaysOfWeek:    encodeDays(t.DaysOfWeek),
				WeeksInterval: t.WeeksInterval,
			},
		}
	case TriggerMonthly:
		days := xmlDaysOfMonth{Days: t.DaysOfMonth}
		ts.Calendar = &xmlCalendarTrigger{
			xmlTriggerBase: base,
			ByMonth: &xmlScheduleByMonth{
				DaysOfMonth: days,
				Months:      encodeMonths(t.MonthsOfYear),
			},
		}
	case TriggerMonthlyDOW:
		ts.Calendar = &xmlCalendarTrigger{
			xmlTriggerBase: base,
			ByMonthDOW: &xmlScheduleByMonthDOW{
				Weeks:      encodeWeeks(t.WeeksOfMonth),
				DaysOfWeek: encodeDays(t.DaysOfWeek),
				Months:     encodeMonths(t.MonthsOfYear),
			},
		}
	case TriggerBoot:
		ts.Boot = &xmlDelayTrigger{xmlTriggerBase: base, Delay: optDuration(t.Delay)}
	case TriggerLogon:
		ts.Logon = &xmlLogonTrigger{xmlTriggerBase: base, UserID: t.UserID, Delay: optDuration(t.Delay)}
	case TriggerIdle:
		ts.Idle = &xmlTimeTrigger{xmlTriggerBase: base}
	case TriggerEvent:
		ts.Event = &xmlEventTrigger{xmlTriggerBase: base, Subscription: t.Subscription}
	case TriggerRegistration:
		ts.Registration = &xmlDelayTrigger{xmlTriggerBase: base, Delay: optDuration(t.Delay)}
	case TriggerSessionStateChange:
		ts.Session = &xmlSessionTrigger{
			xmlTriggerBase: base,
			Delay:          optDuration(t.Delay),
			UserID:         t.UserID,
			StateChange:    string(t.StateChange),
		}
	default:
		return fmt.Errorf("unsupported trigger kind %q", t.Kind)
	}
	return nil
}

func encodeDays(d DaysOfWeek) xmlDaysOfWeek {
	var out xmlDaysOfWeek
	present := &struct{}{}
	if d.Has(time.Sunday) {
		out.Sunday = present
	}
	if d.Has(time.Monday) {
		out.Monday = present
	}
	if d.Has(time.Tuesday) {
		out.Tuesday = present
	}
	if d.Has(time.Wednesday) {
		out.Wednesday = present
	}
	if d.Has(time.Thursday) {
		out.Thursday = present
	}
	if d.Has(time.Friday) {
		out.Friday = present
	}
	if d.Has(time.Saturday) {
		out.Saturday = present
	}
	return out
}

func encodeMonths(m MonthsOfYear) xmlMonths {
	var out xmlMonths
	slots := []**struct{}{
		&out.January, &out.February, &out.March, &out.April, &out.May, &out.June,
		&out.July, &out.August, &out.September, &out.October, &out.November, &out.December,
	}
	for i, slot := range slots {
		if m.Has(time.Month(i + 1)) {
			*slot = &struct{}{}
		}
	}
	return out
}

func encodeWeeks(w WhichWeek) xmlWeeks {
	var out xmlWeeks
	for i, name := range []string{"1", "2", "3", "4", "Last"} {
		if w&(1<<uint(i)) != 0 {
			out.Weeks = append(out.Weeks, name)
		}
	}
	return out
}

func encodeSettings(s Settings) xmlSettings {
	out := xmlSettings{
		AllowStartOnDemand:         s.AllowDemandStart,
		MultipleInstancesPolicy:    string(s.MultipleInstances),
		DisallowStartIfOnBatteries: s.DisallowStartIfOnBatteries,
		StopIfGoingOnBatteries:     s.StopIfGoingOnBatteries,
		AllowHardTerminate:         s.AllowHardTerminate,
		StartWhenAvailable:         s.StartWhenAvailable,
		RunOnlyIfNetworkAvailable:  s.RunOnlyIfNetworkAvailable,
		WakeToRun:                  s.WakeToRun,
		Enabled:                    s.Enabled,
		Hidden:                     s.Hidden,
		DeleteExpiredTaskAfter:     optDuration(s.DeleteExpiredTaskAfter),
		IdleSettings: xmlIdleSettings{
			Duration:      optDuration(s.Idle.Duration),
			WaitTimeout:   optDuration(s.Idle.WaitTimeout),
			StopOnIdleEnd: s.Idle.StopOnIdleEnd,
			RestartOnIdle: s.Idle.RestartOnIdle,
		},
		ExecutionTimeLimit: FormatDuration(s.ExecutionTimeLimit),
		Priority:           s.Priority,
		RunOnlyIfIdle:      s.RunOnlyIfIdle,
	}
	if s.RestartCount > 0 && s.RestartInterval > 0 {
		out.RestartOnFailure = &xmlRestartOnFailure{
			Interval: FormatDuration(s.RestartInterval),
			Count:    s.RestartCount,
		}
	}
	return out
}

type xmlTask struct {
	XMLName          xml.Name            `xml:"Task"`
	Version          string              `xml:"version,attr"`
	Xmlns            string              `xml:"xmlns,attr"`
	RegistrationInfo xmlRegistrationInfo `xml:"RegistrationInfo"`
	Triggers         xmlTriggers         `xml:"Triggers"`
	Principals       xmlPrincipals       `xml:"Principals"`
	Settings         xmlSettings         `xml:"Settings"`
	Actions          xmlActions          `xml:"Actions"`
}

type xmlRegistrationInfo struct {
	Date        string `xml:"Date,omitempty"`
	Author      string `xml:"Author,omitempty"`
	Description string `xml:"Description,omitempty"`
	URI         string `xml:"URI,omitempty"`
}

type xmlTriggers struct {
	Time         *xmlTimeTrigger     `xml:"TimeTrigger,omitempty"`
	Calendar     *xmlCalendarTrigger `xml:"CalendarTrigger,omitempty"`
	Boot         *xmlDelayTrigger    `xml:"BootTrigger,omitempty"`
	Logon        *xmlLogonTrigger    `xml:"LogonTrigger,omitempty"`
	Idle         *xmlTimeTrigger     `xml:"IdleTrigger,omitempty"`
	Event        *xmlEventTrigger    `xml:"EventTrigger,omitempty"`
	Registration *xmlDelayTrigger    `xml:"RegistrationTrigger,omitempty"`
	Session      *xmlSessionTrigger  `xml:"SessionStateChangeTrigger,omitempty"`
}

type xmlTriggerBase struct {
	StartBoundary string `xml:"StartBoundary,omitempty"`
	Enabled       bool   `xml:"Enabled"`
}

type xmlTimeTrigger struct {
	xmlTriggerBase
}

type xmlDelayTrigger struct {
	xmlTriggerBase
	Delay string `xml:"Delay,omitempty"`
}

type xmlLogonTrigger struct {
	xmlTriggerBase
	UserID string `xml:"UserId,omitempty"`
	Delay  string `xml:"Delay,omitempty"`
}

type xmlEventTrigger struct {
	xmlTriggerBase
	Subscription string `xml:"Subscription"`
}

type xmlSessionTrigger struct {
	xmlTriggerBase
	Delay       string `xml:"Delay,omitempty"`
	UserID      string `xml:"UserId,omitempty"`
	StateChange string `xml:"StateChange"`
}

type xmlCalendarTrigger struct {
	xmlTriggerBase
	ByDay      *xmlScheduleByDay      `xml:"ScheduleByDay,omitempty"`
	ByWeek     *xmlScheduleByWeek     `xml:"ScheduleByWeek,omitempty"`
	ByMonth    *xmlScheduleByMonth    `xml:"ScheduleByMonth,omitempty"`
	ByMonthDOW *xmlScheduleByMonthDOW `xml:"ScheduleByMonthDayOfWeek,omitempty"`
}

type xmlScheduleByDay struct {
	DaysInterval int `xml:"DaysInterval"`
}

type xmlScheduleByWeek struct {
	DaysOfWeek    xmlDaysOfWeek `xml:"DaysOfWeek"`
	WeeksInterval int           `xml:"WeeksInterval"`
}

type xmlScheduleByMonth struct {
	DaysOfMonth xmlDaysOfMonth `xml:"DaysOfMonth"`
	Months      xmlMonths      `xml:"Months"`
}

type xmlScheduleByMonthDOW struct {
	Weeks      xmlWeeks      `xml:"Weeks"`
	DaysOfWeek xmlDaysOfWeek `xml:"DaysOfWeek"`
	Months     xmlMonths     `xml:"Months"`
}

type xmlDaysOfMonth struct {
	Days []int `xml:"Day"`
}

type xmlWeeks struct {
	Weeks []string `xml:"Week"`
}

type xmlDaysOfWeek struct {
	Sunday    *struct{} `xml:"Sunday,omitempty"`
	Monday    *struct{} `xml:"Monday,omitempty"`
	Tuesday   *struct{} `xml:"Tuesday,omitempty"`
	Wednesday *struct{} `xml:"Wednesday,omitempty"`
	Thursday  *struct{} `xml:"Thursday,omitempty"`
	Friday    *struct{} `xml:"Friday,omitempty"`
	Saturday  *struct{} `xml:"Saturday,omitempty"`
}

type xmlMonths struct {
	January   *struct{} `xml:"January,omitempty"`
	February  *struct{} `xml:"February,omitempty"`
	March     *struct{} `xml:"March,omitempty"`
	April     *struct{} `xml:"April,omitempty"`
	May       *struct{} `xml:"May,omitempty"`
	June      *struct{} `xml:"June,omitempty"`
	July      *struct{} `xml:"July,omitempty"`
	August    *struct{} `xml:"August,omitempty"`
	September *struct{} `xml:"September,omitempty"`
	October   *struct{} `xml:"October,omitempty"`
	November  *struct{} `xml:"November,omitempty"`
	December  *struct{} `xml:"December,omitempty"`
}

type xmlPrincipals struct {
	Principal xmlPrincipal `xml:"Principal"`
}

type xmlPrincipal struct {
	ID        string `xml:"id,attr"`
	UserID    string `xml:"UserId,omitempty"`
	LogonType string `xml:"LogonType,omitempty"`
	RunLevel  string `xml:"RunLevel,omitempty"`
}

type xmlRestartOnFailure struct {
	Interval string `xml:"Interval"`
	Count    int    `xml:"Count"`
}

type xmlIdleSettings struct {
	Duration      string `xml:"Duration,omitempty"`
	WaitTimeout   string `xml:"WaitTimeout,omitempty"`
	StopOnIdleEnd bool   `xml:"StopOnIdleEnd"`
	RestartOnIdle bool   `xml:"RestartOnIdle"`
}

type xmlSettings struct {
	AllowStartOnDemand         bool                 `xml:"AllowStartOnDemand"`
	RestartOnFailure           *xmlRestartOnFailure `xml:"RestartOnFailure,omitempty"`
	MultipleInstancesPolicy    string               `xml:"MultipleInstancesPolicy"`
	DisallowStartIfOnBatteries bool                 `xml:"DisallowStartIfOnBatteries"`
	StopIfGoingOnBatteries     bool                 `xml:"StopIfGoingOnBatteries"`
	AllowHardTerminate         bool                 `xml:"AllowHardTerminate"`
	StartWhenAvailable         bool                 `xml:"StartWhenAvailable"`
	RunOnlyIfNetworkAvailable  bool                 `xml:"RunOnlyIfNetworkAvailable"`
	WakeToRun                  bool                 `xml:"WakeToRun"`
	Enabled                    bool                 `xml:"Enabled"`
	Hidden                     bool                 `xml:"Hidden"`
	DeleteExpiredTaskAfter     string               `xml:"DeleteExpiredTaskAfter,omitempty"`
	IdleSettings               xmlIdleSettings      `xml:"IdleSettings"`
	ExecutionTimeLimit         string               `xml:"ExecutionTimeLimit"`
	Priority                   int                  `xml:"Priority"`
	RunOnlyIfIdle              bool                 `xml:"RunOnlyIfIdle"`
}

type xmlActions struct {
	Context string        `xml:"Context,attr"`
	Items   []interface{} `xml:",any"`
}

type xmlExec struct {
	XMLName          xml.Name `xml:"Exec"`
	Command          string   `xml:"Command"`
	Arguments        string   `xml:"Arguments,omitempty"`
	WorkingDirectory string   `xml:"WorkingDirectory,omitempty"`
}

type xmlSendEmail struct {
	XMLName      xml.Name         `xml:"SendEmail"`
	Server       string           `xml:"Server"`
	Subject      string           `xml:"Subject,omitempty"`
	To           string           `xml:"To,omitempty"`
	From         string           `xml:"From"`
	HeaderFields *xmlHeaderFields `xml:"HeaderFields,omitempty"`
	Body         string           `xml:"Body,omitempty"`
}

type xmlHeaderFields struct {
	Fields []xmlHeaderField `xml:"HeaderField"`
}

type xmlHeaderField struct {
	Name  string `xml:"Name"`
	Value string `xml:"Value"`
}
