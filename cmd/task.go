package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli"

	"github.com/warpdl/warpsched/cmd/common"
	"github.com/warpdl/warpsched/internal/action"
	"github.com/warpdl/warpsched/internal/compiler"
	"github.com/warpdl/warpsched/internal/credential"
	"github.com/warpdl/warpsched/internal/settings"
	"github.com/warpdl/warpsched/internal/wrapper"
)

const nextRunLayout = "2006-01-02 15:04:05 MST"

var stdout io.Writer = os.Stdout

var (
	taskName       string
	taskDesc       string
	taskScript     string
	taskType       string
	taskArgs       string
	taskWorkDir    string
	taskTrigger    string
	taskStart      string
	taskInterval   int
	taskDays       string
	taskDelay      string
	taskLogonUser  string
	taskDay        int
	taskWeek       int
	taskWeekday    string
	taskMonths     int
	taskIdle       int
	taskEventLog   string
	taskEventSrc   string
	taskEventID    int
	taskSession    string
	useWrapper     bool
	wrapperDir     string
	logDir         string
	runAsUser      string
	runAsPassword  string
	highest        bool
	restartCount   int
	restartMinutes int
	execHours      int
	noTimeLimit    bool
	runIfMissed    bool
	instancePolicy string
	emailFrom      string
	emailTo        string
	emailSubject   string
	emailBody      string
	emailServer    string
	emailPort      int
	emailSSL       bool
	messageTitle   string
	messageText    string
	dryRun         bool
)

var taskFlags = []cli.Flag{
	cli.StringFlag{Name: "name, n", Usage: "task name, optionally with folders (Backups\\Nightly)", Destination: &taskName},
	cli.StringFlag{Name: "description", Usage: "task description", Destination: &taskDesc},
	cli.StringFlag{Name: "script, s", Usage: "script or program to run", Destination: &taskScript},
	cli.StringFlag{Name: "type", Usage: "script type (powershell, python, batch, vbscript, jscript, exe); inferred from the extension if omitted", Destination: &taskType},
	cli.StringFlag{Name: "args, a", Usage: "arguments passed to the script", Destination: &taskArgs},
	cli.StringFlag{Name: "workdir", Usage: "working directory (defaults to the script's directory)", Destination: &taskWorkDir},
	cli.StringFlag{Name: "trigger, t", Usage: "once, daily, weekly, monthly, monthly-dow, startup, logon, idle, event, registration, session", Value: "once", Destination: &taskTrigger},
	cli.StringFlag{Name: "starttime", Usage: "first run, YYYY-MM-DD HH:MM (defaults to five minutes from now)", Destination: &taskStart},
	cli.IntFlag{Name: "interval", Usage: "repeat every N days (daily) or weeks (weekly)", Value: 1, Destination: &taskInterval},
	cli.StringFlag{Name: "days", Usage: "weekdays for weekly triggers, e.g. Mon,Wed,Fri", Destination: &taskDays},
	cli.StringFlag{Name: "delay", Usage: "delay for startup, logon, registration and session triggers, in minutes or as 90s", Destination: &taskDelay},
	cli.StringFlag{Name: "logonuser", Usage: "user whose logon or session change fires the trigger (any user if empty)", Destination: &taskLogonUser},
	cli.IntFlag{Name: "day", Usage: "day of month for monthly triggers", Value: 1, Destination: &taskDay},
	cli.IntFlag{Name: "week", Usage: "week of month for monthly-dow triggers (1-4, 5 = last)", Value: 1, Destination: &taskWeek},
	cli.StringFlag{Name: "weekday", Usage: "weekday for monthly-dow triggers", Value: "Monday", Destination: &taskWeekday},
	cli.IntFlag{Name: "months-interval", Usage: "repeat every N months (1, 2, 3, 6 or 12)", Value: 1, Destination: &taskMonths},
	cli.IntFlag{Name: "idle-minutes", Usage: "idle minutes before an idle trigger fires", Destination: &taskIdle},
	cli.StringFlag{Name: "event-log", Usage: "event log channel for event triggers, e.g. System", Destination: &taskEventLog},
	cli.StringFlag{Name: "event-source", Usage: "event provider name for event triggers", Destination: &taskEventSrc},
	cli.IntFlag{Name: "event-id", Usage: "event id for event triggers", Destination: &taskEventID},
	cli.StringFlag{Name: "session-change", Usage: "ConsoleConnect, ConsoleDisconnect, RemoteConnect, RemoteDisconnect, SessionLock, SessionUnlock", Destination: &taskSession},
	cli.BoolFlag{Name: "wrapper, w", Usage: "schedule a generated hidden-window wrapper instead of the script", Destination: &useWrapper},
	cli.StringFlag{Name: "wrapperdir", Usage: "directory for generated scripts", Destination: &wrapperDir},
	cli.StringFlag{Name: "logdir", Usage: "directory for wrapper launch logs", Destination: &logDir},
	cli.StringFlag{Name: "user, u", Usage: "account the task runs as (defaults to the current user)", Destination: &runAsUser},
	cli.StringFlag{Name: "password, p", Usage: "password for --user; looked up in the credential store when omitted", EnvVar: "WARPSCHED_PASSWORD", Destination: &runAsPassword},
	cli.BoolFlag{Name: "highest", Usage: "run with highest privileges", Destination: &highest},
	cli.IntFlag{Name: "restart-count, restart", Usage: "restart attempts after a failure", Value: settings.DefaultRestartCount, Destination: &restartCount},
	cli.IntFlag{Name: "restart-interval", Usage: "minutes between restart attempts", Value: int(settings.DefaultRestartInterval / time.Minute), Destination: &restartMinutes},
	cli.IntFlag{Name: "execution-hours", Usage: "stop the task after N hours", Value: settings.DefaultExecutionHours, Destination: &execHours},
	cli.BoolFlag{Name: "no-time-limit", Usage: "never stop the task", Destination: &noTimeLimit},
	cli.BoolFlag{Name: "run-if-missed", Usage: "run as soon as possible after a missed start", Destination: &runIfMissed},
	cli.StringFlag{Name: "instance-policy", Usage: "QUEUE, PARALLEL, IGNORE or STOP", Destination: &instancePolicy},
	cli.StringSliceFlag{Name: "option, o", Usage: "extra setting as KEY=VALUE, e.g. WakeToRun=true (repeatable)"},
	cli.StringFlag{Name: "email-from", Usage: "sender of a notification e-mail action", Destination: &emailFrom},
	cli.StringFlag{Name: "email-to", Usage: "recipient of a notification e-mail action", Destination: &emailTo},
	cli.StringFlag{Name: "email-subject", Usage: "subject of the e-mail action", Destination: &emailSubject},
	cli.StringFlag{Name: "email-body", Usage: "body of the e-mail action", Destination: &emailBody},
	cli.StringFlag{Name: "email-server", Usage: "SMTP server of the e-mail action", Destination: &emailServer},
	cli.IntFlag{Name: "email-port", Usage: "SMTP port of the e-mail action", Value: 25, Destination: &emailPort},
	cli.BoolFlag{Name: "email-ssl", Usage: "use SSL for the e-mail action", Destination: &emailSSL},
	cli.StringFlag{Name: "message-title", Usage: "title of a message box shown after the script starts", Destination: &messageTitle},
	cli.StringFlag{Name: "message-text", Usage: "text of a message box shown after the script starts", Destination: &messageText},
	cli.BoolFlag{Name: "dry-run", Usage: "compile and print the task without registering it", Destination: &dryRun},
}

// parseOptions turns KEY=VALUE pairs into a map. Entries without "=" are
// rejected.
func parseOptions(pairs []string) (map[string]string, error) {
	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("error: invalid --option %q, expected KEY=VALUE", p)
		}
		m[k] = strings.TrimSpace(v)
	}
	return m, nil
}

// buildSettings starts from the --option table and lets the dedicated
// flags that were actually given override it.
func buildSettings(ctx *cli.Context) (settings.Options, error) {
	table, err := parseOptions(ctx.StringSlice("option"))
	if err != nil {
		return settings.Options{}, err
	}
	o := settings.FromMap(table)
	if ctx.IsSet("restart-count") || ctx.IsSet("restart") {
		o.RestartCount = settings.Int(restartCount)
	}
	if ctx.IsSet("restart-interval") {
		o.RestartIntervalMinutes = settings.Int(restartMinutes)
	}
	if ctx.IsSet("execution-hours") {
		o.ExecutionTimeLimitHours = settings.Int(execHours)
	}
	if noTimeLimit {
		o.ExecutionTimeLimitHours = settings.Int(0)
	}
	if runIfMissed {
		o.RunIfMissed = settings.Bool(true)
	}
	if instancePolicy != "" {
		p, ok := settings.ParsePolicy(instancePolicy)
		if !ok {
			return settings.Options{}, fmt.Errorf("error: unknown --instance-policy %q", instancePolicy)
		}
		o.MultipleInstances = settings.Policy(p)
	}
	if highest {
		o.RunLevel = settings.Level(settings.Highest)
	}
	return o, nil
}

func buildActions() []action.Spec {
	var specs []action.Spec
	if emailTo != "" || emailFrom != "" || emailServer != "" {
		specs = append(specs, action.SendEmail{
			From:    emailFrom,
			To:      emailTo,
			Subject: emailSubject,
			Body:    emailBody,
			Server:  emailServer,
			Port:    emailPort,
			UseSSL:  emailSSL,
		})
	}
	if messageText != "" && !useWrapper {
		specs = append(specs, action.DisplayMessage{Title: messageTitle, Text: messageText})
	}
	return specs
}

// buildRequest maps the parsed flags onto a compile request. With
// --wrapper the compiler schedules a generated wrapper for the script.
func buildRequest(ctx *cli.Context, e *env) (compiler.Request, error) {
	var req compiler.Request
	start, err := parseStartTime(taskStart)
	if err != nil {
		return req, err
	}
	delay, err := parseDelay(taskDelay)
	if err != nil {
		return req, err
	}
	tf := triggerFlags{
		Kind:           taskTrigger,
		Start:          start,
		Interval:       taskInterval,
		Days:           taskDays,
		Delay:          delay,
		LogonUser:      taskLogonUser,
		Day:            taskDay,
		Week:           taskWeek,
		Weekday:        taskWeekday,
		MonthsInterval: taskMonths,
		IdleMinutes:    taskIdle,
		EventLog:       taskEventLog,
		EventSource:    taskEventSrc,
		SessionChange:  taskSession,
	}
	if ctx.IsSet("event-id") {
		id := taskEventID
		tf.EventID = &id
	}
	spec, err := parseTrigger(tf)
	if err != nil {
		return req, err
	}
	opts, err := buildSettings(ctx)
	if err != nil {
		return req, err
	}
	typ := wrapper.Unknown
	if taskType != "" {
		if typ, err = wrapper.ParseType(taskType); err != nil {
			return req, fmt.Errorf("error: invalid --type: %w", err)
		}
	}

	req = compiler.Request{
		Name:        taskName,
		Description: taskDesc,
		Script:      taskScript,
		ScriptType:  typ,
		Args:        taskArgs,
		WorkDir:     taskWorkDir,
		Principal:   runAsUser,
		Password:    runAsPassword,
		Trigger:     spec,
		Actions:     buildActions(),
		Settings:    opts,
		StartTime:   start,
		LogDir:      logDirOr(e),
	}
	if useWrapper {
		req.Wrap = true
		req.MessageTitle, req.MessageText = messageTitle, messageText
	}
	return req, nil
}

func logDirOr(e *env) string {
	if logDir != "" {
		return logDir
	}
	return e.cfg.LogDir
}

func newCompiler(e *env) *compiler.Compiler {
	store := &lazyStore{open: e.openStore}
	return compiler.New(compiler.Config{
		Resolver:  credential.NewResolver(store, e.l),
		Generator: e.generator(wrapperDir),
		Logger:    e.l,
		Author:    authorOr(e),
		LogDir:    logDirOr(e),
	})
}

func authorOr(e *env) string {
	if e.cfg.Author != "" {
		return e.cfg.Author
	}
	me, _ := credential.CurrentUser()
	return me
}

func compileTask(ctx *cli.Context, e *env) (*compiler.Compiler, *compiler.Result, error) {
	req, err := buildRequest(ctx, e)
	if err != nil {
		return nil, nil, err
	}
	c := newCompiler(e)
	res, err := c.Compile(req)
	if res != nil {
		common.PrintWarnings(stdout, res.Warnings())
	}
	if err != nil {
		var ve *compiler.ValidationError
		if errors.As(err, &ve) {
			return nil, nil, common.PrintErrWithCmdHelp(ctx, err)
		}
		return nil, nil, fmt.Errorf("error: cannot compile task: %w", err)
	}
	return c, res, nil
}

func createTask(ctx *cli.Context) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	c, res, err := compileTask(ctx, e)
	if err != nil || res == nil {
		return err
	}
	if dryRun {
		return printTask(res)
	}
	reg, closeReg, err := e.registrar()
	if err != nil {
		return err
	}
	defer closeReg()
	if err := c.Register(context.Background(), res, reg); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Task %q created.\n", res.Task.Name)
	printNextRun(res)
	return nil
}

func preview(ctx *cli.Context) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	_, res, err := compileTask(ctx, e)
	if err != nil || res == nil {
		return err
	}
	return printTask(res)
}

func printTask(res *compiler.Result) error {
	xml, err := res.Task.XML()
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, string(xml))
	if res.Credential.Outcome.HasSecret() {
		fmt.Fprintf(stdout, "Credential: %s (password supplied at registration)\n", res.Credential.Outcome)
	}
	printNextRun(res)
	return nil
}

func printNextRun(res *compiler.Result) {
	if res.HasNextRun {
		fmt.Fprintf(stdout, "Next run: %s\n", res.NextRun.Format(nextRunLayout))
	}
}
