package cmd

const DESCRIPTION = `
warpsched compiles a declarative schedule into a Windows Task
Scheduler task: it picks the trigger, routes scripts through a
windowless launcher, resolves the run-as password from the
credential store and registers the result.
`

const (
	CreateTaskDescription = `The create-task command compiles and registers a scheduled task
that runs a script or program.

Examples:
        warpsched create-task --name Backup --script C:\jobs\backup.ps1 --trigger daily --starttime "2025-01-01 02:00"
        warpsched create-task --name Report --script \\fs01\jobs\report.py --trigger weekly --days Mon,Thu --user CORP\svc-report

`
	PreviewDescription = `The preview command compiles a task exactly like create-task,
then prints its Task Scheduler XML and next run time without
registering it.

Example:
        warpsched preview --name Backup --script C:\jobs\backup.ps1 --trigger monthly --day 1

`
	CreateWrapperDescription = `The create-wrapper command writes a VBScript that starts a script
with a hidden window. The wrapper can be scheduled or run by hand.

Example:
        warpsched create-wrapper --script C:\jobs\cleanup.bat --logdir C:\logs

`
	RunHiddenDescription = `The run-hidden command starts a script without a window and
returns immediately. Start and failure lines are written to the
log directory.

Example:
        warpsched run-hidden --script C:\jobs\cleanup.ps1 --args "-Days 7"

`
	CredentialDescription = `The credential command manages the run-as accounts stored per
file server. The server is the host part of the UNC path of the
script, e.g. fs01 for \\fs01\jobs\report.ps1. Listing works with
the file and wincred backends.

Examples:
        warpsched credential set --target fs01 --user CORP\alice --password ...
        warpsched credential get --target fs01
        warpsched credential list
        warpsched credential delete --target fs01

`
	HistoryDescription = `The history command lists past registrations from the local
journal.

Example:
        warpsched history --limit 20

`
)

const HELP_TEMPL = `Usage: {{if .UsageText}}{{.UsageText}}{{else}}{{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}{{if .Commands}} command [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}{{end}}
{{.Description}}{{if .VisibleCommands}}
Commands:{{range .VisibleCategories}}{{if .Name}}

{{.Name}}:{{range .VisibleCommands}}
  {{join .Names ", "}}{{"\t"}}{{.Usage}}{{end}}{{else}}{{range .VisibleCommands}}
{{"\t"}}{{index .Names 0}}{{"\t:\t"}}{{.Usage}}{{end}}{{end}}{{end}}{{end}}{{if .VisibleFlags}}

Global Flags:{{range .VisibleFlags}}
  {{.}}{{end}}{{end}}

Use "{{.HelpName}} help <command>" for more information about any command.

`

const CMD_HELP_TEMPL = `{{if .Description}}{{.Description}}{{else}}{{.HelpName}} - {{.Usage}}

{{end}}Usage:
        {{.HelpName}} {{if .UsageText}}{{.UsageText}}{{else}}[arguments...]{{end}}{{if .VisibleFlags}}

Supported Flags:{{range .VisibleFlags}}
  {{.}}{{end}}{{end}}

`
