package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli"

	"github.com/warpdl/warpsched/cmd/common"
	"github.com/warpdl/warpsched/internal/registrar"
)

var (
	historyLimit int

	historyFlags = []cli.Flag{
		cli.IntFlag{
			Name:        "limit, n",
			Usage:       "show at most N entries, 0 for all",
			Value:       20,
			Destination: &historyLimit,
		},
	}
)

func history(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	if e.cfg.JournalPath == "" {
		fmt.Fprintln(stdout, "warpsched: registration journal is disabled")
		return nil
	}
	j, err := registrar.OpenJournal(e.cfg.JournalPath)
	if err != nil {
		common.PrintRuntimeErr(ctx, "history", "open_journal", err)
		return nil
	}
	defer j.Close()

	entries, err := j.List(context.Background(), historyLimit)
	if err != nil {
		common.PrintRuntimeErr(ctx, "history", "list", err)
		return nil
	}
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "warpsched: no registrations found")
		return nil
	}
	fmt.Fprintln(stdout, formatHistory(entries))
	return nil
}

func formatHistory(entries []registrar.Entry) string {
	txt := "Here are your registrations:"
	txt += "\n\n-------------------------------------------------------------------------"
	txt += "\n|Num|         Task Name       |     Created      |  Trigger  |   Status   |"
	txt += "\n|---|-------------------------|------------------|-----------|------------|"
	for i, en := range entries {
		txt += fmt.Sprintf("\n|%s| %s | %s | %s | %s |",
			common.Beaut(fmt.Sprint(i+1), 3),
			fit(en.TaskName, 23),
			en.CreatedAt.Local().Format("2006-01-02 15:04"),
			fit(string(en.TriggerKind), 9),
			fit(en.Status, 10),
		)
	}
	txt += "\n-------------------------------------------------------------------------"
	return txt
}

// fit truncates or centers s to exactly n columns.
func fit(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return common.Beaut(s, n)
}
