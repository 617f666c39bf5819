package cmd

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli"

	"github.com/warpdl/warpsched/cmd/common"
)

type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

var globalFlags = []cli.Flag{
	cli.StringFlag{
		Name:        "config, c",
		Usage:       "path to a YAML configuration file",
		EnvVar:      "WARPSCHED_CONFIG",
		Destination: &configFile,
	},
	cli.StringFlag{
		Name:        "env-file",
		Usage:       "path to a .env file with WARPSCHED_* overrides",
		Destination: &envFile,
	},
}

func Execute(args []string, bArgs BuildArgs) error {
	app := cli.App{
		Name:                  "warpsched",
		HelpName:              "warpsched",
		Usage:                 "Compiles and registers Windows scheduled tasks.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "warpsched [global options] <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          common.UsageErrorCallback,
		Flags:                 globalFlags,
		Commands: []cli.Command{
			{
				Name:                   "create-task",
				Aliases:                []string{"create"},
				Usage:                  "compile and register a scheduled task",
				Description:            CreateTaskDescription,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				OnUsageError:           common.UsageErrorCallback,
				Action:                 createTask,
				Flags:                  taskFlags,
				UseShortOptionHandling: true,
			},
			{
				Name:               "preview",
				Usage:              "print the task XML and next run without registering",
				Description:        PreviewDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				OnUsageError:       common.UsageErrorCallback,
				Action:             preview,
				Flags:              taskFlags,
			},
			{
				Name:               "create-wrapper",
				Usage:              "write a hidden-window launcher for a script",
				Description:        CreateWrapperDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				OnUsageError:       common.UsageErrorCallback,
				Action:             createWrapper,
				Flags:              wrapperFlags,
			},
			{
				Name:               "run-hidden",
				Usage:              "start a script without a window",
				Description:        RunHiddenDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				OnUsageError:       common.UsageErrorCallback,
				Action:             runHidden,
				Flags:              wrapperFlags,
			},
			{
				Name:        "credential",
				Aliases:     []string{"cred"},
				Usage:       "manage stored run-as credentials",
				Description: CredentialDescription,
				Subcommands: []cli.Command{
					{
						Name:         "set",
						Usage:        "store the account for a file server",
						OnUsageError: common.UsageErrorCallback,
						Action:       credentialSet,
						Flags:        credFlags,
					},
					{
						Name:         "get",
						Usage:        "show the account stored for a file server",
						OnUsageError: common.UsageErrorCallback,
						Action:       credentialGet,
						Flags:        credTargetFlags,
					},
					{
						Name:         "delete",
						Aliases:      []string{"rm"},
						Usage:        "remove the account stored for a file server",
						OnUsageError: common.UsageErrorCallback,
						Action:       credentialDelete,
						Flags:        credTargetFlags,
					},
					{
						Name:         "list",
						Aliases:      []string{"ls"},
						Usage:        "show every file server with a stored account",
						OnUsageError: common.UsageErrorCallback,
						Action:       credentialList,
					},
				},
			},
			{
				Name:               "history",
				Aliases:            []string{"l"},
				Usage:              "display past registrations",
				Description:        HistoryDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				OnUsageError:       common.UsageErrorCallback,
				Action:             history,
				Flags:              historyFlags,
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  common.Help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of warpsched",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             common.GetVersion,
			},
		},
		HideHelp:    true,
		HideVersion: true,
	}
	common.VersionCmdStr = fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s\n",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	return app.Run(args)
}
