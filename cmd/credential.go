package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli"

	"github.com/warpdl/warpsched/cmd/common"
	"github.com/warpdl/warpsched/pkg/credman"
	"github.com/warpdl/warpsched/pkg/credman/types"
)

var (
	errScriptRequired = errors.New("--script is required")
	errTargetRequired = errors.New("--target is required")

	credTarget   string
	credUser     string
	credPassword string

	credTargetFlag = cli.StringFlag{Name: "target", Usage: "file server the account is for, e.g. fs01", Destination: &credTarget}

	// Both slices are at full capacity: cli appends its help flag to a
	// command's flags, which must not write into a shared array.
	credTargetFlags = []cli.Flag{credTargetFlag}

	credFlags = []cli.Flag{
		credTargetFlag,
		cli.StringFlag{Name: "user, u", Usage: "account, DOMAIN\\user or user@domain", Destination: &credUser},
		cli.StringFlag{Name: "password, p", Usage: "password of the account", EnvVar: "WARPSCHED_PASSWORD", Destination: &credPassword},
	}
)

func credentialSet(ctx *cli.Context) error {
	if strings.TrimSpace(credTarget) == "" {
		return common.PrintErrWithCmdHelp(ctx, errTargetRequired)
	}
	if credUser == "" || credPassword == "" {
		return common.PrintErrWithCmdHelp(ctx, errors.New("--user and --password are required"))
	}
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	store, err := e.openStore()
	if err != nil {
		return err
	}
	err = store.Put(types.Credential{Target: credTarget, UserName: credUser, Secret: credPassword})
	if err != nil {
		return fmt.Errorf("error: cannot store credential for %s: %w", credTarget, err)
	}
	fmt.Fprintf(stdout, "Credential for %s stored.\n", types.NormalizeTarget(credTarget))
	return nil
}

func credentialGet(ctx *cli.Context) error {
	if strings.TrimSpace(credTarget) == "" {
		return common.PrintErrWithCmdHelp(ctx, errTargetRequired)
	}
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	store, err := e.openStore()
	if err != nil {
		return err
	}
	c, err := store.Get(credTarget)
	switch {
	case errors.Is(err, credman.ErrNotFound):
		fmt.Fprintf(stdout, "No credential stored for %s.\n", types.NormalizeTarget(credTarget))
		return nil
	case err != nil:
		return fmt.Errorf("error: cannot read credential for %s: %w", credTarget, err)
	}
	fmt.Fprintf(stdout, "Target: %s\nUser:   %s\n", c.Target, c.UserName)
	return nil
}

func credentialDelete(ctx *cli.Context) error {
	if strings.TrimSpace(credTarget) == "" {
		return common.PrintErrWithCmdHelp(ctx, errTargetRequired)
	}
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	store, err := e.openStore()
	if err != nil {
		return err
	}
	if err := store.Delete(credTarget); err != nil {
		return fmt.Errorf("error: cannot delete credential for %s: %w", credTarget, err)
	}
	fmt.Fprintf(stdout, "Credential for %s deleted.\n", types.NormalizeTarget(credTarget))
	return nil
}

func credentialList(ctx *cli.Context) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	store, err := e.openStore()
	if err != nil {
		return err
	}
	lister, ok := store.(credman.Lister)
	if !ok {
		return fmt.Errorf("error: cannot list credentials: the %s backend does not support listing", e.cfg.CredentialBackend)
	}
	targets, err := lister.Targets()
	if err != nil {
		return fmt.Errorf("error: cannot list credentials: %w", err)
	}
	if len(targets) == 0 {
		fmt.Fprintln(stdout, "No credentials stored.")
		return nil
	}
	for _, t := range targets {
		fmt.Fprintln(stdout, t)
	}
	return nil
}
