package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli"

	"github.com/warpdl/warpsched/cmd/common"
	"github.com/warpdl/warpsched/internal/wrapper"
)

var (
	wrapScript  string
	wrapType    string
	wrapArgs    string
	wrapWorkDir string
	wrapOutput  string
	wrapDir     string
	wrapLogDir  string

	wrapperFlags = []cli.Flag{
		cli.StringFlag{Name: "script, s", Usage: "script to launch", Destination: &wrapScript},
		cli.StringFlag{Name: "type", Usage: "script type; inferred from the extension if omitted", Destination: &wrapType},
		cli.StringFlag{Name: "args, a", Usage: "arguments passed to the script", Destination: &wrapArgs},
		cli.StringFlag{Name: "workdir", Usage: "working directory (defaults to the script's directory)", Destination: &wrapWorkDir},
		cli.StringFlag{Name: "output, o", Usage: "file name of the generated wrapper (create-wrapper only)", Destination: &wrapOutput},
		cli.StringFlag{Name: "wrapperdir", Usage: "directory for generated scripts", Destination: &wrapDir},
		cli.StringFlag{Name: "logdir", Usage: "directory for launch logs", Destination: &wrapLogDir},
	}
)

func wrapperType() (wrapper.ScriptType, error) {
	if wrapType == "" {
		return wrapper.Unknown, nil
	}
	t, err := wrapper.ParseType(wrapType)
	if err != nil {
		return wrapper.Unknown, fmt.Errorf("error: invalid --type: %w", err)
	}
	return t, nil
}

func wrapperLogDir(e *env) string {
	if wrapLogDir != "" {
		return wrapLogDir
	}
	return e.cfg.LogDir
}

func createWrapper(ctx *cli.Context) error {
	if wrapScript == "" {
		return common.PrintErrWithCmdHelp(ctx, errScriptRequired)
	}
	typ, err := wrapperType()
	if err != nil {
		return err
	}
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	gen := e.generator(wrapDir)
	output := wrapOutput
	if output != "" && !filepath.IsAbs(output) {
		output = filepath.Join(gen.Dir(), output)
	}
	path, err := gen.GenerateWrapperScript(wrapper.WrapperSpec{
		Script:  wrapScript,
		Type:    typ,
		Args:    wrapArgs,
		WorkDir: wrapWorkDir,
		LogDir:  wrapperLogDir(e),
		Output:  output,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrapper written to %s\n", path)
	return nil
}

func runHidden(ctx *cli.Context) error {
	if wrapScript == "" {
		return common.PrintErrWithCmdHelp(ctx, errScriptRequired)
	}
	typ, err := wrapperType()
	if err != nil {
		return err
	}
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	r := wrapper.NewRunner(e.fs, e.generator(wrapDir), newStarter(), e.l)
	c, err := r.RunHidden(context.Background(), wrapper.RunSpec{
		Script:  wrapScript,
		Type:    typ,
		Args:    wrapArgs,
		WorkDir: wrapWorkDir,
		LogDir:  wrapperLogDir(e),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Started: %s\n", c)
	return nil
}
