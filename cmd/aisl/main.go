package main

import (
	"fmt"
	"os"

	"github.com/deepnoodle-ai/wonton/cli"
	"github.com/deepnoodle-ai/wonton/color"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/aisl-lang/aisl/bytecode"
	"github.com/aisl-lang/aisl/dis"
	"github.com/aisl-lang/aisl/errz"
	"github.com/aisl-lang/aisl/vm"
)

var version = "dev"

func main() {
	setupEnv()

	app := cli.New("aisl").
		Description("Run compiled AISL bytecode").
		Version(version)

	app.Command("run").
		Description("Execute a compiled program").
		Args("file").
		Flags(
			cli.Bool("disasm", "").Help("Print the disassembly before running"),
		).
		Run(runHandler)

	app.Command("dis").
		Description("Disassemble a compiled program").
		Args("file").
		Run(disHandler)

	if err := app.Execute(); err != nil {
		if cli.IsHelpRequested(err) {
			return
		}
		printError(err.Error())
		os.Exit(cli.GetExitCode(err))
	}
}

func setupEnv() {
	viper.SetEnvPrefix("aisl")
	viper.AutomaticEnv()
	if viper.GetBool("no_color") {
		color.Enabled = false
	}
	zerolog.SetGlobalLevel(zerolog.Disabled)
	if viper.GetBool("debug") {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func printError(msg string) {
	if color.Enabled && isatty.IsTerminal(os.Stderr.Fd()) {
		msg = color.Red.Apply(msg)
	}
	os.Stderr.WriteString(msg + "\n")
}

func renderError(err error) error {
	if viper.GetString("error_format") == "machine" {
		if me, ok := err.(errz.MachineError); ok {
			return fmt.Errorf("%s", me.MachineFormat())
		}
	}
	return err
}

func runHandler(ctx *cli.Context) error {
	program, err := bytecode.Load(ctx.Arg(0))
	if err != nil {
		return err
	}

	if ctx.Bool("disasm") {
		if err := dis.Fprint(os.Stdout, program); err != nil {
			return err
		}
	}

	machine := vm.New(program, vm.WithLogger(log.Logger))
	exitCode, err := machine.Run(ctx.Context())
	if err != nil {
		return renderError(err)
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
	return nil
}

func disHandler(ctx *cli.Context) error {
	program, err := bytecode.Load(ctx.Arg(0))
	if err != nil {
		return err
	}
	return dis.Fprint(os.Stdout, program)
}
