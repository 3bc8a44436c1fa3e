package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/deepnoodle-ai/wonton/cli"
	"github.com/deepnoodle-ai/wonton/color"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/aisl-lang/aisl/astexport"
	"github.com/aisl-lang/aisl/compiler"
	"github.com/aisl-lang/aisl/desugar"
	"github.com/aisl-lang/aisl/errz"
	"github.com/aisl-lang/aisl/modloader"
	"github.com/aisl-lang/aisl/parser"
)

var version = "dev"

func main() {
	setupEnv()

	app := cli.New("aislc").
		Description("Compile AISL source to bytecode").
		Version(version)

	app.Main().
		Args("input", "output").
		Flags(
			cli.Bool("ast-export", "").Help("Write the AST dump next to the output"),
		).
		Run(compileHandler)

	if err := app.Execute(); err != nil {
		if cli.IsHelpRequested(err) {
			return
		}
		printError(err.Error())
		os.Exit(cli.GetExitCode(err))
	}
}

// setupEnv reads the AISL_* environment variables and configures color and
// debug logging.
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

func machineErrors() bool {
	return viper.GetString("error_format") == "machine"
}

func printError(msg string) {
	if color.Enabled && isatty.IsTerminal(os.Stderr.Fd()) {
		msg = color.Red.Apply(msg)
	}
	os.Stderr.WriteString(msg + "\n")
}

// renderError formats a phase error per AISL_ERROR_FORMAT: the single-line
// machine format for tooling, the friendly multi-line form otherwise.
func renderError(phase string, err error) error {
	if machineErrors() {
		if me, ok := err.(errz.MachineError); ok {
			return fmt.Errorf("%s", me.MachineFormat())
		}
	}
	if fe, ok := err.(errz.FriendlyError); ok {
		return fmt.Errorf("%s: %s", phase, strings.TrimRight(fe.FriendlyErrorMessage(), "\n"))
	}
	return fmt.Errorf("%s: %s", phase, err)
}

func compileHandler(ctx *cli.Context) error {
	input := ctx.Arg(0)
	output := ctx.Arg(1)

	source, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	mod, err := parser.Parse(ctx.Context(), string(source), parser.WithFile(input))
	if err != nil {
		return renderError("Parse error", err)
	}

	mod, err = desugar.Module(mod)
	if err != nil {
		return renderError("Desugar error", err)
	}

	var astPath string
	if ctx.Bool("ast-export") {
		astPath = output + ".ast"
		if err := astexport.WriteFile(astPath, mod); err != nil {
			return err
		}
	}

	loader := modloader.New(modloader.WithLogger(log.Logger))
	program, err := compiler.Compile(ctx.Context(), mod, compiler.WithLoader(loader))
	if err != nil {
		return renderError("Compile error", err)
	}

	if err := program.Save(output); err != nil {
		return err
	}

	stats := program.Stats()
	fmt.Printf("Compiled %s -> %s\n", input, output)
	fmt.Printf("Functions: %d\n", stats.FunctionCount)
	fmt.Printf("Instructions: %d\n", stats.InstructionCount)
	if astPath != "" {
		fmt.Printf("Exported AST -> %s\n", astPath)
	}
	return nil
}
