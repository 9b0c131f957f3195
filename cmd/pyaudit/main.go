package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bryanwahyu/pyaudit/internal/bootstrap"
	"github.com/bryanwahyu/pyaudit/internal/config"
	"github.com/bryanwahyu/pyaudit/internal/logging"
	"github.com/bryanwahyu/pyaudit/internal/output"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("pyaudit", flag.ContinueOnError)
	configFlag := fs.String("config", "config.yaml", "Path to config file (missing file uses defaults)")
	formatFlag := fs.String("format", "text", "Output format: text or json")
	depsFlag := fs.Bool("deps", false, "Audit installed dependencies with safety instead of analyzing files")
	verboseFlag := fs.Bool("verbose", false, "Include raw flake8, bandit and docstring output")
	noColorFlag := fs.Bool("no-color", false, "Disable colored output")
	maxFilesFlag := fs.Int("max-files", 200, "Maximum number of files to analyze")
	logLevelFlag := fs.String("log-level", "warn", "Log level written to stderr")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pyaudit [flags] <file|dir|glob>...\n")
		fmt.Fprintf(os.Stderr, "\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExit codes:\n")
		fmt.Fprintf(os.Stderr, "	0 - No issues found\n")
		fmt.Fprintf(os.Stderr, "	1 - Findings reported\n")
		fmt.Fprintf(os.Stderr, "	2 - Failures, high severity findings or usage errors\n")
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	format := strings.ToLower(*formatFlag)

	fail := func(err error) int {
		fmt.Fprintln(os.Stderr, output.FormatError(err, format))
		return 2
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		return fail(err)
	}
	log := logging.New(logging.Options{Level: *logLevelFlag, Format: cfg.Logging.Format, Output: "stderr"})

	formatter, err := output.NewFormatter(output.Config{
		Format:         format,
		Color:          !*noColorFlag,
		Verbose:        *verboseFlag,
		HighComplexity: cfg.Thresholds.HighComplexity,
	})
	if err != nil {
		return fail(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stack, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		return fail(err)
	}
	defer stack.Close()

	if *depsFlag {
		rep, err := stack.Service.AuditDependencies(ctx)
		if err != nil {
			return fail(err)
		}
		if err := formatter.FormatDependencies(&rep, os.Stdout); err != nil {
			return fail(err)
		}
		if rep.ExitCode != 0 || rep.Error != "" {
			return 1
		}
		return 0
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	paths, err := expandArgs(fs.Args())
	if err != nil {
		return fail(err)
	}
	if len(paths) > *maxFilesFlag {
		return fail(fmt.Errorf("%d files matched, limit is %d", len(paths), *maxFilesFlag))
	}
	files, err := readFiles(paths)
	if err != nil {
		return fail(err)
	}

	batch, err := stack.Service.AnalyzeBatch(ctx, files)
	if err != nil && len(batch.Files) == 0 {
		return fail(err)
	}
	if ferr := formatter.Format(&batch, os.Stdout); ferr != nil {
		return fail(ferr)
	}
	if err != nil {
		return fail(err)
	}
	return output.DetermineExitCode(&batch)
}
