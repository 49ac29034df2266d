package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/xdl-lang/xdl/config"
	xdlerrors "github.com/xdl-lang/xdl/pkg/xdl/errors"
	"github.com/xdl-lang/xdl/pkg/xdl/evaluator"
	"github.com/xdl-lang/xdl/pkg/xdl/repl"
	"github.com/xdl-lang/xdl/pkg/xdl/xdl"
)

// Version is set at compile time via -ldflags
var Version = "0.1.0"

var (
	// Display flags
	helpFlag        = flag.Bool("h", false, "Show help message")
	helpLongFlag    = flag.Bool("help", false, "Show help message")
	versionFlag     = flag.Bool("V", false, "Show version information")
	versionLongFlag = flag.Bool("version", false, "Show version information")

	// Evaluation flags
	evalFlag     = flag.String("e", "", "Evaluate code string")
	evalLongFlag = flag.String("eval", "", "Evaluate code string")
	checkFlag    = flag.Bool("check", false, "Check syntax without executing")
	watchFlag    = flag.Bool("watch", false, "Re-run the script when it changes")

	// Configuration
	configFlag = flag.String("config", "", "Path to xdl.yaml config file")
)

func main() {
	flag.Usage = printHelp
	flag.Parse()

	if *helpFlag || *helpLongFlag {
		printHelp()
		os.Exit(0)
	}

	if *versionFlag || *versionLongFlag {
		fmt.Printf("xdl version %s\n", Version)
		os.Exit(0)
	}

	cfg := loadConfig(*configFlag)
	out := outputWriter(cfg)

	evalCode := *evalFlag
	if evalCode == "" {
		evalCode = *evalLongFlag
	}

	switch {
	case evalCode != "":
		runSource(evalCode, "<eval>", cfg, out)

	case *checkFlag:
		checkFiles(flag.Args())

	case *watchFlag:
		if flag.NArg() == 0 {
			fmt.Fprintln(os.Stderr, "xdl: -watch needs a script file")
			os.Exit(2)
		}
		watchAndRun(flag.Arg(0), cfg, out)

	case flag.NArg() > 0:
		runFile(flag.Arg(0), cfg, out)

	default:
		repl.Start(os.Stdout, cfg, Version)
	}
}

func loadConfig(path string) *config.Config {
	if path == "" {
		// An xdl.yaml next to the working directory is optional
		if _, err := os.Stat("xdl.yaml"); err != nil {
			return config.Defaults()
		}
		path = "xdl.yaml"
	}
	cfg, err := config.Load(path, os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "xdl: %v\n", err)
		os.Exit(2)
	}
	return cfg
}

func outputWriter(cfg *config.Config) io.Writer {
	switch cfg.Logging.Output {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	default:
		f, err := os.OpenFile(cfg.ResolvePath(cfg.Logging.Output),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "xdl: cannot open log output: %v\n", err)
			os.Exit(2)
		}
		return f
	}
}

func newSession(cfg *config.Config, out io.Writer) *xdl.Session {
	session := xdl.NewSession(
		evaluator.WithLogger(xdl.NewWriterLogger(out)),
		evaluator.WithMaxDepth(cfg.Interpreter.MaxRecursionDepth),
		evaluator.WithMaxElements(cfg.Interpreter.MaxArrayElements),
	)
	if cfg.Interpreter.Startup != "" {
		path := cfg.ResolvePath(cfg.Interpreter.Startup)
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "xdl: startup script: %v\n", err)
			os.Exit(2)
		}
		if _, runErr := session.RunFile(string(src), path); runErr != nil {
			reportError(runErr)
			os.Exit(1)
		}
	}
	return session
}

// newSessionLenient is newSession for the watch loop: a startup
// script failure is reported but does not kill the process
func newSessionLenient(cfg *config.Config, out io.Writer) *xdl.Session {
	session := xdl.NewSession(
		evaluator.WithLogger(xdl.NewWriterLogger(out)),
		evaluator.WithMaxDepth(cfg.Interpreter.MaxRecursionDepth),
		evaluator.WithMaxElements(cfg.Interpreter.MaxArrayElements),
	)
	if cfg.Interpreter.Startup != "" {
		path := cfg.ResolvePath(cfg.Interpreter.Startup)
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "xdl: startup script: %v\n", err)
			return nil
		}
		if _, runErr := session.RunFile(string(src), path); runErr != nil {
			reportError(runErr)
			return nil
		}
	}
	return session
}

func runFile(path string, cfg *config.Config, out io.Writer) {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "xdl: %v\n", err)
		os.Exit(1)
	}
	runSource(string(src), path, cfg, out)
}

func runSource(src, filename string, cfg *config.Config, out io.Writer) {
	session := newSession(cfg, out)
	if _, err := session.RunFile(src, filename); err != nil {
		reportError(err)
		os.Exit(1)
	}
}

// checkFiles parses each file and reports errors without executing
func checkFiles(files []string) {
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "xdl: -check needs at least one file")
		os.Exit(2)
	}

	failed := false
	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "xdl: %v\n", err)
			failed = true
			continue
		}
		if _, errs := xdl.ParseFile(string(src), path); len(errs) > 0 {
			failed = true
			for _, e := range errs {
				reportError(e)
			}
			continue
		}
		fmt.Printf("%s: OK\n", path)
	}
	if failed {
		os.Exit(1)
	}
}

func reportError(err *xdlerrors.XdlError) {
	loc := ""
	if err.File != "" {
		loc = err.File
	}
	if err.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d", loc, err.Line, err.Column)
	}
	if loc != "" {
		fmt.Fprintf(os.Stderr, "%% %s: %s: %s\n", err.Code, loc, err.Message)
	} else if err.Code != "" {
		fmt.Fprintf(os.Stderr, "%% %s: %s\n", err.Code, err.Message)
	} else {
		fmt.Fprintf(os.Stderr, "%% %s\n", err.Message)
	}
	for _, hint := range err.Hints {
		fmt.Fprintf(os.Stderr, "  hint: %s\n", hint)
	}
}

func printHelp() {
	fmt.Println(`xdl - XDL interpreter

Usage:
  xdl [flags] [script.xdl]

With no script file, xdl starts an interactive session.

Flags:
  -e, --eval CODE    Evaluate a code string and exit
  -check FILE...     Check syntax without executing
  -watch FILE        Run the script and re-run it on every change
  -config PATH       Use a specific xdl.yaml (default: ./xdl.yaml if present)
  -V, --version      Show version information
  -h, --help         Show this help message`)
}
