// Command flang is the F interpreter CLI.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"nickandperla.net/flang/internal/config"
	"nickandperla.net/flang/internal/log"
	"nickandperla.net/flang/internal/sem"
	"nickandperla.net/flang/pkg/flang"
)

const usage = `usage:
  flang run [flags] FILE    run a program
  flang repl [flags]        start an interactive session
  flang FILE                same as flang run FILE

Run "flang run -h" or "flang repl -h" for the flags of each verb.
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		return replCmd(nil, stdin, stdout, stderr)
	}
	switch args[0] {
	case "run":
		return runCmd(args[1:], stdout, stderr)
	case "repl":
		return replCmd(args[1:], stdin, stdout, stderr)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	}
	if strings.HasPrefix(args[0], "-") {
		fmt.Fprint(stderr, usage)
		return 2
	}
	return runCmd(args, stdout, stderr)
}

// common holds the flags every verb accepts.
type common struct {
	fs          *flag.FlagSet
	configPath  *string
	logLevel    *string
	logFile     *string
	db          *string
	persistMode *string
	rounds      *int
	noStdlib    *bool
}

func newCommon(name string, stderr io.Writer) *common {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return &common{
		fs:          fs,
		configPath:  fs.String("config", "", "Configuration file (default flang.yaml if present)"),
		logLevel:    fs.String("log-level", "", "Log level: trace, debug, info, warn, error, none"),
		logFile:     fs.String("log-file", "", "Write logs to this file instead of stderr"),
		db:          fs.String("db", "", "SQLite database path for persisted definitions"),
		persistMode: fs.String("persist-mode", "", "Persistence mode: on_demand, always, or never"),
		rounds:      fs.Int("rounds", 0, "Maximum optimizer rounds"),
		noStdlib:    fs.Bool("no-stdlib", false, "Disable the standard prelude"),
	}
}

// setup parses the flags, merges them over the configuration file and
// initializes logging. Flags given on the command line win.
func (c *common) setup(args []string, stderr io.Writer) (*config.Config, map[string]bool, error) {
	if err := c.fs.Parse(args); err != nil {
		return nil, nil, err
	}
	set := make(map[string]bool)
	c.fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg, err := config.Find(*c.configPath)
	if err != nil {
		return nil, nil, err
	}
	if set["log-level"] {
		cfg.LogLevel = *c.logLevel
	}
	if set["log-file"] {
		cfg.LogFile = *c.logFile
	}
	if set["db"] {
		cfg.DB = *c.db
	}
	if set["persist-mode"] {
		cfg.PersistMode = *c.persistMode
	}
	if set["rounds"] {
		cfg.Rounds = c.rounds
	}
	if set["no-stdlib"] {
		on := !*c.noStdlib
		cfg.Stdlib = &on
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if err := log.Init(cfg.LogLevel, cfg.LogFile, cfg.LogFile == "" && isTerminal(stderr)); err != nil {
		return nil, nil, err
	}
	if cfg.Path != "" {
		log.Debug("config: %s", cfg.Path)
	}
	return cfg, set, nil
}

func sessionOptions(cfg *config.Config, optimize bool, stdout io.Writer) []flang.Option {
	opts := []flang.Option{
		flang.WithOutput(stdout),
		flang.WithOptimize(optimize),
		flang.WithPersistMode(cfg.Mode()),
	}
	if cfg.Rounds != nil {
		opts = append(opts, flang.WithRounds(*cfg.Rounds))
	}
	if !cfg.StdlibEnabled() {
		opts = append(opts, flang.WithNoStdlib())
	}
	if cfg.DB != "" {
		opts = append(opts, flang.WithSQLiteStore(cfg.DB))
	} else {
		opts = append(opts, flang.WithMemoryStore())
	}
	return opts
}

func runCmd(args []string, stdout, stderr io.Writer) int {
	c := newCommon("run", stderr)
	noOptimize := c.fs.Bool("no-optimize", false, "Disable the optimizer")
	dumpAST := c.fs.Bool("dump-ast", false, "Print the analyzed program instead of running it")
	dumpYAML := c.fs.Bool("dump-yaml", false, "Print the analyzed program as a YAML tree")
	include := c.fs.String("include", "", "Comma separated files to load before the program")

	cfg, set, err := c.setup(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer log.Log.Close()
	if c.fs.NArg() != 1 {
		fmt.Fprint(stderr, "run needs exactly one FILE\n")
		return 2
	}
	path := c.fs.Arg(0)

	optimize := cfg.OptimizeOr(true)
	if set["no-optimize"] {
		optimize = !*noOptimize
	}
	session := flang.New(sessionOptions(cfg, optimize, stdout)...)
	defer session.Close()
	if err := session.Err(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	for _, f := range splitList(*include) {
		if err := session.LoadFile(f); err != nil {
			renderFileError(stderr, err, f)
			return 1
		}
	}

	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if *dumpAST || *dumpYAML {
		elems, err := session.Program(string(src))
		if err != nil {
			renderError(stderr, err, path, string(src))
			return 1
		}
		if *dumpYAML {
			out, err := sem.Dump(elems)
			if err != nil {
				fmt.Fprintf(stderr, "Error: %v\n", err)
				return 1
			}
			stdout.Write(out)
			return 0
		}
		if text := sem.FormatAll(elems); text != "" {
			fmt.Fprintln(stdout, text)
		}
		return 0
	}

	if _, err := session.Run(string(src)); err != nil {
		renderError(stderr, err, path, string(src))
		return 1
	}
	return 0
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
