package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"

	"nickandperla.net/flang/internal/log"
	"nickandperla.net/flang/internal/parser"
	"nickandperla.net/flang/pkg/flang"
)

const (
	prompt     = ">>> "
	contPrompt = "... "
)

func printBanner(w io.Writer) {
	fmt.Fprintln(w, "flang REPL (Ctrl+D to exit, :help for commands)")
}

const replHelp = `commands:
  :load FILE      evaluate the definitions in FILE
  :persist NAME   save the definition of NAME to the store
  :history NAME   list stored versions of NAME
  :restore        evaluate every stored definition
  :quit           leave the REPL
`

func replCmd(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c := newCommon("repl", stderr)
	files := c.fs.String("files", "", "Comma separated files to load at startup")
	optimize := c.fs.Bool("optimize", false, "Optimize each input form")
	historyFile := c.fs.String("history-file", "", "Line history file")

	cfg, set, err := c.setup(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer log.Log.Close()

	opt := cfg.OptimizeOr(false)
	if set["optimize"] {
		opt = *optimize
	}
	if set["history-file"] {
		cfg.HistoryFile = *historyFile
	}

	session := flang.New(sessionOptions(cfg, opt, stdout)...)
	defer session.Close()
	if err := session.Err(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	r := &repl{session: session, out: stdout}
	for _, f := range splitList(*files) {
		r.load(f)
	}

	if f, ok := stdin.(*os.File); ok && isTerminal(f) {
		printBanner(stdout)
		r.runLiner(cfg.HistoryFile)
		return 0
	}
	r.runBasic(stdin)
	return 0
}

// repl buffers input lines until they form complete forms.
type repl struct {
	session *flang.Session
	out     io.Writer
	buf     strings.Builder
}

// feed handles one input line. It returns the prompt for the next line
// and whether the session should end.
func (r *repl) feed(line string) (string, bool) {
	if r.buf.Len() == 0 {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			return prompt, false
		}
		if strings.HasPrefix(trimmed, ":") {
			return prompt, r.command(trimmed)
		}
	}
	r.buf.WriteString(line)
	r.buf.WriteString("\n")
	src := r.buf.String()

	if _, err := parser.Parse(src); errors.Is(err, parser.ErrIncomplete) {
		return contPrompt, false
	}
	r.buf.Reset()

	result, err := r.session.Eval(src)
	if result != "" {
		fmt.Fprintln(r.out, result)
	}
	if err != nil {
		renderError(r.out, err, "", src)
	}
	return prompt, false
}

// command runs a :command and reports whether the REPL should quit.
func (r *repl) command(line string) bool {
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]
	arg := func() (string, bool) {
		if len(args) != 1 {
			fmt.Fprintf(r.out, "%s needs exactly one argument\n", name)
			return "", false
		}
		return args[0], true
	}

	switch name {
	case ":quit", ":q", ":exit":
		return true
	case ":help":
		fmt.Fprint(r.out, replHelp)
	case ":load":
		if path, ok := arg(); ok {
			r.load(path)
		}
	case ":persist":
		if n, ok := arg(); ok {
			if err := r.session.Persist(n); err != nil {
				fmt.Fprintf(r.out, "Error: %v\n", err)
			}
		}
	case ":history":
		if n, ok := arg(); ok {
			entries, err := r.session.History(n, 0)
			if err != nil {
				fmt.Fprintf(r.out, "Error: %v\n", err)
				break
			}
			if len(entries) == 0 {
				fmt.Fprintf(r.out, "no stored versions of %s\n", n)
			}
			for _, e := range entries {
				fmt.Fprintf(r.out, "v%d %s  %s\n", e.Version, e.Ts, e.Source)
			}
		}
	case ":restore":
		n, err := r.session.Restore()
		if err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
		}
		fmt.Fprintf(r.out, "restored %d definitions\n", n)
	default:
		fmt.Fprintf(r.out, "unknown command %s (try :help)\n", name)
	}
	return false
}

func (r *repl) load(path string) {
	if err := r.session.LoadFile(path); err != nil {
		renderFileError(r.out, err, path)
	}
}

// runBasic handles non-TTY input (piped input).
func (r *repl) runBasic(in io.Reader) {
	reader := bufio.NewReader(in)
	p := prompt
	for {
		fmt.Fprint(r.out, p)
		line, err := reader.ReadString('\n')
		if line == "" && err != nil {
			fmt.Fprintln(r.out)
			return
		}
		var quit bool
		p, quit = r.feed(strings.TrimRight(line, "\r\n"))
		if quit {
			return
		}
	}
}

// runLiner handles TTY input with line editing and history.
func (r *repl) runLiner(historyFile string) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyFile = expandHome(historyFile)
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		f, err := os.Create(historyFile)
		if err != nil {
			log.Warn("history: %v", err)
			return
		}
		line.WriteHistory(f)
		f.Close()
	}()

	p := prompt
	for {
		input, err := line.Prompt(p)
		if errors.Is(err, liner.ErrPromptAborted) {
			r.buf.Reset()
			p = prompt
			continue
		}
		if err != nil {
			fmt.Fprintln(r.out)
			return
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		var quit bool
		p, quit = r.feed(input)
		if quit {
			return
		}
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func expandHome(path string) string {
	home, err := os.UserHomeDir()
	if path == "" {
		if err != nil {
			return ".flang_history"
		}
		return filepath.Join(home, ".flang_history")
	}
	if strings.HasPrefix(path, "~/") && err == nil {
		return filepath.Join(home, path[2:])
	}
	return path
}
