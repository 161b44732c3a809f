// Package log is a small leveled logger. It is silent until Init is called
// with a level other than NONE.
package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

type Level int

const (
	TRACE Level = iota
	DEBUG
	INFO
	WARN
	ERROR
	NONE
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "NONE"}

var levelColors = [...]string{
	"\033[90m", // Grey
	"\033[36m", // Cyan
	"\033[32m", // Green
	"\033[33m", // Yellow
	"\033[31m", // Red
}

const resetColor = "\033[0m"

func (l Level) String() string {
	if l < TRACE || l > NONE {
		return "UNKNOWN"
	}
	return levelNames[l]
}

type Logger struct {
	level      Level
	color      bool
	fileHandle *os.File
	logger     *log.Logger
	mu         sync.Mutex
}

// Log is the process-wide logger.
var Log = New(io.Discard, NONE, false)

// New creates a Logger writing to out.
func New(out io.Writer, level Level, color bool) *Logger {
	return &Logger{
		level:  level,
		color:  color && isTerminal(out),
		logger: log.New(out, "", log.LstdFlags),
	}
}

// Init replaces Log. An empty logFile logs to stderr. A log file that
// cannot be opened is reported and stderr is used instead.
func Init(logLevel, logFile string, color bool) error {
	lvl, err := ParseLevel(logLevel)
	if err != nil {
		return err
	}
	var out io.Writer = os.Stderr
	var fh *os.File
	if logFile != "" {
		fh, err = os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		} else {
			out = fh
		}
	}
	l := New(out, lvl, color)
	l.fileHandle = fh

	old := Log
	Log = l
	old.Close()
	return nil
}

// Close releases the log file, if any.
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fileHandle != nil {
		l.fileHandle.Close()
		l.fileHandle = nil
	}
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// ParseLevel maps a level name to a Level. The empty string means NONE.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "trace":
		return TRACE, nil
	case "debug":
		return DEBUG, nil
	case "info":
		return INFO, nil
	case "warn":
		return WARN, nil
	case "error":
		return ERROR, nil
	case "none", "":
		return NONE, nil
	}
	return NONE, fmt.Errorf("unknown log level %q", s)
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return level >= l.level && l.level != NONE
}

func (l *Logger) log(level Level, format string, v ...any) {
	if !l.Enabled(level) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, v...)
	tag := levelNames[level]
	if l.color {
		tag = fmt.Sprintf("%s%-5s%s", levelColors[level], tag, resetColor)
	}
	l.logger.Printf("[%s] %s", tag, msg)
}

func Trace(format string, v ...any) { Log.log(TRACE, format, v...) }
func Debug(format string, v ...any) { Log.log(DEBUG, format, v...) }
func Info(format string, v ...any)  { Log.log(INFO, format, v...) }
func Warn(format string, v ...any)  { Log.log(WARN, format, v...) }
func Error(format string, v ...any) { Log.log(ERROR, format, v...) }
