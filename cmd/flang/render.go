package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"nickandperla.net/flang/internal/eval"
	"nickandperla.net/flang/internal/parser"
	"nickandperla.net/flang/internal/scanner"
	"nickandperla.net/flang/internal/sem"
	"nickandperla.net/flang/internal/token"
)

// spanOf finds the position an error points at, if any.
func spanOf(err error) token.Span {
	var rerr *eval.RuntimeError
	if errors.As(err, &rerr) && !rerr.Span.IsZero() {
		return rerr.Span
	}
	var serr *sem.Error
	if errors.As(err, &serr) && !serr.Span.IsZero() {
		return serr.Span
	}
	var perr *parser.Error
	if errors.As(err, &perr) && !perr.Span.IsZero() {
		return perr.Span
	}
	var lerr *scanner.Error
	if errors.As(err, &lerr) && !lerr.Span.IsZero() {
		return lerr.Span
	}
	return token.Span{}
}

// renderError prints err and, when it carries a position inside src, the
// offending line with a caret under the span.
func renderError(w io.Writer, err error, name, src string) {
	if name != "" {
		fmt.Fprintf(w, "%s: Error: %v\n", name, err)
	} else {
		fmt.Fprintf(w, "Error: %v\n", err)
	}
	span := spanOf(err)
	if span.IsZero() {
		return
	}
	lines := strings.Split(src, "\n")
	if span.Line > len(lines) {
		return
	}
	line := strings.TrimRight(lines[span.Line-1], "\r")
	fmt.Fprintf(w, "    %s\n", line)
	fmt.Fprintf(w, "    %s\n", caret(line, span))
}

func caret(line string, span token.Span) string {
	var b strings.Builder
	col := 1
	for _, r := range line {
		if col >= span.Begin {
			break
		}
		if r == '\t' {
			b.WriteRune('\t')
		} else {
			b.WriteRune(' ')
		}
		col++
	}
	width := span.End - span.Begin
	if width < 1 {
		width = 1
	}
	b.WriteString(strings.Repeat("^", width))
	return b.String()
}

func renderFileError(w io.Writer, err error, path string) {
	src, readErr := os.ReadFile(path)
	if readErr != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	renderError(w, err, "", string(src))
}
