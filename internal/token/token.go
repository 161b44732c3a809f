// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package token defines F token types, special-form keywords and source spans.
package token

import "fmt"

// Token represents an F token type.
type Token int

const (
	EOF Token = iota

	// Punctuation
	LPAREN // (
	RPAREN // )
	QUOTE  // ' shorthand for (quote x)

	// Literals
	IDENT
	INTEGER
	REAL
	BOOL
	NULL

	// Special-form keywords
	KEYWORD
)

// String returns the string representation of a token.
func (t Token) String() string {
	switch t {
	case EOF:
		return "EOF"
	case LPAREN:
		return "LPAREN"
	case RPAREN:
		return "RPAREN"
	case QUOTE:
		return "QUOTE"
	case IDENT:
		return "IDENT"
	case INTEGER:
		return "INTEGER"
	case REAL:
		return "REAL"
	case BOOL:
		return "BOOL"
	case NULL:
		return "NULL"
	case KEYWORD:
		return "KEYWORD"
	}
	return "UNKNOWN"
}

// Form identifies one of the special-form keywords.
type Form int

const (
	Setq Form = iota
	Func
	Lambda
	Cond
	Prog
	While
	Return
	Break
	Quote
)

var formNames = [...]string{
	Setq:   "setq",
	Func:   "func",
	Lambda: "lambda",
	Cond:   "cond",
	Prog:   "prog",
	While:  "while",
	Return: "return",
	Break:  "break",
	Quote:  "quote",
}

// String returns the keyword as it is spelled in source.
func (f Form) String() string {
	if f < 0 || int(f) >= len(formNames) {
		return "unknown"
	}
	return formNames[f]
}

// LookupForm reports whether name is a special-form keyword.
func LookupForm(name string) (Form, bool) {
	for i, n := range formNames {
		if n == name {
			return Form(i), true
		}
	}
	return 0, false
}

// Span locates a token in the source. Line and columns are 1-based; End is
// the column just past the last rune. The zero Span means "unknown".
type Span struct {
	Line  int
	Begin int
	End   int
}

// IsZero reports whether the span carries no position.
func (s Span) IsZero() bool {
	return s.Line == 0
}

// String renders the span for error messages.
func (s Span) String() string {
	if s.IsZero() {
		return "unknown position"
	}
	return fmt.Sprintf("line %d, column %d", s.Line, s.Begin)
}
