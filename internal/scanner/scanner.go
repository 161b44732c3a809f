// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package scanner provides a streaming lexer for F source text.
package scanner

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"nickandperla.net/flang/internal/token"
)

// Scanner tokenizes F input rune-by-rune.
type Scanner struct {
	reader *bufio.Reader
	buf    strings.Builder
	peeked *Item
	line   int // Current line number (1-based)
	col    int // Column of the next rune (1-based)
}

// Item represents a scanned token with its value.
type Item struct {
	Token token.Token
	Value string // Source text of the token
	Span  token.Span

	Int  int64      // INTEGER payload
	Real float64    // REAL payload
	Bool bool       // BOOL payload
	Form token.Form // KEYWORD payload
}

// Error is a lexical error.
type Error struct {
	Msg  string
	Span token.Span
}

func (e *Error) Error() string {
	return fmt.Sprintf("lex error at %s: %s", e.Span, e.Msg)
}

// New creates a new Scanner from an io.Reader.
func New(r io.Reader) *Scanner {
	return &Scanner{
		reader: bufio.NewReader(r),
		line:   1,
		col:    1,
	}
}

// NewFromString creates a new Scanner from a string.
func NewFromString(s string) *Scanner {
	return New(strings.NewReader(s))
}

// Line returns the current line number (1-based).
func (s *Scanner) Line() int {
	return s.line
}

// Peek returns the next item without consuming it.
func (s *Scanner) Peek() (*Item, error) {
	if s.peeked != nil {
		return s.peeked, nil
	}
	item, err := s.Next()
	if err != nil {
		return nil, err
	}
	s.peeked = item
	return item, nil
}

// Next returns the next token from the input.
func (s *Scanner) Next() (*Item, error) {
	if s.peeked != nil {
		item := s.peeked
		s.peeked = nil
		return item, nil
	}

	if err := s.skipWhitespaceAndComments(); err != nil {
		return nil, err
	}

	line, begin := s.line, s.col
	r, err := s.read()
	if err == io.EOF {
		return &Item{Token: token.EOF, Span: token.Span{Line: line, Begin: begin, End: begin}}, nil
	}
	if err != nil {
		return nil, err
	}

	single := func(t token.Token) *Item {
		return &Item{Token: t, Value: string(r), Span: token.Span{Line: line, Begin: begin, End: s.col}}
	}

	switch {
	case r == '(':
		return single(token.LPAREN), nil
	case r == ')':
		return single(token.RPAREN), nil
	case r == '\'':
		return single(token.QUOTE), nil
	case unicode.IsLetter(r):
		return s.scanWord(r, line, begin)
	case unicode.IsDigit(r):
		return s.scanNumber(r, line, begin)
	case r == '+' || r == '-':
		next, err := s.peekRune()
		if err != nil && err != io.EOF {
			return nil, err
		}
		if err == nil && unicode.IsDigit(next) {
			return s.scanNumber(r, line, begin)
		}
	}

	return nil, &Error{
		Msg:  fmt.Sprintf("unexpected character %q", r),
		Span: token.Span{Line: line, Begin: begin, End: s.col},
	}
}

// All scans the remaining input, returning every token up to but not
// including EOF.
func (s *Scanner) All() ([]*Item, error) {
	var items []*Item
	for {
		item, err := s.Next()
		if err != nil {
			return nil, err
		}
		if item.Token == token.EOF {
			return items, nil
		}
		items = append(items, item)
	}
}

func (s *Scanner) scanWord(first rune, line, begin int) (*Item, error) {
	s.buf.Reset()
	s.buf.WriteRune(first)
	for {
		r, err := s.peekRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		s.read()
		s.buf.WriteRune(r)
	}

	word := s.buf.String()
	item := &Item{Value: word, Span: token.Span{Line: line, Begin: begin, End: s.col}}
	switch word {
	case "true", "false":
		item.Token = token.BOOL
		item.Bool = word == "true"
	case "null":
		item.Token = token.NULL
	default:
		if form, ok := token.LookupForm(word); ok {
			item.Token = token.KEYWORD
			item.Form = form
		} else {
			item.Token = token.IDENT
		}
	}
	return item, nil
}

func (s *Scanner) scanNumber(first rune, line, begin int) (*Item, error) {
	s.buf.Reset()
	s.buf.WriteRune(first)

	digits := func() error {
		for {
			r, err := s.peekRune()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			if !unicode.IsDigit(r) {
				return nil
			}
			s.read()
			s.buf.WriteRune(r)
		}
	}

	if err := digits(); err != nil {
		return nil, err
	}

	isReal := false
	if r, err := s.peekRune(); err == nil && r == '.' {
		s.read()
		s.buf.WriteRune('.')
		next, err := s.peekRune()
		if err != nil || !unicode.IsDigit(next) {
			return nil, &Error{
				Msg:  "expected digit after '.'",
				Span: token.Span{Line: line, Begin: begin, End: s.col},
			}
		}
		isReal = true
		if err := digits(); err != nil {
			return nil, err
		}
	} else if err != nil && err != io.EOF {
		return nil, err
	}

	text := s.buf.String()
	span := token.Span{Line: line, Begin: begin, End: s.col}
	if isReal {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, &Error{Msg: fmt.Sprintf("invalid real number %s", text), Span: span}
		}
		return &Item{Token: token.REAL, Value: text, Span: span, Real: f}, nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, &Error{Msg: fmt.Sprintf("invalid integer number %s", text), Span: span}
	}
	return &Item{Token: token.INTEGER, Value: text, Span: span, Int: n}, nil
}

// skipWhitespaceAndComments consumes whitespace and ';' line comments.
func (s *Scanner) skipWhitespaceAndComments() error {
	for {
		r, err := s.peekRune()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch {
		case unicode.IsSpace(r):
			s.read()
		case r == ';':
			for {
				r, err := s.read()
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
				if r == '\n' {
					break
				}
			}
		default:
			return nil
		}
	}
}

// read consumes one rune and advances the position.
func (s *Scanner) read() (rune, error) {
	r, _, err := s.reader.ReadRune()
	if err != nil {
		return 0, err
	}
	if r == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return r, nil
}

// peekRune returns the next rune without consuming it.
func (s *Scanner) peekRune() (rune, error) {
	r, _, err := s.reader.ReadRune()
	if err != nil {
		return 0, err
	}
	if err := s.reader.UnreadRune(); err != nil {
		return 0, err
	}
	return r, nil
}
