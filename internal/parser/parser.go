// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package parser turns F tokens into raw syntax trees.
package parser

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"nickandperla.net/flang/internal/expr"
	"nickandperla.net/flang/internal/scanner"
	"nickandperla.net/flang/internal/token"
)

// ErrIncomplete is wrapped by errors caused by input ending inside a form.
var ErrIncomplete = errors.New("incomplete input")

// Error is a syntax error.
type Error struct {
	Msg        string
	Span       token.Span
	Incomplete bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at %s: %s", e.Span, e.Msg)
}

func (e *Error) Unwrap() error {
	if e.Incomplete {
		return ErrIncomplete
	}
	return nil
}

// Parser reads top-level forms from a scanner.
type Parser struct {
	scan *scanner.Scanner
}

// New creates a Parser reading from r.
func New(r io.Reader) *Parser {
	return &Parser{scan: scanner.New(r)}
}

// Parse parses every top-level form in src.
func Parse(src string) ([]expr.Node, error) {
	return New(strings.NewReader(src)).All()
}

// All parses the remaining input.
func (p *Parser) All() ([]expr.Node, error) {
	var nodes []expr.Node
	for {
		n, err := p.Next()
		if err == io.EOF {
			return nodes, nil
		}
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
}

// Next parses one top-level form, returning io.EOF at end of input.
func (p *Parser) Next() (expr.Node, error) {
	item, err := p.scan.Next()
	if err != nil {
		return nil, err
	}
	if item.Token == token.EOF {
		return nil, io.EOF
	}
	return p.parseItem(item)
}

func (p *Parser) parseItem(item *scanner.Item) (expr.Node, error) {
	switch item.Token {
	case token.LPAREN:
		return p.parseList(item.Span)
	case token.RPAREN:
		return nil, &Error{Msg: "unexpected )", Span: item.Span}
	case token.QUOTE:
		next, err := p.scan.Next()
		if err != nil {
			return nil, err
		}
		if next.Token == token.EOF {
			return nil, &Error{Msg: "expected datum after '", Span: item.Span, Incomplete: true}
		}
		datum, err := p.parseItem(next)
		if err != nil {
			return nil, err
		}
		return expr.Quote{Datum: datum, Span: item.Span}, nil
	case token.IDENT:
		return expr.Ident{Name: item.Value, Span: item.Span}, nil
	case token.KEYWORD:
		return expr.SpecialForm{Form: item.Form, Span: item.Span}, nil
	case token.NULL:
		return expr.Null{Span: item.Span}, nil
	case token.INTEGER:
		return expr.Integer{Value: item.Int, Span: item.Span}, nil
	case token.REAL:
		return expr.Real{Value: item.Real, Span: item.Span}, nil
	case token.BOOL:
		return expr.Bool{Value: item.Bool, Span: item.Span}, nil
	}
	return nil, &Error{Msg: fmt.Sprintf("unexpected token %v", item.Token), Span: item.Span}
}

func (p *Parser) parseList(open token.Span) (expr.Node, error) {
	elems := []expr.Node{}
	for {
		item, err := p.scan.Next()
		if err != nil {
			return nil, err
		}
		switch item.Token {
		case token.EOF:
			return nil, &Error{Msg: "expected )", Span: open, Incomplete: true}
		case token.RPAREN:
			return expr.List{Elems: elems, Span: open}, nil
		}
		n, err := p.parseItem(item)
		if err != nil {
			return nil, err
		}
		elems = append(elems, n)
	}
}
