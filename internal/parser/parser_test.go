package parser

import (
	"errors"
	"testing"

	"nickandperla.net/flang/internal/expr"
	"nickandperla.net/flang/internal/scanner"
)

func TestParseRoundTrip(t *testing.T) {
	tests := []string{
		"(plus 2 3)",
		"(func inc (x) (plus x 1))",
		"'(a b (c 1.5))",
		"(prog (a b) (setq a null) (cond true a))",
		"(quote x)",
		"()",
	}

	for _, src := range tests {
		nodes, err := Parse(src)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", src, err)
		}
		if len(nodes) != 1 {
			t.Fatalf("expected 1 node for %s, got %d", src, len(nodes))
		}
		if got := nodes[0].String(); got != src {
			t.Errorf("expected '%s', got '%s'", src, got)
		}
	}
}

func TestParseMultipleForms(t *testing.T) {
	nodes, err := Parse("(setq x 1)\n; comment\nx 2.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("expected 3 forms, got %d", len(nodes))
	}
	if _, ok := nodes[1].(expr.Ident); !ok {
		t.Errorf("expected identifier, got %T", nodes[1])
	}
	if r, ok := nodes[2].(expr.Real); !ok || r.Value != 2.0 {
		t.Errorf("expected real 2.0, got %v", nodes[2])
	}
}

func TestParseQuoteShorthand(t *testing.T) {
	nodes, err := Parse("'x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q, ok := nodes[0].(expr.Quote)
	if !ok {
		t.Fatalf("expected quote, got %T", nodes[0])
	}
	if id, ok := q.Datum.(expr.Ident); !ok || id.Name != "x" {
		t.Errorf("expected quoted identifier x, got %v", q.Datum)
	}
}

func TestParseIncomplete(t *testing.T) {
	for _, src := range []string{"(plus 1", "(prog ()\n", "'"} {
		_, err := Parse(src)
		if !errors.Is(err, ErrIncomplete) {
			t.Errorf("for %q: expected ErrIncomplete, got %v", src, err)
		}
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(")")
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected parse error, got %v", err)
	}
	if errors.Is(err, ErrIncomplete) {
		t.Errorf("stray ) must not be reported as incomplete")
	}
	if perr.Span.Line != 1 || perr.Span.Begin != 1 {
		t.Errorf("unexpected span: %+v", perr.Span)
	}

	_, err = Parse("(a $)")
	var lexErr *scanner.Error
	if !errors.As(err, &lexErr) {
		t.Errorf("expected lex error, got %v", err)
	}
}

func TestParseEmpty(t *testing.T) {
	nodes, err := Parse("   ; only a comment\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 0 {
		t.Errorf("expected no forms, got %d", len(nodes))
	}
}
