package optimize

import (
	"strings"
	"testing"

	"nickandperla.net/flang/internal/parser"
	"nickandperla.net/flang/internal/sem"
)

func program(t *testing.T, src string) []sem.Elem {
	t.Helper()
	nodes, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	elems, err := sem.NewAnalyzer().Analyze(nodes)
	if err != nil {
		t.Fatalf("unexpected semantic error: %v", err)
	}
	return elems
}

func optimized(t *testing.T, src string, opts ...Option) string {
	t.Helper()
	return sem.FormatAll(Optimize(program(t, src), opts...))
}

func TestOptimize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"fold integers", "(plus 2 3)", "5"},
		{"fold reals", "(times 1.5 2.0)", "3.0"},
		{"fold nested", "(minus (times 2 3) (divide 9 3))", "3"},
		{"mixed types not folded", "(plus 1 2.0)", "(plus 1 2.0)"},
		{"divide by zero not folded", "(divide 1 0)", "(divide 1 0)"},
		{"real divide by zero not folded", "(divide 1.0 0.0)", "(divide 1.0 0.0)"},
		{"integer overflow wraps", "(plus 9223372036854775807 1)", "-9223372036854775808"},
		{"inline then fold", "(func inc (x) (plus x 1)) (inc 5)", "6"},
		{"literal lambda", "((lambda (x y) (times x y)) 6 7)", "42"},
		{"closure", "(setq adder (lambda (x) (lambda (y) (plus x y)))) ((adder 5) 3)", "8"},
		{"unused setq", "(setq a 1) (setq b (isint a)) 7", "7"},
		{"unused folded setq", "(setq b (plus 1 2)) 7", "7"},
		{"unused failing setq kept", "(setq a (divide 1 0)) 5", "(setq a (divide 1 0))\n5"},
		{"unused setq that may fail kept", "(setq a 1) (setq b (plus a 1)) 7", "(setq a 1)\n(setq b (plus a 1))\n7"},
		{
			"impure setq kept",
			"(func f () (prog () (while false null) 1)) (setq a (f)) 7",
			"(func f () (prog () (while false null) 1))\n(setq a (f))\n7",
		},
		{
			"prog variable",
			"(prog (a b c) (setq a 1) (setq b 2) (setq c 3) (plus a c))",
			"(prog (a c) (setq a 1) (setq c 3) (plus a c))",
		},
		{
			"recursive function never inlined",
			"(func fact (n) (cond (equal n 0) 1 (times n (fact (minus n 1))))) (fact 5)",
			"(func fact (n) (cond (equal n 0) 1 (times n (fact (minus n 1)))))\n(fact 5)",
		},
		{
			"impure body not inlined",
			"(setq n 0) (func bump (x) (setq n (plus n x))) (bump 2) n",
			"(setq n 0)\n(func bump (x) (setq n (plus n x)))\n(bump 2)\nn",
		},
		{
			"shadowed builtin not folded",
			"(func f (plus) (plus 1 2)) (f minus)",
			"(func f (plus) (plus 1 2))\n(f minus)",
		},
		{
			"quoted names count as uses",
			"(setq x 5) (eval 'x)",
			"(setq x 5)\n(eval 'x)",
		},
		{
			"inlined once argument folds",
			"(func sq (x) (times x x)) (sq (sq 2))",
			"16",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := optimized(t, tt.input); got != tt.expected {
				t.Errorf("expected:\n%s\ngot:\n%s", tt.expected, got)
			}
		})
	}
}

func TestCaptureSafety(t *testing.T) {
	// inlining would put the caller's y under the body's own binding of y
	src := "(setq y 10) (func f (x) (prog (y) (plus x 1))) (f y)"
	got := optimized(t, src)
	if !strings.Contains(got, "(f y)") {
		t.Errorf("expected call to stay un-inlined, got:\n%s", got)
	}

	// a lambda body must not capture an identifier argument
	src = "(setq k 1) (func mk (x) (lambda () x)) (mk k)"
	got = optimized(t, src)
	if !strings.Contains(got, "(mk k)") {
		t.Errorf("expected call to stay un-inlined, got:\n%s", got)
	}

	// the body's free names must not be rebound at the call site
	src = "(setq z 1) (func addz (x) (plus x z)) (func g (z) (prog () (setq z (plus z 1)) (addz 2))) (g 5)"
	got = optimized(t, src)
	if !strings.Contains(got, "(addz 2)") {
		t.Errorf("expected call under rebinding of z to stay un-inlined, got:\n%s", got)
	}
}

func TestSubstitutionStopsAtRebinding(t *testing.T) {
	src := "(func f (x) ((lambda (x) x) 3)) (f 1)"
	if got := optimized(t, src); got != "3" {
		t.Errorf("expected '3', got '%s'", got)
	}
}

func TestTopLevelPruningDisabled(t *testing.T) {
	got := optimized(t, "(func inc (x) (plus x 1)) (inc 5)", WithTopLevelPruning(false))
	expected := "(func inc (x) (plus x 1))\n6"
	if got != expected {
		t.Errorf("expected:\n%s\ngot:\n%s", expected, got)
	}
}

func TestShadowedBuiltinsOption(t *testing.T) {
	got := optimized(t, "(plus 1 2)", WithShadowedBuiltins("plus"))
	if got != "(plus 1 2)" {
		t.Errorf("expected no folding, got '%s'", got)
	}
}

func TestEvalMayRebindQuotedBuiltins(t *testing.T) {
	got := optimized(t, "(eval '(setq plus minus)) (plus 2 1)")
	if !strings.Contains(got, "(plus 2 1)") {
		t.Errorf("expected no folding when eval may rebind plus, got:\n%s", got)
	}
}

func TestRounds(t *testing.T) {
	o := New(WithRounds(1))
	o.Optimize(program(t, "(func inc (x) (plus x 1)) (inc 5)"))
	if o.Stats().Rounds != 1 {
		t.Errorf("expected 1 round, got %d", o.Stats().Rounds)
	}

	o = New()
	o.Optimize(program(t, "(plus 1 2)"))
	stats := o.Stats()
	if stats.Rounds != 2 || stats.Folded != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

var corpus = []string{
	"(plus 2 3)",
	"(func inc (x) (plus x 1)) (inc 5)",
	"(prog (a b c) (setq a 1) (setq b 2) (setq c 3) (plus a c))",
	"(setq adder (lambda (x) (lambda (y) (plus x y)))) ((adder 5) 3)",
	"(func fact (n) (cond (equal n 0) 1 (times n (fact (minus n 1))))) (fact 5)",
	"(func sq (x) (times x x)) (func quad (x) (sq (sq x))) (quad 3)",
	"(setq i 0) (while (less i 3) (setq i (plus i 1))) i",
	"(func pick (c) (cond c 'yes 'no)) (pick true)",
	"(prog (x) (setq x (cons 1 null)) (head x))",
	"(func g (x) (plus x 1)) (func h (y) (g (g (g (g (g (g y))))))) (h 1)",
	"(func a (x) (plus x 1)) (func b (x) (a (a x))) (func c (x) (b (b x))) (func d (x) (c (c x))) (d 0)",
}

func TestIdempotence(t *testing.T) {
	for _, src := range corpus {
		once := Optimize(program(t, src))
		twice := Optimize(once)
		if a, b := sem.FormatAll(once), sem.FormatAll(twice); a != b {
			t.Errorf("optimizing twice changed %s:\nonce:\n%s\ntwice:\n%s", src, a, b)
		}
	}
}

func TestDeepCallChainReachesFixpoint(t *testing.T) {
	src := "(func g (x) (plus x 1)) (func h (y) (g (g (g (g (g (g y))))))) (h 1)"
	if got := optimized(t, src); got != "7" {
		t.Errorf("expected '7', got:\n%s", got)
	}
	src = "(func a (x) (plus x 1)) (func b (x) (a (a x))) (func c (x) (b (b x))) (func d (x) (c (c x))) (d 0)"
	if got := optimized(t, src); got != "8" {
		t.Errorf("expected '8', got:\n%s", got)
	}
}

func TestInputNotModified(t *testing.T) {
	prog := program(t, "(func inc (x) (plus x 1)) (inc 5)")
	before := sem.FormatAll(prog)
	Optimize(prog)
	if after := sem.FormatAll(prog); after != before {
		t.Errorf("input changed:\n%s\n%s", before, after)
	}
}
