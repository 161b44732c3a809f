package flang

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nickandperla.net/flang/internal/eval"
	"nickandperla.net/flang/internal/parser"
	"nickandperla.net/flang/internal/sem"
	"nickandperla.net/flang/internal/store"
)

func TestEval(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"literal", "42", "42"},
		{"arithmetic", "(plus 1 (times 2 3))", "7"},
		{"setq prints value", "(setq a 5)", "5"},
		{"func suppressed", "(func sq (x) (times x x))", ""},
		{"several forms", "(func sq (x) (times x x)) (sq 4) (sq 5)", "16\n25"},
		{"quoted list", "'(a b)", "'(a b)"},
		{"while is null", "(while false 1)", "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(WithNoStdlib())
			result, err := r.Eval(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected '%s', got '%s'", tt.expected, result)
			}
		})
	}
}

func TestEvalKeepsStateAcrossCalls(t *testing.T) {
	for _, opt := range []bool{false, true} {
		r := New(WithNoStdlib(), WithOptimize(opt))
		if _, err := r.Eval("(setq counter 0)"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := r.Eval("(func bump () (setq counter (plus counter 1)))"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		r.Eval("(bump)")
		result, err := r.Eval("(bump)")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != "2" {
			t.Errorf("optimize=%v: expected '2', got '%s'", opt, result)
		}
	}
}

func TestEvalStopsAtFirstError(t *testing.T) {
	r := New(WithNoStdlib())
	result, err := r.Eval("(setq a 1) (head '()) (setq b 2)")
	if err == nil {
		t.Fatal("expected error")
	}
	var rerr *eval.RuntimeError
	if !errors.As(err, &rerr) || rerr.Kind != eval.KindEmptyList {
		t.Errorf("expected empty list runtime error, got %v", err)
	}
	if result != "1" {
		t.Errorf("expected output of forms before the error, got '%s'", result)
	}
	if _, ok := r.Lookup("b"); ok {
		t.Errorf("forms after the error must not run")
	}
	if _, ok := r.Lookup("a"); !ok {
		t.Errorf("forms before the error keep their effects")
	}
}

func TestEvalSemanticErrorLeavesNoTrace(t *testing.T) {
	r := New(WithNoStdlib())
	_, err := r.Eval("(setq z undefined)")
	var serr *sem.Error
	if !errors.As(err, &serr) {
		t.Fatalf("expected semantic error, got %v", err)
	}
	// z was rolled back, so it is still undeclared
	if _, err := r.Eval("z"); !errors.As(err, &serr) {
		t.Errorf("expected z to stay undeclared, got %v", err)
	}
}

func TestEvalIncompleteInput(t *testing.T) {
	r := New(WithNoStdlib())
	_, err := r.Eval("(plus 1")
	if !errors.Is(err, parser.ErrIncomplete) {
		t.Errorf("expected ErrIncomplete, got %v", err)
	}
}

func TestShadowedBuiltinAcrossCalls(t *testing.T) {
	r := New(WithNoStdlib(), WithOptimize(true))
	if _, err := r.Eval("(setq plus minus)"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// folding would wrongly produce 5
	result, err := r.Eval("(plus 3 2)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "1" {
		t.Errorf("expected '1', got '%s'", result)
	}
}

func TestRun(t *testing.T) {
	var out bytes.Buffer
	r := New(WithNoStdlib(), WithOutput(&out))
	values, err := r.Run(`
		(func sq (x) (times x x))
		(setq unused 10)
		(sq 7)
		(func f () 0)
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// the unused setq and the never called functions are pruned
	if len(values) != 1 {
		t.Fatalf("expected 1 value, got %d", len(values))
	}
	if strings.TrimSpace(out.String()) != "49" {
		t.Errorf("expected '49' printed, got '%s'", out.String())
	}
}

func TestRunOptimizedMatchesPlain(t *testing.T) {
	programs := []string{
		"(func sq (x) (times x x)) (sq (plus 1 2))",
		"(func fact (n) (cond (lesseq n 1) 1 (times n (fact (minus n 1))))) (fact 10)",
		"(setq k 3) ((lambda (x y) (plus x y)) k 4)",
		"(prog (i acc) (setq i 0) (setq acc '()) (while (less i 3) (prog () (setq acc (cons i acc)) (setq i (plus i 1)) null)) acc)",
		"(eval '(plus 1 2))",
	}
	for _, src := range programs {
		var plain, optimized bytes.Buffer
		if _, err := New(WithNoStdlib(), WithOptimize(false), WithOutput(&plain)).Run(src); err != nil {
			t.Fatalf("%s: unexpected error: %v", src, err)
		}
		if _, err := New(WithNoStdlib(), WithOptimize(true), WithOutput(&optimized)).Run(src); err != nil {
			t.Fatalf("%s: unexpected error: %v", src, err)
		}
		if plain.String() != optimized.String() {
			t.Errorf("%s: expected '%s', got '%s' when optimized", src, plain.String(), optimized.String())
		}
	}
}

func TestRunOptimizedKeepsRuntimeErrors(t *testing.T) {
	src := "(setq a (divide 1 0)) 5"
	for _, optimize := range []bool{false, true} {
		var out bytes.Buffer
		_, err := New(WithNoStdlib(), WithOptimize(optimize), WithOutput(&out)).Run(src)
		var re *eval.RuntimeError
		if !errors.As(err, &re) || re.Kind != eval.KindDivisionByZero {
			t.Errorf("optimize=%v: expected division by zero, got %v", optimize, err)
		}
		if out.Len() != 0 {
			t.Errorf("optimize=%v: expected no output, got '%s'", optimize, out.String())
		}
	}
}

func TestRunForgetsPrunedDeclarations(t *testing.T) {
	r := New(WithNoStdlib(), WithOutput(&bytes.Buffer{}))
	if _, err := r.Run("(setq unused 10) (func helper (x) x) (setq kept 1) kept"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range []string{"unused", "helper"} {
		if _, ok := r.Lookup(name); ok {
			t.Errorf("expected %s to be pruned", name)
		}
		_, err := r.Eval(name)
		var serr *sem.Error
		if !errors.As(err, &serr) {
			t.Errorf("expected %s to be undeclared for later input, got %v", name, err)
		}
	}
	if got, err := r.Eval("kept"); err != nil || got != "1" {
		t.Errorf("expected kept to stay bound, got '%s' %v", got, err)
	}

	// a pruned redefinition keeps the earlier binding visible
	if _, err := r.Eval("(setq again 1)"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Run("(setq again 2) 0"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, err := r.Eval("again"); err != nil || got != "1" {
		t.Errorf("expected again to stay 1, got '%s' %v", got, err)
	}
}

func TestRunAnalyzesWholeProgramFirst(t *testing.T) {
	var out bytes.Buffer
	r := New(WithNoStdlib(), WithOutput(&out))
	if _, err := r.Run("(setq first 1) first (plus nothing 1)"); err == nil {
		t.Fatal("expected semantic error")
	}
	if out.Len() != 0 {
		t.Errorf("nothing may run when analysis fails, got '%s'", out.String())
	}
	if _, ok := r.Lookup("first"); ok {
		t.Errorf("expected first to stay unbound")
	}
}

func TestRunFileAndLoadFile(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "lib.f")
	main := filepath.Join(dir, "main.f")
	os.WriteFile(lib, []byte("(func cube (x) (times x (times x x)))\n"), 0o644)
	os.WriteFile(main, []byte("(cube 3)\n"), 0o644)

	var out bytes.Buffer
	r := New(WithNoStdlib(), WithOutput(&out))
	if err := r.LoadFile(lib); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if _, err := r.RunFile(main); err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	if strings.TrimSpace(out.String()) != "27" {
		t.Errorf("expected '27', got '%s'", out.String())
	}
	if err := r.LoadFile(filepath.Join(dir, "missing.f")); err == nil {
		t.Errorf("expected error for missing file")
	}
}

func TestProgramDoesNotChangeSession(t *testing.T) {
	r := New(WithNoStdlib(), WithOptimize(true))
	elems, err := r.Program("(func sq (x) (times x x)) (sq 3)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sem.FormatAll(elems); got != "9" {
		t.Errorf("expected optimized program '9', got '%s'", got)
	}
	if _, err := r.Eval("(func sq (x) x)"); err != nil {
		t.Errorf("Program must not declare sq in the session: %v", err)
	}
}

func TestPersistOnDemand(t *testing.T) {
	s := store.NewMemory()
	r := New(WithNoStdlib(), WithStore(s))
	r.Eval("(func sq (x) (times x x)) (setq k 2)")

	names, _ := s.Names()
	if len(names) != 0 {
		t.Errorf("on_demand must not write without Persist, got %v", names)
	}
	if err := r.Persist("sq"); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	got, _ := s.Get("sq")
	if got != "(func sq (x) (times x x))" {
		t.Errorf("expected stored source, got '%s'", got)
	}
	if err := r.Persist("nothing"); err == nil {
		t.Errorf("expected error persisting an unknown name")
	}
}

func TestPersistAlwaysAndHistory(t *testing.T) {
	s := store.NewMemory()
	r := New(WithNoStdlib(), WithStore(s), WithPersistMode(PersistAlways))
	r.Eval("(setq k 1)")
	r.Eval("(setq k 2)")
	r.Eval("(plus k 1)")

	entries, err := r.History("k", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 2 || entries[0].Source != "(setq k 2)" || entries[1].Source != "(setq k 1)" {
		t.Errorf("unexpected history: %v", entries)
	}
}

func TestPersistNever(t *testing.T) {
	s := store.NewMemory()
	r := New(WithNoStdlib(), WithStore(s), WithPersistMode(PersistNever))
	r.Eval("(setq k 1)")
	if err := r.Persist("k"); err != nil {
		t.Errorf("Persist must be a no-op, got %v", err)
	}
	names, _ := s.Names()
	if len(names) != 0 {
		t.Errorf("expected empty store, got %v", names)
	}
}

func TestRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flang.db")

	r := New(WithNoStdlib(), WithSQLiteStore(path), WithPersistMode(PersistAlways))
	if err := r.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.Eval("(setq base 10)")
	r.Eval("(func addbase (x) (plus x base))")
	r.Close()

	r2 := New(WithNoStdlib(), WithSQLiteStore(path))
	defer r2.Close()
	r2.Eval("(setq base 1)")
	n, err := r2.Restore()
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 restored definition, got %d", n)
	}
	// base was already bound and keeps its value
	result, err := r2.Eval("(addbase 5)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "6" {
		t.Errorf("expected '6', got '%s'", result)
	}
}

func TestNoStore(t *testing.T) {
	r := New(WithNoStdlib())
	r.Eval("(setq k 1)")
	if err := r.Persist("k"); !errors.Is(err, ErrNoStore) {
		t.Errorf("expected ErrNoStore, got %v", err)
	}
	if _, err := r.Restore(); !errors.Is(err, ErrNoStore) {
		t.Errorf("expected ErrNoStore, got %v", err)
	}
	if _, err := r.History("k", 0); !errors.Is(err, ErrNoStore) {
		t.Errorf("expected ErrNoStore, got %v", err)
	}
}

func TestSQLiteStoreOpenFailure(t *testing.T) {
	r := New(WithNoStdlib(), WithSQLiteStore(filepath.Join(t.TempDir(), "no", "such", "dir", "x.db")))
	if r.Err() == nil {
		t.Errorf("expected open error to be reported")
	}
}
