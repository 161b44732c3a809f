package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	prog := writeFile(t, dir, "prog.f", `
(func fact (n) (cond (lesseq n 1) 1 (times n (fact (minus n 1)))))
(fact 5)
(length '(a b c))
`)

	for _, args := range [][]string{
		{"run", prog},
		{prog},
		{"run", "--no-optimize", prog},
	} {
		code, out, errOut := runCLI(t, "", args...)
		if code != 0 {
			t.Fatalf("%v: exit %d: %s", args, code, errOut)
		}
		if out != "120\n3\n" {
			t.Errorf("%v: expected '120\\n3\\n', got '%s'", args, out)
		}
	}
}

func TestRunInclude(t *testing.T) {
	dir := t.TempDir()
	lib := writeFile(t, dir, "lib.f", "(func double (x) (plus x x))\n")
	prog := writeFile(t, dir, "prog.f", "(double 21)\n")

	code, out, errOut := runCLI(t, "", "run", "--include", lib, prog)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if strings.TrimSpace(out) != "42" {
		t.Errorf("expected '42', got '%s'", out)
	}
}

func TestDumpAST(t *testing.T) {
	dir := t.TempDir()
	prog := writeFile(t, dir, "prog.f", "(func sq (x) (times x x))\n(sq 3)\n")

	code, out, errOut := runCLI(t, "", "run", "--dump-ast", "--no-stdlib", prog)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if strings.TrimSpace(out) != "9" {
		t.Errorf("expected optimized program '9', got '%s'", out)
	}

	code, out, _ = runCLI(t, "", "run", "--dump-ast", "--no-optimize", "--no-stdlib", prog)
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(out, "(func sq (x) (times x x))") || !strings.Contains(out, "(sq 3)") {
		t.Errorf("expected unoptimized program, got '%s'", out)
	}

	code, out, _ = runCLI(t, "", "run", "--dump-yaml", "--no-optimize", "--no-stdlib", prog)
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(out, "kind: func") {
		t.Errorf("expected YAML tree, got '%s'", out)
	}
}

func TestRunErrorRendering(t *testing.T) {
	dir := t.TempDir()
	prog := writeFile(t, dir, "bad.f", "(setq a 1)\n(plus a missing)\n")

	code, _, errOut := runCLI(t, "", "run", prog)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(errOut, "identifier 'missing' is not declared") {
		t.Errorf("expected semantic error, got '%s'", errOut)
	}
	if !strings.Contains(errOut, "    (plus a missing)\n") {
		t.Errorf("expected offending line, got '%s'", errOut)
	}
	if !strings.Contains(errOut, "            ^^^^^^^\n") {
		t.Errorf("expected caret under 'missing', got '%s'", errOut)
	}
}

func TestUsageErrors(t *testing.T) {
	if code, _, _ := runCLI(t, "", "--bogus"); code != 2 {
		t.Errorf("expected exit 2 for unknown flag, got %d", code)
	}
	if code, _, _ := runCLI(t, "", "run"); code != 2 {
		t.Errorf("expected exit 2 without FILE, got %d", code)
	}
	if code, _, _ := runCLI(t, "", "run", "--persist-mode", "sometimes", "x.f"); code != 2 {
		t.Errorf("expected exit 2 for bad persist mode, got %d", code)
	}
	if code, out, _ := runCLI(t, "", "help"); code != 0 || !strings.Contains(out, "usage:") {
		t.Errorf("expected usage, got %d '%s'", code, out)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "flang.yaml", "stdlib: false\n")
	prog := writeFile(t, dir, "prog.f", "(length '(1))\n")

	code, _, errOut := runCLI(t, "", "run", "--config", cfg, prog)
	if code != 1 || !strings.Contains(errOut, "'length' is not declared") {
		t.Errorf("expected the config to disable the prelude, got %d '%s'", code, errOut)
	}

	// flags override the file
	code, out, errOut := runCLI(t, "", "run", "--config", cfg, "--no-stdlib=false", prog)
	if code != 0 || strings.TrimSpace(out) != "1" {
		t.Errorf("expected flag to re-enable the prelude, got %d '%s' '%s'", code, out, errOut)
	}
}

func TestREPLBasic(t *testing.T) {
	input := strings.Join([]string{
		"(func sq (x)",
		"  (times x x))",
		"(sq 12)",
		"(plus 1 nothing)",
		":bogus",
		"(setq k (sq 2))",
		":quit",
		"(sq 3)",
	}, "\n") + "\n"

	code, out, errOut := runCLI(t, input, "repl")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	for _, want := range []string{
		"... ",
		"144\n",
		"identifier 'nothing' is not declared",
		"unknown command :bogus",
		"4\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "9\n") {
		t.Errorf("input after :quit must not run:\n%s", out)
	}
}

func TestREPLPersistence(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "flang.db")

	input := "(setq k 1)\n:persist k\n(setq k 2)\n:persist k\n:history k\n"
	code, out, errOut := runCLI(t, input, "repl", "--db", db)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "v2 ") || !strings.Contains(out, "(setq k 2)") || !strings.Contains(out, "v1 ") {
		t.Errorf("expected two versions in history, got:\n%s", out)
	}

	code, out, errOut = runCLI(t, ":restore\nk\n", "repl", "--db", db)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "restored 1 definitions") || !strings.Contains(out, "2\n") {
		t.Errorf("expected k restored to 2, got:\n%s", out)
	}
}

func TestREPLLoadFiles(t *testing.T) {
	dir := t.TempDir()
	lib := writeFile(t, dir, "lib.f", "(func triple (x) (times 3 x))\n")

	code, out, errOut := runCLI(t, "(triple 5)\n:load "+lib+"\n", "repl", "--files", lib)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "15\n") {
		t.Errorf("expected '15', got:\n%s", out)
	}
	// loading again redeclares triple
	if !strings.Contains(out, "already declared") {
		t.Errorf("expected redeclaration error from :load, got:\n%s", out)
	}
}
