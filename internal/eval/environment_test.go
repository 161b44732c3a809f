package eval

import "testing"

func TestEnvironment(t *testing.T) {
	global := NewEnvironment(nil)
	global.Define("x", Integer(1))
	child := NewEnvironment(global)

	if v, ok := child.Get("x"); !ok || v != Integer(1) {
		t.Errorf("expected lookup through parent, got %v", v)
	}
	if !child.Set("x", Integer(2)) {
		t.Fatalf("expected Set to find x in parent")
	}
	if v, _ := global.Get("x"); v != Integer(2) {
		t.Errorf("expected parent binding to change, got %v", v)
	}
	if child.Has("x") {
		t.Errorf("Set must not create a local binding")
	}
	if child.Set("missing", Null{}) {
		t.Errorf("expected Set to fail for unbound name")
	}

	child.Define("x", Integer(3))
	if v, _ := global.Get("x"); v != Integer(2) {
		t.Errorf("Define must shadow, not overwrite, got %v", v)
	}
}

func TestEnvironmentNames(t *testing.T) {
	env := NewEnvironment(nil)
	env.Define("b", Null{})
	env.Define("a", Null{})
	env.Define("b", Integer(1))

	names := env.Names()
	if len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Errorf("expected [b a], got %v", names)
	}
}

func TestWithGlobalKeepsBindings(t *testing.T) {
	env := NewEnvironment(nil)
	env.Define("plus", Integer(0))
	e := New(WithGlobal(env))

	if v, _ := e.Global().Get("plus"); v != Integer(0) {
		t.Errorf("expected existing binding to be kept, got %v", Describe(v))
	}
	if _, ok := e.Global().Get("minus"); !ok {
		t.Errorf("expected missing builtins to be installed")
	}
}
