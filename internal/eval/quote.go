package eval

import (
	"nickandperla.net/flang/internal/expr"
	"nickandperla.net/flang/internal/sem"
	"nickandperla.net/flang/internal/token"
)

// FromNode converts quoted syntax into data. Keywords become atoms of
// their name and nested quotes become (quote x) lists.
func FromNode(n expr.Node) Value {
	switch n := n.(type) {
	case expr.List:
		out := make(List, len(n.Elems))
		for i, e := range n.Elems {
			out[i] = FromNode(e)
		}
		return out
	case expr.Quote:
		return List{Atom(token.Quote.String()), FromNode(n.Datum)}
	case expr.Ident:
		return Atom(n.Name)
	case expr.SpecialForm:
		return Atom(n.Form.String())
	case expr.Integer:
		return Integer(n.Value)
	case expr.Real:
		return Real(n.Value)
	case expr.Bool:
		return Bool(n.Value)
	}
	return Null{}
}

// ToNode converts data back into syntax, the inverse of FromNode.
// Functions have no syntax and are rejected.
func ToNode(v Value) (expr.Node, error) {
	switch v := v.(type) {
	case List:
		elems := make([]expr.Node, len(v))
		for i, e := range v {
			n, err := ToNode(e)
			if err != nil {
				return nil, err
			}
			elems[i] = n
		}
		return expr.List{Elems: elems}, nil
	case Atom:
		name := string(v)
		if form, ok := token.LookupForm(name); ok {
			return expr.SpecialForm{Form: form}, nil
		}
		switch name {
		case "true":
			return expr.Bool{Value: true}, nil
		case "false":
			return expr.Bool{Value: false}, nil
		case "null":
			return expr.Null{}, nil
		}
		return expr.Ident{Name: name}, nil
	case Integer:
		return expr.Integer{Value: int64(v)}, nil
	case Real:
		return expr.Real{Value: float64(v)}, nil
	case Bool:
		return expr.Bool{Value: bool(v)}, nil
	case Null:
		return expr.Null{}, nil
	}
	return nil, runtimeErrorf(KindEval, "cannot convert %s to code", TypeName(v))
}

// builtinEval evaluates a list as code in a fresh child of the global
// frame. Code run this way sees only global bindings.
func builtinEval(e *Evaluator, args []Value) (Value, error) {
	if err := checkArity("eval", args, 1); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case Atom:
		val, ok := e.global.Get(string(v))
		if !ok {
			return nil, runtimeErrorf(KindUnbound, "unbound identifier %s", string(v))
		}
		return val, nil
	case List:
		return e.EvalData(v)
	}
	return args[0], nil
}

// EvalData runs a quoted form as a single top-level form.
func (e *Evaluator) EvalData(l List) (Value, error) {
	node, err := ToNode(l)
	if err != nil {
		return nil, err
	}
	scope := sem.NewGlobalScope()
	for _, name := range e.global.Names() {
		scope.TryAdd(name)
	}
	elem, err := sem.NewAnalyzerWithScope(scope).AnalyzeForm(node)
	if err != nil {
		return nil, &RuntimeError{Kind: KindEval, Msg: "eval: " + err.Error(), Err: err}
	}
	return e.top(elem, NewEnvironment(e.global))
}
