package eval

import (
	"math"
)

// getBuiltin returns the builtin function for the given name, or nil if not found.
func getBuiltin(name string) BuiltinFunc {
	switch name {
	case "plus":
		return arithmetic(name,
			func(a, b int64) (int64, error) { return a + b, nil },
			func(a, b float64) (float64, error) { return a + b, nil })
	case "minus":
		return arithmetic(name,
			func(a, b int64) (int64, error) { return a - b, nil },
			func(a, b float64) (float64, error) { return a - b, nil })
	case "times":
		return arithmetic(name,
			func(a, b int64) (int64, error) { return a * b, nil },
			func(a, b float64) (float64, error) { return a * b, nil })
	case "divide":
		return arithmetic(name,
			func(a, b int64) (int64, error) {
				if b == 0 {
					return 0, runtimeErrorf(KindDivisionByZero, "division by zero")
				}
				return a / b, nil
			},
			func(a, b float64) (float64, error) {
				if b == 0 {
					return 0, runtimeErrorf(KindDivisionByZero, "division by zero")
				}
				return a / b, nil
			})
	case "modulo":
		return arithmetic(name,
			func(a, b int64) (int64, error) {
				if b == 0 {
					return 0, runtimeErrorf(KindDivisionByZero, "modulo by zero")
				}
				return a % b, nil
			},
			func(a, b float64) (float64, error) {
				if b == 0 {
					return 0, runtimeErrorf(KindDivisionByZero, "modulo by zero")
				}
				return math.Mod(a, b), nil
			})
	case "abs":
		return builtinAbs
	case "sqrt":
		return builtinSqrt
	case "head":
		return builtinHead
	case "tail":
		return builtinTail
	case "cons":
		return builtinCons
	case "equal":
		return builtinEqual
	case "nonequal":
		return builtinNonequal
	case "less":
		return comparison(name, func(c int) bool { return c < 0 })
	case "lesseq":
		return comparison(name, func(c int) bool { return c <= 0 })
	case "greater":
		return comparison(name, func(c int) bool { return c > 0 })
	case "greatereq":
		return comparison(name, func(c int) bool { return c >= 0 })
	case "isint":
		return predicate(name, func(v Value) bool { _, ok := v.(Integer); return ok })
	case "isreal":
		return predicate(name, func(v Value) bool { _, ok := v.(Real); return ok })
	case "isbool":
		return predicate(name, func(v Value) bool { _, ok := v.(Bool); return ok })
	case "isnull":
		return predicate(name, func(v Value) bool { _, ok := v.(Null); return ok })
	case "isatom":
		return predicate(name, func(v Value) bool { _, ok := v.(Atom); return ok })
	case "islist":
		return predicate(name, func(v Value) bool { _, ok := v.(List); return ok })
	case "and":
		return logical(name, func(a, b bool) bool { return a && b })
	case "or":
		return logical(name, func(a, b bool) bool { return a || b })
	case "xor":
		return logical(name, func(a, b bool) bool { return a != b })
	case "not":
		return builtinNot
	case "eval":
		return builtinEval
	}
	return nil
}

func checkArity(name string, args []Value, n int) error {
	if len(args) != n {
		if n == 1 {
			return runtimeErrorf(KindArity, "%s expects 1 argument, got %d", name, len(args))
		}
		return runtimeErrorf(KindArity, "%s expects %d arguments, got %d", name, n, len(args))
	}
	return nil
}

func toFloat(v Value) (float64, bool) {
	switch v := v.(type) {
	case Integer:
		return float64(v), true
	case Real:
		return float64(v), true
	}
	return 0, false
}

// arithmetic builds a binary numeric builtin. Two integers stay integer;
// a real operand promotes both.
func arithmetic(name string, ints func(a, b int64) (int64, error), reals func(a, b float64) (float64, error)) BuiltinFunc {
	return func(e *Evaluator, args []Value) (Value, error) {
		if err := checkArity(name, args, 2); err != nil {
			return nil, err
		}
		if a, ok := args[0].(Integer); ok {
			if b, ok := args[1].(Integer); ok {
				v, err := ints(int64(a), int64(b))
				if err != nil {
					return nil, err
				}
				return Integer(v), nil
			}
		}
		a, okA := toFloat(args[0])
		b, okB := toFloat(args[1])
		if !okA || !okB {
			return nil, runtimeErrorf(KindType, "%s requires numeric arguments, got %s and %s",
				name, TypeName(args[0]), TypeName(args[1]))
		}
		v, err := reals(a, b)
		if err != nil {
			return nil, err
		}
		return Real(v), nil
	}
}

func builtinAbs(e *Evaluator, args []Value) (Value, error) {
	if err := checkArity("abs", args, 1); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case Integer:
		if v < 0 {
			return -v, nil
		}
		return v, nil
	case Real:
		return Real(math.Abs(float64(v))), nil
	}
	return nil, runtimeErrorf(KindType, "abs requires a numeric argument, got %s", TypeName(args[0]))
}

func builtinSqrt(e *Evaluator, args []Value) (Value, error) {
	if err := checkArity("sqrt", args, 1); err != nil {
		return nil, err
	}
	f, ok := toFloat(args[0])
	if !ok {
		return nil, runtimeErrorf(KindType, "sqrt requires a numeric argument, got %s", TypeName(args[0]))
	}
	return Real(math.Sqrt(f)), nil
}

// listArg accepts a list or null, which stands for the empty list.
func listArg(name string, v Value) (List, error) {
	switch v := v.(type) {
	case List:
		return v, nil
	case Null:
		return nil, nil
	}
	return nil, runtimeErrorf(KindType, "%s requires a list argument, got %s", name, TypeName(v))
}

func builtinHead(e *Evaluator, args []Value) (Value, error) {
	if err := checkArity("head", args, 1); err != nil {
		return nil, err
	}
	l, err := listArg("head", args[0])
	if err != nil {
		return nil, err
	}
	if len(l) == 0 {
		return nil, runtimeErrorf(KindEmptyList, "head called on empty list")
	}
	return l[0], nil
}

func builtinTail(e *Evaluator, args []Value) (Value, error) {
	if err := checkArity("tail", args, 1); err != nil {
		return nil, err
	}
	l, err := listArg("tail", args[0])
	if err != nil {
		return nil, err
	}
	if len(l) == 0 {
		return nil, runtimeErrorf(KindEmptyList, "tail called on empty list")
	}
	rest := make(List, len(l)-1)
	copy(rest, l[1:])
	return rest, nil
}

func builtinCons(e *Evaluator, args []Value) (Value, error) {
	if err := checkArity("cons", args, 2); err != nil {
		return nil, err
	}
	l, err := listArg("cons", args[1])
	if err != nil {
		return nil, err
	}
	out := make(List, 0, len(l)+1)
	out = append(out, args[0])
	return append(out, l...), nil
}

func builtinEqual(e *Evaluator, args []Value) (Value, error) {
	if err := checkArity("equal", args, 2); err != nil {
		return nil, err
	}
	return Bool(Equal(args[0], args[1])), nil
}

func builtinNonequal(e *Evaluator, args []Value) (Value, error) {
	if err := checkArity("nonequal", args, 2); err != nil {
		return nil, err
	}
	return Bool(!Equal(args[0], args[1])), nil
}

func comparison(name string, accept func(int) bool) BuiltinFunc {
	return func(e *Evaluator, args []Value) (Value, error) {
		if err := checkArity(name, args, 2); err != nil {
			return nil, err
		}
		c, err := compare(name, args[0], args[1])
		if err != nil {
			return nil, err
		}
		return Bool(accept(c)), nil
	}
}

func compare(name string, a, b Value) (int, error) {
	if x, ok := a.(Integer); ok {
		if y, ok := b.(Integer); ok {
			switch {
			case x < y:
				return -1, nil
			case x > y:
				return 1, nil
			}
			return 0, nil
		}
	}
	x, okA := toFloat(a)
	y, okB := toFloat(b)
	if !okA || !okB {
		return 0, runtimeErrorf(KindType, "%s requires numeric arguments, got %s and %s", name, TypeName(a), TypeName(b))
	}
	switch {
	case x < y:
		return -1, nil
	case x > y:
		return 1, nil
	}
	return 0, nil
}

func predicate(name string, test func(Value) bool) BuiltinFunc {
	return func(e *Evaluator, args []Value) (Value, error) {
		if err := checkArity(name, args, 1); err != nil {
			return nil, err
		}
		return Bool(test(args[0])), nil
	}
}

func boolArg(name string, v Value) (bool, error) {
	b, ok := v.(Bool)
	if !ok {
		return false, runtimeErrorf(KindType, "%s requires bool arguments, got %s", name, TypeName(v))
	}
	return bool(b), nil
}

func logical(name string, op func(a, b bool) bool) BuiltinFunc {
	return func(e *Evaluator, args []Value) (Value, error) {
		if err := checkArity(name, args, 2); err != nil {
			return nil, err
		}
		a, err := boolArg(name, args[0])
		if err != nil {
			return nil, err
		}
		b, err := boolArg(name, args[1])
		if err != nil {
			return nil, err
		}
		return Bool(op(a, b)), nil
	}
}

func builtinNot(e *Evaluator, args []Value) (Value, error) {
	if err := checkArity("not", args, 1); err != nil {
		return nil, err
	}
	a, err := boolArg("not", args[0])
	if err != nil {
		return nil, err
	}
	return Bool(!a), nil
}
