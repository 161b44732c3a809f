package sem

import "nickandperla.net/flang/internal/expr"

// Children returns the direct sub-nodes of e in evaluation order.
// Declaration identifiers (setq targets, names, parameters, variables)
// and quoted data are not children.
func Children(e Elem) []Elem {
	switch n := e.(type) {
	case *Setq:
		return []Elem{n.Value}
	case *Fun:
		return []Elem{n.Body}
	case *Lambda:
		return []Elem{n.Body}
	case *Prog:
		out := make([]Elem, 0, len(n.Body)+1)
		out = append(out, n.Body...)
		return append(out, n.Last)
	case *Cond:
		if n.Else == nil {
			return []Elem{n.Cond, n.Then}
		}
		return []Elem{n.Cond, n.Then, n.Else}
	case *While:
		return []Elem{n.Cond, n.Body}
	case *Return:
		return []Elem{n.Value}
	case *FunApp:
		out := make([]Elem, 0, len(n.Args)+1)
		out = append(out, n.Callee)
		for _, a := range n.Args {
			out = append(out, a)
		}
		return out
	}
	return nil
}

// Inspect traverses e depth-first, calling fn for every node. Children
// of a node are skipped when fn returns false.
func Inspect(e Elem, fn func(Elem) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, c := range Children(e) {
		Inspect(c, fn)
	}
}

// QuotedIdents calls fn for every identifier inside quoted data.
func QuotedIdents(n expr.Node, fn func(name string)) {
	switch n := n.(type) {
	case expr.Ident:
		fn(n.Name)
	case expr.List:
		for _, e := range n.Elems {
			QuotedIdents(e, fn)
		}
	case expr.Quote:
		QuotedIdents(n.Datum, fn)
	}
}
