package optimize

import "nickandperla.net/flang/internal/sem"

// removeUnused drops dead declarations at top level (when enabled) and
// inside every prog.
func (o *Optimizer) removeUnused(prog []sem.Elem, f *facts) []sem.Elem {
	out := make([]sem.Elem, 0, len(prog))
	for _, e := range prog {
		if o.pruneTopLevel && f.deadDecl(e, nil) {
			o.stats.Removed++
			continue
		}
		out = append(out, o.prune(e, f))
	}
	return out
}

// deadDecl reports whether e declares a name nothing uses. Inside a prog
// a setq only counts when it targets one of the prog's own variables.
func (f *facts) deadDecl(e sem.Elem, local map[string]bool) bool {
	switch n := e.(type) {
	case *sem.Fun:
		return f.uses[n.Name.Name] == 0
	case *sem.Setq:
		if local != nil && !local[n.Name.Name] {
			return false
		}
		return f.uses[n.Name.Name] == 0 && f.pure(n.Value) && f.total(n.Value)
	}
	return false
}

func (o *Optimizer) prune(e sem.Elem, f *facts) sem.Elem {
	p, ok := e.(*sem.Prog)
	if !ok {
		return rebuild(e, func(c sem.Elem) sem.Elem { return o.prune(c, f) })
	}

	local := make(map[string]bool, len(p.Vars))
	for _, v := range p.Vars {
		local[v.Name] = true
	}
	body := make([]sem.Elem, 0, len(p.Body))
	for _, b := range p.Body {
		if f.deadDecl(b, local) {
			o.stats.Removed++
			continue
		}
		body = append(body, o.prune(b, f))
	}
	last := o.prune(p.Last, f).(sem.Expr)

	assigned := make(map[string]bool)
	for _, b := range append(append([]sem.Elem{}, body...), last) {
		sem.Inspect(b, func(e sem.Elem) bool {
			if s, ok := e.(*sem.Setq); ok {
				assigned[s.Name.Name] = true
			}
			return true
		})
	}
	vars := make([]*sem.Ident, 0, len(p.Vars))
	for _, v := range p.Vars {
		if f.uses[v.Name] > 0 || assigned[v.Name] {
			vars = append(vars, v)
		}
	}
	return &sem.Prog{Vars: vars, Body: body, Last: last, Span: p.Span}
}

type inliner struct {
	o *Optimizer
	f *facts
	// names bound by the frames enclosing the node being rewritten
	bound map[string]int
}

func (o *Optimizer) inline(prog []sem.Elem, f *facts) []sem.Elem {
	in := &inliner{o: o, f: f, bound: make(map[string]int)}
	out := make([]sem.Elem, len(prog))
	for i, e := range prog {
		out[i] = in.rewrite(e)
	}
	return out
}

func (in *inliner) push(names []string) {
	for _, n := range names {
		in.bound[n]++
	}
}

func (in *inliner) pop(names []string) {
	for _, n := range names {
		in.bound[n]--
	}
}

func (in *inliner) rewrite(e sem.Elem) sem.Elem {
	var local []string
	switch n := e.(type) {
	case *sem.Fun:
		local = names(n.Params)
	case *sem.Lambda:
		local = names(n.Params)
	case *sem.Prog:
		local = names(n.Vars)
		for _, b := range n.Body {
			switch s := b.(type) {
			case *sem.Fun:
				local = append(local, s.Name.Name)
			case *sem.Setq:
				local = append(local, s.Name.Name)
			}
		}
	}
	in.push(local)
	out := rebuild(e, in.rewrite)
	in.pop(local)

	if app, ok := out.(*sem.FunApp); ok {
		if r, ok := in.try(app); ok {
			in.o.stats.Inlined++
			return r
		}
	}
	return out
}

// try beta-reduces app when that is safe.
func (in *inliner) try(app *sem.FunApp) (sem.Expr, bool) {
	var (
		params []string
		body   sem.Expr
		named  bool
	)
	switch c := app.Callee.(type) {
	case *sem.Ident:
		if in.bound[c.Name] > 0 {
			return nil, false
		}
		fn, ok := in.f.funcs[c.Name]
		if !ok || identsIn(fn.body)[c.Name] {
			return nil, false
		}
		params, body, named = fn.params, fn.body, true
	case *sem.Lambda:
		params, body = names(c.Params), c.Body
	default:
		return nil, false
	}
	if len(params) != len(app.Args) || !in.f.pure(body) {
		return nil, false
	}

	literalOnly := containsLambda(body)
	for _, a := range app.Args {
		switch a.(type) {
		case *sem.Integer, *sem.Real, *sem.Bool, *sem.Null, *sem.Quote:
		case *sem.Ident, *sem.Lambda:
			if literalOnly {
				return nil, false
			}
		default:
			return nil, false
		}
	}

	inner := bindersIn(body)
	for _, a := range app.Args {
		for name := range identsIn(a) {
			if inner[name] {
				return nil, false
			}
		}
	}

	subst := make(map[string]sem.Expr, len(params))
	for i, p := range params {
		subst[p] = app.Args[i]
	}

	// the body of a named function resolves its free names where it was
	// defined; they must mean the same thing at the call site
	if named {
		for name := range identsIn(body) {
			if _, isParam := subst[name]; !isParam && in.bound[name] > 0 {
				return nil, false
			}
		}
	}

	return substitute(body, subst).(sem.Expr), true
}

// substitute replaces parameter references in e, stopping at binders that
// rebind them.
func substitute(e sem.Elem, subst map[string]sem.Expr) sem.Elem {
	if len(subst) == 0 {
		return e
	}
	switch n := e.(type) {
	case *sem.Ident:
		if r, ok := subst[n.Name]; ok {
			return r
		}
		return n
	case *sem.Quote:
		return n
	case *sem.Lambda:
		inner := without(subst, n.Params)
		return &sem.Lambda{Params: n.Params, Body: substitute(n.Body, inner).(sem.Expr), Span: n.Span}
	case *sem.Prog:
		inner := without(subst, n.Vars)
		return rebuild(n, func(c sem.Elem) sem.Elem { return substitute(c, inner) })
	}
	return rebuild(e, func(c sem.Elem) sem.Elem { return substitute(c, subst) })
}

func without(subst map[string]sem.Expr, ids []*sem.Ident) map[string]sem.Expr {
	shadowed := false
	for _, id := range ids {
		if _, ok := subst[id.Name]; ok {
			shadowed = true
			break
		}
	}
	if !shadowed {
		return subst
	}
	out := make(map[string]sem.Expr, len(subst))
	for k, v := range subst {
		out[k] = v
	}
	for _, id := range ids {
		delete(out, id.Name)
	}
	return out
}

// fold replaces arithmetic on two literals of the same numeric type by
// its result. Division by zero is left for the evaluator to report.
func (o *Optimizer) fold(e sem.Elem, f *facts) sem.Elem {
	e = rebuild(e, func(c sem.Elem) sem.Elem { return o.fold(c, f) })
	app, ok := e.(*sem.FunApp)
	if !ok || len(app.Args) != 2 {
		return e
	}
	op, ok := app.Callee.(*sem.Ident)
	if !ok || !f.builtin(op.Name) {
		return e
	}
	switch a := app.Args[0].(type) {
	case *sem.Integer:
		b, ok := app.Args[1].(*sem.Integer)
		if !ok {
			return e
		}
		if v, ok := foldInt(op.Name, a.Value, b.Value); ok {
			o.stats.Folded++
			return &sem.Integer{Value: v, Span: app.Span}
		}
	case *sem.Real:
		b, ok := app.Args[1].(*sem.Real)
		if !ok {
			return e
		}
		if v, ok := foldReal(op.Name, a.Value, b.Value); ok {
			o.stats.Folded++
			return &sem.Real{Value: v, Span: app.Span}
		}
	}
	return e
}

func foldInt(op string, a, b int64) (int64, bool) {
	switch op {
	case "plus":
		return a + b, true
	case "minus":
		return a - b, true
	case "times":
		return a * b, true
	case "divide":
		if b != 0 {
			return a / b, true
		}
	}
	return 0, false
}

func foldReal(op string, a, b float64) (float64, bool) {
	switch op {
	case "plus":
		return a + b, true
	case "minus":
		return a - b, true
	case "times":
		return a * b, true
	case "divide":
		if b != 0 {
			return a / b, true
		}
	}
	return 0, false
}
