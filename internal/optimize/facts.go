package optimize

import "nickandperla.net/flang/internal/sem"

type function struct {
	params []string
	body   sem.Expr
}

type purity int

const (
	unknown purity = iota
	computing
	pure
	impure
)

// facts is the whole-program usage analysis one pass works from.
type facts struct {
	// identifier uses, including identifiers inside quoted data
	uses map[string]int
	// binding sites: setq targets, func names, parameters, prog variables
	binds map[string]int
	// identifiers appearing inside quoted data only
	quoted map[string]int
	// top-level functions eligible for inlining
	funcs map[string]*function
	// builtin names rebound outside of the program being optimized
	shadowedOutside map[string]bool

	purity map[string]purity
}

func collect(prog []sem.Elem, shadowedOutside map[string]bool) *facts {
	f := &facts{
		uses:            make(map[string]int),
		binds:           make(map[string]int),
		quoted:          make(map[string]int),
		funcs:           make(map[string]*function),
		shadowedOutside: shadowedOutside,
		purity:          make(map[string]purity),
	}
	for _, e := range prog {
		f.count(e)
		switch n := e.(type) {
		case *sem.Fun:
			f.funcs[n.Name.Name] = &function{params: names(n.Params), body: n.Body}
		case *sem.Setq:
			if l, ok := n.Value.(*sem.Lambda); ok {
				f.funcs[n.Name.Name] = &function{params: names(l.Params), body: l.Body}
			}
		}
	}
	for name := range f.funcs {
		if f.rebound(name, 1) {
			delete(f.funcs, name)
		}
	}
	return f
}

func (f *facts) count(e sem.Elem) {
	sem.Inspect(e, func(e sem.Elem) bool {
		switch n := e.(type) {
		case *sem.Setq:
			f.binds[n.Name.Name]++
		case *sem.Fun:
			f.binds[n.Name.Name]++
			f.bindAll(n.Params)
		case *sem.Lambda:
			f.bindAll(n.Params)
		case *sem.Prog:
			f.bindAll(n.Vars)
		case *sem.Ident:
			f.uses[n.Name]++
		case *sem.Quote:
			sem.QuotedIdents(n.Datum, func(name string) {
				f.uses[name]++
				f.quoted[name]++
			})
		}
		return true
	})
}

func (f *facts) bindAll(ids []*sem.Ident) {
	for _, id := range ids {
		f.binds[id.Name]++
	}
}

// rebound reports whether name has more than expected binding sites, or
// may be rebound by eval of quoted code.
func (f *facts) rebound(name string, expected int) bool {
	if f.binds[name] > expected || f.shadowedOutside[name] {
		return true
	}
	return f.uses["eval"] > 0 && f.quoted[name] > 0
}

// builtin reports whether name still refers to the primitive of that name.
func (f *facts) builtin(name string) bool {
	return sem.IsBuiltin(name) && !f.rebound(name, 0)
}

// pure reports whether evaluating e can have no effect beyond its value.
func (f *facts) pure(e sem.Elem) bool {
	switch n := e.(type) {
	case *sem.Integer, *sem.Real, *sem.Bool, *sem.Null, *sem.Quote, *sem.Ident:
		return true
	case *sem.Lambda:
		return f.pure(n.Body)
	case *sem.Prog:
		for _, b := range n.Body {
			if !f.pure(b) {
				return false
			}
		}
		return f.pure(n.Last)
	case *sem.Cond:
		return f.pure(n.Cond) && f.pure(n.Then) && (n.Else == nil || f.pure(n.Else))
	case *sem.FunApp:
		if !f.pureCallee(n.Callee) {
			return false
		}
		for _, a := range n.Args {
			if !f.pure(a) {
				return false
			}
		}
		return true
	}
	return false
}

// totalBuiltins maps the builtins that cannot fail to their arity.
var totalBuiltins = map[string]int{
	"equal": 2, "nonequal": 2,
	"isint": 1, "isreal": 1, "isbool": 1, "isnull": 1, "isatom": 1, "islist": 1,
}

// total reports whether evaluating e cannot raise a runtime error. A
// declaration may only be dropped together with a value that is total.
func (f *facts) total(e sem.Elem) bool {
	switch n := e.(type) {
	case *sem.Integer, *sem.Real, *sem.Bool, *sem.Null, *sem.Quote, *sem.Ident, *sem.Lambda:
		return true
	case *sem.FunApp:
		id, ok := n.Callee.(*sem.Ident)
		if !ok || !f.builtin(id.Name) {
			return false
		}
		if arity, ok := totalBuiltins[id.Name]; !ok || arity != len(n.Args) {
			return false
		}
		for _, a := range n.Args {
			if !f.total(a) {
				return false
			}
		}
		return true
	}
	return false
}

func (f *facts) pureCallee(c sem.Expr) bool {
	switch c := c.(type) {
	case *sem.Ident:
		if sem.IsBuiltin(c.Name) {
			return c.Name != "eval" && f.builtin(c.Name)
		}
		return f.pureFunction(c.Name)
	case *sem.Lambda:
		return f.pure(c.Body)
	}
	return false
}

// pureFunction treats recursive functions as impure.
func (f *facts) pureFunction(name string) bool {
	fn, ok := f.funcs[name]
	if !ok {
		return false
	}
	switch f.purity[name] {
	case computing, impure:
		return false
	case pure:
		return true
	}
	f.purity[name] = computing
	p := f.pure(fn.body)
	if p {
		f.purity[name] = pure
	} else {
		f.purity[name] = impure
	}
	return p
}

func names(ids []*sem.Ident) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Name
	}
	return out
}

// identsIn returns every identifier used in e, quoted data included.
func identsIn(e sem.Elem) map[string]bool {
	out := make(map[string]bool)
	sem.Inspect(e, func(e sem.Elem) bool {
		switch n := e.(type) {
		case *sem.Ident:
			out[n.Name] = true
		case *sem.Quote:
			sem.QuotedIdents(n.Datum, func(name string) { out[name] = true })
		}
		return true
	})
	return out
}

// bindersIn returns every name bound somewhere inside e.
func bindersIn(e sem.Elem) map[string]bool {
	out := make(map[string]bool)
	add := func(ids []*sem.Ident) {
		for _, id := range ids {
			out[id.Name] = true
		}
	}
	sem.Inspect(e, func(e sem.Elem) bool {
		switch n := e.(type) {
		case *sem.Setq:
			out[n.Name.Name] = true
		case *sem.Fun:
			out[n.Name.Name] = true
			add(n.Params)
		case *sem.Lambda:
			add(n.Params)
		case *sem.Prog:
			add(n.Vars)
		}
		return true
	})
	return out
}

func containsLambda(e sem.Elem) bool {
	found := false
	sem.Inspect(e, func(e sem.Elem) bool {
		if _, ok := e.(*sem.Lambda); ok {
			found = true
		}
		return !found
	})
	return found
}
