package sem

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"nickandperla.net/flang/internal/expr"
	"nickandperla.net/flang/internal/token"
)

// ToNode converts a typed node back into raw syntax.
func ToNode(e Elem) expr.Node {
	switch n := e.(type) {
	case *Setq:
		return form(token.Setq, ident(n.Name), ToNode(n.Value))
	case *Fun:
		return form(token.Func, ident(n.Name), paramList(n.Params), ToNode(n.Body))
	case *Lambda:
		return form(token.Lambda, paramList(n.Params), ToNode(n.Body))
	case *Prog:
		elems := []expr.Node{paramList(n.Vars)}
		for _, b := range n.Body {
			elems = append(elems, ToNode(b))
		}
		elems = append(elems, ToNode(n.Last))
		return form(token.Prog, elems...)
	case *Cond:
		if n.Else == nil {
			return form(token.Cond, ToNode(n.Cond), ToNode(n.Then))
		}
		return form(token.Cond, ToNode(n.Cond), ToNode(n.Then), ToNode(n.Else))
	case *While:
		return form(token.While, ToNode(n.Cond), ToNode(n.Body))
	case *Return:
		return form(token.Return, ToNode(n.Value))
	case *Break:
		return form(token.Break)
	case *FunApp:
		elems := []expr.Node{ToNode(n.Callee)}
		for _, a := range n.Args {
			elems = append(elems, ToNode(a))
		}
		return expr.List{Elems: elems, Span: n.Span}
	case *Quote:
		return expr.Quote{Datum: n.Datum, Span: n.Span}
	case *Integer:
		return expr.Integer{Value: n.Value, Span: n.Span}
	case *Real:
		return expr.Real{Value: n.Value, Span: n.Span}
	case *Bool:
		return expr.Bool{Value: n.Value, Span: n.Span}
	case *Null:
		return expr.Null{Span: n.Span}
	case *Ident:
		return ident(n)
	}
	panic("sem: unknown node type")
}

func form(f token.Form, args ...expr.Node) expr.List {
	return expr.List{Elems: append([]expr.Node{expr.SpecialForm{Form: f}}, args...)}
}

func ident(id *Ident) expr.Node {
	return expr.Ident{Name: id.Name, Span: id.Span}
}

func paramList(ids []*Ident) expr.Node {
	elems := make([]expr.Node, len(ids))
	for i, id := range ids {
		elems[i] = ident(id)
	}
	return expr.List{Elems: elems}
}

// Format renders a typed node as source text.
func Format(e Elem) string {
	return ToNode(e).String()
}

// FormatAll renders a program, one top-level form per line.
func FormatAll(elems []Elem) string {
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = Format(e)
	}
	return strings.Join(parts, "\n")
}

// Dump renders a program as a YAML tree for inspection.
func Dump(elems []Elem) ([]byte, error) {
	items := make([]*yaml.Node, len(elems))
	for i, e := range elems {
		items[i] = dumpNode(e)
	}
	return yaml.Marshal(sequence(items))
}

func dumpNode(e Elem) *yaml.Node {
	switch n := e.(type) {
	case *Setq:
		return mapping("setq", "name", scalar(n.Name.Name), "value", dumpNode(n.Value))
	case *Fun:
		return mapping("func", "name", scalar(n.Name.Name), "params", dumpIdents(n.Params), "body", dumpNode(n.Body))
	case *Lambda:
		return mapping("lambda", "params", dumpIdents(n.Params), "body", dumpNode(n.Body))
	case *Prog:
		body := make([]*yaml.Node, len(n.Body))
		for i, b := range n.Body {
			body[i] = dumpNode(b)
		}
		return mapping("prog", "vars", dumpIdents(n.Vars), "body", sequence(body), "last", dumpNode(n.Last))
	case *Cond:
		if n.Else == nil {
			return mapping("cond", "cond", dumpNode(n.Cond), "then", dumpNode(n.Then))
		}
		return mapping("cond", "cond", dumpNode(n.Cond), "then", dumpNode(n.Then), "else", dumpNode(n.Else))
	case *While:
		return mapping("while", "cond", dumpNode(n.Cond), "body", dumpNode(n.Body))
	case *Return:
		return mapping("return", "value", dumpNode(n.Value))
	case *Break:
		return mapping("break")
	case *FunApp:
		args := make([]*yaml.Node, len(n.Args))
		for i, a := range n.Args {
			args[i] = dumpNode(a)
		}
		return mapping("apply", "callee", dumpNode(n.Callee), "args", sequence(args))
	case *Quote:
		return mapping("quote", "datum", scalar(n.Datum.String()))
	case *Integer:
		return mapping("integer", "value", typed("!!int", strconv.FormatInt(n.Value, 10)))
	case *Real:
		return mapping("real", "value", typed("!!float", expr.FormatReal(n.Value)))
	case *Bool:
		return mapping("bool", "value", typed("!!bool", strconv.FormatBool(n.Value)))
	case *Null:
		return mapping("null")
	case *Ident:
		return mapping("ident", "name", scalar(n.Name))
	}
	panic("sem: unknown node type")
}

func dumpIdents(ids []*Ident) *yaml.Node {
	items := make([]*yaml.Node, len(ids))
	for i, id := range ids {
		items[i] = scalar(id.Name)
	}
	n := sequence(items)
	n.Style = yaml.FlowStyle
	return n
}

// mapping builds {kind: k, key1: v1, ...} from alternating key/value pairs.
func mapping(kind string, kv ...any) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode}
	n.Content = append(n.Content, scalar("kind"), scalar(kind))
	for i := 0; i+1 < len(kv); i += 2 {
		n.Content = append(n.Content, scalar(kv[i].(string)), kv[i+1].(*yaml.Node))
	}
	return n
}

func sequence(items []*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Content: items}
}

func scalar(v string) *yaml.Node {
	return typed("!!str", v)
}

func typed(tag, v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v}
}
