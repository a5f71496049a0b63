package component

import (
	"fmt"
	"strconv"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/papapumpkin/scenery/internal/scene"
	"github.com/papapumpkin/scenery/internal/schema"
)

// Script runs Lisp snippets against its node. Every run gets a fresh
// sandboxed zygomys environment with these builtins:
//
//	(nodeid)                       id of the owning node
//	(getprop "name")               property of the owning node
//	(setprop "name" value)         set a property of the owning node
//	(hasnode "id")                 whether a node id exists in the graph
//	(getnodeprop "id" "name")      property of another node
//	(setnodeprop "id" "name" v)    set a property of another node
//
// The variable dt holds the tick delta (zero in onStart).
type Script struct {
	OnStartSource  string
	OnUpdateSource string

	// LastError is the most recent evaluation failure, if any.
	LastError string

	types *scene.Types
}

// NewScript returns an empty script bound to a node type table.
func NewScript(types *scene.Types) *Script {
	if types == nil {
		types = scene.DefaultTypes()
	}
	return &Script{types: types}
}

func setSource(dst *string, v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("script source must be a string, got %T", v)
	}
	*dst = s
	return nil
}

// ScriptSchema describes Script.
var ScriptSchema = schema.Extend(nil, TypeScript,
	schema.Prop("onStart", schema.TypeString, "",
		func(s *Script) any { return s.OnStartSource },
		func(s *Script, v any) error { return setSource(&s.OnStartSource, v) }),
	schema.Prop("onUpdate", schema.TypeString, "",
		func(s *Script) any { return s.OnUpdateSource },
		func(s *Script, v any) error { return setSource(&s.OnUpdateSource, v) }),
)

// OnStart evaluates the onStart source.
func (s *Script) OnStart(ctx *scene.Context) {
	if err := s.run(ctx, s.OnStartSource, 0); err != nil {
		s.LastError = err.Error()
	}
}

// OnUpdate evaluates the onUpdate source.
func (s *Script) OnUpdate(ctx *scene.Context, dt float64) error {
	if err := s.run(ctx, s.OnUpdateSource, dt); err != nil {
		s.LastError = err.Error()
		return err
	}
	return nil
}

func (s *Script) run(ctx *scene.Context, source string, dt float64) (err error) {
	if strings.TrimSpace(source) == "" {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("script: panic during evaluation: %v", r)
		}
	}()

	env := zygo.NewZlispSandbox()
	defer env.Stop()
	s.install(env, ctx)

	program := "(def dt " + strconv.FormatFloat(dt, 'f', -1, 64) + ")\n" + source
	if err := env.LoadString(program); err != nil {
		return fmt.Errorf("script: load: %w", err)
	}
	if _, err := env.Run(); err != nil {
		return fmt.Errorf("script: run: %w", err)
	}
	return nil
}

func (s *Script) install(env *zygo.Zlisp, ctx *scene.Context) {
	env.AddFunction("nodeid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return &zygo.SexpStr{S: ctx.Node.AsNode().ID}, nil
	})
	env.AddFunction("getprop", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("getprop takes a property name")
		}
		prop, err := sexpString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("getprop: %w", err)
		}
		return toSexp(env, s.get(ctx.Node, prop)), nil
	})
	env.AddFunction("setprop", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("setprop takes a property name and a value")
		}
		prop, err := sexpString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("setprop: %w", err)
		}
		if err := s.set(ctx.Node, prop, fromSexp(args[1])); err != nil {
			return zygo.SexpNull, fmt.Errorf("setprop: %w", err)
		}
		return args[1], nil
	})
	env.AddFunction("hasnode", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("hasnode takes a node id")
		}
		id, err := sexpString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("hasnode: %w", err)
		}
		return &zygo.SexpBool{Val: ctx.Graph.Has(id)}, nil
	})
	env.AddFunction("getnodeprop", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("getnodeprop takes a node id and a property name")
		}
		n, prop, err := s.target(ctx, args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("getnodeprop: %w", err)
		}
		return toSexp(env, s.get(n, prop)), nil
	})
	env.AddFunction("setnodeprop", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("setnodeprop takes a node id, a property name and a value")
		}
		n, prop, err := s.target(ctx, args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("setnodeprop: %w", err)
		}
		if err := s.set(n, prop, fromSexp(args[2])); err != nil {
			return zygo.SexpNull, fmt.Errorf("setnodeprop: %w", err)
		}
		return args[2], nil
	})
}

func (s *Script) target(ctx *scene.Context, args []zygo.Sexp) (scene.Node, string, error) {
	id, err := sexpString(args[0])
	if err != nil {
		return nil, "", err
	}
	prop, err := sexpString(args[1])
	if err != nil {
		return nil, "", err
	}
	n := ctx.Graph.FindByID(id)
	if n == nil {
		return nil, "", fmt.Errorf("no node %q", id)
	}
	return n, prop, nil
}

func (s *Script) get(n scene.Node, prop string) any {
	if p, ok := s.types.SchemaOf(n).Lookup(prop); ok {
		return p.Get(n)
	}
	v, _ := n.AsNode().Property(prop)
	return v
}

func (s *Script) set(n scene.Node, prop string, v any) error {
	if p, ok := s.types.SchemaOf(n).Lookup(prop); ok {
		return p.Set(n, v)
	}
	n.AsNode().SetProperty(prop, v)
	return nil
}

func sexpString(x zygo.Sexp) (string, error) {
	if str, ok := x.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T", x)
}

func toSexp(env *zygo.Zlisp, v any) zygo.Sexp {
	switch t := v.(type) {
	case nil:
		return zygo.SexpNull
	case string:
		return &zygo.SexpStr{S: t}
	case bool:
		return &zygo.SexpBool{Val: t}
	case int:
		return &zygo.SexpInt{Val: int64(t)}
	case int64:
		return &zygo.SexpInt{Val: t}
	case float64:
		return &zygo.SexpFloat{Val: t}
	case schema.Vector3:
		return &zygo.SexpArray{Val: []zygo.Sexp{&zygo.SexpFloat{Val: t.X}, &zygo.SexpFloat{Val: t.Y}, &zygo.SexpFloat{Val: t.Z}}, Env: env}
	case schema.Vector2:
		return &zygo.SexpArray{Val: []zygo.Sexp{&zygo.SexpFloat{Val: t.X}, &zygo.SexpFloat{Val: t.Y}}, Env: env}
	case []any:
		out := make([]zygo.Sexp, len(t))
		for i, e := range t {
			out[i] = toSexp(env, e)
		}
		return &zygo.SexpArray{Val: out, Env: env}
	}
	if f, ok := schema.Number(v); ok {
		return &zygo.SexpFloat{Val: f}
	}
	return &zygo.SexpStr{S: fmt.Sprint(v)}
}

func fromSexp(x zygo.Sexp) any {
	switch t := x.(type) {
	case *zygo.SexpStr:
		return t.S
	case *zygo.SexpBool:
		return t.Val
	case *zygo.SexpInt:
		return t.Val
	case *zygo.SexpFloat:
		return t.Val
	case *zygo.SexpArray:
		out := make([]any, len(t.Val))
		for i, e := range t.Val {
			out[i] = fromSexp(e)
		}
		return out
	}
	if x == zygo.SexpNull {
		return nil
	}
	return x.SexpString(nil)
}
