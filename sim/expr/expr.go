// Package expr compiles rate and condition expressions written in Lua.
//
// Free identifiers resolve, at evaluation time, through sim.Context.Lookup:
// "time", model parameters, then state populations. Lua's own globals
// (math, string, …) take precedence, so models must not bind names for
// which IsReserved reports true.
package expr

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/Shopify/go-lua"

	"github.com/reactsim/reactsim/sim"
)

// Engine owns one Lua state shared by every expression compiled from it.
// Not thread-safe; the simulation is single-threaded.
type Engine struct {
	l   *lua.State
	ctx *sim.Context
	n   int
}

// NewEngine creates a Lua state with the standard libraries and the
// variable-binding hook installed.
func NewEngine() *Engine {
	e := &Engine{l: lua.NewState()}
	lua.OpenLibraries(e.l)

	// unresolved globals are looked up in the current context
	e.l.PushGlobalTable()
	e.l.NewTable()
	e.l.PushGoFunction(e.index)
	e.l.SetField(-2, "__index")
	e.l.SetMetaTable(-2)
	e.l.Pop(1)
	return e
}

func (e *Engine) index(l *lua.State) int {
	name, _ := l.ToString(2)
	if e.ctx == nil {
		lua.Errorf(l, "variable %s used outside a simulation", name)
		return 0
	}
	v, ok := e.ctx.Lookup(name)
	if !ok {
		lua.Errorf(l, "unknown variable %s", name)
		return 0
	}
	l.PushNumber(v)
	return 1
}

var luaKeywords = map[string]bool{
	"and": true, "break": true, "do": true, "else": true, "elseif": true,
	"end": true, "false": true, "for": true, "function": true, "goto": true,
	"if": true, "in": true, "local": true, "nil": true, "not": true,
	"or": true, "repeat": true, "return": true, "then": true, "true": true,
	"until": true, "while": true,
}

var luaGlobals = sync.OnceValue(func() map[string]bool {
	l := lua.NewState()
	lua.OpenLibraries(l)
	globals := make(map[string]bool)
	l.PushGlobalTable()
	l.PushNil()
	for l.Next(-2) {
		if l.TypeOf(-2) == lua.TypeString {
			name, _ := l.ToString(-2)
			globals[name] = true
		}
		l.Pop(1)
	}
	l.Pop(1)
	return globals
})

// IsReserved reports whether name can never resolve to a model variable in
// an expression: a Lua keyword, a global of the standard Lua environment, or
// the built-in "time".
func IsReserved(name string) bool {
	return name == sim.TimeVariable || luaKeywords[name] || luaGlobals()[name]
}

// Expr is a compiled expression. It implements sim.Rate and sim.Condition.
type Expr struct {
	engine  *Engine
	src     string
	global  string
	literal *float64
}

// Compile parses src as a Lua expression. Numeric literals are folded and
// never reach the interpreter.
func (e *Engine) Compile(src string) (*Expr, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, fmt.Errorf("empty expression")
	}
	// ParseFloat also accepts "inf" and "nan", which are valid identifiers here
	if v, err := strconv.ParseFloat(src, 64); err == nil && !strings.ContainsAny(src, "iInN") {
		return &Expr{engine: e, src: src, literal: &v}, nil
	}
	top := e.l.Top()
	if err := lua.LoadString(e.l, "return "+src); err != nil {
		e.l.SetTop(top)
		return nil, fmt.Errorf("compile %q: %w", src, err)
	}
	e.n++
	global := fmt.Sprintf("__reactsim_expr_%d", e.n)
	e.l.SetGlobal(global)
	return &Expr{engine: e, src: src, global: global}, nil
}

// Source returns the expression text.
func (x *Expr) Source() string {
	return x.src
}

// IsLiteral reports whether the expression folded to a constant.
func (x *Expr) IsLiteral() bool {
	return x.literal != nil
}

// Rate returns the cheapest sim.Rate for the expression.
func (x *Expr) Rate() sim.Rate {
	if x.literal != nil {
		return sim.ConstantRate(*x.literal)
	}
	return x
}

// Value evaluates the expression as a number.
func (x *Expr) Value(ctx *sim.Context) (float64, error) {
	if x.literal != nil {
		return *x.literal, nil
	}
	l := x.engine.l
	if err := x.call(ctx); err != nil {
		return 0, err
	}
	defer l.Pop(1)
	if l.TypeOf(-1) != lua.TypeNumber {
		return 0, fmt.Errorf("expression %q: expected number, got %s", x.src, lua.TypeNameOf(l, -1))
	}
	v, _ := l.ToNumber(-1)
	return v, nil
}

// Evaluate evaluates the expression as a condition. Numbers are true when
// non-zero.
func (x *Expr) Evaluate(ctx *sim.Context) (bool, error) {
	if x.literal != nil {
		return *x.literal != 0, nil
	}
	l := x.engine.l
	if err := x.call(ctx); err != nil {
		return false, err
	}
	defer l.Pop(1)
	switch l.TypeOf(-1) {
	case lua.TypeBoolean:
		return l.ToBoolean(-1), nil
	case lua.TypeNumber:
		v, _ := l.ToNumber(-1)
		return v != 0, nil
	}
	return false, fmt.Errorf("expression %q: expected boolean, got %s", x.src, lua.TypeNameOf(l, -1))
}

// call leaves exactly one result on the stack on success.
func (x *Expr) call(ctx *sim.Context) error {
	e := x.engine
	e.ctx = ctx
	defer func() { e.ctx = nil }()
	top := e.l.Top()
	e.l.Global(x.global)
	if err := e.l.ProtectedCall(0, 1, 0); err != nil {
		e.l.SetTop(top)
		return fmt.Errorf("evaluate %q: %w", x.src, err)
	}
	return nil
}
