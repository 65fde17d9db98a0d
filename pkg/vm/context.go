package vm

import (
	"github.com/agenthands/nlogo/pkg/compiler/lexer"
	"github.com/agenthands/nlogo/pkg/core/diag"
	"github.com/agenthands/nlogo/pkg/core/value"
)

// Scope is the per-frame variable map. Frames inherit their parent's scope;
// lookups still go to the shared Context tables.
type Scope map[string]float64

// Context holds the variable and procedure tables shared by every frame of
// a machine. It lives until the machine is Reset.
type Context struct {
	Vars  map[string]float64
	Procs map[string][]lexer.Token
}

// NewContext returns empty tables.
func NewContext() *Context {
	return &Context{
		Vars:  make(map[string]float64),
		Procs: make(map[string][]lexer.Token),
	}
}

// Evaluate resolves an argument token. A :name must exist in the variable
// table. Bare text naming an existing variable dereferences it. Anything
// else is returned as the literal word.
func (c *Context) Evaluate(tok lexer.Token) (value.Value, error) {
	if tok.Kind == lexer.KindVariable {
		name := tok.Text[1:]
		v, ok := c.Vars[name]
		if !ok {
			return value.Value{}, diag.Errorf(diag.KindValue, tok.Line, "Variable \":%s\" hasn't been created yet!", name)
		}
		return value.Number(v), nil
	}
	if v, ok := c.Vars[tok.Text]; ok {
		return value.Number(v), nil
	}
	return value.Word(tok.Text), nil
}
