package vm

import (
	"context"
	"fmt"
	"strings"

	"github.com/edwingeng/deque"

	"github.com/agenthands/nlogo/pkg/compiler/lexer"
	"github.com/agenthands/nlogo/pkg/compiler/parser"
	"github.com/agenthands/nlogo/pkg/core/diag"
)

// DefaultMaxDepth bounds how many frames (the program itself, REPEAT blocks
// and procedure calls) may be open at once.
const DefaultMaxDepth = 512

// Frame is one level of execution: the program, a REPEAT block or a
// procedure body.
type Frame struct {
	Tokens    []lexer.Token
	Pos       int
	Remaining int // passes left, including the current one
	CallLine  int // line of the token that opened the frame, 0 for the program
	Scope     Scope
}

// Machine is a tree-walking interpreter over a token sequence. It holds no
// lock: only one Run or Step sequence may be active at a time.
type Machine struct {
	Surface  Surface
	Context  *Context
	MaxDepth int

	frames deque.Deque // of *Frame, innermost at the back
	steps  int
}

// NewMachine creates a machine with empty tables drawing on surface.
func NewMachine(surface Surface) *Machine {
	return &Machine{
		Surface:  surface,
		Context:  NewContext(),
		MaxDepth: DefaultMaxDepth,
		frames:   deque.NewDeque(),
	}
}

// Reset forgets all variables, procedures and any unfinished run.
func (m *Machine) Reset() {
	m.Context = NewContext()
	m.frames = deque.NewDeque()
	m.steps = 0
}

// Steps returns how many tokens were dispatched since the last Load.
func (m *Machine) Steps() int { return m.steps }

// Depth returns the number of open frames.
func (m *Machine) Depth() int {
	if m.frames == nil {
		return 0
	}
	return m.frames.Len()
}

// Load tokenizes and validates src and positions the machine at its first
// token. Nothing is drawn when validation fails.
func (m *Machine) Load(src string) error {
	return m.LoadProgram(lexer.Tokenize(src))
}

// LoadProgram validates an already tokenized program and prepares it to run.
func (m *Machine) LoadProgram(prog lexer.Program) error {
	if err := parser.Validate(prog); err != nil {
		return err
	}
	if m.Context == nil {
		m.Context = NewContext()
	}
	m.frames = deque.NewDeque()
	m.steps = 0
	if len(prog) > 0 {
		m.frames.PushBack(&Frame{Tokens: prog, Remaining: 1, Scope: Scope{}})
	}
	return nil
}

// Step dispatches exactly one head token together with the arguments it
// consumes. It reports done once the program is exhausted or has failed.
func (m *Machine) Step() (done bool, err error) {
	if m.frames == nil {
		return true, nil
	}
	for m.frames.Len() > 0 {
		f := m.frames.Back().(*Frame)
		if f.Pos >= len(f.Tokens) {
			f.Remaining--
			if f.Remaining > 0 {
				f.Pos = 0
				continue
			}
			m.frames.PopBack()
			continue
		}

		head := f.Tokens[f.Pos]
		f.Pos++
		m.steps++
		if err := m.dispatch(m.Context, f, head); err != nil {
			return true, m.unwind(diag.WithLine(err, head.Line))
		}
		return false, nil
	}
	return true, nil
}

// Run loads src and steps it to completion, letting pacer pause between
// steps. Drawing already done when an error occurs stays on the surface.
func (m *Machine) Run(ctx context.Context, src string, pacer Pacer) error {
	if err := m.Load(src); err != nil {
		return err
	}
	if pacer == nil {
		pacer = NoDelay{}
	}
	for {
		done, err := m.Step()
		if err != nil || done {
			return err
		}
		if err := pacer.Wait(ctx); err != nil {
			m.frames = deque.NewDeque()
			return fmt.Errorf("vm: run interrupted after %d steps: %w", m.steps, err)
		}
	}
}

// unwind drops every open frame, tagging err with the innermost call site
// that has a line if it still lacks one.
func (m *Machine) unwind(err error) error {
	for m.frames.Len() > 0 {
		f := m.frames.PopBack().(*Frame)
		err = diag.WithLine(err, f.CallLine)
	}
	return err
}

func (m *Machine) push(tokens []lexer.Token, passes, line int, scope Scope) error {
	limit := m.MaxDepth
	if limit <= 0 {
		limit = DefaultMaxDepth
	}
	if m.frames.Len() >= limit {
		return diag.Errorf(diag.KindRecursionLimit, line, "Too much nesting! More than %d blocks or procedure calls are open", limit)
	}
	m.frames.PushBack(&Frame{Tokens: tokens, Remaining: passes, CallLine: line, Scope: scope})
	return nil
}

func (m *Machine) dispatch(c *Context, f *Frame, head lexer.Token) error {
	cmd := strings.ToUpper(head.Text)
	op, ok := Commands[cmd]
	if !ok {
		if body, ok := c.Procs[cmd]; ok {
			return m.push(body, 1, head.Line, f.Scope)
		}
		return diag.Errorf(diag.KindSyntax, head.Line, "I don't know the command %q", head.Text)
	}

	switch op {
	case OP_VAR:
		name, err := m.arg(f, head, "name for VAR")
		if err != nil {
			return err
		}
		valTok, err := m.arg(f, head, "value for VAR "+name.Text)
		if err != nil {
			return err
		}
		n, err := m.number(c, valTok, "VAR")
		if err != nil {
			return err
		}
		c.Vars[name.Text] = n

	case OP_DEF:
		name, err := m.arg(f, head, "name for DEF")
		if err != nil {
			return err
		}
		proc := strings.ToUpper(name.Text)
		body, next, ok := parser.Definition(f.Tokens, f.Pos)
		if !ok {
			return diag.Errorf(diag.KindSyntax, head.Line, "Procedure %s is missing END", proc)
		}
		c.Procs[proc] = body
		f.Pos = next

	case OP_REPEAT:
		countTok, err := m.arg(f, head, "count for REPEAT")
		if err != nil {
			return err
		}
		v, err := c.Evaluate(countTok)
		if err != nil {
			return err
		}
		count, ok := v.Int()
		if !ok {
			return diag.Errorf(diag.KindValue, countTok.Line, "REPEAT needs a number, but got %q", countTok.Text)
		}
		body, next, ok := parser.Block(f.Tokens, f.Pos)
		if !ok {
			if f.Pos < len(f.Tokens) && f.Tokens[f.Pos].Kind == lexer.KindLBracket {
				return diag.Errorf(diag.KindStructure, head.Line, "Missing ']' for this REPEAT loop")
			}
			return diag.Errorf(diag.KindSyntax, head.Line, "REPEAT needs a [ block ] after the count")
		}
		f.Pos = next
		if count <= 0 || len(body) == 0 {
			return nil
		}
		return m.push(body, count, head.Line, f.Scope)

	case OP_FORWARD, OP_BACK:
		tok, err := m.arg(f, head, "distance for "+cmd)
		if err != nil {
			return err
		}
		d, err := m.number(c, tok, cmd)
		if err != nil {
			return err
		}
		if op == OP_BACK {
			d = -d
		}
		m.Surface.Advance(d)

	case OP_RIGHT, OP_LEFT:
		tok, err := m.arg(f, head, "angle for "+cmd)
		if err != nil {
			return err
		}
		deg, err := m.number(c, tok, cmd)
		if err != nil {
			return err
		}
		dir := Clockwise
		if op == OP_LEFT {
			dir = CounterClockwise
		}
		m.Surface.Turn(deg, dir)

	case OP_PENUP:
		m.Surface.SetPen(false)

	case OP_PENDOWN:
		m.Surface.SetPen(true)

	case OP_CLEAR:
		m.Surface.Reset()

	case OP_SETCOLOR:
		tok, err := m.arg(f, head, "color for SETCOLOR")
		if err != nil {
			return err
		}
		m.Surface.SetColor(tok.Text)

	case OP_END, OP_OPEN, OP_CLOSE:
		// Consumed by DEF and REPEAT scanning; harmless when loose.
	}
	return nil
}

// arg consumes the next token of the frame as an argument of head.
func (m *Machine) arg(f *Frame, head lexer.Token, what string) (lexer.Token, error) {
	if f.Pos >= len(f.Tokens) {
		return lexer.Token{}, diag.Errorf(diag.KindSyntax, head.Line, "Missing %s", what)
	}
	tok := f.Tokens[f.Pos]
	f.Pos++
	return tok, nil
}

func (m *Machine) number(c *Context, tok lexer.Token, cmd string) (float64, error) {
	v, err := c.Evaluate(tok)
	if err != nil {
		return 0, err
	}
	n, ok := v.Float()
	if !ok {
		return 0, diag.Errorf(diag.KindValue, tok.Line, "%s needs a number, but got %q", cmd, tok.Text)
	}
	return n, nil
}
