package vm

// Op identifies a built-in command.
type Op uint8

const (
	OP_NONE Op = iota
	OP_VAR
	OP_DEF
	OP_REPEAT
	OP_FORWARD
	OP_BACK
	OP_RIGHT
	OP_LEFT
	OP_PENUP
	OP_PENDOWN
	OP_CLEAR
	OP_SETCOLOR
	OP_END
	OP_OPEN
	OP_CLOSE
)

// Commands maps upper-cased command spellings to their op. Built-ins win
// over user procedures of the same name.
var Commands = map[string]Op{
	"VAR":         OP_VAR,
	"DEF":         OP_DEF,
	"REPEAT":      OP_REPEAT,
	"FD":          OP_FORWARD,
	"FORWARD":     OP_FORWARD,
	"BK":          OP_BACK,
	"BACK":        OP_BACK,
	"RT":          OP_RIGHT,
	"RIGHT":       OP_RIGHT,
	"LT":          OP_LEFT,
	"LEFT":        OP_LEFT,
	"PU":          OP_PENUP,
	"PENUP":       OP_PENUP,
	"PD":          OP_PENDOWN,
	"PENDOWN":     OP_PENDOWN,
	"CS":          OP_CLEAR,
	"CLEARSCREEN": OP_CLEAR,
	"SETCOLOR":    OP_SETCOLOR,
	"END":         OP_END,
	"[":           OP_OPEN,
	"]":           OP_CLOSE,
}
