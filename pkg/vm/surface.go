package vm

// Direction is the sense of a turn.
type Direction int8

const (
	Clockwise        Direction = 1
	CounterClockwise Direction = -1
)

func (d Direction) String() string {
	if d == CounterClockwise {
		return "counter-clockwise"
	}
	return "clockwise"
}

// Surface is the drawing collaborator the machine drives. Calls are
// synchronous and cannot fail.
type Surface interface {
	Advance(distance float64)
	Turn(degrees float64, dir Direction)
	SetPen(down bool)
	SetColor(spec string)
	Reset()
}
