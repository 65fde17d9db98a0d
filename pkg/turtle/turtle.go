// Package turtle is the in-memory drawing surface: a cursor with a position,
// heading, pen state and color, plus the line segments it has drawn.
package turtle

import (
	"math"
	"sync"

	"github.com/agenthands/nlogo/pkg/vm"
)

// InitialHeading points up. Heading 0 points along +x and angles grow toward
// +y, which is down on screen, so a right turn adds degrees.
const InitialHeading = -90

// Point is a canvas coordinate with the origin at the top-left corner.
type Point struct {
	X, Y float64
}

// Segment is one pen-down move.
type Segment struct {
	From, To Point
	Color    string
	Width    float64
}

// Options configures the canvas and the pen the turtle starts with.
type Options struct {
	Width      float64
	Height     float64
	Color      string
	PenWidth   float64
	Background string
	ShowCursor bool
}

// DefaultOptions returns the stock canvas: 800x600, coral pen, width 2.
func DefaultOptions() Options {
	return Options{
		Width:      800,
		Height:     600,
		Color:      "#ff6b6b",
		PenWidth:   2,
		Background: "#ffffff",
		ShowCursor: true,
	}
}

// Turtle implements vm.Surface. It is safe to render while a program draws.
type Turtle struct {
	mu sync.RWMutex

	opts     Options
	pos      Point
	heading  float64
	penDown  bool
	color    string
	segments []Segment
}

var _ vm.Surface = (*Turtle)(nil)

// New returns a turtle at the canvas center, pointing up.
func New(opts Options) *Turtle {
	t := &Turtle{opts: opts}
	t.Reset()
	return t
}

// Reset clears the drawing and puts the turtle back home.
func (t *Turtle) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pos = Point{X: t.opts.Width / 2, Y: t.opts.Height / 2}
	t.heading = InitialHeading
	t.penDown = true
	t.color = t.opts.Color
	t.segments = nil
}

// Advance moves along the heading; a negative distance moves backwards.
func (t *Turtle) Advance(distance float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rad := t.heading * math.Pi / 180
	next := Point{
		X: t.pos.X + distance*math.Cos(rad),
		Y: t.pos.Y + distance*math.Sin(rad),
	}
	if t.penDown {
		t.segments = append(t.segments, Segment{From: t.pos, To: next, Color: t.color, Width: t.opts.PenWidth})
	}
	t.pos = next
}

func (t *Turtle) Turn(degrees float64, dir vm.Direction) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.heading += degrees * float64(dir)
}

func (t *Turtle) SetPen(down bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.penDown = down
}

// SetColor takes any CSS color text verbatim.
func (t *Turtle) SetColor(spec string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.color = spec
}

// Position returns the current cursor position.
func (t *Turtle) Position() Point {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pos
}

// Heading returns the current heading in degrees.
func (t *Turtle) Heading() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.heading
}

func (t *Turtle) PenDown() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.penDown
}

func (t *Turtle) Color() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.color
}

// Segments returns a copy of everything drawn since the last Reset.
func (t *Turtle) Segments() []Segment {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Segment(nil), t.segments...)
}
