// Package host wires a machine to a turtle the way an editor front end uses
// them: one run at a time, with status messages for the user.
package host

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tevino/abool/v2"

	"github.com/agenthands/nlogo/pkg/config"
	"github.com/agenthands/nlogo/pkg/logger"
	"github.com/agenthands/nlogo/pkg/turtle"
	"github.com/agenthands/nlogo/pkg/vm"
)

var (
	ErrBusy          = errors.New("host: a program is already running")
	ErrUnknownSample = errors.New("host: unknown sample")
)

const (
	StatusRunning  = "Turtle is running..."
	StatusFinished = "Turtle is finished!"
	StatusCleared  = "Canvas cleared!"
)

// Session owns one machine and one turtle. Variables and procedures survive
// between runs until Forget.
type Session struct {
	Machine  *vm.Machine
	Turtle   *turtle.Turtle
	Pacer    vm.Pacer
	OnStatus func(status string)

	log     *logger.Logger
	running *abool.AtomicBool
}

func NewSession(cfg *config.Config, log *logger.Logger) *Session {
	if log == nil {
		log = logger.Discard()
	}
	t := turtle.New(cfg.TurtleOptions())
	m := vm.NewMachine(t)
	m.MaxDepth = cfg.Run.MaxDepth
	return &Session{
		Machine: m,
		Turtle:  t,
		Pacer:   cfg.Pacer(),
		log:     log.WithPrefix("session"),
		running: abool.New(),
	}
}

// Running reports whether a program is executing.
func (s *Session) Running() bool {
	return s.running.IsSet()
}

// Run executes src on the current canvas and reports how many commands it
// took. It fails with ErrBusy while another run is in progress.
func (s *Session) Run(ctx context.Context, src string) (int, error) {
	return s.run(ctx, "program", src, StatusRunning, StatusFinished, func(err error) string {
		return "Oops! " + err.Error()
	})
}

// RunSample clears the canvas and runs a built-in sample.
func (s *Session) RunSample(ctx context.Context, name string) (int, error) {
	sample, ok := FindSample(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSample, name)
	}
	return s.run(ctx, sample.Name, sample.Source,
		fmt.Sprintf("Inspiring %s is starting!", sample.Title),
		fmt.Sprintf("%s finished!", sample.Title),
		func(error) string { return "Oops! Try again." },
		s.Turtle.Reset,
	)
}

func (s *Session) run(ctx context.Context, name, src, start, finish string, fail func(error) string, before ...func()) (int, error) {
	if !s.running.SetToIf(false, true) {
		return 0, ErrBusy
	}
	defer s.running.UnSet()

	for _, fn := range before {
		fn()
	}
	s.status(start)
	done := s.log.Step(name)
	err := s.Machine.Run(ctx, src, s.Pacer)
	done()
	// steps must be read before the guard drops; the next run resets them
	steps := s.Machine.Steps()
	s.log.Run(name, steps, len(s.Turtle.Segments()), err)
	if err != nil {
		s.status(fail(err))
		return steps, err
	}
	s.status(finish)
	return steps, nil
}

// Clear wipes the canvas and sends the turtle home. Variables and
// procedures are kept.
func (s *Session) Clear() {
	s.Turtle.Reset()
	s.status(StatusCleared)
}

// Forget drops all variables and procedures.
func (s *Session) Forget() error {
	if !s.running.SetToIf(false, true) {
		return ErrBusy
	}
	defer s.running.UnSet()
	s.Machine.Reset()
	return nil
}

// WriteSVG renders the canvas as it is right now, even mid-run.
func (s *Session) WriteSVG(w io.Writer) error {
	return s.Turtle.WriteSVG(w)
}

func (s *Session) status(msg string) {
	if s.OnStatus != nil {
		s.OnStatus(msg)
	}
}
