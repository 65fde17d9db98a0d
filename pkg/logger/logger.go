package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// Level represents logging severity
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("logger: unknown level %q", s)
}

var levelColors = map[Level][]color.Attribute{
	LevelDebug: {color.FgHiBlack},
	LevelInfo:  {color.FgCyan},
	LevelWarn:  {color.FgYellow},
	LevelError: {color.FgRed, color.Bold},
}

// Logger is a leveled logger with a slash-separated prefix
type Logger struct {
	mu       *sync.Mutex
	out      io.Writer
	minLevel Level
	prefix   string
	colored  bool
}

// New creates a new logger
func New(out io.Writer, minLevel Level, prefix string) *Logger {
	if out == nil {
		out = os.Stderr
	}
	return &Logger{
		mu:       &sync.Mutex{},
		out:      out,
		minLevel: minLevel,
		prefix:   prefix,
	}
}

// Default returns an info logger to stderr, colored when stderr is a terminal
func Default() *Logger {
	l := New(os.Stderr, LevelInfo, "")
	l.colored = !color.NoColor
	return l
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	return New(io.Discard, LevelError+1, "")
}

// SetColor toggles colored level tags
func (l *Logger) SetColor(on bool) {
	l.colored = on
}

// WithPrefix creates a sub-logger with an additional prefix
func (l *Logger) WithPrefix(prefix string) *Logger {
	newPrefix := prefix
	if l.prefix != "" {
		newPrefix = l.prefix + "/" + prefix
	}
	return &Logger{
		mu:       l.mu,
		out:      l.out,
		minLevel: l.minLevel,
		prefix:   newPrefix,
		colored:  l.colored,
	}
}

func (l *Logger) log(level Level, format string, args ...any) {
	if level < l.minLevel {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("15:04:05.000")
	prefix := ""
	if l.prefix != "" {
		prefix = fmt.Sprintf("[%s] ", l.prefix)
	}

	tag := level.String()
	if attrs, ok := levelColors[level]; ok && l.colored {
		c := color.New(attrs...)
		c.EnableColor()
		tag = c.Sprint(tag)
	}

	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.out, "%s %s %s%s\n", timestamp, tag, prefix, msg)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...any) {
	l.log(LevelDebug, format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}

// Step logs a named step with timing
func (l *Logger) Step(name string) func() {
	start := time.Now()
	l.Debug("starting: %s", name)
	return func() {
		l.Debug("completed: %s (took %v)", name, time.Since(start).Round(time.Millisecond))
	}
}

// Run logs the outcome of one program run
func (l *Logger) Run(name string, steps, segments int, err error) {
	if err != nil {
		l.Warn("%s failed after %s steps: %v", name, humanize.Comma(int64(steps)), err)
		return
	}
	l.Info("%s finished: %s steps, %s segments", name, humanize.Comma(int64(steps)), humanize.Comma(int64(segments)))
}
