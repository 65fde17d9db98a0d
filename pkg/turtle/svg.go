package turtle

import (
	"fmt"
	"html"
	"io"
	"math"
	"strconv"
	"strings"
)

// cursor is the triangle drawn at the turtle position, nose along -y before
// rotation.
var cursor = [3]Point{{0, -10}, {7, 7}, {-7, 7}}

// WriteSVG renders the current drawing as a standalone SVG document.
func (t *Turtle) WriteSVG(w io.Writer) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var b strings.Builder
	width, height := num(t.opts.Width), num(t.opts.Height)
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`+"\n",
		width, height, width, height)
	if t.opts.Background != "" {
		fmt.Fprintf(&b, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", attr(t.opts.Background))
	}
	for _, s := range t.segments {
		fmt.Fprintf(&b, `  <line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s" stroke-linecap="round"/>`+"\n",
			num(s.From.X), num(s.From.Y), num(s.To.X), num(s.To.Y), attr(s.Color), num(s.Width))
	}
	if t.opts.ShowCursor {
		fmt.Fprintf(&b, `  <polygon points="%s" fill="%s" transform="translate(%s %s) rotate(%s)"/>`+"\n",
			cursorPoints(), attr(t.color), num(t.pos.X), num(t.pos.Y), num(t.heading+90))
	}
	b.WriteString("</svg>\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("turtle: write svg: %w", err)
	}
	return nil
}

func cursorPoints() string {
	parts := make([]string, len(cursor))
	for i, p := range cursor {
		parts[i] = num(p.X) + "," + num(p.Y)
	}
	return strings.Join(parts, " ")
}

// num prints a coordinate with at most three decimals and no negative zero.
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000+0, 'f', -1, 64)
}

func attr(s string) string {
	return html.EscapeString(s)
}
