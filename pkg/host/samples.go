package host

import "strings"

// Sample is a ready-made program shown to new users.
type Sample struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Source string `json:"source"`
}

// DefaultProgram is what a fresh editor starts with.
const DefaultProgram = `DEF SQUARE
  REPEAT 4 [ FD 100 RT 90 ]
END

SQUARE`

var Samples = []Sample{
	{Name: "square", Title: "Square", Source: DefaultProgram},
	{Name: "star", Title: "Star", Source: `SETCOLOR gold
REPEAT 5 [ FD 150 RT 144 ]`},
	{Name: "flower", Title: "Flower", Source: `DEF PETAL
  REPEAT 36 [ FD 4 RT 5 ]
  RT 180
  REPEAT 36 [ FD 4 RT 5 ]
  RT 180
END

SETCOLOR hotpink
REPEAT 8 [ PETAL RT 45 ]`},
	{Name: "hexagons", Title: "Hexagon Ring", Source: `DEF HEX
  REPEAT 6 [ FD 60 RT 60 ]
END

SETCOLOR teal
REPEAT 12 [ HEX RT 30 ]`},
	{Name: "stairs", Title: "Stairs", Source: `SETCOLOR orange
PU BK 150 LT 90 FD 150 RT 90 PD
REPEAT 6 [ FD 40 RT 90 FD 40 LT 90 ]`},
}

// FindSample looks a sample up by name, ignoring case.
func FindSample(name string) (Sample, bool) {
	for _, s := range Samples {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Sample{}, false
}
