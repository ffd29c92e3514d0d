package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/spinlab/internal/lattice"
)

// arrows indexed by in-plane angle in steps of 45°, starting along +x.
var arrows = [8]rune{'→', '↗', '↑', '↖', '←', '↙', '↓', '↘'}

const (
	glyphOut = '⊙'
	glyphIn  = '⊗'
)

// QuiverOptions control terminal rendering of a field.
type QuiverOptions struct {
	Theme Theme
	// Color enables lipgloss colouring by sz.
	Color bool
	// PlaneThreshold is the in-plane length below which a spin is drawn
	// as pointing out of (⊙) or into (⊗) the screen.
	PlaneThreshold float64
}

func DefaultQuiverOptions() QuiverOptions {
	return QuiverOptions{
		Theme:          CurrentTheme,
		Color:          true,
		PlaneThreshold: 0.35,
	}
}

// Glyph returns the arrow for the in-plane direction of s.
func Glyph(s r3.Vec, threshold float64) rune {
	if math.Hypot(s.X, s.Y) < threshold {
		if s.Z >= 0 {
			return glyphOut
		}
		return glyphIn
	}
	angle := math.Atan2(s.Y, s.X)
	idx := int(math.Round(angle/(math.Pi/4))) % 8
	if idx < 0 {
		idx += 8
	}
	return arrows[idx]
}

// Quiver renders the field one glyph per site, x to the right and y up the
// page, with a space between columns. The field is only read.
func Quiver(f *lattice.Field, opts QuiverOptions) string {
	nx, ny := f.Dims()

	var b strings.Builder
	for j := ny - 1; j >= 0; j-- {
		for i := 0; i < nx; i++ {
			s := f.Spin(i, j)
			g := string(Glyph(s, opts.PlaneThreshold))
			if opts.Color {
				g = lipgloss.NewStyle().Foreground(SzColor(opts.Theme, s.Z)).Render(g)
			}
			b.WriteString(g)
			if i < nx-1 {
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
