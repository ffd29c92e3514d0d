package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/spinlab/internal/lattice"
	"github.com/san-kum/spinlab/internal/viz"
)

const defaultDPI = 96

// FigureSize is the output size in inches.
type FigureSize struct {
	Width, Height float64
	DPI           float64
}

// DefaultFigureSize is a 7x7 inch figure at 96 dpi.
func DefaultFigureSize() FigureSize {
	return FigureSize{Width: 7, Height: 7, DPI: defaultDPI}
}

// Pixels returns the figure size in pixels. Non-positive fields fall back to
// the defaults.
func (s FigureSize) Pixels() (int, int) {
	d := DefaultFigureSize()
	if s.Width <= 0 {
		s.Width = d.Width
	}
	if s.Height <= 0 {
		s.Height = d.Height
	}
	if s.DPI <= 0 {
		s.DPI = d.DPI
	}
	return int(math.Round(s.Width * s.DPI)), int(math.Round(s.Height * s.DPI))
}

// QuiverSVG draws the in-plane components of every spin as an arrow at its
// site, x to the right and y up, coloured by sz with the current theme.
// Spins that point mostly out of plane are drawn as dots. The field is only
// read.
func QuiverSVG(f *lattice.Field, size FigureSize) string {
	width, height := size.Pixels()
	nx, ny := f.Dims()
	cell := math.Min(float64(width)/float64(nx), float64(height)/float64(ny))
	offX := (float64(width) - cell*float64(nx)) / 2
	offY := (float64(height) - cell*float64(ny)) / 2
	theme := viz.CurrentTheme
	threshold := viz.DefaultQuiverOptions().PlaneThreshold

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g stroke-width="%.2f" stroke-linecap="round">
`, width, height, width, height, math.Max(cell*0.08, 0.5)))

	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			s := f.Spin(i, j)
			color := string(viz.SzColor(theme, s.Z))
			cx := offX + (float64(i)+0.5)*cell
			cy := float64(height) - offY - (float64(j)+0.5)*cell

			inPlane := math.Hypot(s.X, s.Y)
			if inPlane < threshold {
				sb.WriteString(fmt.Sprintf(`<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>
`, cx, cy, cell*0.18, color))
				continue
			}

			// Arrow length scales with the in-plane component; screen y
			// points down.
			half := 0.45 * cell * inPlane
			ux, uy := s.X/inPlane, -s.Y/inPlane
			x0, y0 := cx-ux*half, cy-uy*half
			x1, y1 := cx+ux*half, cy+uy*half
			head := cell * 0.2
			hx, hy := x1-ux*head, y1-uy*head
			px, py := -uy*head*0.5, ux*head*0.5

			sb.WriteString(fmt.Sprintf(`<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s"/>
<polygon points="%.2f,%.2f %.2f,%.2f %.2f,%.2f" fill="%s"/>
`, x0, y0, hx, hy, color, x1, y1, hx+px, hy+py, hx-px, hy-py, color))
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// TraceSVG plots an energy trace against its sample index.
func TraceSVG(energies []float64, width, height int, strokeColor string) string {
	if len(energies) < 2 {
		return ""
	}

	minY, maxY := energies[0], energies[0]
	for _, e := range energies {
		minY = math.Min(minY, e)
		maxY = math.Max(maxY, e)
	}

	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY
	rangeX := float64(len(energies) - 1)

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, e := range energies {
		x := float64(i) / rangeX * float64(width)
		y := float64(height) - (e-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
