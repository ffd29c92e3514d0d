package analysis

import (
	"math"
	"strings"
)

var (
	shades    = []rune(" .:-=+*#%@")
	negShades = []rune(" ,;oO")
)

// HeatmapASCII renders grid[i][j] with i along the x axis and j up the page.
// Cells are shaded by |v| relative to the largest magnitude in the grid. With
// signed set, negative cells use a separate ramp.
func HeatmapASCII(grid [][]float64, signed bool) string {
	if len(grid) == 0 || len(grid[0]) == 0 {
		return ""
	}
	nx, ny := len(grid), len(grid[0])

	maxAbs := 0.0
	for _, row := range grid {
		for _, v := range row {
			maxAbs = math.Max(maxAbs, math.Abs(v))
		}
	}
	if maxAbs == 0 {
		maxAbs = 1
	}

	var sb strings.Builder
	for j := ny - 1; j >= 0; j-- {
		for i := 0; i < nx; i++ {
			v := grid[i][j]
			level := math.Abs(v) / maxAbs
			ramp := shades
			if signed && v < 0 {
				ramp = negShades
			}
			sb.WriteRune(ramp[int(level*float64(len(ramp)-1))])
		}
		sb.WriteRune('\n')
	}
	return sb.String()
}
