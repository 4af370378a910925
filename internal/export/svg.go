package export

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// TrajectorySVG draws the top view (z horizontal, x vertical) of a
// recorded trajectory. Detector planes are drawn as short segments at
// their z.
func TrajectorySVG(points []r3.Vec, planes []r3.Vec, width, height int, stroke string) string {
	if len(points) < 2 {
		return ""
	}

	minZ, maxZ := points[0].Z, points[0].Z
	minX, maxX := points[0].X, points[0].X
	grow := func(p r3.Vec) {
		minZ, maxZ = min(minZ, p.Z), max(maxZ, p.Z)
		minX, maxX = min(minX, p.X), max(maxX, p.X)
	}
	for _, p := range points {
		grow(p)
	}
	for _, p := range planes {
		grow(p)
	}

	rangeZ := maxZ - minZ
	rangeX := maxX - minX
	if rangeZ == 0 {
		rangeZ = 1
	}
	if rangeX == 0 {
		rangeX = 1
	}
	minZ -= rangeZ * 0.05
	maxZ += rangeZ * 0.05
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	rangeZ = maxZ - minZ
	rangeX = maxX - minX

	sx := func(z float64) float64 { return (z - minZ) / rangeZ * float64(width) }
	sy := func(x float64) float64 { return float64(height) - (x-minX)/rangeX*float64(height) }

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for _, p := range planes {
		y := sy(p.X)
		fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#555555" stroke-width="3"/>
`, sx(p.Z), y-8, sx(p.Z), y+8)
	}

	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke)
	for i, p := range points {
		if i > 0 {
			sb.WriteString(" L")
		}
		fmt.Fprintf(&sb, "%.1f,%.1f", sx(p.Z), sy(p.X))
	}
	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
