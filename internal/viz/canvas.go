package viz

import (
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a Braille pixel canvas with a world window mapped onto it.
// World coordinates are (z, x) in cm: z runs left to right, x bottom to
// top.
type Canvas struct {
	Width, Height int
	Grid          [][]rune

	zmin, zmax float64
	xmin, xmax float64
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		zmax:   1,
		xmax:   1,
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Window sets the world rectangle shown by the canvas.
func (c *Canvas) Window(zmin, zmax, xmin, xmax float64) {
	if zmax <= zmin {
		zmax = zmin + 1
	}
	if xmax <= xmin {
		xmax = xmin + 1
	}
	c.zmin, c.zmax, c.xmin, c.xmax = zmin, zmax, xmin, xmax
}

// Set lights the sub-pixel (x, y). The canvas has Width*2 by Height*4
// sub-pixels.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// Project maps world (z, x) to sub-pixel coordinates.
func (c *Canvas) Project(z, x float64) (int, int) {
	pw, ph := float64(c.Width*2-1), float64(c.Height*4-1)
	px := (z - c.zmin) / (c.zmax - c.zmin) * pw
	py := ph - (x-c.xmin)/(c.xmax-c.xmin)*ph
	return int(px + 0.5), int(py + 0.5)
}

func (c *Canvas) Plot(z, x float64) {
	c.Set(c.Project(z, x))
}

// Segment draws a world-space line.
func (c *Canvas) Segment(z0, x0, z1, x1 float64) {
	a, b := c.Project(z0, x0)
	d, e := c.Project(z1, x1)
	c.DrawLine(a, b, d, e)
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
