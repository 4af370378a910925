package physics

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Map is a field tabulated on a regular grid in the magnet frame. Outside
// the grid the value of the nearest boundary cell is used.
//
// The text format is
//
//	nx ny nz
//	xmin xmax ymin ymax zmin zmax
//	bx by bz        (nx*ny*nz lines, z index fastest)
//
// Lines starting with '#' are ignored.
type Map struct {
	N        [3]int
	Min, Max r3.Vec
	Values   []r3.Vec

	// Placement of the magnet frame in the laboratory.
	Position r3.Vec
	YAngle   float64 // degrees
	Scale    float64

	rot, inv r3.Rotation
}

func LoadMap(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := ReadMap(f)
	if err != nil {
		return nil, fmt.Errorf("field map %s: %w", path, err)
	}
	return m, nil
}

func ReadMap(r io.Reader) (*Map, error) {
	sc := bufio.NewScanner(r)
	var rows [][]float64
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		row := make([]float64, len(fields))
		for i, s := range fields {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", len(rows)+1, err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(rows) < 2 || len(rows[0]) != 3 || len(rows[1]) != 6 {
		return nil, fmt.Errorf("missing grid header")
	}

	m := &Map{Scale: 1}
	for i := range 3 {
		m.N[i] = int(rows[0][i])
		if m.N[i] < 2 {
			return nil, fmt.Errorf("grid needs at least 2 points per axis, got %v", m.N)
		}
	}
	h := rows[1]
	m.Min = r3.Vec{X: h[0], Y: h[2], Z: h[4]}
	m.Max = r3.Vec{X: h[1], Y: h[3], Z: h[5]}

	want := m.N[0] * m.N[1] * m.N[2]
	if len(rows)-2 != want {
		return nil, fmt.Errorf("expected %d field values, got %d", want, len(rows)-2)
	}
	m.Values = make([]r3.Vec, want)
	for i, row := range rows[2:] {
		if len(row) != 3 {
			return nil, fmt.Errorf("value %d: expected 3 columns", i)
		}
		m.Values[i] = r3.Vec{X: row[0], Y: row[1], Z: row[2]}
	}
	m.Place(r3.Vec{}, 0)
	return m, nil
}

// Place positions the magnet frame in the laboratory.
func (m *Map) Place(pos r3.Vec, yAngle float64) {
	m.Position = pos
	m.YAngle = yAngle
	a := yAngle * math.Pi / 180
	m.rot = r3.NewRotation(a, r3.Vec{Y: 1})
	m.inv = r3.NewRotation(-a, r3.Vec{Y: 1})
}

func (m *Map) At(pos r3.Vec) r3.Vec {
	local := m.inv.Rotate(r3.Sub(pos, m.Position))

	var idx [3]int
	var frac [3]float64
	lo := [3]float64{m.Min.X, m.Min.Y, m.Min.Z}
	hi := [3]float64{m.Max.X, m.Max.Y, m.Max.Z}
	x := [3]float64{local.X, local.Y, local.Z}
	for a := range 3 {
		step := (hi[a] - lo[a]) / float64(m.N[a]-1)
		u := (x[a] - lo[a]) / step
		u = math.Max(0, math.Min(u, float64(m.N[a]-1)))
		i := int(u)
		if i == m.N[a]-1 {
			i--
		}
		idx[a] = i
		frac[a] = u - float64(i)
	}

	var b r3.Vec
	for c := range 8 {
		di, dj, dk := c>>2&1, c>>1&1, c&1
		w := weight(frac[0], di) * weight(frac[1], dj) * weight(frac[2], dk)
		if w == 0 {
			continue
		}
		b = r3.Add(b, r3.Scale(w, m.value(idx[0]+di, idx[1]+dj, idx[2]+dk)))
	}
	return r3.Scale(m.Scale, m.rot.Rotate(b))
}

func (m *Map) value(i, j, k int) r3.Vec {
	return m.Values[(i*m.N[1]+j)*m.N[2]+k]
}

func weight(f float64, d int) float64 {
	if d == 0 {
		return 1 - f
	}
	return f
}

func (m *Map) GetParams() map[string]float64 {
	return map[string]float64{"scale": m.Scale, "yangle": m.YAngle}
}

func (m *Map) SetParam(n string, v float64) error {
	switch n {
	case "scale":
		m.Scale = v
	case "yangle":
		m.Place(m.Position, v)
	default:
		return fmt.Errorf("field map: unknown parameter %q", n)
	}
	return nil
}
