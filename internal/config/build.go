package config

import (
	"fmt"
	"math"

	"github.com/san-kum/fragtrack/internal/detector"
	"github.com/san-kum/fragtrack/internal/geometry"
	"github.com/san-kum/fragtrack/internal/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

// BuildField creates the field model, including map placement and the
// tracker correction scale.
func (c *Config) BuildField() (physics.Field, error) {
	var f physics.Field
	switch c.Field.Type {
	case "uniform":
		f = physics.NewUniform(c.Field.B[0], c.Field.B[1], c.Field.B[2])
	case "map":
		m, err := physics.LoadMap(c.Field.Map)
		if err != nil {
			return nil, err
		}
		m.Place(c.Field.Position.R3(), c.Field.YAngle)
		f = m
	default:
		return nil, fmt.Errorf("unknown field type %q%s", c.Field.Type, suggest(c.Field.Type, fieldTypes))
	}
	if c.Field.Scale != 0 && c.Field.Scale != 1 {
		f = physics.Scaled{Field: f, Scale: c.Field.Scale}
	}
	return f, nil
}

func (c *Config) Volume() physics.Volume {
	return physics.Volume{
		Position: c.Field.Position.R3(),
		YAngle:   c.Field.YAngle,
		XMax:     c.Field.XMax,
		YMax:     c.Field.YMax,
		ZMin:     c.Field.ZMin,
		ZMax:     c.Field.ZMax,
	}
}

// BuildSetup creates the detectors and the two side views.
func (c *Config) BuildSetup() (*detector.Setup, error) {
	dets := make([]*detector.Detector, 0, len(c.Detectors))
	for _, dc := range c.Detectors {
		d, err := dc.build()
		if err != nil {
			return nil, fmt.Errorf("detector %s: %w", dc.Name, err)
		}
		dets = append(dets, d)
	}
	return detector.NewSetup(dets, c.Sides.Left, c.Sides.Right)
}

func (dc DetectorConfig) build() (*detector.Detector, error) {
	sec, err := detector.ParseSection(dc.Section)
	if err != nil {
		return nil, err
	}
	base, err := geometry.NewPlane(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1})
	if err != nil {
		return nil, err
	}
	d := detector.New(dc.Name, sec, base.Transform(dc.YAngle*math.Pi/180, dc.Center.R3()))
	d.ResX = dc.ResX
	d.ResY = dc.ResY
	d.Width = dc.Width
	d.Height = dc.Height
	if dc.Thickness > 0 {
		d.Material = detector.Plastic(dc.Thickness)
		if dc.Density > 0 {
			d.Material.Density = dc.Density
		}
		if dc.ZOverA > 0 {
			d.Material.ZOverA = dc.ZOverA
		}
		if dc.MeanExcitation > 0 {
			d.Material.MeanExcitation = dc.MeanExcitation
		}
	}
	return d, nil
}
