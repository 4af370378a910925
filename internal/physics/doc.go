// Package physics provides the magnetic field models and the magnet volume
// the tracks are bent in.
//
// Every model implements [Field]:
//
//   - [Uniform]: constant field vector
//   - [Map]: tabulated field with trilinear interpolation
//   - [Scaled]: any field multiplied by a tracker correction factor
//
// Field values are in kG, positions in cm. [Uniform] and [Map] also
// implement [Configurable] for runtime adjustment from the CLI.
//
// # Field Volume
//
// The region where the field is integrated is a [Volume]: a slab between
// two planes of constant local z, rotated about y and shifted to the magnet
// position. Outside it tracks are straight lines.
//
//	vol := physics.Volume{ZMin: -100, ZMax: 100, XMax: 50, YMax: 20}
//	entrance, exit := vol.Planes()
package physics
