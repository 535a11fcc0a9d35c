// Package catalog is the in-repo reference implementation of the point
// catalogue writer spec.md §6 lists as an external collaborator: it turns
// per-pixel object counts into a flat text catalogue of sky positions,
// redshifts, field tags and weights.
package catalog

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"cosmofield/internal/sht"
)

// Object is one catalogued point.
type Object struct {
	Theta, Phi float64 // radians, colatitude/longitude
	Z          float64
	Field      int
	Weight     float64
}

// FromCounts expands a per-pixel integer count map into one Object per
// object, placed at the pixel center (spec.md's reference catalogue layout
// has no sub-pixel position model). z is the field's representative
// redshift (e.g. the midpoint of its Zmin/Zmax range).
func FromCounts(counts []int, field int, nside int, z, weight float64) []Object {
	var out []Object
	for p, n := range counts {
		if n <= 0 {
			continue
		}
		theta, phi := sht.PixToAng(nside, p)
		for k := 0; k < n; k++ {
			out = append(out, Object{Theta: theta, Phi: phi, Z: z, Field: field, Weight: weight})
		}
	}
	return out
}

// Write emits a 5-column whitespace-separated text catalogue: theta, phi,
// z, field, weight — one line per object.
func Write(w io.Writer, objs []Object) error {
	bw := bufio.NewWriter(w)
	for _, o := range objs {
		if _, err := fmt.Fprintf(bw, "%.10g %.10g %.10g %d %.10g\n", o.Theta, o.Phi, o.Z, o.Field, o.Weight); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Midpoint returns (zmin+zmax)/2, used as an object's representative
// redshift when the caller has no finer per-object redshift model.
func Midpoint(zmin, zmax float64) float64 {
	return math.Round((zmin+zmax)/2*1e10) / 1e10
}
