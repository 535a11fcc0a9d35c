// Package los implements the density-to-convergence line-of-sight
// integration (spec.md §4.10): a lensing-kernel-weighted linear combination
// of density shells' harmonic coefficients into new convergence shells,
// registered into the Field Registry by augmentation (spec.md §9 Open
// Question 3), never by replacing the source density fields.
package los

import (
	"math"
	"sort"

	"cosmofield/internal/diag"
	"cosmofield/internal/draw"
	"cosmofield/internal/registry"
)

// Kernel is the lensing efficiency weighting: Weights[k][j] is the
// contribution of density shell j to output convergence shell k.
type Kernel struct {
	Weights [][]float64
}

// LensingWeight is a simplified flat-sky lensing efficiency proxy
// W(z_m|z_i) = (z_i-z_m)/(1+z_i), rising linearly from 0 at z_m=z_i to
// z_i/(1+z_i) at z_m=0, and zero for z_m>=z_i. It stands in for the full comoving-distance-ratio kernel
// (which needs a cosmological distance module this repository does not
// carry) while preserving the shape the weighted sum in BuildKernel needs:
// zero self-weight, larger weight for shells well in front of the source.
func LensingWeight(zm, zi float64) float64 {
	if zm >= zi || zi <= 0 {
		return 0
	}
	return (zi - zm) / (1 + zi)
}

// BuildKernel builds the Kernel for one f-group's density shells named by
// idx, in whatever order the caller gathered them. It returns the kernel
// together with the Zmin-sorted index order the kernel's rows/columns are
// expressed in: Integrate must be called with that same order, since row k
// and column j of the kernel refer to position k/j of the sorted slice, not
// of the original idx. Row k accumulates every shell strictly earlier in
// redshift than shell k, weighted by LensingWeight and that contributing
// shell's redshift width (spec.md §4.10).
func BuildKernel(reg *registry.Registry, idx []int) (Kernel, []int) {
	type shell struct {
		i          int
		zmin, zmax float64
	}
	shells := make([]shell, len(idx))
	for k, fi := range idx {
		f := reg.Field(fi)
		shells[k] = shell{i: fi, zmin: f.Zmin, zmax: f.Zmax}
	}
	sort.Slice(shells, func(a, b int) bool { return shells[a].zmin < shells[b].zmin })

	sorted := make([]int, len(shells))
	weights := make([][]float64, len(shells))
	for k := range shells {
		sorted[k] = shells[k].i
		row := make([]float64, len(shells))
		zi := shells[k].zmin
		for m := 0; m < k; m++ {
			zm := shells[m].zmin
			dz := shells[m].zmax - shells[m].zmin
			row[m] = LensingWeight(zm, zi) * dz
		}
		weights[k] = row
	}
	return Kernel{Weights: weights}, sorted
}

// CheckContiguity warns (does not abort) if the density fields named by
// idx are not contiguous in redshift: field i's Zmax should match field
// i+1's Zmin once sorted, within tol. A genuine gap or overlap does not
// invalidate the kernel a caller supplies, but it usually signals a
// mis-ordered FIELDS_INFO table.
func CheckContiguity(reg *registry.Registry, idx []int, tol float64, log *diag.Log) {
	type zr struct {
		i          int
		zmin, zmax float64
	}
	rows := make([]zr, len(idx))
	for k, fi := range idx {
		f := reg.Field(fi)
		rows[k] = zr{i: fi, zmin: f.Zmin, zmax: f.Zmax}
	}
	sort.Slice(rows, func(a, b int) bool { return rows[a].zmin < rows[b].zmin })
	for k := 0; k+1 < len(rows); k++ {
		gap := rows[k+1].zmin - rows[k].zmax
		if math.Abs(gap) > tol {
			log.WarnLIJ("los.CheckContiguity", -1, rows[k].i, rows[k+1].i,
				"density shells not contiguous in redshift: zmax=%.6g, next zmin=%.6g", rows[k].zmax, rows[k+1].zmin)
		}
	}
}

// Integrate computes each output convergence shell's harmonic coefficients
// as the kernel-weighted sum of the input density shells' coefficients, and
// registers one new convergence field per kernel row via
// registry.AddConvergence. idx[k] names the density field whose (f,z) pair
// and redshift range the new convergence field at kernel row k inherits.
func Integrate(reg *registry.Registry, idx []int, densityAlm map[int]draw.Alm, kernel Kernel, lmax int, log *diag.Log) (map[int]draw.Alm, []int) {
	CheckContiguity(reg, idx, 1e-6, log)

	triangleSize := draw.Index(lmax, lmax) + 1
	out := make(map[int]draw.Alm, len(kernel.Weights))
	newIdx := make([]int, len(kernel.Weights))

	for k, row := range kernel.Weights {
		alm := make(draw.Alm, triangleSize)
		for j, w := range row {
			if w == 0 || j >= len(idx) {
				continue
			}
			src := densityAlm[idx[j]]
			for i := range alm {
				if i < len(src) {
					alm[i] += complex(w, 0) * src[i]
				}
			}
		}
		var from registry.Field
		if k < len(idx) {
			from = reg.Field(idx[k])
		} else if len(idx) > 0 {
			from = reg.Field(idx[len(idx)-1])
		}
		newField := reg.AddConvergence(from)
		out[newField] = alm
		newIdx[k] = newField
	}
	return out, newIdx
}
