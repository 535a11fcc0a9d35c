// Package registry implements the Field Registry: an ordered catalogue of
// logical (f,z) fields shared by reference with every other pipeline
// component. Its fields are fixed at construction except that AddConvergence
// appends derived convergence fields and RecordInputClOrder stores the input
// Cl order.
package registry

import (
	"fmt"

	"cosmofield/internal/errs"
)

// Type tags a field as a density slice or a convergence slice, modeled as a
// small tagged variant per spec.md §9 ("inheritance of field type").
type Type int

const (
	// Density is a galaxy number-density slice.
	Density Type = 1
	// Convergence is a weak-lensing convergence slice.
	Convergence Type = 2
)

func (t Type) String() string {
	switch t {
	case Density:
		return "density"
	case Convergence:
		return "convergence"
	default:
		return "unknown"
	}
}

// Model selects the statistical target of the run.
type Model int

const (
	Lognormal Model = iota
	Gaussian
	Homogeneous
)

// Pair identifies an (f,z) label.
type Pair struct {
	F, Z int
}

// Record is one raw FIELDS_INFO line.
type Record struct {
	F, Z       int
	Mu         float64
	Shift      float64
	Type       Type
	Zmin, Zmax float64
}

// Field is one entry of the registry: the validated, indexed form of a
// Record.
type Field struct {
	Pair
	Type       Type
	Mu         float64
	Shift      float64
	Zmin, Zmax float64
}

// Registry is the ordered catalogue of Fields; AddConvergence is the only
// method that adds to it after New.
type Registry struct {
	fields      []Field
	index       map[Pair]int
	inputClPair []Pair // input Cl order, recorded once by the spectrum loader
}

// New validates records and builds a Registry. For the Lognormal
// model, every field must satisfy mu+shift>0 (spec.md §3/§4.1).
func New(records []Record, model Model) (*Registry, error) {
	if len(records) == 0 {
		return nil, errs.New(errs.Input, "registry", fmt.Errorf("no field records"))
	}
	r := &Registry{index: make(map[Pair]int, len(records))}
	for _, rec := range records {
		if rec.Zmin > rec.Zmax {
			return nil, errs.New(errs.Input, "registry",
				fmt.Errorf("field (f=%d,z=%d): zmin=%g > zmax=%g", rec.F, rec.Z, rec.Zmin, rec.Zmax))
		}
		if rec.Type != Density && rec.Type != Convergence {
			return nil, errs.New(errs.Input, "registry",
				fmt.Errorf("field (f=%d,z=%d): unknown type %d", rec.F, rec.Z, rec.Type))
		}
		if model == Lognormal && rec.Type == Density && rec.Mu+rec.Shift <= 0 {
			return nil, errs.New(errs.Input, "registry",
				fmt.Errorf("field (f=%d,z=%d): mu+shift=%g must be >0 under LOGNORMAL", rec.F, rec.Z, rec.Mu+rec.Shift))
		}
		p := Pair{F: rec.F, Z: rec.Z}
		if _, dup := r.index[p]; dup {
			return nil, errs.New(errs.Input, "registry",
				fmt.Errorf("duplicate field (f=%d,z=%d)", rec.F, rec.Z))
		}
		r.index[p] = len(r.fields)
		r.fields = append(r.fields, Field{
			Pair: p, Type: rec.Type, Mu: rec.Mu, Shift: rec.Shift, Zmin: rec.Zmin, Zmax: rec.Zmax,
		})
	}
	return r, nil
}

// Nfields returns the number of registered fields.
func (r *Registry) Nfields() int { return len(r.fields) }

// Field returns the field at index i.
func (r *Registry) Field(i int) Field { return r.fields[i] }

// Fields returns the ordered field slice (read-only use expected).
func (r *Registry) Fields() []Field { return r.fields }

// Index2Name maps an index to its (f,z) pair.
func (r *Registry) Index2Name(i int) (Pair, bool) {
	if i < 0 || i >= len(r.fields) {
		return Pair{}, false
	}
	return r.fields[i].Pair, true
}

// Name2Index maps an (f,z) pair to its index; the sentinel -1 marks an
// unknown pair.
func (r *Registry) Name2Index(p Pair) int {
	if i, ok := r.index[p]; ok {
		return i
	}
	return -1
}

// RecordInputClOrder stores the (i,j) pair order the spectrum loader
// encountered, so output can reproduce that ordering.
func (r *Registry) RecordInputClOrder(pairs []Pair) {
	r.inputClPair = append([]Pair(nil), pairs...)
}

// GetInputClOrder returns the recorded input order.
func (r *Registry) GetInputClOrder() []Pair {
	return append([]Pair(nil), r.inputClPair...)
}

// AddConvergence appends a new convergence field derived from a density
// field, augmenting the registry (spec.md §9 Open Question 3: augment, do
// not replace). Returns the new field's index.
func (r *Registry) AddConvergence(from Field) int {
	nf := Field{
		Pair:  from.Pair,
		Type:  Convergence,
		Mu:    0,
		Shift: 0,
		Zmin:  from.Zmin,
		Zmax:  from.Zmax,
	}
	idx := len(r.fields)
	r.fields = append(r.fields, nf)
	// Deliberately not added to r.index: the (f,z) pair already names the
	// source density field there. Callers address the derived field by the
	// index returned here.
	return idx
}
