// Package errs defines the typed error kinds the pipeline can raise and the
// (stage, l, i, j) annotation used to keep diagnostics reproducible across
// runs.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline error so the orchestrator can decide whether to
// abort or continue.
type Kind int

const (
	// Config marks an unknown or ill-formed configuration option.
	Config Kind = iota
	// Input marks a missing or malformed spectrum or field list.
	Input
	// Domain marks a non-positive Gaussianisation argument, a negative
	// variance, or |rho|>1 surviving validation.
	Domain
	// Numerical marks a Cholesky failure or an exhausted regulariser.
	Numerical
	// Resource marks an allocation or I/O failure.
	Resource
)

func (k Kind) String() string {
	switch k {
	case Config:
		return "ConfigError"
	case Input:
		return "InputError"
	case Domain:
		return "DomainError"
	case Numerical:
		return "NumericalError"
	case Resource:
		return "ResourceError"
	default:
		return "UnknownError"
	}
}

// E is a pipeline error annotated with the stage and (l,i,j) it occurred at,
// so error messages stay reproducible across runs regardless of the
// scheduling of parallel regions.
type E struct {
	Kind  Kind
	Stage string
	L     int
	I, J  int
	// HasLIJ reports whether L/I/J are meaningful for this error.
	HasLIJ bool
	Err    error
}

func (e *E) Error() string {
	if e.HasLIJ {
		return fmt.Sprintf("%s[%s l=%d i=%d j=%d]: %v", e.Kind, e.Stage, e.L, e.I, e.J, e.Err)
	}
	return fmt.Sprintf("%s[%s]: %v", e.Kind, e.Stage, e.Err)
}

func (e *E) Unwrap() error { return e.Err }

// New constructs a stage-only error.
func New(kind Kind, stage string, err error) *E {
	return &E{Kind: kind, Stage: stage, Err: err}
}

// NewLIJ constructs an error annotated with (l,i,j).
func NewLIJ(kind Kind, stage string, l, i, j int, err error) *E {
	return &E{Kind: kind, Stage: stage, L: l, I: i, J: j, HasLIJ: true, Err: err}
}

// Is reports whether err (or something it wraps) has the given Kind.
func Is(err error, kind Kind) bool {
	var e *E
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
