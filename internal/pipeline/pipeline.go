// Package pipeline sequences the ten pipeline components end to end: field
// registry, spectrum loading, filtering, lognormal transform, covariance
// assembly, regularisation, the Cholesky draw, map synthesis, the optional
// shear builder and the density-to-convergence LOS integration, honoring
// EXIT_AT and returning every artifact a caller might want to inspect or
// write out.
package pipeline

import (
	"fmt"
	"sort"

	"cosmofield/internal/catalog"
	"cosmofield/internal/config"
	"cosmofield/internal/covariance"
	"cosmofield/internal/diag"
	"cosmofield/internal/draw"
	"cosmofield/internal/errs"
	"cosmofield/internal/filters"
	"cosmofield/internal/lognormal"
	"cosmofield/internal/los"
	"cosmofield/internal/mapsynth"
	"cosmofield/internal/observables"
	"cosmofield/internal/regularize"
	"cosmofield/internal/registry"
	"cosmofield/internal/selection"
	"cosmofield/internal/shear"
	"cosmofield/internal/sht"
	"cosmofield/internal/spectrum"
)

// Stage names recognized by EXIT_AT, in pipeline order.
const (
	StageSpectrum   = "SPECTRUM"
	StageFilters    = "FILTERS"
	StageLognormal  = "LOGNORMAL"
	StageCovariance = "COVARIANCE"
	StageRegularize = "REGULARIZE"
	StageDraw       = "DRAW"
	StageMapSynth   = "MAPSYNTH"
	StageLOS        = "LOS"
	StageShear      = "SHEAR"
	StageObserve    = "OBSERVE"
)

// Result carries every artifact a run produced, populated incrementally as
// EXIT_AT allows.
type Result struct {
	Registry  *registry.Registry
	RawCl     spectrum.Set
	ClG       map[spectrum.Pair][]float64
	Stack     covariance.Stack
	RegSteps  map[int]regularize.Result
	Alm       draw.AlmSet
	Maps      mapsynth.MapSet
	Shear     map[int]shear.Maps
	Counts    map[int][]int
	Catalog   map[int][]catalog.Object
	StoppedAt string
}

// modelFromConfig maps cfg.Model's DIST string onto the registry.Model enum
// the registry was itself built with (spec.md §6's DIST key).
func modelFromConfig(dist string) registry.Model {
	switch dist {
	case "GAUSSIAN":
		return registry.Gaussian
	case "HOMOGENEOUS":
		return registry.Homogeneous
	default:
		return registry.Lognormal
	}
}

// Run executes the pipeline for one registry of fields against cfg,
// stopping early if cfg.ExitAt names an earlier stage. DIST=HOMOGENEOUS
// skips the spectrum/covariance/draw machinery entirely (spec.md §4.8: "the
// alm stage is skipped and maps are filled with mu directly"); DIST=GAUSSIAN
// runs the same spectrum/covariance/draw machinery as LOGNORMAL but skips
// the Gaussianisation step of §4.4 and the exponentiation step of §4.8.
func Run(reg *registry.Registry, cfg config.Config, log *diag.Log) (Result, error) {
	res := Result{Registry: reg}
	model := modelFromConfig(cfg.Model)

	if model == registry.Homogeneous {
		return runHomogeneous(reg, cfg, log, res)
	}

	var set spectrum.Set
	var err error
	if cfg.ClTablePath != "" {
		set, err = spectrum.LoadTable(cfg.ClTablePath, reg, cfg.AllowMissCl, log)
	} else {
		set, err = spectrum.LoadPrefix(cfg.ClPrefix, reg, cfg.AllowMissCl, log)
	}
	if err != nil {
		return res, err
	}
	res.RawCl = set
	if cfg.ExitAt == StageSpectrum {
		res.StoppedAt = StageSpectrum
		return res, nil
	}

	var chain []filters.Filter
	if cfg.ScaleCls != 0 && cfg.ScaleCls != 1 {
		chain = append(chain, filters.Rescale(cfg.ScaleCls))
	}
	if cfg.GaussianBeamArcmin > 0 {
		chain = append(chain, filters.GaussianBeam(cfg.GaussianBeamArcmin))
	}
	if cfg.ExpSuppressLsup >= 0 && cfg.ExpSuppressN >= 0 {
		chain = append(chain, filters.ExponentialSuppression(cfg.ExpSuppressLsup, cfg.ExpSuppressN))
	}
	if cfg.ApplyPixwin && cfg.Nside > 0 {
		for _, p := range sortedPairs(set) {
			if pts := set[p].Points; len(pts) > 0 && pts[len(pts)-1].L > float64(4*cfg.Nside) {
				log.WarnLIJ("pipeline.Run", -1, p.I, p.J, "input ell range exceeds 4*NSIDE=%d; pixel window clamped at the edge", 4*cfg.Nside)
			}
		}
		chain = append(chain, filters.PixelWindow(cfg.Nside, sht.DefaultPixelWindow(cfg.Nside)))
	}
	if len(chain) > 0 {
		filters.Chain(set, chain...)
	}
	if cfg.ExitAt == StageFilters {
		res.StoppedAt = StageFilters
		return res, nil
	}

	clG := make(map[spectrum.Pair][]float64, len(set))
	opts := lognormal.Options{L: cfg.Lmax, ExtrapDipole: cfg.ExtrapDipole}
	pairs := sortedPairs(set)
	for _, p := range pairs {
		s := set[p]
		resampled := lognormal.Resample(s.Points, opts, log)
		if model == registry.Gaussian {
			// spec.md §4.4: GAUSSIAN mode skips the Gaussianisation/analysis
			// round trip; the resampled spectrum already is Cl_G.
			clG[p] = resampled
			continue
		}
		fi := reg.Field(p.I)
		fj := reg.Field(p.J)
		m := (fi.Mu + fi.Shift) * (fj.Mu + fj.Shift)
		if m == 0 {
			m = 1
		}
		cg, err := lognormal.Transform(resampled, m, log, p.I, p.J)
		if err != nil {
			return res, err
		}
		clG[p] = cg
	}
	res.ClG = clG
	if cfg.ExitAt == StageLognormal {
		res.StoppedAt = StageLognormal
		return res, nil
	}

	covOpts := covariance.Options{
		AllowMissCl: cfg.AllowMissCl,
		MinDiagFrac: cfg.MinDiagFrac,
		BadCorrFrac: cfg.BadCorrFrac,
	}
	stack, err := covariance.Assemble(reg.Nfields(), cfg.Lmin, cfg.Lmax, clG, covOpts, log)
	if err != nil {
		return res, err
	}
	res.Stack = stack
	if cfg.ExitAt == StageCovariance {
		res.StoppedAt = StageCovariance
		return res, nil
	}

	regSteps := make(map[int]regularize.Result, cfg.Lmax-cfg.Lmin+1)
	for l := cfg.Lmin; l <= cfg.Lmax; l++ {
		r := regularize.Run(stack.At(l), cfg.RegMaxSteps)
		regSteps[l] = r
		if r.Status == regularize.Exceeded {
			return res, errs.NewLIJ(errs.Numerical, "pipeline.Run", l, -1, -1,
				fmt.Errorf("regularisation exceeded REG_MAXSTEPS=%d at ell=%d", cfg.RegMaxSteps, l))
		}
		stack.M[l-cfg.Lmin] = r.M
	}
	res.Stack = stack
	res.RegSteps = regSteps
	if cfg.ExitAt == StageRegularize {
		res.StoppedAt = StageRegularize
		return res, nil
	}

	alm, err := draw.Run(stack, cfg.Seed, cfg.Threads, log)
	if err != nil {
		return res, err
	}
	res.Alm = alm
	if cfg.ExitAt == StageDraw {
		res.StoppedAt = StageDraw
		return res, nil
	}

	maps := make(mapsynth.MapSet, reg.Nfields())
	for i := 0; i < reg.Nfields(); i++ {
		f := reg.Field(i)
		maps[i] = mapsynth.Synthesize(alm[i], f.Mu, f.Shift, cfg.Lmax, cfg.Nside, f.Type, model)
	}
	res.Maps = maps
	if cfg.ExitAt == StageMapSynth {
		res.StoppedAt = StageMapSynth
		return res, nil
	}

	if cfg.Dens2Kappa {
		for _, group := range densityGroupsByF(reg) {
			kernel, sorted := los.BuildKernel(reg, group)
			densityAlm := make(map[int]draw.Alm, len(sorted))
			for _, i := range sorted {
				densityAlm[i] = alm[i]
			}
			newAlm, newIdx := los.Integrate(reg, sorted, densityAlm, kernel, cfg.Lmax, log)
			for _, i := range newIdx {
				alm[i] = newAlm[i]
				maps[i] = mapsynth.Map(sht.InverseScalar(newAlm[i], cfg.Lmax, cfg.Nside))
			}
		}
	}
	res.Alm = alm
	res.Maps = maps
	if cfg.ExitAt == StageLOS {
		res.StoppedAt = StageLOS
		return res, nil
	}

	shearMaps := make(map[int]shear.Maps)
	for i := 0; i < reg.Nfields(); i++ {
		if reg.Field(i).Type != registry.Convergence {
			continue
		}
		kappa, ok := alm[i]
		if !ok {
			continue
		}
		shearMaps[i] = shear.Synthesize(kappa, cfg.Lmax, cfg.Nside)
	}
	res.Shear = shearMaps
	if cfg.ExitAt == StageShear {
		res.StoppedAt = StageShear
		return res, nil
	}

	res.Counts, res.Catalog = observe(reg, cfg, maps)
	res.StoppedAt = StageObserve
	return res, nil
}

// runHomogeneous implements the DIST=HOMOGENEOUS path: spec.md §4.8's "the
// alm stage is skipped and maps are filled with mu directly" means none of
// the spectrum/covariance/draw machinery runs, and since no harmonic
// coefficients ever exist, neither LOS integration (which integrates
// density alm) nor the shear builder (which needs kappa_lm) can run either
// — only the map and observables stages are reachable.
func runHomogeneous(reg *registry.Registry, cfg config.Config, log *diag.Log, res Result) (Result, error) {
	for _, stage := range []string{StageSpectrum, StageFilters, StageLognormal, StageCovariance, StageRegularize, StageDraw} {
		if cfg.ExitAt == stage {
			res.StoppedAt = stage
			return res, nil
		}
	}

	npix := 12 * cfg.Nside * cfg.Nside
	maps := make(mapsynth.MapSet, reg.Nfields())
	for i := 0; i < reg.Nfields(); i++ {
		maps[i] = mapsynth.Constant(reg.Field(i).Mu, npix)
	}
	res.Maps = maps
	if cfg.ExitAt == StageMapSynth {
		res.StoppedAt = StageMapSynth
		return res, nil
	}

	if cfg.Dens2Kappa {
		log.Warn("pipeline.runHomogeneous", "DENS2KAPPA ignored under DIST=HOMOGENEOUS: no harmonic coefficients to integrate")
	}
	if cfg.ExitAt == StageLOS || cfg.ExitAt == StageShear {
		res.StoppedAt = cfg.ExitAt
		return res, nil
	}

	res.Counts, res.Catalog = observe(reg, cfg, maps)
	res.StoppedAt = StageObserve
	return res, nil
}

// observe runs the Observables stage (spec.md §4's component 10) against
// already-synthesized density maps: expected counts, a Poisson or
// expected-count draw, and catalogue assembly.
func observe(reg *registry.Registry, cfg config.Config, maps mapsynth.MapSet) (map[int][]int, map[int][]catalog.Object) {
	counts := make(map[int][]int)
	objs := make(map[int][]catalog.Object)
	sel := selection.Constant{Default: 1}
	for i := 0; i < reg.Nfields(); i++ {
		f := reg.Field(i)
		if f.Type != registry.Density {
			continue
		}
		expected := observables.ExpectedCounts(maps[i], cfg.MeanCount, sel, i)
		var c []int
		if cfg.Poisson {
			c = observables.DrawCounts(expected, cfg.Seed+int64(i))
		} else {
			c = make([]int, len(expected))
			for p, v := range expected {
				c[p] = int(v + 0.5)
			}
		}
		counts[i] = c
		objs[i] = catalog.FromCounts(c, i, cfg.Nside, catalog.Midpoint(f.Zmin, f.Zmax), 1.0)
	}
	return counts, objs
}

// densityGroupsByF partitions the registry's density field indices by their
// F label, in ascending F order, for per-field LOS integration.
func densityGroupsByF(reg *registry.Registry) [][]int {
	byF := make(map[int][]int)
	var order []int
	for i := 0; i < reg.Nfields(); i++ {
		f := reg.Field(i)
		if f.Type != registry.Density {
			continue
		}
		if _, seen := byF[f.F]; !seen {
			order = append(order, f.F)
		}
		byF[f.F] = append(byF[f.F], i)
	}
	sort.Ints(order)
	groups := make([][]int, len(order))
	for k, f := range order {
		groups[k] = byF[f]
	}
	return groups
}

func sortedPairs(set spectrum.Set) []spectrum.Pair {
	pairs := make([]spectrum.Pair, 0, len(set))
	for p := range set {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a].I != pairs[b].I {
			return pairs[a].I < pairs[b].I
		}
		return pairs[a].J < pairs[b].J
	})
	return pairs
}
