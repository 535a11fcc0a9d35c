// Package fingerprint tags a run with a short, reproducible hash of its
// configuration, repurposing the teacher's Fiat-Shamir transcript hashing
// (golang.org/x/crypto/sha3) for run provenance instead of proof soundness.
package fingerprint

import (
	"encoding/hex"
	"fmt"
	"sort"

	"golang.org/x/crypto/sha3"

	"cosmofield/internal/config"
)

// Config hashes the fields of cfg that affect a run's numerical output
// (paths are included since a different input file is a different run,
// even at identical Seed/Threads/Lmax).
func Config(cfg config.Config) string {
	h := sha3.New256()
	fmt.Fprintf(h, "model=%s\n", cfg.Model)
	fmt.Fprintf(h, "fields_info=%s\n", cfg.FieldsInfoPath)
	fmt.Fprintf(h, "cl_prefix=%s\n", cfg.ClPrefix)
	fmt.Fprintf(h, "cl_table=%s\n", cfg.ClTablePath)
	fmt.Fprintf(h, "lmin=%d\n", cfg.Lmin)
	fmt.Fprintf(h, "lmax=%d\n", cfg.Lmax)
	fmt.Fprintf(h, "nside=%d\n", cfg.Nside)
	fmt.Fprintf(h, "seed=%d\n", cfg.Seed)
	fmt.Fprintf(h, "threads=%d\n", cfg.Threads)
	fmt.Fprintf(h, "allow_miss_cl=%v\n", cfg.AllowMissCl)
	fmt.Fprintf(h, "mindiag_frac=%g\n", cfg.MinDiagFrac)
	fmt.Fprintf(h, "badcorr_frac=%g\n", cfg.BadCorrFrac)
	fmt.Fprintf(h, "reg_maxsteps=%d\n", cfg.RegMaxSteps)
	fmt.Fprintf(h, "extrap_dipole=%v\n", cfg.ExtrapDipole)
	fmt.Fprintf(h, "crop_cl=%v\n", cfg.CropCl)
	fmt.Fprintf(h, "scale_cls=%g\n", cfg.ScaleCls)
	fmt.Fprintf(h, "gaussian_beam_arcmin=%g\n", cfg.GaussianBeamArcmin)
	fmt.Fprintf(h, "apply_pixwin=%v\n", cfg.ApplyPixwin)
	fmt.Fprintf(h, "exp_suppress_lsup=%g\n", cfg.ExpSuppressLsup)
	fmt.Fprintf(h, "exp_suppress_n=%g\n", cfg.ExpSuppressN)
	fmt.Fprintf(h, "dens2kappa=%v\n", cfg.Dens2Kappa)
	fmt.Fprintf(h, "poisson=%v\n", cfg.Poisson)
	fmt.Fprintf(h, "mean_count=%g\n", cfg.MeanCount)
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}

// Messages folds a sorted snapshot of diagnostic message text into a run
// fingerprint, so two runs that hit the same warnings in different
// goroutine-interleaved orders still fingerprint identically.
func Messages(msgs []string) string {
	sorted := append([]string(nil), msgs...)
	sort.Strings(sorted)
	h := sha3.New256()
	for _, m := range sorted {
		fmt.Fprintln(h, m)
	}
	return hex.EncodeToString(h.Sum(nil))
}
