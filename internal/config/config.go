// Package config loads and validates the pipeline's run configuration: a
// KEY:value text file (spec.md §6), overridable by CLI flags, with an
// optional .env-style overlay for secrets/paths that should not live in the
// checked-in config file, grounded on the teacher's ntru/io.LoadParams
// "read file, validate, report want/got" shape.
package config

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"cosmofield/internal/diag"
	"cosmofield/internal/draw"
	"cosmofield/internal/errs"
)

// Config is the single read-only struct every pipeline component reads
// from (spec.md §6).
type Config struct {
	Model string // DIST: LOGNORMAL | GAUSSIAN | HOMOGENEOUS

	FieldsInfoPath string
	ClPrefix       string // used when ClTablePath is empty
	ClTablePath    string
	OutputDir      string

	Lmin, Lmax int // LRANGE
	Nside      int

	Seed    int64 // RNDSEED
	Threads int

	AllowMissCl  bool
	MinDiagFrac  float64
	BadCorrFrac  float64
	RegMaxSteps  int
	ExtrapDipole bool
	CropCl       bool

	ScaleCls           float64 // SCALE_CLS, 0 disables Rescale
	GaussianBeamArcmin float64 // WINFUNC_SIGMA
	ApplyPixwin        bool    // APPLY_PIXWIN
	ExpSuppressLsup    float64 // SUPPRESS_L, negative disables
	ExpSuppressN       float64 // SUP_INDEX

	Dens2Kappa bool // DENS2KAPPA: enable LOS integration
	Poisson    bool // POISSON: 1 = Poisson draw, 0 = expected count

	MeanCount float64 // observables.ExpectedCounts baseline

	ExitAt string // stage name to stop after, empty runs the full pipeline

	Plot bool
}

// Default returns a Config with the pipeline's documented defaults.
func Default() Config {
	return Config{
		Model:           "LOGNORMAL",
		OutputDir:       ".",
		Lmin:            0,
		Nside:           64,
		Seed:            1,
		Threads:         1,
		MinDiagFrac:     0,
		BadCorrFrac:     0,
		RegMaxSteps:     20,
		ScaleCls:        1,
		ApplyPixwin:     true,
		ExpSuppressLsup: -1,
		ExpSuppressN:    -1,
		MeanCount:       1,
		Poisson:         true,
	}
}

// Load parses a KEY:value (or KEY=value) text file into cfg, skipping blank
// lines and lines starting with '#'. Unknown keys are recorded as warnings
// rather than fatal errors, since a config file shared across pipeline
// versions commonly carries keys a given build does not recognize yet.
func Load(path string, cfg *Config, log *diag.Log) error {
	f, err := os.Open(path)
	if err != nil {
		return errs.New(errs.Config, "config.Load", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := splitKV(line)
		if !ok {
			log.Warn("config.Load", "unparseable line %q", line)
			continue
		}
		if err := apply(cfg, key, val, log); err != nil {
			return errs.New(errs.Config, "config.Load", err)
		}
	}
	if err := sc.Err(); err != nil {
		return errs.New(errs.Config, "config.Load", err)
	}
	return nil
}

func splitKV(line string) (key, val string, ok bool) {
	sep := strings.IndexAny(line, ":=")
	if sep < 0 {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return "", "", false
		}
		return strings.ToUpper(fields[0]), strings.Join(fields[1:], " "), true
	}
	key = strings.ToUpper(strings.TrimSpace(line[:sep]))
	val = strings.TrimSpace(line[sep+1:])
	return key, val, val != "" || key != ""
}

func apply(cfg *Config, key, val string, log *diag.Log) error {
	switch key {
	case "DIST", "MODEL":
		cfg.Model = strings.ToUpper(val)
	case "FIELDS_INFO":
		cfg.FieldsInfoPath = val
	case "CL_PREFIX":
		cfg.ClPrefix = val
	case "CL_TABLE":
		cfg.ClTablePath = val
	case "OUTPUT_DIR":
		cfg.OutputDir = val
	case "LRANGE":
		fields := strings.Fields(val)
		if len(fields) != 2 {
			return fmt.Errorf("LRANGE: need two integers, got %q", val)
		}
		if err := setInt(&cfg.Lmin, fields[0]); err != nil {
			return fmt.Errorf("LRANGE: %w", err)
		}
		return setInt(&cfg.Lmax, fields[1])
	case "LMIN":
		return setInt(&cfg.Lmin, val)
	case "LMAX":
		return setInt(&cfg.Lmax, val)
	case "NSIDE":
		return setInt(&cfg.Nside, val)
	case "RNDSEED", "SEED":
		return setInt64(&cfg.Seed, val)
	case "THREADS":
		return setInt(&cfg.Threads, val)
	case "ALLOW_MISS_CL":
		return setBool(&cfg.AllowMissCl, val)
	case "MINDIAG_FRAC":
		return setFloat(&cfg.MinDiagFrac, val)
	case "BADCORR_FRAC":
		return setFloat(&cfg.BadCorrFrac, val)
	case "REG_MAXSTEPS":
		return setInt(&cfg.RegMaxSteps, val)
	case "EXTRAP_DIPOLE":
		return setBool(&cfg.ExtrapDipole, val)
	case "CROP_CL":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("CROP_CL: %w", err)
		}
		switch f {
		case 0:
			cfg.CropCl = false
		case 1:
			cfg.CropCl = true
		default:
			log.Warn("config.apply", "CROP_CL=%g is neither 0 nor 1; defaulting to 0", f)
			cfg.CropCl = false
		}
	case "SCALE_CLS":
		return setFloat(&cfg.ScaleCls, val)
	case "WINFUNC_SIGMA", "GAUSSIAN_BEAM_ARCMIN":
		return setFloat(&cfg.GaussianBeamArcmin, val)
	case "APPLY_PIXWIN":
		return setBool(&cfg.ApplyPixwin, val)
	case "SUPPRESS_L", "EXP_SUPPRESS_LSUP":
		return setFloat(&cfg.ExpSuppressLsup, val)
	case "SUP_INDEX", "EXP_SUPPRESS_N":
		return setFloat(&cfg.ExpSuppressN, val)
	case "DENS2KAPPA":
		return setBool(&cfg.Dens2Kappa, val)
	case "POISSON":
		return setBool(&cfg.Poisson, val)
	case "MEAN_COUNT":
		return setFloat(&cfg.MeanCount, val)
	case "EXIT_AT":
		cfg.ExitAt = strings.ToUpper(val)
	case "PLOT":
		return setBool(&cfg.Plot, val)
	default:
		log.Warn("config.apply", "unrecognized key %q ignored", key)
	}
	return nil
}

func setInt(dst *int, val string) error {
	v, err := strconv.Atoi(val)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func setInt64(dst *int64, val string) error {
	v, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func setFloat(dst *float64, val string) error {
	v, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func setBool(dst *bool, val string) error {
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		*dst = true
	case "0", "false", "no", "off":
		*dst = false
	default:
		v, err := strconv.ParseBool(val)
		if err != nil {
			return err
		}
		*dst = v
	}
	return nil
}

// ApplyEnvOverlay reads a .env-style file (if present) and applies any of the
// recognized keys found there onto cfg; the process environment itself is
// not modified. A missing file is not an error: the overlay is optional.
func ApplyEnvOverlay(path string, cfg *Config, log *diag.Log) error {
	env, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errs.New(errs.Config, "config.ApplyEnvOverlay", err)
	}
	for k, v := range env {
		if err := apply(cfg, strings.ToUpper(k), v, log); err != nil {
			return errs.New(errs.Config, "config.ApplyEnvOverlay", fmt.Errorf("%s: %w", k, err))
		}
	}
	return nil
}

// BindFlags registers CLI flag overrides for the model, input/output paths,
// LMIN/LMAX, NSIDE, seed, thread count, EXIT_AT and PLOT fields onto fs,
// returning a function that must be called after fs.Parse to write the
// parsed values back into cfg.
func BindFlags(fs *flag.FlagSet, cfg *Config) func() {
	model := fs.String("model", cfg.Model, "MODEL override")
	fieldsInfo := fs.String("fields-info", cfg.FieldsInfoPath, "FIELDS_INFO path override")
	clPrefix := fs.String("cl-prefix", cfg.ClPrefix, "CL_PREFIX override")
	clTable := fs.String("cl-table", cfg.ClTablePath, "CL_TABLE path override")
	outputDir := fs.String("output-dir", cfg.OutputDir, "OUTPUT_DIR override")
	lmin := fs.Int("lmin", cfg.Lmin, "LMIN override")
	lmax := fs.Int("lmax", cfg.Lmax, "LMAX override")
	nside := fs.Int("nside", cfg.Nside, "NSIDE override")
	seed := fs.Int64("seed", cfg.Seed, "SEED override")
	threads := fs.Int("threads", cfg.Threads, "THREADS override")
	exitAt := fs.String("exit-at", cfg.ExitAt, "EXIT_AT override")
	plot := fs.Bool("plot", cfg.Plot, "PLOT override")

	return func() {
		cfg.Model = strings.ToUpper(*model)
		cfg.FieldsInfoPath = *fieldsInfo
		cfg.ClPrefix = *clPrefix
		cfg.ClTablePath = *clTable
		cfg.OutputDir = *outputDir
		cfg.Lmin = *lmin
		cfg.Lmax = *lmax
		cfg.Nside = *nside
		cfg.Seed = *seed
		cfg.Threads = *threads
		cfg.ExitAt = *exitAt
		cfg.Plot = *plot
	}
}

// Validate checks the cross-field preconditions spec.md §4.7/§6 require
// before a run starts.
func Validate(cfg *Config) error {
	if cfg.Lmax < cfg.Lmin {
		return errs.New(errs.Config, "config.Validate", fmt.Errorf("LMAX=%d < LMIN=%d", cfg.Lmax, cfg.Lmin))
	}
	if cfg.Nside <= 0 {
		return errs.New(errs.Config, "config.Validate", fmt.Errorf("NSIDE must be positive, got %d", cfg.Nside))
	}
	if cfg.FieldsInfoPath == "" {
		return errs.New(errs.Config, "config.Validate", fmt.Errorf("FIELDS_INFO is required"))
	}
	if cfg.ClPrefix == "" && cfg.ClTablePath == "" {
		return errs.New(errs.Config, "config.Validate", fmt.Errorf("one of CL_PREFIX or CL_TABLE is required"))
	}
	return draw.CheckPreconditions(cfg.Seed, cfg.Threads)
}
