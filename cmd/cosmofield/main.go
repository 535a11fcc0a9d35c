// Command cosmofield runs the shifted-lognormal field simulation pipeline
// end to end: load a config file (with optional CLI and .env overrides),
// build the field registry, and run the pipeline through whichever stage
// EXIT_AT names.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"cosmofield/internal/catalog"
	"cosmofield/internal/config"
	"cosmofield/internal/diag"
	"cosmofield/internal/fingerprint"
	"cosmofield/internal/pipeline"
	"cosmofield/internal/registry"
)

func main() {
	configPath := flag.String("config", "", "path to the KEY:value config file (required)")
	envPath := flag.String("env", ".env", "optional .env-style overlay path")

	cfg := config.Default()
	apply := config.BindFlags(flag.CommandLine, &cfg)
	flag.Parse()

	if *configPath == "" {
		log.Fatal("-config is required")
	}

	logger := diag.New()

	if err := config.Load(*configPath, &cfg, logger); err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := config.ApplyEnvOverlay(*envPath, &cfg, logger); err != nil {
		log.Fatalf("apply env overlay: %v", err)
	}
	apply()

	if err := config.Validate(&cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	runID := uuid.New().String()
	fp := fingerprint.Config(cfg)
	fmt.Printf("run %s fingerprint=%s\n", runID, fp)

	records, err := registry.LoadRecords(cfg.FieldsInfoPath)
	if err != nil {
		log.Fatalf("load fields info: %v", err)
	}
	model := registry.Lognormal
	switch cfg.Model {
	case "GAUSSIAN":
		model = registry.Gaussian
	case "HOMOGENEOUS":
		model = registry.Homogeneous
	}
	reg, err := registry.New(records, model)
	if err != nil {
		log.Fatalf("build registry: %v", err)
	}

	res, err := pipeline.Run(reg, cfg, logger)
	if err != nil {
		for _, m := range logger.Messages() {
			fmt.Fprintln(os.Stderr, m.String())
		}
		log.Fatalf("pipeline: %v", err)
	}

	for _, m := range logger.Messages() {
		fmt.Fprintln(os.Stderr, m.String())
	}
	fmt.Printf("stopped at stage %s, %d warnings\n", res.StoppedAt, logger.Count())
	if res.Maps != nil {
		for i := 0; i < reg.Nfields(); i++ {
			f := reg.Field(i)
			fmt.Printf("field (f=%d,z=%d,%s): %d pixels synthesized\n", f.F, f.Z, f.Type, len(res.Maps[i]))
		}
	}
	for i, s := range res.Shear {
		f := reg.Field(i)
		fmt.Printf("field (f=%d,z=%d): shear maps of %d pixels\n", f.F, f.Z, len(s.Gamma1))
	}
	for i, c := range res.Counts {
		f := reg.Field(i)
		total := 0
		for _, n := range c {
			total += n
		}
		fmt.Printf("field (f=%d,z=%d): %d objects catalogued\n", f.F, f.Z, total)
	}

	if err := writeCatalogs(cfg.OutputDir, reg, res.Catalog); err != nil {
		log.Fatalf("write catalogue: %v", err)
	}
}

// writeCatalogs emits one catalogue file per density field to outputDir
// (spec.md §6: the catalogue is one of the optionally-emitted outputs).
func writeCatalogs(outputDir string, reg *registry.Registry, byField map[int][]catalog.Object) error {
	for i, objs := range byField {
		f := reg.Field(i)
		path := filepath.Join(outputDir, fmt.Sprintf("catalog_f%dz%d.dat", f.F, f.Z))
		out, err := os.Create(filepath.Clean(path))
		if err != nil {
			return err
		}
		err = catalog.Write(out, objs)
		closeErr := out.Close()
		if err != nil {
			return err
		}
		if closeErr != nil {
			return closeErr
		}
	}
	return nil
}
