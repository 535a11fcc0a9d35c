// Package spectrum implements the Spectrum Loader: ingestion of Cl(i,j)
// samples from either per-pair files or a single multi-column table.
package spectrum

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"cosmofield/internal/diag"
	"cosmofield/internal/errs"
	"cosmofield/internal/registry"
)

// Point is one (l, Cl) sample.
type Point struct {
	L  float64
	Cl float64
}

// Pair identifies an ordered (i,j) field-index pair.
type Pair struct {
	I, J int
}

// Sample is the length-k ell-monotone sequence of samples for an ordered
// pair (i,j). Invariant: L-monotone, k>=2 (spec.md §3).
type Sample struct {
	Pair
	Points []Point
}

func (s *Sample) validate() error {
	if len(s.Points) < 2 {
		return fmt.Errorf("pair (%d,%d): need at least 2 samples, got %d", s.I, s.J, len(s.Points))
	}
	for k := 1; k < len(s.Points); k++ {
		if s.Points[k].L <= s.Points[k-1].L {
			return fmt.Errorf("pair (%d,%d): ell values not monotone at index %d", s.I, s.J, k)
		}
	}
	return nil
}

// Set is the loaded collection of spectra, keyed by ordered pair.
type Set map[Pair]*Sample

var headerToken = regexp.MustCompile(`Cl-f(\d+)z(\d+)f(\d+)z(\d+)`)

// LoadPrefix probes the filesystem for "<prefix>f{af}z{az}f{bf}z{bz}.dat" for
// every ordered (i,j) named by reg, recording the order pairs were found in
// reg's input-Cl-order ledger.
func LoadPrefix(prefix string, reg *registry.Registry, allowMiss bool, log *diag.Log) (Set, error) {
	n := reg.Nfields()
	set := make(Set)
	var order []registry.Pair
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			fi, _ := reg.Index2Name(i)
			fj, _ := reg.Index2Name(j)
			path := fmt.Sprintf("%sf%dz%df%dz%d.dat", prefix, fi.F, fi.Z, fj.F, fj.Z)
			pts, err := readTwoColumn(path)
			if err != nil && os.IsNotExist(err) && i != j {
				pts, err = readTwoColumn(fmt.Sprintf("%sf%dz%df%dz%d.dat", prefix, fj.F, fj.Z, fi.F, fi.Z))
			}
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return nil, errs.New(errs.Input, "spectrum.LoadPrefix", err)
			}
			s := &Sample{Pair: Pair{I: i, J: j}, Points: pts}
			if err := s.validate(); err != nil {
				return nil, errs.New(errs.Input, "spectrum.LoadPrefix", err)
			}
			set[s.Pair] = s
			order = append(order, registry.Pair{F: fi.F, Z: fi.Z}, registry.Pair{F: fj.F, Z: fj.Z})
		}
	}
	if err := checkMissing(set, n, allowMiss, log); err != nil {
		return nil, err
	}
	reg.RecordInputClOrder(order)
	return set, nil
}

func readTwoColumn(path string) ([]Point, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var pts []Point
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		l, err1 := strconv.ParseFloat(fields[0], 64)
		cl, err2 := strconv.ParseFloat(fields[1], 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("%s: malformed row %q", path, line)
		}
		pts = append(pts, Point{L: l, Cl: cl})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return pts, nil
}

// LoadTable parses a single multi-column file whose first column is ell and
// whose remaining headers match Cl-f{af}z{az}f{bf}z{bz}. Unknown labels are
// skipped with a warning rather than failing the run.
func LoadTable(path string, reg *registry.Registry, allowMiss bool, log *diag.Log) (Set, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, errs.New(errs.Input, "spectrum.LoadTable", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return nil, errs.New(errs.Input, "spectrum.LoadTable", fmt.Errorf("%s: empty file", path))
	}
	header := strings.Fields(sc.Text())
	if len(header) < 2 {
		return nil, errs.New(errs.Input, "spectrum.LoadTable", fmt.Errorf("%s: need at least 2 columns", path))
	}
	cols := make([]Pair, len(header))
	cols[0] = Pair{I: -1, J: -1} // ell column
	for c := 1; c < len(header); c++ {
		m := headerToken.FindStringSubmatch(header[c])
		if m == nil {
			log.Warn("spectrum.LoadTable", "skipping unrecognised column %q", header[c])
			cols[c] = Pair{I: -1, J: -1}
			continue
		}
		af, az, bf, bz := atoiMust(m[1]), atoiMust(m[2]), atoiMust(m[3]), atoiMust(m[4])
		i := reg.Name2Index(registry.Pair{F: af, Z: az})
		j := reg.Name2Index(registry.Pair{F: bf, Z: bz})
		if i < 0 || j < 0 {
			log.Warn("spectrum.LoadTable", "skipping column %q: unknown field label", header[c])
			cols[c] = Pair{I: -1, J: -1}
			continue
		}
		if i > j {
			i, j = j, i
		}
		cols[c] = Pair{I: i, J: j}
	}

	acc := make(map[Pair][]Point)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != len(header) {
			return nil, errs.New(errs.Input, "spectrum.LoadTable", fmt.Errorf("%s: row has %d columns, want %d", path, len(fields), len(header)))
		}
		l, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, errs.New(errs.Input, "spectrum.LoadTable", fmt.Errorf("%s: malformed ell %q", path, fields[0]))
		}
		for c := 1; c < len(fields); c++ {
			p := cols[c]
			if p.I < 0 {
				continue
			}
			cl, err := strconv.ParseFloat(fields[c], 64)
			if err != nil {
				return nil, errs.New(errs.Input, "spectrum.LoadTable", fmt.Errorf("%s: malformed value %q", path, fields[c]))
			}
			acc[p] = append(acc[p], Point{L: l, Cl: cl})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errs.New(errs.Input, "spectrum.LoadTable", err)
	}

	set := make(Set, len(acc))
	var order []registry.Pair
	orderedPairs := make([]Pair, 0, len(acc))
	for p := range acc {
		orderedPairs = append(orderedPairs, p)
	}
	sort.Slice(orderedPairs, func(a, b int) bool {
		if orderedPairs[a].I != orderedPairs[b].I {
			return orderedPairs[a].I < orderedPairs[b].I
		}
		return orderedPairs[a].J < orderedPairs[b].J
	})
	for _, p := range orderedPairs {
		s := &Sample{Pair: p, Points: acc[p]}
		if err := s.validate(); err != nil {
			return nil, errs.New(errs.Input, "spectrum.LoadTable", err)
		}
		set[p] = s
		fi, _ := reg.Index2Name(p.I)
		fj, _ := reg.Index2Name(p.J)
		order = append(order, fi, fj)
	}
	if err := checkMissing(set, reg.Nfields(), allowMiss, log); err != nil {
		return nil, err
	}
	reg.RecordInputClOrder(order)
	return set, nil
}

func atoiMust(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

// checkMissing enforces "absence of both (i,j) and (j,i) is fatal unless
// ALLOW_MISS_CL". The assembler fills the symmetric counterpart later; this
// only validates that at least one direction is present.
func checkMissing(set Set, n int, allowMiss bool, log *diag.Log) error {
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if _, ok := set[Pair{I: i, J: j}]; ok {
				continue
			}
			if allowMiss {
				log.WarnLIJ("spectrum", 0, i, j, "missing pair, will be filled as zero")
				continue
			}
			return errs.New(errs.Input, "spectrum", fmt.Errorf("missing pair (%d,%d) and ALLOW_MISS_CL is not set", i, j))
		}
	}
	return nil
}
