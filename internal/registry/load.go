package registry

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"cosmofield/internal/errs"
)

// LoadRecords parses a FIELDS_INFO text file: one field per line,
// whitespace-separated columns "f z mu shift type zmin zmax", type being
// either "density"/"convergence" or the numeric Type value. Blank lines and
// lines starting with '#' are skipped.
func LoadRecords(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.New(errs.Input, "registry.LoadRecords", err)
	}
	defer f.Close()

	var recs []Record
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cols := strings.Fields(line)
		if len(cols) != 7 {
			return nil, errs.New(errs.Input, "registry.LoadRecords",
				fmt.Errorf("%s:%d: want 7 columns, got %d", path, lineNo, len(cols)))
		}
		fNum, err1 := strconv.Atoi(cols[0])
		zNum, err2 := strconv.Atoi(cols[1])
		mu, err3 := strconv.ParseFloat(cols[2], 64)
		shift, err4 := strconv.ParseFloat(cols[3], 64)
		typ, err5 := parseType(cols[4])
		zmin, err6 := strconv.ParseFloat(cols[5], 64)
		zmax, err7 := strconv.ParseFloat(cols[6], 64)
		for _, e := range []error{err1, err2, err3, err4, err5, err6, err7} {
			if e != nil {
				return nil, errs.New(errs.Input, "registry.LoadRecords", fmt.Errorf("%s:%d: %w", path, lineNo, e))
			}
		}
		recs = append(recs, Record{F: fNum, Z: zNum, Mu: mu, Shift: shift, Type: typ, Zmin: zmin, Zmax: zmax})
	}
	if err := sc.Err(); err != nil {
		return nil, errs.New(errs.Input, "registry.LoadRecords", err)
	}
	return recs, nil
}

func parseType(s string) (Type, error) {
	switch strings.ToLower(s) {
	case "density", "1":
		return Density, nil
	case "convergence", "2":
		return Convergence, nil
	default:
		return 0, fmt.Errorf("unknown field type %q", s)
	}
}
