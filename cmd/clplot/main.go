// Command clplot is the optional diagnostic plotting tool (spec.md §6): it
// runs the pipeline through map synthesis and renders an HTML page with the
// input/Gaussian-auxiliary Cl curves and a synthesized pixel histogram per
// field, grounded on the teacher's cmd/analysis histogram-page idiom.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"cosmofield/internal/config"
	"cosmofield/internal/diag"
	"cosmofield/internal/mapsynth"
	"cosmofield/internal/pipeline"
	"cosmofield/internal/registry"
	"cosmofield/internal/spectrum"
)

func main() {
	configPath := flag.String("config", "", "path to the KEY:value config file (required)")
	out := flag.String("out", "clplot.html", "output HTML path")
	flag.Parse()

	if *configPath == "" {
		log.Fatal("-config is required")
	}

	cfg := config.Default()
	logger := diag.New()
	if err := config.Load(*configPath, &cfg, logger); err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := config.Validate(&cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	records, err := registry.LoadRecords(cfg.FieldsInfoPath)
	if err != nil {
		log.Fatalf("load fields info: %v", err)
	}
	reg, err := registry.New(records, registry.Lognormal)
	if err != nil {
		log.Fatalf("build registry: %v", err)
	}

	res, err := pipeline.Run(reg, cfg, logger)
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}

	page := components.NewPage()
	for _, p := range sortedPairs(res.ClG) {
		page.AddCharts(clLineChart(p, res.RawCl, res.ClG))
	}
	if res.Maps != nil {
		for i := 0; i < reg.Nfields(); i++ {
			f := reg.Field(i)
			st := mapsynth.Summarize(res.Maps[i])
			page.AddCharts(histogramChart(fmt.Sprintf("field (f=%d,z=%d) pixel values", f.F, f.Z), res.Maps[i], st))
		}
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("create output: %v", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		log.Fatalf("render: %v", err)
	}
	fmt.Println("wrote", *out)
}

func sortedPairs(clG map[spectrum.Pair][]float64) []spectrum.Pair {
	pairs := make([]spectrum.Pair, 0, len(clG))
	for p := range clG {
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

func clLineChart(p spectrum.Pair, raw spectrum.Set, clG map[spectrum.Pair][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("pair (%d,%d)", p.I, p.J)}),
		charts.WithInitializationOpts(opts.Initialization{Width: "1000px", Height: "500px"}),
	)
	g := clG[p]
	xLabels := make([]string, len(g))
	gData := make([]opts.LineData, len(g))
	for l := range g {
		xLabels[l] = fmt.Sprintf("%d", l)
		gData[l] = opts.LineData{Value: g[l]}
	}
	line.SetXAxis(xLabels).AddSeries("Cl_G", gData)
	if s, ok := raw[p]; ok {
		rData := make([]opts.LineData, len(s.Points))
		for k, pt := range s.Points {
			rData[k] = opts.LineData{Value: pt.Cl}
		}
		line.AddSeries("Cl (input)", rData)
	}
	return line
}

func histogramChart(title string, values []float64, st mapsynth.Diagnostics) *charts.Bar {
	nbins := 50
	minv, maxv := values[0], values[0]
	for _, v := range values {
		if v < minv {
			minv = v
		}
		if v > maxv {
			maxv = v
		}
	}
	width := (maxv - minv) / float64(nbins)
	if width <= 0 {
		width = 1
	}
	counts := make([]int, nbins)
	labels := make([]string, nbins)
	for i := 0; i < nbins; i++ {
		labels[i] = fmt.Sprintf("%.4g", minv+(float64(i)+0.5)*width)
	}
	for _, v := range values {
		idx := int(math.Floor((v - minv) / width))
		if idx < 0 {
			idx = 0
		}
		if idx >= nbins {
			idx = nbins - 1
		}
		counts[idx]++
	}
	bars := make([]opts.BarData, nbins)
	for i, c := range counts {
		bars[i] = opts.BarData{Value: c}
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("mean=%.4g var=%.4g skew=%.4g", st.Mean, st.Variance, st.Skewness),
		}),
		charts.WithInitializationOpts(opts.Initialization{Width: "1000px", Height: "500px"}),
	)
	bar.SetXAxis(labels).AddSeries("count", bars)
	return bar
}
