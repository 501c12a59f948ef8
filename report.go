package main

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ==================== REPORT & PLOTS ====================

const (
	ratioPlotTitle  = "Further Optimized K(n) from Geometric Phase-Based φ(n)"
	ratioLegend     = "K(n) = d log|φ| / d log H"
	referenceLegend = "K = 1/2"
)

var (
	ratioColor     = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	referenceColor = color.RGBA{R: 255, A: 255}
)

// formatFloat renders the shortest decimal that round-trips, in positional
// form with a trailing ".0" for whole numbers and in exponent form when the
// decimal exponent is below -4 or at least 16.
func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	sci := strconv.FormatFloat(v, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err == nil && (exp < -4 || exp >= 16) {
		return sci
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// FormatTuple renders (mean_K, std_K, min_K, max_K, pearson_corr).
func FormatTuple(s Summary) string {
	values := s.Tuple()
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatFloat(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// WriteReport prints the two result lines to out.
func WriteReport(out io.Writer, optimalC float64, s Summary) error {
	if _, err := fmt.Fprintf(out, "optimal c: %.5f\n", optimalC); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out, FormatTuple(s))
	return err
}

// summaryWriter keeps the first write error and skips later writes.
type summaryWriter struct {
	out io.Writer
	err error
}

func (w *summaryWriter) printf(format string, args ...any) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.out, format, args...)
}

func (w *summaryWriter) println(line string) {
	w.printf("%s\n", line)
}

// WriteSummary prints the extended run summary block.
func WriteSummary(out io.Writer, res *RunResult, digits int) error {
	w := &summaryWriter{out: out}
	w.println("")
	w.println("==============================================================================")
	w.println("                        STRUCTURAL MAPPING - SUMMARY                          ")
	w.println("==============================================================================")
	w.println("")

	w.printf("Run ID:                   %s\n", res.RunID)
	w.printf("Total Time:               %s\n", formatDurationDetailed(res.Elapsed))
	w.printf("Zeros:                    %d at %d digits (%.1f Newton steps per zero)\n",
		len(res.Zeros), digits, meanIterations(res.Zeros))
	w.printf("Optimizer:                c=%.8f loss=%.8g (%d evaluations, converged=%t)\n",
		res.Optimizer.X, res.Optimizer.Fun, res.Optimizer.Evaluations, res.Optimizer.Converged)
	w.printf("Median K:                 %s\n", formatFloat(res.Summary.MedianK))
	w.printf("Phase decay exponent:     %.6f (R² = %.6f)\n", res.Summary.DecayExponent, res.Summary.DecayRSquared)
	if res.Landscape != nil {
		w.printf("Landscape best:           c=%.5f loss=%.8g over %d points\n",
			res.Landscape.Best.C, res.Landscape.Best.Loss, len(res.Landscape.Points))
	}
	w.println("")

	if len(res.Zeros) > 0 {
		w.println("First Zeros:")
		for i, z := range res.Zeros {
			if i >= 5 {
				break
			}
			w.printf("  %2d. γ = %s\n", z.Index, FormatGamma(z.Gamma, digits))
		}
		w.println("")
	}

	if len(res.PlotPaths) > 0 {
		w.println("Plots Created:")
		for _, path := range res.PlotPaths {
			w.printf("  - %s\n", path)
		}
		w.println("")
	}

	return w.err
}

func meanIterations(zeros ZeroSequence) float64 {
	if len(zeros) == 0 {
		return 0
	}
	total := 0
	for _, z := range zeros {
		total += z.Iterations
	}
	return float64(total) / float64(len(zeros))
}

// finiteXYs keeps only points with finite coordinates.
func finiteXYs(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(xs))
	for i := range xs {
		if math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) || math.IsNaN(xs[i]) || math.IsInf(xs[i], 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: xs[i], Y: ys[i]})
	}
	return pts
}

// PlotRatio renders K(n) against n with the K = 1/2 reference to path.
func PlotRatio(seq Sequences, target float64, path string) error {
	p, err := ratioPlot(seq, target)
	if err != nil {
		return err
	}
	return savePlot(p, path)
}

func ratioPlot(seq Sequences, target float64) (*plot.Plot, error) {
	pts := finiteXYs(seq.N, seq.Ratio)
	if len(pts) == 0 {
		return nil, fmt.Errorf("no finite K(n) values to plot")
	}

	p := plot.New()
	p.Title.Text = ratioPlotTitle
	p.X.Label.Text = "n"
	p.Y.Label.Text = "K(n)"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to build K(n) line: %w", err)
	}
	line.Color = ratioColor
	line.Width = vg.Points(1.5)

	ref := plotter.NewFunction(func(float64) float64 { return target })
	ref.XMin = seq.N[0]
	ref.XMax = seq.N[len(seq.N)-1]
	ref.Color = referenceColor
	ref.Width = vg.Points(1)
	ref.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}

	p.Add(plotter.NewGrid(), line, ref)
	p.Legend.Add(ratioLegend, line)
	p.Legend.Add(referenceLegend, ref)
	p.Legend.Top = true

	// Function does not report a data range; keep the reference on canvas
	p.Y.Min = math.Min(p.Y.Min, target)
	p.Y.Max = math.Max(p.Y.Max, target)

	return p, nil
}

// PlotLandscape renders loss(c) with the bounded optimum marked.
func PlotLandscape(land *Landscape, opt OptimizeResult, path string) error {
	xs := make([]float64, len(land.Points))
	ys := make([]float64, len(land.Points))
	for i, pt := range land.Points {
		xs[i], ys[i] = pt.C, pt.Loss
	}
	pts := finiteXYs(xs, ys)
	if len(pts) == 0 {
		return fmt.Errorf("no finite loss values to plot")
	}

	p := plot.New()
	p.Title.Text = "Loss |mean K - 1/2| + std K over c"
	p.X.Label.Text = "c"
	p.Y.Label.Text = "loss"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("failed to build loss line: %w", err)
	}
	line.Color = ratioColor

	p.Add(plotter.NewGrid(), line)
	p.Legend.Add("loss(c)", line)

	if !math.IsInf(opt.Fun, 0) && !math.IsNaN(opt.Fun) {
		marker, err := plotter.NewScatter(plotter.XYs{{X: opt.X, Y: opt.Fun}})
		if err != nil {
			return fmt.Errorf("failed to build optimum marker: %w", err)
		}
		marker.GlyphStyle.Color = referenceColor
		marker.GlyphStyle.Shape = draw.CircleGlyph{}
		marker.GlyphStyle.Radius = vg.Points(4)
		p.Add(marker)
		p.Legend.Add(fmt.Sprintf("optimum c = %.5f", opt.X), marker)
	}
	p.Legend.Top = true

	return savePlot(p, path)
}

// savePlot writes a 7x5 inch figure, creating the directory if needed.
func savePlot(p *plot.Plot, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create plot directory: %w", err)
		}
	}
	if err := p.Save(7*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}
