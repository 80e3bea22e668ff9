package viz

import (
	"math"

	"github.com/guptarohit/asciigraph"
)

type PlotOptions struct {
	Height  int
	Width   int
	Caption string
}

func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Height: 12, Width: 80}
}

// CVPlot draws series together with a flat line at every finite boundary,
// so state crossings show up against their thresholds.
func CVPlot(series []float64, boundaries []float64, opts PlotOptions) string {
	if len(series) == 0 {
		return ""
	}
	if opts.Height <= 0 || opts.Width <= 0 {
		d := DefaultPlotOptions()
		opts.Height, opts.Width = d.Height, d.Width
	}

	data := [][]float64{series}
	for _, b := range boundaries {
		if math.IsInf(b, 0) || math.IsNaN(b) {
			continue
		}
		line := make([]float64, len(series))
		for i := range line {
			line[i] = b
		}
		data = append(data, line)
	}

	return asciigraph.PlotMany(data,
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(opts.Caption),
	)
}
