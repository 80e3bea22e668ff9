package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/pathsim/internal/analysis"
)

const (
	background = "#0a0a0a"
	pathStroke = "#00d7af"
	boundColor = "#ffd700"
	markColor  = "#ff5f87"
)

type frame struct {
	minX, maxX, minY, maxY float64
	width, height          int
}

// newFrame pads the data range by 10% on each side.
func newFrame(minX, maxX, minY, maxY float64, width, height int) frame {
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	return frame{
		minX:   minX - rangeX*0.1,
		maxX:   maxX + rangeX*0.1,
		minY:   minY - rangeY*0.1,
		maxY:   maxY + rangeY*0.1,
		width:  width,
		height: height,
	}
}

func (f frame) x(v float64) float64 {
	return (v - f.minX) / (f.maxX - f.minX) * float64(f.width)
}

func (f frame) y(v float64) float64 {
	return float64(f.height) - (v-f.minY)/(f.maxY-f.minY)*float64(f.height)
}

func header(sb *strings.Builder, width, height int) {
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background))
}

func polyline(sb *strings.Builder, f frame, xs, ys []float64) {
	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, pathStroke))
	for i := range xs {
		if i > 0 {
			sb.WriteString(" L")
		}
		sb.WriteString(fmt.Sprintf("%.1f,%.1f", f.x(xs[i]), f.y(ys[i])))
	}
	sb.WriteString("\"/>\n")
}

// SeriesSVG draws a CV against frame index. Finite boundaries become
// dashed horizontal lines and widen the vertical range to stay visible.
func SeriesSVG(series, boundaries []float64, width, height int) string {
	if len(series) < 2 {
		return ""
	}

	minY, maxY := series[0], series[0]
	for _, v := range series {
		minY = math.Min(minY, v)
		maxY = math.Max(maxY, v)
	}
	var lines []float64
	for _, b := range boundaries {
		if math.IsInf(b, 0) || math.IsNaN(b) {
			continue
		}
		lines = append(lines, b)
		minY = math.Min(minY, b)
		maxY = math.Max(maxY, b)
	}

	f := newFrame(0, float64(len(series)-1), minY, maxY, width, height)
	xs := make([]float64, len(series))
	for i := range xs {
		xs[i] = float64(i)
	}

	var sb strings.Builder
	header(&sb, width, height)
	for _, b := range lines {
		sb.WriteString(fmt.Sprintf(`<line x1="0" y1="%.1f" x2="%d" y2="%.1f" stroke="%s" stroke-dasharray="4 3"/>
`, f.y(b), width, f.y(b), boundColor))
	}
	polyline(&sb, f, xs, series)
	sb.WriteString("</svg>")
	return sb.String()
}

// PhaseSVG draws a phase portrait; marked points get a dot.
func PhaseSVG(p *analysis.PhasePortrait, width, height int) string {
	if p == nil || len(p.Points) < 2 {
		return ""
	}

	minX, maxX := p.Points[0].X, p.Points[0].X
	minY, maxY := p.Points[0].Y, p.Points[0].Y
	xs := make([]float64, len(p.Points))
	ys := make([]float64, len(p.Points))
	for i, pt := range p.Points {
		minX, maxX = math.Min(minX, pt.X), math.Max(maxX, pt.X)
		minY, maxY = math.Min(minY, pt.Y), math.Max(maxY, pt.Y)
		xs[i], ys[i] = pt.X, pt.Y
	}
	f := newFrame(minX, maxX, minY, maxY, width, height)

	var sb strings.Builder
	header(&sb, width, height)
	polyline(&sb, f, xs, ys)
	sb.WriteString(fmt.Sprintf("<g fill=\"%s\">\n", markColor))
	for i, pt := range p.Points {
		if i < len(p.Marks) && p.Marks[i] {
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="2"/>
`, f.x(pt.X), f.y(pt.Y)))
		}
	}
	sb.WriteString("</g>\n")
	sb.WriteString(fmt.Sprintf(`<text x="4" y="%d" fill="#8a8a8a" font-family="monospace" font-size="11">%s vs %s</text>
`, height-4, p.YName, p.XName))
	sb.WriteString("</svg>")
	return sb.String()
}
