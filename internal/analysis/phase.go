package analysis

import (
	"strings"

	"github.com/san-kum/pathsim/internal/cv"
	"github.com/san-kum/pathsim/internal/trajectory"
	"github.com/san-kum/pathsim/internal/volume"
)

type Point struct{ X, Y float64 }

// PhasePortrait holds two CVs evaluated along a trajectory.
type PhasePortrait struct {
	XName, YName string
	Points       []Point
	// Marks flags points that lie in a highlighted volume.
	Marks []bool
}

// NewPhasePortrait evaluates x and y on every frame of t. Frames inside any
// of the highlight volumes are marked.
func NewPhasePortrait(t trajectory.Trajectory, x, y cv.CV, highlight ...volume.Volume) *PhasePortrait {
	p := &PhasePortrait{
		XName:  x.Name(),
		YName:  y.Name(),
		Points: make([]Point, t.Len()),
		Marks:  make([]bool, t.Len()),
	}
	for i := 0; i < t.Len(); i++ {
		s := t.At(i)
		p.Points[i] = Point{X: x.Eval(s), Y: y.Eval(s)}
		for _, v := range highlight {
			if v.Contains(s) {
				p.Marks[i] = true
				break
			}
		}
	}
	return p
}

// ASCII renders the portrait on a width x height character grid. Marked
// points are drawn as '●', the rest as '•'.
func (p *PhasePortrait) ASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := p.Points[0].X, p.Points[0].X
	minY, maxY := p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX, maxX = min(minX, pt.X), max(maxX, pt.X)
		minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
	}

	// 10% padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for i, pt := range p.Points {
		col := int((pt.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((pt.Y-minY)/rangeY*float64(height-1))
		if row < 0 || row >= height || col < 0 || col >= width {
			continue
		}
		if p.Marks[i] {
			canvas[row][col] = '●'
		} else if canvas[row][col] != '●' {
			canvas[row][col] = '•'
		}
	}

	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
