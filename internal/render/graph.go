package render

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/Rorical/stepscope/internal/models"
)

var (
	seriesColor = color.RGBA{255, 170, 40, 255}
	noiseColor  = color.RGBA{120, 200, 255, 255}
	markerColor = color.RGBA{255, 255, 255, 255}
)

// graphRect is the bottom strip reserved for the intensity graph.
func (p *Pipeline) graphRect() image.Rectangle {
	h := p.Height / 5
	if h < 24 {
		h = 24
	}
	return image.Rect(0, p.Height-h, p.Width, p.Height)
}

// drawGraph plots the intensity series of seq, scaled to its own maximum,
// with the noise variance trajectory and a marker at index. Nothing is drawn
// until the series exists.
func (p *Pipeline) drawGraph(dst *image.RGBA, seq *models.Sequence, index int) {
	series, err := p.analyzer.IntensitySeries(seq)
	if err != nil || seq.Len() < 2 {
		return
	}
	strip := p.graphRect()
	draw.Draw(dst, strip, image.NewUniform(color.RGBA{0, 0, 0, 180}), image.Point{}, draw.Over)

	plot := strip.Inset(4)
	n := seq.Len()
	xAt := func(i int) int {
		return plot.Min.X + i*(plot.Dx()-1)/(n-1)
	}
	yAt := func(v float64) int {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		return plot.Max.Y - 1 - int(v*float64(plot.Dy()-1))
	}

	noise := seq.NoiseVariances()
	for i := 1; i < n; i++ {
		drawLine(dst, xAt(i-1), yAt(noise[i-1]), xAt(i), yAt(noise[i]), noiseColor)
	}

	if series.Max > 0 {
		// Transition k ends at frame k+1.
		for k := 1; k < series.Len(); k++ {
			if !series.Valid[k-1] || !series.Valid[k] {
				continue
			}
			drawLine(dst,
				xAt(k), yAt(series.Values[k-1]/series.Max),
				xAt(k+1), yAt(series.Values[k]/series.Max),
				seriesColor)
		}
	}

	if index >= 0 && index < n {
		x := xAt(index)
		drawLine(dst, x, plot.Min.Y, x, plot.Max.Y-1, markerColor)
	}
}

// drawLine is a Bresenham line clipped to dst.
func drawLine(dst *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	bounds := dst.Bounds()
	e := dx + dy
	for {
		if (image.Point{X: x0, Y: y0}).In(bounds) {
			dst.SetRGBA(x0, y0, c)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
