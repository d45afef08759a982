package analysis

import (
	"image"

	"github.com/Rorical/stepscope/internal/models"
)

// PixelDiff computes the per-pixel mean absolute channel difference between
// two equally sized frames.
func PixelDiff(prev, cur *image.RGBA) (values []float32, w, h int, peak float32) {
	b := cur.Bounds()
	w, h = b.Dx(), b.Dy()
	values = make([]float32, w*h)
	for y := 0; y < h; y++ {
		po := prev.PixOffset(b.Min.X, b.Min.Y+y)
		co := cur.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < w; x++ {
			d := channelDiff(prev.Pix[po:po+3], cur.Pix[co:co+3])
			values[y*w+x] = d
			if d > peak {
				peak = d
			}
			po += 4
			co += 4
		}
	}
	return values, w, h, peak
}

// LatentDiff samples both frames onto a grid x grid lattice, taking every
// stride-th pixel inside each cell, and records the mean channel difference
// per cell.
func LatentDiff(prev, cur *image.RGBA, grid, stride int) (values []float32, peak float32) {
	if grid < 1 {
		grid = 1
	}
	if stride < 1 {
		stride = 1
	}
	b := cur.Bounds()
	w, h := b.Dx(), b.Dy()
	values = make([]float32, grid*grid)
	for gy := 0; gy < grid; gy++ {
		y0, y1 := cellSpan(gy, grid, h)
		for gx := 0; gx < grid; gx++ {
			x0, x1 := cellSpan(gx, grid, w)
			var sum float32
			var n int
			for y := y0; y < y1; y += stride {
				for x := x0; x < x1; x += stride {
					po := prev.PixOffset(b.Min.X+x, b.Min.Y+y)
					co := cur.PixOffset(b.Min.X+x, b.Min.Y+y)
					sum += channelDiff(prev.Pix[po:po+3], cur.Pix[co:co+3])
					n++
				}
			}
			var v float32
			if n > 0 {
				v = sum / float32(n)
			}
			values[gy*grid+gx] = v
			if v > peak {
				peak = v
			}
		}
	}
	return values, peak
}

// cellSpan returns the pixel range [lo, hi) covered by cell i of n across size
// pixels. Every cell covers at least one pixel when size > 0.
func cellSpan(i, n, size int) (lo, hi int) {
	lo = i * size / n
	hi = (i + 1) * size / n
	if hi <= lo {
		hi = lo + 1
	}
	if hi > size {
		hi = size
	}
	if lo >= size {
		lo = size - 1
		if lo < 0 {
			lo = 0
		}
	}
	return lo, hi
}

func channelDiff(a, b []uint8) float32 {
	return float32(absDiff(a[0], b[0])+absDiff(a[1], b[1])+absDiff(a[2], b[2])) / 3
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func newMap(seqID string, to int, kind models.ChangeKind, w, h int, values []float32, peak float32) *models.ChangeMap {
	return &models.ChangeMap{
		SequenceID: seqID,
		ToIndex:    to,
		Kind:       kind,
		Width:      w,
		Height:     h,
		Values:     values,
		Max:        peak,
	}
}
