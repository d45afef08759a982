package render

import (
	"image/color"
	"math"
)

// Ramp is a list of evenly spaced color stops.
type Ramp []color.RGBA

var (
	// PixelRamp runs black, blue, cyan, yellow, red.
	PixelRamp = Ramp{
		{0, 0, 0, 255},
		{0, 0, 255, 255},
		{0, 255, 255, 255},
		{255, 255, 0, 255},
		{255, 0, 0, 255},
	}
	// LatentRamp runs purple, blue, cyan, yellow.
	LatentRamp = Ramp{
		{128, 0, 160, 255},
		{0, 0, 255, 255},
		{0, 255, 255, 255},
		{255, 255, 0, 255},
	}
)

// At interpolates the ramp at t in [0,1].
func (r Ramp) At(t float64) color.RGBA {
	if len(r) == 0 {
		return color.RGBA{}
	}
	if len(r) == 1 || t <= 0 || math.IsNaN(t) {
		return r[0]
	}
	if t >= 1 {
		return r[len(r)-1]
	}
	pos := t * float64(len(r)-1)
	i := int(pos)
	f := pos - float64(i)
	a, b := r[i], r[i+1]
	return color.RGBA{
		R: lerp(a.R, b.R, f),
		G: lerp(a.G, b.G, f),
		B: lerp(a.B, b.B, f),
		A: 255,
	}
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}

// addPixel blends c additively into pix[0:3] scaled by alpha.
func addPixel(pix []uint8, c color.RGBA, alpha float64) {
	pix[0] = saturate(float64(pix[0]) + alpha*float64(c.R))
	pix[1] = saturate(float64(pix[1]) + alpha*float64(c.G))
	pix[2] = saturate(float64(pix[2]) + alpha*float64(c.B))
	pix[3] = 255
}

func saturate(v float64) uint8 {
	if v >= 255 {
		return 255
	}
	if v <= 0 {
		return 0
	}
	return uint8(v)
}
