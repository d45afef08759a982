package render

import (
	"math"

	"github.com/Rorical/stepscope/internal/models"
)

// Intensity bounds accepted by the setters.
const (
	MinIntensity = 0.25
	MaxIntensity = 10.0
)

// Overlays holds the per-overlay toggles and heatmap gamma exponents.
type Overlays struct {
	Diff   bool
	Latent bool
	Graph  bool
	Panels bool

	DiffIntensity   float64
	LatentIntensity float64
}

// DefaultOverlays shows the graph and panels with both heatmaps off.
func DefaultOverlays() Overlays {
	return Overlays{
		Graph:           true,
		Panels:          true,
		DiffIntensity:   models.DefaultIntensity,
		LatentIntensity: models.DefaultIntensity,
	}
}

// SetDiffIntensity sets the pixel heatmap exponent and returns the value
// actually applied.
func (o *Overlays) SetDiffIntensity(v float64) float64 {
	o.DiffIntensity = clampIntensity(v)
	return o.DiffIntensity
}

// SetLatentIntensity sets the latent heatmap exponent and returns the value
// actually applied.
func (o *Overlays) SetLatentIntensity(v float64) float64 {
	o.LatentIntensity = clampIntensity(v)
	return o.LatentIntensity
}

func clampIntensity(v float64) float64 {
	switch {
	case math.IsNaN(v) || math.IsInf(v, -1):
		return models.DefaultIntensity
	case v < MinIntensity:
		return MinIntensity
	case v > MaxIntensity:
		return MaxIntensity
	}
	return v
}
