package models

import "math"

// ChangeKind distinguishes the two change-map families.
type ChangeKind int

const (
	// PixelChange maps are full frame resolution.
	PixelChange ChangeKind = iota
	// LatentChange maps are a coarse downsampled proxy. They approximate
	// representational change from visible output only and are not a readout
	// of the model's internal latent state.
	LatentChange
)

func (k ChangeKind) String() string {
	if k == LatentChange {
		return "latent"
	}
	return "pixel"
}

// NoiseFloor is the normalised magnitude below which a cell counts as unchanged.
const NoiseFloor = 0.01

// DefaultIntensity is the default gamma exponent for heatmaps.
const DefaultIntensity = 2.0

// ChangeMap is a grid of per-cell change magnitudes between frame ToIndex-1
// and ToIndex. It is never mutated after it is produced.
type ChangeMap struct {
	SequenceID string
	ToIndex    int
	Kind       ChangeKind
	Width      int
	Height     int
	Values     []float32
	Max        float32
}

// At returns the magnitude of cell (x, y).
func (m *ChangeMap) At(x, y int) float32 {
	return m.Values[y*m.Width+x]
}

// Mean returns the mean magnitude over the whole grid.
func (m *ChangeMap) Mean() float64 {
	if len(m.Values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range m.Values {
		sum += float64(v)
	}
	return sum / float64(len(m.Values))
}

// Normalized maps a raw magnitude to [0,1] relative to the map's own maximum
// and applies the gamma curve t^(1/intensity). ok is false when the value
// falls under the noise floor or the map holds no change at all.
func (m *ChangeMap) Normalized(v float32, intensity float64) (t float64, ok bool) {
	if m.Max <= 0 {
		return 0, false
	}
	n := float64(v) / float64(m.Max)
	if n < NoiseFloor {
		return 0, false
	}
	if n > 1 {
		n = 1
	}
	return math.Pow(n, 1/ClampIntensity(intensity)), true
}

// ClampIntensity keeps a gamma exponent in (0, 10]; invalid values fall back
// to DefaultIntensity.
func ClampIntensity(v float64) float64 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return DefaultIntensity
	}
	if v > 10 {
		return 10
	}
	return v
}
