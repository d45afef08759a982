package analysis

import (
	"fmt"

	"github.com/Rorical/stepscope/internal/models"
)

// DefaultCriticalPercentile marks the top quarter of transitions as critical.
const DefaultCriticalPercentile = 75.0

// LatentNote travels with every exported report.
const LatentNote = "latent_changes is a downsampled proxy computed from rendered frames, not the model's internal latent state"

// Report is the exported analysis of a fully resolved sequence.
type Report struct {
	SequenceID         string     `json:"sequence_id"`
	Prompt             string     `json:"prompt"`
	NumSteps           int        `json:"num_steps"`
	Degraded           bool       `json:"degraded"`
	Timesteps          []int      `json:"timesteps"`
	NoiseVariance      []float64  `json:"noise_variance"`
	StepChanges        []*float64 `json:"step_changes"`
	LatentChanges      []*float64 `json:"latent_changes"`
	CriticalFrames     []int      `json:"critical_frames"`
	CriticalPercentile float64    `json:"critical_percentile"`
	LatentGrid         int        `json:"latent_grid"`
	LatentStride       int        `json:"latent_stride"`
	LatentNote         string     `json:"latent_note"`
}

// BuildReport assembles the report for seq. Skipped transitions are null.
// StepChanges[k] is the transition into frame k+1; CriticalFrames lists
// frame indices, so a critical transition k appears as k+1.
func (a *Analyzer) BuildReport(seq *models.Sequence, percentile float64) (*Report, error) {
	series, err := a.IntensitySeries(seq)
	if err != nil {
		return nil, fmt.Errorf("build report for %s: %w", seq.ID, err)
	}
	if percentile <= 0 || percentile >= 100 {
		percentile = DefaultCriticalPercentile
	}

	r := &Report{
		SequenceID:         seq.ID,
		Prompt:             seq.Prompt,
		NumSteps:           seq.Len(),
		Degraded:           seq.Degraded,
		Timesteps:          make([]int, seq.Len()),
		NoiseVariance:      seq.NoiseVariances(),
		StepChanges:        make([]*float64, series.Len()),
		LatentChanges:      make([]*float64, series.Len()),
		CriticalFrames:     CriticalSteps(series, percentile),
		CriticalPercentile: percentile,
		LatentGrid:         a.latent.Grid,
		LatentStride:       a.latent.Stride,
		LatentNote:         LatentNote,
	}
	for i, st := range seq.Steps {
		r.Timesteps[i] = st.Timestep
	}
	for k := range series.Values {
		if !series.Valid[k] {
			continue
		}
		v := series.Values[k]
		r.StepChanges[k] = &v
		if m, err := a.Latent(seq, k+1); err == nil {
			lv := m.Mean()
			r.LatentChanges[k] = &lv
		}
	}
	if r.CriticalFrames == nil {
		r.CriticalFrames = []int{}
	}
	return r, nil
}
