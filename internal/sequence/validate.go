package sequence

import (
	"fmt"
	"time"

	"github.com/Rorical/stepscope/internal/models"
)

// DefaultFallbackSteps is the step count of the synthetic placeholder sequence.
const DefaultFallbackSteps = 50

// ValidateMetadata checks the structural invariants of a metadata record:
// one step per inference step, contiguous indices and non-increasing timesteps.
func ValidateMetadata(meta *models.Metadata) error {
	if meta == nil {
		return fmt.Errorf("no metadata")
	}
	if meta.NumInferenceSteps <= 0 {
		return fmt.Errorf("num_inference_steps must be positive, got %d", meta.NumInferenceSteps)
	}
	if len(meta.Steps) != meta.NumInferenceSteps {
		return fmt.Errorf("steps has %d entries, num_inference_steps is %d", len(meta.Steps), meta.NumInferenceSteps)
	}
	for i, st := range meta.Steps {
		if st.Step != i {
			return fmt.Errorf("step %d has index %d", i, st.Step)
		}
		if i > 0 && st.Timestep > meta.Steps[i-1].Timestep {
			return fmt.Errorf("timestep increases at step %d (%d > %d)", i, st.Timestep, meta.Steps[i-1].Timestep)
		}
	}
	if meta.GuidanceScale < 0 {
		return fmt.Errorf("guidance_scale must not be negative, got %g", meta.GuidanceScale)
	}
	return nil
}

// timestampLayouts covers Python isoformat() output with and without offset.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// StepsFromMetadata converts validated step records. Noise variance is
// clamped to [0,1]; local upticks are kept.
func StepsFromMetadata(meta *models.Metadata) []models.Step {
	steps := make([]models.Step, len(meta.Steps))
	for i, rec := range meta.Steps {
		nv := rec.NoiseVariance
		if nv < 0 {
			nv = 0
		} else if nv > 1 {
			nv = 1
		}
		steps[i] = models.Step{
			Index:         i,
			Timestep:      rec.Timestep,
			NoiseVariance: nv,
			Timestamp:     parseTimestamp(rec.Timestamp),
		}
	}
	return steps
}

// SyntheticSteps fabricates n monotonic steps for degraded mode: timesteps
// fall linearly from 999 to 0 and noise variance from 1 to 0.
func SyntheticSteps(n int) []models.Step {
	if n <= 0 {
		n = DefaultFallbackSteps
	}
	steps := make([]models.Step, n)
	for i := range steps {
		frac := 0.0
		if n > 1 {
			frac = float64(i) / float64(n-1)
		}
		steps[i] = models.Step{
			Index:         i,
			Timestep:      int(999 * (1 - frac)),
			NoiseVariance: 1 - frac,
		}
	}
	return steps
}
