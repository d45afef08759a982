package narrate

import (
	"context"
	"fmt"

	"github.com/Rorical/stepscope/internal/analysis"
	"github.com/Rorical/stepscope/internal/models"
)

// subject is the sequence the analysis tools answer questions about.
type subject struct {
	seq      *models.Sequence
	analyzer *analysis.Analyzer
}

// RegisterAnalysisTools registers the sequence tools for seq.
func RegisterAnalysisTools(r *Registry, seq *models.Sequence, an *analysis.Analyzer) {
	s := &subject{seq: seq, analyzer: an}
	r.Register(&MetadataTool{s})
	r.Register(&SeriesTool{s})
	r.Register(&CriticalStepsTool{s})
	r.Register(&StepDetailTool{s})
}

// MetadataTool describes the generation parameters.
type MetadataTool struct{ *subject }

func (t *MetadataTool) Name() string { return "sequence_metadata" }

func (t *MetadataTool) Description() string {
	return "Get the prompt, step count, guidance scale and seed of the sequence"
}

func (t *MetadataTool) Parameters() map[string]interface{} { return map[string]interface{}{} }

func (t *MetadataTool) RequiredParameters() []string { return nil }

func (t *MetadataTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	loaded, failed := t.seq.Counts()
	out := map[string]interface{}{
		"sequence_id":     t.seq.ID,
		"prompt":          t.seq.Prompt,
		"num_steps":       t.seq.Len(),
		"guidance_scale":  t.seq.GuidanceScale,
		"frames_loaded":   loaded,
		"frames_missing":  failed,
		"degraded":        t.seq.Degraded,
		"width":           t.seq.Width,
		"height":          t.seq.Height,
		"negative_prompt": t.seq.NegativePrompt,
	}
	if t.seq.Seed != nil {
		out["seed"] = *t.seq.Seed
	}
	return out, nil
}

// SeriesTool returns the intensity series.
type SeriesTool struct{ *subject }

func (t *SeriesTool) Name() string { return "intensity_series" }

func (t *SeriesTool) Description() string {
	return "Get the mean pixel change of every transition; entry k is the change from step k to step k+1, null when a frame is missing"
}

func (t *SeriesTool) Parameters() map[string]interface{} { return map[string]interface{}{} }

func (t *SeriesTool) RequiredParameters() []string { return nil }

func (t *SeriesTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	s, err := t.analyzer.IntensitySeries(t.seq)
	if err != nil {
		return nil, err
	}
	values := make([]*float64, s.Len())
	for k, v := range s.Values {
		if s.Valid[k] {
			v := v
			values[k] = &v
		}
	}
	return map[string]interface{}{
		"values":      values,
		"max":         s.Max,
		"noise_curve": t.seq.NoiseVariances(),
	}, nil
}

// CriticalStepsTool lists the steps with the largest incoming change.
type CriticalStepsTool struct{ *subject }

func (t *CriticalStepsTool) Name() string { return "critical_steps" }

func (t *CriticalStepsTool) Description() string {
	return "List the steps whose incoming change exceeds a percentile of all transitions"
}

func (t *CriticalStepsTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"percentile": map[string]interface{}{
			"type":        "number",
			"description": "Threshold percentile between 0 and 100 (default 75)",
		},
	}
}

func (t *CriticalStepsTool) RequiredParameters() []string { return nil }

func (t *CriticalStepsTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	percentile := analysis.DefaultCriticalPercentile
	if val, exists := args["percentile"]; exists {
		if num, ok := val.(float64); ok && num > 0 && num < 100 {
			percentile = num
		}
	}
	s, err := t.analyzer.IntensitySeries(t.seq)
	if err != nil {
		return nil, err
	}
	steps := analysis.CriticalSteps(s, percentile)
	out := make([]map[string]interface{}, 0, len(steps))
	for _, i := range steps {
		out = append(out, map[string]interface{}{
			"step":     i,
			"timestep": t.seq.Steps[i].Timestep,
			"change":   s.Values[i-1],
		})
	}
	return map[string]interface{}{"percentile": percentile, "steps": out}, nil
}

// StepDetailTool reports everything known about one step.
type StepDetailTool struct{ *subject }

func (t *StepDetailTool) Name() string { return "step_detail" }

func (t *StepDetailTool) Description() string {
	return "Get timestep, noise variance, frame status and change magnitudes for one step"
}

func (t *StepDetailTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"step": map[string]interface{}{
			"type":        "integer",
			"description": "Zero-based step index",
		},
	}
}

func (t *StepDetailTool) RequiredParameters() []string { return []string{"step"} }

func (t *StepDetailTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	num, ok := args["step"].(float64)
	if !ok {
		return nil, fmt.Errorf("step parameter is required")
	}
	i := int(num)
	if i < 0 || i >= t.seq.Len() {
		return nil, fmt.Errorf("step %d out of range [0, %d)", i, t.seq.Len())
	}
	st := t.seq.Steps[i]
	out := map[string]interface{}{
		"step":           i,
		"timestep":       st.Timestep,
		"noise_variance": st.NoiseVariance,
		"frame":          t.seq.FrameStatus(i).String(),
	}
	if m, err := t.analyzer.PixelDiff(t.seq, i); err == nil {
		out["pixel_change_mean"] = m.Mean()
		out["pixel_change_max"] = m.Max
	}
	if m, err := t.analyzer.Latent(t.seq, i); err == nil {
		out["latent_change_mean"] = m.Mean()
	}
	return out, nil
}
