package models

import (
	"image"
	"time"
)

// StepRecord is one entry of the metadata "steps" array as written by the generator.
type StepRecord struct {
	Step          int     `json:"step"`
	Timestep      int     `json:"timestep"`
	NoiseVariance float64 `json:"noise_variance"`
	Timestamp     string  `json:"timestamp"`
}

// Metadata mirrors metadata.json for one captured sequence.
type Metadata struct {
	Prompt            string       `json:"prompt"`
	NegativePrompt    string       `json:"negative_prompt,omitempty"`
	NumInferenceSteps int          `json:"num_inference_steps"`
	GuidanceScale     float64      `json:"guidance_scale"`
	Seed              *int64       `json:"seed"`
	Width             int          `json:"width,omitempty"`
	Height            int          `json:"height,omitempty"`
	GeneratedAt       string       `json:"generated_at,omitempty"`
	Steps             []StepRecord `json:"steps"`
}

// Step is a read-only record of one intermediate state.
type Step struct {
	Index         int
	Timestep      int
	NoiseVariance float64
	Timestamp     time.Time
}

// FrameStatus describes the load state of one frame slot.
type FrameStatus int

const (
	FramePending FrameStatus = iota
	FrameLoaded
	FrameFailed
)

func (s FrameStatus) String() string {
	switch s {
	case FramePending:
		return "pending"
	case FrameLoaded:
		return "loaded"
	case FrameFailed:
		return "failed"
	}
	return "unknown"
}

// Sequence is one captured generative run. Identity fields never change after
// creation; a different selection produces a new Sequence.
type Sequence struct {
	ID             string
	Prompt         string
	NegativePrompt string
	GuidanceScale  float64
	Seed           *int64
	Steps          []Step

	// Degraded is set when metadata could not be loaded and Steps were synthesised.
	Degraded bool
	// Ready is false until metadata (real or synthetic) has been applied.
	Ready bool

	Width, Height int

	frames []*image.RGBA
	status []FrameStatus
}

// NewSequence creates an empty, not yet ready sequence.
func NewSequence(id string) *Sequence {
	return &Sequence{ID: id}
}

// Len returns the number of steps.
func (s *Sequence) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Steps)
}

// SetSteps installs the step list and sizes the frame slots. It is only valid
// while the sequence is not Ready.
func (s *Sequence) SetSteps(steps []Step) {
	s.Steps = steps
	s.frames = make([]*image.RGBA, len(steps))
	s.status = make([]FrameStatus, len(steps))
	s.Ready = true
}

// Frame returns the frame at index i, or nil if it is not loaded.
func (s *Sequence) Frame(i int) *image.RGBA {
	if s == nil || i < 0 || i >= len(s.frames) {
		return nil
	}
	return s.frames[i]
}

// FrameStatus reports the state of slot i. Out of range slots are pending.
func (s *Sequence) FrameStatus(i int) FrameStatus {
	if s == nil || i < 0 || i >= len(s.status) {
		return FramePending
	}
	return s.status[i]
}

// SetFrame fills slot i. Frames are immutable once set; a second call is ignored.
func (s *Sequence) SetFrame(i int, img *image.RGBA) bool {
	if i < 0 || i >= len(s.frames) || s.status[i] == FrameLoaded {
		return false
	}
	if s.Width == 0 && s.Height == 0 {
		b := img.Bounds()
		s.Width, s.Height = b.Dx(), b.Dy()
	}
	s.frames[i] = img
	s.status[i] = FrameLoaded
	return true
}

// MarkFailed records that slot i could not be loaded.
func (s *Sequence) MarkFailed(i int) bool {
	if i < 0 || i >= len(s.status) || s.status[i] != FramePending {
		return false
	}
	s.status[i] = FrameFailed
	return true
}

// Counts returns how many slots are loaded and failed.
func (s *Sequence) Counts() (loaded, failed int) {
	if s == nil {
		return 0, 0
	}
	for _, st := range s.status {
		switch st {
		case FrameLoaded:
			loaded++
		case FrameFailed:
			failed++
		}
	}
	return loaded, failed
}

// Resolved reports whether every frame slot is either loaded or failed.
func (s *Sequence) Resolved() bool {
	if s == nil || !s.Ready {
		return false
	}
	loaded, failed := s.Counts()
	return loaded+failed == len(s.Steps)
}

// NoiseVariances returns the per-step noise variance trajectory.
func (s *Sequence) NoiseVariances() []float64 {
	out := make([]float64, len(s.Steps))
	for i, st := range s.Steps {
		out[i] = st.NoiseVariance
	}
	return out
}
