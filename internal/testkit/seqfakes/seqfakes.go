// Package seqfakes builds in-memory sequences, frames and sources for tests.
package seqfakes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"path"
	"testing/fstest"
	"time"

	"github.com/Rorical/stepscope/internal/models"
)

// Solid returns a w x h frame filled with c.
func Solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = 255
	}
	return img
}

// Gray returns a solid gray frame of level v.
func Gray(w, h int, v uint8) *image.RGBA {
	return Solid(w, h, color.RGBA{R: v, G: v, B: v, A: 255})
}

// Metadata returns valid metadata for n steps with falling timesteps.
func Metadata(n int) *models.Metadata {
	seed := int64(42)
	meta := &models.Metadata{
		Prompt:            "newspaper headlines morphing into smoke",
		NumInferenceSteps: n,
		GuidanceScale:     7.5,
		Seed:              &seed,
		Steps:             make([]models.StepRecord, n),
	}
	start := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	for i := range meta.Steps {
		meta.Steps[i] = models.StepRecord{
			Step:          i,
			Timestep:      (n - i) * 20,
			NoiseVariance: 1 - float64(i)/float64(n),
			Timestamp:     start.Add(time.Duration(i) * time.Second).Format("2006-01-02T15:04:05.999999"),
		}
	}
	return meta
}

// Sequence builds a ready sequence directly. nil frames stay pending.
func Sequence(id string, frames ...*image.RGBA) *models.Sequence {
	seq := models.NewSequence(id)
	steps := make([]models.Step, len(frames))
	for i := range steps {
		steps[i] = models.Step{Index: i, Timestep: (len(frames) - i) * 20, NoiseVariance: 1 - float64(i)/float64(len(frames))}
	}
	seq.Prompt = "test prompt"
	seq.GuidanceScale = 7.5
	seq.SetSteps(steps)
	for i, f := range frames {
		if f != nil {
			seq.SetFrame(i, f)
		}
	}
	return seq
}

// AddSequence writes metadata and PNG frames for id into fsys. A nil meta
// leaves metadata.json out; nil frames are skipped.
func AddSequence(fsys fstest.MapFS, id string, meta *models.Metadata, frames []*image.RGBA) error {
	if meta != nil {
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		fsys[path.Join(id, "metadata.json")] = &fstest.MapFile{Data: data}
	}
	for i, f := range frames {
		if f == nil {
			continue
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, f); err != nil {
			return err
		}
		fsys[path.Join(id, fmt.Sprintf("step_%04d.png", i))] = &fstest.MapFile{Data: buf.Bytes()}
	}
	return nil
}

// Source is an in-memory sequence source.
type Source struct {
	Metas  map[string]*models.Metadata
	Frames map[string][]*image.RGBA
}

// NewSource creates an empty Source.
func NewSource() *Source {
	return &Source{
		Metas:  make(map[string]*models.Metadata),
		Frames: make(map[string][]*image.RGBA),
	}
}

// Put registers a sequence. nil frames fail to load.
func (s *Source) Put(id string, meta *models.Metadata, frames ...*image.RGBA) {
	if meta != nil {
		s.Metas[id] = meta
	}
	s.Frames[id] = frames
}

func (s *Source) Metadata(_ context.Context, id string) (*models.Metadata, error) {
	meta, ok := s.Metas[id]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return meta, nil
}

func (s *Source) Frame(_ context.Context, id string, index int) (image.Image, error) {
	frames := s.Frames[id]
	if index < 0 || index >= len(frames) || frames[index] == nil {
		return nil, fs.ErrNotExist
	}
	return frames[index], nil
}
