package analysis

import (
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/Rorical/stepscope/internal/models"
	"github.com/Rorical/stepscope/internal/testkit/seqfakes"
)

func TestPixelDiffZeroIffIdentical(t *testing.T) {
	a := seqfakes.Gray(8, 8, 100)
	b := seqfakes.Gray(8, 8, 100)

	_, _, _, peak := PixelDiff(a, b)
	if peak != 0 {
		t.Fatalf("identical frames must have max 0, got %v", peak)
	}

	b.SetRGBA(3, 5, color.RGBA{R: 100, G: 100, B: 103, A: 255})
	values, w, _, peak := PixelDiff(a, b)
	if peak != 1 {
		t.Fatalf("expected max 1 for a single channel delta of 3, got %v", peak)
	}
	if values[5*w+3] != 1 {
		t.Fatalf("expected changed pixel recorded at (3,5)")
	}
}

func TestPixelDiffMeanOfChannels(t *testing.T) {
	a := seqfakes.Solid(1, 1, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	b := seqfakes.Solid(1, 1, color.RGBA{R: 40, G: 5, B: 30, A: 255})
	values, _, _, _ := PixelDiff(a, b)
	if values[0] != 15 { // (30 + 15 + 0) / 3
		t.Fatalf("expected 15, got %v", values[0])
	}
}

func TestLatentGridIndependentOfResolution(t *testing.T) {
	an := New(LatentConfig{Grid: 16, Stride: 3}, nil)
	for _, size := range []int{8, 40, 100} {
		seq := seqfakes.Sequence("s", seqfakes.Gray(size, size, 0), seqfakes.Gray(size, size, 90))
		m, err := an.Latent(seq, 1)
		if err != nil {
			t.Fatalf("size %d: %v", size, err)
		}
		if m.Width != 16 || m.Height != 16 || len(m.Values) != 256 {
			t.Fatalf("size %d: expected 16x16 grid, got %dx%d", size, m.Width, m.Height)
		}
		if m.Max != 90 {
			t.Fatalf("size %d: expected max 90, got %v", size, m.Max)
		}
		an.Invalidate("s")
	}
}

func TestLatentLocalisesChange(t *testing.T) {
	prev := seqfakes.Gray(64, 64, 0)
	cur := seqfakes.Gray(64, 64, 0)
	// Change only the top-left quadrant.
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			cur.SetRGBA(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}
	values, peak := LatentDiff(prev, cur, 4, 2)
	if peak != 200 {
		t.Fatalf("expected peak 200, got %v", peak)
	}
	if values[0] != 200 || values[3] != 0 || values[15] != 0 {
		t.Fatalf("unexpected latent grid %v", values)
	}
}

func TestChangeMapMemoised(t *testing.T) {
	an := New(DefaultLatentConfig(), nil)
	seq := seqfakes.Sequence("m", seqfakes.Gray(4, 4, 0), seqfakes.Gray(4, 4, 5), seqfakes.Gray(4, 4, 9))

	first, err := an.PixelDiff(seq, 2)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, _ := an.PixelDiff(seq, 2)
		if again != first {
			t.Fatal("expected cached map")
		}
	}
	if got := an.Computations(); got != 1 {
		t.Fatalf("expected one computation, got %d", got)
	}

	an.Invalidate("m")
	if again, _ := an.PixelDiff(seq, 2); again == first {
		t.Fatal("expected recompute after invalidation")
	}
}

func TestReplacedSequenceDropsCache(t *testing.T) {
	an := New(DefaultLatentConfig(), nil)
	a := seqfakes.Sequence("same", seqfakes.Gray(2, 2, 0), seqfakes.Gray(2, 2, 10))
	b := seqfakes.Sequence("same", seqfakes.Gray(2, 2, 0), seqfakes.Gray(2, 2, 60))

	ma, _ := an.PixelDiff(a, 1)
	mb, _ := an.PixelDiff(b, 1)
	if ma.Max != 10 || mb.Max != 60 {
		t.Fatalf("expected per-sequence maps, got %v and %v", ma.Max, mb.Max)
	}
}

func TestChangeMapUnavailable(t *testing.T) {
	an := New(DefaultLatentConfig(), nil)
	seq := seqfakes.Sequence("p", seqfakes.Gray(2, 2, 0), nil, seqfakes.Gray(2, 2, 2))

	tests := []struct {
		name  string
		index int
	}{
		{"first frame", 0},
		{"missing current", 1},
		{"missing previous", 2},
		{"out of range", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := an.PixelDiff(seq, tt.index); !errors.Is(err, ErrChangeMapUnavailable) {
				t.Fatalf("expected ErrChangeMapUnavailable, got %v", err)
			}
			if _, err := an.Latent(seq, tt.index); !errors.Is(err, ErrChangeMapUnavailable) {
				t.Fatalf("expected ErrChangeMapUnavailable, got %v", err)
			}
		})
	}
	if an.Computations() != 0 {
		t.Fatal("unavailable maps must not be cached")
	}

	// The missing frame arrives; the transition becomes computable.
	seq.SetFrame(1, seqfakes.Gray(2, 2, 1))
	if _, err := an.PixelDiff(seq, 1); err != nil {
		t.Fatalf("expected map once frame arrives: %v", err)
	}
}

func TestNormalizedRangeAndFloor(t *testing.T) {
	m := &models.ChangeMap{Max: 200}
	for _, intensity := range []float64{0.3, 1, 2, 5, 10} {
		for _, v := range []float32{3, 50, 100, 200} {
			got, ok := m.Normalized(v, intensity)
			if !ok {
				t.Fatalf("value %v should pass the floor", v)
			}
			if got < 0 || got > 1 {
				t.Fatalf("normalized %v out of range for intensity %v", got, intensity)
			}
		}
	}
	if _, ok := m.Normalized(1, 2); ok {
		t.Fatal("0.005 normalized is under the noise floor")
	}
	if _, ok := (&models.ChangeMap{}).Normalized(0, 2); ok {
		t.Fatal("map with no change contributes nothing")
	}
	got, _ := m.Normalized(50, 2)
	if math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("expected sqrt(0.25)=0.5, got %v", got)
	}
}

func TestIntensityChangesOnlyGamma(t *testing.T) {
	an := New(DefaultLatentConfig(), nil)
	seq := seqfakes.Sequence("g", seqfakes.Gray(4, 4, 0), seqfakes.Gray(4, 4, 40))
	m, _ := an.PixelDiff(seq, 1)
	raw := append([]float32(nil), m.Values...)

	lo, _ := m.Normalized(m.Values[0]/2, 1)
	hi, _ := m.Normalized(m.Values[0]/2, 4)
	if hi <= lo {
		t.Fatalf("larger intensity should amplify small changes: %v <= %v", hi, lo)
	}
	for i := range raw {
		if raw[i] != m.Values[i] {
			t.Fatal("raw magnitudes must not change")
		}
	}
	if an.Computations() != 1 {
		t.Fatal("changing intensity must not recompute")
	}
}

func TestIntensitySeries(t *testing.T) {
	an := New(DefaultLatentConfig(), nil)
	frames := []*image.RGBA{
		seqfakes.Gray(4, 4, 0),
		seqfakes.Gray(4, 4, 30),
		nil,
		seqfakes.Gray(4, 4, 60),
		seqfakes.Gray(4, 4, 61),
	}
	seq := seqfakes.Sequence("s", frames...)
	if _, err := an.IntensitySeries(seq); !errors.Is(err, ErrChangeMapUnavailable) {
		t.Fatalf("series must wait for the sequence to resolve, got %v", err)
	}

	seq.MarkFailed(2)
	s, err := an.IntensitySeries(seq)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 4 {
		t.Fatalf("expected 4 transitions, got %d", s.Len())
	}
	wantValid := []bool{true, false, false, true}
	for k, w := range wantValid {
		if s.Valid[k] != w {
			t.Fatalf("transition %d valid=%v, want %v", k, s.Valid[k], w)
		}
	}
	if s.Values[0] != 30 || s.Values[3] != 1 || s.Max != 30 {
		t.Fatalf("unexpected series %+v", s)
	}

	again, _ := an.IntensitySeries(seq)
	if again != s {
		t.Fatal("series should be computed once")
	}
}

func TestCriticalSteps(t *testing.T) {
	s := &Series{
		Values: []float64{1, 2, 3, 4, 10, 0},
		Valid:  []bool{true, true, true, true, true, false},
	}
	got := CriticalSteps(s, 75)
	if len(got) != 1 || got[0] != 5 {
		t.Fatalf("expected frame 5 critical, got %v", got)
	}
	if p := Percentile([]float64{1, 2, 3, 4, 10}, 50); p != 3 {
		t.Fatalf("expected median 3, got %v", p)
	}
}

func TestBuildReport(t *testing.T) {
	an := New(LatentConfig{Grid: 2, Stride: 1}, nil)
	seq := seqfakes.Sequence("r", seqfakes.Gray(4, 4, 0), seqfakes.Gray(4, 4, 8), seqfakes.Gray(4, 4, 80))

	r, err := an.BuildReport(seq, 0)
	if err != nil {
		t.Fatal(err)
	}
	if r.NumSteps != 3 || len(r.StepChanges) != 2 || len(r.LatentChanges) != 2 {
		t.Fatalf("unexpected report shape %+v", r)
	}
	if *r.StepChanges[1] != 72 || *r.LatentChanges[1] != 72 {
		t.Fatalf("unexpected change values %v %v", *r.StepChanges[1], *r.LatentChanges[1])
	}
	if r.CriticalPercentile != DefaultCriticalPercentile || r.LatentNote == "" {
		t.Fatalf("report defaults missing: %+v", r)
	}
	// Transition 1 (frame 1 to 2) is the large one; it is reported as frame 2.
	if len(r.CriticalFrames) != 1 || r.CriticalFrames[0] != 2 {
		t.Fatalf("expected frame 2 critical, got %v", r.CriticalFrames)
	}
	out, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `"critical_frames":[2]`) || strings.Contains(string(out), `"critical_steps"`) {
		t.Fatalf("unexpected report json %s", out)
	}
}
