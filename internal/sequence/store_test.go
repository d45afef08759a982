package sequence

import (
	"context"
	"errors"
	"image"
	"testing"
	"testing/fstest"

	"github.com/Rorical/stepscope/internal/models"
	"github.com/Rorical/stepscope/internal/testkit/seqfakes"
)

func loadFrom(t *testing.T, src Source, id string) (*Store, *models.Sequence) {
	t.Helper()
	store := NewStore()
	seq, err := LoadSync(context.Background(), store, src, Primary, id, FetchConfig{Workers: 3})
	if err != nil {
		t.Fatalf("LoadSync: %v", err)
	}
	return store, seq
}

func TestLoadSyncStepInvariants(t *testing.T) {
	src := seqfakes.NewSource()
	src.Put("a", seqfakes.Metadata(6),
		seqfakes.Gray(4, 4, 0), seqfakes.Gray(4, 4, 10), seqfakes.Gray(4, 4, 20),
		seqfakes.Gray(4, 4, 30), seqfakes.Gray(4, 4, 40), seqfakes.Gray(4, 4, 50))

	_, seq := loadFrom(t, src, "a")

	if seq.Len() != 6 {
		t.Fatalf("expected 6 steps, got %d", seq.Len())
	}
	for i, st := range seq.Steps {
		if st.Index != i {
			t.Fatalf("step %d has index %d", i, st.Index)
		}
		if i > 0 && st.Timestep > seq.Steps[i-1].Timestep {
			t.Fatalf("timestep increases at %d", i)
		}
		if st.Timestamp.IsZero() {
			t.Fatalf("step %d timestamp not parsed", i)
		}
	}
	if !seq.Resolved() {
		t.Fatal("expected all frames resolved")
	}
	if seq.Width != 4 || seq.Height != 4 {
		t.Fatalf("expected 4x4 frames, got %dx%d", seq.Width, seq.Height)
	}
	if seq.Degraded {
		t.Fatal("sequence should not be degraded")
	}
}

func TestMissingMetadataDegradesToPlaceholder(t *testing.T) {
	src := seqfakes.NewSource()
	src.Put("broken", nil, seqfakes.Gray(2, 2, 1))

	_, seq := loadFrom(t, src, "broken")

	if !seq.Degraded {
		t.Fatal("expected degraded sequence")
	}
	if seq.Len() != DefaultFallbackSteps {
		t.Fatalf("expected %d synthetic steps, got %d", DefaultFallbackSteps, seq.Len())
	}
	for i := 1; i < seq.Len(); i++ {
		if seq.Steps[i].Timestep > seq.Steps[i-1].Timestep {
			t.Fatalf("synthetic timestep increases at %d", i)
		}
		if seq.Steps[i].NoiseVariance > seq.Steps[i-1].NoiseVariance {
			t.Fatalf("synthetic noise increases at %d", i)
		}
	}
	if seq.FrameStatus(0) != models.FrameLoaded {
		t.Fatalf("frame 0 should still load, got %s", seq.FrameStatus(0))
	}
	if seq.FrameStatus(1) != models.FrameFailed {
		t.Fatalf("frame 1 should be failed, got %s", seq.FrameStatus(1))
	}
}

func TestInvalidMetadataIsUnavailable(t *testing.T) {
	tests := []struct {
		name string
		edit func(*models.Metadata)
	}{
		{"count mismatch", func(m *models.Metadata) { m.NumInferenceSteps = 7 }},
		{"timestep increases", func(m *models.Metadata) { m.Steps[2].Timestep = 10_000 }},
		{"non contiguous", func(m *models.Metadata) { m.Steps[1].Step = 5 }},
		{"no steps", func(m *models.Metadata) { m.NumInferenceSteps = 0; m.Steps = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := seqfakes.Metadata(4)
			tt.edit(meta)
			if err := ValidateMetadata(meta); err == nil {
				t.Fatal("expected validation error")
			}

			var got MetadataResult
			src := seqfakes.NewSource()
			src.Put("x", meta)
			Fetch(context.Background(), src, LoadRequest{SequenceID: "x"}, FetchConfig{FallbackSteps: 3}, func(c Completion) {
				if r, ok := c.(MetadataResult); ok {
					got = r
				}
			})
			if !errors.Is(got.Err, ErrMetadataUnavailable) {
				t.Fatalf("expected ErrMetadataUnavailable, got %v", got.Err)
			}
		})
	}
}

func TestNoiseUptickAllowed(t *testing.T) {
	meta := seqfakes.Metadata(4)
	meta.Steps[2].NoiseVariance = 0.99
	if err := ValidateMetadata(meta); err != nil {
		t.Fatalf("noise upticks must be accepted: %v", err)
	}
}

func TestFrameUnavailableOnlyAffectsSlot(t *testing.T) {
	src := seqfakes.NewSource()
	src.Put("p", seqfakes.Metadata(5),
		seqfakes.Gray(3, 3, 0), nil, seqfakes.Gray(3, 3, 2), nil, seqfakes.Gray(3, 3, 4))

	store, seq := loadFrom(t, src, "p")

	want := []models.FrameStatus{models.FrameLoaded, models.FrameFailed, models.FrameLoaded, models.FrameFailed, models.FrameLoaded}
	for i, w := range want {
		if got := seq.FrameStatus(i); got != w {
			t.Fatalf("slot %d: expected %s, got %s", i, w, got)
		}
	}
	if seq.Frame(1) != nil {
		t.Fatal("failed slot must stay empty")
	}
	p, err := store.Progress("p")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if p.Loaded != 3 || p.Failed != 2 || !p.Done() {
		t.Fatalf("unexpected progress %+v", p)
	}
}

func TestFrameSizeMismatchRejected(t *testing.T) {
	store := NewStore()
	req, _ := store.Begin(Primary, "s")
	store.Apply(MetadataResult{Request: req, Metadata: seqfakes.Metadata(2)})
	store.Apply(FrameResult{Request: req, Index: 0, Image: seqfakes.Gray(4, 4, 0)})
	store.Apply(FrameResult{Request: req, Index: 1, Image: seqfakes.Gray(5, 4, 0)})

	seq, _ := store.Get("s")
	if seq.FrameStatus(1) != models.FrameFailed {
		t.Fatalf("mismatched frame should fail, got %s", seq.FrameStatus(1))
	}
}

func TestStaleCompletionDropped(t *testing.T) {
	var evicted []string
	store := NewStore(WithEvict(func(id string) { evicted = append(evicted, id) }))

	old, _ := store.Begin(Primary, "old")
	cur, _ := store.Begin(Primary, "new")

	if _, ok := store.Apply(MetadataResult{Request: old, Metadata: seqfakes.Metadata(2)}); ok {
		t.Fatal("completion for superseded request must be dropped")
	}
	if _, err := store.Get("old"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected old sequence evicted, got %v", err)
	}
	if len(evicted) != 1 || evicted[0] != "old" {
		t.Fatalf("expected eviction of old, got %v", evicted)
	}
	if _, ok := store.Apply(MetadataResult{Request: cur, Metadata: seqfakes.Metadata(2)}); !ok {
		t.Fatal("current completion should apply")
	}
	seq, _ := store.Active(Primary)
	if seq.ID != "new" || seq.Len() != 2 {
		t.Fatalf("unexpected active sequence %q len %d", seq.ID, seq.Len())
	}
}

func TestBeginReusesResidentSequence(t *testing.T) {
	store := NewStore()
	req, fetch := store.Begin(Primary, "a")
	if !fetch {
		t.Fatal("first begin must fetch")
	}
	store.Apply(MetadataResult{Request: req, Metadata: seqfakes.Metadata(2)})

	again, fetch := store.Begin(Secondary, "a")
	if fetch {
		t.Fatal("resident sequence must not be refetched")
	}
	if again.ID != req.ID {
		t.Fatal("expected the owning request to be reused")
	}

	// Moving the primary away keeps "a" alive for the secondary slot.
	store.Begin(Primary, "b")
	if _, err := store.Get("a"); err != nil {
		t.Fatalf("secondary reference should keep sequence resident: %v", err)
	}
}

func TestProgressReportsEverySlotSharingTheSequence(t *testing.T) {
	var slots []Slot
	store := NewStore(WithProgress(func(slot Slot, _ Progress) { slots = append(slots, slot) }))
	req, _ := store.Begin(Primary, "a")
	store.Begin(Secondary, "a")

	store.Apply(MetadataResult{Request: req, Metadata: seqfakes.Metadata(2)})
	if len(slots) != 2 || slots[0] != Primary || slots[1] != Secondary {
		t.Fatalf("expected progress for both slots, got %v", slots)
	}

	slots = nil
	store.Begin(Primary, "b")
	store.Apply(FrameResult{Request: req, Index: 0, Image: seqfakes.Gray(2, 2, 1)})
	if len(slots) != 1 || slots[0] != Secondary {
		t.Fatalf("expected progress for the secondary slot only, got %v", slots)
	}
}

func TestAbortAllowsRefetch(t *testing.T) {
	store := NewStore()
	req, fetch := store.Begin(Primary, "a")
	if !fetch {
		t.Fatal("first begin must fetch")
	}
	store.Abort(req)

	if _, err := store.Get("a"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("aborted sequence should not stay resident, got %v", err)
	}
	if id := store.ActiveID(Primary); id != "" {
		t.Fatalf("slot should be unbound, got %q", id)
	}
	again, fetch := store.Begin(Primary, "a")
	if !fetch || again.ID == req.ID {
		t.Fatal("begin after abort must start a new fetch")
	}
	if _, ok := store.Apply(MetadataResult{Request: req, Metadata: seqfakes.Metadata(2)}); ok {
		t.Fatal("completions of the aborted request must be dropped")
	}

	// Aborting a request that no longer owns the id leaves the owner alone.
	store.Abort(req)
	if _, err := store.Get("a"); err != nil {
		t.Fatalf("newer request should keep the sequence: %v", err)
	}
}

func TestFrameBeforeMetadataIsDeferred(t *testing.T) {
	var reports []Progress
	store := NewStore(WithProgress(func(_ Slot, p Progress) { reports = append(reports, p) }))
	req, _ := store.Begin(Primary, "d")

	store.Apply(FrameResult{Request: req, Index: 1, Image: seqfakes.Gray(2, 2, 9)})
	store.Apply(MetadataResult{Request: req, Metadata: seqfakes.Metadata(3)})

	seq, _ := store.Get("d")
	if seq.FrameStatus(1) != models.FrameLoaded {
		t.Fatalf("deferred frame not applied, got %s", seq.FrameStatus(1))
	}
	if len(reports) == 0 || reports[len(reports)-1].Loaded != 1 {
		t.Fatalf("expected progress with one loaded frame, got %+v", reports)
	}
}

func TestGetUnknown(t *testing.T) {
	if _, err := NewStore().Get("missing"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
}

func TestDirSource(t *testing.T) {
	fsys := fstest.MapFS{}
	if err := seqfakes.AddSequence(fsys, "fakenews_deepfake_standard", seqfakes.Metadata(2),
		[]*image.RGBA{seqfakes.Gray(3, 2, 5), seqfakes.Gray(3, 2, 6)}); err != nil {
		t.Fatal(err)
	}
	fsys["notes/readme.txt"] = &fstest.MapFile{Data: []byte("x")}

	ids, err := Sequences(fsys)
	if err != nil {
		t.Fatalf("Sequences: %v", err)
	}
	if len(ids) != 1 || ids[0] != "fakenews_deepfake_standard" {
		t.Fatalf("unexpected ids %v", ids)
	}

	_, seq := loadFrom(t, NewDirSource(fsys), "fakenews_deepfake_standard")
	if seq.Len() != 2 || !seq.Resolved() {
		t.Fatalf("expected two resolved steps, got len %d", seq.Len())
	}
	if got := seq.Frame(1).RGBAAt(0, 0).R; got != 6 {
		t.Fatalf("expected decoded pixel 6, got %d", got)
	}
	if seq.Seed == nil || *seq.Seed != 42 {
		t.Fatalf("seed not decoded")
	}
}
