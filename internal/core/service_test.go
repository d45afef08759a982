package core

import (
	"testing"
	"time"

	"github.com/Rorical/stepscope/internal/eventbus"
	"github.com/Rorical/stepscope/internal/sequence"
	"github.com/Rorical/stepscope/internal/testkit/seqfakes"
)

func TestLoaderDeliversEveryCompletion(t *testing.T) {
	src := seqfakes.NewSource()
	src.Put("a", seqfakes.Metadata(3), seqfakes.Gray(4, 4, 0), nil, seqfakes.Gray(4, 4, 9))

	eb := eventbus.NewEventBusSize(1)
	ls := NewLoaderService(src, sequence.FetchConfig{Workers: 2}, eb, nil)
	ls.Start()
	defer ls.Stop()

	store := sequence.NewStore()
	req, fetch := store.Begin(sequence.Primary, "a")
	if !fetch {
		t.Fatal("expected a fetch")
	}
	if err := eb.SendToCore(eventbus.LoadRequestedEvent{Request: req}); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-eb.CoreToUI():
			switch e := ev.(type) {
			case eventbus.LoadCompletionEvent:
				store.Apply(e.Completion)
			case eventbus.LoadFinishedEvent:
				seq, err := store.Get("a")
				if err != nil {
					t.Fatal(err)
				}
				loaded, failed := seq.Counts()
				if loaded != 2 || failed != 1 {
					t.Fatalf("expected 2 loaded 1 failed, got %d/%d", loaded, failed)
				}
				if e.InFlight != 0 {
					t.Fatalf("expected no fetch in flight, got %d", e.InFlight)
				}
				if started, finished := ls.State().Totals(); started != 1 || finished != 1 {
					t.Fatalf("unexpected totals %d/%d", started, finished)
				}
				return
			}
		case <-timeout:
			t.Fatal("load did not finish")
		}
	}
}

func TestLoadStateDedupes(t *testing.T) {
	s := NewLoadState()
	now := time.Now()
	req := sequence.LoadRequest{ID: "r1", SequenceID: "b"}
	if !s.Begin(req, now) || s.Begin(req, now) {
		t.Fatal("second begin of the same request must be refused")
	}
	s.Begin(sequence.LoadRequest{ID: "r2", SequenceID: "a"}, now)
	if got := s.InFlight(); len(got) != 2 || got[0].SequenceID != "a" {
		t.Fatalf("unexpected in-flight list %v", got)
	}
	if d := s.Finish(req, now.Add(time.Second)); d != time.Second {
		t.Fatalf("unexpected duration %v", d)
	}
	if s.Finish(req, now) != 0 || s.Count() != 1 {
		t.Fatal("finishing twice is a no-op")
	}
}
