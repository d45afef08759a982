package update

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/stepscope/internal/analysis"
	"github.com/Rorical/stepscope/internal/catalog"
	"github.com/Rorical/stepscope/internal/eventbus"
	"github.com/Rorical/stepscope/internal/render"
	"github.com/Rorical/stepscope/internal/sequence"
	"github.com/Rorical/stepscope/internal/testkit/seqfakes"
)

type recordingLoader struct {
	requests []sequence.LoadRequest
}

func (l *recordingLoader) RequestLoad(req sequence.LoadRequest) error {
	l.requests = append(l.requests, req)
	return nil
}

func newTestPlayer(t *testing.T) (*Player, *recordingLoader, *seqfakes.Source) {
	t.Helper()
	an := analysis.New(analysis.LatentConfig{Grid: 4, Stride: 1}, nil)
	store := sequence.NewStore(sequence.WithEvict(an.Invalidate))
	loader := &recordingLoader{}
	p := NewPlayer(PlayerConfig{
		Store:    store,
		Analyzer: an,
		Pipeline: render.New(32, 32, an),
		Overlays: render.DefaultOverlays(),
		Loader:   loader,
	})
	HandleWindowSizeMsg(p, tea.WindowSizeMsg{Width: 80, Height: 24})
	return p, loader, seqfakes.NewSource()
}

// fetchAll runs the loader side of req and returns its completions as one
// core event message.
func fetchAll(src sequence.Source, req sequence.LoadRequest) CoreEventMsg {
	var (
		mu  sync.Mutex
		msg CoreEventMsg
	)
	sequence.Fetch(context.Background(), src, req, sequence.FetchConfig{Workers: 2}, func(c sequence.Completion) {
		mu.Lock()
		defer mu.Unlock()
		msg.Events = append(msg.Events, eventbus.LoadCompletionEvent{Completion: c})
	})
	msg.Events = append(msg.Events, eventbus.LoadFinishedEvent{Request: req})
	return msg
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestOpenLoadsAndPlays(t *testing.T) {
	p, loader, src := newTestPlayer(t)
	sel := catalog.Selection{Theme: catalog.Deepfake, Mode: catalog.LowSteps}
	src.Put("fakenews_deepfake_low_steps", seqfakes.Metadata(3),
		seqfakes.Gray(8, 8, 0), seqfakes.Gray(8, 8, 50), seqfakes.Gray(8, 8, 100))

	if err := p.Open(sel); err != nil {
		t.Fatal(err)
	}
	if len(loader.requests) != 1 || loader.requests[0].SequenceID != "fakenews_deepfake_low_steps" {
		t.Fatalf("unexpected requests %v", loader.requests)
	}
	if p.App.Title != "Deepfake / low_steps" {
		t.Fatalf("unexpected title %q", p.App.Title)
	}

	HandleCoreEvent(p, fetchAll(src, loader.requests[0]))
	if p.App.Loading {
		t.Fatal("load should be complete")
	}

	now := time.Now()
	HandleTickMsg(p, now)
	if p.Playback.Length() != 3 {
		t.Fatalf("expected length 3, got %d", p.Playback.Length())
	}
	if p.Surface == nil || p.SurfaceView == "" {
		t.Fatal("expected a rendered surface")
	}

	HandleKeyMsg(p, tea.KeyMsg{Type: tea.KeySpace})
	if !p.Playback.Playing() {
		t.Fatal("space should start playback")
	}
	HandleTickMsg(p, now.Add(time.Second))
	if p.Playback.Index() != 1 {
		t.Fatalf("expected one advance, got index %d", p.Playback.Index())
	}
}

func TestStaleCompletionsIgnored(t *testing.T) {
	p, loader, src := newTestPlayer(t)
	src.Put("a", seqfakes.Metadata(2), seqfakes.Gray(4, 4, 0), seqfakes.Gray(4, 4, 1))
	src.Put("b", seqfakes.Metadata(4), seqfakes.Gray(4, 4, 0), seqfakes.Gray(4, 4, 1), seqfakes.Gray(4, 4, 2), seqfakes.Gray(4, 4, 3))

	p.OpenID("a")
	p.OpenID("b")
	stale := fetchAll(src, loader.requests[0])
	HandleCoreEvent(p, stale)
	if _, ok := p.Progress["a"]; ok {
		t.Fatal("completions for a superseded request must be dropped")
	}

	HandleCoreEvent(p, fetchAll(src, loader.requests[1]))
	HandleTickMsg(p, time.Now())
	if p.Playback.Length() != 4 {
		t.Fatalf("expected the current sequence, got length %d", p.Playback.Length())
	}
}

// failOnceLoader rejects its first request, like a full core channel.
type failOnceLoader struct {
	recordingLoader
	failed bool
}

func (l *failOnceLoader) RequestLoad(req sequence.LoadRequest) error {
	if !l.failed {
		l.failed = true
		return eventbus.ErrChannelFull
	}
	return l.recordingLoader.RequestLoad(req)
}

func TestFailedLoadRequestCanBeRetried(t *testing.T) {
	p, _, src := newTestPlayer(t)
	loader := &failOnceLoader{}
	p.loader = loader
	src.Put("x", seqfakes.Metadata(2), seqfakes.Gray(4, 4, 0), seqfakes.Gray(4, 4, 9))

	p.OpenID("x")
	if p.Store.ActiveID(sequence.Primary) != "" {
		t.Fatal("a rejected request must not leave the sequence bound")
	}
	if p.App.Status == "Ready" {
		t.Fatal("the failure should be reported in the status line")
	}

	p.OpenID("x")
	if len(loader.requests) != 1 {
		t.Fatalf("reopening should request the load again, got %d requests", len(loader.requests))
	}
	HandleCoreEvent(p, fetchAll(src, loader.requests[0]))
	seq, _ := p.Store.Active(sequence.Primary)
	if !seq.Ready || seq.Len() != 2 {
		t.Fatalf("expected the retried sequence to load, got ready=%v len=%d", seq.Ready, seq.Len())
	}
}

func TestOverlayKeys(t *testing.T) {
	p, _, _ := newTestPlayer(t)

	HandleKeyMsg(p, runes("d"))
	HandleKeyMsg(p, runes("l"))
	if !p.Overlays.Diff || !p.Overlays.Latent {
		t.Fatal("d and l toggle the heatmaps")
	}
	HandleKeyMsg(p, runes("-"))
	HandleKeyMsg(p, runes("."))
	if p.Overlays.DiffIntensity != 1.75 || p.Overlays.LatentIntensity != 2.25 {
		t.Fatalf("unexpected intensities %v %v", p.Overlays.DiffIntensity, p.Overlays.LatentIntensity)
	}
	for i := 0; i < 20; i++ {
		HandleKeyMsg(p, runes("-"))
	}
	if p.Overlays.DiffIntensity != render.MinIntensity {
		t.Fatalf("intensity should stop at %v, got %v", render.MinIntensity, p.Overlays.DiffIntensity)
	}
	HandleKeyMsg(p, runes("]"))
	if p.Playback.Speed() != 1.1 {
		t.Fatalf("expected speed 1.1, got %v", p.Playback.Speed())
	}
	HandleKeyMsg(p, runes("?"))
	if !p.App.ShowHelp {
		t.Fatal("? toggles help")
	}
	if _, ok := HandleKeyMsg(p, runes("q"))().(tea.QuitMsg); !ok {
		t.Fatal("q quits")
	}
}

func TestComparisonFollowsPrimary(t *testing.T) {
	p, loader, src := newTestPlayer(t)
	sel := catalog.Selection{Theme: catalog.Propaganda, Mode: catalog.Standard}
	long := seqfakes.Metadata(6)
	short := seqfakes.Metadata(3)
	src.Put("fakenews_propaganda_standard", long,
		seqfakes.Gray(4, 4, 0), seqfakes.Gray(4, 4, 1), seqfakes.Gray(4, 4, 2),
		seqfakes.Gray(4, 4, 3), seqfakes.Gray(4, 4, 4), seqfakes.Gray(4, 4, 5))
	src.Put("fakenews_propaganda_low_steps", short,
		seqfakes.Gray(4, 4, 0), seqfakes.Gray(4, 4, 1), seqfakes.Gray(4, 4, 2))

	if err := p.Open(sel); err != nil {
		t.Fatal(err)
	}
	HandleKeyMsg(p, runes("c"))
	if !p.Compare.Active() || p.Compare.SecondaryID() != "fakenews_propaganda_low_steps" {
		t.Fatalf("expected comparison with the next mode, got %+v", p.Compare.State())
	}
	if len(loader.requests) != 2 || loader.requests[1].Slot != sequence.Secondary {
		t.Fatalf("expected a secondary load, got %v", loader.requests)
	}
	for _, req := range loader.requests {
		HandleCoreEvent(p, fetchAll(src, req))
	}

	HandleTickMsg(p, time.Now())
	p.Playback.Seek(5)
	HandleTickMsg(p, time.Now())
	if got := p.Compare.State().CurrentIndex; got != 2 {
		t.Fatalf("comparison index should clamp to 2, got %d", got)
	}

	HandleKeyMsg(p, runes("c"))
	if p.Compare.Active() {
		t.Fatal("c toggles comparison off")
	}
	if _, err := p.Store.Get("fakenews_propaganda_low_steps"); err != nil {
		t.Fatal("deactivation keeps the secondary resident")
	}
}

func TestThemeKeyOpensNextTheme(t *testing.T) {
	p, loader, _ := newTestPlayer(t)
	if err := p.Open(p.Catalog.First()); err != nil {
		t.Fatal(err)
	}
	HandleKeyMsg(p, runes("t"))
	if p.Selection.Theme != catalog.EchoChamber {
		t.Fatalf("expected echo_chamber, got %s", p.Selection.Theme)
	}
	if last := loader.requests[len(loader.requests)-1]; last.SequenceID != "fakenews_echo_chamber_standard" {
		t.Fatalf("unexpected request %v", last)
	}
	if _, err := p.Store.Get("fakenews_truth_vs_lies_standard"); err == nil {
		t.Fatal("previous primary should be evicted")
	}
}
