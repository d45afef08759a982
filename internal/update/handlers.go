package update

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/stepscope/internal/catalog"
	"github.com/Rorical/stepscope/internal/eventbus"
	"github.com/Rorical/stepscope/internal/sequence"
)

// FrameInterval is the render tick, independent of the playback rate.
const FrameInterval = time.Second / 60

const (
	speedStep     = 0.1
	intensityStep = 0.25
)

// HandleKeyMsg applies one key press to the player
func HandleKeyMsg(p *Player, keyMsg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(keyMsg, Keys.Quit):
		return tea.Quit
	case key.Matches(keyMsg, Keys.Toggle):
		p.Playback.Toggle(time.Now())
	case key.Matches(keyMsg, Keys.Prev):
		p.Playback.Step(-1)
	case key.Matches(keyMsg, Keys.Next):
		p.Playback.Step(1)
	case key.Matches(keyMsg, Keys.Reset):
		p.Playback.Reset()
	case key.Matches(keyMsg, Keys.Slower):
		p.Playback.SetSpeed(p.Playback.Speed() - speedStep)
	case key.Matches(keyMsg, Keys.Faster):
		p.Playback.SetSpeed(p.Playback.Speed() + speedStep)
	case key.Matches(keyMsg, Keys.Diff):
		p.Overlays.Diff = !p.Overlays.Diff
	case key.Matches(keyMsg, Keys.Latent):
		p.Overlays.Latent = !p.Overlays.Latent
	case key.Matches(keyMsg, Keys.Graph):
		p.Overlays.Graph = !p.Overlays.Graph
	case key.Matches(keyMsg, Keys.Panels):
		p.App.ShowPanels = !p.App.ShowPanels
		p.Overlays.Panels = p.App.ShowPanels
	case key.Matches(keyMsg, Keys.DiffDown):
		p.Overlays.SetDiffIntensity(p.Overlays.DiffIntensity - intensityStep)
	case key.Matches(keyMsg, Keys.DiffUp):
		p.Overlays.SetDiffIntensity(p.Overlays.DiffIntensity + intensityStep)
	case key.Matches(keyMsg, Keys.LatentDown):
		p.Overlays.SetLatentIntensity(p.Overlays.LatentIntensity - intensityStep)
	case key.Matches(keyMsg, Keys.LatentUp):
		p.Overlays.SetLatentIntensity(p.Overlays.LatentIntensity + intensityStep)
	case key.Matches(keyMsg, Keys.Compare):
		p.ToggleComparison()
	case key.Matches(keyMsg, Keys.Secondary):
		p.CycleSecondary()
	case key.Matches(keyMsg, Keys.Theme):
		return p.openOrReport(p.Catalog.NextTheme(p.Selection, 1))
	case key.Matches(keyMsg, Keys.Mode):
		return p.openOrReport(p.Catalog.NextMode(p.Selection, 1))
	case key.Matches(keyMsg, Keys.Help):
		p.App.ShowHelp = !p.App.ShowHelp
		return nil
	default:
		return nil
	}
	p.dirty = true
	return nil
}

func (p *Player) openOrReport(sel catalog.Selection) tea.Cmd {
	if err := p.Open(sel); err != nil {
		p.App.Status = "Error: " + err.Error()
	}
	return nil
}

// CoreEventMsg wraps core events for Bubble Tea
type CoreEventMsg struct {
	Events []eventbus.CoreEvent
}

// HandleCoreEvent applies loader output on the UI goroutine
func HandleCoreEvent(p *Player, coreEventMsg CoreEventMsg) tea.Cmd {
	for _, ev := range coreEventMsg.Events {
		switch event := ev.(type) {
		case eventbus.LoadCompletionEvent:
			progress, applied := p.Store.Apply(event.Completion)
			if !applied {
				continue
			}
			p.Progress[progress.SequenceID] = progress
			p.dirty = true
			if r, ok := event.Completion.(sequence.MetadataResult); ok && r.Err != nil {
				p.App.Status = "Metadata unavailable for " + r.Request.SequenceID + ", showing placeholder steps"
			}
		case eventbus.LoadFinishedEvent:
			p.InFlight = event.InFlight
			if pr, ok := p.Progress[event.Request.SequenceID]; ok && p.Store.ActiveID(sequence.Primary) == event.Request.SequenceID {
				p.App.Status = fmt.Sprintf("Loaded %s: %d frames, %d unavailable", event.Request.SequenceID, pr.Loaded, pr.Failed)
			}
		}
	}
	p.App.Loading = p.loading()
	return nil
}

func (p *Player) loading() bool {
	for _, slot := range []sequence.Slot{sequence.Primary, sequence.Secondary} {
		id := p.Store.ActiveID(slot)
		if id == "" || (slot == sequence.Secondary && !p.Compare.Active()) {
			continue
		}
		pr, err := p.Store.Progress(id)
		if err == nil && !pr.Done() {
			return true
		}
	}
	return false
}

type TickMsg time.Time

func TickCmd() tea.Cmd {
	return tea.Tick(FrameInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func HandleWindowSizeMsg(p *Player, sizeMsg tea.WindowSizeMsg) {
	p.App.Width = sizeMsg.Width
	p.App.Height = sizeMsg.Height
	p.dirty = true
}

// HandleTickMsg advances playback, keeps the comparison index in step and
// redraws when anything changed.
func HandleTickMsg(p *Player, now time.Time) tea.Cmd {
	primary, _ := p.Store.Active(sequence.Primary)
	if n := primary.Len(); n != p.Playback.Length() {
		p.Playback.SetLength(n)
		p.dirty = true
	}
	if p.Playback.Tick(now) {
		p.dirty = true
	}
	if p.Compare.Active() {
		secondary, _ := p.Store.Active(sequence.Secondary)
		before := p.Compare.State().CurrentIndex
		if p.Compare.Sync(p.Playback.Index(), secondary.Len()) != before {
			p.dirty = true
		}
	}

	if p.App.Loading {
		p.App.LoadingDots = int(now.UnixMilli() / 250 % 4)
	}
	p.Render()
	return TickCmd()
}
