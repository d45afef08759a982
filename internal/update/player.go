package update

import (
	"image"
	"log/slog"

	"github.com/Rorical/stepscope/internal/analysis"
	"github.com/Rorical/stepscope/internal/catalog"
	"github.com/Rorical/stepscope/internal/compare"
	"github.com/Rorical/stepscope/internal/models"
	"github.com/Rorical/stepscope/internal/playback"
	"github.com/Rorical/stepscope/internal/render"
	"github.com/Rorical/stepscope/internal/sequence"
	"github.com/Rorical/stepscope/ui/components"
)

// SidebarWidth is the cell width of the panel column.
const SidebarWidth = 40

// Loader starts fetches for store requests.
type Loader interface {
	RequestLoad(req sequence.LoadRequest) error
}

// Player is the state every handler works on. It lives on the bubbletea
// goroutine; only the loader runs elsewhere.
type Player struct {
	App       models.AppModel
	Store     *sequence.Store
	Analyzer  *analysis.Analyzer
	Playback  *playback.Controller
	Compare   *compare.Coordinator
	Pipeline  *render.Pipeline
	Catalog   *catalog.Catalog
	Overlays  render.Overlays
	Selection catalog.Selection

	// Candidates are the sequence ids offered for comparison.
	Candidates []string
	Progress   map[string]sequence.Progress
	InFlight   int

	Surface     *image.RGBA
	SurfaceView string

	loader Loader
	logger *slog.Logger
	dirty  bool
}

// PlayerConfig wires a Player.
type PlayerConfig struct {
	Store      *sequence.Store
	Analyzer   *analysis.Analyzer
	Pipeline   *render.Pipeline
	Catalog    *catalog.Catalog
	Overlays   render.Overlays
	Candidates []string
	BaseFPS    float64
	Loader     Loader
	Logger     *slog.Logger
}

func NewPlayer(cfg PlayerConfig) *Player {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.Default()
	}
	if cfg.Candidates == nil {
		cfg.Candidates = cfg.Catalog.SequenceIDs()
	}
	return &Player{
		App:        models.AppModel{Status: "Ready", ShowPanels: true},
		Store:      cfg.Store,
		Analyzer:   cfg.Analyzer,
		Playback:   playback.New(0, cfg.BaseFPS),
		Compare:    compare.New(),
		Pipeline:   cfg.Pipeline,
		Catalog:    cfg.Catalog,
		Overlays:   cfg.Overlays,
		Candidates: cfg.Candidates,
		Progress:   make(map[string]sequence.Progress),
		loader:     cfg.Loader,
		logger:     cfg.Logger,
		dirty:      true,
	}
}

// Open selects a catalog cell as the primary sequence.
func (p *Player) Open(sel catalog.Selection) error {
	id, err := p.Catalog.SequenceID(sel)
	if err != nil {
		return err
	}
	p.OpenID(id)
	p.Selection = sel
	p.App.Title = p.Catalog.Label(sel)
	return nil
}

// OpenID selects any sequence id as the primary sequence.
func (p *Player) OpenID(id string) {
	p.load(sequence.Primary, id)
	p.Playback.Reset()
	seq, _ := p.Store.Active(sequence.Primary)
	p.Playback.SetLength(seq.Len())
	p.App.Title = id
	p.dirty = true
}

func (p *Player) load(slot sequence.Slot, id string) {
	req, fetch := p.Store.Begin(slot, id)
	if !fetch || p.loader == nil {
		return
	}
	if err := p.loader.RequestLoad(req); err != nil {
		p.Store.Abort(req)
		p.App.Status = "Load request failed: " + err.Error()
		p.logger.Error("load request failed", "sequence", id, "error", err)
	}
}

// ToggleComparison turns side-by-side mode on or off. The first activation
// compares the current theme in the next mode.
func (p *Player) ToggleComparison() {
	if p.Compare.Active() {
		p.Compare.Deactivate()
		p.dirty = true
		return
	}
	id := p.Compare.SecondaryID()
	if id == "" {
		id = p.defaultSecondary()
	}
	if id == "" {
		p.App.Status = "Nothing to compare with"
		return
	}
	p.Compare.Activate(id)
	p.load(sequence.Secondary, id)
	p.dirty = true
}

func (p *Player) defaultSecondary() string {
	if p.Selection.Theme != "" {
		if id, err := p.Catalog.SequenceID(p.Catalog.NextMode(p.Selection, 1)); err == nil && id != p.Store.ActiveID(sequence.Primary) {
			return id
		}
	}
	return p.nextCandidate("")
}

// CycleSecondary moves the comparison to the next candidate sequence.
func (p *Player) CycleSecondary() {
	id := p.nextCandidate(p.Compare.SecondaryID())
	if id == "" {
		return
	}
	p.Compare.SetSecondary(id)
	p.load(sequence.Secondary, id)
	p.dirty = true
}

// nextCandidate returns the candidate after current, skipping the primary.
func (p *Player) nextCandidate(current string) string {
	n := len(p.Candidates)
	if n == 0 {
		return ""
	}
	start := -1
	for i, id := range p.Candidates {
		if id == current {
			start = i
			break
		}
	}
	primary := p.Store.ActiveID(sequence.Primary)
	for k := 1; k <= n; k++ {
		id := p.Candidates[(start+k+n)%n]
		if id != primary {
			return id
		}
	}
	return ""
}

// Input assembles one render pass from the owned state objects.
func (p *Player) Input() render.Input {
	primary, _ := p.Store.Active(sequence.Primary)
	in := render.Input{
		Primary:    primary,
		Playback:   p.Playback.State(),
		Comparison: p.Compare.State(),
		Overlays:   p.Overlays,
		Caption:    p.App.Title,
	}
	if in.Comparison.Active {
		in.Secondary, _ = p.Store.Active(sequence.Secondary)
	}
	// Text panels are drawn by the terminal view.
	in.Overlays.Panels = false
	return in
}

// Render redraws the surface when something changed since the last pass.
func (p *Player) Render() {
	if !p.dirty {
		return
	}
	p.dirty = false
	p.Surface = p.Pipeline.Render(p.Input())
	cols, rows := p.surfaceCells()
	p.SurfaceView = components.RenderSurface(p.Surface, cols, rows)
}

func (p *Player) surfaceCells() (int, int) {
	width := p.App.Width
	if p.App.ShowPanels {
		width -= SidebarWidth
	}
	// Status bar, progress and help take four lines.
	return components.SurfaceCells(width, p.App.Height-4)
}
