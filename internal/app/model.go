package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Rorical/stepscope/internal/dispatcher"
	"github.com/Rorical/stepscope/internal/sequence"
	"github.com/Rorical/stepscope/internal/update"
	"github.com/Rorical/stepscope/ui/components"
	"github.com/Rorical/stepscope/ui/styles"
)

// AppModel adapts the player to tea.Model.
type AppModel struct {
	player     *update.Player
	dispatcher *dispatcher.EventDispatcher
	opts       Options
	help       help.Model
	progress   progress.Model
}

func NewAppModel(player *update.Player, disp *dispatcher.EventDispatcher, opts Options) *AppModel {
	return &AppModel{
		player:     player,
		dispatcher: disp,
		opts:       opts,
		help:       help.New(),
		progress:   progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

func (m *AppModel) Init() tea.Cmd {
	m.open()
	return tea.Batch(
		update.TickCmd(),
		m.dispatcher.ListenForCoreEvents(),
	)
}

func (m *AppModel) open() {
	p := m.player
	if m.opts.SequenceID != "" {
		p.OpenID(m.opts.SequenceID)
		return
	}
	sel := m.opts.Selection
	first := p.Catalog.First()
	if sel.Theme == "" {
		sel.Theme = first.Theme
	}
	if sel.Mode == "" {
		sel.Mode = first.Mode
	}
	if err := p.Open(sel); err != nil {
		p.App.Status = "Error: " + err.Error()
	}
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle core events and continue listening
	if coreEvent, ok := msg.(update.CoreEventMsg); ok {
		cmd := update.HandleCoreEvent(m.player, coreEvent)
		return m, tea.Batch(cmd, m.dispatcher.ListenForCoreEvents())
	}
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.help.Width = size.Width
		m.progress.Width = size.Width - 2
	}
	return m, update.HandleUpdate(m.player, msg)
}

func (m *AppModel) View() string {
	p := m.player
	app := p.App

	surface := p.SurfaceView
	if surface == "" {
		surface = styles.PlaceholderStyle().Render("waiting for first frame")
	}
	if app.ShowPanels {
		surface = lipgloss.JoinHorizontal(lipgloss.Top, surface, m.sidebar())
	}

	var b strings.Builder
	b.WriteString(surface)
	b.WriteString("\n")
	if app.Loading {
		b.WriteString(m.progress.ViewAs(m.primaryProgress().Fraction()))
	}
	b.WriteString("\n")
	status := app.Status + "  " + components.PlaybackLine(p.Playback.State(), p.Playback.Length())
	b.WriteString(components.RenderStatus(status, app.Loading, app.LoadingDots, app.Width))
	b.WriteString("\n")
	m.help.ShowAll = app.ShowHelp
	b.WriteString(m.help.View(update.Keys))

	return b.String()
}

func (m *AppModel) sidebar() string {
	p := m.player
	in := p.Input()

	parts := []string{components.RenderMetadata(p.App.Title, in.Primary, in.Playback.CurrentIndex, update.SidebarWidth)}
	if in.Comparison.Active {
		parts = append(parts, components.RenderMetadata("compare", in.Secondary, in.Comparison.CurrentIndex, update.SidebarWidth))
	}
	for _, l := range p.Pipeline.Legends(in) {
		parts = append(parts, components.RenderLegend(l, update.SidebarWidth))
	}
	parts = append(parts, components.RenderIntensities(p.Overlays, update.SidebarWidth))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *AppModel) primaryProgress() sequence.Progress {
	id := m.player.Store.ActiveID(sequence.Primary)
	if pr, err := m.player.Store.Progress(id); err == nil {
		return pr
	}
	return sequence.Progress{}
}
