package app

import (
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/stepscope/internal/catalog"
	"github.com/Rorical/stepscope/internal/config"
	"github.com/Rorical/stepscope/internal/core"
	"github.com/Rorical/stepscope/internal/dispatcher"
	"github.com/Rorical/stepscope/internal/eventbus"
	"github.com/Rorical/stepscope/internal/logging"
	"github.com/Rorical/stepscope/internal/update"
)

// Options picks what the player opens first. SequenceID wins over Selection.
type Options struct {
	Selection  catalog.Selection
	SequenceID string
}

// Application manages the complete application lifecycle
type Application struct {
	config     *config.Config
	workspace  *Workspace
	eventBus   *eventbus.EventBus
	dispatcher *dispatcher.EventDispatcher
	service    *core.LoaderService
	model      *AppModel
	logger     *slog.Logger
	logCloser  io.Closer
}

func NewApplication(cfg *config.Config, opts Options) (*Application, error) {
	settings := cfg.Settings()
	logger, closer := logging.Setup(settings.LogPath, settings.LogLevel)

	ws, err := OpenWorkspace(settings, logger)
	if err != nil {
		closer.Close()
		return nil, err
	}

	// Create event bus
	eb := eventbus.NewEventBus()
	eb.SetErrorCallback(func(e eventbus.EventBusError) {
		logger.Warn("event bus", "operation", e.Operation, "error", e.Err)
	})

	// Create dispatcher
	disp := dispatcher.NewEventDispatcher(eb)
	service := core.NewLoaderService(ws.Source, ws.FetchConfig(), eb, logger)

	player := update.NewPlayer(update.PlayerConfig{
		Store:      ws.Store,
		Analyzer:   ws.Analyzer,
		Pipeline:   ws.Pipeline,
		Catalog:    ws.Catalog,
		Overlays:   ws.Overlays(),
		Candidates: ws.Candidates(),
		BaseFPS:    settings.BaseFPS,
		Loader:     disp,
		Logger:     logger,
	})

	return &Application{
		config:     cfg,
		workspace:  ws,
		eventBus:   eb,
		dispatcher: disp,
		service:    service,
		model:      NewAppModel(player, disp, opts),
		logger:     logger,
		logCloser:  closer,
	}, nil
}

func (app *Application) Start() error {
	// Start background services
	app.service.Start()
	app.logger.Info("player started", "assets", app.workspace.Settings.Assets)

	// Run UI
	p := tea.NewProgram(app.model, tea.WithAltScreen())
	_, err := p.Run()

	return err
}

func (app *Application) Stop() {
	app.dispatcher.Stop()
	app.service.Stop()
	app.eventBus.Close()
	app.logCloser.Close()
}
