package core

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Rorical/stepscope/internal/eventbus"
	"github.com/Rorical/stepscope/internal/sequence"
)

// LoaderService turns load requests from the UI into fetches and pushes
// every completion back over the event bus. It never touches the store.
type LoaderService struct {
	source   sequence.Source
	fetch    sequence.FetchConfig
	state    *LoadState
	eventBus *eventbus.EventBus
	logger   *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewLoaderService(src sequence.Source, cfg sequence.FetchConfig, eb *eventbus.EventBus, logger *slog.Logger) *LoaderService {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &LoaderService{
		source:   src,
		fetch:    cfg,
		state:    NewLoadState(),
		eventBus: eb,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start runs the core logic in a goroutine
func (ls *LoaderService) Start() {
	go ls.eventLoop()
}

// Stop cancels running fetches and waits for them to return.
func (ls *LoaderService) Stop() {
	ls.cancel()
	ls.wg.Wait()
}

func (ls *LoaderService) State() *LoadState {
	return ls.state
}

func (ls *LoaderService) eventLoop() {
	for {
		select {
		case <-ls.ctx.Done():
			return
		case event, ok := <-ls.eventBus.UIToCore():
			if !ok {
				return
			}
			ls.handleUIEvent(event)
		}
	}
}

func (ls *LoaderService) handleUIEvent(event eventbus.UIEvent) {
	switch e := event.(type) {
	case eventbus.LoadRequestedEvent:
		ls.load(e.Request)
	}
}

func (ls *LoaderService) load(req sequence.LoadRequest) {
	if !ls.state.Begin(req, time.Now()) {
		ls.logger.Debug("load already running", "sequence", req.SequenceID, "request", req.ID)
		return
	}
	ls.logger.Info("load started", "sequence", req.SequenceID, "slot", req.Slot.String(), "request", req.ID)

	ls.wg.Add(1)
	go func() {
		defer ls.wg.Done()
		sequence.Fetch(ls.ctx, ls.source, req, ls.fetch, ls.emit)

		took := ls.state.Finish(req, time.Now())
		ls.logger.Info("load finished", "sequence", req.SequenceID, "request", req.ID, "duration", took)
		if err := ls.eventBus.PublishToUI(ls.ctx, eventbus.LoadFinishedEvent{
			Request:  req,
			Duration: took,
			InFlight: ls.state.Count(),
		}); err != nil {
			ls.logger.Debug("load finish not delivered", "request", req.ID, "error", err)
		}
	}()
}

func (ls *LoaderService) emit(c sequence.Completion) {
	switch r := c.(type) {
	case sequence.MetadataResult:
		if r.Err != nil {
			ls.logger.Warn("metadata unavailable, using placeholder", "sequence", r.Request.SequenceID, "error", r.Err)
		}
	case sequence.FrameResult:
		if r.Err != nil {
			ls.logger.Warn("frame unavailable", "sequence", r.Request.SequenceID, "index", r.Index, "error", r.Err)
		}
	}
	if err := ls.eventBus.PublishToUI(ls.ctx, eventbus.LoadCompletionEvent{Completion: c}); err != nil {
		ls.logger.Debug("completion not delivered", "request", c.LoadRequest().ID, "error", err)
	}
}
