package dispatcher

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/stepscope/internal/eventbus"
	"github.com/Rorical/stepscope/internal/sequence"
	"github.com/Rorical/stepscope/internal/update"
)

// maxBatch bounds how many queued core events one message carries.
const maxBatch = 64

// EventDispatcher handles routing events between core and UI
type EventDispatcher struct {
	eventBus *eventbus.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewEventDispatcher(eventBus *eventbus.EventBus) *EventDispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventDispatcher{
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (ed *EventDispatcher) Stop() {
	ed.cancel()
}

// RequestLoad asks the loader to fetch a sequence for req.
func (ed *EventDispatcher) RequestLoad(req sequence.LoadRequest) error {
	return ed.eventBus.SendToCore(eventbus.LoadRequestedEvent{Request: req})
}

// ListenForCoreEvents waits for the next core event and returns it, together
// with whatever else is already queued, as one update.CoreEventMsg. The
// model re-issues the command after every delivery.
func (ed *EventDispatcher) ListenForCoreEvents() tea.Cmd {
	return func() tea.Msg {
		var first eventbus.CoreEvent
		select {
		case <-ed.ctx.Done():
			return nil
		case ev := <-ed.eventBus.CoreToUI():
			first = ev
		}

		msg := update.CoreEventMsg{Events: []eventbus.CoreEvent{first}}
		for len(msg.Events) < maxBatch {
			select {
			case ev := <-ed.eventBus.CoreToUI():
				msg.Events = append(msg.Events, ev)
			default:
				return msg
			}
		}
		return msg
	}
}
