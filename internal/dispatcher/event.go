package dispatcher

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriPersona/internal/eventbus"
	"github.com/Rorical/RoriPersona/internal/update"
)

// EventDispatcher bridges the event bus into the Bubble Tea update loop
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

// ListenForUIEvents waits for the next core event. The model must issue it
// again after every CoreEventMsg to keep listening.
func (ed *EventDispatcher) ListenForUIEvents() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ed.ctx.Done():
			return nil
		case event, ok := <-ed.eventBus.CoreToUI():
			if !ok {
				return nil
			}
			return update.CoreEventMsg{Event: event}
		}
	}
}

func (ed *EventDispatcher) Stop() {
	ed.cancel()
}

func (ed *EventDispatcher) GetEventBus() *eventbus.EventBus {
	return ed.eventBus
}
