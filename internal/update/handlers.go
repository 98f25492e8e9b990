package update

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriPersona/internal/eventbus"
	"github.com/Rorical/RoriPersona/internal/models"
)

const resetCommand = "/reset"

// HandleKeyMsgWithEventBus handles keyboard input using event bus
func HandleKeyMsgWithEventBus(appModel *models.AppModel, keyMsg tea.KeyMsg, eb *eventbus.EventBus, chatReady bool) tea.Cmd {
	switch keyMsg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return tea.Quit
	case tea.KeyEnter:
		input := strings.TrimSpace(appModel.Input)
		if input == "" {
			return nil
		}
		if !chatReady {
			appModel.Input = ""
			appModel.Status = "Chat service not available"
			return nil
		}
		if appModel.Loading {
			appModel.Status = "Still answering, please wait"
			return nil
		}

		var event eventbus.UIEvent = eventbus.SendMessageEvent{Message: input}
		if input == resetCommand {
			event = eventbus.ResetEvent{}
		}
		if err := eb.SendToCore(event); err != nil {
			appModel.Status = "Error sending message: " + err.Error()
			return nil
		}
		appModel.Input = ""
	case tea.KeyBackspace:
		if runes := []rune(appModel.Input); len(runes) > 0 {
			appModel.Input = string(runes[:len(runes)-1])
		}
	case tea.KeySpace:
		appModel.Input += " "
	case tea.KeyRunes:
		appModel.Input += string(keyMsg.Runes)
	}
	return nil
}

// CoreEventMsg wraps core events for Bubble Tea
type CoreEventMsg struct {
	Event eventbus.CoreEvent
}

// HandleCoreEvent processes events from the core
func HandleCoreEvent(appModel *models.AppModel, coreEventMsg CoreEventMsg) tea.Cmd {
	switch event := coreEventMsg.Event.(type) {
	case eventbus.StateUpdateEvent:
		if event.Reset {
			appModel.Lines = nil
		}
		appModel.Lines = append(appModel.Lines, event.Lines...)
		appModel.Loading = event.IsProcessing

		switch {
		case event.Error != nil:
			appModel.Status = "Error: " + event.Error.Error()
		case event.IsProcessing:
			appModel.Status = "Thinking"
		case event.Outcome != nil:
			appModel.Status = outcomeStatus(event.Outcome)
		default:
			appModel.Status = "Ready"
		}
	}

	return nil
}

func outcomeStatus(o *eventbus.TurnOutcome) string {
	status := fmt.Sprintf("Ready | %s after %d attempt(s), %d tool round(s)", o.Acceptance, o.Attempts, o.ToolRounds)
	if o.Unrevised {
		status += " | unrevised"
	}
	return status
}

type TickMsg time.Time

func TickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func HandleWindowSizeMsg(appModel *models.AppModel, sizeMsg tea.WindowSizeMsg) {
	appModel.Width = sizeMsg.Width
	appModel.Height = sizeMsg.Height
}

func HandleTickMsg(appModel *models.AppModel) tea.Cmd {
	// Only handle UI animations - loading dots
	if appModel.Loading {
		appModel.LoadingDots = (appModel.LoadingDots + 1) % 4
	}
	return TickCmd()
}
