package update

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rorical/RoriPersona/internal/eventbus"
	"github.com/Rorical/RoriPersona/internal/models"
)

func typeText(m *models.AppModel, eb *eventbus.EventBus, text string) {
	HandleKeyMsgWithEventBus(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)}, eb, true)
}

func TestEnterSendsMessage(t *testing.T) {
	eb := eventbus.NewEventBus()
	defer eb.Close()
	m := &models.AppModel{}

	typeText(m, eb, "quick question")
	assert.Equal(t, "quick question", m.Input)

	HandleKeyMsgWithEventBus(m, tea.KeyMsg{Type: tea.KeyEnter}, eb, true)
	assert.Empty(t, m.Input)
	assert.Equal(t, eventbus.SendMessageEvent{Message: "quick question"}, <-eb.UIToCore())
}

func TestResetCommand(t *testing.T) {
	eb := eventbus.NewEventBus()
	defer eb.Close()
	m := &models.AppModel{}

	typeText(m, eb, "/reset")
	HandleKeyMsgWithEventBus(m, tea.KeyMsg{Type: tea.KeyEnter}, eb, true)
	assert.Equal(t, eventbus.ResetEvent{}, <-eb.UIToCore())
}

func TestEnterWhileLoadingKeepsInput(t *testing.T) {
	eb := eventbus.NewEventBus()
	defer eb.Close()
	m := &models.AppModel{Input: "next", Loading: true}

	HandleKeyMsgWithEventBus(m, tea.KeyMsg{Type: tea.KeyEnter}, eb, true)
	assert.Equal(t, "next", m.Input)
	assert.Empty(t, eb.UIToCore())
}

func TestBackspaceRemovesWholeRune(t *testing.T) {
	m := &models.AppModel{Input: "héé"}
	HandleKeyMsgWithEventBus(m, tea.KeyMsg{Type: tea.KeyBackspace}, nil, true)
	assert.Equal(t, "hé", m.Input)
}

func TestCtrlCQuits(t *testing.T) {
	cmd := HandleKeyMsgWithEventBus(&models.AppModel{}, tea.KeyMsg{Type: tea.KeyCtrlC}, nil, true)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestHandleCoreEventAppendsAndResets(t *testing.T) {
	m := &models.AppModel{Lines: []models.Line{{Content: "old"}}}

	HandleCoreEvent(m, CoreEventMsg{Event: eventbus.StateUpdateEvent{
		Lines:        []models.Line{{Content: "hi", Type: models.UserLine}},
		IsProcessing: true,
	}})
	assert.Len(t, m.Lines, 2)
	assert.True(t, m.Loading)
	assert.Equal(t, "Thinking", m.Status)

	HandleCoreEvent(m, CoreEventMsg{Event: eventbus.StateUpdateEvent{
		Lines:   []models.Line{{Content: "hello", Type: models.AssistantLine}},
		Outcome: &eventbus.TurnOutcome{Attempts: 2, ToolRounds: 1, Acceptance: "exhausted", Unrevised: true},
	}})
	assert.False(t, m.Loading)
	assert.Contains(t, m.Status, "exhausted after 2 attempt(s)")
	assert.Contains(t, m.Status, "unrevised")

	HandleCoreEvent(m, CoreEventMsg{Event: eventbus.StateUpdateEvent{
		Reset: true,
		Lines: []models.Line{{Content: "cleared", Type: models.ProgramLine}},
	}})
	assert.Equal(t, []models.Line{{Content: "cleared", Type: models.ProgramLine}}, m.Lines)

	HandleCoreEvent(m, CoreEventMsg{Event: eventbus.StateUpdateEvent{Error: errors.New("boom")}})
	assert.Equal(t, "Error: boom", m.Status)
}
