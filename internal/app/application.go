package app

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriPersona/internal/config"
	"github.com/Rorical/RoriPersona/internal/core"
	"github.com/Rorical/RoriPersona/internal/dispatcher"
	"github.com/Rorical/RoriPersona/internal/eventbus"
	"github.com/Rorical/RoriPersona/internal/logging"
	"github.com/Rorical/RoriPersona/internal/models"
)

// Application manages the complete application lifecycle
type Application struct {
	config     *config.Config
	logFile    *os.File
	agent      *Agent
	eventBus   *eventbus.EventBus
	dispatcher *dispatcher.EventDispatcher
	service    *core.ChatService
	model      *AppModel
}

type AppModel struct {
	appModel    models.AppModel
	personaName string
	dispatcher  *dispatcher.EventDispatcher
}

func NewApplication() (*Application, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// The terminal belongs to the UI, so logs go to a file
	logFile, err := logging.OpenFile(cfg.LogPath())
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}, logFile)
	if err != nil {
		logFile.Close()
		return nil, err
	}

	agent, err := BuildAgent(cfg, logger)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("failed to build agent: %w", err)
	}
	if agent.NotReady != nil {
		logger.Warn().Err(agent.NotReady).Msg("agent not ready")
	}

	eb := eventbus.NewEventBus()
	busLogger := logging.Component(logger, "eventbus")
	eb.SetErrorCallback(func(e eventbus.EventBusError) {
		busLogger.Warn().Err(e.Err).Str("operation", e.Operation).Msg("event bus error")
	})

	disp := dispatcher.NewEventDispatcher(eb)

	// Always create the service, it explains missing setup in the UI
	chatService := core.NewChatService(agent.Reviser, eb, core.ServiceOptions{
		ProfileName:    cfg.ActiveProfile,
		PersonaName:    agent.PersonaName(),
		MaxAttempts:    cfg.Agent.MaxAttempts,
		NotReadyReason: notReadyReason(agent),
		Logger:         logger,
	})

	model := &AppModel{
		appModel:    createInitialAppModel(chatService),
		personaName: agent.PersonaName(),
		dispatcher:  disp,
	}

	return &Application{
		config:     cfg,
		logFile:    logFile,
		agent:      agent,
		eventBus:   eb,
		dispatcher: disp,
		service:    chatService,
		model:      model,
	}, nil
}

func (app *Application) Start() error {
	app.service.Start()

	p := tea.NewProgram(app.model, tea.WithAltScreen())
	_, err := p.Run()

	return err
}

func (app *Application) Stop() {
	app.service.Stop()
	app.dispatcher.Stop()
	app.agent.Close()
	app.eventBus.Close()
	app.logFile.Close()
}

func notReadyReason(agent *Agent) string {
	if agent.NotReady == nil {
		return ""
	}
	return "• " + agent.NotReady.Error()
}

func createInitialAppModel(chatService *core.ChatService) models.AppModel {
	// No initial lines in UI - they come from core as single source of truth
	return models.AppModel{
		Lines:            make([]models.Line, 0),
		Status:           "Ready",
		ChatServiceReady: chatService.IsReady(),
	}
}
