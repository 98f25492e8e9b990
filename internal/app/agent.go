package app

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Rorical/RoriPersona/internal/config"
	"github.com/Rorical/RoriPersona/internal/core"
	"github.com/Rorical/RoriPersona/internal/llm"
	"github.com/Rorical/RoriPersona/internal/logging"
	"github.com/Rorical/RoriPersona/internal/notify"
	"github.com/Rorical/RoriPersona/internal/persona"
	"github.com/Rorical/RoriPersona/internal/tools"
)

// Agent is everything needed to answer a visitor, wired from config.
// Reviser is nil when NotReady explains what is missing.
type Agent struct {
	Persona  *persona.Persona
	Registry *tools.Registry
	Reviser  *core.Reviser
	NotReady error

	notifier *notify.Async
}

// BuildAgent wires the notification sink, tools, model endpoint and persona.
// Only programming errors are returned; missing setup is reported in NotReady.
func BuildAgent(cfg *config.Config, logger zerolog.Logger) (*Agent, error) {
	sink, err := NewNotifier(cfg, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("notification provider unavailable, logging notifications instead")
		sink = notify.NewLogNotifier(logging.Component(logger, "notify"))
	}
	notifier := notify.NewAsync(sink, cfg.NotifyTimeout(), logging.Component(logger, "notify"))

	registry := tools.NewRegistry()
	if err := tools.RegisterBuiltinTools(registry, notifier); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	agent := &Agent{Registry: registry, notifier: notifier}

	if !cfg.IsValid() {
		agent.NotReady = errors.New("no API key: set one with `roripersona profile edit` or OPENAI_API_KEY")
		return agent, nil
	}

	p, err := persona.Load(cfg.Agent.Name, cfg.Agent.SummaryPath, cfg.Agent.BioPath)
	if err != nil {
		agent.NotReady = fmt.Errorf("persona not loaded: %w", err)
		return agent, nil
	}
	agent.Persona = p

	model, err := llm.NewOpenAI(cfg.GetAPIKey(), cfg.GetBaseURL(), cfg.GetModel())
	if err != nil {
		agent.NotReady = err
		return agent, nil
	}

	invoker := tools.NewInvoker(registry, tools.WithTimeout(cfg.ToolTimeout()))
	driver := core.NewDriver(model, registry, invoker, core.DriverOptions{
		MaxToolRounds: cfg.Agent.MaxToolRounds,
		CallTimeout:   cfg.CallTimeout(),
	})
	evaluator, err := core.NewEvaluator(model, p.EvaluatorPrompt(), core.EvaluatorOptions{
		Model:       cfg.EvaluatorModel(),
		CallTimeout: cfg.CallTimeout(),
	})
	if err != nil {
		return nil, err
	}

	agent.Reviser = core.NewReviser(driver, evaluator, p.SystemPrompt())
	return agent, nil
}

// PersonaName is empty until a persona is loaded
func (a *Agent) PersonaName() string {
	if a.Persona == nil {
		return ""
	}
	return a.Persona.Name
}

// Close waits for queued notifications
func (a *Agent) Close() {
	a.notifier.Close()
}

// NewNotifier picks the sink named by notify.provider
func NewNotifier(cfg *config.Config, logger zerolog.Logger) (notify.Notifier, error) {
	switch cfg.Notify.Provider {
	case "pushover":
		po := cfg.Notify.Pushover
		if po.Token == "" || po.User == "" {
			return nil, errors.New("pushover needs notify.pushover.token and notify.pushover.user")
		}
		return notify.NewPushover(po.Token, po.User, po.URL), nil
	case "twilio":
		tw := cfg.Notify.Twilio
		sms, err := notify.NewTwilioSMS(tw.AccountSID, tw.AuthToken, tw.From, tw.To)
		if err != nil {
			return nil, err
		}
		return sms, nil
	default:
		return notify.NewLogNotifier(logging.Component(logger, "notify")), nil
	}
}
