package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Rorical/RoriPersona/internal/eventbus"
	"github.com/Rorical/RoriPersona/internal/logging"
)

// ErrNotConfigured is returned for turns when no model endpoint is configured
var ErrNotConfigured = errors.New("model endpoint not configured")

type ServiceOptions struct {
	ProfileName    string
	PersonaName    string
	MaxAttempts    int
	NotReadyReason string // shown in the welcome text when there is no reviser
	Logger         zerolog.Logger
}

// ChatService owns one chat session. It answers UI events one at a time,
// so turns never overlap.
type ChatService struct {
	reviser       *Reviser // nil when the endpoint is not configured
	opts          ServiceOptions
	state         *ChatState
	eventBus      *eventbus.EventBus
	logger        zerolog.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	lastSentCount int  // Track how many lines we've sent to UI
	resetPending  bool // next update replaces the UI's lines
}

// NewChatService creates a ChatService even without a reviser, so the UI
// can still start and explain what is missing
func NewChatService(reviser *Reviser, eb *eventbus.EventBus, opts ServiceOptions) *ChatService {
	ctx, cancel := context.WithCancel(context.Background())

	service := &ChatService{
		reviser:  reviser,
		opts:     opts,
		state:    NewChatState(),
		eventBus: eb,
		logger:   logging.Component(opts.Logger, "chat"),
		ctx:      ctx,
		cancel:   cancel,
	}

	service.addWelcomeMessages()
	return service
}

// Start runs the core logic in a goroutine
func (cs *ChatService) Start() {
	// Send initial state to UI immediately
	cs.pushStateToUI(nil)
	go cs.eventLoop()
}

func (cs *ChatService) Stop() {
	cs.cancel()
}

func (cs *ChatService) eventLoop() {
	for {
		select {
		case <-cs.ctx.Done():
			return
		case event, ok := <-cs.eventBus.UIToCore():
			if !ok {
				return
			}
			cs.handleUIEvent(event)
		}
	}
}

func (cs *ChatService) handleUIEvent(event eventbus.UIEvent) {
	switch e := event.(type) {
	case eventbus.SendMessageEvent:
		cs.processMessage(e.Message)
	case eventbus.ResetEvent:
		cs.state.Reset()
		cs.state.AddProgramLine("Conversation cleared")
		cs.lastSentCount = 0
		cs.resetPending = true
		cs.pushStateToUI(nil)
	}
}

func (cs *ChatService) processMessage(userMessage string) {
	cs.state.StartProcessingWithUserMessage(userMessage)
	cs.pushStateToUI(nil)

	reply, err := cs.Ask(cs.ctx, userMessage)
	if err != nil {
		cs.pushStateToUI(nil)
		return
	}
	cs.pushStateToUI(&eventbus.TurnOutcome{
		Attempts:    reply.Attempts,
		Evaluations: reply.Evaluations,
		ToolRounds:  reply.Turn.ToolRounds,
		Unrevised:   reply.Unrevised(),
		Acceptance:  reply.Acceptance.String(),
	})
}

// Ask runs one turn against the session history and records the result.
// A failed turn leaves the history unchanged.
func (cs *ChatService) Ask(ctx context.Context, userMessage string) (*FinalReply, error) {
	userMessage = strings.TrimSpace(userMessage)
	if userMessage == "" {
		err := errors.New("message is empty")
		cs.state.FinishProcessingWithError(err)
		return nil, err
	}
	if cs.reviser == nil {
		cs.state.FinishProcessingWithError(ErrNotConfigured)
		return nil, ErrNotConfigured
	}

	turnCtx, _ := logging.WithTurn(ctx, cs.logger)
	logger := zerolog.Ctx(turnCtx)
	logger.Info().Int("message_size", len(userMessage)).Msg("turn started")

	reply, err := cs.reviser.Run(turnCtx, userMessage, cs.state.History(), cs.opts.MaxAttempts)
	if err != nil {
		logger.Error().Err(err).Msg("turn failed")
		cs.state.FinishProcessingWithError(describeError(err))
		return nil, err
	}

	logger.Info().
		Str("acceptance", reply.Acceptance.String()).
		Int("attempts", reply.Attempts).
		Int("evaluations", reply.Evaluations).
		Msg("turn finished")
	cs.state.FinishTurn(userMessage, reply)
	return reply, nil
}

// describeError turns core errors into something a visitor can act on
func describeError(err error) error {
	var (
		loopErr  *ToolLoopExceededError
		callErr  *ModelCallError
		parseErr *EvaluationParseError
	)
	switch {
	case errors.As(err, &loopErr):
		return fmt.Errorf("the agent kept calling tools (limit %d), please rephrase: %w", loopErr.Limit, err)
	case errors.As(err, &callErr):
		return fmt.Errorf("the model endpoint failed, try again: %w", err)
	case errors.As(err, &parseErr):
		return fmt.Errorf("the evaluator answered in an unexpected format: %w", err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("turn cancelled: %w", err)
	default:
		return err
	}
}

func (cs *ChatService) pushStateToUI(outcome *eventbus.TurnOutcome) {
	allLines := cs.state.Lines()

	// Only send new lines to reduce resource usage
	newLines := allLines[cs.lastSentCount:]
	cs.lastSentCount = len(allLines)
	reset := cs.resetPending
	cs.resetPending = false

	if err := cs.eventBus.SendToUI(eventbus.StateUpdateEvent{
		Lines:        newLines,
		Reset:        reset,
		IsProcessing: cs.state.IsProcessing(),
		Outcome:      outcome,
		Error:        cs.state.GetLastError(),
	}); err != nil {
		cs.logger.Warn().Err(err).Msg("failed to push state to UI")
	}
}

func (cs *ChatService) IsReady() bool {
	return cs.reviser != nil
}

// State exposes the session state for readers outside the event loop
func (cs *ChatService) State() *ChatState {
	return cs.state
}

func (cs *ChatService) addWelcomeMessages() {
	cs.state.AddProgramLine("-- RORIPERSONA --")

	if cs.IsReady() {
		cs.state.AddProgramLine(fmt.Sprintf("Active Profile: %s [OK]", cs.opts.ProfileName))
		cs.state.AddProgramLine(fmt.Sprintf("Speaking as %s. Type a message and press Enter", cs.opts.PersonaName))
		cs.state.AddProgramLine("Type /reset to start over")
	} else {
		cs.state.AddProgramLine(fmt.Sprintf("Active Profile: %s [NOT CONFIGURED]", cs.opts.ProfileName))
		if cs.opts.NotReadyReason != "" {
			cs.state.AddProgramLine(cs.opts.NotReadyReason)
		}
		cs.state.AddProgramLine("Configure your profile and persona to start chatting:")
		cs.state.AddProgramLine("• Run: roripersona profile add <name>")
		cs.state.AddProgramLine("• Set agent.name and agent.summary_path in ~/.roripersona/config.json")
	}

	cs.state.AddProgramLine("Controls: Ctrl+C to exit")
	cs.state.AddProgramLine("")
}
