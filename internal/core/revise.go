package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Rorical/RoriPersona/internal/models"
)

// Acceptance records why the ReviseLoop stopped
type Acceptance int

const (
	AcceptedOnMerit Acceptance = iota
	AcceptedByExhaustion
	AcceptedUnjudged // the judge answered with something unparsable
)

func (a Acceptance) String() string {
	switch a {
	case AcceptedOnMerit:
		return "accepted"
	case AcceptedByExhaustion:
		return "exhausted"
	case AcceptedUnjudged:
		return "unjudged"
	default:
		return fmt.Sprintf("Acceptance(%d)", int(a))
	}
}

// FinalReply is the reply handed back to the user
type FinalReply struct {
	Text        string
	Acceptance  Acceptance
	Attempts    int // generations
	Evaluations int // judge calls
	Verdicts    []Verdict
	Turn        *TurnResult // the turn that produced Text
}

// Unrevised reports that the reply was returned without the judge accepting it
func (f *FinalReply) Unrevised() bool {
	return f.Acceptance != AcceptedOnMerit
}

type generator interface {
	Run(ctx context.Context, system string, history []models.Message, userMessage string) (*TurnResult, error)
}

type judge interface {
	Evaluate(ctx context.Context, candidate, userMessage string, history []models.Message) (Verdict, error)
}

// Reviser runs generate, evaluate and bounded regenerate for one user message
type Reviser struct {
	driver       generator
	evaluator    judge
	systemPrompt string
}

func NewReviser(driver *Driver, evaluator *Evaluator, systemPrompt string) *Reviser {
	return &Reviser{
		driver:       driver,
		evaluator:    evaluator,
		systemPrompt: systemPrompt,
	}
}

// Run produces a final reply. maxAttempts bounds the number of generations;
// values below 1 behave like 1, which still evaluates the single draft.
func (r *Reviser) Run(ctx context.Context, userMessage string, history []models.Message, maxAttempts int) (*FinalReply, error) {
	logger := zerolog.Ctx(ctx)
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	turn, err := r.driver.Run(ctx, r.systemPrompt, history, userMessage)
	if err != nil {
		return nil, err
	}
	reply := &FinalReply{Text: turn.Reply, Attempts: 1, Turn: turn}

	for attempt := 0; ; attempt++ {
		verdict, err := r.evaluator.Evaluate(ctx, reply.Text, userMessage, history)
		reply.Evaluations++
		if err != nil {
			var parseErr *EvaluationParseError
			if errors.As(err, &parseErr) {
				logger.Warn().Err(err).Str("raw", parseErr.Raw).Msg("verdict unparsable, returning draft")
				reply.Acceptance = AcceptedUnjudged
				return reply, nil
			}
			return nil, err
		}
		reply.Verdicts = append(reply.Verdicts, verdict)

		if verdict.IsAcceptable {
			reply.Acceptance = AcceptedOnMerit
			return reply, nil
		}
		if attempt >= maxAttempts-1 {
			logger.Info().Int("attempts", reply.Attempts).Msg("revise attempts exhausted")
			reply.Acceptance = AcceptedByExhaustion
			return reply, nil
		}

		logger.Info().
			Int("attempt", attempt+1).
			Str("feedback", verdict.Feedback).
			Msg("reply rejected, regenerating")

		turn, err = r.driver.Run(ctx, AugmentedInstruction(r.systemPrompt, reply.Text, verdict.Feedback), history, userMessage)
		if err != nil {
			return nil, err
		}
		reply.Text = turn.Reply
		reply.Turn = turn
		reply.Attempts++
	}
}

// AugmentedInstruction extends the base system prompt with a rejected reply
// and the judge's feedback, both verbatim.
func AugmentedInstruction(base, rejected, feedback string) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\n## Previous answer rejected\n")
	b.WriteString("You just tried to reply, but the quality control rejected your reply.\n\n")
	b.WriteString("## Your attempted answer:\n")
	b.WriteString(rejected)
	b.WriteString("\n\n## Reason for rejection:\n")
	b.WriteString(feedback)
	b.WriteString("\n\nWrite a new reply that fixes this problem. Keep the same persona and follow all of the instructions above.")
	return b.String()
}
