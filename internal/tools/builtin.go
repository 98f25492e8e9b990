package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/Rorical/RoriPersona/internal/notify"
)

// RecordUserDetailsArgs are the arguments of record_user_details
type RecordUserDetailsArgs struct {
	Email string `json:"email" jsonschema:"format=email" jsonschema_description:"The email address of this user"`
	Name  string `json:"name,omitempty" jsonschema_description:"The name of this user"`
	Notes string `json:"notes,omitempty" jsonschema_description:"Any additional information about the conversation that's worth recording to give context"`
}

// RecordUnknownQuestionArgs are the arguments of record_unknown_question
type RecordUnknownQuestionArgs struct {
	Question string `json:"question" jsonschema_description:"The question that couldn't be answered"`
}

// CurrentTimeArgs are the arguments of current_time
type CurrentTimeArgs struct {
	Format string `json:"format,omitempty" jsonschema:"enum=iso,enum=human,enum=date,enum=time,enum=unix" jsonschema_description:"Time format, iso by default"`
}

var recorded = map[string]string{"recorded": "ok"}

// RecordUserDetails pushes a lead notification for a visitor who left an email
func RecordUserDetails(sender notify.Sender) func(context.Context, RecordUserDetailsArgs) (any, error) {
	return func(ctx context.Context, args RecordUserDetailsArgs) (any, error) {
		name := args.Name
		if name == "" {
			name = "Name not provided"
		}
		notes := args.Notes
		if notes == "" {
			notes = "Not provided"
		}
		sender.Send(notify.Notification{
			Title:   "New contact",
			Message: fmt.Sprintf("Recording interest from %s with email %s and notes: %s", name, args.Email, notes),
		})
		return recorded, nil
	}
}

// RecordUnknownQuestion pushes a notification for a question the agent could not answer
func RecordUnknownQuestion(sender notify.Sender) func(context.Context, RecordUnknownQuestionArgs) (any, error) {
	return func(ctx context.Context, args RecordUnknownQuestionArgs) (any, error) {
		sender.Send(notify.Notification{
			Title:   "Unanswered question",
			Message: fmt.Sprintf("Recording %s asked that I couldn't answer", args.Question),
		})
		return recorded, nil
	}
}

// CurrentTime returns the current time in the requested format
func CurrentTime(now func() time.Time) func(context.Context, CurrentTimeArgs) (any, error) {
	return func(ctx context.Context, args CurrentTimeArgs) (any, error) {
		t := now()
		switch args.Format {
		case "human":
			return t.Format("January 2, 2006 at 3:04 PM MST"), nil
		case "date":
			return t.Format("2006-01-02"), nil
		case "time":
			return t.Format("15:04:05"), nil
		case "unix":
			return t.Unix(), nil
		default:
			return t.Format(time.RFC3339), nil
		}
	}
}

// RegisterBuiltinTools registers the persona agent's tools
func RegisterBuiltinTools(registry *Registry, sender notify.Sender) error {
	if err := registry.Register(New(
		"record_user_details",
		"Use this tool to record that a user is interested in being in touch and provided an email address",
		RecordUserDetails(sender),
	)); err != nil {
		return err
	}

	if err := registry.Register(New(
		"record_unknown_question",
		"Always use this tool to record any question that couldn't be answered as you didn't know the answer",
		RecordUnknownQuestion(sender),
	)); err != nil {
		return err
	}

	return registry.Register(New(
		"current_time",
		"Get the current date and time",
		CurrentTime(time.Now),
	))
}
