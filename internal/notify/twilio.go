package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

type messageCreator interface {
	CreateMessage(params *api.CreateMessageParams) (*api.ApiV2010Message, error)
}

// TwilioSMS texts notifications to a fixed number
type TwilioSMS struct {
	from   string
	to     string
	client messageCreator
}

func NewTwilioSMS(accountSID, authToken, from, to string) (*TwilioSMS, error) {
	if accountSID == "" || authToken == "" {
		return nil, errors.New("missing twilio credentials")
	}
	if from == "" || to == "" {
		return nil, errors.New("twilio from/to required")
	}
	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSMS{from: from, to: to, client: rest.Api}, nil
}

// Notify sends one SMS. The Twilio client has no context support, so a
// cancelled context only prevents sends that have not started.
func (t *TwilioSMS) Notify(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body := n.Message
	if n.Title != "" {
		body = n.Title + ": " + n.Message
	}

	params := &api.CreateMessageParams{}
	params.SetTo(t.to)
	params.SetFrom(t.from)
	params.SetBody(body)

	resp, err := t.client.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send failed: %w", err)
	}
	if resp == nil || resp.Sid == nil {
		return errors.New("missing message sid")
	}
	return nil
}
