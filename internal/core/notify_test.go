package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rorical/RoriPersona/internal/models"
	"github.com/Rorical/RoriPersona/internal/notify"
	"github.com/Rorical/RoriPersona/internal/tools"
)

type countingSink struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (c *countingSink) Notify(ctx context.Context, n notify.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, n)
	return nil
}

func TestRecordUserDetailsNotifiesOncePerCall(t *testing.T) {
	sink := &countingSink{}
	async := notify.NewAsync(sink, time.Second, zerolog.Nop())

	reg := tools.NewRegistry()
	require.NoError(t, tools.RegisterBuiltinTools(reg, async))

	model := replies(
		models.AssistantMessage("",
			models.ToolRequest{ID: "ok", Name: "record_user_details", RawArguments: `{"email":"a@b.com","name":"Grace"}`},
			models.ToolRequest{ID: "bad", Name: "record_user_details", RawArguments: `{"email":"not an email"}`},
		),
		models.AssistantMessage("Thanks Grace, I'll be in touch."),
	)
	driver := NewDriver(model, reg, tools.NewInvoker(reg), DriverOptions{})

	result, err := driver.Run(context.Background(), "sys", nil, "My email is a@b.com, please contact me")
	require.NoError(t, err)
	async.Close()

	assert.Equal(t, "Thanks Grace, I'll be in touch.", result.Reply)
	require.Len(t, sink.sent, 1)
	assert.Equal(t, "Recording interest from Grace with email a@b.com and notes: Not provided", sink.sent[0].Message)
}
