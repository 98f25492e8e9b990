package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rorical/RoriPersona/internal/models"
	"github.com/Rorical/RoriPersona/internal/notify"
)

type recordingSender struct {
	sent []notify.Notification
}

func (r *recordingSender) Send(n notify.Notification) {
	r.sent = append(r.sent, n)
}

func builtinInvoker(t *testing.T) (*Invoker, *recordingSender) {
	t.Helper()
	sender := &recordingSender{}
	reg := NewRegistry()
	require.NoError(t, RegisterBuiltinTools(reg, sender))
	return NewInvoker(reg), sender
}

func TestRecordUserDetails(t *testing.T) {
	inv, sender := builtinInvoker(t)
	res := inv.Invoke(context.Background(), models.ToolRequest{
		ID:           "c1",
		Name:         "record_user_details",
		RawArguments: `{"email":"a@b.com"}`,
	})

	require.True(t, res.OK, res.Content())
	assert.JSONEq(t, `{"recorded":"ok"}`, res.Content())
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Recording interest from Name not provided with email a@b.com and notes: Not provided", sender.sent[0].Message)
}

func TestRecordUserDetailsRejectsBadEmail(t *testing.T) {
	inv, sender := builtinInvoker(t)
	res := inv.Invoke(context.Background(), models.ToolRequest{
		ID:           "c1",
		Name:         "record_user_details",
		RawArguments: `{"email":"not an email","name":"Ada"}`,
	})

	assert.False(t, res.OK)
	var argErr *ToolArgumentError
	assert.ErrorAs(t, res.Err, &argErr)
	assert.Empty(t, sender.sent)
}

func TestRecordUnknownQuestion(t *testing.T) {
	inv, sender := builtinInvoker(t)
	res := inv.Invoke(context.Background(), models.ToolRequest{
		ID:           "c2",
		Name:         "record_unknown_question",
		RawArguments: `{"question":"what is your favourite colour?"}`,
	})

	require.True(t, res.OK)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Recording what is your favourite colour? asked that I couldn't answer", sender.sent[0].Message)
}

func TestCurrentTimeFormats(t *testing.T) {
	fixed := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	fn := CurrentTime(func() time.Time { return fixed })

	cases := map[string]any{
		"":     "2024-03-05T14:07:09Z",
		"iso":  "2024-03-05T14:07:09Z",
		"date": "2024-03-05",
		"time": "14:07:09",
		"unix": fixed.Unix(),
	}
	for format, want := range cases {
		got, err := fn(context.Background(), CurrentTimeArgs{Format: format})
		require.NoError(t, err)
		assert.Equal(t, want, got, format)
	}
}

func TestBuiltinDefinitions(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, RegisterBuiltinTools(reg, &recordingSender{}))

	names := make([]string, 0, reg.Len())
	for _, def := range reg.Definitions() {
		names = append(names, def.Name)
		assert.NotEmpty(t, def.Description)
	}
	assert.Equal(t, []string{"current_time", "record_unknown_question", "record_user_details"}, names)
}
