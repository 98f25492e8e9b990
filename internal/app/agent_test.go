package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rorical/RoriPersona/internal/config"
	"github.com/Rorical/RoriPersona/internal/core"
	"github.com/Rorical/RoriPersona/internal/notify"
)

func writeConfig(t *testing.T, body string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "summary.txt"), []byte("Ada builds compilers."), 0644))

	body = strings.ReplaceAll(body, "$DIR", filepath.ToSlash(dir))
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))

	t.Setenv("OPENAI_API_KEY", "")
	cfg, err := config.LoadFrom(path)
	require.NoError(t, err)
	return cfg
}

func TestBuildAgentWithoutKeyIsNotReady(t *testing.T) {
	cfg := writeConfig(t, `{"profiles":{"default":{"model":"gpt-4o-mini"}},"agent":{"name":"Ada","summary_path":"$DIR/summary.txt"}}`)

	agent, err := BuildAgent(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer agent.Close()

	assert.Nil(t, agent.Reviser)
	assert.ErrorContains(t, agent.NotReady, "API key")
	assert.Equal(t, 3, agent.Registry.Len())
}

func TestBuildAgentWithoutPersonaIsNotReady(t *testing.T) {
	cfg := writeConfig(t, `{"profiles":{"default":{"api_key":"sk-test"}},"agent":{"name":"Ada","summary_path":"$DIR/missing.txt"}}`)

	agent, err := BuildAgent(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer agent.Close()

	assert.Nil(t, agent.Reviser)
	assert.ErrorContains(t, agent.NotReady, "persona")
}

func TestNewNotifierSelectsProvider(t *testing.T) {
	cfg := &config.Config{}

	cfg.Notify.Provider = "log"
	sink, err := NewNotifier(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &notify.LogNotifier{}, sink)

	cfg.Notify.Provider = "pushover"
	_, err = NewNotifier(cfg, zerolog.Nop())
	assert.Error(t, err)

	cfg.Notify.Pushover = config.PushoverConfig{Token: "t", User: "u"}
	sink, err = NewNotifier(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &notify.Pushover{}, sink)

	cfg.Notify.Provider = "twilio"
	_, err = NewNotifier(cfg, zerolog.Nop())
	assert.Error(t, err)

	cfg.Notify.Twilio = config.TwilioConfig{AccountSID: "AC1", AuthToken: "tok", From: "+1", To: "+2"}
	sink, err = NewNotifier(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &notify.TwilioSMS{}, sink)
}

// fakeEndpoint plays both the persona model and the judge
type fakeEndpoint struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeEndpoint) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			ResponseFormat json.RawMessage `json:"response_format"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		last := req.Messages[len(req.Messages)-1]
		f.mu.Lock()
		f.calls++
		f.mu.Unlock()

		var message string
		switch {
		case len(req.ResponseFormat) > 0:
			message = `{"role":"assistant","content":"{\"is_acceptable\":true,\"feedback\":\"professional\"}"}`
		case last.Role == "user":
			message = `{"role":"assistant","content":"","tool_calls":[{"id":"call_1","type":"function","function":{"name":"record_user_details","arguments":"{\"email\":\"a@b.com\",\"name\":\"Grace\"}"}}]}`
		default:
			message = `{"role":"assistant","content":"Thanks Grace, I'll be in touch."}`
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":%s,"finish_reason":"stop"}]}`, message)
	}
}

func TestAgentAnswersThroughEndpoint(t *testing.T) {
	endpoint := &fakeEndpoint{}
	srv := httptest.NewServer(endpoint.handler(t))
	defer srv.Close()

	pushes := make(chan string, 1)
	pushSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		pushes <- r.PostForm.Get("message")
	}))
	defer pushSrv.Close()

	cfg := writeConfig(t, fmt.Sprintf(`{
		"profiles": {"default": {"api_key": "sk-test", "base_url": "%s/v1", "model": "gpt-test"}},
		"agent": {"name": "Ada", "summary_path": "$DIR/summary.txt", "max_attempts": 2},
		"notify": {"provider": "pushover", "pushover": {"token": "tok", "user": "usr", "url": "%s"}}
	}`, srv.URL, pushSrv.URL))

	agent, err := BuildAgent(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, agent.NotReady)

	reply, err := agent.Reviser.Run(context.Background(), "My email is a@b.com, please contact me", nil, cfg.Agent.MaxAttempts)
	require.NoError(t, err)
	agent.Close()

	assert.Equal(t, "Thanks Grace, I'll be in touch.", reply.Text)
	assert.Equal(t, core.AcceptedOnMerit, reply.Acceptance)
	assert.Equal(t, core.Done, reply.Turn.State)
	assert.Equal(t, 1, reply.Turn.ToolRounds)
	assert.Equal(t, 3, endpoint.calls)
	assert.Equal(t, "Recording interest from Grace with email a@b.com and notes: Not provided", <-pushes)
}
