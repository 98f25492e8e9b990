package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultPushoverURL = "https://api.pushover.net/1/messages.json"

// Pushover posts notifications to the Pushover messages API
type Pushover struct {
	Token  string
	User   string
	URL    string
	Client *http.Client
}

func NewPushover(token, user, endpoint string) *Pushover {
	if endpoint == "" {
		endpoint = DefaultPushoverURL
	}
	return &Pushover{
		Token:  token,
		User:   user,
		URL:    endpoint,
		Client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *Pushover) Notify(ctx context.Context, n Notification) error {
	if p.Token == "" || p.User == "" {
		return errors.New("missing pushover credentials")
	}

	form := url.Values{}
	form.Set("token", p.Token)
	form.Set("user", p.User)
	form.Set("message", n.Message)
	if n.Title != "" {
		form.Set("title", n.Title)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("pushover request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("pushover returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return nil
}
