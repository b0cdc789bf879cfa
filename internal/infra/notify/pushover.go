package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const pushoverURL = "https://api.pushover.net/1/messages.json"

// Pushover delivers notices to a phone. It is a no-op until both the app
// token and the user key are set.
type Pushover struct {
	token      string
	userKey    string
	title      string
	endpoint   string
	httpClient *http.Client
}

func NewPushover(token, userKey, title string) *Pushover {
	return NewPushoverWithURL(token, userKey, title, pushoverURL)
}

func NewPushoverWithURL(token, userKey, title, endpoint string) *Pushover {
	return &Pushover{
		token:      token,
		userKey:    userKey,
		title:      title,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *Pushover) Notify(ctx context.Context, message string) error {
	if p.token == "" || p.userKey == "" {
		return nil
	}

	data := url.Values{}
	data.Set("token", p.token)
	data.Set("user", p.userKey)
	data.Set("message", message)
	data.Set("title", p.title)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pushover error: %s", resp.Status)
	}

	return nil
}
