// Package telegram implements the outbound side of the chat transport:
// message delivery and webhook registration against the Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"secondbrain/agent/internal/app"
)

// ParseModeMarkdownV2 requests MarkdownV2 rendering. Plain text is the
// empty parse mode.
const ParseModeMarkdownV2 = "MarkdownV2"

// Sender delivers replies to chats. The core calls Send once per turn.
type Sender interface {
	Send(ctx context.Context, chatID int64, text, parseMode string) error
}

// Client talks to the Telegram Bot API.
type Client struct {
	token      string
	apiBase    string
	httpClient *http.Client
	logger     app.Logger
}

// ClientOption tweaks the client at construction.
type ClientOption func(*Client)

// WithAPIBase overrides the Bot API host. Used by tests.
func WithAPIBase(base string) ClientOption {
	return func(c *Client) { c.apiBase = base }
}

// NewClient creates a Bot API client for the given token.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		token:   token,
		apiBase: "https://api.telegram.org",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: app.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.token, method)
}

// apiResponse is the envelope every Bot API call returns.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send delivers text to the chat. When a markdown parse mode is set the
// text is escaped for MarkdownV2 first. A failed formatted send is
// retried once as plain text before the error is returned, so a
// formatting rejection never silences the user.
func (c *Client) Send(ctx context.Context, chatID int64, text, parseMode string) error {
	err := c.sendOnce(ctx, chatID, text, parseMode)
	if err == nil || parseMode == "" {
		return err
	}
	c.logger.Warn("formatted send to chat %d failed, retrying as plain text: %v", chatID, err)
	return c.sendOnce(ctx, chatID, text, "")
}

func (c *Client) sendOnce(ctx context.Context, chatID int64, text, parseMode string) error {
	if strings.HasPrefix(strings.ToLower(parseMode), "markdown") {
		text = EscapeMarkdown(text)
	}

	payload := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	if parseMode != "" {
		payload["parse_mode"] = parseMode
	}
	return c.call(ctx, "sendMessage", payload)
}

// SetWebhook registers url as the inbound webhook.
func (c *Client) SetWebhook(ctx context.Context, webhookURL string) error {
	return c.call(ctx, "setWebhook", map[string]any{"url": webhookURL})
}

// DeleteWebhook removes the registered webhook.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", nil)
}

func (c *Client) call(ctx context.Context, method string, payload map[string]any) error {
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return fmt.Errorf("marshal %s payload: %w", method, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), &body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute %s: %w", method, err)
	}
	defer resp.Body.Close()

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if !apiResp.OK {
		return fmt.Errorf("%s rejected: %s", method, apiResp.Description)
	}
	return nil
}

// EscapeMarkdown escapes the characters MarkdownV2 treats as markup.
func EscapeMarkdown(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(`_*[]()~`+"`"+`>#+-=|{}.!`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// WebhookURL joins a public base URL with the webhook path.
func WebhookURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse webhook base URL: %w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/webhook"
	return u.String(), nil
}
