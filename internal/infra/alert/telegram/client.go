package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Header is prepended to every relayed message.
const Header = "🚨 Security Alert (Threat Console):"

const DefaultBaseURL = "https://api.telegram.org"

// Options for the bot client. Token and ChatID come from configuration only.
type Options struct {
	BaseURL    string
	Token      string
	ChatID     string
	HTTPClient *http.Client
}

// Client posts messages through the Bot API sendMessage method.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	chatID  string
}

var ErrNotConfigured = errors.New("telegram: bot token and chat id are required")

func NewClient(opts Options) (*Client, error) {
	if opts.Token == "" || opts.ChatID == "" {
		return nil, ErrNotConfigured
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		http:    hc,
		baseURL: strings.TrimSuffix(base, "/"),
		token:   opts.Token,
		chatID:  opts.ChatID,
	}, nil
}

type sendMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Format wraps message in the fixed alert template.
func Format(message string) string {
	return Header + "\n\n" + message
}

// Notify sends one message. No retry.
func (c *Client) Notify(ctx context.Context, message string) error {
	body, err := json.Marshal(sendMessage{ChatID: c.chatID, Text: Format(message), ParseMode: "Markdown"})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var out apiResponse
	_ = json.Unmarshal(raw, &out)
	if resp.StatusCode/100 != 2 || !out.OK {
		desc := out.Description
		if desc == "" {
			desc = strings.TrimSpace(string(raw))
		}
		return fmt.Errorf("telegram: status %d: %s", resp.StatusCode, desc)
	}
	return nil
}
