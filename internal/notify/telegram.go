// Package notify delivers human-readable alert text to an outward channel.
//
// Telegram posts to the Bot API sendMessage endpoint. It is stateless apart
// from its http.Client and is safe for concurrent use. Delivery is best-effort:
// there is no retry, and callers are expected to log failures locally.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrNotConfigured is returned when the bot token or chat id is missing. No
// network I/O is attempted in that case.
var ErrNotConfigured = errors.New("telegram notifier is not configured")

const (
	defaultBaseURL = "https://api.telegram.org"
	defaultTimeout = 10 * time.Second

	// maxMessageRunes is the Bot API limit for a single message text.
	maxMessageRunes = 4096
)

// Bot API parse modes.
const (
	ParseModeMarkdown   = "Markdown"
	ParseModeMarkdownV2 = "MarkdownV2"
	ParseModeHTML       = "HTML"
)

// Option configures a Telegram notifier.
type Option func(*Telegram)

// WithBaseURL overrides the Bot API origin (tests, self-hosted API servers).
func WithBaseURL(u string) Option {
	return func(t *Telegram) {
		if u = strings.TrimRight(strings.TrimSpace(u), "/"); u != "" {
			t.baseURL = u
		}
	}
}

// WithTimeout sets the HTTP client timeout. Default: 10s.
func WithTimeout(d time.Duration) Option {
	return func(t *Telegram) {
		if d > 0 {
			t.client.Timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client entirely.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Telegram) {
		if c != nil {
			t.client = c
		}
	}
}

// WithParseMode sets the Bot API parse_mode. Default: ParseModeMarkdown. An
// empty mode sends plain text.
func WithParseMode(mode string) Option {
	return func(t *Telegram) { t.parseMode = mode }
}

// Telegram sends alerts through a Telegram bot.
type Telegram struct {
	client    *http.Client
	baseURL   string
	token     string
	chatID    string
	parseMode string
}

// NewTelegram returns a notifier for the given bot token and chat id. Empty
// credentials are accepted; Notify then reports ErrNotConfigured.
func NewTelegram(token, chatID string, opts ...Option) *Telegram {
	t := &Telegram{
		client:    &http.Client{Timeout: defaultTimeout},
		baseURL:   defaultBaseURL,
		token:     strings.TrimSpace(token),
		chatID:    strings.TrimSpace(chatID),
		parseMode: ParseModeMarkdown,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Configured reports whether both token and chat id are present.
func (t *Telegram) Configured() bool {
	return t.token != "" && t.chatID != ""
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// Notify posts text to the configured chat. The text is escaped for the
// configured parse mode, so type names like "*net.OpError" or stack traces
// full of underscores are delivered literally instead of being rejected as
// unbalanced entities. Texts longer than the Bot API limit are truncated. Any non-2xx answer is returned as an error carrying the
// status and the first bytes of the response body.
func (t *Telegram) Notify(ctx context.Context, text string) error {
	if !t.Configured() {
		return ErrNotConfigured
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID:    t.chatID,
		Text:      escapeText(t.parseMode, text, maxMessageRunes),
		ParseMode: t.parseMode,
	})
	if err != nil {
		return fmt.Errorf("telegram: encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		// The URL embeds the bot token; keep it out of the returned error.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return fmt.Errorf("telegram: send: %w", uerr.Err)
		}
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// escapeText escapes s for the Bot API parse mode and keeps at most max runes
// of the result. An escape sequence is never split by the cut.
func escapeText(mode, s string, max int) string {
	var b strings.Builder
	n := 0
	for _, r := range s {
		unit := escapeRune(mode, r)
		k := utf8.RuneCountInString(unit)
		if n+k > max {
			break
		}
		b.WriteString(unit)
		n += k
	}
	return b.String()
}

func escapeRune(mode string, r rune) string {
	switch mode {
	case ParseModeMarkdown:
		if strings.ContainsRune("_*`[", r) {
			return `\` + string(r)
		}
	case ParseModeMarkdownV2:
		if strings.ContainsRune("_*[]()~`>#+-=|{}.!\\", r) {
			return `\` + string(r)
		}
	case ParseModeHTML:
		switch r {
		case '<':
			return "&lt;"
		case '>':
			return "&gt;"
		case '&':
			return "&amp;"
		}
	}
	return string(r)
}
