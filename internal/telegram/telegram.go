package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/model"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	messageLimit   = 4096
	minInterval    = 1200 * time.Millisecond
)

// ErrInvalidToken is returned when the bot token does not look like the
// "123456789:AA..." shape Telegram issues.
var ErrInvalidToken = errors.New("telegram bot token must look like '123456789:...'")

// Sender delivers listing alerts through the Telegram Bot API. Send blocks
// until the API confirms the message so the caller can decide whether to mark
// the listing as seen; the per-message minimum interval and retry_after
// handling keep the bot inside Telegram's rate limits.
type Sender struct {
	token    string
	chat     string
	threadID *int

	client  *http.Client
	logger  *slog.Logger
	apiBase string

	mu       sync.Mutex
	lastSent time.Time
}

func NewSender(client *http.Client, logger *slog.Logger, token, chat string, threadID *int) (*Sender, error) {
	if token == "" || !strings.Contains(token, ":") {
		return nil, ErrInvalidToken
	}
	if chat == "" {
		return nil, errors.New("telegram chat id is required")
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if chat == BotID(token) {
		logger.Warn("chat id equals the bot's own id; set TELEGRAM_CHAT_ID to your user or group id", "chat", chat)
	}
	return &Sender{
		token:    token,
		chat:     chat,
		threadID: threadID,
		client:   client,
		logger:   logger,
		apiBase:  defaultAPIBase,
	}, nil
}

// BotID extracts the numeric bot id from a token.
func BotID(token string) string {
	id, _, _ := strings.Cut(token, ":")
	return id
}

func (s *Sender) Send(ctx context.Context, listing model.Listing) error {
	for _, part := range splitMessage(formatListing(listing), messageLimit) {
		if err := s.sendText(ctx, part); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sender) sendText(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if wait := time.Until(s.lastSent.Add(minInterval)); wait > 0 {
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}

	retryAfter, err := s.postMessage(ctx, text)
	if err != nil && retryAfter > 0 {
		s.logger.Warn("telegram rate limit hit", "retry_after", retryAfter)
		if err := sleep(ctx, retryAfter); err != nil {
			return err
		}
		_, err = s.postMessage(ctx, text)
	}
	if err != nil {
		return err
	}

	s.lastSent = time.Now()
	return nil
}

func (s *Sender) postMessage(ctx context.Context, text string) (time.Duration, error) {
	payload := map[string]any{
		"chat_id":    s.chat,
		"text":       text,
		"parse_mode": "HTML",
	}
	if s.threadID != nil {
		payload["message_thread_id"] = *s.threadID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var parsed apiResponse
	_ = json.NewDecoder(resp.Body).Decode(&parsed)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests && parsed.Parameters.RetryAfter > 0:
		return time.Duration(parsed.Parameters.RetryAfter) * time.Second, fmt.Errorf("telegram rate limited")
	case resp.StatusCode == http.StatusNotFound:
		return 0, fmt.Errorf("telegram 404 (check the bot token): %s", parsed.Description)
	case resp.StatusCode == http.StatusForbidden:
		return 0, fmt.Errorf("telegram 403 (the chat has not started the bot, or the chat id points at a bot): %s", parsed.Description)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return 0, fmt.Errorf("telegram error: %d %s", resp.StatusCode, parsed.Description)
	}
	return 0, nil
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

func formatListing(listing model.Listing) string {
	return fmt.Sprintf(
		"📢 <b>%s</b>\n💰 %s\n🔗 %s",
		html.EscapeString(listing.Title),
		html.EscapeString(listing.Price),
		html.EscapeString(listing.URL),
	)
}

func splitMessage(message string, limit int) []string {
	runes := []rune(message)
	if len(runes) <= limit {
		return []string{message}
	}

	var parts []string
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
