// Package telegram is a minimal Bot API client covering the methods the
// bot actually calls.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmkov83/enerhobot/internal/logging"
	"github.com/dmkov83/enerhobot/internal/server/config"
)

type Client struct {
	endpoint string
	token    string
	client   *http.Client
	logger   logging.Logger
}

func NewClient(cfg *config.Config, logger logging.Logger) *Client {
	return &Client{
		endpoint: cfg.TelegramEndpoint,
		token:    cfg.BotToken,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
}

// SendMessage posts a text message to the chat. A non-empty keyboard is
// rendered as a persistent reply keyboard, one row per inner slice.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, keyboard [][]string) error {
	payload := sendMessageRequest{ChatID: chatID, Text: text}
	if len(keyboard) > 0 {
		markup := &ReplyKeyboardMarkup{ResizeKeyboard: true}
		for _, row := range keyboard {
			buttons := make([]KeyboardButton, 0, len(row))
			for _, label := range row {
				buttons = append(buttons, KeyboardButton{Text: label})
			}
			markup.Keyboard = append(markup.Keyboard, buttons)
		}
		payload.ReplyMarkup = markup
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshalling message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.endpoint, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("send failed: %s; body: %s", resp.Status, string(b))
	}

	var result apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("send rejected: %s", result.Description)
	}
	return nil
}
