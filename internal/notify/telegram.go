package notify

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

const defaultTelegramAPI = "https://api.telegram.org"

// Telegram posts messages through the Bot API sendMessage method.
type Telegram struct {
	BotID   string
	Token   string
	ChatID  string
	BaseURL string
	Client  *http.Client
}

// NewTelegram returns nil unless bot id, token and chat are all set.
func NewTelegram(botID, token, chatID string, timeout time.Duration) *Telegram {
	if botID == "" || token == "" || chatID == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Telegram{
		BotID:   botID,
		Token:   token,
		ChatID:  chatID,
		BaseURL: defaultTelegramAPI,
		Client:  &http.Client{Timeout: timeout},
	}
}

type telegramMessage struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type telegramReply struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *Telegram) Send(ctx context.Context, text string) error {
	if t == nil {
		return errors.New("telegram disabled")
	}
	body, err := json.Marshal(telegramMessage{ChatID: t.ChatID, Text: text})
	if err != nil {
		return err
	}
	endpoint := strings.TrimRight(t.BaseURL, "/") + "/bot" + t.BotID + ":" + t.Token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		// the URL carries the token; keep it out of the error
		return errors.New("telegram: invalid request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return errors.New("telegram: request failed: " + redact(err.Error(), t.Token))
	}
	defer resp.Body.Close()

	var reply telegramReply
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&reply)
	if resp.StatusCode/100 != 2 || !reply.OK {
		if reply.Description != "" {
			return fmt.Errorf("telegram: %s: %s", resp.Status, reply.Description)
		}
		return fmt.Errorf("telegram: %s", resp.Status)
	}
	return nil
}

func redact(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, "***")
}
