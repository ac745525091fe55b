package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aretw0/donorline/pkg/domain"
	"github.com/tidwall/gjson"
)

// MessageCollabBaseURL is the MessageCollab API host.
const MessageCollabBaseURL = "https://messaging.entpher.io"

// MessageCollab sends messages through the MessageCollab SMS API.
type MessageCollab struct {
	cfg MessageCollabConfig
	options
}

type messageCollabRequest struct {
	From            string `json:"from"`
	To              string `json:"to"`
	Message         string `json:"message"`
	DisplayInPortal bool   `json:"displayInPortal"`
}

// NewMessageCollab creates a MessageCollab gateway. All three credentials are required.
func NewMessageCollab(cfg MessageCollabConfig, opts ...Option) (*MessageCollab, error) {
	if cfg.AccountID == "" || cfg.From == "" || cfg.Token == "" {
		return nil, fmt.Errorf("%w: messagecollab account id, phone number and token are required", ErrNotConfigured)
	}
	return &MessageCollab{cfg: cfg, options: newOptions(MessageCollabBaseURL, opts)}, nil
}

// E164 prefixes a bare number with +1. Numbers that already start with + are kept.
func E164(number string) string {
	number = strings.TrimSpace(number)
	if strings.HasPrefix(number, "+") {
		return number
	}
	return "+1" + number
}

func (m *MessageCollab) endpoint() string {
	return fmt.Sprintf("%s/api/v1/sms/%s", m.baseURL, m.cfg.AccountID)
}

func (m *MessageCollab) Send(ctx context.Context, to, text string) (domain.Delivery, error) {
	payload, err := json.Marshal(messageCollabRequest{
		From:            E164(m.cfg.From),
		To:              E164(to),
		Message:         text,
		DisplayInPortal: true,
	})
	if err != nil {
		return domain.Delivery{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return domain.Delivery{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.cfg.Token)

	resp, err := m.client.Do(req)
	if err != nil {
		return domain.Delivery{}, fmt.Errorf("failed to call MessageCollab API: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp, "MessageCollab")
	if err != nil {
		return domain.Delivery{}, err
	}
	return domain.Delivery{ID: gjson.GetBytes(body, "mId").String(), Provider: PlatformMessageCollab}, nil
}

func (m *MessageCollab) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.endpoint(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.cfg.Token)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call MessageCollab API: %w", err)
	}
	defer resp.Body.Close()

	_, err = readBody(resp, "MessageCollab")
	return err
}
