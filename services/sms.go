package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"scavenger-hunt/config"
	"scavenger-hunt/utils"
)

// SMSSender delivers one text message to a normalized phone number.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}

// NewSMSSender picks the sender configured by SMS_PROVIDER.
func NewSMSSender(cfg config.SMSConfig, log zerolog.Logger) SMSSender {
	if cfg.Provider == config.SMSProviderHTTP {
		return NewGatewaySender(cfg.GatewayURL, cfg.Token, cfg.SenderID)
	}
	return &LogSender{Log: log}
}

// LogSender only logs the message. Used when no SMS provider is configured.
type LogSender struct {
	Log zerolog.Logger
}

func (s *LogSender) Send(_ context.Context, phone, message string) error {
	s.Log.Warn().
		Str("phone", utils.MaskPhone(phone)).
		Str("message", message).
		Msg("[SMS] bypass mode, message not sent")
	return nil
}

// GatewaySender posts messages to an HTTP SMS gateway.
type GatewaySender struct {
	URL      string
	Token    string
	SenderID string
	Client   *http.Client
}

func NewGatewaySender(url, token, senderID string) *GatewaySender {
	return &GatewaySender{
		URL:      url,
		Token:    token,
		SenderID: senderID,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type gatewayRequest struct {
	To       string `json:"to"`
	Message  string `json:"message"`
	SenderID string `json:"sender_id,omitempty"`
}

func (s *GatewaySender) Send(ctx context.Context, phone, message string) error {
	body, err := json.Marshal(gatewayRequest{To: phone, Message: message, SenderID: s.SenderID})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	return nil
}
