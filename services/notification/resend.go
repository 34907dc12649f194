package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"icehaus/config"
)

const resendEndpoint = "https://api.resend.com/emails"

// ResendClient is a minimal client for the Resend transactional email API.
type ResendClient struct {
	apiKey string
	sender string
	http   *http.Client
	logger *zap.Logger
}

// NewResendClient builds a client from AppConfig. When no API key is
// configured, Send becomes a logged no-op so local development works
// without credentials.
func NewResendClient(logger *zap.Logger) *ResendClient {
	return &ResendClient{
		apiKey: config.AppConfig.ResendAPIKey,
		sender: config.AppConfig.EmailSender,
		http:   &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

type resendPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send posts one email. Callers treat errors as advisory.
func (c *ResendClient) Send(ctx context.Context, toEmail, subject, html string) error {
	if toEmail == "" || !strings.Contains(toEmail, "@") {
		return fmt.Errorf("invalid recipient email: %s", toEmail)
	}
	if c.apiKey == "" {
		c.logger.Warn("Email service not configured; dropping email",
			zap.String("to", toEmail), zap.String("subject", subject))
		return nil
	}

	body, err := json.Marshal(resendPayload{
		From:    c.sender,
		To:      []string{toEmail},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendEndpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("email request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("email provider returned %d: %s", resp.StatusCode, string(respBody))
	}

	c.logger.Info("Email sent", zap.String("to", toEmail), zap.String("subject", subject))
	return nil
}
