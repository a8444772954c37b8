// Package notify implements the notifier collaborator behind SEND_EMAIL
// actions. Delivery goes through an HTTP mail relay; the relay owns SMTP.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultTimeout = 10 * time.Second
	maxRetries     = 3

	// maxResponseBodySize limits how much of a relay error response is read
	// for diagnostics.
	maxResponseBodySize = 1024
)

// message is the relay wire format.
type message struct {
	DeliveryID string    `json:"deliveryId"`
	To         string    `json:"to"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	SentAt     time.Time `json:"sentAt"`
}

// RelayMailer delivers email through an HTTP mail relay, signing each payload
// with a shared secret. Transient relay failures are retried with exponential
// backoff; 4xx responses are permanent.
type RelayMailer struct {
	relayURL string
	secret   string
	client   *http.Client
	log      zerolog.Logger
}

// NewRelayMailer creates a mailer for the given relay endpoint.
func NewRelayMailer(relayURL, secret string, log zerolog.Logger) *RelayMailer {
	return &RelayMailer{
		relayURL: relayURL,
		secret:   secret,
		client:   &http.Client{Timeout: defaultTimeout},
		log:      log,
	}
}

// SendEmail posts the message to the relay.
func (m *RelayMailer) SendEmail(ctx context.Context, recipient, subject, body string) error {
	payload, err := json.Marshal(message{
		DeliveryID: uuid.NewString(),
		To:         recipient,
		Subject:    subject,
		Body:       body,
		SentAt:     time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}

	signature := ComputeHMAC(payload, m.secret)

	operation := func() (struct{}, error) {
		return struct{}{}, m.deliver(ctx, payload, signature)
	}

	_, err = backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(maxRetries),
	)
	if err != nil {
		m.log.Warn().Err(err).Str("recipient", recipient).Msg("mail delivery failed")
		return err
	}
	return nil
}

func (m *RelayMailer) deliver(ctx context.Context, payload []byte, signature string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.relayURL, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("create relay request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Deskforge-Signature", signature)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("relay request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	relayErr := fmt.Errorf("relay responded %d: %s", resp.StatusCode, string(respBody))
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return backoff.Permanent(relayErr)
	}
	return relayErr
}

// LogMailer writes messages to the log instead of delivering them. Used in
// development and as the fallback when no relay is configured.
type LogMailer struct {
	log zerolog.Logger
}

// NewLogMailer creates a log-only mailer.
func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

// SendEmail logs the message and reports success.
func (m *LogMailer) SendEmail(ctx context.Context, recipient, subject, body string) error {
	m.log.Info().
		Str("recipient", recipient).
		Str("subject", subject).
		Int("body_bytes", len(body)).
		Msg("email (log only)")
	return nil
}
