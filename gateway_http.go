package smsverify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPGatewayConfig defines a public type used by smsverify APIs.
//
// HTTPGatewayConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HTTPGatewayConfig struct {
	// URL of the upstream SMS endpoint; the gateway POSTs to URL + "/send".
	URL string
	// APIKey, when set, is sent as the x-api-key header.
	APIKey string
	// SenderID is passed through to the provider unchanged.
	SenderID string
	// Timeout per dispatch; zero means 10 seconds.
	Timeout time.Duration
}

// HTTPGateway dispatches messages through an HTTP SMS backend (API gateway in
// front of a carrier integration). It is the production [SmsGateway].
type HTTPGateway struct {
	config HTTPGatewayConfig
	client *http.Client
}

// NewHTTPGateway describes the newhttpgateway operation and its observable behavior.
//
// NewHTTPGateway may return an error when input validation, dependency calls, or security checks fail.
// NewHTTPGateway does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewHTTPGateway(cfg HTTPGatewayConfig) *HTTPGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &HTTPGateway{
		config: cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type httpGatewayRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Message     string `json:"message"`
	SenderID    string `json:"senderId,omitempty"`
}

type httpGatewayResponse struct {
	MessageID string `json:"messageId"`
	Error     string `json:"error,omitempty"`
}

// Send describes the send operation and its observable behavior.
//
// Send may return an error when input validation, dependency calls, or security checks fail.
// Send does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *HTTPGateway) Send(ctx context.Context, phone, message string) (SmsReceipt, error) {
	if g.config.URL == "" {
		return SmsReceipt{}, ErrGatewayNotConfigured
	}

	payload, err := json.Marshal(httpGatewayRequest{
		PhoneNumber: phone,
		Message:     message,
		SenderID:    g.config.SenderID,
	})
	if err != nil {
		return SmsReceipt{}, fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.URL+"/send", bytes.NewReader(payload))
	if err != nil {
		return SmsReceipt{}, fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.config.APIKey != "" {
		req.Header.Set("x-api-key", g.config.APIKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return SmsReceipt{}, fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return SmsReceipt{}, fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return SmsReceipt{}, fmt.Errorf("%w: upstream status %d", ErrDispatchFailed, resp.StatusCode)
	}

	var decoded httpGatewayResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return SmsReceipt{}, fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}
	if decoded.Error != "" {
		return SmsReceipt{}, fmt.Errorf("%w: %s", ErrDispatchFailed, decoded.Error)
	}

	return SmsReceipt{MessageID: decoded.MessageID}, nil
}
