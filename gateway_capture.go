package smsverify

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// CapturedMessage is one dispatch recorded by a [CaptureGateway].
type CapturedMessage struct {
	Phone     string
	Message   string
	MessageID string
}

// CaptureGateway is an in-memory [SmsGateway] that records every dispatch and
// issues synthetic receipts. Intended for tests and the dev server; it never
// leaves the process.
type CaptureGateway struct {
	mu       sync.Mutex
	messages []CapturedMessage
	fail     error
}

// NewCaptureGateway describes the newcapturegateway operation and its observable behavior.
//
// NewCaptureGateway may return an error when input validation, dependency calls, or security checks fail.
// NewCaptureGateway does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewCaptureGateway() *CaptureGateway {
	return &CaptureGateway{}
}

// Send describes the send operation and its observable behavior.
//
// Send may return an error when input validation, dependency calls, or security checks fail.
// Send does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *CaptureGateway) Send(ctx context.Context, phone, message string) (SmsReceipt, error) {
	if err := ctx.Err(); err != nil {
		return SmsReceipt{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.fail != nil {
		return SmsReceipt{}, g.fail
	}

	captured := CapturedMessage{
		Phone:     phone,
		Message:   message,
		MessageID: uuid.NewString(),
	}
	g.messages = append(g.messages, captured)

	return SmsReceipt{MessageID: captured.MessageID}, nil
}

// Messages returns a copy of everything dispatched so far.
func (g *CaptureGateway) Messages() []CapturedMessage {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]CapturedMessage, len(g.messages))
	copy(out, g.messages)
	return out
}

// FailWith makes subsequent dispatches return err; nil restores delivery.
func (g *CaptureGateway) FailWith(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail = err
}
