package smsverify

import (
	"context"
	"strings"
	"testing"
	"time"
)

func collectEvent(t *testing.T, sink *ChannelSink) AuditEvent {
	t.Helper()

	select {
	case event := <-sink.Events():
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audit event")
		return AuditEvent{}
	}
}

func TestAuditEventsForSendAndVerify(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	sink := NewChannelSink(16)
	gw := NewCaptureGateway()

	engine, err := New().
		WithRedis(rdb).
		WithGateway(gw).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	ctx := WithClientIP(context.Background(), "203.0.113.9")

	if _, err := engine.Send(ctx, "+15551234567", "Your code is {code}"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	event := collectEvent(t, sink)
	if event.EventType != "sms_send" {
		t.Fatalf("expected sms_send event, got %q", event.EventType)
	}
	if !event.Success {
		t.Fatal("expected a success event")
	}
	if event.IP != "203.0.113.9" {
		t.Fatalf("expected client IP in event, got %q", event.IP)
	}
	if strings.Contains(event.Phone, "1234567") {
		t.Fatalf("audit event leaks the raw phone number: %q", event.Phone)
	}
	if !strings.Contains(event.Phone, "*") {
		t.Fatalf("expected masked phone, got %q", event.Phone)
	}
	if event.Metadata["message_id"] == "" {
		t.Fatal("expected message_id metadata on a successful send")
	}

	code := lastSentCode(t, gw)
	if err := engine.Verify(ctx, "+15551234567", code); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	event = collectEvent(t, sink)
	if event.EventType != "sms_verify" {
		t.Fatalf("expected sms_verify event, got %q", event.EventType)
	}
	if !event.Success {
		t.Fatal("expected a success verify event")
	}
}

func TestAuditFailureEventCarriesErrorCode(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	sink := NewChannelSink(16)

	engine, err := New().
		WithRedis(rdb).
		WithGateway(NewCaptureGateway()).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	if err := engine.Verify(context.Background(), "+15551234567", "123456"); err == nil {
		t.Fatal("expected Verify to fail with no pending code")
	}

	event := collectEvent(t, sink)
	if event.Success {
		t.Fatal("expected a failure event")
	}
	if event.Error != string(auditErrCodeNotFound) {
		t.Fatalf("expected error code %q, got %q", auditErrCodeNotFound, event.Error)
	}
}

func TestAuditDispatcherDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	sink := blockingSink{release: block}

	d := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
	}, sink)

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		d.Emit(ctx, AuditEvent{EventType: "sms_send"})
	}

	if d.Dropped() == 0 {
		t.Fatal("expected dropped events with a full buffer and DropIfFull set")
	}

	close(block)
	d.Close()
}

type blockingSink struct {
	release chan struct{}
}

func (s blockingSink) Emit(ctx context.Context, event AuditEvent) {
	<-s.release
}
