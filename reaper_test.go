package smsverify

import (
	"context"
	"testing"
	"time"
)

func TestReaperRemovesExpiredCodes(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	gw := NewCaptureGateway()
	engine := newTestEngine(t, rdb, gw)
	store := engine.store.(*redisVerificationStore)
	ctx := context.Background()
	now := time.Now()

	if err := store.Put(ctx, "+15551110001", "111111", now.Add(-time.Hour), 10*time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, "+15551110002", "222222", now, 10*time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	reaper := newCodeReaper(engine, store, time.Minute)
	engine.reaper = reaper
	defer reaper.Stop()

	reaper.reapOnce()

	if mr.Exists("smsv:code:+15551110001") {
		t.Fatal("expired record should be reaped")
	}
	if !mr.Exists("smsv:code:+15551110002") {
		t.Fatal("live record should survive")
	}
	if got := engine.MetricsSnapshot().Counters[MetricCodesReaped]; got != 1 {
		t.Fatalf("expected 1 reaped code in metrics, got %d", got)
	}
}

func TestReaperStopIsIdempotent(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	engine := newTestEngine(t, rdb, NewCaptureGateway())
	store := engine.store.(*redisVerificationStore)

	reaper := newCodeReaper(engine, store, 10*time.Millisecond)
	reaper.Stop()
	reaper.Stop()
}
