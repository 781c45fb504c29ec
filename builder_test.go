package smsverify

import (
	"context"
	"testing"
	"time"
)

func TestBuildRequiresRedisAndGateway(t *testing.T) {
	if _, err := New().Build(); err == nil {
		t.Fatal("Build without redis should fail")
	}

	mr, rdb := newTestRedis(t)
	defer mr.Close()

	if _, err := New().WithRedis(rdb).Build(); err == nil {
		t.Fatal("Build without gateway should fail")
	}

	engine, err := New().WithRedis(rdb).WithGateway(NewCaptureGateway()).Build()
	if err != nil {
		t.Fatalf("Build with redis and gateway failed: %v", err)
	}
	engine.Close()
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	cfg := DefaultConfig()
	cfg.Code.Digits = 3

	_, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithGateway(NewCaptureGateway()).
		Build()
	if err == nil {
		t.Fatal("Build with invalid config should fail")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	b := New().WithRedis(rdb).WithGateway(NewCaptureGateway())

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	defer engine.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("second Build on the same builder should fail")
	}
}

func TestBuildWithReaper(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	cfg := DefaultConfig()
	cfg.Reaper.Enabled = true
	cfg.Reaper.Interval = time.Minute

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithGateway(NewCaptureGateway()).
		Build()
	if err != nil {
		t.Fatalf("Build with reaper failed: %v", err)
	}
	if engine.reaper == nil {
		t.Fatal("expected a running reaper")
	}
	engine.Close()
}

type staticCodeGenerator struct{ code string }

func (g staticCodeGenerator) Generate() string { return g.code }

func TestBuildWithCustomCodeGenerator(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	gw := NewCaptureGateway()
	engine, err := New().
		WithRedis(rdb).
		WithGateway(gw).
		WithCodeGenerator(staticCodeGenerator{code: "424242"}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	ctx := context.Background()
	if _, err := engine.Send(ctx, "+15551234567", "Code: {code}"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if err := engine.Verify(ctx, "+15551234567", "424242"); err != nil {
		t.Fatalf("Verify with injected code failed: %v", err)
	}
}
