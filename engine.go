package smsverify

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/smsverify/internal"
)

// Engine orchestrates phone verification: Send issues a rate-limited one-time
// code and dispatches it through the configured [SmsGateway]; Verify consumes
// a submitted code exactly once.
//
// Engine holds no per-phone state in process. Every cross-request decision is
// made against the backing store, so any number of Engine instances can serve
// the same phone concurrently.
type Engine struct {
	config  Config
	limiter *sendRateLimiter
	store   VerificationStore
	gateway SmsGateway
	codes   CodeGenerator
	audit   *auditDispatcher
	metrics *Metrics
	reaper  *codeReaper

	// now is the engine clock; tests override it to exercise expiry.
	now func() time.Time
}

// Close stops the background reaper (if running) and flushes the audit
// dispatcher. Safe to call more than once.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.reaper != nil {
		e.reaper.Stop()
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) clock() time.Time {
	if e.now != nil {
		return e.now()
	}
	return time.Now()
}

// AuditErrorCode defines a public type used by smsverify APIs.
type AuditErrorCode string

const (
	auditErrInvalidInput     AuditErrorCode = "invalid_input"
	auditErrRateLimited      AuditErrorCode = "rate_limited"
	auditErrDispatchFailed   AuditErrorCode = "dispatch_failed"
	auditErrStoreUnavailable AuditErrorCode = "store_unavailable"
	auditErrCodeMismatch     AuditErrorCode = "code_mismatch"
	auditErrCodeExpired      AuditErrorCode = "code_expired"
	auditErrCodeNotFound     AuditErrorCode = "code_not_found"
	auditErrInternal         AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	phone string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Phone:     internal.MaskPhone(phone),
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return auditErrInvalidInput
	case errors.Is(err, ErrRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrDispatchFailed):
		return auditErrDispatchFailed
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrStoreUnavailable
	case errors.Is(err, ErrCodeMismatch):
		return auditErrCodeMismatch
	case errors.Is(err, ErrCodeExpired):
		return auditErrCodeExpired
	case errors.Is(err, ErrCodeNotFound):
		return auditErrCodeNotFound
	default:
		return auditErrInternal
	}
}
