package smsverify

import (
	"context"
	"errors"
)

// Verify resolves a submitted code for phone. A nil return means the code
// matched and was consumed: the record is gone, and a second Verify with the
// same code returns [ErrCodeNotFound].
//
// Non-match outcomes are [ErrCodeMismatch] (attempt counter incremented,
// code still pending), [ErrCodeExpired] (record reaped), and
// [ErrCodeNotFound]. Verify is never retried internally; a mismatch retry
// only inflates the attempt counter.
func (e *Engine) Verify(ctx context.Context, phone, code string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}
	if !validPhone(phone) || code == "" {
		e.metricInc(MetricVerifyNotFound)
		e.emitAudit(ctx, auditEventVerify, false, phone, ErrInvalidInput, nil)
		return ErrInvalidInput
	}

	err := e.store.ConsumeIfMatch(ctx, phone, code, e.clock())
	if err != nil {
		switch {
		case errors.Is(err, ErrCodeMismatch):
			e.metricInc(MetricVerifyMismatch)
		case errors.Is(err, ErrCodeExpired):
			e.metricInc(MetricVerifyExpired)
		case errors.Is(err, ErrCodeNotFound):
			e.metricInc(MetricVerifyNotFound)
		default:
			// Integrity over availability: verification fails closed when
			// the store is unreachable.
			e.metricInc(MetricVerifyStoreUnavailable)
		}
		e.emitAudit(ctx, auditEventVerify, false, phone, err, nil)
		return err
	}

	e.metricInc(MetricVerifySuccess)
	e.emitAudit(ctx, auditEventVerify, true, phone, nil, nil)
	return nil
}
