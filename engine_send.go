package smsverify

import (
	"context"
	"errors"
	"strings"
	"time"
)

// codePlaceholder marks where the generated code is interpolated into the
// caller's message template. Templates without it get the code appended, so
// the delivered message always contains exactly the stored code.
const codePlaceholder = "{code}"

// Send issues a fresh verification code for phone and dispatches the rendered
// message through the gateway.
//
// The rate limiter is consulted first; a denied attempt returns
// [ErrRateLimited] without generating a code. If the limiter backend is
// unreachable the send proceeds (fail open) and the degradation is audited.
// Storage and delivery outcomes are independent: a gateway failure returns
// [ErrDispatchFailed] with SendResult.CodePersisted still reporting whether
// the code was stored, and a storage failure does not block dispatch.
//
// A repeated Send for the same phone overwrites the pending code; the
// previous code is permanently invalid from that point.
func (e *Engine) Send(ctx context.Context, phone, template string) (SendResult, error) {
	if e == nil || e.limiter == nil || e.store == nil || e.gateway == nil || e.codes == nil {
		return SendResult{}, ErrEngineNotReady
	}
	if !validPhone(phone) || template == "" {
		e.emitAudit(ctx, auditEventSend, false, phone, ErrInvalidInput, nil)
		return SendResult{}, ErrInvalidInput
	}

	allowed, limErr := e.limiter.CheckAndIncrement(ctx, phone, clientIPFromContext(ctx))
	if limErr != nil {
		// Fail open: the send path stays available when the limiter backend
		// is down; the SMS provider has its own cost ceiling.
		allowed = true
		e.metricInc(MetricLimiterFailOpen)
		e.emitAudit(ctx, auditEventLimiterDegraded, false, phone, ErrStoreUnavailable, func() map[string]string {
			return map[string]string{
				"cause": limErr.Error(),
			}
		})
	}
	if !allowed {
		e.metricInc(MetricSendRateLimited)
		e.emitAudit(ctx, auditEventSend, false, phone, ErrRateLimited, nil)
		return SendResult{}, ErrRateLimited
	}

	code := e.codes.Generate()
	message := renderMessage(template, code)

	persisted := true
	if err := e.store.Put(ctx, phone, code, e.clock(), e.config.Code.Expiry); err != nil {
		// Storage failure does not block dispatch; the result reports it.
		persisted = false
		e.metricInc(MetricSendStoreDegraded)
		e.emitAudit(ctx, auditEventSend, false, phone, err, func() map[string]string {
			return map[string]string{
				"stage": "store",
			}
		})
	}

	start := time.Now()
	receipt, err := e.gateway.Send(ctx, phone, message)
	e.metrics.Observe(MetricDispatchLatency, time.Since(start))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// The persisted code stays valid until natural expiry; no
			// compensating rollback.
			return SendResult{CodePersisted: persisted}, err
		}

		e.metricInc(MetricSendDispatchFailed)
		e.emitAudit(ctx, auditEventSend, false, phone, ErrDispatchFailed, func() map[string]string {
			return map[string]string{
				"stage":          "dispatch",
				"code_persisted": boolString(persisted),
			}
		})
		if errors.Is(err, ErrDispatchFailed) {
			return SendResult{CodePersisted: persisted}, err
		}
		return SendResult{CodePersisted: persisted}, errors.Join(ErrDispatchFailed, err)
	}

	e.metricInc(MetricSendSuccess)
	e.emitAudit(ctx, auditEventSend, true, phone, nil, func() map[string]string {
		return map[string]string{
			"message_id":     receipt.MessageID,
			"code_persisted": boolString(persisted),
		}
	})

	return SendResult{
		MessageID:     receipt.MessageID,
		CodePersisted: persisted,
	}, nil
}

func renderMessage(template, code string) string {
	if strings.Contains(template, codePlaceholder) {
		return strings.ReplaceAll(template, codePlaceholder, code)
	}
	return template + " " + code
}

// validPhone accepts E.164-shaped numbers: optional leading '+', then 7 to 15
// digits. Transport layers may validate more strictly.
func validPhone(phone string) bool {
	if phone == "" {
		return false
	}
	digits := phone
	if digits[0] == '+' {
		digits = digits[1:]
	}
	if len(digits) < 7 || len(digits) > 15 {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
