// Package smsverify implements phone-number verification over SMS: issuing
// short-lived one-time codes, enforcing a per-phone send ceiling, and consuming
// submitted codes exactly once.
//
// The package is designed for stateless server workloads: all cross-request
// coordination (rate counters, pending codes) lives in a shared backing store,
// so any number of workers can serve the same phone number concurrently.
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// smsverify is the public surface. It exposes [Engine], [Builder], [Config],
// the [SmsGateway] and [VerificationStore] collaborator interfaces, and value
// types (SendResult, VerificationRecord, MetricsSnapshot). Helpers live under
// internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, record encodings, or key layouts in its public API.
//   - Accept an expired code as valid, under any interleaving.
//   - Allow two callers to consume the same code; ConsumeIfMatch is atomic
//     end-to-end.
//
// # Failure policy
//
// The send rate limiter fails open when its backend is unreachable
// (availability of the send path wins; the SMS provider carries its own cost
// ceiling). The verification store fails closed: integrity of the single-use
// guarantee is never traded for availability.
package smsverify
