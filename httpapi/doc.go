// Package httpapi exposes the verification engine over HTTP: POST /send and
// POST /verify, plus an action-dispatched compatibility endpoint matching the
// original gateway shape and a Prometheus /metrics route.
//
// Status mapping: success 200, malformed input 400, rate limited 429,
// verification failures 400 with a reason field (code_mismatch, code_expired,
// code_not_found), gateway dispatch failure 502, store unavailability 500.
//
// # What this package must NOT do
//
//   - Reach into engine internals; it only calls Send and Verify.
//   - Log or echo full phone numbers or codes.
package httpapi
