package internaldefs

import (
	smsverify "github.com/MrEthical07/smsverify"
)

// CounterDef defines a public type used by smsverify APIs.
type CounterDef struct {
	ID   smsverify.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by smsverify APIs.
type HistogramDef struct {
	ID   smsverify.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the verification engine.
var CounterDefs = []CounterDef{
	{ID: smsverify.MetricSendSuccess, Name: "smsverify_send_success_total", Help: "Verification codes sent."},
	{ID: smsverify.MetricSendRateLimited, Name: "smsverify_send_rate_limited_total", Help: "Sends denied by the per-phone rate ceiling."},
	{ID: smsverify.MetricSendDispatchFailed, Name: "smsverify_send_dispatch_failed_total", Help: "Gateway dispatch failures."},
	{ID: smsverify.MetricSendStoreDegraded, Name: "smsverify_send_store_degraded_total", Help: "Sends whose code could not be persisted."},
	{ID: smsverify.MetricLimiterFailOpen, Name: "smsverify_limiter_fail_open_total", Help: "Sends allowed because the limiter backend was unreachable."},
	{ID: smsverify.MetricVerifySuccess, Name: "smsverify_verify_success_total", Help: "Codes consumed by a successful verification."},
	{ID: smsverify.MetricVerifyMismatch, Name: "smsverify_verify_mismatch_total", Help: "Verifications rejected for code mismatch."},
	{ID: smsverify.MetricVerifyExpired, Name: "smsverify_verify_expired_total", Help: "Verifications rejected for code expiry."},
	{ID: smsverify.MetricVerifyNotFound, Name: "smsverify_verify_not_found_total", Help: "Verifications with no pending code."},
	{ID: smsverify.MetricVerifyStoreUnavailable, Name: "smsverify_verify_store_unavailable_total", Help: "Verifications failed closed on store unavailability."},
	{ID: smsverify.MetricCodesReaped, Name: "smsverify_codes_reaped_total", Help: "Expired records deleted by the proactive reaper."},
}

// HistogramDefs is an exported constant or variable used by the verification engine.
var HistogramDefs = []HistogramDef{
	{ID: smsverify.MetricDispatchLatency, Name: "smsverify_dispatch_latency_seconds", Help: "Gateway dispatch latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the verification engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the verification engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
