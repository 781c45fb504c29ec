// Package prometheus renders smsverify metrics in Prometheus text exposition
// format without depending on the Prometheus client library.
//
// # What this package must NOT do
//
//   - Hold references to raw counters — it reads immutable snapshots only.
//   - Mutate engine state.
package prometheus
