// Package internal contains helper utilities that are intentionally private
// to smsverify: verification code generation and phone-number masking for
// audit output.
//
// # What this package must NOT do
//
//   - Export types that appear in the public smsverify API.
//   - Be imported by any package outside the smsverify module.
package internal
