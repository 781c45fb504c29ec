package smsverify

import (
	"context"
	"time"
)

// VerificationRecord is the pending code held for one phone number. At most
// one live record exists per phone; a newer Send overwrites it.
type VerificationRecord struct {
	Phone     string
	Code      string
	CreatedAt int64
	ExpiresAt int64
	Attempts  uint16
}

// Expired reports whether the record is past its expiry at the given instant.
// An expired record is treated as absent for matching purposes even if it
// still occupies storage.
func (r *VerificationRecord) Expired(now time.Time) bool {
	return now.Unix() >= r.ExpiresAt
}

// SendResult defines a public type used by smsverify APIs.
//
// Storage success and delivery success are reported independently: a Send can
// return [ErrDispatchFailed] with CodePersisted still true (the stored code
// remains valid and a retried Send simply overwrites it).
type SendResult struct {
	MessageID     string
	CodePersisted bool
}

// SmsReceipt is the delivery acknowledgement returned by an [SmsGateway].
type SmsReceipt struct {
	MessageID string
}

// SmsGateway is the external message-delivery collaborator. Implementations
// must be safe for concurrent use; the engine never retries a dispatch.
type SmsGateway interface {
	Send(ctx context.Context, phone, message string) (SmsReceipt, error)
}

// VerificationStore is the durable keyed record of pending codes. All four
// operations are atomic per phone key; operations on different phones must
// not contend.
//
// Implementations report outcomes through the package error taxonomy:
// [ErrCodeNotFound], [ErrCodeExpired], [ErrCodeMismatch], and
// [ErrStoreUnavailable] for backend failures.
type VerificationStore interface {
	// Put unconditionally replaces any existing record for phone with a
	// fresh one expiring at now + expiry, attempts reset to zero.
	Put(ctx context.Context, phone, code string, now time.Time, expiry time.Duration) error

	// Get returns the live record for phone, or ErrCodeNotFound.
	Get(ctx context.Context, phone string) (*VerificationRecord, error)

	// ConsumeIfMatch atomically resolves a submitted code: nil means the
	// record matched and was deleted (consumed exactly once). ErrCodeExpired
	// deletes the record as a side effect; ErrCodeMismatch increments its
	// attempt counter and retains it. Two concurrent calls with the same
	// correct code yield at most one nil.
	ConsumeIfMatch(ctx context.Context, phone, code string, now time.Time) error
}

// expiredReaper is implemented by stores that support proactive deletion of
// expired records. Optional; lazy reaping on access is always in effect.
type expiredReaper interface {
	ReapExpired(ctx context.Context, now time.Time) (int, error)
}

// CodeGenerator produces verification codes. Generate never fails: the code
// is a short-lived OTP whose predictability risk is bounded by rate limiting
// and expiry, not generator strength.
type CodeGenerator interface {
	Generate() string
}
