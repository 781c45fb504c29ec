package internal

import (
	"crypto/rand"
	"errors"
	"math/big"
	mathrand "math/rand"
	"strings"
)

// NewCode returns a uniformly distributed numeric code of the given width
// with a non-zero leading digit, e.g. 6 digits drawn from [100000, 999999].
func NewCode(digits int) (string, error) {
	if digits < 6 || digits > 10 {
		return "", errors.New("invalid code digits")
	}

	var b strings.Builder
	b.Grow(digits)

	ten := big.NewInt(10)
	nine := big.NewInt(9)

	// Leading digit from [1,9] so the code is always exactly `digits` wide.
	n, err := rand.Int(rand.Reader, nine)
	if err != nil {
		return "", err
	}
	b.WriteByte(byte('1' + n.Int64()))

	for i := 1; i < digits; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	return b.String(), nil
}

// NewCodeInsecure is the fallback used when the system entropy source fails.
// Acceptable here: the code is a short-lived OTP guarded by rate limiting and
// expiry, not a cryptographic secret.
func NewCodeInsecure(digits int) string {
	if digits < 6 || digits > 10 {
		digits = 6
	}

	var b strings.Builder
	b.Grow(digits)

	b.WriteByte(byte('1' + mathrand.Intn(9)))
	for i := 1; i < digits; i++ {
		b.WriteByte(byte('0' + mathrand.Intn(10)))
	}

	return b.String()
}

// MaskPhone blanks the middle of a phone number for audit output, keeping the
// prefix and the last two digits: "+15551234567" -> "+155*****67".
func MaskPhone(phone string) string {
	if len(phone) <= 6 {
		return strings.Repeat("*", len(phone))
	}

	return phone[:4] + strings.Repeat("*", len(phone)-6) + phone[len(phone)-2:]
}
