package smsverify

import (
	"github.com/MrEthical07/smsverify/internal"
)

// randomCodeGenerator is the default [CodeGenerator]: uniformly random
// numeric codes of the configured width.
type randomCodeGenerator struct {
	digits int
}

func newRandomCodeGenerator(digits int) *randomCodeGenerator {
	return &randomCodeGenerator{digits: digits}
}

// Generate never fails. When the entropy source errors it falls back to a
// non-cryptographic source; see [CodeGenerator].
func (g *randomCodeGenerator) Generate() string {
	code, err := internal.NewCode(g.digits)
	if err != nil {
		return internal.NewCodeInsecure(g.digits)
	}
	return code
}
