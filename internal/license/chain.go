package license

import "context"

// ChainVerifier consults verifiers in order and returns the first verdict that
// is not Unknown.
type ChainVerifier struct {
	verifiers []Verifier
}

// NewChainVerifier creates a chain. Nil verifiers are skipped.
func NewChainVerifier(verifiers ...Verifier) *ChainVerifier {
	c := &ChainVerifier{}
	for _, v := range verifiers {
		if v != nil {
			c.verifiers = append(c.verifiers, v)
		}
	}
	return c
}

// IsLicensed implements Verifier.
func (c *ChainVerifier) IsLicensed(ctx context.Context, productCode string) Verdict {
	for _, v := range c.verifiers {
		if ctx.Err() != nil {
			return Unknown
		}
		if verdict := v.IsLicensed(ctx, productCode); verdict != Unknown {
			return verdict
		}
	}
	return Unknown
}

// RequestLicense implements Verifier using the first verifier.
func (c *ChainVerifier) RequestLicense(ctx context.Context, productCode, message string) {
	if len(c.verifiers) > 0 {
		c.verifiers[0].RequestLicense(ctx, productCode, message)
	}
}
