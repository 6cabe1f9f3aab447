package license

import (
	"context"
	"fmt"
)

// Verdict is the outcome of a license check.
type Verdict int

const (
	// Unknown means the check could not conclude, e.g. the server was unreachable.
	Unknown Verdict = iota
	Licensed
	Unlicensed
)

func (v Verdict) String() string {
	switch v {
	case Licensed:
		return "licensed"
	case Unlicensed:
		return "unlicensed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// ParseVerdict parses the text form produced by String.
func ParseVerdict(s string) (Verdict, error) {
	switch s {
	case "licensed":
		return Licensed, nil
	case "unlicensed":
		return Unlicensed, nil
	case "unknown":
		return Unknown, nil
	}
	return Unknown, fmt.Errorf("invalid verdict %q", s)
}

// Verifier answers whether the user holds a license for a product.
type Verifier interface {
	// IsLicensed may block on I/O. Implementations return Unknown instead of
	// failing.
	IsLicensed(ctx context.Context, productCode string) Verdict
	// RequestLicense prompts the user to acquire a license. It must not block
	// and must not change the activation state.
	RequestLicense(ctx context.Context, productCode, message string)
}

// VerifierFunc adapts a function to a Verifier with a no-op RequestLicense.
type VerifierFunc func(ctx context.Context, productCode string) Verdict

func (f VerifierFunc) IsLicensed(ctx context.Context, productCode string) Verdict {
	return f(ctx, productCode)
}

func (f VerifierFunc) RequestLicense(context.Context, string, string) {}
